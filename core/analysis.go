package core

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/SebSchroeter/masterthesis/core/game"
	"github.com/SebSchroeter/masterthesis/core/power"
	"github.com/SebSchroeter/masterthesis/core/space"
	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/SebSchroeter/masterthesis/internal/milp"
	"github.com/SebSchroeter/masterthesis/schema"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/SebSchroeter/masterthesis/core")

// runBatch analyzes every period with a bounded worker pool and records the run
// when analysis tracking is configured. Results keep the input order.
func runBatch(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, periods []schema.PeriodInput) (*schema.BatchResult, error) {
	start := time.Now()
	if !shouldSuppressHeader(ctx) {
		contract.LogAnalysisHeader(cfg, len(periods))
	}

	solver, err := milp.NewSolver(cfg.Solver, cfg.SolverPath)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "wvg.batch", trace.WithAttributes(
		attribute.Int("wvg.periods", len(periods)),
		attribute.String("wvg.solver", solver.Name()),
	))
	defer span.End()

	// Add cache manager to context for use in worker goroutines
	ctx = contextWithCacheManager(ctx, mgr)

	batch := &schema.BatchResult{RunID: uuid.NewString(), Source: cfg.InputPath}

	// --- 0. Begin Analysis Tracking (if configured) ---
	var analysisStore contract.AnalysisStore
	if mgr != nil {
		analysisStore = mgr.GetAnalysisStore()
	}
	if analysisStore != nil {
		analysisID, err := analysisStore.BeginAnalysis(batch.RunID, start, trackedConfig(cfg))
		if err != nil {
			contract.LogWarn("Analysis tracking initialization failed", err)
		} else if analysisID > 0 {
			ctx = withAnalysisID(ctx, analysisID)
		}
	}

	// --- 1. Per-period pipeline ---
	batch.Periods = analyzeAll(ctx, cfg, solver, periods)
	batch.Duration = time.Since(start)
	span.SetAttributes(attribute.Int("wvg.failed", batch.Failed()))

	// --- 2. Record and finalize tracking ---
	if analysisID, ok := getAnalysisID(ctx); ok && analysisStore != nil {
		for _, r := range batch.Periods {
			if err := analysisStore.RecordPeriodResult(analysisID, r); err != nil {
				contract.LogWarn(fmt.Sprintf("Analysis tracking failed for period %s", r.Period), err)
			}
		}
		if err := analysisStore.EndAnalysis(analysisID, time.Now(), len(batch.Periods)); err != nil {
			contract.LogWarn("Failed to finalize analysis tracking", err)
		}
	}
	return batch, nil
}

// trackedConfig is the subset of the configuration stored with a tracked run.
func trackedConfig(cfg *contract.Config) map[string]any {
	return map[string]any{
		"input":                cfg.InputPath,
		"periods":              cfg.Periods,
		"workers":              cfg.Workers,
		"max_parties":          cfg.MaxParties,
		"solver":               string(cfg.Solver),
		"solve_timeout":        cfg.SolveTimeout.String(),
		"node_limit":           cfg.NodeLimit,
		"alternates":           cfg.Alternates,
		"alternates_threshold": cfg.AlternatesThreshold,
		"max_alternates":       cfg.MaxAlternates,
		"msr_policy":           string(cfg.MSRPolicy),
	}
}

// analyzeAll processes all periods in parallel using a worker pool.
// Each worker writes to its own index of the result slice.
func analyzeAll(ctx context.Context, cfg *contract.Config, solver contract.Solver, periods []schema.PeriodInput) []schema.PeriodResult {
	results := make([]schema.PeriodResult, len(periods))
	jobs := make(chan int, len(periods))
	var wg sync.WaitGroup

	for range max(1, min(cfg.Workers, len(periods))) {
		wg.Go(func() {
			for i := range jobs {
				results[i] = analyzePeriod(ctx, cfg, solver, periods[i])
			}
		})
	}

	for i := range periods {
		jobs <- i
	}
	close(jobs)
	wg.Wait()
	return results
}

// analyzePeriod runs CoalitionSpace, GameReconstructor and PowerIndexEngine for a single
// period. Every failure ends up in the returned status; nothing here aborts the batch.
func analyzePeriod(ctx context.Context, cfg *contract.Config, solver contract.Solver, in schema.PeriodInput) schema.PeriodResult {
	start := time.Now()
	ctx, span := tracer.Start(ctx, "wvg.period", trace.WithAttributes(
		attribute.String("wvg.period", in.Period),
		attribute.Int("wvg.parties", len(in.Parties)),
	))
	defer span.End()

	result := schema.PeriodResult{
		Period:  in.Period,
		Parties: in.Labels(),
		Seats:   in.SeatCounts(),
		Dropped: in.Dropped,
	}
	fail := func(err error) schema.PeriodResult {
		result.Status = schema.StatusForError(err)
		result.Error = err.Error()
		result.Duration = time.Since(start)
		span.RecordError(err)
		span.SetStatus(codes.Error, string(result.Status))
		return result
	}
	if in.Err != nil {
		return fail(fmt.Errorf("period %s: %w", in.Period, in.Err))
	}

	// --- 1. Coalition space ---
	_, stage := tracer.Start(ctx, "wvg.coalitions")
	sp, err := space.New(in.Period, result.Parties, result.Seats, in.Quota, cfg.MaxParties)
	stage.End()
	if err != nil {
		return fail(err)
	}
	summary := sp.Summary()
	result.TotalSeats = sp.TotalSeats()
	result.Quota = sp.Quota()
	result.Coalitions = &summary

	// --- 2. Reconstruction, bounded by the per-period timeout ---
	opts := game.Options{
		NodeLimit:           cfg.NodeLimit,
		ForceAlternates:     cfg.Alternates,
		AlternatesThreshold: cfg.AlternatesThreshold,
		MaxAlternates:       cfg.MaxAlternates,
	}
	solveCtx, cancel := context.WithTimeout(ctx, cfg.SolveTimeout)
	solveCtx, stage = tracer.Start(solveCtx, "wvg.reconstruct")
	rec, hit, err := cachedReconstruct(solveCtx, sp, solver, opts)
	stage.SetAttributes(attribute.Bool("wvg.cache_hit", hit))
	stage.End()
	cancel()
	if err != nil {
		return fail(fmt.Errorf("period %s: %w", in.Period, err))
	}
	result.CacheHit = hit
	result.Weights = rec.WeightVector()

	// --- 3. Power indices ---
	_, stage = tracer.Start(ctx, "wvg.power")
	table, err := power.Compute(power.Input{
		Period:         in.Period,
		Labels:         result.Parties,
		Seats:          result.Seats,
		Weights:        rec.Weights,
		Quota:          rec.Quota,
		Alternates:     rec.Alternates,
		MinWinningSize: sp.MinWinningSize(),
		Policy:         cfg.MSRPolicy,
	})
	stage.End()
	if err != nil {
		return fail(err)
	}

	result.Power = rankPower(table.Rows)
	result.Status = schema.StatusOK
	result.Duration = time.Since(start)
	return result
}
