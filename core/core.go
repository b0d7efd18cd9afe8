// Package core has core logic for analyzing seat allocations period by period.
package core

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/SebSchroeter/masterthesis/core/space"
	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/SebSchroeter/masterthesis/internal/ingest"
	"github.com/SebSchroeter/masterthesis/internal/outwriter"
	"github.com/SebSchroeter/masterthesis/schema"
)

// ErrStrictFailure is returned by strict runs in which a period did not finish.
var ErrStrictFailure = errors.New("strict mode: not every period was analyzed")

// ExecutorFunc defines the function signature for executing different analysis modes.
type ExecutorFunc func(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error

// ExecuteAnalyze runs the full pipeline over the input file and prints the power tables.
// It serves as the main entry point for the 'analyze' command.
func ExecuteAnalyze(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	if cfg.Output != schema.TextOut && cfg.OutputFile == "" {
		ctx = WithSuppressHeader(ctx)
	}
	batch, duration, err := GetAnalyzeResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	if err := outwriter.NewOutWriter().WritePeriods(batch, cfg, duration); err != nil {
		return err
	}
	if failed := batch.Failed(); cfg.Strict && failed > 0 {
		return fmt.Errorf("%d of %d periods failed: %w", failed, len(batch.Periods), ErrStrictFailure)
	}
	return nil
}

// GetAnalyzeResults reads the input file and analyzes every selected period without printing.
func GetAnalyzeResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*schema.BatchResult, time.Duration, error) {
	start := time.Now()
	periods, err := loadPeriods(ctx, cfg)
	if err != nil {
		return nil, 0, err
	}
	batch, err := runBatch(ctx, cfg, mgr, periods)
	if err != nil {
		return nil, 0, err
	}
	return batch, time.Since(start), nil
}

// AnalyzeInputs analyzes periods that were already ingested, such as an inline roster.
func AnalyzeInputs(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager, periods []schema.PeriodInput) (*schema.BatchResult, error) {
	if len(periods) == 0 {
		return nil, errors.New("no periods to analyze")
	}
	return runBatch(ctx, cfg, mgr, periods)
}

// ExecuteCoalitions prints the classification detail of every selected period.
// It serves as the main entry point for the 'coalitions' command.
func ExecuteCoalitions(ctx context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	start := time.Now()
	periods, err := loadPeriods(WithSuppressHeader(ctx), cfg)
	if err != nil {
		return err
	}
	reports := BuildCoalitionReports(cfg, periods)
	return outwriter.NewOutWriter().WriteCoalitions(reports, cfg, time.Since(start))
}

// BuildCoalitionReports classifies each period. A period that cannot be enumerated
// carries its error instead of rows.
func BuildCoalitionReports(cfg *contract.Config, periods []schema.PeriodInput) []schema.CoalitionReport {
	reports := make([]schema.CoalitionReport, 0, len(periods))
	for _, p := range periods {
		report := schema.CoalitionReport{Period: p.Period}
		if p.Err != nil {
			report.Error = p.Err.Error()
			reports = append(reports, report)
			continue
		}
		sp, err := space.New(p.Period, p.Labels(), p.SeatCounts(), p.Quota, cfg.MaxParties)
		if err != nil {
			report.Error = err.Error()
			reports = append(reports, report)
			continue
		}
		summary := sp.Summary()
		report.Quota = sp.Quota()
		report.Total = sp.TotalSeats()
		report.Summary = &summary
		report.Rows = sp.Rows(cfg.Only)
		reports = append(reports, report)
	}
	return reports
}

// ExecuteDefinitions displays the formal definitions of all indices and the active settings.
// This is a static display that does not read any input.
func ExecuteDefinitions(_ context.Context, cfg *contract.Config, _ contract.CacheManager) error {
	return outwriter.NewOutWriter().WriteDefinitions(cfg)
}

// loadPeriods reads the input file and applies the --period filter.
func loadPeriods(ctx context.Context, cfg *contract.Config) ([]schema.PeriodInput, error) {
	if cfg.InputPath == "" {
		return nil, errors.New("an input file is required")
	}
	all, err := ingest.ReadFile(cfg.InputPath, ingest.Options{Format: cfg.InputFormat, Encoding: cfg.Encoding})
	if err != nil {
		return nil, err
	}

	selected := make([]schema.PeriodInput, 0, len(all))
	for _, p := range all {
		if !cfg.WantsPeriod(p.Period) {
			continue
		}
		if len(p.Dropped) > 0 && !shouldSuppressHeader(ctx) {
			contract.LogWarn(fmt.Sprintf("Period %s", p.Period), fmt.Errorf("dropped parties without seats: %v", p.Dropped))
		}
		selected = append(selected, p)
	}
	if len(selected) == 0 {
		if len(cfg.Periods) > 0 {
			return nil, fmt.Errorf("no period in %s matches %v", cfg.InputPath, cfg.Periods)
		}
		return nil, fmt.Errorf("no periods found in %s", cfg.InputPath)
	}
	return selected, nil
}
