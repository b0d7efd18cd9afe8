package core

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/SebSchroeter/masterthesis/internal/outwriter"
	"github.com/SebSchroeter/masterthesis/schema"
)

// ExecuteCompare analyzes two periods and prints how the power of every party moved.
// It serves as the main entry point for the 'compare' command.
func ExecuteCompare(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) error {
	if cfg.Output != schema.TextOut && cfg.OutputFile == "" {
		ctx = WithSuppressHeader(ctx)
	}
	result, duration, err := GetCompareResults(ctx, cfg, mgr)
	if err != nil {
		return err
	}
	return outwriter.NewOutWriter().WriteComparison(result, cfg, duration)
}

// GetCompareResults analyzes the base and target periods without printing and
// compares their power indices.
func GetCompareResults(ctx context.Context, cfg *contract.Config, mgr contract.CacheManager) (*schema.ComparisonResult, time.Duration, error) {
	if cfg.BasePeriod == "" || cfg.TargetPeriod == "" {
		return nil, 0, errors.New("both --base-period and --target-period are required")
	}
	if cfg.BasePeriod == cfg.TargetPeriod {
		return nil, 0, fmt.Errorf("base and target period are both %s", cfg.BasePeriod)
	}

	start := time.Now()
	sub := cfg.Clone()
	sub.Periods = []string{cfg.BasePeriod, cfg.TargetPeriod}
	periods, err := loadPeriods(ctx, sub)
	if err != nil {
		return nil, 0, err
	}
	batch, err := runBatch(ctx, sub, mgr, periods)
	if err != nil {
		return nil, 0, err
	}

	base, err := findPeriod(batch, cfg.BasePeriod, cfg.InputPath)
	if err != nil {
		return nil, 0, err
	}
	target, err := findPeriod(batch, cfg.TargetPeriod, cfg.InputPath)
	if err != nil {
		return nil, 0, err
	}
	result := comparePower(base, target)
	return &result, time.Since(start), nil
}

// findPeriod returns the analyzed period, failing when it is missing or did not finish.
func findPeriod(batch *schema.BatchResult, period, source string) (schema.PeriodResult, error) {
	for _, p := range batch.Periods {
		if p.Period != period {
			continue
		}
		if !p.OK() {
			return p, fmt.Errorf("period %s was not analyzed (%s): %s", period, p.Status, p.Error)
		}
		return p, nil
	}
	return schema.PeriodResult{}, fmt.Errorf("period %s not found in %s", period, source)
}

// comparePower matches the parties of two analyzed periods by label.
func comparePower(base, target schema.PeriodResult) schema.ComparisonResult {
	baseMap := make(map[string]schema.PowerIndexRow, len(base.Power))
	targetMap := make(map[string]schema.PowerIndexRow, len(target.Power))
	allParties := make(map[string]struct{})

	// 1. Populate maps and collect all parties
	for _, r := range base.Power {
		baseMap[r.Party] = r
		allParties[r.Party] = struct{}{}
	}
	for _, r := range target.Power {
		targetMap[r.Party] = r
		allParties[r.Party] = struct{}{}
	}

	summary := schema.ComparisonSummary{
		BasePeriod:       base.Period,
		TargetPeriod:     target.Period,
		BaseTotalSeats:   base.TotalSeats,
		TargetTotalSeats: target.TotalSeats,
	}
	deltas := make([]schema.PowerDelta, 0, len(allParties))

	// 2. Compare all parties; a missing side contributes zeros
	for party := range allParties {
		baseR, baseExists := baseMap[party]
		targetR, targetExists := targetMap[party]

		status := determineStatus(baseExists, targetExists)
		switch status {
		case schema.NewParty:
			summary.NewParties++
		case schema.ActiveParty:
			summary.ActiveParties++
		case schema.InactiveParty:
			summary.InactiveParties++
		}

		d := schema.PowerDelta{
			Party:         party,
			Status:        status,
			BeforeSeats:   baseR.Seats,
			AfterSeats:    targetR.Seats,
			BeforeShapley: baseR.ShapleyShubik,
			AfterShapley:  targetR.ShapleyShubik,
			BeforeBanzhaf: baseR.BanzhafNormalized,
			AfterBanzhaf:  targetR.BanzhafNormalized,
			BeforeMSR:     baseR.MSR,
			AfterMSR:      targetR.MSR,
		}
		d.DeltaShapley = d.AfterShapley - d.BeforeShapley
		d.DeltaBanzhaf = d.AfterBanzhaf - d.BeforeBanzhaf
		d.DeltaMSR = d.AfterMSR - d.BeforeMSR
		summary.PowerShift += math.Abs(d.DeltaShapley)
		deltas = append(deltas, d)
	}
	summary.PowerShift /= 2

	sortPowerDeltas(deltas)
	return schema.ComparisonResult{Summary: summary, Deltas: deltas}
}

// determineStatus returns the status based on presence in base and target.
func determineStatus(baseExists, targetExists bool) schema.PartyStatus {
	switch {
	case !baseExists && targetExists:
		return schema.NewParty
	case baseExists && targetExists:
		return schema.ActiveParty
	default:
		return schema.InactiveParty
	}
}

// sortPowerDeltas sorts by absolute Shapley-Shubik delta, then delta sign, then party.
func sortPowerDeltas(deltas []schema.PowerDelta) {
	sort.Slice(deltas, func(i, j int) bool {
		a := deltas[i]
		b := deltas[j]

		// Primary: Absolute delta (descending)
		absA := math.Abs(a.DeltaShapley)
		absB := math.Abs(b.DeltaShapley)
		if absA != absB {
			return absA > absB
		}

		// Secondary: Delta sign (positive before negative)
		if a.DeltaShapley != b.DeltaShapley {
			return a.DeltaShapley > b.DeltaShapley
		}

		// Tertiary: Party (ascending)
		return strings.Compare(a.Party, b.Party) < 0
	})
}
