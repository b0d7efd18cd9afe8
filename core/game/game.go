// Package game reconstructs integer weights and a quota that reproduce a coalition classification.
package game

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/bits"
	"slices"

	"github.com/SebSchroeter/masterthesis/core/space"
	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/SebSchroeter/masterthesis/schema"
)

const integralityTol = 1e-6

// Options controls the reconstruction of one period.
type Options struct {
	NodeLimit           int  // passed to the solver, 0 means unlimited
	ForceAlternates     bool // enumerate alternates regardless of party count
	AlternatesThreshold int  // alternates are enumerated when the period has more parties
	MaxAlternates       int  // cap on enumerated alternates, 0 means no cap
}

// DefaultOptions returns the options used by the command line defaults.
func DefaultOptions() Options {
	return Options{
		NodeLimit:           contract.DefaultNodeLimit,
		AlternatesThreshold: contract.DefaultAlternatesThreshold,
		MaxAlternates:       contract.DefaultMaxAlternates,
	}
}

// Reconstruction is a verified minimal-sum representation of a period.
type Reconstruction struct {
	Weights             []int64
	Quota               int64
	Sum                 int64
	Alternates          [][]int64 // other minimal-sum vectors, primary excluded
	AlternatesTruncated bool
	Constraints         int  // rows handed to the solver
	Retried             bool // the first solve did not finish
}

// WeightVector converts the reconstruction to its serializable form.
func (r *Reconstruction) WeightVector() *schema.WeightVector {
	return &schema.WeightVector{
		Weights:             slices.Clone(r.Weights),
		Quota:               r.Quota,
		Sum:                 r.Sum,
		Alternates:          r.Alternates,
		AlternatesTruncated: r.AlternatesTruncated,
	}
}

// Reconstruct finds the minimal-sum integer weights for the period, derives the quota and
// checks that (weights, quota) classifies every coalition exactly as the seats do.
func Reconstruct(ctx context.Context, sp *space.Space, solver contract.Solver, opts Options) (*Reconstruction, error) {
	cs := buildConstraints(sp)
	problem := schema.NewMinSumProblem(sp.N(), toRows(cs))
	problem.NodeLimit = opts.NodeLimit

	sol, retried, err := solve(ctx, solver, problem)
	if err != nil {
		return nil, err
	}

	weights := make([]int64, sp.N())
	for i, v := range sol.X {
		if v < -integralityTol {
			return nil, fmt.Errorf("%s returned negative weight %v for %s: %w", solver.Name(), v, sp.Labels()[i], schema.ErrSolverFailed)
		}
		if v > math.MaxInt32 {
			return nil, fmt.Errorf("weight %v of %s: %w", v, sp.Labels()[i], schema.ErrNumericOverflow)
		}
		weights[i] = int64(math.Round(v))
	}
	if !satisfiesAll(cs, weights) {
		return nil, fmt.Errorf("rounded weights %v violate the constraint system: %w", weights, schema.ErrInconsistentReconstruction)
	}

	rec := &Reconstruction{
		Weights:     weights,
		Sum:         sum(weights),
		Quota:       quotaFor(sp, weights),
		Constraints: len(cs),
		Retried:     retried,
	}
	if err := Verify(sp, rec.Weights, rec.Quota); err != nil {
		return nil, err
	}

	if opts.ForceAlternates || sp.N() > opts.AlternatesThreshold {
		rec.Alternates, rec.AlternatesTruncated = enumerateAlternates(ctx, sp, cs, rec.Weights, rec.Quota, opts.MaxAlternates)
	}
	return rec, nil
}

// solve runs the solver and retries once with relaxed tolerance when the first attempt
// times out or fails. There is no retry once the period's deadline has passed.
func solve(ctx context.Context, solver contract.Solver, problem schema.MILPProblem) (schema.MILPSolution, bool, error) {
	sol, err := solver.Solve(ctx, problem)
	retried := false
	if (err != nil || sol.Status == schema.MILPTimeout) && ctx.Err() == nil {
		retried = true
		problem.Tolerance = schema.RelaxedTolerance
		sol, err = solver.Solve(ctx, problem)
	}
	if err != nil {
		return sol, retried, fmt.Errorf("%s: %v: %w", solver.Name(), err, schema.ErrSolverFailed)
	}

	switch sol.Status {
	case schema.MILPOptimal:
		if len(sol.X) != problem.NumVars {
			return sol, retried, fmt.Errorf("%s returned %d values for %d parties: %w", solver.Name(), len(sol.X), problem.NumVars, schema.ErrSolverFailed)
		}
		return sol, retried, nil
	case schema.MILPInfeasible:
		return sol, retried, schema.ErrNotAWeightedGame
	case schema.MILPTimeout:
		if ctxErr := ctx.Err(); ctxErr != nil && !errors.Is(ctxErr, context.DeadlineExceeded) {
			return sol, retried, fmt.Errorf("%w: %w", schema.ErrSolverTimeout, ctxErr)
		}
		return sol, retried, schema.ErrSolverTimeout
	default:
		return sol, retried, fmt.Errorf("%s reported status %q: %w", solver.Name(), sol.Status, schema.ErrSolverFailed)
	}
}

// quotaFor derives the weight quota. Majority periods use floor(sum/2); other periods use
// the heaviest maximal losing coalition, the smallest quota that keeps all of them losing.
func quotaFor(sp *space.Space, weights []int64) int64 {
	if sp.Majority() {
		return sum(weights) / 2
	}
	var quota int64
	for _, r := range sp.MaximalLosing() {
		quota = max(quota, weightOf(weights, r))
	}
	return quota
}

// Verify reclassifies all 2^n coalitions with the weights and quota and
// reports the first coalition whose status differs from the seat classification.
func Verify(sp *space.Space, weights []int64, quota int64) error {
	if len(weights) != sp.N() {
		return fmt.Errorf("%d weights for %d parties: %w", len(weights), sp.N(), schema.ErrInconsistentReconstruction)
	}
	totals := make([]int64, sp.Size())
	for c := range totals {
		if c > 0 {
			low := bits.TrailingZeros64(uint64(c))
			totals[c] = totals[c&(c-1)] + weights[low]
		}
		coalition := schema.Coalition(c)
		if (totals[c] > quota) != sp.IsWinning(coalition) {
			return fmt.Errorf("coalition %q has weight %d against quota %d but is %s by seats: %w",
				sp.Key(coalition), totals[c], quota, sp.Classify(coalition), schema.ErrInconsistentReconstruction)
		}
	}
	return nil
}

func weightOf(weights []int64, c schema.Coalition) int64 {
	var total int64
	for _, i := range c.Members() {
		total += weights[i]
	}
	return total
}

func sum(weights []int64) int64 {
	var total int64
	for _, w := range weights {
		total += w
	}
	return total
}
