// Package milp has the integer program solvers that satisfy contract.Solver.
package milp

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/SebSchroeter/masterthesis/schema"
)

const (
	integralityTol = 1e-6
	initialRows    = 64 // rows in the first relaxation; the rest are added when violated
	cutBatch       = 32 // violated rows added per round
)

var errNodeInfeasible = errors.New("node infeasible")

// LocalSolver solves problems in process. LP relaxations are solved through their dual
// on a gonum dense tableau and integrality is enforced by depth-first branch and bound.
// The objective must be non-negative.
type LocalSolver struct{}

var _ contract.Solver = &LocalSolver{} // Compile-time check

// NewLocalSolver creates a new in-process solver.
func NewLocalSolver() *LocalSolver {
	return &LocalSolver{}
}

// Name implements the Solver interface.
func (s *LocalSolver) Name() string {
	return string(schema.LocalSolver)
}

// Solve implements the Solver interface.
// Cancellation, the node limit and an exhausted pivot budget end the search with MILPTimeout.
func (s *LocalSolver) Solve(ctx context.Context, p schema.MILPProblem) (schema.MILPSolution, error) {
	if err := validateProblem(p); err != nil {
		return schema.MILPSolution{}, err
	}
	return newBranchAndBound(p).run(ctx)
}

// node is one subproblem: the original problem with tightened variable bounds.
type node struct {
	lower, upper []float64
}

func (n node) split(j int, v float64) (down, up node) {
	down = node{lower: n.lower, upper: slices.Clone(n.upper)}
	down.upper[j] = math.Floor(v)
	up = node{lower: slices.Clone(n.lower), upper: n.upper}
	up.lower[j] = math.Ceil(v)
	return down, up
}

type branchAndBound struct {
	p        schema.MILPProblem
	tol      float64
	active   []int
	isActive []bool
	integral bool // objective takes integer values at integer points

	best  float64
	bestX []float64
}

func newBranchAndBound(p schema.MILPProblem) *branchAndBound {
	b := &branchAndBound{
		p:        p,
		tol:      p.Tolerance,
		isActive: make([]bool, len(p.Rows)),
		integral: true,
		best:     math.Inf(1),
	}
	if b.tol <= 0 {
		b.tol = schema.DefaultTolerance
	}
	for i := range min(len(p.Rows), initialRows) {
		b.active = append(b.active, i)
		b.isActive[i] = true
	}
	for j, c := range p.Objective {
		if c != math.Trunc(c) || (c != 0 && !p.Integer[j]) {
			b.integral = false
		}
	}
	return b
}

func (b *branchAndBound) run(ctx context.Context) (schema.MILPSolution, error) {
	stack := []node{{lower: slices.Clone(b.p.Lower), upper: slices.Clone(b.p.Upper)}}
	explored := 0
	for len(stack) > 0 {
		if ctx.Err() != nil || (b.p.NodeLimit > 0 && explored >= b.p.NodeLimit) {
			return b.solution(schema.MILPTimeout), nil
		}
		nd := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		explored++

		x, obj, err := b.relax(ctx, nd)
		if errors.Is(err, errNodeInfeasible) {
			continue
		}
		if ctx.Err() != nil || errors.Is(err, errPivotLimit) {
			return b.solution(schema.MILPTimeout), nil
		}
		if err != nil {
			return schema.MILPSolution{}, err
		}
		if b.prune(obj) {
			continue
		}

		j := b.branchVar(x)
		if j < 0 {
			b.accept(x)
			continue
		}
		down, up := nd.split(j, x[j])
		// The side nearer to the relaxed value is popped first.
		if x[j]-math.Floor(x[j]) < 0.5 {
			stack = append(stack, up, down)
		} else {
			stack = append(stack, down, up)
		}
	}
	if b.bestX == nil {
		return schema.MILPSolution{Status: schema.MILPInfeasible}, nil
	}
	return b.solution(schema.MILPOptimal), nil
}

func (b *branchAndBound) solution(status schema.MILPStatus) schema.MILPSolution {
	sol := schema.MILPSolution{Status: status}
	if b.bestX != nil {
		sol.X = slices.Clone(b.bestX)
		sol.Objective = b.best
	}
	return sol
}

func (b *branchAndBound) prune(obj float64) bool {
	if b.bestX == nil {
		return false
	}
	if b.integral {
		return math.Ceil(obj-integralityTol) >= b.best
	}
	return obj >= b.best-b.tol
}

// branchVar returns the most fractional integer variable, or -1 if x is integral.
func (b *branchAndBound) branchVar(x []float64) int {
	pick, worst := -1, integralityTol
	for j, v := range x {
		if !b.p.Integer[j] {
			continue
		}
		frac := v - math.Floor(v)
		if dist := math.Min(frac, 1-frac); dist > worst {
			pick, worst = j, dist
		}
	}
	return pick
}

func (b *branchAndBound) accept(x []float64) {
	rounded := slices.Clone(x)
	obj := 0.0
	for j := range rounded {
		if b.p.Integer[j] {
			rounded[j] = math.Round(rounded[j])
		}
		obj += b.p.Objective[j] * rounded[j]
	}
	if !b.p.Satisfies(rounded, integralityTol) {
		return
	}
	if obj < b.best-b.tol {
		b.best, b.bestX = obj, rounded
	}
}

// relax solves the LP relaxation of a node, activating violated rows until none remain.
func (b *branchAndBound) relax(ctx context.Context, nd node) ([]float64, float64, error) {
	for {
		x, obj, err := b.solveLP(ctx, nd)
		if err != nil {
			return nil, 0, err
		}
		if b.activateViolated(x) == 0 {
			return x, obj, nil
		}
	}
}

func (b *branchAndBound) activateViolated(x []float64) int {
	type violation struct {
		row    int
		amount float64
	}
	var violated []violation
	for i, r := range b.p.Rows {
		if b.isActive[i] {
			continue
		}
		lhs := 0.0
		for j, a := range r.Coeffs {
			lhs += a * x[j]
		}
		if gap := r.Lower - lhs; gap > integralityTol {
			violated = append(violated, violation{row: i, amount: gap})
		}
	}
	slices.SortFunc(violated, func(x, y violation) int {
		switch {
		case x.amount > y.amount:
			return -1
		case x.amount < y.amount:
			return 1
		default:
			return x.row - y.row
		}
	})
	if len(violated) > cutBatch {
		violated = violated[:cutBatch]
	}
	for _, v := range violated {
		b.active = append(b.active, v.row)
		b.isActive[v.row] = true
	}
	return len(violated)
}

// solveLP solves the relaxation of a node with x = lower + y. Active rows are shifted by
// the lower bounds and finite upper bounds become rows -y_j >= lower_j - upper_j.
// Variables that appear in no active row stay at their lower bound, which is optimal
// for a non-negative objective.
func (b *branchAndBound) solveLP(ctx context.Context, nd node) ([]float64, float64, error) {
	n := b.p.NumVars
	for j := range n {
		if nd.lower[j] > nd.upper[j]+b.tol {
			return nil, 0, errNodeInfeasible
		}
	}

	used := make([]bool, n)
	for _, i := range b.active {
		for j, a := range b.p.Rows[i].Coeffs {
			if a != 0 {
				used[j] = true
			}
		}
	}
	var cols []int
	for j := range n {
		if used[j] {
			cols = append(cols, j)
		}
	}

	x := slices.Clone(nd.lower)
	if len(cols) > 0 {
		k := len(cols)
		a := make([][]float64, 0, len(b.active)+k)
		h := make([]float64, 0, len(b.active)+k)
		for _, i := range b.active {
			row := b.p.Rows[i]
			coeffs := make([]float64, k)
			for ci, j := range cols {
				coeffs[ci] = row.Coeffs[j]
			}
			rhs := row.Lower
			for j, v := range row.Coeffs {
				rhs -= v * nd.lower[j]
			}
			a = append(a, coeffs)
			h = append(h, rhs)
		}
		for ci, j := range cols {
			if math.IsInf(nd.upper[j], 1) {
				continue
			}
			coeffs := make([]float64, k)
			coeffs[ci] = -1
			a = append(a, coeffs)
			h = append(h, nd.lower[j]-nd.upper[j])
		}
		cost := make([]float64, k)
		for ci, j := range cols {
			cost[ci] = b.p.Objective[j]
		}

		tab := newDualTableau(a, h, cost, b.tol)
		unbounded, err := tab.solve(ctx)
		if err != nil {
			return nil, 0, err
		}
		if unbounded {
			return nil, 0, errNodeInfeasible
		}
		for ci, j := range cols {
			x[j] += tab.primal(ci)
		}
	}

	obj := 0.0
	for j, v := range x {
		obj += b.p.Objective[j] * v
	}
	return x, obj, nil
}

func validateProblem(p schema.MILPProblem) error {
	n := p.NumVars
	if n <= 0 {
		return fmt.Errorf("milp: problem has %d variables", n)
	}
	if len(p.Objective) != n || len(p.Integer) != n || len(p.Lower) != n || len(p.Upper) != n {
		return fmt.Errorf("milp: objective, integer flags and bounds must have %d entries", n)
	}
	for j := range n {
		if p.Lower[j] < 0 || math.IsNaN(p.Lower[j]) || math.IsInf(p.Lower[j], 0) {
			return fmt.Errorf("milp: variable %d has unsupported lower bound %v", j, p.Lower[j])
		}
		if math.IsNaN(p.Upper[j]) || math.IsNaN(p.Objective[j]) {
			return fmt.Errorf("milp: variable %d has NaN data", j)
		}
		if p.Objective[j] < 0 || math.IsInf(p.Objective[j], 0) {
			return fmt.Errorf("milp: variable %d has objective %v, the local solver needs a finite non-negative objective", j, p.Objective[j])
		}
	}
	for i, r := range p.Rows {
		if len(r.Coeffs) != n {
			return fmt.Errorf("milp: row %d has %d coefficients, want %d", i, len(r.Coeffs), n)
		}
		if math.IsNaN(r.Lower) || math.IsInf(r.Lower, 0) {
			return fmt.Errorf("milp: row %d has invalid bound %v", i, r.Lower)
		}
	}
	return nil
}
