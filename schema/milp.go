package schema

import "math"

// MILPStatus is the terminal state reported by a solver.
type MILPStatus string

// Solver outcomes.
const (
	MILPOptimal    MILPStatus = "optimal"
	MILPInfeasible MILPStatus = "infeasible"
	MILPTimeout    MILPStatus = "timeout"
)

// Default numeric tolerances handed to solvers.
const (
	DefaultTolerance = 1e-9
	RelaxedTolerance = 1e-6
)

// MILPRow is a single constraint Coeffs·x >= Lower.
type MILPRow struct {
	Coeffs []float64 `json:"coeffs"`
	Lower  float64   `json:"lower"`
}

// MILPProblem describes a minimization over x with x in [Lower, Upper].
type MILPProblem struct {
	NumVars   int       `json:"num_vars"`
	Objective []float64 `json:"objective"`
	Integer   []bool    `json:"integer"`
	Rows      []MILPRow `json:"rows"`
	Lower     []float64 `json:"lower"`
	Upper     []float64 `json:"upper"` // math.Inf(1) for unbounded
	Tolerance float64   `json:"tolerance"`
	NodeLimit int       `json:"node_limit"` // 0 means unlimited
}

// MILPSolution is what a solver returns for a problem.
type MILPSolution struct {
	Status    MILPStatus `json:"status"`
	X         []float64  `json:"x,omitempty"`
	Objective float64    `json:"objective"`
}

// NewMinSumProblem builds the all-integer, non-negative, unit-objective problem
// over n variables for the given rows.
func NewMinSumProblem(n int, rows []MILPRow) MILPProblem {
	p := MILPProblem{
		NumVars:   n,
		Objective: make([]float64, n),
		Integer:   make([]bool, n),
		Rows:      rows,
		Lower:     make([]float64, n),
		Upper:     make([]float64, n),
		Tolerance: DefaultTolerance,
	}
	for i := range n {
		p.Objective[i] = 1
		p.Integer[i] = true
		p.Upper[i] = math.Inf(1)
	}
	return p
}

// Satisfies reports whether x meets every row of the problem within tol.
func (p MILPProblem) Satisfies(x []float64, tol float64) bool {
	if len(x) != p.NumVars {
		return false
	}
	for i, v := range x {
		if v < p.Lower[i]-tol || v > p.Upper[i]+tol {
			return false
		}
	}
	for _, r := range p.Rows {
		sum := 0.0
		for j, a := range r.Coeffs {
			sum += a * x[j]
		}
		if sum < r.Lower-tol {
			return false
		}
	}
	return true
}
