package milp

import (
	"fmt"

	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/SebSchroeter/masterthesis/schema"
)

// NewSolver returns the solver adapter for the given kind.
func NewSolver(kind schema.SolverKind, path string) (contract.Solver, error) {
	switch kind {
	case schema.LocalSolver, "":
		return NewLocalSolver(), nil
	case schema.GLPSolSolver:
		if path == "" {
			path = contract.DefaultSolverPath
		}
		return NewGLPSolSolver(path), nil
	default:
		return nil, fmt.Errorf("unknown solver %q", kind)
	}
}
