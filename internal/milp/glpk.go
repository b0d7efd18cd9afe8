package milp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/SebSchroeter/masterthesis/schema"
)

// GLPSolSolver implements the Solver interface by executing the
// GLPK command line solver installed on the machine.
type GLPSolSolver struct {
	Path string
}

var _ contract.Solver = &GLPSolSolver{} // Compile-time check

// NewGLPSolSolver creates a solver that runs the glpsol binary at path.
func NewGLPSolSolver(path string) *GLPSolSolver {
	return &GLPSolSolver{Path: path}
}

// Name implements the Solver interface.
func (s *GLPSolSolver) Name() string {
	return string(schema.GLPSolSolver)
}

// Solve implements the Solver interface.
func (s *GLPSolSolver) Solve(ctx context.Context, p schema.MILPProblem) (schema.MILPSolution, error) {
	if err := validateProblem(p); err != nil {
		return schema.MILPSolution{}, err
	}

	dir, err := os.MkdirTemp("", "wvg-glpsol-*")
	if err != nil {
		return schema.MILPSolution{}, fmt.Errorf("glpsol: temp dir: %w", err)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	lpPath := filepath.Join(dir, "problem.lp")
	solPath := filepath.Join(dir, "problem.sol")
	if err := writeLPFile(lpPath, p); err != nil {
		return schema.MILPSolution{}, err
	}

	args := []string{"--lp", lpPath, "-w", solPath}
	if deadline, ok := ctx.Deadline(); ok {
		secs := max(int(math.Ceil(time.Until(deadline).Seconds())), 1)
		args = append(args, "--tmlim", strconv.Itoa(secs))
	}

	cmd := exec.CommandContext(ctx, s.Path, args...)
	out, err := cmd.CombinedOutput()
	if ctx.Err() != nil {
		return schema.MILPSolution{Status: schema.MILPTimeout}, nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return schema.MILPSolution{}, fmt.Errorf("glpsol exited with %d: %s", exitErr.ExitCode(), strings.TrimSpace(string(out)))
	} else if err != nil {
		return schema.MILPSolution{}, fmt.Errorf("glpsol failed: %w. Ensure GLPK is installed or point --solver-path at glpsol", err)
	}

	data, err := os.ReadFile(solPath)
	if err != nil {
		return schema.MILPSolution{}, fmt.Errorf("glpsol: reading solution: %w", err)
	}
	return ParseSolution(bytes.NewReader(data), p.NumVars)
}

func writeLPFile(path string, p schema.MILPProblem) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("glpsol: %w", err)
	}
	if err := WriteLP(f, p); err != nil {
		_ = f.Close()
		return fmt.Errorf("glpsol: writing problem: %w", err)
	}
	return f.Close()
}
