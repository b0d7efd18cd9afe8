package milp

import (
	"strings"
	"testing"
)

// FuzzParseSolution feeds arbitrary text to the glpsol solution parser.
func FuzzParseSolution(f *testing.F) {
	f.Add("s mip 2 2 o 3\nj 1 2\nj 2 1\n", 2)
	f.Add("s mip 1 1 n 0\n", 1)
	f.Add("c comment only\n", 3)
	f.Add("", 0)

	f.Fuzz(func(t *testing.T, text string, numVars int) {
		if numVars < 0 || numVars > 64 {
			return
		}
		sol, err := ParseSolution(strings.NewReader(text), numVars)
		if err == nil && sol.X != nil && len(sol.X) != numVars {
			t.Fatalf("got %d values for %d variables", len(sol.X), numVars)
		}
	})
}
