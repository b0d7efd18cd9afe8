package core

import (
	"context"
	"time"

	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/SebSchroeter/masterthesis/schema"
	"github.com/stretchr/testify/mock"
)

// mockSolver is a testify mock of contract.Solver.
type mockSolver struct {
	mock.Mock
}

func (m *mockSolver) Name() string { return "mock" }

func (m *mockSolver) Solve(ctx context.Context, p schema.MILPProblem) (schema.MILPSolution, error) {
	args := m.Called(ctx, p)
	return args.Get(0).(schema.MILPSolution), args.Error(1)
}

func testConfig() *contract.Config {
	return &contract.Config{
		Workers:             2,
		Precision:           3,
		Output:              schema.JSONOut,
		MaxParties:          contract.DefaultMaxParties,
		Solver:              schema.LocalSolver,
		SolveTimeout:        10 * time.Second,
		NodeLimit:           contract.DefaultNodeLimit,
		AlternatesThreshold: contract.DefaultAlternatesThreshold,
		MaxAlternates:       contract.DefaultMaxAlternates,
		MSRPolicy:           schema.MSRAverage,
		Only:                schema.AllCoalitions,
		CacheBackend:        schema.NoneBackend,
	}
}

func roster(period string, seats ...int64) schema.PeriodInput {
	labels := []string{"A", "B", "C", "D", "E", "F", "G", "H"}
	p := schema.PeriodInput{Period: period}
	for i, s := range seats {
		p.Parties = append(p.Parties, schema.PartySeats{Party: labels[i], Seats: s})
	}
	return p
}
