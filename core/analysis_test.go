package core

import (
	"context"
	"errors"
	"testing"

	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/SebSchroeter/masterthesis/internal/iocache"
	"github.com/SebSchroeter/masterthesis/internal/milp"
	"github.com/SebSchroeter/masterthesis/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAnalyzePeriodRoundTrip(t *testing.T) {
	cfg := testConfig()
	result := analyzePeriod(context.Background(), cfg, milp.NewLocalSolver(), roster("1994", 40, 30, 20, 10))

	require.Equal(t, schema.StatusOK, result.Status, result.Error)
	assert.Equal(t, []string{"A", "B", "C", "D"}, result.Parties)
	assert.Equal(t, int64(100), result.TotalSeats)
	assert.Equal(t, int64(50), result.Quota)
	assert.False(t, result.CacheHit)

	require.NotNil(t, result.Weights)
	assert.Equal(t, []int64{3, 2, 2, 1}, result.Weights.Weights)
	assert.Equal(t, int64(4), result.Weights.Quota)

	require.NotNil(t, result.Coalitions)
	assert.Equal(t, 16, result.Coalitions.Total)
	assert.Equal(t, []string{"A+B", "A+C", "B+C+D"}, result.Coalitions.MinimalWinning)

	require.Len(t, result.Power, 4)
	ranked := []string{result.Power[0].Party, result.Power[1].Party, result.Power[2].Party, result.Power[3].Party}
	assert.Equal(t, []string{"A", "B", "C", "D"}, ranked)
	total := 0.0
	for _, r := range result.Power {
		total += r.ShapleyShubik
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

func TestAnalyzePeriodRejected(t *testing.T) {
	cfg := testConfig()
	solver := &mockSolver{}

	bad := roster("1990", 3, 2)
	bad.Err = schema.ErrInvalidSeats
	dup := schema.PeriodInput{Period: "1991", Parties: []schema.PartySeats{{Party: "A", Seats: 1}, {Party: "A", Seats: 2}}}
	small := cfg.Clone()
	small.MaxParties = 2

	tests := []struct {
		name string
		in   schema.PeriodInput
		cfg  *contract.Config
	}{
		{"ingest error", bad, cfg},
		{"duplicate label", dup, cfg},
		{"empty", schema.PeriodInput{Period: "1992"}, cfg},
		{"too many parties", roster("1993", 3, 2, 1), small},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := analyzePeriod(context.Background(), tt.cfg, solver, tt.in)
			assert.Equal(t, schema.StatusRejected, result.Status)
			assert.NotEmpty(t, result.Error)
			assert.Nil(t, result.Power)
		})
	}
	solver.AssertNotCalled(t, "Solve", mock.Anything, mock.Anything)
}

func TestAnalyzePeriodSolverOutcomes(t *testing.T) {
	tests := []struct {
		name   string
		sol    schema.MILPSolution
		err    error
		status schema.PeriodStatus
	}{
		{"infeasible", schema.MILPSolution{Status: schema.MILPInfeasible}, nil, schema.StatusNotWeighted},
		{"timeout", schema.MILPSolution{Status: schema.MILPTimeout}, nil, schema.StatusUnsolved},
		{"adapter error", schema.MILPSolution{}, errors.New("boom"), schema.StatusFailed},
		{"inconsistent", schema.MILPSolution{Status: schema.MILPOptimal, X: []float64{1, 1, 1}, Objective: 3}, nil, schema.StatusInconsistent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			solver := &mockSolver{}
			solver.On("Solve", mock.Anything, mock.Anything).Return(tt.sol, tt.err)

			result := analyzePeriod(context.Background(), testConfig(), solver, roster("2002", 3, 2, 1))
			assert.Equal(t, tt.status, result.Status)
			assert.NotEmpty(t, result.Error)
			assert.Contains(t, result.Error, "2002")
			assert.NotNil(t, result.Coalitions, "classification survives a failed reconstruction")
		})
	}
}

func TestAnalyzeAllKeepsInputOrder(t *testing.T) {
	cfg := testConfig()
	cfg.Workers = 3
	periods := []schema.PeriodInput{
		roster("1990", 5, 4, 3, 2, 1),
		roster("1994", 40, 30, 20, 10),
		roster("1998", 3, 2, 1),
		roster("2002", 1, 1, 1, 1),
		roster("2005", 7),
	}

	results := analyzeAll(context.Background(), cfg, milp.NewLocalSolver(), periods)
	require.Len(t, results, len(periods))
	for i, r := range results {
		assert.Equal(t, periods[i].Period, r.Period)
		assert.Equal(t, schema.StatusOK, r.Status, r.Error)
	}
}

func TestRunBatchTracksAnalysis(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())
	store := &iocache.MockAnalysisStore{}
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetReconstructionStore").Return(nil)
	mgr.On("GetAnalysisStore").Return(store)

	store.On("BeginAnalysis", mock.AnythingOfType("string"), mock.AnythingOfType("time.Time"), mock.Anything).Return(int64(7), nil)
	store.On("RecordPeriodResult", int64(7), mock.AnythingOfType("schema.PeriodResult")).Return(nil).Twice()
	store.On("EndAnalysis", int64(7), mock.AnythingOfType("time.Time"), 2).Return(nil)

	batch, err := runBatch(ctx, testConfig(), mgr, []schema.PeriodInput{roster("1", 3, 2, 1), roster("2", 2, 2)})
	require.NoError(t, err)
	assert.Len(t, batch.Periods, 2)
	assert.NotEmpty(t, batch.RunID)
	assert.Zero(t, batch.Failed())

	mgr.AssertExpectations(t)
	store.AssertExpectations(t)
}

func TestRunBatchTrackingFailureDoesNotAbort(t *testing.T) {
	ctx := WithSuppressHeader(context.Background())
	store := &iocache.MockAnalysisStore{}
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetReconstructionStore").Return(nil)
	mgr.On("GetAnalysisStore").Return(store)
	store.On("BeginAnalysis", mock.Anything, mock.Anything, mock.Anything).Return(int64(0), errors.New("db down"))

	batch, err := runBatch(ctx, testConfig(), mgr, []schema.PeriodInput{roster("1", 3, 2, 1)})
	require.NoError(t, err)
	assert.Equal(t, schema.StatusOK, batch.Periods[0].Status)
	store.AssertNotCalled(t, "RecordPeriodResult", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "EndAnalysis", mock.Anything, mock.Anything, mock.Anything)
}

func TestRunBatchUnknownSolver(t *testing.T) {
	cfg := testConfig()
	cfg.Solver = "cplex"
	_, err := runBatch(WithSuppressHeader(context.Background()), cfg, nil, []schema.PeriodInput{roster("1", 1)})
	assert.Error(t, err)
}

func TestTrackedConfig(t *testing.T) {
	params := trackedConfig(testConfig())
	assert.Equal(t, "local", params["solver"])
	assert.Equal(t, "average", params["msr_policy"])
	assert.Equal(t, "10s", params["solve_timeout"])
}
