package game

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/SebSchroeter/masterthesis/core/space"
	"github.com/SebSchroeter/masterthesis/internal/milp"
	"github.com/SebSchroeter/masterthesis/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
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

func withTolerance(tol float64) any {
	return mock.MatchedBy(func(p schema.MILPProblem) bool { return p.Tolerance == tol })
}

func newSpace(t *testing.T, seats []int64, quota *int64) *space.Space {
	t.Helper()
	labels := make([]string, len(seats))
	for i := range seats {
		labels[i] = string(rune('A' + i))
	}
	sp, err := space.New("2002", labels, seats, quota, 0)
	require.NoError(t, err)
	return sp
}

func TestReconstructRoundTrip(t *testing.T) {
	quota := int64(6)
	tests := []struct {
		name    string
		seats   []int64
		quota   *int64
		weights []int64
		wQuota  int64
	}{
		{"four parties", []int64{40, 30, 20, 10}, nil, []int64{3, 2, 2, 1}, 4},
		{"three parties with a tie", []int64{3, 2, 1}, nil, []int64{2, 1, 1}, 2},
		{"dominant party", []int64{10, 1, 1}, nil, []int64{1, 0, 0}, 0},
		{"single party", []int64{7}, nil, []int64{1}, 0},
		{"super majority", []int64{4, 3, 2}, &quota, []int64{1, 1, 0}, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sp := newSpace(t, tt.seats, tt.quota)
			rec, err := Reconstruct(context.Background(), sp, milp.NewLocalSolver(), DefaultOptions())
			require.NoError(t, err)
			assert.Equal(t, tt.weights, rec.Weights)
			assert.Equal(t, tt.wQuota, rec.Quota)
			assert.Equal(t, sum(tt.weights), rec.Sum)
			assert.False(t, rec.Retried)
			assert.NoError(t, Verify(sp, rec.Weights, rec.Quota))
		})
	}
}

func TestReconstructionReproducesClassification(t *testing.T) {
	sp := newSpace(t, []int64{40, 30, 20, 10}, nil)
	rec, err := Reconstruct(context.Background(), sp, milp.NewLocalSolver(), DefaultOptions())
	require.NoError(t, err)
	for c := range sp.All() {
		assert.Equal(t, sp.IsWinning(c), weightOf(rec.Weights, c) > rec.Quota, sp.Key(c))
	}
}

func TestReconstructForcedAlternatesOnUniqueGame(t *testing.T) {
	sp := newSpace(t, []int64{40, 30, 20, 10}, nil)
	opts := DefaultOptions()
	opts.ForceAlternates = true
	rec, err := Reconstruct(context.Background(), sp, milp.NewLocalSolver(), opts)
	require.NoError(t, err)
	assert.Empty(t, rec.Alternates)
	assert.False(t, rec.AlternatesTruncated)
}

func TestReconstructInfeasible(t *testing.T) {
	solver := &mockSolver{}
	solver.On("Solve", mock.Anything, mock.Anything).Return(schema.MILPSolution{Status: schema.MILPInfeasible}, nil).Once()

	_, err := Reconstruct(context.Background(), newSpace(t, []int64{3, 2, 1}, nil), solver, DefaultOptions())
	assert.ErrorIs(t, err, schema.ErrNotAWeightedGame)
	solver.AssertExpectations(t)
}

func TestReconstructRetriesWithRelaxedTolerance(t *testing.T) {
	solver := &mockSolver{}
	solver.On("Solve", mock.Anything, withTolerance(schema.DefaultTolerance)).
		Return(schema.MILPSolution{Status: schema.MILPTimeout}, nil).Once()
	solver.On("Solve", mock.Anything, withTolerance(schema.RelaxedTolerance)).
		Return(schema.MILPSolution{Status: schema.MILPOptimal, X: []float64{2, 1, 1}, Objective: 4}, nil).Once()

	rec, err := Reconstruct(context.Background(), newSpace(t, []int64{3, 2, 1}, nil), solver, DefaultOptions())
	require.NoError(t, err)
	assert.True(t, rec.Retried)
	assert.Equal(t, []int64{2, 1, 1}, rec.Weights)
	solver.AssertExpectations(t)
}

func TestReconstructTimeoutAfterRetry(t *testing.T) {
	solver := &mockSolver{}
	solver.On("Solve", mock.Anything, mock.Anything).Return(schema.MILPSolution{Status: schema.MILPTimeout}, nil).Twice()

	_, err := Reconstruct(context.Background(), newSpace(t, []int64{3, 2, 1}, nil), solver, DefaultOptions())
	assert.ErrorIs(t, err, schema.ErrSolverTimeout)
	assert.Equal(t, schema.StatusUnsolved, schema.StatusForError(err))
	solver.AssertExpectations(t)
}

func TestReconstructSolverError(t *testing.T) {
	solver := &mockSolver{}
	solver.On("Solve", mock.Anything, mock.Anything).Return(schema.MILPSolution{}, errors.New("exec: not found")).Twice()

	_, err := Reconstruct(context.Background(), newSpace(t, []int64{3, 2, 1}, nil), solver, DefaultOptions())
	assert.ErrorIs(t, err, schema.ErrSolverFailed)
	assert.Contains(t, err.Error(), "exec: not found")
}

func TestReconstructRejectsBadSolutions(t *testing.T) {
	tests := []struct {
		name    string
		sol     schema.MILPSolution
		wantErr error
	}{
		{"violates rows", schema.MILPSolution{Status: schema.MILPOptimal, X: []float64{1, 1, 1}}, schema.ErrInconsistentReconstruction},
		{"wrong length", schema.MILPSolution{Status: schema.MILPOptimal, X: []float64{2, 1}}, schema.ErrSolverFailed},
		{"negative weight", schema.MILPSolution{Status: schema.MILPOptimal, X: []float64{2, -1, 1}}, schema.ErrSolverFailed},
		{"huge weight", schema.MILPSolution{Status: schema.MILPOptimal, X: []float64{1e12, 1, 1}}, schema.ErrNumericOverflow},
		{"unknown status", schema.MILPSolution{Status: "interrupted"}, schema.ErrSolverFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			solver := &mockSolver{}
			solver.On("Solve", mock.Anything, mock.Anything).Return(tt.sol, nil)
			_, err := Reconstruct(context.Background(), newSpace(t, []int64{3, 2, 1}, nil), solver, DefaultOptions())
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestVerify(t *testing.T) {
	sp := newSpace(t, []int64{3, 2, 1}, nil)
	assert.NoError(t, Verify(sp, []int64{2, 1, 1}, 2))
	assert.NoError(t, Verify(sp, []int64{3, 2, 1}, 3), "seats are always a representation")

	err := Verify(sp, []int64{1, 1, 1}, 1)
	require.ErrorIs(t, err, schema.ErrInconsistentReconstruction)
	assert.Contains(t, err.Error(), `"B+C"`)

	assert.ErrorIs(t, Verify(sp, []int64{1, 1}, 1), schema.ErrInconsistentReconstruction)
}

func TestBuildConstraints(t *testing.T) {
	sp := newSpace(t, []int64{3, 2, 1}, nil)
	cs := buildConstraints(sp)
	// 2 MWC x 2 MLC dominance rows plus 2 tie rows
	assert.Len(t, cs, 6)
	assert.True(t, satisfiesAll(cs, []int64{2, 1, 1}))
	assert.False(t, satisfiesAll(cs, []int64{3, 1, 1}), "tie rows demand w(A) = w(B+C)")

	quota := int64(4)
	cs = buildConstraints(newSpace(t, []int64{3, 2, 1}, &quota))
	for _, c := range cs {
		assert.Equal(t, int64(1), c.lower, "no tie rows for a custom quota")
	}
}

func TestEnumerateAlternates(t *testing.T) {
	sp := newSpace(t, []int64{1, 1, 1}, nil)

	// Weights summing to 9 with every pair above 4 and every single party at most 4.
	alts, truncated := enumerateAlternates(context.Background(), sp, nil, []int64{3, 3, 3}, 4, 0)
	assert.False(t, truncated)
	assert.Len(t, alts, 9)
	for _, w := range alts {
		assert.Equal(t, int64(9), sum(w))
		assert.NoError(t, Verify(sp, w, 4))
	}

	alts, truncated = enumerateAlternates(context.Background(), sp, nil, []int64{3, 3, 3}, 4, 3)
	assert.True(t, truncated)
	assert.Len(t, alts, 3)
}

func TestEnumerateAlternatesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	alts, truncated := enumerateAlternates(ctx, newSpace(t, []int64{1, 1, 1}, nil), nil, []int64{3, 3, 3}, 4, 0)
	assert.Empty(t, alts)
	assert.True(t, truncated)
}

func TestReconstructKeepsPrimaryWhenAlternatesRunOutOfTime(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	solver := &mockSolver{}
	solver.On("Solve", mock.Anything, mock.Anything).
		Return(schema.MILPSolution{Status: schema.MILPOptimal, X: []float64{2, 1, 1}, Objective: 4}, nil).
		Run(func(mock.Arguments) { cancel() }).Once()

	opts := DefaultOptions()
	opts.ForceAlternates = true
	rec, err := Reconstruct(ctx, newSpace(t, []int64{3, 2, 1}, nil), solver, opts)
	require.NoError(t, err)
	assert.Equal(t, []int64{2, 1, 1}, rec.Weights)
	assert.Equal(t, int64(2), rec.Quota)
	assert.Empty(t, rec.Alternates)
	assert.True(t, rec.AlternatesTruncated)
}

func TestReconstructNoRetryAfterDeadline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	solver := &mockSolver{}
	solver.On("Solve", mock.Anything, mock.Anything).Return(schema.MILPSolution{Status: schema.MILPTimeout}, nil).Once()

	_, err := Reconstruct(ctx, newSpace(t, []int64{3, 2, 1}, nil), solver, DefaultOptions())
	assert.ErrorIs(t, err, schema.ErrSolverTimeout)
	assert.ErrorIs(t, err, context.Canceled)
	solver.AssertNumberOfCalls(t, "Solve", 1)
}

func TestReconstructElevenPartyRosters(t *testing.T) {
	tests := []struct {
		name  string
		seats []int64
	}{
		{"first roster", []int64{28, 10, 21, 99, 14, 40, 95, 45, 76, 117, 115}},
		{"second roster", []int64{50, 24, 5, 6, 110, 21, 12, 57, 90, 23, 7}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			sp := newSpace(t, tt.seats, nil)
			rec, err := Reconstruct(ctx, sp, milp.NewLocalSolver(), DefaultOptions())
			require.NoError(t, err)
			assert.NoError(t, Verify(sp, rec.Weights, rec.Quota))
			assert.LessOrEqual(t, rec.Sum, sum(tt.seats))
		})
	}
}

func TestReconstructHonoursDeadline(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	sp := newSpace(t, []int64{22, 20, 57, 45, 32, 36, 46, 43, 39}, nil)

	start := time.Now()
	rec, err := Reconstruct(ctx, sp, milp.NewLocalSolver(), DefaultOptions())
	assert.Less(t, time.Since(start), 5*time.Second)
	if err != nil {
		assert.ErrorIs(t, err, schema.ErrSolverTimeout)
		return
	}
	assert.NoError(t, Verify(sp, rec.Weights, rec.Quota))
}

func TestWeightVector(t *testing.T) {
	rec := &Reconstruction{Weights: []int64{2, 1, 1}, Quota: 2, Sum: 4}
	wv := rec.WeightVector()
	wv.Weights[0] = 9
	assert.Equal(t, int64(2), rec.Weights[0])
	assert.Equal(t, int64(4), wv.Sum)
}
