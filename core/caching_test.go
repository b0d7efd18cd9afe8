package core

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/SebSchroeter/masterthesis/core/game"
	"github.com/SebSchroeter/masterthesis/core/space"
	"github.com/SebSchroeter/masterthesis/internal/iocache"
	"github.com/SebSchroeter/masterthesis/internal/milp"
	"github.com/SebSchroeter/masterthesis/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func threeParties(t *testing.T) *space.Space {
	t.Helper()
	sp, err := space.New("1998", []string{"A", "B", "C"}, []int64{3, 2, 1}, nil, 0)
	require.NoError(t, err)
	return sp
}

func cacheContext(store *iocache.MockCacheStore) context.Context {
	mgr := &iocache.MockCacheManager{}
	mgr.On("GetReconstructionStore").Return(store)
	return contextWithCacheManager(context.Background(), mgr)
}

func encoded(t *testing.T, c cachedReconstruction) []byte {
	t.Helper()
	data, err := json.Marshal(c)
	require.NoError(t, err)
	return data
}

func TestCachedReconstructWithoutStore(t *testing.T) {
	rec, hit, err := cachedReconstruct(context.Background(), threeParties(t), milp.NewLocalSolver(), game.DefaultOptions())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []int64{2, 1, 1}, rec.Weights)
}

func TestCachedReconstructMissStores(t *testing.T) {
	store := &iocache.MockCacheStore{}
	store.On("Get", mock.AnythingOfType("string")).Return(nil, 0, int64(0), errors.New("not found"))
	store.On("Set", mock.AnythingOfType("string"), mock.Anything, currentCacheVersion, mock.AnythingOfType("int64")).Return(nil)

	rec, hit, err := cachedReconstruct(cacheContext(store), threeParties(t), milp.NewLocalSolver(), game.DefaultOptions())
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, int64(2), rec.Quota)
	store.AssertExpectations(t)

	var stored cachedReconstruction
	data := store.Calls[1].Arguments.Get(1).([]byte)
	require.NoError(t, json.Unmarshal(data, &stored))
	assert.Equal(t, []int64{2, 1, 1}, stored.Weights)
}

func TestCachedReconstructHit(t *testing.T) {
	store := &iocache.MockCacheStore{}
	data := encoded(t, cachedReconstruction{Weights: []int64{2, 1, 1}, Quota: 2, Sum: 4, Constraints: 4})
	store.On("Get", mock.AnythingOfType("string")).Return(data, currentCacheVersion, time.Now().Unix(), nil)
	solver := &mockSolver{}

	rec, hit, err := cachedReconstruct(cacheContext(store), threeParties(t), solver, game.DefaultOptions())
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, int64(4), rec.Sum)
	solver.AssertNotCalled(t, "Solve", mock.Anything, mock.Anything)
	store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCachedReconstructRejectsBadEntries(t *testing.T) {
	valid := encoded(t, cachedReconstruction{Weights: []int64{2, 1, 1}, Quota: 2, Sum: 4})
	tests := []struct {
		name    string
		data    []byte
		version int
		ts      int64
	}{
		{"stale", valid, currentCacheVersion, time.Now().Add(-cacheMaxAge - time.Hour).Unix()},
		{"old version", valid, currentCacheVersion + 1, time.Now().Unix()},
		{"corrupt", []byte("{not json"), currentCacheVersion, time.Now().Unix()},
		{"wrong classification", encoded(t, cachedReconstruction{Weights: []int64{1, 1, 1}, Quota: 1, Sum: 3}), currentCacheVersion, time.Now().Unix()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := &iocache.MockCacheStore{}
			store.On("Get", mock.Anything).Return(tt.data, tt.version, tt.ts, nil)
			store.On("Set", mock.Anything, mock.Anything, currentCacheVersion, mock.Anything).Return(nil)

			rec, hit, err := cachedReconstruct(cacheContext(store), threeParties(t), milp.NewLocalSolver(), game.DefaultOptions())
			require.NoError(t, err)
			assert.False(t, hit)
			assert.Equal(t, []int64{2, 1, 1}, rec.Weights)
			store.AssertNumberOfCalls(t, "Set", 1)
		})
	}
}

func TestCachedReconstructDoesNotStoreFailures(t *testing.T) {
	store := &iocache.MockCacheStore{}
	store.On("Get", mock.Anything).Return(nil, 0, int64(0), errors.New("not found"))
	solver := &mockSolver{}
	solver.On("Solve", mock.Anything, mock.Anything).Return(schema.MILPSolution{Status: schema.MILPInfeasible}, nil)

	_, _, err := cachedReconstruct(cacheContext(store), threeParties(t), solver, game.DefaultOptions())
	assert.Error(t, err)
	store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestCachedReconstructSkipsInterruptedAlternates(t *testing.T) {
	store := &iocache.MockCacheStore{}
	store.On("Get", mock.Anything).Return(nil, 0, int64(0), errors.New("not found"))
	ctx, cancel := context.WithCancel(cacheContext(store))
	defer cancel()

	solver := &mockSolver{}
	solver.On("Solve", mock.Anything, mock.Anything).
		Return(schema.MILPSolution{Status: schema.MILPOptimal, X: []float64{2, 1, 1}, Objective: 4}, nil).
		Run(func(mock.Arguments) { cancel() }).Once()

	opts := game.DefaultOptions()
	opts.ForceAlternates = true
	rec, hit, err := cachedReconstruct(ctx, threeParties(t), solver, opts)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Equal(t, []int64{2, 1, 1}, rec.Weights)
	assert.True(t, rec.AlternatesTruncated)
	store.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestReconstructionCacheKey(t *testing.T) {
	sp := threeParties(t)
	opts := game.DefaultOptions()
	key := reconstructionCacheKey(sp, "local", opts)
	assert.Len(t, key, 64)
	assert.Equal(t, key, reconstructionCacheKey(sp, "local", opts))

	assert.NotEqual(t, key, reconstructionCacheKey(sp, "glpsol", opts))

	forced := opts
	forced.ForceAlternates = true
	assert.NotEqual(t, key, reconstructionCacheKey(sp, "local", forced))

	quota := int64(4)
	custom, err := space.New("1998", []string{"A", "B", "C"}, []int64{3, 2, 1}, &quota, 0)
	require.NoError(t, err)
	assert.NotEqual(t, key, reconstructionCacheKey(custom, "local", opts))

	reordered, err := space.New("1998", []string{"B", "A", "C"}, []int64{2, 3, 1}, nil, 0)
	require.NoError(t, err)
	assert.NotEqual(t, key, reconstructionCacheKey(reordered, "local", opts))

	otherPeriod, err := space.New("2002", []string{"A", "B", "C"}, []int64{3, 2, 1}, nil, 0)
	require.NoError(t, err)
	assert.Equal(t, key, reconstructionCacheKey(otherPeriod, "local", opts), "the period label does not change the game")
}
