// Package contract provides interfaces and shared utilities for internal architecture.
package contract

import (
	"context"
	"time"

	"github.com/SebSchroeter/masterthesis/schema"
)

// Solver is the boundary to a mixed-integer linear program solver.
// The reconstruction logic depends only on this interface, so any adapter that
// honours the problem contract can be plugged in and tests can use a stub.
type Solver interface {
	// Name identifies the adapter; it is part of cache keys.
	Name() string

	// Solve minimizes the problem objective. A timeout or an infeasible problem is
	// reported through the solution status, not the error; the error is reserved
	// for adapter failures (bad input, missing binary, unparsable output).
	Solve(ctx context.Context, problem schema.MILPProblem) (schema.MILPSolution, error)
}

// CacheManager defines the interface for managing cache stores.
// This allows the cache layer to be mocked for testing.
type CacheManager interface {
	GetReconstructionStore() CacheStore
	GetAnalysisStore() AnalysisStore
}

// CacheStore defines the interface for cache data storage.
// This allows mocking the store for testing.
type CacheStore interface {
	Get(key string) ([]byte, int, int64, error)
	Set(key string, value []byte, version int, timestamp int64) error
	GetStatus() (schema.CacheStatus, error)
	Close() error
}

// AnalysisStore defines the interface for tracking analysis runs and storing power indices.
type AnalysisStore interface {
	// BeginAnalysis creates a new analysis run and returns its unique ID
	BeginAnalysis(runUUID string, startTime time.Time, configParams map[string]any) (int64, error)

	// EndAnalysis updates the analysis run with completion data
	EndAnalysis(analysisID int64, endTime time.Time, totalPeriods int) error

	// RecordPeriodResult stores one row per party of an analyzed period
	RecordPeriodResult(analysisID int64, result schema.PeriodResult) error

	// GetStatus returns status information about the analysis store
	GetStatus() (schema.AnalysisStatus, error)

	// GetAllAnalysisRuns returns every tracked run ordered by ID
	GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error)

	// GetAllPowerIndices returns every tracked power index row
	GetAllPowerIndices() ([]schema.PowerIndexRecord, error)

	// Close closes the underlying connection
	Close() error
}
