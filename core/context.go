package core

import (
	"context"

	"github.com/SebSchroeter/masterthesis/internal/contract"
)

// Context keys for analysis options
type contextKey string

const (
	suppressHeaderKey contextKey = "suppressHeader"
	analysisIDKey     contextKey = "analysisID"
	cacheManagerKey   contextKey = "cacheManager"
)

// WithSuppressHeader marks the context so that no run header is printed.
// Used by the MCP server and by structured output modes.
func WithSuppressHeader(ctx context.Context) context.Context {
	return context.WithValue(ctx, suppressHeaderKey, true)
}

// shouldSuppressHeader returns whether headers should be suppressed from context
func shouldSuppressHeader(ctx context.Context) bool {
	suppress, ok := ctx.Value(suppressHeaderKey).(bool)
	return ok && suppress
}

// withAnalysisID stores the tracked run ID in the context
func withAnalysisID(ctx context.Context, analysisID int64) context.Context {
	return context.WithValue(ctx, analysisIDKey, analysisID)
}

// getAnalysisID returns the tracked run ID, if any
func getAnalysisID(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(analysisIDKey).(int64)
	return id, ok
}

// contextWithCacheManager makes the cache manager available to the workers
func contextWithCacheManager(ctx context.Context, mgr contract.CacheManager) context.Context {
	return context.WithValue(ctx, cacheManagerKey, mgr)
}

// cacheManagerFromContext returns the cache manager or nil
func cacheManagerFromContext(ctx context.Context) contract.CacheManager {
	mgr, _ := ctx.Value(cacheManagerKey).(contract.CacheManager)
	return mgr
}
