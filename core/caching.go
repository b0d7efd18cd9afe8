package core

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/SebSchroeter/masterthesis/core/game"
	"github.com/SebSchroeter/masterthesis/core/space"
	"github.com/SebSchroeter/masterthesis/internal/contract"
)

// currentCacheVersion defines the version of the cache schema
const currentCacheVersion = 1

// cacheMaxAge is how long a stored reconstruction stays usable.
const cacheMaxAge = 30 * 24 * time.Hour

// cachedReconstruction is the stored form of a verified reconstruction.
type cachedReconstruction struct {
	Weights             []int64   `json:"weights"`
	Quota               int64     `json:"quota"`
	Sum                 int64     `json:"sum"`
	Alternates          [][]int64 `json:"alternates,omitempty"`
	AlternatesTruncated bool      `json:"alternates_truncated,omitempty"`
	Constraints         int       `json:"constraints"`
}

// cachedReconstruct returns the reconstruction of the period, from the cache when a
// fresh entry exists. The second return value reports a cache hit.
func cachedReconstruct(ctx context.Context, sp *space.Space, solver contract.Solver, opts game.Options) (*game.Reconstruction, bool, error) {
	var store contract.CacheStore
	if mgr := cacheManagerFromContext(ctx); mgr != nil {
		store = mgr.GetReconstructionStore()
	}
	if store == nil {
		rec, err := game.Reconstruct(ctx, sp, solver, opts)
		return rec, false, err
	}

	key := reconstructionCacheKey(sp, solver.Name(), opts)

	// Check for cache hit
	if rec := checkCacheHit(store, sp, key); rec != nil {
		return rec, true, nil
	}

	// Cache miss: compute and store
	rec, err := computeAndStore(ctx, sp, solver, opts, store, key)
	return rec, false, err
}

// checkCacheHit attempts to retrieve and validate a cached result.
// A hit is verified against the period before it is used.
func checkCacheHit(store contract.CacheStore, sp *space.Space, key string) *game.Reconstruction {
	data, version, ts, err := store.Get(key)
	if err != nil {
		return nil // Cache miss
	}
	if version != currentCacheVersion || time.Since(time.Unix(ts, 0)) > cacheMaxAge {
		return nil
	}

	var cached cachedReconstruction
	if err := json.Unmarshal(data, &cached); err != nil {
		return nil
	}
	if game.Verify(sp, cached.Weights, cached.Quota) != nil {
		return nil
	}
	return &game.Reconstruction{
		Weights:             cached.Weights,
		Quota:               cached.Quota,
		Sum:                 cached.Sum,
		Alternates:          cached.Alternates,
		AlternatesTruncated: cached.AlternatesTruncated,
		Constraints:         cached.Constraints,
	}
}

// computeAndStore reconstructs the game and stores it in the cache.
// Failed reconstructions are not cached, and neither are those whose alternate
// enumeration was cut short by the deadline.
func computeAndStore(ctx context.Context, sp *space.Space, solver contract.Solver, opts game.Options, store contract.CacheStore, key string) (*game.Reconstruction, error) {
	rec, err := game.Reconstruct(ctx, sp, solver, opts)
	if err != nil {
		return nil, err
	}
	if ctx.Err() != nil {
		return rec, nil
	}

	cached := cachedReconstruction{
		Weights:             rec.Weights,
		Quota:               rec.Quota,
		Sum:                 rec.Sum,
		Alternates:          rec.Alternates,
		AlternatesTruncated: rec.AlternatesTruncated,
		Constraints:         rec.Constraints,
	}
	if data, err := json.Marshal(cached); err == nil {
		if err := store.Set(key, data, currentCacheVersion, time.Now().Unix()); err != nil {
			contract.LogWarn("Failed to cache reconstruction of period "+sp.Period(), err)
		}
	}
	return rec, nil
}

// reconstructionCacheKey hashes everything that determines a reconstruction:
// the roster in order, the quota, the solver and the alternate settings.
func reconstructionCacheKey(sp *space.Space, solverName string, opts game.Options) string {
	seats := sp.Seats()
	parts := make([]string, len(seats))
	for i, label := range sp.Labels() {
		parts[i] = label + "=" + strconv.FormatInt(seats[i], 10)
	}
	alternates := opts.ForceAlternates || sp.N() > opts.AlternatesThreshold
	key := fmt.Sprintf("%s|q=%d|solver=%s|alt=%t:%d",
		strings.Join(parts, "\x1f"),
		sp.Quota(),
		solverName,
		alternates,
		opts.MaxAlternates,
	)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(key)))
}
