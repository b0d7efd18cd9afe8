package cmd

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/SebSchroeter/masterthesis/internal/iocache"
	"github.com/SebSchroeter/masterthesis/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// cacheSetup loads minimal configuration needed for cache operations.
// This is used by commands that need cache access without full shared setup.
func cacheSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	// Get cache-related config values
	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("cache-backend")))
	connStr := viper.GetString("cache-db-connect")

	if _, ok := schema.ValidCacheBackends[backend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, redis, none", backend)
	}
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return err
	}

	// Initialize caching with the loaded config (no analysis tracking for cache commands)
	if err := iocache.InitStores(backend, connStr, "", ""); err != nil {
		return fmt.Errorf("failed to initialize cache: %w", err)
	}

	cfg.CacheBackend = backend
	cfg.CacheDBConnect = connStr

	return nil
}

// cacheSetupWrapper wraps cacheSetup to provide PreRunE for cache commands.
func cacheSetupWrapper(_ *cobra.Command, _ []string) error {
	return cacheSetup()
}

// cacheCmd focused on cache management.
//
// Note: Cache subcommands use minimal initialization (cacheSetup) instead of
// the full sharedSetup used by analysis commands. No input file is read.
var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Manage the weight reconstruction cache (improves performance)",
	Long: `Manage the cache of reconstructed weight vectors.

Reconstruction solves one integer program per period plus one per alternate vector.
wvg stores the result keyed by the classified game and the solver settings, so a
period with the same seats and quota is never solved twice.

Supported backends: SQLite (default), MySQL, PostgreSQL, Redis, or None (disabled)

Subcommands:
  status - Show cache statistics and connection info
  clear  - Remove all cached data

Examples:
  # Check cache status
  wvg cache status

  # Clear the cache after changing solver binaries
  wvg cache clear`,
}

// cacheClearCmd clears the cache.
var cacheClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all cached reconstructions",
	Long: `Delete all cached weight vectors from the configured backend.

Use this when:
- The solver binary or its version changed
- Cache may be stale or corrupted
- Measuring solve times without cache

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the cache table
For Redis: Deletes every reconstruction key

Examples:
  # Clear SQLite cache (default)
  wvg cache clear

  # Clear Redis cache (set connection string via env variable)
  WVG_CACHE_BACKEND=redis WVG_CACHE_DB_CONNECT="redis://localhost:6379/0" wvg cache clear`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		dbFilePath := cmp.Or(cfg.CacheDBConnect, contract.GetCacheDBFilePath())
		if err := iocache.ClearCache(cfg.CacheBackend, dbFilePath, cfg.CacheDBConnect); err != nil {
			contract.LogFatal("Failed to clear cache", err)
		}
		fmt.Println("Cache cleared successfully.")
	},
}

// cacheStatusCmd shows cache status.
var cacheStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display cache statistics and connection details",
	Long: `Show detailed information about the reconstruction cache.

Displays:
- Backend type and connection status
- Total number of cached reconstructions
- Last and oldest cache entry timestamps
- Cache size

Examples:
  # Check cache status
  wvg cache status`,
	PreRunE: cacheSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetReconstructionStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get cache status", err)
		}
		iocache.PrintCacheStatus(status)
	},
}
