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

// analysisBackendConfig reads and validates the analysis backend settings.
// An empty backend means tracking is disabled.
func analysisBackendConfig() (schema.DatabaseBackend, string, error) {
	backend := schema.DatabaseBackend(strings.ToLower(viper.GetString("analysis-backend")))
	connStr := viper.GetString("analysis-db-connect")
	if backend == "" {
		backend = schema.NoneBackend
	}
	if _, ok := schema.ValidAnalysisBackends[backend]; !ok {
		return "", "", fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", backend)
	}
	if err := contract.ValidateDatabaseConnectionString(backend, connStr); err != nil {
		return "", "", err
	}
	return backend, connStr, nil
}

// analysisSetup loads minimal configuration needed for analysis operations.
// This is used by commands that need analysis access without full shared setup.
func analysisSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, connStr, err := analysisBackendConfig()
	if err != nil {
		return err
	}

	// Get output-related config values (used by export command)
	outputFile := viper.GetString("output-file")

	// Initialize stores with the loaded config (no cache tracking for analysis commands)
	if err := iocache.InitStores(schema.NoneBackend, "", backend, connStr); err != nil {
		return fmt.Errorf("failed to initialize analysis: %w", err)
	}

	cfg.AnalysisBackend = backend
	cfg.AnalysisDBConnect = connStr
	cfg.OutputFile = outputFile

	return nil
}

// analysisSetupWrapper wraps analysisSetup to provide PreRunE for analysis commands.
func analysisSetupWrapper(_ *cobra.Command, _ []string) error {
	return analysisSetup()
}

// analysisMigrateSetup loads minimal configuration needed for migrate operations.
// This is a specialized setup that does NOT initialize stores or create tables,
// allowing migrations to run on a fresh database.
func analysisMigrateSetup() error {
	if err := loadConfigFile(); err != nil {
		return err
	}

	backend, connStr, err := analysisBackendConfig()
	if err != nil {
		return err
	}

	// For SQLite backend with empty connection string, use default path
	if backend == schema.SQLiteBackend && connStr == "" {
		connStr = contract.GetAnalysisDBFilePath()
	}

	cfg.AnalysisBackend = backend
	cfg.AnalysisDBConnect = connStr

	return nil
}

// analysisMigrateSetupWrapper wraps analysisMigrateSetup to provide PreRunE for migrate command.
func analysisMigrateSetupWrapper(_ *cobra.Command, _ []string) error {
	return analysisMigrateSetup()
}

// analysisCmd focused on analysis data management.
//
// Note: Analysis subcommands use minimal initialization (analysisSetup) instead of
// the full sharedSetup used by analysis commands. No input file is read.
var analysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Manage tracked analysis runs and exports",
	Long: `Manage the power indices recorded by previous analyze runs.

When --analysis-backend is set, every analyze run is tracked, storing:
- Run metadata (timestamp, configuration, duration)
- Status, seats, weight and quota of every party in every period
- Banzhaf, normalized Banzhaf, Shapley-Shubik and MSR values

This enables comparisons across periods and data export for notebooks.

Supported backends: SQLite, MySQL, PostgreSQL, or None (disabled)

Subcommands:
  status  - Show analysis tracking statistics
  export  - Export data to Parquet for analytics
  clear   - Remove all tracking data
  migrate - Run database schema migrations

Examples:
  # Check tracking status
  wvg analysis status --analysis-backend sqlite

  # Export for analysis in pandas/DuckDB
  wvg analysis export --analysis-backend sqlite --output-file power-history`,
}

// analysisClearCmd clears the analysis data.
var analysisClearCmd = &cobra.Command{
	Use:   "clear",
	Short: "Remove all tracked analysis runs",
	Long: `Delete all stored analysis runs and their power indices.

WARNING: This action cannot be undone. Consider exporting data first.

For SQLite: Deletes the database file
For MySQL/PostgreSQL: Drops the analysis tables

Examples:
  # Export before clearing
  wvg analysis export --analysis-backend sqlite --output-file backup
  wvg analysis clear --analysis-backend sqlite`,
	PreRunE: analysisSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		dbFilePath := cmp.Or(cfg.AnalysisDBConnect, contract.GetAnalysisDBFilePath())
		if err := iocache.ClearAnalysis(cfg.AnalysisBackend, dbFilePath, cfg.AnalysisDBConnect); err != nil {
			contract.LogFatal("Failed to clear analysis data", err)
		}
		fmt.Println("Analysis data cleared successfully.")
	},
}

// analysisStatusCmd shows analysis status.
var analysisStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display analysis tracking statistics and connection details",
	Long: `Show detailed information about tracked analysis runs.

Displays:
- Backend type and connection status
- Total number of analysis runs stored
- Last and oldest analysis run timestamps
- Total periods analyzed across all runs
- Database table sizes

Examples:
  # Check analysis tracking status
  wvg analysis status --analysis-backend sqlite`,
	PreRunE: analysisSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		status, err := iocache.Manager.GetAnalysisStore().GetStatus()
		if err != nil {
			contract.LogFatal("Failed to get analysis status", err)
		}
		iocache.PrintAnalysisStatus(status)
	},
}

// analysisExportCmd exports analysis data to Parquet files.
var analysisExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export tracked power indices to Parquet",
	Long: `Export all stored analysis data to Parquet format for use with analytics tools.

Exports two datasets next to the --output-file prefix:
- <prefix>.analysis_runs.parquet - metadata about each analysis run
- <prefix>.power_indices.parquet - one row per party and period

Requires: --output-file parameter

Examples:
  # Export all data
  wvg analysis export --analysis-backend sqlite --output-file wvg-data

  # Use with DuckDB for analysis
  duckdb -c "SELECT period, party, shapley_shubik FROM read_parquet('wvg-data.power_indices.parquet')"`,
	PreRunE: analysisSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := iocache.ExecuteAnalysisExport(cfg.OutputFile); err != nil {
			contract.LogFatal("Failed to export analysis data", err)
		}
	},
}

// analysisMigrateCmd runs database migrations for the analysis store.
var analysisMigrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Run database schema migrations (upgrades/downgrades)",
	Long: `Manage database schema versions for the analysis tracking store.

By default, migrates to the latest version. Use --target-version for specific versions.

Examples:
  # Migrate to latest version (default)
  wvg analysis migrate --analysis-backend postgresql --analysis-db-connect "host=localhost dbname=wvg"

  # Migrate to specific version
  wvg analysis migrate --analysis-backend sqlite --target-version 1

  # Rollback to initial state
  wvg analysis migrate --analysis-backend sqlite --target-version 0`,
	PreRunE: analysisMigrateSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		targetVersion := viper.GetInt("target-version")
		if err := iocache.MigrateAnalysis(cfg.AnalysisBackend, cfg.AnalysisDBConnect, targetVersion); err != nil {
			contract.LogFatal("Failed to run migrations", err)
		}
	},
}
