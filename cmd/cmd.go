// Package cmd defines the command-line interface for wvg.
package cmd

import (
	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/SebSchroeter/masterthesis/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	// Call initConfig on Cobra's initialization
	cobra.OnInitialize(initConfig)

	// Add primary subcommands to the root command
	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(coalitionsCmd)
	rootCmd.AddCommand(compareCmd)
	rootCmd.AddCommand(definitionsCmd)
	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(cacheCmd)
	rootCmd.AddCommand(analysisCmd)

	// Add the cache subcommands to the parent cache command
	cacheCmd.AddCommand(cacheClearCmd)
	cacheCmd.AddCommand(cacheStatusCmd)

	// Add the analysis subcommands to the parent analysis command
	analysisCmd.AddCommand(analysisClearCmd)
	analysisCmd.AddCommand(analysisStatusCmd)
	analysisCmd.AddCommand(analysisExportCmd)
	analysisCmd.AddCommand(analysisMigrateCmd)

	// Bind all persistent flags of rootCmd to Viper
	rootCmd.PersistentFlags().Bool("detail", false, "Print coalition sets and reconstructed weight vectors per period")
	rootCmd.PersistentFlags().String("output", string(schema.TextOut), "Output format: text or csv or json or parquet")
	rootCmd.PersistentFlags().String("output-file", "", "Optional path to write output to")
	rootCmd.PersistentFlags().Int("precision", contract.DefaultPrecision, "Decimal precision for numeric columns")
	rootCmd.PersistentFlags().String("profile", "", "Enable profiling and write profiles to files with this prefix")
	rootCmd.PersistentFlags().Int("workers", contract.DefaultWorkers, "Number of periods analyzed concurrently")
	rootCmd.PersistentFlags().Int("width", 0, "Terminal width override (0 = auto-detect)")
	rootCmd.PersistentFlags().String("cache-backend", string(schema.SQLiteBackend), "Cache backend: sqlite or mysql or postgresql or redis or none")
	rootCmd.PersistentFlags().String("cache-db-connect", "", "Connection string for mysql/postgresql (e.g., user:pass@tcp(host:port)/dbname) or redis URL")
	rootCmd.PersistentFlags().String("analysis-backend", "", "Analysis tracking backend: sqlite or mysql or postgresql or none")
	rootCmd.PersistentFlags().String("analysis-db-connect", "", "Database connection string for analysis tracking (must differ from cache-db-connect)")
	rootCmd.PersistentFlags().String("color", "yes", "Enable colored labels in output (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("emoji", "no", "Enable emojis in headers (yes/no/true/false/1/0)")
	rootCmd.PersistentFlags().String("config", "", "Path to config file")
	rootCmd.PersistentFlags().StringP("period", "p", "", "Comma-separated list of periods to analyze (default: all)")
	rootCmd.PersistentFlags().String("format", string(schema.AutoFormat), "Input format: auto or tsv or csv or yaml or json")
	rootCmd.PersistentFlags().String("encoding", contract.EncodingAuto, "Input encoding: auto or utf-8 or utf-16 or utf-16le or utf-16be")
	rootCmd.PersistentFlags().Int("max-parties", contract.DefaultMaxParties, "Largest roster that is enumerated")
	rootCmd.PersistentFlags().String("solver", string(schema.LocalSolver), "MILP solver: local or glpsol")
	rootCmd.PersistentFlags().String("solver-path", contract.DefaultSolverPath, "Path to the glpsol binary")
	rootCmd.PersistentFlags().String("solve-timeout", contract.DefaultSolveTimeout.String(), "Time limit for a single solve")
	rootCmd.PersistentFlags().Int("node-limit", contract.DefaultNodeLimit, "Branch-and-bound node limit of the local solver (0 = unlimited)")
	rootCmd.PersistentFlags().Bool("alternates", false, "Search for every minimal-sum weight vector regardless of roster size")
	rootCmd.PersistentFlags().Int("alternates-threshold", contract.DefaultAlternatesThreshold, "Largest roster searched for alternate vectors by default")
	rootCmd.PersistentFlags().Int("max-alternates", contract.DefaultMaxAlternates, "Cap on alternate vectors collected per period")
	rootCmd.PersistentFlags().String("msr-policy", string(schema.MSRAverage), "Weight vector used for the MSR column: average or primary")
	rootCmd.PersistentFlags().Bool("strict", false, "Exit non-zero when any period is not analyzed")
	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		contract.LogFatal("Error binding root flags", err)
	}

	// Bind all flags of coalitionsCmd to Viper
	coalitionsCmd.Flags().String("only", string(schema.AllCoalitions), "Coalitions to list: all or mwc or mlc or ties")
	if err := viper.BindPFlags(coalitionsCmd.Flags()); err != nil {
		contract.LogFatal("Error binding coalitions flags", err)
	}

	// Bind all flags of compareCmd to Viper
	compareCmd.Flags().String("base-period", "", "Period the comparison starts from")
	compareCmd.Flags().String("target-period", "", "Period the comparison ends at")
	if err := viper.BindPFlags(compareCmd.Flags()); err != nil {
		contract.LogFatal("Error binding compare flags", err)
	}

	// Bind all flags of analysisMigrateCmd to Viper
	analysisMigrateCmd.Flags().Int("target-version", -1, "Target migration version (-1 means latest, 0 means rollback to initial state)")
	if err := viper.BindPFlags(analysisMigrateCmd.Flags()); err != nil {
		contract.LogFatal("Error binding analysis migrate flags", err)
	}
}
