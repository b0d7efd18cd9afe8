package cmd

import (
	"context"
	"fmt"
	"os"
	"runtime/pprof"
	"strings"

	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/SebSchroeter/masterthesis/internal/iocache"
	"github.com/SebSchroeter/masterthesis/schema"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Release builds stamp these through -ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// rootCtx is handed to every period pipeline and to the MCP server.
var rootCtx = context.Background()

// cfg is the validated run configuration shared by all subcommands.
var cfg = &contract.Config{}

// input collects flags, WVG_* variables and .wvg.yaml before validation.
var input = &contract.ConfigRawInput{}

// profile is filled from --profile.
var profile = &contract.ProfileConfig{}

// cacheManager gives the pipelines access to the reconstruction cache and the run history.
var cacheManager contract.CacheManager

// configName is the base name of the optional YAML config file.
const configName = ".wvg"

// profilePaths returns the CPU and heap profile files written for prefix.
func profilePaths(prefix string) (cpu, mem string) {
	return prefix + ".cpu.prof", prefix + ".mem.prof"
}

// startProfiling samples the CPU for the whole run, which is dominated by
// coalition enumeration and the branch-and-bound solves.
func startProfiling() error {
	if !profile.Enabled {
		return nil
	}

	cpuPath, memPath := profilePaths(profile.Prefix)
	cpuFile, err := os.Create(cpuPath)
	if err != nil {
		return fmt.Errorf("could not create CPU profile: %w", err)
	}
	if err := pprof.StartCPUProfile(cpuFile); err != nil {
		return fmt.Errorf("could not start CPU profiling: %w", err)
	}

	_, err = fmt.Fprintf(os.Stderr, "Profiling periods into %s and %s\n", cpuPath, memPath)
	return err
}

// stopProfiling ends CPU sampling and snapshots the heap, where the 2^n seat
// tables of the largest periods show up.
func stopProfiling() error {
	if !profile.Enabled {
		return nil
	}

	pprof.StopCPUProfile()

	cpuPath, memPath := profilePaths(profile.Prefix)
	memFile, err := os.Create(memPath)
	if err != nil {
		return fmt.Errorf("could not create memory profile: %w", err)
	}
	defer func() { _ = memFile.Close() }()

	if err := pprof.WriteHeapProfile(memFile); err != nil {
		return fmt.Errorf("could not write memory profile: %w", err)
	}

	_, err = fmt.Fprintf(os.Stderr, "Profiles written. Inspect with 'go tool pprof %s'.\n", cpuPath)
	return err
}

var rootCmd = &cobra.Command{
	Use:   "wvg",
	Short: "Model parliaments as weighted voting games and measure party power.",
	Long: `wvg takes a seat allocation file with one roster per legislative period.

For every period it classifies all coalitions as winning or losing, finds the
smallest integer weights and quota that produce the same game, and reports each
party's Shapley-Shubik and Banzhaf power next to its seat share.

Use 'wvg analyze' for the power table, 'wvg coalitions' for the coalition sets,
'wvg compare' to contrast two periods and 'wvg definitions' for the terminology.
Settings come from flags, WVG_* environment variables or a .wvg.yaml file.`,
	Version:            version,
	SilenceErrors:      true,
	SilenceUsage:       true,
	DisableSuggestions: true,
	Run: func(cmd *cobra.Command, _ []string) {
		_ = cmd.Help()
	},
}

// useConfigFile points viper at --config, or at .wvg.yaml in the working
// directory and then the home directory.
func useConfigFile() {
	if configFile := viper.GetString("config"); configFile != "" {
		viper.SetConfigFile(configFile)
		return
	}
	viper.SetConfigName(configName)
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("$HOME")
}

// readConfigFile loads the config file. A missing file is not an error.
func readConfigFile() error {
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return fmt.Errorf("error reading config file: %w", err)
		}
	}
	return nil
}

// applyDefaults registers the fallback value of every setting that can come
// from the config file or the environment.
func applyDefaults(v *viper.Viper) {
	// output
	v.SetDefault("workers", contract.DefaultWorkers)
	v.SetDefault("precision", contract.DefaultPrecision)
	v.SetDefault("output", schema.TextOut)
	v.SetDefault("color", "yes")
	v.SetDefault("emoji", "no")

	// input decoding
	v.SetDefault("format", schema.AutoFormat)
	v.SetDefault("encoding", contract.EncodingAuto)
	v.SetDefault("max-parties", contract.DefaultMaxParties)

	// persistence
	v.SetDefault("cache-backend", schema.SQLiteBackend)
	v.SetDefault("cache-db-connect", "")
	v.SetDefault("analysis-backend", "")
	v.SetDefault("analysis-db-connect", "")

	// reconstruction
	v.SetDefault("solver", schema.LocalSolver)
	v.SetDefault("solver-path", contract.DefaultSolverPath)
	v.SetDefault("solve-timeout", contract.DefaultSolveTimeout.String())
	v.SetDefault("node-limit", contract.DefaultNodeLimit)
	v.SetDefault("alternates-threshold", contract.DefaultAlternatesThreshold)
	v.SetDefault("max-alternates", contract.DefaultMaxAlternates)

	// power indices and coalition listings
	v.SetDefault("msr-policy", schema.MSRAverage)
	v.SetDefault("only", schema.AllCoalitions)
}

// initConfig runs before every command. WVG_SOLVE_TIMEOUT maps to solve-timeout.
func initConfig() {
	useConfigFile()
	viper.SetEnvPrefix("WVG")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()
	applyDefaults(viper.GetViper())
}

// sharedSetup resolves and validates the configuration of an analysis command
// and opens the cache and history stores it selects.
func sharedSetup(_ context.Context, _ *cobra.Command, args []string) error {
	if err := contract.ProcessProfilingConfig(profile, viper.GetString("profile")); err != nil {
		return fmt.Errorf("failed to process profiling config: %w", err)
	}
	if err := startProfiling(); err != nil {
		return fmt.Errorf("failed to start profiling: %w", err)
	}

	if err := readConfigFile(); err != nil {
		return err
	}
	if err := viper.Unmarshal(input); err != nil {
		return fmt.Errorf("unable to unmarshal config: %w", err)
	}

	// The seat allocation file is the only positional argument.
	input.InputPathStr = ""
	if len(args) == 1 {
		input.InputPathStr = args[0]
	}

	if err := contract.ProcessAndValidate(cfg, input); err != nil {
		return err
	}

	if err := iocache.InitStores(cfg.CacheBackend, cfg.CacheDBConnect, cfg.AnalysisBackend, cfg.AnalysisDBConnect); err != nil {
		return fmt.Errorf("failed to initialize persistence: %w", err)
	}
	return nil
}

func sharedSetupWrapper(cmd *cobra.Command, args []string) error {
	return sharedSetup(rootCtx, cmd, args)
}

// loadConfigFile is the setup of the cache and analysis maintenance commands,
// which only need the store settings.
func loadConfigFile() error {
	useConfigFile()
	return readConfigFile()
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// SetCacheManager installs the cache manager used by the analysis commands.
func SetCacheManager(mgr contract.CacheManager) {
	cacheManager = mgr
}

// StopProfiling flushes the profiles started by --profile.
func StopProfiling() error {
	return stopProfiling()
}
