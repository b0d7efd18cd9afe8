package contract

import (
	"fmt"
	"os"
	"runtime"
	"slices"
	"strings"
	"time"

	"github.com/SebSchroeter/masterthesis/schema"
	"github.com/redis/go-redis/v9"
)

// Default values for configuration.
const (
	DefaultPrecision           = 3
	MaxPrecision               = 6
	DefaultMaxParties          = 20
	MaxEnumerableParties       = schema.MaxSupportedParties
	DefaultSolveTimeout        = 30 * time.Second
	DefaultNodeLimit           = 200000
	DefaultAlternatesThreshold = 8
	DefaultMaxAlternates       = 1000
	DefaultSolverPath          = "glpsol"
)

// Supported input encodings.
const (
	EncodingAuto    = "auto"
	EncodingUTF8    = "utf-8"
	EncodingUTF16   = "utf-16"
	EncodingUTF16LE = "utf-16le"
	EncodingUTF16BE = "utf-16be"
)

// DefaultWorkers is the default number of concurrent workers to use.
var DefaultWorkers = runtime.GOMAXPROCS(0)

// DateTimeFormat is the default date time representation.
var DateTimeFormat = time.RFC3339

// validEncodings lists all accepted --encoding values.
var validEncodings = []string{EncodingAuto, EncodingUTF8, EncodingUTF16, EncodingUTF16LE, EncodingUTF16BE}

// ProfileConfig holds profiling settings.
type ProfileConfig struct {
	Enabled bool
	Prefix  string
}

// Config holds the runtime configuration for the analysis.
// This struct remains the "final, validated" config.
type Config struct {
	InputPath   string
	InputFormat schema.InputFormat
	Encoding    string
	Periods     []string // empty means all periods

	Workers    int
	Precision  int
	Output     schema.OutputMode
	OutputFile string
	Detail     bool
	Width      int // Terminal width override (0 = auto-detect)
	Strict     bool

	MaxParties          int
	Solver              schema.SolverKind
	SolverPath          string
	SolveTimeout        time.Duration
	NodeLimit           int
	Alternates          bool // force alternate enumeration regardless of party count
	AlternatesThreshold int
	MaxAlternates       int
	MSRPolicy           schema.MSRPolicy
	Only                schema.CoalitionFilter

	BasePeriod   string // compare: period the deltas start from
	TargetPeriod string // compare: period the deltas end at

	CacheBackend   schema.DatabaseBackend
	CacheDBConnect string // Please use env var as this is plaintext

	AnalysisBackend   schema.DatabaseBackend
	AnalysisDBConnect string // Please use env var as this is plaintext

	UseEmojis bool // Enable emojis in output headers
	UseColors bool // Enable colored labels in table output
}

// ConfigRawInput holds the raw inputs from all sources (flags, env, config file).
// Viper unmarshals into this struct.
type ConfigRawInput struct {
	// This is set manually from positional args, so no tag
	InputPathStr string

	// --- Fields from rootCmd.PersistentFlags() ---
	Format            string `mapstructure:"format"`
	Encoding          string `mapstructure:"encoding"`
	Period            string `mapstructure:"period"`
	Workers           int    `mapstructure:"workers"`
	Precision         int    `mapstructure:"precision"`
	Output            string `mapstructure:"output"`
	OutputFile        string `mapstructure:"output-file"`
	Detail            bool   `mapstructure:"detail"`
	Width             int    `mapstructure:"width"`
	Strict            bool   `mapstructure:"strict"`
	CacheBackend      string `mapstructure:"cache-backend"`
	CacheDBConnect    string `mapstructure:"cache-db-connect"`
	AnalysisBackend   string `mapstructure:"analysis-backend"`
	AnalysisDBConnect string `mapstructure:"analysis-db-connect"`
	Emoji             string `mapstructure:"emoji"`
	Color             string `mapstructure:"color"`

	// --- Solver and reconstruction settings ---
	MaxParties          int    `mapstructure:"max-parties"`
	Solver              string `mapstructure:"solver"`
	SolverPath          string `mapstructure:"solver-path"`
	SolveTimeout        string `mapstructure:"solve-timeout"`
	NodeLimit           int    `mapstructure:"node-limit"`
	Alternates          bool   `mapstructure:"alternates"`
	AlternatesThreshold int    `mapstructure:"alternates-threshold"`
	MaxAlternates       int    `mapstructure:"max-alternates"`
	MSRPolicy           string `mapstructure:"msr-policy"`

	// --- Fields from coalitionsCmd.Flags() ---
	Only string `mapstructure:"only"`

	// --- Fields from compareCmd.Flags() ---
	BasePeriod   string `mapstructure:"base-period"`
	TargetPeriod string `mapstructure:"target-period"`
}

// Clone returns a deep copy of the Config struct.
func (c *Config) Clone() *Config {
	clone := *c
	if c.Periods != nil {
		clone.Periods = slices.Clone(c.Periods)
	}
	return &clone
}

// WantsPeriod reports whether the period passes the --period filter.
func (c *Config) WantsPeriod(period string) bool {
	return len(c.Periods) == 0 || slices.Contains(c.Periods, period)
}

// ProcessAndValidate performs all complex parsing and validation on the raw inputs
// and updates the final Config struct.
func ProcessAndValidate(cfg *Config, input *ConfigRawInput) error {
	if err := validateSimpleInputs(cfg, input); err != nil {
		return err
	}
	if err := processSolverSettings(cfg, input); err != nil {
		return err
	}
	if err := validateBackendConfigs(cfg, input); err != nil {
		return err
	}
	return resolveInputPath(cfg, input)
}

// ValidateDatabaseConnectionString validates the format of database connection strings
// for MySQL, PostgreSQL and Redis backends.
func ValidateDatabaseConnectionString(backend schema.DatabaseBackend, connStr string) error {
	switch backend {
	case schema.SQLiteBackend, schema.NoneBackend:
		return nil
	case schema.MySQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "@tcp(") {
			return fmt.Errorf("MySQL connection string must contain '@tcp(' followed by host:port")
		}
		if !strings.Contains(connStr, "/") {
			return fmt.Errorf("MySQL connection string must contain '/' followed by database name")
		}
	case schema.PostgreSQLBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if !strings.Contains(connStr, "host=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'host=' parameter")
		}
		if !strings.Contains(connStr, "dbname=") {
			return fmt.Errorf("PostgreSQL connection string must contain 'dbname=' parameter")
		}
	case schema.RedisBackend:
		if connStr == "" {
			return fmt.Errorf("a connection string is required when using %s backend", backend)
		}
		if _, err := redis.ParseURL(connStr); err != nil {
			return fmt.Errorf("invalid Redis URL (expected redis://[:password@]host:port/db): %w", err)
		}
	}
	return nil
}

// validateBackendConfigs validates cache and analysis backend configurations.
func validateBackendConfigs(cfg *Config, input *ConfigRawInput) error {
	// --- Cache Backend Validation ---
	cfg.CacheBackend = schema.DatabaseBackend(strings.ToLower(input.CacheBackend))
	if _, ok := schema.ValidCacheBackends[cfg.CacheBackend]; !ok {
		return fmt.Errorf("invalid cache backend '%s'. must be sqlite, mysql, postgresql, redis, none", input.CacheBackend)
	}
	cfg.CacheDBConnect = input.CacheDBConnect
	if err := ValidateDatabaseConnectionString(cfg.CacheBackend, cfg.CacheDBConnect); err != nil {
		return err
	}

	// --- Analysis Backend Validation ---
	cfg.AnalysisBackend = schema.DatabaseBackend(strings.ToLower(input.AnalysisBackend))
	if cfg.AnalysisBackend == "" {
		return nil
	}
	if _, ok := schema.ValidAnalysisBackends[cfg.AnalysisBackend]; !ok {
		return fmt.Errorf("invalid analysis backend '%s'. must be sqlite, mysql, postgresql, none", input.AnalysisBackend)
	}
	cfg.AnalysisDBConnect = input.AnalysisDBConnect
	if err := ValidateDatabaseConnectionString(cfg.AnalysisBackend, cfg.AnalysisDBConnect); err != nil {
		return err
	}

	// Cache and analysis must not share a SQLite file
	if cfg.CacheBackend == schema.SQLiteBackend && cfg.AnalysisBackend == schema.SQLiteBackend {
		cacheDBPath := cfg.CacheDBConnect
		if cacheDBPath == "" {
			cacheDBPath = GetCacheDBFilePath()
		}
		analysisDBPath := cfg.AnalysisDBConnect
		if analysisDBPath == "" {
			analysisDBPath = GetAnalysisDBFilePath()
		}
		if cacheDBPath == analysisDBPath {
			return fmt.Errorf("cache and analysis storage must use different SQLite database files. Both resolve to %q", cacheDBPath)
		}
	}

	return nil
}

// validateSimpleInputs processes and validates all output and input-format fields.
func validateSimpleInputs(cfg *Config, input *ConfigRawInput) error {
	// --- 0. Transfer simple non-validated fields from input -> cfg ---
	cfg.OutputFile = input.OutputFile
	cfg.Detail = input.Detail
	cfg.Width = input.Width
	cfg.Strict = input.Strict
	cfg.Periods = SplitList(input.Period)
	cfg.BasePeriod = strings.TrimSpace(input.BasePeriod)
	cfg.TargetPeriod = strings.TrimSpace(input.TargetPeriod)

	// Parse emoji flag
	emojis, err := ParseBoolString(input.Emoji)
	if err != nil {
		return fmt.Errorf("invalid --emoji value: %w", err)
	}
	cfg.UseEmojis = emojis

	// Parse color flag
	colors, err := ParseBoolString(input.Color)
	if err != nil {
		return fmt.Errorf("invalid --color value: %w", err)
	}
	cfg.UseColors = colors

	// --- 1. Workers Validation ---
	if input.Workers <= 0 {
		return fmt.Errorf("workers must be greater than 0 (received %d)", input.Workers)
	}
	cfg.Workers = input.Workers

	// --- 2. Precision and Output Validation ---
	if input.Precision < 1 || input.Precision > MaxPrecision {
		return fmt.Errorf("precision must be between 1 and %d (received %d)", MaxPrecision, input.Precision)
	}
	cfg.Precision = input.Precision

	cfg.Output = schema.OutputMode(strings.ToLower(input.Output))
	if _, ok := schema.ValidOutputModes[cfg.Output]; !ok {
		return fmt.Errorf("invalid output format '%s'. must be text, csv, json, parquet", input.Output)
	}
	if cfg.Output == schema.ParquetOut && cfg.OutputFile == "" {
		return fmt.Errorf("--output-file is required for parquet output")
	}

	// --- 3. Input Format Validation ---
	cfg.InputFormat = schema.InputFormat(strings.ToLower(input.Format))
	if cfg.InputFormat == "" {
		cfg.InputFormat = schema.AutoFormat
	}
	if _, ok := schema.ValidInputFormats[cfg.InputFormat]; !ok {
		return fmt.Errorf("invalid input format '%s'. must be auto, tsv, csv, yaml, json", input.Format)
	}

	cfg.Encoding = strings.ToLower(input.Encoding)
	if cfg.Encoding == "" {
		cfg.Encoding = EncodingAuto
	}
	if !slices.Contains(validEncodings, cfg.Encoding) {
		return fmt.Errorf("invalid encoding '%s'. must be one of %s", input.Encoding, strings.Join(validEncodings, ", "))
	}

	// --- 4. Coalition Filter Validation ---
	cfg.Only = schema.CoalitionFilter(strings.ToLower(input.Only))
	if cfg.Only == "" {
		cfg.Only = schema.AllCoalitions
	}
	if _, ok := schema.ValidCoalitionFilters[cfg.Only]; !ok {
		return fmt.Errorf("invalid --only value '%s'. must be all, mwc, mlc, ties", input.Only)
	}

	return nil
}

// processSolverSettings validates the reconstruction and solver parameters.
func processSolverSettings(cfg *Config, input *ConfigRawInput) error {
	if input.MaxParties < 1 || input.MaxParties > MaxEnumerableParties {
		return fmt.Errorf("max-parties must be between 1 and %d (received %d)", MaxEnumerableParties, input.MaxParties)
	}
	cfg.MaxParties = input.MaxParties

	cfg.Solver = schema.SolverKind(strings.ToLower(input.Solver))
	if _, ok := schema.ValidSolverKinds[cfg.Solver]; !ok {
		return fmt.Errorf("invalid solver '%s'. must be local, glpsol", input.Solver)
	}
	cfg.SolverPath = strings.TrimSpace(input.SolverPath)
	if cfg.SolverPath == "" {
		cfg.SolverPath = DefaultSolverPath
	}

	timeout, err := time.ParseDuration(strings.TrimSpace(input.SolveTimeout))
	if err != nil {
		return fmt.Errorf("invalid --solve-timeout '%s': %w", input.SolveTimeout, err)
	}
	if timeout <= 0 {
		return fmt.Errorf("solve-timeout must be positive (received %s)", timeout)
	}
	cfg.SolveTimeout = timeout

	if input.NodeLimit < 0 {
		return fmt.Errorf("node-limit cannot be negative (received %d)", input.NodeLimit)
	}
	cfg.NodeLimit = input.NodeLimit

	if input.AlternatesThreshold < 0 {
		return fmt.Errorf("alternates-threshold cannot be negative (received %d)", input.AlternatesThreshold)
	}
	if input.MaxAlternates < 1 {
		return fmt.Errorf("max-alternates must be at least 1 (received %d)", input.MaxAlternates)
	}
	cfg.Alternates = input.Alternates
	cfg.AlternatesThreshold = input.AlternatesThreshold
	cfg.MaxAlternates = input.MaxAlternates

	cfg.MSRPolicy = schema.MSRPolicy(strings.ToLower(input.MSRPolicy))
	if _, ok := schema.ValidMSRPolicies[cfg.MSRPolicy]; !ok {
		return fmt.Errorf("invalid msr-policy '%s'. must be average, primary", input.MSRPolicy)
	}

	return nil
}

// ProcessProfilingConfig handles the profiling flag and sets up profiling configuration.
func ProcessProfilingConfig(profile *ProfileConfig, profilePrefix string) error {
	if profilePrefix != "" {
		profile.Enabled = true
		profile.Prefix = profilePrefix
	}
	return nil
}

// resolveInputPath checks the positional input file, when one was given.
func resolveInputPath(cfg *Config, input *ConfigRawInput) error {
	cfg.InputPath = strings.TrimSpace(input.InputPathStr)
	if cfg.InputPath == "" {
		return nil
	}
	info, err := os.Stat(cfg.InputPath)
	if err != nil {
		return fmt.Errorf("cannot read input file: %w", err)
	}
	if info.IsDir() {
		return fmt.Errorf("input path %s is a directory, expected a seat allocation file", cfg.InputPath)
	}
	return nil
}
