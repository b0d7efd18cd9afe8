package schema

// Custom string types for type safety.
type (
	// OutputMode represents the format of the output.
	OutputMode string

	// DatabaseBackend represents the database backend for caching and tracking.
	DatabaseBackend string

	// Classification is the majority status of a coalition.
	Classification string

	// PeriodStatus is the outcome of analyzing a single period.
	PeriodStatus string

	// SolverKind selects the integer-program solver adapter.
	SolverKind string

	// MSRPolicy selects how MSR shares are reported when several minimal-sum vectors exist.
	MSRPolicy string

	// InputFormat represents the format of a seat allocation file.
	InputFormat string

	// CoalitionFilter narrows the coalitions listed by the coalitions command.
	CoalitionFilter string
)

// All output modes supported.
const (
	CSVOut     OutputMode = "csv"
	TextOut    OutputMode = "text" // default
	JSONOut    OutputMode = "json"
	ParquetOut OutputMode = "parquet"
)

// All database backends supported.
const (
	SQLiteBackend     DatabaseBackend = "sqlite" // default
	MySQLBackend      DatabaseBackend = "mysql"
	PostgreSQLBackend DatabaseBackend = "postgresql"
	RedisBackend      DatabaseBackend = "redis" // cache only
	NoneBackend       DatabaseBackend = "none"
)

// Coalition classifications.
const (
	Winning Classification = "winning"
	Losing  Classification = "losing"
)

// All period statuses.
const (
	StatusOK           PeriodStatus = "ok"
	StatusRejected     PeriodStatus = "rejected"
	StatusNotWeighted  PeriodStatus = "not_weighted"
	StatusInconsistent PeriodStatus = "inconsistent"
	StatusUnsolved     PeriodStatus = "unsolved"
	StatusOverflow     PeriodStatus = "overflow"
	StatusFailed       PeriodStatus = "failed"
)

// All solver adapters supported.
const (
	LocalSolver  SolverKind = "local" // default
	GLPSolSolver SolverKind = "glpsol"
)

// All MSR policies supported.
const (
	MSRAverage MSRPolicy = "average" // default
	MSRPrimary MSRPolicy = "primary"
)

// All input formats supported.
const (
	AutoFormat InputFormat = "auto" // default
	TSVFormat  InputFormat = "tsv"
	CSVFormat  InputFormat = "csv"
	YAMLFormat InputFormat = "yaml"
	JSONFormat InputFormat = "json"
)

// All coalition filters supported.
const (
	AllCoalitions   CoalitionFilter = "all" // default
	MWCCoalitions   CoalitionFilter = "mwc"
	MLCCoalitions   CoalitionFilter = "mlc"
	TyingCoalitions CoalitionFilter = "ties"
)

// ValidOutputModes lists all valid output modes.
var ValidOutputModes = map[OutputMode]struct{}{
	CSVOut:     {},
	TextOut:    {},
	JSONOut:    {},
	ParquetOut: {},
}

// ValidCacheBackends lists all valid cache backends.
var ValidCacheBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	RedisBackend:      {},
	NoneBackend:       {},
}

// ValidAnalysisBackends lists all valid analysis tracking backends.
var ValidAnalysisBackends = map[DatabaseBackend]struct{}{
	SQLiteBackend:     {},
	MySQLBackend:      {},
	PostgreSQLBackend: {},
	NoneBackend:       {},
}

// ValidSolverKinds lists all valid solver adapters.
var ValidSolverKinds = map[SolverKind]struct{}{
	LocalSolver:  {},
	GLPSolSolver: {},
}

// ValidMSRPolicies lists all valid MSR policies.
var ValidMSRPolicies = map[MSRPolicy]struct{}{
	MSRAverage: {},
	MSRPrimary: {},
}

// ValidInputFormats lists all valid input formats.
var ValidInputFormats = map[InputFormat]struct{}{
	AutoFormat: {},
	TSVFormat:  {},
	CSVFormat:  {},
	YAMLFormat: {},
	JSONFormat: {},
}

// ValidCoalitionFilters lists all valid coalition filters.
var ValidCoalitionFilters = map[CoalitionFilter]struct{}{
	AllCoalitions:   {},
	MWCCoalitions:   {},
	MLCCoalitions:   {},
	TyingCoalitions: {},
}
