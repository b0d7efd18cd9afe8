package schema

// PartyStatus tells in which of the two compared periods a party holds seats.
type PartyStatus string

// Party status values.
const (
	NewParty      PartyStatus = "new"      // only in the target period
	ActiveParty   PartyStatus = "active"   // in both periods
	InactiveParty PartyStatus = "inactive" // only in the base period
)

// PowerDelta is the change of one party's power from the base to the target period.
// Indices of a party missing from a period count as zero.
type PowerDelta struct {
	Party         string      `json:"party"`
	Status        PartyStatus `json:"status"`
	BeforeSeats   int64       `json:"before_seats"`
	AfterSeats    int64       `json:"after_seats"`
	BeforeShapley float64     `json:"before_shapley_shubik"`
	AfterShapley  float64     `json:"after_shapley_shubik"`
	DeltaShapley  float64     `json:"delta_shapley_shubik"`
	BeforeBanzhaf float64     `json:"before_banzhaf_normalized"`
	AfterBanzhaf  float64     `json:"after_banzhaf_normalized"`
	DeltaBanzhaf  float64     `json:"delta_banzhaf_normalized"`
	BeforeMSR     float64     `json:"before_msr"`
	AfterMSR      float64     `json:"after_msr"`
	DeltaMSR      float64     `json:"delta_msr"`
}

// ComparisonSummary aggregates a comparison of two periods.
type ComparisonSummary struct {
	BasePeriod       string `json:"base_period"`
	TargetPeriod     string `json:"target_period"`
	BaseTotalSeats   int64  `json:"base_total_seats"`
	TargetTotalSeats int64  `json:"target_total_seats"`
	NewParties       int    `json:"new_parties"`
	InactiveParties  int    `json:"inactive_parties"`
	ActiveParties    int    `json:"active_parties"`
	// PowerShift is half the sum of absolute Shapley-Shubik deltas: the share of
	// power that changed hands between the two periods.
	PowerShift float64 `json:"power_shift"`
}

// ComparisonResult holds every party delta, largest Shapley-Shubik change first.
type ComparisonResult struct {
	Summary ComparisonSummary `json:"summary"`
	Deltas  []PowerDelta      `json:"deltas"`
}
