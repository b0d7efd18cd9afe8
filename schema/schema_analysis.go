package schema

import "time"

// CoalitionSummary holds the derived coalition sets of a period, serialized by label.
type CoalitionSummary struct {
	Total          int         `json:"total"`
	Winning        int         `json:"winning"`
	Losing         int         `json:"losing"`
	MinimalWinning []string    `json:"minimal_winning"`
	MaximalLosing  []string    `json:"maximal_losing"`
	TyingPairs     [][2]string `json:"tying_pairs,omitempty"`
}

// WeightVector is a reconstructed weighted voting game: integer weights in roster
// order plus the quota a coalition weight must strictly exceed to win.
type WeightVector struct {
	Weights             []int64   `json:"weights"`
	Quota               int64     `json:"quota"`
	Sum                 int64     `json:"sum"`
	Alternates          [][]int64 `json:"alternates,omitempty"` // other minimal-sum vectors
	AlternatesTruncated bool      `json:"alternates_truncated,omitempty"`
}

// PowerIndexRow holds the power indices of one party in one period.
type PowerIndexRow struct {
	Period            string  `json:"period"`
	Party             string  `json:"party"`
	Seats             int64   `json:"seats"`
	Weight            int64   `json:"weight"`
	Swings            uint64  `json:"swings"`
	Banzhaf           float64 `json:"banzhaf"`
	BanzhafNormalized float64 `json:"banzhaf_normalized"`
	ShapleyShubik     float64 `json:"shapley_shubik"`
	MSR               float64 `json:"msr"`
	MSRMin            float64 `json:"msr_min"`
	MSRMax            float64 `json:"msr_max"`
}

// PeriodResult is the immutable outcome of analyzing one period.
type PeriodResult struct {
	Period     string            `json:"period"`
	Status     PeriodStatus      `json:"status"`
	Error      string            `json:"error,omitempty"`
	Parties    []string          `json:"parties"`
	Seats      []int64           `json:"seats"`
	TotalSeats int64             `json:"total_seats"`
	Quota      int64             `json:"quota"`
	Dropped    []string          `json:"dropped,omitempty"`
	Coalitions *CoalitionSummary `json:"coalitions,omitempty"`
	Weights    *WeightVector     `json:"weights,omitempty"`
	Power      []PowerIndexRow   `json:"power,omitempty"`
	CacheHit   bool              `json:"cache_hit"`
	Duration   time.Duration     `json:"duration_ns"`
}

// OK reports whether every stage of the period succeeded.
func (r PeriodResult) OK() bool {
	return r.Status == StatusOK
}

// BatchResult is the outcome of one run over all ingested periods.
type BatchResult struct {
	RunID    string         `json:"run_id"`
	Source   string         `json:"source"`
	Periods  []PeriodResult `json:"periods"`
	Duration time.Duration  `json:"duration_ns"`
}

// Failed returns the number of periods that did not finish with StatusOK.
func (b BatchResult) Failed() int {
	n := 0
	for _, p := range b.Periods {
		if !p.OK() {
			n++
		}
	}
	return n
}

// CoalitionRow is one coalition of a period with its classification flags.
type CoalitionRow struct {
	Period         string         `json:"period"`
	Coalition      string         `json:"coalition"`
	Size           int            `json:"size"`
	SeatTotal      int64          `json:"seat_total"`
	Classification Classification `json:"classification"`
	MinimalWinning bool           `json:"minimal_winning"`
	MaximalLosing  bool           `json:"maximal_losing"`
	Tying          bool           `json:"tying"`
}

// CoalitionReport is the classification detail of one period.
type CoalitionReport struct {
	Period  string            `json:"period"`
	Quota   int64             `json:"quota"`
	Total   int64             `json:"total_seats"`
	Summary *CoalitionSummary `json:"summary,omitempty"`
	Rows    []CoalitionRow    `json:"coalitions,omitempty"`
	Error   string            `json:"error,omitempty"`
}
