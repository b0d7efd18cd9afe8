package schema

import "time"

// AnalysisRunRecord represents a row from the wvg_analysis_runs table.
type AnalysisRunRecord struct {
	AnalysisID           int64
	RunUUID              string
	StartTime            time.Time
	EndTime              *time.Time
	RunDurationMs        *int32
	TotalPeriodsAnalyzed int32
	ConfigParams         *string
}

// PowerIndexRecord represents a row from the wvg_power_indices table.
type PowerIndexRecord struct {
	AnalysisID        int64
	Period            string
	Party             string
	AnalysisTime      time.Time
	PeriodStatus      string
	Seats             int64
	Weight            int64
	Quota             int64
	Banzhaf           float64
	BanzhafNormalized float64
	ShapleyShubik     float64
	MSR               float64
	MSRMin            float64
	MSRMax            float64
}
