// Package parquet provides data structures and functions for exporting weighted voting
// game analyses to Parquet files using github.com/parquet-go/parquet-go.
package parquet

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/SebSchroeter/masterthesis/schema"
	"github.com/parquet-go/parquet-go"
)

// AnalysisRun represents a single tracked analysis run with metadata.
// This struct maps to the wvg_analysis_runs database table.
type AnalysisRun struct {
	// AnalysisID is the unique identifier for this analysis run
	AnalysisID int64 `parquet:"analysis_id,snappy"`

	// RunUUID is the run identifier shown in JSON output
	RunUUID string `parquet:"run_uuid,snappy"`

	// StartTime is when the analysis began (stored as TIMESTAMP with nanosecond precision)
	StartTime time.Time `parquet:"start_time,snappy"`

	// EndTime is when the analysis completed (nullable)
	EndTime *time.Time `parquet:"end_time,optional,snappy"`

	// RunDurationMs is the duration of the analysis run in milliseconds (nullable)
	RunDurationMs *int32 `parquet:"run_duration_ms,optional,snappy"`

	// TotalPeriodsAnalyzed is the number of periods analyzed in this run
	TotalPeriodsAnalyzed int32 `parquet:"total_periods_analyzed,snappy"`

	// ConfigParams contains the JSON-encoded configuration parameters (nullable)
	ConfigParams *string `parquet:"config_params,optional,snappy"`
}

// PowerIndex represents the indices of one party in one tracked period.
// This struct maps to the wvg_power_indices database table.
type PowerIndex struct {
	AnalysisID        int64     `parquet:"analysis_id,snappy"`
	Period            string    `parquet:"period,snappy"`
	Party             string    `parquet:"party,snappy"`
	AnalysisTime      time.Time `parquet:"analysis_time,snappy"`
	PeriodStatus      string    `parquet:"period_status,snappy"`
	Seats             int64     `parquet:"seats,snappy"`
	Weight            int64     `parquet:"weight,snappy"`
	Quota             int64     `parquet:"quota,snappy"`
	Banzhaf           float64   `parquet:"banzhaf,snappy"`
	BanzhafNormalized float64   `parquet:"banzhaf_normalized,snappy"`
	ShapleyShubik     float64   `parquet:"shapley_shubik,snappy"`
	MSR               float64   `parquet:"msr,snappy"`
	MSRMin            float64   `parquet:"msr_min,snappy"`
	MSRMax            float64   `parquet:"msr_max,snappy"`
}

// PowerRow is one ranked party of an analyze run, written by --output parquet.
// Periods that did not finish contribute a single row with an empty party and their error.
type PowerRow struct {
	RunID             string  `parquet:"run_id,snappy"`
	Period            string  `parquet:"period,snappy"`
	Status            string  `parquet:"status,snappy"`
	Error             *string `parquet:"error,optional,snappy"`
	Rank              int32   `parquet:"rank,snappy"`
	Party             string  `parquet:"party,snappy"`
	Label             string  `parquet:"label,snappy"`
	Seats             int64   `parquet:"seats,snappy"`
	TotalSeats        int64   `parquet:"total_seats,snappy"`
	Weight            int64   `parquet:"weight,snappy"`
	Quota             int64   `parquet:"quota,snappy"`
	Swings            int64   `parquet:"swings,snappy"`
	Banzhaf           float64 `parquet:"banzhaf,snappy"`
	BanzhafNormalized float64 `parquet:"banzhaf_normalized,snappy"`
	ShapleyShubik     float64 `parquet:"shapley_shubik,snappy"`
	MSR               float64 `parquet:"msr,snappy"`
	MSRMin            float64 `parquet:"msr_min,snappy"`
	MSRMax            float64 `parquet:"msr_max,snappy"`
}

// CoalitionRecord is one classified coalition, written by the coalitions command.
type CoalitionRecord struct {
	Period         string `parquet:"period,snappy"`
	Coalition      string `parquet:"coalition,snappy"`
	Size           int32  `parquet:"size,snappy"`
	SeatTotal      int64  `parquet:"seat_total,snappy"`
	Quota          int64  `parquet:"quota,snappy"`
	Classification string `parquet:"classification,snappy"`
	MinimalWinning bool   `parquet:"minimal_winning,snappy"`
	MaximalLosing  bool   `parquet:"maximal_losing,snappy"`
	Tying          bool   `parquet:"tying,snappy"`
}

// WriteAnalysisRunsParquet writes a slice of AnalysisRun structs to a Parquet file.
func WriteAnalysisRunsParquet(data []AnalysisRun, outputPath string) error {
	return writeFile(data, outputPath)
}

// WritePowerIndicesParquet writes a slice of PowerIndex structs to a Parquet file.
func WritePowerIndicesParquet(data []PowerIndex, outputPath string) error {
	return writeFile(data, outputPath)
}

// WritePowerRows writes ranked power rows to w.
func WritePowerRows(w io.Writer, data []PowerRow) error {
	return write(w, data)
}

// WriteCoalitionRecords writes classified coalitions to w.
func WriteCoalitionRecords(w io.Writer, data []CoalitionRecord) error {
	return write(w, data)
}

func writeFile[T any](data []T, outputPath string) error {
	// Create the output file
	file, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer func() { _ = file.Close() }()
	return write(file, data)
}

// write infers the schema from the struct tags of T.
func write[T any](w io.Writer, data []T) error {
	writer := parquet.NewGenericWriter[T](w)
	if _, err := writer.Write(data); err != nil {
		_ = writer.Close()
		return fmt.Errorf("failed to write data to parquet file: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to finalize parquet file: %w", err)
	}
	return nil
}

// ConvertAnalysisRunRecords converts schema.AnalysisRunRecord to AnalysisRun for Parquet export.
func ConvertAnalysisRunRecords(records []schema.AnalysisRunRecord) []AnalysisRun {
	result := make([]AnalysisRun, len(records))
	for i, record := range records {
		result[i] = AnalysisRun{
			AnalysisID:           record.AnalysisID,
			RunUUID:              record.RunUUID,
			StartTime:            record.StartTime,
			EndTime:              record.EndTime,
			RunDurationMs:        record.RunDurationMs,
			TotalPeriodsAnalyzed: record.TotalPeriodsAnalyzed,
			ConfigParams:         record.ConfigParams,
		}
	}
	return result
}

// ConvertPowerIndexRecords converts schema.PowerIndexRecord to PowerIndex for Parquet export.
func ConvertPowerIndexRecords(records []schema.PowerIndexRecord) []PowerIndex {
	result := make([]PowerIndex, len(records))
	for i, r := range records {
		result[i] = PowerIndex{
			AnalysisID:        r.AnalysisID,
			Period:            r.Period,
			Party:             r.Party,
			AnalysisTime:      r.AnalysisTime,
			PeriodStatus:      r.PeriodStatus,
			Seats:             r.Seats,
			Weight:            r.Weight,
			Quota:             r.Quota,
			Banzhaf:           r.Banzhaf,
			BanzhafNormalized: r.BanzhafNormalized,
			ShapleyShubik:     r.ShapleyShubik,
			MSR:               r.MSR,
			MSRMin:            r.MSRMin,
			MSRMax:            r.MSRMax,
		}
	}
	return result
}

// PowerRowsFromBatch flattens a batch into one row per ranked party.
func PowerRowsFromBatch(batch *schema.BatchResult) []PowerRow {
	var rows []PowerRow
	for _, p := range batch.Periods {
		if !p.OK() {
			msg := p.Error
			rows = append(rows, PowerRow{
				RunID:      batch.RunID,
				Period:     p.Period,
				Status:     string(p.Status),
				Error:      &msg,
				TotalSeats: p.TotalSeats,
				Quota:      p.Quota,
			})
			continue
		}
		var quota int64
		if p.Weights != nil {
			quota = p.Weights.Quota
		}
		for _, r := range schema.EnrichPower(p.Power) {
			rows = append(rows, PowerRow{
				RunID:             batch.RunID,
				Period:            p.Period,
				Status:            string(p.Status),
				Rank:              int32(r.Rank),
				Party:             r.Party,
				Label:             r.Label,
				Seats:             r.Seats,
				TotalSeats:        p.TotalSeats,
				Weight:            r.Weight,
				Quota:             quota,
				Swings:            int64(min(r.Swings, 1<<63-1)),
				Banzhaf:           r.Banzhaf,
				BanzhafNormalized: r.BanzhafNormalized,
				ShapleyShubik:     r.ShapleyShubik,
				MSR:               r.MSR,
				MSRMin:            r.MSRMin,
				MSRMax:            r.MSRMax,
			})
		}
	}
	return rows
}

// CoalitionRecordsFromReports flattens coalition reports; failed periods are skipped.
func CoalitionRecordsFromReports(reports []schema.CoalitionReport) []CoalitionRecord {
	var out []CoalitionRecord
	for _, rep := range reports {
		for _, r := range rep.Rows {
			out = append(out, CoalitionRecord{
				Period:         r.Period,
				Coalition:      r.Coalition,
				Size:           int32(r.Size),
				SeatTotal:      r.SeatTotal,
				Quota:          rep.Quota,
				Classification: string(r.Classification),
				MinimalWinning: r.MinimalWinning,
				MaximalLosing:  r.MaximalLosing,
				Tying:          r.Tying,
			})
		}
	}
	return out
}
