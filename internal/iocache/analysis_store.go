package iocache

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io/fs"
	"time"

	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/SebSchroeter/masterthesis/schema"
)

// Table names for analysis tracking.
const (
	analysisRunsTable = "wvg_analysis_runs"
	powerIndicesTable = "wvg_power_indices"
)

// powerIndexColumns is the insert and select order of wvg_power_indices.
const powerIndexColumns = `analysis_id, period, party, analysis_time, period_status, seats, weight, quota,
	banzhaf, banzhaf_normalized, shapley_shubik, msr, msr_min, msr_max`

// AnalysisStoreImpl implements the AnalysisStore interface.
type AnalysisStoreImpl struct {
	db      *sql.DB
	backend schema.DatabaseBackend
}

var _ contract.AnalysisStore = &AnalysisStoreImpl{} // Compile-time check

// NewAnalysisStore creates a new AnalysisStore with the specified backend.
func NewAnalysisStore(backend schema.DatabaseBackend, connStr string) (contract.AnalysisStore, error) {
	switch backend {
	case schema.NoneBackend:
		// Return a no-op store for disabled tracking
		return &AnalysisStoreImpl{backend: backend}, nil
	case schema.SQLiteBackend, schema.MySQLBackend, schema.PostgreSQLBackend:
	default:
		return nil, fmt.Errorf("unsupported analysis backend: %s. Must be sqlite, mysql, postgresql, or none", backend)
	}

	db, err := openDB(backend, connStr, GetAnalysisDBFilePath())
	if err != nil {
		return nil, err
	}

	if err := createAnalysisTables(db, backend); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create analysis tables: %w", err)
	}

	return &AnalysisStoreImpl{db: db, backend: backend}, nil
}

// createAnalysisTables applies every embedded up migration of the backend.
// The statements are idempotent, so a store that was migrated is left alone.
func createAnalysisTables(db *sql.DB, backend schema.DatabaseBackend) error {
	files, err := fs.Glob(migrationsFS, "migrations/"+string(backend)+"/*.up.sql")
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no migrations embedded for %s", backend)
	}
	for _, name := range files { // Glob returns lexical order, which is version order
		query, err := fs.ReadFile(migrationsFS, name)
		if err != nil {
			return err
		}
		if _, err := db.Exec(string(query)); err != nil {
			return fmt.Errorf("failed to apply %s: %w", name, err)
		}
	}
	return nil
}

// BeginAnalysis creates a new analysis run and returns its unique ID.
func (as *AnalysisStoreImpl) BeginAnalysis(runUUID string, startTime time.Time, configParams map[string]any) (int64, error) {
	if as.db == nil {
		return 0, nil
	}

	configJSON, err := json.Marshal(configParams)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal config params: %w", err)
	}

	quotedTableName := quoteTableName(analysisRunsTable, as.backend)

	var analysisID int64
	switch as.backend {
	case schema.PostgreSQLBackend:
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, start_time, config_params) VALUES ($1, $2, $3) RETURNING analysis_id`, quotedTableName)
		err = as.db.QueryRow(query, runUUID, startTime, string(configJSON)).Scan(&analysisID)
	default: // SQLite and MySQL
		query := fmt.Sprintf(`INSERT INTO %s (run_uuid, start_time, config_params) VALUES (?, ?, ?)`, quotedTableName)
		var result sql.Result
		result, err = as.db.Exec(query, runUUID, formatTime(startTime, as.backend), string(configJSON))
		if err == nil {
			analysisID, err = result.LastInsertId()
		}
	}
	if err != nil {
		return 0, fmt.Errorf("failed to insert analysis run: %w", err)
	}
	return analysisID, nil
}

// EndAnalysis updates the analysis run with completion data.
func (as *AnalysisStoreImpl) EndAnalysis(analysisID int64, endTime time.Time, totalPeriods int) error {
	if as.db == nil {
		return nil
	}

	quotedTableName := quoteTableName(analysisRunsTable, as.backend)
	query := fmt.Sprintf(`SELECT start_time FROM %s WHERE analysis_id = %s`, quotedTableName, placeholder(as.backend, 1))
	startTime, err := scanTime(as.db.QueryRow(query, analysisID), as.backend)
	if err != nil {
		return fmt.Errorf("failed to get start_time for analysis %d: %w", analysisID, err)
	}

	durationMs := endTime.Sub(startTime).Milliseconds()
	updateQuery := fmt.Sprintf(`UPDATE %s SET end_time = %s, run_duration_ms = %s, total_periods_analyzed = %s WHERE analysis_id = %s`,
		quotedTableName,
		placeholder(as.backend, 1), placeholder(as.backend, 2), placeholder(as.backend, 3), placeholder(as.backend, 4))
	if _, err := as.db.Exec(updateQuery, formatTime(endTime, as.backend), durationMs, totalPeriods, analysisID); err != nil {
		return fmt.Errorf("failed to update analysis run: %w", err)
	}
	return nil
}

// RecordPeriodResult stores one row per party of the period in a single transaction.
// A period that did not finish is stored as one row with an empty party so its status survives.
func (as *AnalysisStoreImpl) RecordPeriodResult(analysisID int64, result schema.PeriodResult) error {
	if as.db == nil {
		return nil
	}

	query := fmt.Sprintf(`INSERT INTO %s (%s) VALUES (%s)`,
		quoteTableName(powerIndicesTable, as.backend), powerIndexColumns, placeholders(as.backend, 14))

	tx, err := as.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("failed to prepare power index insert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	analysisTime := formatTime(time.Now(), as.backend)
	for _, r := range periodRecords(result) {
		if _, err := stmt.Exec(
			analysisID, result.Period, r.Party, analysisTime, string(result.Status), r.Seats, r.Weight, r.Quota,
			r.Banzhaf, r.BanzhafNormalized, r.ShapleyShubik, r.MSR, r.MSRMin, r.MSRMax,
		); err != nil {
			return fmt.Errorf("failed to insert power index of %s in period %s: %w", r.Party, result.Period, err)
		}
	}
	return tx.Commit()
}

// periodRecords flattens a period into the rows RecordPeriodResult writes.
func periodRecords(result schema.PeriodResult) []schema.PowerIndexRecord {
	if !result.OK() || len(result.Power) == 0 {
		return []schema.PowerIndexRecord{{Period: result.Period, Quota: result.Quota}}
	}
	var quota int64
	if result.Weights != nil {
		quota = result.Weights.Quota
	}
	out := make([]schema.PowerIndexRecord, len(result.Power))
	for i, p := range result.Power {
		out[i] = schema.PowerIndexRecord{
			Period:            result.Period,
			Party:             p.Party,
			Seats:             p.Seats,
			Weight:            p.Weight,
			Quota:             quota,
			Banzhaf:           p.Banzhaf,
			BanzhafNormalized: p.BanzhafNormalized,
			ShapleyShubik:     p.ShapleyShubik,
			MSR:               p.MSR,
			MSRMin:            p.MSRMin,
			MSRMax:            p.MSRMax,
		}
	}
	return out
}

// Close closes the underlying connection.
func (as *AnalysisStoreImpl) Close() error {
	if as.db != nil {
		return as.db.Close()
	}
	return nil
}

// GetStatus returns status information about the analysis store.
func (as *AnalysisStoreImpl) GetStatus() (schema.AnalysisStatus, error) {
	status := schema.AnalysisStatus{
		Backend:    string(as.backend),
		Connected:  as.db != nil,
		TableSizes: make(map[string]int64),
	}
	if as.db == nil {
		return status, nil
	}

	runs := quoteTableName(analysisRunsTable, as.backend)
	if err := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", runs)).Scan(&status.TotalRuns); err != nil {
		return status, fmt.Errorf("failed to get total runs: %w", err)
	}

	if status.TotalRuns > 0 {
		row := as.db.QueryRow(fmt.Sprintf("SELECT analysis_id FROM %s ORDER BY analysis_id DESC LIMIT 1", runs))
		if err := row.Scan(&status.LastRunID); err != nil {
			return status, fmt.Errorf("failed to get last run info: %w", err)
		}
		var err error
		row = as.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY analysis_id DESC LIMIT 1", runs))
		if status.LastRunTime, err = scanTime(row, as.backend); err != nil {
			return status, fmt.Errorf("failed to get last run time: %w", err)
		}
		row = as.db.QueryRow(fmt.Sprintf("SELECT start_time FROM %s ORDER BY analysis_id ASC LIMIT 1", runs))
		if status.OldestRunTime, err = scanTime(row, as.backend); err != nil {
			return status, fmt.Errorf("failed to get oldest run time: %w", err)
		}
		row = as.db.QueryRow(fmt.Sprintf("SELECT COALESCE(SUM(total_periods_analyzed), 0) FROM %s", runs))
		if err := row.Scan(&status.TotalPeriodsAnalyzed); err != nil {
			return status, fmt.Errorf("failed to get total periods analyzed: %w", err)
		}
	}

	for _, table := range []string{analysisRunsTable, powerIndicesTable} {
		var count int64
		if err := as.db.QueryRow(fmt.Sprintf("SELECT COUNT(*) FROM %s", quoteTableName(table, as.backend))).Scan(&count); err != nil {
			return status, fmt.Errorf("failed to get count for table %s: %w", table, err)
		}
		status.TableSizes[table] = count
	}
	return status, nil
}

// GetAllAnalysisRuns retrieves all analysis runs from the store.
func (as *AnalysisStoreImpl) GetAllAnalysisRuns() ([]schema.AnalysisRunRecord, error) {
	if as.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT analysis_id, run_uuid, start_time, end_time, run_duration_ms, total_periods_analyzed, config_params
		FROM %s ORDER BY analysis_id`, quoteTableName(analysisRunsTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query analysis runs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.AnalysisRunRecord
	for rows.Next() {
		var record schema.AnalysisRunRecord
		if as.backend == schema.SQLiteBackend {
			var startTimeStr string
			var endTimeStr *string
			if err := rows.Scan(&record.AnalysisID, &record.RunUUID, &startTimeStr, &endTimeStr, &record.RunDurationMs, &record.TotalPeriodsAnalyzed, &record.ConfigParams); err != nil {
				return nil, fmt.Errorf("failed to scan analysis run: %w", err)
			}
			if record.StartTime, err = time.Parse(time.RFC3339Nano, startTimeStr); err != nil {
				return nil, fmt.Errorf("failed to parse start_time: %w", err)
			}
			if endTimeStr != nil {
				endTime, err := time.Parse(time.RFC3339Nano, *endTimeStr)
				if err != nil {
					return nil, fmt.Errorf("failed to parse end_time: %w", err)
				}
				record.EndTime = &endTime
			}
		} else if err := rows.Scan(&record.AnalysisID, &record.RunUUID, &record.StartTime, &record.EndTime, &record.RunDurationMs, &record.TotalPeriodsAnalyzed, &record.ConfigParams); err != nil {
			return nil, fmt.Errorf("failed to scan analysis run: %w", err)
		}
		results = append(results, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating analysis runs: %w", err)
	}
	return results, nil
}

// GetAllPowerIndices retrieves all tracked power index rows, ordered by run, period and party.
func (as *AnalysisStoreImpl) GetAllPowerIndices() ([]schema.PowerIndexRecord, error) {
	if as.db == nil {
		return nil, nil
	}

	query := fmt.Sprintf(`SELECT %s FROM %s ORDER BY analysis_id, period, party`,
		powerIndexColumns, quoteTableName(powerIndicesTable, as.backend))
	rows, err := as.db.Query(query)
	if err != nil {
		return nil, fmt.Errorf("failed to query power indices: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var results []schema.PowerIndexRecord
	for rows.Next() {
		var r schema.PowerIndexRecord
		var analysisTimeStr string
		var analysisTime any = &r.AnalysisTime
		if as.backend == schema.SQLiteBackend {
			analysisTime = &analysisTimeStr
		}
		if err := rows.Scan(&r.AnalysisID, &r.Period, &r.Party, analysisTime, &r.PeriodStatus, &r.Seats, &r.Weight, &r.Quota,
			&r.Banzhaf, &r.BanzhafNormalized, &r.ShapleyShubik, &r.MSR, &r.MSRMin, &r.MSRMax); err != nil {
			return nil, fmt.Errorf("failed to scan power index: %w", err)
		}
		if as.backend == schema.SQLiteBackend {
			if r.AnalysisTime, err = time.Parse(time.RFC3339Nano, analysisTimeStr); err != nil {
				return nil, fmt.Errorf("failed to parse analysis_time: %w", err)
			}
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating power indices: %w", err)
	}
	return results, nil
}

// formatTime converts a time.Time to the appropriate format for the backend.
func formatTime(t time.Time, backend schema.DatabaseBackend) any {
	if backend == schema.SQLiteBackend {
		return t.UTC().Format(time.RFC3339Nano)
	}
	return t
}

// scanTime reads a single time column, parsing the SQLite text encoding.
func scanTime(row *sql.Row, backend schema.DatabaseBackend) (time.Time, error) {
	if backend != schema.SQLiteBackend {
		var t time.Time
		err := row.Scan(&t)
		return t, err
	}
	var s string
	if err := row.Scan(&s); err != nil {
		return time.Time{}, err
	}
	return time.Parse(time.RFC3339Nano, s)
}
