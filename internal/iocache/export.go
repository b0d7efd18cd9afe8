package iocache

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/SebSchroeter/masterthesis/internal/parquet"
)

// ExecuteAnalysisExport exports the global analysis store to two Parquet files
// named after outputFile.
func ExecuteAnalysisExport(outputFile string) error {
	return exportAnalysis(os.Stdout, Manager.GetAnalysisStore(), outputFile)
}

func exportAnalysis(out io.Writer, store contract.AnalysisStore, outputFile string) error {
	if outputFile == "" {
		return errors.New("--output-file is required for export command")
	}
	if store == nil {
		return errors.New("analysis tracking is not configured")
	}

	status, err := store.GetStatus()
	if err != nil {
		return fmt.Errorf("failed to get analysis status: %w", err)
	}
	if status.TotalRuns == 0 {
		return errors.New("no analysis data found to export")
	}

	_, _ = fmt.Fprintf(out, "Exporting data from %s backend...\n", status.Backend)
	_, _ = fmt.Fprintf(out, "Total analysis runs: %d\n", status.TotalRuns)
	_, _ = fmt.Fprintf(out, "Total power index records: %d\n", status.TableSizes[powerIndicesTable])

	analysisRuns, err := store.GetAllAnalysisRuns()
	if err != nil {
		return fmt.Errorf("failed to retrieve analysis runs: %w", err)
	}
	powerIndices, err := store.GetAllPowerIndices()
	if err != nil {
		return fmt.Errorf("failed to retrieve power indices: %w", err)
	}

	runs := parquet.ConvertAnalysisRunRecords(analysisRuns)
	runsFile := outputFile + ".analysis_runs.parquet"
	if err := parquet.WriteAnalysisRunsParquet(runs, runsFile); err != nil {
		return fmt.Errorf("failed to write analysis runs: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Exported %d analysis runs to: %s\n", len(runs), runsFile)

	indices := parquet.ConvertPowerIndexRecords(powerIndices)
	indicesFile := outputFile + ".power_indices.parquet"
	if err := parquet.WritePowerIndicesParquet(indices, indicesFile); err != nil {
		return fmt.Errorf("failed to write power indices: %w", err)
	}
	_, _ = fmt.Fprintf(out, "Exported %d power index records to: %s\n", len(indices), indicesFile)
	return nil
}
