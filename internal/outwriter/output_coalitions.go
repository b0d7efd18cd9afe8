package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/SebSchroeter/masterthesis/internal/parquet"
	"github.com/SebSchroeter/masterthesis/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteCoalitionReports outputs coalition reports, dispatching based on the output format configured.
func WriteCoalitionReports(reports []schema.CoalitionReport, cfg *contract.Config, duration time.Duration) error {
	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, reports)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCoalitionsCSV(w, reports)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeParquetFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.WriteCoalitionRecords(w, parquet.CoalitionRecordsFromReports(reports))
		}); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeCoalitionsText(w, reports, cfg, duration)
		}, "Wrote table")
	}
	return nil
}

func writeCoalitionsCSV(w io.Writer, reports []schema.CoalitionReport) error {
	header := []string{"period", "coalition", "size", "seat_total", "quota", "classification", "minimal_winning", "maximal_losing", "tying"}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, rep := range reports {
			for _, r := range rep.Rows {
				rec := []string{
					r.Period,
					r.Coalition,
					strconv.Itoa(r.Size),
					strconv.FormatInt(r.SeatTotal, 10),
					strconv.FormatInt(rep.Quota, 10),
					string(r.Classification),
					strconv.FormatBool(r.MinimalWinning),
					strconv.FormatBool(r.MaximalLosing),
					strconv.FormatBool(r.Tying),
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

func writeCoalitionsText(w io.Writer, reports []schema.CoalitionReport, cfg *contract.Config, duration time.Duration) error {
	keyWidth := max(GetMaxTableLabelWidth(cfg)*2, 16)
	for _, rep := range reports {
		if rep.Error != "" {
			if _, err := fmt.Fprintf(w, "Period %s: %s\n\n", rep.Period, rep.Error); err != nil {
				return err
			}
			continue
		}
		headline := fmt.Sprintf("Period %s: %d seats, quota %d", rep.Period, rep.Total, rep.Quota)
		if s := rep.Summary; s != nil {
			headline += fmt.Sprintf(" (%d coalitions, %d winning, %d losing, %d tying pairs)", s.Total, s.Winning, s.Losing, len(s.TyingPairs))
		}
		if _, err := fmt.Fprintln(w, headline); err != nil {
			return err
		}

		table := tablewriter.NewWriter(w)
		table.Header([]string{"Coalition", "Size", "Seats", "Class", "MWC", "MLC", "Tie"})
		table.Configure(func(cfg *tablewriter.Config) {
			cfg.Row.Alignment.Global = tw.AlignRight
		})
		data := make([][]string, 0, len(rep.Rows))
		for _, r := range rep.Rows {
			data = append(data, []string{
				contract.TruncateLabel(r.Coalition, keyWidth),
				strconv.Itoa(r.Size),
				strconv.FormatInt(r.SeatTotal, 10),
				string(r.Classification),
				mark(r.MinimalWinning),
				mark(r.MaximalLosing),
				mark(r.Tying),
			})
		}
		if err := table.Bulk(data); err != nil {
			return err
		}
		if err := table.Render(); err != nil {
			return err
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "Classified %d periods in %v (filter: %s)\n", len(reports), duration, cfg.Only)
	return err
}

func mark(b bool) string {
	if b {
		return "x"
	}
	return ""
}
