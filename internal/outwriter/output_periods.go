package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/SebSchroeter/masterthesis/internal/parquet"
	"github.com/SebSchroeter/masterthesis/schema"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WritePeriodResults outputs a batch, dispatching based on the output format configured.
func WritePeriodResults(batch *schema.BatchResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePeriodsJSON(w, batch)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePeriodsCSV(w, batch, fmtFloat, intFmt)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		if err := writeParquetFile(cfg.OutputFile, func(w io.Writer) error {
			return parquet.WritePowerRows(w, parquet.PowerRowsFromBatch(batch))
		}); err != nil {
			return fmt.Errorf("error writing Parquet output: %w", err)
		}
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writePeriodsText(w, batch, cfg, fmtFloat, intFmt, duration)
		}, "Wrote table")
	}
	return nil
}

// periodJSON replaces the plain power rows with ranked and labelled ones.
type periodJSON struct {
	schema.PeriodResult
	Power []schema.EnrichedPowerRow `json:"power,omitempty"`
}

type batchJSON struct {
	RunID    string        `json:"run_id"`
	Source   string        `json:"source"`
	Duration time.Duration `json:"duration_ns"`
	Failed   int           `json:"failed"`
	Periods  []periodJSON  `json:"periods"`
}

// writePeriodsJSON writes the batch in JSON format.
func writePeriodsJSON(w io.Writer, batch *schema.BatchResult) error {
	out := batchJSON{
		RunID:    batch.RunID,
		Source:   batch.Source,
		Duration: batch.Duration,
		Failed:   batch.Failed(),
		Periods:  make([]periodJSON, len(batch.Periods)),
	}
	for i, p := range batch.Periods {
		out.Periods[i] = periodJSON{PeriodResult: p, Power: schema.EnrichPower(p.Power)}
	}
	return writeJSON(w, out)
}

// writePeriodsCSV writes one row per ranked party. A period that did not finish
// contributes one row with its status and error and no party.
func writePeriodsCSV(w io.Writer, batch *schema.BatchResult, fmtFloat func(float64) string, intFmt string) error {
	header := []string{
		"period",
		"status",
		"rank",
		"party",
		"seats",
		"weight",
		"quota",
		"swings",
		"banzhaf",
		"banzhaf_normalized",
		"shapley_shubik",
		"msr",
		"msr_min",
		"msr_max",
		"label",
		"error",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, p := range batch.Periods {
			if !p.OK() {
				rec := make([]string, len(header))
				rec[0], rec[1], rec[len(rec)-1] = p.Period, string(p.Status), p.Error
				if err := cw.Write(rec); err != nil {
					return err
				}
				continue
			}
			quota := weightQuota(p)
			for _, r := range schema.EnrichPower(p.Power) {
				rec := []string{
					p.Period,
					string(p.Status),
					strconv.Itoa(r.Rank),
					r.Party,
					fmt.Sprintf(intFmt, r.Seats),
					fmt.Sprintf(intFmt, r.Weight),
					fmt.Sprintf(intFmt, quota),
					strconv.FormatUint(r.Swings, 10),
					fmtFloat(r.Banzhaf),
					fmtFloat(r.BanzhafNormalized),
					fmtFloat(r.ShapleyShubik),
					fmtFloat(r.MSR),
					fmtFloat(r.MSRMin),
					fmtFloat(r.MSRMax),
					r.Label,
					"",
				}
				if err := cw.Write(rec); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// writePeriodsText prints a headline and a ranked table for every period.
func writePeriodsText(w io.Writer, batch *schema.BatchResult, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	for _, p := range batch.Periods {
		if _, err := fmt.Fprintln(w, periodHeadline(p, cfg, intFmt)); err != nil {
			return err
		}
		if !p.OK() {
			if _, err := fmt.Fprintf(w, "  %s\n\n", p.Error); err != nil {
				return err
			}
			continue
		}
		if err := writePowerTable(w, p, cfg, fmtFloat, intFmt); err != nil {
			return err
		}
		if cfg.Detail {
			if err := writePeriodDetail(w, p); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprintln(w); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "Analyzed %d periods (%d failed)\n", len(batch.Periods), batch.Failed()); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "Analysis completed in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, cfg.CacheBackend); err != nil {
		return err
	}
	return nil
}

func periodHeadline(p schema.PeriodResult, cfg *contract.Config, intFmt string) string {
	status := string(p.Status)
	if cfg.UseColors {
		status = contract.GetColorStatus(p.Status)
	}
	line := fmt.Sprintf("Period %s [%s]", p.Period, status)
	if p.TotalSeats > 0 {
		line += fmt.Sprintf(" seats "+intFmt+", quota "+intFmt, p.TotalSeats, p.Quota)
	}
	if p.Weights != nil {
		line += fmt.Sprintf(" | weight quota "+intFmt+", sum "+intFmt, p.Weights.Quota, p.Weights.Sum)
	}
	if p.CacheHit {
		line += " (cached)"
	}
	if len(p.Dropped) > 0 {
		line += fmt.Sprintf(" dropped: %s", strings.Join(p.Dropped, ", "))
	}
	return line
}

func writePowerTable(w io.Writer, p schema.PeriodResult, cfg *contract.Config, fmtFloat func(float64) string, intFmt string) error {
	table := tablewriter.NewWriter(w)

	headers := []string{"Rank", "Party", "Seats", "Weight", "Banzhaf", "Shapley", "MSR", "Label"}
	if cfg.Detail {
		headers = append(headers, "Swings", "Bz Norm", "MSR Range")
	}
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	labelWidth := GetMaxTableLabelWidth(cfg)
	var data [][]string
	for _, r := range schema.EnrichPower(p.Power) {
		label := r.Label
		if cfg.UseColors {
			label = contract.GetColorLabel(r.ShapleyShubik)
		}
		row := []string{
			strconv.Itoa(r.Rank),
			contract.TruncateLabel(r.Party, labelWidth),
			fmt.Sprintf(intFmt, r.Seats),
			fmt.Sprintf(intFmt, r.Weight),
			fmtFloat(r.Banzhaf),
			fmtFloat(r.ShapleyShubik),
			fmtFloat(r.MSR),
			label,
		}
		if cfg.Detail {
			row = append(row,
				strconv.FormatUint(r.Swings, 10),
				fmtFloat(r.BanzhafNormalized),
				fmtFloat(r.MSRMin)+"-"+fmtFloat(r.MSRMax),
			)
		}
		data = append(data, row)
	}

	if err := table.Bulk(data); err != nil {
		return err
	}
	return table.Render()
}

// writePeriodDetail lists the coalition sets and the reconstructed vectors of a period.
func writePeriodDetail(w io.Writer, p schema.PeriodResult) error {
	var lines []string
	if c := p.Coalitions; c != nil {
		lines = append(lines,
			fmt.Sprintf("  Coalitions: %d (%d winning, %d losing)", c.Total, c.Winning, c.Losing),
			"  Minimal winning: "+joinOrNone(c.MinimalWinning),
			"  Maximal losing: "+joinOrNone(c.MaximalLosing),
		)
		ties := make([]string, len(c.TyingPairs))
		for i, pair := range c.TyingPairs {
			ties[i] = pair[0] + " | " + pair[1]
		}
		lines = append(lines, "  Tying pairs: "+joinOrNone(ties))
	}
	if v := p.Weights; v != nil {
		lines = append(lines, fmt.Sprintf("  Weights: %s (%s)", formatVector(v.Weights), strings.Join(p.Parties, ", ")))
		alts := make([]string, len(v.Alternates))
		for i, a := range v.Alternates {
			alts[i] = formatVector(a)
		}
		suffix := ""
		if v.AlternatesTruncated {
			suffix = " (truncated)"
		}
		lines = append(lines, "  Alternates: "+joinOrNone(alts)+suffix)
	}
	for _, l := range lines {
		if _, err := fmt.Fprintln(w, l); err != nil {
			return err
		}
	}
	return nil
}

func weightQuota(p schema.PeriodResult) int64 {
	if p.Weights == nil {
		return 0
	}
	return p.Weights.Quota
}

func formatVector(v []int64) string {
	parts := make([]string, len(v))
	for i, x := range v {
		parts[i] = strconv.FormatInt(x, 10)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
