package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/SebSchroeter/masterthesis/schema"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// WriteComparisonResult outputs a period comparison, dispatching based on the output format configured.
func WriteComparisonResult(result *schema.ComparisonResult, cfg *contract.Config, duration time.Duration) error {
	fmtFloat, intFmt := createFormatters(cfg.Precision)

	switch cfg.Output {
	case schema.JSONOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, result)
		}, "Wrote JSON"); err != nil {
			return fmt.Errorf("error writing JSON output: %w", err)
		}
	case schema.CSVOut:
		if err := writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeComparisonCSV(w, result, fmtFloat, intFmt)
		}, "Wrote CSV"); err != nil {
			return fmt.Errorf("error writing CSV output: %w", err)
		}
	case schema.ParquetOut:
		return fmt.Errorf("comparisons cannot be written as %s", cfg.Output)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeComparisonTable(w, result, cfg, fmtFloat, intFmt, duration)
		}, "Wrote table")
	}
	return nil
}

func writeComparisonCSV(w io.Writer, result *schema.ComparisonResult, fmtFloat func(float64) string, intFmt string) error {
	header := []string{
		"base_period",
		"target_period",
		"party",
		"status",
		"before_seats",
		"after_seats",
		"before_shapley_shubik",
		"after_shapley_shubik",
		"delta_shapley_shubik",
		"before_banzhaf_normalized",
		"after_banzhaf_normalized",
		"delta_banzhaf_normalized",
		"before_msr",
		"after_msr",
		"delta_msr",
	}
	return writeCSVWithHeader(w, header, func(cw *csv.Writer) error {
		for _, d := range result.Deltas {
			rec := []string{
				result.Summary.BasePeriod,
				result.Summary.TargetPeriod,
				d.Party,
				string(d.Status),
				fmt.Sprintf(intFmt, d.BeforeSeats),
				fmt.Sprintf(intFmt, d.AfterSeats),
				fmtFloat(d.BeforeShapley),
				fmtFloat(d.AfterShapley),
				fmtFloat(d.DeltaShapley),
				fmtFloat(d.BeforeBanzhaf),
				fmtFloat(d.AfterBanzhaf),
				fmtFloat(d.DeltaBanzhaf),
				fmtFloat(d.BeforeMSR),
				fmtFloat(d.AfterMSR),
				fmtFloat(d.DeltaMSR),
			}
			if err := cw.Write(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

func writeComparisonTable(w io.Writer, result *schema.ComparisonResult, cfg *contract.Config, fmtFloat func(float64) string, intFmt string, duration time.Duration) error {
	s := result.Summary
	if _, err := fmt.Fprintf(w, "Period %s -> %s: seats "+intFmt+" -> "+intFmt+"\n", s.BasePeriod, s.TargetPeriod, s.BaseTotalSeats, s.TargetTotalSeats); err != nil {
		return err
	}

	table := tablewriter.NewWriter(w)
	headers := []string{"Rank", "Party", "Seats", "Before", "After", "Delta", "Status"}
	if cfg.Detail {
		headers = append(headers, "Δ Bz Norm", "Δ MSR")
	}
	table.Header(headers)
	table.Configure(func(cfg *tablewriter.Config) {
		cfg.Row.Alignment.Global = tw.AlignRight
	})

	// Rising power in green, falling in red
	var red, green, yellow func(...any) string
	if cfg.UseColors {
		red = color.New(color.FgRed).SprintFunc()
		green = color.New(color.FgGreen).SprintFunc()
		yellow = color.New(color.FgYellow).SprintFunc()
	} else {
		red = fmt.Sprint
		green = fmt.Sprint
		yellow = fmt.Sprint
	}

	labelWidth := GetMaxTableLabelWidth(cfg)
	data := make([][]string, 0, len(result.Deltas))
	for i, d := range result.Deltas {
		var deltaStr string
		switch {
		case d.DeltaShapley > 0:
			deltaStr = green(fmt.Sprintf("+%s ▲", fmtFloat(d.DeltaShapley)))
		case d.DeltaShapley < 0:
			deltaStr = red(fmt.Sprintf("%s ▼", fmtFloat(d.DeltaShapley)))
		default:
			deltaStr = yellow(fmtFloat(0))
		}
		row := []string{
			strconv.Itoa(i + 1),
			contract.TruncateLabel(d.Party, labelWidth),
			fmt.Sprintf(intFmt+" -> "+intFmt, d.BeforeSeats, d.AfterSeats),
			fmtFloat(d.BeforeShapley),
			fmtFloat(d.AfterShapley),
			deltaStr,
			string(d.Status),
		}
		if cfg.Detail {
			row = append(row, fmtFloat(d.DeltaBanzhaf), fmtFloat(d.DeltaMSR))
		}
		data = append(data, row)
	}
	if err := table.Bulk(data); err != nil {
		return err
	}
	if err := table.Render(); err != nil {
		return err
	}

	if _, err := fmt.Fprintf(w, "Power shift (Shapley-Shubik): %s\n", fmtFloat(s.PowerShift)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "New parties: %d, Inactive parties: %d, Active parties: %d\n", s.NewParties, s.InactiveParties, s.ActiveParties); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "Analysis completed in %v with %d workers. Cache backend: %s\n", duration, cfg.Workers, cfg.CacheBackend)
	return err
}
