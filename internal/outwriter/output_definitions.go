package outwriter

import (
	"encoding/csv"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"

	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/SebSchroeter/masterthesis/schema"
)

// PrintDefinitions displays the formal definitions of all indices and the active settings.
// This is a static display that does not read any input.
func PrintDefinitions(cfg *contract.Config) error {
	model := buildDefinitionsRenderModel(cfg)

	switch cfg.Output {
	case schema.JSONOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeJSON(w, model)
		}, "Wrote JSON")
	case schema.CSVOut:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDefinitionsCSV(w, model)
		}, "Wrote CSV")
	case schema.ParquetOut:
		return fmt.Errorf("definitions cannot be written as %s", cfg.Output)
	default:
		return writeWithFile(cfg.OutputFile, func(w io.Writer) error {
			return writeDefinitionsText(w, model, cfg)
		}, "Wrote text")
	}
}

func buildDefinitionsRenderModel(cfg *contract.Config) *schema.DefinitionsRenderModel {
	return &schema.DefinitionsRenderModel{
		Title:       "Weighted Voting Game Indices",
		Description: "A coalition S wins when w(S) > q. Seats define the game; weights are its minimal-sum integer representation.",
		Indices: []schema.IndexDefinition{
			{
				Name:    "Penrose-Banzhaf",
				Column:  "banzhaf",
				Formula: "beta_i = swings_i / 2^(n-1)",
				Notes:   "swings_i counts coalitions S without i where S loses and S+i wins",
			},
			{
				Name:    "Normalized Banzhaf",
				Column:  "banzhaf_normalized",
				Formula: "beta_i / sum_j beta_j",
			},
			{
				Name:    "Shapley-Shubik",
				Column:  "shapley_shubik",
				Formula: "phi_i = sum_s P_i(s) * (s-1)!(n-s)!/n!",
				Notes:   "P_i(s) counts coalitions of size s in which i is pivotal; sums to 1",
			},
			{
				Name:    "Minimal sum representation",
				Column:  "msr",
				Formula: "m_i = w_i / sum_j w_j",
				Notes:   "msr_min and msr_max span every minimal-sum vector found",
			},
		},
		Labels: map[string]string{
			schema.DominantValue: "phi >= 0.5",
			schema.MajorValue:    "phi >= 0.25",
			schema.MinorValue:    "phi > 0",
			schema.DummyValue:    "phi = 0",
		},
		Settings: map[string]string{
			"quota":                "floor(total seats / 2) unless the input sets one",
			"solver":               string(cfg.Solver),
			"solve_timeout":        cfg.SolveTimeout.String(),
			"node_limit":           strconv.Itoa(cfg.NodeLimit),
			"msr_policy":           string(cfg.MSRPolicy),
			"alternates":           strconv.FormatBool(cfg.Alternates),
			"alternates_threshold": strconv.Itoa(cfg.AlternatesThreshold),
			"max_alternates":       strconv.Itoa(cfg.MaxAlternates),
			"max_parties":          strconv.Itoa(cfg.MaxParties),
			"precision":            strconv.Itoa(cfg.Precision),
		},
	}
}

func writeDefinitionsCSV(w io.Writer, model *schema.DefinitionsRenderModel) error {
	return writeCSVWithHeader(w, []string{"Index", "Column", "Formula", "Notes"}, func(cw *csv.Writer) error {
		for _, d := range model.Indices {
			if err := cw.Write([]string{d.Name, d.Column, d.Formula, d.Notes}); err != nil {
				return fmt.Errorf("failed to write CSV record: %w", err)
			}
		}
		return nil
	})
}

func writeDefinitionsText(w io.Writer, model *schema.DefinitionsRenderModel, cfg *contract.Config) error {
	title := model.Title
	if cfg.UseEmojis {
		title = "🧮 " + title
	}
	if _, err := fmt.Fprintf(w, "%s\n\n%s\n\n", title, model.Description); err != nil {
		return err
	}
	for _, d := range model.Indices {
		if _, err := fmt.Fprintf(w, "%s (%s)\n   %s\n", d.Name, d.Column, d.Formula); err != nil {
			return err
		}
		if d.Notes != "" {
			if _, err := fmt.Fprintf(w, "   %s\n", d.Notes); err != nil {
				return err
			}
		}
	}

	if _, err := fmt.Fprintf(w, "\nLabels (by Shapley-Shubik value):\n"); err != nil {
		return err
	}
	for _, label := range []string{schema.DominantValue, schema.MajorValue, schema.MinorValue, schema.DummyValue} {
		if _, err := fmt.Fprintf(w, "   %-9s %s\n", label, model.Labels[label]); err != nil {
			return err
		}
	}

	if _, err := fmt.Fprintf(w, "\nActive settings:\n"); err != nil {
		return err
	}
	for _, key := range slices.Sorted(maps.Keys(model.Settings)) {
		if _, err := fmt.Fprintf(w, "   %-21s %s\n", key, model.Settings[key]); err != nil {
			return err
		}
	}
	return nil
}
