package cmd

import (
	"github.com/SebSchroeter/masterthesis/core"
	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/spf13/cobra"
)

// analyzeCmd runs the full pipeline over every period of a seat allocation file.
var analyzeCmd = &cobra.Command{
	Use:   "analyze [input-file]",
	Short: "Show the voting power of every party, period by period.",
	Long: `Read a seat allocation file and analyze every period as a weighted voting game.

For each period wvg:
- Enumerates every coalition and classifies it as winning or losing
- Reconstructs minimal integer weights and quota that induce the same game
- Computes Penrose-Banzhaf and Shapley-Shubik indices on those weights
- Reports the minimal sum representation (MSR) share of each party

A coalition wins when its seat total is strictly greater than the quota. Unless the
input names a quota, the quota is half of the total seats, rounded down.

Periods that cannot be analyzed are reported with their status and do not stop the
run. Use --strict to exit non-zero when any period fails.

Examples:
  # Analyze every period of a TSV file
  wvg analyze bundestag.tsv

  # Analyze two periods and show coalition detail
  wvg analyze bundestag.tsv --period 1998,2002 --detail

  # Use glpsol instead of the built-in solver
  wvg analyze bundestag.tsv --solver glpsol --solve-timeout 10s

  # Export ranked power indices for further analysis
  wvg analyze bundestag.tsv --output parquet --output-file power.parquet`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteAnalyze(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run analysis", err)
		}
	},
}
