package cmd

import (
	"github.com/SebSchroeter/masterthesis/core"
	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/spf13/cobra"
)

// compareCmd compares the power of every party between two periods.
var compareCmd = &cobra.Command{
	Use:   "compare [input-file]",
	Short: "Show how voting power moved between two periods.",
	Long: `Analyze a base and a target period and compare the power of every party.

Parties are matched by label:
- active:   holds seats in both periods
- new:      holds seats only in the target period
- inactive: holds seats only in the base period

Rows are ranked by the absolute change of the Shapley-Shubik index. The power
shift summary is half the sum of those changes, the share of power that changed hands.

Examples:
  # Compare two legislative periods
  wvg compare bundestag.tsv --base-period 1998 --target-period 2002

  # Include normalized Banzhaf and MSR deltas
  wvg compare bundestag.tsv --base-period 1998 --target-period 2002 --detail

  # Export the deltas as CSV
  wvg compare bundestag.tsv --base-period 1998 --target-period 2002 --output csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCompare(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot run comparison", err)
		}
	},
}
