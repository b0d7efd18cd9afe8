package cmd

import (
	"github.com/SebSchroeter/masterthesis/core"
	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/spf13/cobra"
)

// coalitionsCmd lists the classified coalitions of every period.
var coalitionsCmd = &cobra.Command{
	Use:   "coalitions [input-file]",
	Short: "List every coalition with its seat total and classification.",
	Long: `Enumerate and classify the coalitions of each period without reconstructing weights.

Every coalition is printed with:
- Its member parties and seat total
- Whether it is winning or losing under the period quota
- Whether it is minimal winning (MWC) or maximal losing (MLC)
- Whether it takes part in a tie with a coalition of equal seat total

Use --only to restrict the listing to one of these sets.

Examples:
  # Every coalition of every period
  wvg coalitions bundestag.tsv

  # Minimal winning coalitions of one period
  wvg coalitions bundestag.tsv --period 2002 --only mwc

  # Tying coalitions as CSV
  wvg coalitions bundestag.tsv --only ties --output csv`,
	Args:    cobra.ExactArgs(1),
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteCoalitions(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot list coalitions", err)
		}
	},
}
