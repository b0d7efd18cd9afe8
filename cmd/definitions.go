package cmd

import (
	"github.com/SebSchroeter/masterthesis/core"
	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/spf13/cobra"
)

// definitionsCmd displays the formal definitions of all power indices.
var definitionsCmd = &cobra.Command{
	Use:   "definitions",
	Short: "Display the formulas behind every power index",
	Long: `Show the formal definitions of the indices reported by wvg, the labels derived
from them and the settings that are active for the next run.

No input is read - this is purely informational.

Examples:
  # Show the definitions
  wvg definitions

  # Check which solver settings a config file selects
  wvg definitions --config .wvg.yaml`,
	PreRunE: sharedSetupWrapper,
	Run: func(_ *cobra.Command, _ []string) {
		if err := core.ExecuteDefinitions(rootCtx, cfg, cacheManager); err != nil {
			contract.LogFatal("Cannot display definitions", err)
		}
	},
}
