package cmd

import (
	"github.com/SebSchroeter/masterthesis/internal/mcp"
	"github.com/spf13/cobra"
)

// mcpCmd represents the mcp command.
var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Start the wvg MCP server",
	Long: `Launch an MCP server on stdio that lets AI agents analyze seat allocations.

Tools:
  analyze_seats - analyze an inline roster such as "A:40,B:35,C:25"
  analyze_file  - analyze every period of a seat allocation file

Flags given to this command become the defaults of every tool call.`,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		// Suppress the normal header logs when running in MCP mode
		// to avoid polluting stdio which is used for the protocol.
		return sharedSetup(rootCtx, cmd, args)
	},
	RunE: func(_ *cobra.Command, _ []string) error {
		return mcp.StartMCPServer(rootCtx, cfg, cacheManager)
	},
}

func init() {
	rootCmd.AddCommand(mcpCmd)
}
