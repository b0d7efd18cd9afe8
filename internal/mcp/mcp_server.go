// Package mcp provides the Model Context Protocol (MCP) server implementation.
package mcp

import (
	"context"

	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// NewMCPServer initializes and configures the MCP server without starting it.
// This is exposed for unit testing.
func NewMCPServer(baseCfg *contract.Config, mgr contract.CacheManager) *server.MCPServer {
	s := server.NewMCPServer(
		"Weighted Voting Game Analysis Server",
		"1.0.0",
		server.WithLogging(),
	)

	h := &toolHandler{
		baseCfg: baseCfg,
		mgr:     mgr,
	}

	// --- 1. Tool: analyze_seats ---
	s.AddTool(mcp.NewTool("analyze_seats",
		mcp.WithDescription("Reconstruct the weighted voting game of one seat distribution and compute Banzhaf, Shapley-Shubik and minimal sum power indices."),
		mcp.WithString("seats", mcp.Description("Comma separated party:seats list, e.g. 'A:40,B:30,C:20'."), mcp.Required()),
		mcp.WithNumber("quota", mcp.Description("Seat quota a coalition must strictly exceed. Defaults to half the seats, rounded down.")),
		mcp.WithString("period", mcp.Description("Label for the period in the result. Defaults to 'inline'.")),
	), h.handleAnalyzeSeats)

	// --- 2. Tool: analyze_file ---
	s.AddTool(mcp.NewTool("analyze_file",
		mcp.WithDescription("Analyze every period of a seat allocation file (tsv, csv, yaml or json)."),
		mcp.WithString("path", mcp.Description("Path to the seat allocation file."), mcp.Required()),
		mcp.WithString("period", mcp.Description("Comma separated period labels to analyze. Defaults to all periods.")),
		mcp.WithString("format", mcp.Description("Input format. Defaults to detection by extension."), mcp.Enum("auto", "tsv", "csv", "yaml", "json")),
	), h.handleAnalyzeFile)

	// --- 3. Tool: compare_periods ---
	s.AddTool(mcp.NewTool("compare_periods",
		mcp.WithDescription("Compare the power indices of every party between two periods of a seat allocation file."),
		mcp.WithString("path", mcp.Description("Path to the seat allocation file."), mcp.Required()),
		mcp.WithString("base_period", mcp.Description("Period the comparison starts from."), mcp.Required()),
		mcp.WithString("target_period", mcp.Description("Period the comparison ends at."), mcp.Required()),
	), h.handleComparePeriods)

	return s
}

// StartMCPServer starts the MCP server on stdio.
func StartMCPServer(_ context.Context, baseCfg *contract.Config, mgr contract.CacheManager) error {
	s := NewMCPServer(baseCfg, mgr)
	return server.ServeStdio(s)
}
