// Package outwriter has output and writer logic.
package outwriter

import (
	"os"
	"time"

	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/SebSchroeter/masterthesis/schema"
	"golang.org/x/term"
)

// OutWriter provides a unified interface for all output operations.
// It encapsulates the various output formats and provides a clean API for the core logic.
type OutWriter struct{}

// NewOutWriter creates a new instance of the output writer.
func NewOutWriter() *OutWriter {
	return &OutWriter{}
}

// WritePeriods prints the per-period results of a batch using the configured output format.
func (ow *OutWriter) WritePeriods(batch *schema.BatchResult, cfg *contract.Config, duration time.Duration) error {
	return WritePeriodResults(batch, cfg, duration)
}

// WriteCoalitions prints the classification detail of each period using the configured output format.
func (ow *OutWriter) WriteCoalitions(reports []schema.CoalitionReport, cfg *contract.Config, duration time.Duration) error {
	return WriteCoalitionReports(reports, cfg, duration)
}

// WriteComparison prints the power deltas between two periods using the configured output format.
func (ow *OutWriter) WriteComparison(result *schema.ComparisonResult, cfg *contract.Config, duration time.Duration) error {
	return WriteComparisonResult(result, cfg, duration)
}

// WriteDefinitions prints the index definitions and the active settings.
func (ow *OutWriter) WriteDefinitions(cfg *contract.Config) error {
	return PrintDefinitions(cfg)
}

// GetMaxTableLabelWidth calculates the maximum width for party labels in table output
// based on terminal width and table configuration.
func GetMaxTableLabelWidth(cfg *contract.Config) int {
	var termWidth int

	// Check for absolute width override from flag/env
	if cfg.Width > 0 {
		termWidth = cfg.Width
	}

	if termWidth == 0 { // Not set by override
		detectedWidth, _, err := term.GetSize(int(os.Stdout.Fd()))
		if err != nil || detectedWidth <= 0 {
			termWidth = 80 // Conservative default for narrow terminals and CI
		} else {
			termWidth = detectedWidth
		}
	}

	// Rank + Seats + Weight + Banzhaf + Shapley + MSR + Label with borders/padding
	baseWidth := 70

	if cfg.Detail {
		baseWidth += 35 // Swings + normalized Banzhaf + MSR range
	}

	// Calculate available space for the party label
	available := termWidth - baseWidth
	if available < 8 {
		return 8
	}
	if available > 40 {
		return 40
	}
	return available
}
