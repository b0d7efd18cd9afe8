package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/SebSchroeter/masterthesis/schema"
	"github.com/fatih/color"
)

// Color variables for console output.
var (
	DominantColor = color.New(color.FgRed, color.Bold)     // a party holding half the power or more
	MajorColor    = color.New(color.FgMagenta, color.Bold) // a party holding a quarter or more
	MinorColor    = color.New(color.FgYellow)
	DummyColor    = color.New(color.FgCyan) // never pivotal
)

// GetColorLabel returns a colored text label for console output (table).
// It uses schema.GetPlainLabel to determine the string, and then applies the appropriate color.
func GetColorLabel(share float64) string {
	text := schema.GetPlainLabel(share)

	switch text {
	case schema.DominantValue:
		return DominantColor.Sprint(text)
	case schema.MajorValue:
		return MajorColor.Sprint(text)
	case schema.MinorValue:
		return MinorColor.Sprint(text)
	default:
		return DummyColor.Sprint(text)
	}
}

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. It falls back to os.Stdout when no path is given.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message to stderr.
func LogWarn(msg string, err error) {
	_, _ = fmt.Fprintf(os.Stderr, "Warn %s: %v\n", msg, err)
}

// GetCacheDBFilePath returns the path to the SQLite DB file for cache storage.
func GetCacheDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".wvg_cache.db"
	}
	return filepath.Join(homeDir, ".wvg_cache.db")
}

// GetAnalysisDBFilePath returns the path to the SQLite DB file for analysis storage.
func GetAnalysisDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".wvg_analysis.db"
	}
	return filepath.Join(homeDir, ".wvg_analysis.db")
}

// TruncateLabel truncates a coalition key to a maximum width with an ellipsis suffix.
// Requires maxWidth > 3 so there is room for the "..." and at least one character.
func TruncateLabel(label string, maxWidth int) string {
	runes := []rune(label)
	if len(runes) > maxWidth && maxWidth > 3 {
		return string(runes[:maxWidth-3]) + "..."
	}
	return label
}

// SplitList splits a comma-separated flag value, dropping blanks.
func SplitList(s string) []string {
	var out []string
	for part := range strings.SplitSeq(s, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}

// GetColorStatus returns a colored period status for console output.
func GetColorStatus(status schema.PeriodStatus) string {
	switch status {
	case schema.StatusOK:
		return color.GreenString(string(status))
	case schema.StatusRejected, schema.StatusNotWeighted:
		return color.YellowString(string(status))
	default:
		return color.RedString(string(status))
	}
}
