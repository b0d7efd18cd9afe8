package contract

import (
	"fmt"
	"path/filepath"
)

// LogAnalysisHeader prints a concise, 2-line header for an analysis run.
func LogAnalysisHeader(cfg *Config, periods int) {
	source := filepath.Base(cfg.InputPath)
	if source == "" || source == "." {
		source = "inline"
	}
	if cfg.UseEmojis {
		fmt.Printf("🗳️  Input: %s (%d periods)\n", source, periods)
		fmt.Printf("🧮 Solver: %s (timeout %s, %d workers)\n", cfg.Solver, cfg.SolveTimeout, cfg.Workers)
		return
	}
	fmt.Printf("Input: %s (%d periods)\n", source, periods)
	fmt.Printf("Solver: %s (timeout %s, %d workers)\n", cfg.Solver, cfg.SolveTimeout, cfg.Workers)
}
