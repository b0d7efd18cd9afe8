// Package main provides a performance benchmarking tool for the wvg CLI.
// It generates seat allocation files of increasing roster size and measures
// analyze runs without a cache and with a SQLite cache, running each test multiple
// times, treating the first successful cached run as cold and averaging the rest as warm,
// generating CSV output for performance analysis and documentation.
//
// Prerequisites:
// - wvg binary installed and available in PATH
//
// Usage: go run benchmark/main.go [work-dir]
//
//	work-dir: Directory where the generated inputs and cache files are placed
package main

import (
	"encoding/csv"
	"fmt"
	"math/rand/v2"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// BenchmarkResult holds the result of a benchmark run (no-cache average, cold run and average of warm runs).
type BenchmarkResult struct {
	Roster      string
	Command     string
	NoCacheTime string
	ColdTime    string
	WarmTime    string
}

// BenchmarkConfig holds configuration for the benchmark run.
type BenchmarkConfig struct {
	WorkDir     string
	Timeout     time.Duration
	Workers     int
	NoCacheRuns int
	CacheRuns   int
	Periods     int
	RosterSizes []int
	Seed        uint64
}

func main() {
	// Parse command line arguments
	if len(os.Args) != 2 {
		fmt.Printf("Usage: %s [work-dir]\n", os.Args[0])
		os.Exit(1)
	}

	config := BenchmarkConfig{
		WorkDir:     os.Args[1],
		Timeout:     5 * time.Minute,
		Workers:     8,
		NoCacheRuns: 3,
		CacheRuns:   4,
		Periods:     12,
		RosterSizes: []int{6, 10, 14, 18},
		Seed:        1949,
	}

	if err := checkPrerequisites(config); err != nil {
		fmt.Printf("Prerequisites check failed: %v\n", err)
		os.Exit(1)
	}

	results := runBenchmarks(config)

	if err := saveResults(results); err != nil {
		fmt.Printf("Failed to save results: %v\n", err)
		os.Exit(1)
	}

	printSummary(results)
}

// checkPrerequisites verifies that the wvg binary exists and the work dir is usable
func checkPrerequisites(config BenchmarkConfig) error {
	if _, err := exec.LookPath("wvg"); err != nil {
		return fmt.Errorf("wvg binary not found in PATH")
	}
	if err := os.MkdirAll(config.WorkDir, 0o755); err != nil {
		return fmt.Errorf("cannot create work dir %s: %w", config.WorkDir, err)
	}
	return nil
}

// generateInput writes a TSV file with the given number of periods and parties.
// Seat counts are random but reproducible for a fixed seed.
func generateInput(config BenchmarkConfig, parties int) (string, error) {
	rng := rand.New(rand.NewPCG(config.Seed, uint64(parties)))
	var b strings.Builder
	b.WriteString("period\tparty\tseats\n")
	for period := range config.Periods {
		for party := range parties {
			fmt.Fprintf(&b, "%d\tP%02d\t%d\n", 1950+4*period, party, 1+rng.IntN(200))
		}
	}
	path := filepath.Join(config.WorkDir, fmt.Sprintf("roster_%d.tsv", parties))
	return path, os.WriteFile(path, []byte(b.String()), 0o644)
}

// runBenchmarks executes all benchmark tests across configured roster sizes
func runBenchmarks(config BenchmarkConfig) []BenchmarkResult {
	var results []BenchmarkResult

	fmt.Printf("Starting benchmark: %d roster sizes, %d periods, %v timeout, %d workers, no-cache: %d runs, cache: %d runs\n",
		len(config.RosterSizes), config.Periods, config.Timeout, config.Workers, config.NoCacheRuns, config.CacheRuns)

	for _, size := range config.RosterSizes {
		roster := fmt.Sprintf("%d parties", size)
		fmt.Printf("Benchmarking %s\n", roster)

		input, err := generateInput(config, size)
		if err != nil {
			fmt.Printf("Failed to generate input: %v\n", err)
			continue
		}

		results = append(results, runBenchmarkSuite(config, roster, input, "analyze", "analyze", ""))
		results = append(results, runBenchmarkSuite(config, roster, input, "coalitions", "coalitions (mwc)", "--only mwc"))
	}

	return results
}

// runBenchmarkSuite runs both no-cache and cache benchmarks for a command
func runBenchmarkSuite(config BenchmarkConfig, roster, input, command, description, extraArgs string) BenchmarkResult {
	fmt.Printf("Running %s on %s\n", description, roster)

	cacheFile := filepath.Join(config.WorkDir, fmt.Sprintf("cache_%s_%d.db", command, time.Now().UnixNano()))
	defer func() { _ = os.Remove(cacheFile) }()

	// Helper to run a benchmark phase
	runPhase := func(cacheArgs []string, numRuns int, phaseName string) (coldTime float64, avgTime string) {
		fmt.Printf("  %s phase (%d runs)\n", phaseName, numRuns)
		cold, times := runBenchmark(config, input, command, extraArgs, cacheArgs, numRuns)
		if len(times) == 0 {
			avgTime = "TIMEOUT"
		} else {
			var sum float64
			for _, t := range times {
				sum += t
			}
			avg := sum / float64(len(times))
			avgTime = fmt.Sprintf("%.3fs", avg)
		}
		return cold, avgTime
	}

	// Phase 1: No-cache runs
	_, noCacheAvg := runPhase([]string{"--cache-backend", "none"}, config.NoCacheRuns, "No-cache")

	// Phase 2: Cache runs
	coldTime, warmAvg := runPhase([]string{"--cache-backend", "sqlite", "--cache-db-connect", cacheFile}, config.CacheRuns, "Cache")

	coldTimeStr := "TIMEOUT"
	if coldTime > 0 {
		coldTimeStr = fmt.Sprintf("%.3fs", coldTime)
	}

	fmt.Printf("  No-cache average: %s, Cold time: %s, Warm average: %s\n", noCacheAvg, coldTimeStr, warmAvg)

	return BenchmarkResult{
		Roster:      roster,
		Command:     command,
		NoCacheTime: noCacheAvg,
		ColdTime:    coldTimeStr,
		WarmTime:    warmAvg,
	}
}

// runBenchmark executes a wvg command multiple times and returns cold time and warm times
func runBenchmark(config BenchmarkConfig, input, command, extraArgs string, cacheArgs []string, numRuns int) (coldTime float64, warmTimes []float64) {
	// Prepare command arguments
	args := []string{command, input, "--workers", fmt.Sprint(config.Workers), "--max-parties", "20"}
	args = append(args, cacheArgs...)
	if extraArgs != "" {
		args = append(args, parseArgs(extraArgs)...)
	}

	var times []float64
	for run := 1; run <= numRuns; run++ {
		start := time.Now()

		cmd := exec.Command("wvg", args...)
		cmd.Dir = config.WorkDir

		done := make(chan bool)
		var output []byte
		var cmdErr error

		go func() {
			output, cmdErr = cmd.CombinedOutput()
			done <- true
		}()

		select {
		case <-done:
			if cmdErr == nil && isSuccess(output, command) {
				times = append(times, time.Since(start).Seconds())
			}
		case <-time.After(config.Timeout):
			// Timeout - don't add to times
			_ = cmd.Process.Kill()
		}
	}

	if len(times) > 0 {
		coldTime = times[0]
		warmTimes = times[1:]
	}
	return
}

func parseArgs(argsStr string) []string {
	var args []string
	var current strings.Builder
	inQuotes := false

	for _, r := range argsStr {
		switch r {
		case '"':
			inQuotes = !inQuotes
		case ' ':
			if !inQuotes && current.Len() > 0 {
				args = append(args, current.String())
				current.Reset()
			} else if inQuotes {
				current.WriteRune(r)
			}
		default:
			current.WriteRune(r)
		}
	}
	if current.Len() > 0 {
		args = append(args, current.String())
	}
	return args
}

// isSuccess checks if command output indicates successful completion
func isSuccess(output []byte, command string) bool {
	outputStr := string(output)

	if command == "coalitions" {
		return strings.Contains(outputStr, "Classified") && strings.Contains(outputStr, "periods in")
	}
	return strings.Contains(outputStr, "Analysis completed in") &&
		strings.Contains(outputStr, "workers")
}

// saveResults writes benchmark results to a timestamped CSV file
func saveResults(results []BenchmarkResult) error {
	timestamp := time.Now().Format("20060102_150405")
	filename := fmt.Sprintf("/tmp/wvg_benchmark_%s.csv", timestamp)

	file, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			fmt.Printf("Warning: failed to close file %s: %v\n", filename, closeErr)
		}
	}()

	writer := csv.NewWriter(file)
	defer writer.Flush()

	// Write header
	if err := writer.Write([]string{"roster", "cmd", "no_cache_avg", "cold_time", "warm_avg"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	// Write results
	for _, result := range results {
		if err := writer.Write([]string{result.Roster, result.Command, result.NoCacheTime, result.ColdTime, result.WarmTime}); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	fmt.Printf("Results saved to %s\n", filename)
	return nil
}

// printSummary displays the final benchmark results summary
func printSummary(results []BenchmarkResult) {
	fmt.Printf("Benchmark complete\n")

	printCommandSummary(results, "analyze", "Analyze:")
	printCommandSummary(results, "coalitions", "Coalitions:")

	fmt.Printf("Benchmark script completed successfully\n")
}

// printCommandSummary displays results for a specific command type
func printCommandSummary(results []BenchmarkResult, command, title string) {
	fmt.Printf("%s\n", title)
	for _, result := range results {
		if result.Command == command {
			fmt.Printf("  %-12s: No-cache: %s, Cold: %s, Warm: %s\n", result.Roster, result.NoCacheTime, result.ColdTime, result.WarmTime)
		}
	}
}
