//go:build basic

package integration

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersion(t *testing.T) {
	out, err := runWVG(t, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "wvg CLI")
	assert.Contains(t, out, "Runtime:")
}

func TestDefinitions(t *testing.T) {
	out, err := runWVG(t, nil, "definitions", "--cache-backend", "none", "--solver", "local")
	require.NoError(t, err)
	assert.Contains(t, out, "Penrose-Banzhaf")
	assert.Contains(t, out, "Shapley-Shubik")
	assert.Contains(t, out, "msr_policy")
}

func TestAnalyzeText(t *testing.T) {
	input := writeFixture(t)
	out, err := runWVG(t, nil, "analyze", input, "--cache-backend", "none", "--color", "no")
	require.NoError(t, err)
	assert.Contains(t, out, "Period 1998")
	assert.Contains(t, out, "Period 2002")
	assert.Contains(t, out, "Analyzed 2 periods (0 failed)")
}

func TestAnalyzeCSVWithPeriodFilter(t *testing.T) {
	input := writeFixture(t)
	out, err := runWVG(t, nil, "analyze", input, "--cache-backend", "none", "--output", "csv", "--period", "2002")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4) // header plus three parties
	assert.Equal(t, "period", records[0][0])
	for _, rec := range records[1:] {
		assert.Equal(t, "2002", rec[0])
		assert.Equal(t, "ok", rec[1])
	}
}

func TestAnalyzeRequiresInput(t *testing.T) {
	_, err := runWVG(t, nil, "analyze", "--cache-backend", "none")
	require.Error(t, err)
}

func TestAnalyzeStrictFailsOnRejectedPeriod(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dup.tsv")
	content := "period\tparty\tseats\n1998\tA\t3\n1998\tA\t2\n2002\tA\t2\n2002\tB\t1\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	_, err := runWVG(t, nil, "analyze", path, "--cache-backend", "none")
	require.NoError(t, err, "a rejected period alone does not fail the run")

	_, err = runWVG(t, nil, "analyze", path, "--cache-backend", "none", "--strict")
	require.Error(t, err)
}

func TestCoalitionsOnlyMWC(t *testing.T) {
	input := writeFixture(t)
	out, err := runWVG(t, nil, "coalitions", input, "--cache-backend", "none", "--period", "1998", "--only", "mwc", "--output", "csv")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	// A+B and A+C are the minimal winning coalitions of 1998.
	require.Len(t, records, 3)
	for _, rec := range records[1:] {
		assert.Equal(t, "winning", rec[5])
		assert.Equal(t, "true", rec[6])
	}
}

func TestComparePeriods(t *testing.T) {
	input := writeFixture(t)
	out, err := runWVG(t, nil, "compare", input, "--cache-backend", "none", "--base-period", "1998", "--target-period", "2002", "--output", "csv")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4)
	assert.Equal(t, "party", records[0][2])
	// A loses the most Shapley-Shubik power when the seats even out.
	assert.Equal(t, []string{"1998", "2002", "A", "active", "3", "2"}, records[1][:6])

	_, err = runWVG(t, nil, "compare", input, "--cache-backend", "none", "--base-period", "1998")
	assert.Error(t, err)
}

func TestSQLiteCacheAndAnalysisTracking(t *testing.T) {
	input := writeFixture(t)
	dir := t.TempDir()
	env := []string{
		"WVG_CACHE_BACKEND=sqlite",
		"WVG_CACHE_DB_CONNECT=" + filepath.Join(dir, "cache.db"),
		"WVG_ANALYSIS_BACKEND=sqlite",
		"WVG_ANALYSIS_DB_CONNECT=" + filepath.Join(dir, "analysis.db"),
	}

	_, err := runWVG(t, env, "analyze", input)
	require.NoError(t, err)

	out, err := runWVG(t, env, "analyze", input, "--output", "json")
	require.NoError(t, err)
	assert.Contains(t, out, `"cache_hit": true`)

	out, err = runWVG(t, env, "cache", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "sqlite")

	out, err = runWVG(t, env, "analysis", "status")
	require.NoError(t, err)
	assert.Contains(t, out, "Total Periods Analyzed")

	prefix := filepath.Join(dir, "export")
	_, err = runWVG(t, env, "analysis", "export", "--output-file", prefix)
	require.NoError(t, err)
	assert.FileExists(t, prefix+".analysis_runs.parquet")
	assert.FileExists(t, prefix+".power_indices.parquet")

	_, err = runWVG(t, env, "analysis", "migrate")
	require.NoError(t, err)

	_, err = runWVG(t, env, "cache", "clear")
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "cache.db"))

	_, err = runWVG(t, env, "analysis", "clear")
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "analysis.db"))
}
