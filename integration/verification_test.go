//go:build basic

package integration

import (
	"encoding/csv"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// analyzeOutput mirrors the parts of the JSON batch that are verified here.
type analyzeOutput struct {
	RunID   string `json:"run_id"`
	Failed  int    `json:"failed"`
	Periods []struct {
		Period     string `json:"period"`
		Status     string `json:"status"`
		TotalSeats int64  `json:"total_seats"`
		Quota      int64  `json:"quota"`
		Weights    struct {
			Weights []int64 `json:"weights"`
			Quota   int64   `json:"quota"`
			Sum     int64   `json:"sum"`
		} `json:"weights"`
		Power []struct {
			Rank          int     `json:"rank"`
			Label         string  `json:"label"`
			Party         string  `json:"party"`
			Seats         int64   `json:"seats"`
			Weight        int64   `json:"weight"`
			Banzhaf       float64 `json:"banzhaf"`
			ShapleyShubik float64 `json:"shapley_shubik"`
			MSR           float64 `json:"msr"`
		} `json:"power"`
	} `json:"periods"`
}

// TestAnalyzeVerification checks the JSON output against indices computed by hand.
func TestAnalyzeVerification(t *testing.T) {
	input := writeFixture(t)
	out, err := runWVG(t, nil, "analyze", input, "--cache-backend", "none", "--output", "json")
	require.NoError(t, err)

	var batch analyzeOutput
	require.NoError(t, json.Unmarshal([]byte(out), &batch))
	assert.NotEmpty(t, batch.RunID)
	assert.Zero(t, batch.Failed)
	require.Len(t, batch.Periods, 2)

	p := batch.Periods[0]
	assert.Equal(t, "1998", p.Period)
	assert.Equal(t, "ok", p.Status)
	assert.Equal(t, int64(6), p.TotalSeats)
	assert.Equal(t, int64(3), p.Quota)
	assert.Equal(t, []int64{2, 1, 1}, p.Weights.Weights)
	assert.Equal(t, int64(2), p.Weights.Quota)
	assert.Equal(t, int64(4), p.Weights.Sum)

	require.Len(t, p.Power, 3)
	assert.Equal(t, "A", p.Power[0].Party)
	assert.Equal(t, 1, p.Power[0].Rank)
	assert.Equal(t, "Dominant", p.Power[0].Label)
	assert.InDelta(t, 2.0/3, p.Power[0].ShapleyShubik, 1e-9)
	assert.InDelta(t, 0.75, p.Power[0].Banzhaf, 1e-9)
	assert.InDelta(t, 0.5, p.Power[0].MSR, 1e-9)
	for _, row := range p.Power[1:] {
		assert.InDelta(t, 1.0/6, row.ShapleyShubik, 1e-9)
		assert.InDelta(t, 0.25, row.Banzhaf, 1e-9)
		assert.InDelta(t, 0.25, row.MSR, 1e-9)
	}

	sym := batch.Periods[1]
	assert.Equal(t, "2002", sym.Period)
	assert.Equal(t, []int64{1, 1, 1}, sym.Weights.Weights)
	var total float64
	for _, row := range sym.Power {
		assert.InDelta(t, 1.0/3, row.ShapleyShubik, 1e-9)
		total += row.ShapleyShubik
	}
	assert.InDelta(t, 1.0, total, 1e-9)
}

// TestCoalitionsVerification checks that every subset of the roster is listed once.
func TestCoalitionsVerification(t *testing.T) {
	input := writeFixture(t)
	out, err := runWVG(t, nil, "coalitions", input, "--cache-backend", "none", "--output", "csv")
	require.NoError(t, err)

	records, err := csv.NewReader(strings.NewReader(out)).ReadAll()
	require.NoError(t, err)

	perPeriod := map[string]map[string]bool{}
	for _, rec := range records[1:] {
		if perPeriod[rec[0]] == nil {
			perPeriod[rec[0]] = map[string]bool{}
		}
		assert.False(t, perPeriod[rec[0]][rec[1]], "coalition %s listed twice in %s", rec[1], rec[0])
		perPeriod[rec[0]][rec[1]] = true
	}
	require.Len(t, perPeriod, 2)
	for period, coalitions := range perPeriod {
		assert.Len(t, coalitions, 8, "period %s should list 2^3 coalitions", period)
	}
}
