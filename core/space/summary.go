package space

import (
	"slices"
	"strings"

	"github.com/SebSchroeter/masterthesis/schema"
)

// Summary serializes the derived coalition sets, each list sorted by key.
func (s *Space) Summary() schema.CoalitionSummary {
	winning, losing := s.Counts()
	summary := schema.CoalitionSummary{
		Total:          s.Size(),
		Winning:        winning,
		Losing:         losing,
		MinimalWinning: s.keys(s.minimalWinning),
		MaximalLosing:  s.keys(s.maximalLosing),
	}
	for _, pair := range s.tyingPairs {
		summary.TyingPairs = append(summary.TyingPairs, [2]string{s.Key(pair[0]), s.Key(pair[1])})
	}
	slices.SortFunc(summary.TyingPairs, func(a, b [2]string) int {
		return compareKeys(a[0], b[0])
	})
	return summary
}

// Rows lists the coalitions selected by the filter with their classification flags.
// Rows of the "all" filter follow bitmask order; the others follow key order.
func (s *Space) Rows(filter schema.CoalitionFilter) []schema.CoalitionRow {
	var selected []schema.Coalition
	switch filter {
	case schema.MWCCoalitions:
		selected = s.MinimalWinning()
	case schema.MLCCoalitions:
		selected = s.MaximalLosing()
	case schema.TyingCoalitions:
		for _, pair := range s.tyingPairs {
			selected = append(selected, pair[0], pair[1])
		}
	default:
		selected = make([]schema.Coalition, 0, s.Size())
		for c := range s.All() {
			selected = append(selected, c)
		}
	}

	rows := make([]schema.CoalitionRow, 0, len(selected))
	for _, c := range selected {
		rows = append(rows, s.row(c))
	}
	if filter != schema.AllCoalitions && filter != "" {
		slices.SortStableFunc(rows, func(a, b schema.CoalitionRow) int {
			return compareKeys(a.Coalition, b.Coalition)
		})
	}
	return rows
}

func (s *Space) row(c schema.Coalition) schema.CoalitionRow {
	total := s.totals[c]
	return schema.CoalitionRow{
		Period:         s.period,
		Coalition:      s.Key(c),
		Size:           c.Size(),
		SeatTotal:      total,
		Classification: s.Classify(c),
		MinimalWinning: s.isMinimalWinning(c),
		MaximalLosing:  s.isMaximalLosing(c),
		Tying:          s.total%2 == 0 && total*2 == s.total,
	}
}

func (s *Space) keys(cs []schema.Coalition) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = s.Key(c)
	}
	slices.SortFunc(out, compareKeys)
	return out
}

// compareKeys orders coalition keys by member count, then lexicographically.
func compareKeys(a, b string) int {
	if ca, cb := countMembers(a), countMembers(b); ca != cb {
		return ca - cb
	}
	return strings.Compare(a, b)
}

func countMembers(key string) int {
	if key == "" {
		return 0
	}
	return strings.Count(key, schema.CoalitionDelimiter) + 1
}
