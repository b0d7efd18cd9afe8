package core

import (
	"cmp"
	"slices"
	"strings"

	"github.com/SebSchroeter/masterthesis/schema"
)

// rankPower orders parties by Shapley-Shubik value, highest first, breaking ties by label.
// The input slice is left in roster order.
func rankPower(rows []schema.PowerIndexRow) []schema.PowerIndexRow {
	ranked := slices.Clone(rows)
	slices.SortStableFunc(ranked, func(a, b schema.PowerIndexRow) int {
		if c := cmp.Compare(b.ShapleyShubik, a.ShapleyShubik); c != 0 {
			return c
		}
		return strings.Compare(a.Party, b.Party)
	})
	return ranked
}
