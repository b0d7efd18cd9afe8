package game

import (
	"strconv"
	"strings"

	"github.com/SebSchroeter/masterthesis/core/space"
	"github.com/SebSchroeter/masterthesis/schema"
)

// constraint is an integer row coeffs·w >= lower.
type constraint struct {
	coeffs []int64
	lower  int64
}

func (c constraint) key() string {
	var sb strings.Builder
	for _, v := range c.coeffs {
		sb.WriteString(strconv.FormatInt(v, 10))
		sb.WriteByte(',')
	}
	sb.WriteString(strconv.FormatInt(c.lower, 10))
	return sb.String()
}

func (c constraint) holds(w []int64) bool {
	var lhs int64
	for j, a := range c.coeffs {
		lhs += a * w[j]
	}
	return lhs >= c.lower
}

func (c constraint) row() schema.MILPRow {
	coeffs := make([]float64, len(c.coeffs))
	for j, v := range c.coeffs {
		coeffs[j] = float64(v)
	}
	return schema.MILPRow{Coeffs: coeffs, Lower: float64(c.lower)}
}

// buildConstraints emits one dominance row per (minimal winning, maximal losing) pair
// and, for majority periods, two opposing rows per tying pair. Duplicates are skipped.
//
// Dominance: w(S \ R) - w(R \ S) >= 1, the shared members cancel.
// Tie: w(T) - w(N \ T) = 0. Under another quota both sides of a tie share their
// classification, so equal weights are not required.
func buildConstraints(sp *space.Space) []constraint {
	n := sp.N()
	seen := make(map[string]struct{})
	var out []constraint
	add := func(c constraint) {
		k := c.key()
		if _, dup := seen[k]; dup {
			return
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}

	losing := sp.MaximalLosing()
	for _, s := range sp.MinimalWinning() {
		for _, r := range losing {
			add(constraint{coeffs: difference(n, s, r), lower: 1})
		}
	}
	if !sp.Majority() {
		return out
	}
	for _, pair := range sp.TyingPairs() {
		forward := difference(n, pair[0], pair[1])
		backward := difference(n, pair[1], pair[0])
		add(constraint{coeffs: forward, lower: 0})
		add(constraint{coeffs: backward, lower: 0})
	}
	return out
}

// difference returns the coefficients of w(a \ b) - w(b \ a).
func difference(n int, a, b schema.Coalition) []int64 {
	coeffs := make([]int64, n)
	for i := range n {
		switch {
		case a.Has(i) && !b.Has(i):
			coeffs[i] = 1
		case b.Has(i) && !a.Has(i):
			coeffs[i] = -1
		}
	}
	return coeffs
}

func toRows(cs []constraint) []schema.MILPRow {
	rows := make([]schema.MILPRow, len(cs))
	for i, c := range cs {
		rows[i] = c.row()
	}
	return rows
}

func satisfiesAll(cs []constraint, w []int64) bool {
	for _, c := range cs {
		if !c.holds(w) {
			return false
		}
	}
	return true
}
