package game

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"github.com/SebSchroeter/masterthesis/core/space"
	"github.com/SebSchroeter/masterthesis/schema"
)

// enumerateAlternates walks the closure of the primary vector under single-unit
// transfers between ordered pairs of parties. A neighbour is kept when it satisfies the
// constraint system and keeps the quota separating maximal losing from minimal winning
// coalitions. Transfers preserve the sum, so every kept vector is minimal as well.
// Hitting the limit or the context deadline returns the vectors found so far as truncated.
func enumerateAlternates(ctx context.Context, sp *space.Space, cs []constraint, primary []int64, quota int64, limit int) ([][]int64, bool) {
	winning := sp.MinimalWinning()
	losing := sp.MaximalLosing()

	seen := map[string]struct{}{vectorKey(primary): {}}
	queue := [][]int64{primary}
	var found [][]int64

	for len(queue) > 0 {
		if ctx.Err() != nil {
			return found, true
		}
		current := queue[0]
		queue = queue[1:]

		for from := range current {
			if current[from] == 0 {
				continue
			}
			for to := range current {
				if to == from {
					continue
				}
				next := slices.Clone(current)
				next[from]--
				next[to]++

				key := vectorKey(next)
				if _, ok := seen[key]; ok {
					continue
				}
				seen[key] = struct{}{}
				if !satisfiesAll(cs, next) || !separates(next, quota, winning, losing) {
					continue
				}
				if limit > 0 && len(found) >= limit {
					return found, true
				}
				found = append(found, next)
				queue = append(queue, next)
			}
		}
	}
	return found, false
}

// separates reports whether every minimal winning coalition outweighs the quota and no
// maximal losing coalition does. With non-negative weights this decides all 2^n coalitions.
func separates(weights []int64, quota int64, winning, losing []schema.Coalition) bool {
	for _, s := range winning {
		if weightOf(weights, s) <= quota {
			return false
		}
	}
	for _, r := range losing {
		if weightOf(weights, r) > quota {
			return false
		}
	}
	return true
}

func vectorKey(w []int64) string {
	parts := make([]string, len(w))
	for i, v := range w {
		parts[i] = strconv.FormatInt(v, 10)
	}
	return strings.Join(parts, ",")
}
