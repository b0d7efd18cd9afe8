package power

import (
	"math/bits"

	"github.com/SebSchroeter/masterthesis/schema"
)

// countTable builds M[k][s], the number of coalitions with weight k and s members.
// Parties are folded one at a time in roster order, in place, walking k and s downwards
// so that every read sees the table from before the current party.
func countTable(weights []int64, total int64) ([][]uint64, error) {
	n := len(weights)
	m := make([][]uint64, total+1)
	for k := range m {
		m[k] = make([]uint64, n+1)
	}
	m[0][0] = 1

	for _, w := range weights {
		for k := total; k >= w; k-- {
			for s := n; s >= 1; s-- {
				v := m[k-w][s-1]
				if v == 0 {
					continue
				}
				sum, carry := bits.Add64(m[k][s], v, 0)
				if carry != 0 {
					return nil, schema.ErrNumericOverflow
				}
				m[k][s] = sum
			}
		}
	}
	return m, nil
}

// exclusionTable removes one party of weight w from M:
// C[k][s] = M[k][s] - C[k-w][s-1], with s ascending outside and k ascending inside.
func exclusionTable(m [][]uint64, w int64, n int) ([][]uint64, error) {
	c := make([][]uint64, len(m))
	for k := range c {
		c[k] = make([]uint64, n+1)
	}
	for s := 0; s <= n; s++ {
		for k := range int64(len(m)) {
			var sub uint64
			if s > 0 && k >= w {
				sub = c[k-w][s-1]
			}
			diff, borrow := bits.Sub64(m[k][s], sub, 0)
			if borrow != 0 {
				return nil, schema.ErrNumericOverflow
			}
			c[k][s] = diff
		}
	}
	return c, nil
}

// pivotalCounts returns P[s], the number of coalitions of size s that the party turns from
// losing to winning: P[s] = sum over k in (quota-w, quota] of C[k][s-1].
func pivotalCounts(m [][]uint64, w, quota int64, n, minSize int) ([]uint64, error) {
	pivots := make([]uint64, n+1)
	if w == 0 {
		return pivots, nil
	}
	c, err := exclusionTable(m, w, n)
	if err != nil {
		return nil, err
	}
	lo := max(quota-w+1, 0)
	hi := min(quota, int64(len(m))-1)
	for s := minSize; s <= n; s++ {
		var acc uint64
		for k := lo; k <= hi; k++ {
			if acc, err = addChecked(acc, c[k][s-1]); err != nil {
				return nil, err
			}
		}
		pivots[s] = acc
	}
	return pivots, nil
}
