package milp

import (
	"context"
	"errors"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

const (
	blandAfter   = 50 // degenerate pivots in a row before the entering rule switches to Bland's
	pivotsPerCol = 50 // pivot budget of one relaxation per tableau column
)

// errPivotLimit ends a relaxation that used up its pivot budget.
var errPivotLimit = errors.New("milp: simplex pivot limit reached")

// dualTableau solves min c·y subject to A·y >= h, y >= 0 for c >= 0 through its dual
//
//	max h·π subject to Aᵀ·π + σ = c, π >= 0, σ >= 0.
//
// The slack columns σ form a feasible first basis because c >= 0, so there is no phase one.
// At the optimum the reduced cost of σ_j is y_j. An unbounded dual means the primal has no
// feasible point.
type dualTableau struct {
	t     *mat.Dense // k constraint rows, then the objective row; the last column is the right-hand side
	k     int        // primal variables, one dual row each
	m     int        // primal rows, one dual column each
	basis []int
	eps   float64
}

func newDualTableau(a [][]float64, h, c []float64, eps float64) *dualTableau {
	k, m := len(c), len(a)
	d := &dualTableau{
		t:     mat.NewDense(k+1, m+k+1, nil),
		k:     k,
		m:     m,
		basis: make([]int, k),
		eps:   eps,
	}
	for i, row := range a {
		for j, v := range row {
			if v != 0 {
				d.t.Set(j, i, v)
			}
		}
		d.t.Set(k, i, -h[i])
	}
	for j := range k {
		d.t.Set(j, m+j, 1)
		d.t.Set(j, m+k, c[j])
		d.basis[j] = m + j
	}
	return d
}

// solve pivots until the dual is optimal or unbounded. Cancellation is checked before
// every pivot and the number of pivots is bounded by the tableau size.
func (d *dualTableau) solve(ctx context.Context) (unbounded bool, err error) {
	limit := pivotsPerCol * (d.m + d.k)
	degenerate := 0
	for pivots := 0; ; pivots++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		if pivots >= limit {
			return false, errPivotLimit
		}
		e := d.entering(degenerate >= blandAfter)
		if e < 0 {
			return false, nil
		}
		r := d.leaving(e)
		if r < 0 {
			return true, nil
		}
		if d.t.At(r, d.m+d.k) <= d.eps {
			degenerate++
		} else {
			degenerate = 0
		}
		d.pivot(r, e)
	}
}

// entering picks the column with the most negative reduced cost, or the first negative
// one under Bland's rule. It returns -1 at optimality.
func (d *dualTableau) entering(bland bool) int {
	obj := d.t.RawRowView(d.k)
	pick, best := -1, -d.eps
	for j := range d.m + d.k {
		if obj[j] >= best {
			continue
		}
		if bland {
			return j
		}
		pick, best = j, obj[j]
	}
	return pick
}

// leaving runs the ratio test for column e. Ties go to the lowest basic column so
// Bland's rule stays cycle free. It returns -1 when the column is unbounded.
func (d *dualTableau) leaving(e int) int {
	rhs := d.m + d.k
	pick, best := -1, math.Inf(1)
	for i := range d.k {
		a := d.t.At(i, e)
		if a <= d.eps {
			continue
		}
		ratio := d.t.At(i, rhs) / a
		switch {
		case ratio < best-d.eps:
			pick, best = i, ratio
		case ratio <= best+d.eps && d.basis[i] < d.basis[pick]:
			pick, best = i, min(best, ratio)
		}
	}
	return pick
}

func (d *dualTableau) pivot(r, e int) {
	row := d.t.RawRowView(r)
	floats.Scale(1/row[e], row)
	row[e] = 1
	rhs := d.m + d.k
	for i := range d.k + 1 {
		if i == r {
			continue
		}
		other := d.t.RawRowView(i)
		if f := other[e]; f != 0 {
			floats.AddScaled(other, -f, row)
			other[e] = 0
		}
		if i < d.k && other[rhs] < 0 && other[rhs] > -d.eps {
			other[rhs] = 0
		}
	}
	d.basis[r] = e
}

// primal returns y_j, the reduced cost of the slack of dual row j.
func (d *dualTableau) primal(j int) float64 {
	return max(d.t.At(d.k, d.m+j), 0)
}
