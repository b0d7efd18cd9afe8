// Package power computes Penrose-Banzhaf, Shapley-Shubik and minimal-sum-representation
// indices of a weighted voting game.
package power

import (
	"fmt"
	"math"
	"math/big"
	"math/bits"

	"github.com/SebSchroeter/masterthesis/schema"
)

// Input is a reconstructed game plus the reporting context of its period.
type Input struct {
	Period         string
	Labels         []string
	Seats          []int64
	Weights        []int64
	Quota          int64     // a coalition wins when its weight exceeds the quota
	Alternates     [][]int64 // other minimal-sum vectors, used by the MSR columns
	MinWinningSize int       // smallest minimal winning coalition; pivots below it are impossible
	Policy         schema.MSRPolicy
}

// Table holds the indices of every party of one period in roster order.
type Table struct {
	Period      string
	TotalWeight int64
	Quota       int64
	Rows        []schema.PowerIndexRow
}

// ShapleySum returns the sum of all Shapley-Shubik values.
func (t *Table) ShapleySum() float64 {
	total := 0.0
	for _, r := range t.Rows {
		total += r.ShapleyShubik
	}
	return total
}

// Compute evaluates all indices with the counting table of the game.
func Compute(in Input) (*Table, error) {
	n := len(in.Weights)
	if n == 0 {
		return nil, fmt.Errorf("period %s: %w", in.Period, schema.ErrEmptyPeriod)
	}
	if len(in.Labels) != n {
		return nil, fmt.Errorf("period %s: %d labels for %d weights", in.Period, len(in.Labels), n)
	}
	if n > schema.MaxSupportedParties {
		return nil, fmt.Errorf("period %s: %w", in.Period, schema.ErrTooManyParties)
	}
	var total int64
	for _, w := range in.Weights {
		if w < 0 {
			return nil, fmt.Errorf("period %s: negative weight %d", in.Period, w)
		}
		total += w
		if total < 0 {
			return nil, fmt.Errorf("period %s: weight sum: %w", in.Period, schema.ErrNumericOverflow)
		}
	}

	counts, err := countTable(in.Weights, total)
	if err != nil {
		return nil, fmt.Errorf("period %s: %w", in.Period, err)
	}

	coefficients := shapleyCoefficients(n)
	half := math.Ldexp(1, n-1)
	minSize := max(in.MinWinningSize, 1)

	table := &Table{Period: in.Period, TotalWeight: total, Quota: in.Quota, Rows: make([]schema.PowerIndexRow, n)}
	bzTotal := 0.0
	for i, w := range in.Weights {
		pivots, err := pivotalCounts(counts, w, in.Quota, n, minSize)
		if err != nil {
			return nil, fmt.Errorf("period %s, party %s: %w", in.Period, in.Labels[i], err)
		}

		var swings uint64
		shapley := new(big.Rat)
		for s := minSize; s <= n; s++ {
			p := pivots[s]
			if p == 0 {
				continue
			}
			if swings, err = addChecked(swings, p); err != nil {
				return nil, fmt.Errorf("period %s, party %s: %w", in.Period, in.Labels[i], err)
			}
			term := new(big.Rat).SetInt(new(big.Int).SetUint64(p))
			shapley.Add(shapley, term.Mul(term, coefficients[s]))
		}

		row := schema.PowerIndexRow{
			Period:  in.Period,
			Party:   in.Labels[i],
			Weight:  w,
			Swings:  swings,
			Banzhaf: float64(swings) / half,
		}
		row.ShapleyShubik, _ = shapley.Float64()
		if i < len(in.Seats) {
			row.Seats = in.Seats[i]
		}
		bzTotal += row.Banzhaf
		table.Rows[i] = row
	}

	if bzTotal > 0 {
		for i := range table.Rows {
			table.Rows[i].BanzhafNormalized = table.Rows[i].Banzhaf / bzTotal
		}
	}
	applyMSR(table.Rows, in.Weights, in.Alternates, in.Policy)
	return table, nil
}

// shapleyCoefficients returns (s-1)!(n-s)!/n! for s = 1..n, index 0 unused.
func shapleyCoefficients(n int) []*big.Rat {
	fact := make([]*big.Int, n+1)
	fact[0] = big.NewInt(1)
	for k := 1; k <= n; k++ {
		fact[k] = new(big.Int).Mul(fact[k-1], big.NewInt(int64(k)))
	}
	out := make([]*big.Rat, n+1)
	for s := 1; s <= n; s++ {
		num := new(big.Int).Mul(fact[s-1], fact[n-s])
		out[s] = new(big.Rat).SetFrac(num, fact[n])
	}
	return out
}

// applyMSR fills the share columns. MSRMin and MSRMax always span every known vector;
// MSR averages them unless the policy asks for the primary vector alone.
func applyMSR(rows []schema.PowerIndexRow, primary []int64, alternates [][]int64, policy schema.MSRPolicy) {
	all := append([][]int64{primary}, alternates...)
	reported := all
	if policy == schema.MSRPrimary {
		reported = all[:1]
	}
	for i := range rows {
		lo, hi := math.Inf(1), math.Inf(-1)
		for _, v := range all {
			share := shareOf(v, i)
			lo, hi = math.Min(lo, share), math.Max(hi, share)
		}
		acc := 0.0
		for _, v := range reported {
			acc += shareOf(v, i)
		}
		rows[i].MSR = acc / float64(len(reported))
		rows[i].MSRMin, rows[i].MSRMax = lo, hi
	}
}

func shareOf(weights []int64, i int) float64 {
	var total int64
	for _, w := range weights {
		total += w
	}
	if total == 0 {
		return 0
	}
	return float64(weights[i]) / float64(total)
}

func addChecked(a, b uint64) (uint64, error) {
	sum, carry := bits.Add64(a, b, 0)
	if carry != 0 {
		return 0, schema.ErrNumericOverflow
	}
	return sum, nil
}
