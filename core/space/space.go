// Package space enumerates the coalitions of a parliament and classifies them by majority.
package space

import (
	"fmt"
	"iter"
	"math"
	"math/bits"
	"slices"

	"github.com/SebSchroeter/masterthesis/schema"
)

// Space is the immutable coalition universe of one period.
// All derived sets are computed once in New, so a Space is safe for concurrent reads.
type Space struct {
	period   string
	labels   []string
	seats    []int64
	total    int64
	quota    int64
	majority bool

	totals []int64 // seat total per coalition, indexed by bitmask

	minimalWinning []schema.Coalition
	maximalLosing  []schema.Coalition
	tyingPairs     [][2]schema.Coalition
	minWinningSize int
}

// New validates a roster and builds its coalition universe.
// A nil quota selects simple majority: a coalition wins iff its seat total exceeds half of all seats.
// maxParties bounds the roster size; zero means schema.MaxSupportedParties.
func New(period string, labels []string, seats []int64, quota *int64, maxParties int) (*Space, error) {
	n := len(labels)
	if n == 0 {
		return nil, fmt.Errorf("period %s: %w", period, schema.ErrEmptyPeriod)
	}
	if len(seats) != n {
		return nil, fmt.Errorf("period %s: %d labels but %d seat counts: %w", period, n, len(seats), schema.ErrInvalidSeats)
	}
	if maxParties <= 0 || maxParties > schema.MaxSupportedParties {
		maxParties = schema.MaxSupportedParties
	}
	if n > maxParties {
		return nil, fmt.Errorf("period %s has %d parties, limit is %d: %w", period, n, maxParties, schema.ErrTooManyParties)
	}

	seen := make(map[string]struct{}, n)
	var total int64
	for i, label := range labels {
		if _, dup := seen[label]; dup {
			return nil, fmt.Errorf("period %s: party %q: %w", period, label, schema.ErrDuplicatePartyLabel)
		}
		seen[label] = struct{}{}
		if seats[i] < 1 {
			return nil, fmt.Errorf("period %s: party %q has %d seats: %w", period, label, seats[i], schema.ErrInvalidSeats)
		}
		sum, carry := bits.Add64(uint64(total), uint64(seats[i]), 0)
		if carry != 0 || sum > math.MaxInt64 {
			return nil, fmt.Errorf("period %s: seat total: %w", period, schema.ErrNumericOverflow)
		}
		total = int64(sum)
	}

	s := &Space{
		period:   period,
		labels:   slices.Clone(labels),
		seats:    slices.Clone(seats),
		total:    total,
		quota:    total / 2,
		majority: true,
	}
	if quota != nil {
		if *quota < 0 || *quota >= total {
			return nil, fmt.Errorf("period %s: quota %d with %d seats: %w", period, *quota, total, schema.ErrInvalidQuota)
		}
		s.quota = *quota
		s.majority = *quota == total/2
	}

	s.totals = seatTotals(s.seats)
	s.deriveSets()
	return s, nil
}

// seatTotals fills the 2^n table with the lowest-bit recurrence
// total(c) = total(c without its lowest member) + seats(lowest member).
func seatTotals(seats []int64) []int64 {
	size := 1 << uint(len(seats))
	totals := make([]int64, size)
	for c := 1; c < size; c++ {
		low := bits.TrailingZeros64(uint64(c))
		totals[c] = totals[c&(c-1)] + seats[low]
	}
	return totals
}

func (s *Space) deriveSets() {
	s.minWinningSize = len(s.seats)
	for c := range s.totals {
		coalition := schema.Coalition(c)
		if s.isMinimalWinning(coalition) {
			s.minimalWinning = append(s.minimalWinning, coalition)
			s.minWinningSize = min(s.minWinningSize, coalition.Size())
		}
		if s.isMaximalLosing(coalition) {
			s.maximalLosing = append(s.maximalLosing, coalition)
		}
	}

	// A tie needs an even total: both sides hold exactly half of the seats.
	if s.total%2 != 0 {
		return
	}
	full := schema.FullCoalition(len(s.seats))
	half := s.total / 2
	for c, t := range s.totals {
		if t != half {
			continue
		}
		coalition := schema.Coalition(c)
		complement := full &^ coalition
		if s.Key(coalition) < s.Key(complement) {
			s.tyingPairs = append(s.tyingPairs, [2]schema.Coalition{coalition, complement})
		}
	}
}

func (s *Space) isMinimalWinning(c schema.Coalition) bool {
	if !s.IsWinning(c) {
		return false
	}
	for m := uint64(c); m != 0; m &= m - 1 {
		if s.IsWinning(c.Without(bits.TrailingZeros64(m))) {
			return false
		}
	}
	return true
}

func (s *Space) isMaximalLosing(c schema.Coalition) bool {
	if s.IsWinning(c) {
		return false
	}
	for i := range s.seats {
		if !c.Has(i) && !s.IsWinning(c.With(i)) {
			return false
		}
	}
	return true
}

// Period returns the period label.
func (s *Space) Period() string { return s.period }

// N returns the number of parties.
func (s *Space) N() int { return len(s.labels) }

// Labels returns a copy of the party labels in roster order.
func (s *Space) Labels() []string { return slices.Clone(s.labels) }

// Seats returns a copy of the seat counts in roster order.
func (s *Space) Seats() []int64 { return slices.Clone(s.seats) }

// TotalSeats returns the seat sum Q.
func (s *Space) TotalSeats() int64 { return s.total }

// Quota returns the seat total a coalition must strictly exceed to win.
func (s *Space) Quota() int64 { return s.quota }

// Majority reports whether the quota is the simple-majority quota floor(Q/2).
func (s *Space) Majority() bool { return s.majority }

// Size returns the number of coalitions, 2^n.
func (s *Space) Size() int { return len(s.totals) }

// SeatTotal returns the seat sum of the coalition members.
func (s *Space) SeatTotal(c schema.Coalition) int64 { return s.totals[c] }

// IsWinning reports whether the coalition holds strictly more seats than the quota.
func (s *Space) IsWinning(c schema.Coalition) bool { return s.totals[c] > s.quota }

// Classify returns the majority status of the coalition.
func (s *Space) Classify(c schema.Coalition) schema.Classification {
	if s.IsWinning(c) {
		return schema.Winning
	}
	return schema.Losing
}

// All iterates every coalition with its seat total in bitmask order, starting with the empty coalition.
func (s *Space) All() iter.Seq2[schema.Coalition, int64] {
	return func(yield func(schema.Coalition, int64) bool) {
		for c, t := range s.totals {
			if !yield(schema.Coalition(c), t) {
				return
			}
		}
	}
}

// Key serializes a coalition of this period.
func (s *Space) Key(c schema.Coalition) string { return c.Key(s.labels) }

// MinimalWinning returns the minimal winning coalitions in bitmask order.
func (s *Space) MinimalWinning() []schema.Coalition { return slices.Clone(s.minimalWinning) }

// MaximalLosing returns the maximal losing coalitions in bitmask order.
func (s *Space) MaximalLosing() []schema.Coalition { return slices.Clone(s.maximalLosing) }

// TyingPairs returns each tying pair once, canonical side first.
func (s *Space) TyingPairs() [][2]schema.Coalition { return slices.Clone(s.tyingPairs) }

// MinWinningSize returns the member count of the smallest minimal winning coalition.
func (s *Space) MinWinningSize() int { return s.minWinningSize }

// Counts returns the number of winning and losing coalitions.
func (s *Space) Counts() (winning, losing int) {
	for _, t := range s.totals {
		if t > s.quota {
			winning++
		}
	}
	return winning, len(s.totals) - winning
}
