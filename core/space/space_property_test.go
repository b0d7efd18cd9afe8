package space

import (
	"fmt"
	"testing"

	"github.com/SebSchroeter/masterthesis/schema"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
)

func labelsFor(n int) []string {
	labels := make([]string, n)
	for i := range labels {
		labels[i] = fmt.Sprintf("P%02d", i)
	}
	return labels
}

func seatProperties(t *testing.T) *gopter.Properties {
	t.Helper()
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	parameters.MinSize = 1
	parameters.MaxSize = 10
	return gopter.NewProperties(parameters)
}

// TestClassificationProperties checks the derived sets against their definitions by brute force.
func TestClassificationProperties(t *testing.T) {
	properties := seatProperties(t)
	seatGen := gen.SliceOf(gen.Int64Range(1, 60))

	properties.Property("universe is partitioned into winning and losing", prop.ForAll(
		func(seats []int64) bool {
			if len(seats) == 0 {
				return true
			}
			s, err := New("p", labelsFor(len(seats)), seats, nil, 0)
			if err != nil {
				return false
			}
			winning, losing := 0, 0
			for c, total := range s.All() {
				if total != bruteSeatTotal(seats, c) {
					return false
				}
				if 2*total > s.TotalSeats() {
					winning++
				} else {
					losing++
				}
			}
			w, l := s.Counts()
			return winning == w && losing == l && w+l == 1<<len(seats)
		},
		seatGen,
	))

	properties.Property("minimal winning iff winning and every one-removed subset loses", prop.ForAll(
		func(seats []int64) bool {
			if len(seats) == 0 {
				return true
			}
			s, err := New("p", labelsFor(len(seats)), seats, nil, 0)
			if err != nil {
				return false
			}
			expected := map[schema.Coalition]bool{}
			for c := range s.All() {
				if !s.IsWinning(c) {
					continue
				}
				minimal := true
				for _, i := range c.Members() {
					if s.IsWinning(c.Without(i)) {
						minimal = false
					}
				}
				if minimal {
					expected[c] = true
				}
			}
			got := s.MinimalWinning()
			if len(got) != len(expected) {
				return false
			}
			for _, c := range got {
				if !expected[c] {
					return false
				}
			}
			return true
		},
		seatGen,
	))

	properties.Property("every one-added superset of a maximal losing coalition wins", prop.ForAll(
		func(seats []int64) bool {
			if len(seats) == 0 {
				return true
			}
			s, err := New("p", labelsFor(len(seats)), seats, nil, 0)
			if err != nil {
				return false
			}
			for _, c := range s.MaximalLosing() {
				if s.IsWinning(c) {
					return false
				}
				for i := range len(seats) {
					if !c.Has(i) && !s.IsWinning(c.With(i)) {
						return false
					}
				}
			}
			return true
		},
		seatGen,
	))

	properties.Property("tying pairs hold half the seats and never overlap", prop.ForAll(
		func(seats []int64) bool {
			if len(seats) == 0 {
				return true
			}
			s, err := New("p", labelsFor(len(seats)), seats, nil, 0)
			if err != nil {
				return false
			}
			pairs := s.TyingPairs()
			if s.TotalSeats()%2 != 0 {
				return len(pairs) == 0
			}
			seen := map[schema.Coalition]bool{}
			for _, p := range pairs {
				if 2*s.SeatTotal(p[0]) != s.TotalSeats() || 2*s.SeatTotal(p[1]) != s.TotalSeats() {
					return false
				}
				if seen[p[0]] || seen[p[1]] {
					return false
				}
				seen[p[0]], seen[p[1]] = true, true
			}
			return true
		},
		seatGen,
	))

	properties.TestingRun(t)
}
