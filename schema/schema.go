// Package schema has models, constants and errors shared by all parts of wvg.
package schema

import (
	"math/bits"
	"slices"
	"strings"
)

// MaxSupportedParties is the hard upper bound on the roster size of a period.
// Every period holds a table of 2^n seat totals, which stays within a few GiB up to 30 parties.
const MaxSupportedParties = 30

// CoalitionDelimiter joins party labels when a coalition is serialized.
const CoalitionDelimiter = "+"

// Coalition is a subset of a period's parties, one bit per party in roster order.
// The zero value is the empty coalition.
type Coalition uint64

// Has reports whether the party at index i is a member.
func (c Coalition) Has(i int) bool {
	return c&(1<<uint(i)) != 0
}

// With returns the coalition with the party at index i added.
func (c Coalition) With(i int) Coalition {
	return c | 1<<uint(i)
}

// Without returns the coalition with the party at index i removed.
func (c Coalition) Without(i int) Coalition {
	return c &^ (1 << uint(i))
}

// Size returns the number of member parties.
func (c Coalition) Size() int {
	return bits.OnesCount64(uint64(c))
}

// Members returns the roster indices of all member parties in ascending order.
func (c Coalition) Members() []int {
	out := make([]int, 0, c.Size())
	for m := uint64(c); m != 0; m &= m - 1 {
		out = append(out, bits.TrailingZeros64(m))
	}
	return out
}

// Key serializes the coalition as its member labels, sorted and joined by CoalitionDelimiter.
// The empty coalition serializes to the empty string.
func (c Coalition) Key(labels []string) string {
	names := make([]string, 0, c.Size())
	for _, i := range c.Members() {
		names = append(names, labels[i])
	}
	slices.Sort(names)
	return strings.Join(names, CoalitionDelimiter)
}

// FullCoalition returns the grand coalition of n parties.
func FullCoalition(n int) Coalition {
	if n >= 64 {
		return ^Coalition(0)
	}
	return Coalition(1)<<uint(n) - 1
}

// PartySeats is a single roster entry of a period.
type PartySeats struct {
	Party string `json:"party" yaml:"party"`
	Seats int64  `json:"seats" yaml:"seats"`
}

// PeriodInput is the ingested seat allocation of one electoral period.
type PeriodInput struct {
	Period  string       `json:"period" yaml:"period"`
	Quota   *int64       `json:"quota,omitempty" yaml:"quota,omitempty"` // nil means simple majority
	Parties []PartySeats `json:"parties" yaml:"parties"`
	Dropped []string     `json:"dropped,omitempty" yaml:"-"` // zero-seat parties removed on ingest
	Err     error        `json:"-" yaml:"-"`                 // ingest problem that rejects the period
}

// Labels returns the party labels in roster order.
func (p PeriodInput) Labels() []string {
	out := make([]string, len(p.Parties))
	for i, ps := range p.Parties {
		out[i] = ps.Party
	}
	return out
}

// SeatCounts returns the seat counts in roster order.
func (p PeriodInput) SeatCounts() []int64 {
	out := make([]int64, len(p.Parties))
	for i, ps := range p.Parties {
		out[i] = ps.Seats
	}
	return out
}
