// Package ingest reads seat allocation files into ordered period inputs.
package ingest

import (
	"cmp"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"

	"github.com/SebSchroeter/masterthesis/schema"
	"golang.org/x/text/unicode/norm"
)

// ErrUnknownFormat is returned when the format cannot be derived from the file name.
var ErrUnknownFormat = errors.New("cannot detect input format")

// Options controls how a file is decoded.
type Options struct {
	Format   schema.InputFormat
	Encoding string
}

// ReadFile reads every period in the file at path.
func ReadFile(path string, opts Options) ([]schema.PeriodInput, error) {
	format := opts.Format
	if format == "" || format == schema.AutoFormat {
		detected, err := DetectFormat(path)
		if err != nil {
			return nil, err
		}
		format = detected
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()

	periods, err := Read(f, format, opts.Encoding)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}
	return periods, nil
}

// Read decodes periods from r in the given format.
func Read(r io.Reader, format schema.InputFormat, encoding string) ([]schema.PeriodInput, error) {
	decoded, err := decodeReader(r, encoding)
	if err != nil {
		return nil, err
	}
	switch format {
	case schema.TSVFormat:
		return readDelimited(decoded, '\t')
	case schema.CSVFormat:
		return readDelimited(decoded, ',')
	case schema.YAMLFormat:
		return readYAML(decoded)
	case schema.JSONFormat:
		return readJSON(decoded)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}
}

// DetectFormat maps a file extension onto an input format.
func DetectFormat(path string) (schema.InputFormat, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tsv", ".tab", ".txt":
		return schema.TSVFormat, nil
	case ".csv":
		return schema.CSVFormat, nil
	case ".yaml", ".yml":
		return schema.YAMLFormat, nil
	case ".json":
		return schema.JSONFormat, nil
	default:
		return "", fmt.Errorf("%w from %q, use --format", ErrUnknownFormat, filepath.Base(path))
	}
}

// SanitizeLabel trims and NFC-normalizes a party label and spells out the
// coalition delimiter so that serialized coalitions stay unambiguous.
func SanitizeLabel(s string) string {
	s = norm.NFC.String(strings.TrimSpace(s))
	return strings.ReplaceAll(s, schema.CoalitionDelimiter, "plus")
}

// ParseSeatList parses an inline roster such as "A:40,B:30,C:20".
// A label may also be separated from its seats by "=".
func ParseSeatList(period, list string) (schema.PeriodInput, error) {
	b := newBuilder()
	entries := 0
	for entry := range strings.SplitSeq(list, ",") {
		entry = strings.TrimSpace(entry)
		if entry == "" {
			continue
		}
		idx := strings.LastIndexAny(entry, ":=")
		if idx <= 0 {
			return schema.PeriodInput{}, fmt.Errorf("entry %q: expected party:seats", entry)
		}
		label := strings.TrimSpace(entry[:idx])
		if SanitizeLabel(label) == "" {
			return schema.PeriodInput{}, fmt.Errorf("entry %q: empty party label", entry)
		}
		b.add(period, label, strings.TrimSpace(entry[idx+1:]))
		entries++
	}
	if entries == 0 {
		return schema.PeriodInput{}, fmt.Errorf("period %s: %w", period, schema.ErrEmptyPeriod)
	}
	return b.periods()[0], nil
}

// builder groups rows into periods in first-seen order.
type builder struct {
	order []string
	byKey map[string]*schema.PeriodInput
}

func newBuilder() *builder {
	return &builder{byKey: make(map[string]*schema.PeriodInput)}
}

func (b *builder) period(label string) *schema.PeriodInput {
	p, ok := b.byKey[label]
	if !ok {
		p = &schema.PeriodInput{Period: label}
		b.byKey[label] = p
		b.order = append(b.order, label)
	}
	return p
}

// add appends one roster row. Zero seats drop the party; a malformed seat count
// rejects the whole period but the rest of the file is still read.
func (b *builder) add(period, party, seatsText string) {
	p := b.period(period)
	label := SanitizeLabel(party)
	seats, err := parseSeats(seatsText)
	switch {
	case err != nil:
		p.Err = cmp.Or(p.Err, fmt.Errorf("party %s: seats %q: %w", label, seatsText, schema.ErrInvalidSeats))
	case seats == 0:
		p.Dropped = append(p.Dropped, label)
	case seats < 0:
		p.Err = cmp.Or(p.Err, fmt.Errorf("party %s: seats %d: %w", label, seats, schema.ErrInvalidSeats))
	default:
		p.Parties = append(p.Parties, schema.PartySeats{Party: label, Seats: seats})
	}
}

// setQuota records an explicit quota; every row of a period must agree on it.
func (b *builder) setQuota(period, quotaText string) {
	quotaText = strings.TrimSpace(quotaText)
	if quotaText == "" {
		return
	}
	p := b.period(period)
	quota, err := strconv.ParseInt(quotaText, 10, 64)
	if err != nil {
		p.Err = cmp.Or(p.Err, fmt.Errorf("quota %q: %w", quotaText, schema.ErrInvalidQuota))
		return
	}
	if p.Quota != nil && *p.Quota != quota {
		p.Err = cmp.Or(p.Err, fmt.Errorf("conflicting quotas %d and %d: %w", *p.Quota, quota, schema.ErrInvalidQuota))
		return
	}
	p.Quota = &quota
}

// periods returns the grouped periods sorted by label.
func (b *builder) periods() []schema.PeriodInput {
	out := make([]schema.PeriodInput, 0, len(b.order))
	for _, label := range b.order {
		out = append(out, *b.byKey[label])
	}
	slices.SortStableFunc(out, func(x, y schema.PeriodInput) int {
		return ComparePeriods(x.Period, y.Period)
	})
	return out
}

// ComparePeriods orders integer period labels numerically, ahead of all other
// labels, which compare lexicographically.
func ComparePeriods(a, b string) int {
	x, errA := strconv.ParseInt(a, 10, 64)
	y, errB := strconv.ParseInt(b, 10, 64)
	switch {
	case errA == nil && errB == nil:
		return cmp.Compare(x, y)
	case errA == nil:
		return -1
	case errB == nil:
		return 1
	}
	return strings.Compare(a, b)
}

// parseSeats accepts integers and integral decimals such as "12.0".
func parseSeats(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.Abs(f) > math.MaxInt64 || f != math.Trunc(f) {
		return 0, fmt.Errorf("%v is not a whole number", f)
	}
	return int64(f), nil
}
