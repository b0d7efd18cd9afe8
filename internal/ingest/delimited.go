package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/SebSchroeter/masterthesis/schema"
)

// Accepted header names, compared case-insensitively.
var (
	periodHeaders = []string{"period", "year"}
	dateHeaders   = []string{"date"}
	partyHeaders  = []string{"party"}
	seatsHeaders  = []string{"seats", "# of seats"}
	quotaHeaders  = []string{"quota"}
)

type columns struct {
	period, date, party, seats, quota int
}

// readDelimited parses a header row followed by one row per party and period.
func readDelimited(r io.Reader, sep rune) ([]schema.PeriodInput, error) {
	reader := csv.NewReader(r)
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, errors.New("input is empty")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}
	cols, err := locateColumns(header)
	if err != nil {
		return nil, err
	}

	b := newBuilder()
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read row: %w", err)
		}
		if blank(record) {
			continue
		}
		line, _ := reader.FieldPos(0)

		period, err := periodOf(record, cols)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		party := field(record, cols.party)
		if SanitizeLabel(party) == "" {
			return nil, fmt.Errorf("line %d: empty party label", line)
		}
		b.add(period, party, field(record, cols.seats))
		if cols.quota >= 0 {
			b.setQuota(period, field(record, cols.quota))
		}
	}
	return b.periods(), nil
}

func locateColumns(header []string) (columns, error) {
	cols := columns{period: -1, date: -1, party: -1, seats: -1, quota: -1}
	for i, h := range header {
		name := strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF")))
		switch {
		case matches(name, periodHeaders) && cols.period < 0:
			cols.period = i
		case matches(name, dateHeaders) && cols.date < 0:
			cols.date = i
		case matches(name, partyHeaders) && cols.party < 0:
			cols.party = i
		case matches(name, seatsHeaders) && cols.seats < 0:
			cols.seats = i
		case matches(name, quotaHeaders) && cols.quota < 0:
			cols.quota = i
		}
	}
	switch {
	case cols.period < 0 && cols.date < 0:
		return cols, errors.New("missing period column (period, year or date)")
	case cols.party < 0:
		return cols, errors.New("missing party column")
	case cols.seats < 0:
		return cols, errors.New("missing seats column (seats or # of seats)")
	}
	return cols, nil
}

// periodOf reads the period label of a row. Without a period column the label is
// the four-digit year of a date whose last two characters are the year.
func periodOf(record []string, cols columns) (string, error) {
	if cols.period >= 0 {
		if p := field(record, cols.period); p != "" {
			return p, nil
		}
		return "", errors.New("empty period")
	}
	return yearFromDate(field(record, cols.date))
}

// yearFromDate expands a two-digit year suffix: above 90 is the 1900s, the rest the 2000s.
func yearFromDate(date string) (string, error) {
	if len(date) < 2 {
		return "", fmt.Errorf("date %q has no year", date)
	}
	yy, err := strconv.Atoi(date[len(date)-2:])
	if err != nil {
		return "", fmt.Errorf("date %q has no year", date)
	}
	if yy > 90 {
		return strconv.Itoa(1900 + yy), nil
	}
	return strconv.Itoa(2000 + yy), nil
}

func field(record []string, i int) string {
	if i < 0 || i >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[i])
}

func matches(name string, candidates []string) bool {
	return slices.Contains(candidates, name)
}

func blank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
