package ingest

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/SebSchroeter/masterthesis/schema"
	"gopkg.in/yaml.v3"
)

// document is the structured input shape shared by YAML and JSON:
//
//	periods:
//	  - period: 1994
//	    quota: 50
//	    parties:
//	      - {party: A, seats: 40}
type document struct {
	Periods []documentPeriod `json:"periods" yaml:"periods"`
}

type documentPeriod struct {
	Period  periodLabel    `json:"period" yaml:"period"`
	Quota   *int64         `json:"quota" yaml:"quota"`
	Parties []documentSeat `json:"parties" yaml:"parties"`
}

// documentSeat keeps the raw seat scalar so that bad counts reject only their period.
type documentSeat struct {
	Party string    `json:"party" yaml:"party"`
	Seats seatCount `json:"seats" yaml:"seats"`
}

// periodLabel accepts both numeric and string scalars.
type periodLabel string

func (p *periodLabel) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: period must be a scalar", value.Line)
	}
	*p = periodLabel(value.Value)
	return nil
}

func (p *periodLabel) UnmarshalJSON(data []byte) error {
	text, err := scalarText(data)
	*p = periodLabel(text)
	return err
}

type seatCount string

func (s *seatCount) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: seats must be a scalar", value.Line)
	}
	*s = seatCount(value.Value)
	return nil
}

func (s *seatCount) UnmarshalJSON(data []byte) error {
	text, err := scalarText(data)
	*s = seatCount(text)
	return err
}

// scalarText returns a JSON string without quotes and any other scalar verbatim.
func scalarText(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		return strconv.Unquote(string(data))
	}
	if len(data) > 0 && (data[0] == '{' || data[0] == '[') {
		return "", fmt.Errorf("expected a scalar, got %s", data)
	}
	return string(data), nil
}

func readYAML(r io.Reader) ([]schema.PeriodInput, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("input is empty")
		}
		return nil, fmt.Errorf("failed to decode YAML: %w", err)
	}
	return fromDocument(doc)
}

func readJSON(r io.Reader) ([]schema.PeriodInput, error) {
	var doc document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to decode JSON: %w", err)
	}
	return fromDocument(doc)
}

func fromDocument(doc document) ([]schema.PeriodInput, error) {
	b := newBuilder()
	for i, dp := range doc.Periods {
		period := string(dp.Period)
		if period == "" {
			return nil, fmt.Errorf("period #%d has no label", i+1)
		}
		b.period(period)
		if dp.Quota != nil {
			b.setQuota(period, strconv.FormatInt(*dp.Quota, 10))
		}
		for _, ps := range dp.Parties {
			if SanitizeLabel(ps.Party) == "" {
				return nil, fmt.Errorf("period %s: empty party label", period)
			}
			b.add(period, ps.Party, string(ps.Seats))
		}
	}
	return b.periods(), nil
}
