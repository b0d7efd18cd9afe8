package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/SebSchroeter/masterthesis/internal/contract"
	"github.com/SebSchroeter/masterthesis/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/unicode"
)

const yearbookTSV = "Year\tParty\t# of Seats\n" +
	"2002\tSPD\t251\n" +
	"2002\tCDU+CSU\t248\n" +
	"2002\tPDS\t0\n" +
	"1994\tCDU+CSU\t294\n" +
	"1994\tSPD\t252\n" +
	"1994\tFDP\t47\n"

func TestReadTSV(t *testing.T) {
	periods, err := Read(strings.NewReader(yearbookTSV), schema.TSVFormat, contract.EncodingAuto)
	require.NoError(t, err)
	require.Len(t, periods, 2)

	first := periods[0]
	assert.Equal(t, "1994", first.Period)
	assert.Equal(t, []string{"CDUplusCSU", "SPD", "FDP"}, first.Labels())
	assert.Equal(t, []int64{294, 252, 47}, first.SeatCounts())
	assert.Nil(t, first.Quota)
	assert.NoError(t, first.Err)

	second := periods[1]
	assert.Equal(t, "2002", second.Period)
	assert.Equal(t, []string{"SPD", "CDUplusCSU"}, second.Labels())
	assert.Equal(t, []string{"PDS"}, second.Dropped)
}

func TestReadCSVWithQuota(t *testing.T) {
	input := "period,party,seats,quota\nA,x,3,3\nA,y,2,3\nA,z,1,\nB,x,1,\n"
	periods, err := Read(strings.NewReader(input), schema.CSVFormat, contract.EncodingUTF8)
	require.NoError(t, err)
	require.Len(t, periods, 2)
	require.NotNil(t, periods[0].Quota)
	assert.Equal(t, int64(3), *periods[0].Quota)
	assert.Nil(t, periods[1].Quota)
}

func TestReadDateColumn(t *testing.T) {
	input := "Date\tParty\t# of Seats\n22.09.02\tA\t10\n16.10.94\tA\t12\n16.10.94\tB\t8\n"
	periods, err := Read(strings.NewReader(input), schema.TSVFormat, "")
	require.NoError(t, err)
	require.Len(t, periods, 2)
	assert.Equal(t, "1994", periods[0].Period)
	assert.Equal(t, "2002", periods[1].Period)
	assert.Len(t, periods[0].Parties, 2)
}

func TestReadUTF16(t *testing.T) {
	encoded, err := unicode.UTF16(unicode.LittleEndian, unicode.UseBOM).NewEncoder().String(yearbookTSV)
	require.NoError(t, err)

	for _, enc := range []string{contract.EncodingAuto, contract.EncodingUTF16} {
		t.Run(enc, func(t *testing.T) {
			periods, err := Read(strings.NewReader(encoded), schema.TSVFormat, enc)
			require.NoError(t, err)
			require.Len(t, periods, 2)
			assert.Equal(t, "SPD", periods[1].Parties[0].Party)
		})
	}

	bigEndian, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewEncoder().String(yearbookTSV)
	require.NoError(t, err)
	periods, err := Read(strings.NewReader(bigEndian), schema.TSVFormat, contract.EncodingUTF16BE)
	require.NoError(t, err)
	assert.Len(t, periods, 2)
}

func TestRowProblemsRejectOnlyTheirPeriod(t *testing.T) {
	input := "year,party,seats\n1990,A,x\n1990,B,3\n1991,A,-2\n1992,A,1.0\n1992,B,2.5\n1993,A,4\n"
	periods, err := Read(strings.NewReader(input), schema.CSVFormat, "")
	require.NoError(t, err)
	require.Len(t, periods, 4)

	assert.ErrorIs(t, periods[0].Err, schema.ErrInvalidSeats)
	assert.ErrorIs(t, periods[1].Err, schema.ErrInvalidSeats)
	assert.ErrorIs(t, periods[2].Err, schema.ErrInvalidSeats)
	assert.Equal(t, int64(1), periods[2].Parties[0].Seats)
	assert.NoError(t, periods[3].Err)
}

func TestConflictingQuota(t *testing.T) {
	input := "period,party,seats,quota\nA,x,3,3\nA,y,2,2\nB,x,1,q\n"
	periods, err := Read(strings.NewReader(input), schema.CSVFormat, "")
	require.NoError(t, err)
	assert.ErrorIs(t, periods[0].Err, schema.ErrInvalidQuota)
	assert.ErrorIs(t, periods[1].Err, schema.ErrInvalidQuota)
}

func TestReadDelimitedErrors(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", "input is empty"},
		{"no period column", "party,seats\nA,1\n", "missing period column"},
		{"no party column", "period,seats\n1,1\n", "missing party column"},
		{"no seats column", "period,party\n1,A\n", "missing seats column"},
		{"empty label", "period,party,seats\n1, ,3\n", "empty party label"},
		{"empty period", "period,party,seats\n,A,3\n", "empty period"},
		{"bad date", "date,party,seats\nxy,A,3\n", "has no year"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Read(strings.NewReader(tt.input), schema.CSVFormat, "")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestReadYAML(t *testing.T) {
	input := `periods:
  - period: 2002
    parties:
      - {party: SPD, seats: 251}
      - {party: Grüne, seats: 55}
  - period: "1998"
    quota: 400
    parties:
      - {party: SPD, seats: 298}
      - {party: FDP, seats: many}
`
	periods, err := Read(strings.NewReader(input), schema.YAMLFormat, "")
	require.NoError(t, err)
	require.Len(t, periods, 2)

	assert.Equal(t, "1998", periods[0].Period)
	assert.Equal(t, int64(400), *periods[0].Quota)
	assert.ErrorIs(t, periods[0].Err, schema.ErrInvalidSeats)

	assert.Equal(t, "2002", periods[1].Period)
	assert.Equal(t, []string{"SPD", "Grüne"}, periods[1].Labels())
}

func TestReadJSON(t *testing.T) {
	input := `{"periods": [{"period": 1994, "parties": [{"party": "A", "seats": 3}, {"party": "B", "seats": "2"}, {"party": "C", "seats": 0}]}]}`
	periods, err := Read(strings.NewReader(input), schema.JSONFormat, "")
	require.NoError(t, err)
	require.Len(t, periods, 1)
	assert.Equal(t, "1994", periods[0].Period)
	assert.Equal(t, []int64{3, 2}, periods[0].SeatCounts())
	assert.Equal(t, []string{"C"}, periods[0].Dropped)

	_, err = Read(strings.NewReader(`{"periods": [{"period": {"x": 1}}]}`), schema.JSONFormat, "")
	assert.Error(t, err)
	_, err = Read(strings.NewReader(`{"periods": [{"parties": []}]}`), schema.JSONFormat, "")
	assert.Error(t, err)
}

func TestSanitizeLabel(t *testing.T) {
	assert.Equal(t, "CDUplusCSU", SanitizeLabel("  CDU+CSU "))
	// decomposed e + combining acute becomes the composed form
	assert.Equal(t, "Caf\u00e9", SanitizeLabel("Cafe\u0301"))
	assert.Empty(t, SanitizeLabel("   "))
}

func TestDetectFormat(t *testing.T) {
	tests := map[string]schema.InputFormat{
		"data.tsv":   schema.TSVFormat,
		"data.TXT":   schema.TSVFormat,
		"data.csv":   schema.CSVFormat,
		"data.yml":   schema.YAMLFormat,
		"data.yaml":  schema.YAMLFormat,
		"data.json":  schema.JSONFormat,
		"a/b/c.json": schema.JSONFormat,
	}
	for path, want := range tests {
		got, err := DetectFormat(path)
		require.NoError(t, err, path)
		assert.Equal(t, want, got, path)
	}
	_, err := DetectFormat("data.xlsx")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestParseSeatList(t *testing.T) {
	p, err := ParseSeatList("inline", "A:40, B=30 ,C:20,D:0,")
	require.NoError(t, err)
	assert.Equal(t, "inline", p.Period)
	assert.Equal(t, []string{"A", "B", "C"}, p.Labels())
	assert.Equal(t, []string{"D"}, p.Dropped)

	p, err = ParseSeatList("inline", "A:x")
	require.NoError(t, err)
	assert.ErrorIs(t, p.Err, schema.ErrInvalidSeats)

	for _, bad := range []string{"", " , ", "A", ":3", " :3"} {
		_, err := ParseSeatList("inline", bad)
		assert.Error(t, err, bad)
	}
}

func TestComparePeriods(t *testing.T) {
	assert.Negative(t, ComparePeriods("999", "1000"))
	assert.Positive(t, ComparePeriods("2002", "1994"))
	assert.Zero(t, ComparePeriods("x", "x"))
	assert.Negative(t, ComparePeriods("1994", "1994b"))
	assert.Negative(t, ComparePeriods("10", "1a"))
	assert.Positive(t, ComparePeriods("legislature-b", "legislature-a"))
}

func TestReadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "bundestag.tsv")
	require.NoError(t, os.WriteFile(path, []byte(yearbookTSV), 0o600))

	periods, err := ReadFile(path, Options{Format: schema.AutoFormat})
	require.NoError(t, err)
	assert.Len(t, periods, 2)

	_, err = ReadFile(filepath.Join(dir, "missing.tsv"), Options{})
	assert.Error(t, err)

	_, err = ReadFile(filepath.Join(dir, "seats.xlsx"), Options{})
	assert.ErrorIs(t, err, ErrUnknownFormat)

	_, err = Read(strings.NewReader(yearbookTSV), schema.TSVFormat, "latin-1")
	assert.Error(t, err)
}
