package schema

// Power label values.
const (
	DominantValue = "Dominant"
	MajorValue    = "Major"
	MinorValue    = "Minor"
	DummyValue    = "Dummy"
)

// EnrichedPowerRow adds presentation data to a PowerIndexRow.
type EnrichedPowerRow struct {
	Rank  int    `json:"rank"`
	Label string `json:"label"`
	PowerIndexRow
}

// GetPlainLabel returns a plain text label for a Shapley-Shubik share.
func GetPlainLabel(share float64) string {
	switch {
	case share >= 0.5:
		return DominantValue
	case share >= 0.25:
		return MajorValue
	case share > 0:
		return MinorValue
	default:
		return DummyValue
	}
}

// EnrichPower adds rank and label to rows that are already ranked.
func EnrichPower(rows []PowerIndexRow) []EnrichedPowerRow {
	output := make([]EnrichedPowerRow, len(rows))
	for i, r := range rows {
		output[i] = EnrichedPowerRow{
			Rank:          i + 1,
			Label:         GetPlainLabel(r.ShapleyShubik),
			PowerIndexRow: r,
		}
	}
	return output
}

// IndexDefinition describes one index printed by the definitions command.
type IndexDefinition struct {
	Name    string `json:"name"`
	Column  string `json:"column"`
	Formula string `json:"formula"`
	Notes   string `json:"notes,omitempty"`
}

// DefinitionsRenderModel holds everything the definitions command prints.
type DefinitionsRenderModel struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Indices     []IndexDefinition `json:"indices"`
	Labels      map[string]string `json:"labels"`
	Settings    map[string]string `json:"settings"`
}
