package report

import (
	"fmt"
	"strconv"
	"strings"

	"cprcli/pkg/contracts/domain"
)

// SheetSpec is the read-only configuration for one workbook sheet: which
// geography level it carries and how to turn its rows into geo identifiers.
type SheetSpec struct {
	// Name is the sheet name in the workbook.
	Name string
	// Level is the geography resolution of the sheet's rows.
	Level string
	// RequiredColumns are detail headers the spec depends on; a sheet
	// missing one has drifted.
	RequiredColumns []string
	// RowFilter keeps only the rows it returns true for. Nil keeps all.
	RowFilter func(Row) bool
	// GeoIDSelect picks the raw geo identifier from a row. Nil selects
	// the index column.
	GeoIDSelect func(Row) string
	// GeoIDApply normalizes the selected identifier. Nil keeps it as is.
	GeoIDApply func(string) string
}

// GeoID resolves the normalized geographic identifier for one row.
func (s SheetSpec) GeoID(r Row) string {
	id := r.Index
	if s.GeoIDSelect != nil {
		id = s.GeoIDSelect(r)
	}
	if s.GeoIDApply != nil {
		id = s.GeoIDApply(id)
	}
	return id
}

// SheetData is the raw detail table of one sheet: the detail headers and
// the data rows beneath them, with the index column split off.
type SheetData struct {
	// Headers is the detail-header row, index column excluded.
	Headers []string
	Rows    []Row

	columns map[string]int
}

// Row is one raw data row. Cells align with SheetData.Headers and may be
// shorter when the source row is ragged.
type Row struct {
	// Index is the row's first-column identifier.
	Index string
	Cells []string

	columns map[string]int
}

// NewSheetData builds the detail table from the detail-header row and the
// data rows beneath it. The first column is the row index.
func NewSheetData(headerRow []string, dataRows [][]string) *SheetData {
	d := &SheetData{}
	if len(headerRow) > 1 {
		d.Headers = headerRow[1:]
	}

	d.columns = make(map[string]int, len(d.Headers))
	for i, h := range d.Headers {
		if _, ok := d.columns[h]; !ok {
			d.columns[h] = i
		}
	}

	d.Rows = make([]Row, 0, len(dataRows))
	for _, raw := range dataRows {
		row := Row{columns: d.columns}
		if len(raw) > 0 {
			row.Index = raw[0]
			row.Cells = raw[1:]
		}
		d.Rows = append(d.Rows, row)
	}
	return d
}

// HasColumn reports whether a detail header is present.
func (d *SheetData) HasColumn(name string) bool {
	_, ok := d.columns[name]
	return ok
}

// Cell returns the row's value under the named detail header. The second
// result is false when the sheet has no such header; a ragged row that ends
// before the column yields an empty value.
func (r Row) Cell(name string) (string, bool) {
	pos, ok := r.columns[name]
	if !ok {
		return "", false
	}
	if pos >= len(r.Cells) {
		return "", true
	}
	return r.Cells[pos], true
}

// CellAt returns the row's value at a header position, empty when the row
// is too short.
func (r Row) CellAt(pos int) string {
	if pos < 0 || pos >= len(r.Cells) {
		return ""
	}
	return r.Cells[pos]
}

// Sheets returns the specs for the four production sheets. Each call
// returns a fresh slice.
func Sheets() []SheetSpec {
	return []SheetSpec{
		{
			Name:  "Regions",
			Level: domain.LevelHHS,
			// "Region 5" -> "5"
			GeoIDApply: func(id string) string {
				return strings.ReplaceAll(id, "Region ", "")
			},
		},
		{
			Name:       "States",
			Level:      domain.LevelState,
			GeoIDApply: strings.ToLower,
		},
		{
			Name:            "CBSAs",
			Level:           domain.LevelMSA,
			RequiredColumns: []string{"CBSA type"},
			// micropolitan areas are published too but not reported
			RowFilter: func(r Row) bool {
				v, ok := r.Cell("CBSA type")
				return ok && v == "Metropolitan"
			},
		},
		{
			Name:       "Counties",
			Level:      domain.LevelCounty,
			GeoIDApply: padCountyFIPS,
		},
	}
}

// SheetByName returns the production spec with the given sheet name.
func SheetByName(name string) (SheetSpec, bool) {
	for _, s := range Sheets() {
		if s.Name == name {
			return s, true
		}
	}
	return SheetSpec{}, false
}

// padCountyFIPS zero-pads numeric county identifiers to 5-digit FIPS
// codes. Raw cells surface as integers ("1001") or decimals ("1001.0").
func padCountyFIPS(id string) string {
	s := strings.TrimSpace(id)
	if n, err := strconv.Atoi(s); err == nil {
		return fmt.Sprintf("%05d", n)
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return fmt.Sprintf("%05d", int64(f))
	}
	return id
}
