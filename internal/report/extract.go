package report

import (
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "cprcli/internal/errors"
	"cprcli/pkg/contracts/domain"
)

// Workbook wraps one open report file.
type Workbook struct {
	f    *excelize.File
	path string
}

// OpenWorkbook opens a cached report file for extraction.
func OpenWorkbook(path string) (*Workbook, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, apperrors.NewRetrievalError("unreadable workbook "+path, err)
	}
	return &Workbook{f: f, path: path}, nil
}

// Close releases the underlying file.
func (w *Workbook) Close() error {
	return w.f.Close()
}

// SheetNames lists the sheets present in the workbook.
func (w *Workbook) SheetNames() []string {
	return w.f.GetSheetList()
}

// RawSheet is one sheet split into its layout zones: group headers on row 0,
// detail headers on row 1, data beneath, row identifiers in column 0.
type RawSheet struct {
	Name        string
	Overheaders []string
	Data        *SheetData
}

// ReadSheet reads one sheet with raw (unformatted) cell values.
func (w *Workbook) ReadSheet(name string) (*RawSheet, error) {
	rows, err := w.f.GetRows(name, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, apperrors.NewSchemaDriftErrorf(
			"missing sheet %q in %s: %v", name, w.path, err)
	}
	if len(rows) < 2 {
		return nil, apperrors.NewSchemaDriftErrorf(
			"sheet %q in %s has no header rows", name, w.path)
	}
	return &RawSheet{
		Name:        name,
		Overheaders: rows[0],
		Data:        NewSheetData(rows[1], rows[2:]),
	}, nil
}

// ExtractSheet discovers one sheet's schema and materializes a table per
// (level, signal). Values for the total signal are converted from a 7-day
// sum to a daily average, once, after all of that signal's columns have
// been concatenated.
func ExtractSheet(raw *RawSheet, spec SheetSpec, publishDate time.Time, signals []domain.Signal) (map[domain.TableKey]*domain.SignalTable, error) {
	times, err := ClassifyOverheaders(spec.Name, raw.Overheaders, publishDate)
	if err != nil {
		return nil, err
	}

	selections, err := SelectColumns(raw.Data.Headers, signals)
	if err != nil {
		return nil, err
	}

	for _, col := range spec.RequiredColumns {
		if !raw.Data.HasColumn(col) {
			return nil, apperrors.NewSchemaDriftErrorf(
				"sheet %q is missing required column %q", spec.Name, col)
		}
	}

	rows := raw.Data.Rows
	if spec.RowFilter != nil {
		kept := make([]Row, 0, len(rows))
		for _, r := range rows {
			if spec.RowFilter(r) {
				kept = append(kept, r)
			}
		}
		rows = kept
	}

	geoIDs := make([]string, len(rows))
	for i, r := range rows {
		geoIDs[i] = spec.GeoID(r)
	}

	out := make(map[domain.TableKey]*domain.SignalTable, len(signals))
	for _, sig := range signals {
		table := &domain.SignalTable{Level: spec.Level, Signal: sig}
		for _, sel := range selections[sig] {
			rd, ok := times[sel.Category]
			if !ok {
				return nil, apperrors.NewSchemaDriftErrorf(
					"header %q references unknown date category %q in sheet %q",
					sel.Header, sel.Category, spec.Name)
			}
			ts, err := rd.ForSignal(sig)
			if err != nil {
				return nil, err
			}
			for i, r := range rows {
				table.Append(domain.SignalRow{
					GeoID:     geoIDs[i],
					Timestamp: ts,
					Val:       parseCellValue(r.CellAt(sel.Position)),
				})
			}
		}
		if sig == domain.SignalTotal {
			// 7-day total -> 7-day average
			for i := range table.Rows {
				table.Rows[i].Val /= 7
			}
		}
		out[table.Key()] = table
	}
	return out, nil
}

// parseCellValue converts a raw cell to a value. Empty and non-numeric
// cells are missing observations, not errors.
func parseCellValue(cell string) float64 {
	s := strings.TrimSpace(cell)
	if s == "" {
		return math.NaN()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return math.NaN()
	}
	return v
}
