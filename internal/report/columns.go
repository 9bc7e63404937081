package report

import (
	"strings"

	apperrors "cprcli/internal/errors"
	"cprcli/pkg/contracts/domain"
)

// Detail-header prefixes of recognized signal columns. The workbook names
// the NAAT measures two ways depending on the report vintage.
var signalHeaderPrefixes = []string{
	"Total NAATs",
	"NAAT positivity rate",
	"Total RT-PCR",
	"Viral (RT-PCR)",
}

// ColumnSelection ties one retained detail header to the date category its
// values refer to.
type ColumnSelection struct {
	// Category is the relative-week qualifier embedded in the header,
	// the lookup key into the sheet's ReferenceDates.
	Category string
	// Header is the original detail-header text.
	Header string
	// Position is the header's index on the detail-header row, index
	// column excluded.
	Position int
}

// retainHeader reports whether a detail header is a recognized 7-day signal
// column. Absolute-change columns lack the "7 days" marker and age-broken-out
// columns carry an " ages" marker; both are excluded.
func retainHeader(header string) bool {
	prefixed := false
	for _, p := range signalHeaderPrefixes {
		if strings.HasPrefix(header, p) {
			prefixed = true
			break
		}
	}
	return prefixed &&
		strings.Index(header, "7 days") > 0 &&
		!strings.Contains(header, " ages")
}

// SelectColumns scans one sheet's detail-header row and groups the retained
// signal columns by signal. Every requested signal must match at least one
// retained header.
func SelectColumns(headers []string, signals []domain.Signal) (map[domain.Signal][]ColumnSelection, error) {
	var retained []ColumnSelection
	for i, h := range headers {
		if !retainHeader(h) {
			continue
		}
		q := reColumnFromHeader.FindStringSubmatch(h)
		if q == nil {
			return nil, apperrors.NewSchemaDriftErrorf(
				"no relative-week qualifier in retained header %q", h)
		}
		retained = append(retained, ColumnSelection{
			Category: q[1],
			Header:   h,
			Position: i,
		})
	}

	out := make(map[domain.Signal][]ColumnSelection, len(signals))
	for _, sig := range signals {
		var matches []ColumnSelection
		for _, sel := range retained {
			if strings.Contains(strings.ToLower(sel.Header), string(sig)) {
				matches = append(matches, sel)
			}
		}
		if len(matches) == 0 {
			return nil, apperrors.NewSchemaDriftErrorf(
				"no %s column among retained headers %v; all headers:\n%s",
				sig, headerTexts(retained), strings.Join(headers, "\n"))
		}
		out[sig] = matches
	}
	return out, nil
}

func headerTexts(selections []ColumnSelection) []string {
	texts := make([]string, len(selections))
	for i, sel := range selections {
		texts[i] = sel.Header
	}
	return texts
}
