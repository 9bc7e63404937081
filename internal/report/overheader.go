package report

import (
	"strings"
	"time"

	apperrors "cprcli/internal/errors"
)

// Overheader prefixes that carry weekly testing date ranges. Anything else
// on the group-header row ("TESTING: % CHANGE FROM PREVIOUS WEEK",
// "TESTING: DEMOGRAPHIC DATA", demographic blocks, blanks) is skipped.
var testingOverheaderPrefixes = []string{
	"TESTING:",
	"VIRAL (RT-PCR) LAB TESTING:",
}

// relevantOverheader reports whether a group-header cell carries a weekly
// testing date range worth parsing.
func relevantOverheader(header string) bool {
	prefixed := false
	for _, p := range testingOverheaderPrefixes {
		if strings.HasPrefix(header, p) {
			prefixed = true
			break
		}
	}
	return prefixed && strings.Index(header, "WEEK (") > 0
}

// ClassifyOverheaders scans one sheet's group-header row and resolves the
// reference dates for each relative-week category found. Exactly two
// categories must come out of a sheet; the same category repeating across
// overheaders must repeat with identical dates.
func ClassifyOverheaders(sheetName string, overheaders []string, publishDate time.Time) (map[string]ReferenceDates, error) {
	times := make(map[string]ReferenceDates, 2)

	for _, h := range overheaders {
		if !relevantOverheader(h) {
			continue
		}

		rd, err := ParseReferenceDates(h, publishDate)
		if err != nil {
			return nil, err
		}

		if prev, ok := times[rd.Category]; ok {
			if !prev.Equal(rd) {
				return nil, apperrors.NewSchemaDriftErrorf(
					"conflicting reference dates from %s: %s vs previous %s",
					sheetName, rd, prev)
			}
			continue
		}
		times[rd.Category] = rd
	}

	if len(times) != 2 {
		return nil, apperrors.NewSchemaDriftErrorf(
			"expected 2 reference date categories in %s, got %d from overheaders:\n%s",
			sheetName, len(times), strings.Join(overheaders, "\n"))
	}
	return times, nil
}
