package report

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	apperrors "cprcli/internal/errors"
	"cprcli/pkg/contracts/domain"
)

// The workbook encodes dates in two places: the publish date lives in the
// file name as a YYYYMMDD digit group, and the reference dates live in the
// group headers as prose. Each fixed template is a named pattern so the
// vendor phrasing it encodes stays visible and testable.
var (
	// reDateFromFilename extracts the publish date digit groups from a
	// report filename, e.g. "Community Profile Report 20211104.xlsx".
	reDateFromFilename = regexp.MustCompile(`.*([0-9]{4})([0-9]{2})([0-9]{2}).*xlsx`)

	// reDateFromHeader matches the weekly date-range overheaders, e.g.
	// "TESTING: LAST WEEK (October 24-30, Test Volume October 20-26)" or
	// "TESTING: PREVIOUS WEEK (October 17-23, Test Volume October 13-19)".
	// Month names are optional on any endpoint; the "Test Volume" range is
	// optional as a whole.
	reDateFromHeader = regexp.MustCompile(
		`.*TESTING: (.*) WEEK \(` + dateRangeExp + `(?:, Test Volume (` + dateRangeExp + `))? *\)`)

	// reColumnFromHeader extracts the relative-week qualifier from a detail
	// header, e.g. "last" out of
	// "NAAT positivity rate - last 7 days (may be an underestimate ...)".
	reColumnFromHeader = regexp.MustCompile(`- (.*) 7 days`)
)

const (
	dateExp      = `(?:([A-Za-z]*) )?([0-9]{1,2})`
	dateRangeExp = dateExp + `-` + dateExp
)

// Submatch layout of reDateFromHeader. The first range carries the
// positivity reference date, the optional "Test Volume" range the total one.
const (
	hdrCategory = iota + 1
	hdrStartMonth
	hdrStartDay
	hdrEndMonth
	hdrEndDay
	hdrVolumeRange
	hdrVolumeStartMonth
	hdrVolumeStartDay
	hdrVolumeEndMonth
	hdrVolumeEndDay
)

// ReferenceDates holds the resolved reference dates of one overheader
// category. Within a sheet the same category may appear on several
// overheaders; all occurrences must agree.
type ReferenceDates struct {
	// Category is the lowercase relative-week key from the header,
	// "last" or "previous" in production reports.
	Category string `json:"category"`
	// Positivity is the date positivity-rate values refer to.
	Positivity time.Time `json:"positivity_reference_date"`
	// Total is the date test-volume values refer to. Equal to Positivity
	// when the header carries a single range.
	Total time.Time `json:"total_reference_date"`
}

// ForSignal returns the reference date the given signal's values describe.
func (rd ReferenceDates) ForSignal(sig domain.Signal) (time.Time, error) {
	switch sig {
	case domain.SignalPositivity:
		return rd.Positivity, nil
	case domain.SignalTotal:
		return rd.Total, nil
	}
	return time.Time{}, apperrors.NewValidationError(fmt.Sprintf(
		"bad reference date type request %q; need %q or %q",
		sig, domain.SignalTotal, domain.SignalPositivity))
}

// Equal compares by value.
func (rd ReferenceDates) Equal(other ReferenceDates) bool {
	return rd.Category == other.Category &&
		rd.Positivity.Equal(other.Positivity) &&
		rd.Total.Equal(other.Total)
}

func (rd ReferenceDates) String() string {
	return fmt.Sprintf("%s(positivity=%s total=%s)",
		rd.Category,
		rd.Positivity.Format("2006-01-02"),
		rd.Total.Format("2006-01-02"))
}

// ParseReferenceDates parses one weekly overheader into its category and
// reference dates. The header carries no year, so the year comes from the
// report's publish date: a parsed month numerically greater than the publish
// month means the range fell in the previous calendar year.
func ParseReferenceDates(header string, publishDate time.Time) (ReferenceDates, error) {
	m := reDateFromHeader.FindStringSubmatch(header)
	if m == nil {
		return ReferenceDates{}, apperrors.NewSchemaDriftErrorf(
			"couldn't find reference date in header %q", header)
	}

	// The month may appear on any endpoint of either range but is only
	// required once per header: an endpoint without its own month shares
	// the start of its range, and a range without any month shares the
	// sibling range's month.
	volumePresent := m[hdrVolumeRange] != ""
	firstMonth := pick(m[hdrEndMonth], m[hdrStartMonth])
	volumeMonth := ""
	if volumePresent {
		volumeMonth = pick(m[hdrVolumeEndMonth], m[hdrVolumeStartMonth])
		if firstMonth == "" {
			firstMonth = volumeMonth
		}
		if volumeMonth == "" {
			volumeMonth = firstMonth
		}
	}
	if firstMonth == "" {
		return ReferenceDates{}, apperrors.NewSchemaDriftErrorf(
			"no month in header %q", header)
	}

	positivity, err := resolveDate(firstMonth, m[hdrEndDay], publishDate, header)
	if err != nil {
		return ReferenceDates{}, err
	}

	total := positivity
	if volumePresent {
		// Reports published starting 2021-03-17 specify different
		// reference dates for positivity and total test volume.
		total, err = resolveDate(volumeMonth, m[hdrVolumeEndDay], publishDate, header)
		if err != nil {
			return ReferenceDates{}, err
		}
	}

	return ReferenceDates{
		Category:   strings.ToLower(m[hdrCategory]),
		Positivity: positivity,
		Total:      total,
	}, nil
}

// resolveDate turns a month name and day into a calendar date, inferring the
// year from the publish date. Dates that do not exist on the calendar are
// schema drift, not normalized.
func resolveDate(monthName, dayStr string, publishDate time.Time, header string) (time.Time, error) {
	month, ok := monthByName(monthName)
	if !ok {
		return time.Time{}, apperrors.NewSchemaDriftErrorf(
			"bad month %q in header %q", monthName, header)
	}

	day, err := strconv.Atoi(dayStr)
	if err != nil {
		return time.Time{}, apperrors.NewSchemaDriftErrorf(
			"bad day %q in header %q", dayStr, header)
	}

	year := publishDate.Year()
	if month > publishDate.Month() {
		year--
	}

	date := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	if date.Month() != month || date.Day() != day {
		return time.Time{}, apperrors.NewSchemaDriftErrorf(
			"day %d does not exist in %s %d (header %q)", day, month, year, header)
	}
	return date, nil
}

// monthByName resolves a full English month name case-insensitively.
func monthByName(name string) (time.Month, bool) {
	for m := time.January; m <= time.December; m++ {
		if strings.EqualFold(name, m.String()) {
			return m, true
		}
	}
	return 0, false
}

func pick(first, second string) string {
	if first != "" {
		return first
	}
	return second
}
