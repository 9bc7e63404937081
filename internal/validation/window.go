package validation

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "cprcli/internal/errors"
)

// TimeWindow is an inclusive span of days ending on End.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// NewTimeWindow returns the window of spanDays days ending on end. A span
// of zero is the single day end.
func NewTimeWindow(end time.Time, spanDays int) (TimeWindow, error) {
	if spanDays < 0 {
		return TimeWindow{}, apperrors.NewValidationError(
			fmt.Sprintf("window span must be non-negative, got %d", spanDays))
	}
	return TimeWindow{
		Start: end.AddDate(0, 0, -spanDays),
		End:   end,
	}, nil
}

// ParseTimeWindow resolves an end-date spec against now and returns the
// spanDays window ending there. The spec is "today", "today-N" for N days
// back from now, or a YYYY-MM-DD date. The reference day is an argument so
// callers state it instead of the clock being read here.
func ParseTimeWindow(endSpec string, spanDays int, now time.Time) (TimeWindow, error) {
	end, err := parseEndDate(endSpec, now)
	if err != nil {
		return TimeWindow{}, err
	}
	return NewTimeWindow(end, spanDays)
}

func parseEndDate(spec string, now time.Time) (time.Time, error) {
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	if spec == "today" {
		return today, nil
	}
	if strings.HasPrefix(spec, "today-") {
		back, err := strconv.Atoi(strings.TrimPrefix(spec, "today-"))
		if err != nil || back < 0 {
			return time.Time{}, apperrors.NewValidationError(
				fmt.Sprintf("bad relative end date %q: want today-N", spec))
		}
		return today.AddDate(0, 0, -back), nil
	}

	end, err := time.Parse("2006-01-02", spec)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError(
			fmt.Sprintf("bad end date %q: want YYYY-MM-DD, today, or today-N", spec))
	}
	return end, nil
}

// Days lists every day of the window in ascending order, both endpoints
// included.
func (w TimeWindow) Days() []time.Time {
	var days []time.Time
	for d := w.Start; !d.After(w.End); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

// Contains reports whether t falls inside the window.
func (w TimeWindow) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// SpanDays returns the number of days between the endpoints.
func (w TimeWindow) SpanDays() int {
	return int(w.End.Sub(w.Start).Hours() / 24)
}
