package validation

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "cprcli/internal/errors"
)

// weeklyLagPrefix marks a lag entry anchored to a weekly upload instead of
// a fixed day count.
const weeklyLagPrefix = "sunday+"

// ConvertLagMap resolves the expected reporting lag in days for each
// signal. Entry keys are signal names or "all"; values are either a plain
// day count or "sunday+D,N" for sources uploading weekly on weekday D
// (0 = Sunday) with N days of slack after the upload. A signal without its
// own entry falls back to the "all" entry, and to defaultLag when there is
// no "all" entry either. Weekly anchors are resolved against now; both
// fallbacks are arguments so the caller states its defaults.
//
// Every entry must parse, including entries for signals outside signals;
// a malformed value anywhere in the map is an error.
func ConvertLagMap(entries map[string]string, signals []string, defaultLag int, now time.Time) (map[string]int, error) {
	parsed := make(map[string]int, len(entries))

	keys := make([]string, 0, len(entries))
	for key := range entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		lag, err := interpretLag(entries[key], now)
		if err != nil {
			return nil, apperrors.NewValidationError(
				fmt.Sprintf("lag entry %q: %s", key, err))
		}
		parsed[key] = lag
	}

	out := make(map[string]int, len(signals))
	for _, sig := range signals {
		switch {
		case hasKey(parsed, sig):
			out[sig] = parsed[sig]
		case hasKey(parsed, "all"):
			out[sig] = parsed["all"]
		default:
			out[sig] = defaultLag
		}
	}
	return out, nil
}

func hasKey(m map[string]int, key string) bool {
	_, ok := m[key]
	return ok
}

// interpretLag parses one lag value, either a day count or a weekly
// anchor.
func interpretLag(value string, now time.Time) (int, error) {
	if !strings.HasPrefix(value, weeklyLagPrefix) {
		n, err := strconv.Atoi(value)
		if err != nil {
			return 0, fmt.Errorf("want a day count or %sD,N, got %q", weeklyLagPrefix, value)
		}
		return n, nil
	}

	rest := strings.TrimPrefix(value, weeklyLagPrefix)
	dayPart, slackPart, ok := strings.Cut(rest, ",")
	if !ok {
		return 0, fmt.Errorf("want %sD,N, got %q", weeklyLagPrefix, value)
	}
	uploadDay, err := strconv.Atoi(dayPart)
	if err != nil || uploadDay < 0 || uploadDay > 7 {
		return 0, fmt.Errorf("upload weekday %q must be 0 through 7", dayPart)
	}
	slack, err := strconv.Atoi(slackPart)
	if err != nil || slack < 0 {
		return 0, fmt.Errorf("upload slack %q must be a non-negative day count", slackPart)
	}

	// Days since the last upload weekday, the day after upload counting
	// as one.
	sinceUpload := mod7(isoWeekday(now)-uploadDay-1) + 1
	return sinceUpload + slack, nil
}

// isoWeekday returns the weekday with Monday as 1 and Sunday as 7.
func isoWeekday(t time.Time) int {
	wd := int(t.Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func mod7(x int) int {
	return ((x % 7) + 7) % 7
}
