package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cprcli/internal/errors"
)

func TestRelevantOverheader(t *testing.T) {
	tests := []struct {
		header string
		want   bool
	}{
		{"TESTING: LAST WEEK (October 24-30, Test Volume October 20-26)", true},
		{"TESTING: PREVIOUS WEEK (October 17-23)", true},
		{"VIRAL (RT-PCR) LAB TESTING: LAST WEEK (August 24-30)", true},
		{"TESTING: % CHANGE FROM PREVIOUS WEEK", false},
		{"TESTING: DEMOGRAPHIC DATA", false},
		{"HOSPITAL UTILIZATION: LAST WEEK (October 24-30)", false},
		{"", false},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, relevantOverheader(tt.header), "header %q", tt.header)
	}
}

func TestClassifyOverheaders(t *testing.T) {
	publish := day(2021, time.November, 4)
	lastHeader := "TESTING: LAST WEEK (October 24-30, Test Volume October 20-26)"
	previousHeader := "TESTING: PREVIOUS WEEK (October 17-23, Test Volume October 13-19)"

	overheaders := []string{
		"",
		lastHeader,
		"TESTING: % CHANGE FROM PREVIOUS WEEK",
		previousHeader,
		"TESTING: DEMOGRAPHIC DATA",
	}

	times, err := ClassifyOverheaders("States", overheaders, publish)
	require.NoError(t, err)
	require.Len(t, times, 2)

	require.Contains(t, times, "last")
	assert.True(t, times["last"].Equal(ReferenceDates{
		Category:   "last",
		Positivity: day(2021, time.October, 30),
		Total:      day(2021, time.October, 26),
	}), "got %s", times["last"])

	require.Contains(t, times, "previous")
	assert.True(t, times["previous"].Equal(ReferenceDates{
		Category:   "previous",
		Positivity: day(2021, time.October, 23),
		Total:      day(2021, time.October, 19),
	}), "got %s", times["previous"])
}

func TestClassifyOverheaders_RepeatedCategoryMustAgree(t *testing.T) {
	publish := day(2021, time.November, 4)
	lastHeader := "TESTING: LAST WEEK (October 24-30, Test Volume October 20-26)"
	previousHeader := "TESTING: PREVIOUS WEEK (October 17-23, Test Volume October 13-19)"

	// Same category repeating with identical dates is fine.
	times, err := ClassifyOverheaders("States",
		[]string{lastHeader, previousHeader, lastHeader}, publish)
	require.NoError(t, err)
	assert.Len(t, times, 2)

	// Same category repeating with different dates is drift.
	conflicting := "TESTING: LAST WEEK (October 17-23, Test Volume October 13-19)"
	_, err = ClassifyOverheaders("States",
		[]string{lastHeader, previousHeader, conflicting}, publish)
	require.Error(t, err)
	assert.True(t, apperrors.IsSchemaDrift(err))
	assert.Contains(t, err.Error(), "conflicting reference dates")
}

func TestClassifyOverheaders_CategoryCount(t *testing.T) {
	publish := day(2021, time.November, 4)
	lastHeader := "TESTING: LAST WEEK (October 24-30, Test Volume October 20-26)"
	previousHeader := "TESTING: PREVIOUS WEEK (October 17-23, Test Volume October 13-19)"

	tests := []struct {
		name        string
		overheaders []string
	}{
		{"no relevant overheaders", []string{"", "TESTING: DEMOGRAPHIC DATA"}},
		{"one category", []string{lastHeader}},
		{"three categories", []string{
			lastHeader,
			previousHeader,
			"TESTING: CURRENT WEEK (October 31-November 2)",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ClassifyOverheaders("States", tt.overheaders, publish)
			require.Error(t, err)
			assert.True(t, apperrors.IsSchemaDrift(err))
			assert.Contains(t, err.Error(), "expected 2 reference date categories")
		})
	}
}

func TestClassifyOverheaders_MalformedHeaderPropagates(t *testing.T) {
	_, err := ClassifyOverheaders("States",
		[]string{"TESTING: LAST WEEK (Smarch 24-30)"}, day(2021, time.November, 4))
	require.Error(t, err)
	assert.True(t, apperrors.IsSchemaDrift(err))
	assert.Contains(t, err.Error(), "bad month")
}
