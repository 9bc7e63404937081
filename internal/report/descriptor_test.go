package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "cprcli/internal/errors"
)

func TestParsePublishDate(t *testing.T) {
	tests := []struct {
		name     string
		filename string
		want     time.Time
	}{
		{
			name:     "standard report name",
			filename: "Community Profile Report 20211104.xlsx",
			want:     day(2021, time.November, 4),
		},
		{
			name:     "date buried mid name",
			filename: "Community_Profile_Report_20210103_Public.xlsx",
			want:     day(2021, time.January, 3),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePublishDate(tt.filename)
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestParsePublishDate_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		filename string
	}{
		{"no digits at all", "Community Profile Report.xlsx"},
		{"wrong extension", "Community Profile Report 20211104.pdf"},
		{"too few digits", "Community Profile Report 202111.xlsx"},
		{"month out of range", "Community Profile Report 20211399.xlsx"},
		{"day not on the calendar", "Community Profile Report 20210230.xlsx"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePublishDate(tt.filename)
			require.Error(t, err)
			assert.True(t, apperrors.IsInputIdentity(err), "want input identity error, got %v", err)
		})
	}
}

func TestNewReportFile(t *testing.T) {
	file, err := NewReportFile("Community Profile Report 20211104.xlsx", "abcd-1234")
	require.NoError(t, err)

	assert.Equal(t, "Community Profile Report 20211104.xlsx", file.Filename)
	assert.Equal(t, "abcd-1234", file.AssetID)
	assert.True(t, day(2021, time.November, 4).Equal(file.PublishDate))
	assert.Equal(t, "abcd-1234--Community Profile Report 20211104.xlsx", file.CacheName())

	_, err = NewReportFile("notes.txt", "abcd-1234")
	require.Error(t, err)
	assert.True(t, apperrors.IsInputIdentity(err))
}
