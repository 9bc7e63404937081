package report

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	apperrors "cprcli/internal/errors"
	"cprcli/pkg/contracts/domain"
)

// Fixture headers shared across the extraction tests, phrased the way the
// published workbooks phrase them.
const (
	lastWeekOverheader     = "TESTING: LAST WEEK (October 24-30, Test Volume October 20-26)"
	previousWeekOverheader = "TESTING: PREVIOUS WEEK (October 17-23, Test Volume October 13-19)"

	totalLastHeader          = "Total NAATs - last 7 days (may be an underestimate due to delayed reporting)"
	totalPreviousHeader      = "Total NAATs - previous 7 days (may be an underestimate due to delayed reporting)"
	positivityLastHeader     = "NAAT positivity rate - last 7 days (may be an underestimate due to delayed reporting)"
	positivityPreviousHeader = "NAAT positivity rate - previous 7 days (may be an underestimate due to delayed reporting)"
)

// writeWorkbook writes grid into a single-sheet workbook at path. Nil cells
// are left unmaterialized, the way sparse report sheets come back.
func writeWorkbook(t *testing.T, path, sheetName string, grid [][]interface{}) {
	t.Helper()

	f := excelize.NewFile()
	f.SetSheetName(f.GetSheetName(0), sheetName)

	for r, rowVals := range grid {
		for c, v := range rowVals {
			if v == nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			require.NoError(t, err)
			require.NoError(t, f.SetCellValue(sheetName, cell, v))
		}
	}

	require.NoError(t, f.SaveAs(path))
}

func statesRawSheet(dataRows [][]string) *RawSheet {
	return &RawSheet{
		Name: "States",
		Overheaders: []string{
			"", lastWeekOverheader, "TESTING: % CHANGE FROM PREVIOUS WEEK", previousWeekOverheader,
		},
		Data: NewSheetData(
			[]string{"State Abbreviation", totalLastHeader, totalPreviousHeader, positivityLastHeader, positivityPreviousHeader},
			dataRows),
	}
}

func TestExtractSheet_States(t *testing.T) {
	raw := statesRawSheet([][]string{
		{"AK", "700", "1400", "0.05", "0.06"},
		{"AL", "70", "140", "0.07", ""},
	})
	spec, ok := SheetByName("States")
	require.True(t, ok)

	tables, err := ExtractSheet(raw, spec, day(2021, time.November, 4), domain.Signals())
	require.NoError(t, err)
	require.Len(t, tables, 2)

	total := tables[domain.TableKey{Level: domain.LevelState, Signal: domain.SignalTotal}]
	require.NotNil(t, total)
	assert.Equal(t, domain.LevelState, total.Level)
	assert.Equal(t, domain.SignalTotal, total.Signal)

	// Values come out divided by seven, dated by the test-volume range, in
	// column-then-row order.
	assert.Equal(t, []domain.SignalRow{
		{GeoID: "ak", Timestamp: day(2021, time.October, 26), Val: 100},
		{GeoID: "al", Timestamp: day(2021, time.October, 26), Val: 10},
		{GeoID: "ak", Timestamp: day(2021, time.October, 19), Val: 200},
		{GeoID: "al", Timestamp: day(2021, time.October, 19), Val: 20},
	}, total.Rows)

	positivity := tables[domain.TableKey{Level: domain.LevelState, Signal: domain.SignalPositivity}]
	require.NotNil(t, positivity)
	require.Len(t, positivity.Rows, 4)

	assert.Equal(t, []domain.SignalRow{
		{GeoID: "ak", Timestamp: day(2021, time.October, 30), Val: 0.05},
		{GeoID: "al", Timestamp: day(2021, time.October, 30), Val: 0.07},
		{GeoID: "ak", Timestamp: day(2021, time.October, 23), Val: 0.06},
	}, positivity.Rows[:3])

	// The blank AL cell is a missing observation, not an error.
	missing := positivity.Rows[3]
	assert.Equal(t, "al", missing.GeoID)
	assert.True(t, day(2021, time.October, 23).Equal(missing.Timestamp))
	assert.True(t, math.IsNaN(missing.Val))
	assert.False(t, missing.HasValue())
}

func TestExtractSheet_NonNumericCellsAreMissing(t *testing.T) {
	raw := statesRawSheet([][]string{
		{"AK", "suppressed", "1400", "0.05", "0.06"},
	})
	spec, _ := SheetByName("States")

	tables, err := ExtractSheet(raw, spec, day(2021, time.November, 4), domain.Signals())
	require.NoError(t, err)

	total := tables[domain.TableKey{Level: domain.LevelState, Signal: domain.SignalTotal}]
	require.Len(t, total.Rows, 2)
	assert.True(t, math.IsNaN(total.Rows[0].Val))
	assert.Equal(t, 200.0, total.Rows[1].Val)
}

func TestExtractSheet_MetropolitanOnly(t *testing.T) {
	raw := &RawSheet{
		Name:        "CBSAs",
		Overheaders: []string{"", lastWeekOverheader, previousWeekOverheader},
		Data: NewSheetData(
			[]string{"CBSA", "CBSA title", "CBSA type", totalLastHeader, positivityLastHeader},
			[][]string{
				{"10180", "Abilene, TX", "Metropolitan", "70", "0.01"},
				{"10300", "Adrian, MI", "Micropolitan", "700", "0.02"},
			}),
	}
	spec, ok := SheetByName("CBSAs")
	require.True(t, ok)

	tables, err := ExtractSheet(raw, spec, day(2021, time.November, 4), domain.Signals())
	require.NoError(t, err)

	total := tables[domain.TableKey{Level: domain.LevelMSA, Signal: domain.SignalTotal}]
	require.NotNil(t, total)
	assert.Equal(t, []domain.SignalRow{
		{GeoID: "10180", Timestamp: day(2021, time.October, 26), Val: 10},
	}, total.Rows)

	positivity := tables[domain.TableKey{Level: domain.LevelMSA, Signal: domain.SignalPositivity}]
	require.NotNil(t, positivity)
	assert.Equal(t, []domain.SignalRow{
		{GeoID: "10180", Timestamp: day(2021, time.October, 30), Val: 0.01},
	}, positivity.Rows)
}

func TestExtractSheet_MissingRequiredColumn(t *testing.T) {
	raw := &RawSheet{
		Name:        "CBSAs",
		Overheaders: []string{"", lastWeekOverheader, previousWeekOverheader},
		Data: NewSheetData(
			[]string{"CBSA", "CBSA title", totalLastHeader, positivityLastHeader},
			[][]string{{"10180", "Abilene, TX", "70", "0.01"}}),
	}
	spec, _ := SheetByName("CBSAs")

	_, err := ExtractSheet(raw, spec, day(2021, time.November, 4), domain.Signals())
	require.Error(t, err)
	assert.True(t, apperrors.IsSchemaDrift(err))
	assert.Contains(t, err.Error(), `missing required column "CBSA type"`)
}

func TestExtractSheet_UnknownDateCategory(t *testing.T) {
	raw := &RawSheet{
		Name:        "States",
		Overheaders: []string{"", lastWeekOverheader, previousWeekOverheader},
		Data: NewSheetData(
			[]string{
				"State Abbreviation",
				"Total NAATs - recent 7 days (may be an underestimate due to delayed reporting)",
				positivityLastHeader,
			},
			[][]string{{"AK", "7", "0.05"}}),
	}
	spec, _ := SheetByName("States")

	_, err := ExtractSheet(raw, spec, day(2021, time.November, 4), domain.Signals())
	require.Error(t, err)
	assert.True(t, apperrors.IsSchemaDrift(err))
	assert.Contains(t, err.Error(), `unknown date category "recent"`)
}

func TestExtractSheet_ClassificationErrors(t *testing.T) {
	spec, _ := SheetByName("States")

	raw := statesRawSheet([][]string{{"AK", "700", "1400", "0.05", "0.06"}})
	raw.Overheaders = []string{"", lastWeekOverheader}

	_, err := ExtractSheet(raw, spec, day(2021, time.November, 4), domain.Signals())
	require.Error(t, err)
	assert.True(t, apperrors.IsSchemaDrift(err))
	assert.Contains(t, err.Error(), "expected 2 reference date categories")

	raw = &RawSheet{
		Name:        "States",
		Overheaders: []string{"", lastWeekOverheader, previousWeekOverheader},
		Data: NewSheetData(
			[]string{"State Abbreviation", positivityLastHeader},
			[][]string{{"AK", "0.05"}}),
	}
	_, err = ExtractSheet(raw, spec, day(2021, time.November, 4), domain.Signals())
	require.Error(t, err)
	assert.True(t, apperrors.IsSchemaDrift(err))
	assert.Contains(t, err.Error(), "no total column")
}

func TestWorkbookRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Community Profile Report 20211104.xlsx")
	writeWorkbook(t, path, "States", [][]interface{}{
		{nil, lastWeekOverheader, nil, previousWeekOverheader},
		{"State Abbreviation", totalLastHeader, totalPreviousHeader, positivityLastHeader, positivityPreviousHeader},
		{"AK", 700, 1400, 0.05, 0.06},
		{"AL", 70, 140, 0.07, nil},
	})

	w, err := OpenWorkbook(path)
	require.NoError(t, err)
	defer w.Close()

	assert.Contains(t, w.SheetNames(), "States")

	raw, err := w.ReadSheet("States")
	require.NoError(t, err)
	assert.Equal(t, "States", raw.Name)
	assert.Contains(t, raw.Overheaders, lastWeekOverheader)
	assert.Equal(t, []string{totalLastHeader, totalPreviousHeader, positivityLastHeader, positivityPreviousHeader},
		raw.Data.Headers)

	spec, _ := SheetByName("States")
	tables, err := ExtractSheet(raw, spec, day(2021, time.November, 4), domain.Signals())
	require.NoError(t, err)

	total := tables[domain.TableKey{Level: domain.LevelState, Signal: domain.SignalTotal}]
	require.NotNil(t, total)
	assert.Equal(t, []domain.SignalRow{
		{GeoID: "ak", Timestamp: day(2021, time.October, 26), Val: 100},
		{GeoID: "al", Timestamp: day(2021, time.October, 26), Val: 10},
		{GeoID: "ak", Timestamp: day(2021, time.October, 19), Val: 200},
		{GeoID: "al", Timestamp: day(2021, time.October, 19), Val: 20},
	}, total.Rows)

	_, err = w.ReadSheet("Hospitals")
	require.Error(t, err)
	assert.True(t, apperrors.IsSchemaDrift(err))
}

func TestReadSheet_NoHeaderRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Community Profile Report 20211104.xlsx")
	writeWorkbook(t, path, "States", [][]interface{}{{"only one row"}})

	w, err := OpenWorkbook(path)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.ReadSheet("States")
	require.Error(t, err)
	assert.True(t, apperrors.IsSchemaDrift(err))
	assert.Contains(t, err.Error(), "no header rows")
}

func TestOpenWorkbook_Unreadable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "Community Profile Report 20211104.xlsx")
	require.NoError(t, os.WriteFile(path, []byte("not a workbook"), 0o644))

	_, err := OpenWorkbook(path)
	require.Error(t, err)
	assert.True(t, apperrors.IsRetrieval(err), "want retrieval error, got %v", err)
}
