package validation

import (
	"context"
	"io"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"cprcli/pkg/contracts/domain"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testChecker() *Checker {
	return NewChecker(DefaultCheckConfig(), testLogger())
}

func TestCheckTable_CleanTable(t *testing.T) {
	table := &domain.SignalTable{
		Level:  domain.LevelState,
		Signal: domain.SignalTotal,
		Rows: []domain.SignalRow{
			{GeoID: "ak", Timestamp: day(2021, time.October, 26), Val: 100},
			{GeoID: "al", Timestamp: day(2021, time.October, 26), Val: 200},
		},
	}

	report := testChecker().CheckTable(context.Background(), table)

	assert.True(t, report.OK())
	assert.Equal(t, domain.TableKey{Level: domain.LevelState, Signal: domain.SignalTotal}, report.Key)
	assert.Equal(t, 2, report.Rows)
	assert.Equal(t, 0, report.Missing)
	assert.Equal(t, SummaryStats{
		Mean:   150,
		Median: 150,
		StdDev: 50,
		Min:    100,
		Max:    200,
	}, report.Stats)
}

func TestCheckTable_PositivityBounds(t *testing.T) {
	table := &domain.SignalTable{
		Level:  domain.LevelState,
		Signal: domain.SignalPositivity,
		Rows: []domain.SignalRow{
			{GeoID: "ak", Timestamp: day(2021, time.October, 26), Val: 0.5},
			{GeoID: "al", Timestamp: day(2021, time.October, 26), Val: 1.5},
			{GeoID: "az", Timestamp: day(2021, time.October, 26), Val: -0.1},
		},
	}

	report := testChecker().CheckTable(context.Background(), table)

	assert.False(t, report.OK())
	if assert.Len(t, report.Findings, 1) {
		assert.Equal(t, "bounds", report.Findings[0].Check)
		assert.Equal(t, 2, report.Findings[0].Count)
		assert.Contains(t, report.Findings[0].Message, "[0, 1]")
	}
}

func TestCheckTable_MalformedGeoIDs(t *testing.T) {
	table := &domain.SignalTable{
		Level:  domain.LevelState,
		Signal: domain.SignalTotal,
		Rows: []domain.SignalRow{
			{GeoID: "ak", Timestamp: day(2021, time.October, 26), Val: 1},
			{GeoID: "XX", Timestamp: day(2021, time.October, 26), Val: 2},
			{GeoID: "1001", Timestamp: day(2021, time.October, 26), Val: 3},
		},
	}

	report := testChecker().CheckTable(context.Background(), table)

	assert.False(t, report.OK())
	if assert.Len(t, report.Findings, 1) {
		finding := report.Findings[0]
		assert.Equal(t, "geo_pattern", finding.Check)
		assert.Equal(t, 2, finding.Count)
		assert.Contains(t, finding.Message, "1001")
		assert.Contains(t, finding.Message, "XX")
	}
}

func TestCheckTable_ExcessMissing(t *testing.T) {
	table := &domain.SignalTable{
		Level:  domain.LevelCounty,
		Signal: domain.SignalTotal,
		Rows: []domain.SignalRow{
			{GeoID: "01001", Timestamp: day(2021, time.October, 26), Val: 70},
			{GeoID: "01003", Timestamp: day(2021, time.October, 26), Val: math.NaN()},
			{GeoID: "01005", Timestamp: day(2021, time.October, 26), Val: math.NaN()},
		},
	}

	report := testChecker().CheckTable(context.Background(), table)

	assert.False(t, report.OK())
	assert.Equal(t, 2, report.Missing)
	assert.InDelta(t, 2.0/3.0, report.MissingShare, 1e-9)
	if assert.Len(t, report.Findings, 1) {
		assert.Equal(t, "missing_share", report.Findings[0].Check)
		assert.Equal(t, 2, report.Findings[0].Count)
	}
	// The lone observed value still gets summarized.
	assert.Equal(t, 70.0, report.Stats.Mean)
}

func TestCheckTable_EmptyTable(t *testing.T) {
	table := &domain.SignalTable{Level: domain.LevelState, Signal: domain.SignalTotal}

	report := testChecker().CheckTable(context.Background(), table)

	assert.False(t, report.OK())
	assert.Equal(t, 0, report.Rows)
	if assert.Len(t, report.Findings, 1) {
		assert.Equal(t, "no_data", report.Findings[0].Check)
	}
}

func TestCheckTable_UnknownLevel(t *testing.T) {
	table := &domain.SignalTable{
		Level:  "tract",
		Signal: domain.SignalTotal,
		Rows: []domain.SignalRow{
			{GeoID: "01001020100", Timestamp: day(2021, time.October, 26), Val: 1},
		},
	}

	report := testChecker().CheckTable(context.Background(), table)

	assert.False(t, report.OK())
	if assert.Len(t, report.Findings, 1) {
		assert.Equal(t, "geo_pattern", report.Findings[0].Check)
		assert.Contains(t, report.Findings[0].Message, `"tract"`)
	}
}

func TestCheckTable_NationTable(t *testing.T) {
	table := &domain.SignalTable{
		Level:  domain.LevelNation,
		Signal: domain.SignalPositivity,
		Rows: []domain.SignalRow{
			{GeoID: "us", Timestamp: day(2021, time.October, 26), Val: 0.07},
			{GeoID: "us", Timestamp: day(2021, time.October, 19), Val: 0.08},
		},
	}

	report := testChecker().CheckTable(context.Background(), table)
	assert.True(t, report.OK())
}

func TestCheckTable_UnknownSignalBounds(t *testing.T) {
	table := &domain.SignalTable{
		Level:  domain.LevelState,
		Signal: domain.Signal("antigen"),
		Rows: []domain.SignalRow{
			{GeoID: "ak", Timestamp: day(2021, time.October, 26), Val: 1},
		},
	}

	report := testChecker().CheckTable(context.Background(), table)

	assert.False(t, report.OK())
	if assert.Len(t, report.Findings, 1) {
		assert.Equal(t, "bounds", report.Findings[0].Check)
		assert.Contains(t, report.Findings[0].Message, `"antigen"`)
	}
}

func TestCheckFreshness_FreshTable(t *testing.T) {
	table := &domain.SignalTable{
		Level:  domain.LevelState,
		Signal: domain.SignalTotal,
		Rows: []domain.SignalRow{
			{GeoID: "ak", Timestamp: day(2021, time.October, 26), Val: 100},
		},
	}

	_, stale := testChecker().CheckFreshness(context.Background(), table,
		day(2021, time.November, 4))
	assert.False(t, stale)
}

func TestCheckFreshness_StaleTable(t *testing.T) {
	table := &domain.SignalTable{
		Level:  domain.LevelState,
		Signal: domain.SignalTotal,
		Rows: []domain.SignalRow{
			{GeoID: "ak", Timestamp: day(2021, time.October, 26), Val: 100},
		},
	}

	f, stale := testChecker().CheckFreshness(context.Background(), table,
		day(2021, time.December, 1))
	assert.True(t, stale)
	assert.Equal(t, "freshness", f.Check)
	assert.Contains(t, f.Message, "2021-10-26")
}

func TestCheckFreshness_WeeklyLagEntry(t *testing.T) {
	cfg := DefaultCheckConfig()
	cfg.ExpectedLags = map[string]string{"total": "sunday+0,3"}
	checker := NewChecker(cfg, testLogger())

	table := &domain.SignalTable{
		Level:  domain.LevelState,
		Signal: domain.SignalTotal,
		Rows: []domain.SignalRow{
			// Thursday 2021-11-04: four days since Sunday plus three of
			// slack allows back to 2021-10-28.
			{GeoID: "ak", Timestamp: day(2021, time.October, 28), Val: 100},
		},
	}

	_, stale := checker.CheckFreshness(context.Background(), table,
		day(2021, time.November, 4))
	assert.False(t, stale)

	table.Rows[0].Timestamp = day(2021, time.October, 27)
	_, stale = checker.CheckFreshness(context.Background(), table,
		day(2021, time.November, 4))
	assert.True(t, stale)
}

func TestCheckFreshness_EmptyTable(t *testing.T) {
	table := &domain.SignalTable{Level: domain.LevelState, Signal: domain.SignalTotal}

	_, stale := testChecker().CheckFreshness(context.Background(), table,
		day(2021, time.November, 4))
	assert.False(t, stale)
}

func TestCheckFreshness_MalformedLagEntry(t *testing.T) {
	cfg := DefaultCheckConfig()
	cfg.ExpectedLags = map[string]string{"all": "sunday+9,1"}
	checker := NewChecker(cfg, testLogger())

	table := &domain.SignalTable{
		Level:  domain.LevelState,
		Signal: domain.SignalTotal,
		Rows: []domain.SignalRow{
			{GeoID: "ak", Timestamp: day(2021, time.October, 26), Val: 100},
		},
	}

	f, stale := checker.CheckFreshness(context.Background(), table,
		day(2021, time.November, 4))
	assert.True(t, stale)
	assert.Equal(t, "freshness", f.Check)
	assert.Contains(t, f.Message, "weekday")
}
