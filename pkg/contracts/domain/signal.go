package domain

import (
	"math"
	"time"
)

// Signal identifies one of the weekly testing measures published in a
// Community Profile Report workbook.
type Signal string

const (
	// SignalTotal is the 7-day total of nucleic acid amplification tests,
	// exported as a daily average.
	SignalTotal Signal = "total"
	// SignalPositivity is the 7-day NAAT positivity rate.
	SignalPositivity Signal = "positivity"
)

// Signals returns every extractable signal in export order.
func Signals() []Signal {
	return []Signal{SignalTotal, SignalPositivity}
}

// IsValid reports whether s names a known signal.
func (s Signal) IsValid() bool {
	switch s {
	case SignalTotal, SignalPositivity:
		return true
	}
	return false
}

// String returns the signal name as used in export file names.
func (s Signal) String() string {
	return string(s)
}

// SignalRow is a single observation: one geography, one reference date,
// one value. Val is NaN when the source cell was empty or non-numeric.
// Se and SampleSize are carried for the export format and stay nil until
// a downstream step fills them.
type SignalRow struct {
	GeoID      string    `json:"geo_id"`
	Timestamp  time.Time `json:"timestamp"`
	Val        float64   `json:"val"`
	Se         *float64  `json:"se,omitempty"`
	SampleSize *float64  `json:"sample_size,omitempty"`
}

// HasValue reports whether the row carries a real observation.
func (r SignalRow) HasValue() bool {
	return !math.IsNaN(r.Val)
}

// SignalTable holds every extracted row for one (geography level, signal)
// pair. Rows from several sheets and several report files accumulate into
// the same table in file order.
type SignalTable struct {
	Level  string      `json:"level"`
	Signal Signal      `json:"signal"`
	Rows   []SignalRow `json:"rows"`
}

// TableKey identifies a SignalTable within a batch result.
type TableKey struct {
	Level  string `json:"level"`
	Signal Signal `json:"signal"`
}

// Key returns the identifying (level, signal) pair.
func (t *SignalTable) Key() TableKey {
	return TableKey{Level: t.Level, Signal: t.Signal}
}

// Append adds rows to the table, preserving arrival order.
func (t *SignalTable) Append(rows ...SignalRow) {
	t.Rows = append(t.Rows, rows...)
}

// Merge appends every row of other into t. The caller is responsible for
// only merging tables with the same key.
func (t *SignalTable) Merge(other *SignalTable) {
	if other == nil {
		return
	}
	t.Rows = append(t.Rows, other.Rows...)
}

// Clone returns a deep copy of the table. Pointer fields are duplicated so
// mutations of the copy never reach the original.
func (t *SignalTable) Clone() *SignalTable {
	if t == nil {
		return nil
	}
	out := &SignalTable{Level: t.Level, Signal: t.Signal}
	if t.Rows != nil {
		out.Rows = make([]SignalRow, len(t.Rows))
		for i, r := range t.Rows {
			cp := r
			if r.Se != nil {
				se := *r.Se
				cp.Se = &se
			}
			if r.SampleSize != nil {
				n := *r.SampleSize
				cp.SampleSize = &n
			}
			out.Rows[i] = cp
		}
	}
	return out
}

// ReferenceDates returns the distinct reference dates present in the table,
// sorted ascending.
func (t *SignalTable) ReferenceDates() []time.Time {
	seen := make(map[time.Time]struct{}, 4)
	var dates []time.Time
	for _, r := range t.Rows {
		if _, ok := seen[r.Timestamp]; ok {
			continue
		}
		seen[r.Timestamp] = struct{}{}
		dates = append(dates, r.Timestamp)
	}
	for i := 1; i < len(dates); i++ {
		for j := i; j > 0 && dates[j].Before(dates[j-1]); j-- {
			dates[j], dates[j-1] = dates[j-1], dates[j]
		}
	}
	return dates
}
