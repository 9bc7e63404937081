package exporter

import "time"

// RunStats accumulates per-table export outcomes into the summary figures
// reported at the end of an ingestion run.
type RunStats struct {
	files  int
	latest []time.Time
}

// Observe records the outcome of one table export. Tables that exported
// nothing do not contribute.
func (s *RunStats) Observe(dates []time.Time) {
	if len(dates) == 0 {
		return
	}
	s.files += len(dates)

	newest := dates[0]
	for _, d := range dates[1:] {
		if d.After(newest) {
			newest = d
		}
	}
	s.latest = append(s.latest, newest)
}

// CSVCount returns the total number of export files written across every
// observed table.
func (s *RunStats) CSVCount() int {
	return s.files
}

// OldestFinalDate returns the oldest of the per-table newest export dates,
// the frontier date every exported signal has reached. ok is false when no
// table exported anything.
func (s *RunStats) OldestFinalDate() (time.Time, bool) {
	if len(s.latest) == 0 {
		return time.Time{}, false
	}
	oldest := s.latest[0]
	for _, d := range s.latest[1:] {
		if d.Before(oldest) {
			oldest = d
		}
	}
	return oldest, true
}

// MaxLagDays returns the age in whole days of the oldest final export date
// at now. ok is false when no table exported anything.
func (s *RunStats) MaxLagDays(now time.Time) (int, bool) {
	oldest, ok := s.OldestFinalDate()
	if !ok {
		return 0, false
	}
	return int(now.Sub(oldest).Hours() / 24), true
}
