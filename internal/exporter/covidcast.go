package exporter

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"cprcli/internal/config"
	"cprcli/internal/infrastructure"
	"cprcli/pkg/contracts/domain"
)

// exportHeader is the covidcast column contract. Ingestion matches columns
// by name and position, so the order is fixed.
var exportHeader = []string{"geo_id", "val", "se", "sample_size"}

// SignalName returns the published name for sig, e.g. "naats_total_7dav".
// Workbook values cover trailing 7-day windows and are exported as daily
// averages, which the 7dav suffix records.
func SignalName(sig domain.Signal) string {
	return fmt.Sprintf("naats_%s_7dav", sig)
}

// FileName returns the export file name carrying one reference date of one
// (level, signal) table.
func FileName(date time.Time, level string, sig domain.Signal) string {
	return fmt.Sprintf("%s_%s_%s.csv", date.Format("20060102"), level, SignalName(sig))
}

// Exporter writes signal tables as per-date covidcast CSV files.
type Exporter struct {
	writer  *CSVWriter
	logger  *slog.Logger
	metrics *infrastructure.BusinessMetrics
}

// NewExporter creates an exporter writing into the configured export
// directory.
func NewExporter(paths *config.Paths, logger *slog.Logger) *Exporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &Exporter{
		writer: NewCSVWriter(paths),
		logger: infrastructure.WithComponent(logger, "exporter"),
	}
}

// WithMetrics attaches business metrics instrumentation.
func (e *Exporter) WithMetrics(m *infrastructure.BusinessMetrics) *Exporter {
	e.metrics = m
	return e
}

// Export writes one CSV file per reference date of table, restricted to
// dates within [start, end]. A zero start or end leaves that side of the
// window unbounded. Rows without an observation are dropped; a reference
// date whose rows are all missing produces no file. Within a file, rows are
// ordered by geo id, preserving arrival order between duplicates so later
// revisions of a geography follow earlier ones.
//
// Returns the exported reference dates in ascending order.
func (e *Exporter) Export(ctx context.Context, table *domain.SignalTable, start, end time.Time) ([]time.Time, error) {
	began := time.Now()

	byDate := make(map[time.Time][]domain.SignalRow)
	dropped := 0
	for _, row := range table.Rows {
		if !row.HasValue() {
			dropped++
			continue
		}
		if !start.IsZero() && row.Timestamp.Before(start) {
			continue
		}
		if !end.IsZero() && row.Timestamp.After(end) {
			continue
		}
		byDate[row.Timestamp] = append(byDate[row.Timestamp], row)
	}

	dates := make([]time.Time, 0, len(byDate))
	for date := range byDate {
		dates = append(dates, date)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	rows := 0
	for _, date := range dates {
		day := byDate[date]
		sort.SliceStable(day, func(i, j int) bool { return day[i].GeoID < day[j].GeoID })

		records := make([][]string, 0, len(day))
		for _, row := range day {
			records = append(records, []string{
				row.GeoID,
				formatValue(row.Val),
				formatOptional(row.Se),
				formatOptional(row.SampleSize),
			})
		}

		name := FileName(date, table.Level, table.Signal)
		if err := e.writer.WriteCSV(name, exportHeader, records); err != nil {
			return nil, fmt.Errorf("failed to write %s: %w", name, err)
		}
		rows += len(records)

		e.logger.DebugContext(ctx, "export file written",
			slog.String("file", name),
			slog.Int("rows", len(records)))
	}

	infrastructure.RecordExport(ctx, e.metrics, int64(len(dates)), time.Since(began))
	e.logger.InfoContext(ctx, "signal table exported",
		slog.String("level", table.Level),
		slog.String("signal", SignalName(table.Signal)),
		slog.Int("files", len(dates)),
		slog.Int("rows", rows),
		slog.Int("rows_missing", dropped))

	return dates, nil
}
