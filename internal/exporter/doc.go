// Package exporter writes extracted signal tables as covidcast-format CSV
// files under the configured export directory.
//
// This package contains three main components:
//
// CSVWriter: Core CSV writing with directory creation and whole-file
// replacement. Export files are plain UTF-8 without a byte order mark.
//
// Exporter: Splits one signal table into per-reference-date files named
// {YYYYMMDD}_{geo}_{signal}.csv with the fixed column set geo_id, val, se,
// sample_size. Rows without an observation are dropped.
//
// RunStats: Accumulates per-table export outcomes into the summary figures
// (file count, oldest final export date, maximum lag) logged at the end of
// an ingestion run.
//
// Example usage:
//
//	exp := exporter.NewExporter(paths, logger)
//
//	var stats exporter.RunStats
//	for _, table := range tables {
//		dates, err := exp.Export(ctx, table, start, end)
//		if err != nil {
//			return err
//		}
//		stats.Observe(dates)
//	}
package exporter
