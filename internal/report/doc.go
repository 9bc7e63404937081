// Package report parses Community Profile Report workbooks into normalized
// signal tables. It is the schema-brittle core of the pipeline: the workbooks
// are un-versioned and their wording drifts release to release, so every
// fixed assumption lives here as a named pattern, and anything that does not
// match fails hard instead of guessing.
//
// # Architecture
//
// Parsing one sheet runs in three stages:
//
// 1. ClassifyOverheaders reads the group-header row and resolves the
// reference-date ranges encoded in free text such as
// "TESTING: LAST WEEK (October 24-30, Test Volume October 20-26)".
//
// 2. SelectColumns reads the detail-header row and picks out the columns
// that carry recognized signals, pairing each with the date category its
// values refer to.
//
// 3. ExtractSheet materializes one SignalTable per (geography level, signal)
// from the raw cell grid, applying the sheet's row filter and geo-id
// transforms and converting the 7-day total to a daily average.
//
// The Assembler drives those stages across every configured sheet of every
// report file in a batch, merges like tables in file order, and derives the
// nation-level tables from the state tables.
//
// # Error Handling
//
// Structural surprises are never recovered from: a header that fails its
// template, a sheet with the wrong number of date categories, a missing
// signal column, or a filename without a publish date each abort that file
// with a typed error naming the offending text. A drifted report means the
// vendor changed the format, and guessing would corrupt downstream
// statistics silently.
package report
