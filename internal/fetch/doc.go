// Package fetch retrieves Community Profile Report workbooks from the
// healthdata.gov catalog.
//
// The catalog is a Socrata view whose metadata lists one attachment per
// published workbook. ListReports resolves that listing into typed report
// descriptors and applies the configured selector; EnsureCached fills the
// local cache one attachment at a time, so reruns never download the same
// bytes twice. All catalog traffic flows through one shared rate limiter.
package fetch
