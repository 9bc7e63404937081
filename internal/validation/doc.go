// Package validation holds the sanity layer around an ingestion run:
// filesystem preflight for the cache and export directories, plausibility
// checks over extracted signal tables, and the helpers that resolve
// expected-lag configuration and time windows for those checks.
package validation
