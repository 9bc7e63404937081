// Package app wires the indicator pipeline together: configuration, logging,
// observability, the catalog client, the report assembler, the exporter, and
// the optional status server. It owns the daemon loop that turns scheduled
// ticks and API triggers into ingestion runs; everything the loop coordinates
// lives in its own package.
package app
