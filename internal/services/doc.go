// Package services holds the coordination layer between the status API and
// the ingestion pipeline. The pipeline itself (fetch, extract, export) lives
// in its own packages; this one only tracks run lifecycle so the daemon loop
// and the HTTP transport never share mutable state directly.
//
// The central type is RunService: HTTP handlers ask it to queue a run and
// read snapshots of current and past runs, while the daemon loop consumes
// queued triggers and reports run boundaries back. All snapshot reads return
// copies, so callers can hold them across requests without locking.
package services
