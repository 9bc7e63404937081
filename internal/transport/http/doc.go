// Package http implements the operational status API served by the
// indicator daemon. It is a thin layer between HTTP transport and the run
// coordination service, keeping handlers focused solely on HTTP concerns.
//
// # Endpoints
//
//	GET  /healthz          liveness probe with version and uptime
//	GET  /api/v1/status    current and last completed run
//	GET  /api/v1/runs      completed run history, newest first
//	GET  /api/v1/runs/{id} one run by ID
//	POST /api/v1/runs      queue an ingestion run (202 on accept)
//	GET  /metrics          Prometheus scrape endpoint
//
// # Handler Structure
//
// Handlers follow the same pattern throughout:
//
//  1. Parse and validate the request, answering RFC 7807 problems on
//     failure
//  2. Call the service layer
//  3. Render the service response with chi render
//
// Errors never carry stack traces or internals to the client; the paired
// log line under the same trace_id does.
package http
