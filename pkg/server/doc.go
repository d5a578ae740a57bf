// Package server provides the HTTP API of the exporter.
//
// The server is the network counterpart of the CLI: a client POSTs a JSON
// array of records and receives the encoded artifact as an attachment, the
// same bytes a dashboard user gets from the browser download.
//
// # Routes
//
//	POST /v1/exports/{format}   export the request body (json, csv, pdf)
//	GET  /v1/exports            list export history
//	GET  /v1/exports/{id}       one history entry
//	GET  /healthz               liveness check
//	GET  /readyz                readiness check
//	GET  /version               build information
//	GET  /metrics               Prometheus metrics (path configurable)
//
// The history routes exist only when a history store is configured.
//
// # Export requests
//
// The optional "filename" query parameter sets the artifact base name. The
// body must be a JSON array of objects; anything else is rejected with 400
// before the format is looked at, matching the dispatcher's order of checks.
//
//	curl -X POST 'http://localhost:8080/v1/exports/csv?filename=bookings' \
//	    -H 'Content-Type: application/json' \
//	    -d '[{"id":1,"vehicle":"Kia Ceed"}]' -OJ
//
// Errors are returned as JSON:
//
//	{"error": {"type": "unsupported_format", "message": "unsupported format \"xml\" ..."}}
//
// Status codes:
//   - 400 invalid_input, unsupported_format, bad query parameters
//   - 401 unauthorized (API key missing or unknown)
//   - 413 request body larger than server.max_body_bytes
//   - 429 rate limited (Retry-After is set)
//   - 500 encode_error
//
// # Middleware
//
// Every request passes through recovery, request ID (X-Request-ID), trace
// context extraction, access logging and HTTP metrics. The export route is
// additionally rate limited by a token bucket.
//
// # Authentication
//
// With Auth.Enabled every /v1 route requires an API key, by default as
// "Authorization: Bearer <key>". Health checks, /version and metrics stay open so
// orchestrators can reach them. The client name of the matched key is
// available to handlers through ClientFrom.
//
// # TLS
//
// With TLS.Enabled the listener serves HTTPS. The certificate and key are
// reloaded when either file is replaced, so renewals need no restart.
//
// # Lifecycle
//
// Start blocks until ctx is cancelled or Shutdown is called, then drains
// in-flight requests for at most ShutdownTimeout.
package server
