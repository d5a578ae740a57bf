// Package telemetry groups the exporter's observability packages.
//
//   - logging: slog handler with context fields and PII redaction
//   - metrics: Prometheus collector fed by export outcomes and the API
//   - tracing: OpenTelemetry provider and W3C propagation
//   - health: liveness, readiness and version endpoints
package telemetry
