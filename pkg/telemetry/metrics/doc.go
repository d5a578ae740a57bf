// Package metrics provides Prometheus metrics for the exporter.
//
// # Metrics
//
//   - exporter_exports_total{format,status,source}: finished export calls
//   - exporter_export_duration_seconds{format}: encode plus delivery time
//   - exporter_export_bytes{format}: artifact size
//   - exporter_export_records{format}: records per export
//   - exporter_http_requests_total{route,method,code}: API requests
//   - exporter_http_request_duration_seconds{route}: API latency
//   - exporter_http_rate_limited_total{route}: requests rejected with 429
//   - exporter_inbox_files_total{result}: drop-folder files handled
//   - exporter_retention_pruned_total{kind}: jobs and files removed
//
// # Usage
//
//	collector := metrics.NewCollector(&metrics.Config{Enabled: true}, nil)
//	dispatcher := export.NewDispatcher(cfg, export.WithObserver(collector))
//	router.Handle("/metrics", collector.Handler())
package metrics
