package config

import "time"

// Config is the root configuration structure of the exporter.
type Config struct {
	// Export contains the dispatcher settings shared by every entry point.
	Export ExportConfig `yaml:"export" toml:"export"`

	// PDF contains table layout settings for PDF exports.
	PDF PDFConfig `yaml:"pdf" toml:"pdf"`

	// Server contains HTTP API settings.
	Server ServerConfig `yaml:"server" toml:"server"`

	// History contains export history storage and retention settings.
	History HistoryConfig `yaml:"history" toml:"history"`

	// Inbox contains drop-folder watcher settings.
	Inbox InboxConfig `yaml:"inbox" toml:"inbox"`

	// Notify contains completion webhook settings.
	Notify NotifyConfig `yaml:"notify" toml:"notify"`

	// Telemetry contains logging, metrics and tracing settings.
	Telemetry TelemetryConfig `yaml:"telemetry" toml:"telemetry"`
}

// ExportConfig contains dispatcher settings.
type ExportConfig struct {
	// DefaultFormat is used by the CLI when --format is not given.
	// Default: "csv"
	DefaultFormat string `yaml:"default_format" toml:"default_format"`

	// DefaultFileName is the base name used when a caller gives none.
	// Default: "export"
	DefaultFileName string `yaml:"default_file_name" toml:"default_file_name"`

	// OutputDir is where file deliveries are written.
	// Default: "exports"
	OutputDir string `yaml:"output_dir" toml:"output_dir"`

	// JSONPretty indents JSON artifacts with two spaces.
	// Default: true
	JSONPretty bool `yaml:"json_pretty" toml:"json_pretty"`

	// CSVUseCRLF terminates CSV lines with \r\n.
	// Default: false
	CSVUseCRLF bool `yaml:"csv_use_crlf" toml:"csv_use_crlf"`
}

// PDFConfig contains PDF table settings. Lengths are in millimetres.
type PDFConfig struct {
	// DefaultColumnWidth is the width of ordinary columns.
	// Default: 30
	DefaultColumnWidth float64 `yaml:"default_column_width" toml:"default_column_width"`

	// NarrowColumnWidth is the width of createdAt, updatedAt and deletedAt.
	// Default: 25
	NarrowColumnWidth float64 `yaml:"narrow_column_width" toml:"narrow_column_width"`

	// FontSize is the table font size in points.
	// Default: 7
	FontSize float64 `yaml:"font_size" toml:"font_size"`

	// Margin is the uniform page margin.
	// Default: 5
	Margin float64 `yaml:"margin" toml:"margin"`

	// Orientation is "landscape" or "portrait".
	// Default: "landscape"
	Orientation string `yaml:"orientation" toml:"orientation"`

	// PageSize is one of "A3", "A4", "A5", "Letter", "Legal".
	// Default: "A4"
	PageSize string `yaml:"page_size" toml:"page_size"`

	// HeaderColor is the header row fill as "#rrggbb".
	// Default: "#2980b9"
	HeaderColor string `yaml:"header_color" toml:"header_color"`

	// StripeColor is the fill of alternating body rows as "#rrggbb".
	// Default: "#f5f5f5"
	StripeColor string `yaml:"stripe_color" toml:"stripe_color"`

	// Title is written to the document metadata.
	// Default: "Export"
	Title string `yaml:"title" toml:"title"`
}

// ServerConfig contains HTTP API settings.
type ServerConfig struct {
	// ListenAddress is the address the API listens on.
	// Default: "127.0.0.1:8080"
	ListenAddress string `yaml:"listen_address" toml:"listen_address"`

	// ReadTimeout is the maximum duration for reading a request.
	// Default: 30s
	ReadTimeout time.Duration `yaml:"read_timeout" toml:"read_timeout"`

	// WriteTimeout is the maximum duration for writing a response.
	// Default: 60s
	WriteTimeout time.Duration `yaml:"write_timeout" toml:"write_timeout"`

	// IdleTimeout is the keep-alive idle timeout.
	// Default: 120s
	IdleTimeout time.Duration `yaml:"idle_timeout" toml:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 30s
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" toml:"shutdown_timeout"`

	// MaxBodyBytes limits the size of export request bodies.
	// Default: 33554432 (32MB)
	MaxBodyBytes int64 `yaml:"max_body_bytes" toml:"max_body_bytes"`

	// RateLimit throttles the export endpoint.
	RateLimit RateLimitConfig `yaml:"rate_limit" toml:"rate_limit"`

	// Auth requires an API key on the /v1 routes.
	Auth AuthConfig `yaml:"auth" toml:"auth"`

	// TLS serves the API over HTTPS.
	TLS TLSConfig `yaml:"tls" toml:"tls"`
}

// TLSConfig configures HTTPS. Certificate files are reloaded when they
// change on disk.
type TLSConfig struct {
	// Enabled turns HTTPS on.
	// Default: false
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// CertFile is the PEM certificate (chain) path.
	CertFile string `yaml:"cert_file" toml:"cert_file"`

	// KeyFile is the PEM private key path.
	KeyFile string `yaml:"key_file" toml:"key_file"`

	// MinVersion is "1.2" or "1.3".
	// Default: "1.3"
	MinVersion string `yaml:"min_version" toml:"min_version"`
}

// AuthConfig configures API key authentication.
type AuthConfig struct {
	// Enabled turns authentication on.
	// Default: false
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// Header carries the key. "Authorization" expects "Bearer <key>".
	// Default: "Authorization"
	Header string `yaml:"header" toml:"header"`

	// Keys lists the accepted keys. Keys can only be set in the file.
	Keys []APIKeyConfig `yaml:"keys" toml:"keys"`
}

// APIKeyConfig is one accepted API key.
type APIKeyConfig struct {
	// Name identifies the client in logs.
	Name string `yaml:"name" toml:"name"`

	// Key is the secret. At least 16 characters.
	Key string `yaml:"key" toml:"key"`
}

// RateLimitConfig configures the export endpoint token bucket.
type RateLimitConfig struct {
	// Enabled turns rate limiting on.
	// Default: true
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// RequestsPerSecond is the sustained request rate.
	// Default: 5
	RequestsPerSecond float64 `yaml:"requests_per_second" toml:"requests_per_second"`

	// Burst is the bucket size.
	// Default: 10
	Burst int `yaml:"burst" toml:"burst"`
}

// HistoryConfig contains export history settings.
type HistoryConfig struct {
	// Enabled turns history recording on.
	// Default: true
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// Backend is "sqlite" or "memory".
	// Default: "sqlite"
	Backend string `yaml:"backend" toml:"backend"`

	// WriteTimeout bounds each history write.
	// Default: 5s
	WriteTimeout time.Duration `yaml:"write_timeout" toml:"write_timeout"`

	// SQLite configures the sqlite backend.
	SQLite SQLiteConfig `yaml:"sqlite" toml:"sqlite"`

	// Retention configures pruning.
	Retention RetentionConfig `yaml:"retention" toml:"retention"`
}

// SQLiteConfig contains SQLite settings.
type SQLiteConfig struct {
	// Path is the database file path.
	// Default: "data/history.db"
	Path string `yaml:"path" toml:"path"`

	// Driver is "sqlite" (pure Go) or "sqlite3" (cgo).
	// Default: "sqlite"
	Driver string `yaml:"driver" toml:"driver"`

	// MaxOpenConns is the maximum number of open connections.
	// Default: 10
	MaxOpenConns int `yaml:"max_open_conns" toml:"max_open_conns"`

	// WALMode enables write-ahead logging.
	// Default: true
	WALMode bool `yaml:"wal_mode" toml:"wal_mode"`

	// BusyTimeout is how long to wait on a locked database.
	// Default: 5s
	BusyTimeout time.Duration `yaml:"busy_timeout" toml:"busy_timeout"`
}

// RetentionConfig contains history and output pruning settings.
type RetentionConfig struct {
	// MaxAge is how long jobs and output files are kept. 0 keeps forever.
	// Default: 720h (30 days)
	MaxAge time.Duration `yaml:"max_age" toml:"max_age"`

	// MaxJobs caps the number of stored jobs. 0 means unlimited.
	// Default: 0
	MaxJobs int64 `yaml:"max_jobs" toml:"max_jobs"`

	// Schedule is a cron expression. Empty disables scheduled pruning.
	// Default: "0 3 * * *"
	Schedule string `yaml:"schedule" toml:"schedule"`

	// ArchiveDir receives a JSON export of pruned jobs. Empty disables it.
	ArchiveDir string `yaml:"archive_dir" toml:"archive_dir"`

	// PruneOutput also removes expired files from export.output_dir.
	// Default: false
	PruneOutput bool `yaml:"prune_output" toml:"prune_output"`
}

// InboxConfig contains drop-folder settings.
type InboxConfig struct {
	// Enabled starts the watcher with the server.
	// Default: false
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// Dir is the watched directory.
	// Default: "inbox"
	Dir string `yaml:"dir" toml:"dir"`

	// Settle is how long a file must stay unchanged before it is processed.
	// Default: 500ms
	Settle time.Duration `yaml:"settle" toml:"settle"`
}

// NotifyConfig contains completion webhook settings.
type NotifyConfig struct {
	// Enabled turns notifications on.
	// Default: false
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// WebhookURL receives CloudEvents as HTTP POST requests.
	WebhookURL string `yaml:"webhook_url" toml:"webhook_url"`

	// Source is the CloudEvents source attribute.
	// Default: "/fleetdesk/exporter"
	Source string `yaml:"source" toml:"source"`

	// Timeout bounds each webhook request.
	// Default: 5s
	Timeout time.Duration `yaml:"timeout" toml:"timeout"`
}

// TelemetryConfig contains observability settings.
type TelemetryConfig struct {
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
	Metrics MetricsConfig `yaml:"metrics" toml:"metrics"`
	Tracing TracingConfig `yaml:"tracing" toml:"tracing"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	// Level is "debug", "info", "warn" or "error".
	// Default: "info"
	Level string `yaml:"level" toml:"level"`

	// Format is "json", "text" or "console".
	// Default: "json"
	Format string `yaml:"format" toml:"format"`

	// AddSource adds file and line to log records.
	// Default: false
	AddSource bool `yaml:"add_source" toml:"add_source"`

	// RedactPII masks e-mail addresses, phone and card numbers.
	// Default: true
	RedactPII bool `yaml:"redact_pii" toml:"redact_pii"`
}

// MetricsConfig contains Prometheus settings.
type MetricsConfig struct {
	// Enabled exposes metrics.
	// Default: true
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// Path is the HTTP path of the metrics endpoint.
	// Default: "/metrics"
	Path string `yaml:"path" toml:"path"`

	// Namespace prefixes every metric name.
	// Default: "exporter"
	Namespace string `yaml:"namespace" toml:"namespace"`
}

// TracingConfig contains OpenTelemetry settings.
type TracingConfig struct {
	// Enabled turns tracing on.
	// Default: false
	Enabled bool `yaml:"enabled" toml:"enabled"`

	// Endpoint is the OTLP gRPC collector address.
	// Default: "localhost:4317"
	Endpoint string `yaml:"endpoint" toml:"endpoint"`

	// ServiceName is the service.name resource attribute.
	// Default: "fleetdesk-exporter"
	ServiceName string `yaml:"service_name" toml:"service_name"`

	// SampleRatio is the fraction of traces sampled (0.0-1.0).
	// Default: 1.0
	SampleRatio float64 `yaml:"sample_ratio" toml:"sample_ratio"`

	// Insecure disables TLS to the collector.
	// Default: true
	Insecure bool `yaml:"insecure" toml:"insecure"`
}
