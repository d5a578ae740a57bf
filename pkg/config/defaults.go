package config

import "time"

// Default values for configuration fields.
const (
	// Export defaults
	DefaultExportFormat     = "csv"
	DefaultExportFileName   = "export"
	DefaultExportOutputDir  = "exports"
	DefaultExportJSONPretty = true

	// PDF defaults
	DefaultPDFColumnWidth       = 30.0
	DefaultPDFNarrowColumnWidth = 25.0
	DefaultPDFFontSize          = 7.0
	DefaultPDFMargin            = 5.0
	DefaultPDFOrientation       = "landscape"
	DefaultPDFPageSize          = "A4"
	DefaultPDFHeaderColor       = "#2980b9"
	DefaultPDFStripeColor       = "#f5f5f5"
	DefaultPDFTitle             = "Export"

	// Server defaults
	DefaultListenAddress        = "127.0.0.1:8080"
	DefaultReadTimeout          = 30 * time.Second
	DefaultWriteTimeout         = 60 * time.Second
	DefaultIdleTimeout          = 120 * time.Second
	DefaultShutdownTimeout      = 30 * time.Second
	DefaultMaxBodyBytes         = int64(32 << 20)
	DefaultRateLimitEnabled     = true
	DefaultRateLimitRequestsSec = 5.0
	DefaultRateLimitBurst       = 10
	DefaultAuthHeader           = "Authorization"
	DefaultTLSMinVersion        = "1.3"

	// History defaults
	DefaultHistoryEnabled       = true
	DefaultHistoryBackend       = "sqlite"
	DefaultHistoryWriteTimeout  = 5 * time.Second
	DefaultSQLitePath           = "data/history.db"
	DefaultSQLiteDriver         = "sqlite"
	DefaultSQLiteMaxOpenConns   = 10
	DefaultSQLiteWALMode        = true
	DefaultSQLiteBusyTimeout    = 5 * time.Second
	DefaultRetentionMaxAge      = 30 * 24 * time.Hour
	DefaultRetentionSchedule    = "0 3 * * *"
	DefaultRetentionPruneOutput = false

	// Inbox defaults
	DefaultInboxDir    = "inbox"
	DefaultInboxSettle = 500 * time.Millisecond

	// Notify defaults
	DefaultNotifySource  = "/fleetdesk/exporter"
	DefaultNotifyTimeout = 5 * time.Second

	// Telemetry defaults
	DefaultLogLevel       = "info"
	DefaultLogFormat      = "json"
	DefaultLogRedactPII   = true
	DefaultMetricsEnabled = true
	DefaultMetricsPath    = "/metrics"
	DefaultMetricsNS      = "exporter"
	DefaultTracingEnabled = false
	DefaultTracingAddr    = "localhost:4317"
	DefaultServiceName    = "fleetdesk-exporter"
	DefaultSampleRatio    = 1.0
	DefaultTracingInsec   = true
)

// Default returns a configuration with every field set to its default.
// File values are decoded on top of it, so booleans whose default is true
// can still be turned off explicitly.
func Default() *Config {
	cfg := &Config{
		Export: ExportConfig{
			JSONPretty: DefaultExportJSONPretty,
		},
		Server: ServerConfig{
			RateLimit: RateLimitConfig{Enabled: DefaultRateLimitEnabled},
		},
		History: HistoryConfig{
			Enabled: DefaultHistoryEnabled,
			SQLite:  SQLiteConfig{WALMode: DefaultSQLiteWALMode},
			Retention: RetentionConfig{
				MaxAge:      DefaultRetentionMaxAge,
				Schedule:    DefaultRetentionSchedule,
				PruneOutput: DefaultRetentionPruneOutput,
			},
		},
		Telemetry: TelemetryConfig{
			Logging: LoggingConfig{RedactPII: DefaultLogRedactPII},
			Metrics: MetricsConfig{Enabled: DefaultMetricsEnabled},
			Tracing: TracingConfig{
				Enabled:  DefaultTracingEnabled,
				Insecure: DefaultTracingInsec,
			},
		},
	}
	ApplyDefaults(cfg)
	return cfg
}

// ApplyDefaults fills zero-valued strings, numbers and durations with their
// defaults. Booleans are left alone; see Default.
func ApplyDefaults(cfg *Config) {
	// Export defaults
	setString(&cfg.Export.DefaultFormat, DefaultExportFormat)
	setString(&cfg.Export.DefaultFileName, DefaultExportFileName)
	setString(&cfg.Export.OutputDir, DefaultExportOutputDir)

	// PDF defaults
	setFloat(&cfg.PDF.DefaultColumnWidth, DefaultPDFColumnWidth)
	setFloat(&cfg.PDF.NarrowColumnWidth, DefaultPDFNarrowColumnWidth)
	setFloat(&cfg.PDF.FontSize, DefaultPDFFontSize)
	setFloat(&cfg.PDF.Margin, DefaultPDFMargin)
	setString(&cfg.PDF.Orientation, DefaultPDFOrientation)
	setString(&cfg.PDF.PageSize, DefaultPDFPageSize)
	setString(&cfg.PDF.HeaderColor, DefaultPDFHeaderColor)
	setString(&cfg.PDF.StripeColor, DefaultPDFStripeColor)
	setString(&cfg.PDF.Title, DefaultPDFTitle)

	// Server defaults
	setString(&cfg.Server.ListenAddress, DefaultListenAddress)
	setDuration(&cfg.Server.ReadTimeout, DefaultReadTimeout)
	setDuration(&cfg.Server.WriteTimeout, DefaultWriteTimeout)
	setDuration(&cfg.Server.IdleTimeout, DefaultIdleTimeout)
	setDuration(&cfg.Server.ShutdownTimeout, DefaultShutdownTimeout)
	if cfg.Server.MaxBodyBytes == 0 {
		cfg.Server.MaxBodyBytes = DefaultMaxBodyBytes
	}
	setFloat(&cfg.Server.RateLimit.RequestsPerSecond, DefaultRateLimitRequestsSec)
	if cfg.Server.RateLimit.Burst == 0 {
		cfg.Server.RateLimit.Burst = DefaultRateLimitBurst
	}
	setString(&cfg.Server.Auth.Header, DefaultAuthHeader)
	setString(&cfg.Server.TLS.MinVersion, DefaultTLSMinVersion)

	// History defaults
	setString(&cfg.History.Backend, DefaultHistoryBackend)
	setDuration(&cfg.History.WriteTimeout, DefaultHistoryWriteTimeout)
	setString(&cfg.History.SQLite.Path, DefaultSQLitePath)
	setString(&cfg.History.SQLite.Driver, DefaultSQLiteDriver)
	if cfg.History.SQLite.MaxOpenConns == 0 {
		cfg.History.SQLite.MaxOpenConns = DefaultSQLiteMaxOpenConns
	}
	setDuration(&cfg.History.SQLite.BusyTimeout, DefaultSQLiteBusyTimeout)

	// Inbox defaults
	setString(&cfg.Inbox.Dir, DefaultInboxDir)
	setDuration(&cfg.Inbox.Settle, DefaultInboxSettle)

	// Notify defaults
	setString(&cfg.Notify.Source, DefaultNotifySource)
	setDuration(&cfg.Notify.Timeout, DefaultNotifyTimeout)

	// Telemetry defaults
	setString(&cfg.Telemetry.Logging.Level, DefaultLogLevel)
	setString(&cfg.Telemetry.Logging.Format, DefaultLogFormat)
	setString(&cfg.Telemetry.Metrics.Path, DefaultMetricsPath)
	setString(&cfg.Telemetry.Metrics.Namespace, DefaultMetricsNS)
	setString(&cfg.Telemetry.Tracing.Endpoint, DefaultTracingAddr)
	setString(&cfg.Telemetry.Tracing.ServiceName, DefaultServiceName)
	setFloat(&cfg.Telemetry.Tracing.SampleRatio, DefaultSampleRatio)
}

func setString(p *string, def string) {
	if *p == "" {
		*p = def
	}
}

func setFloat(p *float64, def float64) {
	if *p == 0 {
		*p = def
	}
}

func setDuration(p *time.Duration, def time.Duration) {
	if *p == 0 {
		*p = def
	}
}
