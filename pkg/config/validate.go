package config

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"

	"fleetdesk/exporter/pkg/export"
	"fleetdesk/exporter/pkg/history"
)

// FieldError is a validation error for one configuration field.
type FieldError struct {
	// Field is the dotted yaml path of the field (e.g. "server.listen_address").
	Field string

	// Message is a human-readable error message.
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidationError collects every FieldError found in a configuration.
type ValidationError struct {
	Errors []FieldError
}

func (e ValidationError) Error() string {
	if len(e.Errors) == 0 {
		return "configuration validation failed"
	}
	if len(e.Errors) == 1 {
		return fmt.Sprintf("configuration validation failed: %s", e.Errors[0].Error())
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "configuration validation failed with %d errors:\n", len(e.Errors))
	for _, err := range e.Errors {
		fmt.Fprintf(&sb, "  - %s\n", err.Error())
	}
	return sb.String()
}

// Validate checks the whole configuration and returns a ValidationError
// listing every problem, or nil.
func Validate(cfg *Config) error {
	var errs []FieldError

	errs = append(errs, validateExport(&cfg.Export)...)
	errs = append(errs, validatePDF(&cfg.PDF)...)
	errs = append(errs, validateServer(&cfg.Server)...)
	errs = append(errs, validateHistory(&cfg.History)...)
	errs = append(errs, validateInbox(&cfg.Inbox)...)
	errs = append(errs, validateNotify(&cfg.Notify)...)
	errs = append(errs, validateTelemetry(&cfg.Telemetry)...)

	if len(errs) > 0 {
		return ValidationError{Errors: errs}
	}
	return nil
}

func validateExport(cfg *ExportConfig) []FieldError {
	var errs []FieldError

	if _, err := export.ParseFormat(cfg.DefaultFormat); err != nil {
		errs = append(errs, FieldError{
			Field:   "export.default_format",
			Message: fmt.Sprintf("must be one of %s", joinFormats()),
		})
	}
	if strings.ContainsAny(cfg.DefaultFileName, `/\`) {
		errs = append(errs, FieldError{
			Field:   "export.default_file_name",
			Message: "must not contain path separators",
		})
	}
	if cfg.OutputDir == "" {
		errs = append(errs, FieldError{
			Field:   "export.output_dir",
			Message: "output directory is required",
		})
	}

	return errs
}

// pageSizes maps each supported page size to its shorter side in mm.
var pageSizes = map[string]float64{"A3": 297, "A4": 210, "A5": 148, "LETTER": 215.9, "LEGAL": 215.9}

func validatePDF(cfg *PDFConfig) []FieldError {
	var errs []FieldError

	if cfg.DefaultColumnWidth <= 0 {
		errs = append(errs, FieldError{Field: "pdf.default_column_width", Message: "must be positive"})
	}
	if cfg.NarrowColumnWidth <= 0 {
		errs = append(errs, FieldError{Field: "pdf.narrow_column_width", Message: "must be positive"})
	}
	if cfg.FontSize <= 0 || cfg.FontSize > 72 {
		errs = append(errs, FieldError{Field: "pdf.font_size", Message: "must be between 0 and 72 points"})
	}
	if cfg.DefaultColumnWidth > 0 && cfg.NarrowColumnWidth >= cfg.DefaultColumnWidth {
		errs = append(errs, FieldError{
			Field:   "pdf.narrow_column_width",
			Message: fmt.Sprintf("must be less than pdf.default_column_width (%g)", cfg.DefaultColumnWidth),
		})
	}
	if _, ok := orientations[strings.ToLower(cfg.Orientation)]; !ok {
		errs = append(errs, FieldError{Field: "pdf.orientation", Message: `must be "landscape" or "portrait"`})
	}
	shortSide, ok := pageSizes[strings.ToUpper(cfg.PageSize)]
	if !ok {
		errs = append(errs, FieldError{Field: "pdf.page_size", Message: "must be one of A3, A4, A5, Letter, Legal"})
	}
	// At least half of the shorter side stays printable.
	switch {
	case cfg.Margin < 0:
		errs = append(errs, FieldError{Field: "pdf.margin", Message: "must be non-negative"})
	case ok && cfg.Margin >= shortSide/4:
		errs = append(errs, FieldError{
			Field:   "pdf.margin",
			Message: fmt.Sprintf("must be less than %gmm for page size %s", shortSide/4, cfg.PageSize),
		})
	}
	if _, err := parseHexColor(cfg.HeaderColor); err != nil {
		errs = append(errs, FieldError{Field: "pdf.header_color", Message: err.Error()})
	}
	if _, err := parseHexColor(cfg.StripeColor); err != nil {
		errs = append(errs, FieldError{Field: "pdf.stripe_color", Message: err.Error()})
	}

	return errs
}

func validateServer(cfg *ServerConfig) []FieldError {
	var errs []FieldError

	if cfg.ListenAddress == "" {
		errs = append(errs, FieldError{
			Field:   "server.listen_address",
			Message: "listen address is required",
		})
	}
	if cfg.ReadTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.read_timeout", Message: "read timeout must be positive"})
	}
	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.write_timeout", Message: "write timeout must be positive"})
	}
	if cfg.IdleTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.idle_timeout", Message: "idle timeout must be positive"})
	}
	if cfg.ShutdownTimeout < 0 {
		errs = append(errs, FieldError{Field: "server.shutdown_timeout", Message: "shutdown timeout must be positive"})
	}
	if cfg.MaxBodyBytes <= 0 {
		errs = append(errs, FieldError{Field: "server.max_body_bytes", Message: "must be positive"})
	}
	if cfg.RateLimit.Enabled {
		if cfg.RateLimit.RequestsPerSecond <= 0 {
			errs = append(errs, FieldError{
				Field:   "server.rate_limit.requests_per_second",
				Message: "must be positive when rate limiting is enabled",
			})
		}
		if cfg.RateLimit.Burst < 1 {
			errs = append(errs, FieldError{
				Field:   "server.rate_limit.burst",
				Message: "must be at least 1 when rate limiting is enabled",
			})
		}
	}
	errs = append(errs, validateAuth(&cfg.Auth)...)
	errs = append(errs, validateTLS(&cfg.TLS)...)

	return errs
}

// minAPIKeyLength rejects keys short enough to guess.
const minAPIKeyLength = 16

func validateAuth(cfg *AuthConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}
	if len(cfg.Keys) == 0 {
		errs = append(errs, FieldError{Field: "server.auth.keys", Message: "at least one key is required when auth is enabled"})
	}
	seen := make(map[string]bool, len(cfg.Keys))
	for i, k := range cfg.Keys {
		field := fmt.Sprintf("server.auth.keys[%d]", i)
		if k.Name == "" {
			errs = append(errs, FieldError{Field: field + ".name", Message: "name is required"})
		}
		if len(k.Key) < minAPIKeyLength {
			errs = append(errs, FieldError{Field: field + ".key", Message: fmt.Sprintf("must be at least %d characters", minAPIKeyLength)})
		}
		if seen[k.Key] {
			errs = append(errs, FieldError{Field: field + ".key", Message: "duplicate key"})
		}
		seen[k.Key] = true
	}

	return errs
}

func validateTLS(cfg *TLSConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}
	if cfg.CertFile == "" {
		errs = append(errs, FieldError{Field: "server.tls.cert_file", Message: "required when TLS is enabled"})
	}
	if cfg.KeyFile == "" {
		errs = append(errs, FieldError{Field: "server.tls.key_file", Message: "required when TLS is enabled"})
	}
	if cfg.MinVersion != "1.2" && cfg.MinVersion != "1.3" {
		errs = append(errs, FieldError{Field: "server.tls.min_version", Message: `must be "1.2" or "1.3"`})
	}

	return errs
}

func validateHistory(cfg *HistoryConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	switch cfg.Backend {
	case "sqlite":
		if cfg.SQLite.Path == "" {
			errs = append(errs, FieldError{Field: "history.sqlite.path", Message: "path is required for the sqlite backend"})
		}
		if cfg.SQLite.Driver != history.DriverPureGo && cfg.SQLite.Driver != history.DriverCGO {
			errs = append(errs, FieldError{
				Field:   "history.sqlite.driver",
				Message: fmt.Sprintf("must be %q or %q", history.DriverPureGo, history.DriverCGO),
			})
		}
		if cfg.SQLite.MaxOpenConns < 1 {
			errs = append(errs, FieldError{Field: "history.sqlite.max_open_conns", Message: "must be at least 1"})
		}
	case "memory":
	default:
		errs = append(errs, FieldError{
			Field:   "history.backend",
			Message: `must be "sqlite" or "memory"`,
		})
	}

	if cfg.WriteTimeout < 0 {
		errs = append(errs, FieldError{Field: "history.write_timeout", Message: "must be positive"})
	}
	if cfg.Retention.MaxAge < 0 {
		errs = append(errs, FieldError{Field: "history.retention.max_age", Message: "must be non-negative"})
	}
	if cfg.Retention.MaxJobs < 0 {
		errs = append(errs, FieldError{Field: "history.retention.max_jobs", Message: "must be non-negative"})
	}
	if cfg.Retention.Schedule != "" {
		if _, err := cron.ParseStandard(cfg.Retention.Schedule); err != nil {
			errs = append(errs, FieldError{
				Field:   "history.retention.schedule",
				Message: fmt.Sprintf("invalid cron expression: %v", err),
			})
		}
	}

	return errs
}

func validateInbox(cfg *InboxConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}
	if cfg.Dir == "" {
		errs = append(errs, FieldError{Field: "inbox.dir", Message: "directory is required when the inbox is enabled"})
	}
	if cfg.Settle < 0 {
		errs = append(errs, FieldError{Field: "inbox.settle", Message: "must be non-negative"})
	}

	return errs
}

func validateNotify(cfg *NotifyConfig) []FieldError {
	var errs []FieldError

	if !cfg.Enabled {
		return errs
	}

	u, err := url.Parse(cfg.WebhookURL)
	if cfg.WebhookURL == "" || err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs = append(errs, FieldError{
			Field:   "notify.webhook_url",
			Message: "must be an absolute http or https URL",
		})
	}
	if cfg.Source == "" {
		errs = append(errs, FieldError{Field: "notify.source", Message: "source is required"})
	}
	if cfg.Timeout <= 0 {
		errs = append(errs, FieldError{Field: "notify.timeout", Message: "must be positive"})
	}

	return errs
}

func validateTelemetry(cfg *TelemetryConfig) []FieldError {
	var errs []FieldError

	switch strings.ToLower(cfg.Logging.Level) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.level",
			Message: "must be one of debug, info, warn, error",
		})
	}
	switch strings.ToLower(cfg.Logging.Format) {
	case "json", "text", "console":
	default:
		errs = append(errs, FieldError{
			Field:   "telemetry.logging.format",
			Message: "must be one of json, text, console",
		})
	}

	if cfg.Metrics.Enabled && !strings.HasPrefix(cfg.Metrics.Path, "/") {
		errs = append(errs, FieldError{Field: "telemetry.metrics.path", Message: "must start with /"})
	}

	if cfg.Tracing.Enabled {
		if cfg.Tracing.Endpoint == "" {
			errs = append(errs, FieldError{Field: "telemetry.tracing.endpoint", Message: "endpoint is required when tracing is enabled"})
		}
		if cfg.Tracing.ServiceName == "" {
			errs = append(errs, FieldError{Field: "telemetry.tracing.service_name", Message: "service name is required"})
		}
	}
	if cfg.Tracing.SampleRatio < 0 || cfg.Tracing.SampleRatio > 1 {
		errs = append(errs, FieldError{
			Field:   "telemetry.tracing.sample_ratio",
			Message: "must be between 0.0 and 1.0",
		})
	}

	return errs
}

func joinFormats() string {
	names := make([]string, 0, len(export.Formats()))
	for _, f := range export.Formats() {
		names = append(names, string(f))
	}
	return strings.Join(names, ", ")
}

// parseHexColor parses "#rrggbb".
func parseHexColor(s string) (export.Color, error) {
	if len(s) != 7 || s[0] != '#' {
		return export.Color{}, fmt.Errorf("color %q must have the form #rrggbb", s)
	}
	v, err := strconv.ParseUint(s[1:], 16, 32)
	if err != nil {
		return export.Color{}, fmt.Errorf("color %q must have the form #rrggbb", s)
	}
	return export.Color{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}, nil
}
