package app

import (
	"io"

	"fleetdesk/exporter/pkg/config"
	"fleetdesk/exporter/pkg/inbox"
	"fleetdesk/exporter/pkg/notify"
	"fleetdesk/exporter/pkg/server"
	"fleetdesk/exporter/pkg/telemetry/logging"
	"fleetdesk/exporter/pkg/telemetry/metrics"
	"fleetdesk/exporter/pkg/telemetry/tracing"
)

func loggingConfig(cfg *config.Config, w io.Writer) logging.Config {
	return logging.Config{
		Level:     cfg.Telemetry.Logging.Level,
		Format:    cfg.Telemetry.Logging.Format,
		AddSource: cfg.Telemetry.Logging.AddSource,
		RedactPII: cfg.Telemetry.Logging.RedactPII,
		Writer:    w,
	}
}

func tracingConfig(cfg *config.Config, version string) tracing.Config {
	t := cfg.Telemetry.Tracing
	return tracing.Config{
		Enabled:        t.Enabled,
		Endpoint:       t.Endpoint,
		ServiceName:    t.ServiceName,
		ServiceVersion: version,
		SampleRatio:    t.SampleRatio,
		Insecure:       t.Insecure,
	}
}

func metricsConfig(cfg *config.Config) *metrics.Config {
	return &metrics.Config{
		Enabled:   cfg.Telemetry.Metrics.Enabled,
		Namespace: cfg.Telemetry.Metrics.Namespace,
	}
}

func serverConfig(cfg *config.Config) *server.Config {
	s := cfg.Server
	return &server.Config{
		ListenAddress:   s.ListenAddress,
		ReadTimeout:     s.ReadTimeout,
		WriteTimeout:    s.WriteTimeout,
		IdleTimeout:     s.IdleTimeout,
		ShutdownTimeout: s.ShutdownTimeout,
		MaxBodyBytes:    s.MaxBodyBytes,
		RateLimit: server.RateLimitConfig{
			Enabled:           s.RateLimit.Enabled,
			RequestsPerSecond: s.RateLimit.RequestsPerSecond,
			Burst:             s.RateLimit.Burst,
		},
		Auth: authConfig(s.Auth),
		TLS: server.TLSConfig{
			Enabled:    s.TLS.Enabled,
			CertFile:   s.TLS.CertFile,
			KeyFile:    s.TLS.KeyFile,
			MinVersion: s.TLS.MinVersion,
		},
		MetricsPath: cfg.Telemetry.Metrics.Path,
	}
}

func authConfig(a config.AuthConfig) server.AuthConfig {
	keys := make([]server.APIKey, 0, len(a.Keys))
	for _, k := range a.Keys {
		keys = append(keys, server.APIKey{Name: k.Name, Key: k.Key})
	}
	return server.AuthConfig{Enabled: a.Enabled, Header: a.Header, Keys: keys}
}

func inboxConfig(cfg *config.Config) *inbox.Config {
	return &inbox.Config{
		Dir:           cfg.Inbox.Dir,
		OutputDir:     cfg.Export.OutputDir,
		DefaultFormat: cfg.Export.DefaultFormat,
		Settle:        cfg.Inbox.Settle,
	}
}

func notifyConfig(cfg *config.Config) notify.Config {
	return notify.Config{
		URL:     cfg.Notify.WebhookURL,
		Source:  cfg.Notify.Source,
		Timeout: cfg.Notify.Timeout,
	}
}
