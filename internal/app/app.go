// Package app builds the exporter's components from a loaded configuration.
//
// Every entry point of cmd/exporter creates one App, asks it for the parts it
// needs (server, inbox watcher, pruner) and closes it on exit.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"fleetdesk/exporter/pkg/config"
	"fleetdesk/exporter/pkg/delivery"
	"fleetdesk/exporter/pkg/export"
	"fleetdesk/exporter/pkg/history"
	"fleetdesk/exporter/pkg/history/retention"
	"fleetdesk/exporter/pkg/inbox"
	"fleetdesk/exporter/pkg/notify"
	"fleetdesk/exporter/pkg/server"
	"fleetdesk/exporter/pkg/telemetry/health"
	"fleetdesk/exporter/pkg/telemetry/logging"
	"fleetdesk/exporter/pkg/telemetry/metrics"
	"fleetdesk/exporter/pkg/telemetry/tracing"
)

// ErrHistoryDisabled is returned when a component needs the history store
// but history.enabled is false.
var ErrHistoryDisabled = errors.New("export history is disabled")

// Options carries values that do not come from the configuration file.
type Options struct {
	Version   string
	Commit    string
	BuildDate string

	// LogWriter receives log output. Default: os.Stderr
	LogWriter io.Writer
}

// App owns the long-lived components shared by every command.
type App struct {
	Config     *config.Config
	Logger     *slog.Logger
	Tracer     *tracing.Tracer
	Metrics    *metrics.Collector
	Store      history.Store // nil when history is disabled
	Health     *health.Checker
	Dispatcher *export.Dispatcher

	opts    Options
	webhook *notify.Webhook
}

// New builds an App. The configuration must have passed config.Validate.
// On success the returned logger is also installed as the slog default.
func New(cfg *config.Config, opts Options) (*App, error) {
	logger, err := logging.New(loggingConfig(cfg, opts.LogWriter))
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}
	slog.SetDefault(logger)

	a := &App{
		Config: cfg,
		Logger: logger,
		opts:   opts,
	}

	a.Tracer, err = tracing.New(tracingConfig(cfg, opts.Version))
	if err != nil {
		return nil, fmt.Errorf("failed to create tracer: %w", err)
	}

	a.Metrics = metrics.NewCollector(metricsConfig(cfg), nil)

	if cfg.History.Enabled {
		a.Store, err = openStore(cfg)
		if err != nil {
			_ = a.Tracer.Shutdown(context.Background())
			return nil, err
		}
	}

	dispatcherOpts := []export.Option{
		export.WithSink(delivery.NewFileSink(cfg.Export.OutputDir)),
		export.WithRenderer(export.NewFPDFRenderer()),
		export.WithTracer(a.Tracer.Tracer()),
		export.WithLogger(logger.With("component", "export.dispatcher")),
		export.WithObserver(a.Metrics),
	}
	if a.Store != nil {
		dispatcherOpts = append(dispatcherOpts,
			export.WithObserver(history.NewRecorder(a.Store, cfg.History.WriteTimeout)))
	}
	if cfg.Notify.Enabled {
		a.webhook = notify.NewWebhook(notifyConfig(cfg))
		dispatcherOpts = append(dispatcherOpts, export.WithObserver(a.webhook))
	}
	a.Dispatcher = export.NewDispatcher(cfg.DispatcherConfig(), dispatcherOpts...)

	a.Health = health.New(2 * time.Second)
	a.Health.RegisterCheck("output_dir", health.DirWritableCheck(cfg.Export.OutputDir))
	if a.Store != nil {
		a.Health.RegisterCheck("history", health.StoreCheck(a.Store))
	}

	logger.Debug("application initialized",
		"history", cfg.History.Enabled,
		"backend", cfg.History.Backend,
		"notify", cfg.Notify.Enabled,
		"tracing", a.Tracer.Enabled(),
	)
	return a, nil
}

func openStore(cfg *config.Config) (history.Store, error) {
	switch cfg.History.Backend {
	case "sqlite":
		store, err := history.NewSQLiteStore(cfg.HistorySQLiteConfig())
		if err != nil {
			return nil, fmt.Errorf("failed to open history store: %w", err)
		}
		return store, nil
	case "memory":
		return history.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported history backend: %s", cfg.History.Backend)
	}
}

// NewServer creates the HTTP API.
func (a *App) NewServer() *server.Server {
	opts := []server.Option{
		server.WithHealth(a.Health),
		server.WithVersion(a.opts.Version, a.opts.Commit, a.opts.BuildDate),
	}
	if a.Store != nil {
		opts = append(opts, server.WithHistory(a.Store))
	}
	if a.Config.Telemetry.Metrics.Enabled {
		opts = append(opts, server.WithMetrics(a.Metrics))
	}
	return server.NewServer(serverConfig(a.Config), a.Dispatcher, opts...)
}

// NewWatcher creates the inbox watcher.
func (a *App) NewWatcher() *inbox.Watcher {
	return inbox.NewWatcher(inboxConfig(a.Config), a.Dispatcher, a.Metrics)
}

// NewPruner creates the history pruner.
func (a *App) NewPruner() (*retention.Pruner, error) {
	if a.Store == nil {
		return nil, ErrHistoryDisabled
	}
	return retention.NewPruner(a.Store, a.Config.RetentionConfig()).WithRecorder(a.Metrics), nil
}

// Close waits for pending notifications, closes the store and flushes
// spans.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.webhook != nil {
		if err := a.webhook.Close(); err != nil {
			errs = append(errs, fmt.Errorf("notify: %w", err))
		}
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("history: %w", err))
		}
	}
	if err := a.Tracer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("tracing: %w", err))
	}
	return errors.Join(errs...)
}
