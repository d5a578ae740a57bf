package server

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"

	"fleetdesk/exporter/pkg/export"
	"fleetdesk/exporter/pkg/history"
	"fleetdesk/exporter/pkg/telemetry/health"
	"fleetdesk/exporter/pkg/telemetry/metrics"
	"fleetdesk/exporter/pkg/telemetry/tracing"
)

// Config contains HTTP server settings.
type Config struct {
	ListenAddress   string
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration

	// MaxBodyBytes limits export request bodies.
	MaxBodyBytes int64

	// RateLimit throttles POST /v1/exports/{format}.
	RateLimit RateLimitConfig

	// Auth protects the /v1 routes. Health checks and metrics stay open.
	Auth AuthConfig

	TLS TLSConfig

	// MetricsPath is where metrics are served when a collector is set.
	MetricsPath string
}

// RateLimitConfig configures the export token bucket.
type RateLimitConfig struct {
	Enabled           bool
	RequestsPerSecond float64
	Burst             int
}

// DefaultConfig returns the default server configuration.
func DefaultConfig() *Config {
	return &Config{
		ListenAddress:   "127.0.0.1:8080",
		ReadTimeout:     30 * time.Second,
		WriteTimeout:    60 * time.Second,
		IdleTimeout:     120 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		MaxBodyBytes:    32 << 20,
		RateLimit: RateLimitConfig{
			Enabled:           true,
			RequestsPerSecond: 5,
			Burst:             10,
		},
		MetricsPath: "/metrics",
	}
}

// Option configures optional server dependencies.
type Option func(*Server)

// WithHistory enables the history routes.
func WithHistory(store history.Store) Option {
	return func(s *Server) { s.store = store }
}

// WithHealth sets the checker behind /healthz and /readyz.
func WithHealth(checker *health.Checker) Option {
	return func(s *Server) { s.checker = checker }
}

// WithMetrics enables HTTP metrics and the metrics endpoint.
func WithMetrics(collector *metrics.Collector) Option {
	return func(s *Server) { s.metrics = collector }
}

// WithVersion sets the build information served on /version.
func WithVersion(version, commit, buildTime string) Option {
	return func(s *Server) { s.version = [3]string{version, commit, buildTime} }
}

// Server is the exporter HTTP API.
type Server struct {
	config     *Config
	dispatcher *export.Dispatcher
	store      history.Store
	checker    *health.Checker
	metrics    *metrics.Collector
	version    [3]string
	logger     *slog.Logger

	httpServer   *http.Server
	listener     net.Listener
	shutdownChan chan struct{}
	shutdownOnce sync.Once
	mu           sync.RWMutex
	isRunning    bool
}

// NewServer creates a server exporting through dispatcher.
func NewServer(cfg *Config, dispatcher *export.Dispatcher, opts ...Option) *Server {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	s := &Server{
		config:       cfg,
		dispatcher:   dispatcher,
		checker:      health.New(0),
		version:      [3]string{"dev", "unknown", "unknown"},
		logger:       slog.Default().With("component", "server"),
		shutdownChan: make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start listens on ListenAddress and serves until ctx is cancelled or
// Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return fmt.Errorf("server is already running")
	}

	watchCtx, stopWatch := context.WithCancel(ctx)
	defer stopWatch()

	var tlsCfg *tls.Config
	if s.config.TLS.Enabled {
		var err error
		if tlsCfg, err = s.tlsConfig(watchCtx); err != nil {
			s.mu.Unlock()
			return fmt.Errorf("failed to configure TLS: %w", err)
		}
	}

	ln, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}
	if tlsCfg != nil {
		ln = tls.NewListener(ln, tlsCfg)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
		IdleTimeout:       s.config.IdleTimeout,
	}
	s.isRunning = true
	s.mu.Unlock()

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("starting export API", "address", ln.Addr().String(), "tls", tlsCfg != nil)
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- fmt.Errorf("server error: %w", err)
		}
		close(errChan)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("context cancelled, initiating shutdown")
		return s.Shutdown(context.Background())
	case err, ok := <-errChan:
		if ok {
			s.setStopped()
			return err
		}
		return nil
	case <-s.shutdownChan:
		return s.Shutdown(context.Background())
	}
}

// Shutdown gracefully stops the server. It is safe to call more than once.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		close(s.shutdownChan)

		s.mu.RLock()
		running, srv := s.isRunning, s.httpServer
		s.mu.RUnlock()
		if !running {
			return
		}

		s.logger.Info("initiating graceful shutdown", "timeout", s.config.ShutdownTimeout.String())
		shutdownCtx, cancel := context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("error during server shutdown", "error", err)
			shutdownErr = fmt.Errorf("server shutdown error: %w", err)
		}
		s.setStopped()
		s.logger.Info("export API stopped")
	})

	return shutdownErr
}

func (s *Server) setStopped() {
	s.mu.Lock()
	s.isRunning = false
	s.mu.Unlock()
}

// IsRunning reports whether the server is serving.
func (s *Server) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.isRunning
}

// Addr returns the listening address, or nil before Start.
func (s *Server) Addr() net.Addr {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Handler returns the routed handler with the full middleware chain.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(recoveryMiddleware)
	r.Use(requestIDMiddleware)
	r.Use(tracing.HTTPMiddleware)
	r.Use(s.accessLogMiddleware)

	r.Route("/v1/exports", func(r chi.Router) {
		if s.config.Auth.Enabled {
			r.Use(s.authMiddleware)
		}
		r.With(s.rateLimitMiddleware()).Post("/{format}", s.handleExport)
		if s.store != nil {
			r.Get("/", s.handleListExports)
			r.Get("/{id}", s.handleGetExport)
		}
	})

	r.Get("/healthz", s.checker.LivenessHandler())
	r.Head("/healthz", s.checker.LivenessHandler())
	r.Get("/readyz", s.checker.ReadinessHandler())
	r.Get("/version", health.VersionHandler(s.version[0], s.version[1], s.version[2]))

	if s.metrics != nil && s.config.MetricsPath != "" {
		r.Method(http.MethodGet, s.config.MetricsPath, s.metrics.Handler())
	}

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not_found", "no route for "+r.Method+" "+r.URL.Path)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", r.Method+" is not allowed on "+r.URL.Path)
	})
	return r
}
