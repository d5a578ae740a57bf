package server

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// TLSConfig enables HTTPS.
type TLSConfig struct {
	Enabled  bool
	CertFile string
	KeyFile  string

	// MinVersion is "1.2" or "1.3". Empty means 1.3.
	MinVersion string
}

// expiryWarning is how close to NotAfter a certificate is logged as a warning.
const expiryWarning = 30 * 24 * time.Hour

func (c *TLSConfig) minVersion() (uint16, error) {
	switch c.MinVersion {
	case "1.3", "":
		return tls.VersionTLS13, nil
	case "1.2":
		return tls.VersionTLS12, nil
	default:
		return 0, fmt.Errorf("unsupported TLS version %q", c.MinVersion)
	}
}

// certReloader serves the key pair currently on disk. Renewal tools replace
// the files, so the parent directories are watched rather than the files.
type certReloader struct {
	certFile string
	keyFile  string
	logger   *slog.Logger

	mu   sync.RWMutex
	cert *tls.Certificate
}

func newCertReloader(certFile, keyFile string, logger *slog.Logger) (*certReloader, error) {
	r := &certReloader{certFile: certFile, keyFile: keyFile, logger: logger}
	if err := r.reload(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *certReloader) reload() error {
	cert, err := tls.LoadX509KeyPair(r.certFile, r.keyFile)
	if err != nil {
		return fmt.Errorf("failed to load certificate: %w", err)
	}
	leaf, err := x509.ParseCertificate(cert.Certificate[0])
	if err != nil {
		return fmt.Errorf("failed to parse certificate: %w", err)
	}
	if time.Now().After(leaf.NotAfter) {
		return fmt.Errorf("certificate expired at %s", leaf.NotAfter.Format(time.RFC3339))
	}
	cert.Leaf = leaf

	r.mu.Lock()
	r.cert = &cert
	r.mu.Unlock()

	attrs := []any{
		"subject", leaf.Subject.CommonName,
		"expires_at", leaf.NotAfter.Format(time.RFC3339),
	}
	if time.Until(leaf.NotAfter) < expiryWarning {
		r.logger.Warn("certificate expiring soon", attrs...)
	} else {
		r.logger.Info("certificate loaded", attrs...)
	}
	return nil
}

func (r *certReloader) getCertificate(*tls.ClientHelloInfo) (*tls.Certificate, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.cert, nil
}

// watch reloads the key pair whenever either file changes, until ctx is
// done. A failed reload keeps the previous certificate.
func (r *certReloader) watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create certificate watcher: %w", err)
	}

	dirs := map[string]bool{filepath.Dir(r.certFile): true, filepath.Dir(r.keyFile): true}
	for dir := range dirs {
		if err := w.Add(dir); err != nil {
			w.Close()
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	certPath, keyPath := filepath.Clean(r.certFile), filepath.Clean(r.keyFile)
	go func() {
		defer w.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				name := filepath.Clean(ev.Name)
				if name != certPath && name != keyPath {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
					continue
				}
				if err := r.reload(); err != nil {
					r.logger.Error("failed to reload certificate", "error", err, "cert_file", r.certFile)
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				r.logger.Error("certificate watcher error", "error", err)
			}
		}
	}()
	return nil
}

// tlsConfig loads the key pair and starts reloading it for the lifetime
// of ctx.
func (s *Server) tlsConfig(ctx context.Context) (*tls.Config, error) {
	cfg := &s.config.TLS
	version, err := cfg.minVersion()
	if err != nil {
		return nil, err
	}
	reloader, err := newCertReloader(cfg.CertFile, cfg.KeyFile, s.logger)
	if err != nil {
		return nil, err
	}
	if err := reloader.watch(ctx); err != nil {
		return nil, err
	}
	return &tls.Config{
		MinVersion:     version,
		GetCertificate: reloader.getCertificate,
	}, nil
}
