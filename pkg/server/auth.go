package server

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"
)

// AuthConfig configures API key authentication of the /v1 routes.
type AuthConfig struct {
	Enabled bool

	// Header carries the key. With "Authorization" the value must use the
	// Bearer scheme.
	Header string

	Keys []APIKey
}

// APIKey is one accepted key. Name identifies the client in logs.
type APIKey struct {
	Name string
	Key  string
}

const bearerPrefix = "Bearer "

type clientKey struct{}

// ClientFrom returns the authenticated client name, or "" when
// authentication is disabled.
func ClientFrom(ctx context.Context) string {
	name, _ := ctx.Value(clientKey{}).(string)
	return name
}

// extractAPIKey reads the key from the configured header.
func (c *AuthConfig) extractAPIKey(r *http.Request) (string, bool) {
	header := c.Header
	if header == "" {
		header = "Authorization"
	}
	value := r.Header.Get(header)
	if strings.EqualFold(header, "Authorization") {
		if !strings.HasPrefix(value, bearerPrefix) {
			return "", false
		}
		value = strings.TrimPrefix(value, bearerPrefix)
	}
	value = strings.TrimSpace(value)
	return value, value != ""
}

// lookup compares against every key in constant time.
func (c *AuthConfig) lookup(key string) (string, bool) {
	var name string
	found := 0
	for _, k := range c.Keys {
		if subtle.ConstantTimeCompare([]byte(k.Key), []byte(key)) == 1 {
			name = k.Name
			found = 1
		}
	}
	return name, found == 1
}

// authMiddleware rejects requests without a valid API key.
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	auth := &s.config.Auth
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key, ok := auth.extractAPIKey(r)
		if !ok {
			s.logger.Warn("missing API key", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
			w.Header().Set("WWW-Authenticate", `Bearer realm="exporter"`)
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing API key")
			return
		}

		name, ok := auth.lookup(key)
		if !ok {
			s.logger.Warn("invalid API key", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
			w.Header().Set("WWW-Authenticate", `Bearer realm="exporter", error="invalid_token"`)
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid API key")
			return
		}

		s.logger.Debug("API key authenticated", "client", name, "path", r.URL.Path)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), clientKey{}, name)))
	})
}
