package delivery

import (
	"context"
	"mime"
	"net/http"
	"strconv"

	"fleetdesk/exporter/pkg/export"
)

// HTTPSink sends an artifact as a file attachment on an HTTP response.
// It is the server-side counterpart of a browser download.
type HTTPSink struct {
	W http.ResponseWriter
}

// NewHTTPSink creates a sink for one response.
func NewHTTPSink(w http.ResponseWriter) *HTTPSink {
	return &HTTPSink{W: w}
}

// Deliver writes headers and body. Once headers are written the response is
// committed, so a body write error can only be reported to the caller.
func (s *HTTPSink) Deliver(ctx context.Context, a *export.Artifact) error {
	h := s.W.Header()
	h.Set("Content-Type", a.MIMEType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Name}))
	h.Set("Content-Length", strconv.Itoa(a.Size()))
	h.Set("X-Export-Records", strconv.Itoa(a.Records))
	s.W.WriteHeader(http.StatusOK)

	if _, err := s.W.Write(a.Body); err != nil {
		return NewDeliveryError("http", a.Name, err)
	}
	return nil
}
