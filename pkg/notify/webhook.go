package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"

	"fleetdesk/exporter/pkg/export"
	"fleetdesk/exporter/pkg/history"
	"fleetdesk/exporter/pkg/telemetry/tracing"
)

// WebhookError reports a webhook that answered with a non-2xx status.
type WebhookError struct {
	URL        string
	StatusCode int
}

// Error implements the error interface.
func (e *WebhookError) Error() string {
	return fmt.Sprintf("webhook %s returned %d", e.URL, e.StatusCode)
}

// Config contains configuration for a Webhook.
type Config struct {
	// URL receives the events.
	URL string

	// Source is the CloudEvents source attribute.
	Source string

	// Timeout bounds each request. Default: 5s
	Timeout time.Duration
}

// Webhook sends export events to an HTTP endpoint. It implements
// export.Observer.
type Webhook struct {
	config Config
	client *http.Client
	logger *slog.Logger
	wg     sync.WaitGroup
}

// NewWebhook creates a Webhook.
func NewWebhook(cfg Config) *Webhook {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Second
	}
	return &Webhook{
		config: cfg,
		client: &http.Client{Timeout: cfg.Timeout},
		logger: slog.Default().With("component", "notify.webhook"),
	}
}

// ObserveExport sends the outcome's event in the background.
func (w *Webhook) ObserveExport(ctx context.Context, o *export.Outcome) {
	event, err := NewEvent(w.config.Source, history.SourceFrom(ctx), o)
	if err != nil {
		w.logger.Error("failed to build export event", "job_id", o.JobID, "error", err)
		return
	}

	sendCtx := context.WithoutCancel(ctx)
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		if err := w.Send(sendCtx, event); err != nil {
			w.logger.WarnContext(sendCtx, "export notification failed",
				"job_id", o.JobID,
				"type", event.Type(),
				"error", err,
			)
		}
	}()
}

// Send POSTs one event in structured mode.
func (w *Webhook) Send(ctx context.Context, event cloudevents.Event) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, w.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.config.URL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", cloudevents.ApplicationCloudEventsJSON)
	tracing.Inject(ctx, req.Header)

	resp, err := w.client.Do(req)
	if err != nil {
		return fmt.Errorf("post event: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &WebhookError{URL: w.config.URL, StatusCode: resp.StatusCode}
	}
	w.logger.DebugContext(ctx, "export notification sent", "id", event.ID(), "type", event.Type())
	return nil
}

// Close waits for in-flight notifications.
func (w *Webhook) Close() error {
	w.wg.Wait()
	w.client.CloseIdleConnections()
	return nil
}
