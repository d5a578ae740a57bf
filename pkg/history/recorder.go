package history

import (
	"context"
	"log/slog"
	"time"

	"fleetdesk/exporter/pkg/export"
)

type sourceKey struct{}

// WithSource tags ctx with the component that started an export ("cli",
// "http", "inbox"). Recorder stores it with the job.
func WithSource(ctx context.Context, source string) context.Context {
	return context.WithValue(ctx, sourceKey{}, source)
}

// SourceFrom returns the source stored by WithSource, or "unknown".
func SourceFrom(ctx context.Context) string {
	if s, ok := ctx.Value(sourceKey{}).(string); ok && s != "" {
		return s
	}
	return "unknown"
}

// Recorder is an export.Observer that writes every outcome to a Store.
// Storage failures are logged and never fail the export itself.
type Recorder struct {
	store        Store
	writeTimeout time.Duration
	logger       *slog.Logger
}

// NewRecorder creates a recorder. A zero writeTimeout means 5 seconds.
func NewRecorder(store Store, writeTimeout time.Duration) *Recorder {
	if writeTimeout <= 0 {
		writeTimeout = 5 * time.Second
	}
	return &Recorder{
		store:        store,
		writeTimeout: writeTimeout,
		logger:       slog.Default().With("component", "history.recorder"),
	}
}

// ObserveExport implements export.Observer.
func (r *Recorder) ObserveExport(ctx context.Context, o *export.Outcome) {
	job := JobFromOutcome(o)
	job.Source = SourceFrom(ctx)

	// The request context may already be done once the response is written.
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.writeTimeout)
	defer cancel()

	if err := r.store.Record(writeCtx, job); err != nil {
		r.logger.Error("failed to record export job",
			"job_id", job.ID,
			"error", err,
		)
	}
}

// JobFromOutcome converts a dispatcher outcome into a job row.
func JobFromOutcome(o *export.Outcome) *Job {
	job := &Job{
		ID:              o.JobID,
		RequestedFormat: o.RequestedFormat,
		Format:          string(o.Format),
		FileName:        o.FileName,
		Status:          StatusSucceeded,
		Records:         o.Records,
		Columns:         o.Columns,
		Bytes:           o.Bytes,
		Delivered:       o.Delivered,
		StartedAt:       o.Started.UTC(),
		Duration:        o.Duration,
	}
	if o.Err != nil {
		job.Status = StatusFailed
		job.Error = o.Err.Error()
		job.ErrorType = o.Status()
	}
	return job
}
