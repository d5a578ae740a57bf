package history

import (
	"context"
	"time"

	"fleetdesk/exporter/pkg/record"
)

// Job statuses. Failed jobs carry the export.Classify label in ErrorType.
const (
	StatusSucceeded = "succeeded"
	StatusFailed    = "failed"
)

// Job is one export call.
type Job struct {
	ID              string        `json:"id"`
	Source          string        `json:"source"`           // "cli", "http", "inbox"
	RequestedFormat string        `json:"requested_format"` // As passed by the caller
	Format          string        `json:"format"`           // Resolved format, empty if rejected
	FileName        string        `json:"file_name"`
	Status          string        `json:"status"`
	Records         int           `json:"records"`
	Columns         int           `json:"columns"`
	Bytes           int           `json:"bytes"`
	Delivered       bool          `json:"delivered"`
	Error           string        `json:"error,omitempty"`
	ErrorType       string        `json:"error_type,omitempty"`
	StartedAt       time.Time     `json:"started_at"`
	Duration        time.Duration `json:"duration"`
}

// Record converts the job into an export record so that history itself can
// be exported.
func (j *Job) Record() record.Record {
	return record.NewRecord(
		record.F("id", j.ID),
		record.F("source", j.Source),
		record.F("requestedFormat", j.RequestedFormat),
		record.F("format", j.Format),
		record.F("fileName", j.FileName),
		record.F("status", j.Status),
		record.F("records", j.Records),
		record.F("columns", j.Columns),
		record.F("bytes", j.Bytes),
		record.F("delivered", j.Delivered),
		record.F("error", j.Error),
		record.F("errorType", j.ErrorType),
		record.F("startedAt", j.StartedAt.UTC()),
		record.F("durationMs", j.Duration.Milliseconds()),
	)
}

// Records converts jobs into a record set.
func Records(jobs []*Job) record.RecordSet {
	rs := make(record.RecordSet, 0, len(jobs))
	for _, j := range jobs {
		rs = append(rs, j.Record())
	}
	return rs
}

// Query filters jobs. Zero fields do not filter.
type Query struct {
	StartTime *time.Time // Inclusive start of StartedAt
	EndTime   *time.Time // Inclusive end of StartedAt
	Status    string
	Format    string
	Source    string
	IDs       []string // Only these jobs, when not empty

	Limit  int // Max jobs to return, 0 means the store default
	Offset int

	// SortOrder is "asc" or "desc" (default) by StartedAt.
	SortOrder string
}

// DefaultLimit is applied by List when Query.Limit is zero.
const DefaultLimit = 1000

// Store persists jobs. Implementations must be safe for concurrent use.
type Store interface {
	// Record persists a job.
	Record(ctx context.Context, job *Job) error

	// Get returns the job with the given id or ErrNotFound.
	Get(ctx context.Context, id string) (*Job, error)

	// List returns jobs matching the query. It returns an empty slice if
	// nothing matches.
	List(ctx context.Context, query *Query) ([]*Job, error)

	// Count returns the number of jobs matching the query filters.
	Count(ctx context.Context, query *Query) (int64, error)

	// Delete removes jobs matching the query filters and returns how many
	// were removed. Pagination fields are ignored.
	Delete(ctx context.Context, query *Query) (int64, error)

	// Close releases resources held by the store.
	Close() error
}
