package notify

import (
	"fmt"
	"time"

	cloudevents "github.com/cloudevents/sdk-go/v2"
	"github.com/google/uuid"

	"fleetdesk/exporter/pkg/export"
)

// Event types.
const (
	EventTypeCompleted = "io.fleetdesk.export.completed"
	EventTypeFailed    = "io.fleetdesk.export.failed"
)

// ExportEvent is the data payload of an export event.
type ExportEvent struct {
	JobID           string `json:"jobId"`
	Source          string `json:"source"`
	Status          string `json:"status"`
	Format          string `json:"format,omitempty"`
	RequestedFormat string `json:"requestedFormat"`
	FileName        string `json:"fileName,omitempty"`
	Records         int    `json:"records"`
	Columns         int    `json:"columns"`
	Bytes           int    `json:"bytes"`
	DurationMs      int64  `json:"durationMs"`
	Error           string `json:"error,omitempty"`
}

// NewEvent builds the CloudEvent for an outcome. source is the CloudEvents
// source attribute; jobSource is the entry point that ran the export.
func NewEvent(source, jobSource string, o *export.Outcome) (cloudevents.Event, error) {
	data := ExportEvent{
		JobID:           o.JobID,
		Source:          jobSource,
		Status:          o.Status(),
		Format:          string(o.Format),
		RequestedFormat: o.RequestedFormat,
		FileName:        o.FileName,
		Records:         o.Records,
		Columns:         o.Columns,
		Bytes:           o.Bytes,
		DurationMs:      o.Duration.Milliseconds(),
	}
	if o.Err != nil {
		data.Error = o.Err.Error()
	}

	eventType := EventTypeCompleted
	if !o.Delivered {
		eventType = EventTypeFailed
	}

	event := cloudevents.NewEvent()
	event.SetID(eventID(o.JobID))
	event.SetSource(source)
	event.SetType(eventType)
	event.SetSpecVersion(cloudevents.VersionV1)
	if o.Started.IsZero() {
		event.SetTime(time.Now())
	} else {
		event.SetTime(o.Started.Add(o.Duration))
	}
	if o.FileName != "" {
		event.SetSubject(o.FileName)
	}
	if err := event.SetData(cloudevents.ApplicationJSON, data); err != nil {
		return event, fmt.Errorf("set event data: %w", err)
	}
	if err := event.Validate(); err != nil {
		return event, fmt.Errorf("invalid event: %w", err)
	}
	return event, nil
}

func eventID(jobID string) string {
	if jobID != "" {
		return jobID
	}
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return id.String()
}
