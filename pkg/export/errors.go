package export

import (
	"errors"
	"fmt"
	"strings"

	"fleetdesk/exporter/pkg/record"
)

var (
	// ErrUnsupportedFormat is matched by every *UnsupportedFormatError.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrNoSink is returned by Dispatcher.Export when no Sink is configured.
	ErrNoSink = errors.New("no sink configured")
)

// UnsupportedFormatError reports a format outside json, csv and pdf.
type UnsupportedFormatError struct {
	Format string // Format as requested by the caller
}

// Error implements the error interface.
func (e *UnsupportedFormatError) Error() string {
	names := make([]string, 0, 3)
	for _, f := range Formats() {
		names = append(names, string(f))
	}
	return fmt.Sprintf("unsupported format %q (supported: %s)", e.Format, strings.Join(names, ", "))
}

// Is reports whether target is ErrUnsupportedFormat.
func (e *UnsupportedFormatError) Is(target error) bool {
	return target == ErrUnsupportedFormat
}

// ExportError represents an error while encoding records.
type ExportError struct {
	Format      string // Export format ("json", "csv", "pdf")
	RecordCount int    // Number of records being exported
	Cause       error  // Underlying error
}

// Error implements the error interface.
func (e *ExportError) Error() string {
	return fmt.Sprintf("export error [format=%s, record_count=%d]: %v", e.Format, e.RecordCount, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ExportError) Unwrap() error {
	return e.Cause
}

// NewExportError creates a new ExportError.
func NewExportError(format Format, recordCount int, cause error) *ExportError {
	return &ExportError{
		Format:      string(format),
		RecordCount: recordCount,
		Cause:       cause,
	}
}

// Status values reported in Outcome and used as metric labels.
const (
	StatusSuccess           = "success"
	StatusInvalidInput      = "invalid_input"
	StatusUnsupportedFormat = "unsupported_format"
	StatusEncodeError       = "encode_error"
	StatusDeliveryError     = "delivery_error"
)

// Classify maps an export error to a status label.
func Classify(err error) string {
	var exportErr *ExportError
	var valueErr *record.ValueError
	switch {
	case err == nil:
		return StatusSuccess
	case errors.Is(err, record.ErrInvalidInput):
		return StatusInvalidInput
	case errors.Is(err, ErrUnsupportedFormat):
		return StatusUnsupportedFormat
	case errors.As(err, &exportErr), errors.As(err, &valueErr):
		return StatusEncodeError
	default:
		return StatusDeliveryError
	}
}
