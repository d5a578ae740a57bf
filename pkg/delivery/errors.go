package delivery

import (
	"errors"
	"fmt"
)

// ErrUnsafeName is returned when an artifact name would leave the sink's
// directory.
var ErrUnsafeName = errors.New("unsafe artifact name")

// DeliveryError represents an error while delivering an artifact.
type DeliveryError struct {
	Sink  string // Sink kind ("file", "writer", "http")
	Name  string // Artifact name
	Cause error  // Underlying error
}

// Error implements the error interface.
func (e *DeliveryError) Error() string {
	return fmt.Sprintf("delivery error [sink=%s, name=%s]: %v", e.Sink, e.Name, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *DeliveryError) Unwrap() error {
	return e.Cause
}

// NewDeliveryError creates a new DeliveryError.
func NewDeliveryError(sink, name string, cause error) *DeliveryError {
	return &DeliveryError{
		Sink:  sink,
		Name:  name,
		Cause: cause,
	}
}
