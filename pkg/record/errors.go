package record

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is matched by every *InvalidInputError through errors.Is.
var ErrInvalidInput = errors.New("invalid input")

// InvalidInputError reports input that is not a sequence of records.
type InvalidInputError struct {
	Reason string // What was wrong with the input
	Index  int    // Offending element, or -1 for the input as a whole
	Cause  error  // Underlying decode error, if any
}

// Error implements the error interface.
func (e *InvalidInputError) Error() string {
	msg := "invalid input: " + e.Reason
	if e.Index >= 0 {
		msg = fmt.Sprintf("invalid input [index=%d]: %s", e.Index, e.Reason)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap returns the underlying cause error.
func (e *InvalidInputError) Unwrap() error {
	return e.Cause
}

// Is reports whether target is ErrInvalidInput.
func (e *InvalidInputError) Is(target error) bool {
	return target == ErrInvalidInput
}

// NewInvalidInputError creates an InvalidInputError for the input as a whole.
func NewInvalidInputError(reason string, cause error) *InvalidInputError {
	return &InvalidInputError{
		Reason: reason,
		Index:  -1,
		Cause:  cause,
	}
}

// ValueError reports a field value that cannot be represented.
type ValueError struct {
	Index int    // Record index within the set
	Key   string // Field name
	Cause error  // Underlying conversion error
}

// Error implements the error interface.
func (e *ValueError) Error() string {
	return fmt.Sprintf("value error [index=%d, field=%s]: %v", e.Index, e.Key, e.Cause)
}

// Unwrap returns the underlying cause error.
func (e *ValueError) Unwrap() error {
	return e.Cause
}
