package cli

import (
	"errors"
	"fmt"

	"fleetdesk/exporter/pkg/config"
	"fleetdesk/exporter/pkg/export"
	"fleetdesk/exporter/pkg/record"
	"fleetdesk/exporter/pkg/source"
)

// Process exit codes.
const (
	ExitOK       = 0
	ExitFailure  = 1
	ExitConfig   = 2
	ExitRejected = 3
)

// ConfigError represents an error in configuration.
type ConfigError struct {
	Field   string
	Message string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error in %s: %s", e.Field, e.Message)
}

// CommandError represents an error from a command execution.
type CommandError struct {
	Command string
	Err     error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("command %s failed: %v", e.Command, e.Err)
}

func (e *CommandError) Unwrap() error {
	return e.Err
}

// NewConfigError creates a new ConfigError.
func NewConfigError(field, message string) *ConfigError {
	return &ConfigError{
		Field:   field,
		Message: message,
	}
}

// NewCommandError creates a new CommandError.
func NewCommandError(command string, err error) *CommandError {
	return &CommandError{
		Command: command,
		Err:     err,
	}
}

// ExitCode returns the process exit code for err.
func ExitCode(err error) int {
	var configErr *ConfigError
	var validationErr config.ValidationError
	var fieldErr config.FieldError
	switch {
	case err == nil:
		return ExitOK
	case errors.As(err, &configErr), errors.As(err, &validationErr), errors.As(err, &fieldErr):
		return ExitConfig
	case errors.Is(err, record.ErrInvalidInput), errors.Is(err, export.ErrUnsupportedFormat),
		errors.Is(err, source.ErrUnknownKind):
		return ExitRejected
	default:
		return ExitFailure
	}
}
