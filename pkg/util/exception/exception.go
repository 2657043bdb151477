// Package exception provides the error type shared across the Zephyr
// pipeline. It standardizes errors raised by the fetchers, processors and
// writers so callers can tell retryable transport failures apart from
// permanent decode or configuration failures.
package exception

import (
	"errors"
	"fmt"
)

// PipelineError is the error type used across pipeline components. It carries
// the module where the error occurred, a short message, the wrapped cause and
// a retryable flag.
type PipelineError struct {
	// Module names the component that raised the error (e.g. "openaq",
	// "openmeteo", "reconciler", "config", "repository").
	Module string
	// Message is a concise description of the failure.
	Message string
	// Err is the wrapped original error, if any.
	Err error

	retryable bool
}

// NewPipelineError creates a new PipelineError.
func NewPipelineError(module, message string, err error, retryable bool) *PipelineError {
	return &PipelineError{
		Module:    module,
		Message:   message,
		Err:       err,
		retryable: retryable,
	}
}

// NewConfigError creates a non-retryable configuration error. Configuration
// errors are the one category the pipeline treats as fatal before any network
// activity.
func NewConfigError(message string, err error) *PipelineError {
	return &PipelineError{Module: "config", Message: message, Err: err}
}

// Error implements the error interface.
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Module, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Module, e.Message)
}

// Unwrap returns the wrapped cause so errors.Is / errors.As work through it.
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether the error is worth retrying.
func (e *PipelineError) IsRetryable() bool {
	return e.retryable
}

// IsRetryable reports whether err, or any error in its chain, is a retryable
// PipelineError.
func IsRetryable(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.IsRetryable()
	}
	return false
}
