package errors

import (
	"errors"
	"fmt"
)

// ErrorCode represents a specific error type for AI routing operations.
type ErrorCode string

const (
	// ErrCodeInvalidArgument indicates invalid input parameters.
	ErrCodeInvalidArgument ErrorCode = "INVALID_ARGUMENT"
	// ErrCodeGenerationFailed indicates the chosen backend failed to generate.
	ErrCodeGenerationFailed ErrorCode = "GENERATION_FAILED"
	// ErrCodeBackendUnavailable indicates a backend is not configured or reachable.
	ErrCodeBackendUnavailable ErrorCode = "BACKEND_UNAVAILABLE"
	// ErrCodeServiceUnavailable indicates a supporting service is not available.
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	// ErrCodeConfigInvalid indicates the process cannot start with its configuration.
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"
	// ErrCodeContextCanceled indicates the operation was canceled.
	ErrCodeContextCanceled ErrorCode = "CONTEXT_CANCELED"
	// ErrCodeTimeout indicates the operation timed out.
	ErrCodeTimeout ErrorCode = "TIMEOUT"
)

// AIError represents a structured error for AI routing operations.
type AIError struct {
	Code    ErrorCode
	Message string
	Cause   error
}

// Error implements the error interface.
func (e *AIError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *AIError) Unwrap() error {
	return e.Cause
}

// New creates a new AIError.
func New(code ErrorCode, message string) *AIError {
	return &AIError{Code: code, Message: message}
}

// Wrap creates a new AIError wrapping a cause.
func Wrap(code ErrorCode, message string, cause error) *AIError {
	return &AIError{Code: code, Message: message, Cause: cause}
}

// GenerationFailed creates the typed error surfaced when a backend call fails.
// The routing engine does not retry on a different backend, so this
// propagates to the caller as a single retryable failure.
func GenerationFailed(backend string, cause error) *AIError {
	return &AIError{
		Code:    ErrCodeGenerationFailed,
		Message: fmt.Sprintf("backend %s failed to generate", backend),
		Cause:   cause,
	}
}

// CodeOf returns the error code of err, or empty string if err is not an AIError.
func CodeOf(err error) ErrorCode {
	var aiErr *AIError
	if errors.As(err, &aiErr) {
		return aiErr.Code
	}
	return ""
}

// IsRetryable reports whether the error is worth retrying by the caller.
func IsRetryable(err error) bool {
	switch CodeOf(err) {
	case ErrCodeGenerationFailed, ErrCodeBackendUnavailable, ErrCodeTimeout, ErrCodeServiceUnavailable:
		return true
	default:
		return false
	}
}
