package types

import "fmt"

// ErrorCode represents a unified error code across the pipeline.
type ErrorCode string

// Generation error codes
const (
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST"
	ErrAuthentication  ErrorCode = "AUTHENTICATION"
	ErrRateLimited     ErrorCode = "RATE_LIMITED"
	ErrContentFiltered ErrorCode = "CONTENT_FILTERED"
	ErrUpstreamTimeout ErrorCode = "UPSTREAM_TIMEOUT"
	ErrUpstreamError   ErrorCode = "UPSTREAM_ERROR"
	ErrMalformedOutput ErrorCode = "MALFORMED_OUTPUT"
	ErrPollTimedOut    ErrorCode = "POLL_TIMED_OUT"
	ErrInternalError   ErrorCode = "INTERNAL_ERROR"
)

// Resource error codes — fatal, surfaced to the caller, never silently degraded.
const (
	ErrResourceMissing  ErrorCode = "RESOURCE_MISSING"
	ErrProjectNotFound  ErrorCode = "PROJECT_NOT_FOUND"
	ErrShotNotFound     ErrorCode = "SHOT_NOT_FOUND"
	ErrVersionNotFound  ErrorCode = "VERSION_NOT_FOUND"
	ErrNoClipsAvailable ErrorCode = "NO_CLIPS_AVAILABLE"
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Backend    string    `json:"backend,omitempty"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// WithBackend sets the backend name.
func (e *Error) WithBackend(backend string) *Error {
	e.Backend = backend
	return e
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := err.(*Error); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := err.(*Error); ok {
		return e.Code
	}
	return ""
}

// IsFatal reports whether the error belongs to the resource-missing/not-found
// class that must surface to the caller instead of degrading to a placeholder.
func IsFatal(err error) bool {
	switch GetErrorCode(err) {
	case ErrResourceMissing, ErrProjectNotFound, ErrShotNotFound, ErrVersionNotFound, ErrNoClipsAvailable:
		return true
	}
	return false
}
