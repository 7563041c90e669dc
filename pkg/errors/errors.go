package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNotFound indicates a resource was not found
	ErrorTypeNotFound ErrorType = "NOT_FOUND"
	// ErrorTypeBadRequest indicates a bad request
	ErrorTypeBadRequest ErrorType = "BAD_REQUEST"
	// ErrorTypeInternal indicates an internal error
	ErrorTypeInternal ErrorType = "INTERNAL"
	// ErrorTypeConfiguration indicates missing or invalid configuration
	ErrorTypeConfiguration ErrorType = "CONFIGURATION"
	// ErrorTypeUpstream indicates an upstream catalog failed
	ErrorTypeUpstream ErrorType = "UPSTREAM"
	// ErrorTypeRateLimited indicates an upstream kept answering 429
	ErrorTypeRateLimited ErrorType = "RATE_LIMITED"
)

// AppError represents an application error
type AppError struct {
	Type    ErrorType
	Message string
	Err     error
}

// Error returns the error message
func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error
func (e *AppError) Unwrap() error {
	return e.Err
}

// New creates a new application error
func New(errorType ErrorType, message string) error {
	return &AppError{
		Type:    errorType,
		Message: message,
	}
}

// Wrap wraps an error with an application error
func Wrap(errorType ErrorType, message string, err error) error {
	return &AppError{
		Type:    errorType,
		Message: message,
		Err:     err,
	}
}

// NotFound creates a not found error
func NotFound(message string) error {
	return New(ErrorTypeNotFound, message)
}

// BadRequest creates a bad request error
func BadRequest(message string) error {
	return New(ErrorTypeBadRequest, message)
}

// Internal creates an internal error
func Internal(message string) error {
	return New(ErrorTypeInternal, message)
}

// Configuration creates a configuration error
func Configuration(message string) error {
	return New(ErrorTypeConfiguration, message)
}

// UpstreamError is returned by the REST client when an upstream answers
// with a non-2xx status.
type UpstreamError struct {
	Upstream string
	Status   int
	URL      string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s returned %d for %s", e.Upstream, e.Status, e.URL)
}

// Temporary reports whether another attempt could succeed.
func (e *UpstreamError) Temporary() bool {
	return e.Status == http.StatusTooManyRequests
}

// AsUpstream classifies an UpstreamError into an AppError. A 404 becomes
// NOT_FOUND, an exhausted 429 becomes RATE_LIMITED, anything else UPSTREAM.
func AsUpstream(message string, err error) error {
	var upErr *UpstreamError
	if !errors.As(err, &upErr) {
		return Wrap(ErrorTypeUpstream, message, err)
	}
	switch upErr.Status {
	case http.StatusNotFound:
		return Wrap(ErrorTypeNotFound, message, err)
	case http.StatusTooManyRequests:
		return Wrap(ErrorTypeRateLimited, message, err)
	default:
		return Wrap(ErrorTypeUpstream, message, err)
	}
}

// TypeOf returns the AppError type of err, or INTERNAL when err carries none.
func TypeOf(err error) ErrorType {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type
	}
	return ErrorTypeInternal
}

// StatusOf maps an error onto an HTTP status code.
func StatusOf(err error) int {
	switch TypeOf(err) {
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeBadRequest:
		return http.StatusBadRequest
	case ErrorTypeUpstream:
		return http.StatusBadGateway
	case ErrorTypeRateLimited:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return is(err, ErrorTypeNotFound)
}

// IsBadRequest checks if an error is a bad request error
func IsBadRequest(err error) bool {
	return is(err, ErrorTypeBadRequest)
}

// IsConfiguration checks if an error is a configuration error
func IsConfiguration(err error) bool {
	return is(err, ErrorTypeConfiguration)
}

// IsRateLimited checks if an error is a rate limited error
func IsRateLimited(err error) bool {
	return is(err, ErrorTypeRateLimited)
}

// IsUpstream checks if an error is an upstream error
func IsUpstream(err error) bool {
	return is(err, ErrorTypeUpstream)
}

func is(err error, t ErrorType) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Type == t
	}
	return false
}
