package sparklr

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// Common errors returned by the SDK. These can be used with errors.Is()
// to check for specific error conditions.
//
// Example:
//
//	post, err := client.Post(ctx, 42)
//	if errors.Is(err, sparklr.ErrNoData) {
//	    // Nothing to display
//	} else if errors.Is(err, sparklr.ErrTimeout) {
//	    // Handle timeout
//	}
var (
	// ErrInvalidConfig is returned when the configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrNoData is returned when a read operation receives a non-success
	// status from the Sparklr API. It covers both "entity does not exist"
	// and "server refused to answer" cases. No partial result accompanies it.
	ErrNoData = errors.New("no data found")

	// ErrMessageTooLong is returned by SubmitPost when the message exceeds
	// the 500-character limit. The request is rejected before any network
	// activity.
	ErrMessageTooLong = errors.New("message exceeds 500 characters")

	// ErrNotImplemented is returned by operations the Sparklr API declares
	// but the SDK does not support yet (liking, commenting). Use
	// IsNotImplemented to tell "feature unsupported" from a runtime fault.
	ErrNotImplemented = errors.New("operation not implemented")

	// ErrTimeout is returned when a request times out.
	ErrTimeout = errors.New("request timeout")

	// ErrServerError is returned for 5xx server errors.
	ErrServerError = errors.New("server error")

	// ErrClosed is returned when an operation is attempted on a closed client.
	ErrClosed = errors.New("client is closed")
)

// ErrorType categorizes an error for handling and retry decisions.
type ErrorType int

const (
	// ErrorTypeUnknown represents an unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeNetwork represents network-level failures (connection refused,
	// DNS, broken response body). These propagate unwrapped from the transport.
	ErrorTypeNetwork
	// ErrorTypeTimeout represents request timeouts and context deadlines.
	ErrorTypeTimeout
	// ErrorTypeServer represents 5xx responses.
	ErrorTypeServer
	// ErrorTypeClient represents 4xx responses.
	ErrorTypeClient
	// ErrorTypeNoData represents a read that produced no usable data.
	ErrorTypeNoData
	// ErrorTypeValidation represents locally rejected input.
	ErrorTypeValidation
	// ErrorTypeUnsupported represents declared-but-unimplemented features.
	ErrorTypeUnsupported
)

// String returns the string representation of the error type.
func (et ErrorType) String() string {
	switch et {
	case ErrorTypeNetwork:
		return "network"
	case ErrorTypeTimeout:
		return "timeout"
	case ErrorTypeServer:
		return "server"
	case ErrorTypeClient:
		return "client"
	case ErrorTypeNoData:
		return "no_data"
	case ErrorTypeValidation:
		return "validation"
	case ErrorTypeUnsupported:
		return "unsupported"
	default:
		return "unknown"
	}
}

// Error is the SDK's enhanced error. It carries the error category, an
// optional request identifier for tracing, and the underlying cause.
// It supports errors.Is and errors.As.
type Error struct {
	// Type categorizes the error for handling decisions.
	Type ErrorType `json:"type"`
	// Message is a human-readable description.
	Message string `json:"message"`
	// RequestID is the X-Request-ID of the failed request, when known.
	RequestID string `json:"request_id,omitempty"`
	// Timestamp is when the error occurred.
	Timestamp time.Time `json:"timestamp"`
	// Retryable indicates whether retrying the operation may help.
	Retryable bool `json:"retryable"`
	// wrapped is the underlying error, if any.
	wrapped error
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("%s error: %s (request: %s)", e.Type, e.Message, e.RequestID)
	}
	return fmt.Sprintf("%s error: %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.wrapped
}

// Is maps error types onto the package sentinels.
func (e *Error) Is(target error) bool {
	switch e.Type {
	case ErrorTypeNoData:
		return errors.Is(target, ErrNoData)
	case ErrorTypeTimeout:
		return errors.Is(target, ErrTimeout)
	case ErrorTypeServer:
		return errors.Is(target, ErrServerError)
	case ErrorTypeUnsupported:
		return errors.Is(target, ErrNotImplemented)
	}
	return false
}

// IsRetryable returns true if the error is retryable.
func (e *Error) IsRetryable() bool {
	return e.Retryable
}

// NewError creates a new enhanced error wrapping cause.
func NewError(errType ErrorType, message string, cause error) *Error {
	return &Error{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Retryable: isRetryableType(errType),
		wrapped:   cause,
	}
}

func isRetryableType(errType ErrorType) bool {
	switch errType {
	case ErrorTypeNetwork, ErrorTypeTimeout, ErrorTypeServer:
		return true
	default:
		return false
	}
}

// APIError represents an error response from the Sparklr API.
//
// Example:
//
//	var apiErr *sparklr.APIError
//	if errors.As(err, &apiErr) {
//	    if apiErr.IsNotFound() {
//	        // Handle 404
//	    } else if apiErr.IsServerError() {
//	        // Handle 5xx
//	    }
//	}
type APIError struct {
	// StatusCode is the HTTP status code from the response.
	StatusCode int `json:"-"`
	// Message is the error message from the server.
	Message string `json:"error"`
	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("API error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound returns true if the response was a 404.
func (e *APIError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound || e.Code == "NOT_FOUND"
}

// IsServerError returns true for 5xx responses.
func (e *APIError) IsServerError() bool {
	return e.StatusCode >= 500
}

// IsRetryable returns true if the request may be retried.
func (e *APIError) IsRetryable() bool {
	if e.IsServerError() {
		return true
	}
	return e.StatusCode == http.StatusRequestTimeout ||
		e.StatusCode == http.StatusTooManyRequests ||
		e.StatusCode == http.StatusGatewayTimeout
}

// ToError converts APIError to the enhanced Error type.
func (e *APIError) ToError() *Error {
	errType := ErrorTypeClient
	switch {
	// 504 is a server-side status but carries timeout semantics; classify it
	// before the generic 5xx arm.
	case e.StatusCode == http.StatusRequestTimeout || e.StatusCode == http.StatusGatewayTimeout:
		errType = ErrorTypeTimeout
	case e.IsServerError():
		errType = ErrorTypeServer
	case e.IsNotFound():
		errType = ErrorTypeNoData
	}
	return NewError(errType, e.Message, e)
}

// NetworkError represents a transport-level failure such as connection
// refused, DNS resolution failure, or a broken response body. Network
// errors pass through the SDK unwrapped so callers see the original fault.
type NetworkError struct {
	// Op is the operation that failed (e.g. "GET /post/42").
	Op string
	// Err is the underlying network error.
	Err error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error during %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true; network errors are assumed transient.
func (e *NetworkError) IsRetryable() bool {
	return true
}

// ToError converts NetworkError to the enhanced Error type.
func (e *NetworkError) ToError() *Error {
	return NewError(ErrorTypeNetwork, e.Error(), e)
}

// IsNoData checks whether the error represents a "no data found" condition:
// ErrNoData itself, a 404 API response, or an enhanced error of that type.
//
// Example:
//
//	notifs, err := client.Notifications(ctx)
//	if sparklr.IsNoData(err) {
//	    notifs = nil // nothing to display
//	} else if err != nil {
//	    return err
//	}
func IsNoData(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrNoData) {
		return true
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsNotFound()
	}
	return false
}

// IsValidation checks whether the error was a local validation rejection.
func IsValidation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrMessageTooLong) {
		return true
	}
	var enhanced *Error
	return errors.As(err, &enhanced) && enhanced.Type == ErrorTypeValidation
}

// IsNotImplemented checks whether the error marks a declared-but-unsupported
// feature rather than a runtime fault.
func IsNotImplemented(err error) bool {
	return errors.Is(err, ErrNotImplemented)
}

// IsRetryable checks if an error is retryable. Retryable errors are network
// faults, timeouts and 5xx responses. NoData, validation and unsupported
// errors are never retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, ErrTimeout) || errors.Is(err, ErrServerError) {
		return true
	}

	var enhanced *Error
	if errors.As(err, &enhanced) {
		return enhanced.IsRetryable()
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.IsRetryable()
	}

	var netErr *NetworkError
	if errors.As(err, &netErr) {
		return netErr.IsRetryable()
	}

	return false
}
