package httpclient

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gaborage/go-astrox/validation"
)

// ErrEmptyEndpoint is returned when Post or Do is called without an endpoint.
var ErrEmptyEndpoint = errors.New("httpclient: endpoint must not be empty")

// ErrorType classifies a ClientError.
type ErrorType int

const (
	// APIError: the server answered but reported IsSuccess=false, or the body was not JSON
	APIError ErrorType = iota
	// HTTPError: the server answered with status >= 400
	HTTPError
	// TimeoutError: an attempt exceeded the configured timeout
	TimeoutError
	// ConnectionError: the request could not be delivered (DNS, refused, reset, cancelled)
	ConnectionError
	// ValidationError: the body did not match the requested result type
	ValidationError
)

func (t ErrorType) String() string {
	switch t {
	case APIError:
		return "api"
	case HTTPError:
		return "http"
	case TimeoutError:
		return "timeout"
	case ConnectionError:
		return "connection"
	case ValidationError:
		return "validation"
	default:
		return "unknown"
	}
}

// ClientError is implemented by every error the client returns for a request.
type ClientError interface {
	error
	Type() ErrorType
	Endpoint() string
}

type apiError struct {
	endpoint   string
	message    string
	statusCode int
	body       []byte
}

// NewAPIError creates an error for a logical failure reported by the server.
func NewAPIError(endpoint, message string, statusCode int, body []byte) ClientError {
	return &apiError{endpoint: endpoint, message: message, statusCode: statusCode, body: body}
}

func (e *apiError) Error() string {
	return fmt.Sprintf("api error: %s: %s", e.endpoint, e.message)
}
func (e *apiError) Type() ErrorType  { return APIError }
func (e *apiError) Endpoint() string { return e.endpoint }

// Message is the server's Message field, or the parse failure description.
func (e *apiError) Message() string { return e.message }
func (e *apiError) StatusCode() int { return e.statusCode }
func (e *apiError) Body() []byte    { return e.body }

type httpError struct {
	endpoint   string
	message    string
	statusCode int
	body       []byte
}

// NewHTTPError creates an error for a response with status >= 400.
func NewHTTPError(endpoint, message string, statusCode int, body []byte) ClientError {
	return &httpError{endpoint: endpoint, message: message, statusCode: statusCode, body: body}
}

func (e *httpError) Error() string {
	return fmt.Sprintf("HTTP error: %s: HTTP %d: %s", e.endpoint, e.statusCode, e.message)
}
func (e *httpError) Type() ErrorType  { return HTTPError }
func (e *httpError) Endpoint() string { return e.endpoint }
func (e *httpError) Message() string  { return e.message }
func (e *httpError) StatusCode() int  { return e.statusCode }
func (e *httpError) Body() []byte     { return e.body }

type timeoutError struct {
	endpoint string
	timeout  time.Duration
	cause    error
}

// NewTimeoutError creates an error for an attempt that ran past timeout.
func NewTimeoutError(endpoint string, timeout time.Duration, cause error) ClientError {
	return &timeoutError{endpoint: endpoint, timeout: timeout, cause: cause}
}

func (e *timeoutError) Error() string {
	return fmt.Sprintf("timeout error: request to %s timed out after %s", e.endpoint, e.timeout)
}
func (e *timeoutError) Type() ErrorType        { return TimeoutError }
func (e *timeoutError) Endpoint() string       { return e.endpoint }
func (e *timeoutError) Timeout() time.Duration { return e.timeout }
func (e *timeoutError) Unwrap() error          { return e.cause }

type connectionError struct {
	endpoint string
	message  string
	cause    error
}

// NewConnectionError creates an error for a request that never produced a response.
func NewConnectionError(endpoint, message string, cause error) ClientError {
	return &connectionError{endpoint: endpoint, message: message, cause: cause}
}

func (e *connectionError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("connection error: %s: %s: %v", e.endpoint, e.message, e.cause)
	}
	return fmt.Sprintf("connection error: %s: %s", e.endpoint, e.message)
}
func (e *connectionError) Type() ErrorType  { return ConnectionError }
func (e *connectionError) Endpoint() string { return e.endpoint }
func (e *connectionError) Message() string  { return e.message }
func (e *connectionError) Unwrap() error    { return e.cause }

type validationError struct {
	endpoint string
	message  string
	fields   []validation.FieldError
}

// NewValidationError creates an error for a body that does not fit the requested type.
func NewValidationError(endpoint, message string, fields []validation.FieldError) ClientError {
	return &validationError{endpoint: endpoint, message: message, fields: fields}
}

func (e *validationError) Error() string {
	switch len(e.fields) {
	case 0:
		return fmt.Sprintf("validation error: %s: %s", e.endpoint, e.message)
	case 1:
		return fmt.Sprintf("validation error: %s: %s: %s", e.endpoint, e.message, e.fields[0].Message)
	default:
		return fmt.Sprintf("validation error: %s: %s: %d field errors", e.endpoint, e.message, len(e.fields))
	}
}
func (e *validationError) Type() ErrorType  { return ValidationError }
func (e *validationError) Endpoint() string { return e.endpoint }
func (e *validationError) Message() string  { return e.message }

// Errors lists the field-level problems.
func (e *validationError) Errors() []validation.FieldError { return e.fields }

// IsErrorType reports whether err is (or wraps) a ClientError of type t.
func IsErrorType(err error, t ErrorType) bool {
	var ce ClientError
	if errors.As(err, &ce) {
		return ce.Type() == t
	}
	return false
}

// IsHTTPStatusError reports whether err is an HTTP error with the given status.
func IsHTTPStatusError(err error, statusCode int) bool {
	var he *httpError
	if errors.As(err, &he) {
		return he.statusCode == statusCode
	}
	return false
}

// IsSuccessStatus reports whether statusCode is 2xx.
func IsSuccessStatus(statusCode int) bool {
	return statusCode >= 200 && statusCode < 300
}

// IsRetryable reports whether the executor would retry after err: 5xx responses,
// timeouts and connection failures other than caller cancellation.
func IsRetryable(err error) bool {
	var ce ClientError
	if !errors.As(err, &ce) {
		return false
	}
	switch ce.Type() {
	case HTTPError:
		var he *httpError
		return errors.As(err, &he) && he.statusCode >= 500
	case TimeoutError:
		return true
	case ConnectionError:
		return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
	default:
		return false
	}
}
