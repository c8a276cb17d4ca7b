package opfetch

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"
)

// Sentinel errors for common failure scenarios
var (
	// ErrCircuitOpen is returned when the circuit breaker is in open state
	ErrCircuitOpen = errors.New("opfetch: circuit open")

	// ErrRateLimited is returned when a request is denied due to rate limiting
	ErrRateLimited = errors.New("opfetch: rate limited")

	// ErrDecode is returned when a body that must be JSON cannot be decoded
	ErrDecode = errors.New("opfetch: decode failed")
)

// Error types carried by ClientError.
const (
	ErrorTypeNetwork     = "Network"
	ErrorTypeHTTP        = "HTTP"
	ErrorTypeDecode      = "Decode"
	ErrorTypePayload     = "Payload"
	ErrorTypeRateLimit   = "RateLimit"
	ErrorTypeCircuitOpen = "CircuitOpen"
	ErrorTypeValidation  = "Validation"
)

// ClientError is an error raised by the library itself rather than by the
// remote server or the transport.
type ClientError struct {
	Type      string
	Message   string
	Cause     error
	RequestID string
	Method    string
	URL       string
	Operation string
	Timestamp time.Time
}

// Error implements error interface.
func (e *ClientError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %s", e.Type, e.Message)
	if e.Cause != nil {
		msg = fmt.Sprintf("%s (%v)", msg, e.Cause)
	}
	if e.RequestID != "" {
		msg = fmt.Sprintf("[%s] %s", e.RequestID, msg)
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *ClientError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Cause
}

// Is compares error types for errors.Is.
func (e *ClientError) Is(target error) bool {
	if e == nil {
		return false
	}
	if targetErr, ok := target.(*ClientError); ok {
		return e.Type == targetErr.Type
	}
	return false
}

// DebugInfo renders a multi-line string with diagnostic context.
func (e *ClientError) DebugInfo() string {
	if e == nil {
		return "Error: <nil>"
	}
	info := fmt.Sprintf("Error Type: %s\n", e.Type)
	info += fmt.Sprintf("Message: %s\n", e.Message)
	if e.RequestID != "" {
		info += fmt.Sprintf("Request ID: %s\n", e.RequestID)
	}
	if e.Operation != "" {
		info += fmt.Sprintf("Operation: %s\n", e.Operation)
	}
	if e.Method != "" {
		info += fmt.Sprintf("Method: %s\n", e.Method)
	}
	if e.URL != "" {
		info += fmt.Sprintf("URL: %s\n", e.URL)
	}
	if !e.Timestamp.IsZero() {
		info += fmt.Sprintf("Timestamp: %s\n", e.Timestamp.Format(time.RFC3339))
	}
	if e.Cause != nil {
		info += fmt.Sprintf("Cause: %v\n", e.Cause)
	}
	return info
}

// APIError is a response whose status is outside 200..299.
type APIError struct {
	Header     http.Header
	URL        string
	Status     int
	StatusText string
	Data       any

	body []byte
}

func newAPIError(resp *Response) *APIError {
	return &APIError{
		Header:     resp.Header,
		URL:        resp.URL,
		Status:     resp.Status,
		StatusText: resp.StatusText,
		Data:       resp.Data,
		body:       resp.body,
	}
}

func (e *APIError) Error() string {
	return fmt.Sprintf("opfetch: %d %s", e.Status, e.StatusText)
}

// Body returns the raw error response body.
func (e *APIError) Body() []byte {
	return e.body
}

// Decode unmarshals the error body into v.
func (e *APIError) Decode(v any) error {
	return decodeInto(e.Data, e.body, v)
}

// OperationError is the error variant of a single operation. Operation holds
// the operation ID it was raised by, E the documented error body shape.
type OperationError[E any] struct {
	*APIError
	Operation string
}

func (e *OperationError[E]) Error() string {
	return e.Operation + ": " + e.APIError.Error()
}

// Unwrap exposes the underlying *APIError.
func (e *OperationError[E]) Unwrap() error {
	return e.APIError
}

// ErrorShape is the narrowed view of an operation error.
type ErrorShape[E any] struct {
	Status int
	Data   E
}

// ActualType decodes the error body into the operation's error shape.
func (e *OperationError[E]) ActualType() (ErrorShape[E], error) {
	shape := ErrorShape[E]{Status: e.Status}
	err := decodeInto(e.Data, e.body, &shape.Data)
	return shape, err
}

// IsTransient reports whether err is likely to succeed on a later attempt:
// network failures, timeouts, 408, 429 and 5xx responses, rate limiting and
// an open circuit. Caller-supplied retry middleware can use it as a policy.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}

	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrRateLimited) {
		return true
	}

	var apiErr *APIError
	if errors.As(err, &apiErr) {
		switch {
		case apiErr.Status == http.StatusRequestTimeout, apiErr.Status == http.StatusTooManyRequests:
			return true
		case apiErr.Status >= 500:
			return true
		}
		return false
	}

	var netErr net.Error
	return errors.As(err, &netErr)
}
