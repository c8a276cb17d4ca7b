package opfetch

import (
	"context"
	"errors"
	"time"

	"github.com/ambiyansyah-risyal/opfetch/internal/codec"
)

// Descriptor identifies one endpoint: method, path template, request content
// type and the parameters that go to the query string under body methods.
// A Descriptor is immutable.
type Descriptor struct {
	method      Method
	path        string
	contentType ContentType
	query       []string
}

// NewDescriptor builds a descriptor. The method is used as given.
func NewDescriptor(method Method, path string, contentType ContentType, queryParams ...string) Descriptor {
	return Descriptor{
		method:      method,
		path:        path,
		contentType: contentType,
		query:       append([]string(nil), queryParams...),
	}
}

// Method returns the operation's HTTP method.
func (d Descriptor) Method() Method { return d.method }

// Path returns the path template, placeholders included.
func (d Descriptor) Path() string { return d.path }

// ContentType returns the declared request body encoding.
func (d Descriptor) ContentType() ContentType { return d.contentType }

// QueryParams returns a copy of the query allowlist.
func (d Descriptor) QueryParams() []string {
	return append([]string(nil), d.query...)
}

// ID returns "METHOD /path/template", used to tag operation errors and to
// label metrics.
func (d Descriptor) ID() string {
	return d.method.String() + " " + d.path
}

// Operation is a callable endpoint. P is the payload type, R the success body
// and E the documented error body.
type Operation[P, R, E any] struct {
	client     *Client
	descriptor Descriptor
}

// NewOperation binds d to c.
func NewOperation[P, R, E any](c *Client, d Descriptor) *Operation[P, R, E] {
	return &Operation[P, R, E]{client: c, descriptor: d}
}

// Descriptor returns the endpoint the operation calls.
func (o *Operation[P, R, E]) Descriptor() Descriptor {
	return o.descriptor
}

// ID returns the operation identifier.
func (o *Operation[P, R, E]) ID() string {
	return o.descriptor.ID()
}

// Call sends payload to the endpoint. extra inits are merged over the
// client's default init, later ones winning. A response outside 200..299
// fails with *OperationError[E]; any other failure is returned unchanged.
func (o *Operation[P, R, E]) Call(ctx context.Context, payload P, extra ...Init) (*Response, error) {
	cfg := o.client.snapshot()
	start := time.Now()
	d := o.descriptor
	id := d.ID()
	method := d.method.String()

	var requestID string
	if cfg.debug.enabled() && cfg.debug.RequestIDGen != nil {
		requestID = cfg.debug.RequestIDGen()
		ctx = withRequestID(ctx, requestID)
	}

	p, err := codec.FromValue(any(payload))
	if err != nil {
		cfg.metrics.RecordError(ErrorTypePayload, method, d.path)
		return nil, &ClientError{
			Type:      ErrorTypePayload,
			Message:   "cannot convert payload",
			Cause:     err,
			RequestID: requestID,
			Method:    method,
			Operation: id,
			Timestamp: time.Now(),
		}
	}

	if cfg.debug.enabled() && cfg.debug.LogRequests && cfg.logger != nil {
		cfg.logger.Debug("Starting request", "requestID", requestID, "operation", id)
	}

	cfg.metrics.RecordRequestStart(method, d.path)
	resp, err := Dispatch(withOperation(ctx, d), Request{
		BaseURL:     cfg.baseURL,
		Method:      d.method,
		Path:        d.path,
		QueryParams: d.query,
		Payload:     p,
		Init:        MergeInit(cfg.init, extra...),
		ContentType: d.contentType,
		Fetch:       Chain(cfg.middleware, fetchNormalized(cfg.transport)),
	})
	cfg.metrics.RecordRequestEnd(method, d.path)

	duration := time.Since(start)
	cfg.metrics.RecordRequest(method, d.path, statusOf(resp, err), duration)

	if err != nil {
		cfg.metrics.RecordError(errorType(err), method, d.path)
		if cfg.debug.enabled() && cfg.debug.LogErrors && cfg.logger != nil {
			cfg.logger.Warn("Request failed", "requestID", requestID, "operation", id, "duration", duration, "error", err)
		}

		var apiErr *APIError
		if errors.As(err, &apiErr) {
			return nil, o.NewError(apiErr)
		}
		return nil, err
	}

	if cfg.debug.enabled() && cfg.debug.LogRequests && cfg.logger != nil {
		cfg.logger.Debug("Request completed", "requestID", requestID, "operation", id, "status", resp.Status, "duration", duration)
	}
	return resp, nil
}

// Do calls the operation and decodes the success body into R.
func (o *Operation[P, R, E]) Do(ctx context.Context, payload P, extra ...Init) (R, error) {
	var out R
	resp, err := o.Call(ctx, payload, extra...)
	if err != nil {
		return out, err
	}
	if err := resp.Decode(&out); err != nil {
		return out, err
	}
	return out, nil
}

// NewError tags err with this operation.
func (o *Operation[P, R, E]) NewError(err *APIError) *OperationError[E] {
	return &OperationError[E]{APIError: err, Operation: o.ID()}
}

// AsError finds the error of this operation in err's chain.
func (o *Operation[P, R, E]) AsError(err error) (*OperationError[E], bool) {
	var opErr *OperationError[E]
	if errors.As(err, &opErr) && opErr.Operation == o.ID() {
		return opErr, true
	}
	return nil, false
}

// IsError reports whether err was raised by this operation.
func (o *Operation[P, R, E]) IsError(err error) bool {
	_, ok := o.AsError(err)
	return ok
}

func statusOf(resp *Response, err error) int {
	if resp != nil {
		return resp.Status
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

// errorType maps err to the label used by error metrics.
func errorType(err error) string {
	var clientErr *ClientError
	var apiErr *APIError
	switch {
	case errors.As(err, &clientErr):
		return clientErr.Type
	case errors.As(err, &apiErr):
		return ErrorTypeHTTP
	case errors.Is(err, context.Canceled):
		return "Canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "Timeout"
	}
	return ErrorTypeNetwork
}
