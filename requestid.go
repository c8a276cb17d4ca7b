package opfetch

import (
	"context"

	"github.com/google/uuid"
)

// HeaderRequestID is the header set by the RequestID middleware.
const HeaderRequestID = "X-Request-Id"

const requestIDKey contextKey = "opfetch_request_id"

// RequestIDFromContext returns the request ID the client generated for the
// current call when debugging is enabled.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok && id != ""
}

func withRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestID sets X-Request-Id on requests that have none. The client's request
// ID for the call is reused when there is one; otherwise gen is called, or
// uuid.NewString when gen is nil.
func RequestID(gen func() string) Middleware {
	if gen == nil {
		gen = uuid.NewString
	}
	return func(ctx context.Context, url string, init Init, next FetchFunc) (*Response, error) {
		if hasHeader(init.Header, HeaderRequestID) {
			return next(ctx, url, init)
		}
		id, ok := RequestIDFromContext(ctx)
		if !ok {
			id = gen()
		}
		return next(withRequestID(ctx, id), url, withHeader(init, HeaderRequestID, id))
	}
}
