package opfetch

import (
	"context"
	"time"

	"github.com/ambiyansyah-risyal/opfetch/internal/codec"
)

// Request describes one dispatch: where to send it, how to encode the payload
// and the chain to run it through.
type Request struct {
	BaseURL     string
	Method      Method
	Path        string
	QueryParams []string
	Payload     Payload
	Init        Init
	ContentType ContentType
	Fetch       FetchFunc
}

// Dispatch encodes the payload, completes the headers and runs the request
// through Fetch. The response or error from Fetch is returned unchanged.
func Dispatch(ctx context.Context, req Request) (*Response, error) {
	encoded, err := codec.Encode(codec.Operation{
		Method:      string(req.Method),
		Path:        req.Path,
		ContentType: string(req.ContentType),
		Query:       req.QueryParams,
	}, req.Payload)
	if err != nil {
		return nil, &ClientError{
			Type:      ErrorTypePayload,
			Message:   "cannot encode payload",
			Cause:     err,
			Method:    req.Method.String(),
			Timestamp: time.Now(),
		}
	}

	init := req.Init
	init.Method = req.Method.String()
	init.Header = composeHeaders(encoded.Body, req.Init.Header, req.ContentType)
	init.Body = encoded.Body

	return req.Fetch(ctx, req.BaseURL+encoded.Path+encoded.Query, init)
}
