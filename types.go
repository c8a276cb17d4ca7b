package opfetch

import (
	"context"
	"io"
	"net/http"
	"strings"

	"github.com/ambiyansyah-risyal/opfetch/internal/codec"
)

// Method is a lower-case HTTP method name as it appears in an API description.
type Method string

const (
	MethodGet     Method = "get"
	MethodPost    Method = "post"
	MethodPut     Method = "put"
	MethodPatch   Method = "patch"
	MethodDelete  Method = "delete"
	MethodHead    Method = "head"
	MethodOptions Method = "options"
)

// Valid reports whether m is one of the supported methods.
func (m Method) Valid() bool {
	switch m {
	case MethodGet, MethodPost, MethodPut, MethodPatch, MethodDelete, MethodHead, MethodOptions:
		return true
	}
	return false
}

// SendsBody reports whether requests with this method carry a body.
func (m Method) SendsBody() bool {
	return codec.SendsBody(string(m))
}

// String returns the wire form of the method.
func (m Method) String() string {
	return strings.ToUpper(string(m))
}

// ContentType is a supported request body encoding. The zero value means the
// operation declares no request body.
type ContentType string

const (
	ContentTypeNone           ContentType = ""
	ContentTypeJSON           ContentType = codec.ContentTypeJSON
	ContentTypeMultipart      ContentType = codec.ContentTypeMultipart
	ContentTypeFormURLEncoded ContentType = codec.ContentTypeFormURLEncoded
)

// Valid reports whether ct is one of the supported encodings.
func (ct ContentType) Valid() bool {
	switch ct {
	case ContentTypeNone, ContentTypeJSON, ContentTypeMultipart, ContentTypeFormURLEncoded:
		return true
	}
	return false
}

// Payload is the input of one call: ordered named parameters plus, for
// array-shaped bodies, the array items.
type Payload = codec.Payload

// Fields is an insertion-ordered parameter mapping.
type Fields = codec.Fields

// Body is an encoded request body.
type Body = codec.Body

// Form is a multipart/form-data body.
type Form = codec.Form

// FormPart is one field of a Form.
type FormPart = codec.FormPart

// File is a binary multipart value.
type File = codec.File

// ErrInvalidPayload is returned when a payload value cannot be converted.
var ErrInvalidPayload = codec.ErrInvalidPayload

// Params builds a Payload from alternating keys and values.
func Params(pairs ...any) Payload {
	return codec.Params(pairs...)
}

// Array builds an array-shaped Payload.
func Array(items ...any) Payload {
	return codec.Array(items...)
}

// ReadFile reads r fully into a File suitable for a multipart payload.
func ReadFile(name string, r io.Reader) (File, error) {
	return codec.ReadFile(name, r)
}

// NewRawBody wraps pre-encoded bytes as a request body.
func NewRawBody(b []byte) *Body {
	return codec.NewRawBody(b)
}

// NewFormBody wraps a multipart form as a request body.
func NewFormBody(f *Form) *Body {
	return codec.NewFormBody(f)
}

// Init carries the request options handed to the middleware chain and the
// transport. Zero fields are "not set" when inits are merged.
type Init struct {
	Method  string
	Header  http.Header
	Body    *Body
	Cookies []*http.Cookie
}

// FetchFunc performs one request and returns its normalized response.
type FetchFunc func(ctx context.Context, url string, init Init) (*Response, error)

// Middleware intercepts a request. It may call next any number of times or
// answer on its own without calling it.
type Middleware func(ctx context.Context, url string, init Init, next FetchFunc) (*Response, error)

// Transport performs the network call. It never interprets the status code.
type Transport interface {
	Fetch(ctx context.Context, url string, init Init) (*RawResponse, error)
}

// TransportFunc adapts a function to Transport.
type TransportFunc func(ctx context.Context, url string, init Init) (*RawResponse, error)

// Fetch calls f.
func (f TransportFunc) Fetch(ctx context.Context, url string, init Init) (*RawResponse, error) {
	return f(ctx, url, init)
}

// contextKey namespaces values stored in request contexts.
type contextKey string

const operationKey contextKey = "opfetch_operation"

// OperationFromContext returns the descriptor of the operation a request
// belongs to. Middleware can use it to label logs and metrics by template.
func OperationFromContext(ctx context.Context) (Descriptor, bool) {
	d, ok := ctx.Value(operationKey).(Descriptor)
	return d, ok
}

func withOperation(ctx context.Context, d Descriptor) context.Context {
	return context.WithValue(ctx, operationKey, d)
}
