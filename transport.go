package opfetch

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
)

const (
	headerUserAgent       = "User-Agent"
	headerAcceptEncoding  = "Accept-Encoding"
	headerContentEncoding = "Content-Encoding"
	headerContentLength   = "Content-Length"

	acceptedEncodings = "gzip, deflate, zstd"
)

// HTTPTransport sends requests with a *http.Client. Compressed responses
// (gzip, deflate, zstd) are decoded before they reach the normalizer.
type HTTPTransport struct {
	client *http.Client
}

// NewHTTPTransport wraps client.
func NewHTTPTransport(client *http.Client) *HTTPTransport {
	return &HTTPTransport{client: client}
}

// Fetch implements Transport.
func (t *HTTPTransport) Fetch(ctx context.Context, url string, init Init) (*RawResponse, error) {
	req, err := newHTTPRequest(ctx, url, init)
	if err != nil {
		return nil, err
	}

	client := t.client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}

	body, err := decodeContent(resp.Header, resp.Body)
	if err != nil {
		resp.Body.Close()
		return nil, err
	}

	return &RawResponse{
		Status:     resp.StatusCode,
		StatusText: resp.Status,
		Header:     resp.Header,
		URL:        resp.Request.URL.String(),
		Body:       body,
	}, nil
}

// newHTTPRequest turns url and init into a request. Multipart bodies are
// encoded here so the Content-Type carries the boundary.
func newHTTPRequest(ctx context.Context, url string, init Init) (*http.Request, error) {
	header := mergeHeader(nil, init.Header)

	var body io.Reader
	switch {
	case init.Body.IsMultipart():
		contentType, data, err := init.Body.Form().Encode()
		if err != nil {
			return nil, err
		}
		if header.Get(headerContentType) == "" {
			header.Set(headerContentType, contentType)
		}
		body = bytes.NewReader(data)
	case init.Body != nil:
		body = bytes.NewReader(init.Body.Bytes())
	}

	method := strings.ToUpper(init.Method)
	if method == "" {
		method = http.MethodGet
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}

	if header.Get(headerUserAgent) == "" {
		header.Set(headerUserAgent, DefaultUserAgent())
	}
	if header.Get(headerAcceptEncoding) == "" {
		header.Set(headerAcceptEncoding, acceptedEncodings)
	}
	req.Header = header
	for _, cookie := range init.Cookies {
		req.AddCookie(cookie)
	}
	return req, nil
}

// decodeContent wraps body with a decoder for the response Content-Encoding.
// The encoding and length headers are dropped once decoding is set up.
func decodeContent(header http.Header, body io.ReadCloser) (io.ReadCloser, error) {
	encoding := strings.ToLower(strings.TrimSpace(header.Get(headerContentEncoding)))

	var decoded io.ReadCloser
	switch encoding {
	case "", "identity":
		return body, nil
	case "gzip", "x-gzip":
		r, err := gzip.NewReader(body)
		if errors.Is(err, io.EOF) {
			return body, nil
		}
		if err != nil {
			return nil, err
		}
		decoded = r
	case "deflate":
		r, err := zlib.NewReader(body)
		if errors.Is(err, io.EOF) {
			return body, nil
		}
		if err != nil {
			return nil, err
		}
		decoded = r
	case "zstd":
		d, err := zstd.NewReader(body)
		if err != nil {
			return nil, err
		}
		decoded = d.IOReadCloser()
	default:
		return body, nil
	}

	header.Del(headerContentEncoding)
	header.Del(headerContentLength)
	return &decodedBody{Reader: decoded, decoder: decoded, body: body}, nil
}

type decodedBody struct {
	io.Reader
	decoder io.Closer
	body    io.Closer
}

func (b *decodedBody) Close() error {
	return errors.Join(b.decoder.Close(), b.body.Close())
}

// RestyTransport sends requests with a resty client. Resty's own response
// parsing is disabled; the body is handed to the normalizer unread.
type RestyTransport struct {
	client *resty.Client
}

// NewRestyTransport wraps client.
func NewRestyTransport(client *resty.Client) *RestyTransport {
	return &RestyTransport{client: client}
}

// Fetch implements Transport.
func (t *RestyTransport) Fetch(ctx context.Context, url string, init Init) (*RawResponse, error) {
	client := t.client
	if client == nil {
		client = resty.New()
	}

	req := client.R().
		SetContext(ctx).
		SetDoNotParseResponse(true).
		SetCookies(init.Cookies)

	header := mergeHeader(nil, init.Header)
	switch {
	case init.Body.IsMultipart():
		contentType, data, err := init.Body.Form().Encode()
		if err != nil {
			return nil, err
		}
		if header.Get(headerContentType) == "" {
			header.Set(headerContentType, contentType)
		}
		req.SetBody(data)
	case init.Body != nil:
		req.SetBody(init.Body.Bytes())
	}
	if header.Get(headerUserAgent) == "" {
		header.Set(headerUserAgent, DefaultUserAgent())
	}
	req.SetHeaderMultiValues(header)

	method := strings.ToUpper(init.Method)
	if method == "" {
		method = resty.MethodGet
	}
	resp, err := req.Execute(method, url)
	if err != nil {
		return nil, err
	}

	raw := resp.RawResponse
	return &RawResponse{
		Status:     raw.StatusCode,
		StatusText: raw.Status,
		Header:     raw.Header,
		URL:        raw.Request.URL.String(),
		Body:       resp.RawBody(),
	}, nil
}
