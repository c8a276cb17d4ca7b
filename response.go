package opfetch

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/bytedance/sonic"
)

// RawResponse is what a Transport hands back: status, headers and an unread
// body. Normalize closes Body.
type RawResponse struct {
	Status     int
	StatusText string
	Header     http.Header
	URL        string
	Body       io.ReadCloser
}

// Response is a normalized response. Data holds the decoded JSON value
// (maps, slices, float64, string, bool), the body text when it is not JSON,
// or nil for 204 No Content. A Response is never modified after creation
// and may be shared between callers.
type Response struct {
	Header     http.Header
	URL        string
	OK         bool
	Status     int
	StatusText string
	Data       any

	body []byte
}

// Body returns the raw response body.
func (r *Response) Body() []byte {
	return r.body
}

// Decode unmarshals the response body into v.
func (r *Response) Decode(v any) error {
	return decodeInto(r.Data, r.body, v)
}

// Normalize reads raw into a Response. A status outside 200..299 is returned
// as an *APIError carrying the same fields.
func Normalize(raw *RawResponse) (*Response, error) {
	if raw.Body != nil {
		defer raw.Body.Close()
	}

	header := raw.Header
	if header == nil {
		header = make(http.Header)
	}
	resp := &Response{
		Header:     header,
		URL:        raw.URL,
		OK:         raw.Status >= 200 && raw.Status <= 299,
		Status:     raw.Status,
		StatusText: statusText(raw.StatusText, raw.Status),
	}

	if raw.Status != http.StatusNoContent && raw.Body != nil {
		body, err := io.ReadAll(raw.Body)
		if err != nil {
			return nil, err
		}
		resp.body = body

		data, err := decodeData(header.Get(headerContentType), body)
		if err != nil {
			return nil, &ClientError{
				Type:      ErrorTypeDecode,
				Message:   "malformed JSON response",
				Cause:     fmt.Errorf("%w: %w", ErrDecode, err),
				URL:       raw.URL,
				Timestamp: time.Now(),
			}
		}
		resp.Data = data
	}

	if resp.OK {
		return resp, nil
	}
	return nil, newAPIError(resp)
}

// decodeData decodes JSON bodies strictly and everything else leniently:
// text that parses as JSON becomes the parsed value, anything else stays a
// string.
func decodeData(contentType string, body []byte) (any, error) {
	if strings.Contains(strings.ToLower(contentType), string(ContentTypeJSON)) {
		if len(body) == 0 {
			return nil, nil
		}
		var v any
		if err := sonic.ConfigStd.Unmarshal(body, &v); err != nil {
			return nil, err
		}
		return v, nil
	}

	text := string(body)
	var v any
	if err := sonic.ConfigStd.UnmarshalFromString(text, &v); err != nil {
		return text, nil
	}
	return v, nil
}

// decodeInto copies a decoded value into a typed destination.
func decodeInto(data any, raw []byte, v any) error {
	switch dst := v.(type) {
	case *any:
		*dst = data
		return nil
	case *string:
		if s, ok := data.(string); ok {
			*dst = s
			return nil
		}
	}
	if data == nil && len(raw) == 0 {
		return nil
	}
	if err := sonic.ConfigStd.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("%w: %w", ErrDecode, err)
	}
	return nil
}

func statusText(text string, code int) string {
	text = strings.TrimSpace(strings.TrimPrefix(text, strconv.Itoa(code)))
	if text == "" {
		return http.StatusText(code)
	}
	return text
}
