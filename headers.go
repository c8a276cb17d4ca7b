package opfetch

import (
	"net/http"
)

const (
	headerContentType = "Content-Type"
	headerAccept      = "Accept"
)

// composeHeaders returns a copy of h completed with the default Content-Type
// and Accept headers. Explicit values are never replaced. Multipart bodies
// get no Content-Type so the transport can add the boundary.
func composeHeaders(body *Body, h http.Header, contentType ContentType) http.Header {
	headers := mergeHeader(nil, h)

	if body != nil && headers.Get(headerContentType) == "" && contentType != ContentTypeMultipart {
		ct := string(contentType)
		if ct == "" {
			ct = string(ContentTypeJSON)
		}
		headers.Set(headerContentType, ct)
	}

	if headers.Get(headerAccept) == "" {
		headers.Set(headerAccept, string(ContentTypeJSON))
	}

	return headers
}

// MergeInit overlays each init in rest onto first. Headers merge per key with
// the later init winning; the other fields are replaced when set.
func MergeInit(first Init, rest ...Init) Init {
	merged := first
	merged.Header = mergeHeader(nil, first.Header)
	for _, next := range rest {
		merged.Header = mergeHeader(merged.Header, next.Header)
		if next.Method != "" {
			merged.Method = next.Method
		}
		if next.Body != nil {
			merged.Body = next.Body
		}
		if next.Cookies != nil {
			merged.Cookies = next.Cookies
		}
	}
	return merged
}

// mergeHeader returns a new header holding base overlaid with over. Keys are
// canonicalized; every key present in over replaces the values from base.
func mergeHeader(base, over http.Header) http.Header {
	out := make(http.Header, len(base)+len(over))
	for k, vs := range base {
		for _, v := range vs {
			out.Add(k, v)
		}
	}
	for k := range over {
		out.Del(k)
	}
	for k, vs := range over {
		for _, v := range vs {
			out.Add(k, v)
		}
	}
	return out
}
