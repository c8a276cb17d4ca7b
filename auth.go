package opfetch

import (
	"context"
	"encoding/base64"
	"net/http"
	"strings"
)

const headerAuthorization = "Authorization"

// SetHeader sets key to value on every request that does not carry it yet.
func SetHeader(key, value string) Middleware {
	return func(ctx context.Context, url string, init Init, next FetchFunc) (*Response, error) {
		if hasHeader(init.Header, key) {
			return next(ctx, url, init)
		}
		return next(ctx, url, withHeader(init, key, value))
	}
}

// BearerToken authorizes requests with a static bearer token.
func BearerToken(token string) Middleware {
	return SetHeader(headerAuthorization, "Bearer "+token)
}

// BearerTokenFunc authorizes requests with a token obtained per request, for
// tokens that expire. An error from fn fails the request.
func BearerTokenFunc(fn func(ctx context.Context) (string, error)) Middleware {
	return func(ctx context.Context, url string, init Init, next FetchFunc) (*Response, error) {
		if hasHeader(init.Header, headerAuthorization) {
			return next(ctx, url, init)
		}
		token, err := fn(ctx)
		if err != nil {
			return nil, err
		}
		return next(ctx, url, withHeader(init, headerAuthorization, "Bearer "+token))
	}
}

// BasicAuth authorizes requests with HTTP basic credentials.
func BasicAuth(username, password string) Middleware {
	credentials := base64.StdEncoding.EncodeToString([]byte(username + ":" + password))
	return SetHeader(headerAuthorization, "Basic "+credentials)
}

// APIKey sends key in the header named header.
func APIKey(header, key string) Middleware {
	return SetHeader(header, key)
}

// hasHeader reports whether h carries a non-empty value for key under any
// spelling of the key.
func hasHeader(h http.Header, key string) bool {
	if h.Get(key) != "" {
		return true
	}
	for k, vs := range h {
		if strings.EqualFold(k, key) && len(vs) > 0 && vs[0] != "" {
			return true
		}
	}
	return false
}

// withHeader returns init with a copied header set to key: value. The
// caller's header map is left as is.
func withHeader(init Init, key, value string) Init {
	header := make(http.Header, len(init.Header)+1)
	for k, vs := range init.Header {
		for _, v := range vs {
			header.Add(k, v)
		}
	}
	header.Set(key, value)
	init.Header = header
	return init
}
