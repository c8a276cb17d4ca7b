package opfetch

import (
	"context"
	"crypto/sha256"
	"fmt"
	"hash/fnv"
	"net/http"

	"github.com/ambiyansyah-risyal/opfetch/internal/singleflight"
)

// DeduplicationKeyFunc builds a key for identifying identical in-flight requests.
type DeduplicationKeyFunc func(url string, init Init) string

// DeduplicationCondition decides whether a request is eligible for deduplication.
type DeduplicationCondition func(url string, init Init) bool

// DeduplicationConfig configures the Deduplicate middleware.
type DeduplicationConfig struct {
	KeyFunc   DeduplicationKeyFunc
	Condition DeduplicationCondition
	Metrics   *MetricsCollector
}

// Deduplicate coalesces concurrent identical requests: the first one runs the
// rest of the chain and later ones wait for its result. Waiters receive the
// same *Response (or error), which must be treated as read-only. A waiter
// whose context ends stops waiting; the running request keeps the context of
// the caller that started it.
func Deduplicate(config DeduplicationConfig) Middleware {
	if config.KeyFunc == nil {
		config.KeyFunc = DefaultDeduplicationKeyFunc
	}
	if config.Condition == nil {
		config.Condition = DefaultDeduplicationCondition
	}
	group := singleflight.New[*Response]()

	return func(ctx context.Context, url string, init Init, next FetchFunc) (*Response, error) {
		if !config.Condition(url, init) {
			return next(ctx, url, init)
		}

		resp, err, shared := group.Do(ctx, config.KeyFunc(url, init), func() (*Response, error) {
			return next(ctx, url, init)
		})
		if shared {
			config.Metrics.RecordDeduplicationHit(init.Method, endpointOf(ctx, url))
		}
		return resp, err
	}
}

// DefaultDeduplicationKeyFunc builds a key from method + URL + credentials
// (+ body hash for mutating verbs).
func DefaultDeduplicationKeyFunc(url string, init Init) string {
	h := fnv.New64a()
	h.Write([]byte(init.Method))
	h.Write([]byte(url))
	for _, v := range init.Header.Values("Authorization") {
		h.Write([]byte(v))
	}

	switch init.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		if raw := init.Body.Bytes(); raw != nil {
			bodyHash := sha256.Sum256(raw)
			h.Write(bodyHash[:])
		}
	}

	return fmt.Sprintf("%x", h.Sum64())
}

// DefaultDeduplicationCondition enables deduplication for safe idempotent methods.
func DefaultDeduplicationCondition(url string, init Init) bool {
	switch init.Method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	}
	return false
}

// endpointOf labels a request by its operation path template when known.
func endpointOf(ctx context.Context, url string) string {
	if d, ok := OperationFromContext(ctx); ok {
		return d.Path()
	}
	return url
}
