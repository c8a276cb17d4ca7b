package opfetch

import (
	"context"
	"errors"
	neturl "net/url"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimitKeyFunc picks the bucket a request draws from.
type RateLimitKeyFunc func(ctx context.Context, url string, init Init) string

// RateLimitConfig configures the RateLimit middleware.
type RateLimitConfig struct {
	// Name labels the limiter in metrics.
	Name string
	// RequestsPerSecond is the sustained rate; Burst the bucket size.
	RequestsPerSecond float64
	Burst             int
	// Wait blocks until a token is available or the context ends instead of
	// failing immediately with ErrRateLimited.
	Wait bool
	// KeyFunc splits traffic into independent buckets of the same size.
	// Nil means one bucket for everything.
	KeyFunc RateLimitKeyFunc
	Metrics *MetricsCollector
}

// RateLimit limits requests with token buckets shared by every request that
// goes through the returned middleware.
func RateLimit(config RateLimitConfig) Middleware {
	if config.Name == "" {
		config.Name = "default"
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	limit := rate.Limit(config.RequestsPerSecond)
	if config.RequestsPerSecond <= 0 {
		limit = rate.Inf
	}
	registry := newLimiterRegistry(limit, config.Burst)

	return func(ctx context.Context, url string, init Init, next FetchFunc) (*Response, error) {
		name := config.Name
		var key string
		if config.KeyFunc != nil {
			key = config.KeyFunc(ctx, url, init)
			name = config.Name + ":" + key
		}
		limiter := registry.get(key)

		if config.Wait {
			if err := limiter.Wait(ctx); err != nil {
				config.Metrics.RecordRateLimited(name)
				return nil, rateLimitError(url, init, err)
			}
		} else if !limiter.Allow() {
			config.Metrics.RecordRateLimited(name)
			return nil, rateLimitError(url, init, nil)
		}

		config.Metrics.RecordRateLimiterTokens(name, limiter.Tokens())
		return next(ctx, url, init)
	}
}

// OperationKeyFunc gives each operation its own bucket. Requests made outside
// an operation share the "" bucket.
func OperationKeyFunc(ctx context.Context, url string, init Init) string {
	if d, ok := OperationFromContext(ctx); ok {
		return d.ID()
	}
	return ""
}

// HostKeyFunc gives each target host its own bucket.
func HostKeyFunc(ctx context.Context, url string, init Init) string {
	u, err := neturl.Parse(url)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}

// limiterRegistry lazily creates one limiter per key.
type limiterRegistry struct {
	mu       sync.RWMutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func newLimiterRegistry(limit rate.Limit, burst int) *limiterRegistry {
	return &limiterRegistry{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
}

func (r *limiterRegistry) get(key string) *rate.Limiter {
	r.mu.RLock()
	limiter, exists := r.limiters[key]
	r.mu.RUnlock()
	if exists {
		return limiter
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if limiter, exists = r.limiters[key]; exists {
		return limiter
	}
	limiter = rate.NewLimiter(r.limit, r.burst)
	r.limiters[key] = limiter
	return limiter
}

func rateLimitError(url string, init Init, cause error) *ClientError {
	err := ErrRateLimited
	if cause != nil {
		err = errors.Join(ErrRateLimited, cause)
	}
	return &ClientError{
		Type:      ErrorTypeRateLimit,
		Message:   "rate limit exceeded",
		Cause:     err,
		Method:    init.Method,
		URL:       url,
		Timestamp: time.Now(),
	}
}
