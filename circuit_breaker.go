package opfetch

import (
	"context"
	"errors"
	"net/http"
	"sync/atomic"
	"time"
)

// CircuitState is the position of a circuit breaker.
type CircuitState int

const (
	StateClosed CircuitState = iota
	StateOpen
	StateHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateOpen:
		return "open"
	case StateHalfOpen:
		return "half-open"
	}
	return "unknown"
}

// CircuitBreakerConfig configures a CircuitBreaker. Zero values take the
// defaults: 5 failures to open, 60s before probing, 2 probe successes to close.
type CircuitBreakerConfig struct {
	// Name labels the breaker in metrics and error messages.
	Name             string
	FailureThreshold int
	RecoveryTimeout  time.Duration
	SuccessThreshold int
	Metrics          *MetricsCollector
}

// CircuitBreaker stops sending requests after repeated failures and lets
// probes through again once the recovery timeout has passed. All state is
// kept in atomics; it is safe for concurrent use.
type CircuitBreaker struct {
	name             string
	failureThreshold int64
	successThreshold int64
	recoveryTimeout  int64
	metrics          *MetricsCollector

	state       atomic.Int64
	failures    atomic.Int64
	successes   atomic.Int64
	lastFailure atomic.Int64 // unix nanos
}

// NewCircuitBreaker returns a closed breaker.
func NewCircuitBreaker(config CircuitBreakerConfig) *CircuitBreaker {
	if config.Name == "" {
		config.Name = "default"
	}
	if config.FailureThreshold <= 0 {
		config.FailureThreshold = 5
	}
	if config.RecoveryTimeout <= 0 {
		config.RecoveryTimeout = 60 * time.Second
	}
	if config.SuccessThreshold <= 0 {
		config.SuccessThreshold = 2
	}

	cb := &CircuitBreaker{
		name:             config.Name,
		failureThreshold: int64(config.FailureThreshold),
		successThreshold: int64(config.SuccessThreshold),
		recoveryTimeout:  int64(config.RecoveryTimeout),
		metrics:          config.Metrics,
	}
	cb.metrics.RecordCircuitBreakerState(cb.name, StateClosed)
	return cb
}

// Name returns the configured breaker name.
func (cb *CircuitBreaker) Name() string {
	return cb.name
}

// State returns the current state.
func (cb *CircuitBreaker) State() CircuitState {
	return CircuitState(cb.state.Load())
}

// transition moves the breaker from one state to another. Only the caller
// that wins the swap reports the new state.
func (cb *CircuitBreaker) transition(from, to CircuitState) bool {
	if !cb.state.CompareAndSwap(int64(from), int64(to)) {
		return false
	}
	cb.successes.Store(0)
	if to == StateClosed {
		cb.failures.Store(0)
	}
	cb.metrics.RecordCircuitBreakerState(cb.name, to)
	return true
}

// Allow reports whether a request may go through. An open breaker whose
// recovery timeout has passed moves to half-open and admits the caller.
func (cb *CircuitBreaker) Allow() bool {
	switch cb.State() {
	case StateClosed, StateHalfOpen:
		return true
	case StateOpen:
		if time.Now().UnixNano()-cb.lastFailure.Load() < cb.recoveryTimeout {
			return false
		}
		return cb.transition(StateOpen, StateHalfOpen)
	}
	return false
}

// RecordFailure counts a failed request. Reaching the threshold while closed,
// or any failure while half-open, opens the breaker.
func (cb *CircuitBreaker) RecordFailure() {
	cb.lastFailure.Store(time.Now().UnixNano())

	switch cb.State() {
	case StateClosed:
		if cb.failures.Add(1) >= cb.failureThreshold {
			cb.transition(StateClosed, StateOpen)
		}
	case StateHalfOpen:
		cb.failures.Add(1)
		cb.transition(StateHalfOpen, StateOpen)
	}
}

// RecordSuccess counts a successful request. While closed it clears the
// failure streak; while half-open enough successes close the breaker.
func (cb *CircuitBreaker) RecordSuccess() {
	switch cb.State() {
	case StateClosed:
		cb.failures.Store(0)
	case StateHalfOpen:
		if cb.successes.Add(1) >= cb.successThreshold {
			cb.transition(StateHalfOpen, StateClosed)
		}
	}
}

// Middleware guards the rest of the chain with the breaker. Transport
// failures and 5xx responses count as failures. Caller cancellation and
// errors raised by the library itself count as neither.
func (cb *CircuitBreaker) Middleware() Middleware {
	return func(ctx context.Context, url string, init Init, next FetchFunc) (*Response, error) {
		if !cb.Allow() {
			return nil, &ClientError{
				Type:      ErrorTypeCircuitOpen,
				Message:   "circuit breaker " + cb.name + " is open",
				Cause:     ErrCircuitOpen,
				Method:    init.Method,
				URL:       url,
				Timestamp: time.Now(),
			}
		}

		resp, err := next(ctx, url, init)
		switch {
		case err == nil:
			cb.RecordSuccess()
		case errors.Is(err, context.Canceled):
		case isBreakerFailure(err):
			cb.RecordFailure()
		default:
			cb.RecordSuccess()
		}
		return resp, err
	}
}

// CircuitBreakerMiddleware is a shorthand for NewCircuitBreaker(config).Middleware().
func CircuitBreakerMiddleware(config CircuitBreakerConfig) Middleware {
	return NewCircuitBreaker(config).Middleware()
}

func isBreakerFailure(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status >= http.StatusInternalServerError
	}
	var clientErr *ClientError
	return !errors.As(err, &clientErr)
}
