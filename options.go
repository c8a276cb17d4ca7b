package opfetch

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/go-resty/resty/v2"
)

// Option configures a Client.
type Option func(*Client)

// WithBaseURL sets the prefix prepended to every resolved path
func WithBaseURL(baseURL string) Option {
	return func(c *Client) {
		c.baseURL = baseURL
	}
}

// WithInit sets the default init merged under every call's init
func WithInit(init Init) Option {
	return func(c *Client) {
		c.init = MergeInit(init)
	}
}

// WithHeader adds a default header
func WithHeader(key, value string) Option {
	return func(c *Client) {
		if c.init.Header == nil {
			c.init.Header = make(http.Header)
		}
		c.init.Header.Set(key, value)
	}
}

// WithMiddleware adds middleware to the client
func WithMiddleware(middleware ...Middleware) Option {
	return func(c *Client) {
		c.middleware = append(c.middleware, middleware...)
	}
}

// WithTransport sets the transport that performs the network call
func WithTransport(transport Transport) Option {
	return func(c *Client) {
		c.transport = transport
	}
}

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.transport = NewHTTPTransport(client)
	}
}

// WithRestyClient sends requests through a resty client
func WithRestyClient(client *resty.Client) Option {
	return func(c *Client) {
		c.transport = NewRestyTransport(client)
	}
}

// WithMetrics enables Prometheus metrics collection
func WithMetrics() Option {
	return func(c *Client) {
		c.metrics = NewMetricsCollector()
	}
}

// WithMetricsCollector sets a custom metrics collector
func WithMetricsCollector(collector *MetricsCollector) Option {
	return func(c *Client) {
		c.metrics = collector
	}
}

// WithDebug enables debug logging with default configuration
func WithDebug() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
	}
}

// WithDebugConfig sets custom debug configuration
func WithDebugConfig(config *DebugConfig) Option {
	return func(c *Client) {
		c.debug = config
	}
}

// WithLogger sets a custom logger for debug output
func WithLogger(logger Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithSimpleLogger enables debug logging with a simple console logger
func WithSimpleLogger() Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.Enabled = true
		c.logger = NewSimpleLogger()
	}
}

// WithRequestIDGenerator sets a custom function for generating request IDs
func WithRequestIDGenerator(gen func() string) Option {
	return func(c *Client) {
		if c.debug == nil {
			c.debug = DefaultDebugConfig()
		}
		c.debug.RequestIDGen = gen
	}
}

// ValidateConfiguration validates the client configuration and returns an error if invalid
func (c *Client) ValidateConfiguration() error {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var errors []string

	errors = append(errors, c.validateBaseURL()...)
	errors = append(errors, c.validateTransportConfig()...)
	errors = append(errors, c.validateDebugConfig()...)
	errors = append(errors, c.validateMiddlewareConfig()...)

	if len(errors) > 0 {
		return &ClientError{
			Type:    ErrorTypeValidation,
			Message: "configuration validation failed",
			Cause:   fmt.Errorf("validation errors: %v", errors),
		}
	}

	return nil
}

// IsValid reports whether the configuration passed validation at construction.
func (c *Client) IsValid() bool {
	return c.validationError == nil
}

// ValidationError returns the validation error found at construction, if any.
func (c *Client) ValidationError() error {
	return c.validationError
}

// validateBaseURL checks that the base URL parses
func (c *Client) validateBaseURL() []string {
	var errors []string

	if c.baseURL != "" {
		if _, err := url.Parse(c.baseURL); err != nil {
			errors = append(errors, fmt.Sprintf("baseURL is invalid: %v", err))
		}
	}

	return errors
}

// validateTransportConfig validates transport configuration
func (c *Client) validateTransportConfig() []string {
	var errors []string

	switch t := c.transport.(type) {
	case nil:
		errors = append(errors, "transport cannot be nil")
	case *HTTPTransport:
		if t.client == nil {
			errors = append(errors, "HTTP client cannot be nil")
		}
	case *RestyTransport:
		if t.client == nil {
			errors = append(errors, "resty client cannot be nil")
		}
	}

	return errors
}

// validateDebugConfig validates debug configuration
func (c *Client) validateDebugConfig() []string {
	var errors []string

	if c.debug != nil && c.debug.Enabled {
		if c.debug.RequestIDGen == nil {
			errors = append(errors, "debug RequestIDGen must be set when debug is enabled")
		}
		if c.logger == nil {
			errors = append(errors, "logger must be set when debug is enabled")
		}
	}

	return errors
}

// validateMiddlewareConfig validates middleware configuration
func (c *Client) validateMiddlewareConfig() []string {
	var errors []string

	for i, middleware := range c.middleware {
		if middleware == nil {
			errors = append(errors, fmt.Sprintf("middleware[%d] cannot be nil", i))
		}
	}

	return errors
}
