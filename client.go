package opfetch

import (
	"net/http"
	"strings"
	"sync"
)

// Client holds the configuration shared by every operation created from it:
// base URL, default init and the middleware list. Operations read a snapshot
// of the configuration at the start of each call, so changes made with
// Configure or Use apply to later calls of operations created earlier. It is
// safe for concurrent use.
type Client struct {
	mu         sync.RWMutex
	baseURL    string
	init       Init
	middleware []Middleware

	transport       Transport
	metrics         *MetricsCollector
	debug           *DebugConfig
	logger          Logger
	validationError error

	// settingsRateLimit is appended to the middleware after all options ran.
	settingsRateLimit *RateLimitConfig
}

// Config is the replaceable part of the client configuration.
type Config struct {
	BaseURL string
	Init    Init
	Use     []Middleware
}

// clientSnapshot is the configuration one call runs with.
type clientSnapshot struct {
	baseURL    string
	init       Init
	middleware []Middleware
	transport  Transport
	metrics    *MetricsCollector
	debug      *DebugConfig
	logger     Logger
}

// New constructs a Client using the provided functional options. A best effort
// validation is performed; call IsValid / ValidationError for errors.
func New(options ...Option) *Client {
	client := &Client{
		baseURL:    "",
		middleware: []Middleware{},
		transport:  NewHTTPTransport(&http.Client{}),
		debug:      DefaultDebugConfig(),
	}

	for _, option := range options {
		option(client)
	}
	if rl := client.settingsRateLimit; rl != nil {
		rl.Metrics = client.metrics
		client.middleware = append(client.middleware, RateLimit(*rl))
		client.settingsRateLimit = nil
	}

	if err := client.ValidateConfiguration(); err != nil {
		client.validationError = err
	}
	client.middleware = compactMiddleware(client.middleware)

	return client
}

// Configure replaces the base URL, the default init and the whole middleware
// list at once. Nil middleware entries are dropped.
func (c *Client) Configure(cfg Config) {
	middleware := compactMiddleware(cfg.Use)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.baseURL = cfg.BaseURL
	c.init = MergeInit(cfg.Init)
	c.middleware = middleware
}

// Use appends middleware to the end of the chain.
func (c *Client) Use(middleware ...Middleware) {
	middleware = compactMiddleware(middleware)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.middleware = append(c.middleware[:len(c.middleware):len(c.middleware)], middleware...)
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.baseURL
}

// Middleware returns a copy of the registered middleware list.
func (c *Client) Middleware() []Middleware {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Middleware(nil), c.middleware...)
}

func (c *Client) snapshot() clientSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return clientSnapshot{
		baseURL:    c.baseURL,
		init:       c.init,
		middleware: c.middleware[:len(c.middleware):len(c.middleware)],
		transport:  c.transport,
		metrics:    c.metrics,
		debug:      c.debug,
		logger:     c.logger,
	}
}

func compactMiddleware(middleware []Middleware) []Middleware {
	out := make([]Middleware, 0, len(middleware))
	for _, mw := range middleware {
		if mw != nil {
			out = append(out, mw)
		}
	}
	return out
}

// PathBuilder selects the method of operations on one path template.
type PathBuilder struct {
	client *Client
	path   string
}

// Path starts the description of an operation on path, a template such as
// "/pets/{petId}".
func (c *Client) Path(path string) *PathBuilder {
	return &PathBuilder{client: c, path: path}
}

// MethodBuilder creates operations for one path and method.
type MethodBuilder struct {
	client     *Client
	descriptor Descriptor
}

// Method fixes the HTTP method and, optionally, the request body content type.
func (pb *PathBuilder) Method(method Method, contentType ...ContentType) *MethodBuilder {
	var ct ContentType
	if len(contentType) > 0 {
		ct = contentType[0]
	}
	return &MethodBuilder{
		client:     pb.client,
		descriptor: NewDescriptor(Method(strings.ToLower(string(method))), pb.path, ct),
	}
}

// Create returns an untyped operation. queryParams lists the parameters sent
// in the query string when the method carries a body.
func (mb *MethodBuilder) Create(queryParams ...string) *Operation[any, any, any] {
	return Create[any, any, any](mb, queryParams...)
}

// Create returns an operation with payload type P, success body R and error
// body E.
func Create[P, R, E any](mb *MethodBuilder, queryParams ...string) *Operation[P, R, E] {
	d := mb.descriptor
	d.query = append([]string(nil), queryParams...)
	return NewOperation[P, R, E](mb.client, d)
}
