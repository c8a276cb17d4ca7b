package opfetch

import (
	"fmt"
	"net/http"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// DefaultEnvPrefix is the environment prefix read by LoadSettings when none
// is given.
const DefaultEnvPrefix = "OPFETCH"

// Settings groups the client tunables that can come from the environment.
// Example: OPFETCH_BASE_URL=https://api.example.com OPFETCH_TIMEOUT=5s .
type Settings struct {
	BaseURL   string        `envconfig:"BASE_URL"`
	Timeout   time.Duration `envconfig:"TIMEOUT"    default:"30s"`
	UserAgent string        `envconfig:"USER_AGENT"`

	Debug    bool   `envconfig:"DEBUG"     default:"false"`
	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`

	// RateLimitRPS of zero disables client-side rate limiting.
	RateLimitRPS   float64 `envconfig:"RATE_LIMIT_RPS"   default:"0"`
	RateLimitBurst int     `envconfig:"RATE_LIMIT_BURST" default:"1"`
}

// LoadSettings populates Settings from environment variables named
// PREFIX_KEY. An empty prefix means DefaultEnvPrefix.
func LoadSettings(prefix string) (Settings, error) {
	if prefix == "" {
		prefix = DefaultEnvPrefix
	}
	var s Settings
	if err := envconfig.Process(prefix, &s); err != nil {
		return Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return s, nil
}

// WithSettings applies s: base URL, an HTTP transport with the timeout, the
// User-Agent header, debug logging at LogLevel and, when RateLimitRPS is set,
// a RateLimit middleware. The rate limiter is appended after every other
// option passed to New and reports to the client's metrics collector.
func WithSettings(s Settings) Option {
	return func(c *Client) {
		if s.BaseURL != "" {
			c.baseURL = s.BaseURL
		}
		c.transport = NewHTTPTransport(&http.Client{Timeout: s.Timeout})

		if s.UserAgent != "" {
			WithHeader(headerUserAgent, s.UserAgent)(c)
		}

		if s.Debug {
			WithDebug()(c)
			logger, err := NewLeveledLogger(s.LogLevel)
			if err != nil {
				logger = NewSimpleLogger()
			}
			c.logger = logger
		}

		if s.RateLimitRPS > 0 {
			c.settingsRateLimit = &RateLimitConfig{
				RequestsPerSecond: s.RateLimitRPS,
				Burst:             s.RateLimitBurst,
				Wait:              true,
			}
		}
	}
}
