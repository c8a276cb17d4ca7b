package opfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadSettingsDefaults(t *testing.T) {
	s, err := LoadSettings("OPFETCH_TEST_EMPTY")
	require.NoError(t, err)

	assert.Equal(t, "", s.BaseURL)
	assert.Equal(t, 30*time.Second, s.Timeout)
	assert.False(t, s.Debug)
	assert.Equal(t, "info", s.LogLevel)
	assert.Equal(t, float64(0), s.RateLimitRPS)
	assert.Equal(t, 1, s.RateLimitBurst)
}

func TestLoadSettingsFromEnv(t *testing.T) {
	t.Setenv("OPFETCH_BASE_URL", "https://api.example.com")
	t.Setenv("OPFETCH_TIMEOUT", "5s")
	t.Setenv("OPFETCH_USER_AGENT", "petstore-cli/1.0")
	t.Setenv("OPFETCH_DEBUG", "true")
	t.Setenv("OPFETCH_LOG_LEVEL", "debug")
	t.Setenv("OPFETCH_RATE_LIMIT_RPS", "2.5")
	t.Setenv("OPFETCH_RATE_LIMIT_BURST", "4")

	s, err := LoadSettings("")
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", s.BaseURL)
	assert.Equal(t, 5*time.Second, s.Timeout)
	assert.Equal(t, "petstore-cli/1.0", s.UserAgent)
	assert.True(t, s.Debug)
	assert.Equal(t, "debug", s.LogLevel)
	assert.Equal(t, 2.5, s.RateLimitRPS)
	assert.Equal(t, 4, s.RateLimitBurst)
}

func TestLoadSettingsInvalid(t *testing.T) {
	t.Setenv("PETS_TIMEOUT", "soon")

	_, err := LoadSettings("PETS")
	assert.Error(t, err)
}

func TestWithSettings(t *testing.T) {
	client := New(WithSettings(Settings{
		BaseURL:        "https://api.example.com",
		Timeout:        2 * time.Second,
		UserAgent:      "petstore-cli/1.0",
		Debug:          true,
		LogLevel:       "warn",
		RateLimitRPS:   10,
		RateLimitBurst: 2,
	}))

	require.True(t, client.IsValid(), "%v", client.ValidationError())
	assert.Equal(t, "https://api.example.com", client.BaseURL())

	transport, ok := client.transport.(*HTTPTransport)
	require.True(t, ok)
	assert.Equal(t, 2*time.Second, transport.client.Timeout)

	assert.Equal(t, "petstore-cli/1.0", client.snapshot().init.Header.Get("User-Agent"))
	assert.True(t, client.debug.Enabled)
	assert.NotNil(t, client.logger)
	assert.Len(t, client.Middleware(), 1)
}

func TestWithSettingsBadLogLevelFallsBack(t *testing.T) {
	client := New(WithSettings(Settings{Debug: true, LogLevel: "loud"}))

	assert.NotNil(t, client.logger)
	assert.True(t, client.IsValid())
}

func TestWithSettingsUserAgentSent(t *testing.T) {
	var userAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userAgent = r.Header.Get("User-Agent")
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	client := New(WithSettings(Settings{BaseURL: server.URL, Timeout: time.Second, UserAgent: "petstore-cli/1.0"}))
	_, err := client.Path("/ping").Method(MethodGet).Create().Call(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, "petstore-cli/1.0", userAgent)
}

func TestWithSettingsRateLimitUsesMetricsFromAnyOption(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	tests := []struct {
		name  string
		order func(Settings, *MetricsCollector) []Option
	}{
		{"settings first", func(s Settings, mc *MetricsCollector) []Option {
			return []Option{WithSettings(s), WithMetricsCollector(mc)}
		}},
		{"metrics first", func(s Settings, mc *MetricsCollector) []Option {
			return []Option{WithMetricsCollector(mc), WithSettings(s)}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			collector := NewMetricsCollectorWithRegistry(prometheus.NewRegistry())
			settings := Settings{BaseURL: server.URL, Timeout: time.Second, RateLimitRPS: 50, RateLimitBurst: 5}
			client := New(tt.order(settings, collector)...)
			require.Len(t, client.Middleware(), 1)

			_, err := client.Path("/ping").Method(MethodGet).Create().Call(context.Background(), nil)
			require.NoError(t, err)

			assert.Equal(t, 1, testutil.CollectAndCount(collector.rateLimiterTokens))
		})
	}
}
