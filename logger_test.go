package opfetch

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observedLogger(level zapcore.Level) (Logger, *observer.ObservedLogs) {
	core, logs := observer.New(level)
	return NewZapLogger(zap.New(core)), logs
}

func TestSimpleLoggerLevels(t *testing.T) {
	logger := NewSimpleLogger()

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")
}

func TestZapLoggerFields(t *testing.T) {
	logger, logs := observedLogger(zapcore.DebugLevel)

	logger.Info("request sent", "method", "GET", "status", 200)

	entries := logs.All()
	require.Len(t, entries, 1)
	assert.Equal(t, "request sent", entries[0].Message)
	assert.Equal(t, zapcore.InfoLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.EqualValues(t, 200, fields["status"])
}

func TestZapLoggerNil(t *testing.T) {
	logger := NewZapLogger(nil)
	logger.Error("dropped")
}

func TestZerologLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewZerologLogger(zerolog.New(&buf).Level(zerolog.InfoLevel))

	logger.Debug("hidden")
	logger.Warn("slow request", "operation", "GET /pets")

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, `"level":"warn"`)
	assert.Contains(t, out, `"operation":"GET /pets"`)
	assert.Contains(t, out, `"message":"slow request"`)
}

func TestNewLeveledLogger(t *testing.T) {
	logger, err := NewLeveledLogger("warn")
	require.NoError(t, err)
	require.NotNil(t, logger)

	_, err = NewLeveledLogger("loud")
	assert.Error(t, err)
}

func TestLoggingMiddlewareSuccess(t *testing.T) {
	logger, logs := observedLogger(zapcore.DebugLevel)
	d := NewDescriptor(MethodGet, "/pets/{petId}", ContentTypeNone)
	ctx := withRequestID(withOperation(context.Background(), d), "req-1")

	next := func(ctx context.Context, url string, init Init) (*Response, error) {
		return &Response{OK: true, Status: http.StatusOK}, nil
	}
	_, err := Logging(logger)(ctx, "https://api.example.com/pets/1", Init{Method: "GET"}, next)
	require.NoError(t, err)

	entries := logs.FilterMessage("Request completed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	fields := entries[0].ContextMap()
	assert.Equal(t, "GET", fields["method"])
	assert.Equal(t, "https://api.example.com/pets/1", fields["url"])
	assert.Equal(t, "GET /pets/{petId}", fields["operation"])
	assert.Equal(t, "req-1", fields["requestID"])
	assert.EqualValues(t, 200, fields["status"])
}

func TestLoggingMiddlewareFailure(t *testing.T) {
	logger, logs := observedLogger(zapcore.DebugLevel)
	boom := errors.New("connection reset")

	next := func(ctx context.Context, url string, init Init) (*Response, error) {
		return nil, boom
	}
	_, err := Logging(logger)(context.Background(), "https://api.example.com/pets", Init{Method: "POST"}, next)
	assert.ErrorIs(t, err, boom)

	entries := logs.FilterMessage("Request failed").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.WarnLevel, entries[0].Level)
	assert.True(t, strings.Contains(entries[0].ContextMap()["error"].(string), "connection reset"))
}

func TestClientDebugLogging(t *testing.T) {
	logger, logs := observedLogger(zapcore.DebugLevel)
	client := New(
		WithDebug(),
		WithLogger(logger),
		WithRequestIDGenerator(func() string { return "req-9" }),
		WithTransport(TransportFunc(func(ctx context.Context, url string, init Init) (*RawResponse, error) {
			return &RawResponse{Status: http.StatusNoContent}, nil
		})),
	)

	_, err := client.Path("/pets").Method(MethodGet).Create().Call(context.Background(), nil)
	require.NoError(t, err)

	assert.Equal(t, 1, logs.FilterMessage("Starting request").Len())
	completed := logs.FilterMessage("Request completed").All()
	require.Len(t, completed, 1)
	assert.Equal(t, "req-9", completed[0].ContextMap()["requestID"])
}
