package opfetch

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is the structured logging interface used by the client and the
// Logging middleware. keysAndValues alternate between string keys and values.
type Logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

// DebugConfig controls which events the client logs.
type DebugConfig struct {
	Enabled      bool
	LogRequests  bool
	LogErrors    bool
	RequestIDGen func() string
}

// DefaultDebugConfig returns a disabled configuration that logs requests and
// errors once enabled, with UUID request IDs.
func DefaultDebugConfig() *DebugConfig {
	return &DebugConfig{
		Enabled:      false,
		LogRequests:  true,
		LogErrors:    true,
		RequestIDGen: uuid.NewString,
	}
}

func (d *DebugConfig) enabled() bool {
	return d != nil && d.Enabled
}

type zapLogger struct {
	sugar *zap.SugaredLogger
}

// NewZapLogger adapts a zap logger.
func NewZapLogger(logger *zap.Logger) Logger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &zapLogger{sugar: logger.Sugar()}
}

func (l *zapLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.sugar.Debugw(msg, keysAndValues...)
}

func (l *zapLogger) Info(msg string, keysAndValues ...interface{}) {
	l.sugar.Infow(msg, keysAndValues...)
}

func (l *zapLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.sugar.Warnw(msg, keysAndValues...)
}

func (l *zapLogger) Error(msg string, keysAndValues ...interface{}) {
	l.sugar.Errorw(msg, keysAndValues...)
}

type zerologLogger struct {
	logger zerolog.Logger
}

// NewZerologLogger adapts a zerolog logger.
func NewZerologLogger(logger zerolog.Logger) Logger {
	return &zerologLogger{logger: logger}
}

func (l *zerologLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l *zerologLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Info().Fields(keysAndValues).Msg(msg)
}

func (l *zerologLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.logger.Warn().Fields(keysAndValues).Msg(msg)
}

func (l *zerologLogger) Error(msg string, keysAndValues ...interface{}) {
	l.logger.Error().Fields(keysAndValues).Msg(msg)
}

// NewSimpleLogger returns a console logger at debug level.
func NewSimpleLogger() Logger {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return NopLogger()
	}
	return NewZapLogger(logger)
}

// NewLeveledLogger returns a JSON logger writing to stdout at level, one of
// "debug", "info", "warn" or "error".
func NewLeveledLogger(level string) (Logger, error) {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return NewZapLogger(logger), nil
}

// NopLogger returns a Logger that discards everything.
func NopLogger() Logger {
	return NewZapLogger(zap.NewNop())
}

// Logging logs every request with its outcome. Responses outside 200..299
// and transport failures are logged at warn level.
func Logging(logger Logger) Middleware {
	if logger == nil {
		logger = NopLogger()
	}
	return func(ctx context.Context, url string, init Init, next FetchFunc) (*Response, error) {
		start := time.Now()
		kv := []interface{}{"method", init.Method, "url", url}
		if d, ok := OperationFromContext(ctx); ok {
			kv = append(kv, "operation", d.ID())
		}
		if id, ok := RequestIDFromContext(ctx); ok {
			kv = append(kv, "requestID", id)
		}

		resp, err := next(ctx, url, init)

		kv = append(kv, "status", statusOf(resp, err), "duration", time.Since(start))
		if err != nil {
			logger.Warn("Request failed", append(kv, "error", err)...)
			return nil, err
		}
		logger.Debug("Request completed", kv...)
		return resp, nil
	}
}
