// Package logger holds the process logger and request-scoped logger injection.
package logger

import (
	"context"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey struct{}

// L is the global logger; Init replaces it. Request handlers should prefer FromContext.
var (
	L      = zap.NewNop()
	logKey = ctxKey{}
)

// Init builds the global logger for the given level ("debug", "info", ...) and
// format ("json" or "console").
func Init(level, format string) (*zap.Logger, error) {
	var cfg zap.Config
	if strings.ToLower(strings.TrimSpace(format)) == "console" {
		cfg = zap.NewDevelopmentConfig()
	} else {
		cfg = zap.NewProductionConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(parseLevel(level))
	cfg.EncoderConfig.TimeKey = "time"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	L = l
	zap.ReplaceGlobals(l)
	return l, nil
}

// FromContext returns the logger stored in ctx, or L.
func FromContext(ctx context.Context) *zap.Logger {
	return FromContextOr(ctx, L)
}

// FromContextOr returns the logger stored in ctx, or def.
func FromContextOr(ctx context.Context, def *zap.Logger) *zap.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(logKey).(*zap.Logger); ok && l != nil {
			return l
		}
	}
	return def
}

// WithContext stores l in ctx.
func WithContext(ctx context.Context, l *zap.Logger) context.Context {
	return context.WithValue(ctx, logKey, l)
}

func parseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}
