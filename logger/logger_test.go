package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestInit(t *testing.T) {
	prev := L
	t.Cleanup(func() { L = prev })

	l, err := Init("debug", "json")
	require.NoError(t, err)
	assert.Same(t, l, L)
	assert.True(t, L.Core().Enabled(zapcore.DebugLevel))

	_, err = Init("warn", "console")
	require.NoError(t, err)
	assert.False(t, L.Core().Enabled(zapcore.InfoLevel))
}

func TestContextLogger(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	custom := zap.New(core).With(zap.String("request_id", "12345"))

	ctx := WithContext(context.Background(), custom)
	FromContext(ctx).Info("hello")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "12345", logs.All()[0].ContextMap()["request_id"])
}

func TestFromContextFallsBackToGlobal(t *testing.T) {
	assert.Same(t, L, FromContext(context.Background()))
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input    string
		expected zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"Warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"unknown", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expected, parseLevel(tt.input), tt.input)
	}
}

func TestFromContextOr(t *testing.T) {
	def := zap.NewExample()
	assert.Same(t, def, FromContextOr(context.Background(), def))
	assert.Nil(t, FromContextOr(context.Background(), nil))

	custom := zap.NewNop()
	assert.Same(t, custom, FromContextOr(WithContext(context.Background(), custom), def))
}
