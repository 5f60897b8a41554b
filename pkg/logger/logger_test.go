package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   string
		wantErr bool
	}{
		{"debug", "debug", false},
		{"info", "info", false},
		{"warn", "warn", false},
		{"error", "error", false},
		{"invalid", "verbose", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := newLogger(Config{Level: tt.level, Encoding: "json"})
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, l)
		})
	}
}

func TestNewLoggerDevelopmentConsole(t *testing.T) {
	l, err := newLogger(Config{Level: "debug", Development: true, Encoding: "console"})
	require.NoError(t, err)
	assert.NotNil(t, l)
}

func TestGetFallback(t *testing.T) {
	// Get must never return nil even without Init
	assert.NotNil(t, Get())
}

func TestWithContext(t *testing.T) {
	ctx := context.Background()
	ctx = context.WithValue(ctx, RunIDKey, "run-7f3a")
	ctx = context.WithValue(ctx, StageKey, "transform")
	ctx = context.WithValue(ctx, TableKey, "customer_dim")

	l := WithContext(ctx)
	assert.NotNil(t, l)

	// value of a non-string type is ignored, not panicked on
	ctx = context.WithValue(context.Background(), RunIDKey, 42)
	assert.NotNil(t, WithContext(ctx))
}
