package logger

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minutely/minute-api/internal/config"
)

func TestSetup(t *testing.T) {
	testCases := []struct {
		name      string
		logLevel  string
		wantLevel slog.Level
	}{
		{name: "debug level", logLevel: "debug", wantLevel: slog.LevelDebug},
		{name: "info level", logLevel: "info", wantLevel: slog.LevelInfo},
		{name: "warn level", logLevel: "warn", wantLevel: slog.LevelWarn},
		{name: "error level", logLevel: "error", wantLevel: slog.LevelError},
		{name: "uppercase is accepted", logLevel: "WARN", wantLevel: slog.LevelWarn},
		{name: "unknown level falls back to info", logLevel: "verbose", wantLevel: slog.LevelInfo},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			logger, err := Setup(config.ServerConfig{Port: 8080, LogLevel: tc.logLevel})

			require.NoError(t, err, "Setup should not fail")
			require.NotNil(t, logger, "Setup should return a logger")

			ctx := context.Background()
			assert.True(t, logger.Enabled(ctx, tc.wantLevel),
				"logger should be enabled at the configured level")
			if tc.wantLevel > slog.LevelDebug {
				assert.False(t, logger.Enabled(ctx, tc.wantLevel-4),
					"logger should not be enabled below the configured level")
			}
		})
	}
}

func TestFromContext(t *testing.T) {
	base := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx := WithLogger(context.Background(), base)
	assert.Same(t, base, FromContext(ctx), "FromContext should return the stored logger")

	assert.Same(t, slog.Default(), FromContext(context.Background()),
		"FromContext should fall back to the default logger")
}

func TestFromContextOrDefault(t *testing.T) {
	base := slog.New(slog.NewTextHandler(io.Discard, nil))
	fallback := slog.New(slog.NewTextHandler(io.Discard, nil))

	ctx := WithLogger(context.Background(), base)
	assert.Same(t, base, FromContextOrDefault(ctx, fallback),
		"a stored logger wins over the fallback")

	assert.Same(t, fallback, FromContextOrDefault(context.Background(), fallback),
		"the fallback is used when no logger is stored")

	assert.Same(t, slog.Default(), FromContextOrDefault(context.Background(), nil),
		"a nil fallback yields the default logger")
}
