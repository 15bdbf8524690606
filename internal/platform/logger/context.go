package logger

import (
	"context"
	"log/slog"
)

// loggerContextKey is the private context key under which a logger is
// stored. An unexported struct type avoids collisions with other packages.
type loggerContextKey struct{}

// WithLogger returns a copy of ctx carrying the given logger. Handlers
// attach a request-scoped logger (with trace ID attributes) so deeper
// layers log with the same correlation fields.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// FromContext returns the logger stored in ctx, or slog.Default() when
// none is present.
func FromContext(ctx context.Context) *slog.Logger {
	return FromContextOrDefault(ctx, slog.Default())
}

// FromContextOrDefault returns the logger stored in ctx, or the provided
// fallback when none is present. A nil fallback yields slog.Default().
func FromContextOrDefault(ctx context.Context, fallback *slog.Logger) *slog.Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerContextKey{}).(*slog.Logger); ok && l != nil {
			return l
		}
	}
	if fallback != nil {
		return fallback
	}
	return slog.Default()
}
