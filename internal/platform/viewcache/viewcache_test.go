package viewcache

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minutely/minute-api/internal/domain"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestCache_SetGetInvalidate(t *testing.T) {
	t.Parallel()

	cache := New(0, testLogger())
	id := uuid.New()

	_, ok := cache.Get(domain.ViewKindRecording, id)
	assert.False(t, ok)

	cache.Set(domain.ViewKindRecording, id, "rendered view")

	got, ok := cache.Get(domain.ViewKindRecording, id)
	require.True(t, ok)
	assert.Equal(t, "rendered view", got)

	cache.Invalidate(context.Background(), domain.ViewKindRecording, id)

	_, ok = cache.Get(domain.ViewKindRecording, id)
	assert.False(t, ok)
}

func TestCache_KindsAreIndependent(t *testing.T) {
	t.Parallel()

	cache := New(0, testLogger())
	id := uuid.New()

	cache.Set(domain.ViewKindRecording, id, "recording view")
	cache.Set(domain.ViewKindSummary, id, "summary view")

	cache.Invalidate(context.Background(), domain.ViewKindRecording, id)

	_, ok := cache.Get(domain.ViewKindRecording, id)
	assert.False(t, ok)

	got, ok := cache.Get(domain.ViewKindSummary, id)
	require.True(t, ok)
	assert.Equal(t, "summary view", got)
}

func TestCache_TTLExpiry(t *testing.T) {
	t.Parallel()

	cache := New(10*time.Millisecond, testLogger())
	id := uuid.New()

	cache.Set(domain.ViewKindProject, id, "project view")

	_, ok := cache.Get(domain.ViewKindProject, id)
	require.True(t, ok)

	time.Sleep(20 * time.Millisecond)

	_, ok = cache.Get(domain.ViewKindProject, id)
	assert.False(t, ok, "expired entries must not be served")
}
