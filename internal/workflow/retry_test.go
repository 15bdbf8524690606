package workflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeSleeper records the delays requested instead of sleeping.
type fakeSleeper struct {
	mu     sync.Mutex
	delays []time.Duration
	err    error
}

func (s *fakeSleeper) sleep(_ context.Context, d time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delays = append(s.delays, d)
	return s.err
}

func (s *fakeSleeper) recorded() []time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]time.Duration, len(s.delays))
	copy(out, s.delays)
	return out
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
}

func TestBackoff_MaxAttempts(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, Backoff{}.MaxAttempts())
	assert.Equal(t, 2, Backoff{time.Second}.MaxAttempts())
	assert.Equal(t, 4, DefaultBackoff().MaxAttempts())
}

func TestBackoff_Delay(t *testing.T) {
	t.Parallel()

	b := Backoff{1 * time.Second, 5 * time.Second, 15 * time.Second}

	assert.Equal(t, 1*time.Second, b.Delay(0))
	assert.Equal(t, 5*time.Second, b.Delay(1))
	assert.Equal(t, 15*time.Second, b.Delay(2))

	// Attempts past the schedule clamp to the last entry.
	assert.Equal(t, 15*time.Second, b.Delay(3))
	assert.Equal(t, 15*time.Second, b.Delay(100))

	// Degenerate inputs stay safe.
	assert.Equal(t, 1*time.Second, b.Delay(-1))
	assert.Equal(t, time.Duration(0), Backoff{}.Delay(0))
}

func TestRunWithRetry_SucceedsFirstAttempt(t *testing.T) {
	t.Parallel()

	sleeper := &fakeSleeper{}
	calls := 0

	attempts, err := runWithRetry(
		context.Background(), testLogger(), "step", uuid.New(),
		Backoff{time.Millisecond, time.Millisecond},
		sleeper.sleep,
		func(ctx context.Context) error {
			calls++
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
	assert.Empty(t, sleeper.recorded(), "no backoff should be consumed on first-attempt success")
}

func TestRunWithRetry_RetriesThenSucceeds(t *testing.T) {
	t.Parallel()

	sleeper := &fakeSleeper{}
	calls := 0

	attempts, err := runWithRetry(
		context.Background(), testLogger(), "step", uuid.New(),
		Backoff{1 * time.Second, 5 * time.Second, 15 * time.Second},
		sleeper.sleep,
		func(ctx context.Context) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			return nil
		})

	require.NoError(t, err)
	assert.Equal(t, 3, attempts)

	// The total wait equals exactly the delays consumed before success.
	assert.Equal(t, []time.Duration{1 * time.Second, 5 * time.Second}, sleeper.recorded())
}

func TestRunWithRetry_ExhaustsAttempts(t *testing.T) {
	t.Parallel()

	for _, schedule := range []Backoff{
		{},
		{time.Second},
		{1 * time.Second, 5 * time.Second},
		{1 * time.Second, 5 * time.Second, 15 * time.Second},
	} {
		sleeper := &fakeSleeper{}
		calls := 0
		lastErr := errors.New("boom")

		attempts, err := runWithRetry(
			context.Background(), testLogger(), "step", uuid.New(),
			schedule, sleeper.sleep,
			func(ctx context.Context) error {
				calls++
				return lastErr
			})

		// At most len(schedule)+1 attempts, and the full schedule of
		// delays is consumed before the terminal failure.
		assert.Equal(t, schedule.MaxAttempts(), attempts)
		assert.Equal(t, schedule.MaxAttempts(), calls)
		assert.ErrorIs(t, err, lastErr)
		assert.Len(t, sleeper.recorded(), len(schedule))
	}
}

func TestRunWithRetry_ReturnsLastError(t *testing.T) {
	t.Parallel()

	sleeper := &fakeSleeper{}
	calls := 0
	first := errors.New("first failure")
	last := errors.New("last failure")

	_, err := runWithRetry(
		context.Background(), testLogger(), "step", uuid.New(),
		Backoff{time.Millisecond}, sleeper.sleep,
		func(ctx context.Context) error {
			calls++
			if calls == 1 {
				return first
			}
			return last
		})

	// The caller sees the last observed error, not an aggregate.
	assert.ErrorIs(t, err, last)
	assert.NotErrorIs(t, err, first)
}

func TestRunWithRetry_InterruptedBackoff(t *testing.T) {
	t.Parallel()

	sleeper := &fakeSleeper{err: context.Canceled}
	opErr := errors.New("transient")
	calls := 0

	attempts, err := runWithRetry(
		context.Background(), testLogger(), "step", uuid.New(),
		Backoff{time.Second}, sleeper.sleep,
		func(ctx context.Context) error {
			calls++
			return opErr
		})

	// The interrupted wait surfaces the operation's error, and no
	// further attempts are made.
	assert.Equal(t, 1, attempts)
	assert.Equal(t, 1, calls)
	assert.ErrorIs(t, err, opErr)
}

func TestRetryCounter(t *testing.T) {
	t.Parallel()

	var c retryCounter
	c.addAttempts(1) // first-attempt success contributes no retries
	c.addAttempts(4) // 3 retries
	c.addAttempts(2) // 1 retry

	assert.Equal(t, 4, c.total())
}
