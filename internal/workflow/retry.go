package workflow

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Backoff is an ordered schedule of wait durations between retry
// attempts. An operation wrapped with a schedule of length n is executed
// at most n+1 times; the delay before retry attempt i is the i-th entry,
// clamped to the last entry when attempts exceed the schedule length.
// No jitter is added, so the schedule is deterministic and testable.
type Backoff []time.Duration

// DefaultBackoff returns the backoff schedule used by all pipeline
// steps unless configured otherwise: three retries at 1s, 5s and 15s.
func DefaultBackoff() Backoff {
	return Backoff{1 * time.Second, 5 * time.Second, 15 * time.Second}
}

// MaxAttempts returns the maximum number of executions the schedule
// allows: the initial attempt plus one retry per schedule entry.
func (b Backoff) MaxAttempts() int {
	return len(b) + 1
}

// Delay returns the wait before the retry following the given 0-based
// attempt index, clamped to the last schedule entry.
func (b Backoff) Delay(attempt int) time.Duration {
	if len(b) == 0 {
		return 0
	}
	if attempt >= len(b) {
		return b[len(b)-1]
	}
	if attempt < 0 {
		return b[0]
	}
	return b[attempt]
}

// sleepFunc waits for the given duration or until the context is done.
// It exists so tests can substitute a recording fake for real sleeps.
type sleepFunc func(ctx context.Context, d time.Duration) error

// sleepContext is the production sleepFunc.
func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// runWithRetry executes op with bounded retry per the backoff schedule.
// Each attempt is logged with the recording identity, the attempt number
// and the delay consumed before it. The error propagated to the caller
// is the last observed error, not an aggregate of all attempts. op must
// be safe to re-invoke; no exactly-once assumption is made.
//
// Returns the number of attempts made alongside the terminal outcome.
func runWithRetry(
	ctx context.Context,
	logger *slog.Logger,
	step string,
	recordingID uuid.UUID,
	backoff Backoff,
	sleep sleepFunc,
	op func(ctx context.Context) error,
) (int, error) {
	maxAttempts := backoff.MaxAttempts()

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		logger.Info("executing step attempt",
			"step", step,
			"recording_id", recordingID,
			"attempt", attempt,
			"max_attempts", maxAttempts)

		lastErr = op(ctx)
		if lastErr == nil {
			return attempt + 1, nil
		}

		logger.Warn("step attempt failed",
			"step", step,
			"recording_id", recordingID,
			"attempt", attempt,
			"error", lastErr)

		if attempt == maxAttempts-1 {
			break
		}

		delay := backoff.Delay(attempt)
		logger.Info("retrying step after backoff",
			"step", step,
			"recording_id", recordingID,
			"attempt", attempt,
			"delay", delay)

		if err := sleep(ctx, delay); err != nil {
			// The backoff wait was interrupted; surface the last
			// operation error rather than the context error so the
			// caller sees what actually failed.
			logger.Warn("backoff wait interrupted",
				"step", step,
				"recording_id", recordingID,
				"error", err)
			return attempt + 1, lastErr
		}
	}

	logger.Error("step exhausted all attempts",
		"step", step,
		"recording_id", recordingID,
		"attempts", maxAttempts,
		"error", lastErr)

	return maxAttempts, lastErr
}

// retryCounter accumulates the retries consumed across all steps of one
// run. It is written from the parallel step goroutines, hence atomic.
type retryCounter struct {
	n atomic.Int32
}

// addAttempts records the retries implied by a step that made the given
// number of attempts (attempts minus the initial execution).
func (c *retryCounter) addAttempts(attempts int) {
	if attempts > 1 {
		c.n.Add(int32(attempts - 1))
	}
}

// total returns the retries consumed so far.
func (c *retryCounter) total() int {
	return int(c.n.Load())
}
