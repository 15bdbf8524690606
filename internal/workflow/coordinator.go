package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// parallelResult aggregates the terminal outcomes of the summary and
// task extraction steps. Both steps always run to completion; one step
// failing never masks or cancels the other.
type parallelResult struct {
	summaryErr     error
	tasksErr       error
	tasksExtracted int
}

// failed reports whether either step failed.
func (r parallelResult) failed() bool {
	return r.summaryErr != nil || r.tasksErr != nil
}

// Err returns a single combined failure describing every step that
// failed, labelled per step so operators can diagnose partial failures
// without re-running blindly. Returns nil when both steps succeeded.
func (r parallelResult) Err() error {
	if !r.failed() {
		return nil
	}

	var parts []string
	if r.summaryErr != nil {
		parts = append(parts, fmt.Sprintf("Summary: %v", r.summaryErr))
	}
	if r.tasksErr != nil {
		parts = append(parts, fmt.Sprintf("Tasks: %v", r.tasksErr))
	}

	return fmt.Errorf("parallel steps failed: %s", strings.Join(parts, "; "))
}

// runParallel launches the summary and task extraction steps
// concurrently and joins on both (join-all, not join-first). A fast
// failure in one step does not cancel the other; each step exhausts its
// own retries independently.
func runParallel(
	ctx context.Context,
	summarize func(ctx context.Context) error,
	extract func(ctx context.Context) (int, error),
) parallelResult {
	var res parallelResult

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		res.summaryErr = summarize(ctx)
	}()

	go func() {
		defer wg.Done()
		res.tasksExtracted, res.tasksErr = extract(ctx)
	}()

	wg.Wait()
	return res
}
