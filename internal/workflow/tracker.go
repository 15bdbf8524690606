package workflow

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/minutely/minute-api/internal/domain"
	"github.com/minutely/minute-api/internal/store"
)

// StatusTracker persists the workflow lifecycle state of a recording so
// external observers can poll progress. Tracker writes are deliberately
// fire-and-forget relative to the pipeline's critical path: a failed
// write is logged but never aborts the run, so observability cannot
// become a new failure mode.
type StatusTracker struct {
	recordings store.RecordingStore
	logger     *slog.Logger
}

// NewStatusTracker creates a StatusTracker backed by the given store.
func NewStatusTracker(recordings store.RecordingStore, logger *slog.Logger) *StatusTracker {
	if logger == nil {
		logger = slog.Default()
	}
	return &StatusTracker{
		recordings: recordings,
		logger:     logger.With("component", "status_tracker"),
	}
}

// MarkRunning records that a conversion run has started, clearing any
// error text left over from a previous run.
func (t *StatusTracker) MarkRunning(ctx context.Context, recordingID uuid.UUID) {
	cleared := ""
	zero := 0
	t.set(ctx, recordingID, domain.WorkflowUpdate{
		Status:     domain.WorkflowStatusRunning,
		Error:      &cleared,
		RetryCount: &zero,
	})
}

// MarkCompleted records the successful terminal state of a run together
// with the total retries it consumed.
func (t *StatusTracker) MarkCompleted(ctx context.Context, recordingID uuid.UUID, retryCount int) {
	cleared := ""
	t.set(ctx, recordingID, domain.WorkflowUpdate{
		Status:     domain.WorkflowStatusCompleted,
		Error:      &cleared,
		RetryCount: &retryCount,
	})
}

// MarkFailed records the failed terminal state of a run with a
// human-readable error summary and the total retries consumed.
func (t *StatusTracker) MarkFailed(ctx context.Context, recordingID uuid.UUID, errText string, retryCount int) {
	t.set(ctx, recordingID, domain.WorkflowUpdate{
		Status:     domain.WorkflowStatusFailed,
		Error:      &errText,
		RetryCount: &retryCount,
	})
}

// set applies the update, logging failures instead of returning them.
func (t *StatusTracker) set(ctx context.Context, recordingID uuid.UUID, update domain.WorkflowUpdate) {
	if err := t.recordings.UpdateWorkflow(ctx, recordingID, update); err != nil {
		t.logger.Error("failed to persist workflow status",
			"recording_id", recordingID,
			"status", update.Status,
			"error", err)
	}
}
