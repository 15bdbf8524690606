package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/minutely/minute-api/internal/domain"
)

// Finalizer performs the post-run side effects: invalidating derived
// read caches and delivering the completion notification. By the time it
// runs the pipeline has already produced its durable artifacts, so any
// failure here is logged and swallowed; it never changes the run's
// terminal status.
type Finalizer struct {
	cache    CacheInvalidator
	notifier Notifier
	logger   *slog.Logger
}

// NewFinalizer creates a Finalizer with the given collaborators.
func NewFinalizer(cache CacheInvalidator, notifier Notifier, logger *slog.Logger) *Finalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Finalizer{
		cache:    cache,
		notifier: notifier,
		logger:   logger.With("component", "finalizer"),
	}
}

// InvalidateViews drops the recording, summary and project view caches
// for the given recording. Panics from the cache layer are recovered and
// logged.
func (f *Finalizer) InvalidateViews(ctx context.Context, rec *domain.Recording) {
	defer func() {
		if p := recover(); p != nil {
			f.logger.Error("cache invalidation panicked",
				"recording_id", rec.ID,
				"panic", p)
		}
	}()

	f.cache.Invalidate(ctx, domain.ViewKindRecording, rec.ID)
	f.cache.Invalidate(ctx, domain.ViewKindSummary, rec.ID)
	f.cache.Invalidate(ctx, domain.ViewKindProject, rec.ProjectID)

	f.logger.Debug("invalidated derived view caches",
		"recording_id", rec.ID,
		"project_id", rec.ProjectID)
}

// NotifyCompletion builds and delivers the user-facing completion
// notification embedding the extracted task count. Delivery errors are
// logged and swallowed.
func (f *Finalizer) NotifyCompletion(ctx context.Context, rec *domain.Recording, taskCount int) {
	defer func() {
		if p := recover(); p != nil {
			f.logger.Error("notification dispatch panicked",
				"recording_id", rec.ID,
				"panic", p)
		}
	}()

	n := buildCompletionNotification(rec, taskCount)

	if err := f.notifier.Notify(ctx, n); err != nil {
		f.logger.Error("failed to deliver completion notification",
			"recording_id", rec.ID,
			"user_id", rec.CreatedBy,
			"error", err)
		return
	}

	f.logger.Info("completion notification delivered",
		"recording_id", rec.ID,
		"user_id", rec.CreatedBy,
		"task_count", taskCount)
}

// buildCompletionNotification constructs the notification payload for a
// completed conversion run.
func buildCompletionNotification(rec *domain.Recording, taskCount int) domain.Notification {
	var message string
	switch taskCount {
	case 0:
		message = "Your recording has been processed. The transcript and summary are ready."
	case 1:
		message = "Your recording has been processed. The transcript, summary and 1 action item are ready."
	default:
		message = fmt.Sprintf(
			"Your recording has been processed. The transcript, summary and %d action items are ready.",
			taskCount,
		)
	}

	return domain.Notification{
		RecordingID:    rec.ID,
		ProjectID:      rec.ProjectID,
		UserID:         rec.CreatedBy,
		OrganizationID: rec.OrganizationID,
		Type:           domain.NotificationTypeConversionCompleted,
		Title:          "Recording ready",
		Message:        message,
		Metadata: map[string]string{
			"task_count": fmt.Sprintf("%d", taskCount),
		},
	}
}
