package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/minutely/minute-api/internal/events"
)

// TaskCreator builds tasks from a recording ID. Implemented by
// ConversionTaskFactory.
type TaskCreator interface {
	CreateTask(recordingID uuid.UUID) (Task, error)
}

// TaskSubmitter accepts tasks for background execution. Implemented by
// TaskRunner.
type TaskSubmitter interface {
	Submit(ctx context.Context, task Task) error
}

// ConversionEventHandler implements events.EventHandler: it turns
// recording conversion request events into conversion tasks and submits
// them to the runner.
type ConversionEventHandler struct {
	factory TaskCreator
	runner  TaskSubmitter
	logger  *slog.Logger
}

// NewConversionEventHandler creates an event handler that builds
// conversion tasks with the given factory and submits them to the
// given runner.
func NewConversionEventHandler(
	factory TaskCreator,
	runner TaskSubmitter,
	logger *slog.Logger,
) *ConversionEventHandler {
	if logger == nil {
		logger = slog.Default()
	}

	return &ConversionEventHandler{
		factory: factory,
		runner:  runner,
		logger:  logger.With("component", "conversion_event_handler"),
	}
}

// HandleEvent processes conversion request events. Events of other
// types are ignored so additional handlers can share the emitter.
func (h *ConversionEventHandler) HandleEvent(ctx context.Context, event *events.TaskRequestEvent) error {
	if event.Type != events.TaskTypeRecordingConversion {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var payload events.ConversionRequestedPayload
	if err := event.UnmarshalPayload(&payload); err != nil {
		h.logger.Error("failed to unmarshal payload", "error", err, "event_id", event.ID)
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}

	if payload.RecordingID == uuid.Nil {
		h.logger.Error("event payload missing recording ID", "event_id", event.ID)
		return ErrEmptyRecordingID
	}

	task, err := h.factory.CreateTask(payload.RecordingID)
	if err != nil {
		h.logger.Error("failed to create task",
			"error", err,
			"recording_id", payload.RecordingID,
			"event_id", event.ID)
		return fmt.Errorf("failed to create task: %w", err)
	}

	if err := h.runner.Submit(ctx, task); err != nil {
		h.logger.Error("failed to submit task",
			"error", err,
			"task_id", task.ID(),
			"recording_id", payload.RecordingID,
			"event_id", event.ID)
		return fmt.Errorf("failed to submit task: %w", err)
	}

	h.logger.Info("conversion task created and submitted",
		"task_id", task.ID(),
		"recording_id", payload.RecordingID,
		"event_id", event.ID)
	return nil
}

// Ensure ConversionEventHandler implements events.EventHandler
var _ events.EventHandler = (*ConversionEventHandler)(nil)
