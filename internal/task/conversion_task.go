package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/minutely/minute-api/internal/workflow"
)

// Common errors
var (
	ErrNilConverter     = errors.New("converter cannot be nil")
	ErrNilLogger        = errors.New("logger cannot be nil")
	ErrEmptyRecordingID = errors.New("recording ID cannot be empty")
)

// RecordingConverter runs the conversion workflow for a recording. It
// is implemented by workflow.Converter.
type RecordingConverter interface {
	Convert(ctx context.Context, recordingID uuid.UUID) (*workflow.ConversionResult, error)
}

// conversionPayload represents the serialized data stored in the task
type conversionPayload struct {
	RecordingID uuid.UUID `json:"recording_id"`
}

// ConversionTask implements the Task interface for converting a
// recording into its transcript, summary and action items. The
// converter owns the recording's workflow status; the task status only
// reflects whether this unit of background work ran to completion.
type ConversionTask struct {
	id          uuid.UUID
	recordingID uuid.UUID
	converter   RecordingConverter
	logger      *slog.Logger
	status      TaskStatus
}

// NewConversionTask creates a new conversion task for the given recording.
func NewConversionTask(
	recordingID uuid.UUID,
	converter RecordingConverter,
	logger *slog.Logger,
) (*ConversionTask, error) {
	if converter == nil {
		return nil, ErrNilConverter
	}
	if logger == nil {
		return nil, ErrNilLogger
	}
	if recordingID == uuid.Nil {
		return nil, ErrEmptyRecordingID
	}

	return &ConversionTask{
		id:          uuid.New(),
		recordingID: recordingID,
		converter:   converter,
		logger:      logger.With("task_type", TaskTypeRecordingConversion, "recording_id", recordingID),
		status:      TaskStatusPending,
	}, nil
}

// ID returns the task's unique identifier
func (t *ConversionTask) ID() uuid.UUID {
	return t.id
}

// Type returns the task type identifier
func (t *ConversionTask) Type() string {
	return TaskTypeRecordingConversion
}

// Payload returns the task data as a byte slice
func (t *ConversionTask) Payload() []byte {
	data, err := json.Marshal(conversionPayload{RecordingID: t.recordingID})
	if err != nil {
		t.logger.Error("failed to marshal task payload", "error", err)
		return []byte{}
	}

	return data
}

// Status returns the current task status
func (t *ConversionTask) Status() TaskStatus {
	return t.status
}

// Execute runs the conversion workflow for the recording.
func (t *ConversionTask) Execute(ctx context.Context) error {
	t.status = TaskStatusProcessing
	t.logger.Info("starting recording conversion task")

	if err := ctx.Err(); err != nil {
		t.status = TaskStatusFailed
		t.logger.Error("task cancelled by context", "error", err)
		return fmt.Errorf("task cancelled by context: %w", err)
	}

	result, err := t.converter.Convert(ctx, t.recordingID)
	if err != nil {
		t.status = TaskStatusFailed
		t.logger.Error("conversion failed", "error", err)
		return fmt.Errorf("conversion failed: %w", err)
	}

	t.status = TaskStatusCompleted
	t.logger.Info("recording conversion task completed",
		"tasks_extracted", result.TasksExtracted,
		"workflow_status", result.Status)
	return nil
}

// ConversionTaskFactory creates ConversionTask instances, both for new
// conversion requests and for tasks rehydrated from the database after
// a restart.
type ConversionTaskFactory struct {
	converter RecordingConverter
	logger    *slog.Logger
}

// NewConversionTaskFactory creates a new factory for ConversionTasks.
func NewConversionTaskFactory(converter RecordingConverter, logger *slog.Logger) (*ConversionTaskFactory, error) {
	if converter == nil {
		return nil, ErrNilConverter
	}
	if logger == nil {
		return nil, ErrNilLogger
	}

	return &ConversionTaskFactory{
		converter: converter,
		logger:    logger.With("component", "conversion_task_factory"),
	}, nil
}

// CreateTask creates a new ConversionTask for the specified recording.
func (f *ConversionTaskFactory) CreateTask(recordingID uuid.UUID) (Task, error) {
	return NewConversionTask(recordingID, f.converter, f.logger)
}

// RehydrateTask reconstructs a conversion task from its stored form,
// keeping the persisted task ID so status updates hit the same row.
func (f *ConversionTaskFactory) RehydrateTask(id uuid.UUID, payload []byte, status TaskStatus) (Task, error) {
	var p conversionPayload
	if err := json.Unmarshal(payload, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal conversion payload: %w", err)
	}

	t, err := NewConversionTask(p.RecordingID, f.converter, f.logger)
	if err != nil {
		return nil, err
	}

	t.id = id
	t.status = status
	return t, nil
}

// Ensure ConversionTaskFactory implements Factory.
var _ Factory = (*ConversionTaskFactory)(nil)
