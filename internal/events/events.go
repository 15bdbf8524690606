package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Task type identifiers carried by task request events.
const (
	// TaskTypeRecordingConversion requests a full conversion run for a
	// recording: transcription, summary, task extraction, finalization.
	TaskTypeRecordingConversion = "recording_conversion"
)

// TaskRequestEvent represents a request to create a background task.
// It carries everything task creation needs without a direct dependency
// on the task package.
type TaskRequestEvent struct {
	// ID is a unique identifier for this event
	ID uuid.UUID `json:"id"`

	// Type indicates the task type that should be created
	Type string `json:"type"`

	// Payload contains the task-specific data serialized as JSON
	Payload json.RawMessage `json:"payload"`

	// CreatedAt is the timestamp when the event was created
	CreatedAt time.Time `json:"created_at"`
}

// UnmarshalPayload decodes the event payload into the provided structure.
func (e *TaskRequestEvent) UnmarshalPayload(v interface{}) error {
	return json.Unmarshal(e.Payload, v)
}

// NewTaskRequestEvent creates a new TaskRequestEvent with the specified
// type and payload.
func NewTaskRequestEvent(eventType string, payload interface{}) (*TaskRequestEvent, error) {
	payloadBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &TaskRequestEvent{
		ID:        uuid.New(),
		Type:      eventType,
		Payload:   payloadBytes,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// ConversionRequestedPayload is the payload carried by recording
// conversion request events.
type ConversionRequestedPayload struct {
	RecordingID uuid.UUID `json:"recording_id"`
}

// NewConversionRequestedEvent creates a task request event asking for a
// conversion run of the given recording.
func NewConversionRequestedEvent(recordingID uuid.UUID) (*TaskRequestEvent, error) {
	return NewTaskRequestEvent(TaskTypeRecordingConversion, ConversionRequestedPayload{
		RecordingID: recordingID,
	})
}

// EventHandler defines an interface for components that can handle events.
type EventHandler interface {
	// HandleEvent processes the given event within the provided context.
	// Returns an error if the event cannot be handled successfully.
	HandleEvent(ctx context.Context, event *TaskRequestEvent) error
}

// EventEmitter defines an interface for components that can emit events.
// This allows services to publish events without direct knowledge of
// the handlers behind them.
type EventEmitter interface {
	// EmitEvent publishes the given event to all registered handlers.
	EmitEvent(ctx context.Context, event *TaskRequestEvent) error
}
