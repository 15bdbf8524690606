package workflow

import (
	"github.com/google/uuid"

	"github.com/minutely/minute-api/internal/domain"
)

// ConversionResult is the aggregate outcome of a conversion run,
// returned to the caller of Convert. The recording's persisted workflow
// status is the durable, queryable record of the same outcome.
type ConversionResult struct {
	RecordingID            uuid.UUID             `json:"recording_id"`
	TranscriptionCompleted bool                  `json:"transcription_completed"`
	SummaryCompleted       bool                  `json:"summary_completed"`
	TasksExtracted         int                   `json:"tasks_extracted"`
	Status                 domain.WorkflowStatus `json:"status"`
}
