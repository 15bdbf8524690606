package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// WorkflowStatus represents the lifecycle state of a recording's
// conversion workflow.
type WorkflowStatus string

// Possible workflow status values
const (
	WorkflowStatusIdle      WorkflowStatus = "idle"
	WorkflowStatusRunning   WorkflowStatus = "running"
	WorkflowStatusCompleted WorkflowStatus = "completed"
	WorkflowStatusFailed    WorkflowStatus = "failed"
)

// IsTerminal reports whether the status is a terminal state from which
// no further transition occurs within a single run.
func (s WorkflowStatus) IsTerminal() bool {
	return s == WorkflowStatusCompleted || s == WorkflowStatusFailed
}

// Common validation errors for Recording
var (
	ErrEmptyRecordingID        = errors.New("recording ID cannot be empty")
	ErrEmptyRecordingProjectID = errors.New("recording project ID cannot be empty")
	ErrEmptyRecordingOrgID     = errors.New("recording organization ID cannot be empty")
	ErrEmptyRecordingCreator   = errors.New("recording creator ID cannot be empty")
	ErrEmptyAudioURL           = errors.New("recording audio URL cannot be empty")
	ErrInvalidWorkflowStatus   = errors.New("invalid workflow status")
)

// Recording represents an uploaded meeting recording and the persisted
// state of its conversion workflow. The transcript is nil until the
// transcription step has succeeded; WorkflowError holds the human-readable
// reason for the most recent failure, if any.
type Recording struct {
	ID                 uuid.UUID      `json:"id"`
	ProjectID          uuid.UUID      `json:"project_id"`
	OrganizationID     uuid.UUID      `json:"organization_id"`
	CreatedBy          uuid.UUID      `json:"created_by"`
	Title              string         `json:"title"`
	AudioURL           string         `json:"audio_url"`
	Transcript         *string        `json:"transcript,omitempty"`
	WorkflowStatus     WorkflowStatus `json:"workflow_status"`
	WorkflowError      *string        `json:"workflow_error,omitempty"`
	WorkflowRetryCount int            `json:"workflow_retry_count"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
}

// NewRecording creates a new Recording for the given project, organization
// and creator. It generates a new UUID, sets the workflow status to idle,
// and sets the creation/update timestamps.
// Returns an error if validation fails.
func NewRecording(
	projectID, organizationID, createdBy uuid.UUID,
	title, audioURL string,
) (*Recording, error) {
	rec := &Recording{
		ID:             uuid.New(),
		ProjectID:      projectID,
		OrganizationID: organizationID,
		CreatedBy:      createdBy,
		Title:          title,
		AudioURL:       audioURL,
		WorkflowStatus: WorkflowStatusIdle,
		CreatedAt:      time.Now().UTC(),
		UpdatedAt:      time.Now().UTC(),
	}

	if err := rec.Validate(); err != nil {
		return nil, err
	}

	return rec, nil
}

// Validate checks if the Recording has valid data.
// Returns an error if any field fails validation.
func (r *Recording) Validate() error {
	if r.ID == uuid.Nil {
		return ErrEmptyRecordingID
	}

	if r.ProjectID == uuid.Nil {
		return ErrEmptyRecordingProjectID
	}

	if r.OrganizationID == uuid.Nil {
		return ErrEmptyRecordingOrgID
	}

	if r.CreatedBy == uuid.Nil {
		return ErrEmptyRecordingCreator
	}

	if r.AudioURL == "" {
		return ErrEmptyAudioURL
	}

	if !isValidWorkflowStatus(r.WorkflowStatus) {
		return ErrInvalidWorkflowStatus
	}

	return nil
}

// HasTranscript reports whether the transcription step has produced a
// non-empty transcript for this recording.
func (r *Recording) HasTranscript() bool {
	return r.Transcript != nil && *r.Transcript != ""
}

// WorkflowUpdate describes a partial update to a recording's persisted
// workflow state. Nil fields are left unchanged.
type WorkflowUpdate struct {
	Status     WorkflowStatus
	Error      *string
	RetryCount *int
}

// Validate checks that the update carries a valid status.
func (u WorkflowUpdate) Validate() error {
	if !isValidWorkflowStatus(u.Status) {
		return ErrInvalidWorkflowStatus
	}
	return nil
}

// isValidWorkflowStatus checks if the given status is a valid WorkflowStatus.
func isValidWorkflowStatus(status WorkflowStatus) bool {
	switch status {
	case WorkflowStatusIdle, WorkflowStatusRunning,
		WorkflowStatusCompleted, WorkflowStatusFailed:
		return true
	default:
		return false
	}
}
