package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Common validation errors for ActionItem
var (
	ErrEmptyActionItemID          = errors.New("action item ID cannot be empty")
	ErrEmptyActionItemRecordingID = errors.New("action item recording ID cannot be empty")
	ErrEmptyActionItemTitle       = errors.New("action item title cannot be empty")
)

// ActionItem is a task extracted from a recording's transcript. It is
// attributed to the project, organization and creator of the recording
// it was extracted from.
type ActionItem struct {
	ID             uuid.UUID `json:"id"`
	RecordingID    uuid.UUID `json:"recording_id"`
	ProjectID      uuid.UUID `json:"project_id"`
	OrganizationID uuid.UUID `json:"organization_id"`
	CreatedBy      uuid.UUID `json:"created_by"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	CreatedAt      time.Time `json:"created_at"`
}

// NewActionItem creates a new ActionItem extracted from the given recording.
// Returns an error if validation fails.
func NewActionItem(
	recordingID, projectID, organizationID, createdBy uuid.UUID,
	title, description string,
) (*ActionItem, error) {
	item := &ActionItem{
		ID:             uuid.New(),
		RecordingID:    recordingID,
		ProjectID:      projectID,
		OrganizationID: organizationID,
		CreatedBy:      createdBy,
		Title:          title,
		Description:    description,
		CreatedAt:      time.Now().UTC(),
	}

	if err := item.Validate(); err != nil {
		return nil, err
	}

	return item, nil
}

// Validate checks if the ActionItem has valid data.
func (a *ActionItem) Validate() error {
	if a.ID == uuid.Nil {
		return ErrEmptyActionItemID
	}

	if a.RecordingID == uuid.Nil {
		return ErrEmptyActionItemRecordingID
	}

	if a.Title == "" {
		return ErrEmptyActionItemTitle
	}

	return nil
}
