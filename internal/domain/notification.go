package domain

import "github.com/google/uuid"

// NotificationType identifies the kind of user-facing notification.
type NotificationType string

// Possible notification types
const (
	NotificationTypeConversionCompleted NotificationType = "conversion_completed"
)

// ViewKind identifies a derived read cache that can be invalidated after
// a conversion run produces new artifacts.
type ViewKind string

// Possible view kinds
const (
	ViewKindRecording ViewKind = "recording"
	ViewKindSummary   ViewKind = "summary"
	ViewKindProject   ViewKind = "project"
)

// Notification is the user-facing payload emitted when a conversion run
// completes. Delivery is best-effort; the payload is constructed by the
// finalization step.
type Notification struct {
	RecordingID    uuid.UUID         `json:"recording_id"`
	ProjectID      uuid.UUID         `json:"project_id"`
	UserID         uuid.UUID         `json:"user_id"`
	OrganizationID uuid.UUID         `json:"organization_id"`
	Type           NotificationType  `json:"type"`
	Title          string            `json:"title"`
	Message        string            `json:"message"`
	Metadata       map[string]string `json:"metadata,omitempty"`
}
