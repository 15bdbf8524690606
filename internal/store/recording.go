package store

import (
	"context"

	"github.com/google/uuid"

	"github.com/minutely/minute-api/internal/domain"
)

// RecordingStore defines the persistence operations for recordings and
// their workflow state.
type RecordingStore interface {
	// Create saves a new recording to the store.
	Create(ctx context.Context, rec *domain.Recording) error

	// GetByID retrieves a recording by its unique ID.
	// Returns ErrRecordingNotFound if the recording does not exist.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Recording, error)

	// SetTranscript stores the transcript text produced by the
	// transcription step.
	// Returns ErrRecordingNotFound if the recording does not exist.
	SetTranscript(ctx context.Context, id uuid.UUID, transcript string) error

	// UpdateWorkflow applies a partial update to the recording's
	// persisted workflow state (status, error text, retry count).
	// Returns ErrRecordingNotFound if the recording does not exist.
	UpdateWorkflow(ctx context.Context, id uuid.UUID, update domain.WorkflowUpdate) error
}

// InsightStore defines the persistence operations for derived insight
// artifacts.
type InsightStore interface {
	// Upsert saves an insight, replacing any existing artifact of the
	// same type for the same recording.
	Upsert(ctx context.Context, insight *domain.Insight) error

	// GetByType retrieves the insight of the given type for a recording.
	// Returns ErrInsightNotFound if no such artifact exists.
	GetByType(ctx context.Context, recordingID uuid.UUID, insightType domain.InsightType) (*domain.Insight, error)
}

// ActionItemStore defines the persistence operations for extracted
// action items.
type ActionItemStore interface {
	// CreateBatch saves all given action items atomically.
	CreateBatch(ctx context.Context, items []*domain.ActionItem) error
}
