package workflow

import (
	"context"

	"github.com/google/uuid"

	"github.com/minutely/minute-api/internal/domain"
)

// Transcriber converts a recording's audio into text. On success the
// implementation is responsible for persisting the transcript (and the
// optional utterance sequence) keyed by the recording ID.
type Transcriber interface {
	Transcribe(ctx context.Context, recordingID uuid.UUID, audioURL string) error
}

// Summarizer produces a summary artifact from a transcript. On success
// the implementation persists the artifact; the step itself has no
// return value beyond success or failure.
type Summarizer interface {
	Summarize(ctx context.Context, recordingID uuid.UUID, transcript string, utterances []domain.Utterance) error
}

// ExtractionRequest carries the inputs of the task extraction step. The
// project, organization and creator identities attribute the generated
// action items.
type ExtractionRequest struct {
	RecordingID    uuid.UUID
	ProjectID      uuid.UUID
	OrganizationID uuid.UUID
	CreatorID      uuid.UUID
	Transcript     string
	Utterances     []domain.Utterance
}

// TaskExtractor extracts action items from a transcript and persists
// them. It returns the number of items created.
type TaskExtractor interface {
	ExtractTasks(ctx context.Context, req ExtractionRequest) (int, error)
}

// CacheInvalidator drops derived read caches after a run has produced
// new artifacts. Invalidation is fire-and-forget: implementations log
// failures instead of returning them.
type CacheInvalidator interface {
	Invalidate(ctx context.Context, kind domain.ViewKind, id uuid.UUID)
}

// Notifier delivers a user-facing notification. Delivery is best-effort;
// errors are logged by the caller and never fail the run.
type Notifier interface {
	Notify(ctx context.Context, n domain.Notification) error
}
