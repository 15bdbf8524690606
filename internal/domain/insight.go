package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// InsightType discriminates the durable artifacts a conversion run
// produces for a recording.
type InsightType string

// Possible insight artifact types
const (
	InsightTypeTranscription InsightType = "transcription"
	InsightTypeSummary       InsightType = "summary"
	InsightTypeTaskSet       InsightType = "task_set"
)

// Common validation errors for Insight
var (
	ErrEmptyInsightID          = errors.New("insight ID cannot be empty")
	ErrEmptyInsightRecordingID = errors.New("insight recording ID cannot be empty")
	ErrEmptyInsightContent     = errors.New("insight content cannot be empty")
	ErrInvalidInsightType      = errors.New("invalid insight type")
)

// Utterance is a single speaker turn within a transcript, used as
// context by the summarization and task extraction steps.
type Utterance struct {
	SpeakerID string `json:"speaker_id"`
	Text      string `json:"text"`
	StartMs   int64  `json:"start_ms"`
}

// Insight is a durable artifact derived from a recording, keyed by the
// recording ID and an artifact-type discriminator. Transcription insights
// additionally carry the ordered utterance sequence.
type Insight struct {
	ID          uuid.UUID   `json:"id"`
	RecordingID uuid.UUID   `json:"recording_id"`
	Type        InsightType `json:"type"`
	Content     string      `json:"content"`
	Utterances  []Utterance `json:"utterances,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// NewInsight creates a new Insight for the given recording.
// Returns an error if validation fails.
func NewInsight(recordingID uuid.UUID, insightType InsightType, content string) (*Insight, error) {
	ins := &Insight{
		ID:          uuid.New(),
		RecordingID: recordingID,
		Type:        insightType,
		Content:     content,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}

	if err := ins.Validate(); err != nil {
		return nil, err
	}

	return ins, nil
}

// Validate checks if the Insight has valid data.
func (i *Insight) Validate() error {
	if i.ID == uuid.Nil {
		return ErrEmptyInsightID
	}

	if i.RecordingID == uuid.Nil {
		return ErrEmptyInsightRecordingID
	}

	if i.Content == "" {
		return ErrEmptyInsightContent
	}

	if !isValidInsightType(i.Type) {
		return ErrInvalidInsightType
	}

	return nil
}

// isValidInsightType checks if the given type is a valid InsightType.
func isValidInsightType(t InsightType) bool {
	switch t {
	case InsightTypeTranscription, InsightTypeSummary, InsightTypeTaskSet:
		return true
	default:
		return false
	}
}
