package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/minutely/minute-api/internal/domain"
)

// summarySchema is the JSON shape the summary prompt asks the model to
// produce.
type summarySchema struct {
	Summary string `json:"summary"`
}

// Summarizer produces a summary insight from a transcript via a single
// Gemini call. It implements workflow.Summarizer.
type Summarizer struct {
	client   *Client
	insights InsightWriter
	model    string
	logger   *slog.Logger
}

// NewSummarizer creates a Summarizer backed by the shared client.
func NewSummarizer(client *Client, insights InsightWriter) (*Summarizer, error) {
	if client == nil {
		return nil, errors.New("client cannot be nil")
	}
	if insights == nil {
		return nil, errors.New("insight writer cannot be nil")
	}

	model := client.config.SummaryModel
	if model == "" {
		return nil, fmt.Errorf("%w: summary model cannot be empty", ErrInvalidConfig)
	}

	return &Summarizer{
		client:   client,
		insights: insights,
		model:    model,
		logger:   client.logger.With("component", "gemini_summarizer"),
	}, nil
}

// Summarize generates and persists the summary artifact for a
// recording.
func (s *Summarizer) Summarize(
	ctx context.Context,
	recordingID uuid.UUID,
	transcript string,
	utterances []domain.Utterance,
) error {
	if transcript == "" {
		return fmt.Errorf("%w: transcript cannot be empty", ErrInvalidConfig)
	}

	prompt, err := renderTranscriptPrompt(summaryTmpl, transcript, utterances)
	if err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "summarizing recording",
		"recording_id", recordingID,
		"model", s.model,
		"transcript_length", len(transcript))

	text, err := s.client.generateJSON(ctx, s.model, genai.Text(prompt))
	if err != nil {
		return fmt.Errorf("summary call failed: %w", err)
	}

	var parsed summarySchema
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return fmt.Errorf("%w: failed to parse summary JSON: %v", ErrInvalidResponse, err)
	}
	if parsed.Summary == "" {
		return fmt.Errorf("%w: summary response missing summary", ErrInvalidResponse)
	}

	insight, err := domain.NewInsight(recordingID, domain.InsightTypeSummary, parsed.Summary)
	if err != nil {
		return fmt.Errorf("failed to build summary insight: %w", err)
	}

	if err := s.insights.Upsert(ctx, insight); err != nil {
		return fmt.Errorf("failed to persist summary insight: %w", err)
	}

	s.logger.InfoContext(ctx, "summary persisted",
		"recording_id", recordingID,
		"summary_length", len(parsed.Summary))

	return nil
}
