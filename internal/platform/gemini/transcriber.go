package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"mime"
	"path"
	"strings"

	"github.com/google/uuid"
	"google.golang.org/genai"

	"github.com/minutely/minute-api/internal/domain"
)

// TranscriptWriter persists the transcript text produced by a
// transcription call.
type TranscriptWriter interface {
	SetTranscript(ctx context.Context, id uuid.UUID, transcript string) error
}

// InsightWriter persists derived insight artifacts.
type InsightWriter interface {
	Upsert(ctx context.Context, insight *domain.Insight) error
}

// transcriptionSchema is the JSON shape the transcription prompt asks
// the model to produce.
type transcriptionSchema struct {
	Transcript string `json:"transcript"`
	Utterances []struct {
		SpeakerID string `json:"speaker_id"`
		Text      string `json:"text"`
		StartMs   int64  `json:"start_ms"`
	} `json:"utterances"`
}

// Transcriber converts a recording's audio into text via a single
// Gemini call and persists the transcript and utterance sequence.
// It implements workflow.Transcriber.
type Transcriber struct {
	client     *Client
	recordings TranscriptWriter
	insights   InsightWriter
	model      string
	logger     *slog.Logger
}

// NewTranscriber creates a Transcriber backed by the shared client.
func NewTranscriber(client *Client, recordings TranscriptWriter, insights InsightWriter) (*Transcriber, error) {
	if client == nil {
		return nil, errors.New("client cannot be nil")
	}
	if recordings == nil {
		return nil, errors.New("transcript writer cannot be nil")
	}
	if insights == nil {
		return nil, errors.New("insight writer cannot be nil")
	}

	model := client.config.TranscriptionModel
	if model == "" {
		return nil, fmt.Errorf("%w: transcription model cannot be empty", ErrInvalidConfig)
	}

	return &Transcriber{
		client:     client,
		recordings: recordings,
		insights:   insights,
		model:      model,
		logger:     client.logger.With("component", "gemini_transcriber"),
	}, nil
}

// Transcribe sends the recording's audio to the model and persists the
// resulting transcript (on the recording) and utterance sequence (as a
// transcription insight).
func (t *Transcriber) Transcribe(ctx context.Context, recordingID uuid.UUID, audioURL string) error {
	t.logger.InfoContext(ctx, "transcribing recording",
		"recording_id", recordingID,
		"model", t.model)

	contents := []*genai.Content{{
		Parts: []*genai.Part{
			genai.NewPartFromURI(audioURL, audioMIMEType(audioURL)),
			genai.NewPartFromText(transcriptionPromptTemplate),
		},
	}}

	text, err := t.client.generateJSON(ctx, t.model, contents)
	if err != nil {
		return fmt.Errorf("transcription call failed: %w", err)
	}

	var parsed transcriptionSchema
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return fmt.Errorf("%w: failed to parse transcription JSON: %v", ErrInvalidResponse, err)
	}
	if parsed.Transcript == "" {
		return fmt.Errorf("%w: transcription response missing transcript", ErrInvalidResponse)
	}

	if err := t.recordings.SetTranscript(ctx, recordingID, parsed.Transcript); err != nil {
		return fmt.Errorf("failed to persist transcript: %w", err)
	}

	insight, err := domain.NewInsight(recordingID, domain.InsightTypeTranscription, parsed.Transcript)
	if err != nil {
		return fmt.Errorf("failed to build transcription insight: %w", err)
	}
	for _, u := range parsed.Utterances {
		insight.Utterances = append(insight.Utterances, domain.Utterance{
			SpeakerID: u.SpeakerID,
			Text:      u.Text,
			StartMs:   u.StartMs,
		})
	}

	if err := t.insights.Upsert(ctx, insight); err != nil {
		return fmt.Errorf("failed to persist transcription insight: %w", err)
	}

	t.logger.InfoContext(ctx, "transcription persisted",
		"recording_id", recordingID,
		"transcript_length", len(parsed.Transcript),
		"utterance_count", len(insight.Utterances))

	return nil
}

// audioMIMEType guesses the MIME type from the audio URL's extension,
// defaulting to audio/mpeg.
func audioMIMEType(audioURL string) string {
	ext := strings.ToLower(path.Ext(audioURL))
	if mt := mime.TypeByExtension(ext); mt != "" && strings.HasPrefix(mt, "audio/") {
		return mt
	}
	switch ext {
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "audio/ogg"
	case ".flac":
		return "audio/flac"
	case ".m4a":
		return "audio/mp4"
	default:
		return "audio/mpeg"
	}
}
