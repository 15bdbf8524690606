package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"google.golang.org/genai"

	"github.com/minutely/minute-api/internal/domain"
	"github.com/minutely/minute-api/internal/workflow"
)

// ActionItemWriter persists extracted action items atomically.
type ActionItemWriter interface {
	CreateBatch(ctx context.Context, items []*domain.ActionItem) error
}

// extractionSchema is the JSON shape the extraction prompt asks the
// model to produce.
type extractionSchema struct {
	Tasks []struct {
		Title       string `json:"title"`
		Description string `json:"description"`
	} `json:"tasks"`
}

// TaskExtractor extracts action items from a transcript via a single
// Gemini call and persists them attributed to the recording's project,
// organization and creator. It implements workflow.TaskExtractor.
type TaskExtractor struct {
	client   *Client
	items    ActionItemWriter
	insights InsightWriter
	model    string
	logger   *slog.Logger
}

// NewTaskExtractor creates a TaskExtractor backed by the shared client.
func NewTaskExtractor(client *Client, items ActionItemWriter, insights InsightWriter) (*TaskExtractor, error) {
	if client == nil {
		return nil, errors.New("client cannot be nil")
	}
	if items == nil {
		return nil, errors.New("action item writer cannot be nil")
	}
	if insights == nil {
		return nil, errors.New("insight writer cannot be nil")
	}

	model := client.config.ExtractionModel
	if model == "" {
		return nil, fmt.Errorf("%w: extraction model cannot be empty", ErrInvalidConfig)
	}

	return &TaskExtractor{
		client:   client,
		items:    items,
		insights: insights,
		model:    model,
		logger:   client.logger.With("component", "gemini_task_extractor"),
	}, nil
}

// ExtractTasks generates action items from the transcript, persists
// them, and returns the number created. An empty task list is a valid
// outcome, not an error.
func (e *TaskExtractor) ExtractTasks(ctx context.Context, req workflow.ExtractionRequest) (int, error) {
	if req.Transcript == "" {
		return 0, fmt.Errorf("%w: transcript cannot be empty", ErrInvalidConfig)
	}

	prompt, err := renderTranscriptPrompt(extractionTmpl, req.Transcript, req.Utterances)
	if err != nil {
		return 0, err
	}

	e.logger.InfoContext(ctx, "extracting action items",
		"recording_id", req.RecordingID,
		"model", e.model)

	text, err := e.client.generateJSON(ctx, e.model, genai.Text(prompt))
	if err != nil {
		return 0, fmt.Errorf("extraction call failed: %w", err)
	}

	var parsed extractionSchema
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return 0, fmt.Errorf("%w: failed to parse extraction JSON: %v", ErrInvalidResponse, err)
	}

	items := make([]*domain.ActionItem, 0, len(parsed.Tasks))
	for i, task := range parsed.Tasks {
		if task.Title == "" {
			return 0, fmt.Errorf("%w: task %d missing title", ErrInvalidResponse, i)
		}

		item, err := domain.NewActionItem(
			req.RecordingID, req.ProjectID, req.OrganizationID, req.CreatorID,
			task.Title, task.Description,
		)
		if err != nil {
			return 0, fmt.Errorf("failed to build action item: %w", err)
		}
		items = append(items, item)
	}

	if len(items) > 0 {
		if err := e.items.CreateBatch(ctx, items); err != nil {
			return 0, fmt.Errorf("failed to persist action items: %w", err)
		}
	}

	if err := e.persistTaskSet(ctx, req, items); err != nil {
		return 0, err
	}

	e.logger.InfoContext(ctx, "action items persisted",
		"recording_id", req.RecordingID,
		"task_count", len(items))

	return len(items), nil
}

// persistTaskSet writes the task_set insight recording which items were
// extracted, so the artifact set for a recording is complete even when
// no tasks were found.
func (e *TaskExtractor) persistTaskSet(
	ctx context.Context,
	req workflow.ExtractionRequest,
	items []*domain.ActionItem,
) error {
	content, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal task set: %w", err)
	}

	insight, err := domain.NewInsight(req.RecordingID, domain.InsightTypeTaskSet, string(content))
	if err != nil {
		return fmt.Errorf("failed to build task set insight: %w", err)
	}

	if err := e.insights.Upsert(ctx, insight); err != nil {
		return fmt.Errorf("failed to persist task set insight: %w", err)
	}

	return nil
}
