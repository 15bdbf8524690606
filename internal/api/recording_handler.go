package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/minutely/minute-api/internal/api/shared"
	"github.com/minutely/minute-api/internal/domain"
	"github.com/minutely/minute-api/internal/service"
	"github.com/minutely/minute-api/internal/store"
)

// CreateRecordingRequest represents the request body for registering a
// new recording.
type CreateRecordingRequest struct {
	ProjectID      string `json:"project_id"      validate:"required,uuid"`
	OrganizationID string `json:"organization_id" validate:"required,uuid"`
	CreatedBy      string `json:"created_by"      validate:"required,uuid"`
	Title          string `json:"title"`
	AudioURL       string `json:"audio_url"       validate:"required,min=1"`
}

// ActionItemResponse represents a single extracted action item.
type ActionItemResponse struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// RecordingResponse represents the response data for a recording,
// including its workflow state and any artifacts produced so far.
type RecordingResponse struct {
	ID                 string               `json:"id"`
	ProjectID          string               `json:"project_id"`
	OrganizationID     string               `json:"organization_id"`
	CreatedBy          string               `json:"created_by"`
	Title              string               `json:"title"`
	AudioURL           string               `json:"audio_url"`
	Transcript         *string              `json:"transcript,omitempty"`
	Summary            *string              `json:"summary,omitempty"`
	WorkflowStatus     string               `json:"workflow_status"`
	WorkflowError      *string              `json:"workflow_error,omitempty"`
	WorkflowRetryCount int                  `json:"workflow_retry_count"`
	ActionItems        []ActionItemResponse `json:"action_items"`
	CreatedAt          time.Time            `json:"created_at"`
	UpdatedAt          time.Time            `json:"updated_at"`
}

// ActionItemLister lists the action items extracted from a recording.
type ActionItemLister interface {
	ListByRecording(ctx context.Context, recordingID uuid.UUID) ([]*domain.ActionItem, error)
}

// ViewCache caches rendered recording views between conversion runs.
type ViewCache interface {
	Get(kind domain.ViewKind, id uuid.UUID) (interface{}, bool)
	Set(kind domain.ViewKind, id uuid.UUID, value interface{})
}

// RecordingHandler handles recording-related HTTP requests.
type RecordingHandler struct {
	recordings service.RecordingService
	insights   store.InsightStore
	items      ActionItemLister
	cache      ViewCache
}

// NewRecordingHandler creates a new RecordingHandler.
func NewRecordingHandler(
	recordings service.RecordingService,
	insights store.InsightStore,
	items ActionItemLister,
	cache ViewCache,
) *RecordingHandler {
	return &RecordingHandler{
		recordings: recordings,
		insights:   insights,
		items:      items,
		cache:      cache,
	}
}

// CreateRecording handles POST /api/recordings requests.
func (h *RecordingHandler) CreateRecording(w http.ResponseWriter, r *http.Request) {
	var req CreateRecordingRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, msgInvalidRequest)
		return
	}

	if err := shared.ValidateRequest(req); err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Validation error: "+err.Error())
		return
	}

	// UUID fields already validated above
	params := service.CreateRecordingParams{
		ProjectID:      uuid.MustParse(req.ProjectID),
		OrganizationID: uuid.MustParse(req.OrganizationID),
		CreatedBy:      uuid.MustParse(req.CreatedBy),
		Title:          req.Title,
		AudioURL:       req.AudioURL,
	}

	rec, err := h.recordings.CreateRecording(r.Context(), params)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusCreated, h.recordingToResponse(r.Context(), rec))
}

// RequestConversion handles POST /api/recordings/{id}/convert requests.
// Conversion runs asynchronously, so success is 202 Accepted.
func (h *RecordingHandler) RequestConversion(w http.ResponseWriter, r *http.Request) {
	recordingID, ok := recordingIDFromURL(w, r)
	if !ok {
		return
	}

	if err := h.recordings.RequestConversion(r.Context(), recordingID); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	shared.RespondWithJSON(w, r, http.StatusAccepted, map[string]string{
		"recording_id": recordingID.String(),
		"status":       "conversion_requested",
	})
}

// GetRecording handles GET /api/recordings/{id} requests. Responses are
// served from the view cache when possible; the conversion workflow
// invalidates the cached view after producing new artifacts.
func (h *RecordingHandler) GetRecording(w http.ResponseWriter, r *http.Request) {
	recordingID, ok := recordingIDFromURL(w, r)
	if !ok {
		return
	}

	if cached, ok := h.cache.Get(domain.ViewKindRecording, recordingID); ok {
		if view, ok := cached.(RecordingResponse); ok {
			shared.RespondWithJSON(w, r, http.StatusOK, view)
			return
		}
	}

	rec, err := h.recordings.GetRecording(r.Context(), recordingID)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	view := h.recordingToResponse(r.Context(), rec)
	h.cache.Set(domain.ViewKindRecording, recordingID, view)

	shared.RespondWithJSON(w, r, http.StatusOK, view)
}

// recordingIDFromURL parses the {id} URL parameter, responding with 400
// on failure.
func recordingIDFromURL(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	recordingID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid recording ID")
		return uuid.Nil, false
	}
	return recordingID, true
}

// recordingToResponse assembles the full recording view: workflow
// state, transcript, summary insight and action items. Missing
// artifacts are simply omitted, never an error.
func (h *RecordingHandler) recordingToResponse(ctx context.Context, rec *domain.Recording) RecordingResponse {
	resp := RecordingResponse{
		ID:                 rec.ID.String(),
		ProjectID:          rec.ProjectID.String(),
		OrganizationID:     rec.OrganizationID.String(),
		CreatedBy:          rec.CreatedBy.String(),
		Title:              rec.Title,
		AudioURL:           rec.AudioURL,
		Transcript:         rec.Transcript,
		WorkflowStatus:     string(rec.WorkflowStatus),
		WorkflowError:      rec.WorkflowError,
		WorkflowRetryCount: rec.WorkflowRetryCount,
		ActionItems:        []ActionItemResponse{},
		CreatedAt:          rec.CreatedAt,
		UpdatedAt:          rec.UpdatedAt,
	}

	// Artifact reads are best-effort for the view
	if summary, err := h.insights.GetByType(ctx, rec.ID, domain.InsightTypeSummary); err == nil {
		resp.Summary = &summary.Content
	}

	if items, err := h.items.ListByRecording(ctx, rec.ID); err == nil {
		for _, item := range items {
			resp.ActionItems = append(resp.ActionItems, ActionItemResponse{
				ID:          item.ID.String(),
				Title:       item.Title,
				Description: item.Description,
				CreatedAt:   item.CreatedAt,
			})
		}
	}

	return resp
}
