package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/minutely/minute-api/internal/domain"
	"github.com/minutely/minute-api/internal/platform/logger"
	"github.com/minutely/minute-api/internal/store"
)

// RecordingStore implements store.RecordingStore using PostgreSQL.
type RecordingStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewRecordingStore creates a PostgreSQL implementation of the
// RecordingStore interface. The caller owns the database handle.
// If logger is nil, the default logger is used.
func NewRecordingStore(db store.DBTX, logger *slog.Logger) *RecordingStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &RecordingStore{
		db:     db,
		logger: logger.With(slog.String("component", "recording_store")),
	}
}

// Ensure RecordingStore implements store.RecordingStore.
var _ store.RecordingStore = (*RecordingStore)(nil)

// Create saves a new recording.
// Returns store.ErrInvalidEntity when validation fails.
func (s *RecordingStore) Create(ctx context.Context, rec *domain.Recording) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := rec.Validate(); err != nil {
		log.Warn("recording validation failed during create",
			"error", err, "recording_id", rec.ID)
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO recordings (
			id, project_id, organization_id, created_by, title, audio_url,
			transcript, workflow_status, workflow_error, workflow_retry_count,
			created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.db.ExecContext(
		ctx,
		query,
		rec.ID,
		rec.ProjectID,
		rec.OrganizationID,
		rec.CreatedBy,
		rec.Title,
		rec.AudioURL,
		rec.Transcript,
		rec.WorkflowStatus,
		rec.WorkflowError,
		rec.WorkflowRetryCount,
		rec.CreatedAt,
		rec.UpdatedAt,
	)
	if err != nil {
		if isPgError(err, pgUniqueViolationCode) {
			log.Warn("duplicate recording id during create", "recording_id", rec.ID)
			return fmt.Errorf("%w: recording %s already exists", store.ErrInvalidEntity, rec.ID)
		}
		log.Error("failed to create recording",
			"error", err, "recording_id", rec.ID)
		return err
	}

	log.Info("recording created",
		"recording_id", rec.ID,
		"project_id", rec.ProjectID)
	return nil
}

// GetByID retrieves a recording by ID.
// Returns store.ErrRecordingNotFound if the recording does not exist.
func (s *RecordingStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Recording, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, project_id, organization_id, created_by, title, audio_url,
		       transcript, workflow_status, workflow_error, workflow_retry_count,
		       created_at, updated_at
		FROM recordings
		WHERE id = $1
	`

	var rec domain.Recording
	var status string
	var transcript, workflowError sql.NullString

	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&rec.ID,
		&rec.ProjectID,
		&rec.OrganizationID,
		&rec.CreatedBy,
		&rec.Title,
		&rec.AudioURL,
		&transcript,
		&status,
		&workflowError,
		&rec.WorkflowRetryCount,
		&rec.CreatedAt,
		&rec.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("recording not found", "recording_id", id)
			return nil, store.ErrRecordingNotFound
		}
		log.Error("failed to get recording by ID",
			"error", err, "recording_id", id)
		return nil, err
	}

	rec.WorkflowStatus = domain.WorkflowStatus(status)
	if transcript.Valid {
		rec.Transcript = &transcript.String
	}
	if workflowError.Valid {
		rec.WorkflowError = &workflowError.String
	}

	return &rec, nil
}

// SetTranscript stores the transcript text for a recording.
// Returns store.ErrRecordingNotFound if the recording does not exist.
func (s *RecordingStore) SetTranscript(ctx context.Context, id uuid.UUID, transcript string) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE recordings
		SET transcript = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := s.db.ExecContext(ctx, query, transcript, time.Now().UTC(), id)
	if err != nil {
		log.Error("failed to set transcript",
			"error", err, "recording_id", id)
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return store.ErrRecordingNotFound
	}

	log.Info("transcript stored",
		"recording_id", id,
		"transcript_length", len(transcript))
	return nil
}

// UpdateWorkflow applies a partial update to the recording's persisted
// workflow state. An Error pointer to the empty string clears the
// stored error text. Returns store.ErrRecordingNotFound if the
// recording does not exist.
func (s *RecordingStore) UpdateWorkflow(ctx context.Context, id uuid.UUID, update domain.WorkflowUpdate) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := update.Validate(); err != nil {
		log.Warn("workflow update validation failed",
			"error", err, "recording_id", id, "status", update.Status)
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE recordings
		SET workflow_status = $1,
		    workflow_error = CASE WHEN $2 THEN $3 ELSE workflow_error END,
		    workflow_retry_count = CASE WHEN $4 THEN $5 ELSE workflow_retry_count END,
		    updated_at = $6
		WHERE id = $7
	`

	var errText sql.NullString
	if update.Error != nil && *update.Error != "" {
		errText = sql.NullString{String: *update.Error, Valid: true}
	}

	var retryCount int
	if update.RetryCount != nil {
		retryCount = *update.RetryCount
	}

	result, err := s.db.ExecContext(
		ctx,
		query,
		update.Status,
		update.Error != nil,
		errText,
		update.RetryCount != nil,
		retryCount,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		log.Error("failed to update workflow state",
			"error", err, "recording_id", id, "status", update.Status)
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		log.Debug("recording not found for workflow update", "recording_id", id)
		return store.ErrRecordingNotFound
	}

	log.Info("workflow state updated",
		"recording_id", id,
		"status", update.Status)
	return nil
}
