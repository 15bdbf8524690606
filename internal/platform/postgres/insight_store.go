package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/minutely/minute-api/internal/domain"
	"github.com/minutely/minute-api/internal/platform/logger"
	"github.com/minutely/minute-api/internal/store"
)

// InsightStore implements store.InsightStore using PostgreSQL.
// Utterances are stored as a JSONB column on the insight row.
type InsightStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewInsightStore creates a PostgreSQL implementation of the
// InsightStore interface.
func NewInsightStore(db store.DBTX, logger *slog.Logger) *InsightStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &InsightStore{
		db:     db,
		logger: logger.With(slog.String("component", "insight_store")),
	}
}

// Ensure InsightStore implements store.InsightStore.
var _ store.InsightStore = (*InsightStore)(nil)

// Upsert saves an insight, replacing any existing artifact of the same
// type for the same recording. Reruns of the conversion workflow
// overwrite prior artifacts instead of accumulating them.
func (s *InsightStore) Upsert(ctx context.Context, insight *domain.Insight) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := insight.Validate(); err != nil {
		log.Warn("insight validation failed during upsert",
			"error", err, "recording_id", insight.RecordingID, "type", insight.Type)
		return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
	}

	utterances, err := json.Marshal(insight.Utterances)
	if err != nil {
		return fmt.Errorf("failed to marshal utterances: %w", err)
	}

	query := `
		INSERT INTO insights (id, recording_id, type, content, utterances, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (recording_id, type) DO UPDATE
		SET content = EXCLUDED.content,
		    utterances = EXCLUDED.utterances,
		    updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(
		ctx,
		query,
		insight.ID,
		insight.RecordingID,
		insight.Type,
		insight.Content,
		utterances,
		insight.CreatedAt,
		insight.UpdatedAt,
	)
	if err != nil {
		if isPgError(err, pgForeignKeyViolationCode) {
			log.Warn("insight references unknown recording",
				"recording_id", insight.RecordingID, "type", insight.Type)
			return store.ErrRecordingNotFound
		}
		log.Error("failed to upsert insight",
			"error", err, "recording_id", insight.RecordingID, "type", insight.Type)
		return err
	}

	log.Info("insight upserted",
		"recording_id", insight.RecordingID,
		"type", insight.Type,
		"content_length", len(insight.Content))
	return nil
}

// GetByType retrieves the insight of the given type for a recording.
// Returns store.ErrInsightNotFound if no such artifact exists.
func (s *InsightStore) GetByType(
	ctx context.Context,
	recordingID uuid.UUID,
	insightType domain.InsightType,
) (*domain.Insight, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, recording_id, type, content, utterances, created_at, updated_at
		FROM insights
		WHERE recording_id = $1 AND type = $2
	`

	var ins domain.Insight
	var insType string
	var utterances []byte
	var updatedAt time.Time

	err := s.db.QueryRowContext(ctx, query, recordingID, insightType).Scan(
		&ins.ID,
		&ins.RecordingID,
		&insType,
		&ins.Content,
		&utterances,
		&ins.CreatedAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("insight not found",
				"recording_id", recordingID, "type", insightType)
			return nil, store.ErrInsightNotFound
		}
		log.Error("failed to get insight",
			"error", err, "recording_id", recordingID, "type", insightType)
		return nil, err
	}

	ins.Type = domain.InsightType(insType)
	ins.UpdatedAt = updatedAt
	if len(utterances) > 0 {
		if err := json.Unmarshal(utterances, &ins.Utterances); err != nil {
			log.Error("failed to unmarshal utterances",
				"error", err, "recording_id", recordingID)
			return nil, fmt.Errorf("failed to unmarshal utterances: %w", err)
		}
	}

	return &ins, nil
}
