package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/minutely/minute-api/internal/domain"
	"github.com/minutely/minute-api/internal/platform/logger"
	"github.com/minutely/minute-api/internal/store"
)

// ActionItemStore implements store.ActionItemStore using PostgreSQL.
// It holds the *sql.DB rather than a DBTX because CreateBatch opens its
// own transaction.
type ActionItemStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewActionItemStore creates a PostgreSQL implementation of the
// ActionItemStore interface.
func NewActionItemStore(db *sql.DB, logger *slog.Logger) *ActionItemStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &ActionItemStore{
		db:     db,
		logger: logger.With(slog.String("component", "action_item_store")),
	}
}

// Ensure ActionItemStore implements store.ActionItemStore.
var _ store.ActionItemStore = (*ActionItemStore)(nil)

// CreateBatch saves all given action items inside a single transaction,
// so a partial extraction result is never persisted.
func (s *ActionItemStore) CreateBatch(ctx context.Context, items []*domain.ActionItem) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if len(items) == 0 {
		return nil
	}

	for _, item := range items {
		if err := item.Validate(); err != nil {
			log.Warn("action item validation failed during batch create",
				"error", err, "action_item_id", item.ID)
			return fmt.Errorf("%w: %v", store.ErrInvalidEntity, err)
		}
	}

	query := `
		INSERT INTO action_items (
			id, recording_id, project_id, organization_id, created_by,
			title, description, created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		for _, item := range items {
			_, err := tx.ExecContext(
				ctx,
				query,
				item.ID,
				item.RecordingID,
				item.ProjectID,
				item.OrganizationID,
				item.CreatedBy,
				item.Title,
				item.Description,
				item.CreatedAt,
			)
			if err != nil {
				if isPgError(err, pgForeignKeyViolationCode) {
					return store.ErrRecordingNotFound
				}
				return fmt.Errorf("failed to insert action item %s: %w", item.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		log.Error("failed to create action item batch",
			"error", err, "item_count", len(items))
		return err
	}

	log.Info("action item batch created",
		"recording_id", items[0].RecordingID,
		"item_count", len(items))
	return nil
}

// ListByRecording returns all action items extracted from a recording,
// oldest first.
func (s *ActionItemStore) ListByRecording(ctx context.Context, recordingID uuid.UUID) ([]*domain.ActionItem, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, recording_id, project_id, organization_id, created_by,
		       title, description, created_at
		FROM action_items
		WHERE recording_id = $1
		ORDER BY created_at ASC
	`

	rows, err := s.db.QueryContext(ctx, query, recordingID)
	if err != nil {
		log.Error("failed to list action items",
			"error", err, "recording_id", recordingID)
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []*domain.ActionItem
	for rows.Next() {
		var item domain.ActionItem
		if err := rows.Scan(
			&item.ID,
			&item.RecordingID,
			&item.ProjectID,
			&item.OrganizationID,
			&item.CreatedBy,
			&item.Title,
			&item.Description,
			&item.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan action item: %w", err)
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return items, nil
}
