package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/minutely/minute-api/internal/platform/logger"
	"github.com/minutely/minute-api/internal/task"
)

// TaskStore implements the task.TaskStore interface using PostgreSQL.
// Recovered tasks are rehydrated into executable tasks through factories
// registered per task type; rows with an unregistered type are returned
// as inert tasks that fail on Execute.
type TaskStore struct {
	db        *sql.DB
	tx        *sql.Tx
	factories map[string]task.Factory
	logger    *slog.Logger
}

// NewTaskStore creates a PostgreSQL implementation of the
// task.TaskStore interface.
func NewTaskStore(db *sql.DB, logger *slog.Logger) *TaskStore {
	if db == nil {
		panic("db cannot be nil")
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &TaskStore{
		db:        db,
		factories: make(map[string]task.Factory),
		logger:    logger.With(slog.String("component", "task_store")),
	}
}

// Ensure TaskStore implements task.TaskStore.
var _ task.TaskStore = (*TaskStore)(nil)

// RegisterFactory installs the factory used to rehydrate persisted
// tasks of the given type. Registration must happen before Recover runs.
func (s *TaskStore) RegisterFactory(taskType string, factory task.Factory) {
	s.factories[taskType] = factory
}

// exec returns the active query target, preferring the transaction when
// one was bound via WithTx.
func (s *TaskStore) exec() interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
} {
	if s.tx != nil {
		return s.tx
	}
	return s.db
}

// WithTx returns a TaskStore bound to the given transaction, sharing
// the factory registry with the receiver.
func (s *TaskStore) WithTx(tx *sql.Tx) task.TaskStore {
	return &TaskStore{
		db:        s.db,
		tx:        tx,
		factories: s.factories,
		logger:    s.logger,
	}
}

// SaveTask persists a task to the database.
func (s *TaskStore) SaveTask(ctx context.Context, t task.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO tasks (id, type, payload, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	now := time.Now().UTC()

	_, err := s.exec().ExecContext(ctx, query,
		t.ID(),
		t.Type(),
		t.Payload(),
		t.Status(),
		now,
		now,
	)
	if err != nil {
		log.Error("failed to save task",
			"task_id", t.ID(),
			"task_type", t.Type(),
			"error", err)
		return fmt.Errorf("failed to save task to database: %w", err)
	}

	return nil
}

// UpdateTaskStatus updates the status of a task in the database.
// A missing task is treated as a no-op so status writes for deleted
// tasks never abort processing.
func (s *TaskStore) UpdateTaskStatus(
	ctx context.Context,
	taskID uuid.UUID,
	status task.TaskStatus,
	errorMsg string,
) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		UPDATE tasks
		SET status = $1, error_message = $2, updated_at = $3
		WHERE id = $4
	`

	result, err := s.exec().ExecContext(ctx, query,
		status,
		errorMsg,
		time.Now().UTC(),
		taskID,
	)
	if err != nil {
		log.Error("failed to update task status",
			"task_id", taskID,
			"status", status,
			"error", err)
		return fmt.Errorf("failed to update task status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		log.Warn("no task found with ID to update status", "task_id", taskID)
		return nil
	}

	return nil
}

// GetPendingTasks retrieves all tasks with "pending" status.
func (s *TaskStore) GetPendingTasks(ctx context.Context) ([]task.Task, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusPending, 0)
}

// GetProcessingTasks retrieves tasks with "processing" status. If
// olderThan is non-zero, only tasks that have sat in that state longer
// than the given duration are returned.
func (s *TaskStore) GetProcessingTasks(ctx context.Context, olderThan time.Duration) ([]task.Task, error) {
	return s.getTasksByStatus(ctx, task.TaskStatusProcessing, olderThan)
}

func (s *TaskStore) getTasksByStatus(
	ctx context.Context,
	status task.TaskStatus,
	olderThan time.Duration,
) ([]task.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	var query string
	var args []interface{}

	if olderThan > 0 {
		query = `
			SELECT id, type, payload, status, error_message, created_at, updated_at
			FROM tasks
			WHERE status = $1 AND updated_at < $2
			ORDER BY created_at ASC
		`
		args = []interface{}{status, time.Now().UTC().Add(-olderThan)}
	} else {
		query = `
			SELECT id, type, payload, status, error_message, created_at, updated_at
			FROM tasks
			WHERE status = $1
			ORDER BY created_at ASC
		`
		args = []interface{}{status}
	}

	rows, err := s.exec().QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks by status",
			"status", status,
			"error", err)
		return nil, fmt.Errorf("failed to query tasks by status: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var tasks []task.Task

	for rows.Next() {
		var id uuid.UUID
		var taskType string
		var payload []byte
		var taskStatus task.TaskStatus
		var errorMessage sql.NullString
		var createdAt, updatedAt time.Time

		if err := rows.Scan(&id, &taskType, &payload, &taskStatus, &errorMessage, &createdAt, &updatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan task row: %w", err)
		}

		tasks = append(tasks, s.rehydrate(ctx, id, taskType, payload, taskStatus))
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating task rows: %w", err)
	}

	return tasks, nil
}

// rehydrate turns a stored row back into an executable task via the
// registered factory for its type. Without a factory the row becomes an
// inert task so recovery can still log and fail it explicitly.
func (s *TaskStore) rehydrate(
	ctx context.Context,
	id uuid.UUID,
	taskType string,
	payload []byte,
	status task.TaskStatus,
) task.Task {
	log := logger.FromContextOrDefault(ctx, s.logger)

	factory, ok := s.factories[taskType]
	if !ok {
		log.Warn("no factory registered for task type",
			"task_id", id,
			"task_type", taskType)
		return &inertTask{id: id, taskType: taskType, payload: payload, status: status}
	}

	t, err := factory.RehydrateTask(id, payload, status)
	if err != nil {
		log.Error("failed to rehydrate task",
			"task_id", id,
			"task_type", taskType,
			"error", err)
		return &inertTask{id: id, taskType: taskType, payload: payload, status: status}
	}

	return t
}

// inertTask carries a stored row that could not be rehydrated into an
// executable task. Executing it always fails.
type inertTask struct {
	id       uuid.UUID
	taskType string
	payload  []byte
	status   task.TaskStatus
}

func (t *inertTask) ID() uuid.UUID           { return t.id }
func (t *inertTask) Type() string            { return t.taskType }
func (t *inertTask) Payload() []byte         { return t.payload }
func (t *inertTask) Status() task.TaskStatus { return t.status }

func (t *inertTask) Execute(ctx context.Context) error {
	return errors.New("no execution function defined for recovered task")
}
