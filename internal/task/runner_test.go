package task

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memoryTaskStore is an in-memory TaskStore for runner tests.
type memoryTaskStore struct {
	mu       sync.Mutex
	saved    []Task
	statuses map[uuid.UUID]TaskStatus
	errorMsg map[uuid.UUID]string
	pending  []Task
	saveErr  error
}

func newMemoryTaskStore() *memoryTaskStore {
	return &memoryTaskStore{
		statuses: make(map[uuid.UUID]TaskStatus),
		errorMsg: make(map[uuid.UUID]string),
	}
}

func (s *memoryTaskStore) SaveTask(_ context.Context, task Task) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.saveErr != nil {
		return s.saveErr
	}
	s.saved = append(s.saved, task)
	s.statuses[task.ID()] = task.Status()
	return nil
}

func (s *memoryTaskStore) UpdateTaskStatus(_ context.Context, taskID uuid.UUID, status TaskStatus, errorMsg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.statuses[taskID] = status
	s.errorMsg[taskID] = errorMsg
	return nil
}

func (s *memoryTaskStore) GetPendingTasks(_ context.Context) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Task(nil), s.pending...), nil
}

func (s *memoryTaskStore) GetProcessingTasks(_ context.Context, _ time.Duration) ([]Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var processing []Task
	for _, task := range append(s.saved, s.pending...) {
		if s.statuses[task.ID()] == TaskStatusProcessing {
			processing = append(processing, task)
		}
	}
	return processing, nil
}

func (s *memoryTaskStore) WithTx(_ *sql.Tx) TaskStore { return s }

func (s *memoryTaskStore) statusOf(id uuid.UUID) TaskStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.statuses[id]
}

func waitForStatus(t *testing.T, store *memoryTaskStore, id uuid.UUID, want TaskStatus) {
	t.Helper()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case <-deadline:
			t.Fatalf("task %s never reached status %s (last: %s)", id, want, store.statusOf(id))
		case <-time.After(5 * time.Millisecond):
			if store.statusOf(id) == want {
				return
			}
		}
	}
}

func runnerConfig() TaskRunnerConfig {
	return TaskRunnerConfig{
		WorkerCount:            1,
		QueueSize:              10,
		StuckTaskAge:           time.Minute,
		StuckTaskCheckInterval: time.Hour,
	}
}

func TestTaskRunner_SubmitPersistsThenExecutes(t *testing.T) {
	t.Parallel()

	store := newMemoryTaskStore()
	runner := NewTaskRunner(store, runnerConfig(), testLogger())
	require.NoError(t, runner.Start())
	defer runner.Stop()

	executed := make(chan struct{})
	task := newStubTask(func(_ context.Context) error {
		close(executed)
		return nil
	})

	require.NoError(t, runner.Submit(context.Background(), task))

	select {
	case <-executed:
	case <-time.After(5 * time.Second):
		t.Fatal("task was never executed")
	}

	waitForStatus(t, store, task.ID(), TaskStatusCompleted)
}

func TestTaskRunner_SubmitFailsWhenSaveFails(t *testing.T) {
	t.Parallel()

	store := newMemoryTaskStore()
	store.saveErr = errors.New("database down")
	runner := NewTaskRunner(store, runnerConfig(), testLogger())

	err := runner.Submit(context.Background(), newStubTask(nil))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to save task")
}

func TestTaskRunner_FailedTaskIsMarkedFailed(t *testing.T) {
	t.Parallel()

	store := newMemoryTaskStore()
	runner := NewTaskRunner(store, runnerConfig(), testLogger())

	var handled sync.WaitGroup
	handled.Add(1)
	runner.SetErrorHandler(func(_ Task, _ error) { handled.Done() })

	require.NoError(t, runner.Start())
	defer runner.Stop()

	task := newStubTask(func(_ context.Context) error {
		return errors.New("step exploded")
	})
	require.NoError(t, runner.Submit(context.Background(), task))

	handled.Wait()
	waitForStatus(t, store, task.ID(), TaskStatusFailed)

	store.mu.Lock()
	defer store.mu.Unlock()
	assert.Equal(t, "step exploded", store.errorMsg[task.ID()])
}

func TestTaskRunner_RecoverRequeuesPendingTasks(t *testing.T) {
	t.Parallel()

	store := newMemoryTaskStore()

	executed := make(chan struct{})
	recovered := newStubTask(func(_ context.Context) error {
		close(executed)
		return nil
	})
	store.pending = []Task{recovered}
	store.statuses[recovered.ID()] = TaskStatusPending

	runner := NewTaskRunner(store, runnerConfig(), testLogger())
	require.NoError(t, runner.Start())
	defer runner.Stop()

	select {
	case <-executed:
	case <-time.After(5 * time.Second):
		t.Fatal("recovered task was never executed")
	}
}

func TestTaskRunner_RecoverResetsProcessingTasks(t *testing.T) {
	t.Parallel()

	store := newMemoryTaskStore()

	executed := make(chan struct{})
	interrupted := newStubTask(func(_ context.Context) error {
		close(executed)
		return nil
	})
	store.saved = []Task{interrupted}
	store.statuses[interrupted.ID()] = TaskStatusProcessing

	runner := NewTaskRunner(store, runnerConfig(), testLogger())
	require.NoError(t, runner.Start())
	defer runner.Stop()

	select {
	case <-executed:
	case <-time.After(5 * time.Second):
		t.Fatal("interrupted task was never re-executed")
	}

	waitForStatus(t, store, interrupted.ID(), TaskStatusCompleted)
}
