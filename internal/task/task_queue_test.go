package task

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubTask is a minimal Task for queue and runner tests.
type stubTask struct {
	id      uuid.UUID
	execute func(ctx context.Context) error
}

func newStubTask(execute func(ctx context.Context) error) *stubTask {
	return &stubTask{id: uuid.New(), execute: execute}
}

func (t *stubTask) ID() uuid.UUID      { return t.id }
func (t *stubTask) Type() string       { return "stub" }
func (t *stubTask) Payload() []byte    { return []byte(`{}`) }
func (t *stubTask) Status() TaskStatus { return TaskStatusPending }

func (t *stubTask) Execute(ctx context.Context) error {
	if t.execute != nil {
		return t.execute(ctx)
	}
	return nil
}

func TestTaskQueue_EnqueueAndConsume(t *testing.T) {
	t.Parallel()

	queue := NewTaskQueue(2, testLogger())
	task := newStubTask(nil)

	require.NoError(t, queue.Enqueue(task))

	received := <-queue.GetChannel()
	assert.Equal(t, task.ID(), received.ID())
}

func TestTaskQueue_FullQueueReturnsError(t *testing.T) {
	t.Parallel()

	queue := NewTaskQueue(1, testLogger())

	require.NoError(t, queue.Enqueue(newStubTask(nil)))

	err := queue.Enqueue(newStubTask(nil))
	assert.ErrorIs(t, err, ErrQueueFull)
}

func TestTaskQueue_EnqueueAfterCloseFails(t *testing.T) {
	t.Parallel()

	queue := NewTaskQueue(1, testLogger())
	queue.Close()

	assert.ErrorIs(t, queue.Enqueue(newStubTask(nil)), ErrQueueClosed)
}

func TestTaskQueue_CloseIsIdempotent(t *testing.T) {
	t.Parallel()

	queue := NewTaskQueue(1, testLogger())
	queue.Close()

	assert.NotPanics(t, func() { queue.Close() })
}

func TestTaskQueue_BufferedTasksSurviveClose(t *testing.T) {
	t.Parallel()

	queue := NewTaskQueue(2, testLogger())
	task := newStubTask(nil)
	require.NoError(t, queue.Enqueue(task))

	queue.Close()

	received, ok := <-queue.GetChannel()
	require.True(t, ok)
	assert.Equal(t, task.ID(), received.ID())

	_, ok = <-queue.GetChannel()
	assert.False(t, ok, "channel drains then closes")
}
