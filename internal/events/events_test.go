package events

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConversionRequestedEvent(t *testing.T) {
	t.Parallel()

	recordingID := uuid.New()

	event, err := NewConversionRequestedEvent(recordingID)
	require.NoError(t, err)

	assert.NotEqual(t, uuid.Nil, event.ID)
	assert.Equal(t, TaskTypeRecordingConversion, event.Type)
	assert.False(t, event.CreatedAt.IsZero())

	var payload ConversionRequestedPayload
	require.NoError(t, event.UnmarshalPayload(&payload))
	assert.Equal(t, recordingID, payload.RecordingID)
}

func TestUnmarshalPayload_InvalidTarget(t *testing.T) {
	t.Parallel()

	event, err := NewTaskRequestEvent("custom", map[string]string{"key": "value"})
	require.NoError(t, err)

	var wrongShape []int
	assert.Error(t, event.UnmarshalPayload(&wrongShape))
}
