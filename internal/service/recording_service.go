package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/minutely/minute-api/internal/domain"
	"github.com/minutely/minute-api/internal/events"
	"github.com/minutely/minute-api/internal/store"
)

// Common sentinel errors for RecordingService. The API layer maps these
// to HTTP status codes.
var (
	// ErrRecordingNotFound indicates that the recording does not exist.
	ErrRecordingNotFound = errors.New("recording not found")

	// ErrConversionInProgress indicates that a conversion run for the
	// recording is already active in this process.
	ErrConversionInProgress = errors.New("conversion already in progress for this recording")
)

// RecordingServiceError wraps errors from the recording service with context.
type RecordingServiceError struct {
	// Operation is the operation that failed (e.g., "create_recording")
	Operation string
	// Message is a human-readable description of the error
	Message string
	// Err is the underlying error that caused the failure
	Err error
}

// Error implements the error interface for RecordingServiceError.
func (e *RecordingServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("recording service %s failed: %s: %v", e.Operation, e.Message, e.Err)
	}
	return fmt.Sprintf("recording service %s failed: %s", e.Operation, e.Message)
}

// Unwrap returns the wrapped error to support errors.Is/errors.As.
func (e *RecordingServiceError) Unwrap() error {
	return e.Err
}

// newServiceError wraps err with operation context. Known sentinel
// errors pass through unwrapped so callers can match them directly.
func newServiceError(operation, message string, err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrRecordingNotFound) || errors.Is(err, ErrConversionInProgress) {
		return err
	}

	if errors.Is(err, store.ErrRecordingNotFound) {
		return ErrRecordingNotFound
	}

	return &RecordingServiceError{
		Operation: operation,
		Message:   message,
		Err:       err,
	}
}

// CreateRecordingParams carries the caller-supplied fields for a new
// recording.
type CreateRecordingParams struct {
	ProjectID      uuid.UUID
	OrganizationID uuid.UUID
	CreatedBy      uuid.UUID
	Title          string
	AudioURL       string
}

// RecordingService provides recording-related operations.
type RecordingService interface {
	// CreateRecording saves a new recording in idle workflow state.
	CreateRecording(ctx context.Context, params CreateRecordingParams) (*domain.Recording, error)

	// RequestConversion emits a conversion request for the recording.
	// Returns ErrConversionInProgress when a run for the same recording
	// is already active in this process.
	RequestConversion(ctx context.Context, recordingID uuid.UUID) error

	// GetRecording retrieves a recording by its ID.
	GetRecording(ctx context.Context, recordingID uuid.UUID) (*domain.Recording, error)

	// ReleaseConversion frees the in-process conversion slot for a
	// recording. The server wires this as the task completion/failure
	// callback so a finished run, successful or not, allows a rerun.
	ReleaseConversion(recordingID uuid.UUID)
}

// recordingServiceImpl implements the RecordingService interface
type recordingServiceImpl struct {
	recordings   store.RecordingStore
	eventEmitter events.EventEmitter
	logger       *slog.Logger

	// active guards against concurrent conversion requests for the same
	// recording within this process. The set is cleared by the
	// completion callback wired in at startup.
	mu     sync.Mutex
	active map[uuid.UUID]struct{}
}

// NewRecordingService creates a new RecordingService.
// It returns an error if any of the required dependencies are nil.
func NewRecordingService(
	recordings store.RecordingStore,
	eventEmitter events.EventEmitter,
	logger *slog.Logger,
) (RecordingService, error) {
	if recordings == nil {
		return nil, &RecordingServiceError{
			Operation: "create_service",
			Message:   "recording store cannot be nil",
		}
	}
	if eventEmitter == nil {
		return nil, &RecordingServiceError{
			Operation: "create_service",
			Message:   "event emitter cannot be nil",
		}
	}

	if logger == nil {
		logger = slog.Default()
	}

	return &recordingServiceImpl{
		recordings:   recordings,
		eventEmitter: eventEmitter,
		logger:       logger.With("component", "recording_service"),
		active:       make(map[uuid.UUID]struct{}),
	}, nil
}

// CreateRecording saves a new recording in idle workflow state.
func (s *recordingServiceImpl) CreateRecording(
	ctx context.Context,
	params CreateRecordingParams,
) (*domain.Recording, error) {
	rec, err := domain.NewRecording(
		params.ProjectID,
		params.OrganizationID,
		params.CreatedBy,
		params.Title,
		params.AudioURL,
	)
	if err != nil {
		s.logger.Error("failed to create recording object",
			"error", err,
			"project_id", params.ProjectID)
		return nil, newServiceError("create_recording", "failed to create recording object", err)
	}

	if err := s.recordings.Create(ctx, rec); err != nil {
		s.logger.Error("failed to save recording",
			"error", err,
			"recording_id", rec.ID)
		return nil, newServiceError("create_recording", "failed to save recording", err)
	}

	s.logger.Info("recording created",
		"recording_id", rec.ID,
		"project_id", params.ProjectID)

	return rec, nil
}

// RequestConversion checks the recording exists, claims the in-process
// conversion slot for it, and emits a conversion request event. The
// slot stays claimed until ReleaseConversion runs, so overlapping runs
// over the same recording are rejected rather than interleaved.
func (s *recordingServiceImpl) RequestConversion(ctx context.Context, recordingID uuid.UUID) error {
	rec, err := s.recordings.GetByID(ctx, recordingID)
	if err != nil {
		if errors.Is(err, store.ErrRecordingNotFound) {
			return ErrRecordingNotFound
		}
		return newServiceError("request_conversion", "failed to retrieve recording", err)
	}

	if !s.claim(recordingID) {
		s.logger.Warn("conversion already in progress",
			"recording_id", recordingID,
			"workflow_status", rec.WorkflowStatus)
		return ErrConversionInProgress
	}

	event, err := events.NewConversionRequestedEvent(recordingID)
	if err != nil {
		s.release(recordingID)
		return newServiceError("request_conversion", "failed to create event", err)
	}

	if err := s.eventEmitter.EmitEvent(ctx, event); err != nil {
		s.release(recordingID)
		s.logger.Error("failed to emit conversion request event",
			"error", err,
			"recording_id", recordingID,
			"event_id", event.ID)
		return newServiceError("request_conversion", "failed to emit event", err)
	}

	s.logger.Info("conversion requested",
		"recording_id", recordingID,
		"event_id", event.ID)
	return nil
}

// GetRecording retrieves a recording by its ID.
func (s *recordingServiceImpl) GetRecording(ctx context.Context, recordingID uuid.UUID) (*domain.Recording, error) {
	rec, err := s.recordings.GetByID(ctx, recordingID)
	if err != nil {
		if errors.Is(err, store.ErrRecordingNotFound) {
			return nil, ErrRecordingNotFound
		}
		return nil, newServiceError("get_recording", "failed to retrieve recording", err)
	}

	return rec, nil
}

// claim marks a conversion as active for the recording. Returns false
// when one is already active.
func (s *recordingServiceImpl) claim(recordingID uuid.UUID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.active[recordingID]; ok {
		return false
	}
	s.active[recordingID] = struct{}{}
	return true
}

// release frees the conversion slot for the recording.
func (s *recordingServiceImpl) release(recordingID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.active, recordingID)
}

// ReleaseConversion frees the in-process conversion slot for a recording.
func (s *recordingServiceImpl) ReleaseConversion(recordingID uuid.UUID) {
	s.release(recordingID)
}
