package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/minutely/minute-api/internal/domain"
	"github.com/minutely/minute-api/internal/store"
)

// fakeRecordingStore is an in-memory store.RecordingStore that records
// every workflow update applied to it.
type fakeRecordingStore struct {
	mu         sync.Mutex
	recordings map[uuid.UUID]*domain.Recording
	updates    []domain.WorkflowUpdate
	updateErr  error
}

func newFakeRecordingStore(recs ...*domain.Recording) *fakeRecordingStore {
	s := &fakeRecordingStore{recordings: make(map[uuid.UUID]*domain.Recording)}
	for _, r := range recs {
		s.recordings[r.ID] = r
	}
	return s
}

func (s *fakeRecordingStore) Create(_ context.Context, rec *domain.Recording) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordings[rec.ID] = rec
	return nil
}

func (s *fakeRecordingStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Recording, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recordings[id]
	if !ok {
		return nil, store.ErrRecordingNotFound
	}
	cp := *rec
	return &cp, nil
}

func (s *fakeRecordingStore) SetTranscript(_ context.Context, id uuid.UUID, transcript string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.recordings[id]
	if !ok {
		return store.ErrRecordingNotFound
	}
	rec.Transcript = &transcript
	return nil
}

func (s *fakeRecordingStore) UpdateWorkflow(_ context.Context, id uuid.UUID, update domain.WorkflowUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.updateErr != nil {
		return s.updateErr
	}
	s.updates = append(s.updates, update)
	if rec, ok := s.recordings[id]; ok {
		rec.WorkflowStatus = update.Status
		if update.Error != nil {
			errText := *update.Error
			rec.WorkflowError = &errText
		}
		if update.RetryCount != nil {
			rec.WorkflowRetryCount = *update.RetryCount
		}
	}
	return nil
}

func (s *fakeRecordingStore) lastUpdate(t *testing.T) domain.WorkflowUpdate {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.updates, "expected at least one workflow update")
	return s.updates[len(s.updates)-1]
}

func (s *fakeRecordingStore) firstUpdate(t *testing.T) domain.WorkflowUpdate {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.updates, "expected at least one workflow update")
	return s.updates[0]
}

// fakeInsightStore serves the optional utterance context.
type fakeInsightStore struct {
	insight *domain.Insight
	err     error
}

func (s *fakeInsightStore) Upsert(context.Context, *domain.Insight) error { return nil }

func (s *fakeInsightStore) GetByType(context.Context, uuid.UUID, domain.InsightType) (*domain.Insight, error) {
	if s.err != nil {
		return nil, s.err
	}
	if s.insight == nil {
		return nil, store.ErrInsightNotFound
	}
	return s.insight, nil
}

// fakeTranscriber fails a configured number of times, then writes the
// transcript through the recording store like the real collaborator.
type fakeTranscriber struct {
	mu           sync.Mutex
	store        *fakeRecordingStore
	transcript   string
	failAttempts int
	skipPersist  bool
	calls        int
}

func (f *fakeTranscriber) Transcribe(ctx context.Context, recordingID uuid.UUID, _ string) error {
	f.mu.Lock()
	f.calls++
	call := f.calls
	f.mu.Unlock()

	if call <= f.failAttempts {
		return errors.New("transcription provider unavailable")
	}
	if f.skipPersist {
		return nil
	}
	return f.store.SetTranscript(ctx, recordingID, f.transcript)
}

func (f *fakeTranscriber) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeSummarizer struct {
	mu             sync.Mutex
	err            error
	calls          int
	gotTranscript  string
	gotUtterances  []domain.Utterance
}

func (f *fakeSummarizer) Summarize(_ context.Context, _ uuid.UUID, transcript string, utterances []domain.Utterance) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.gotTranscript = transcript
	f.gotUtterances = utterances
	return f.err
}

func (f *fakeSummarizer) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeExtractor struct {
	mu    sync.Mutex
	count int
	err   error
	calls int
	got   ExtractionRequest
}

func (f *fakeExtractor) ExtractTasks(_ context.Context, req ExtractionRequest) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.got = req
	if f.err != nil {
		return 0, f.err
	}
	return f.count, nil
}

func (f *fakeExtractor) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeCache struct {
	mu            sync.Mutex
	invalidations []domain.ViewKind
	panicOnCall   bool
}

func (c *fakeCache) Invalidate(_ context.Context, kind domain.ViewKind, _ uuid.UUID) {
	if c.panicOnCall {
		panic("cache backend gone")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.invalidations = append(c.invalidations, kind)
}

type fakeNotifier struct {
	mu    sync.Mutex
	err   error
	notes []domain.Notification
}

func (n *fakeNotifier) Notify(_ context.Context, note domain.Notification) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.err != nil {
		return n.err
	}
	n.notes = append(n.notes, note)
	return nil
}

// converterFixture bundles a Converter with all its fakes.
type converterFixture struct {
	converter   *Converter
	recordings  *fakeRecordingStore
	insights    *fakeInsightStore
	transcriber *fakeTranscriber
	summarizer  *fakeSummarizer
	extractor   *fakeExtractor
	cache       *fakeCache
	notifier    *fakeNotifier
	recording   *domain.Recording
}

func newConverterFixture(t *testing.T) *converterFixture {
	t.Helper()

	rec, err := domain.NewRecording(
		uuid.New(), uuid.New(), uuid.New(),
		"weekly sync", "https://audio.example.com/r1.mp3",
	)
	require.NoError(t, err)

	recordings := newFakeRecordingStore(rec)

	f := &converterFixture{
		recordings:  recordings,
		insights:    &fakeInsightStore{},
		transcriber: &fakeTranscriber{store: recordings, transcript: "hello world"},
		summarizer:  &fakeSummarizer{},
		extractor:   &fakeExtractor{},
		cache:       &fakeCache{},
		notifier:    &fakeNotifier{},
		recording:   rec,
	}

	log := testLogger()
	converter, err := NewConverter(ConverterConfig{
		Recordings:  f.recordings,
		Insights:    f.insights,
		Transcriber: f.transcriber,
		Summarizer:  f.summarizer,
		Extractor:   f.extractor,
		Tracker:     NewStatusTracker(f.recordings, log),
		Finalizer:   NewFinalizer(f.cache, f.notifier, log),
		Backoff:     DefaultBackoff(),
		Logger:      log,
	})
	require.NoError(t, err)

	// Substitute the sleeper so exhausted-retry tests do not take
	// 21 seconds of wall-clock time.
	converter.sleep = (&fakeSleeper{}).sleep

	f.converter = converter
	return f
}

func TestNewConverter_ValidatesDependencies(t *testing.T) {
	t.Parallel()

	f := newConverterFixture(t)
	base := ConverterConfig{
		Recordings:  f.recordings,
		Insights:    f.insights,
		Transcriber: f.transcriber,
		Summarizer:  f.summarizer,
		Extractor:   f.extractor,
		Tracker:     NewStatusTracker(f.recordings, testLogger()),
		Finalizer:   NewFinalizer(f.cache, f.notifier, testLogger()),
	}

	tests := []struct {
		name    string
		mutate  func(cfg *ConverterConfig)
		wantErr error
	}{
		{"nil recordings", func(c *ConverterConfig) { c.Recordings = nil }, ErrNilRecordingStore},
		{"nil insights", func(c *ConverterConfig) { c.Insights = nil }, ErrNilInsightStore},
		{"nil transcriber", func(c *ConverterConfig) { c.Transcriber = nil }, ErrNilTranscriber},
		{"nil summarizer", func(c *ConverterConfig) { c.Summarizer = nil }, ErrNilSummarizer},
		{"nil extractor", func(c *ConverterConfig) { c.Extractor = nil }, ErrNilTaskExtractor},
		{"nil tracker", func(c *ConverterConfig) { c.Tracker = nil }, ErrNilStatusTracker},
		{"nil finalizer", func(c *ConverterConfig) { c.Finalizer = nil }, ErrNilFinalizer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := base
			tt.mutate(&cfg)
			_, err := NewConverter(cfg)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestConvert_Success(t *testing.T) {
	t.Parallel()

	f := newConverterFixture(t)
	f.extractor.count = 3

	result, err := f.converter.Convert(context.Background(), f.recording.ID)

	require.NoError(t, err)
	assert.Equal(t, f.recording.ID, result.RecordingID)
	assert.True(t, result.TranscriptionCompleted)
	assert.True(t, result.SummaryCompleted)
	assert.Equal(t, 3, result.TasksExtracted)
	assert.Equal(t, domain.WorkflowStatusCompleted, result.Status)

	// First update marks the run as running, last as completed.
	assert.Equal(t, domain.WorkflowStatusRunning, f.recordings.firstUpdate(t).Status)
	assert.Equal(t, domain.WorkflowStatusCompleted, f.recordings.lastUpdate(t).Status)

	// Summary and extraction both received the persisted transcript.
	assert.Equal(t, "hello world", f.summarizer.gotTranscript)
	assert.Equal(t, "hello world", f.extractor.got.Transcript)
	assert.Equal(t, f.recording.ProjectID, f.extractor.got.ProjectID)
	assert.Equal(t, f.recording.OrganizationID, f.extractor.got.OrganizationID)
	assert.Equal(t, f.recording.CreatedBy, f.extractor.got.CreatorID)

	// Finalization invalidated all three derived views and notified.
	assert.ElementsMatch(t,
		[]domain.ViewKind{domain.ViewKindRecording, domain.ViewKindSummary, domain.ViewKindProject},
		f.cache.invalidations)
	require.Len(t, f.notifier.notes, 1)
	note := f.notifier.notes[0]
	assert.Equal(t, domain.NotificationTypeConversionCompleted, note.Type)
	assert.Equal(t, f.recording.CreatedBy, note.UserID)
	assert.Contains(t, note.Message, "3 action items")
}

func TestConvert_RecordingNotFound(t *testing.T) {
	t.Parallel()

	f := newConverterFixture(t)

	_, err := f.converter.Convert(context.Background(), uuid.New())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Recording not found")
	assert.Equal(t, 0, f.transcriber.callCount())
}

func TestConvert_TranscriptionExhaustsRetries(t *testing.T) {
	t.Parallel()

	f := newConverterFixture(t)
	f.transcriber.failAttempts = 100 // fail every attempt

	result, err := f.converter.Convert(context.Background(), f.recording.ID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Transcription failed")
	assert.Equal(t, domain.WorkflowStatusFailed, result.Status)
	assert.False(t, result.TranscriptionCompleted)

	// Default schedule allows exactly 4 attempts.
	assert.Equal(t, 4, f.transcriber.callCount())

	// Without a transcript neither parallel step is attempted.
	assert.Equal(t, 0, f.summarizer.callCount())
	assert.Equal(t, 0, f.extractor.callCount())

	last := f.recordings.lastUpdate(t)
	assert.Equal(t, domain.WorkflowStatusFailed, last.Status)
	require.NotNil(t, last.Error)
	assert.Contains(t, *last.Error, "Transcription failed")
	require.NotNil(t, last.RetryCount)
	assert.Equal(t, 3, *last.RetryCount)
}

func TestConvert_TranscriptMissingAfterSuccess(t *testing.T) {
	t.Parallel()

	f := newConverterFixture(t)
	f.transcriber.skipPersist = true // collaborator reports success without persisting

	result, err := f.converter.Convert(context.Background(), f.recording.ID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Transcription text not available")
	assert.Equal(t, domain.WorkflowStatusFailed, result.Status)

	// Inconsistency is fatal immediately; the transcription collaborator
	// is not re-invoked beyond its single successful attempt.
	assert.Equal(t, 1, f.transcriber.callCount())
	assert.Equal(t, 0, f.summarizer.callCount())
	assert.Equal(t, 0, f.extractor.callCount())
}

func TestConvert_SummaryFailsExtractionSucceeds(t *testing.T) {
	t.Parallel()

	f := newConverterFixture(t)
	f.summarizer.err = errors.New("summarizer unavailable")
	f.extractor.count = 0

	result, err := f.converter.Convert(context.Background(), f.recording.ID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Summary:")
	assert.NotContains(t, err.Error(), "Tasks:")

	assert.Equal(t, domain.WorkflowStatusFailed, result.Status)
	assert.True(t, result.TranscriptionCompleted)
	assert.False(t, result.SummaryCompleted)

	// Summary exhausted its own retries while extraction succeeded.
	assert.Equal(t, 4, f.summarizer.callCount())
	assert.Equal(t, 1, f.extractor.callCount())

	// Persisted status is failed, never completed.
	assert.Equal(t, domain.WorkflowStatusFailed, f.recordings.lastUpdate(t).Status)

	// No completion side effects on a failed run.
	assert.Empty(t, f.notifier.notes)
	assert.Empty(t, f.cache.invalidations)
}

func TestConvert_BothParallelStepsFail(t *testing.T) {
	t.Parallel()

	f := newConverterFixture(t)
	f.summarizer.err = errors.New("summarizer down")
	f.extractor.err = errors.New("extractor down")

	_, err := f.converter.Convert(context.Background(), f.recording.ID)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "Summary: ")
	assert.Contains(t, err.Error(), "Tasks: ")

	last := f.recordings.lastUpdate(t)
	require.NotNil(t, last.Error)
	assert.Contains(t, *last.Error, "Summary:")
	assert.Contains(t, *last.Error, "Tasks:")
}

func TestConvert_FinalizationFailureDoesNotFlipOutcome(t *testing.T) {
	t.Parallel()

	f := newConverterFixture(t)
	f.extractor.count = 2
	f.cache.panicOnCall = true
	f.notifier.err = errors.New("webhook 503")

	result, err := f.converter.Convert(context.Background(), f.recording.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.WorkflowStatusCompleted, result.Status)
	assert.Equal(t, 2, result.TasksExtracted)
	assert.Equal(t, domain.WorkflowStatusCompleted, f.recordings.lastUpdate(t).Status)
}

func TestConvert_TrackerWriteFailureDoesNotAbortRun(t *testing.T) {
	t.Parallel()

	f := newConverterFixture(t)
	f.extractor.count = 1
	f.recordings.updateErr = errors.New("status table locked")

	result, err := f.converter.Convert(context.Background(), f.recording.ID)

	// Observability never becomes a failure mode of its own.
	require.NoError(t, err)
	assert.Equal(t, domain.WorkflowStatusCompleted, result.Status)
}

func TestConvert_RetriesAreCountedAcrossSteps(t *testing.T) {
	t.Parallel()

	f := newConverterFixture(t)
	f.transcriber.failAttempts = 2 // two retries, then success
	f.extractor.count = 1

	result, err := f.converter.Convert(context.Background(), f.recording.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.WorkflowStatusCompleted, result.Status)

	last := f.recordings.lastUpdate(t)
	require.NotNil(t, last.RetryCount)
	assert.Equal(t, 2, *last.RetryCount)
}

func TestConvert_UtteranceContextIsPassedThrough(t *testing.T) {
	t.Parallel()

	f := newConverterFixture(t)
	f.extractor.count = 1

	utterances := []domain.Utterance{
		{SpeakerID: "spk_1", Text: "hello", StartMs: 0},
		{SpeakerID: "spk_2", Text: "world", StartMs: 1200},
	}
	ins, err := domain.NewInsight(f.recording.ID, domain.InsightTypeTranscription, "hello world")
	require.NoError(t, err)
	ins.Utterances = utterances
	f.insights.insight = ins

	_, err = f.converter.Convert(context.Background(), f.recording.ID)

	require.NoError(t, err)
	assert.Equal(t, utterances, f.summarizer.gotUtterances)
	assert.Equal(t, utterances, f.extractor.got.Utterances)
}

func TestConvert_UtteranceFetchFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	f := newConverterFixture(t)
	f.extractor.count = 1
	f.insights.err = errors.New("insight store unavailable")

	result, err := f.converter.Convert(context.Background(), f.recording.ID)

	require.NoError(t, err)
	assert.Equal(t, domain.WorkflowStatusCompleted, result.Status)
	assert.Nil(t, f.summarizer.gotUtterances)
}

func TestConvert_RerunOfCompletedRecordingRepeatsPipeline(t *testing.T) {
	t.Parallel()

	f := newConverterFixture(t)
	f.extractor.count = 1

	_, err := f.converter.Convert(context.Background(), f.recording.ID)
	require.NoError(t, err)

	// A second invocation repeats the full pipeline; there is no
	// completed-state short-circuit.
	_, err = f.converter.Convert(context.Background(), f.recording.ID)
	require.NoError(t, err)

	assert.Equal(t, 2, f.transcriber.callCount())
	assert.Equal(t, 2, f.summarizer.callCount())
	assert.Equal(t, 2, f.extractor.callCount())
}
