package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/minutely/minute-api/internal/domain"
	"github.com/minutely/minute-api/internal/platform/logger"
	"github.com/minutely/minute-api/internal/store"
)

// Failure messages surfaced to callers and persisted as workflow error
// text.
const (
	msgRecordingNotFound   = "Recording not found"
	msgTranscriptMissing   = "Transcription text not available"
	msgUnexpectedFailure   = "Conversion failed unexpectedly"
	transcriptionStepName  = "transcription"
	summaryStepName        = "summary"
	taskExtractionStepName = "task_extraction"
)

// Dependency validation errors for NewConverter.
var (
	ErrNilRecordingStore = errors.New("recording store cannot be nil")
	ErrNilInsightStore   = errors.New("insight store cannot be nil")
	ErrNilTranscriber    = errors.New("transcriber cannot be nil")
	ErrNilSummarizer     = errors.New("summarizer cannot be nil")
	ErrNilTaskExtractor  = errors.New("task extractor cannot be nil")
	ErrNilStatusTracker  = errors.New("status tracker cannot be nil")
	ErrNilFinalizer      = errors.New("finalizer cannot be nil")
)

// ConverterConfig bundles the collaborators and tuning of a Converter.
type ConverterConfig struct {
	Recordings  store.RecordingStore
	Insights    store.InsightStore
	Transcriber Transcriber
	Summarizer  Summarizer
	Extractor   TaskExtractor
	Tracker     *StatusTracker
	Finalizer   *Finalizer

	// Backoff is the retry schedule applied to every step. Defaults to
	// DefaultBackoff when empty.
	Backoff Backoff

	Logger *slog.Logger
}

// Converter orchestrates the conversion pipeline for one recording:
// transcription, then summary and task extraction in parallel, then
// finalization, driving the status tracker throughout. A Converter is
// safe for concurrent use across distinct recordings; it does not
// prevent two concurrent runs for the same recording (callers guard
// that, see service.RecordingService).
type Converter struct {
	recordings  store.RecordingStore
	insights    store.InsightStore
	transcriber Transcriber
	summarizer  Summarizer
	extractor   TaskExtractor
	tracker     *StatusTracker
	finalizer   *Finalizer
	backoff     Backoff
	sleep       sleepFunc
	logger      *slog.Logger
}

// NewConverter creates a Converter, validating that every collaborator
// is present.
func NewConverter(cfg ConverterConfig) (*Converter, error) {
	if cfg.Recordings == nil {
		return nil, ErrNilRecordingStore
	}
	if cfg.Insights == nil {
		return nil, ErrNilInsightStore
	}
	if cfg.Transcriber == nil {
		return nil, ErrNilTranscriber
	}
	if cfg.Summarizer == nil {
		return nil, ErrNilSummarizer
	}
	if cfg.Extractor == nil {
		return nil, ErrNilTaskExtractor
	}
	if cfg.Tracker == nil {
		return nil, ErrNilStatusTracker
	}
	if cfg.Finalizer == nil {
		return nil, ErrNilFinalizer
	}

	backoff := cfg.Backoff
	if len(backoff) == 0 {
		backoff = DefaultBackoff()
	}

	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	return &Converter{
		recordings:  cfg.Recordings,
		insights:    cfg.Insights,
		transcriber: cfg.Transcriber,
		summarizer:  cfg.Summarizer,
		extractor:   cfg.Extractor,
		tracker:     cfg.Tracker,
		finalizer:   cfg.Finalizer,
		backoff:     backoff,
		sleep:       sleepContext,
		logger:      log.With("component", "converter"),
	}, nil
}

// Convert runs the full conversion pipeline for the given recording and
// returns the aggregate result. Expected failures are returned as error
// values with a human-readable message; truly unexpected panics are
// recovered here, logged, and converted into a failed status so the
// persisted state never silently diverges from the outcome.
//
// Re-invoking Convert on an already-completed recording repeats the full
// pipeline; there is no short-circuit.
func (c *Converter) Convert(ctx context.Context, recordingID uuid.UUID) (result *ConversionResult, err error) {
	log := logger.FromContextOrDefault(ctx, c.logger).With("recording_id", recordingID)

	result = &ConversionResult{
		RecordingID: recordingID,
		Status:      domain.WorkflowStatusFailed,
	}

	var retries retryCounter

	defer func() {
		if p := recover(); p != nil {
			log.Error("conversion run panicked", "panic", p)
			c.tracker.MarkFailed(ctx, recordingID, msgUnexpectedFailure, retries.total())
			result = &ConversionResult{
				RecordingID: recordingID,
				Status:      domain.WorkflowStatusFailed,
			}
			err = fmt.Errorf("%s: %v", msgUnexpectedFailure, p)
		}
	}()

	log.Info("starting conversion run")
	c.tracker.MarkRunning(ctx, recordingID)

	rec, err := c.recordings.GetByID(ctx, recordingID)
	if err != nil {
		if store.IsNotFoundError(err) {
			return result, c.fail(ctx, log, recordingID, retries.total(), msgRecordingNotFound)
		}
		return result, c.fail(ctx, log, recordingID, retries.total(),
			fmt.Sprintf("Failed to load recording: %v", err))
	}

	// Transcription gates the rest of the pipeline: without a transcript
	// neither parallel step is attempted.
	attempts, terr := runWithRetry(ctx, log, transcriptionStepName, recordingID, c.backoff, c.sleep,
		func(ctx context.Context) error {
			return c.transcriber.Transcribe(ctx, rec.ID, rec.AudioURL)
		})
	retries.addAttempts(attempts)
	if terr != nil {
		return result, c.fail(ctx, log, recordingID, retries.total(),
			fmt.Sprintf("Transcription failed: %v", terr))
	}

	// Re-load to obtain the transcript the collaborator persisted. A
	// reported success without persisted text is a fatal inconsistency,
	// not something a retry would fix.
	rec, err = c.recordings.GetByID(ctx, recordingID)
	if err != nil {
		return result, c.fail(ctx, log, recordingID, retries.total(),
			fmt.Sprintf("Failed to re-load recording after transcription: %v", err))
	}
	if !rec.HasTranscript() {
		return result, c.fail(ctx, log, recordingID, retries.total(), msgTranscriptMissing)
	}

	result.TranscriptionCompleted = true
	transcript := *rec.Transcript

	utterances := c.fetchUtterances(ctx, log, recordingID)

	pres := runParallel(ctx,
		func(ctx context.Context) error {
			a, serr := runWithRetry(ctx, log, summaryStepName, recordingID, c.backoff, c.sleep,
				func(ctx context.Context) error {
					return c.summarizer.Summarize(ctx, rec.ID, transcript, utterances)
				})
			retries.addAttempts(a)
			return serr
		},
		func(ctx context.Context) (int, error) {
			var count int
			a, xerr := runWithRetry(ctx, log, taskExtractionStepName, recordingID, c.backoff, c.sleep,
				func(ctx context.Context) error {
					n, callErr := c.extractor.ExtractTasks(ctx, ExtractionRequest{
						RecordingID:    rec.ID,
						ProjectID:      rec.ProjectID,
						OrganizationID: rec.OrganizationID,
						CreatorID:      rec.CreatedBy,
						Transcript:     transcript,
						Utterances:     utterances,
					})
					if callErr == nil {
						count = n
					}
					return callErr
				})
			retries.addAttempts(a)
			return count, xerr
		})

	result.SummaryCompleted = pres.summaryErr == nil

	if aggErr := pres.Err(); aggErr != nil {
		return result, c.fail(ctx, log, recordingID, retries.total(), aggErr.Error())
	}

	result.TasksExtracted = pres.tasksExtracted

	// Finalization runs after the durable artifacts exist; its failures
	// are swallowed inside the Finalizer and cannot flip the outcome.
	c.finalizer.InvalidateViews(ctx, rec)

	c.tracker.MarkCompleted(ctx, recordingID, retries.total())
	c.finalizer.NotifyCompletion(ctx, rec, pres.tasksExtracted)

	result.Status = domain.WorkflowStatusCompleted
	log.Info("conversion run completed",
		"tasks_extracted", pres.tasksExtracted,
		"retries", retries.total())

	return result, nil
}

// fetchUtterances fetches the optional speaker utterance context from
// the insight store. Absence or a read failure is not an error; the
// parallel steps simply run without utterance context.
func (c *Converter) fetchUtterances(ctx context.Context, log *slog.Logger, recordingID uuid.UUID) []domain.Utterance {
	ins, err := c.insights.GetByType(ctx, recordingID, domain.InsightTypeTranscription)
	if err != nil {
		if !store.IsNotFoundError(err) {
			log.Warn("failed to fetch utterance context, continuing without it",
				"error", err)
		}
		return nil
	}
	return ins.Utterances
}

// fail records a failed terminal status and returns the failure as an
// error value for the caller.
func (c *Converter) fail(
	ctx context.Context,
	log *slog.Logger,
	recordingID uuid.UUID,
	retryCount int,
	message string,
) error {
	log.Error("conversion run failed", "reason", message)
	c.tracker.MarkFailed(ctx, recordingID, message, retryCount)
	return errors.New(message)
}
