package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/minutely/minute-api/internal/config"
	"github.com/minutely/minute-api/internal/events"
	"github.com/minutely/minute-api/internal/platform/gemini"
	"github.com/minutely/minute-api/internal/platform/notify"
	"github.com/minutely/minute-api/internal/platform/postgres"
	"github.com/minutely/minute-api/internal/platform/viewcache"
	"github.com/minutely/minute-api/internal/service"
	"github.com/minutely/minute-api/internal/task"
	"github.com/minutely/minute-api/internal/watcher"
	"github.com/minutely/minute-api/internal/workflow"
)

// application holds the wired dependencies of the server process.
type application struct {
	config *config.Config
	logger *slog.Logger

	db *sql.DB

	recordingService service.RecordingService
	insightStore     *postgres.InsightStore
	actionItemStore  *postgres.ActionItemStore
	viewCache        *viewcache.Cache
	taskRunner       *task.TaskRunner
	ingestWatcher    *watcher.IngestWatcher
}

// releasingConverter wraps the workflow converter so the in-process
// conversion slot for a recording is always freed when a run finishes,
// whatever its outcome.
type releasingConverter struct {
	inner      task.RecordingConverter
	recordings service.RecordingService
}

func (c *releasingConverter) Convert(ctx context.Context, recordingID uuid.UUID) (*workflow.ConversionResult, error) {
	defer c.recordings.ReleaseConversion(recordingID)
	return c.inner.Convert(ctx, recordingID)
}

// newApplication connects the database, applies migrations and wires
// every component of the conversion pipeline.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	db, err := openDatabase(cfg, logger)
	if err != nil {
		return nil, err
	}

	if err := postgres.RunMigrations(db, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	// Stores
	recordingStore := postgres.NewRecordingStore(db, logger)
	insightStore := postgres.NewInsightStore(db, logger)
	actionItemStore := postgres.NewActionItemStore(db, logger)
	taskStore := postgres.NewTaskStore(db, logger)

	// Gemini collaborators
	geminiClient, err := gemini.NewClient(ctx, logger, cfg.LLM)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	transcriber, err := gemini.NewTranscriber(geminiClient, recordingStore, insightStore)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create transcriber: %w", err)
	}

	summarizer, err := gemini.NewSummarizer(geminiClient, insightStore)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create summarizer: %w", err)
	}

	extractor, err := gemini.NewTaskExtractor(geminiClient, actionItemStore, insightStore)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create task extractor: %w", err)
	}

	// Finalization collaborators
	viewCache := viewcache.New(0, logger)

	var notifier workflow.Notifier
	if cfg.Notify.WebhookURL != "" {
		notifier, err = notify.NewWebhookNotifier(cfg.Notify, logger)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create webhook notifier: %w", err)
		}
	} else {
		notifier = notify.NewLogNotifier(logger)
	}

	// Event bus and service layer
	emitter := events.NewInMemoryEventEmitter(logger)

	recordingService, err := service.NewRecordingService(recordingStore, emitter, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create recording service: %w", err)
	}

	// Conversion workflow
	converter, err := workflow.NewConverter(workflow.ConverterConfig{
		Recordings:  recordingStore,
		Insights:    insightStore,
		Transcriber: transcriber,
		Summarizer:  summarizer,
		Extractor:   extractor,
		Tracker:     workflow.NewStatusTracker(recordingStore, logger),
		Finalizer:   workflow.NewFinalizer(viewCache, notifier, logger),
		Backoff:     workflow.Backoff(cfg.Workflow.RetryDelays),
		Logger:      logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create converter: %w", err)
	}

	// Background task processing
	taskFactory, err := task.NewConversionTaskFactory(&releasingConverter{
		inner:      converter,
		recordings: recordingService,
	}, logger)
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create task factory: %w", err)
	}
	taskStore.RegisterFactory(task.TaskTypeRecordingConversion, taskFactory)

	taskRunner := task.NewTaskRunner(taskStore, task.TaskRunnerConfig{
		WorkerCount:  cfg.Workflow.WorkerCount,
		QueueSize:    cfg.Workflow.QueueSize,
		StuckTaskAge: cfg.Workflow.StuckTaskAge,
	}, logger)

	emitter.RegisterHandler(task.NewConversionEventHandler(taskFactory, taskRunner, logger))

	app := &application{
		config:           cfg,
		logger:           logger,
		db:               db,
		recordingService: recordingService,
		insightStore:     insightStore,
		actionItemStore:  actionItemStore,
		viewCache:        viewCache,
		taskRunner:       taskRunner,
	}

	// Optional ingest watcher
	if cfg.Ingest.Enabled {
		app.ingestWatcher, err = watcher.New(cfg.Ingest, recordingService, logger)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("failed to create ingest watcher: %w", err)
		}
	}

	return app, nil
}

// close releases resources held by the application.
func (app *application) close() {
	if err := app.db.Close(); err != nil {
		app.logger.Error("failed to close database", "error", err)
	}
}
