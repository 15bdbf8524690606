// Package watcher provides an optional ingest path: it monitors a
// directory for dropped audio files, registers each one as a recording
// and requests its conversion.
package watcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/google/uuid"

	"github.com/minutely/minute-api/internal/config"
	"github.com/minutely/minute-api/internal/service"
)

// settleDelay gives the writer time to finish the file before we
// register it. fsnotify fires on create, not on close.
const settleDelay = 500 * time.Millisecond

var audioExtensions = map[string]struct{}{
	".mp3":  {},
	".wav":  {},
	".m4a":  {},
	".ogg":  {},
	".flac": {},
}

// Common errors
var (
	ErrNilService = errors.New("recording service cannot be nil")
)

// IngestWatcher watches a directory and turns new audio files into
// recordings with a pending conversion request.
type IngestWatcher struct {
	watchDir       string
	projectID      uuid.UUID
	organizationID uuid.UUID
	createdBy      uuid.UUID
	recordings     service.RecordingService
	watcher        *fsnotify.Watcher
	logger         *slog.Logger
	wg             sync.WaitGroup
}

// New creates an IngestWatcher for the configured directory.
func New(cfg config.IngestConfig, recordings service.RecordingService, logger *slog.Logger) (*IngestWatcher, error) {
	if recordings == nil {
		return nil, ErrNilService
	}

	if logger == nil {
		logger = slog.Default()
	}

	projectID, err := uuid.Parse(cfg.ProjectID)
	if err != nil {
		return nil, fmt.Errorf("invalid ingest project ID: %w", err)
	}
	organizationID, err := uuid.Parse(cfg.OrganizationID)
	if err != nil {
		return nil, fmt.Errorf("invalid ingest organization ID: %w", err)
	}
	createdBy, err := uuid.Parse(cfg.CreatedBy)
	if err != nil {
		return nil, fmt.Errorf("invalid ingest creator ID: %w", err)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	if err := fsWatcher.Add(cfg.WatchDir); err != nil {
		_ = fsWatcher.Close()
		return nil, fmt.Errorf("add watch path: %w", err)
	}

	return &IngestWatcher{
		watchDir:       cfg.WatchDir,
		projectID:      projectID,
		organizationID: organizationID,
		createdBy:      createdBy,
		recordings:     recordings,
		watcher:        fsWatcher,
		logger:         logger.With("component", "ingest_watcher", "watch_dir", cfg.WatchDir),
	}, nil
}

// Start begins monitoring the directory. It blocks until the context is
// cancelled or the watcher fails.
func (w *IngestWatcher) Start(ctx context.Context) error {
	w.logger.Info("ingest watcher started")

	for {
		select {
		case <-ctx.Done():
			w.wg.Wait()
			w.logger.Info("ingest watcher stopped")
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return errors.New("watcher events channel closed")
			}

			if !event.Has(fsnotify.Create) {
				continue
			}

			if !isAudioFile(event.Name) {
				w.logger.Debug("ignoring non-audio file", "path", event.Name)
				continue
			}

			w.logger.Info("new audio file detected", "path", event.Name)

			w.wg.Add(1)
			go func(path string) {
				defer w.wg.Done()
				time.Sleep(settleDelay)
				w.ingest(ctx, path)
			}(event.Name)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return errors.New("watcher errors channel closed")
			}
			w.logger.Error("watcher error", "error", err)
		}
	}
}

// Stop closes the underlying file watcher.
func (w *IngestWatcher) Stop() error {
	return w.watcher.Close()
}

// ingest registers the file as a recording and requests its conversion.
func (w *IngestWatcher) ingest(ctx context.Context, path string) {
	title := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	rec, err := w.recordings.CreateRecording(ctx, service.CreateRecordingParams{
		ProjectID:      w.projectID,
		OrganizationID: w.organizationID,
		CreatedBy:      w.createdBy,
		Title:          title,
		AudioURL:       "file://" + path,
	})
	if err != nil {
		w.logger.Error("failed to register ingested recording",
			"error", err, "path", path)
		return
	}

	if err := w.recordings.RequestConversion(ctx, rec.ID); err != nil {
		w.logger.Error("failed to request conversion for ingested recording",
			"error", err, "recording_id", rec.ID, "path", path)
		return
	}

	w.logger.Info("ingested recording",
		"recording_id", rec.ID, "path", path)
}

// isAudioFile checks if the file has a supported audio extension.
func isAudioFile(path string) bool {
	_, ok := audioExtensions[strings.ToLower(filepath.Ext(path))]
	return ok
}
