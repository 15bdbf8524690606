package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// shutdownTimeout bounds how long in-flight requests may take during a
// graceful shutdown.
const shutdownTimeout = 15 * time.Second

// serve starts the background task runner, the optional ingest watcher
// and the HTTP server, then blocks until the context is cancelled and
// everything has shut down.
func (app *application) serve(ctx context.Context) error {
	if err := app.taskRunner.Start(); err != nil {
		return fmt.Errorf("failed to start task runner: %w", err)
	}
	defer app.taskRunner.Stop()

	if app.ingestWatcher != nil {
		go func() {
			if err := app.ingestWatcher.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				app.logger.Error("ingest watcher stopped unexpectedly", "error", err)
			}
		}()
		defer func() {
			if err := app.ingestWatcher.Stop(); err != nil {
				app.logger.Error("failed to stop ingest watcher", "error", err)
			}
		}()
	}

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", app.config.Server.Port),
		Handler:           app.setupRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		app.logger.Info("http server listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("http server failed: %w", err)
	case <-ctx.Done():
	}

	app.logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown failed: %w", err)
	}

	return nil
}
