package main

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/minutely/minute-api/internal/api"
	apiMiddleware "github.com/minutely/minute-api/internal/api/middleware"
)

// setupRouter creates the application router with all routes and
// middleware.
func (app *application) setupRouter() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(apiMiddleware.TraceMiddleware)

	recordingHandler := api.NewRecordingHandler(
		app.recordingService,
		app.insightStore,
		app.actionItemStore,
		app.viewCache,
	)

	r.Route("/api", func(r chi.Router) {
		r.Post("/recordings", recordingHandler.CreateRecording)
		r.Get("/recordings/{id}", recordingHandler.GetRecording)
		r.Post("/recordings/{id}/convert", recordingHandler.RequestConversion)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			app.logger.Error("failed to write health check response", "error", err)
		}
	})

	return r
}
