package api

import (
	"errors"
	"net/http"

	"github.com/minutely/minute-api/internal/api/shared"
	"github.com/minutely/minute-api/internal/service"
)

// User-facing error messages. Raw error strings never reach clients.
const (
	msgRecordingNotFound    = "Recording not found"
	msgConversionInProgress = "A conversion for this recording is already in progress"
	msgInvalidRequest       = "Invalid request format"
	msgInternalError        = "An internal error occurred"
)

// respondWithServiceError maps service-layer errors to HTTP responses.
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrRecordingNotFound):
		shared.RespondWithError(w, r, http.StatusNotFound, msgRecordingNotFound)
	case errors.Is(err, service.ErrConversionInProgress):
		shared.RespondWithErrorAndLog(w, r, http.StatusConflict, msgConversionInProgress, err)
	default:
		shared.RespondWithErrorAndLog(w, r, http.StatusInternalServerError, msgInternalError, err)
	}
}
