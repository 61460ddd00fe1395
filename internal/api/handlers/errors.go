package handlers

import (
	"errors"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/dvloznov/mahjong-ledger/internal/api/middleware"
	"github.com/dvloznov/mahjong-ledger/internal/backup"
	"github.com/dvloznov/mahjong-ledger/internal/circles"
	"github.com/dvloznov/mahjong-ledger/internal/completion"
	"github.com/dvloznov/mahjong-ledger/internal/ledger"
	"github.com/dvloznov/mahjong-ledger/internal/pipeline"
	"github.com/dvloznov/mahjong-ledger/internal/store"
)

// writeServiceError maps a service error onto an HTTP status and writes it.
// Unclassified errors are logged and answered with 500 and fallback.
func writeServiceError(w http.ResponseWriter, log zerolog.Logger, err error, fallback string) {
	var rf *completion.RequestFailedError

	switch {
	case errors.Is(err, completion.ErrMissingCredential):
		middleware.WriteErrorCode(w, http.StatusServiceUnavailable, "missing_credential", "Completion service is not configured")
	case errors.Is(err, completion.ErrTimeout):
		middleware.WriteErrorCode(w, http.StatusGatewayTimeout, "timeout", "Completion service timed out")
	case errors.As(err, &rf):
		log.Warn().Err(err).Int("upstream_status", rf.StatusCode).Msg("Completion request failed")
		middleware.WriteJSON(w, http.StatusBadGateway, map[string]interface{}{
			"error":           "Completion request failed",
			"code":            "request_failed",
			"upstream_status": rf.StatusCode,
		})
	case errors.Is(err, pipeline.ErrMalformedResponse):
		middleware.WriteErrorCode(w, http.StatusUnprocessableEntity, "malformed_response", "Completion response could not be parsed")
	case store.IsUnauthorized(err):
		middleware.WriteError(w, http.StatusUnauthorized, "not authenticated")
	case errors.Is(err, ledger.ErrInvalidInput):
		middleware.WriteError(w, http.StatusBadRequest, err.Error())
	case store.IsDataError(err):
		log.Warn().Err(err).Msg("Store rejected data")
		middleware.WriteError(w, http.StatusBadRequest, "Invalid data")
	case errors.Is(err, store.ErrNotFound):
		middleware.WriteError(w, http.StatusNotFound, "Not found")
	case errors.Is(err, circles.ErrCircleInUse):
		middleware.WriteError(w, http.StatusConflict, "Circle still has records")
	case backup.IsImportError(err):
		log.Error().Err(err).Msg("Import failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Import failed, no changes were applied")
	default:
		log.Error().Err(err).Msg(fallback)
		middleware.WriteError(w, http.StatusInternalServerError, fallback)
	}
}

func methodNotAllowed(w http.ResponseWriter) {
	middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
}
