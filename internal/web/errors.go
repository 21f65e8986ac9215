package web

// errors.go turns engine failures into responses.
//
// Exec failures become an error envelope with status 200. Admin failures
// carry a status code chosen from the error kind. Either way the technical
// error is logged with its support code and the request ID, and errors
// outside the engine's taxonomy are reported with the mapped user message
// rather than their text.

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/JonMunkholm/rowstore/internal/core"
	"github.com/JonMunkholm/rowstore/internal/logging"
)

// respondExecError writes the exec envelope for err with status 200.
func respondExecError(w http.ResponseWriter, r *http.Request, err error) {
	msg := logError(r, err, http.StatusOK)
	writeJSON(w, http.StatusOK, core.FailureEnvelope(err, msg.Message))
}

// respondAPIError writes an error envelope with a status derived from err.
func respondAPIError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := logError(r, err, status)

	body := core.ErrorEnvelope{Error: msg.Message}
	if e, ok := core.AsError(err); ok {
		body = core.ErrorEnvelope{Error: e.Message, Debug: e.Debug}
	}
	writeJSON(w, status, body)
}

// logError logs err with its support code. Caller errors are logged at
// warn, everything else at error.
func logError(r *http.Request, err error, status int) core.UserMessage {
	userMsg := core.MapError(err)

	level := slog.LevelError
	if _, ok := core.AsError(err); ok {
		level = slog.LevelWarn
	}

	logging.FromContext(r.Context()).Log(r.Context(), level, "request error",
		"path", r.URL.Path,
		"method", r.Method,
		"status", status,
		"error", err.Error(),
		"code", userMsg.Code,
	)
	return userMsg
}

// statusFor maps an error kind to an HTTP status for the admin API.
func statusFor(err error) int {
	switch {
	case errors.Is(err, core.ErrTableNotFound), errors.Is(err, core.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrTableExists), errors.Is(err, core.ErrDuplicateID):
		return http.StatusConflict
	case errors.Is(err, core.ErrInvalidPayload), errors.Is(err, core.ErrMissingField),
		errors.Is(err, core.ErrEmptyBatch):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrMissingColumn), errors.Is(err, core.ErrNoData):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrTooManyWrites):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes v as the response body. Encoding errors are logged since
// headers are already sent.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		slog.Error("json encode error", "error", err)
	}
}
