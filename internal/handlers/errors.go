package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/jeremyjsx/miniblog/internal/auth"
	"github.com/jeremyjsx/miniblog/internal/metaweblog"
	"github.com/jeremyjsx/miniblog/internal/middleware"
	"github.com/jeremyjsx/miniblog/internal/posts"
	"github.com/jeremyjsx/miniblog/internal/storage"
)

type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Details   map[string]string `json:"details,omitempty"`
	RequestID string            `json:"request_id,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string, details map[string]string) {
	writeJSON(w, status, map[string]any{
		"error": APIError{
			Code:      code,
			Message:   message,
			Details:   details,
			RequestID: w.Header().Get(middleware.RequestIDHeader),
		},
	})
}

func writeNotFound(w http.ResponseWriter, what string) {
	writeError(w, http.StatusNotFound, "NOT_FOUND", what+" not found", nil)
}

// writeServiceError maps store and adapter errors onto the error envelope.
// Anything unrecognised is logged and reported as a 500.
func writeServiceError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, op string, err error) {
	var verr *posts.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", verr.Fields)
	case errors.Is(err, posts.ErrInvalidPost):
		writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", err.Error(), nil)
	case errors.Is(err, auth.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, "UNAUTHORIZED", "invalid credentials", nil)
	case errors.Is(err, metaweblog.ErrNotFound):
		writeNotFound(w, "post")
	case errors.Is(err, storage.ErrNotFound):
		writeNotFound(w, "file")
	case errors.Is(err, metaweblog.ErrNotSupported):
		writeError(w, http.StatusNotImplemented, "NOT_SUPPORTED", err.Error(), nil)
	default:
		logger.ErrorContext(r.Context(), op+" failed",
			"error", err,
			"request_id", middleware.GetRequestID(r.Context()),
		)
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error", nil)
	}
}
