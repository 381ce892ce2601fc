package handlers

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/jeremyjsx/miniblog/internal/backup"
	"github.com/jeremyjsx/miniblog/internal/posts"
)

const maxBackupSize = 512 << 20

type BackupHandler struct {
	repo   posts.Repository
	svc    *posts.Service
	logger *slog.Logger
	clock  func() time.Time
}

func NewBackupHandler(repo posts.Repository, svc *posts.Service, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{repo: repo, svc: svc, logger: logger, clock: time.Now}
}

// Export streams a zip of every post and attachment.
func (h *BackupHandler) Export() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := fmt.Sprintf("miniblog-%s.zip", h.clock().UTC().Format("20060102-150405"))
		w.Header().Set("Content-Type", "application/zip")
		w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

		// Headers are gone once the first entry is written, so failures can
		// only be logged.
		if err := backup.Export(r.Context(), h.repo, w); err != nil {
			h.logger.ErrorContext(r.Context(), "backup export failed", "error", err)
			return
		}
		h.logger.InfoContext(r.Context(), "backup exported", "file", name)
	}
}

// Import restores an archive sent as the request body and reloads the store.
func (h *BackupHandler) Import() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBackupSize))
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "TOO_LARGE", "archive too large", nil)
				return
			}
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "unreadable body", nil)
			return
		}

		stats, err := backup.Import(r.Context(), bytes.NewReader(data), int64(len(data)), h.repo)
		if err != nil {
			h.logger.WarnContext(r.Context(), "backup import failed", "error", err, "posts", stats.Posts)
			// Partial imports still reach the cache.
			if reloadErr := h.svc.Reload(r.Context()); reloadErr != nil {
				h.logger.ErrorContext(r.Context(), "reload after failed import", "error", reloadErr)
			}
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid backup archive", nil)
			return
		}
		if err := h.svc.Reload(r.Context()); err != nil {
			writeServiceError(w, r, h.logger, "reload posts", err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{
			"posts":       stats.Posts,
			"attachments": stats.Attachments,
		})
	}
}
