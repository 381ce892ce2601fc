package handlers

import (
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"path"

	"github.com/jeremyjsx/miniblog/internal/posts"
)

const maxUploadSize = 32 << 20

type FilesHandler struct {
	svc    *posts.Service
	logger *slog.Logger
}

func NewFilesHandler(svc *posts.Service, logger *slog.Logger) *FilesHandler {
	return &FilesHandler{svc: svc, logger: logger}
}

// Upload stores the multipart "file" field and returns its public path. An
// optional "suffix" field replaces the content hash in the stored name.
func (h *FilesHandler) Upload() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxUploadSize)
		if err := r.ParseMultipartForm(maxUploadSize); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				writeError(w, http.StatusRequestEntityTooLarge, "TOO_LARGE", "file too large", nil)
				return
			}
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid multipart body", nil)
			return
		}
		defer r.MultipartForm.RemoveAll()

		file, header, err := r.FormFile("file")
		if err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "validation failed", map[string]string{"file": "required"})
			return
		}
		defer file.Close()

		data, err := io.ReadAll(file)
		if err != nil {
			writeError(w, http.StatusBadRequest, "BAD_REQUEST", "unreadable file", nil)
			return
		}

		p, err := h.svc.StoreAttachment(r.Context(), data, header.Filename, r.FormValue("suffix"))
		if err != nil {
			writeServiceError(w, r, h.logger, "store attachment", err)
			return
		}
		w.Header().Set("Location", p)
		writeJSON(w, http.StatusCreated, map[string]string{"path": p})
	}
}

func (h *FilesHandler) Serve() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := r.PathValue("name")
		rc, err := h.svc.OpenAttachment(r.Context(), name)
		if err != nil {
			writeServiceError(w, r, h.logger, "open attachment", err)
			return
		}
		defer rc.Close()

		ct := mime.TypeByExtension(path.Ext(name))
		if ct == "" {
			ct = "application/octet-stream"
		}
		w.Header().Set("Content-Type", ct)
		w.Header().Set("X-Content-Type-Options", "nosniff")
		if _, err := io.Copy(w, rc); err != nil {
			h.logger.WarnContext(r.Context(), "stream attachment failed", "name", name, "error", err)
		}
	}
}
