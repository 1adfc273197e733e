package handlers

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gearloft/bulklister/internal/models"
	"github.com/gearloft/bulklister/internal/session"
)

// maxPhotoSize caps one staged photo at 15MB.
const maxPhotoSize = 15 * 1024 * 1024

// handlePhotos adds staged photos to a session (multipart POST, any number
// of "files" parts) or removes one by name (DELETE ?name=).
func (h *Handler) handlePhotos(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	switch r.Method {
	case "POST":
		h.handlePhotoUpload(w, r, sess)
	case "DELETE":
		name := r.URL.Query().Get("name")
		if name == "" {
			h.writeError(w, "name query parameter is required", http.StatusBadRequest)
			return
		}
		sess.RemovePhoto(name)
		h.writeJSON(w, sess)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

func (h *Handler) handlePhotoUpload(w http.ResponseWriter, r *http.Request, sess *session.Session) {
	if sess.Stage != session.StagePhotos {
		h.writeError(w, "Photos can only be added before the pipeline starts", http.StatusConflict)
		return
	}

	if err := r.ParseMultipartForm(maxPhotoSize); err != nil {
		h.writeError(w, "Failed to parse upload: "+err.Error(), http.StatusBadRequest)
		return
	}
	if r.MultipartForm == nil || len(r.MultipartForm.File["files"]) == 0 {
		h.writeError(w, "No files in request", http.StatusBadRequest)
		return
	}

	if err := h.ensureStagingDir(); err != nil {
		h.writeError(w, "Failed to create staging directory: "+err.Error(), http.StatusInternalServerError)
		return
	}

	added := 0
	for _, header := range r.MultipartForm.File["files"] {
		file, err := header.Open()
		if err != nil {
			h.writeError(w, "Failed to read file: "+err.Error(), http.StatusBadRequest)
			return
		}

		fileData, err := io.ReadAll(io.LimitReader(file, maxPhotoSize))
		file.Close()
		if err != nil {
			h.writeError(w, "Failed to read file contents: "+err.Error(), http.StatusInternalServerError)
			return
		}
		if len(fileData) >= maxPhotoSize {
			h.writeError(w, "File too large (max 15MB)", http.StatusBadRequest)
			return
		}

		name := fmt.Sprintf("%d_%s", time.Now().UnixNano(), filepath.Base(header.Filename))
		path := filepath.Join(h.stagingDir, name)
		if err := os.WriteFile(path, fileData, 0644); err != nil {
			h.writeError(w, "Failed to stage file: "+err.Error(), http.StatusInternalServerError)
			return
		}

		sess.AddPhoto(models.RawPhoto{
			Name:        header.Filename,
			PreviewPath: path,
			Size:        int64(len(fileData)),
		})
		added++
	}

	h.writeJSON(w, map[string]any{
		"session_id": sess.ID,
		"message":    fmt.Sprintf("Staged %d photo(s)", added),
		"photos":     len(sess.RawPhotos),
	})
}
