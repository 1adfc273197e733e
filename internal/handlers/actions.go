package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gearloft/bulklister/internal/models"
	"github.com/gearloft/bulklister/internal/session"
	"github.com/gearloft/bulklister/internal/workflow"
)

// handleAction dispatches a session sub-resource: photos, stage actions,
// product forms, and publish.
func (h *Handler) handleAction(w http.ResponseWriter, r *http.Request, sess *session.Session, action string) {
	if action == "photos" {
		h.handlePhotos(w, r, sess)
		return
	}

	if rest, ok := strings.CutPrefix(action, "products/"); ok {
		h.handleProductForm(w, r, sess, rest)
		return
	}

	if r.Method != "POST" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var err error
	switch action {
	case "start":
		err = h.controller.StartPipeline(r.Context(), sess)
	case "assign/move":
		var req struct {
			PhotoURL string `json:"photo_url"`
			From     int    `json:"from"`
			To       int    `json:"to"`
		}
		if !h.decodeBody(w, r, &req) {
			return
		}
		err = h.controller.MovePhoto(sess, req.PhotoURL, req.From, req.To)
	case "assign/split":
		var req struct {
			PhotoURL string `json:"photo_url"`
			From     int    `json:"from"`
		}
		if !h.decodeBody(w, r, &req) {
			return
		}
		err = h.controller.SplitPhoto(sess, req.PhotoURL, req.From)
	case "assign/done":
		err = h.controller.FinishAssigning(sess)
	case "enhance/toggle":
		var req struct {
			GroupID string `json:"group_id"`
		}
		if !h.decodeBody(w, r, &req) {
			return
		}
		err = h.controller.ToggleEnhancement(sess, req.GroupID)
	case "enhance/select-all":
		err = h.controller.SelectAllEnhancement(sess)
	case "enhance/clear":
		err = h.controller.ClearEnhancement(sess)
	case "enhance/run":
		err = h.controller.RunEnhancement(r.Context(), sess)
	case "review/next":
		err = h.controller.NextProduct(sess)
	case "review/prev":
		err = h.controller.PrevProduct(sess)
	case "review/back":
		err = h.controller.BackToReview(sess)
	case "publish":
		var created []string
		created, err = h.controller.Publish(r.Context(), sess)
		if err == nil {
			h.writeJSON(w, map[string]any{"created": created, "session": sess})
			return
		}
	default:
		h.writeError(w, "Unknown action: "+action, http.StatusNotFound)
		return
	}

	if err != nil {
		h.writeActionError(w, err)
		return
	}
	h.writeJSON(w, sess)
}

// handleProductForm updates one product's form data, recomputing its
// validity.
func (h *Handler) handleProductForm(w http.ResponseWriter, r *http.Request, sess *session.Session, groupID string) {
	if r.Method != "PUT" {
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var form models.ProductFormData
	if !h.decodeBody(w, r, &form) {
		return
	}

	if err := h.controller.UpdateForm(sess, groupID, form); err != nil {
		h.writeError(w, err.Error(), http.StatusNotFound)
		return
	}
	h.writeJSON(w, sess)
}

func (h *Handler) decodeBody(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		h.writeError(w, "Invalid JSON: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

func (h *Handler) writeActionError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, workflow.ErrWrongStage):
		h.writeError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, workflow.ErrNothingToPublish):
		h.writeError(w, err.Error(), http.StatusUnprocessableEntity)
	default:
		h.writeError(w, err.Error(), http.StatusBadGateway)
	}
}
