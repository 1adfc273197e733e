package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gearloft/bulklister/internal/session"
)

// HandleSessions serves the session collection: listing open sessions and
// opening a new one.
func (h *Handler) HandleSessions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case "GET":
		sessions := h.sessionStore.GetAll()
		sessionList := make([]*session.Session, 0, len(sessions))
		for _, sess := range sessions {
			sessionList = append(sessionList, sess)
		}
		h.writeJSON(w, sessionList)
	case "POST":
		sess := h.controller.Open(nil)
		h.sessionStore.Set(sess.ID, sess)
		h.writeJSON(w, sess)
	default:
		h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// HandleSessionDetail serves one session and dispatches its sub-resources:
// photos, stage actions, product forms, and publish.
func (h *Handler) HandleSessionDetail(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/sessions/")
	sessionID, action, _ := strings.Cut(rest, "/")

	sess, ok := h.getSessionOrError(w, sessionID)
	if !ok {
		return
	}

	if action == "" {
		switch r.Method {
		case "GET":
			h.writeJSON(w, sess)
		case "DELETE":
			if err := h.controller.Close(sess); err != nil {
				if errors.Is(err, session.ErrCloseBlocked) {
					h.writeError(w, err.Error(), http.StatusConflict)
					return
				}
				h.writeError(w, err.Error(), http.StatusInternalServerError)
				return
			}
			h.sessionStore.Delete(sess.ID)
			h.writeJSON(w, map[string]string{"status": "closed"})
		default:
			h.writeError(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	h.handleAction(w, r, sess, action)
}
