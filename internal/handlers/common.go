package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"os"

	"github.com/gearloft/bulklister/internal/session"
	"github.com/gearloft/bulklister/internal/workflow"
)

// Handler exposes one workflow controller and its open sessions over HTTP.
type Handler struct {
	sessionStore *session.Store
	controller   *workflow.Controller
	stagingDir   string
}

func New() *Handler {
	return &Handler{
		sessionStore: session.NewStore(),
		controller:   workflow.New(),
		stagingDir:   "staging",
	}
}

// NewWithController is used by tests to inject a controller with fake
// collaborators.
func NewWithController(c *workflow.Controller, stagingDir string) *Handler {
	return &Handler{
		sessionStore: session.NewStore(),
		controller:   c,
		stagingDir:   stagingDir,
	}
}

// Response helpers
func (h *Handler) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Error("Unable to encode JSON response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *Handler) writeError(w http.ResponseWriter, message string, code int) {
	slog.Error(message)
	http.Error(w, message, code)
}

// Session helpers
func (h *Handler) getSessionOrError(w http.ResponseWriter, sessionID string) (*session.Session, bool) {
	sess, exists := h.sessionStore.Get(sessionID)
	if !exists {
		h.writeError(w, "Session not found", http.StatusNotFound)
		return nil, false
	}
	return sess, true
}

func (h *Handler) ensureStagingDir() error {
	return os.MkdirAll(h.stagingDir, 0755)
}
