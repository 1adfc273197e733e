// Package session owns the in-memory state of one bulk listing workflow:
// the stage machine, the evolving product list, and the staged photo files
// whose cleanup the session guarantees.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gearloft/bulklister/internal/models"
)

// Stage is one phase of the workflow state machine.
type Stage string

const (
	StagePhotos     Stage = "photos"
	StageUploading  Stage = "uploading"
	StageGrouping   Stage = "grouping"
	StageAssigning  Stage = "assigning"
	StageEnhancing  Stage = "enhancing"
	StageReviewing  Stage = "reviewing"
	StageFinal      Stage = "final"
	StagePublishing Stage = "publishing"
	StageSuccess    Stage = "success"
)

// ErrCloseBlocked is returned when a close is attempted mid-pipeline,
// where abandoning the session would orphan in-flight requests.
var ErrCloseBlocked = errors.New("session cannot be closed during an active pipeline stage")

// Session is the single owned aggregate for one workflow run. All state
// for the run lives here and dies with it; nothing survives a Close except
// the listings created by a successful publish.
type Session struct {
	mu sync.Mutex

	ID        string    `json:"id"`
	BatchID   string    `json:"batch_id"`
	Stage     Stage     `json:"stage"`
	CreatedAt time.Time `json:"created_at"`

	RawPhotos []models.RawPhoto      `json:"raw_photos"`
	Uploaded  []models.UploadedPhoto `json:"uploaded"`
	Groups    []models.PhotoGroup    `json:"groups"`
	Products  []*models.Product      `json:"products"`

	// Enhancement bookkeeping: the current selection and the groups
	// already processed, keyed by group id.
	Selected map[string]bool `json:"selected"`
	Enhanced map[string]bool `json:"enhanced"`

	ReviewIndex int    `json:"review_index"`
	LastError   string `json:"last_error,omitempty"`

	Progress StageProgress `json:"progress"`
}

// StageProgress is the cumulative {current, total} counter reported by the
// upload and enhancement stages.
type StageProgress struct {
	Current int `json:"current"`
	Total   int `json:"total"`
}

// New opens a fresh session with all state reset to empty.
func New() *Session {
	return &Session{
		ID:        uuid.NewString(),
		BatchID:   uuid.NewString(),
		Stage:     StagePhotos,
		CreatedAt: time.Now(),
		Selected:  make(map[string]bool),
		Enhanced:  make(map[string]bool),
	}
}

// Update runs fn with the session locked. All reads and mutations from
// handlers go through here; the workflow is single-flow, so this guards
// against concurrent HTTP requests, not concurrent stages.
func (s *Session) Update(fn func(*Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
}

// AddPhoto registers a staged photo file with the session. The session
// takes ownership of the file and removes it on photo removal or reset.
func (s *Session) AddPhoto(photo models.RawPhoto) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.RawPhotos = append(s.RawPhotos, photo)
}

// RemovePhoto drops one staged photo by name and releases its file.
func (s *Session) RemovePhoto(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, p := range s.RawPhotos {
		if p.Name == name {
			releasePreview(p)
			s.RawPhotos = append(s.RawPhotos[:i], s.RawPhotos[i+1:]...)
			return
		}
	}
}

// Reset releases every staged photo file and returns the session to the
// empty photos stage. Called on open and on unmount so no staged file
// outlives the run that created it.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.RawPhotos {
		releasePreview(p)
	}
	s.RawPhotos = nil
	s.Uploaded = nil
	s.Groups = nil
	s.Products = nil
	s.Selected = make(map[string]bool)
	s.Enhanced = make(map[string]bool)
	s.ReviewIndex = 0
	s.LastError = ""
	s.Progress = StageProgress{}
	s.Stage = StagePhotos
}

// CanClose reports whether the session may be abandoned right now.
// Closing is only permitted from photos, success, or final without a
// pending error, never mid-network-operation.
func (s *Session) CanClose() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch s.Stage {
	case StagePhotos, StageSuccess:
		return true
	case StageFinal:
		return s.LastError == ""
	default:
		return false
	}
}

// SetStage moves the session to the given stage, logging the transition.
func (s *Session) SetStage(stage Stage) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.setStageLocked(stage)
}

func (s *Session) setStageLocked(stage Stage) {
	slog.Info("Stage transition", "session_id", s.ID, "from", s.Stage, "to", stage)
	s.Stage = stage
}

// Fail records a stage failure and moves the session to the stage the
// error taxonomy prescribes for it.
func (s *Session) Fail(returnTo Stage, msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastError = msg
	s.setStageLocked(returnTo)
}

// ClearError drops a pending error message, e.g. once the user has seen it.
func (s *Session) ClearError() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastError = ""
}

// ProductByGroupID finds a product by its group id.
func (s *Session) ProductByGroupID(groupID string) (*models.Product, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range s.Products {
		if p.GroupID == groupID {
			return p, nil
		}
	}
	return nil, fmt.Errorf("no product with group id %s", groupID)
}

func releasePreview(p models.RawPhoto) {
	if p.PreviewPath == "" {
		return
	}
	if err := os.Remove(p.PreviewPath); err != nil && !os.IsNotExist(err) {
		slog.Warn("Failed to remove staged photo", "path", p.PreviewPath, "err", err)
	}
}
