// Package workflow sequences the bulk listing pipeline: upload, grouping,
// analysis, reassignment, enhancement, review, and publish, over one
// session aggregate.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gearloft/bulklister/internal/compress"
	"github.com/gearloft/bulklister/internal/enhance"
	"github.com/gearloft/bulklister/internal/gemini"
	"github.com/gearloft/bulklister/internal/models"
	"github.com/gearloft/bulklister/internal/normalize"
	"github.com/gearloft/bulklister/internal/openai"
	"github.com/gearloft/bulklister/internal/publish"
	"github.com/gearloft/bulklister/internal/reassign"
	"github.com/gearloft/bulklister/internal/session"
	"github.com/gearloft/bulklister/internal/uploader"
	"github.com/gearloft/bulklister/internal/validate"
	"github.com/gearloft/bulklister/internal/vision"
)

// ErrWrongStage is returned when an operation does not apply to the
// session's current stage.
var ErrWrongStage = errors.New("operation not allowed in current stage")

// ErrNothingToPublish is returned when publish is requested with no valid
// products.
var ErrNothingToPublish = errors.New("no valid products to publish")

// Compressor normalizes a photo before upload.
type Compressor interface {
	Compress(ctx context.Context, name string, data []byte) []byte
}

// Uploader sends staged photos to object storage.
type Uploader interface {
	UploadAll(ctx context.Context, files []uploader.File, batchID, token string, progress uploader.ProgressFunc) ([]models.UploadedPhoto, error)
}

// Publisher submits the final listings batch.
type Publisher interface {
	Submit(ctx context.Context, payloads []models.ListingPayload) ([]string, error)
}

// CompleteFunc receives the created listing ids once a session succeeds.
type CompleteFunc func(listingIDs []string)

// Controller drives a session through the pipeline stages.
type Controller struct {
	Compressor Compressor
	Uploader   Uploader
	Grouper    vision.Grouper
	Analyzer   vision.Analyzer
	Enhancer   vision.Enhancer
	Publisher  Publisher

	Token string
	// SuccessDelay is the pause before onComplete fires after a
	// successful publish, giving the success screen time on screen.
	SuccessDelay time.Duration

	onComplete CompleteFunc
}

// New builds a controller from the environment: the managed marketplace
// vision service by default, or an alternate analysis provider when
// VISION_PROVIDER selects one.
func New() *Controller {
	marketplace := vision.NewMarketplaceClient()

	var analyzer vision.Analyzer = marketplace
	switch os.Getenv("VISION_PROVIDER") {
	case "", "marketplace":
	case "gemini":
		analyzer = gemini.New()
	case "openai":
		analyzer = openai.New()
	default:
		slog.Warn("Unknown VISION_PROVIDER, using marketplace service", "provider", os.Getenv("VISION_PROVIDER"))
	}

	return &Controller{
		Compressor:   compress.NewAdapter(),
		Uploader:     uploader.NewDispatcher(),
		Grouper:      marketplace,
		Analyzer:     analyzer,
		Enhancer:     marketplace,
		Publisher:    publish.NewClient(),
		Token:        os.Getenv("MARKETPLACE_API_TOKEN"),
		SuccessDelay: 2 * time.Second,
	}
}

// Open resets and returns a fresh session.
func (c *Controller) Open(onComplete CompleteFunc) *session.Session {
	c.onComplete = onComplete
	s := session.New()
	slog.Info("Workflow session opened", "session_id", s.ID, "batch_id", s.BatchID)
	return s
}

// Close abandons the session, releasing its staged files. Refused during
// network-bound stages so in-flight requests are never orphaned silently.
func (c *Controller) Close(s *session.Session) error {
	if !s.CanClose() {
		return session.ErrCloseBlocked
	}
	s.Reset()
	slog.Info("Workflow session closed", "session_id", s.ID)
	return nil
}

// StartPipeline runs the automatic stages: uploading, grouping, and
// analysis, leaving the session at assigning. Requires at least one photo.
func (c *Controller) StartPipeline(ctx context.Context, s *session.Session) error {
	var rawPhotos []models.RawPhoto
	startErr := error(nil)
	s.Update(func(s *session.Session) {
		if s.Stage != session.StagePhotos {
			startErr = ErrWrongStage
			return
		}
		if len(s.RawPhotos) == 0 {
			startErr = fmt.Errorf("at least one photo is required")
			return
		}
		rawPhotos = append(rawPhotos, s.RawPhotos...)
		s.LastError = ""
	})
	if startErr != nil {
		return startErr
	}

	s.SetStage(session.StageUploading)
	uploaded, err := c.runUpload(ctx, s, rawPhotos)
	if err != nil {
		s.Fail(session.StagePhotos, "Upload failed: "+err.Error())
		return fmt.Errorf("upload stage failed: %w", err)
	}

	s.SetStage(session.StageGrouping)
	photoURLs := make([]string, len(uploaded))
	for i, photo := range uploaded {
		photoURLs[i] = photo.URL
	}
	// A grouping failure never surfaces to the user: the fallback
	// grouping substitutes and the pipeline proceeds.
	groups := vision.GroupOrFallback(ctx, c.Grouper, photoURLs)

	products := c.analyzeAndSeed(ctx, uploaded, groups)

	s.Update(func(s *session.Session) {
		s.Uploaded = uploaded
		s.Groups = groups
		s.Products = products
	})
	s.SetStage(session.StageAssigning)
	return nil
}

func (c *Controller) runUpload(ctx context.Context, s *session.Session, rawPhotos []models.RawPhoto) ([]models.UploadedPhoto, error) {
	files := make([]uploader.File, 0, len(rawPhotos))
	for _, photo := range rawPhotos {
		data, err := os.ReadFile(photo.PreviewPath)
		if err != nil {
			slog.Warn("Skipping unreadable staged photo", "file", photo.Name, "err", err)
			continue
		}
		files = append(files, uploader.File{
			Name: photo.Name,
			Data: c.Compressor.Compress(ctx, photo.Name, data),
		})
	}

	var batchID string
	s.Update(func(s *session.Session) { batchID = s.BatchID })

	return c.Uploader.UploadAll(ctx, files, batchID, c.Token, func(current, total int) {
		s.Update(func(s *session.Session) {
			s.Progress = session.StageProgress{Current: current, Total: total}
		})
	})
}

// analyzeAndSeed fans analysis out over all groups in parallel and builds
// the initial product list, one product per group. Groups whose analysis
// failed get an empty form for manual entry.
func (c *Controller) analyzeAndSeed(ctx context.Context, uploaded []models.UploadedPhoto, groups []models.PhotoGroup) []*models.Product {
	urlsFor := func(g models.PhotoGroup) []string {
		urls := make([]string, 0, len(g.PhotoIndexes))
		for _, idx := range g.PhotoIndexes {
			if idx >= 0 && idx < len(uploaded) {
				urls = append(urls, uploaded[idx].URL)
			}
		}
		return urls
	}

	analyses := vision.AnalyzeGroups(ctx, c.Analyzer, groups, urlsFor)

	products := make([]*models.Product, 0, len(groups))
	for i, group := range groups {
		p := &models.Product{
			GroupID:       group.ID,
			SuggestedName: group.SuggestedName,
			AIData:        analyses[i],
			FormData:      normalize.FormData(analyses[i], group.SuggestedName),
		}
		for _, idx := range group.PhotoIndexes {
			if idx >= 0 && idx < len(uploaded) {
				p.ImageURLs = append(p.ImageURLs, uploaded[idx].URL)
				p.ThumbnailURLs = append(p.ThumbnailURLs, uploaded[idx].ThumbnailURL)
			}
		}
		validate.Refresh(p)
		products = append(products, p)
	}
	return products
}

// MovePhoto reassigns a photo between products during assigning.
func (c *Controller) MovePhoto(s *session.Session, photoURL string, fromIndex, toIndex int) error {
	return c.inStage(s, session.StageAssigning, func(s *session.Session) {
		reassign.MovePhoto(s.Products, photoURL, fromIndex, toIndex)
	})
}

// SplitPhoto spins a photo out into a new product during assigning.
func (c *Controller) SplitPhoto(s *session.Session, photoURL string, fromIndex int) error {
	return c.inStage(s, session.StageAssigning, func(s *session.Session) {
		groupID := fmt.Sprintf("group-split-%d", len(s.Products)+1)
		s.Products = reassign.CreateFromPhoto(s.Products, photoURL, fromIndex, groupID)
	})
}

// FinishAssigning prunes emptied products and advances to enhancing.
func (c *Controller) FinishAssigning(s *session.Session) error {
	err := c.inStage(s, session.StageAssigning, func(s *session.Session) {
		s.Products = reassign.PruneEmpty(s.Products)
	})
	if err != nil {
		return err
	}
	s.SetStage(session.StageEnhancing)
	return nil
}

// ToggleEnhancement flips one product in or out of the enhancement
// selection.
func (c *Controller) ToggleEnhancement(s *session.Session, groupID string) error {
	return c.inStage(s, session.StageEnhancing, func(s *session.Session) {
		enhance.NewSelection(s.Selected, s.Enhanced).Toggle(groupID)
	})
}

// SelectAllEnhancement queues every un-enhanced product.
func (c *Controller) SelectAllEnhancement(s *session.Session) error {
	return c.inStage(s, session.StageEnhancing, func(s *session.Session) {
		enhance.NewSelection(s.Selected, s.Enhanced).SelectAll(s.Products)
	})
}

// ClearEnhancement empties the selection.
func (c *Controller) ClearEnhancement(s *session.Session) error {
	return c.inStage(s, session.StageEnhancing, func(s *session.Session) {
		enhance.NewSelection(s.Selected, s.Enhanced).Clear()
	})
}

// RunEnhancement processes the selection sequentially and advances to
// reviewing regardless of partial failures. Skipping is the same call with
// an empty selection.
func (c *Controller) RunEnhancement(ctx context.Context, s *session.Session) error {
	var products []*models.Product
	var sel *enhance.Selection
	var batchID string

	err := c.inStage(s, session.StageEnhancing, func(s *session.Session) {
		products = s.Products
		sel = enhance.NewSelection(s.Selected, s.Enhanced)
		batchID = s.BatchID
	})
	if err != nil {
		return err
	}

	enhance.Run(ctx, c.Enhancer, products, sel, batchID, func(current, total int) {
		s.Update(func(s *session.Session) {
			s.Progress = session.StageProgress{Current: current, Total: total}
		})
	})

	s.SetStage(session.StageReviewing)
	return nil
}

// UpdateForm replaces a product's form data and recomputes its validity.
func (c *Controller) UpdateForm(s *session.Session, groupID string, form models.ProductFormData) error {
	p, err := s.ProductByGroupID(groupID)
	if err != nil {
		return err
	}
	s.Update(func(s *session.Session) {
		p.FormData = form
		validate.Refresh(p)
	})
	return nil
}

// NextProduct advances the single-product review cursor; on the last
// product it advances the session to final.
func (c *Controller) NextProduct(s *session.Session) error {
	return c.inStage(s, session.StageReviewing, func(s *session.Session) {
		if s.ReviewIndex >= len(s.Products)-1 {
			s.Stage = session.StageFinal
			return
		}
		s.ReviewIndex++
	})
}

// PrevProduct steps the review cursor back; on the first product it
// returns to enhancing.
func (c *Controller) PrevProduct(s *session.Session) error {
	return c.inStage(s, session.StageReviewing, func(s *session.Session) {
		if s.ReviewIndex == 0 {
			s.Stage = session.StageEnhancing
			return
		}
		s.ReviewIndex--
	})
}

// BackToReview returns from the aggregate review to the last-edited
// product.
func (c *Controller) BackToReview(s *session.Session) error {
	return c.inStage(s, session.StageFinal, func(s *session.Session) {
		s.Stage = session.StageReviewing
	})
}

// Publish submits the valid products as one batch. On success the session
// reaches the success stage and onComplete fires after SuccessDelay. On
// failure all product state is preserved and the session returns to final
// for a retry.
func (c *Controller) Publish(ctx context.Context, s *session.Session) ([]string, error) {
	var payloads []models.ListingPayload
	err := c.inStage(s, session.StageFinal, func(s *session.Session) {
		payloads = publish.BuildPayloads(s.Products)
	})
	if err != nil {
		return nil, err
	}
	if len(payloads) == 0 {
		return nil, ErrNothingToPublish
	}

	s.SetStage(session.StagePublishing)
	created, err := c.Publisher.Submit(ctx, payloads)
	if err != nil {
		s.Fail(session.StageFinal, "Publish failed: "+err.Error())
		return nil, fmt.Errorf("publish stage failed: %w", err)
	}

	s.SetStage(session.StageSuccess)
	slog.Info("Listings created", "session_id", s.ID, "count", len(created))

	if c.onComplete != nil {
		complete := c.onComplete
		time.AfterFunc(c.SuccessDelay, func() { complete(created) })
	}
	return created, nil
}

// inStage runs fn under the session lock after checking the stage.
func (c *Controller) inStage(s *session.Session, stage session.Stage, fn func(*session.Session)) error {
	err := error(nil)
	s.Update(func(s *session.Session) {
		if s.Stage != stage {
			err = fmt.Errorf("%w: need %s, at %s", ErrWrongStage, stage, s.Stage)
			return
		}
		if fn != nil {
			fn(s)
		}
	})
	return err
}
