// Package enhance tracks which products the user picked for background
// removal and drives the sequential enhancement calls.
package enhance

import (
	"context"
	"log/slog"

	"github.com/gearloft/bulklister/internal/models"
	"github.com/gearloft/bulklister/internal/vision"
)

// Selection is the set of products queued for enhancement. Products in the
// enhanced set are excluded from further selection; toggling one is a no-op.
type Selection struct {
	selected map[string]bool
	enhanced map[string]bool
}

// NewSelection builds a selection over the given bookkeeping maps, which
// the session owns so selection state survives stage navigation.
func NewSelection(selected, enhanced map[string]bool) *Selection {
	return &Selection{selected: selected, enhanced: enhanced}
}

// Toggle flips a product in or out of the selection. Already-enhanced
// products are left alone.
func (s *Selection) Toggle(groupID string) {
	if s.enhanced[groupID] {
		return
	}
	if s.selected[groupID] {
		delete(s.selected, groupID)
	} else {
		s.selected[groupID] = true
	}
}

// SelectAll queues every product that has not been enhanced yet.
func (s *Selection) SelectAll(products []*models.Product) {
	for _, p := range products {
		if !s.enhanced[p.GroupID] {
			s.selected[p.GroupID] = true
		}
	}
}

// Clear empties the selection.
func (s *Selection) Clear() {
	for id := range s.selected {
		delete(s.selected, id)
	}
}

// IsSelected reports whether the product is queued.
func (s *Selection) IsSelected(groupID string) bool {
	return s.selected[groupID]
}

// ProgressFunc receives {current, total} after each product is processed.
type ProgressFunc func(current, total int)

// Run processes the selected products strictly sequentially — background
// removal is expensive and rate-limited — replacing each product's cover
// image with the enhanced result. A per-product failure logs and moves on;
// enhancement is best-effort cosmetic and never blocks the pipeline.
// Returns the number of products enhanced.
func Run(ctx context.Context, enhancer vision.Enhancer, products []*models.Product, sel *Selection, correlationID string, progress ProgressFunc) int {
	queue := make([]*models.Product, 0, len(products))
	for _, p := range products {
		if sel.selected[p.GroupID] && !sel.enhanced[p.GroupID] {
			queue = append(queue, p)
		}
	}

	done := 0
	for i, p := range queue {
		if len(p.ImageURLs) == 0 {
			continue
		}

		enhanced, err := enhancer.EnhanceImage(ctx, p.ImageURLs[0], correlationID)
		if err != nil {
			slog.Warn("Enhancement failed for product, continuing", "group_id", p.GroupID, "err", err)
		} else {
			p.ImageURLs[0] = enhanced
			sel.enhanced[p.GroupID] = true
			done++
		}
		delete(sel.selected, p.GroupID)

		if progress != nil {
			progress(i+1, len(queue))
		}
	}

	slog.Info("Enhancement pass complete", "enhanced", done, "selected", len(queue))
	return done
}
