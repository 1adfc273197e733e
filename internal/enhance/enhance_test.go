package enhance

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/gearloft/bulklister/internal/models"
)

type fakeEnhancer struct {
	fail     map[string]bool
	inFlight int32
	calls    []string
}

func (f *fakeEnhancer) EnhanceImage(ctx context.Context, imageURL, correlationID string) (string, error) {
	if atomic.AddInt32(&f.inFlight, 1) > 1 {
		panic("enhancement must run sequentially")
	}
	defer atomic.AddInt32(&f.inFlight, -1)

	f.calls = append(f.calls, imageURL)
	if f.fail[imageURL] {
		return "", errors.New("removal failed")
	}
	return "enhanced_" + imageURL, nil
}

func products() []*models.Product {
	return []*models.Product{
		{GroupID: "g1", ImageURLs: []string{"a.jpg", "a2.jpg"}, ThumbnailURLs: []string{"a_t.jpg", "a2_t.jpg"}},
		{GroupID: "g2", ImageURLs: []string{"b.jpg"}, ThumbnailURLs: []string{"b_t.jpg"}},
		{GroupID: "g3", ImageURLs: []string{"c.jpg"}, ThumbnailURLs: []string{"c_t.jpg"}},
	}
}

func TestToggle(t *testing.T) {
	sel := NewSelection(map[string]bool{}, map[string]bool{"g2": true})

	sel.Toggle("g1")
	if !sel.IsSelected("g1") {
		t.Error("toggle should select g1")
	}
	sel.Toggle("g1")
	if sel.IsSelected("g1") {
		t.Error("second toggle should deselect g1")
	}

	sel.Toggle("g2")
	if sel.IsSelected("g2") {
		t.Error("already-enhanced product must not be selectable")
	}
}

func TestSelectAllSkipsEnhanced(t *testing.T) {
	sel := NewSelection(map[string]bool{}, map[string]bool{"g2": true})
	sel.SelectAll(products())

	if !sel.IsSelected("g1") || !sel.IsSelected("g3") {
		t.Error("select-all should queue un-enhanced products")
	}
	if sel.IsSelected("g2") {
		t.Error("select-all must skip enhanced products")
	}

	sel.Clear()
	if sel.IsSelected("g1") || sel.IsSelected("g3") {
		t.Error("clear should empty the selection")
	}
}

func TestRunReplacesCoverAndContinuesOnFailure(t *testing.T) {
	enhancer := &fakeEnhancer{fail: map[string]bool{"b.jpg": true}}
	prods := products()
	sel := NewSelection(map[string]bool{"g1": true, "g2": true, "g3": true}, map[string]bool{})

	var progress []int
	done := Run(context.Background(), enhancer, prods, sel, "corr-1", func(current, total int) {
		if total != 3 {
			t.Errorf("progress total = %d, want 3", total)
		}
		progress = append(progress, current)
	})

	if done != 2 {
		t.Errorf("expected 2 enhanced, got %d", done)
	}
	if prods[0].ImageURLs[0] != "enhanced_a.jpg" {
		t.Errorf("cover should be replaced, got %s", prods[0].ImageURLs[0])
	}
	if prods[0].ImageURLs[1] != "a2.jpg" {
		t.Error("only the cover image should change")
	}
	if prods[1].ImageURLs[0] != "b.jpg" {
		t.Error("failed product should keep its original cover")
	}
	if prods[2].ImageURLs[0] != "enhanced_c.jpg" {
		t.Error("failure must not abort the rest of the batch")
	}
	if len(progress) != 3 || progress[2] != 3 {
		t.Errorf("expected per-product progress up to 3, got %v", progress)
	}
}

func TestRunIsIdempotentForEnhancedProducts(t *testing.T) {
	enhancer := &fakeEnhancer{}
	prods := products()
	sel := NewSelection(map[string]bool{"g1": true}, map[string]bool{})

	Run(context.Background(), enhancer, prods, sel, "corr-1", nil)
	first := prods[0].ImageURLs[0]

	// Re-selecting and re-running an already-enhanced product is a no-op.
	sel.Toggle("g1")
	done := Run(context.Background(), enhancer, prods, sel, "corr-1", nil)

	if done != 0 {
		t.Errorf("second run should enhance nothing, got %d", done)
	}
	if prods[0].ImageURLs[0] != first {
		t.Error("re-running must not change an enhanced cover")
	}
	if len(enhancer.calls) != 1 {
		t.Errorf("expected exactly 1 service call, got %d", len(enhancer.calls))
	}
}
