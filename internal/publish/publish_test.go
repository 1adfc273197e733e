package publish

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gearloft/bulklister/internal/models"
)

func validProduct(groupID string) *models.Product {
	return &models.Product{
		GroupID:       groupID,
		ImageURLs:     []string{"full_0.jpg", "full_1.jpg"},
		ThumbnailURLs: []string{"thumb_0.jpg", "thumb_1.jpg"},
		FormData: models.ProductFormData{
			Title:           "Canyon Ultimate 2021",
			Brand:           "Canyon",
			Model:           "Ultimate",
			ItemType:        "road bike",
			Condition:       "good",
			Price:           1000,
			ShippingEnabled: true,
			ShippingCost:    25,
		},
		IsValid: true,
	}
}

func TestCategoryForItemType(t *testing.T) {
	tests := []struct {
		itemType string
		expected string
	}{
		{"road bike", "bikes/road"},
		{"Road Bike", "bikes/road"},
		{"wheelset", "parts/wheels"},
		{"apparel", "apparel"},
		{"hovercraft", "other"},
		{"", "other"},
	}

	for _, tt := range tests {
		if got := CategoryForItemType(tt.itemType); got != tt.expected {
			t.Errorf("CategoryForItemType(%q) = %q, want %q", tt.itemType, got, tt.expected)
		}
	}
}

func TestBuildPayloadsFiltersAndFlattens(t *testing.T) {
	invalid := validProduct("g2")
	invalid.IsValid = false
	undeliverable := validProduct("g3")
	undeliverable.FormData.ShippingEnabled = false

	payloads := BuildPayloads([]*models.Product{validProduct("g1"), invalid, undeliverable})

	if len(payloads) != 1 {
		t.Fatalf("expected only the valid deliverable product, got %d payloads", len(payloads))
	}

	p := payloads[0]
	if p.Category != "bikes/road" {
		t.Errorf("category = %q, want bikes/road", p.Category)
	}
	if len(p.Images) != 2 {
		t.Fatalf("expected 2 image descriptors, got %d", len(p.Images))
	}
	if !p.Images[0].IsPrimary || p.Images[1].IsPrimary {
		t.Error("exactly the first image must be primary")
	}
	if p.Images[1].ThumbnailURL != "thumb_1.jpg" {
		t.Error("thumbnails must stay parallel to images")
	}
	if p.Shipping == nil || p.Shipping.Cost != 25 {
		t.Error("shipping terms not carried into payload")
	}
	if p.Pickup != nil {
		t.Error("pickup should be absent when not enabled")
	}
}

func TestSubmit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/listings/bulk" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			Listings []models.ListingPayload `json:"listings"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		created := make([]string, len(req.Listings))
		for i := range created {
			created[i] = "listing-" + req.Listings[i].Brand
		}
		if err := json.NewEncoder(w).Encode(map[string]any{"created": created}); err != nil {
			t.Error(err)
		}
	}))
	defer server.Close()

	client := NewClient()
	client.BaseURL = server.URL

	ids, err := client.Submit(context.Background(), BuildPayloads([]*models.Product{validProduct("g1")}))
	if err != nil {
		t.Fatal(err)
	}
	if len(ids) != 1 || ids[0] != "listing-Canyon" {
		t.Errorf("unexpected created ids: %v", ids)
	}
}

func TestSubmitWholeBatchFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewClient()
	client.BaseURL = server.URL

	if _, err := client.Submit(context.Background(), nil); err == nil {
		t.Fatal("expected whole-batch failure for non-2xx response")
	}
}
