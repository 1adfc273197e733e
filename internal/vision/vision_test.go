package vision

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gearloft/bulklister/internal/models"
)

type fakeGrouper struct {
	groups []models.PhotoGroup
	err    error
}

func (f *fakeGrouper) GroupPhotos(ctx context.Context, photoURLs []string) ([]models.PhotoGroup, error) {
	return f.groups, f.err
}

type fakeAnalyzer struct {
	fail map[string]bool
}

func (f *fakeAnalyzer) AnalyzeGroup(ctx context.Context, photoURLs []string) (*models.AIListingData, error) {
	if f.fail[photoURLs[0]] {
		return nil, errors.New("analysis unavailable")
	}
	return &models.AIListingData{Brand: "Canyon"}, nil
}

func TestGroupOrFallbackUsesServiceGroups(t *testing.T) {
	g := &fakeGrouper{groups: []models.PhotoGroup{
		{ID: "g1", PhotoIndexes: []int{0, 1, 2}},
		{ID: "g2", PhotoIndexes: []int{3, 4}},
	}}

	groups := GroupOrFallback(context.Background(), g, make([]string, 5))
	if len(groups) != 2 {
		t.Fatalf("expected service groups, got %d", len(groups))
	}
}

func TestGroupOrFallbackOnError(t *testing.T) {
	g := &fakeGrouper{err: errors.New("model overloaded")}

	groups := GroupOrFallback(context.Background(), g, make([]string, 4))

	if len(groups) != 4 {
		t.Fatalf("expected one group per photo, got %d", len(groups))
	}
	for i, group := range groups {
		if len(group.PhotoIndexes) != 1 || group.PhotoIndexes[0] != i {
			t.Errorf("group %d should hold exactly photo %d, got %v", i, i, group.PhotoIndexes)
		}
		if group.Confidence != 50 {
			t.Errorf("fallback confidence should be 50, got %d", group.Confidence)
		}
	}
	if groups[0].SuggestedName != "Product 1" {
		t.Errorf("unexpected fallback name %q", groups[0].SuggestedName)
	}
}

func TestGroupOrFallbackOnEmptyResponse(t *testing.T) {
	g := &fakeGrouper{}
	if groups := GroupOrFallback(context.Background(), g, make([]string, 3)); len(groups) != 3 {
		t.Errorf("empty service response should fall back, got %d groups", len(groups))
	}
}

func TestAnalyzeGroupsIsolatesFailures(t *testing.T) {
	analyzer := &fakeAnalyzer{fail: map[string]bool{"p3.jpg": true}}
	urls := []string{"p0.jpg", "p1.jpg", "p2.jpg", "p3.jpg", "p4.jpg"}
	groups := []models.PhotoGroup{
		{ID: "g1", PhotoIndexes: []int{0, 1, 2}},
		{ID: "g2", PhotoIndexes: []int{3, 4}},
	}

	results := AnalyzeGroups(context.Background(), analyzer, groups, func(g models.PhotoGroup) []string {
		out := make([]string, len(g.PhotoIndexes))
		for i, idx := range g.PhotoIndexes {
			out[i] = urls[idx]
		}
		return out
	})

	if len(results) != 2 {
		t.Fatalf("expected one result per group, got %d", len(results))
	}
	if results[0] == nil || results[0].Brand != "Canyon" {
		t.Error("healthy group should carry analysis data")
	}
	if results[1] != nil {
		t.Error("failed group should degrade to nil data, not fail the stage")
	}
}

func TestParseListingJSON(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		wantErr bool
		brand   string
	}{
		{"plain json", `{"brand": "Trek"}`, false, "Trek"},
		{"fenced json", "```json\n{\"brand\": \"Trek\"}\n```", false, "Trek"},
		{"bare fence", "```\n{\"brand\": \"Trek\"}\n```", false, "Trek"},
		{"garbage", "not json at all", true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := ParseListingJSON(tt.raw)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error")
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if data.Brand != tt.brand {
				t.Errorf("brand = %q, want %q", data.Brand, tt.brand)
			}
		})
	}
}

func TestMarketplaceClientGroupPhotos(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/photo-groups" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req struct {
			PhotoURLs []string `json:"photoUrls"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatal(err)
		}
		if len(req.PhotoURLs) != 2 {
			t.Errorf("expected 2 photo urls, got %d", len(req.PhotoURLs))
		}
		resp := map[string]any{
			"groups": []models.PhotoGroup{{ID: "g1", PhotoIndexes: []int{0, 1}, SuggestedName: "Road Bike", Confidence: 88}},
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			t.Error(err)
		}
	}))
	defer server.Close()

	client := NewMarketplaceClient()
	client.BaseURL = server.URL

	groups, err := client.GroupPhotos(context.Background(), []string{"a.jpg", "b.jpg"})
	if err != nil {
		t.Fatal(err)
	}
	if len(groups) != 1 || groups[0].SuggestedName != "Road Bike" {
		t.Errorf("unexpected groups: %+v", groups)
	}
}

func TestMarketplaceClientErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewMarketplaceClient()
	client.BaseURL = server.URL

	if _, err := client.GroupPhotos(context.Background(), []string{"a.jpg"}); err == nil {
		t.Fatal("expected error for non-200 status")
	}
	if _, err := client.EnhanceImage(context.Background(), "a.jpg", "corr-1"); err == nil {
		t.Fatal("expected error for non-200 status")
	}
}
