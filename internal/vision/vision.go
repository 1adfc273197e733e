// Package vision defines the AI collaborator contracts the pipeline
// consumes: partitioning uploaded photos into candidate products,
// extracting listing attributes per group, and background removal.
package vision

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/gearloft/bulklister/internal/models"
)

// Grouper partitions a photo batch into candidate products.
type Grouper interface {
	GroupPhotos(ctx context.Context, photoURLs []string) ([]models.PhotoGroup, error)
}

// Analyzer extracts structured listing attributes for one photo group.
type Analyzer interface {
	AnalyzeGroup(ctx context.Context, photoURLs []string) (*models.AIListingData, error)
}

// Enhancer removes the background from a cover image, returning the
// enhanced image URL.
type Enhancer interface {
	EnhanceImage(ctx context.Context, imageURL, correlationID string) (string, error)
}

// GroupOrFallback asks the grouper to partition the batch and, on any
// failure, substitutes one conservative group per photo so this stage
// never blocks the pipeline.
func GroupOrFallback(ctx context.Context, g Grouper, photoURLs []string) []models.PhotoGroup {
	groups, err := g.GroupPhotos(ctx, photoURLs)
	if err != nil {
		slog.Warn("Grouping service failed, falling back to one group per photo", "photos", len(photoURLs), "err", err)
		return FallbackGroups(len(photoURLs))
	}
	if len(groups) == 0 {
		slog.Warn("Grouping service returned no groups, falling back to one group per photo", "photos", len(photoURLs))
		return FallbackGroups(len(photoURLs))
	}
	return groups
}

// FallbackGroups builds the deterministic one-group-per-photo grouping.
func FallbackGroups(n int) []models.PhotoGroup {
	groups := make([]models.PhotoGroup, n)
	for i := range groups {
		groups[i] = models.PhotoGroup{
			ID:            fmt.Sprintf("group-%d", i+1),
			PhotoIndexes:  []int{i},
			SuggestedName: fmt.Sprintf("Product %d", i+1),
			Confidence:    50,
		}
	}
	return groups
}

// AnalyzeGroups fans one analysis call out per group, all groups in
// parallel. Group count is bounded by photo count, so the fan-out is left
// uncapped. A failed group degrades to nil analysis data; the stage as a
// whole never fails.
func AnalyzeGroups(ctx context.Context, a Analyzer, groups []models.PhotoGroup, photoURLs func(models.PhotoGroup) []string) []*models.AIListingData {
	results := make([]*models.AIListingData, len(groups))

	var wg sync.WaitGroup
	for i, group := range groups {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, err := a.AnalyzeGroup(ctx, photoURLs(group))
			if err != nil {
				slog.Warn("Analysis failed for group, leaving it to manual entry", "group_id", group.ID, "err", err)
				return
			}
			results[i] = data
		}()
	}
	wg.Wait()

	return results
}

// ParseListingJSON decodes a model's listing-analysis response, tolerating
// markdown code fences around the JSON body.
func ParseListingJSON(raw string) (*models.AIListingData, error) {
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")
	raw = strings.TrimSpace(raw)

	var data models.AIListingData
	if err := json.Unmarshal([]byte(raw), &data); err != nil {
		return nil, fmt.Errorf("failed to parse listing analysis: %w", err)
	}
	return &data, nil
}
