// Package publish turns validated products into listing-creation payloads
// and submits them to the bulk listings service as one batch.
package publish

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gearloft/bulklister/internal/models"
	"github.com/gearloft/bulklister/internal/validate"
)

// categoryByItemType is the fixed item-type to marketplace-category table.
// Unmapped types land in the catch-all category.
var categoryByItemType = map[string]string{
	"road bike":     "bikes/road",
	"mountain bike": "bikes/mountain",
	"gravel bike":   "bikes/gravel",
	"city bike":     "bikes/city",
	"kids bike":     "bikes/kids",
	"frame":         "parts/frames",
	"wheelset":      "parts/wheels",
	"groupset":      "parts/groupsets",
	"component":     "parts/components",
	"apparel":       "apparel",
	"accessory":     "accessories",
}

const defaultCategory = "other"

// CategoryForItemType resolves the marketplace category for an item type.
func CategoryForItemType(itemType string) string {
	if category, ok := categoryByItemType[strings.ToLower(strings.TrimSpace(itemType))]; ok {
		return category
	}
	return defaultCategory
}

// BuildPayloads maps publish-ready products into listing payloads,
// filtering to valid products immediately before submission. The first
// image of each product is marked primary.
func BuildPayloads(products []*models.Product) []models.ListingPayload {
	payloads := make([]models.ListingPayload, 0, len(products))
	for _, p := range products {
		if !p.IsValid {
			continue
		}
		if !validate.Deliverable(p.FormData) {
			slog.Warn("Skipping product with no delivery option", "group_id", p.GroupID)
			continue
		}
		payloads = append(payloads, buildPayload(p))
	}
	return payloads
}

func buildPayload(p *models.Product) models.ListingPayload {
	form := p.FormData

	images := make([]models.ImageDescriptor, len(p.ImageURLs))
	for i, url := range p.ImageURLs {
		images[i] = models.ImageDescriptor{
			URL:          url,
			ThumbnailURL: p.ThumbnailURLs[i],
			IsPrimary:    i == 0,
		}
	}

	attributes := map[string]string{}
	for key, value := range map[string]string{
		"frameSize":     form.FrameSize,
		"groupset":      form.Groupset,
		"wheelSize":     form.WheelSize,
		"compatibility": form.Compatibility,
		"material":      form.Material,
		"apparelSize":   form.ApparelSize,
		"apparelFit":    form.ApparelFit,
	} {
		if value != "" {
			attributes[key] = value
		}
	}
	if len(attributes) == 0 {
		attributes = nil
	}

	payload := models.ListingPayload{
		Title:            form.Title,
		Brand:            form.Brand,
		ModelName:        form.Model,
		Year:             form.Year,
		Category:         CategoryForItemType(form.ItemType),
		Attributes:       attributes,
		Condition:        form.Condition,
		ConditionDetails: form.ConditionDetails,
		Price:            form.Price,
		ReferencePrice:   form.ReferencePrice,
		Images:           images,
	}
	if form.ShippingEnabled {
		payload.Shipping = &models.ShippingTerms{Cost: form.ShippingCost}
	}
	if form.PickupEnabled {
		payload.Pickup = &models.PickupTerms{Location: form.PickupLocation}
	}
	return payload
}

// Client submits listing batches to the bulk listing-creation service.
type Client struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewClient reads LISTINGS_SERVICE_URL and MARKETPLACE_API_TOKEN.
func NewClient() *Client {
	return &Client{
		BaseURL:    os.Getenv("LISTINGS_SERVICE_URL"),
		Token:      os.Getenv("MARKETPLACE_API_TOKEN"),
		HTTPClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// Submit sends all payloads as a single batch request and returns the
// created listing ids. Any error is a whole-stage failure; the caller
// preserves product state so the user can retry.
func (c *Client) Submit(ctx context.Context, payloads []models.ListingPayload) ([]string, error) {
	requestBody, err := json.Marshal(map[string]any{
		"listings": payloads,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal listings batch: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+"/v1/listings/bulk", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.Token)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call listings service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("listings service returned status %d: %s", resp.StatusCode, string(body))
	}

	var response struct {
		Created []string `json:"created"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode listings response: %w", err)
	}

	slog.Info("Batch publish complete", "submitted", len(payloads), "created", len(response.Created))
	return response.Created, nil
}
