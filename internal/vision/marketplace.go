package vision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/gearloft/bulklister/internal/models"
)

// MarketplaceClient talks to the managed marketplace vision service, which
// implements all three capabilities behind plain JSON endpoints.
type MarketplaceClient struct {
	BaseURL    string
	Token      string
	HTTPClient *http.Client
}

// NewMarketplaceClient reads VISION_SERVICE_URL and MARKETPLACE_API_TOKEN.
func NewMarketplaceClient() *MarketplaceClient {
	return &MarketplaceClient{
		BaseURL: os.Getenv("VISION_SERVICE_URL"),
		Token:   os.Getenv("MARKETPLACE_API_TOKEN"),
		// A hung call stalls its stage, so every request carries a bound.
		HTTPClient: &http.Client{Timeout: 90 * time.Second},
	}
}

// GroupPhotos sends the whole batch to the grouping endpoint once.
func (c *MarketplaceClient) GroupPhotos(ctx context.Context, photoURLs []string) ([]models.PhotoGroup, error) {
	var response struct {
		Groups []models.PhotoGroup `json:"groups"`
	}
	err := c.post(ctx, "/v1/photo-groups", map[string]any{
		"photoUrls": photoURLs,
	}, &response)
	if err != nil {
		return nil, err
	}
	return response.Groups, nil
}

// AnalyzeGroup extracts listing attributes for one group's photos.
func (c *MarketplaceClient) AnalyzeGroup(ctx context.Context, photoURLs []string) (*models.AIListingData, error) {
	var response struct {
		Result json.RawMessage `json:"result"`
	}
	err := c.post(ctx, "/v1/listing-analysis", map[string]any{
		"photoUrls": photoURLs,
	}, &response)
	if err != nil {
		return nil, err
	}

	var data models.AIListingData
	if err := json.Unmarshal(response.Result, &data); err != nil {
		return nil, fmt.Errorf("failed to decode analysis result: %w", err)
	}
	return &data, nil
}

// EnhanceImage requests background removal for a cover image.
func (c *MarketplaceClient) EnhanceImage(ctx context.Context, imageURL, correlationID string) (string, error) {
	var response struct {
		URL string `json:"url"`
	}
	err := c.post(ctx, "/v1/background-removal", map[string]any{
		"imageUrl":      imageURL,
		"correlationId": correlationID,
	}, &response)
	if err != nil {
		return "", err
	}
	if response.URL == "" {
		return "", fmt.Errorf("background removal returned no image URL")
	}
	return response.URL, nil
}

func (c *MarketplaceClient) post(ctx context.Context, path string, payload any, out any) error {
	requestBody, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.BaseURL+path, bytes.NewBuffer(requestBody))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to call vision service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("vision service returned status %d: %s", resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode vision service response: %w", err)
	}
	return nil
}
