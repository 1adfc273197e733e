// Package openai implements the listing analysis contract on OpenAI
// vision models, as an alternative to the managed marketplace service.
package openai

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
	"github.com/gearloft/bulklister/internal/vision"
)

// OpenAI analyzes photo groups with an OpenAI vision model.
type OpenAI struct {
	Model      string
	HTTPClient *http.Client
}

// New returns an OpenAI analyzer. Model defaults to OPENAI_MODEL or gpt-4o.
func New() *OpenAI {
	model := os.Getenv("OPENAI_MODEL")
	if model == "" {
		model = "gpt-4o"
	}
	return &OpenAI{
		Model:      model,
		HTTPClient: &http.Client{Timeout: 90 * time.Second},
	}
}

// AnalyzeGroup asks the model for structured listing attributes for one
// photo group, passing the photos by URL.
func (o *OpenAI) AnalyzeGroup(ctx context.Context, photoURLs []string) (*models.AIListingData, error) {
	apiKey := os.Getenv("OPENAI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable not set")
	}

	content := []map[string]interface{}{
		{
			"type": "text",
			"text": vision.AnalysisPrompt(),
		},
	}
	for _, url := range photoURLs {
		content = append(content, map[string]interface{}{
			"type": "image_url",
			"image_url": map[string]string{
				"url": url,
			},
		})
	}

	requestBody, err := json.Marshal(map[string]interface{}{
		"model": o.Model,
		"messages": []map[string]interface{}{
			{
				"role":    "user",
				"content": content,
			},
		},
		"max_tokens":      1000,
		"temperature":     0.1,
		"response_format": map[string]string{"type": "json_object"},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", "https://api.openai.com/v1/chat/completions", bytes.NewBuffer(requestBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create new request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)

	resp, err := o.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("received non-200 status code: %d - %s", resp.StatusCode, string(body))
	}

	var response struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&response); err != nil {
		return nil, fmt.Errorf("failed to decode response body: %w", err)
	}

	if len(response.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned from OpenAI")
	}

	return vision.ParseListingJSON(response.Choices[0].Message.Content)
}
