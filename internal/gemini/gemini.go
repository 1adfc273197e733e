// Package gemini implements the listing analysis contract on Google
// Gemini, as an alternative to the managed marketplace vision service.
package gemini

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"github.com/gearloft/bulklister/internal/models"
	"github.com/gearloft/bulklister/internal/vision"
)

// Gemini analyzes photo groups with a Gemini vision model.
type Gemini struct {
	Model      string
	HTTPClient *http.Client
}

// New returns a Gemini analyzer. Model defaults to GEMINI_MODEL or
// gemini-2.0-flash.
func New() *Gemini {
	model := os.Getenv("GEMINI_MODEL")
	if model == "" {
		model = "gemini-2.0-flash"
	}
	return &Gemini{
		Model:      model,
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// AnalyzeGroup downloads the group's photos and asks Gemini for structured
// listing attributes.
func (g *Gemini) AnalyzeGroup(ctx context.Context, photoURLs []string) (*models.AIListingData, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(g.Model)
	model.SetTemperature(0.1)

	parts := []genai.Part{genai.Text(vision.AnalysisPrompt())}
	for _, url := range photoURLs {
		data, err := g.downloadImage(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch photo for analysis: %w", err)
		}
		parts = append(parts, genai.ImageData("jpeg", data))
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates returned from Gemini")
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return nil, fmt.Errorf("empty content returned from Gemini")
	}

	txt, ok := candidate.Content.Parts[0].(genai.Text)
	if !ok {
		return nil, fmt.Errorf("unexpected response format from Gemini")
	}

	return vision.ParseListingJSON(string(txt))
}

func (g *Gemini) downloadImage(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := g.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("image URL returned status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}
