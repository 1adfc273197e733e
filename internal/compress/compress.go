// Package compress normalizes raw photos before upload by calling the
// external compression service. The service is best-effort: any failure
// falls back to the original bytes.
package compress

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"time"
)

const (
	defaultMaxDimension = 2048
	defaultQuality      = 85
)

// Constraints bound the output image.
type Constraints struct {
	MaxDimension int
	Quality      int
}

// Adapter calls the compression service.
type Adapter struct {
	BaseURL     string
	HTTPClient  *http.Client
	Constraints Constraints
}

// NewAdapter reads the service endpoint from COMPRESS_SERVICE_URL. An
// empty endpoint disables compression and passes originals through.
func NewAdapter() *Adapter {
	return &Adapter{
		BaseURL:    os.Getenv("COMPRESS_SERVICE_URL"),
		HTTPClient: &http.Client{Timeout: 30 * time.Second},
		Constraints: Constraints{
			MaxDimension: defaultMaxDimension,
			Quality:      defaultQuality,
		},
	}
}

// Compress returns the compressed image, or the original bytes when the
// service is unconfigured or fails. Losing compression is never fatal;
// uploading a bigger file beats losing the photo.
func (a *Adapter) Compress(ctx context.Context, name string, data []byte) []byte {
	if a.BaseURL == "" {
		return data
	}

	compressed, err := a.call(ctx, name, data)
	if err != nil {
		slog.Warn("Compression failed, using original file", "file", name, "err", err)
		return data
	}

	slog.Debug("Compressed photo", "file", name, "before", len(data), "after", len(compressed))
	return compressed
}

func (a *Adapter) call(ctx context.Context, name string, data []byte) ([]byte, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("image", name)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return nil, fmt.Errorf("failed to write image data: %w", err)
	}
	if err := writer.WriteField("maxDimension", strconv.Itoa(a.Constraints.MaxDimension)); err != nil {
		return nil, fmt.Errorf("failed to write field: %w", err)
	}
	if err := writer.WriteField("quality", strconv.Itoa(a.Constraints.Quality)); err != nil {
		return nil, fmt.Errorf("failed to write field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", a.BaseURL+"/v1/compress", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := a.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call compression service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("compression service returned status %d: %s", resp.StatusCode, string(respBody))
	}

	compressed, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read compressed image: %w", err)
	}
	return compressed, nil
}
