// Package uploader sends compressed photos to the object-upload service in
// fixed-size concurrent batches, isolating per-file failures.
package uploader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gearloft/bulklister/internal/models"
)

// batchSize bounds in-flight uploads so neither the upload service nor the
// local network stack gets swamped, while still parallelizing.
const batchSize = 3

// File is one photo ready for upload.
type File struct {
	Name string
	Data []byte
}

// ProgressFunc receives the cumulative {current, total} count after each
// batch completes.
type ProgressFunc func(current, total int)

// Dispatcher uploads photo batches to the object-upload service.
type Dispatcher struct {
	BaseURL    string
	HTTPClient *http.Client
}

// NewDispatcher reads the service endpoint from UPLOAD_SERVICE_URL.
func NewDispatcher() *Dispatcher {
	return &Dispatcher{
		BaseURL:    os.Getenv("UPLOAD_SERVICE_URL"),
		HTTPClient: &http.Client{Timeout: 2 * time.Minute},
	}
}

// UploadAll uploads files in batches of three, awaiting each batch before
// starting the next. A non-2xx response for one file logs and skips that
// file; a transport-level error aborts the whole stage. Results keep the
// original submission order, minus skipped failures.
func (d *Dispatcher) UploadAll(ctx context.Context, files []File, batchID, token string, progress ProgressFunc) ([]models.UploadedPhoto, error) {
	total := len(files)
	results := make([]*models.UploadedPhoto, total)

	for start := 0; start < total; start += batchSize {
		end := start + batchSize
		if end > total {
			end = total
		}

		g, gctx := errgroup.WithContext(ctx)
		for i := start; i < end; i++ {
			g.Go(func() error {
				photo, err := d.uploadOne(gctx, files[i], batchID, i, token)
				if err != nil {
					return err
				}
				results[i] = photo
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, fmt.Errorf("upload batch failed: %w", err)
		}

		if progress != nil {
			progress(end, total)
		}
		slog.Info("Upload batch complete", "current", end, "total", total)
	}

	uploaded := make([]models.UploadedPhoto, 0, total)
	for _, r := range results {
		if r != nil {
			uploaded = append(uploaded, *r)
		}
	}
	return uploaded, nil
}

// uploadOne returns (nil, nil) for a skippable per-file failure and a
// non-nil error only for transport-level failures that abort the stage.
func (d *Dispatcher) uploadOne(ctx context.Context, file File, batchID string, index int, token string) (*models.UploadedPhoto, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	part, err := writer.CreateFormFile("file", file.Name)
	if err != nil {
		return nil, fmt.Errorf("failed to create form file: %w", err)
	}
	if _, err := part.Write(file.Data); err != nil {
		return nil, fmt.Errorf("failed to write file data: %w", err)
	}
	if err := writer.WriteField("batchId", batchID); err != nil {
		return nil, fmt.Errorf("failed to write field: %w", err)
	}
	if err := writer.WriteField("index", strconv.Itoa(index)); err != nil {
		return nil, fmt.Errorf("failed to write field: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", d.BaseURL+"/v1/photos", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := d.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to call upload service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		respBody, _ := io.ReadAll(resp.Body)
		slog.Warn("Skipping failed upload", "file", file.Name, "index", index,
			"status", resp.StatusCode, "body", string(respBody))
		return nil, nil
	}

	var photo models.UploadedPhoto
	if err := json.NewDecoder(resp.Body).Decode(&photo); err != nil {
		slog.Warn("Skipping upload with malformed response", "file", file.Name, "index", index, "err", err)
		return nil, nil
	}

	return &photo, nil
}
