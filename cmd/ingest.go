package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/gearloft/bulklister/internal/models"
	"github.com/gearloft/bulklister/internal/report"
	"github.com/gearloft/bulklister/internal/session"
	"github.com/gearloft/bulklister/internal/validate"
	"github.com/gearloft/bulklister/internal/workflow"
)

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".webp": true,
}

func newIngestCmd() *cobra.Command {
	var outputDir string
	var enhanceAll bool
	var concurrency int

	cmd := &cobra.Command{
		Use:   "ingest [dir...]",
		Short: "Run the listing pipeline unattended over directories of photos",
		Long: `Runs the full pipeline over each given directory of photos without
interactive correction: upload, AI grouping (with deterministic fallback),
per-group analysis, validation, and a batch publish of every product whose
required fields and delivery terms the analysis filled in.

Each directory becomes one session and produces one YAML run report.`,
		Example: `  # Ingest one photo directory
  bulklister ingest ./photos/garage-clearout

  # Ingest several directories, three at a time, with background removal
  bulklister ingest --concurrency 3 --enhance ./batch1 ./batch2 ./batch3`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := os.MkdirAll(outputDir, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}

			// Process directories with concurrency control
			var wg sync.WaitGroup
			semaphore := make(chan struct{}, concurrency)
			errs := make(chan error, len(args))

			for _, dir := range args {
				wg.Add(1)
				go func() {
					defer wg.Done()
					semaphore <- struct{}{}        // Acquire
					defer func() { <-semaphore }() // Release

					if err := ingestDir(cmd.Context(), dir, outputDir, enhanceAll); err != nil {
						slog.Error("Ingest failed", "dir", dir, "err", err)
						errs <- fmt.Errorf("%s: %w", dir, err)
					}
				}()
			}
			wg.Wait()
			close(errs)

			failed := 0
			for range errs {
				failed++
			}
			if failed > 0 {
				return fmt.Errorf("%d of %d directories failed", failed, len(args))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outputDir, "output", "o", "reports", "Directory for YAML run reports")
	cmd.Flags().BoolVar(&enhanceAll, "enhance", false, "Run background removal on every product's cover image")
	cmd.Flags().IntVar(&concurrency, "concurrency", 1, "Number of directories to process in parallel")

	return cmd
}

func ingestDir(ctx context.Context, dir, outputDir string, enhanceAll bool) error {
	controller := workflow.New()
	sess := controller.Open(nil)
	defer func() {
		if err := controller.Close(sess); err != nil {
			slog.Warn("Session left open after failed run", "session_id", sess.ID, "err", err)
		}
	}()

	runReport := &report.RunReport{
		BatchID:   sess.BatchID,
		StartedAt: time.Now(),
	}

	stagingDir, err := stageDir(sess, dir)
	if err != nil {
		return err
	}
	defer os.RemoveAll(stagingDir)
	runReport.Photos = len(sess.RawPhotos)
	slog.Info("Staged photos", "dir", dir, "photos", runReport.Photos)

	if err := controller.StartPipeline(ctx, sess); err != nil {
		return err
	}
	runReport.Uploaded = len(sess.Uploaded)
	runReport.Groups = len(sess.Groups)

	if err := controller.FinishAssigning(sess); err != nil {
		return err
	}

	if enhanceAll {
		if err := controller.SelectAllEnhancement(sess); err != nil {
			return err
		}
	}
	if err := controller.RunEnhancement(ctx, sess); err != nil {
		return err
	}

	// Walk straight through review; unattended runs take the analysis
	// output as-is.
	for sess.Stage == session.StageReviewing {
		if err := controller.NextProduct(sess); err != nil {
			return err
		}
	}

	// Created IDs come back in payload order, which is the publishable
	// subset of Products in order.
	var publishable []*models.Product
	for _, p := range sess.Products {
		if !p.IsValid {
			runReport.AddSkipped(p, "missing required fields")
		} else if !validate.Deliverable(p.FormData) {
			runReport.AddSkipped(p, "no delivery option")
		} else {
			publishable = append(publishable, p)
		}
	}

	created, err := controller.Publish(ctx, sess)
	if err != nil {
		runReport.Error = err.Error()
	} else {
		for i, id := range created {
			listing := report.Listing{ID: id}
			if i < len(publishable) {
				listing.Title = publishable[i].FormData.Title
				listing.Price = publishable[i].FormData.Price
			}
			runReport.Created = append(runReport.Created, listing)
		}
	}
	runReport.FinishedAt = time.Now()

	reportPath := filepath.Join(outputDir, filepath.Base(dir)+".yaml")
	if err := runReport.Write(reportPath); err != nil {
		return err
	}
	slog.Info("Run report written", "path", reportPath, "created", len(runReport.Created), "skipped", len(runReport.Skipped))

	if runReport.Error != "" {
		return fmt.Errorf("publish failed: %s", runReport.Error)
	}
	return nil
}

// stageDir copies the directory's images into a session-owned staging
// directory so session cleanup never touches the user's originals.
func stageDir(sess *session.Session, dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read photo directory: %w", err)
	}

	stagingDir, err := os.MkdirTemp("", "bulklister-ingest-")
	if err != nil {
		return "", fmt.Errorf("failed to create staging directory: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !imageExtensions[strings.ToLower(filepath.Ext(entry.Name()))] {
			continue
		}

		src := filepath.Join(dir, entry.Name())
		dst := filepath.Join(stagingDir, entry.Name())
		size, err := copyFile(src, dst)
		if err != nil {
			return "", fmt.Errorf("failed to stage %s: %w", entry.Name(), err)
		}

		sess.AddPhoto(models.RawPhoto{
			Name:        entry.Name(),
			PreviewPath: dst,
			Size:        size,
		})
	}

	if len(sess.RawPhotos) == 0 {
		return stagingDir, fmt.Errorf("no images found in %s", dir)
	}
	return stagingDir, nil
}

func copyFile(src, dst string) (int64, error) {
	in, err := os.Open(src)
	if err != nil {
		return 0, err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return 0, err
	}
	defer out.Close()

	n, err := io.Copy(out, in)
	if err != nil {
		return 0, err
	}
	return n, out.Close()
}
