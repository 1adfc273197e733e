// Package report renders a YAML summary of an ingest run.
package report

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/gearloft/bulklister/internal/models"
)

// Listing is one created listing in the report.
type Listing struct {
	ID    string `yaml:"id"`
	Title string `yaml:"title"`
	Price int    `yaml:"price"`
}

// Skipped is one product that was not published, with the reason.
type Skipped struct {
	Title  string `yaml:"title"`
	Reason string `yaml:"reason"`
}

// RunReport summarizes one ingest run.
type RunReport struct {
	BatchID    string    `yaml:"batch_id"`
	StartedAt  time.Time `yaml:"started_at"`
	FinishedAt time.Time `yaml:"finished_at"`
	Photos     int       `yaml:"photos"`
	Uploaded   int       `yaml:"uploaded"`
	Groups     int       `yaml:"groups"`
	Created    []Listing `yaml:"created"`
	Skipped    []Skipped `yaml:"skipped,omitempty"`
	Error      string    `yaml:"error,omitempty"`
}

// AddSkipped records a product left unpublished.
func (r *RunReport) AddSkipped(p *models.Product, reason string) {
	title := p.FormData.Title
	if title == "" {
		title = p.SuggestedName
	}
	r.Skipped = append(r.Skipped, Skipped{Title: title, Reason: reason})
}

// Write renders the report to path as YAML.
func (r *RunReport) Write(path string) error {
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal report: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	return nil
}
