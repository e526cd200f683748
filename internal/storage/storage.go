package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bdougie/shotcurator/internal/models"
)

// Run is one persisted curation outcome.
type Run struct {
	ID        uuid.UUID             `json:"id"`
	VideoName string                `json:"video_name"`
	Video     models.VideoContext   `json:"video"`
	Report    models.QualityReport  `json:"report"`
	Curated   []models.CuratedFrame `json:"curated"`
	Variants  []VariantRow          `json:"variants"`
	Unusable  bool                  `json:"unusable"`
	CreatedAt time.Time             `json:"created_at"`
}

// VariantRow is one discovered product/angle variant flattened for storage.
// Score and Description are the winning frame's own values from the variant
// table, not aggregates of the frame it points at.
type VariantRow struct {
	ProductID   string  `json:"product_id"`
	AngleID     string  `json:"angle_id"`
	FrameID     string  `json:"frame_id"`
	Timestamp   float64 `json:"timestamp"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

// Store persists curation runs.
type Store interface {
	SaveRun(ctx context.Context, run Run) error
	Close()
}

// JSONStore appends run outcomes to a JSON file next to the extracted
// frames, one file per video.
type JSONStore struct {
	mu        sync.Mutex
	outputDir string
}

func NewJSONStore(outputDir string) *JSONStore {
	return &JSONStore{outputDir: outputDir}
}

func (s *JSONStore) SaveRun(ctx context.Context, run Run) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	resultsFilePath := filepath.Join(s.outputDir, run.VideoName, "curation_results.json")

	var existing []Run
	if data, err := os.ReadFile(resultsFilePath); err == nil {
		if err := json.Unmarshal(data, &existing); err != nil {
			return fmt.Errorf("failed to unmarshal existing results: %w", err)
		}
	}
	existing = append(existing, run)

	dir := filepath.Dir(resultsFilePath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory for results: %w", err)
		}
	}

	file, err := os.Create(resultsFilePath)
	if err != nil {
		return fmt.Errorf("failed to create results file: %w", err)
	}
	defer file.Close()

	if err := json.NewEncoder(file).Encode(existing); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}
	return nil
}

func (s *JSONStore) Close() {}

var _ Store = (*JSONStore)(nil)
