package storage

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bdougie/shotcurator/internal/models"
)

func sampleRun(videoName string) Run {
	return Run{
		ID:        uuid.New(),
		VideoName: videoName,
		Video:     models.VideoContext{Filename: videoName + ".mp4", DurationSec: 12},
		Report: models.QualityReport{
			FrameCount:   6,
			AvgSharpness: 8.5,
			Rating:       models.RatingUsable,
		},
		Curated: []models.CuratedFrame{
			{
				Frame:     models.Frame{ID: "frame_0003", Timestamp: 4},
				Variants:  []models.VariantKey{{ProductID: "p1", AngleID: "hero"}},
				BestScore: 88,
			},
		},
		Variants: []VariantRow{
			{
				ProductID:   "p1",
				AngleID:     "hero",
				FrameID:     "frame_0003",
				Timestamp:   4,
				Score:       88,
				Description: "mug head-on",
			},
		},
		CreatedAt: time.Now().UTC(),
	}
}

func TestJSONStoreSaveRun(t *testing.T) {
	dir := t.TempDir()
	store := NewJSONStore(dir)
	defer store.Close()

	run := sampleRun("demo")
	require.NoError(t, store.SaveRun(context.Background(), run))

	data, err := os.ReadFile(filepath.Join(dir, "demo", "curation_results.json"))
	require.NoError(t, err)

	var saved []Run
	require.NoError(t, json.Unmarshal(data, &saved))
	require.Len(t, saved, 1)
	assert.Equal(t, run.ID, saved[0].ID)
	assert.Equal(t, models.RatingUsable, saved[0].Report.Rating)
	assert.Equal(t, "frame_0003", saved[0].Curated[0].Frame.ID)
	require.Len(t, saved[0].Variants, 1)
	assert.Equal(t, 88.0, saved[0].Variants[0].Score)
	assert.Equal(t, "mug head-on", saved[0].Variants[0].Description)
}

func TestJSONStoreAppendsRuns(t *testing.T) {
	dir := t.TempDir()
	store := NewJSONStore(dir)
	defer store.Close()

	require.NoError(t, store.SaveRun(context.Background(), sampleRun("demo")))
	require.NoError(t, store.SaveRun(context.Background(), sampleRun("demo")))

	data, err := os.ReadFile(filepath.Join(dir, "demo", "curation_results.json"))
	require.NoError(t, err)

	var saved []Run
	require.NoError(t, json.Unmarshal(data, &saved))
	assert.Len(t, saved, 2)
}
