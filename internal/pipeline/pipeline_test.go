package pipeline

import (
	"context"
	"errors"
	"image"
	"image/color"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bdougie/shotcurator/internal/classifier"
	"github.com/bdougie/shotcurator/internal/models"
	"github.com/bdougie/shotcurator/internal/quality"
	"github.com/bdougie/shotcurator/internal/selector"
	"github.com/bdougie/shotcurator/internal/storage"
	"github.com/bdougie/shotcurator/internal/tournament"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type memSource struct {
	img image.Image
}

func (s *memSource) Image() (image.Image, error) { return s.img, nil }
func (s *memSource) Path() string                { return "mem" }

func sharpImage() image.Image {
	img := image.NewGray(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if (x+y)%2 == 0 {
				img.SetGray(x, y, color.Gray{Y: 255})
			}
		}
	}
	return img
}

func blurryImage() image.Image {
	return image.NewGray(image.Rect(0, 0, 16, 16))
}

type stubSource struct {
	frames []models.Frame
}

func (s *stubSource) ExtractFrames(ctx context.Context, videoPath, outputDir string) ([]models.Frame, models.VideoContext, error) {
	return s.frames, models.VideoContext{Filename: "demo.mp4", DurationSec: 8}, nil
}

type stubClassifier struct {
	recs []classifier.Recommendation
	err  error
}

func (s *stubClassifier) ClassifyBatch(ctx context.Context, req classifier.Request) ([]classifier.Recommendation, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.recs, nil
}

type recordingStore struct {
	runs []storage.Run
}

func (s *recordingStore) SaveRun(ctx context.Context, run storage.Run) error {
	s.runs = append(s.runs, run)
	return nil
}

func (s *recordingStore) Close() {}

func buildPipeline(src FrameSource, clf classifier.Classifier, store storage.Store, policy selector.Policy) *Pipeline {
	return New(
		src,
		quality.NewScorer(quality.ScorerConfig{Alpha: 0.5, MotionNorm: 255, Workers: 2}, testLogger()),
		tournament.New(clf, tournament.Config{BatchSize: 4}, testLogger()),
		store,
		Config{
			Selection: selector.Config{
				Policy:         policy,
				TopK:           4,
				MinTemporalGap: 0.5,
				MinSharpness:   4,
			},
			Reporter: quality.ReporterConfig{
				MinSharpness: 4,
				Strict:       policy == selector.PolicyStrict,
			},
		},
		testLogger(),
	)
}

func sharpFrames(n int) []models.Frame {
	frames := make([]models.Frame, n)
	for i := range frames {
		frames[i] = models.Frame{
			ID:        "frame_000" + string(rune('1'+i)),
			Timestamp: float64(i) * 2,
			Pixels:    &memSource{img: sharpImage()},
		}
	}
	return frames
}

func TestPipelineHappyPath(t *testing.T) {
	store := &recordingStore{}
	clf := &stubClassifier{recs: []classifier.Recommendation{
		{ProductID: "p1", AngleID: "hero", FrameID: "frame_0001", Score: 92, Description: "mug"},
	}}

	p := buildPipeline(&stubSource{frames: sharpFrames(3)}, clf, store, selector.PolicyPermissive)
	result, err := p.Run(context.Background(), "demo.mp4", t.TempDir())
	require.NoError(t, err)

	assert.False(t, result.Unusable)
	assert.Len(t, result.Candidates, 3)
	require.Len(t, result.Outcome.Curated, 1)
	assert.Equal(t, "frame_0001", result.Outcome.Curated[0].Frame.ID)

	require.Len(t, store.runs, 1)
	assert.Equal(t, result.RunID, store.runs[0].ID)
	assert.Equal(t, "demo", store.runs[0].VideoName)
}

func TestPipelinePersistsPerVariantScores(t *testing.T) {
	store := &recordingStore{}
	clf := &stubClassifier{recs: []classifier.Recommendation{
		{ProductID: "p1", AngleID: "hero", FrameID: "frame_0001", Score: 92, Description: "mug head-on"},
		{ProductID: "p1", AngleID: "side", FrameID: "frame_0001", Score: 70, Description: "mug from the side"},
	}}

	p := buildPipeline(&stubSource{frames: sharpFrames(3)}, clf, store, selector.PolicyPermissive)
	result, err := p.Run(context.Background(), "demo.mp4", t.TempDir())
	require.NoError(t, err)

	// Both variants share one curated frame, so the frame's best score alone
	// cannot stand in for either row.
	require.Len(t, result.Outcome.Curated, 1)

	require.Len(t, store.runs, 1)
	rows := store.runs[0].Variants
	require.Len(t, rows, 2)

	assert.Equal(t, "hero", rows[0].AngleID)
	assert.Equal(t, 92.0, rows[0].Score)
	assert.Equal(t, "mug head-on", rows[0].Description)

	assert.Equal(t, "side", rows[1].AngleID)
	assert.Equal(t, 70.0, rows[1].Score)
	assert.Equal(t, "mug from the side", rows[1].Description)

	for _, row := range rows {
		assert.Equal(t, "frame_0001", row.FrameID)
		assert.Equal(t, 0.0, row.Timestamp)
	}
}

func TestPipelineStrictUnusableShortCircuits(t *testing.T) {
	store := &recordingStore{}
	clf := &stubClassifier{err: errors.New("classifier must not be called")}

	blurry := make([]models.Frame, 3)
	for i := range blurry {
		blurry[i] = models.Frame{
			ID:        "frame_000" + string(rune('1'+i)),
			Timestamp: float64(i) * 2,
			Pixels:    &memSource{img: blurryImage()},
		}
	}

	p := buildPipeline(&stubSource{frames: blurry}, clf, store, selector.PolicyStrict)
	result, err := p.Run(context.Background(), "demo.mp4", t.TempDir())
	require.NoError(t, err)

	assert.True(t, result.Unusable)
	assert.Equal(t, models.RatingPoor, result.Report.Rating)
	assert.NotEmpty(t, result.Report.Tips)
	assert.Empty(t, result.Candidates)
	assert.Empty(t, result.Outcome.Curated)

	require.Len(t, store.runs, 1, "unusable runs are still recorded")
	assert.True(t, store.runs[0].Unusable)
}

func TestPipelineDegradesWhenClassifierDown(t *testing.T) {
	store := &recordingStore{}
	clf := &stubClassifier{err: errors.New("model host unreachable")}

	p := buildPipeline(&stubSource{frames: sharpFrames(3)}, clf, store, selector.PolicyPermissive)
	result, err := p.Run(context.Background(), "demo.mp4", t.TempDir())
	require.NoError(t, err, "classifier failure degrades, it does not abort")

	assert.Len(t, result.Candidates, 3, "raw candidates remain available as fallback")
	assert.Empty(t, result.Outcome.Variants)
	assert.Equal(t, result.Outcome.TotalBatches, result.Outcome.FailedBatches)
}
