// Package tournament discovers the best representative frame per product and
// camera angle by folding batched classifier calls into a single table where
// the highest score seen so far wins.
package tournament

import (
	"context"
	"log/slog"
	"sort"
	"time"

	"github.com/bdougie/shotcurator/internal/classifier"
	"github.com/bdougie/shotcurator/internal/metrics"
	"github.com/bdougie/shotcurator/internal/models"
)

// Config for one aggregation run.
type Config struct {
	// BatchSize bounds how many images one classifier call may carry.
	BatchSize int
	// BatchDelay is a courtesy pause between consecutive calls, to stay
	// under the model host's rate limits. Not a correctness requirement.
	BatchDelay time.Duration
	// BatchTimeout bounds one classifier call; a timeout counts as a batch
	// failure like any other.
	BatchTimeout time.Duration
}

// Outcome is the finalized result of a run. An empty Curated list with
// FailedBatches == TotalBatches means every batch failed; callers should
// treat that as "no variants discovered", not as fatal.
type Outcome struct {
	Curated       []models.CuratedFrame
	Variants      map[models.VariantKey]models.VariantRecord
	TotalBatches  int
	FailedBatches int
}

// Aggregator drives the batch tournament.
type Aggregator struct {
	classifier classifier.Classifier
	cfg        Config
	logger     *slog.Logger
}

func New(c classifier.Classifier, cfg Config, logger *slog.Logger) *Aggregator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 8
	}
	return &Aggregator{classifier: c, cfg: cfg, logger: logger}
}

// Run partitions the candidates into timestamp-ordered batches, classifies
// them in sequence and folds every batch's recommendations into the variant
// table. A failed batch is logged and dropped; the fold carries on. The table
// is owned by this call and scoped to it, never shared across runs.
func (a *Aggregator) Run(ctx context.Context, candidates []models.ScoredFrame, video models.VideoContext) Outcome {
	batches := partition(candidates, a.cfg.BatchSize)

	table := make(map[models.VariantKey]models.VariantRecord)
	failed := 0

	for i, batch := range batches {
		if i > 0 && a.cfg.BatchDelay > 0 {
			select {
			case <-time.After(a.cfg.BatchDelay):
			case <-ctx.Done():
			}
		}
		if ctx.Err() != nil {
			a.logError(i, batch, ctx.Err())
			failed++
			continue
		}

		recs, err := a.classifyBatch(ctx, batch, len(candidates), video)
		if err != nil {
			a.logError(i, batch, err)
			metrics.BatchesDispatchedTotal.WithLabelValues("failed").Inc()
			failed++
			continue
		}
		metrics.BatchesDispatchedTotal.WithLabelValues("ok").Inc()

		table = mergeBatch(table, recs)
	}

	curated := finalize(table, candidates)
	metrics.VariantsDiscoveredTotal.Add(float64(len(table)))

	a.logger.Info("tournament finished",
		"batches", len(batches),
		"failed_batches", failed,
		"variants", len(table),
		"curated_frames", len(curated),
	)

	return Outcome{
		Curated:       curated,
		Variants:      table,
		TotalBatches:  len(batches),
		FailedBatches: failed,
	}
}

func (a *Aggregator) classifyBatch(ctx context.Context, batch []models.ScoredFrame, total int, video models.VideoContext) ([]classifier.Recommendation, error) {
	if a.cfg.BatchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.cfg.BatchTimeout)
		defer cancel()
	}

	req := classifier.Request{Video: video}
	for _, f := range batch {
		req.Frames = append(req.Frames, classifier.BatchFrame{
			FrameID:          f.ID,
			TimestampSec:     f.Timestamp,
			SequencePosition: len(req.Frames),
			TotalCandidates:  total,
			Path:             framePath(f),
		})
	}
	return a.classifier.ClassifyBatch(ctx, req)
}

func (a *Aggregator) logError(batchIdx int, batch []models.ScoredFrame, err error) {
	ids := make([]string, len(batch))
	for i, f := range batch {
		ids[i] = f.ID
	}
	a.logger.Error("batch classification failed, discarding batch",
		"batch", batchIdx,
		"frames", ids,
		"err", err,
	)
}

// partition splits candidates into batches of at most size frames, keeping
// timestamp order within and across batches.
func partition(candidates []models.ScoredFrame, size int) [][]models.ScoredFrame {
	var batches [][]models.ScoredFrame
	for start := 0; start < len(candidates); start += size {
		end := start + size
		if end > len(candidates) {
			end = len(candidates)
		}
		batches = append(batches, candidates[start:end])
	}
	return batches
}

// mergeBatch folds one batch's recommendations into the table. A new score
// replaces a stored record only when strictly greater, so on an exact tie the
// earlier batch's frame stays. That asymmetry is deliberate: batches are
// processed in formation order, making tie outcomes deterministic.
func mergeBatch(table map[models.VariantKey]models.VariantRecord, recs []classifier.Recommendation) map[models.VariantKey]models.VariantRecord {
	for _, rec := range recs {
		if rec.FrameID == "" {
			// "No suitable frame in this batch" for that product/angle.
			continue
		}
		key := models.VariantKey{ProductID: rec.ProductID, AngleID: rec.AngleID}
		current, exists := table[key]
		if !exists || rec.Score > current.Score {
			table[key] = models.VariantRecord{
				FrameID:     rec.FrameID,
				Score:       rec.Score,
				Description: rec.Description,
			}
		}
	}
	return table
}

// finalize collapses the variant table into the deduplicated output list. One
// physical frame often wins several variants (a single image can be both
// "hero" and "front"); it is emitted once, carrying all of its labels.
func finalize(table map[models.VariantKey]models.VariantRecord, candidates []models.ScoredFrame) []models.CuratedFrame {
	frames := make(map[string]models.Frame, len(candidates))
	for _, f := range candidates {
		frames[f.ID] = f.Frame
	}

	byFrame := make(map[string]*models.CuratedFrame)
	for key, rec := range table {
		cf, ok := byFrame[rec.FrameID]
		if !ok {
			frame := frames[rec.FrameID]
			cf = &models.CuratedFrame{Frame: frame}
			byFrame[rec.FrameID] = cf
		}
		cf.Variants = append(cf.Variants, key)
		if rec.Score > cf.BestScore {
			cf.BestScore = rec.Score
		}
	}

	curated := make([]models.CuratedFrame, 0, len(byFrame))
	for _, cf := range byFrame {
		sort.Slice(cf.Variants, func(i, j int) bool {
			return cf.Variants[i].String() < cf.Variants[j].String()
		})
		curated = append(curated, *cf)
	}
	sort.Slice(curated, func(i, j int) bool {
		return curated[i].Frame.Timestamp < curated[j].Frame.Timestamp
	})
	return curated
}

func framePath(f models.ScoredFrame) string {
	if f.Pixels == nil {
		return ""
	}
	return f.Pixels.Path()
}
