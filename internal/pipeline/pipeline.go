// Package pipeline wires extraction, scoring, selection, reporting and the
// variant tournament into one run over a single video.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/bdougie/shotcurator/internal/metrics"
	"github.com/bdougie/shotcurator/internal/models"
	"github.com/bdougie/shotcurator/internal/quality"
	"github.com/bdougie/shotcurator/internal/selector"
	"github.com/bdougie/shotcurator/internal/storage"
	"github.com/bdougie/shotcurator/internal/tournament"
)

// Config collects the per-run tunables of the downstream stages.
type Config struct {
	Selection selector.Config
	Reporter  quality.ReporterConfig
}

// Result of one full pipeline run.
//
// A run moves through fixed stages: scored, then either unusable (strict
// policy only, terminal) or candidates selected, batches dispatched, variants
// aggregated, finalized. Unusable results carry the report and nothing else.
type Result struct {
	RunID      uuid.UUID
	Video      models.VideoContext
	Report     models.QualityReport
	Candidates []models.ScoredFrame
	Outcome    tournament.Outcome
	Unusable   bool
}

// FrameSource produces the ordered, timestamped frame sequence for a video.
// The ffmpeg extractor is the production implementation.
type FrameSource interface {
	ExtractFrames(ctx context.Context, videoPath, outputDir string) ([]models.Frame, models.VideoContext, error)
}

type Pipeline struct {
	extractor  FrameSource
	scorer     *quality.Scorer
	aggregator *tournament.Aggregator
	store      storage.Store
	cfg        Config
	logger     *slog.Logger
}

func New(
	ex FrameSource,
	scorer *quality.Scorer,
	aggregator *tournament.Aggregator,
	store storage.Store,
	cfg Config,
	logger *slog.Logger,
) *Pipeline {
	return &Pipeline{
		extractor:  ex,
		scorer:     scorer,
		aggregator: aggregator,
		store:      store,
		cfg:        cfg,
		logger:     logger,
	}
}

// Run curates one video end to end and persists the outcome.
func (p *Pipeline) Run(ctx context.Context, videoPath, outputDir string) (*Result, error) {
	p.logger.Info("processing video", "video", videoPath)

	frames, vctx, err := p.extractor.ExtractFrames(ctx, videoPath, outputDir)
	if err != nil {
		return nil, err
	}
	if len(frames) == 0 {
		return nil, fmt.Errorf("no frames found for video '%s'", videoPath)
	}

	scored := p.scorer.Score(ctx, frames)
	report := quality.BuildReport(scored, p.cfg.Reporter)

	result := &Result{
		RunID:  uuid.New(),
		Video:  vctx,
		Report: report,
	}

	sel := selector.Select(scored, p.cfg.Selection, p.logger)
	if sel.Unusable {
		metrics.UnusableVideosTotal.Inc()
		result.Unusable = true
		if err := p.persist(ctx, videoPath, result); err != nil {
			p.logger.Error("failed to persist unusable run", "err", err)
		}
		return result, nil
	}
	result.Candidates = sel.Candidates

	p.logger.Info("candidates selected",
		"candidates", len(sel.Candidates),
		"relaxed", sel.Relaxed,
		"rating", report.Rating,
	)

	result.Outcome = p.aggregator.Run(ctx, sel.Candidates, vctx)

	if err := p.persist(ctx, videoPath, result); err != nil {
		p.logger.Error("failed to persist run", "err", err)
	}
	return result, nil
}

func (p *Pipeline) persist(ctx context.Context, videoPath string, result *Result) error {
	if p.store == nil {
		return nil
	}
	run := storage.Run{
		ID:        result.RunID,
		VideoName: strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath)),
		Video:     result.Video,
		Report:    result.Report,
		Curated:   result.Outcome.Curated,
		Variants:  variantRows(result.Outcome),
		Unusable:  result.Unusable,
		CreatedAt: time.Now().UTC(),
	}
	return p.store.SaveRun(ctx, run)
}

// variantRows flattens the tournament's variant table for storage, keeping
// each variant's own winning score and model description.
func variantRows(outcome tournament.Outcome) []storage.VariantRow {
	if len(outcome.Variants) == 0 {
		return nil
	}

	timestamps := make(map[string]float64, len(outcome.Curated))
	for _, cf := range outcome.Curated {
		timestamps[cf.Frame.ID] = cf.Frame.Timestamp
	}

	rows := make([]storage.VariantRow, 0, len(outcome.Variants))
	for key, rec := range outcome.Variants {
		rows = append(rows, storage.VariantRow{
			ProductID:   key.ProductID,
			AngleID:     key.AngleID,
			FrameID:     rec.FrameID,
			Timestamp:   timestamps[rec.FrameID],
			Score:       rec.Score,
			Description: rec.Description,
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ProductID != rows[j].ProductID {
			return rows[i].ProductID < rows[j].ProductID
		}
		return rows[i].AngleID < rows[j].AngleID
	})
	return rows
}
