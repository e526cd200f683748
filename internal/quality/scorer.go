package quality

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bdougie/shotcurator/internal/metrics"
	"github.com/bdougie/shotcurator/internal/models"
)

const defaultWorkers = 4

// ScorerConfig tunes how raw metrics combine into a ranking score.
type ScorerConfig struct {
	// Alpha weights the motion penalty against sharpness.
	Alpha float64
	// MotionNorm scales the [0,1] motion score back into the same range as
	// sharpness before the penalty is applied.
	MotionNorm float64
	// Workers bounds the pool reading and scoring frames concurrently.
	Workers int
}

// Scorer turns an ordered frame sequence into an equally ordered
// ScoredFrame sequence.
type Scorer struct {
	cfg    ScorerConfig
	logger *slog.Logger
}

func NewScorer(cfg ScorerConfig, logger *slog.Logger) *Scorer {
	if cfg.Workers <= 0 {
		cfg.Workers = defaultWorkers
	}
	return &Scorer{cfg: cfg, logger: logger}
}

// Score computes sharpness, motion and the combined ranking score for every
// frame. The motion of frame i pairs frames i-1 and i, so pairing is fixed by
// input order, but no frame's metrics depend on another frame's derived
// score. That makes each index an independent unit of work for the pool.
func (s *Scorer) Score(ctx context.Context, frames []models.Frame) []models.ScoredFrame {
	if len(frames) == 0 {
		return nil
	}

	start := time.Now()
	scored := make([]models.ScoredFrame, len(frames))

	workChan := make(chan int, len(frames))
	var wg sync.WaitGroup

	remaining := atomic.Int64{}
	remaining.Store(int64(len(frames)))

	for w := 0; w < s.cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range workChan {
				if ctx.Err() != nil {
					continue
				}
				frame := frames[i]

				var prev models.PixelSource
				if i > 0 {
					prev = frames[i-1].Pixels
				}

				sharpness := Sharpness(frame.Pixels)
				motion := Motion(prev, frame.Pixels)

				scored[i] = models.ScoredFrame{
					Frame:     frame,
					Sharpness: sharpness,
					Motion:    motion,
					Combined:  sharpness - s.cfg.Alpha*motion*s.cfg.MotionNorm,
				}

				left := remaining.Add(-1)
				s.logger.Debug("scored frame",
					"frame", frame.ID,
					"sharpness", sharpness,
					"motion", motion,
					"remaining", left,
				)
			}
		}()
	}

	for i := range frames {
		workChan <- i
	}
	close(workChan)
	wg.Wait()

	metrics.FramesScoredTotal.Add(float64(len(frames)))
	metrics.ScoringDuration.Observe(time.Since(start).Seconds())

	return scored
}
