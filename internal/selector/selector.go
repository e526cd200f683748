// Package selector reduces a scored frame sequence to a small candidate set
// with temporal diversity, bounded by top-k.
package selector

import (
	"log/slog"
	"sort"

	"github.com/bdougie/shotcurator/internal/models"
)

// Policy picks how eligibility is decided before ranking.
type Policy string

const (
	// PolicyStrict drops frames below the sharpness threshold entirely and
	// can declare a video unusable when nothing passes.
	PolicyStrict Policy = "strict"
	// PolicyPermissive considers every frame and always yields candidates
	// for non-empty input.
	PolicyPermissive Policy = "permissive"
)

// Config for one selection pass.
type Config struct {
	Policy         Policy
	TopK           int
	MinTemporalGap float64
	// MinSharpness gates eligibility under PolicyStrict; ignored otherwise.
	MinSharpness float64
}

// Result is the outcome of a selection pass. Candidates are ordered by
// timestamp ascending. Unusable is only ever true under PolicyStrict.
type Result struct {
	Candidates []models.ScoredFrame
	// Relaxed is true when the temporal-gap constraint had to be waived to
	// fill the candidate set.
	Relaxed  bool
	Unusable bool
}

// Select runs the greedy temporally-diverse selection over a scored sequence.
func Select(scored []models.ScoredFrame, cfg Config, logger *slog.Logger) Result {
	eligible := make([]models.ScoredFrame, 0, len(scored))
	for _, f := range scored {
		if cfg.Policy == PolicyStrict && f.Sharpness < cfg.MinSharpness {
			continue
		}
		eligible = append(eligible, f)
	}

	if len(eligible) == 0 {
		if cfg.Policy == PolicyStrict && len(scored) > 0 {
			logger.Warn("no frame meets the sharpness threshold, video unusable",
				"threshold", cfg.MinSharpness,
				"frames", len(scored),
			)
			return Result{Unusable: true}
		}
		return Result{}
	}

	if cfg.TopK >= len(eligible) {
		// Everything fits, no need to rank.
		return Result{Candidates: byTimestamp(eligible)}
	}

	ranked := make([]models.ScoredFrame, len(eligible))
	copy(ranked, eligible)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Combined > ranked[j].Combined
	})

	accepted := make([]models.ScoredFrame, 0, cfg.TopK)
	taken := make(map[string]bool, cfg.TopK)
	for _, f := range ranked {
		if len(accepted) == cfg.TopK {
			break
		}
		if farEnough(f.Timestamp, accepted, cfg.MinTemporalGap) {
			accepted = append(accepted, f)
			taken[f.ID] = true
		}
	}

	relaxed := false
	if len(accepted) < cfg.TopK {
		// Not enough temporally spread frames; admit the best of the rest
		// regardless of clustering.
		relaxed = true
		for _, f := range ranked {
			if len(accepted) == cfg.TopK {
				break
			}
			if !taken[f.ID] {
				accepted = append(accepted, f)
				taken[f.ID] = true
			}
		}
		logger.Debug("temporal gap relaxed to fill candidate set",
			"gap", cfg.MinTemporalGap,
			"selected", len(accepted),
		)
	}

	return Result{Candidates: byTimestamp(accepted), Relaxed: relaxed}
}

func farEnough(ts float64, accepted []models.ScoredFrame, gap float64) bool {
	for _, a := range accepted {
		d := ts - a.Timestamp
		if d < 0 {
			d = -d
		}
		if d < gap {
			return false
		}
	}
	return true
}

func byTimestamp(frames []models.ScoredFrame) []models.ScoredFrame {
	sort.SliceStable(frames, func(i, j int) bool {
		return frames[i].Timestamp < frames[j].Timestamp
	})
	return frames
}
