package quality

import "github.com/bdougie/shotcurator/internal/models"

// lowMotionCutoff is the motion score below which a frame counts as "held
// still", the kind of frame the classifier can actually use.
const lowMotionCutoff = 0.1

// ReporterConfig controls the strict-policy verdict thresholds.
type ReporterConfig struct {
	// MinSharpness is the sharpness a frame needs to be considered in focus.
	MinSharpness float64
	// Strict enables the usability verdict and remediation tips. Permissive
	// runs get statistics only.
	Strict bool
}

// BuildReport summarizes a completed scoring pass. It reads the full scored
// sequence, not just the candidates, and never mutates its input. An empty
// sequence yields a zero report with no tips.
func BuildReport(scored []models.ScoredFrame, cfg ReporterConfig) models.QualityReport {
	report := models.QualityReport{FrameCount: len(scored)}
	if len(scored) == 0 {
		return report
	}

	var sumSharp, sumMotion float64
	for _, f := range scored {
		sumSharp += f.Sharpness
		sumMotion += f.Motion
		if f.Sharpness > report.MaxSharpness {
			report.MaxSharpness = f.Sharpness
		}
		if f.Motion < lowMotionCutoff {
			report.LowMotion++
		}
	}
	report.AvgSharpness = sumSharp / float64(len(scored))
	report.AvgMotion = sumMotion / float64(len(scored))

	if cfg.Strict {
		report.Rating, report.Tips = rate(report, cfg.MinSharpness)
	}
	return report
}

// rate maps the aggregate statistics onto a categorical verdict plus an
// ordered list of remediation tips, one per violated threshold.
func rate(r models.QualityReport, minSharpness float64) (models.Rating, []string) {
	// A quarter of the frames held still is enough for the selector to find
	// temporally diverse candidates.
	stillTarget := r.FrameCount / 4
	if stillTarget < 1 {
		stillTarget = 1
	}

	var tips []string
	if r.AvgSharpness < minSharpness {
		tips = append(tips, "improve lighting and tap to focus on the product before recording")
	}
	if r.LowMotion < stillTarget {
		tips = append(tips, "pause for a second or two at each angle so frames can settle")
	}

	switch {
	case r.MaxSharpness < minSharpness:
		// Not a single usable frame.
		return models.RatingPoor, tips
	case r.AvgSharpness >= 2*minSharpness && r.LowMotion >= stillTarget:
		return models.RatingExcellent, tips
	case r.AvgSharpness >= minSharpness:
		return models.RatingUsable, tips
	default:
		return models.RatingPoor, tips
	}
}
