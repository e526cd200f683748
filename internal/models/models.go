package models

import "image"

// PixelSource is an opaque handle to a frame's raster data. The extraction
// collaborator owns the underlying bytes; the scoring pipeline only reads.
type PixelSource interface {
	// Image decodes and returns the frame's raster data.
	Image() (image.Image, error)
	// Path returns the on-disk location of the frame, for handing to the
	// vision classifier.
	Path() string
}

// Frame is one sampled video image.
type Frame struct {
	ID        string      `json:"frame_id"`
	Timestamp float64     `json:"timestamp"`
	Pixels    PixelSource `json:"-"`
}

// ScoredFrame is a Frame plus its derived quality metrics.
type ScoredFrame struct {
	Frame
	Sharpness float64
	Motion    float64
	Combined  float64
}

// VariantKey identifies a discovered product+angle combination. Both parts
// are opaque strings assigned by the classifier.
type VariantKey struct {
	ProductID string `json:"product_id"`
	AngleID   string `json:"angle_id"`
}

func (k VariantKey) String() string {
	return k.ProductID + "/" + k.AngleID
}

// VariantRecord is the current best frame for a VariantKey. At most one
// record exists per key; its score only ever increases as batches merge.
type VariantRecord struct {
	FrameID     string  `json:"frame_id"`
	Score       float64 `json:"score"`
	Description string  `json:"description"`
}

// CuratedFrame is one entry of the final deduplicated output: a unique frame
// together with every variant it represents.
type CuratedFrame struct {
	Frame     Frame        `json:"frame"`
	Variants  []VariantKey `json:"variants"`
	BestScore float64      `json:"best_score"`
}

// VideoContext describes the source video, passed along to the classifier.
type VideoContext struct {
	Filename    string  `json:"filename"`
	DurationSec float64 `json:"duration_sec"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
}

// Rating is the strict-policy usability verdict of a scored video.
type Rating string

const (
	RatingExcellent Rating = "excellent"
	RatingUsable    Rating = "usable"
	RatingPoor      Rating = "poor"
)

// QualityReport summarizes scoring statistics for a whole video.
type QualityReport struct {
	FrameCount   int      `json:"frame_count"`
	AvgSharpness float64  `json:"avg_sharpness"`
	MaxSharpness float64  `json:"max_sharpness"`
	AvgMotion    float64  `json:"avg_motion"`
	LowMotion    int      `json:"low_motion_frames"`
	Rating       Rating   `json:"rating,omitempty"`
	Tips         []string `json:"tips,omitempty"`
}

// Usable reports whether the video passed the strict-policy gate.
func (r QualityReport) Usable() bool {
	return r.Rating != RatingPoor
}

// FrameSearchResult is one hit from a similarity search over stored
// variant descriptions.
type FrameSearchResult struct {
	FrameID     string
	ProductID   string
	AngleID     string
	Description string
	Similarity  float64
}
