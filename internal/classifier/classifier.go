// Package classifier wraps the external vision model that inspects candidate
// frames and recommends the best shot per product and camera angle.
package classifier

import (
	"context"

	"github.com/bdougie/shotcurator/internal/models"
)

// BatchFrame is one candidate frame plus the positional metadata the model
// needs to reference it back unambiguously.
type BatchFrame struct {
	FrameID          string
	TimestampSec     float64
	SequencePosition int
	TotalCandidates  int
	Path             string
}

// Request is one batched classification call.
type Request struct {
	Frames []BatchFrame
	Video  models.VideoContext
}

// Recommendation is the canonical, already-normalized form of one
// recommended shot. FrameID is empty when the model found no suitable frame
// for the product/angle in this batch; that is an answer, not an error.
type Recommendation struct {
	ProductID   string
	AngleID     string
	FrameID     string
	Score       float64
	Description string
	Reason      string
}

// Classifier is the remote vision model collaborator. Implementations must
// return either a fully parsed, schema-valid recommendation list or an
// error; partial results are never surfaced.
type Classifier interface {
	ClassifyBatch(ctx context.Context, req Request) ([]Recommendation, error)
}
