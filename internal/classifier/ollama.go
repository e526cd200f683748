package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/agent-api/core/agent"
)

// OllamaClassifier drives a local vision model through the agent layer.
type OllamaClassifier struct {
	agent  *agent.Agent
	logger *slog.Logger
}

func NewOllamaClassifier(a *agent.Agent, logger *slog.Logger) *OllamaClassifier {
	return &OllamaClassifier{agent: a, logger: logger}
}

// ClassifyBatch sends one batch of candidate frames to the vision model and
// returns its normalized recommendations. The response is only accepted if it
// parses and validates in full.
func (c *OllamaClassifier) ClassifyBatch(ctx context.Context, req Request) ([]Recommendation, error) {
	if len(req.Frames) == 0 {
		return nil, nil
	}

	opts := []agent.RunOptionFunc{
		agent.WithInput(buildPrompt(req)),
	}
	for _, f := range req.Frames {
		// WithImagePath panics on an unreadable file, so check up front.
		if _, err := os.Stat(f.Path); err != nil {
			return nil, fmt.Errorf("frame image for %s: %w", f.FrameID, err)
		}
		opts = append(opts, agent.WithImagePath(f.Path))
	}

	agg, err := c.agent.Run(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("vision model call failed: %w", err)
	}
	last := agg.Pop()
	if last == nil || last.Content == "" {
		return nil, fmt.Errorf("empty response received from model")
	}

	c.logger.Debug("raw classifier response", "content", last.Content)

	recs, err := ParseRecommendations(last.Content, req)
	if err != nil {
		return nil, err
	}
	return recs, nil
}

// buildPrompt renders the per-frame positional metadata and video context the
// system prompt tells the model to expect.
func buildPrompt(req Request) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Video: %s (%.1fs, %dx%d)\n",
		req.Video.Filename, req.Video.DurationSec, req.Video.Width, req.Video.Height)
	fmt.Fprintf(&b, "You are shown %d frames, in order:\n", len(req.Frames))
	for i, f := range req.Frames {
		fmt.Fprintf(&b, "Image %d: frame_id=%s timestamp=%.2fs (candidate %d of %d)\n",
			i+1, f.FrameID, f.TimestampSec, f.SequencePosition+1, f.TotalCandidates)
	}
	b.WriteString("Identify the best frame per product and camera angle. JSON only.")
	return b.String()
}

var _ Classifier = (*OllamaClassifier)(nil)
