package classifier

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/agent-api/core"
	"github.com/agent-api/core/agent"
	"github.com/agent-api/core/agent/bootstrap"
	"github.com/agent-api/ollama"
	"github.com/go-logr/logr"
)

const systemPrompt = `You are a product photography curator. You are shown frames sampled from a handheld product video. Identify every distinct product and, for each product, every distinct camera angle (e.g. hero, front, back, side, top, detail). For each product/angle pair pick the single frame that would work best as an e-commerce reference image, judging focus, framing and how fully the product is visible. Respond with JSON only, no prose, in the shape:
{"recommended_shots":[{"product_id":"...","angle_id":"...","frame_id":"..."|null,"score":0-100,"description":"...","reason":"..."}]}
Use a frame_id of null when no shown frame suits a product/angle pair.`

// AgentConfig holds the Ollama connection settings for the vision agent.
type AgentConfig struct {
	BaseURL string
	Port    int
	Model   string
}

// NewVisionAgent initializes the vision agent backing the classifier.
func NewVisionAgent(ctx context.Context, cfg AgentConfig, logger *slog.Logger) (*agent.Agent, error) {
	// Check that Ollama is reachable before wiring the whole pipeline to it.
	resp, err := http.Get(fmt.Sprintf("%s:%d/api/tags", cfg.BaseURL, cfg.Port))
	if err != nil {
		return nil, fmt.Errorf("ollama is not reachable at %s:%d: %w", cfg.BaseURL, cfg.Port, err)
	}
	resp.Body.Close()

	// The agent layer logs through logr; bridge the application slog handler.
	agentLogger := logr.FromSlogHandler(logger.Handler())

	provider := ollama.NewProvider(&ollama.ProviderOpts{
		Logger:  &agentLogger,
		BaseURL: cfg.BaseURL,
		Port:    cfg.Port,
	})

	if err := provider.UseModel(ctx, &core.Model{ID: cfg.Model}); err != nil {
		return nil, fmt.Errorf("selecting vision model %q: %w", cfg.Model, err)
	}

	return agent.NewAgent(
		bootstrap.WithProvider(provider),
		bootstrap.WithLogger(&agentLogger),
		bootstrap.WithSystemPrompt(systemPrompt),
	)
}
