package config

import (
	"github.com/caarlos0/env/v11"
)

// Config is loaded from the environment; flags on the CLI only cover the
// per-invocation bits (video path, output dir).
type Config struct {
	OllamaBaseURL  string `env:"OLLAMA_BASE_URL"  envDefault:"http://localhost"`
	OllamaPort     int    `env:"OLLAMA_PORT"      envDefault:"11434"`
	VisionModel    string `env:"VISION_MODEL"     envDefault:"llama3.2-vision:11b"`
	EmbeddingModel string `env:"EMBEDDING_MODEL"  envDefault:"nomic-embed-text"`

	FrameIntervalSec int `env:"FRAME_INTERVAL_SEC" envDefault:"2"`
	ScoringWorkers   int `env:"SCORING_WORKERS"    envDefault:"4"`

	ScoreAlpha      float64 `env:"SCORE_ALPHA"       envDefault:"0.5"`
	ScoreMotionNorm float64 `env:"SCORE_MOTION_NORM" envDefault:"255"`

	SelectionPolicy   string  `env:"SELECTION_POLICY"     envDefault:"permissive"`
	TopK              int     `env:"TOP_K"                envDefault:"12"`
	MinTemporalGapSec float64 `env:"MIN_TEMPORAL_GAP_SEC" envDefault:"1.5"`
	MinSharpness      float64 `env:"MIN_SHARPNESS"        envDefault:"4.0"`

	BatchSize        int `env:"CLASSIFIER_BATCH_SIZE"        envDefault:"8"`
	BatchDelayMs     int `env:"CLASSIFIER_BATCH_DELAY_MS"    envDefault:"1000"`
	BatchTimeoutSec  int `env:"CLASSIFIER_BATCH_TIMEOUT_SEC" envDefault:"120"`
	RetryMaxAttempts int `env:"CLASSIFIER_RETRY_ATTEMPTS"    envDefault:"3"`

	// MetricsPort exposes /metrics when non-zero.
	MetricsPort int `env:"METRICS_PORT" envDefault:"0"`

	UsePostgres bool   `env:"USE_POSTGRES" envDefault:"false"`
	PGHost      string `env:"PG_HOST"      envDefault:"localhost"`
	PGPort      string `env:"PG_PORT"      envDefault:"5432"`
	PGUser      string `env:"PG_USER"      envDefault:"shotcurator"`
	PGPassword  string `env:"PG_PASSWORD"  envDefault:"shotcurator"`
	PGDatabase  string `env:"PG_DATABASE"  envDefault:"shotcurator"`
}

func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}
