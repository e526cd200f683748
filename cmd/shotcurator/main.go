package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"log/slog"

	"github.com/lmittmann/tint"

	"github.com/bdougie/shotcurator/internal/classifier"
	"github.com/bdougie/shotcurator/internal/config"
	"github.com/bdougie/shotcurator/internal/embeddings"
	"github.com/bdougie/shotcurator/internal/extractor"
	"github.com/bdougie/shotcurator/internal/metrics"
	"github.com/bdougie/shotcurator/internal/pipeline"
	"github.com/bdougie/shotcurator/internal/quality"
	"github.com/bdougie/shotcurator/internal/selector"
	"github.com/bdougie/shotcurator/internal/storage"
	"github.com/bdougie/shotcurator/internal/tournament"
)

func main() {
	ctx := context.Background()

	// Configure logger
	logger := slog.New(
		tint.NewHandler(os.Stderr, &tint.Options{
			Level:      slog.LevelDebug,
			TimeFormat: "15:04:05",
		}),
	)

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Parse command line arguments
	videoPath := ""
	outputDir := "output_frames"

	for i := 1; i < len(os.Args); i++ {
		switch os.Args[i] {
		case "--video":
			if i+1 < len(os.Args) {
				videoPath = os.Args[i+1]
				i++
			}
		case "--output":
			if i+1 < len(os.Args) {
				outputDir = os.Args[i+1]
				i++
			}
		}
	}

	if videoPath == "" {
		fmt.Println("Usage: shotcurator --video path/to/video.mp4 [--output output_directory]")
		os.Exit(1)
	}

	if cfg.MetricsPort > 0 {
		metrics.StartServer(cfg.MetricsPort, logger)
	}

	store, cleanup, err := buildStore(ctx, cfg, outputDir, logger)
	if err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}
	defer cleanup()

	visionAgent, err := classifier.NewVisionAgent(ctx, classifier.AgentConfig{
		BaseURL: cfg.OllamaBaseURL,
		Port:    cfg.OllamaPort,
		Model:   cfg.VisionModel,
	}, logger)
	if err != nil {
		log.Fatalf("Failed to initialize vision agent: %v", err)
	}

	var clf classifier.Classifier = classifier.NewOllamaClassifier(visionAgent, logger)
	clf = classifier.WithRetry(clf, classifier.RetryPolicy{
		MaxAttempts: cfg.RetryMaxAttempts,
		Backoff:     classifier.DefaultRetryPolicy().Backoff,
	}, logger)

	policy := selector.PolicyPermissive
	if cfg.SelectionPolicy == string(selector.PolicyStrict) {
		policy = selector.PolicyStrict
	}

	p := pipeline.New(
		extractor.New(cfg.FrameIntervalSec, logger),
		quality.NewScorer(quality.ScorerConfig{
			Alpha:      cfg.ScoreAlpha,
			MotionNorm: cfg.ScoreMotionNorm,
			Workers:    cfg.ScoringWorkers,
		}, logger),
		tournament.New(clf, tournament.Config{
			BatchSize:    cfg.BatchSize,
			BatchDelay:   time.Duration(cfg.BatchDelayMs) * time.Millisecond,
			BatchTimeout: time.Duration(cfg.BatchTimeoutSec) * time.Second,
		}, logger),
		store,
		pipeline.Config{
			Selection: selector.Config{
				Policy:         policy,
				TopK:           cfg.TopK,
				MinTemporalGap: cfg.MinTemporalGapSec,
				MinSharpness:   cfg.MinSharpness,
			},
			Reporter: quality.ReporterConfig{
				MinSharpness: cfg.MinSharpness,
				Strict:       policy == selector.PolicyStrict,
			},
		},
		logger,
	)

	fmt.Printf("Starting video curation...\n")
	result, err := p.Run(ctx, videoPath, outputDir)
	if err != nil {
		log.Printf("Error processing video: %v", err)
		os.Exit(1)
	}

	if result.Unusable {
		fmt.Println("Video rated unusable:")
		for _, tip := range result.Report.Tips {
			fmt.Printf("  - %s\n", tip)
		}
		os.Exit(2)
	}

	fmt.Printf("Discovered %d variants across %d frames (rating: %s)\n",
		len(result.Outcome.Variants), len(result.Outcome.Curated), result.Report.Rating)
	for _, cf := range result.Outcome.Curated {
		fmt.Printf("  %s @ %.1fs:", cf.Frame.ID, cf.Frame.Timestamp)
		for _, v := range cf.Variants {
			fmt.Printf(" %s", v)
		}
		fmt.Println()
	}
}

func buildStore(ctx context.Context, cfg *config.Config, outputDir string, logger *slog.Logger) (storage.Store, func(), error) {
	if !cfg.UsePostgres {
		return storage.NewJSONStore(outputDir), func() {}, nil
	}

	pgConf := storage.PostgresConfig{
		Host:     cfg.PGHost,
		Port:     cfg.PGPort,
		User:     cfg.PGUser,
		Password: cfg.PGPassword,
		DBName:   cfg.PGDatabase,
	}
	if err := storage.InitSchema(ctx, pgConf); err != nil {
		return nil, nil, err
	}

	embedder := embeddings.NewService(
		fmt.Sprintf("%s:%d", cfg.OllamaBaseURL, cfg.OllamaPort),
		cfg.EmbeddingModel,
		4,
	)
	store, err := storage.NewPostgresStore(ctx, pgConf, embedder, logger)
	if err != nil {
		embedder.Close()
		return nil, nil, err
	}
	return store, func() {
		store.Close()
		embedder.Close()
	}, nil
}
