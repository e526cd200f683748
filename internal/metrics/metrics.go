package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesScoredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shotcurator_frames_scored_total",
		Help: "Total number of frames run through quality scoring",
	})

	ScoringDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "shotcurator_scoring_duration_seconds",
		Help:    "Duration of one full frame-scoring pass",
		Buckets: []float64{0.1, 0.5, 1, 5, 10, 30, 60},
	})

	BatchesDispatchedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "shotcurator_classifier_batches_total",
		Help: "Classifier batches dispatched, by outcome",
	}, []string{"outcome"})

	VariantsDiscoveredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shotcurator_variants_discovered_total",
		Help: "Distinct product/angle variants discovered across all runs",
	})

	UnusableVideosTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "shotcurator_unusable_videos_total",
		Help: "Videos rejected by the strict selection policy",
	})
)
