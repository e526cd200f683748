package classifier

import (
	"context"
	"log/slog"
	"time"
)

// RetryPolicy decides how many times a failed classification call is
// reattempted and how long to wait between attempts. It lives here, at the
// call boundary, so the tournament's batch-failure isolation stays independent
// of how persistent a single call is.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     func(attempt int) time.Duration
}

// DefaultRetryPolicy retries twice with doubling delays.
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts: 3,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(1<<attempt) * 500 * time.Millisecond
		},
	}
}

// Retrying wraps a Classifier with a RetryPolicy.
type Retrying struct {
	inner  Classifier
	policy RetryPolicy
	logger *slog.Logger
}

func WithRetry(inner Classifier, policy RetryPolicy, logger *slog.Logger) *Retrying {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	return &Retrying{inner: inner, policy: policy, logger: logger}
}

func (r *Retrying) ClassifyBatch(ctx context.Context, req Request) ([]Recommendation, error) {
	var lastErr error
	for attempt := 0; attempt < r.policy.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := time.Duration(0)
			if r.policy.Backoff != nil {
				delay = r.policy.Backoff(attempt)
			}
			r.logger.Warn("retrying classification call",
				"attempt", attempt+1,
				"max_attempts", r.policy.MaxAttempts,
				"delay", delay,
				"err", lastErr,
			)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		recs, err := r.inner.ClassifyBatch(ctx, req)
		if err == nil {
			return recs, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

var _ Classifier = (*Retrying)(nil)
