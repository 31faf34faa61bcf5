package embedder

import (
	"context"
	"time"
)

// Retry defaults for provider API calls
const (
	MaxRetries        = 3
	initialBackoff    = 100 * time.Millisecond
	maxBackoff        = 5 * time.Second
	backoffMultiplier = 2.0
)

// RetryConfig configures exponential backoff for provider calls
type RetryConfig struct {
	MaxRetries int
	BaseDelay  time.Duration
	MaxDelay   time.Duration
	Multiplier float64
}

// DefaultRetryConfig returns the defaults used for embedding API calls
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries: MaxRetries,
		BaseDelay:  initialBackoff,
		MaxDelay:   maxBackoff,
		Multiplier: backoffMultiplier,
	}
}

// retryWithBackoff runs fn with exponential backoff between attempts.
// Context cancellation aborts immediately instead of retrying.
func retryWithBackoff[T any](ctx context.Context, config RetryConfig, fn func() (T, error)) (T, error) {
	var lastErr error
	var zero T
	backoff := config.BaseDelay

	for attempt := 0; attempt < config.MaxRetries; attempt++ {
		result, err := fn()
		if err == nil {
			return result, nil
		}

		lastErr = err

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}

		if attempt < config.MaxRetries-1 {
			select {
			case <-ctx.Done():
				return zero, ctx.Err()
			case <-time.After(backoff):
				backoff = time.Duration(float64(backoff) * config.Multiplier)
				if backoff > config.MaxDelay {
					backoff = config.MaxDelay
				}
			}
		}
	}

	return zero, lastErr
}
