package qcmpipeline

import (
	"context"
	"fmt"
	"time"
)

// RetryPolicy is the single retry policy applied to every external-service
// call: bounded attempts with a fixed backoff delay. After the last attempt
// the unit of work is abandoned; pipelines continue without its output.
type RetryPolicy struct {
	MaxAttempts int
	Backoff     time.Duration
}

// DefaultRetryPolicy is the policy used by all LLM calls: 3 attempts, 2s apart.
var DefaultRetryPolicy = RetryPolicy{MaxAttempts: 3, Backoff: 2 * time.Second}

// Do runs fn until it succeeds, the attempts are exhausted, or ctx is
// cancelled. The returned error wraps the last failure.
func (p RetryPolicy) Do(ctx context.Context, fn func() error) error {
	attempts := p.MaxAttempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if attempt < attempts {
			Log.Debug().Err(lastErr).Int("attempt", attempt).Msg("retrying after backoff")
			select {
			case <-time.After(p.Backoff):
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}
