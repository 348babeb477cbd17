package utils

import (
	"context"
	"time"
)

// BackoffConfig controls exponential backoff between retry attempts.
type BackoffConfig struct {
	// InitialDelay is the delay after the first failed attempt
	InitialDelay time.Duration

	// MaxDelay caps exponential growth
	MaxDelay time.Duration
}

// DefaultBackoffConfig returns the backoff used for vendor API retries:
// 1s, 2s, 4s, ... capped at 30s.
func DefaultBackoffConfig() BackoffConfig {
	return BackoffConfig{
		InitialDelay: 1 * time.Second,
		MaxDelay:     30 * time.Second,
	}
}

// Delay returns the delay before retrying after the given zero-based attempt,
// following InitialDelay * 2^attempt capped at MaxDelay.
func (c BackoffConfig) Delay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	delay := c.InitialDelay
	for i := 0; i < attempt; i++ {
		delay *= 2
		if delay >= c.MaxDelay {
			return c.MaxDelay
		}
	}
	if delay > c.MaxDelay {
		return c.MaxDelay
	}
	return delay
}

// Sleep waits for the backoff delay of the given attempt, returning early
// with the context's error if it is cancelled first.
func (c BackoffConfig) Sleep(ctx context.Context, attempt int) error {
	timer := time.NewTimer(c.Delay(attempt))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
