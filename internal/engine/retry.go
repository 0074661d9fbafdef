package engine

import (
	"context"
	"errors"
	"time"

	"jobsync/internal/api"
	"jobsync/internal/config"
)

// RetryPolicy bounds the attempts made for a single queue item within one
// run. Exhaustion never discards the item; it stays queued for the next
// trigger.
type RetryPolicy struct {
	Attempts int
	Delay    time.Duration
}

// RetryPolicyFromConfig builds the push retry policy from configuration.
func RetryPolicyFromConfig(cfg *config.Config) RetryPolicy {
	return RetryPolicy{
		Attempts: cfg.Sync.RetryAttempts,
		Delay:    time.Duration(cfg.Sync.RetryDelaySeconds) * time.Second,
	}
}

// Do invokes fn up to Attempts times with a fixed inter-attempt delay.
// Unauthorized responses abort immediately: a credential problem is surfaced
// to the caller, not hammered.
func (p RetryPolicy) Do(ctx context.Context, fn func(context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = fn(ctx)
		if lastErr == nil {
			return nil
		}
		if errors.Is(lastErr, api.ErrUnauthorized) {
			return lastErr
		}
		if attempt == attempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay):
		}
	}
	return lastErr
}
