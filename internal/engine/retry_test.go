package engine_test

import (
	"context"
	"errors"
	"testing"

	"jobsync/internal/api"
	"jobsync/internal/engine"
)

func TestRetryPolicyStopsOnFirstSuccess(t *testing.T) {
	policy := engine.RetryPolicy{Attempts: 3}

	calls := 0
	err := policy.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 2 {
			return api.ErrTransport
		}
		return nil
	})
	if err != nil {
		t.Fatalf("Do failed: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestRetryPolicyReturnsLastErrorAfterExhaustion(t *testing.T) {
	policy := engine.RetryPolicy{Attempts: 3}

	calls := 0
	err := policy.Do(context.Background(), func(context.Context) error {
		calls++
		return api.ErrTransport
	})
	if !errors.Is(err, api.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
}

func TestRetryPolicyAbortsOnUnauthorized(t *testing.T) {
	policy := engine.RetryPolicy{Attempts: 5}

	calls := 0
	err := policy.Do(context.Background(), func(context.Context) error {
		calls++
		return api.ErrUnauthorized
	})
	if !errors.Is(err, api.ErrUnauthorized) {
		t.Fatalf("expected unauthorized error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("unauthorized must abort immediately, got %d calls", calls)
	}
}

func TestRetryPolicyHonorsContextCancellation(t *testing.T) {
	policy := engine.RetryPolicy{Attempts: 3}

	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	err := policy.Do(ctx, func(context.Context) error {
		calls++
		cancel()
		return api.ErrTransport
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected 1 call before cancellation, got %d", calls)
	}
}
