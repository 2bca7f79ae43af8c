package bootstrap

import (
	"context"
	"errors"
	"testing"
	"time"

	"crm_messaging_backend/platform/logger"
)

func TestWithRetryStopsOnSuccess(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), logger.NewNop(), "op", 3, time.Millisecond, func() error {
		calls++
		if calls < 2 {
			return errors.New("not yet")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestWithRetryReturnsLastError(t *testing.T) {
	calls := 0
	err := WithRetry(context.Background(), logger.NewNop(), "op", 2, time.Millisecond, func() error {
		calls++
		return errors.New("still down")
	})
	if err == nil || err.Error() != "op: still down" {
		t.Fatalf("expected last error, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
}

func TestWithRetryHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := WithRetry(ctx, logger.NewNop(), "op", 3, time.Millisecond, func() error {
		t.Fatalf("fn must not run on a cancelled context")
		return nil
	})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}

func TestWithRetryRejectsZeroAttempts(t *testing.T) {
	if err := WithRetry(context.Background(), logger.NewNop(), "op", 0, time.Millisecond, func() error { return nil }); err == nil {
		t.Fatalf("expected error")
	}
}
