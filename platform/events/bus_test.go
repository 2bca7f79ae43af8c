package events

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"crm_messaging_backend/platform/logger"
)

type pingEvent struct {
	BaseEvent
}

func (pingEvent) EventName() string { return "test.ping" }

func TestPublishSyncJoinsHandlerErrors(t *testing.T) {
	bus := NewInMemoryBus(logger.NewNop())
	calls := 0
	boom := errors.New("boom")

	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, event Event) error {
		calls++
		return nil
	}))
	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, event Event) error {
		calls++
		return boom
	}))

	err := bus.PublishSync(context.Background(), pingEvent{BaseEvent: NewBaseEvent()})
	if !errors.Is(err, boom) {
		t.Fatalf("expected joined error to wrap boom, got %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 handler calls, got %d", calls)
	}
}

func TestPublishRunsHandlersAfterCallerContextIsCancelled(t *testing.T) {
	bus := NewInMemoryBus(logger.NewNop())
	var wg sync.WaitGroup
	wg.Add(1)

	var handlerErr error
	bus.Subscribe("test.ping", HandlerFunc(func(ctx context.Context, event Event) error {
		defer wg.Done()
		handlerErr = ctx.Err()
		return nil
	}))

	ctx, cancel := context.WithCancel(context.Background())
	bus.Publish(ctx, pingEvent{BaseEvent: NewBaseEvent()})
	cancel()

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("handler did not run")
	}
	if handlerErr != nil {
		t.Fatalf("expected detached context, got %v", handlerErr)
	}
}

func TestNewBaseEventStampsIDAndTime(t *testing.T) {
	a, b := NewBaseEvent(), NewBaseEvent()
	if a.ID() == b.ID() {
		t.Fatalf("expected distinct event ids")
	}
	if a.OccurredAt().IsZero() || a.OccurredAt().Location() != time.UTC {
		t.Fatalf("expected a UTC timestamp, got %v", a.OccurredAt())
	}
}
