package analytics

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"crm_messaging_backend/platform/logger"
)

const (
	defaultWorkers   = 2
	defaultQueueSize = 1024
	sinkTimeout      = 5 * time.Second
)

// AsyncRecorder queues events in a bounded buffer drained by a fixed set of
// workers. Events arriving while the buffer is full are dropped and counted.
type AsyncRecorder struct {
	sinks []Sink
	log   *logger.Logger
	queue chan Event
	wg    sync.WaitGroup

	mu      sync.RWMutex
	closed  bool
	dropped atomic.Int64
	now     func() time.Time
}

func NewAsyncRecorder(log *logger.Logger, workers, queueSize int, sinks ...Sink) *AsyncRecorder {
	if log == nil {
		log = logger.NewNop()
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}

	r := &AsyncRecorder{
		sinks: sinks,
		log:   log,
		queue: make(chan Event, queueSize),
		now:   time.Now,
	}
	for range workers {
		r.wg.Add(1)
		go r.run()
	}
	return r
}

// RecordEvent enqueues event. It never blocks; events are dropped once the
// buffer is full or the recorder is closed.
func (r *AsyncRecorder) RecordEvent(_ context.Context, event Event) {
	if event.OccurredAt.IsZero() {
		event.OccurredAt = r.now().UTC()
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.closed {
		r.dropped.Add(1)
		return
	}

	select {
	case r.queue <- event:
	default:
		r.dropped.Add(1)
		r.log.Warn("analytics queue full, event dropped",
			"event_type", string(event.Type),
			"tenant_id", event.TenantID.String(),
		)
	}
}

// Dropped returns how many events were discarded.
func (r *AsyncRecorder) Dropped() int64 {
	return r.dropped.Load()
}

// Close stops accepting events and waits for queued ones to be written, or
// for ctx to end.
func (r *AsyncRecorder) Close(ctx context.Context) error {
	r.mu.Lock()
	if !r.closed {
		r.closed = true
		close(r.queue)
	}
	r.mu.Unlock()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *AsyncRecorder) run() {
	defer r.wg.Done()
	for event := range r.queue {
		r.write(event)
	}
}

func (r *AsyncRecorder) write(event Event) {
	for _, sink := range r.sinks {
		ctx, cancel := context.WithTimeout(context.Background(), sinkTimeout)
		if err := sink.Write(ctx, event); err != nil {
			r.log.Error("analytics sink write failed",
				"event_type", string(event.Type),
				"tenant_id", event.TenantID.String(),
				"error", err,
			)
		}
		cancel()
	}
}

var _ Recorder = (*AsyncRecorder)(nil)
