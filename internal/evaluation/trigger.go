package evaluation

import (
	"context"
	"fmt"
	"sync"
	"time"

	"crm_messaging_backend/platform/config"
	"crm_messaging_backend/platform/logger"

	"github.com/google/uuid"
)

// Trigger schedules evaluations off the message-handling path. Schedule never
// blocks on the evaluation and never reports its outcome; scheduling failures
// are logged by the implementation.
type Trigger interface {
	Schedule(ctx context.Context, req Request)
}

// Runner executes one evaluation.
type Runner interface {
	EvaluateMessage(ctx context.Context, req Request) (Result, error)
}

const (
	defaultLocalWorkers   = 4
	defaultLocalQueueSize = 256
	defaultEvalTimeout    = 2 * time.Minute
)

// LocalTrigger runs evaluations on a fixed pool of goroutines fed by a
// bounded queue. A message already queued or running is not scheduled again.
type LocalTrigger struct {
	runner  Runner
	log     *logger.Logger
	timeout time.Duration
	queue   chan Request
	wg      sync.WaitGroup

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
	closed   bool
}

func NewLocalTrigger(runner Runner, cfg config.LocalTriggerConfig, log *logger.Logger) *LocalTrigger {
	if log == nil {
		log = logger.NewNop()
	}
	workers := cfg.GetLocalWorkers()
	if workers <= 0 {
		workers = defaultLocalWorkers
	}
	size := cfg.GetLocalQueueSize()
	if size <= 0 {
		size = defaultLocalQueueSize
	}
	timeout := cfg.GetEvaluationTimeout()
	if timeout <= 0 {
		timeout = defaultEvalTimeout
	}

	t := &LocalTrigger{
		runner:   runner,
		log:      log,
		timeout:  timeout,
		queue:    make(chan Request, size),
		inFlight: make(map[uuid.UUID]struct{}),
	}
	for range workers {
		t.wg.Add(1)
		go t.work()
	}
	return t
}

func (t *LocalTrigger) Schedule(_ context.Context, req Request) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.closed {
		t.log.Warn("evaluation trigger closed, dropping request", "message_id", req.MessageID)
		return
	}
	if _, ok := t.inFlight[req.MessageID]; ok {
		t.log.Info("evaluation already scheduled, skipping", "message_id", req.MessageID)
		return
	}

	select {
	case t.queue <- req:
		t.inFlight[req.MessageID] = struct{}{}
	default:
		t.log.Warn("evaluation queue full, dropping request",
			"message_id", req.MessageID,
			"lead_id", req.LeadID,
			"queue_size", cap(t.queue),
		)
	}
}

// Close stops accepting work and waits for queued evaluations, or for ctx.
func (t *LocalTrigger) Close(ctx context.Context) error {
	t.mu.Lock()
	if !t.closed {
		t.closed = true
		close(t.queue)
	}
	t.mu.Unlock()

	done := make(chan struct{})
	go func() {
		t.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *LocalTrigger) work() {
	defer t.wg.Done()
	for req := range t.queue {
		t.run(req)
	}
}

func (t *LocalTrigger) run(req Request) {
	defer t.done(req.MessageID)
	defer func() {
		if r := recover(); r != nil {
			t.log.Error("evaluation panicked", "message_id", req.MessageID, "panic", fmt.Sprint(r))
		}
	}()

	// Jobs outlive the request that scheduled them.
	ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
	defer cancel()

	if _, err := t.runner.EvaluateMessage(ctx, req); err != nil {
		t.log.Debug("scheduled evaluation failed", "message_id", req.MessageID, "error", err)
	}
}

func (t *LocalTrigger) done(messageID uuid.UUID) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.inFlight, messageID)
}

var _ Trigger = (*LocalTrigger)(nil)
