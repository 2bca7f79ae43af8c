package scheduler

import (
	"context"
	"fmt"

	"crm_messaging_backend/internal/evaluation"
	"crm_messaging_backend/platform/config"
	"crm_messaging_backend/platform/logger"

	"github.com/hibiken/asynq"
)

type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	runner evaluation.Runner
	log    *logger.Logger
}

func NewWorker(cfg config.SchedulerConfig, runner evaluation.Runner, log *logger.Logger) (*Worker, error) {
	redisURL := cfg.GetRedisURL()
	if redisURL == "" {
		return nil, fmt.Errorf("redis url not configured")
	}

	opt, err := redisClientOpt(redisURL, cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, err
	}

	queue := cfg.GetAsynqQueueName()
	if queue == "" {
		queue = "default"
	}

	concurrency := cfg.GetAsynqConcurrency()
	if concurrency < 1 {
		concurrency = 10
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues: map[string]int{
			queue: 1,
		},
	})

	w := &Worker{
		server: server,
		mux:    asynq.NewServeMux(),
		runner: runner,
		log:    log,
	}
	w.mux.HandleFunc(TaskEvaluateMessage, w.handleEvaluateMessage)

	return w, nil
}

func (w *Worker) Run(ctx context.Context) {
	if w == nil || w.server == nil {
		return
	}

	go func() {
		<-ctx.Done()
		w.server.Shutdown()
	}()

	if err := w.server.Run(w.mux); err != nil {
		w.log.Error("evaluation worker stopped", "error", err)
	}
}

// handleEvaluateMessage runs one queued evaluation. Malformed payloads and
// references to missing rows are not retried.
func (w *Worker) handleEvaluateMessage(ctx context.Context, task *asynq.Task) error {
	req, err := ParseEvaluateMessagePayload(task)
	if err != nil {
		return fmt.Errorf("parse evaluation payload: %v: %w", err, asynq.SkipRetry)
	}

	if _, err := w.runner.EvaluateMessage(ctx, req); err != nil {
		if evaluation.IsNotFound(err) {
			return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
		}
		return err
	}
	return nil
}
