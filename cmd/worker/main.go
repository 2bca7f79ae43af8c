package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crm_messaging_backend/internal/bootstrap"
	"crm_messaging_backend/internal/scheduler"
	"crm_messaging_backend/platform/config"
	"crm_messaging_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting evaluation worker", "env", cfg.Env, "queue", cfg.GetAsynqQueueName())

	if cfg.GetRedisURL() == "" {
		panic("REDIS_URL is required for the evaluation worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := bootstrap.Open(ctx, cfg, log, bootstrap.Options{})
	if err != nil {
		log.Error("failed to initialize infrastructure", "error", err)
		panic("failed to initialize infrastructure: " + err.Error())
	}

	worker, err := scheduler.NewWorker(cfg, infra.Engine.Orchestrator, log)
	if err != nil {
		infra.Close(context.Background())
		log.Error("failed to initialize evaluation worker", "error", err)
		panic("failed to initialize evaluation worker: " + err.Error())
	}

	worker.Run(ctx)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	infra.Close(shutdownCtx)
	log.Info("evaluation worker stopped")
}
