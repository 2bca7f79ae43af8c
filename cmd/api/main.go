package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crm_messaging_backend/internal/bootstrap"
	"crm_messaging_backend/internal/evaluation"
	apphttp "crm_messaging_backend/internal/http"
	"crm_messaging_backend/internal/http/router"
	"crm_messaging_backend/internal/scheduler"
	"crm_messaging_backend/platform/config"
	"crm_messaging_backend/platform/logger"
	"crm_messaging_backend/platform/validator"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// Initialize structured logger
	log := logger.New(cfg.Env)
	log.Info("starting server", "env", cfg.Env, "addr", cfg.HTTPAddr)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ========================================================================
	// Infrastructure Layer
	// ========================================================================

	infra, err := bootstrap.Open(ctx, cfg, log, bootstrap.Options{RunMigrations: true})
	if err != nil {
		log.Error("failed to initialize infrastructure", "error", err)
		panic("failed to initialize infrastructure: " + err.Error())
	}

	trigger, closeTrigger := initTrigger(cfg, infra.Engine, log)

	// ========================================================================
	// Domain Modules (Composition Root)
	// ========================================================================

	val := validator.New()
	evaluationModule := evaluation.NewModule(infra.Engine, trigger, val, log)
	evaluationModule.RegisterHandlers(infra.Bus)

	// ========================================================================
	// HTTP Layer
	// ========================================================================

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   infra.Pool,
		EventBus: infra.Bus,
		Modules: []apphttp.Module{
			evaluationModule,
		},
	}

	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	srvErr := make(chan error, 1)
	go func() {
		log.Info("server listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			srvErr <- err
		}
		close(srvErr)
	}()

	select {
	case <-ctx.Done():
		log.Info("shutdown signal received, gracefully shutting down")
	case err := <-srvErr:
		if err != nil {
			log.Error("server error", "error", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http server shutdown", "error", err)
	}
	closeTrigger(shutdownCtx)
	infra.Close(shutdownCtx)
	log.Info("server stopped")
}

// initTrigger picks where background evaluations run. With Redis they go to
// the asynq queue drained by cmd/worker; otherwise an in-process pool runs them.
func initTrigger(cfg *config.Config, engine *evaluation.Engine, log *logger.Logger) (evaluation.Trigger, func(context.Context)) {
	if cfg.GetRedisURL() != "" {
		client, err := scheduler.NewClient(cfg, log)
		if err == nil {
			log.Info("evaluations queued on asynq", "queue", cfg.GetAsynqQueueName())
			return client, func(context.Context) { _ = client.Close() }
		}
		log.Error("failed to initialize evaluation queue; falling back to in-process pool", "error", err)
	} else {
		log.Warn("REDIS_URL not configured; evaluations run in-process")
	}

	local := evaluation.NewLocalTrigger(engine.Orchestrator, cfg, log)
	return local, func(ctx context.Context) {
		if err := local.Close(ctx); err != nil {
			log.Warn("in-process evaluations did not finish", "error", err)
		}
	}
}
