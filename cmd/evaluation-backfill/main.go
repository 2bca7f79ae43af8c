package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"crm_messaging_backend/internal/bootstrap"
	"crm_messaging_backend/internal/evaluation"
	"crm_messaging_backend/internal/evaluation/transport"
	"crm_messaging_backend/platform/config"
	"crm_messaging_backend/platform/logger"
	"crm_messaging_backend/platform/validator"

	"github.com/google/uuid"
)

func main() {
	tenantFlag := flag.String("tenant", "", "tenant id")
	leadFlag := flag.String("lead", "", "lead id")
	conversationFlag := flag.String("conversation", "", "conversation id")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting evaluation backfill")

	tenantID := mustUUID(log, "tenant", *tenantFlag)
	leadID := mustUUID(log, "lead", *leadFlag)
	conversationID := mustUUID(log, "conversation", *conversationFlag)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	infra, err := bootstrap.Open(ctx, cfg, log, bootstrap.Options{})
	if err != nil {
		log.Error("failed to initialize infrastructure", "error", err)
		panic("failed to initialize infrastructure: " + err.Error())
	}

	// The pool stays idle: every message is evaluated inline below.
	trigger := evaluation.NewLocalTrigger(infra.Engine.Orchestrator, cfg, log)
	module := evaluation.NewModule(infra.Engine, trigger, validator.New(), log)

	started := time.Now()
	res, err := module.Service().EvaluateConversation(ctx, tenantID, transport.EvaluateConversationRequest{
		LeadID:         leadID,
		ConversationID: conversationID,
		Sync:           true,
	})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = trigger.Close(shutdownCtx)
	infra.Close(shutdownCtx)

	if err != nil {
		log.Error("evaluation backfill failed", "error", err, "completed", res.Completed, "failed", res.Failed)
		os.Exit(1)
	}
	for _, r := range res.Results {
		if r.Status == transport.StatusFailed {
			log.Warn("message evaluation failed", "messageId", r.MessageID, "error", r.Error)
		}
	}
	log.Info("evaluation backfill done",
		"messages", res.Messages,
		"completed", res.Completed,
		"failed", res.Failed,
		"duration", time.Since(started).String(),
	)
}

func mustUUID(log *logger.Logger, name, raw string) uuid.UUID {
	id, err := uuid.Parse(raw)
	if err != nil || id == uuid.Nil {
		log.Error("invalid id flag", "flag", name, "value", raw)
		flag.Usage()
		os.Exit(2)
	}
	return id
}
