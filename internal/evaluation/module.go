package evaluation

import (
	"context"

	"crm_messaging_backend/internal/analytics"
	"crm_messaging_backend/internal/evaluation/catalog"
	"crm_messaging_backend/internal/evaluation/domain"
	"crm_messaging_backend/internal/evaluation/handler"
	"crm_messaging_backend/internal/evaluation/repository"
	"crm_messaging_backend/internal/events"
	apphttp "crm_messaging_backend/internal/http"
	"crm_messaging_backend/platform/logger"
	"crm_messaging_backend/platform/validator"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Engine bundles the pieces every binary needs to run evaluations.
type Engine struct {
	Repo         *repository.Repository
	Catalog      *catalog.Indexer
	Orchestrator *Orchestrator
	Defaults     domain.EvaluationConfig
}

// NewEngine wires the repository, catalog index and orchestrator.
func NewEngine(
	pool *pgxpool.Pool,
	evaluator LLMEvaluator,
	cache catalog.Cache,
	recorder analytics.Recorder,
	bus events.Bus,
	defaults domain.EvaluationConfig,
	log *logger.Logger,
) *Engine {
	repo := repository.New(pool)
	indexer := catalog.NewIndexer(repo, cache, log)
	return &Engine{
		Repo:         repo,
		Catalog:      indexer,
		Orchestrator: NewOrchestrator(repo, indexer, evaluator, recorder, bus, defaults, log),
		Defaults:     defaults,
	}
}

// Module is the evaluation bounded context module implementing http.Module.
type Module struct {
	handler *handler.Handler
	service *Service
	trigger Trigger
}

// NewModule creates the evaluation module. The trigger decides where queued
// evaluations run: the asynq queue or the in-process pool.
func NewModule(engine *Engine, trigger Trigger, val *validator.Validator, log *logger.Logger) *Module {
	svc := NewService(engine.Repo, engine.Orchestrator, trigger, engine.Catalog, engine.Defaults, val, log)
	return &Module{
		handler: handler.New(svc, val),
		service: svc,
		trigger: trigger,
	}
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "evaluation"
}

// Service returns the service layer for external use.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts evaluation routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Tenant.POST("/evaluations/messages", m.handler.EvaluateMessage)
	ctx.Tenant.POST("/evaluations/conversations", m.handler.EvaluateConversation)
	ctx.Tenant.GET("/evaluations/stats", m.handler.GetStats)
	ctx.Tenant.GET("/leads/:id/evaluations", m.handler.ListLeadEvaluations)
	ctx.Tenant.GET("/conversations/:id/evaluations", m.handler.ListConversationEvaluations)

	ctx.Tenant.GET("/evaluation-config", m.handler.GetConfig)
	ctx.Tenant.PUT("/evaluation-config", m.handler.UpdateConfig)
	ctx.Tenant.PUT("/catalog/products/:id/synonyms", m.handler.ReplaceSynonyms)
}

// RegisterHandlers subscribes to inbound messages so user turns are evaluated.
func (m *Module) RegisterHandlers(bus events.Bus) {
	bus.Subscribe(events.MessageReceived{}.EventName(), m)
}

// Handle schedules evaluation of user messages. Messages from the bot or an
// agent, and messages not yet tied to a lead, are ignored.
func (m *Module) Handle(ctx context.Context, event events.Event) error {
	switch e := event.(type) {
	case events.MessageReceived:
		if e.Role != repository.RoleUser || e.LeadID == uuid.Nil {
			return nil
		}
		m.trigger.Schedule(ctx, Request{
			TenantID:       e.TenantID,
			LeadID:         e.LeadID,
			ConversationID: e.ConversationID,
			MessageID:      e.MessageID,
		})
		return nil
	default:
		return nil
	}
}

// Compile-time checks
var (
	_ apphttp.Module  = (*Module)(nil)
	_ events.Handler  = (*Module)(nil)
	_ handler.Service = (*Service)(nil)
)
