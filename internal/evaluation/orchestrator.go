// Package evaluation scores leads from their conversations: it loads the
// context of a message, asks the model for an assessment, matches products,
// blends the result into the lead score and persists it atomically.
package evaluation

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"crm_messaging_backend/internal/analytics"
	"crm_messaging_backend/internal/evaluation/agent"
	"crm_messaging_backend/internal/evaluation/catalog"
	"crm_messaging_backend/internal/evaluation/classify"
	"crm_messaging_backend/internal/evaluation/domain"
	"crm_messaging_backend/internal/evaluation/keywords"
	"crm_messaging_backend/internal/evaluation/matching"
	"crm_messaging_backend/internal/evaluation/prompt"
	"crm_messaging_backend/internal/evaluation/repository"
	"crm_messaging_backend/internal/evaluation/scoring"
	"crm_messaging_backend/internal/events"
	"crm_messaging_backend/platform/logger"
	"crm_messaging_backend/platform/sanitize"

	"github.com/google/uuid"
)

const (
	historyLimit      = 10
	interactionLimit  = 50
	transcriptLimit   = 200
	maxFailureDetail  = 500
	stepErrorTemplate = "evaluation failed at %s: %v"
)

// Request identifies the message to evaluate.
type Request struct {
	TenantID       uuid.UUID `json:"tenantId"`
	LeadID         uuid.UUID `json:"leadId"`
	ConversationID uuid.UUID `json:"conversationId"`
	MessageID      uuid.UUID `json:"messageId"`
}

// Result is what one successful evaluation produced.
type Result struct {
	Evaluation     repository.Evaluation
	Status         agent.Status
	Matches        []matching.Match
	Score          scoring.Result
	PreviousScore  int
	Classification *classify.Classification
	State          domain.EvaluationState
}

// StepError reports the state an evaluation failed in.
type StepError struct {
	State domain.EvaluationState
	Err   error
}

func (e *StepError) Error() string { return fmt.Sprintf(stepErrorTemplate, e.State, e.Err) }
func (e *StepError) Unwrap() error { return e.Err }

// LLMEvaluator runs the evaluation prompt.
type LLMEvaluator interface {
	Evaluate(ctx context.Context, promptText string, settings agent.Settings) (agent.Outcome, error)
}

// CatalogLoader returns a tenant's product index.
type CatalogLoader interface {
	Load(ctx context.Context, tenantID uuid.UUID) (*catalog.Index, error)
	Invalidate(ctx context.Context, tenantID uuid.UUID) error
}

// Orchestrator sequences one evaluation per call. It holds no per-tenant state;
// everything is loaded into an explicit context for each run.
type Orchestrator struct {
	repo      repository.EvaluationRepository
	catalog   CatalogLoader
	evaluator LLMEvaluator
	recorder  analytics.Recorder
	bus       events.Bus
	defaults  domain.EvaluationConfig
	log       *logger.Logger
	now       func() time.Time
}

func NewOrchestrator(
	repo repository.EvaluationRepository,
	catalogLoader CatalogLoader,
	evaluator LLMEvaluator,
	recorder analytics.Recorder,
	bus events.Bus,
	defaults domain.EvaluationConfig,
	log *logger.Logger,
) *Orchestrator {
	if recorder == nil {
		recorder = analytics.NopRecorder{}
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Orchestrator{
		repo:      repo,
		catalog:   catalogLoader,
		evaluator: evaluator,
		recorder:  recorder,
		bus:       bus,
		defaults:  defaults,
		log:       log,
		now:       time.Now,
	}
}

// run tracks the state machine of a single evaluation.
type run struct {
	req   Request
	state domain.EvaluationState
	start time.Time
	log   *logger.Logger
}

func (r *run) advance(to domain.EvaluationState) {
	if !domain.CanTransition(r.state, to) {
		r.log.Warn("unexpected evaluation transition", "from", string(r.state), "to", string(to))
	}
	r.state = to
	r.log.EvaluationStep(r.req.MessageID.String(), string(to))
}

// EvaluateMessage runs the full pipeline for one message. Either the
// evaluation record and the new lead score are both persisted, or neither is.
// Follow-up work after persistence is best effort and never fails the call.
func (o *Orchestrator) EvaluateMessage(ctx context.Context, req Request) (Result, error) {
	r := &run{
		req:   req,
		state: domain.StatePending,
		start: o.now(),
		log:   o.log.WithTenantID(req.TenantID.String()),
	}

	ec, err := o.loadContext(ctx, req)
	if err != nil {
		return Result{}, o.fail(ctx, r, err)
	}
	r.advance(domain.StateContextLoaded)

	promptText := prompt.Build(prompt.Input{
		Lead:             ec.lead,
		Messages:         ec.transcript,
		Intentions:       ec.intentions,
		Catalog:          ec.index,
		InteractionTypes: ec.interactionTypes,
	})
	r.advance(domain.StatePrompted)

	outcome, err := o.evaluator.Evaluate(ctx, promptText, ec.settings)
	if err != nil {
		return Result{}, o.fail(ctx, r, err)
	}
	if outcome.Degraded() {
		o.reportDegradedOutput(ctx, req, outcome)
	}
	r.advance(domain.StateLLMEvaluated)

	eval := outcome.Evaluation
	kws := normalizeKeywords(eval.PalabrasClave, ec.config.NormalizeKeywords)
	matches := matching.Rank(kws, ec.index, ec.message.Content, ec.config.MatchingAlgorithm)
	r.advance(domain.StateProductsMatched)

	score := scoring.Aggregate(scoring.Input{
		ScorePotencial:    eval.ScorePotencial,
		ScoreSatisfaccion: eval.ScoreSatisfaccion,
		History:           potentialHistory(ec.history),
		Interactions:      interactionValues(ec.interactions),
		Weights: scoring.Weights{
			Recency:     ec.config.RecencyWeight,
			History:     ec.config.HistoryWeight,
			Interaction: ec.config.InteractionWeight,
		},
	})
	r.advance(domain.StateScored)

	saved, err := o.repo.SaveEvaluation(ctx, repository.SaveEvaluationParams{
		TenantID:          req.TenantID,
		LeadID:            req.LeadID,
		ConversationID:    req.ConversationID,
		MessageID:         req.MessageID,
		ScorePotencial:    eval.ScorePotencial,
		ScoreSatisfaccion: eval.ScoreSatisfaccion,
		InteresProductos:  eval.InteresProductos,
		Comentario:        eval.Comentario,
		Keywords:          kws,
		MatchedProducts:   toMatchedProducts(matches),
		NuevoScore:        score.NuevoScore,
		OutputStatus:      string(outcome.Status),
		Prompt:            promptText,
		LLMConfigID:       ec.settings.ConfigID,
	})
	if err != nil {
		return Result{}, o.fail(ctx, r, fmt.Errorf("persist evaluation: %w", err))
	}
	r.advance(domain.StatePersisted)

	res := Result{
		Evaluation:    saved,
		Status:        outcome.Status,
		Matches:       matches,
		Score:         score,
		PreviousScore: ec.lead.Score,
	}
	res.Classification = o.followUp(ctx, ec, res, kws)

	r.advance(domain.StateComplete)
	res.State = r.state
	elapsed := o.now().Sub(r.start)
	r.log.EvaluationCompleted(req.LeadID.String(), req.MessageID.String(), score.NuevoScore, elapsed)
	o.recordEvaluated(ctx, req, res, elapsed)
	return res, nil
}

// fail moves the run to FAILED and reports it. Reporting is best effort.
func (o *Orchestrator) fail(ctx context.Context, r *run, cause error) error {
	failedAt := r.state
	r.advance(domain.StateFailed)
	r.log.EvaluationFailed(r.req.LeadID.String(), r.req.MessageID.String(), string(failedAt), cause)

	detail := eventText(cause.Error())
	o.recorder.RecordEvent(ctx, analytics.Event{
		TenantID:       r.req.TenantID,
		Type:           analytics.EventErrorSistema,
		LeadID:         optionalID(r.req.LeadID),
		ConversationID: optionalID(r.req.ConversationID),
		MessageID:      optionalID(r.req.MessageID),
		Duration:       o.now().Sub(r.start),
		Result:         analytics.ResultError,
		Detail:         detail,
		Metadata:       map[string]any{"state": string(failedAt)},
	})
	if o.bus != nil {
		o.bus.Publish(ctx, events.EvaluationFailed{
			BaseEvent:      events.NewBaseEvent(),
			TenantID:       r.req.TenantID,
			LeadID:         r.req.LeadID,
			ConversationID: r.req.ConversationID,
			MessageID:      r.req.MessageID,
			State:          string(failedAt),
			Reason:         detail,
		})
	}
	return &StepError{State: failedAt, Err: cause}
}

func (o *Orchestrator) reportDegradedOutput(ctx context.Context, req Request, outcome agent.Outcome) {
	detail := "campos por defecto"
	if outcome.ParseErr != nil {
		detail = eventText(outcome.ParseErr.Error())
	}
	raw := eventText(outcome.Raw)
	o.recorder.RecordEvent(ctx, analytics.Event{
		TenantID:       req.TenantID,
		Type:           analytics.EventSalidaInvalida,
		LeadID:         optionalID(req.LeadID),
		ConversationID: optionalID(req.ConversationID),
		MessageID:      optionalID(req.MessageID),
		Result:         analytics.ResultWarning,
		Detail:         detail,
		Metadata: map[string]any{
			"status":    string(outcome.Status),
			"defaulted": outcome.Defaulted,
			"model":     outcome.Model,
			"raw":       raw,
		},
	})
}

func (o *Orchestrator) recordEvaluated(ctx context.Context, req Request, res Result, elapsed time.Duration) {
	o.recorder.RecordEvent(ctx, analytics.Event{
		TenantID:       req.TenantID,
		Type:           analytics.EventRespuestaEvaluada,
		LeadID:         optionalID(req.LeadID),
		ConversationID: optionalID(req.ConversationID),
		MessageID:      optionalID(req.MessageID),
		ScoreValue:     analytics.Score(float64(res.Score.NuevoScore)),
		Duration:       elapsed,
		Result:         analytics.ResultSuccess,
		Detail:         res.Evaluation.Comentario,
		Metadata: map[string]any{
			"evaluation_id":      res.Evaluation.ID.String(),
			"score_potencial":    res.Evaluation.ScorePotencial,
			"score_satisfaccion": res.Evaluation.ScoreSatisfaccion,
			"score_anterior":     res.PreviousScore,
			"output_status":      string(res.Status),
			"productos":          matching.Names(res.Matches),
			"palabras_clave":     res.Evaluation.Keywords,
		},
	})
	if o.bus != nil {
		o.bus.Publish(ctx, events.LeadEvaluated{
			BaseEvent:         events.NewBaseEvent(),
			TenantID:          req.TenantID,
			LeadID:            req.LeadID,
			ConversationID:    req.ConversationID,
			MessageID:         req.MessageID,
			EvaluationID:      res.Evaluation.ID,
			PreviousScore:     res.PreviousScore,
			NewScore:          res.Score.NuevoScore,
			ScorePotencial:    res.Evaluation.ScorePotencial,
			ScoreSatisfaccion: res.Evaluation.ScoreSatisfaccion,
			MatchedProducts:   matching.Names(res.Matches),
		})
	}
}

// eventText bounds provider and model text for event rows. Text columns reject
// invalid UTF-8, so cuts fall on rune boundaries and bad bytes are replaced.
func eventText(s string) string {
	return sanitize.Truncate(strings.ToValidUTF8(s, "\uFFFD"), maxFailureDetail, "")
}

func normalizeKeywords(raw []string, normalize bool) []string {
	if normalize {
		return keywords.Normalize(raw)
	}
	return keywords.Basic(raw)
}

// potentialHistory lists past potential scores, most recent first.
func potentialHistory(history []repository.Evaluation) []float64 {
	out := make([]float64, 0, len(history))
	for _, e := range history {
		out = append(out, float64(e.ScorePotencial))
	}
	return out
}

func interactionValues(interactions []repository.Interaction) []float64 {
	out := make([]float64, 0, len(interactions))
	for _, i := range interactions {
		out = append(out, i.ValorScore)
	}
	return out
}

func toMatchedProducts(matches []matching.Match) []repository.MatchedProduct {
	out := make([]repository.MatchedProduct, 0, len(matches))
	for _, m := range matches {
		out = append(out, repository.MatchedProduct{ProductID: m.ProductID, Name: m.Name, Score: m.Score})
	}
	return out
}

func optionalID(id uuid.UUID) *uuid.UUID {
	if id == uuid.Nil {
		return nil
	}
	return &id
}

// IsNotFound reports whether err means a referenced lead or message does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound)
}
