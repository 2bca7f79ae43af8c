package evaluation

import (
	"context"
	"errors"
	"strings"
	"time"

	"crm_messaging_backend/internal/evaluation/domain"
	"crm_messaging_backend/internal/evaluation/keywords"
	"crm_messaging_backend/internal/evaluation/repository"
	"crm_messaging_backend/internal/evaluation/transport"
	"crm_messaging_backend/platform/apperr"
	"crm_messaging_backend/platform/logger"
	"crm_messaging_backend/platform/validator"

	"github.com/google/uuid"
)

const (
	defaultListLimit = 20
	defaultStatsDays = 30
	defaultStatsTop  = 5
)

// Service is the request-facing API of the evaluation engine.
type Service struct {
	repo     repository.EvaluationRepository
	runner   Runner
	trigger  Trigger
	catalog  CatalogLoader
	defaults domain.EvaluationConfig
	val      *validator.Validator
	log      *logger.Logger
	now      func() time.Time
}

func NewService(
	repo repository.EvaluationRepository,
	runner Runner,
	trigger Trigger,
	catalogLoader CatalogLoader,
	defaults domain.EvaluationConfig,
	val *validator.Validator,
	log *logger.Logger,
) *Service {
	if val == nil {
		val = validator.New()
	}
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		repo:     repo,
		runner:   runner,
		trigger:  trigger,
		catalog:  catalogLoader,
		defaults: defaults,
		val:      val,
		log:      log,
		now:      time.Now,
	}
}

// EvaluateMessage queues the message for evaluation, or runs it inline when
// sync is set. Queued requests are checked for existence first so callers get
// a 404 rather than a silent drop.
func (s *Service) EvaluateMessage(ctx context.Context, tenantID uuid.UUID, req transport.EvaluateMessageRequest, sync bool) (transport.EvaluateMessageResponse, error) {
	r := Request{
		TenantID:       tenantID,
		LeadID:         req.LeadID,
		ConversationID: req.ConversationID,
		MessageID:      req.MessageID,
	}

	if !sync {
		msg, err := s.repo.GetMessage(ctx, req.MessageID, tenantID)
		if err != nil {
			return transport.EvaluateMessageResponse{}, mapRepoError(err, "message not found")
		}
		if msg.ConversationID != req.ConversationID {
			return transport.EvaluateMessageResponse{}, apperr.NotFound("message not found in conversation")
		}
		s.trigger.Schedule(ctx, r)
		return transport.EvaluateMessageResponse{Status: transport.StatusQueued, MessageID: req.MessageID}, nil
	}

	res, err := s.runner.EvaluateMessage(ctx, r)
	if err != nil {
		return transport.EvaluateMessageResponse{}, mapEvaluationError(err)
	}
	return toEvaluateMessageResponse(res), nil
}

// EvaluateConversation evaluates every user message of a conversation in
// order. Inline runs continue past individual failures and report them.
func (s *Service) EvaluateConversation(ctx context.Context, tenantID uuid.UUID, req transport.EvaluateConversationRequest) (transport.EvaluateConversationResponse, error) {
	if _, err := s.repo.GetLead(ctx, req.LeadID, tenantID); err != nil {
		return transport.EvaluateConversationResponse{}, mapRepoError(err, "lead not found")
	}
	messages, err := s.repo.ListConversationMessages(ctx, req.ConversationID, tenantID, transcriptLimit)
	if err != nil {
		return transport.EvaluateConversationResponse{}, apperr.Wrap(apperr.KindInternal, "failed to load conversation", err)
	}

	out := transport.EvaluateConversationResponse{Results: make([]transport.EvaluateMessageResponse, 0)}
	for _, msg := range messages {
		if msg.Role != repository.RoleUser {
			continue
		}
		out.Messages++
		r := Request{TenantID: tenantID, LeadID: req.LeadID, ConversationID: req.ConversationID, MessageID: msg.ID}

		if !req.Sync {
			s.trigger.Schedule(ctx, r)
			out.Queued++
			out.Results = append(out.Results, transport.EvaluateMessageResponse{Status: transport.StatusQueued, MessageID: msg.ID})
			continue
		}

		res, err := s.runner.EvaluateMessage(ctx, r)
		if err != nil {
			if ctx.Err() != nil {
				return out, apperr.Wrap(apperr.KindUnavailable, "conversation evaluation interrupted", ctx.Err())
			}
			out.Failed++
			out.Results = append(out.Results, transport.EvaluateMessageResponse{
				Status:    transport.StatusFailed,
				MessageID: msg.ID,
				Error:     mapEvaluationError(err).Message,
			})
			continue
		}
		out.Completed++
		out.Results = append(out.Results, toEvaluateMessageResponse(res))
	}
	return out, nil
}

func (s *Service) ListLeadEvaluations(ctx context.Context, tenantID, leadID uuid.UUID, req transport.ListEvaluationsRequest) (transport.EvaluationListResponse, error) {
	if _, err := s.repo.GetLead(ctx, leadID, tenantID); err != nil {
		return transport.EvaluationListResponse{}, mapRepoError(err, "lead not found")
	}
	return s.listEvaluations(ctx, repository.EvaluationFilter{TenantID: tenantID, LeadID: &leadID}, req)
}

func (s *Service) ListConversationEvaluations(ctx context.Context, tenantID, conversationID uuid.UUID, req transport.ListEvaluationsRequest) (transport.EvaluationListResponse, error) {
	return s.listEvaluations(ctx, repository.EvaluationFilter{TenantID: tenantID, ConversationID: &conversationID}, req)
}

func (s *Service) listEvaluations(ctx context.Context, filter repository.EvaluationFilter, req transport.ListEvaluationsRequest) (transport.EvaluationListResponse, error) {
	filter.Limit = req.Limit
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if req.Days > 0 {
		since := s.now().AddDate(0, 0, -req.Days)
		filter.Since = &since
	}

	items, err := s.repo.ListEvaluations(ctx, filter)
	if err != nil {
		return transport.EvaluationListResponse{}, apperr.Wrap(apperr.KindInternal, "failed to list evaluations", err)
	}
	out := transport.EvaluationListResponse{Items: make([]transport.EvaluationResponse, 0, len(items)), Total: len(items)}
	for _, e := range items {
		out.Items = append(out.Items, toEvaluationResponse(e))
	}
	return out, nil
}

// GetStats summarises the tenant's evaluations over the last req.Days days.
func (s *Service) GetStats(ctx context.Context, tenantID uuid.UUID, req transport.StatsRequest) (repository.EvaluationStats, error) {
	days := req.Days
	if days <= 0 {
		days = defaultStatsDays
	}
	top := req.Top
	if top <= 0 {
		top = defaultStatsTop
	}
	stats, err := s.repo.GetEvaluationStats(ctx, tenantID, s.now().AddDate(0, 0, -days), top)
	if err != nil {
		return repository.EvaluationStats{}, apperr.Wrap(apperr.KindInternal, "failed to load evaluation stats", err)
	}
	return stats, nil
}

// GetConfig returns the tenant's stored configuration, or the defaults.
func (s *Service) GetConfig(ctx context.Context, tenantID uuid.UUID) (domain.EvaluationConfig, error) {
	cfg, err := s.repo.GetEvaluationConfig(ctx, tenantID)
	if errors.Is(err, repository.ErrNotFound) {
		return s.defaults, nil
	}
	if err != nil {
		return domain.EvaluationConfig{}, apperr.Wrap(apperr.KindInternal, "failed to load evaluation config", err)
	}
	return cfg, nil
}

// UpdateConfig applies a partial update over the effective configuration and
// stores the result once it validates.
func (s *Service) UpdateConfig(ctx context.Context, tenantID uuid.UUID, req transport.UpdateEvaluationConfigRequest) (domain.EvaluationConfig, error) {
	cfg, err := s.GetConfig(ctx, tenantID)
	if err != nil {
		return domain.EvaluationConfig{}, err
	}
	applyConfigUpdate(&cfg, req)

	if err := s.val.Struct(cfg); err != nil {
		return domain.EvaluationConfig{}, apperr.Validation("invalid evaluation config").WithDetails(validator.FieldErrors(err))
	}
	if err := s.repo.UpsertEvaluationConfig(ctx, tenantID, cfg); err != nil {
		return domain.EvaluationConfig{}, apperr.Wrap(apperr.KindInternal, "failed to save evaluation config", err)
	}
	s.log.Info("evaluation config updated", "tenant_id", tenantID)
	return cfg, nil
}

// ReplaceSynonyms stores the curated synonyms of a product and drops the
// tenant's cached catalog index.
func (s *Service) ReplaceSynonyms(ctx context.Context, tenantID, productID uuid.UUID, req transport.ReplaceSynonymsRequest) (transport.SynonymsResponse, error) {
	synonyms := cleanSynonyms(req.Synonyms)
	if err := s.repo.ReplaceProductSynonyms(ctx, tenantID, productID, synonyms); err != nil {
		return transport.SynonymsResponse{}, mapRepoError(err, "product not found")
	}
	if err := s.catalog.Invalidate(ctx, tenantID); err != nil {
		s.log.Warn("catalog cache invalidation failed", "tenant_id", tenantID, "error", err)
	}
	return transport.SynonymsResponse{ProductID: productID, Synonyms: synonyms}, nil
}

func applyConfigUpdate(cfg *domain.EvaluationConfig, req transport.UpdateEvaluationConfigRequest) {
	if req.RecencyWeight != nil {
		cfg.RecencyWeight = *req.RecencyWeight
	}
	if req.HistoryWeight != nil {
		cfg.HistoryWeight = *req.HistoryWeight
	}
	if req.InteractionWeight != nil {
		cfg.InteractionWeight = *req.InteractionWeight
	}
	if req.SentimentWeight != nil {
		cfg.SentimentWeight = *req.SentimentWeight
	}
	if req.IntentWeight != nil {
		cfg.IntentWeight = *req.IntentWeight
	}
	if req.ProductInterestWeight != nil {
		cfg.ProductInterestWeight = *req.ProductInterestWeight
	}
	if req.EngagementWeight != nil {
		cfg.EngagementWeight = *req.EngagementWeight
	}
	if req.MinSatisfaction != nil {
		cfg.MinSatisfaction = *req.MinSatisfaction
	}
	if req.DrasticChangeThreshold != nil {
		cfg.DrasticChangeThreshold = *req.DrasticChangeThreshold
	}
	if req.NormalizeKeywords != nil {
		cfg.NormalizeKeywords = *req.NormalizeKeywords
	}
	if req.MatchingAlgorithm != nil {
		cfg.MatchingAlgorithm = *req.MatchingAlgorithm
	}
}

// cleanSynonyms trims and drops blanks and accent-insensitive duplicates,
// keeping the first spelling.
func cleanSynonyms(raw []string) []string {
	out := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, v := range raw {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		key := keywords.Fold(v)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, v)
	}
	return out
}

func mapRepoError(err error, notFound string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return apperr.NotFound(notFound)
	}
	return apperr.Wrap(apperr.KindInternal, "database error", err)
}

// mapEvaluationError types orchestrator failures for the HTTP layer. A failure
// right after prompting means the model call itself failed.
func mapEvaluationError(err error) *apperr.Error {
	var stepErr *StepError
	switch {
	case IsNotFound(err):
		return apperr.Wrap(apperr.KindNotFound, "lead, conversation or message not found", err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperr.Wrap(apperr.KindUnavailable, "evaluation timed out", err)
	case errors.As(err, &stepErr) && stepErr.State == domain.StatePrompted:
		return apperr.Wrap(apperr.KindUnavailable, "evaluation model unavailable", err)
	default:
		return apperr.Wrap(apperr.KindInternal, "evaluation failed", err)
	}
}

func toEvaluateMessageResponse(res Result) transport.EvaluateMessageResponse {
	eval := toEvaluationResponse(res.Evaluation)
	prev := res.PreviousScore
	out := transport.EvaluateMessageResponse{
		Status:        transport.StatusCompleted,
		MessageID:     res.Evaluation.MessageID,
		Evaluation:    &eval,
		PreviousScore: &prev,
	}
	if res.Classification != nil {
		out.Temperature = res.Classification.Temperature
		out.Priority = res.Classification.Priority
	}
	return out
}

func toEvaluationResponse(e repository.Evaluation) transport.EvaluationResponse {
	matches := make([]transport.MatchResponse, 0, len(e.MatchedProducts))
	for _, m := range e.MatchedProducts {
		matches = append(matches, transport.MatchResponse{ProductID: m.ProductID, Name: m.Name, Score: m.Score})
	}
	return transport.EvaluationResponse{
		ID:                e.ID,
		LeadID:            e.LeadID,
		ConversationID:    e.ConversationID,
		MessageID:         e.MessageID,
		ScorePotencial:    e.ScorePotencial,
		ScoreSatisfaccion: e.ScoreSatisfaccion,
		InteresProductos:  nonNil(e.InteresProductos),
		Comentario:        e.Comentario,
		PalabrasClave:     nonNil(e.Keywords),
		MatchedProducts:   matches,
		NuevoScore:        e.NuevoScore,
		OutputStatus:      e.OutputStatus,
		CreatedAt:         e.CreatedAt,
	}
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
