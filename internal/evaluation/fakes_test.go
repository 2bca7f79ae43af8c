package evaluation

import (
	"context"
	"sort"
	"sync"
	"time"

	"crm_messaging_backend/internal/analytics"
	"crm_messaging_backend/internal/evaluation/agent"
	"crm_messaging_backend/internal/evaluation/catalog"
	"crm_messaging_backend/internal/evaluation/domain"
	"crm_messaging_backend/internal/evaluation/repository"
	"crm_messaging_backend/internal/events"

	"github.com/google/uuid"
)

type fakeRepo struct {
	mu sync.Mutex

	leads        map[uuid.UUID]repository.Lead
	messages     map[uuid.UUID]repository.Message
	evaluations  []repository.Evaluation
	interactions []repository.Interaction
	created      []repository.CreateInteractionParams
	config       *domain.EvaluationConfig
	llmConfig    *repository.LLMConfiguration
	products     []repository.CatalogProduct
	synonyms     map[uuid.UUID][]string
	intentions   []repository.Intention
	types        []repository.InteractionType
	stats        repository.EvaluationStats

	saveErr     error
	classifyErr error
	configErr   error
	statsSince  time.Time
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		leads:    make(map[uuid.UUID]repository.Lead),
		messages: make(map[uuid.UUID]repository.Message),
		synonyms: make(map[uuid.UUID][]string),
	}
}

func (f *fakeRepo) GetLead(_ context.Context, leadID, tenantID uuid.UUID) (repository.Lead, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	lead, ok := f.leads[leadID]
	if !ok || lead.TenantID != tenantID {
		return repository.Lead{}, repository.ErrNotFound
	}
	return lead, nil
}

func (f *fakeRepo) UpdateLeadClassification(_ context.Context, leadID, tenantID uuid.UUID, temperature, priority string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.classifyErr != nil {
		return f.classifyErr
	}
	lead, ok := f.leads[leadID]
	if !ok || lead.TenantID != tenantID {
		return repository.ErrNotFound
	}
	lead.Temperature = &temperature
	lead.Priority = &priority
	f.leads[leadID] = lead
	return nil
}

func (f *fakeRepo) GetMessage(_ context.Context, messageID, tenantID uuid.UUID) (repository.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	msg, ok := f.messages[messageID]
	if !ok || msg.TenantID != tenantID {
		return repository.Message{}, repository.ErrNotFound
	}
	return msg, nil
}

func (f *fakeRepo) ListConversationMessages(_ context.Context, conversationID, tenantID uuid.UUID, limit int) ([]repository.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Message
	for _, m := range f.messages {
		if m.ConversationID == conversationID && m.TenantID == tenantID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	if limit > 0 && len(out) > limit {
		out = out[len(out)-limit:]
	}
	return out, nil
}

func (f *fakeRepo) ListRecentEvaluations(_ context.Context, leadID, tenantID uuid.UUID, limit int) ([]repository.Evaluation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Evaluation
	for _, e := range f.evaluations {
		if e.LeadID == leadID && e.TenantID == tenantID {
			out = append(out, e)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) ListEvaluations(_ context.Context, filter repository.EvaluationFilter) ([]repository.Evaluation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Evaluation
	for _, e := range f.evaluations {
		if e.TenantID != filter.TenantID {
			continue
		}
		if filter.LeadID != nil && e.LeadID != *filter.LeadID {
			continue
		}
		if filter.ConversationID != nil && e.ConversationID != *filter.ConversationID {
			continue
		}
		out = append(out, e)
	}
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (f *fakeRepo) GetEvaluationStats(_ context.Context, _ uuid.UUID, since time.Time, _ int) (repository.EvaluationStats, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.statsSince = since
	stats := f.stats
	stats.Since = since
	return stats, nil
}

// SaveEvaluation prepends so that history stays most recent first.
func (f *fakeRepo) SaveEvaluation(_ context.Context, p repository.SaveEvaluationParams) (repository.Evaluation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return repository.Evaluation{}, f.saveErr
	}
	lead, ok := f.leads[p.LeadID]
	if !ok || lead.TenantID != p.TenantID {
		return repository.Evaluation{}, repository.ErrNotFound
	}
	eval := repository.Evaluation{
		ID:                uuid.New(),
		TenantID:          p.TenantID,
		LeadID:            p.LeadID,
		ConversationID:    p.ConversationID,
		MessageID:         p.MessageID,
		ScorePotencial:    p.ScorePotencial,
		ScoreSatisfaccion: p.ScoreSatisfaccion,
		InteresProductos:  p.InteresProductos,
		Comentario:        p.Comentario,
		Keywords:          p.Keywords,
		MatchedProducts:   p.MatchedProducts,
		NuevoScore:        p.NuevoScore,
		OutputStatus:      p.OutputStatus,
		Prompt:            p.Prompt,
		LLMConfigID:       p.LLMConfigID,
		CreatedAt:         time.Now(),
	}
	f.evaluations = append([]repository.Evaluation{eval}, f.evaluations...)
	lead.Score = p.NuevoScore
	f.leads[p.LeadID] = lead
	return eval, nil
}

func (f *fakeRepo) GetEvaluationConfig(_ context.Context, _ uuid.UUID) (domain.EvaluationConfig, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.configErr != nil {
		return domain.EvaluationConfig{}, f.configErr
	}
	if f.config == nil {
		return domain.EvaluationConfig{}, repository.ErrNotFound
	}
	return *f.config, nil
}

func (f *fakeRepo) UpsertEvaluationConfig(_ context.Context, _ uuid.UUID, cfg domain.EvaluationConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.config = &cfg
	return nil
}

func (f *fakeRepo) GetDefaultLLMConfiguration(_ context.Context, _ uuid.UUID) (repository.LLMConfiguration, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.llmConfig == nil {
		return repository.LLMConfiguration{}, repository.ErrNotFound
	}
	return *f.llmConfig, nil
}

func (f *fakeRepo) ListCatalogProducts(_ context.Context, _ uuid.UUID) ([]repository.CatalogProduct, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]repository.CatalogProduct(nil), f.products...), nil
}

func (f *fakeRepo) ListProductSynonyms(_ context.Context, _ uuid.UUID) ([]repository.ProductSynonym, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.ProductSynonym
	for productID, values := range f.synonyms {
		for _, v := range values {
			out = append(out, repository.ProductSynonym{ProductID: productID, Synonym: v})
		}
	}
	return out, nil
}

func (f *fakeRepo) ReplaceProductSynonyms(_ context.Context, _ uuid.UUID, productID uuid.UUID, synonyms []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.products {
		if p.ID == productID {
			f.synonyms[productID] = synonyms
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeRepo) ListIntentions(_ context.Context, _ uuid.UUID) ([]repository.Intention, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.intentions, nil
}

func (f *fakeRepo) ListInteractionTypes(_ context.Context, _ uuid.UUID) ([]repository.InteractionType, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.types, nil
}

func (f *fakeRepo) ListRecentInteractions(_ context.Context, leadID, _ uuid.UUID, limit int) ([]repository.Interaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []repository.Interaction
	for _, i := range f.interactions {
		if i.LeadID == leadID {
			out = append(out, i)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeRepo) CreateInteractions(_ context.Context, params []repository.CreateInteractionParams) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.created = append(f.created, params...)
	return nil
}

func (f *fakeRepo) lead(id uuid.UUID) repository.Lead {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.leads[id]
}

func (f *fakeRepo) savedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.evaluations)
}

var _ repository.EvaluationRepository = (*fakeRepo)(nil)

// fakeEvaluator parses a canned model reply, or fails with err.
type fakeEvaluator struct {
	mu      sync.Mutex
	raw     string
	err     error
	prompts []string
}

func (f *fakeEvaluator) Evaluate(_ context.Context, promptText string, _ agent.Settings) (agent.Outcome, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, promptText)
	if f.err != nil {
		return agent.Outcome{}, f.err
	}
	return agent.ParseOutput(f.raw), nil
}

type repoCatalog struct {
	repo        *fakeRepo
	invalidated []uuid.UUID
}

func (c *repoCatalog) Load(ctx context.Context, tenantID uuid.UUID) (*catalog.Index, error) {
	products, _ := c.repo.ListCatalogProducts(ctx, tenantID)
	synonyms, _ := c.repo.ListProductSynonyms(ctx, tenantID)
	return catalog.Build(tenantID, products, synonyms), nil
}

func (c *repoCatalog) Invalidate(_ context.Context, tenantID uuid.UUID) error {
	c.invalidated = append(c.invalidated, tenantID)
	return nil
}

type recordingRecorder struct {
	mu     sync.Mutex
	events []analytics.Event
}

func (r *recordingRecorder) RecordEvent(_ context.Context, event analytics.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingRecorder) count(eventType analytics.EventType) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, e := range r.events {
		if e.Type == eventType {
			n++
		}
	}
	return n
}

type recordingBus struct {
	mu        sync.Mutex
	published []events.Event
	handlers  map[string][]events.Handler
}

func (b *recordingBus) Publish(ctx context.Context, event events.Event) {
	b.mu.Lock()
	b.published = append(b.published, event)
	handlers := b.handlers[event.EventName()]
	b.mu.Unlock()
	for _, h := range handlers {
		_ = h.Handle(ctx, event)
	}
}

func (b *recordingBus) PublishSync(ctx context.Context, event events.Event) error {
	b.Publish(ctx, event)
	return nil
}

func (b *recordingBus) Subscribe(eventName string, handler events.Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.handlers == nil {
		b.handlers = make(map[string][]events.Handler)
	}
	b.handlers[eventName] = append(b.handlers[eventName], handler)
}

func (b *recordingBus) names() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, 0, len(b.published))
	for _, e := range b.published {
		out = append(out, e.EventName())
	}
	return out
}

// fixture is one tenant with a lead mid-conversation.
type fixture struct {
	repo      *fakeRepo
	evaluator *fakeEvaluator
	catalog   *repoCatalog
	recorder  *recordingRecorder
	bus       *recordingBus
	orch      *Orchestrator
	req       Request
	productID uuid.UUID
}

const replyHighInterest = `{"score_potencial":9,"score_satisfaccion":8,"interes_productos":["Plan Premium"],"comentario":"Interesado en el plan premium","palabras_clave":["premium","soporte"]}`

func newFixture(defaults domain.EvaluationConfig) *fixture {
	repo := newFakeRepo()
	tenantID, leadID, convID, msgID := uuid.New(), uuid.New(), uuid.New(), uuid.New()
	productID := uuid.New()

	repo.leads[leadID] = repository.Lead{ID: leadID, TenantID: tenantID, Name: "Ana", Score: 40, OriginChannel: "whatsapp"}
	repo.messages[uuid.New()] = repository.Message{ConversationID: convID, TenantID: tenantID, Role: repository.RoleBot, Content: "Hola, ¿en qué te ayudo?", Position: 1}
	repo.messages[msgID] = repository.Message{ID: msgID, ConversationID: convID, TenantID: tenantID, Role: repository.RoleUser, Content: "Quiero el Plan Premium para mi empresa", Position: 2}
	repo.products = []repository.CatalogProduct{
		{ID: productID, TenantID: tenantID, Name: "Plan Premium", Description: "Suscripción anual", Features: []string{"soporte prioritario"}},
		{ID: uuid.New(), TenantID: tenantID, Name: "Plan Básico", Description: "Suscripción mensual"},
	}

	evaluator := &fakeEvaluator{raw: replyHighInterest}
	cat := &repoCatalog{repo: repo}
	recorder := &recordingRecorder{}
	bus := &recordingBus{}

	return &fixture{
		repo:      repo,
		evaluator: evaluator,
		catalog:   cat,
		recorder:  recorder,
		bus:       bus,
		orch:      NewOrchestrator(repo, cat, evaluator, recorder, bus, defaults, nil),
		req:       Request{TenantID: tenantID, LeadID: leadID, ConversationID: convID, MessageID: msgID},
		productID: productID,
	}
}

// addUserMessage appends a user message to the fixture conversation and
// returns the request that evaluates it.
func (f *fixture) addUserMessage(content string, position int64) Request {
	id := uuid.New()
	f.repo.mu.Lock()
	f.repo.messages[id] = repository.Message{ID: id, ConversationID: f.req.ConversationID, TenantID: f.req.TenantID, Role: repository.RoleUser, Content: content, Position: position}
	f.repo.mu.Unlock()
	req := f.req
	req.MessageID = id
	return req
}
