package repository

import (
	"context"
	"time"

	"crm_messaging_backend/internal/evaluation/domain"

	"github.com/google/uuid"
)

// =====================================
// Segregated Interfaces (Interface Segregation Principle)
// =====================================

// LeadStore reads leads and writes classification outputs. The score itself
// is only written through EvaluationWriter.SaveEvaluation.
type LeadStore interface {
	GetLead(ctx context.Context, leadID, tenantID uuid.UUID) (Lead, error)
	UpdateLeadClassification(ctx context.Context, leadID, tenantID uuid.UUID, temperature, priority string) error
}

// ConversationReader reads conversation transcripts.
type ConversationReader interface {
	GetMessage(ctx context.Context, messageID, tenantID uuid.UUID) (Message, error)
	ListConversationMessages(ctx context.Context, conversationID, tenantID uuid.UUID, limit int) ([]Message, error)
}

// EvaluationReader reads evaluation history, most recent first.
type EvaluationReader interface {
	ListRecentEvaluations(ctx context.Context, leadID, tenantID uuid.UUID, limit int) ([]Evaluation, error)
	ListEvaluations(ctx context.Context, filter EvaluationFilter) ([]Evaluation, error)
	GetEvaluationStats(ctx context.Context, tenantID uuid.UUID, since time.Time, top int) (EvaluationStats, error)
}

// EvaluationWriter persists an evaluation together with the lead score.
type EvaluationWriter interface {
	SaveEvaluation(ctx context.Context, params SaveEvaluationParams) (Evaluation, error)
}

// ConfigStore reads and writes per-tenant engine configuration.
type ConfigStore interface {
	GetEvaluationConfig(ctx context.Context, tenantID uuid.UUID) (domain.EvaluationConfig, error)
	UpsertEvaluationConfig(ctx context.Context, tenantID uuid.UUID, cfg domain.EvaluationConfig) error
	GetDefaultLLMConfiguration(ctx context.Context, tenantID uuid.UUID) (LLMConfiguration, error)
}

// CatalogStore reads catalog entries and manages curated synonyms.
type CatalogStore interface {
	ListCatalogProducts(ctx context.Context, tenantID uuid.UUID) ([]CatalogProduct, error)
	ListProductSynonyms(ctx context.Context, tenantID uuid.UUID) ([]ProductSynonym, error)
	ReplaceProductSynonyms(ctx context.Context, tenantID, productID uuid.UUID, synonyms []string) error
}

// TaxonomyReader reads the tenant's intent and interaction taxonomies.
type TaxonomyReader interface {
	ListIntentions(ctx context.Context, tenantID uuid.UUID) ([]Intention, error)
	ListInteractionTypes(ctx context.Context, tenantID uuid.UUID) ([]InteractionType, error)
}

// InteractionStore reads and records lead interactions.
type InteractionStore interface {
	ListRecentInteractions(ctx context.Context, leadID, tenantID uuid.UUID, limit int) ([]Interaction, error)
	CreateInteractions(ctx context.Context, params []CreateInteractionParams) error
}

// EvaluationRepository is the full persistence surface of the evaluation engine.
type EvaluationRepository interface {
	LeadStore
	ConversationReader
	EvaluationReader
	EvaluationWriter
	ConfigStore
	CatalogStore
	TaxonomyReader
	InteractionStore
}

var _ EvaluationRepository = (*Repository)(nil)
