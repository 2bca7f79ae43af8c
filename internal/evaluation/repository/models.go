package repository

import (
	"time"

	"github.com/google/uuid"
)

type Lead struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	Name          string
	Email         string
	Phone         string
	Score         int
	State         string
	OriginChannel string
	Temperature   *string
	Priority      *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Message roles as stored in conversation_messages.role.
const (
	RoleUser  = "user"
	RoleBot   = "bot"
	RoleAgent = "agent"
)

type Message struct {
	ID             uuid.UUID
	ConversationID uuid.UUID
	TenantID       uuid.UUID
	LeadID         *uuid.UUID
	Role           string
	Content        string
	Position       int64
	CreatedAt      time.Time
}

// MatchedProduct is a ranked catalog match stored on an evaluation.
type MatchedProduct struct {
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Score     float64   `json:"score"`
}

// Evaluation is one persisted, append-only lead evaluation.
type Evaluation struct {
	ID                uuid.UUID        `json:"id"`
	TenantID          uuid.UUID        `json:"tenantId"`
	LeadID            uuid.UUID        `json:"leadId"`
	ConversationID    uuid.UUID        `json:"conversationId"`
	MessageID         uuid.UUID        `json:"messageId"`
	ScorePotencial    int              `json:"scorePotencial"`
	ScoreSatisfaccion int              `json:"scoreSatisfaccion"`
	InteresProductos  []string         `json:"interesProductos"`
	Comentario        string           `json:"comentario"`
	Keywords          []string         `json:"palabrasClave"`
	MatchedProducts   []MatchedProduct `json:"matchedProducts"`
	NuevoScore        int              `json:"nuevoScore"`
	OutputStatus      string           `json:"outputStatus"`
	Prompt            string           `json:"-"`
	LLMConfigID       *uuid.UUID       `json:"llmConfigId,omitempty"`
	CreatedAt         time.Time        `json:"createdAt"`
}

// SaveEvaluationParams carries a new evaluation and the lead score it implies.
// Both are written in one transaction.
type SaveEvaluationParams struct {
	TenantID          uuid.UUID
	LeadID            uuid.UUID
	ConversationID    uuid.UUID
	MessageID         uuid.UUID
	ScorePotencial    int
	ScoreSatisfaccion int
	InteresProductos  []string
	Comentario        string
	Keywords          []string
	MatchedProducts   []MatchedProduct
	NuevoScore        int
	OutputStatus      string
	Prompt            string
	LLMConfigID       *uuid.UUID
}

type CatalogProduct struct {
	ID          uuid.UUID
	TenantID    uuid.UUID
	Name        string
	Description string
	Features    []string
	Position    int64
}

type ProductSynonym struct {
	ProductID uuid.UUID
	Synonym   string
}

type Interaction struct {
	ID                uuid.UUID
	LeadID            uuid.UUID
	InteractionTypeID uuid.UUID
	ValorScore        float64
	CreatedAt         time.Time
}

type CreateInteractionParams struct {
	TenantID          uuid.UUID
	LeadID            uuid.UUID
	InteractionTypeID uuid.UUID
	ValorScore        float64
	Metadata          map[string]any
}

type InteractionType struct {
	ID          uuid.UUID
	Name        string
	Description string
	ValorScore  float64
}

type Intention struct {
	ID          uuid.UUID
	Name        string
	Description string
	Keywords    []string
	Priority    int
}

// LLMConfiguration is a tenant's default model override.
type LLMConfiguration struct {
	ID      uuid.UUID
	Model   string
	APIKey  string
	BaseURL string
}

// EvaluationFilter selects evaluations for listing. At least one of LeadID or
// ConversationID should be set.
type EvaluationFilter struct {
	TenantID       uuid.UUID
	LeadID         *uuid.UUID
	ConversationID *uuid.UUID
	Since          *time.Time
	Limit          int
}

type LeadScoreSummary struct {
	LeadID      uuid.UUID `json:"leadId"`
	Name        string    `json:"name"`
	Score       int       `json:"score"`
	Temperature *string   `json:"temperature,omitempty"`
}

type NamedCount struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type EvaluationStats struct {
	Since        time.Time          `json:"since"`
	Evaluations  int                `json:"evaluations"`
	AverageScore float64            `json:"averageScore"`
	TopLeads     []LeadScoreSummary `json:"topLeads"`
	TopProducts  []NamedCount       `json:"topProducts"`
	TopKeywords  []NamedCount       `json:"topKeywords"`
}
