package transport

import (
	"time"

	"github.com/google/uuid"
)

// Evaluation triggers

type EvaluateMessageRequest struct {
	LeadID         uuid.UUID `json:"leadId" validate:"required"`
	ConversationID uuid.UUID `json:"conversationId" validate:"required"`
	MessageID      uuid.UUID `json:"messageId" validate:"required"`
}

type EvaluateMessageQuery struct {
	Sync bool `form:"sync"`
}

type EvaluateConversationRequest struct {
	LeadID         uuid.UUID `json:"leadId" validate:"required"`
	ConversationID uuid.UUID `json:"conversationId" validate:"required"`
	Sync           bool      `json:"sync"`
}

// Evaluation statuses reported to callers.
const (
	StatusQueued    = "queued"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

type MatchResponse struct {
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Score     float64   `json:"score"`
}

type EvaluationResponse struct {
	ID                uuid.UUID       `json:"id"`
	LeadID            uuid.UUID       `json:"leadId"`
	ConversationID    uuid.UUID       `json:"conversationId"`
	MessageID         uuid.UUID       `json:"messageId"`
	ScorePotencial    int             `json:"scorePotencial"`
	ScoreSatisfaccion int             `json:"scoreSatisfaccion"`
	InteresProductos  []string        `json:"interesProductos"`
	Comentario        string          `json:"comentario"`
	PalabrasClave     []string        `json:"palabrasClave"`
	MatchedProducts   []MatchResponse `json:"matchedProducts"`
	NuevoScore        int             `json:"nuevoScore"`
	OutputStatus      string          `json:"outputStatus"`
	CreatedAt         time.Time       `json:"createdAt"`
}

type EvaluateMessageResponse struct {
	Status        string              `json:"status"`
	MessageID     uuid.UUID           `json:"messageId"`
	Evaluation    *EvaluationResponse `json:"evaluation,omitempty"`
	PreviousScore *int                `json:"previousScore,omitempty"`
	Temperature   string              `json:"temperature,omitempty"`
	Priority      string              `json:"priority,omitempty"`
	Error         string              `json:"error,omitempty"`
}

type EvaluateConversationResponse struct {
	Messages  int                       `json:"messages"`
	Queued    int                       `json:"queued"`
	Completed int                       `json:"completed"`
	Failed    int                       `json:"failed"`
	Results   []EvaluateMessageResponse `json:"results"`
}

// Listing and stats

type ListEvaluationsRequest struct {
	Limit int `form:"limit" validate:"omitempty,min=1,max=200"`
	Days  int `form:"days" validate:"omitempty,min=1,max=365"`
}

type EvaluationListResponse struct {
	Items []EvaluationResponse `json:"items"`
	Total int                  `json:"total"`
}

type StatsRequest struct {
	Days int `form:"days" validate:"omitempty,min=1,max=365"`
	Top  int `form:"top" validate:"omitempty,min=1,max=50"`
}

// Tenant configuration

// UpdateEvaluationConfigRequest is a partial update; absent fields keep their
// current value.
type UpdateEvaluationConfigRequest struct {
	RecencyWeight          *float64 `json:"recencyWeight,omitempty" validate:"omitempty,weight"`
	HistoryWeight          *float64 `json:"historyWeight,omitempty" validate:"omitempty,weight"`
	InteractionWeight      *float64 `json:"interactionWeight,omitempty" validate:"omitempty,weight"`
	SentimentWeight        *float64 `json:"sentimentWeight,omitempty" validate:"omitempty,weight"`
	IntentWeight           *float64 `json:"intentWeight,omitempty" validate:"omitempty,weight"`
	ProductInterestWeight  *float64 `json:"productInterestWeight,omitempty" validate:"omitempty,weight"`
	EngagementWeight       *float64 `json:"engagementWeight,omitempty" validate:"omitempty,weight"`
	MinSatisfaction        *int     `json:"minSatisfaction,omitempty" validate:"omitempty,min=1,max=10"`
	DrasticChangeThreshold *int     `json:"drasticChangeThreshold,omitempty" validate:"omitempty,min=1,max=9"`
	NormalizeKeywords      *bool    `json:"normalizeKeywords,omitempty"`
	MatchingAlgorithm      *string  `json:"matchingAlgorithm,omitempty" validate:"omitempty,oneof=keyword exact none"`
}

// Catalog synonyms

type ReplaceSynonymsRequest struct {
	Synonyms []string `json:"synonyms" validate:"max=100,dive,notblank,max=100"`
}

type SynonymsResponse struct {
	ProductID uuid.UUID `json:"productId"`
	Synonyms  []string  `json:"synonyms"`
}
