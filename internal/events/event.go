// Package events declares the events exchanged between the conversation
// layer and the evaluation engine. The bus itself lives in platform/events.
package events

import (
	"crm_messaging_backend/platform/events"

	"github.com/google/uuid"
)

type (
	Event       = events.Event
	Bus         = events.Bus
	Handler     = events.Handler
	HandlerFunc = events.HandlerFunc
	BaseEvent   = events.BaseEvent
)

var NewBaseEvent = events.NewBaseEvent

// =============================================================================
// Conversation Domain Events
// =============================================================================

// MessageReceived is published by the channel layer once an inbound message
// has been stored against a conversation.
type MessageReceived struct {
	BaseEvent
	TenantID       uuid.UUID `json:"tenantId"`
	LeadID         uuid.UUID `json:"leadId"`
	ConversationID uuid.UUID `json:"conversationId"`
	MessageID      uuid.UUID `json:"messageId"`
	Role           string    `json:"role"`
	Channel        string    `json:"channel"`
}

func (e MessageReceived) EventName() string { return "conversations.message.received" }

// =============================================================================
// Evaluation Domain Events
// =============================================================================

// LeadEvaluated is published after an evaluation record and the new lead
// score have been committed.
type LeadEvaluated struct {
	BaseEvent
	TenantID          uuid.UUID `json:"tenantId"`
	LeadID            uuid.UUID `json:"leadId"`
	ConversationID    uuid.UUID `json:"conversationId"`
	MessageID         uuid.UUID `json:"messageId"`
	EvaluationID      uuid.UUID `json:"evaluationId"`
	PreviousScore     int       `json:"previousScore"`
	NewScore          int       `json:"newScore"`
	ScorePotencial    int       `json:"scorePotencial"`
	ScoreSatisfaccion int       `json:"scoreSatisfaccion"`
	MatchedProducts   []string  `json:"matchedProducts"`
}

func (e LeadEvaluated) EventName() string { return "evaluation.lead.evaluated" }

// LeadClassified is published when temperature or priority is recomputed.
type LeadClassified struct {
	BaseEvent
	TenantID    uuid.UUID `json:"tenantId"`
	LeadID      uuid.UUID `json:"leadId"`
	Score       int       `json:"score"`
	Temperature string    `json:"temperature"`
	Priority    string    `json:"priority"`
}

func (e LeadClassified) EventName() string { return "evaluation.lead.classified" }

// EvaluationFailed is published when an evaluation ends in the FAILED state.
type EvaluationFailed struct {
	BaseEvent
	TenantID       uuid.UUID `json:"tenantId"`
	LeadID         uuid.UUID `json:"leadId"`
	ConversationID uuid.UUID `json:"conversationId"`
	MessageID      uuid.UUID `json:"messageId"`
	State          string    `json:"state"`
	Reason         string    `json:"reason"`
}

func (e EvaluationFailed) EventName() string { return "evaluation.failed" }
