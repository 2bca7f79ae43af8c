// Package analytics records evaluation lifecycle events for reporting.
// Recording is fire-and-forget: it never blocks or fails the caller.
package analytics

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	EventRespuestaEvaluada     EventType = "respuesta_evaluada"
	EventLeadCalificado        EventType = "lead_calificado"
	EventErrorSistema          EventType = "error_sistema"
	EventSalidaInvalida        EventType = "evaluacion_salida_invalida"
	EventCambioDrastico        EventType = "cambio_drastico"
	EventSatisfaccionBaja      EventType = "satisfaccion_baja"
	EventInteraccionRegistrada EventType = "interaccion_registrada"
)

// Results reported with each event.
const (
	ResultSuccess = "exito"
	ResultWarning = "advertencia"
	ResultError   = "error"
)

// Event is one analytics fact. Optional identifiers are nil when unknown.
type Event struct {
	TenantID       uuid.UUID      `json:"tenantId"`
	Type           EventType      `json:"type"`
	LeadID         *uuid.UUID     `json:"leadId,omitempty"`
	ConversationID *uuid.UUID     `json:"conversationId,omitempty"`
	MessageID      *uuid.UUID     `json:"messageId,omitempty"`
	ScoreValue     *float64       `json:"scoreValue,omitempty"`
	Duration       time.Duration  `json:"-"`
	Result         string         `json:"result"`
	Detail         string         `json:"detail"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	OccurredAt     time.Time      `json:"occurredAt"`
}

// Recorder accepts events without blocking.
type Recorder interface {
	RecordEvent(ctx context.Context, event Event)
}

// Sink durably writes one event. Sinks may block; the recorder calls them off
// the caller's path.
type Sink interface {
	Write(ctx context.Context, event Event) error
}

// NopRecorder discards every event.
type NopRecorder struct{}

func (NopRecorder) RecordEvent(context.Context, Event) {}

// Score is a convenience for the optional ScoreValue field.
func Score(v float64) *float64 {
	return &v
}
