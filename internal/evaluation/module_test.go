package evaluation

import (
	"context"
	"testing"

	"crm_messaging_backend/internal/evaluation/domain"
	"crm_messaging_backend/internal/evaluation/repository"
	"crm_messaging_backend/internal/events"

	"github.com/google/uuid"
)

func TestModuleSchedulesOnlyUserMessages(t *testing.T) {
	f := newFixture(domain.DefaultEvaluationConfig())
	trig := &recordingTrigger{}
	m := &Module{trigger: trig}
	bus := &recordingBus{}
	m.RegisterHandlers(bus)

	base := events.MessageReceived{
		BaseEvent:      events.NewBaseEvent(),
		TenantID:       f.req.TenantID,
		LeadID:         f.req.LeadID,
		ConversationID: f.req.ConversationID,
		MessageID:      f.req.MessageID,
		Role:           repository.RoleUser,
		Channel:        "whatsapp",
	}
	bus.Publish(context.Background(), base)

	fromBot := base
	fromBot.MessageID = uuid.New()
	fromBot.Role = repository.RoleBot
	bus.Publish(context.Background(), fromBot)

	noLead := base
	noLead.MessageID = uuid.New()
	noLead.LeadID = uuid.Nil
	bus.Publish(context.Background(), noLead)

	if len(trig.scheduled) != 1 || trig.scheduled[0] != f.req {
		t.Fatalf("expected only the user message scheduled, got %+v", trig.scheduled)
	}
}
