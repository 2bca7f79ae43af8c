package events

import (
	platformevents "crm_messaging_backend/platform/events"
	"crm_messaging_backend/platform/logger"
)

// InMemoryBus dispatches evaluation and conversation events in-process.
type InMemoryBus = platformevents.InMemoryBus

func NewInMemoryBus(log *logger.Logger) *InMemoryBus {
	return platformevents.NewInMemoryBus(log)
}
