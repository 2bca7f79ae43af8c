package http

import (
	"context"

	"crm_messaging_backend/internal/events"
	"crm_messaging_backend/platform/config"
	"crm_messaging_backend/platform/logger"
)

type RouterConfig interface {
	config.HTTPConfig
}

// HealthChecker backs the readiness probe; *pgxpool.Pool satisfies it.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App is assembled by cmd/api and consumed by router.New.
type App struct {
	Config   RouterConfig
	Logger   *logger.Logger
	Health   HealthChecker
	EventBus events.Bus
	Modules  []Module
}
