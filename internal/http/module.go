// Package http holds the contracts between the router and the modules that
// mount routes on it.
package http

import (
	"crm_messaging_backend/platform/config"

	"github.com/gin-gonic/gin"
)

// Module is a bounded context that mounts its own routes.
type Module interface {
	Name() string
	RegisterRoutes(ctx *RouterContext)
}

// RouterContext is handed to each Module during registration.
type RouterContext struct {
	Engine *gin.Engine
	// V1 is /api/v1 without tenant scoping.
	V1 *gin.RouterGroup
	// Tenant is /api/v1 behind the X-Tenant-ID check. Evaluation routes go here.
	Tenant *gin.RouterGroup
	Config config.HTTPConfig
}
