package router

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	apphttp "crm_messaging_backend/internal/http"
	"crm_messaging_backend/platform/httpkit"
	"crm_messaging_backend/platform/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type testConfig struct{}

func (testConfig) GetHTTPAddr() string      { return ":0" }
func (testConfig) GetCORSAllowAll() bool    { return false }
func (testConfig) GetCORSOrigins() []string { return []string{"http://localhost:3000"} }
func (testConfig) GetCORSAllowCreds() bool  { return true }

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

type echoModule struct{}

func (echoModule) Name() string { return "echo" }

func (echoModule) RegisterRoutes(ctx *apphttp.RouterContext) {
	ctx.Tenant.GET("/echo", func(c *gin.Context) {
		id, _ := httpkit.GetTenantID(c)
		c.String(http.StatusOK, id.String())
	})
}

func newTestApp(health apphttp.HealthChecker) *apphttp.App {
	gin.SetMode(gin.TestMode)
	return &apphttp.App{
		Config:  testConfig{},
		Logger:  logger.NewNop(),
		Health:  health,
		Modules: []apphttp.Module{echoModule{}},
	}
}

func TestReadinessReflectsHealthCheck(t *testing.T) {
	healthy := New(newTestApp(pingFunc(func(context.Context) error { return nil })))
	rec := httptest.NewRecorder()
	healthy.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ready", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	down := New(newTestApp(pingFunc(func(context.Context) error { return errors.New("db down") })))
	rec = httptest.NewRecorder()
	down.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/ready", nil))
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestModuleRoutesAreTenantScoped(t *testing.T) {
	engine := New(newTestApp(nil))

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/echo", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without tenant, got %d", rec.Code)
	}

	tenantID := uuid.New()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/echo", nil)
	req.Header.Set(httpkit.TenantHeader, tenantID.String())
	rec = httptest.NewRecorder()
	engine.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || rec.Body.String() != tenantID.String() {
		t.Fatalf("expected tenant echoed, got %d %q", rec.Code, rec.Body.String())
	}
	if rec.Header().Get(httpkit.RequestIDHeader) == "" {
		t.Fatalf("expected a request id header")
	}
}
