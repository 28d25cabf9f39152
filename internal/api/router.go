package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/agriops/farmops-api/internal/api/handler"
	"github.com/agriops/farmops-api/internal/api/middleware"
	"github.com/agriops/farmops-api/internal/core/domain"
)

// Deps carries the explicitly constructed dependencies the router wires up.
// Nothing here is a singleton; main builds one of each and passes them in.
type Deps struct {
	JWTSecret string
	Logger    zerolog.Logger

	Animals *handler.AnimalHandler
	Tenant  *handler.TenantHandler
	Data    *handler.DataHandler
	Health  *handler.HealthHandler
	Ready   *handler.ReadinessHandler
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Logger)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.Logger())
	e.Use(echoprometheus.NewMiddleware("farmops"))

	// --- Unauthenticated surface ---
	e.GET("/metrics", echoprometheus.NewHandler())
	e.GET("/health", deps.Health.Liveness)       // liveness  – is the process alive?
	e.GET("/health/ready", deps.Ready.Readiness) // readiness – are dependencies up?

	// --- Authenticated API ---
	auth := middleware.Auth(deps.JWTSecret)
	v1 := e.Group("/v1", auth)

	v1.POST("/animals", deps.Animals.Create)
	v1.GET("/animals", deps.Animals.List)
	v1.GET("/animals/:id", deps.Animals.Get)
	v1.PATCH("/animals/:id", deps.Animals.Update)
	v1.DELETE("/animals/:id", deps.Animals.Delete)

	v1.GET("/tenant/usage", deps.Tenant.UsageReport)
	v1.GET("/tenant/subscription", deps.Tenant.Subscription)
	v1.GET("/tenant/audit", deps.Tenant.AuditLogs)
	v1.GET("/tenant/audit/summary", deps.Tenant.ActivitySummary)
	v1.GET("/tenant/cache", deps.Tenant.CacheStats)
	v1.DELETE("/tenant/cache", deps.Tenant.InvalidateCache)

	bulk := middleware.RequireFeature(domain.FeatureBulkExport)
	v1.GET("/data/export", deps.Data.Export, bulk)
	v1.POST("/data/import", deps.Data.Import, bulk)

	return e
}
