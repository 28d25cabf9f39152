package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/agriops/farmops-api/internal/core/domain"
	"github.com/agriops/farmops-api/internal/core/ports"
	"github.com/agriops/farmops-api/internal/core/tenancy"
)

// TenantHandler exposes the tenant's own operational views: usage, audit
// trail, subscription standing, and cache controls. Everything is scoped to
// the caller's tenant; there is no cross-tenant admin surface here.
type TenantHandler struct {
	usage *tenancy.TenantUsageMonitor
	audit *tenancy.TenantAuditLogger
	cache *tenancy.TenantAwareCache
	repo  ports.AnimalRepository
}

func NewTenantHandler(
	usage *tenancy.TenantUsageMonitor,
	audit *tenancy.TenantAuditLogger,
	cache *tenancy.TenantAwareCache,
	repo ports.AnimalRepository,
) *TenantHandler {
	return &TenantHandler{usage: usage, audit: audit, cache: cache, repo: repo}
}

// UsageReport handles GET /v1/tenant/usage.
//
// @Summary      Usage report for the caller's tenant
// @Tags         tenant
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  tenancy.UsageReport
// @Router       /v1/tenant/usage [get]
func (h *TenantHandler) UsageReport(c echo.Context) error {
	tctx, err := ctxTenant(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.usage.Report(tctx.TenantID))
}

type subscriptionResponse struct {
	Tier     string                    `json:"tier"`
	Limits   domain.SubscriptionLimits `json:"limits"`
	Features []string                  `json:"features"`
	Usage    domain.UsagePercentage    `json:"usage"`
}

// Subscription handles GET /v1/tenant/subscription.
//
// @Summary      Subscription standing with quota usage
// @Tags         tenant
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  subscriptionResponse
// @Router       /v1/tenant/subscription [get]
func (h *TenantHandler) Subscription(c echo.Context) error {
	tctx, err := ctxTenant(c)
	if err != nil {
		return err
	}

	count, err := h.repo.CountByTenant(c.Request().Context(), tctx.TenantID)
	if err != nil {
		return err
	}
	animals := int(count)
	plan := domain.PlanFor(tctx.Subscription.Tier)

	return c.JSON(http.StatusOK, subscriptionResponse{
		Tier:     string(tctx.Subscription.Tier),
		Limits:   plan.Limits,
		Features: plan.Features,
		Usage:    domain.CalculateUsagePercentage(domain.CurrentCounts{Animals: &animals}, tctx.Subscription.Tier),
	})
}

type auditLogsResponse struct {
	Data []tenancy.AuditEntry `json:"data"`
}

// AuditLogs handles GET /v1/tenant/audit.
//
// @Summary      Recent audit entries, most recent first
// @Tags         tenant
// @Produce      json
// @Security     BearerAuth
// @Param        limit  query     int  false  "Maximum entries (default 100)"
// @Success      200    {object}  auditLogsResponse
// @Router       /v1/tenant/audit [get]
func (h *TenantHandler) AuditLogs(c echo.Context) error {
	tctx, err := ctxTenant(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, auditLogsResponse{
		Data: h.audit.TenantLogs(tctx.TenantID, intQueryParam(c, "limit")),
	})
}

// ActivitySummary handles GET /v1/tenant/audit/summary.
//
// @Summary      Activity aggregates over a trailing window
// @Tags         tenant
// @Produce      json
// @Security     BearerAuth
// @Param        window  query     string  false  "Window duration (default 24h)"
// @Success      200     {object}  tenancy.ActivitySummary
// @Router       /v1/tenant/audit/summary [get]
func (h *TenantHandler) ActivitySummary(c echo.Context) error {
	tctx, err := ctxTenant(c)
	if err != nil {
		return err
	}

	window := 24 * time.Hour
	if raw := c.QueryParam("window"); raw != "" {
		parsed, err := time.ParseDuration(raw)
		if err != nil || parsed <= 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "invalid window duration")
		}
		window = parsed
	}
	return c.JSON(http.StatusOK, h.audit.Summary(tctx.TenantID, window))
}

// CacheStats handles GET /v1/tenant/cache.
//
// @Summary      Live cache entry counts
// @Tags         tenant
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  tenancy.CacheStats
// @Router       /v1/tenant/cache [get]
func (h *TenantHandler) CacheStats(c echo.Context) error {
	if _, err := ctxTenant(c); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, h.cache.Stats())
}

type invalidateResponse struct {
	Invalidated int `json:"invalidated"`
}

// InvalidateCache handles DELETE /v1/tenant/cache.
//
// @Summary      Drop the tenant's cached entries
// @Tags         tenant
// @Produce      json
// @Security     BearerAuth
// @Param        pattern  query     string  false  "Key pattern (e.g. animals:*); empty drops everything"
// @Success      200      {object}  invalidateResponse
// @Router       /v1/tenant/cache [delete]
func (h *TenantHandler) InvalidateCache(c echo.Context) error {
	tctx, err := ctxTenant(c)
	if err != nil {
		return err
	}

	var n int
	if pattern := c.QueryParam("pattern"); pattern != "" {
		n = h.cache.InvalidatePattern(pattern, tctx.TenantID)
	} else {
		n = h.cache.InvalidateTenant(tctx.TenantID)
	}
	return c.JSON(http.StatusOK, invalidateResponse{Invalidated: n})
}
