package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/agriops/farmops-api/internal/core/domain"
)

func featureContext(e *echo.Echo, rec *httptest.ResponseRecorder, tier domain.Tier) echo.Context {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	c := e.NewContext(req, rec)
	c.Set(ContextKey, domain.TenantContext{
		TenantID:     "farm-a",
		UserID:       "user-1",
		Subscription: domain.Subscription{Tier: tier, Limits: domain.PlanFor(tier).Limits},
	})
	return c
}

func TestRequireFeature_Allows(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := featureContext(e, rec, domain.TierProfessional)

	called := false
	handler := RequireFeature(domain.FeatureBulkExport)(func(c echo.Context) error {
		called = true
		return c.NoContent(http.StatusOK)
	})

	if err := handler(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	if !called {
		t.Fatalf("next handler not called")
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRequireFeature_Forbids(t *testing.T) {
	e := echo.New()
	rec := httptest.NewRecorder()
	c := featureContext(e, rec, domain.TierBeta)

	handler := RequireFeature(domain.FeatureBulkExport)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	_ = handler(c)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", rec.Code)
	}
}

func TestRequireFeature_MissingContext(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	handler := RequireFeature(domain.FeatureAPIAccess)(func(c echo.Context) error {
		t.Fatalf("should not reach next handler")
		return nil
	})

	if err := handler(c); err != nil {
		e.HTTPErrorHandler(err, c)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}
