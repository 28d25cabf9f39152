package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agriops/farmops-api/internal/api/middleware"
	"github.com/agriops/farmops-api/internal/core/domain"
)

// ctxTenant extracts the TenantContext injected by the Auth middleware and
// performs a fast-fail check before any service call: an absent or invalid
// context proves the middleware did not run (or the token was hollow), so the
// request is rejected with 401 before touching any data.
func ctxTenant(c echo.Context) (domain.TenantContext, error) {
	tctx, ok := c.Get(middleware.ContextKey).(domain.TenantContext)
	if !ok || !tctx.Valid() {
		return domain.TenantContext{}, echo.NewHTTPError(http.StatusUnauthorized, "missing tenant context")
	}
	return tctx, nil
}
