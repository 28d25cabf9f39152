package middleware

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/agriops/farmops-api/internal/core/domain"
)

// RequireFeature blocks requests whose subscription tier does not include the
// named feature. It must run after Auth.
func RequireFeature(feature string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tctx, ok := c.Get(ContextKey).(domain.TenantContext)
			if !ok {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing tenant context")
			}
			if !domain.HasFeature(tctx.Subscription.Tier, feature) {
				return c.JSON(http.StatusForbidden, map[string]string{
					"error": "feature not included in subscription plan",
				})
			}
			return next(c)
		}
	}
}
