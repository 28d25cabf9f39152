package middleware

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"

	"github.com/agriops/farmops-api/internal/core/domain"
)

// ContextKey is the echo context key under which the resolved TenantContext
// is stored.
const ContextKey = "tenant_context"

// Auth validates the JWT and injects a fully resolved TenantContext into the
// echo context. The token must carry tenant_id, user_id and tier claims;
// roles and permissions are optional string arrays.
func Auth(jwtSecret string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
			}

			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization header")
			}

			claims := jwt.MapClaims{}
			tkn, err := jwt.ParseWithClaims(parts[1], claims, func(token *jwt.Token) (interface{}, error) {
				if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
					return nil, jwt.ErrTokenSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})
			if err != nil || !tkn.Valid {
				return echo.NewHTTPError(http.StatusUnauthorized, "invalid token")
			}

			tctx := tenantContextFromClaims(claims)
			if !tctx.Valid() {
				return echo.NewHTTPError(http.StatusUnauthorized, "token missing tenant claims")
			}

			c.Set(ContextKey, tctx)
			return next(c)
		}
	}
}

func tenantContextFromClaims(claims jwt.MapClaims) domain.TenantContext {
	tier := domain.Tier(stringClaim(claims, "tier"))
	return domain.TenantContext{
		TenantID:    stringClaim(claims, "tenant_id"),
		UserID:      stringClaim(claims, "user_id"),
		Roles:       stringSliceClaim(claims, "roles"),
		Permissions: stringSliceClaim(claims, "permissions"),
		Subscription: domain.Subscription{
			Tier:   tier,
			Limits: domain.PlanFor(tier).Limits,
		},
	}
}

func stringClaim(claims jwt.MapClaims, key string) string {
	s, _ := claims[key].(string)
	return s
}

func stringSliceClaim(claims jwt.MapClaims, key string) []string {
	raw, ok := claims[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
