package domain

import "errors"

const (
	RoleAdmin     = "admin"
	RoleFarmOwner = "farm_owner"
	RoleWorker    = "worker"
)

var ErrInvalidTenantContext = errors.New("invalid tenant context")
var ErrTenantMismatch = errors.New("record belongs to another tenant")
var ErrRecordNotFound = errors.New("record not found")
var ErrForbidden = errors.New("access forbidden")
var ErrLimitExceeded = errors.New("subscription limit exceeded")
var ErrRateLimited = errors.New("rate limit exceeded")

// Subscription couples a plan tier with the numeric limits resolved for it.
type Subscription struct {
	Tier   Tier               `json:"tier"`
	Limits SubscriptionLimits `json:"limits"`
}

// TenantContext describes the already-authenticated caller of every data
// operation. It is created once per request by the auth middleware and passed
// by value through the call chain; nothing below the API layer mutates it.
type TenantContext struct {
	TenantID     string       `json:"tenant_id"`
	UserID       string       `json:"user_id"`
	Roles        []string     `json:"roles"`
	Permissions  []string     `json:"permissions"`
	Subscription Subscription `json:"subscription"`
}

// Valid reports whether the context carries everything the isolation layer
// needs: a tenant, a user, and a resolved subscription.
func (c TenantContext) Valid() bool {
	return c.TenantID != "" && c.UserID != "" && c.Subscription.Tier != ""
}

// HasRole reports whether the context carries the given role.
func (c TenantContext) HasRole(role string) bool {
	for _, r := range c.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// IsAdmin reports whether the caller may touch records created by other
// users within the same tenant.
func (c TenantContext) IsAdmin() bool {
	return c.HasRole(RoleAdmin) || c.HasRole(RoleFarmOwner)
}

// HasPermission reports whether the context carries the given permission.
func (c TenantContext) HasPermission(perm string) bool {
	for _, p := range c.Permissions {
		if p == perm {
			return true
		}
	}
	return false
}
