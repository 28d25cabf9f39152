package tenancy

import (
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/agriops/farmops-api/internal/core/domain"
)

// Operation categories used by the rate limiter.
const (
	CategoryRead   = "read"
	CategoryWrite  = "write"
	CategoryDelete = "delete"
)

const rateWindow = time.Minute

// tierCeilings maps a subscription tier to its per-minute operation
// allowances per category.
var tierCeilings = map[domain.Tier]map[string]int{
	domain.TierBeta:         {CategoryRead: 100, CategoryWrite: 20, CategoryDelete: 5},
	domain.TierProfessional: {CategoryRead: 1000, CategoryWrite: 100, CategoryDelete: 20},
	domain.TierEnterprise:   {CategoryRead: 10000, CategoryWrite: 500, CategoryDelete: 100},
}

// RateLimitResult is the verdict of a rate-limit check. On denial ResetAt
// tells the caller when the current window expires.
type RateLimitResult struct {
	Allowed bool      `json:"allowed"`
	Reason  string    `json:"reason,omitempty"`
	ResetAt time.Time `json:"reset_at,omitempty"`
}

type rateCounter struct {
	windowStart time.Time
	count       int
}

// Middleware is the composition point the API layer calls around every data
// operation: writes are stamped and audited, outbound reads are re-filtered,
// and each operation is counted against a fixed-window per-tenant rate limit.
type Middleware struct {
	audit *TenantAuditLogger
	log   zerolog.Logger

	mu       sync.Mutex
	counters map[string]*rateCounter
	now      func() time.Time
}

// NewMiddleware wires the middleware to the audit log it reports into.
func NewMiddleware(audit *TenantAuditLogger, log zerolog.Logger) *Middleware {
	return &Middleware{
		audit:    audit,
		log:      log,
		counters: make(map[string]*rateCounter),
		now:      time.Now,
	}
}

// ApplyToAPICall prepares a record for a mutating operation: it stamps the
// record with the caller's tenant and user, then records the operation in the
// audit log. A context failure aborts before any stamping side effect
// reaches persistence.
func (m *Middleware) ApplyToAPICall(record domain.TenantRecord, ctx domain.TenantContext, action, resource, resourceID string, dataSize int64) error {
	if err := Stamp(record, ctx); err != nil {
		m.log.Warn().
			Str("tenant_id", ctx.TenantID).
			Str("resource", resource).
			Err(err).
			Msg("rejected unstamped operation")
		return err
	}

	m.audit.LogActivity(ctx.TenantID, ctx.UserID, action, resource, resourceID, map[string]any{
		"data_size": dataSize,
	})
	return nil
}

// ValidateAPIResponse re-filters an outbound record set through the tenant
// filter immediately before it leaves the process boundary. This is
// deliberate defense in depth: even if an upstream query forgot to scope by
// tenant, nothing foreign survives this call.
func ValidateAPIResponse[T domain.TenantRecord](records []T, ctx domain.TenantContext) []T {
	return FilterByTenant(records, ctx)
}

// CheckRateLimit counts one operation of the given category against the
// tenant's per-tier ceiling within a fixed one-minute window. Counters are
// keyed by tenant and category, so one tenant's burst never throttles
// another. This is a per-process approximation, not a shared-store limiter.
func (m *Middleware) CheckRateLimit(ctx domain.TenantContext, category string) RateLimitResult {
	ceilings, ok := tierCeilings[ctx.Subscription.Tier]
	if !ok {
		ceilings = tierCeilings[domain.TierBeta]
	}
	ceiling, ok := ceilings[category]
	if !ok {
		return RateLimitResult{Allowed: true}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	key := ctx.TenantID + ":" + category
	counter, ok := m.counters[key]
	if !ok || now.Sub(counter.windowStart) >= rateWindow {
		counter = &rateCounter{windowStart: now}
		m.counters[key] = counter
	}

	if counter.count >= ceiling {
		resetAt := counter.windowStart.Add(rateWindow)
		return RateLimitResult{
			Reason:  fmt.Sprintf("%s rate limit of %d per minute exceeded", category, ceiling),
			ResetAt: resetAt,
		}
	}
	counter.count++
	return RateLimitResult{Allowed: true}
}
