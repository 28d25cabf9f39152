package tenancy

import (
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/agriops/farmops-api/internal/core/domain"
)

func newTestMiddleware() (*Middleware, *TenantAuditLogger) {
	audit := NewTenantAuditLogger(0, zerolog.Nop())
	return NewMiddleware(audit, zerolog.Nop()), audit
}

// ---------------------------------------------------------------------------
// ApplyToAPICall
// ---------------------------------------------------------------------------

func TestMiddleware_ApplyToAPICall_StampsAndAudits(t *testing.T) {
	m, audit := newTestMiddleware()
	ctx := testContext("farm-a", "user-1")
	a := &domain.Animal{RFIDTag: "RF-001"}

	if err := m.ApplyToAPICall(a, ctx, ActionCreate, "animal", "a-1", 256); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if a.TenantID != "farm-a" || !a.TenantValidated {
		t.Error("record not stamped")
	}

	logs := audit.TenantLogs("farm-a", 10)
	if len(logs) != 1 {
		t.Fatalf("expected 1 audit entry, got %d", len(logs))
	}
	if logs[0].Action != ActionCreate || logs[0].Resource != "animal" {
		t.Errorf("audit entry: %+v", logs[0])
	}
	if logs[0].Details["data_size"] != int64(256) {
		t.Errorf("data_size detail: %v", logs[0].Details["data_size"])
	}
}

func TestMiddleware_ApplyToAPICall_InvalidContextPropagates(t *testing.T) {
	m, audit := newTestMiddleware()
	a := &domain.Animal{RFIDTag: "RF-001"}

	err := m.ApplyToAPICall(a, domain.TenantContext{TenantID: "farm-a"}, ActionCreate, "animal", "", 0)
	if err != domain.ErrInvalidTenantContext {
		t.Fatalf("expected ErrInvalidTenantContext, got %v", err)
	}
	if logs := audit.TenantLogs("farm-a", 10); len(logs) != 0 {
		t.Error("failed operation must not be audited as applied")
	}
}

// ---------------------------------------------------------------------------
// ValidateAPIResponse
// ---------------------------------------------------------------------------

func TestMiddleware_ValidateAPIResponse_FiltersForeignRecords(t *testing.T) {
	ctx := testContext("farm-a", "user-1")

	// Simulates an upstream query that forgot its tenant scope.
	leaky := []*domain.Animal{
		animal("farm-a", "user-1", "RF-001"),
		animal("farm-b", "user-9", "RF-002"),
	}

	out := ValidateAPIResponse(leaky, ctx)
	if len(out) != 1 || out[0].RFIDTag != "RF-001" {
		t.Fatalf("defense-in-depth filter failed: %d records", len(out))
	}
}

// ---------------------------------------------------------------------------
// CheckRateLimit
// ---------------------------------------------------------------------------

func betaContext(tenantID string) domain.TenantContext {
	ctx := testContext(tenantID, "user-1")
	ctx.Subscription.Tier = domain.TierBeta
	ctx.Subscription.Limits = domain.PlanFor(domain.TierBeta).Limits
	return ctx
}

func TestMiddleware_CheckRateLimit_CeilingPerCategory(t *testing.T) {
	m, _ := newTestMiddleware()
	ctx := betaContext("farm-a")

	// Beta allows 5 deletes per minute.
	for i := 0; i < 5; i++ {
		if res := m.CheckRateLimit(ctx, CategoryDelete); !res.Allowed {
			t.Fatalf("delete #%d unexpectedly denied: %s", i, res.Reason)
		}
	}

	res := m.CheckRateLimit(ctx, CategoryDelete)
	if res.Allowed {
		t.Fatal("expected denial above the delete ceiling")
	}
	if res.ResetAt.IsZero() {
		t.Error("denial must carry a reset time")
	}
	if !strings.Contains(res.Reason, "delete") {
		t.Errorf("reason: %q", res.Reason)
	}

	// Other categories have their own counters.
	if res := m.CheckRateLimit(ctx, CategoryRead); !res.Allowed {
		t.Error("read throttled by delete counter")
	}
}

func TestMiddleware_CheckRateLimit_TenantsIndependent(t *testing.T) {
	m, _ := newTestMiddleware()

	for i := 0; i < 5; i++ {
		m.CheckRateLimit(betaContext("farm-a"), CategoryDelete)
	}
	if res := m.CheckRateLimit(betaContext("farm-a"), CategoryDelete); res.Allowed {
		t.Fatal("farm-a should be throttled")
	}
	if res := m.CheckRateLimit(betaContext("farm-b"), CategoryDelete); !res.Allowed {
		t.Fatal("farm-b throttled by farm-a's load")
	}
}

func TestMiddleware_CheckRateLimit_WindowResets(t *testing.T) {
	m, _ := newTestMiddleware()
	clock := newFakeClock()
	m.now = clock.now
	ctx := betaContext("farm-a")

	for i := 0; i < 5; i++ {
		m.CheckRateLimit(ctx, CategoryDelete)
	}
	if res := m.CheckRateLimit(ctx, CategoryDelete); res.Allowed {
		t.Fatal("expected denial within the window")
	}

	clock.advance(61 * time.Second)
	if res := m.CheckRateLimit(ctx, CategoryDelete); !res.Allowed {
		t.Fatal("window elapsed, counter must reset")
	}
}

func TestMiddleware_CheckRateLimit_UnknownTierFallsBackToBeta(t *testing.T) {
	m, _ := newTestMiddleware()
	ctx := testContext("farm-a", "user-1")
	ctx.Subscription.Tier = "legacy-free"

	for i := 0; i < 5; i++ {
		m.CheckRateLimit(ctx, CategoryDelete)
	}
	if res := m.CheckRateLimit(ctx, CategoryDelete); res.Allowed {
		t.Fatal("unknown tier must get the smallest ceilings")
	}
}
