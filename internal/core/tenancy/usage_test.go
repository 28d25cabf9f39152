package tenancy

import (
	"strings"
	"testing"
	"time"
)

func TestUsageMonitor_RecordAndReport(t *testing.T) {
	m := NewTenantUsageMonitor()
	m.RecordOperation("farm-a", "animals.list", 512)
	m.RecordOperation("farm-a", "animals.list", 512)
	m.RecordOperation("farm-a", "animals.create", 256)

	report := m.Report("farm-a")
	if report.Summary.TotalOperations != 3 {
		t.Errorf("total ops: want 3, got %d", report.Summary.TotalOperations)
	}
	if report.Summary.DataSize != 1280 {
		t.Errorf("data size: want 1280, got %d", report.Summary.DataSize)
	}
	if report.Breakdown["animals.list"] != 2 {
		t.Errorf("breakdown: %v", report.Breakdown)
	}
	if report.Summary.LastActivity.IsZero() {
		t.Error("last activity not recorded")
	}
}

func TestUsageMonitor_TenantsAreIndependent(t *testing.T) {
	m := NewTenantUsageMonitor()
	m.RecordOperation("farm-a", "animals.list", 100)

	if report := m.Report("farm-b"); report.Summary.TotalOperations != 0 {
		t.Errorf("farm-b has no usage, got %d ops", report.Summary.TotalOperations)
	}
}

func TestUsageMonitor_CheckLimits_NoUsagePasses(t *testing.T) {
	m := NewTenantUsageMonitor()
	ctx := testContext("farm-a", "user-1")
	if check := m.CheckLimits("farm-a", ctx); !check.Allowed {
		t.Fatalf("no usage recorded must pass, got %q", check.Reason)
	}
}

func TestUsageMonitor_CheckLimits_OperationCeiling(t *testing.T) {
	m := NewTenantUsageMonitor()
	ctx := testContext("farm-a", "user-1")

	for i := 0; i <= maxOperationsPerTenant; i++ {
		m.RecordOperation("farm-a", "animals.list", 0)
	}

	check := m.CheckLimits("farm-a", ctx)
	if check.Allowed {
		t.Fatal("expected denial above the operation ceiling")
	}
	if !strings.Contains(check.Reason, "operation volume") {
		t.Errorf("unexpected reason: %q", check.Reason)
	}
}

func TestUsageMonitor_CheckLimits_DataBudget(t *testing.T) {
	m := NewTenantUsageMonitor()
	ctx := testContext("farm-a", "user-1")
	ctx.Subscription.Limits.MaxTransactions = 1 // budget = 1024 bytes

	m.RecordOperation("farm-a", "import", 4096)

	check := m.CheckLimits("farm-a", ctx)
	if check.Allowed {
		t.Fatal("expected denial above the data budget")
	}
	if !strings.Contains(check.Reason, "data volume") {
		t.Errorf("unexpected reason: %q", check.Reason)
	}
}

func TestUsageMonitor_Recommendations(t *testing.T) {
	m := NewTenantUsageMonitor()
	for i := 0; i < maxOperationsPerTenant/2+1; i++ {
		m.RecordOperation("farm-a", "animals.list", 0)
	}

	report := m.Report("farm-a")
	if len(report.Recommendations) == 0 {
		t.Fatal("expected an upgrade recommendation at high volume")
	}
}

func TestUsageMonitor_CleanupOldData(t *testing.T) {
	m := NewTenantUsageMonitor()
	clock := newFakeClock()
	m.now = clock.now

	m.RecordOperation("farm-old", "animals.list", 0)
	clock.advance(40 * 24 * time.Hour)
	m.RecordOperation("farm-new", "animals.list", 0)

	removed := m.CleanupOldData(30 * 24 * time.Hour)
	if removed != 1 {
		t.Fatalf("expected 1 removed, got %d", removed)
	}
	if m.Report("farm-new").Summary.TotalOperations != 1 {
		t.Error("active tenant swept away")
	}
	if m.Report("farm-old").Summary.TotalOperations != 0 {
		t.Error("inactive tenant survived cleanup")
	}
}
