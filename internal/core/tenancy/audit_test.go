package tenancy

import (
	"fmt"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestAuditLogger_AppendAndRead(t *testing.T) {
	l := NewTenantAuditLogger(0, zerolog.Nop())
	l.LogActivity("farm-a", "user-1", ActionCreate, "animal", "a-1", map[string]any{"data_size": 128})
	l.LogActivity("farm-a", "user-1", ActionUpdate, "animal", "a-1", nil)

	logs := l.TenantLogs("farm-a", 10)
	if len(logs) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(logs))
	}
	// Most recent first.
	if logs[0].Action != ActionUpdate || logs[1].Action != ActionCreate {
		t.Errorf("wrong order: %s, %s", logs[0].Action, logs[1].Action)
	}
	if logs[0].ID == "" || logs[0].Timestamp.IsZero() {
		t.Error("entry missing id or timestamp")
	}
}

func TestAuditLogger_CapDropsOldestForThatTenantOnly(t *testing.T) {
	l := NewTenantAuditLogger(1000, zerolog.Nop())

	for i := 0; i < 1005; i++ {
		l.LogActivity("farm-a", "user-1", ActionCreate, "animal", fmt.Sprintf("a-%d", i), nil)
	}
	l.LogActivity("farm-b", "user-9", ActionCreate, "animal", "b-1", nil)

	logsA := l.TenantLogs("farm-a", 2000)
	if len(logsA) != 1000 {
		t.Fatalf("farm-a: expected exactly 1000 entries, got %d", len(logsA))
	}
	// The 5 oldest entries (a-0 .. a-4) must be gone; the oldest survivor is a-5.
	if oldest := logsA[len(logsA)-1]; oldest.ResourceID != "a-5" {
		t.Errorf("oldest surviving entry: want a-5, got %s", oldest.ResourceID)
	}
	if newest := logsA[0]; newest.ResourceID != "a-1004" {
		t.Errorf("newest entry: want a-1004, got %s", newest.ResourceID)
	}

	logsB := l.TenantLogs("farm-b", 2000)
	if len(logsB) != 1 || logsB[0].ResourceID != "b-1" {
		t.Fatalf("farm-b log affected by farm-a's cap: %v", logsB)
	}
}

func TestAuditLogger_LimitTruncates(t *testing.T) {
	l := NewTenantAuditLogger(0, zerolog.Nop())
	for i := 0; i < 10; i++ {
		l.LogActivity("farm-a", "user-1", ActionCreate, "task", fmt.Sprintf("t-%d", i), nil)
	}

	logs := l.TenantLogs("farm-a", 3)
	if len(logs) != 3 {
		t.Fatalf("expected 3 entries, got %d", len(logs))
	}
	if logs[0].ResourceID != "t-9" {
		t.Errorf("expected newest first, got %s", logs[0].ResourceID)
	}
}

func TestAuditLogger_IgnoresEmptyTenantOrAction(t *testing.T) {
	l := NewTenantAuditLogger(0, zerolog.Nop())
	l.LogActivity("", "user-1", ActionCreate, "animal", "", nil)
	l.LogActivity("farm-a", "user-1", "", "animal", "", nil)

	if logs := l.TenantLogs("farm-a", 10); len(logs) != 0 {
		t.Errorf("expected no entries, got %d", len(logs))
	}
}

func TestAuditLogger_SummaryWindowed(t *testing.T) {
	l := NewTenantAuditLogger(0, zerolog.Nop())
	clock := newFakeClock()
	l.now = clock.now

	l.LogActivity("farm-a", "user-1", ActionCreate, "animal", "a-1", nil)
	clock.advance(48 * time.Hour)
	l.LogActivity("farm-a", "user-1", ActionUpdate, "animal", "a-1", nil)
	l.LogActivity("farm-a", "user-2", ActionDelete, "animal", "a-2", nil)

	summary := l.Summary("farm-a", 24*time.Hour)
	if summary.TotalActions != 2 {
		t.Fatalf("expected 2 actions within window, got %d", summary.TotalActions)
	}
	if summary.ActionsByType[ActionCreate] != 0 {
		t.Error("entry outside window counted")
	}
	if summary.ActionsByType[ActionUpdate] != 1 || summary.ActionsByType[ActionDelete] != 1 {
		t.Errorf("by type: %v", summary.ActionsByType)
	}
	if summary.ActionsByUser["user-1"] != 1 || summary.ActionsByUser["user-2"] != 1 {
		t.Errorf("by user: %v", summary.ActionsByUser)
	}
}
