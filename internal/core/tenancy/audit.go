package tenancy

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultAuditMaxPerTenant caps how many audit entries are retained per
// tenant; the oldest are dropped beyond it.
const DefaultAuditMaxPerTenant = 1000

// Audit actions recorded by the middleware and data manager.
const (
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"
	ActionExport = "export"
	ActionImport = "import"
)

// AuditEntry is one immutable line of the per-tenant activity log.
type AuditEntry struct {
	ID         string         `json:"id"`
	TenantID   string         `json:"tenant_id"`
	UserID     string         `json:"user_id"`
	Action     string         `json:"action"`
	Resource   string         `json:"resource"`
	ResourceID string         `json:"resource_id,omitempty"`
	Timestamp  time.Time      `json:"timestamp"`
	Details    map[string]any `json:"details,omitempty"`
}

// ActivitySummary aggregates a tenant's entries within a trailing window.
type ActivitySummary struct {
	TotalActions  int            `json:"total_actions"`
	ActionsByType map[string]int `json:"actions_by_type"`
	ActionsByUser map[string]int `json:"actions_by_user"`
}

// TenantAuditLogger is a bounded, append-only, in-memory activity log. Each
// tenant's entries are held separately: enforcing one tenant's retention cap
// never touches another's, and appends within a tenant keep call order.
type TenantAuditLogger struct {
	mu           sync.Mutex
	logs         map[string][]AuditEntry
	maxPerTenant int
	log          zerolog.Logger

	now func() time.Time
}

// NewTenantAuditLogger builds an empty audit log. maxPerTenant <= 0 selects
// the default cap.
func NewTenantAuditLogger(maxPerTenant int, log zerolog.Logger) *TenantAuditLogger {
	if maxPerTenant <= 0 {
		maxPerTenant = DefaultAuditMaxPerTenant
	}
	return &TenantAuditLogger{
		logs:         make(map[string][]AuditEntry),
		maxPerTenant: maxPerTenant,
		log:          log,
		now:          func() time.Time { return time.Now().UTC() },
	}
}

// LogActivity appends one entry to the tenant's log, dropping the oldest
// entries once the tenant exceeds its cap. Entries of other tenants are
// never affected.
func (l *TenantAuditLogger) LogActivity(tenantID, userID, action, resource, resourceID string, details map[string]any) {
	if tenantID == "" || action == "" {
		return
	}

	entry := AuditEntry{
		ID:         uuid.NewString(),
		TenantID:   tenantID,
		UserID:     userID,
		Action:     action,
		Resource:   resource,
		ResourceID: resourceID,
		Details:    details,
	}

	l.mu.Lock()
	entry.Timestamp = l.now()
	entries := append(l.logs[tenantID], entry)
	if excess := len(entries) - l.maxPerTenant; excess > 0 {
		entries = append([]AuditEntry(nil), entries[excess:]...)
	}
	l.logs[tenantID] = entries
	l.mu.Unlock()

	l.log.Debug().
		Str("tenant_id", tenantID).
		Str("user_id", userID).
		Str("action", action).
		Str("resource", resource).
		Msg("audit entry recorded")
}

// TenantLogs returns up to limit of the tenant's entries, most recent first.
// limit <= 0 selects 100.
func (l *TenantAuditLogger) TenantLogs(tenantID string, limit int) []AuditEntry {
	if limit <= 0 {
		limit = 100
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	entries := l.logs[tenantID]
	if limit > len(entries) {
		limit = len(entries)
	}

	out := make([]AuditEntry, limit)
	for i := 0; i < limit; i++ {
		out[i] = entries[len(entries)-1-i]
	}
	return out
}

// Summary aggregates the tenant's activity within the trailing window.
func (l *TenantAuditLogger) Summary(tenantID string, window time.Duration) ActivitySummary {
	l.mu.Lock()
	defer l.mu.Unlock()

	summary := ActivitySummary{
		ActionsByType: make(map[string]int),
		ActionsByUser: make(map[string]int),
	}
	cutoff := l.now().Add(-window)
	for _, entry := range l.logs[tenantID] {
		if entry.Timestamp.Before(cutoff) {
			continue
		}
		summary.TotalActions++
		summary.ActionsByType[entry.Action]++
		summary.ActionsByUser[entry.UserID]++
	}
	return summary
}
