package tenancy

import (
	"fmt"
	"sync"
	"time"

	"github.com/agriops/farmops-api/internal/core/domain"
)

const (
	// averageRecordSize is the heuristic byte cost of one stored record,
	// used to turn the transaction quota into an approximate data budget.
	averageRecordSize = 1024
	// maxOperationsPerTenant is the soft ceiling on total recorded
	// operations. This is a single-process safeguard, not an authoritative
	// quota.
	maxOperationsPerTenant = 1000
)

// UsageRecord accumulates a tenant's recorded activity. Created lazily on the
// first operation; removed only by CleanupOldData.
type UsageRecord struct {
	Operations   map[string]int64 `json:"operations"`
	DataSize     int64            `json:"data_size"`
	LastActivity time.Time        `json:"last_activity"`
}

// UsageSummary is the header of a usage report.
type UsageSummary struct {
	TotalOperations int64     `json:"total_operations"`
	DataSize        int64     `json:"data_size"`
	LastActivity    time.Time `json:"last_activity"`
}

// UsageReport is the per-tenant view served to the dashboard's usage screen.
type UsageReport struct {
	Summary         UsageSummary     `json:"summary"`
	Breakdown       map[string]int64 `json:"breakdown"`
	Recommendations []string         `json:"recommendations"`
}

// TenantUsageMonitor keeps running per-tenant counters of operation types and
// approximate data volume. One tenant's counters are never affected by
// another's activity.
type TenantUsageMonitor struct {
	mu    sync.Mutex
	usage map[string]*UsageRecord

	now func() time.Time
}

// NewTenantUsageMonitor builds an empty monitor.
func NewTenantUsageMonitor() *TenantUsageMonitor {
	return &TenantUsageMonitor{
		usage: make(map[string]*UsageRecord),
		now:   time.Now,
	}
}

// RecordOperation counts one operation and its approximate payload size for
// the tenant, creating the usage record on first use.
func (m *TenantUsageMonitor) RecordOperation(tenantID, operation string, dataSize int64) {
	if tenantID == "" || operation == "" {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.usage[tenantID]
	if !ok {
		rec = &UsageRecord{Operations: make(map[string]int64)}
		m.usage[tenantID] = rec
	}
	rec.Operations[operation]++
	if dataSize > 0 {
		rec.DataSize += dataSize
	}
	rec.LastActivity = m.now()
}

// CheckLimits applies the soft per-process safeguards: accumulated data
// volume against the transaction quota times the record-size heuristic, and
// total operations against a fixed ceiling. A tenant with no recorded usage
// always passes.
func (m *TenantUsageMonitor) CheckLimits(tenantID string, ctx domain.TenantContext) LimitCheck {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.usage[tenantID]
	if !ok {
		return LimitCheck{Allowed: true}
	}

	budget := int64(ctx.Subscription.Limits.MaxTransactions) * averageRecordSize
	if budget > 0 && rec.DataSize > budget {
		return LimitCheck{Reason: fmt.Sprintf("data volume %d bytes exceeds plan budget of %d bytes", rec.DataSize, budget)}
	}

	var total int64
	for _, n := range rec.Operations {
		total += n
	}
	if total > maxOperationsPerTenant {
		return LimitCheck{Reason: fmt.Sprintf("operation volume %d exceeds ceiling of %d", total, maxOperationsPerTenant)}
	}
	return LimitCheck{Allowed: true}
}

// Report summarizes the tenant's recorded usage with simple threshold-based
// recommendations for the dashboard.
func (m *TenantUsageMonitor) Report(tenantID string) UsageReport {
	m.mu.Lock()
	defer m.mu.Unlock()

	report := UsageReport{
		Breakdown:       make(map[string]int64),
		Recommendations: []string{},
	}
	rec, ok := m.usage[tenantID]
	if !ok {
		return report
	}

	var total int64
	for op, n := range rec.Operations {
		report.Breakdown[op] = n
		total += n
	}
	report.Summary = UsageSummary{
		TotalOperations: total,
		DataSize:        rec.DataSize,
		LastActivity:    rec.LastActivity,
	}

	if total > maxOperationsPerTenant/2 {
		report.Recommendations = append(report.Recommendations, "high operation volume - consider upgrading your plan")
	}
	if rec.DataSize > 10*1024*1024 {
		report.Recommendations = append(report.Recommendations, "large data volume - consider archiving historical records")
	}
	return report
}

// CleanupOldData drops usage records whose last activity predates maxAge and
// returns how many were removed. Bounds memory for inactive tenants.
func (m *TenantUsageMonitor) CleanupOldData(maxAge time.Duration) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	cutoff := m.now().Add(-maxAge)
	removed := 0
	for tenantID, rec := range m.usage {
		if rec.LastActivity.Before(cutoff) {
			delete(m.usage, tenantID)
			removed++
		}
	}
	return removed
}
