// Package tenancy is the isolation, caching, usage-metering and audit layer
// every data read and write of the dashboard passes through. It is the single
// place where cross-tenant leakage is prevented, so nothing outside this
// package may compare tenant identifiers on its own.
package tenancy

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/agriops/farmops-api/internal/core/domain"
)

// LimitCheck is the non-error verdict of a quota or ownership check. Denials
// carry a human-readable reason the API can surface as-is.
type LimitCheck struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// ValidateTenantAccess is the single source of truth for "does this record
// belong to this caller". Empty identifiers never match anything.
func ValidateTenantAccess(recordTenantID string, ctx domain.TenantContext) bool {
	if recordTenantID == "" || ctx.TenantID == "" {
		return false
	}
	return recordTenantID == ctx.TenantID
}

// FilterByTenant returns the subsequence of records owned by the context's
// tenant, preserving input order. An invalid context yields an empty slice,
// never an error: empty is the safe default and leaks nothing.
func FilterByTenant[T domain.TenantRecord](records []T, ctx domain.TenantContext) []T {
	filtered := make([]T, 0, len(records))
	if !ctx.Valid() {
		return filtered
	}
	for _, r := range records {
		if ValidateTenantAccess(r.Tenant(), ctx) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// ValidateBatchTenantAccess partitions records into those owned by the
// context's tenant and those that are not, in one pass. Bulk import uses the
// invalid half to report offending records instead of silently dropping them.
func ValidateBatchTenantAccess[T domain.TenantRecord](records []T, ctx domain.TenantContext) (valid, invalid []T) {
	for _, r := range records {
		if ValidateTenantAccess(r.Tenant(), ctx) {
			valid = append(valid, r)
		} else {
			invalid = append(invalid, r)
		}
	}
	return valid, invalid
}

// Stamp writes the context's tenant and user onto a record about to be
// persisted. Proceeding with an invalid context would silently mis-attribute
// data, so that case is an error, not a safe default.
//
// The TenantValidated flag marks records that passed through here, as opposed
// to records deserialized from storage or a request body.
func Stamp(record domain.TenantRecord, ctx domain.TenantContext) error {
	if !ctx.Valid() {
		return domain.ErrInvalidTenantContext
	}

	now := time.Now().UTC()
	meta := record.Meta()
	if meta.TenantID != "" && meta.TenantID != ctx.TenantID {
		return domain.ErrTenantMismatch
	}
	if meta.TenantID == "" {
		meta.TenantID = ctx.TenantID
		meta.CreatedBy = ctx.UserID
		meta.CreatedAt = now
	}
	meta.UpdatedBy = ctx.UserID
	meta.UpdatedAt = now
	meta.TenantValidated = true
	return nil
}

// ValidateTenantLimits compares the supplied counts against the context's
// subscription limits and reports the first violation. Counts the caller does
// not know are skipped.
func ValidateTenantLimits(ctx domain.TenantContext, counts domain.CurrentCounts) LimitCheck {
	limits := ctx.Subscription.Limits

	if counts.Animals != nil && *counts.Animals >= limits.MaxAnimals {
		return LimitCheck{Reason: fmt.Sprintf("Animal limit exceeded: %d of %d allowed", *counts.Animals, limits.MaxAnimals)}
	}
	if counts.Transactions != nil && *counts.Transactions >= limits.MaxTransactions {
		return LimitCheck{Reason: fmt.Sprintf("Transaction limit exceeded: %d of %d allowed", *counts.Transactions, limits.MaxTransactions)}
	}
	if counts.Users != nil && *counts.Users >= limits.MaxUsers {
		return LimitCheck{Reason: fmt.Sprintf("User limit exceeded: %d of %d allowed", *counts.Users, limits.MaxUsers)}
	}
	return LimitCheck{Allowed: true}
}

// ValidateDataOwnership decides whether the caller may modify a specific
// record. Administrators may touch any record within their tenant; regular
// users only records they created themselves.
func ValidateDataOwnership(record domain.TenantRecord, ctx domain.TenantContext) LimitCheck {
	if !ValidateTenantAccess(record.Tenant(), ctx) {
		return LimitCheck{Reason: "record belongs to another tenant"}
	}
	if !ctx.IsAdmin() && record.Meta().CreatedBy != ctx.UserID {
		return LimitCheck{Reason: "record was created by another user"}
	}
	return LimitCheck{Allowed: true}
}

// CacheKey builds the deterministic logical key for a tenant-scoped query
// result. Parameters are sorted by name so semantically identical parameter
// sets produce the same key regardless of call-site ordering. The cache
// prefixes the tenant identifier itself; composing the physical key in one
// place is what guarantees namespacing cannot be skipped.
func CacheKey(endpoint string, params map[string]string) string {
	key := endpoint
	if len(params) == 0 {
		return key
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	pairs := make([]string, 0, len(names))
	for _, name := range names {
		pairs = append(pairs, name+"="+params[name])
	}
	return key + ":" + strings.Join(pairs, "&")
}
