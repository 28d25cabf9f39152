package ports

import (
	"context"

	"github.com/agriops/farmops-api/internal/core/domain"
	"github.com/agriops/farmops-api/internal/core/tenancy"
)

// ImportResult summarizes a completed bulk import.
type ImportResult struct {
	Imported int
	Warnings []string
	// AlreadyProcessed is true when the Idempotency-Key matched an earlier
	// import; nothing was written again.
	AlreadyProcessed bool
}

// DataService defines the bulk export/import use cases.
type DataService interface {
	ExportTenantData(ctx context.Context, tctx domain.TenantContext) (*tenancy.ExportEnvelope, error)
	ImportTenantData(ctx context.Context, tctx domain.TenantContext, payload tenancy.ImportPayload, idempotencyKey string) (*ImportResult, error)
}

// ImportDedup provides idempotency checks for bulk imports, typically backed
// by a shared store so replays are caught across processes.
type ImportDedup interface {
	IsDuplicate(ctx context.Context, tenantID, key string) (bool, error)
	Mark(ctx context.Context, tenantID, key string) error
}

// ImportError carries the validation failures that rejected a payload.
type ImportError struct {
	Errors []string
}

func (e *ImportError) Error() string {
	if len(e.Errors) == 0 {
		return "import rejected"
	}
	return "import rejected: " + e.Errors[0]
}
