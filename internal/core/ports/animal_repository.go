package ports

import (
	"context"

	"github.com/agriops/farmops-api/internal/core/domain"
)

// ListAnimalsFilter carries all query parameters for listing animals.
// TenantID is always set by the service layer; the repository must apply it
// to every query.
type ListAnimalsFilter struct {
	TenantID string // never empty; repositories must scope every query by it
	Species  string // optional
	Status   string // optional
	Search   string // optional: partial match on name or rfid_tag
	Page     int    // 1-based
	Limit    int    // max rows per page (capped at 100 by service)
}

// AnimalRepository defines persistence operations for animals. Every lookup
// takes the tenant ID so the database query itself is scoped; the service
// layer re-filters results as defense in depth.
type AnimalRepository interface {
	Create(ctx context.Context, a *domain.Animal) error
	FindByID(ctx context.Context, id, tenantID string) (*domain.Animal, error)
	Update(ctx context.Context, a *domain.Animal) error
	Delete(ctx context.Context, id, tenantID string) error
	List(ctx context.Context, filter ListAnimalsFilter) ([]*domain.Animal, int64, error)
	CountByTenant(ctx context.Context, tenantID string) (int64, error)
}
