package ports

import (
	"context"
	"time"

	"github.com/agriops/farmops-api/internal/core/domain"
)

// CreateAnimalInput carries all data needed to register a new animal.
type CreateAnimalInput struct {
	RFIDTag   string
	Name      string
	Species   string
	Breed     string
	BirthDate time.Time
	WeightKg  float64
	Notes     string
}

// UpdateAnimalInput carries the mutable fields of an animal. Nil pointers
// leave the stored value untouched.
type UpdateAnimalInput struct {
	Name     *string
	Breed    *string
	WeightKg *float64
	Status   *domain.AnimalStatus
	Notes    *string
}

// ListAnimalsInput carries all parameters for the list endpoint.
type ListAnimalsInput struct {
	Species string
	Status  string
	Search  string
	Page    int
	Limit   int
}

// ListAnimalsResult is returned by ListAnimals.
type ListAnimalsResult struct {
	Items      []*domain.Animal
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// AnimalService defines the use-case operations for animals. Every method
// takes the caller's TenantContext and routes through the tenancy layer:
// writes are stamped, audited and quota-checked; reads are cached and
// re-filtered before they leave the service.
type AnimalService interface {
	CreateAnimal(ctx context.Context, tctx domain.TenantContext, input CreateAnimalInput) (*domain.Animal, error)
	GetAnimal(ctx context.Context, tctx domain.TenantContext, id string) (*domain.Animal, error)
	ListAnimals(ctx context.Context, tctx domain.TenantContext, input ListAnimalsInput) (*ListAnimalsResult, error)
	UpdateAnimal(ctx context.Context, tctx domain.TenantContext, id string, input UpdateAnimalInput) (*domain.Animal, error)
	DeleteAnimal(ctx context.Context, tctx domain.TenantContext, id string) error
}
