package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/agriops/farmops-api/internal/api/metrics"
	"github.com/agriops/farmops-api/internal/core/domain"
	"github.com/agriops/farmops-api/internal/core/ports"
	"github.com/agriops/farmops-api/internal/core/tenancy"
	"github.com/agriops/farmops-api/internal/pkg/fieldcrypt"
)

const listCacheTTL = 30 * time.Second

// AnimalService implements animal CRUD with every read and write routed
// through the tenancy layer: writes are rate-limit checked, quota checked,
// stamped and audited; reads are cached per tenant and re-filtered before
// they leave the service.
type AnimalService struct {
	repo   ports.AnimalRepository
	cache  *tenancy.TenantAwareCache
	mw     *tenancy.Middleware
	usage  *tenancy.TenantUsageMonitor
	meter  ports.UsageSink
	cipher *fieldcrypt.Cipher // nil disables field encryption
	logger zerolog.Logger
}

func NewAnimalService(
	repo ports.AnimalRepository,
	cache *tenancy.TenantAwareCache,
	mw *tenancy.Middleware,
	usage *tenancy.TenantUsageMonitor,
	meter ports.UsageSink,
	cipher *fieldcrypt.Cipher,
	logger zerolog.Logger,
) *AnimalService {
	return &AnimalService{
		repo:   repo,
		cache:  cache,
		mw:     mw,
		usage:  usage,
		meter:  meter,
		cipher: cipher,
		logger: logger,
	}
}

// CreateAnimal registers a new animal for the caller's tenant after the
// write rate limit, the soft usage safeguard, and the subscription's animal
// quota all pass.
func (s *AnimalService) CreateAnimal(ctx context.Context, tctx domain.TenantContext, input ports.CreateAnimalInput) (*domain.Animal, error) {
	if err := s.gate(tctx, tenancy.CategoryWrite); err != nil {
		return nil, err
	}

	count, err := s.repo.CountByTenant(ctx, tctx.TenantID)
	if err != nil {
		s.logger.Error().Err(err).Str("tenant_id", tctx.TenantID).Msg("failed to count animals")
		return nil, err
	}
	current := int(count)
	if check := tenancy.ValidateTenantLimits(tctx, domain.CurrentCounts{Animals: &current}); !check.Allowed {
		return nil, fmt.Errorf("%w: %s", domain.ErrLimitExceeded, check.Reason)
	}

	animal := &domain.Animal{
		ID:        uuid.NewString(),
		RFIDTag:   input.RFIDTag,
		Name:      input.Name,
		Species:   input.Species,
		Breed:     input.Breed,
		BirthDate: input.BirthDate,
		WeightKg:  input.WeightKg,
		Status:    domain.AnimalActive,
		Notes:     input.Notes,
	}
	if err := sealNotes(s.cipher, animal); err != nil {
		return nil, err
	}

	if err := s.mw.ApplyToAPICall(animal, tctx, tenancy.ActionCreate, "animal", animal.ID, approxSize(animal)); err != nil {
		return nil, err
	}
	if err := s.repo.Create(ctx, animal); err != nil {
		s.logger.Error().Err(err).Str("tenant_id", tctx.TenantID).Msg("failed to create animal")
		return nil, err
	}

	s.cache.InvalidatePattern("animals:*", tctx.TenantID)
	s.meter.Enqueue(ports.UsageEvent{TenantID: tctx.TenantID, Operation: "animals.create", DataSize: approxSize(animal)})
	s.logger.Info().Str("tenant_id", tctx.TenantID).Str("animal_id", animal.ID).Msg("animal created")

	return openNotes(s.cipher, animal)
}

// GetAnimal returns one animal, serving from the tenant's cache when fresh.
func (s *AnimalService) GetAnimal(ctx context.Context, tctx domain.TenantContext, id string) (*domain.Animal, error) {
	if err := s.gate(tctx, tenancy.CategoryRead); err != nil {
		return nil, err
	}

	key := tenancy.CacheKey("animals:detail", map[string]string{"id": id})
	if cached, ok := s.cache.Get(key, tctx.TenantID); ok {
		metrics.CacheOpsTotal.WithLabelValues("hit").Inc()
		s.meter.Enqueue(ports.UsageEvent{TenantID: tctx.TenantID, Operation: "animals.get"})
		return cached.(*domain.Animal), nil
	}
	metrics.CacheOpsTotal.WithLabelValues("miss").Inc()

	animal, err := s.repo.FindByID(ctx, id, tctx.TenantID)
	if err != nil {
		return nil, err
	}
	// The repository query is already tenant-scoped; this is the
	// defense-in-depth check before the record leaves the service.
	if !tenancy.ValidateTenantAccess(animal.Tenant(), tctx) {
		return nil, domain.ErrRecordNotFound
	}
	animal, err = openNotes(s.cipher, animal)
	if err != nil {
		return nil, err
	}

	s.cache.Set(key, animal, tctx.TenantID, 0)
	s.meter.Enqueue(ports.UsageEvent{TenantID: tctx.TenantID, Operation: "animals.get", DataSize: approxSize(animal)})
	return animal, nil
}

// ListAnimals returns a page of the tenant's animals, cached per distinct
// filter combination.
func (s *AnimalService) ListAnimals(ctx context.Context, tctx domain.TenantContext, input ports.ListAnimalsInput) (*ports.ListAnimalsResult, error) {
	if err := s.gate(tctx, tenancy.CategoryRead); err != nil {
		return nil, err
	}

	page, limit := normalizePage(input.Page, input.Limit)
	key := tenancy.CacheKey("animals:list", map[string]string{
		"species": input.Species,
		"status":  input.Status,
		"search":  input.Search,
		"page":    strconv.Itoa(page),
		"limit":   strconv.Itoa(limit),
	})
	if cached, ok := s.cache.Get(key, tctx.TenantID); ok {
		metrics.CacheOpsTotal.WithLabelValues("hit").Inc()
		s.meter.Enqueue(ports.UsageEvent{TenantID: tctx.TenantID, Operation: "animals.list"})
		return cached.(*ports.ListAnimalsResult), nil
	}
	metrics.CacheOpsTotal.WithLabelValues("miss").Inc()

	items, total, err := s.repo.List(ctx, ports.ListAnimalsFilter{
		TenantID: tctx.TenantID,
		Species:  input.Species,
		Status:   input.Status,
		Search:   input.Search,
		Page:     page,
		Limit:    limit,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("tenant_id", tctx.TenantID).Msg("failed to list animals")
		return nil, err
	}

	items = tenancy.ValidateAPIResponse(items, tctx)
	for i, a := range items {
		if items[i], err = openNotes(s.cipher, a); err != nil {
			return nil, err
		}
	}

	result := &ports.ListAnimalsResult{
		Items:      items,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages(total, limit),
	}
	s.cache.Set(key, result, tctx.TenantID, listCacheTTL)
	s.meter.Enqueue(ports.UsageEvent{TenantID: tctx.TenantID, Operation: "animals.list", DataSize: int64(len(items)) * averageAnimalSize})
	return result, nil
}

// UpdateAnimal applies partial changes to an animal the caller owns (or any
// animal in the tenant, for administrators).
func (s *AnimalService) UpdateAnimal(ctx context.Context, tctx domain.TenantContext, id string, input ports.UpdateAnimalInput) (*domain.Animal, error) {
	if err := s.gate(tctx, tenancy.CategoryWrite); err != nil {
		return nil, err
	}

	animal, err := s.repo.FindByID(ctx, id, tctx.TenantID)
	if err != nil {
		return nil, err
	}
	if check := tenancy.ValidateDataOwnership(animal, tctx); !check.Allowed {
		return nil, fmt.Errorf("%w: %s", domain.ErrForbidden, check.Reason)
	}
	// The stored record carries sealed notes. Open them before patching so
	// the seal below never wraps an already-sealed value.
	animal, err = openNotes(s.cipher, animal)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		animal.Name = *input.Name
	}
	if input.Breed != nil {
		animal.Breed = *input.Breed
	}
	if input.WeightKg != nil {
		animal.WeightKg = *input.WeightKg
	}
	if input.Status != nil {
		animal.Status = *input.Status
	}
	if input.Notes != nil {
		animal.Notes = *input.Notes
	}
	if err := sealNotes(s.cipher, animal); err != nil {
		return nil, err
	}

	if err := s.mw.ApplyToAPICall(animal, tctx, tenancy.ActionUpdate, "animal", animal.ID, approxSize(animal)); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, animal); err != nil {
		s.logger.Error().Err(err).Str("animal_id", id).Msg("failed to update animal")
		return nil, err
	}

	s.cache.InvalidatePattern("animals:*", tctx.TenantID)
	s.meter.Enqueue(ports.UsageEvent{TenantID: tctx.TenantID, Operation: "animals.update", DataSize: approxSize(animal)})
	return openNotes(s.cipher, animal)
}

// DeleteAnimal removes an animal after the ownership check; the deletion is
// audited like every other mutation.
func (s *AnimalService) DeleteAnimal(ctx context.Context, tctx domain.TenantContext, id string) error {
	if err := s.gate(tctx, tenancy.CategoryDelete); err != nil {
		return err
	}

	animal, err := s.repo.FindByID(ctx, id, tctx.TenantID)
	if err != nil {
		return err
	}
	if check := tenancy.ValidateDataOwnership(animal, tctx); !check.Allowed {
		return fmt.Errorf("%w: %s", domain.ErrForbidden, check.Reason)
	}

	if err := s.mw.ApplyToAPICall(animal, tctx, tenancy.ActionDelete, "animal", animal.ID, 0); err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, id, tctx.TenantID); err != nil {
		s.logger.Error().Err(err).Str("animal_id", id).Msg("failed to delete animal")
		return err
	}

	s.cache.InvalidatePattern("animals:*", tctx.TenantID)
	s.meter.Enqueue(ports.UsageEvent{TenantID: tctx.TenantID, Operation: "animals.delete"})
	s.logger.Info().Str("tenant_id", tctx.TenantID).Str("animal_id", id).Msg("animal deleted")
	return nil
}

// gate applies the per-tenant fixed-window rate limit and the soft usage
// safeguard shared by every operation.
func (s *AnimalService) gate(tctx domain.TenantContext, category string) error {
	if res := s.mw.CheckRateLimit(tctx, category); !res.Allowed {
		metrics.RateLimitDeniedTotal.WithLabelValues(category).Inc()
		return fmt.Errorf("%w: %s", domain.ErrRateLimited, res.Reason)
	}
	if check := s.usage.CheckLimits(tctx.TenantID, tctx); !check.Allowed {
		return fmt.Errorf("%w: %s", domain.ErrLimitExceeded, check.Reason)
	}
	return nil
}

// sealNotes encrypts the free-text notes in place when field encryption is
// configured. Callers must hold plaintext notes: sealing is done exactly once,
// immediately before persistence.
func sealNotes(cipher *fieldcrypt.Cipher, a *domain.Animal) error {
	if cipher == nil || a.Notes == "" {
		return nil
	}
	sealed, err := cipher.EncryptString(a.Notes)
	if err != nil {
		return err
	}
	a.Notes = sealed
	return nil
}

// openNotes returns a copy with notes decrypted, leaving the stored record
// sealed.
func openNotes(cipher *fieldcrypt.Cipher, a *domain.Animal) (*domain.Animal, error) {
	if cipher == nil || a.Notes == "" {
		return a, nil
	}
	opened, err := cipher.DecryptString(a.Notes)
	if err != nil {
		return nil, err
	}
	clone := *a
	clone.Notes = opened
	return &clone, nil
}

const averageAnimalSize = 512

// approxSize is a cheap byte estimate for metering; precision is not needed.
func approxSize(a *domain.Animal) int64 {
	return averageAnimalSize + int64(len(a.Notes))
}

func normalizePage(page, limit int) (int, int) {
	if page < 1 {
		page = 1
	}
	switch {
	case limit <= 0:
		limit = 20
	case limit > 100:
		limit = 100
	}
	return page, limit
}

func totalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
