package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/agriops/farmops-api/internal/api/metrics"
	"github.com/agriops/farmops-api/internal/core/domain"
	"github.com/agriops/farmops-api/internal/core/ports"
	"github.com/agriops/farmops-api/internal/core/tenancy"
	"github.com/agriops/farmops-api/internal/pkg/fieldcrypt"
)

// exportFetchLimit bounds how many records a single export pulls per
// collection.
const exportFetchLimit = 10000

// DataService implements bulk export and import on top of the tenancy
// DataManager, the animal repository, and an idempotency checker. It shares
// the tenant cache and field cipher with the animal service so bulk writes
// honor the same invalidation and sealing contract as single writes.
type DataService struct {
	dm     *tenancy.DataManager
	mw     *tenancy.Middleware
	repo   ports.AnimalRepository
	cache  *tenancy.TenantAwareCache
	dedup  ports.ImportDedup
	meter  ports.UsageSink
	cipher *fieldcrypt.Cipher // nil disables field encryption
	logger zerolog.Logger
}

func NewDataService(
	dm *tenancy.DataManager,
	mw *tenancy.Middleware,
	repo ports.AnimalRepository,
	cache *tenancy.TenantAwareCache,
	dedup ports.ImportDedup,
	meter ports.UsageSink,
	cipher *fieldcrypt.Cipher,
	logger zerolog.Logger,
) *DataService {
	return &DataService{
		dm:     dm,
		mw:     mw,
		repo:   repo,
		cache:  cache,
		dedup:  dedup,
		meter:  meter,
		cipher: cipher,
		logger: logger,
	}
}

// ExportTenantData pulls the tenant's collections and hands them to the
// DataManager, which filters, audits and wraps them in a versioned envelope.
func (s *DataService) ExportTenantData(ctx context.Context, tctx domain.TenantContext) (*tenancy.ExportEnvelope, error) {
	if res := s.mw.CheckRateLimit(tctx, tenancy.CategoryRead); !res.Allowed {
		return nil, fmt.Errorf("%w: %s", domain.ErrRateLimited, res.Reason)
	}

	animals, _, err := s.repo.List(ctx, ports.ListAnimalsFilter{
		TenantID: tctx.TenantID,
		Page:     1,
		Limit:    exportFetchLimit,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("tenant_id", tctx.TenantID).Msg("export fetch failed")
		return nil, err
	}
	// Envelopes carry plaintext notes: importing an export back must not
	// wrap an already-sealed value.
	for i, a := range animals {
		if animals[i], err = openNotes(s.cipher, a); err != nil {
			return nil, err
		}
	}

	envelope, err := s.dm.ExportTenantData(tctx, tenancy.ExportCollections{Animals: animals})
	if err != nil {
		return nil, err
	}
	metrics.DataTransfersTotal.WithLabelValues("export", "ok").Inc()
	s.meter.Enqueue(ports.UsageEvent{
		TenantID:  tctx.TenantID,
		Operation: "data.export",
		DataSize:  int64(len(envelope.Data.Animals)) * averageAnimalSize,
	})
	return envelope, nil
}

// ImportTenantData validates and persists a bulk payload. A repeated
// Idempotency-Key short-circuits without writing anything; any cross-tenant
// record rejects the whole payload.
func (s *DataService) ImportTenantData(ctx context.Context, tctx domain.TenantContext, payload tenancy.ImportPayload, idempotencyKey string) (*ports.ImportResult, error) {
	if res := s.mw.CheckRateLimit(tctx, tenancy.CategoryWrite); !res.Allowed {
		return nil, fmt.Errorf("%w: %s", domain.ErrRateLimited, res.Reason)
	}

	if idempotencyKey != "" && s.dedup != nil {
		dup, err := s.dedup.IsDuplicate(ctx, tctx.TenantID, idempotencyKey)
		if err != nil {
			s.logger.Warn().Err(err).Msg("import dedup check failed, continuing without replay protection")
		} else if dup {
			s.logger.Info().Str("tenant_id", tctx.TenantID).Str("idempotency_key", idempotencyKey).Msg("idempotent import replay")
			metrics.DataTransfersTotal.WithLabelValues("import", "replayed").Inc()
			return &ports.ImportResult{AlreadyProcessed: true}, nil
		}
	}

	validation := s.dm.ValidateImportData(payload, tctx)
	if !validation.Valid {
		metrics.DataTransfersTotal.WithLabelValues("import", "rejected").Inc()
		return nil, &ports.ImportError{Errors: validation.Errors}
	}

	if n := len(payload.Animals); n > 0 {
		count, err := s.repo.CountByTenant(ctx, tctx.TenantID)
		if err != nil {
			s.logger.Error().Err(err).Str("tenant_id", tctx.TenantID).Msg("failed to count animals")
			return nil, err
		}
		// Same invariant as the single-create path, applied to the count
		// the last record of the batch would be created at.
		projected := int(count) + n - 1
		if check := tenancy.ValidateTenantLimits(tctx, domain.CurrentCounts{Animals: &projected}); !check.Allowed {
			metrics.DataTransfersTotal.WithLabelValues("import", "rejected").Inc()
			return nil, fmt.Errorf("%w: %s", domain.ErrLimitExceeded, check.Reason)
		}
	}

	imported := 0
	for _, a := range payload.Animals {
		if err := sealNotes(s.cipher, a); err != nil {
			return nil, err
		}
		if err := s.mw.ApplyToAPICall(a, tctx, tenancy.ActionImport, "animal", a.ID, approxSize(a)); err != nil {
			return nil, err
		}
		if err := s.repo.Create(ctx, a); err != nil {
			s.logger.Error().Err(err).Str("tenant_id", tctx.TenantID).Int("imported", imported).Msg("import aborted mid-batch")
			return nil, err
		}
		imported++
	}

	// Bulk writes go around the animal service, so drop its cached lists
	// and details here the same way single writes do.
	s.cache.InvalidatePattern("animals:*", tctx.TenantID)

	if idempotencyKey != "" && s.dedup != nil {
		if err := s.dedup.Mark(ctx, tctx.TenantID, idempotencyKey); err != nil {
			s.logger.Warn().Err(err).Msg("failed to mark import as processed")
		}
	}

	metrics.DataTransfersTotal.WithLabelValues("import", "ok").Inc()
	s.meter.Enqueue(ports.UsageEvent{
		TenantID:  tctx.TenantID,
		Operation: "data.import",
		DataSize:  int64(imported) * averageAnimalSize,
	})
	s.logger.Info().Str("tenant_id", tctx.TenantID).Int("imported", imported).Msg("tenant data imported")

	return &ports.ImportResult{Imported: imported, Warnings: validation.Warnings}, nil
}
