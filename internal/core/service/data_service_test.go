package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/agriops/farmops-api/internal/core/domain"
	"github.com/agriops/farmops-api/internal/core/ports"
	"github.com/agriops/farmops-api/internal/core/tenancy"
	"github.com/agriops/farmops-api/internal/pkg/fieldcrypt"
)

type stubDedup struct {
	marked map[string]bool
	err    error
}

func newStubDedup() *stubDedup { return &stubDedup{marked: make(map[string]bool)} }

func (d *stubDedup) IsDuplicate(_ context.Context, tenantID, key string) (bool, error) {
	if d.err != nil {
		return false, d.err
	}
	return d.marked[tenantID+":"+key], nil
}

func (d *stubDedup) Mark(_ context.Context, tenantID, key string) error {
	if d.err != nil {
		return d.err
	}
	d.marked[tenantID+":"+key] = true
	return nil
}

func newTestDataService(repo *stubAnimalRepo, dedup ports.ImportDedup) (*DataService, *tenancy.TenantAuditLogger) {
	audit := tenancy.NewTenantAuditLogger(0, zerolog.Nop())
	mw := tenancy.NewMiddleware(audit, zerolog.Nop())
	dm := tenancy.NewDataManager(audit, zerolog.Nop())
	cache := tenancy.NewTenantAwareCache()
	return NewDataService(dm, mw, repo, cache, dedup, &stubSink{}, nil, zerolog.Nop()), audit
}

func seedAnimal(repo *stubAnimalRepo, id, tenantID string) {
	repo.byID[id] = &domain.Animal{
		TenantMeta: domain.TenantMeta{TenantID: tenantID, CreatedBy: "user-1"},
		ID:         id,
		RFIDTag:    "RF-" + id,
		Species:    "cattle",
		Status:     domain.AnimalActive,
	}
}

// ---------------------------------------------------------------------------
// Export
// ---------------------------------------------------------------------------

func TestDataService_Export(t *testing.T) {
	repo := newStubAnimalRepo()
	svc, audit := newTestDataService(repo, newStubDedup())
	seedAnimal(repo, "a-1", "farm-a")
	seedAnimal(repo, "a-2", "farm-a")
	seedAnimal(repo, "b-1", "farm-b")

	envelope, err := svc.ExportTenantData(context.Background(), testContext("farm-a", "user-1"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(envelope.Data.Animals) != 2 {
		t.Fatalf("expected 2 animals, got %d", len(envelope.Data.Animals))
	}
	if envelope.Metadata.TenantID != "farm-a" {
		t.Errorf("metadata tenant: %q", envelope.Metadata.TenantID)
	}

	logs := audit.TenantLogs("farm-a", 10)
	if len(logs) != 1 || logs[0].Action != tenancy.ActionExport {
		t.Fatalf("export not audited: %v", logs)
	}
}

// ---------------------------------------------------------------------------
// Import
// ---------------------------------------------------------------------------

func TestDataService_Import_StampsEveryRecord(t *testing.T) {
	repo := newStubAnimalRepo()
	svc, _ := newTestDataService(repo, newStubDedup())

	payload := tenancy.ImportPayload{
		Animals: []*domain.Animal{
			{ID: "i-1", RFIDTag: "RF-1", Species: "sheep"},
			{ID: "i-2", RFIDTag: "RF-2", Species: "sheep"},
		},
	}
	result, err := svc.ImportTenantData(context.Background(), testContext("farm-a", "user-1"), payload, "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Imported != 2 {
		t.Fatalf("imported: want 2, got %d", result.Imported)
	}
	for _, id := range []string{"i-1", "i-2"} {
		stored := repo.byID[id]
		if stored == nil || stored.TenantID != "farm-a" || !stored.TenantValidated {
			t.Errorf("record %s not stamped on import", id)
		}
	}
}

func TestDataService_Import_RejectsForeignRecord(t *testing.T) {
	repo := newStubAnimalRepo()
	svc, _ := newTestDataService(repo, newStubDedup())

	payload := tenancy.ImportPayload{
		Animals: []*domain.Animal{
			{ID: "i-1", RFIDTag: "RF-1"},
			{TenantMeta: domain.TenantMeta{TenantID: "farm-b"}, ID: "i-2", RFIDTag: "RF-2"},
		},
	}
	_, err := svc.ImportTenantData(context.Background(), testContext("farm-a", "user-1"), payload, "")

	var importErr *ports.ImportError
	if !errors.As(err, &importErr) || len(importErr.Errors) == 0 {
		t.Fatalf("expected ImportError with details, got %v", err)
	}
	if len(repo.byID) != 0 {
		t.Error("a rejected import must persist nothing")
	}
}

func TestDataService_Import_IdempotencyReplay(t *testing.T) {
	repo := newStubAnimalRepo()
	svc, _ := newTestDataService(repo, newStubDedup())
	tctx := testContext("farm-a", "user-1")

	payload := tenancy.ImportPayload{Animals: []*domain.Animal{{ID: "i-1", RFIDTag: "RF-1"}}}

	first, err := svc.ImportTenantData(context.Background(), tctx, payload, "key-123")
	if err != nil {
		t.Fatalf("first import failed: %v", err)
	}
	if first.AlreadyProcessed || first.Imported != 1 {
		t.Fatalf("first import: %+v", first)
	}

	second, err := svc.ImportTenantData(context.Background(), tctx, payload, "key-123")
	if err != nil {
		t.Fatalf("replay failed: %v", err)
	}
	if !second.AlreadyProcessed {
		t.Fatal("replay must be flagged AlreadyProcessed")
	}
	if len(repo.byID) != 1 {
		t.Errorf("replay must not write again: %d records", len(repo.byID))
	}
}

func TestDataService_Import_DedupFailureDegradesGracefully(t *testing.T) {
	repo := newStubAnimalRepo()
	dedup := newStubDedup()
	dedup.err = errors.New("redis down")
	svc, _ := newTestDataService(repo, dedup)

	payload := tenancy.ImportPayload{Animals: []*domain.Animal{{ID: "i-1", RFIDTag: "RF-1"}}}
	result, err := svc.ImportTenantData(context.Background(), testContext("farm-a", "user-1"), payload, "key-123")
	if err != nil {
		t.Fatalf("a dedup outage must not fail the import: %v", err)
	}
	if result.Imported != 1 {
		t.Errorf("imported: want 1, got %d", result.Imported)
	}
}

func TestDataService_Import_DuplicateRFIDWarns(t *testing.T) {
	repo := newStubAnimalRepo()
	svc, _ := newTestDataService(repo, newStubDedup())

	payload := tenancy.ImportPayload{
		Animals: []*domain.Animal{
			{ID: "i-1", RFIDTag: "RF-1"},
			{ID: "i-2", RFIDTag: "RF-1"},
		},
	}
	result, err := svc.ImportTenantData(context.Background(), testContext("farm-a", "user-1"), payload, "")
	if err != nil {
		t.Fatalf("duplicates must not fail: %v", err)
	}
	if result.Imported != 2 || len(result.Warnings) != 1 {
		t.Fatalf("result: %+v", result)
	}
}

func TestDataService_Import_InvalidatesListCache(t *testing.T) {
	repo := newStubAnimalRepo()
	audit := tenancy.NewTenantAuditLogger(0, zerolog.Nop())
	mw := tenancy.NewMiddleware(audit, zerolog.Nop())
	cache := tenancy.NewTenantAwareCache()
	animals := NewAnimalService(repo, cache, mw, tenancy.NewTenantUsageMonitor(), &stubSink{}, nil, zerolog.Nop())
	data := NewDataService(tenancy.NewDataManager(audit, zerolog.Nop()), mw, repo, cache, newStubDedup(), &stubSink{}, nil, zerolog.Nop())
	tctx := testContext("farm-a", "user-1")

	seedAnimal(repo, "a-1", "farm-a")
	if _, err := animals.ListAnimals(context.Background(), tctx, ports.ListAnimalsInput{}); err != nil {
		t.Fatal(err)
	}

	payload := tenancy.ImportPayload{Animals: []*domain.Animal{{ID: "i-1", RFIDTag: "RF-9", Species: "sheep"}}}
	if _, err := data.ImportTenantData(context.Background(), tctx, payload, ""); err != nil {
		t.Fatal(err)
	}

	repo.listCalls = 0
	res, err := animals.ListAnimals(context.Background(), tctx, ports.ListAnimalsInput{})
	if err != nil {
		t.Fatal(err)
	}
	if repo.listCalls != 1 {
		t.Errorf("list after import must refetch, repo called %d times", repo.listCalls)
	}
	if len(res.Items) != 2 {
		t.Fatalf("stale list served after import: %d items", len(res.Items))
	}
}

func TestDataService_Import_QuotaEnforced(t *testing.T) {
	repo := newStubAnimalRepo()
	svc, _ := newTestDataService(repo, newStubDedup())
	tctx := testContext("farm-a", "user-1")
	tctx.Subscription.Limits.MaxAnimals = 2
	seedAnimal(repo, "a-1", "farm-a")

	payload := tenancy.ImportPayload{
		Animals: []*domain.Animal{
			{ID: "i-1", RFIDTag: "RF-1"},
			{ID: "i-2", RFIDTag: "RF-2"},
		},
	}
	_, err := svc.ImportTenantData(context.Background(), tctx, payload, "")
	if !errors.Is(err, domain.ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}
	if !strings.Contains(err.Error(), "Animal limit exceeded") {
		t.Errorf("error should carry the human-readable reason: %v", err)
	}
	if len(repo.byID) != 1 {
		t.Fatalf("an over-quota import must persist nothing: %d records", len(repo.byID))
	}

	// A batch that exactly fills the remaining quota goes through.
	fits := tenancy.ImportPayload{Animals: []*domain.Animal{{ID: "i-1", RFIDTag: "RF-1"}}}
	result, err := svc.ImportTenantData(context.Background(), tctx, fits, "")
	if err != nil {
		t.Fatalf("import within quota failed: %v", err)
	}
	if result.Imported != 1 {
		t.Fatalf("imported: want 1, got %d", result.Imported)
	}
}

func TestDataService_ImportSealsNotes_ExportOpensThem(t *testing.T) {
	repo := newStubAnimalRepo()
	cipher, err := fieldcrypt.New(bytes.Repeat([]byte{0x42}, fieldcrypt.KeySize))
	if err != nil {
		t.Fatal(err)
	}
	audit := tenancy.NewTenantAuditLogger(0, zerolog.Nop())
	mw := tenancy.NewMiddleware(audit, zerolog.Nop())
	dm := tenancy.NewDataManager(audit, zerolog.Nop())
	svc := NewDataService(dm, mw, repo, tenancy.NewTenantAwareCache(), newStubDedup(), &stubSink{}, cipher, zerolog.Nop())
	tctx := testContext("farm-a", "user-1")

	const notes = "allergic to penicillin"
	payload := tenancy.ImportPayload{
		Animals: []*domain.Animal{{ID: "i-1", RFIDTag: "RF-1", Species: "sheep", Notes: notes}},
	}
	if _, err := svc.ImportTenantData(context.Background(), tctx, payload, ""); err != nil {
		t.Fatal(err)
	}

	stored := repo.byID["i-1"]
	if stored.Notes == notes {
		t.Fatal("imported notes persisted in plaintext")
	}
	if opened, err := cipher.DecryptString(stored.Notes); err != nil || opened != notes {
		t.Fatalf("stored notes not a single encryption layer: %q err=%v", opened, err)
	}

	// The envelope carries plaintext, so exporting and re-importing never
	// stacks a second layer.
	envelope, err := svc.ExportTenantData(context.Background(), tctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(envelope.Data.Animals) != 1 || envelope.Data.Animals[0].Notes != notes {
		t.Fatalf("export must open notes: %+v", envelope.Data.Animals)
	}
}
