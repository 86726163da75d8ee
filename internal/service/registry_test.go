package service

import (
	"fmt"
	"testing"

	"github.com/mirrortube/coordinator/internal/domain"
	"github.com/mirrortube/coordinator/internal/repository"
)

func TestRegistryCreate(t *testing.T) {
	db := newTestDB(t)
	store := newFakeStore()
	svc := NewRegistryService(repository.NewWorkerRepository(db), store, 1000)

	enrollment, err := svc.Create(t.Context(), "192.0.2.7")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if enrollment.WorkerID == "" {
		t.Fatal("empty worker_id")
	}
	if len(enrollment.WorkerID) != 36 {
		t.Errorf("worker_id %q is not a UUID", enrollment.WorkerID)
	}
	if enrollment.S3URL != store.baseURL {
		t.Errorf("s3_url = %q, want %q", enrollment.S3URL, store.baseURL)
	}

	worker := getWorker(t, db, enrollment.WorkerID)
	if worker.Reputation != 0 || worker.Disabled || worker.CurrentBatch != "" {
		t.Errorf("fresh worker state = %+v, want reputation 0, enabled, unbound", worker)
	}
	if worker.IP != "192.0.2.7" {
		t.Errorf("ip = %q, want 192.0.2.7", worker.IP)
	}
}

func TestRegistryPerIPCap(t *testing.T) {
	db := newTestDB(t)
	svc := NewRegistryService(repository.NewWorkerRepository(db), newFakeStore(), 3)

	for i := 0; i < 4; i++ {
		mustCreateWorker(t, db, &domain.Worker{ID: fmt.Sprintf("w%d", i), IP: "198.51.100.1"})
	}

	// Four existing workers exceed a cap of three.
	_, err := svc.Create(t.Context(), "198.51.100.1")
	if got := protocolCode(err); got != CodeTooManyWorkers {
		t.Errorf("code = %d (err=%v), want %d", got, err, CodeTooManyWorkers)
	}

	// A different address is unaffected.
	if _, err := svc.Create(t.Context(), "198.51.100.2"); err != nil {
		t.Errorf("Create from fresh address failed: %v", err)
	}
}

func TestRegistryListByIP(t *testing.T) {
	db := newTestDB(t)
	svc := NewRegistryService(repository.NewWorkerRepository(db), newFakeStore(), 1000)

	mustCreateWorker(t, db, &domain.Worker{ID: "mine-1", IP: "203.0.113.9"})
	mustCreateWorker(t, db, &domain.Worker{ID: "mine-2", IP: "203.0.113.9"})
	mustCreateWorker(t, db, &domain.Worker{ID: "theirs", IP: "203.0.113.10"})

	ids, err := svc.ListByIP(t.Context(), "203.0.113.9")
	if err != nil {
		t.Fatalf("ListByIP failed: %v", err)
	}
	if len(ids) != 2 {
		t.Fatalf("got %d workers, want 2", len(ids))
	}
	for _, id := range ids {
		if id == "theirs" {
			t.Error("listing leaked another address's worker")
		}
	}
}

func TestRegistryResolve(t *testing.T) {
	db := newTestDB(t)
	svc := NewRegistryService(repository.NewWorkerRepository(db), newFakeStore(), 1000)

	mustCreateWorker(t, db, &domain.Worker{ID: "ok"})
	mustCreateWorker(t, db, &domain.Worker{ID: "dead", Reputation: -1, Disabled: true})

	if _, err := svc.Resolve(t.Context(), "ok"); err != nil {
		t.Errorf("Resolve(ok) failed: %v", err)
	}
	if _, err := svc.Resolve(t.Context(), "ghost"); protocolCode(err) != CodeUnknownWorker {
		t.Errorf("Resolve(ghost) = %v, want UNKNOWN_WORKER", err)
	}
	if _, err := svc.Resolve(t.Context(), "dead"); protocolCode(err) != CodeWorkerDisabled {
		t.Errorf("Resolve(dead) = %v, want WORKER_DISABLED", err)
	}
}
