package service

import (
	"testing"
	"time"

	"github.com/mirrortube/coordinator/internal/domain"
	"github.com/mirrortube/coordinator/internal/repository"
)

func TestStatsSnapshot(t *testing.T) {
	db := newTestDB(t)
	svc := NewStatsService(repository.NewWorkerRepository(db), repository.NewBatchRepository(db), time.Hour)

	mustCreateBatch(t, db, &domain.Batch{ID: "b1", Finished: true, ContentSize: int64Ptr(1000)})
	mustCreateBatch(t, db, &domain.Batch{ID: "b2", Finished: true, ContentSize: int64Ptr(500)})
	mustCreateBatch(t, db, &domain.Batch{ID: "b3"})

	recent := time.Now().UTC().Add(-10 * time.Minute)
	stale := time.Now().UTC().Add(-2 * time.Hour)
	mustCreateWorker(t, db, &domain.Worker{ID: "active", LastCommitted: &recent})
	mustCreateWorker(t, db, &domain.Worker{ID: "stale", LastCommitted: &stale})
	mustCreateWorker(t, db, &domain.Worker{ID: "fresh"})

	stats, err := svc.Snapshot(t.Context())
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}

	if stats.BatchCount != 3 || stats.BatchFinished != 2 || stats.BatchRemaining != 1 {
		t.Errorf("batch counters = %d/%d/%d, want 3/2/1", stats.BatchCount, stats.BatchFinished, stats.BatchRemaining)
	}
	if stats.ContentSize != 1500 {
		t.Errorf("content_size = %d, want 1500", stats.ContentSize)
	}
	if stats.EstimatedVideoCount != 30000 || stats.EstimatedVideoFinished != 20000 || stats.EstimatedVideoRemaining != 10000 {
		t.Errorf("estimated videos = %d/%d/%d, want 30000/20000/10000",
			stats.EstimatedVideoCount, stats.EstimatedVideoFinished, stats.EstimatedVideoRemaining)
	}
	if stats.WorkerCount != 3 {
		t.Errorf("worker_count = %d, want 3", stats.WorkerCount)
	}
	if stats.WorkerActive != 1 {
		t.Errorf("worker_active = %d, want 1", stats.WorkerActive)
	}
}
