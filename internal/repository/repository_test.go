package repository

import (
	"testing"
	"time"

	"github.com/mirrortube/coordinator/internal/domain"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get sql.DB: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

func int64Ptr(v int64) *int64 {
	return &v
}

func TestWorkerRelease(t *testing.T) {
	db := newTestDB(t)
	repo := NewWorkerRepository(db)

	if err := db.Create(&domain.Worker{ID: "w1", IP: "ip", Reputation: 5, CurrentBatch: "b1"}).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	now := time.Now().UTC()
	if err := repo.Release(t.Context(), "w1", now); err != nil {
		t.Fatalf("Release failed: %v", err)
	}

	worker, err := repo.Get(t.Context(), "w1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if worker.Reputation != 6 {
		t.Errorf("reputation = %d, want 6", worker.Reputation)
	}
	if worker.CurrentBatch != "" {
		t.Errorf("current_batch = %q, want cleared", worker.CurrentBatch)
	}
	if worker.LastCommitted == nil {
		t.Error("last_committed not stamped")
	}
}

func TestWorkerPenalise(t *testing.T) {
	db := newTestDB(t)
	repo := NewWorkerRepository(db)

	tests := []struct {
		name         string
		reputation   int
		delta        int
		wantRep      int
		wantDisabled bool
	}{
		{"drops below zero", 0, 10, -10, true},
		{"stays non-negative", 25, 10, 15, false},
		{"lands exactly on zero", 10, 10, 0, false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			id := "w-" + tc.name
			if err := db.Create(&domain.Worker{ID: id, IP: "ip", Reputation: tc.reputation}).Error; err != nil {
				t.Fatalf("seed failed: %v", err)
			}
			if err := repo.Penalise(t.Context(), id, tc.delta); err != nil {
				t.Fatalf("Penalise failed: %v", err)
			}
			worker, err := repo.Get(t.Context(), id)
			if err != nil {
				t.Fatalf("Get failed: %v", err)
			}
			if worker.Reputation != tc.wantRep {
				t.Errorf("reputation = %d, want %d", worker.Reputation, tc.wantRep)
			}
			if worker.Disabled != tc.wantDisabled {
				t.Errorf("disabled = %v, want %v", worker.Disabled, tc.wantDisabled)
			}
		})
	}
}

func TestBatchRecordFinalizationIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewBatchRepository(db)

	if err := db.Create(&domain.Batch{ID: "b1", Videos: domain.StringArray{"v"}}).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	if err := repo.RecordFinalization(t.Context(), "b1", 12345); err != nil {
		t.Fatalf("first RecordFinalization failed: %v", err)
	}
	// A second finalize must not move the recorded oracle.
	if err := repo.RecordFinalization(t.Context(), "b1", 99999); err != nil {
		t.Fatalf("second RecordFinalization failed: %v", err)
	}

	batch, err := repo.Get(t.Context(), "b1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !batch.Finished {
		t.Error("batch not finished")
	}
	if batch.ContentSize == nil || *batch.ContentSize != 12345 {
		t.Errorf("content_size = %v, want 12345", batch.ContentSize)
	}
}

func TestBatchRecordVersionedOverwrite(t *testing.T) {
	db := newTestDB(t)
	repo := NewBatchRepository(db)

	if err := db.Create(&domain.Batch{ID: "b1", Finished: true, ContentSize: int64Ptr(100), Videos: domain.StringArray{"v"}}).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	for i, size := range []int64{200, 300} {
		if err := repo.RecordVersionedOverwrite(t.Context(), "b1", size); err != nil {
			t.Fatalf("overwrite %d failed: %v", i, err)
		}
	}

	batch, err := repo.Get(t.Context(), "b1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if batch.Version != 2 {
		t.Errorf("version = %d, want 2", batch.Version)
	}
	if batch.ContentSize == nil || *batch.ContentSize != 300 {
		t.Errorf("content_size = %v, want 300", batch.ContentSize)
	}
}

func TestBatchPickRandom(t *testing.T) {
	db := newTestDB(t)
	repo := NewBatchRepository(db)

	if err := db.Create(&domain.Batch{ID: "open", Videos: domain.StringArray{"v"}}).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := db.Create(&domain.Batch{ID: "done", Finished: true, ContentSize: int64Ptr(10), Videos: domain.StringArray{"v"}}).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	got, err := repo.PickRandom(t.Context(), false)
	if err != nil {
		t.Fatalf("PickRandom(false) failed: %v", err)
	}
	if got.ID != "open" {
		t.Errorf("PickRandom(false) = %q, want open", got.ID)
	}

	got, err = repo.PickRandom(t.Context(), true)
	if err != nil {
		t.Fatalf("PickRandom(true) failed: %v", err)
	}
	if got.ID != "done" {
		t.Errorf("PickRandom(true) = %q, want done", got.ID)
	}
}

func TestSumContentSize(t *testing.T) {
	db := newTestDB(t)
	repo := NewBatchRepository(db)

	if err := db.Create(&domain.Batch{ID: "b1", Finished: true, ContentSize: int64Ptr(100), Videos: domain.StringArray{}}).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := db.Create(&domain.Batch{ID: "b2", Finished: true, ContentSize: int64Ptr(250), Videos: domain.StringArray{}}).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}
	if err := db.Create(&domain.Batch{ID: "b3", Videos: domain.StringArray{}}).Error; err != nil {
		t.Fatalf("seed failed: %v", err)
	}

	sum, err := repo.SumContentSize(t.Context())
	if err != nil {
		t.Fatalf("SumContentSize failed: %v", err)
	}
	if sum != 350 {
		t.Errorf("sum = %d, want 350", sum)
	}
}
