package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/mirrortube/coordinator/internal/domain"
	"github.com/mirrortube/coordinator/internal/repository"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB opens an isolated in-memory SQLite database with the full
// schema migrated. A single connection keeps the in-memory database alive
// and shared across transactions.
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

	if err := repository.Migrate(db); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}
	return db
}

// fakeStore implements storage.ObjectStore in memory.
type fakeStore struct {
	baseURL string
	// sizes maps object keys to the sizes HeadSize reports.
	sizes map[string]int64
	// headErr, when set, fails every HeadSize call.
	headErr error
	// presigned records every key passed to PresignPut.
	presigned []string
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		baseURL: "https://archives.us-east-1.example.com",
		sizes:   make(map[string]int64),
	}
}

func (f *fakeStore) PresignPut(_ context.Context, key string, contentLength int64, contentType string) (string, error) {
	f.presigned = append(f.presigned, key)
	return fmt.Sprintf("%s/%s?signed=1&length=%d&type=%s", f.baseURL, key, contentLength, contentType), nil
}

func (f *fakeStore) HeadSize(_ context.Context, key string) (int64, error) {
	if f.headErr != nil {
		return 0, f.headErr
	}
	size, ok := f.sizes[key]
	if !ok {
		return 0, fmt.Errorf("object %s not found", key)
	}
	return size, nil
}

func (f *fakeStore) PublicBaseURL() string {
	return f.baseURL
}

func mustCreateWorker(t *testing.T, db *gorm.DB, worker *domain.Worker) {
	t.Helper()
	if worker.IP == "" {
		worker.IP = "192.0.2.1"
	}
	if err := db.Create(worker).Error; err != nil {
		t.Fatalf("failed to create worker %s: %v", worker.ID, err)
	}
}

func mustCreateBatch(t *testing.T, db *gorm.DB, batch *domain.Batch) {
	t.Helper()
	if batch.Videos == nil {
		batch.Videos = domain.StringArray{"dQw4w9WgXcQ"}
	}
	if err := db.Create(batch).Error; err != nil {
		t.Fatalf("failed to create batch %s: %v", batch.ID, err)
	}
}

func getWorker(t *testing.T, db *gorm.DB, id string) *domain.Worker {
	t.Helper()
	var worker domain.Worker
	if err := db.First(&worker, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to load worker %s: %v", id, err)
	}
	return &worker
}

func getBatch(t *testing.T, db *gorm.DB, id string) *domain.Batch {
	t.Helper()
	var batch domain.Batch
	if err := db.First(&batch, "id = ?", id).Error; err != nil {
		t.Fatalf("failed to load batch %s: %v", id, err)
	}
	return &batch
}

func int64Ptr(v int64) *int64 {
	return &v
}

// protocolCode unwraps a ProtocolError and returns its code, or 0.
func protocolCode(err error) int {
	if perr, ok := err.(*ProtocolError); ok {
		return perr.Code
	}
	return 0
}
