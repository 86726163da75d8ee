package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mirrortube/coordinator/internal/logger"
	"github.com/mirrortube/coordinator/internal/repository"
	"github.com/mirrortube/coordinator/internal/storage"
	"gorm.io/gorm"
)

// FinalizeService handles first-time batch completion: it reads the
// authoritative archive size from the object store and persists it, turning
// the batch into a verification oracle for every future worker.
type FinalizeService struct {
	db      *gorm.DB
	workers *repository.WorkerRepository
	batches *repository.BatchRepository
	store   storage.ObjectStore
}

// NewFinalizeService creates a new FinalizeService.
func NewFinalizeService(db *gorm.DB, workers *repository.WorkerRepository, batches *repository.BatchRepository, store storage.ObjectStore) *FinalizeService {
	return &FinalizeService{db: db, workers: workers, batches: batches, store: store}
}

// Finalize records the authoritative size of the batch's canonical object
// and releases the worker. If the batch was already finalized by another
// worker, the batch row stays untouched and the worker is still released;
// the recorded size has been used for verification and must not move.
func (s *FinalizeService) Finalize(ctx context.Context, workerID, batchID string) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		workers := s.workers.WithTx(tx)
		batches := s.batches.WithTx(tx)

		worker, err := resolveWorker(ctx, workers, workerID, true)
		if err != nil {
			return err
		}
		if batchID == "" {
			return errEmptyBatchID()
		}
		if worker.CurrentBatch != batchID {
			return errMustCommitCurrent(worker.CurrentBatch)
		}

		batch, err := batches.GetForUpdate(ctx, batchID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return errUnknownBatch()
			}
			return fmt.Errorf("failed to load batch: %w", err)
		}

		if batch.Finished {
			logger.CtxWarn(ctx, "Finalize of already-finished batch: worker_id=%s, batch_id=%s, keeping recorded size %d",
				worker.ID, batchID, *batch.ContentSize)
			if err := workers.Release(ctx, worker.ID, time.Now().UTC()); err != nil {
				return fmt.Errorf("failed to release worker: %w", err)
			}
			return nil
		}

		// A failed or timed-out HEAD aborts the transaction; the worker
		// keeps its binding and may retry.
		size, err := s.store.HeadSize(ctx, batch.ObjectKey())
		if err != nil {
			return fmt.Errorf("failed to read object size: %w", err)
		}

		if err := batches.RecordFinalization(ctx, batch.ID, size); err != nil {
			return fmt.Errorf("failed to record finalization: %w", err)
		}
		if err := workers.Release(ctx, worker.ID, time.Now().UTC()); err != nil {
			return fmt.Errorf("failed to release worker: %w", err)
		}

		logger.CtxInfo(ctx, "Batch finalized: worker_id=%s, batch_id=%s, content_size=%d", worker.ID, batchID, size)
		return nil
	})
}
