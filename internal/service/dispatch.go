package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/mirrortube/coordinator/internal/domain"
	"github.com/mirrortube/coordinator/internal/logger"
	"github.com/mirrortube/coordinator/internal/repository"
	"gorm.io/gorm"
)

// DispatchService selects the next batch for a worker, weighing new work
// against re-verification of already-finished batches by the worker's
// reputation.
type DispatchService struct {
	db      *gorm.DB
	workers *repository.WorkerRepository
	batches *repository.BatchRepository

	mu  sync.Mutex
	rng *rand.Rand
}

// NewDispatchService creates a new DispatchService with a time-seeded RNG.
func NewDispatchService(db *gorm.DB, workers *repository.WorkerRepository, batches *repository.BatchRepository) *DispatchService {
	return NewDispatchServiceWithSource(db, workers, batches, rand.NewSource(time.Now().UnixNano()))
}

// NewDispatchServiceWithSource creates a DispatchService drawing from the
// given source. Tests pass a fixed seed to pin the verification draw.
func NewDispatchServiceWithSource(db *gorm.DB, workers *repository.WorkerRepository, batches *repository.BatchRepository, src rand.Source) *DispatchService {
	return &DispatchService{
		db:      db,
		workers: workers,
		batches: batches,
		rng:     rand.New(src),
	}
}

// Assignment is the payload a worker receives for a dispatched batch.
type Assignment struct {
	BatchID string   `json:"batch_id"`
	Objects []string `json:"objects"`
}

// Next assigns a batch to the worker and binds the worker to it.
//
// A worker with reputation R is handed an already-finished batch for
// re-verification with probability 1/(R+1): a fresh worker is verified on
// every task, a seasoned one almost never. A worker already holding a batch
// is told to commit it first.
func (s *DispatchService) Next(ctx context.Context, workerID string) (*Assignment, error) {
	var assignment *Assignment
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		workers := s.workers.WithTx(tx)
		batches := s.batches.WithTx(tx)

		worker, err := resolveWorker(ctx, workers, workerID, true)
		if err != nil {
			return err
		}
		if worker.HoldsBatch() {
			return errMustCommitCurrent(worker.CurrentBatch)
		}

		finishedCount, err := batches.CountByFinished(ctx, true)
		if err != nil {
			return fmt.Errorf("failed to count finished batches: %w", err)
		}
		unfinishedCount, err := batches.CountByFinished(ctx, false)
		if err != nil {
			return fmt.Errorf("failed to count unfinished batches: %w", err)
		}
		if finishedCount == 0 && unfinishedCount == 0 {
			return errors.New("no batches available for dispatch")
		}

		var batch *domain.Batch
		if s.verifyDraw(worker.Reputation) && finishedCount > 0 {
			batch, err = batches.PickRandom(ctx, true)
		} else if unfinishedCount == 0 {
			batch, err = batches.PickRandom(ctx, true)
		} else {
			batch, err = batches.PickRandom(ctx, false)
		}
		if err != nil {
			return fmt.Errorf("failed to pick batch: %w", err)
		}

		if err := workers.Bind(ctx, worker.ID, batch.ID); err != nil {
			return fmt.Errorf("failed to bind worker to batch: %w", err)
		}

		logger.CtxInfo(ctx, "Batch dispatched: worker_id=%s, batch_id=%s, finished=%v, reputation=%d",
			worker.ID, batch.ID, batch.Finished, worker.Reputation)

		assignment = &Assignment{BatchID: batch.ID, Objects: batch.Videos}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return assignment, nil
}

// Refetch returns the batch payload again, but only for the batch the
// worker is currently bound to.
func (s *DispatchService) Refetch(ctx context.Context, workerID, batchID string) (*Assignment, error) {
	worker, err := resolveWorker(ctx, s.workers, workerID, false)
	if err != nil {
		return nil, err
	}
	if batchID == "" || worker.CurrentBatch != batchID {
		return nil, errForbiddenBatch()
	}

	batch, err := s.batches.Get(ctx, batchID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errUnknownBatch()
		}
		return nil, fmt.Errorf("failed to load batch: %w", err)
	}

	return &Assignment{BatchID: batch.ID, Objects: batch.Videos}, nil
}

// verifyDraw draws uniformly from {0..reputation} and reports whether the
// draw selects the re-verification path. Exactly this discrete form keeps
// reputation 0 verified with probability 1.
func (s *DispatchService) verifyDraw(reputation int) bool {
	if reputation < 0 {
		reputation = 0
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(reputation+1) == 0
}
