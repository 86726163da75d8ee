package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/mirrortube/coordinator/internal/logger"
	"github.com/mirrortube/coordinator/internal/repository"
	"github.com/mirrortube/coordinator/internal/storage"
	"gorm.io/gorm"
)

// contentTypeGzip is the only content type the swarm uploads; every
// presigned URL is constrained to it.
const contentTypeGzip = "application/gzip"

// CommitService validates a worker's reported archive size against the
// authoritative size of a finished batch and decides between acceptance,
// penalty, and trusted overwrite. For unfinished batches it issues the
// upload URL for the canonical object; finalization is a separate call.
type CommitService struct {
	db      *gorm.DB
	workers *repository.WorkerRepository
	batches *repository.BatchRepository
	store   storage.ObjectStore

	threshold         float64
	penalty           int
	trustedReputation int
}

// NewCommitService creates a new CommitService.
// Parameters:
//   - db: database handle for transactions.
//   - workers, batches: repositories.
//   - store: object store for presigned URL issuance.
//   - threshold: tolerated relative size discrepancy, in (0,1).
//   - penalty: reputation cost of a failed verification.
//   - trustedReputation: reputation above which a disagreeing worker gets a
//     versioned overwrite instead of a penalty.
// Returns:
//   - *CommitService: initialized service.
func NewCommitService(
	db *gorm.DB,
	workers *repository.WorkerRepository,
	batches *repository.BatchRepository,
	store storage.ObjectStore,
	threshold float64,
	penalty int,
	trustedReputation int,
) *CommitService {
	return &CommitService{
		db:                db,
		workers:           workers,
		batches:           batches,
		store:             store,
		threshold:         threshold,
		penalty:           penalty,
		trustedReputation: trustedReputation,
	}
}

// CommitResult carries the presigned upload URL. An empty URL on success
// means the size verified against the oracle and nothing should be uploaded.
type CommitResult struct {
	UploadURL string `json:"upload_url"`
}

// Commit runs the commit-time verification protocol for one worker/batch
// pair. The returned ProtocolError, if any, reflects state that has already
// been committed: a SIZE_MISMATCH response leaves the penalty applied and
// the batch still bound.
func (s *CommitService) Commit(ctx context.Context, workerID, batchID string, contentSize int64) (*CommitResult, error) {
	var (
		result   *CommitResult
		protoErr *ProtocolError
	)

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
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

		if !batch.Finished {
			// First completion runs through /api/finalize; here the worker
			// only gets its constrained upload URL.
			url, err := s.store.PresignPut(ctx, batch.ObjectKey(), contentSize, contentTypeGzip)
			if err != nil {
				return fmt.Errorf("failed to presign upload: %w", err)
			}
			result = &CommitResult{UploadURL: url}
			return nil
		}

		authoritative := *batch.ContentSize
		discrepancy := relativeDiscrepancy(contentSize, authoritative)

		switch {
		case discrepancy < s.threshold:
			// Verified honest; nothing to upload.
			if err := workers.Release(ctx, worker.ID, time.Now().UTC()); err != nil {
				return fmt.Errorf("failed to release worker: %w", err)
			}
			logger.CtxInfo(ctx, "Commit verified: worker_id=%s, batch_id=%s, reported=%d, authoritative=%d",
				worker.ID, batchID, contentSize, authoritative)
			result = &CommitResult{UploadURL: ""}
			return nil

		case worker.Reputation > s.trustedReputation:
			// A trusted worker disagreeing loudly gets to upload its
			// evidence under a version-suffixed key; the canonical object
			// is never clobbered. The worker stays bound to the batch.
			versionBefore := batch.Version
			if err := batches.RecordVersionedOverwrite(ctx, batch.ID, contentSize); err != nil {
				return fmt.Errorf("failed to record versioned overwrite: %w", err)
			}
			url, err := s.store.PresignPut(ctx, batch.VersionedObjectKey(versionBefore), contentSize, contentTypeGzip)
			if err != nil {
				return fmt.Errorf("failed to presign versioned upload: %w", err)
			}
			logger.CtxWarn(ctx, "Trusted overwrite accepted: worker_id=%s, batch_id=%s, version=%d, old_size=%d, new_size=%d",
				worker.ID, batchID, versionBefore, authoritative, contentSize)
			result = &CommitResult{UploadURL: url}
			return nil

		default:
			// The penalty has to outlive the failed request, so the
			// transaction commits and the protocol error is surfaced after.
			if err := workers.Penalise(ctx, worker.ID, s.penalty); err != nil {
				return fmt.Errorf("failed to penalise worker: %w", err)
			}
			logger.CtxWarn(ctx, "Size mismatch: worker_id=%s, batch_id=%s, reported=%d, authoritative=%d, discrepancy=%.4f",
				worker.ID, batchID, contentSize, authoritative, discrepancy)
			protoErr = errSizeMismatch(batchID)
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	if protoErr != nil {
		return nil, protoErr
	}
	return result, nil
}

// relativeDiscrepancy computes |reported-authoritative| / authoritative.
// A finished batch records a positive size; a zero oracle only matches a
// zero report.
func relativeDiscrepancy(reported, authoritative int64) float64 {
	if authoritative == 0 {
		if reported == 0 {
			return 0
		}
		return math.Inf(1)
	}
	return math.Abs(float64(reported-authoritative)) / float64(authoritative)
}
