package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/mirrortube/coordinator/internal/domain"
	"github.com/mirrortube/coordinator/internal/logger"
	"github.com/mirrortube/coordinator/internal/repository"
	"github.com/mirrortube/coordinator/internal/storage"
	"gorm.io/gorm"
)

// RegistryService enrolls workers and resolves their identity on every
// protected request.
type RegistryService struct {
	workers         *repository.WorkerRepository
	store           storage.ObjectStore
	maxWorkersPerIP int
}

// NewRegistryService creates a new RegistryService.
// Parameters:
//   - workers: worker repository.
//   - store: object store, used for the public bucket URL handed to workers.
//   - maxWorkersPerIP: per-IP enrollment cap.
// Returns:
//   - *RegistryService: initialized service.
func NewRegistryService(workers *repository.WorkerRepository, store storage.ObjectStore, maxWorkersPerIP int) *RegistryService {
	return &RegistryService{
		workers:         workers,
		store:           store,
		maxWorkersPerIP: maxWorkersPerIP,
	}
}

// Enrollment is the result of a successful worker creation.
type Enrollment struct {
	WorkerID string `json:"worker_id"`
	S3URL    string `json:"s3_url"`
}

// Create enrolls a new worker for the given remote address. More than
// maxWorkersPerIP existing workers on the address reject the enrollment.
func (s *RegistryService) Create(ctx context.Context, ip string) (*Enrollment, error) {
	count, err := s.workers.CountByIP(ctx, ip)
	if err != nil {
		return nil, fmt.Errorf("failed to count workers for ip: %w", err)
	}
	if count > int64(s.maxWorkersPerIP) {
		return nil, errTooManyWorkers()
	}

	worker := &domain.Worker{
		ID: uuid.New().String(),
		IP: ip,
	}
	if err := s.workers.Create(ctx, worker); err != nil {
		return nil, fmt.Errorf("failed to enroll worker: %w", err)
	}

	logger.CtxInfo(ctx, "Worker enrolled: worker_id=%s, ip=%s", worker.ID, ip)

	return &Enrollment{
		WorkerID: worker.ID,
		S3URL:    s.store.PublicBaseURL(),
	}, nil
}

// ListByIP lists worker IDs enrolled from the given remote address, letting
// a client recover a lost identity.
func (s *RegistryService) ListByIP(ctx context.Context, ip string) ([]string, error) {
	ids, err := s.workers.ListIDsByIP(ctx, ip)
	if err != nil {
		return nil, fmt.Errorf("failed to list workers for ip: %w", err)
	}
	return ids, nil
}

// Resolve loads the worker and gates on its admission state.
func (s *RegistryService) Resolve(ctx context.Context, workerID string) (*domain.Worker, error) {
	return resolveWorker(ctx, s.workers, workerID, false)
}

// resolveWorker loads a worker and enforces the admission gate shared by
// every protected endpoint. With forUpdate set the row stays locked for the
// surrounding transaction.
func resolveWorker(ctx context.Context, workers *repository.WorkerRepository, workerID string, forUpdate bool) (*domain.Worker, error) {
	var (
		worker *domain.Worker
		err    error
	)
	if forUpdate {
		worker, err = workers.GetForUpdate(ctx, workerID)
	} else {
		worker, err = workers.Get(ctx, workerID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errUnknownWorker()
		}
		return nil, fmt.Errorf("failed to load worker: %w", err)
	}
	if worker.Disabled {
		return nil, errWorkerDisabled()
	}
	return worker, nil
}
