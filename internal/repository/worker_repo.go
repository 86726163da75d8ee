package repository

import (
	"context"
	"time"

	"github.com/mirrortube/coordinator/internal/domain"
	"gorm.io/gorm"
)

// WorkerRepository handles worker row operations.
type WorkerRepository struct {
	db *gorm.DB
}

// NewWorkerRepository creates a new WorkerRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *WorkerRepository: repository instance bound to db.
func NewWorkerRepository(db *gorm.DB) *WorkerRepository {
	return &WorkerRepository{db: db}
}

// WithTx returns a repository bound to the given transaction handle.
func (r *WorkerRepository) WithTx(tx *gorm.DB) *WorkerRepository {
	return &WorkerRepository{db: tx}
}

// Create inserts a new worker row. Fails if the ID already exists.
func (r *WorkerRepository) Create(ctx context.Context, worker *domain.Worker) error {
	return r.db.WithContext(ctx).Create(worker).Error
}

// Get retrieves a worker by its ID.
// Returns gorm.ErrRecordNotFound if no such worker exists.
func (r *WorkerRepository) Get(ctx context.Context, id string) (*domain.Worker, error) {
	var worker domain.Worker
	if err := r.db.WithContext(ctx).First(&worker, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &worker, nil
}

// GetForUpdate retrieves a worker by ID holding a row lock for the duration
// of the surrounding transaction. Must be called inside a transaction.
func (r *WorkerRepository) GetForUpdate(ctx context.Context, id string) (*domain.Worker, error) {
	var worker domain.Worker
	if err := withRowLock(r.db.WithContext(ctx)).First(&worker, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &worker, nil
}

// CountByIP counts workers enrolled from the given remote address.
func (r *WorkerRepository) CountByIP(ctx context.Context, ip string) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Worker{}).Where("ip = ?", ip).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// ListIDsByIP lists worker IDs enrolled from the given remote address.
func (r *WorkerRepository) ListIDsByIP(ctx context.Context, ip string) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Model(&domain.Worker{}).
		Where("ip = ?", ip).
		Order("created_at").
		Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}

// Bind sets the worker's current batch.
func (r *WorkerRepository) Bind(ctx context.Context, workerID, batchID string) error {
	return r.db.WithContext(ctx).Model(&domain.Worker{}).
		Where("id = ?", workerID).
		Update("current_batch", batchID).Error
}

// Release clears the worker's current batch, credits one reputation point,
// and stamps the last-committed time.
func (r *WorkerRepository) Release(ctx context.Context, workerID string, now time.Time) error {
	return r.db.WithContext(ctx).Model(&domain.Worker{}).
		Where("id = ?", workerID).
		Updates(map[string]interface{}{
			"current_batch":  "",
			"reputation":     gorm.Expr("reputation + 1"),
			"last_committed": now,
		}).Error
}

// Penalise subtracts delta from the worker's reputation and disables the
// worker if the result is negative. The held batch stays bound.
func (r *WorkerRepository) Penalise(ctx context.Context, workerID string, delta int) error {
	if err := r.db.WithContext(ctx).Model(&domain.Worker{}).
		Where("id = ?", workerID).
		Update("reputation", gorm.Expr("reputation - ?", delta)).Error; err != nil {
		return err
	}
	return r.db.WithContext(ctx).Model(&domain.Worker{}).
		Where("id = ? AND reputation < 0", workerID).
		Update("disabled", true).Error
}

// Count returns the total number of enrolled workers.
func (r *WorkerRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Worker{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountActive returns the number of workers whose last successful commit
// falls within the given look-back window.
func (r *WorkerRepository) CountActive(ctx context.Context, since time.Time) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Worker{}).
		Where("last_committed >= ?", since).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
