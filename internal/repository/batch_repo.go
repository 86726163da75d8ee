package repository

import (
	"context"

	"github.com/mirrortube/coordinator/internal/domain"
	"gorm.io/gorm"
)

// BatchRepository handles batch row operations.
type BatchRepository struct {
	db *gorm.DB
	// randomOrder is the ORDER BY expression used for uniform random row
	// selection. Tests replace it with a deterministic ordering.
	randomOrder string
}

// NewBatchRepository creates a new BatchRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *BatchRepository: repository instance bound to db.
func NewBatchRepository(db *gorm.DB) *BatchRepository {
	return &BatchRepository{db: db, randomOrder: "RANDOM()"}
}

// NewBatchRepositoryWithOrder creates a BatchRepository whose random pick
// uses the given ORDER BY expression instead of RANDOM().
func NewBatchRepositoryWithOrder(db *gorm.DB, order string) *BatchRepository {
	return &BatchRepository{db: db, randomOrder: order}
}

// WithTx returns a repository bound to the given transaction handle.
func (r *BatchRepository) WithTx(tx *gorm.DB) *BatchRepository {
	return &BatchRepository{db: tx, randomOrder: r.randomOrder}
}

// Create inserts new batch rows in bulk.
func (r *BatchRepository) Create(ctx context.Context, batches []domain.Batch) error {
	if len(batches) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&batches).Error
}

// Get retrieves a batch by its ID.
// Returns gorm.ErrRecordNotFound if no such batch exists.
func (r *BatchRepository) Get(ctx context.Context, id string) (*domain.Batch, error) {
	var batch domain.Batch
	if err := r.db.WithContext(ctx).First(&batch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

// GetForUpdate retrieves a batch by ID holding a row lock for the duration
// of the surrounding transaction. Must be called inside a transaction.
func (r *BatchRepository) GetForUpdate(ctx context.Context, id string) (*domain.Batch, error) {
	var batch domain.Batch
	if err := withRowLock(r.db.WithContext(ctx)).First(&batch, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

// PickRandom selects a uniformly random batch among those with the given
// finished state. Returns gorm.ErrRecordNotFound when no batch matches.
func (r *BatchRepository) PickRandom(ctx context.Context, finished bool) (*domain.Batch, error) {
	var batch domain.Batch
	if err := r.db.WithContext(ctx).
		Where("finished = ?", finished).
		Order(r.randomOrder).
		Limit(1).
		Take(&batch).Error; err != nil {
		return nil, err
	}
	return &batch, nil
}

// CountByFinished counts batches with the given finished state.
func (r *BatchRepository) CountByFinished(ctx context.Context, finished bool) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Batch{}).
		Where("finished = ?", finished).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// Count returns the total number of batches.
func (r *BatchRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&domain.Batch{}).Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// SumContentSize returns the total byte length across finished batches.
func (r *BatchRepository) SumContentSize(ctx context.Context) (int64, error) {
	var sum int64
	if err := r.db.WithContext(ctx).Model(&domain.Batch{}).
		Where("finished = ?", true).
		Select("COALESCE(SUM(content_size), 0)").
		Scan(&sum).Error; err != nil {
		return 0, err
	}
	return sum, nil
}

// RecordVersionedOverwrite replaces the batch's authoritative size and bumps
// its version after a trusted worker's disagreeing re-upload was accepted.
func (r *BatchRepository) RecordVersionedOverwrite(ctx context.Context, batchID string, newSize int64) error {
	return r.db.WithContext(ctx).Model(&domain.Batch{}).
		Where("id = ?", batchID).
		Updates(map[string]interface{}{
			"content_size": newSize,
			"version":      gorm.Expr("version + 1"),
		}).Error
}

// RecordFinalization marks the batch finished with the authoritative size
// read from the object store. Already-finished batches are left untouched;
// a second finalize must never rewrite a size that verification depends on.
func (r *BatchRepository) RecordFinalization(ctx context.Context, batchID string, size int64) error {
	return r.db.WithContext(ctx).Model(&domain.Batch{}).
		Where("id = ? AND finished = ?", batchID, false).
		Updates(map[string]interface{}{
			"content_size": size,
			"finished":     true,
		}).Error
}
