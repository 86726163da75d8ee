package repository

import (
	"context"
	"time"

	"github.com/mirrortube/coordinator/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SubmissionRepository stages community-submitted identifiers. Each kind of
// identifier has an authoritative corpus table and a staging table; an
// identifier counts as new only if it appears in neither.
type SubmissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository creates a new SubmissionRepository.
// Parameters:
//   - db: GORM database handle used for queries.
// Returns:
//   - *SubmissionRepository: repository instance bound to db.
func NewSubmissionRepository(db *gorm.DB) *SubmissionRepository {
	return &SubmissionRepository{db: db}
}

// StageVideos stages the given video IDs and returns those actually new.
func (r *SubmissionRepository) StageVideos(ctx context.Context, ids []string) ([]string, error) {
	return r.stage(ctx, ids, &domain.Video{}, func(fresh []string, now time.Time) interface{} {
		rows := make([]domain.UserVideo, len(fresh))
		for i, id := range fresh {
			rows[i] = domain.UserVideo{ID: id, CreatedAt: now}
		}
		return &rows
	}, &domain.UserVideo{})
}

// StagePlaylists stages the given playlist IDs and returns those actually new.
func (r *SubmissionRepository) StagePlaylists(ctx context.Context, ids []string) ([]string, error) {
	return r.stage(ctx, ids, &domain.Playlist{}, func(fresh []string, now time.Time) interface{} {
		rows := make([]domain.UserPlaylist, len(fresh))
		for i, id := range fresh {
			rows[i] = domain.UserPlaylist{ID: id, CreatedAt: now}
		}
		return &rows
	}, &domain.UserPlaylist{})
}

// StageChannels stages the given channel IDs and returns those actually new.
func (r *SubmissionRepository) StageChannels(ctx context.Context, ids []string) ([]string, error) {
	return r.stage(ctx, ids, &domain.Channel{}, func(fresh []string, now time.Time) interface{} {
		rows := make([]domain.UserChannel, len(fresh))
		for i, id := range fresh {
			rows[i] = domain.UserChannel{ID: id, CreatedAt: now}
		}
		return &rows
	}, &domain.UserChannel{})
}

// stage filters ids against the authoritative and staging tables, inserts
// the remainder into staging, and returns the inserted IDs. All lookups are
// parameterised; submission input is attacker-controlled.
func (r *SubmissionRepository) stage(
	ctx context.Context,
	ids []string,
	corpusModel interface{},
	makeRows func(fresh []string, now time.Time) interface{},
	stagingModel interface{},
) ([]string, error) {
	if len(ids) == 0 {
		return []string{}, nil
	}

	known := make(map[string]bool, len(ids))

	var existing []string
	if err := r.db.WithContext(ctx).Model(corpusModel).
		Where("id IN ?", ids).
		Pluck("id", &existing).Error; err != nil {
		return nil, err
	}
	for _, id := range existing {
		known[id] = true
	}

	var staged []string
	if err := r.db.WithContext(ctx).Model(stagingModel).
		Where("id IN ?", ids).
		Pluck("id", &staged).Error; err != nil {
		return nil, err
	}
	for _, id := range staged {
		known[id] = true
	}

	fresh := make([]string, 0, len(ids))
	for _, id := range ids {
		if !known[id] {
			known[id] = true
			fresh = append(fresh, id)
		}
	}
	if len(fresh) == 0 {
		return []string{}, nil
	}

	rows := makeRows(fresh, time.Now().UTC())
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(rows).Error; err != nil {
		return nil, err
	}

	return fresh, nil
}
