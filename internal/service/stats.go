package service

import (
	"context"
	"fmt"
	"time"

	"github.com/mirrortube/coordinator/internal/repository"
)

// videosPerBatch is the corpus partition size used for the estimated video
// counts in the public stats.
const videosPerBatch = 10000

// StatsService produces the public progress counters.
type StatsService struct {
	workers      *repository.WorkerRepository
	batches      *repository.BatchRepository
	activeWindow time.Duration
}

// NewStatsService creates a new StatsService.
func NewStatsService(workers *repository.WorkerRepository, batches *repository.BatchRepository, activeWindow time.Duration) *StatsService {
	return &StatsService{workers: workers, batches: batches, activeWindow: activeWindow}
}

// Stats is the public progress snapshot.
type Stats struct {
	BatchCount              int64 `json:"batch_count"`
	BatchFinished           int64 `json:"batch_finished"`
	BatchRemaining          int64 `json:"batch_remaining"`
	ContentSize             int64 `json:"content_size"`
	EstimatedVideoCount     int64 `json:"estimated_video_count"`
	EstimatedVideoFinished  int64 `json:"estimated_video_finished"`
	EstimatedVideoRemaining int64 `json:"estimated_video_remaining"`
	WorkerCount             int64 `json:"worker_count"`
	WorkerActive            int64 `json:"worker_active"`
}

// Snapshot reads the current counters.
func (s *StatsService) Snapshot(ctx context.Context) (*Stats, error) {
	batchCount, err := s.batches.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count batches: %w", err)
	}
	finished, err := s.batches.CountByFinished(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("failed to count finished batches: %w", err)
	}
	contentSize, err := s.batches.SumContentSize(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum content sizes: %w", err)
	}
	workerCount, err := s.workers.Count(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count workers: %w", err)
	}
	active, err := s.workers.CountActive(ctx, time.Now().UTC().Add(-s.activeWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to count active workers: %w", err)
	}

	remaining := batchCount - finished
	return &Stats{
		BatchCount:              batchCount,
		BatchFinished:           finished,
		BatchRemaining:          remaining,
		ContentSize:             contentSize,
		EstimatedVideoCount:     batchCount * videosPerBatch,
		EstimatedVideoFinished:  finished * videosPerBatch,
		EstimatedVideoRemaining: remaining * videosPerBatch,
		WorkerCount:             workerCount,
		WorkerActive:            active,
	}, nil
}
