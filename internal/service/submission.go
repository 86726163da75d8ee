package service

import (
	"context"
	"fmt"
	"regexp"

	"github.com/mirrortube/coordinator/internal/logger"
	"github.com/mirrortube/coordinator/internal/repository"
)

var (
	videoIDPattern   = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)
	channelIDPattern = regexp.MustCompile(`^UC[A-Za-z0-9_-]{22}$`)
)

// SubmissionService accepts community-submitted identifiers, filters out
// malformed ones, and stages the rest for review.
type SubmissionService struct {
	submissions *repository.SubmissionRepository
}

// NewSubmissionService creates a new SubmissionService.
func NewSubmissionService(submissions *repository.SubmissionRepository) *SubmissionService {
	return &SubmissionService{submissions: submissions}
}

// SubmitVideos stages well-formed video IDs and returns the newly staged ones.
func (s *SubmissionService) SubmitVideos(ctx context.Context, ids []string) ([]string, error) {
	valid := filterIDs(ids, videoIDPattern)
	inserted, err := s.submissions.StageVideos(ctx, valid)
	if err != nil {
		return nil, fmt.Errorf("failed to stage videos: %w", err)
	}
	logger.CtxInfo(ctx, "Videos submitted: received=%d, valid=%d, inserted=%d", len(ids), len(valid), len(inserted))
	return inserted, nil
}

// SubmitPlaylists stages playlist IDs and returns the newly staged ones.
func (s *SubmissionService) SubmitPlaylists(ctx context.Context, ids []string) ([]string, error) {
	valid := filterIDs(ids, nil)
	inserted, err := s.submissions.StagePlaylists(ctx, valid)
	if err != nil {
		return nil, fmt.Errorf("failed to stage playlists: %w", err)
	}
	logger.CtxInfo(ctx, "Playlists submitted: received=%d, inserted=%d", len(ids), len(inserted))
	return inserted, nil
}

// SubmitChannels stages well-formed channel IDs and returns the newly staged ones.
func (s *SubmissionService) SubmitChannels(ctx context.Context, ids []string) ([]string, error) {
	valid := filterIDs(ids, channelIDPattern)
	inserted, err := s.submissions.StageChannels(ctx, valid)
	if err != nil {
		return nil, fmt.Errorf("failed to stage channels: %w", err)
	}
	logger.CtxInfo(ctx, "Channels submitted: received=%d, valid=%d, inserted=%d", len(ids), len(valid), len(inserted))
	return inserted, nil
}

// filterIDs drops malformed and duplicate identifiers, preserving first
// occurrences. A nil pattern only drops empty strings and duplicates.
func filterIDs(ids []string, pattern *regexp.Regexp) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		if pattern != nil && !pattern.MatchString(id) {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
