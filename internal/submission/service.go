// AngelaMos | 2026
// service.go

package submission

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/brightclass/backend/internal/achievement"
)

type Service struct {
	repo         Repository
	achievements *achievement.Service
	logger       *slog.Logger
}

func NewService(
	repo Repository,
	achievements *achievement.Service,
	logger *slog.Logger,
) *Service {
	return &Service{
		repo:         repo,
		achievements: achievements,
		logger:       logger,
	}
}

// Submit stores the submission and, when it carries a score, recomputes
// the submitter's achievement record in the same request. The refreshed
// record rides back so the caller can surface a tier change.
func (s *Service) Submit(
	ctx context.Context,
	userID string,
	req CreateSubmissionRequest,
) (*Submission, *achievement.StudentAchievement, error) {
	sub := &Submission{
		ID:      uuid.New().String(),
		UserID:  userID,
		Title:   req.Title,
		Content: req.Content,
		Score:   req.Score,
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, nil, err
	}

	if !sub.Graded() {
		return sub, nil, nil
	}

	ach, err := s.achievements.Recompute(ctx, userID)
	if err != nil {
		// The submission is saved; the aggregate catches up on the
		// next recompute. Report the stale read, not a failure.
		s.logger.Error("recompute after submit failed",
			slog.String("user_id", userID),
			slog.String("submission_id", sub.ID),
			slog.String("error", err.Error()))
		return sub, nil, nil
	}

	return sub, ach, nil
}

// Grade sets the score on a submission and recomputes the submitting
// user's achievement. Recompute re-sums the full history, so re-grading
// (a score correction) is naturally idempotent and can move the current
// tier down without shrinking the unlocked set.
func (s *Service) Grade(
	ctx context.Context,
	id string,
	score float64,
	gradedBy string,
) (*Submission, *achievement.StudentAchievement, error) {
	sub, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	if err := s.repo.SetScore(ctx, id, score, gradedBy); err != nil {
		return nil, nil, err
	}

	ach, err := s.achievements.Recompute(ctx, sub.UserID)
	if err != nil {
		return nil, nil, fmt.Errorf("grade submission: %w", err)
	}

	sub, err = s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	return sub, ach, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*Submission, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListForUser(
	ctx context.Context,
	userID string,
	page, pageSize int,
) ([]Submission, int, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	return s.repo.ListForUser(ctx, userID, pageSize, (page-1)*pageSize)
}
