// AngelaMos | 2026
// service.go

package achievement

import (
	"context"
	"fmt"
	"log/slog"
)

// ScoreSource supplies the full scored-submission history for a user.
// Missing scores arrive as 0; the aggregator never increments, it
// re-sums the whole history on every call.
type ScoreSource interface {
	ScoresForUser(ctx context.Context, userID string) ([]float64, error)
}

type Service struct {
	store  Store
	scores ScoreSource
	tiers  TierTable
	logger *slog.Logger
}

func NewService(
	store Store,
	scores ScoreSource,
	tiers TierTable,
	logger *slog.Logger,
) *Service {
	return &Service{
		store:  store,
		scores: scores,
		tiers:  tiers,
		logger: logger,
	}
}

// Recompute rebuilds the user's achievement record from their full
// submission history. Concurrent calls for the same user serialize on
// the achievement row lock, so no unlocked tier can be lost to a
// concurrent read-modify-write; different users never contend.
func (s *Service) Recompute(
	ctx context.Context,
	userID string,
) (*StudentAchievement, error) {
	var result *StudentAchievement

	err := s.store.InTx(ctx, func(repo Repository) error {
		if err := repo.EnsureExists(ctx, userID); err != nil {
			return err
		}

		ach, err := repo.GetForUpdate(ctx, userID)
		if err != nil {
			return err
		}

		// Scores are read while holding the lock so every submission
		// committed before this recompute started is included.
		scores, err := s.scores.ScoresForUser(ctx, userID)
		if err != nil {
			return err
		}

		var total float64
		for _, score := range scores {
			total += score
		}

		tier := s.tiers.For(total)

		ach.TotalScore = total
		ach.CurrentTier = tier.Name
		ach.UnlockedTiers = ach.UnlockedTiers.Append(tier.Name)

		if err := repo.Save(ctx, ach); err != nil {
			return err
		}

		result = ach
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("recompute achievement: %w", err)
	}

	s.logger.Debug("achievement recomputed",
		slog.String("user_id", userID),
		slog.Float64("total_score", result.TotalScore),
		slog.String("current_tier", result.CurrentTier))

	return result, nil
}

func (s *Service) GetForUser(
	ctx context.Context,
	userID string,
) (*StudentAchievement, error) {
	return s.store.Get(ctx, userID)
}

// Tiers exposes the static ladder for the frontend's progress display.
func (s *Service) Tiers() TierTable {
	return s.tiers
}
