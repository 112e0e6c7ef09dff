// AngelaMos | 2026
// repository.go

package achievement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/brightclass/backend/internal/core"
)

type Repository interface {
	Get(ctx context.Context, userID string) (*StudentAchievement, error)
	// EnsureExists inserts an empty record for the user if none is
	// there yet. Safe under concurrency: a losing insert is a no-op.
	EnsureExists(ctx context.Context, userID string) error
	// GetForUpdate reads the record with a row lock; only valid inside
	// a transaction.
	GetForUpdate(ctx context.Context, userID string) (*StudentAchievement, error)
	Save(ctx context.Context, ach *StudentAchievement) error
}

// Store is a Repository whose recompute critical section can run inside
// a single transaction holding the per-user row lock.
type Store interface {
	Repository
	InTx(ctx context.Context, fn func(repo Repository) error) error
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

type pgStore struct {
	repository
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) Store {
	return &pgStore{
		repository: repository{db: db},
		db:         db,
	}
}

func (s *pgStore) InTx(
	ctx context.Context,
	fn func(repo Repository) error,
) error {
	return core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(&repository{db: tx})
	})
}

func (r *repository) Get(
	ctx context.Context,
	userID string,
) (*StudentAchievement, error) {
	query := `
		SELECT user_id, total_score, current_tier, unlocked_tiers,
		       created_at, updated_at
		FROM achievements
		WHERE user_id = $1`

	var ach StudentAchievement
	err := r.db.GetContext(ctx, &ach, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get achievement: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get achievement: %w", err)
	}

	return &ach, nil
}

func (r *repository) EnsureExists(ctx context.Context, userID string) error {
	query := `
		INSERT INTO achievements (user_id, total_score, current_tier, unlocked_tiers)
		VALUES ($1, 0, '', '[]'::jsonb)
		ON CONFLICT (user_id) DO NOTHING`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("ensure achievement: %w", err)
	}

	return nil
}

func (r *repository) GetForUpdate(
	ctx context.Context,
	userID string,
) (*StudentAchievement, error) {
	query := `
		SELECT user_id, total_score, current_tier, unlocked_tiers,
		       created_at, updated_at
		FROM achievements
		WHERE user_id = $1
		FOR UPDATE`

	var ach StudentAchievement
	err := r.db.GetContext(ctx, &ach, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("lock achievement: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("lock achievement: %w", err)
	}

	return &ach, nil
}

func (r *repository) Save(
	ctx context.Context,
	ach *StudentAchievement,
) error {
	query := `
		UPDATE achievements
		SET total_score = $2,
		    current_tier = $3,
		    unlocked_tiers = $4,
		    updated_at = NOW()
		WHERE user_id = $1
		RETURNING updated_at`

	err := r.db.GetContext(ctx, &ach.UpdatedAt, query,
		ach.UserID,
		ach.TotalScore,
		ach.CurrentTier,
		ach.UnlockedTiers,
	)
	if err != nil {
		return fmt.Errorf("save achievement: %w", err)
	}

	return nil
}
