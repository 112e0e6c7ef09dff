// AngelaMos | 2026
// repository.go

package submission

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/brightclass/backend/internal/core"
)

type Repository interface {
	Create(ctx context.Context, sub *Submission) error
	GetByID(ctx context.Context, id string) (*Submission, error)
	SetScore(ctx context.Context, id string, score float64, gradedBy string) error
	ListForUser(ctx context.Context, userID string, limit, offset int) ([]Submission, int, error)
	// ScoresForUser returns every submission score for the user;
	// ungraded rows come back as 0. This is the achievement
	// aggregator's source of truth.
	ScoresForUser(ctx context.Context, userID string) ([]float64, error)
}

type repository struct {
	db core.DBTX
}

func NewRepository(db core.DBTX) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, sub *Submission) error {
	query := `
		INSERT INTO submissions (id, user_id, title, content, score, graded_by)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, sub, query,
		sub.ID,
		sub.UserID,
		sub.Title,
		sub.Content,
		sub.Score,
		sub.GradedBy,
	)
	if err != nil {
		return fmt.Errorf("create submission: %w", err)
	}

	return nil
}

func (r *repository) GetByID(
	ctx context.Context,
	id string,
) (*Submission, error) {
	query := `
		SELECT id, user_id, title, content, score, graded_by,
		       created_at, updated_at
		FROM submissions
		WHERE id = $1`

	var sub Submission
	err := r.db.GetContext(ctx, &sub, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get submission: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}

	return &sub, nil
}

func (r *repository) SetScore(
	ctx context.Context,
	id string,
	score float64,
	gradedBy string,
) error {
	query := `
		UPDATE submissions
		SET score = $2, graded_by = $3, updated_at = NOW()
		WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, score, gradedBy)
	if err != nil {
		return fmt.Errorf("grade submission: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("grade submission: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("grade submission: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) ListForUser(
	ctx context.Context,
	userID string,
	limit, offset int,
) ([]Submission, int, error) {
	countQuery := `SELECT COUNT(*) FROM submissions WHERE user_id = $1`

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, userID); err != nil {
		return nil, 0, fmt.Errorf("count submissions: %w", err)
	}

	query := `
		SELECT id, user_id, title, content, score, graded_by,
		       created_at, updated_at
		FROM submissions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3`

	var subs []Submission
	if err := r.db.SelectContext(ctx, &subs, query, userID, limit, offset); err != nil {
		return nil, 0, fmt.Errorf("list submissions: %w", err)
	}

	return subs, total, nil
}

func (r *repository) ScoresForUser(
	ctx context.Context,
	userID string,
) ([]float64, error) {
	query := `
		SELECT COALESCE(score, 0)
		FROM submissions
		WHERE user_id = $1`

	var scores []float64
	if err := r.db.SelectContext(ctx, &scores, query, userID); err != nil {
		return nil, fmt.Errorf("load submission scores: %w", err)
	}

	return scores, nil
}
