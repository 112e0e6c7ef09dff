// AngelaMos | 2026
// repository.go

package invitation

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/brightclass/backend/internal/core"
	"github.com/brightclass/backend/internal/user"
)

// ErrTokenCollision is returned by Create when the generated token hit
// the store's uniqueness constraint. Callers regenerate and retry once.
var ErrTokenCollision = errors.New("invitation token collision")

const (
	pendingEmailConstraint = "invitations_pending_email_idx"
	tokenConstraint        = "invitations_token_key"
)

type Repository interface {
	Create(ctx context.Context, inv *Invitation) error
	GetByToken(ctx context.Context, token string) (*Invitation, error)
	HasLivePending(ctx context.Context, email string) (bool, error)
	CountByEmail(ctx context.Context, email string) (int, error)
	Delete(ctx context.Context, id string) error
	// Transition flips status from -> to only if the row is currently in
	// `from`. Zero rows affected means the invitation was concurrently
	// moved to another state; callers treat that as an invalid-state
	// condition, never as success.
	Transition(ctx context.Context, id string, from, to Status) error
	List(
		ctx context.Context,
		params ListInvitationsParams,
	) ([]Invitation, int, error)
}

// Store is a Repository that can also run the acceptance flow in a
// single database transaction spanning invitations and users.
type Store interface {
	Repository
	InTx(
		ctx context.Context,
		fn func(invs Repository, users user.Repository) error,
	) error
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
	fn func(invs Repository, users user.Repository) error,
) error {
	return core.InTx(ctx, s.db, func(tx *sqlx.Tx) error {
		return fn(&repository{db: tx}, user.NewRepository(tx))
	})
}

func (r *repository) Create(ctx context.Context, inv *Invitation) error {
	query := `
		INSERT INTO invitations (
			id, email, name, role, message, token, status, expires_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8
		)
		RETURNING created_at, updated_at`

	err := r.db.GetContext(ctx, inv, query,
		inv.ID,
		inv.Email,
		inv.Name,
		inv.Role,
		inv.Message,
		inv.Token,
		inv.Status,
		inv.ExpiresAt,
	)
	if err != nil {
		if constraint, ok := core.IsUniqueViolation(err); ok {
			if constraint == tokenConstraint {
				return fmt.Errorf("create invitation: %w", ErrTokenCollision)
			}
			return fmt.Errorf("create invitation: %w", core.ErrDuplicateKey)
		}
		return fmt.Errorf("create invitation: %w", err)
	}

	return nil
}

func (r *repository) GetByToken(
	ctx context.Context,
	token string,
) (*Invitation, error) {
	query := `
		SELECT id, email, name, role, message, token, status,
		       expires_at, created_at, updated_at
		FROM invitations
		WHERE token = $1`

	var inv Invitation
	err := r.db.GetContext(ctx, &inv, query, token)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("get invitation: %w", core.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get invitation: %w", err)
	}

	return &inv, nil
}

func (r *repository) HasLivePending(
	ctx context.Context,
	email string,
) (bool, error) {
	query := `
		SELECT EXISTS(
			SELECT 1 FROM invitations
			WHERE email = $1 AND status = 'pending' AND expires_at > NOW()
		)`

	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, email); err != nil {
		return false, fmt.Errorf("check pending invitation: %w", err)
	}

	return exists, nil
}

func (r *repository) CountByEmail(
	ctx context.Context,
	email string,
) (int, error) {
	query := `SELECT COUNT(*) FROM invitations WHERE email = $1`

	var count int
	if err := r.db.GetContext(ctx, &count, query, email); err != nil {
		return 0, fmt.Errorf("count invitations: %w", err)
	}

	return count, nil
}

func (r *repository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM invitations WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete invitation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete invitation: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("delete invitation: %w", core.ErrNotFound)
	}

	return nil
}

func (r *repository) Transition(
	ctx context.Context,
	id string,
	from, to Status,
) error {
	query := `
		UPDATE invitations
		SET status = $3, updated_at = NOW()
		WHERE id = $1 AND status = $2`

	result, err := r.db.ExecContext(ctx, query, id, from, to)
	if err != nil {
		return fmt.Errorf("transition invitation: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition invitation: %w", err)
	}

	if rows == 0 {
		return fmt.Errorf("transition invitation: %w", core.ErrConflict)
	}

	return nil
}

func (r *repository) List(
	ctx context.Context,
	params ListInvitationsParams,
) ([]Invitation, int, error) {
	params.Normalize()

	var conditions []string
	var args []any
	argIdx := 1

	if params.Status != "" {
		conditions = append(conditions, fmt.Sprintf("status = $%d", argIdx))
		args = append(args, params.Status)
		argIdx++
	}

	whereClause := "TRUE"
	if len(conditions) > 0 {
		whereClause = strings.Join(conditions, " AND ")
	}

	countQuery := fmt.Sprintf(
		"SELECT COUNT(*) FROM invitations WHERE %s",
		whereClause,
	)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count invitations: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, email, name, role, message, token, status,
		       expires_at, created_at, updated_at
		FROM invitations
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d`,
		whereClause, argIdx, argIdx+1)

	args = append(args, params.PageSize, params.Offset())

	var invs []Invitation
	if err := r.db.SelectContext(ctx, &invs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list invitations: %w", err)
	}

	return invs, total, nil
}
