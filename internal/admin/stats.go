// AngelaMos | 2026
// stats.go

package admin

import (
	"context"
	"fmt"

	"github.com/brightclass/backend/internal/core"
)

type statsRepository struct {
	db core.DBTX
}

func NewStatsSource(db core.DBTX) StatsSource {
	return &statsRepository{db: db}
}

func (r *statsRepository) PlatformCounts(
	ctx context.Context,
) (PlatformCounts, error) {
	query := `
		SELECT
			(SELECT COUNT(*) FROM users WHERE deleted_at IS NULL) AS users,
			(SELECT COUNT(*) FROM invitations WHERE status = 'pending') AS pending_invitations,
			(SELECT COUNT(*) FROM invitations WHERE status = 'accepted') AS accepted_invitations,
			(SELECT COUNT(*) FROM invitations WHERE status = 'rejected') AS rejected_invitations,
			(SELECT COUNT(*) FROM submissions) AS submissions,
			(SELECT COUNT(*) FROM submissions WHERE score IS NOT NULL) AS graded_submissions`

	var counts struct {
		Users               int `db:"users"`
		PendingInvitations  int `db:"pending_invitations"`
		AcceptedInvitations int `db:"accepted_invitations"`
		RejectedInvitations int `db:"rejected_invitations"`
		Submissions         int `db:"submissions"`
		GradedSubmissions   int `db:"graded_submissions"`
	}

	if err := r.db.GetContext(ctx, &counts, query); err != nil {
		return PlatformCounts{}, fmt.Errorf("platform counts: %w", err)
	}

	return PlatformCounts{
		Users:               counts.Users,
		PendingInvitations:  counts.PendingInvitations,
		AcceptedInvitations: counts.AcceptedInvitations,
		RejectedInvitations: counts.RejectedInvitations,
		Submissions:         counts.Submissions,
		GradedSubmissions:   counts.GradedSubmissions,
	}, nil
}
