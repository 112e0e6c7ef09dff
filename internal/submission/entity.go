// AngelaMos | 2026
// entity.go

package submission

import (
	"time"
)

// Submission is a single piece of submitted student work. Score is nil
// until graded; ungraded submissions count as 0 toward the achievement
// total.
type Submission struct {
	ID       string   `db:"id"`
	UserID   string   `db:"user_id"`
	Title    string   `db:"title"`
	Content  string   `db:"content"`
	Score    *float64 `db:"score"`
	GradedBy *string  `db:"graded_by"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}

func (s *Submission) Graded() bool {
	return s.Score != nil
}
