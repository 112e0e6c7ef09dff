// AngelaMos | 2026
// dto.go

package submission

import (
	"time"

	"github.com/brightclass/backend/internal/achievement"
)

type CreateSubmissionRequest struct {
	Title   string   `json:"title"   validate:"required,min=1,max=200"`
	Content string   `json:"content" validate:"required,max=50000"`
	Score   *float64 `json:"score,omitempty" validate:"omitempty,gte=0"`
}

type GradeSubmissionRequest struct {
	Score float64 `json:"score" validate:"gte=0"`
}

type SubmissionResponse struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Score     *float64  `json:"score,omitempty"`
	GradedBy  *string   `json:"graded_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SubmittedResponse pairs the stored submission with the achievement
// record refreshed by it, so the client can show the new tier without a
// second round trip.
type SubmittedResponse struct {
	Submission  SubmissionResponse               `json:"submission"`
	Achievement *achievement.AchievementResponse `json:"achievement,omitempty"`
}

func ToSubmissionResponse(sub *Submission) SubmissionResponse {
	return SubmissionResponse{
		ID:        sub.ID,
		UserID:    sub.UserID,
		Title:     sub.Title,
		Content:   sub.Content,
		Score:     sub.Score,
		GradedBy:  sub.GradedBy,
		CreatedAt: sub.CreatedAt,
		UpdatedAt: sub.UpdatedAt,
	}
}

func ToSubmissionResponseList(subs []Submission) []SubmissionResponse {
	responses := make([]SubmissionResponse, 0, len(subs))
	for _, sub := range subs {
		responses = append(responses, ToSubmissionResponse(&sub))
	}
	return responses
}
