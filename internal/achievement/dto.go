// AngelaMos | 2026
// dto.go

package achievement

import (
	"time"
)

type AchievementResponse struct {
	UserID        string    `json:"user_id"`
	TotalScore    float64   `json:"total_score"`
	CurrentTier   string    `json:"current_tier"`
	UnlockedTiers []string  `json:"unlocked_tiers"`
	UpdatedAt     time.Time `json:"updated_at"`
}

type TiersResponse struct {
	Tiers []Tier `json:"tiers"`
}

func ToAchievementResponse(ach *StudentAchievement) AchievementResponse {
	return AchievementResponse{
		UserID:        ach.UserID,
		TotalScore:    ach.TotalScore,
		CurrentTier:   ach.CurrentTier,
		UnlockedTiers: ach.UnlockedTiers,
		UpdatedAt:     ach.UpdatedAt,
	}
}
