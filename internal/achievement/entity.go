// AngelaMos | 2026
// entity.go

package achievement

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"slices"
	"time"
)

// TierList is the append-only record of every tier a student has ever
// reached, in unlock order. It is stored as a jsonb column; this type
// is the single place the serialization boundary lives.
type TierList []string

func (t TierList) Contains(name string) bool {
	return slices.Contains(t, name)
}

// Append returns the list with name added iff absent. The receiver is
// never mutated.
func (t TierList) Append(name string) TierList {
	if t.Contains(name) {
		return t
	}
	out := make(TierList, len(t), len(t)+1)
	copy(out, t)
	return append(out, name)
}

func (t TierList) Value() (driver.Value, error) {
	if t == nil {
		t = TierList{}
	}
	return json.Marshal(t)
}

func (t *TierList) Scan(src any) error {
	switch v := src.(type) {
	case []byte:
		return json.Unmarshal(v, t)
	case string:
		return json.Unmarshal([]byte(v), t)
	case nil:
		*t = TierList{}
		return nil
	default:
		return fmt.Errorf("scan tier list: unsupported type %T", src)
	}
}

// StudentAchievement is the derived per-student score record. TotalScore
// is recomputed from the full submission history on every update, never
// incremented, so it cannot drift from the source of truth.
type StudentAchievement struct {
	UserID        string   `db:"user_id"`
	TotalScore    float64  `db:"total_score"`
	CurrentTier   string   `db:"current_tier"`
	UnlockedTiers TierList `db:"unlocked_tiers"`

	CreatedAt time.Time `db:"created_at"`
	UpdatedAt time.Time `db:"updated_at"`
}
