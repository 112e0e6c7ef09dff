// AngelaMos | 2026
// tier.go

package achievement

// Tier is a named milestone unlocked when a student's cumulative score
// crosses its threshold.
type Tier struct {
	Name      string  `json:"name"`
	Threshold float64 `json:"threshold"`
}

// TierTable is an ascending-by-threshold list of tiers. It is static
// configuration, consumed as a pure lookup.
type TierTable []Tier

// DefaultTiers is the platform tier ladder. The zero-threshold entry
// guarantees every total maps to some tier, including total=0.
var DefaultTiers = TierTable{
	{Name: "novice", Threshold: 0},
	{Name: "bronze", Threshold: 50},
	{Name: "silver", Threshold: 100},
	{Name: "gold", Threshold: 250},
	{Name: "platinum", Threshold: 500},
	{Name: "diamond", Threshold: 1000},
}

// For returns the tier with the greatest threshold <= total. Walking
// from the top means threshold ties resolve to the later (higher)
// entry. A total below every threshold falls back to the first tier.
func (t TierTable) For(total float64) Tier {
	for i := len(t) - 1; i >= 0; i-- {
		if t[i].Threshold <= total {
			return t[i]
		}
	}
	return t[0]
}
