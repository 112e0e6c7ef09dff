// AngelaMos | 2026
// tier_test.go

package achievement

import (
	"testing"
)

func TestTierTableFor(t *testing.T) {
	tests := []struct {
		total float64
		want  string
	}{
		{0, "novice"},
		{49.9, "novice"},
		{50, "bronze"},
		{75, "bronze"},
		{100, "silver"},
		{105, "silver"},
		{249.99, "silver"},
		{250, "gold"},
		{999, "platinum"},
		{1000, "diamond"},
		{50000, "diamond"},
	}

	for _, tt := range tests {
		if got := DefaultTiers.For(tt.total).Name; got != tt.want {
			t.Errorf("For(%v) = %s, want %s", tt.total, got, tt.want)
		}
	}
}

func TestTierTableForThresholdTie(t *testing.T) {
	table := TierTable{
		{Name: "a", Threshold: 10},
		{Name: "b", Threshold: 10},
	}

	// Ties resolve to the later entry.
	if got := table.For(10).Name; got != "b" {
		t.Fatalf("expected b, got %s", got)
	}
}

func TestTierTableForBelowAllThresholds(t *testing.T) {
	table := TierTable{
		{Name: "floor", Threshold: 100},
	}

	if got := table.For(5).Name; got != "floor" {
		t.Fatalf("expected fallback to first tier, got %s", got)
	}
}

func TestTierListAppend(t *testing.T) {
	list := TierList{"bronze"}

	grown := list.Append("silver")
	if len(grown) != 2 || grown[1] != "silver" {
		t.Fatalf("expected [bronze silver], got %v", grown)
	}

	same := grown.Append("bronze")
	if len(same) != 2 {
		t.Fatalf("duplicate append must be a no-op, got %v", same)
	}

	if len(list) != 1 {
		t.Fatal("Append must not mutate the receiver")
	}
}
