// AngelaMos | 2026
// service_test.go

package achievement

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"testing"

	"github.com/brightclass/backend/internal/core"
)

type fakeStore struct {
	records map[string]*StudentAchievement
}

func newFakeStore() *fakeStore {
	return &fakeStore{records: make(map[string]*StudentAchievement)}
}

func (s *fakeStore) Get(ctx context.Context, userID string) (*StudentAchievement, error) {
	ach, ok := s.records[userID]
	if !ok {
		return nil, fmt.Errorf("get achievement: %w", core.ErrNotFound)
	}
	out := *ach
	return &out, nil
}

func (s *fakeStore) EnsureExists(ctx context.Context, userID string) error {
	if _, ok := s.records[userID]; !ok {
		s.records[userID] = &StudentAchievement{
			UserID:        userID,
			UnlockedTiers: TierList{},
		}
	}
	return nil
}

func (s *fakeStore) GetForUpdate(ctx context.Context, userID string) (*StudentAchievement, error) {
	return s.Get(ctx, userID)
}

func (s *fakeStore) Save(ctx context.Context, ach *StudentAchievement) error {
	stored := *ach
	s.records[ach.UserID] = &stored
	return nil
}

func (s *fakeStore) InTx(ctx context.Context, fn func(Repository) error) error {
	return fn(s)
}

type fakeScores map[string][]float64

func (f fakeScores) ScoresForUser(ctx context.Context, userID string) ([]float64, error) {
	return f[userID], nil
}

func newTestService(store *fakeStore, scores fakeScores) *Service {
	return NewService(
		store,
		scores,
		DefaultTiers,
		slog.New(slog.NewTextHandler(io.Discard, nil)),
	)
}

func TestRecomputeFirstRecord(t *testing.T) {
	store := newFakeStore()
	scores := fakeScores{"u1": {40, 35}}
	svc := newTestService(store, scores)

	ach, err := svc.Recompute(context.Background(), "u1")
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}

	if ach.TotalScore != 75 {
		t.Fatalf("expected total 75, got %v", ach.TotalScore)
	}
	if ach.CurrentTier != "bronze" {
		t.Fatalf("expected bronze, got %s", ach.CurrentTier)
	}
	if len(ach.UnlockedTiers) != 1 || ach.UnlockedTiers[0] != "bronze" {
		t.Fatalf("expected unlocked [bronze], got %v", ach.UnlockedTiers)
	}
}

func TestRecomputeUnionsTiers(t *testing.T) {
	store := newFakeStore()
	scores := fakeScores{"u1": {40, 35}}
	svc := newTestService(store, scores)

	if _, err := svc.Recompute(context.Background(), "u1"); err != nil {
		t.Fatalf("first recompute: %v", err)
	}

	scores["u1"] = append(scores["u1"], 30)

	ach, err := svc.Recompute(context.Background(), "u1")
	if err != nil {
		t.Fatalf("second recompute: %v", err)
	}

	if ach.TotalScore != 105 {
		t.Fatalf("expected total 105, got %v", ach.TotalScore)
	}
	if ach.CurrentTier != "silver" {
		t.Fatalf("expected silver, got %s", ach.CurrentTier)
	}
	if !slices.Equal(ach.UnlockedTiers, TierList{"bronze", "silver"}) {
		t.Fatalf("expected [bronze silver], got %v", ach.UnlockedTiers)
	}
}

func TestRecomputeScoreCorrectionKeepsUnlocks(t *testing.T) {
	store := newFakeStore()
	scores := fakeScores{"u1": {60, 60}}
	svc := newTestService(store, scores)

	if _, err := svc.Recompute(context.Background(), "u1"); err != nil {
		t.Fatalf("first recompute: %v", err)
	}

	// A correction lowers the total below the silver threshold.
	scores["u1"] = []float64{60, 10}

	ach, err := svc.Recompute(context.Background(), "u1")
	if err != nil {
		t.Fatalf("second recompute: %v", err)
	}

	if ach.TotalScore != 70 {
		t.Fatalf("expected total 70, got %v", ach.TotalScore)
	}
	if ach.CurrentTier != "bronze" {
		t.Fatalf("current tier should move down, got %s", ach.CurrentTier)
	}
	if !ach.UnlockedTiers.Contains("silver") {
		t.Fatal("historical silver unlock must be retained")
	}
	if !ach.UnlockedTiers.Contains("bronze") {
		t.Fatal("bronze must be unlocked after the correction")
	}
}

func TestRecomputeIdempotent(t *testing.T) {
	store := newFakeStore()
	scores := fakeScores{"u1": {100}}
	svc := newTestService(store, scores)

	first, err := svc.Recompute(context.Background(), "u1")
	if err != nil {
		t.Fatalf("first recompute: %v", err)
	}
	second, err := svc.Recompute(context.Background(), "u1")
	if err != nil {
		t.Fatalf("second recompute: %v", err)
	}

	if first.TotalScore != second.TotalScore {
		t.Fatal("recompute must not drift on repeat calls")
	}
	if !slices.Equal(first.UnlockedTiers, second.UnlockedTiers) {
		t.Fatalf("expected stable unlocks, got %v then %v",
			first.UnlockedTiers, second.UnlockedTiers)
	}
}

func TestRecomputeZeroSubmissions(t *testing.T) {
	store := newFakeStore()
	svc := newTestService(store, fakeScores{})

	ach, err := svc.Recompute(context.Background(), "u1")
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}

	if ach.TotalScore != 0 {
		t.Fatalf("expected total 0, got %v", ach.TotalScore)
	}
	if ach.CurrentTier != "novice" {
		t.Fatalf("expected the zero-threshold tier, got %s", ach.CurrentTier)
	}
	if !ach.UnlockedTiers.Contains("novice") {
		t.Fatal("current tier must always be in the unlocked set")
	}
}
