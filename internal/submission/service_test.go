// AngelaMos | 2026
// service_test.go

package submission

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"

	"github.com/brightclass/backend/internal/achievement"
	"github.com/brightclass/backend/internal/core"
)

type fakeRepo struct {
	subs map[string]*Submission
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{subs: make(map[string]*Submission)}
}

func (r *fakeRepo) Create(ctx context.Context, sub *Submission) error {
	stored := *sub
	r.subs[sub.ID] = &stored
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*Submission, error) {
	sub, ok := r.subs[id]
	if !ok {
		return nil, fmt.Errorf("get submission: %w", core.ErrNotFound)
	}
	out := *sub
	return &out, nil
}

func (r *fakeRepo) SetScore(ctx context.Context, id string, score float64, gradedBy string) error {
	sub, ok := r.subs[id]
	if !ok {
		return fmt.Errorf("grade submission: %w", core.ErrNotFound)
	}
	sub.Score = &score
	sub.GradedBy = &gradedBy
	return nil
}

func (r *fakeRepo) ListForUser(ctx context.Context, userID string, limit, offset int) ([]Submission, int, error) {
	var out []Submission
	for _, sub := range r.subs {
		if sub.UserID == userID {
			out = append(out, *sub)
		}
	}
	return out, len(out), nil
}

func (r *fakeRepo) ScoresForUser(ctx context.Context, userID string) ([]float64, error) {
	var scores []float64
	for _, sub := range r.subs {
		if sub.UserID != userID {
			continue
		}
		if sub.Score != nil {
			scores = append(scores, *sub.Score)
		} else {
			scores = append(scores, 0)
		}
	}
	return scores, nil
}

type fakeAchStore struct {
	records map[string]*achievement.StudentAchievement
}

func newFakeAchStore() *fakeAchStore {
	return &fakeAchStore{
		records: make(map[string]*achievement.StudentAchievement),
	}
}

func (s *fakeAchStore) Get(ctx context.Context, userID string) (*achievement.StudentAchievement, error) {
	ach, ok := s.records[userID]
	if !ok {
		return nil, fmt.Errorf("get achievement: %w", core.ErrNotFound)
	}
	out := *ach
	return &out, nil
}

func (s *fakeAchStore) EnsureExists(ctx context.Context, userID string) error {
	if _, ok := s.records[userID]; !ok {
		s.records[userID] = &achievement.StudentAchievement{
			UserID:        userID,
			UnlockedTiers: achievement.TierList{},
		}
	}
	return nil
}

func (s *fakeAchStore) GetForUpdate(ctx context.Context, userID string) (*achievement.StudentAchievement, error) {
	return s.Get(ctx, userID)
}

func (s *fakeAchStore) Save(ctx context.Context, ach *achievement.StudentAchievement) error {
	stored := *ach
	s.records[ach.UserID] = &stored
	return nil
}

func (s *fakeAchStore) InTx(ctx context.Context, fn func(achievement.Repository) error) error {
	return fn(s)
}

func newTestService(repo *fakeRepo) (*Service, *fakeAchStore) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	achStore := newFakeAchStore()
	achSvc := achievement.NewService(
		achStore,
		repo,
		achievement.DefaultTiers,
		logger,
	)
	return NewService(repo, achSvc, logger), achStore
}

func floatPtr(v float64) *float64 { return &v }

func TestSubmitScoredTriggersRecompute(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	sub, ach, err := svc.Submit(context.Background(), "u1", CreateSubmissionRequest{
		Title:   "Essay",
		Content: "words",
		Score:   floatPtr(60),
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.ID == "" {
		t.Fatal("expected a submission id")
	}
	if ach == nil {
		t.Fatal("scored submission must return the refreshed achievement")
	}
	if ach.TotalScore != 60 {
		t.Fatalf("expected total 60, got %v", ach.TotalScore)
	}
	if ach.CurrentTier != "bronze" {
		t.Fatalf("expected bronze, got %s", ach.CurrentTier)
	}
}

func TestSubmitUngradedSkipsRecompute(t *testing.T) {
	repo := newFakeRepo()
	svc, achStore := newTestService(repo)

	sub, ach, err := svc.Submit(context.Background(), "u1", CreateSubmissionRequest{
		Title:   "Draft",
		Content: "wip",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if sub.Graded() {
		t.Fatal("submission must be ungraded")
	}
	if ach != nil {
		t.Fatal("ungraded submission must not recompute")
	}
	if len(achStore.records) != 0 {
		t.Fatal("no achievement record should exist yet")
	}
}

func TestGradeRecomputesForSubmitter(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	sub, _, err := svc.Submit(context.Background(), "u1", CreateSubmissionRequest{
		Title:   "Draft",
		Content: "wip",
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	graded, ach, err := svc.Grade(context.Background(), sub.ID, 120, "teacher-1")
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if graded.Score == nil || *graded.Score != 120 {
		t.Fatalf("expected score 120, got %v", graded.Score)
	}
	if graded.GradedBy == nil || *graded.GradedBy != "teacher-1" {
		t.Fatal("grader must be recorded")
	}
	if ach.UserID != "u1" {
		t.Fatalf("recompute must target the submitter, got %s", ach.UserID)
	}
	if ach.CurrentTier != "silver" {
		t.Fatalf("expected silver at 120, got %s", ach.CurrentTier)
	}
}

func TestGradeCorrectionKeepsUnlockedTiers(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	sub, _, err := svc.Submit(context.Background(), "u1", CreateSubmissionRequest{
		Title:   "Essay",
		Content: "words",
		Score:   floatPtr(120),
	})
	if err != nil {
		t.Fatalf("submit: %v", err)
	}

	_, ach, err := svc.Grade(context.Background(), sub.ID, 60, "teacher-1")
	if err != nil {
		t.Fatalf("grade: %v", err)
	}
	if ach.TotalScore != 60 {
		t.Fatalf("expected corrected total 60, got %v", ach.TotalScore)
	}
	if ach.CurrentTier != "bronze" {
		t.Fatalf("expected bronze after correction, got %s", ach.CurrentTier)
	}
	if !ach.UnlockedTiers.Contains("silver") {
		t.Fatal("silver unlock must survive the downward correction")
	}
}

func TestGradeUnknownSubmission(t *testing.T) {
	repo := newFakeRepo()
	svc, _ := newTestService(repo)

	_, _, err := svc.Grade(context.Background(), "missing", 50, "teacher-1")
	if err == nil {
		t.Fatal("expected an error")
	}
}
