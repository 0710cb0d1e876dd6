package profiles_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/ItsMeAK-GitH/SkillSwap/internal/profiles"
)

// ── Stub repo ─────────────────────────────────────────────────────────────

type stubProfileRepo struct {
	mu      sync.RWMutex
	byID    map[string]*profiles.UserProfile
	byEmail map[string]string
}

func newStubProfileRepo() *stubProfileRepo {
	return &stubProfileRepo{
		byID:    make(map[string]*profiles.UserProfile),
		byEmail: make(map[string]string),
	}
}

func (r *stubProfileRepo) Create(_ context.Context, p *profiles.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[p.Email]; exists {
		return profiles.ErrDuplicateEmail
	}
	now := time.Now()
	p.CreatedAt = now
	p.UpdatedAt = now
	cp := *p
	r.byID[p.ID] = &cp
	r.byEmail[p.Email] = p.ID
	return nil
}

func (r *stubProfileRepo) GetByID(_ context.Context, id string) (*profiles.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.byID[id]
	if !ok {
		return nil, profiles.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *stubProfileRepo) GetByEmail(_ context.Context, email string) (*profiles.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byEmail[email]
	if !ok {
		return nil, profiles.ErrNotFound
	}
	cp := *r.byID[id]
	return &cp, nil
}

func (r *stubProfileRepo) List(_ context.Context) ([]*profiles.UserProfile, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*profiles.UserProfile, 0, len(r.byID))
	for _, p := range r.byID {
		cp := *p
		out = append(out, &cp)
	}
	return out, nil
}

func (r *stubProfileRepo) SetTeachSkills(_ context.Context, userID string, skills []profiles.TeachSkill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[userID]
	if !ok {
		return profiles.ErrNotFound
	}
	p.SkillsToTeach = skills
	return nil
}

func (r *stubProfileRepo) SetLearnSkills(_ context.Context, userID string, skills []profiles.LearnSkill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[userID]
	if !ok {
		return profiles.ErrNotFound
	}
	p.SkillsToLearn = skills
	return nil
}

func (r *stubProfileRepo) SetTeachSkillVerified(_ context.Context, userID, skillName string, verified bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[userID]
	if !ok {
		return profiles.ErrNotFound
	}
	for i := range p.SkillsToTeach {
		if p.SkillsToTeach[i].Name == skillName {
			p.SkillsToTeach[i].Verified = verified
			return nil
		}
	}
	return profiles.ErrNotFound
}

func (r *stubProfileRepo) SetOnboardingCompleted(_ context.Context, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.byID[userID]
	if !ok {
		return profiles.ErrNotFound
	}
	p.OnboardingCompleted = true
	return nil
}

// ── Tests ─────────────────────────────────────────────────────────────────

func newTestService(t *testing.T) (*profiles.Service, *stubProfileRepo) {
	t.Helper()
	repo := newStubProfileRepo()
	return profiles.NewService(repo, zap.NewNop()), repo
}

func TestCreateNormalizesEmail(t *testing.T) {
	svc, _ := newTestService(t)

	p, err := svc.Create(context.Background(), "Ada", "  Ada@Example.COM ", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if p.Email != "ada@example.com" {
		t.Errorf("email = %q, want normalized form", p.Email)
	}
	if p.ID == "" {
		t.Error("expected a generated ID")
	}
}

func TestGetOrCreateIsIdempotentPerEmail(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, created, err := svc.GetOrCreate(ctx, "Ada", "ada@example.com", "")
	if err != nil || !created {
		t.Fatalf("first GetOrCreate: created=%v err=%v", created, err)
	}
	second, created, err := svc.GetOrCreate(ctx, "Ada Again", "ADA@example.com", "")
	if err != nil {
		t.Fatalf("second GetOrCreate: %v", err)
	}
	if created {
		t.Error("second call should not create a new profile")
	}
	if second.ID != first.ID {
		t.Errorf("expected same profile, got %s and %s", first.ID, second.ID)
	}
}

func TestAddSkillCaseInsensitiveUniqueness(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, "Ada", "ada@example.com", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := svc.AddTeachSkill(ctx, p.ID, "Python"); err != nil {
		t.Fatalf("AddTeachSkill: %v", err)
	}
	if _, err := svc.AddTeachSkill(ctx, p.ID, "python"); err != nil {
		t.Fatalf("duplicate AddTeachSkill: %v", err)
	}

	got, err := svc.GetByID(ctx, p.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if len(got.SkillsToTeach) != 1 {
		t.Fatalf("expected 1 teach skill, got %d", len(got.SkillsToTeach))
	}
	if got.SkillsToTeach[0].Name != "Python" {
		t.Errorf("expected original casing preserved, got %q", got.SkillsToTeach[0].Name)
	}
}

func TestAddSkillRejectsEmptyName(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, "Ada", "ada@example.com", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	for _, name := range []string{"", "   ", "\t"} {
		if _, err := svc.AddLearnSkill(ctx, p.ID, name); !errors.Is(err, profiles.ErrEmptySkill) {
			t.Errorf("AddLearnSkill(%q) = %v, want ErrEmptySkill", name, err)
		}
	}
}

func TestRemoveSkillIsNoOpWhenMissing(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, "Ada", "ada@example.com", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.AddLearnSkill(ctx, p.ID, "Rust"); err != nil {
		t.Fatalf("AddLearnSkill: %v", err)
	}

	got, err := svc.RemoveLearnSkill(ctx, p.ID, "Go")
	if err != nil {
		t.Fatalf("RemoveLearnSkill: %v", err)
	}
	if len(got.SkillsToLearn) != 1 {
		t.Errorf("expected untouched list, got %d entries", len(got.SkillsToLearn))
	}

	got, err = svc.RemoveLearnSkill(ctx, p.ID, "RUST")
	if err != nil {
		t.Fatalf("RemoveLearnSkill: %v", err)
	}
	if len(got.SkillsToLearn) != 0 {
		t.Errorf("expected case-insensitive removal, got %d entries", len(got.SkillsToLearn))
	}
}

func TestMarkSkillVerified(t *testing.T) {
	svc, repo := newTestService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, "Ada", "ada@example.com", "", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := svc.AddTeachSkill(ctx, p.ID, "Go"); err != nil {
		t.Fatalf("AddTeachSkill: %v", err)
	}

	if err := svc.MarkSkillVerified(ctx, p.ID, "go"); err != nil {
		t.Fatalf("MarkSkillVerified: %v", err)
	}
	got, _ := repo.GetByID(ctx, p.ID)
	if !got.SkillsToTeach[0].Verified {
		t.Error("expected skill to be verified")
	}

	// Verifying again is a no-op.
	if err := svc.MarkSkillVerified(ctx, p.ID, "Go"); err != nil {
		t.Fatalf("repeat MarkSkillVerified: %v", err)
	}

	if err := svc.MarkSkillVerified(ctx, p.ID, "Haskell"); !errors.Is(err, profiles.ErrNotFound) {
		t.Errorf("MarkSkillVerified(unknown) = %v, want ErrNotFound", err)
	}
}
