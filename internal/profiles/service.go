package profiles

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ItsMeAK-GitH/SkillSwap/internal/normalize"
)

// ErrEmptySkill is returned when a skill name is empty or whitespace-only.
// Rejected before any store I/O.
var ErrEmptySkill = errors.New("skill name must not be empty")

// profileRepo is the storage interface consumed by Service.
type profileRepo interface {
	Create(ctx context.Context, p *UserProfile) error
	GetByID(ctx context.Context, id string) (*UserProfile, error)
	GetByEmail(ctx context.Context, email string) (*UserProfile, error)
	List(ctx context.Context) ([]*UserProfile, error)
	SetTeachSkills(ctx context.Context, userID string, skills []TeachSkill) error
	SetLearnSkills(ctx context.Context, userID string, skills []LearnSkill) error
	SetTeachSkillVerified(ctx context.Context, userID, skillName string, verified bool) error
	SetOnboardingCompleted(ctx context.Context, userID string) error
}

// Service implements business logic for user profiles and their skill lists.
type Service struct {
	repo   profileRepo
	logger *zap.Logger
}

// NewService creates a profile Service.
func NewService(repo profileRepo, logger *zap.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// Create registers a new profile with a fresh stable identifier.
// Skill lists start empty; onboarding adds the first entries.
func (s *Service) Create(ctx context.Context, name, email, photoURL, passwordHash string) (*UserProfile, error) {
	p := &UserProfile{
		ID:           uuid.NewString(),
		Name:         name,
		Email:        normalize.Email(email),
		PhotoURL:     photoURL,
		PasswordHash: passwordHash,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	s.logger.Info("profile created", zap.String("user_id", p.ID))
	return p, nil
}

// GetOrCreate returns the profile for the given email, creating it on
// first authentication. Used by the OAuth login path, where there is no
// explicit signup step. Returns true if the profile was created.
func (s *Service) GetOrCreate(ctx context.Context, name, email, photoURL string) (*UserProfile, bool, error) {
	p, err := s.repo.GetByEmail(ctx, normalize.Email(email))
	if err == nil {
		return p, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}
	p, err = s.Create(ctx, name, email, photoURL, "")
	if err != nil {
		return nil, false, err
	}
	return p, true, nil
}

// GetByID retrieves a profile by its identifier.
func (s *Service) GetByID(ctx context.Context, id string) (*UserProfile, error) {
	return s.repo.GetByID(ctx, id)
}

// GetByEmail retrieves a profile by email address.
func (s *Service) GetByEmail(ctx context.Context, email string) (*UserProfile, error) {
	return s.repo.GetByEmail(ctx, normalize.Email(email))
}

// List returns the community roster.
func (s *Service) List(ctx context.Context) ([]*UserProfile, error) {
	return s.repo.List(ctx)
}

// AddTeachSkill appends a skill to the user's teach list. Adding a name
// already present under case-insensitive comparison is a no-op.
func (s *Service) AddTeachSkill(ctx context.Context, userID, name string) (*UserProfile, error) {
	if normalize.Skill(name) == "" {
		return nil, ErrEmptySkill
	}
	p, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, sk := range p.SkillsToTeach {
		if normalize.Skill(sk.Name) == normalize.Skill(name) {
			return p, nil
		}
	}
	p.SkillsToTeach = append(p.SkillsToTeach, TeachSkill{Name: trimmed(name)})
	if err := s.repo.SetTeachSkills(ctx, userID, p.SkillsToTeach); err != nil {
		return nil, err
	}
	return p, nil
}

// AddLearnSkill appends a skill to the user's learn list with the same
// uniqueness rule as AddTeachSkill.
func (s *Service) AddLearnSkill(ctx context.Context, userID, name string) (*UserProfile, error) {
	if normalize.Skill(name) == "" {
		return nil, ErrEmptySkill
	}
	p, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	for _, sk := range p.SkillsToLearn {
		if normalize.Skill(sk.Name) == normalize.Skill(name) {
			return p, nil
		}
	}
	p.SkillsToLearn = append(p.SkillsToLearn, LearnSkill{Name: trimmed(name)})
	if err := s.repo.SetLearnSkills(ctx, userID, p.SkillsToLearn); err != nil {
		return nil, err
	}
	return p, nil
}

// RemoveTeachSkill deletes a skill from the teach list. Removing a name
// that is not present is a no-op.
func (s *Service) RemoveTeachSkill(ctx context.Context, userID, name string) (*UserProfile, error) {
	p, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	kept := p.SkillsToTeach[:0]
	for _, sk := range p.SkillsToTeach {
		if normalize.Skill(sk.Name) != normalize.Skill(name) {
			kept = append(kept, sk)
		}
	}
	if len(kept) == len(p.SkillsToTeach) {
		return p, nil
	}
	p.SkillsToTeach = kept
	if err := s.repo.SetTeachSkills(ctx, userID, p.SkillsToTeach); err != nil {
		return nil, err
	}
	return p, nil
}

// RemoveLearnSkill deletes a skill from the learn list.
func (s *Service) RemoveLearnSkill(ctx context.Context, userID, name string) (*UserProfile, error) {
	p, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	kept := p.SkillsToLearn[:0]
	for _, sk := range p.SkillsToLearn {
		if normalize.Skill(sk.Name) != normalize.Skill(name) {
			kept = append(kept, sk)
		}
	}
	if len(kept) == len(p.SkillsToLearn) {
		return p, nil
	}
	p.SkillsToLearn = kept
	if err := s.repo.SetLearnSkills(ctx, userID, p.SkillsToLearn); err != nil {
		return nil, err
	}
	return p, nil
}

// MarkSkillVerified sets the verified flag on a teach skill after its
// certificate passed verification. The lookup is case-insensitive; the
// stored casing is what gets updated.
func (s *Service) MarkSkillVerified(ctx context.Context, userID, skillName string) error {
	p, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	for _, sk := range p.SkillsToTeach {
		if normalize.Skill(sk.Name) == normalize.Skill(skillName) {
			if sk.Verified {
				return nil
			}
			return s.repo.SetTeachSkillVerified(ctx, userID, sk.Name, true)
		}
	}
	return fmt.Errorf("%w: skill %q not on teach list", ErrNotFound, skillName)
}

// CompleteOnboarding marks the user's onboarding as finished.
func (s *Service) CompleteOnboarding(ctx context.Context, userID string) error {
	return s.repo.SetOnboardingCompleted(ctx, userID)
}

// trimmed keeps the user's display casing but drops surrounding whitespace.
func trimmed(s string) string {
	return strings.TrimSpace(s)
}
