package matching

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ItsMeAK-GitH/SkillSwap/internal/aiflow"
	"github.com/ItsMeAK-GitH/SkillSwap/internal/profiles"
)

// ErrRosterUnavailable indicates the candidate roster could not be
// fetched. It is distinct from an empty match result.
var ErrRosterUnavailable = errors.New("matching: roster unavailable")

type rosterLister interface {
	List(ctx context.Context) ([]*profiles.UserProfile, error)
	GetByID(ctx context.Context, id string) (*profiles.UserProfile, error)
}

// Service finds skill-swap partners for a user.
type Service struct {
	roster  rosterLister
	gateway aiflow.Gateway
	logger  *zap.Logger
}

func NewService(roster rosterLister, gateway aiflow.Gateway, logger *zap.Logger) *Service {
	return &Service{roster: roster, gateway: gateway, logger: logger}
}

// FindMatches runs the deterministic mutual-benefit matcher for the user.
func (s *Service) FindMatches(ctx context.Context, userID string) ([]Match, error) {
	requester, err := s.roster.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, profiles.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRosterUnavailable, err)
	}
	candidates, err := s.roster.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRosterUnavailable, err)
	}
	return FindMatches(requester, candidates), nil
}

// FindMatchesAI asks the AI gateway to score matches for the user. Matches
// referencing user IDs not present in the roster are dropped.
func (s *Service) FindMatchesAI(ctx context.Context, userID string) ([]aiflow.ScoredMatch, error) {
	requester, err := s.roster.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, profiles.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", ErrRosterUnavailable, err)
	}
	candidates, err := s.roster.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRosterUnavailable, err)
	}

	known := make(map[string]struct{}, len(candidates))
	profileSkills := make([]aiflow.ProfileSkills, 0, len(candidates))
	for _, c := range candidates {
		if c.ID == requester.ID {
			continue
		}
		known[c.ID] = struct{}{}
		profileSkills = append(profileSkills, aiflow.ProfileSkills{
			UserID:        c.ID,
			Name:          c.Name,
			SkillsToTeach: teachNames(c.SkillsToTeach),
			SkillsToLearn: learnNames(c.SkillsToLearn),
		})
	}

	scored, err := s.gateway.MatchSkills(ctx, learnNames(requester.SkillsToLearn), teachNames(requester.SkillsToTeach), profileSkills)
	if err != nil {
		return nil, fmt.Errorf("ai match: %w", err)
	}

	valid := scored[:0]
	for _, m := range scored {
		if _, ok := known[m.UserID]; !ok {
			s.logger.Warn("dropping AI match for unknown user", zap.String("user_id", m.UserID))
			continue
		}
		valid = append(valid, m)
	}
	return valid, nil
}
