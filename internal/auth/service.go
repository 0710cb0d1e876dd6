package auth

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/ItsMeAK-GitH/SkillSwap/internal/profiles"
)

var (
	// ErrInvalidCredentials is returned for any failed login. It never
	// reveals whether the email exists.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrWeakPassword is returned when a signup password is too short.
	ErrWeakPassword = errors.New("password must be at least 8 characters")
)

// profileSvc is the profile surface consumed by Service, satisfied by
// *profiles.Service.
type profileSvc interface {
	Create(ctx context.Context, name, email, photoURL, passwordHash string) (*profiles.UserProfile, error)
	GetByEmail(ctx context.Context, email string) (*profiles.UserProfile, error)
	GetOrCreate(ctx context.Context, name, email, photoURL string) (*profiles.UserProfile, bool, error)
}

// Service implements signup and login on top of the profile store.
type Service struct {
	profiles profileSvc
	logger   *zap.Logger
}

func NewService(profiles profileSvc, logger *zap.Logger) *Service {
	return &Service{profiles: profiles, logger: logger}
}

// Signup registers a new email/password account.
func (s *Service) Signup(ctx context.Context, name, email, password string) (*profiles.UserProfile, error) {
	if len(password) < 8 {
		return nil, ErrWeakPassword
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	p, err := s.profiles.Create(ctx, name, email, "", string(hash))
	if err != nil {
		return nil, err
	}
	s.logger.Info("user signed up", zap.String("user_id", p.ID))
	return p, nil
}

// Login authenticates an email/password account.
func (s *Service) Login(ctx context.Context, email, password string) (*profiles.UserProfile, error) {
	p, err := s.profiles.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, profiles.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	// OAuth-only accounts carry no password hash.
	if p.PasswordHash == "" {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return p, nil
}

// LoginOAuth resolves an OAuth identity to a profile, creating one on
// first login. Returns true if the profile was created.
func (s *Service) LoginOAuth(ctx context.Context, name, email, photoURL string) (*profiles.UserProfile, bool, error) {
	return s.profiles.GetOrCreate(ctx, name, email, photoURL)
}
