// Package app implements the auth service use cases on top of the
// storage and token layers.
package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/questforge/questforge/internal/platform/id"
	"github.com/questforge/questforge/internal/services/auth/password"
	"github.com/questforge/questforge/internal/services/auth/storage"
	"github.com/questforge/questforge/internal/services/auth/token"
)

const (
	maxFailedLogins = 5
	lockoutDuration = 15 * time.Minute
	refreshTTL      = 7 * 24 * time.Hour
	resetTokenTTL   = time.Hour
)

// Service implements registration, login, session and profile flows.
type Service struct {
	store  storage.Store
	tokens *token.Service
	policy password.Policy
	logger *zap.Logger
	now    func() time.Time
	newID  func() string
}

// Option customizes service construction.
type Option func(*Service)

// WithClock overrides the service clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides the record ID generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// NewService wires an auth service.
func NewService(store storage.Store, tokens *token.Service, policy password.Policy, logger *zap.Logger, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if tokens == nil {
		return nil, fmt.Errorf("token service is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:  store,
		tokens: tokens,
		policy: policy,
		logger: logger,
		now:    time.Now,
		newID:  id.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// PasswordPolicy returns the active password policy.
func (s *Service) PasswordPolicy() password.Policy {
	return s.policy
}

// Session is the credential pair issued on login and refresh.
type Session struct {
	AccessToken      string
	AccessExpiresAt  time.Time
	RefreshToken     string
	RefreshExpiresAt time.Time
}
