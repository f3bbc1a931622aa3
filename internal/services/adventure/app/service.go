// Package app implements the adventure service use cases.
package app

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/questforge/questforge/internal/platform/id"
	"github.com/questforge/questforge/internal/services/adventure/gm"
	"github.com/questforge/questforge/internal/services/adventure/media"
	"github.com/questforge/questforge/internal/services/adventure/state"
	charapp "github.com/questforge/questforge/internal/services/character/app"
)

// Service runs adventures: generation, action resolution, and
// completion rewards.
type Service struct {
	characters *charapp.Service
	gm         gm.Client
	media      *media.Generator
	sessions   state.Store
	logger     *zap.Logger
	now        func() time.Time
	newID      func() string
	seed       func() int64
}

// Option customizes service construction.
type Option func(*Service)

// WithClock overrides the service clock.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides the adventure ID generator.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithSeed overrides the dice and reward seed source.
func WithSeed(seed func() int64) Option {
	return func(s *Service) { s.seed = seed }
}

// NewService wires an adventure service. The media generator may be
// disabled; the GM client and session store are required.
func NewService(characters *charapp.Service, gmClient gm.Client, generator *media.Generator, sessions state.Store, logger *zap.Logger, opts ...Option) (*Service, error) {
	if characters == nil {
		return nil, fmt.Errorf("character service is required")
	}
	if gmClient == nil {
		return nil, fmt.Errorf("gm client is required")
	}
	if sessions == nil {
		return nil, fmt.Errorf("session store is required")
	}
	if generator == nil {
		generator = media.NewGenerator(media.Config{})
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		characters: characters,
		gm:         gmClient,
		media:      generator,
		sessions:   sessions,
		logger:     logger,
		now:        time.Now,
		newID:      id.NewID,
	}
	s.seed = func() int64 { return s.now().UnixNano() }
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}
