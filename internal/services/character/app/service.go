// Package app implements the character service use cases.
package app

import (
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/questforge/questforge/internal/platform/errors"
	"github.com/questforge/questforge/internal/platform/id"
	"github.com/questforge/questforge/internal/services/character/sheet"
	"github.com/questforge/questforge/internal/services/character/storage"
)

// Service implements character management.
type Service struct {
	store  storage.Store
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

// NewService wires a character service.
func NewService(store storage.Store, logger *zap.Logger, opts ...Option) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("storage is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{
		store:  store,
		logger: logger,
		now:    time.Now,
		newID:  id.NewID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func characterFromRecord(record storage.CharacterRecord) sheet.Character {
	return sheet.Character{
		ID:      record.ID,
		OwnerID: record.OwnerID,
		Name:    record.Name,
		Stats: sheet.Stats{
			Strength:     record.Strength,
			Dexterity:    record.Dexterity,
			Intelligence: record.Intelligence,
			Charisma:     record.Charisma,
		},
		PersonalityTraits: record.PersonalityTraits,
		Skills:            record.Skills,
		Inventory:         record.Inventory,
		Version:           record.Version,
		IsTemplate:        record.IsTemplate,
		IsPublic:          record.IsPublic,
		ExperiencePoints:  record.ExperiencePoints,
		CharacterLevel:    record.CharacterLevel,
		CreatedAt:         record.CreatedAt,
		UpdatedAt:         record.UpdatedAt,
	}
}

func recordFromCharacter(character sheet.Character) storage.CharacterRecord {
	return storage.CharacterRecord{
		ID:                character.ID,
		OwnerID:           character.OwnerID,
		Name:              character.Name,
		Strength:          character.Stats.Strength,
		Dexterity:         character.Stats.Dexterity,
		Intelligence:      character.Stats.Intelligence,
		Charisma:          character.Stats.Charisma,
		PersonalityTraits: character.PersonalityTraits,
		Skills:            character.Skills,
		Inventory:         character.Inventory,
		Version:           character.Version,
		IsTemplate:        character.IsTemplate,
		IsPublic:          character.IsPublic,
		ExperiencePoints:  character.ExperiencePoints,
		CharacterLevel:    character.CharacterLevel,
		CreatedAt:         character.CreatedAt,
		UpdatedAt:         character.UpdatedAt,
	}
}

// snapshotState is the JSON blob stored in character_versions.
type snapshotState struct {
	Name              string      `json:"name"`
	Stats             sheet.Stats `json:"stats"`
	PersonalityTraits string      `json:"personality_traits"`
	Skills            string      `json:"skills"`
	Inventory         string      `json:"inventory"`
	Version           int         `json:"version"`
	IsTemplate        bool        `json:"is_template"`
	IsPublic          bool        `json:"is_public"`
	ExperiencePoints  int         `json:"experience_points"`
	CharacterLevel    int         `json:"character_level"`
}

func snapshotOf(character sheet.Character) ([]byte, error) {
	payload, err := json.Marshal(snapshotState{
		Name:              character.Name,
		Stats:             character.Stats,
		PersonalityTraits: character.PersonalityTraits,
		Skills:            character.Skills,
		Inventory:         character.Inventory,
		Version:           character.Version,
		IsTemplate:        character.IsTemplate,
		IsPublic:          character.IsPublic,
		ExperiencePoints:  character.ExperiencePoints,
		CharacterLevel:    character.CharacterLevel,
	})
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "marshal character snapshot", err)
	}
	return payload, nil
}
