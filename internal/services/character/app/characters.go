package app

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/questforge/questforge/internal/platform/errors"
	"github.com/questforge/questforge/internal/services/character/sheet"
	"github.com/questforge/questforge/internal/services/character/storage"
)

// CreateInput captures the character creation payload.
type CreateInput struct {
	Name              string
	Stats             sheet.Stats
	PersonalityTraits string
	Skills            string
	Inventory         string
	IsTemplate        bool
}

// Create validates creation rules and persists a new character at
// version 1 with its initial snapshot.
func (s *Service) Create(ctx context.Context, ownerID string, input CreateInput) (sheet.Character, error) {
	name, err := sheet.ValidateName(input.Name)
	if err != nil {
		return sheet.Character{}, err
	}
	if err := sheet.ValidateCreationStats(input.Stats); err != nil {
		return sheet.Character{}, err
	}

	now := s.now().UTC()
	character := sheet.Character{
		ID:                s.newID(),
		OwnerID:           ownerID,
		Name:              name,
		Stats:             input.Stats,
		PersonalityTraits: strings.TrimSpace(input.PersonalityTraits),
		Skills:            strings.TrimSpace(input.Skills),
		Inventory:         strings.TrimSpace(input.Inventory),
		Version:           1,
		IsTemplate:        input.IsTemplate,
		ExperiencePoints:  0,
		CharacterLevel:    1,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.CreateCharacter(ctx, recordFromCharacter(character)); err != nil {
		return sheet.Character{}, apperrors.Wrap(apperrors.CodeInternal, "create character", err)
	}
	if err := s.appendSnapshot(ctx, character, "character created", ownerID); err != nil {
		return sheet.Character{}, err
	}

	s.logger.Info("character created",
		zap.String("character_id", character.ID),
		zap.String("owner_id", ownerID))
	return character, nil
}

// load fetches a character, mapping missing rows to a 404 error.
func (s *Service) load(ctx context.Context, characterID string) (sheet.Character, error) {
	record, err := s.store.GetCharacter(ctx, characterID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return sheet.Character{}, apperrors.New(apperrors.CodeNotFound, "character not found")
		}
		return sheet.Character{}, apperrors.Wrap(apperrors.CodeInternal, "load character", err)
	}
	return characterFromRecord(record), nil
}

// loadOwned fetches a character the caller must own. Hidden characters
// read as 404 so existence is not leaked.
func (s *Service) loadOwned(ctx context.Context, characterID, callerID string) (sheet.Character, error) {
	character, err := s.load(ctx, characterID)
	if err != nil {
		return sheet.Character{}, err
	}
	if character.OwnerID != callerID {
		if character.IsPublic || character.IsTemplate {
			return sheet.Character{}, apperrors.New(apperrors.CodeCharacterNotOwned, "character belongs to another user")
		}
		return sheet.Character{}, apperrors.New(apperrors.CodeNotFound, "character not found")
	}
	return character, nil
}

// Get returns a character visible to the caller: owned, public, or a
// template.
func (s *Service) Get(ctx context.Context, characterID, callerID string) (sheet.Character, error) {
	character, err := s.load(ctx, characterID)
	if err != nil {
		return sheet.Character{}, err
	}
	if character.OwnerID != callerID && !character.IsPublic && !character.IsTemplate {
		return sheet.Character{}, apperrors.New(apperrors.CodeNotFound, "character not found")
	}
	return character, nil
}

// List returns the caller's characters.
func (s *Service) List(ctx context.Context, ownerID string, filter storage.SearchFilter) ([]sheet.Character, error) {
	filter.OwnerID = ownerID
	records, err := s.store.SearchCharacters(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "list characters", err)
	}
	characters := make([]sheet.Character, 0, len(records))
	for _, record := range records {
		characters = append(characters, characterFromRecord(record))
	}
	return characters, nil
}

// SearchPublic returns public characters matching the filter.
func (s *Service) SearchPublic(ctx context.Context, filter storage.SearchFilter) ([]sheet.Character, error) {
	filter.OwnerID = ""
	filter.PublicOnly = true
	records, err := s.store.SearchCharacters(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "search public characters", err)
	}
	characters := make([]sheet.Character, 0, len(records))
	for _, record := range records {
		characters = append(characters, characterFromRecord(record))
	}
	return characters, nil
}

// UpdateInput captures a character patch. Nil fields stay unchanged.
type UpdateInput struct {
	Name              *string
	Stats             *sheet.Stats
	PersonalityTraits *string
	Skills            *string
	Inventory         *string
	ExperiencePoints  *int
	CharacterLevel    *int
	ChangeDescription string
}

// Update applies a patch as a versioned mutation: the pre-update state
// is snapshotted, then version increments by exactly 1.
func (s *Service) Update(ctx context.Context, characterID, callerID string, input UpdateInput) (sheet.Character, error) {
	character, err := s.loadOwned(ctx, characterID, callerID)
	if err != nil {
		return sheet.Character{}, err
	}

	updated := character
	if input.Name != nil {
		name, err := sheet.ValidateName(*input.Name)
		if err != nil {
			return sheet.Character{}, err
		}
		updated.Name = name
	}
	if input.PersonalityTraits != nil {
		updated.PersonalityTraits = strings.TrimSpace(*input.PersonalityTraits)
	}
	if input.Skills != nil {
		updated.Skills = strings.TrimSpace(*input.Skills)
	}
	if input.Inventory != nil {
		updated.Inventory = strings.TrimSpace(*input.Inventory)
	}

	newLevel := updated.CharacterLevel
	newXP := updated.ExperiencePoints
	if input.CharacterLevel != nil {
		newLevel = *input.CharacterLevel
	}
	if input.ExperiencePoints != nil {
		newXP = *input.ExperiencePoints
	}
	if err := sheet.ValidateProgression(character, newLevel, newXP); err != nil {
		return sheet.Character{}, err
	}
	updated.CharacterLevel = newLevel
	updated.ExperiencePoints = newXP

	if input.Stats != nil {
		if err := s.validateStatChange(character, *input.Stats, newLevel); err != nil {
			return sheet.Character{}, err
		}
		updated.Stats = *input.Stats
	}

	return s.persistUpdate(ctx, character, updated, callerID, input.ChangeDescription)
}

// validateStatChange allows raises only within the creation budget plus
// level-granted upgrades, and never allows lowering a stat.
func (s *Service) validateStatChange(current sheet.Character, next sheet.Stats, level int) error {
	if err := sheet.ValidateStatRange(next); err != nil {
		return err
	}
	spent := 0
	for _, name := range sheet.StatNames {
		before, _ := current.Stats.Get(name)
		after, _ := next.Get(name)
		if after < before {
			return apperrors.New(apperrors.CodeCharacterProgression, "stats cannot decrease")
		}
		spent += sheet.PointCostOf(after)
	}
	allowance := sheet.PointBudget + sheet.StatUpgradesAllowed(level)
	if spent > allowance {
		return apperrors.New(apperrors.CodeCharacterBudgetExceeded, "stat increase exceeds the level allowance")
	}
	return nil
}

// persistUpdate appends the pre-update snapshot and writes the bumped
// character row.
func (s *Service) persistUpdate(ctx context.Context, before, after sheet.Character, callerID, description string) (sheet.Character, error) {
	if description == "" {
		description = "character updated"
	}
	if err := s.appendSnapshot(ctx, before, description, callerID); err != nil {
		return sheet.Character{}, err
	}

	after.Version = before.Version + 1
	after.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateCharacter(ctx, recordFromCharacter(after)); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return sheet.Character{}, apperrors.New(apperrors.CodeNotFound, "character not found")
		}
		return sheet.Character{}, apperrors.Wrap(apperrors.CodeInternal, "update character", err)
	}
	return after, nil
}

func (s *Service) appendSnapshot(ctx context.Context, character sheet.Character, description, createdBy string) error {
	payload, err := snapshotOf(character)
	if err != nil {
		return err
	}
	record := storage.VersionRecord{
		ID:                s.newID(),
		CharacterID:       character.ID,
		VersionNumber:     character.Version,
		Snapshot:          payload,
		ChangeDescription: description,
		CreatedBy:         createdBy,
		CreatedAt:         s.now().UTC(),
	}
	if err := s.store.AppendVersion(ctx, record); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			// A snapshot for this version already exists; history stays
			// append-only.
			return nil
		}
		return apperrors.Wrap(apperrors.CodeInternal, "append character snapshot", err)
	}
	return nil
}

// Delete removes an owned character and its dependent rows.
func (s *Service) Delete(ctx context.Context, characterID, callerID string) error {
	character, err := s.loadOwned(ctx, characterID, callerID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteCharacter(ctx, character.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "character not found")
		}
		return apperrors.Wrap(apperrors.CodeInternal, "delete character", err)
	}
	s.logger.Info("character deleted",
		zap.String("character_id", character.ID),
		zap.String("owner_id", callerID))
	return nil
}

// Share toggles public visibility on an owned character.
func (s *Service) Share(ctx context.Context, characterID, callerID string, public bool) (sheet.Character, error) {
	character, err := s.loadOwned(ctx, characterID, callerID)
	if err != nil {
		return sheet.Character{}, err
	}
	if character.IsPublic == public {
		return character, nil
	}
	updated := character
	updated.IsPublic = public
	description := "character shared publicly"
	if !public {
		description = "character made private"
	}
	return s.persistUpdate(ctx, character, updated, callerID, description)
}
