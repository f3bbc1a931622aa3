package app

import (
	"context"

	"go.uber.org/zap"

	apperrors "github.com/questforge/questforge/internal/platform/errors"
	"github.com/questforge/questforge/internal/services/character/sheet"
)

// Export returns the portable envelope for a character visible to the
// caller.
func (s *Service) Export(ctx context.Context, characterID, callerID string) (sheet.Export, error) {
	character, err := s.Get(ctx, characterID, callerID)
	if err != nil {
		return sheet.Export{}, err
	}
	return sheet.NewExport(character, s.now()), nil
}

// Import creates a new character owned by the caller from an exported
// envelope. The import always mints a fresh identity and version
// history.
func (s *Service) Import(ctx context.Context, callerID string, payload []byte) (sheet.Character, error) {
	export, err := sheet.ParseExport(payload)
	if err != nil {
		return sheet.Character{}, err
	}

	now := s.now().UTC()
	character := sheet.Character{
		ID:                s.newID(),
		OwnerID:           callerID,
		Name:              export.Name,
		Stats:             export.Stats,
		PersonalityTraits: export.PersonalityTraits,
		Skills:            export.Skills,
		Inventory:         export.Inventory,
		Version:           1,
		IsTemplate:        export.IsTemplate,
		ExperiencePoints:  export.ExperiencePoints,
		CharacterLevel:    export.CharacterLevel,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if character.CharacterLevel < 1 {
		character.CharacterLevel = 1
	}
	if err := s.store.CreateCharacter(ctx, recordFromCharacter(character)); err != nil {
		return sheet.Character{}, apperrors.Wrap(apperrors.CodeInternal, "import character", err)
	}
	if err := s.appendSnapshot(ctx, character, "character imported", callerID); err != nil {
		return sheet.Character{}, err
	}

	s.logger.Info("character imported",
		zap.String("character_id", character.ID),
		zap.String("owner_id", callerID))
	return character, nil
}
