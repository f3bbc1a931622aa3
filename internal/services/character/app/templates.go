package app

import (
	"context"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/questforge/questforge/internal/platform/errors"
	"github.com/questforge/questforge/internal/services/character/sheet"
	"github.com/questforge/questforge/internal/services/character/storage"
)

// ListTemplates returns template characters visible to everyone.
func (s *Service) ListTemplates(ctx context.Context, filter storage.SearchFilter) ([]sheet.Character, error) {
	filter.OwnerID = ""
	filter.TemplateOnly = true
	records, err := s.store.SearchCharacters(ctx, filter)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "list templates", err)
	}
	templates := make([]sheet.Character, 0, len(records))
	for _, record := range records {
		templates = append(templates, characterFromRecord(record))
	}
	return templates, nil
}

// InstantiateTemplate creates a fresh character for the caller from a
// template. The copy starts its own version history at 1 and carries
// no link back to the template.
func (s *Service) InstantiateTemplate(ctx context.Context, templateID, callerID, name string) (sheet.Character, error) {
	template, err := s.load(ctx, templateID)
	if err != nil {
		return sheet.Character{}, err
	}
	if !template.IsTemplate {
		return sheet.Character{}, apperrors.New(apperrors.CodeCharacterNotTemplate, "character is not a template")
	}

	if strings.TrimSpace(name) == "" {
		name = template.Name
	}
	validated, err := sheet.ValidateName(name)
	if err != nil {
		return sheet.Character{}, err
	}

	now := s.now().UTC()
	character := sheet.Character{
		ID:                s.newID(),
		OwnerID:           callerID,
		Name:              validated,
		Stats:             template.Stats,
		PersonalityTraits: template.PersonalityTraits,
		Skills:            template.Skills,
		Inventory:         template.Inventory,
		Version:           1,
		ExperiencePoints:  template.ExperiencePoints,
		CharacterLevel:    template.CharacterLevel,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.CreateCharacter(ctx, recordFromCharacter(character)); err != nil {
		return sheet.Character{}, apperrors.Wrap(apperrors.CodeInternal, "instantiate template", err)
	}
	if err := s.appendSnapshot(ctx, character, "created from template", callerID); err != nil {
		return sheet.Character{}, err
	}

	s.logger.Info("template instantiated",
		zap.String("template_id", templateID),
		zap.String("character_id", character.ID),
		zap.String("owner_id", callerID))
	return character, nil
}
