package app

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/questforge/questforge/internal/platform/errors"
	"github.com/questforge/questforge/internal/services/character/sheet"
	"github.com/questforge/questforge/internal/services/character/storage"
)

func skillFromRecord(record storage.SkillRecord) (sheet.Skill, error) {
	var requirements map[string]int
	if len(record.StatRequirements) > 0 {
		if err := json.Unmarshal(record.StatRequirements, &requirements); err != nil {
			return sheet.Skill{}, apperrors.Wrap(apperrors.CodeInternal, "decode skill requirements", err)
		}
	}
	var prerequisites []string
	if len(record.Prerequisites) > 0 {
		if err := json.Unmarshal(record.Prerequisites, &prerequisites); err != nil {
			return sheet.Skill{}, apperrors.Wrap(apperrors.CodeInternal, "decode skill prerequisites", err)
		}
	}
	return sheet.Skill{
		ID:               record.ID,
		Name:             record.Name,
		Description:      record.Description,
		Category:         sheet.SkillCategory(record.Category),
		StatRequirements: requirements,
		XPCost:           record.XPCost,
		Prerequisites:    prerequisites,
	}, nil
}

func skillToRecord(skill sheet.Skill, createdAt time.Time) (storage.SkillRecord, error) {
	record := storage.SkillRecord{
		ID:          skill.ID,
		Name:        skill.Name,
		Description: skill.Description,
		Category:    string(skill.Category),
		XPCost:      skill.XPCost,
		CreatedAt:   createdAt,
	}
	if len(skill.StatRequirements) > 0 {
		payload, err := json.Marshal(skill.StatRequirements)
		if err != nil {
			return storage.SkillRecord{}, apperrors.Wrap(apperrors.CodeInternal, "encode skill requirements", err)
		}
		record.StatRequirements = payload
	}
	if len(skill.Prerequisites) > 0 {
		payload, err := json.Marshal(skill.Prerequisites)
		if err != nil {
			return storage.SkillRecord{}, apperrors.Wrap(apperrors.CodeInternal, "encode skill prerequisites", err)
		}
		record.Prerequisites = payload
	}
	return record, nil
}

// ListSkills returns the shared skill catalog.
func (s *Service) ListSkills(ctx context.Context) ([]sheet.Skill, error) {
	records, err := s.store.ListSkills(ctx)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "list skills", err)
	}
	skills := make([]sheet.Skill, 0, len(records))
	for _, record := range records {
		skill, err := skillFromRecord(record)
		if err != nil {
			return nil, err
		}
		skills = append(skills, skill)
	}
	return skills, nil
}

// SkillInput describes a new catalog skill.
type SkillInput struct {
	Name             string
	Description      string
	Category         string
	StatRequirements map[string]int
	XPCost           int
	Prerequisites    []string
}

// CreateSkill adds a skill to the shared catalog.
func (s *Service) CreateSkill(ctx context.Context, input SkillInput) (sheet.Skill, error) {
	category, err := sheet.ParseSkillCategory(input.Category)
	if err != nil {
		return sheet.Skill{}, err
	}
	if input.XPCost < 0 {
		return sheet.Skill{}, apperrors.WithMetadata(
			apperrors.CodeValidation,
			"skill XP cost cannot be negative",
			map[string]string{"field": "xp_cost"},
		)
	}

	skill := sheet.Skill{
		ID:               s.newID(),
		Name:             input.Name,
		Description:      input.Description,
		Category:         category,
		StatRequirements: input.StatRequirements,
		XPCost:           input.XPCost,
		Prerequisites:    input.Prerequisites,
	}
	record, err := skillToRecord(skill, s.now().UTC())
	if err != nil {
		return sheet.Skill{}, err
	}
	if err := s.store.CreateSkill(ctx, record); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return sheet.Skill{}, apperrors.New(apperrors.CodeAlreadyExists, "a skill with that name already exists")
		}
		return sheet.Skill{}, apperrors.Wrap(apperrors.CodeInternal, "create skill", err)
	}
	return skill, nil
}

// AcquireSkill lets an owned character learn a catalog skill after
// stat, XP, and prerequisite checks.
func (s *Service) AcquireSkill(ctx context.Context, characterID, skillID, callerID string) (sheet.CharacterSkill, error) {
	character, err := s.loadOwned(ctx, characterID, callerID)
	if err != nil {
		return sheet.CharacterSkill{}, err
	}
	record, err := s.store.GetSkill(ctx, skillID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return sheet.CharacterSkill{}, apperrors.New(apperrors.CodeNotFound, "skill not found")
		}
		return sheet.CharacterSkill{}, apperrors.Wrap(apperrors.CodeInternal, "load skill", err)
	}
	skill, err := skillFromRecord(record)
	if err != nil {
		return sheet.CharacterSkill{}, err
	}
	if err := sheet.CheckSkillRequirements(character, skill); err != nil {
		return sheet.CharacterSkill{}, err
	}

	acquired, err := s.store.ListCharacterSkills(ctx, characterID)
	if err != nil {
		return sheet.CharacterSkill{}, apperrors.Wrap(apperrors.CodeInternal, "list acquired skills", err)
	}
	have := make(map[string]bool, len(acquired))
	for _, cs := range acquired {
		have[cs.SkillID] = true
	}
	if have[skillID] {
		return sheet.CharacterSkill{}, apperrors.New(apperrors.CodeAlreadyExists, "character already knows this skill")
	}
	for _, prerequisite := range skill.Prerequisites {
		if !have[prerequisite] {
			return sheet.CharacterSkill{}, apperrors.WithMetadata(
				apperrors.CodeCharacterSkillUnmet,
				"character is missing a prerequisite skill",
				map[string]string{"prerequisite": prerequisite},
			)
		}
	}

	characterSkill := storage.CharacterSkillRecord{
		CharacterID: characterID,
		SkillID:     skillID,
		SkillLevel:  1,
		AcquiredAt:  s.now().UTC(),
	}
	if err := s.store.AcquireSkill(ctx, characterSkill); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return sheet.CharacterSkill{}, apperrors.New(apperrors.CodeAlreadyExists, "character already knows this skill")
		}
		return sheet.CharacterSkill{}, apperrors.Wrap(apperrors.CodeInternal, "acquire skill", err)
	}

	s.logger.Info("skill acquired",
		zap.String("character_id", characterID),
		zap.String("skill_id", skillID))
	return sheet.CharacterSkill{
		CharacterID: characterSkill.CharacterID,
		SkillID:     characterSkill.SkillID,
		SkillLevel:  characterSkill.SkillLevel,
		AcquiredAt:  characterSkill.AcquiredAt,
	}, nil
}

// ListCharacterSkills returns the skills a visible character has
// learned.
func (s *Service) ListCharacterSkills(ctx context.Context, characterID, callerID string) ([]sheet.CharacterSkill, error) {
	if _, err := s.Get(ctx, characterID, callerID); err != nil {
		return nil, err
	}
	records, err := s.store.ListCharacterSkills(ctx, characterID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "list acquired skills", err)
	}
	skills := make([]sheet.CharacterSkill, 0, len(records))
	for _, record := range records {
		skills = append(skills, sheet.CharacterSkill{
			CharacterID: record.CharacterID,
			SkillID:     record.SkillID,
			SkillLevel:  record.SkillLevel,
			AcquiredAt:  record.AcquiredAt,
		})
	}
	return skills, nil
}
