package sheet

import (
	"strings"
	"time"

	apperrors "github.com/questforge/questforge/internal/platform/errors"
)

// EquipmentType enumerates the equipment slots.
type EquipmentType string

const (
	EquipmentWeapon     EquipmentType = "weapon"
	EquipmentArmor      EquipmentType = "armor"
	EquipmentAccessory  EquipmentType = "accessory"
	EquipmentConsumable EquipmentType = "consumable"
	EquipmentTool       EquipmentType = "tool"
	EquipmentMisc       EquipmentType = "misc"
)

var equipmentTypes = map[EquipmentType]bool{
	EquipmentWeapon:     true,
	EquipmentArmor:      true,
	EquipmentAccessory:  true,
	EquipmentConsumable: true,
	EquipmentTool:       true,
	EquipmentMisc:       true,
}

// ParseEquipmentType validates an equipment type string.
func ParseEquipmentType(value string) (EquipmentType, error) {
	candidate := EquipmentType(strings.ToLower(strings.TrimSpace(value)))
	if !equipmentTypes[candidate] {
		return "", apperrors.WithMetadata(
			apperrors.CodeValidation,
			"unknown equipment type",
			map[string]string{"field": "equipment_type", "value": value},
		)
	}
	return candidate, nil
}

// Equipment is one item attached to a character.
type Equipment struct {
	ID            string
	CharacterID   string
	Name          string
	Description   string
	EquipmentType EquipmentType
	StatModifiers map[string]int
	IsEquipped    bool
	CreatedAt     time.Time
}

// SkillCategory enumerates skill groupings.
type SkillCategory string

const (
	SkillCombat      SkillCategory = "combat"
	SkillSocial      SkillCategory = "social"
	SkillExploration SkillCategory = "exploration"
	SkillCrafting    SkillCategory = "crafting"
	SkillMagic       SkillCategory = "magic"
	SkillKnowledge   SkillCategory = "knowledge"
	SkillSurvival    SkillCategory = "survival"
)

var skillCategories = map[SkillCategory]bool{
	SkillCombat:      true,
	SkillSocial:      true,
	SkillExploration: true,
	SkillCrafting:    true,
	SkillMagic:       true,
	SkillKnowledge:   true,
	SkillSurvival:    true,
}

// ParseSkillCategory validates a skill category string.
func ParseSkillCategory(value string) (SkillCategory, error) {
	candidate := SkillCategory(strings.ToLower(strings.TrimSpace(value)))
	if !skillCategories[candidate] {
		return "", apperrors.WithMetadata(
			apperrors.CodeValidation,
			"unknown skill category",
			map[string]string{"field": "category", "value": value},
		)
	}
	return candidate, nil
}

// Skill is a learnable ability from the shared catalog.
type Skill struct {
	ID               string
	Name             string
	Description      string
	Category         SkillCategory
	StatRequirements map[string]int
	XPCost           int
	Prerequisites    []string
}

// CharacterSkill links an acquired skill to a character.
type CharacterSkill struct {
	CharacterID string
	SkillID     string
	SkillLevel  int
	AcquiredAt  time.Time
}

// CheckSkillRequirements verifies the character meets a skill's stat
// requirements and XP cost.
func CheckSkillRequirements(character Character, skill Skill) error {
	for name, required := range skill.StatRequirements {
		value, ok := character.Stats.Get(name)
		if !ok {
			return apperrors.WithMetadata(
				apperrors.CodeCharacterSkillUnmet,
				"skill requires an unknown stat",
				map[string]string{"stat": name},
			)
		}
		if value < required {
			return apperrors.WithMetadata(
				apperrors.CodeCharacterSkillUnmet,
				"character does not meet the skill's stat requirements",
				map[string]string{"stat": name},
			)
		}
	}
	if character.ExperiencePoints < skill.XPCost {
		return apperrors.New(apperrors.CodeCharacterSkillUnmet, "character lacks the experience to learn this skill")
	}
	return nil
}
