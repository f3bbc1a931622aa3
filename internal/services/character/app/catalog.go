package app

import (
	"context"
	"errors"

	"go.uber.org/zap"

	apperrors "github.com/questforge/questforge/internal/platform/errors"
	"github.com/questforge/questforge/internal/services/character/sheet"
	"github.com/questforge/questforge/internal/services/character/storage"
)

// defaultSkillCatalog is the starter skill set every deployment ships
// with. IDs are stable slugs so prerequisites can reference them.
var defaultSkillCatalog = []sheet.Skill{
	{ID: "sword-fighting", Name: "Sword Fighting", Description: "Mastery of blade combat techniques", Category: sheet.SkillCombat, StatRequirements: map[string]int{"strength": 12}, XPCost: 100},
	{ID: "archery", Name: "Archery", Description: "Precision with ranged weapons", Category: sheet.SkillCombat, StatRequirements: map[string]int{"dexterity": 13}, XPCost: 100},
	{ID: "shield-defense", Name: "Shield Defense", Description: "Expert use of shields for protection", Category: sheet.SkillCombat, StatRequirements: map[string]int{"strength": 11}, XPCost: 200},
	{ID: "dual-wielding", Name: "Dual Wielding", Description: "Fighting with two weapons simultaneously", Category: sheet.SkillCombat, StatRequirements: map[string]int{"dexterity": 15}, XPCost: 500, Prerequisites: []string{"sword-fighting"}},
	{ID: "persuasion", Name: "Persuasion", Description: "Convince others through compelling arguments", Category: sheet.SkillSocial, StatRequirements: map[string]int{"charisma": 12}, XPCost: 100},
	{ID: "deception", Name: "Deception", Description: "The art of lies and misdirection", Category: sheet.SkillSocial, StatRequirements: map[string]int{"charisma": 11}, XPCost: 100},
	{ID: "leadership", Name: "Leadership", Description: "Inspire and guide groups effectively", Category: sheet.SkillSocial, StatRequirements: map[string]int{"charisma": 15}, XPCost: 300, Prerequisites: []string{"persuasion"}},
	{ID: "lockpicking", Name: "Lockpicking", Description: "Open locked doors and containers", Category: sheet.SkillExploration, StatRequirements: map[string]int{"dexterity": 13}, XPCost: 100},
	{ID: "stealth", Name: "Stealth", Description: "Move unseen and unheard", Category: sheet.SkillExploration, StatRequirements: map[string]int{"dexterity": 12}, XPCost: 100},
	{ID: "trap-detection", Name: "Trap Detection", Description: "Identify and disarm dangerous mechanisms", Category: sheet.SkillExploration, StatRequirements: map[string]int{"intelligence": 13, "dexterity": 12}, XPCost: 200},
	{ID: "blacksmithing", Name: "Blacksmithing", Description: "Forge weapons and armor from metal", Category: sheet.SkillCrafting, StatRequirements: map[string]int{"strength": 13}, XPCost: 200},
	{ID: "alchemy", Name: "Alchemy", Description: "Create potions and magical compounds", Category: sheet.SkillCrafting, StatRequirements: map[string]int{"intelligence": 14}, XPCost: 200},
	{ID: "enchanting", Name: "Enchanting", Description: "Imbue items with magical properties", Category: sheet.SkillCrafting, StatRequirements: map[string]int{"intelligence": 16}, XPCost: 400, Prerequisites: []string{"alchemy"}},
	{ID: "fire-magic", Name: "Fire Magic", Description: "Harness the power of flames", Category: sheet.SkillMagic, StatRequirements: map[string]int{"intelligence": 13}, XPCost: 200},
	{ID: "water-magic", Name: "Water Magic", Description: "Control water and ice", Category: sheet.SkillMagic, StatRequirements: map[string]int{"intelligence": 13}, XPCost: 200},
	{ID: "healing-magic", Name: "Healing Magic", Description: "Restore health and cure ailments", Category: sheet.SkillMagic, StatRequirements: map[string]int{"intelligence": 12, "charisma": 11}, XPCost: 100},
	{ID: "history", Name: "History", Description: "Knowledge of past events and civilizations", Category: sheet.SkillKnowledge, StatRequirements: map[string]int{"intelligence": 12}, XPCost: 100},
	{ID: "arcana", Name: "Arcana", Description: "Understanding of magical theory and practice", Category: sheet.SkillKnowledge, StatRequirements: map[string]int{"intelligence": 13}, XPCost: 100},
	{ID: "investigation", Name: "Investigation", Description: "Systematic gathering and analysis of information", Category: sheet.SkillKnowledge, StatRequirements: map[string]int{"intelligence": 14}, XPCost: 200},
	{ID: "hunting", Name: "Hunting", Description: "Track and hunt wild game", Category: sheet.SkillSurvival, StatRequirements: map[string]int{"dexterity": 11, "intelligence": 10}, XPCost: 100},
	{ID: "foraging", Name: "Foraging", Description: "Find edible plants and resources in the wild", Category: sheet.SkillSurvival, StatRequirements: map[string]int{"intelligence": 11}, XPCost: 100},
	{ID: "medicine", Name: "Medicine", Description: "Treat wounds and illnesses without magic", Category: sheet.SkillSurvival, StatRequirements: map[string]int{"intelligence": 13, "dexterity": 11}, XPCost: 200},
}

// SeedSkills inserts any default catalog skills that are missing.
// Existing entries are left untouched, so the call is idempotent.
func (s *Service) SeedSkills(ctx context.Context) (int, error) {
	created := 0
	for _, skill := range defaultSkillCatalog {
		record, err := skillToRecord(skill, s.now().UTC())
		if err != nil {
			return created, err
		}
		if err := s.store.CreateSkill(ctx, record); err != nil {
			if errors.Is(err, storage.ErrAlreadyExists) {
				continue
			}
			return created, apperrors.Wrap(apperrors.CodeInternal, "seed skill catalog", err)
		}
		created++
	}
	if created > 0 {
		s.logger.Info("skill catalog seeded", zap.Int("created", created))
	}
	return created, nil
}
