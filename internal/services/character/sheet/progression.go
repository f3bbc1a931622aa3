package sheet

import (
	"fmt"

	apperrors "github.com/questforge/questforge/internal/platform/errors"
)

const (
	// XPPerLevel is the experience required per level step.
	XPPerLevel = 1000
	// StatUpgradeLevelInterval gates post-creation stat raises.
	StatUpgradeLevelInterval = 5
)

// XPForLevel returns the total experience required to hold a level.
func XPForLevel(level int) int {
	if level <= 1 {
		return 0
	}
	return (level - 1) * XPPerLevel
}

// ValidateProgression checks a level/XP transition. Levels only ever
// move up one step at a time, XP never decreases, and the new level
// must be earned.
func ValidateProgression(current Character, newLevel, newXP int) error {
	if newXP < current.ExperiencePoints {
		return apperrors.New(apperrors.CodeCharacterProgression, "experience points cannot decrease")
	}
	if newLevel == current.CharacterLevel {
		return nil
	}
	if newLevel < current.CharacterLevel {
		return apperrors.New(apperrors.CodeCharacterProgression, "character level cannot decrease")
	}
	if newLevel != current.CharacterLevel+1 {
		return apperrors.New(apperrors.CodeCharacterProgression, "character level can only increase one step at a time")
	}
	if newXP < XPForLevel(newLevel) {
		return apperrors.WithMetadata(
			apperrors.CodeCharacterProgression,
			fmt.Sprintf("level %d requires %d experience points", newLevel, XPForLevel(newLevel)),
			map[string]string{"required": fmt.Sprintf("%d", XPForLevel(newLevel))},
		)
	}
	return nil
}

// StatUpgradesAllowed returns how many post-creation stat raises a
// level grants.
func StatUpgradesAllowed(level int) int {
	if level < StatUpgradeLevelInterval {
		return 0
	}
	return level / StatUpgradeLevelInterval
}
