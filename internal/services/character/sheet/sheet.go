// Package sheet models player characters and their creation rules.
package sheet

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/questforge/questforge/internal/platform/errors"
)

const (
	// MinNameLength and MaxNameLength bound the trimmed character name.
	MinNameLength = 2
	MaxNameLength = 50

	// MinStat and MaxStat bound every ability score.
	MinStat = 8
	MaxStat = 18

	// BaseStat is the free starting value for point-buy.
	BaseStat = 8
	// PointBudget is the total point-buy allowance at creation.
	PointBudget = 20
)

// Stats are the four ability scores.
type Stats struct {
	Strength     int `json:"strength"`
	Dexterity    int `json:"dexterity"`
	Intelligence int `json:"intelligence"`
	Charisma     int `json:"charisma"`
}

// StatNames lists the ability score keys in canonical order.
var StatNames = []string{"strength", "dexterity", "intelligence", "charisma"}

// Get returns the named stat. Unknown names return 0, false.
func (s Stats) Get(name string) (int, bool) {
	switch strings.ToLower(name) {
	case "strength":
		return s.Strength, true
	case "dexterity":
		return s.Dexterity, true
	case "intelligence":
		return s.Intelligence, true
	case "charisma":
		return s.Charisma, true
	}
	return 0, false
}

// Set assigns the named stat and reports whether the name was known.
func (s *Stats) Set(name string, value int) bool {
	switch strings.ToLower(name) {
	case "strength":
		s.Strength = value
	case "dexterity":
		s.Dexterity = value
	case "intelligence":
		s.Intelligence = value
	case "charisma":
		s.Charisma = value
	default:
		return false
	}
	return true
}

// Character is the player character domain model.
type Character struct {
	ID                string
	OwnerID           string
	Name              string
	Stats             Stats
	PersonalityTraits string
	Skills            string
	Inventory         string
	Version           int
	IsTemplate        bool
	IsPublic          bool
	ExperiencePoints  int
	CharacterLevel    int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// ValidateName checks the trimmed display name bounds and returns the
// trimmed value.
func ValidateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	if len(name) < MinNameLength || len(name) > MaxNameLength {
		return "", apperrors.WithMetadata(
			apperrors.CodeCharacterNameInvalid,
			fmt.Sprintf("character name must be %d-%d characters", MinNameLength, MaxNameLength),
			map[string]string{"field": "name"},
		)
	}
	return name, nil
}

// pointCost is the point-buy cost of raising a stat from value-1 to
// value.
func pointCost(value int) int {
	switch {
	case value <= 13:
		return 1
	case value <= 16:
		return 2
	default:
		return 3
	}
}

// PointCostOf returns the total point-buy cost of one stat value above
// the base.
func PointCostOf(value int) int {
	total := 0
	for v := BaseStat + 1; v <= value; v++ {
		total += pointCost(v)
	}
	return total
}

// ValidateStatRange checks every stat is within bounds.
func ValidateStatRange(stats Stats) error {
	for _, name := range StatNames {
		value, _ := stats.Get(name)
		if value < MinStat || value > MaxStat {
			return apperrors.WithMetadata(
				apperrors.CodeCharacterStatOutOfRange,
				fmt.Sprintf("%s must be between %d and %d", name, MinStat, MaxStat),
				map[string]string{"field": name, "value": fmt.Sprintf("%d", value)},
			)
		}
	}
	return nil
}

// ValidateCreationStats checks range and the point-buy budget used at
// character creation.
func ValidateCreationStats(stats Stats) error {
	if err := ValidateStatRange(stats); err != nil {
		return err
	}
	spent := 0
	for _, name := range StatNames {
		value, _ := stats.Get(name)
		spent += PointCostOf(value)
	}
	if spent > PointBudget {
		return apperrors.WithMetadata(
			apperrors.CodeCharacterBudgetExceeded,
			fmt.Sprintf("stat allocation costs %d points, budget is %d", spent, PointBudget),
			map[string]string{"spent": fmt.Sprintf("%d", spent), "budget": fmt.Sprintf("%d", PointBudget)},
		)
	}
	return nil
}
