// Package dice implements dice rolling and d20 skill checks for the GM engine.
package dice

import (
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
)

// ErrMissingDice indicates a roll request had no dice specified.
var ErrMissingDice = errors.New("at least one die must be provided")

// ErrInvalidDiceSpec indicates a die specification has invalid fields.
var ErrInvalidDiceSpec = errors.New("dice must have positive sides and count")

// ErrInvalidNotation indicates a dice notation string could not be parsed.
var ErrInvalidNotation = errors.New("dice notation must look like NdS, NdS+M or NdS-M")

// ErrInvalidDifficulty indicates the difficulty class is invalid for a check.
var ErrInvalidDifficulty = errors.New("difficulty class must be positive")

// DiceSpec describes a die to roll and how many times to roll it.
type DiceSpec struct {
	Sides int
	Count int
}

// Notation describes a parsed dice expression such as "2d6+1".
type Notation struct {
	Spec     DiceSpec
	Modifier int
}

// ParseNotation parses standard dice notation ("1d20", "2d6", "1d4+1").
// A missing count defaults to one die.
func ParseNotation(value string) (Notation, error) {
	raw := strings.ToLower(strings.TrimSpace(value))
	countPart, rest, ok := strings.Cut(raw, "d")
	if !ok {
		return Notation{}, ErrInvalidNotation
	}

	count := 1
	if countPart != "" {
		parsed, err := strconv.Atoi(countPart)
		if err != nil {
			return Notation{}, ErrInvalidNotation
		}
		count = parsed
	}

	modifier := 0
	sidesPart := rest
	if sides, mod, ok := strings.Cut(rest, "+"); ok {
		parsed, err := strconv.Atoi(mod)
		if err != nil {
			return Notation{}, ErrInvalidNotation
		}
		sidesPart = sides
		modifier = parsed
	} else if sides, mod, ok := strings.Cut(rest, "-"); ok {
		parsed, err := strconv.Atoi(mod)
		if err != nil {
			return Notation{}, ErrInvalidNotation
		}
		sidesPart = sides
		modifier = -parsed
	}

	sides, err := strconv.Atoi(sidesPart)
	if err != nil {
		return Notation{}, ErrInvalidNotation
	}
	if sides <= 0 || count <= 0 {
		return Notation{}, ErrInvalidDiceSpec
	}

	return Notation{Spec: DiceSpec{Sides: sides, Count: count}, Modifier: modifier}, nil
}

// DieRoll captures the results for a single dice spec.
type DieRoll struct {
	Sides   int
	Results []int
	Total   int
}

// RollRequest describes a request to roll one or more dice.
type RollRequest struct {
	Dice []DiceSpec
	Seed int64
}

// RollResult captures the results from rolling multiple dice.
type RollResult struct {
	Rolls []DieRoll
	Total int
}

// RollDice rolls dice based on the provided request.
//
// RollDice is deterministic with respect to the Seed field on RollRequest:
// given the same Seed and the same Dice slice, it always produces the same
// RollResult. Dice specs are processed in slice order and the Total is the
// sum of every die rolled across the request.
func RollDice(request RollRequest) (RollResult, error) {
	if len(request.Dice) == 0 {
		return RollResult{}, ErrMissingDice
	}

	rng := rand.New(rand.NewSource(request.Seed))
	rolls := make([]DieRoll, 0, len(request.Dice))
	total := 0

	for _, spec := range request.Dice {
		if spec.Sides <= 0 || spec.Count <= 0 {
			return RollResult{}, ErrInvalidDiceSpec
		}

		results := make([]int, spec.Count)
		rollTotal := 0
		for i := 0; i < spec.Count; i++ {
			value := rollDie(rng, spec.Sides)
			results[i] = value
			rollTotal += value
		}

		rolls = append(rolls, DieRoll{
			Sides:   spec.Sides,
			Results: results,
			Total:   rollTotal,
		})
		total += rollTotal
	}

	return RollResult{
		Rolls: rolls,
		Total: total,
	}, nil
}

// CheckRequest describes a skill check: roll vs difficulty class.
type CheckRequest struct {
	Notation     string // defaults to "1d20"
	Modifier     int
	DC           int
	Advantage    bool // roll twice, take higher
	Disadvantage bool // roll twice, take lower
	Seed         int64
}

// CheckResult captures the outcome of a skill check.
type CheckResult struct {
	Success     bool
	Roll        int // final kept roll before modifier
	Modifier    int
	Total       int
	DC          int
	Description string
}

// Check performs a skill check. Advantage and disadvantage cancel each
// other, matching tabletop convention. The check is deterministic for a
// given Seed.
func Check(request CheckRequest) (CheckResult, error) {
	if request.DC <= 0 {
		return CheckResult{}, ErrInvalidDifficulty
	}

	notation := request.Notation
	if strings.TrimSpace(notation) == "" {
		notation = "1d20"
	}
	parsed, err := ParseNotation(notation)
	if err != nil {
		return CheckResult{}, err
	}

	advantage := request.Advantage
	disadvantage := request.Disadvantage
	if advantage && disadvantage {
		advantage = false
		disadvantage = false
	}

	rng := rand.New(rand.NewSource(request.Seed))
	first := rollNotation(rng, parsed)
	final := first
	var description string

	switch {
	case advantage:
		second := rollNotation(rng, parsed)
		final = max(first, second)
		description = fmt.Sprintf("Rolled %s with advantage (%d, %d), took %d", notation, first, second, final)
	case disadvantage:
		second := rollNotation(rng, parsed)
		final = min(first, second)
		description = fmt.Sprintf("Rolled %s with disadvantage (%d, %d), took %d", notation, first, second, final)
	default:
		description = fmt.Sprintf("Rolled %s, result %d", notation, final)
	}

	total := final + request.Modifier
	success := total >= request.DC

	return CheckResult{
		Success:  success,
		Roll:     final,
		Modifier: request.Modifier,
		Total:    total,
		DC:       request.DC,
		Description: fmt.Sprintf("%s. Modifier: %d. Total: %d vs DC %d. Success: %t.",
			description, request.Modifier, total, request.DC, success),
	}, nil
}

// StatModifier converts an ability score to its check modifier, floored.
func StatModifier(stat int) int {
	value := stat - 10
	if value < 0 {
		// Floor division for negative values.
		return -((-value + 1) / 2)
	}
	return value / 2
}

func rollNotation(rng *rand.Rand, n Notation) int {
	total := n.Modifier
	for i := 0; i < n.Spec.Count; i++ {
		total += rollDie(rng, n.Spec.Sides)
	}
	return total
}

func rollDie(rng *rand.Rand, sides int) int {
	return rng.Intn(sides) + 1
}
