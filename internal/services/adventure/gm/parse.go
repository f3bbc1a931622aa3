package gm

import (
	"regexp"
	"strings"

	apperrors "github.com/questforge/questforge/internal/platform/errors"
	"github.com/questforge/questforge/internal/services/adventure/quest"
)

var (
	titlePattern      = regexp.MustCompile(`Adventure Title:\s*(.+)`)
	goalPattern       = regexp.MustCompile(`Overall Goal:\s*(.+)`)
	conclusionPattern = regexp.MustCompile(`(?s)Conclusion:\s*(.+)`)
	encounterHeader   = regexp.MustCompile(`Encounter \d+:`)
	descPattern       = regexp.MustCompile(`(?s)Description:\s*(.+?)Challenge/Objective:`)
	objectivePattern  = regexp.MustCompile(`(?s)Challenge/Objective:\s*(.+?)(?:Potential Outcomes/Paths:|$)`)
	outcomesPattern   = regexp.MustCompile(`(?s)Potential Outcomes/Paths:\s*(.+)`)
)

func cleanField(value string) string {
	return strings.TrimSpace(value)
}

// ParseDefinition extracts a structured adventure from the model's
// generated text.
func ParseDefinition(text string) (quest.Definition, error) {
	// Markdown emphasis around labels would defeat the matchers.
	text = strings.ReplaceAll(text, "**", "")
	text = strings.ReplaceAll(text, "*", "")

	titleMatch := titlePattern.FindStringSubmatch(text)
	goalMatch := goalPattern.FindStringSubmatch(text)
	conclusionMatch := conclusionPattern.FindStringSubmatch(text)
	if titleMatch == nil || goalMatch == nil || conclusionMatch == nil {
		return quest.Definition{}, apperrors.New(apperrors.CodeAdventureGMFailure, "adventure text is missing title, goal, or conclusion")
	}

	// Encounter blocks run from each header to the next header or the
	// conclusion.
	body := text
	if idx := strings.Index(body, "Conclusion:"); idx >= 0 {
		body = body[:idx]
	}
	var encounters []quest.Encounter
	blocks := encounterHeader.Split(body, -1)
	for _, block := range blocks[1:] {
		descMatch := descPattern.FindStringSubmatch(block)
		objectiveMatch := objectivePattern.FindStringSubmatch(block)
		if descMatch == nil || objectiveMatch == nil {
			continue
		}
		encounter := quest.Encounter{
			Description:        cleanField(descMatch[1]),
			ChallengeObjective: cleanField(objectiveMatch[1]),
		}
		if outcomesMatch := outcomesPattern.FindStringSubmatch(block); outcomesMatch != nil {
			encounter.PotentialOutcomes = cleanField(outcomesMatch[1])
		}
		encounters = append(encounters, encounter)
	}
	if len(encounters) == 0 {
		return quest.Definition{}, apperrors.New(apperrors.CodeAdventureGMFailure, "adventure text contains no parseable encounters")
	}

	return quest.Definition{
		Title:       cleanField(titleMatch[1]),
		OverallGoal: cleanField(goalMatch[1]),
		Encounters:  encounters,
		Conclusion:  cleanField(conclusionMatch[1]),
	}, nil
}

// FallbackDefinition is the deterministic adventure used when the
// model is unavailable or its output cannot be parsed.
func FallbackDefinition() quest.Definition {
	return quest.Definition{
		Title:       "The Mockingbird's Secret",
		OverallGoal: "Retrieve the stolen Mockingbird amulet from the thieving magpie.",
		Encounters: []quest.Encounter{
			{
				Description:        "You start in a quiet forest clearing. A weeping willow sways gently. You notice oversized bird tracks.",
				ChallengeObjective: "Follow the tracks to find the magpie's nest.",
				PotentialOutcomes:  "Success leads to the nest. Failure might involve losing the trail or a minor beast encounter.",
			},
		},
		Conclusion: "Retrieving the amulet restores peace to the Whispering Woods.",
	}
}
