package gm

import (
	"fmt"
	"strings"

	"github.com/questforge/questforge/internal/services/adventure/quest"
	"github.com/questforge/questforge/internal/services/character/sheet"
)

// GenerationPrompt builds the adventure generation prompt from a
// character summary and optional player preferences.
func GenerationPrompt(character sheet.Character, preferences quest.Preferences) string {
	var b strings.Builder
	b.WriteString("You are an expert Tabletop RPG Game Master.\n")
	b.WriteString("Generate a short, unique TTRPG adventure with an overarching story, a clear end goal, and 1 to 3 distinct encounters.\n\n")
	b.WriteString("The adventure should be tailored for the following player character:\n\n")

	fmt.Fprintf(&b, "Character Name: %s\n", character.Name)
	fmt.Fprintf(&b, "Strength: %d\n", character.Stats.Strength)
	fmt.Fprintf(&b, "Dexterity: %d\n", character.Stats.Dexterity)
	fmt.Fprintf(&b, "Intelligence: %d\n", character.Stats.Intelligence)
	fmt.Fprintf(&b, "Charisma: %d\n", character.Stats.Charisma)
	if character.PersonalityTraits != "" {
		fmt.Fprintf(&b, "Personality Traits: %s\n", character.PersonalityTraits)
	}
	if character.Skills != "" {
		fmt.Fprintf(&b, "Skills: %s\n", character.Skills)
	}
	if character.Inventory != "" {
		fmt.Fprintf(&b, "Inventory: %s\n", character.Inventory)
	}
	b.WriteString("\nConsider these character details when designing the adventure and its challenges.\n")

	if preferences != (quest.Preferences{}) {
		b.WriteString("\nConsider the following player preferences:\n")
		if preferences.Theme != "" {
			fmt.Fprintf(&b, "- Preferred Theme: %s\n", preferences.Theme)
		}
		if preferences.Difficulty != "" {
			fmt.Fprintf(&b, "- Preferred Difficulty: %s\n", preferences.Difficulty)
		}
		if preferences.Length != "" {
			fmt.Fprintf(&b, "- Preferred Length: %s\n", preferences.Length)
		}
	}

	b.WriteString(`
Please provide the adventure in the following structure:
Adventure Title: (A catchy title for the adventure)
Overall Goal: (What the player needs to achieve to complete the adventure)
Encounter 1:
Description: (Details of the first encounter, scene setting)
Challenge/Objective: (What the player needs to do or overcome)
Potential Outcomes/Paths: (Brief ideas on how it might resolve)
Encounter 2:
Description:
Challenge/Objective:
Potential Outcomes/Paths:
Encounter 3:
Description:
Challenge/Objective:
Potential Outcomes/Paths:
Conclusion: (How the adventure wraps up upon achieving the goal)

Encounters 2 and 3 are optional. Focus on creativity and replayability.
Encounters can be varied (e.g., conversations, puzzles, escape rooms, battles that can be resolved in multiple ways).
`)
	return b.String()
}

// CheckSummary is the resolved skill check passed to narration.
type CheckSummary struct {
	Performed   bool
	Success     bool
	Description string
}

// NarrationPrompt builds the action-outcome prompt for the current
// scene.
func NarrationPrompt(scene, action string, check CheckSummary) string {
	parts := []string{
		"You are a master storyteller and TTRPG Game Master. Narrate the outcome of the player character's action within the current scene.",
		"Current Scene: " + scene,
		"Player Character attempts to: " + action,
	}
	if check.Performed {
		parts = append(parts, "A skill check was performed with the following result: "+check.Description)
		if check.Success {
			parts = append(parts, "The action succeeded. Describe how this success unfolds creatively.")
		} else {
			parts = append(parts, "The action failed. Describe the consequences or how the failure manifests in an interesting way.")
		}
	} else {
		parts = append(parts, "This action does not require a skill check. Describe the outcome of this automatic action.")
	}
	parts = append(parts,
		"If an NPC speaks, clearly indicate their dialogue. You can also optionally describe the NPC's tone or manner of speaking "+
			"(e.g., [Grizzled Guard, gruff voice], [Mysterious Stranger, whispering], [Shopkeeper, cheerful tone]). "+
			"This description will assist a Text-to-Speech engine or voice actor.",
		"Keep the narration engaging and concise (1-3 paragraphs typically). Focus on the immediate consequences and setup for the next player decision if appropriate.")
	return strings.Join(parts, "\n\n")
}
