// Package gm builds game-master prompts, parses the model's structured
// adventure text, and narrates player actions.
package gm

import (
	"context"

	"github.com/questforge/questforge/internal/services/adventure/quest"
	"github.com/questforge/questforge/internal/services/character/sheet"
)

// Client invokes a text-generation model with a system role and a user
// prompt.
type Client interface {
	Invoke(ctx context.Context, system, prompt string) (string, error)
}

const (
	generationSystemPrompt = "You are a creative and engaging Tabletop RPG Game Master."
	narrationSystemPrompt  = "You are a creative and engaging Tabletop RPG Game Master narrating player actions. " +
		`Provide voice cues for NPCs like [Character Name, voice description]: "Dialogue"`
)

// Generate asks the model for a new adventure tailored to the
// character and parses the structured reply.
func Generate(ctx context.Context, client Client, character sheet.Character, preferences quest.Preferences) (quest.Definition, error) {
	text, err := client.Invoke(ctx, generationSystemPrompt, GenerationPrompt(character, preferences))
	if err != nil {
		return quest.Definition{}, err
	}
	return ParseDefinition(text)
}

// Narrate asks the model to narrate a player action against the
// current scene.
func Narrate(ctx context.Context, client Client, scene, action string, check CheckSummary) (string, error) {
	return client.Invoke(ctx, narrationSystemPrompt, NarrationPrompt(scene, action, check))
}
