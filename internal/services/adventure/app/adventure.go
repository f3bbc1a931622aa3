package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/questforge/questforge/internal/platform/errors"
	"github.com/questforge/questforge/internal/server/dice"
	"github.com/questforge/questforge/internal/services/adventure/gm"
	"github.com/questforge/questforge/internal/services/adventure/quest"
	"github.com/questforge/questforge/internal/services/adventure/state"
	charapp "github.com/questforge/questforge/internal/services/character/app"
	"github.com/questforge/questforge/internal/services/character/sheet"
)

// DefaultDC is used when an action requires a check but the client
// suggested no difficulty class.
const DefaultDC = 10

// Adventure is a freshly generated adventure session.
type Adventure struct {
	ID          string
	CharacterID string
	Definition  quest.Definition
}

// Generate creates a new adventure for an owned character. Model
// failures fall back to the stock adventure rather than surfacing.
func (s *Service) Generate(ctx context.Context, callerID, characterID string, preferences quest.Preferences) (Adventure, error) {
	character, err := s.characters.Get(ctx, characterID, callerID)
	if err != nil {
		return Adventure{}, err
	}
	if character.OwnerID != callerID {
		return Adventure{}, apperrors.New(apperrors.CodeCharacterNotOwned, "adventures can only be started for your own characters")
	}

	definition, err := gm.Generate(ctx, s.gm, character, preferences)
	if err != nil {
		s.logger.Warn("adventure generation fell back to the stock adventure",
			zap.String("character_id", characterID),
			zap.Error(err))
		definition = gm.FallbackDefinition()
	}
	s.attachEncounterMedia(ctx, &definition)

	adventureID := s.newID()
	session := quest.State{
		Definition:  definition,
		CharacterID: characterID,
		OwnerID:     callerID,
	}
	if err := s.sessions.Put(ctx, adventureID, session); err != nil {
		return Adventure{}, apperrors.Wrap(apperrors.CodeInternal, "store adventure session", err)
	}

	s.logger.Info("adventure started",
		zap.String("adventure_id", adventureID),
		zap.String("character_id", characterID),
		zap.String("title", definition.Title),
		zap.Int("encounters", len(definition.Encounters)))
	return Adventure{ID: adventureID, CharacterID: characterID, Definition: definition}, nil
}

// attachEncounterMedia best-effort decorates encounters with generated
// art. Media failures never fail the adventure.
func (s *Service) attachEncounterMedia(ctx context.Context, definition *quest.Definition) {
	if !s.media.Enabled() {
		return
	}
	for i := range definition.Encounters {
		prompt := fmt.Sprintf("Fantasy tabletop RPG illustration, digital painting: %s", definition.Encounters[i].Description)
		url, err := s.media.EncounterImage(ctx, prompt)
		if err != nil {
			s.logger.Warn("encounter image generation failed",
				zap.Int("encounter", i+1),
				zap.Error(err))
			continue
		}
		definition.Encounters[i].ImageURL = url
	}
}

// loadSession fetches an adventure session the caller must own.
func (s *Service) loadSession(ctx context.Context, adventureID, callerID string) (quest.State, error) {
	session, err := s.sessions.Get(ctx, adventureID)
	if err != nil {
		if errors.Is(err, state.ErrNotFound) {
			return quest.State{}, apperrors.New(apperrors.CodeAdventureNotFound, "adventure not found or already ended")
		}
		return quest.State{}, apperrors.Wrap(apperrors.CodeInternal, "load adventure session", err)
	}
	if session.OwnerID != callerID {
		return quest.State{}, apperrors.New(apperrors.CodeAdventureNotOwned, "adventure belongs to another user")
	}
	return session, nil
}

// ActionInput is a player action against the current encounter.
type ActionInput struct {
	ActionText  string
	StatToCheck string
	SuggestedDC int
}

// ActionResult is the narrated outcome of a player action.
type ActionResult struct {
	Narration         string
	Check             gm.CheckSummary
	CheckRoll         int
	CheckTotal        int
	CheckDC           int
	EncounterAdvanced bool
	AudioNarrationURL string
}

// Action resolves an optional skill check, narrates the outcome, and
// advances the encounter on success.
func (s *Service) Action(ctx context.Context, callerID, adventureID string, input ActionInput) (ActionResult, error) {
	session, err := s.loadSession(ctx, adventureID, callerID)
	if err != nil {
		return ActionResult{}, err
	}
	action := strings.TrimSpace(input.ActionText)
	if action == "" {
		return ActionResult{}, apperrors.WithMetadata(
			apperrors.CodeValidation,
			"action text is required",
			map[string]string{"field": "action_text"},
		)
	}

	var result ActionResult
	if strings.TrimSpace(input.StatToCheck) != "" {
		character, err := s.characters.Get(ctx, session.CharacterID, callerID)
		if err != nil {
			return ActionResult{}, err
		}
		value, ok := character.Stats.Get(input.StatToCheck)
		if !ok {
			return ActionResult{}, apperrors.WithMetadata(
				apperrors.CodeAdventureStatInvalid,
				"unknown stat for skill check",
				map[string]string{"stat": input.StatToCheck},
			)
		}
		dc := input.SuggestedDC
		if dc <= 0 {
			dc = DefaultDC
		}
		check, err := dice.Check(dice.CheckRequest{
			Modifier: dice.StatModifier(value),
			DC:       dc,
			Seed:     s.seed(),
		})
		if err != nil {
			return ActionResult{}, apperrors.Wrap(apperrors.CodeInternal, "resolve skill check", err)
		}
		result.Check = gm.CheckSummary{Performed: true, Success: check.Success, Description: check.Description}
		result.CheckRoll = check.Roll
		result.CheckTotal = check.Total
		result.CheckDC = check.DC
	}

	narration, err := gm.Narrate(ctx, s.gm, session.CurrentScene(), action, result.Check)
	if err != nil {
		return ActionResult{}, apperrors.Wrap(apperrors.CodeAdventureGMFailure, "narrate action", err)
	}
	result.Narration = strings.TrimSpace(narration)

	if result.Check.Performed && result.Check.Success {
		if _, ok := session.CurrentEncounter(); ok {
			session.CurrentEncounterIndex++
			if err := s.sessions.Put(ctx, adventureID, session); err != nil {
				return ActionResult{}, apperrors.Wrap(apperrors.CodeInternal, "store adventure session", err)
			}
			result.EncounterAdvanced = true
		}
	}

	if url, err := s.media.Narration(ctx, result.Narration); err != nil {
		s.logger.Warn("narration audio generation failed", zap.Error(err))
	} else {
		result.AudioNarrationURL = url
	}
	return result, nil
}

// CompletionResult is the outcome of finishing an adventure.
type CompletionResult struct {
	Reward     quest.Reward
	Character  sheet.Character
	Conclusion string
}

// Complete ends an owned adventure: a reward is drawn and applied to
// the character together with the completion XP as one versioned
// update, then the session is discarded.
func (s *Service) Complete(ctx context.Context, callerID, adventureID string) (CompletionResult, error) {
	session, err := s.loadSession(ctx, adventureID, callerID)
	if err != nil {
		return CompletionResult{}, err
	}
	character, err := s.characters.Get(ctx, session.CharacterID, callerID)
	if err != nil {
		return CompletionResult{}, err
	}

	reward := quest.DrawReward(s.seed())
	updated, err := s.applyReward(ctx, character, reward, session.Definition.Title, callerID)
	if err != nil {
		// A stat upgrade the character cannot take is replaced with the
		// fallback trophy, keeping the completion XP.
		code := apperrors.CodeOf(err)
		if code != apperrors.CodeCharacterBudgetExceeded && code != apperrors.CodeCharacterStatOutOfRange {
			return CompletionResult{}, err
		}
		reward = quest.FallbackReward()
		updated, err = s.applyReward(ctx, character, reward, session.Definition.Title, callerID)
		if err != nil {
			return CompletionResult{}, err
		}
	}

	if err := s.sessions.Delete(ctx, adventureID); err != nil && !errors.Is(err, state.ErrNotFound) {
		return CompletionResult{}, apperrors.Wrap(apperrors.CodeInternal, "discard adventure session", err)
	}

	s.logger.Info("adventure completed",
		zap.String("adventure_id", adventureID),
		zap.String("character_id", character.ID),
		zap.String("reward", reward.Name))
	return CompletionResult{
		Reward:     reward,
		Character:  updated,
		Conclusion: session.Definition.Conclusion,
	}, nil
}

// applyReward folds a reward and the completion XP into one versioned
// character update.
func (s *Service) applyReward(ctx context.Context, character sheet.Character, reward quest.Reward, title, callerID string) (sheet.Character, error) {
	update := charapp.UpdateInput{
		ChangeDescription: fmt.Sprintf("completed adventure: %s", title),
	}
	newXP := character.ExperiencePoints + reward.ExperiencePoints
	update.ExperiencePoints = &newXP

	switch reward.Type {
	case quest.RewardStatUpgrade:
		stats := character.Stats
		value, ok := stats.Get(reward.TargetStat)
		if !ok || value >= sheet.MaxStat {
			return sheet.Character{}, apperrors.New(apperrors.CodeCharacterStatOutOfRange, "stat reward cannot be applied")
		}
		stats.Set(reward.TargetStat, value+1)
		update.Stats = &stats
	case quest.RewardNewSkill:
		skills := appendEntry(character.Skills, reward.Value)
		update.Skills = &skills
	case quest.RewardEquipment:
		inventory := appendEntry(character.Inventory, reward.Value)
		update.Inventory = &inventory
	}

	return s.characters.Update(ctx, character.ID, callerID, update)
}

func appendEntry(text, entry string) string {
	if strings.TrimSpace(text) == "" {
		return entry
	}
	return text + ", " + entry
}
