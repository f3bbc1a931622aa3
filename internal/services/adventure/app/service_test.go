package app

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"go.uber.org/zap"

	apperrors "github.com/questforge/questforge/internal/platform/errors"
	"github.com/questforge/questforge/internal/services/adventure/gm"
	"github.com/questforge/questforge/internal/services/adventure/quest"
	"github.com/questforge/questforge/internal/services/adventure/state"
	charapp "github.com/questforge/questforge/internal/services/character/app"
	"github.com/questforge/questforge/internal/services/character/sheet"
	"github.com/questforge/questforge/internal/services/character/storage/sqlite"
)

const sampleAdventureText = `Adventure Title: The Sunken Bell
Overall Goal: Recover the bronze bell from the flooded crypt.

Encounter 1:
Description: The crypt entrance is half submerged in cold water.
Challenge/Objective: Find a way past the rusted portcullis.
Potential Outcomes/Paths: Force it, pick the lock, or find the drain.

Encounter 2:
Description: The bell chamber echoes with dripping water.
Challenge/Objective: Raise the bell without waking what sleeps below.
Potential Outcomes/Paths: A careful lift succeeds; noise draws the warden.

Conclusion: The bell rings again over the village square.
`

// scriptedGM answers generation prompts with adventure text and
// everything else with narration.
type scriptedGM struct {
	adventureText string
	narration     string
	generateErr   error
	narrateErr    error
	prompts       []string
}

func (c *scriptedGM) Invoke(_ context.Context, _ string, prompt string) (string, error) {
	c.prompts = append(c.prompts, prompt)
	if strings.Contains(prompt, "Adventure Title:") {
		if c.generateErr != nil {
			return "", c.generateErr
		}
		return c.adventureText, nil
	}
	if c.narrateErr != nil {
		return "", c.narrateErr
	}
	return c.narration, nil
}

type fixture struct {
	svc        *Service
	characters *charapp.Service
	sessions   *state.MemoryStore
	gm         *scriptedGM
}

func newFixture(t *testing.T, seed int64) *fixture {
	t.Helper()
	store, err := sqlite.Open(filepath.Join(t.TempDir(), "characters.db"))
	if err != nil {
		t.Fatalf("open character store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	characters, err := charapp.NewService(store, zap.NewNop())
	if err != nil {
		t.Fatalf("character service: %v", err)
	}

	client := &scriptedGM{
		adventureText: sampleAdventureText,
		narration:     "The portcullis groans upward and dark water rushes past your boots.",
	}
	sessions := state.NewMemoryStore()
	svc, err := NewService(characters, client, nil, sessions, zap.NewNop(),
		WithSeed(func() int64 { return seed }))
	if err != nil {
		t.Fatalf("adventure service: %v", err)
	}
	return &fixture{svc: svc, characters: characters, sessions: sessions, gm: client}
}

func (f *fixture) createCharacter(t *testing.T, ownerID string, stats sheet.Stats) sheet.Character {
	t.Helper()
	character, err := f.characters.Create(context.Background(), ownerID, charapp.CreateInput{
		Name:  "Tess of the Vale",
		Stats: stats,
	})
	if err != nil {
		t.Fatalf("create character: %v", err)
	}
	return character
}

func balancedStats() sheet.Stats {
	return sheet.Stats{Strength: 10, Dexterity: 10, Intelligence: 10, Charisma: 10}
}

func errorCode(t *testing.T, err error) apperrors.Code {
	t.Helper()
	if err == nil {
		t.Fatal("expected an error")
	}
	return apperrors.CodeOf(err)
}

func TestGenerateParsesAdventure(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	character := f.createCharacter(t, "user-alice", balancedStats())

	adventure, err := f.svc.Generate(ctx, "user-alice", character.ID, quest.Preferences{Theme: "mystery"})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if adventure.ID == "" || adventure.CharacterID != character.ID {
		t.Fatalf("adventure = %+v", adventure)
	}
	if adventure.Definition.Title != "The Sunken Bell" {
		t.Fatalf("title = %q", adventure.Definition.Title)
	}
	if len(adventure.Definition.Encounters) != 2 {
		t.Fatalf("encounters = %d", len(adventure.Definition.Encounters))
	}
	if !strings.Contains(f.gm.prompts[0], "Tess of the Vale") || !strings.Contains(f.gm.prompts[0], "mystery") {
		t.Fatalf("generation prompt missing character or preferences: %q", f.gm.prompts[0])
	}

	session, err := f.sessions.Get(ctx, adventure.ID)
	if err != nil {
		t.Fatalf("session not stored: %v", err)
	}
	if session.OwnerID != "user-alice" || session.CurrentEncounterIndex != 0 {
		t.Fatalf("session = %+v", session)
	}
}

func TestGenerateFallsBackWhenModelFails(t *testing.T) {
	f := newFixture(t, 1)
	f.gm.generateErr = errors.New("provider status 500")
	character := f.createCharacter(t, "user-alice", balancedStats())

	adventure, err := f.svc.Generate(context.Background(), "user-alice", character.ID, quest.Preferences{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if adventure.Definition.Title != gm.FallbackDefinition().Title {
		t.Fatalf("title = %q, want the fallback adventure", adventure.Definition.Title)
	}
}

func TestGenerateRequiresOwnership(t *testing.T) {
	f := newFixture(t, 1)
	ctx := context.Background()
	character := f.createCharacter(t, "user-alice", balancedStats())

	if _, err := f.svc.Generate(ctx, "user-bob", character.ID, quest.Preferences{}); errorCode(t, err) != apperrors.CodeNotFound {
		t.Fatalf("code = %v, want NOT_FOUND for a hidden character", apperrors.CodeOf(err))
	}

	if _, err := f.characters.Share(ctx, character.ID, "user-alice", true); err != nil {
		t.Fatalf("share: %v", err)
	}
	if _, err := f.svc.Generate(ctx, "user-bob", character.ID, quest.Preferences{}); errorCode(t, err) != apperrors.CodeCharacterNotOwned {
		t.Fatalf("code = %v, want CHARACTER_NOT_OWNED for a public character", apperrors.CodeOf(err))
	}
}

func startAdventure(t *testing.T, f *fixture, ownerID string) (Adventure, sheet.Character) {
	t.Helper()
	character := f.createCharacter(t, ownerID, balancedStats())
	adventure, err := f.svc.Generate(context.Background(), ownerID, character.ID, quest.Preferences{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	return adventure, character
}

func TestActionWithSuccessfulCheckAdvancesEncounter(t *testing.T) {
	f := newFixture(t, 7)
	ctx := context.Background()
	adventure, _ := startAdventure(t, f, "user-alice")

	// DC 1 cannot be missed with a non-negative modifier.
	result, err := f.svc.Action(ctx, "user-alice", adventure.ID, ActionInput{
		ActionText:  "I wedge my crowbar under the portcullis and heave.",
		StatToCheck: "strength",
		SuggestedDC: 1,
	})
	if err != nil {
		t.Fatalf("Action: %v", err)
	}
	if !result.Check.Performed || !result.Check.Success {
		t.Fatalf("check = %+v, want a performed success", result.Check)
	}
	if result.CheckDC != 1 || result.CheckTotal < result.CheckDC {
		t.Fatalf("check totals = %+v", result)
	}
	if !result.EncounterAdvanced {
		t.Fatal("successful check did not advance the encounter")
	}
	if result.Narration == "" {
		t.Fatal("narration is empty")
	}

	session, err := f.sessions.Get(ctx, adventure.ID)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if session.CurrentEncounterIndex != 1 {
		t.Fatalf("encounter index = %d, want 1", session.CurrentEncounterIndex)
	}
}

func TestActionWithFailedCheckHoldsPosition(t *testing.T) {
	f := newFixture(t, 7)
	ctx := context.Background()
	adventure, _ := startAdventure(t, f, "user-alice")

	// DC 100 cannot be reached on 1d20.
	result, err := f.svc.Action(ctx, "user-alice", adventure.ID, ActionInput{
		ActionText:  "I try to lift the portcullis barehanded.",
		StatToCheck: "strength",
		SuggestedDC: 100,
	})
	if err != nil {
		t.Fatalf("Action: %v", err)
	}
	if !result.Check.Performed || result.Check.Success {
		t.Fatalf("check = %+v, want a performed failure", result.Check)
	}
	if result.EncounterAdvanced {
		t.Fatal("failed check advanced the encounter")
	}

	session, err := f.sessions.Get(ctx, adventure.ID)
	if err != nil {
		t.Fatalf("session: %v", err)
	}
	if session.CurrentEncounterIndex != 0 {
		t.Fatalf("encounter index = %d, want 0", session.CurrentEncounterIndex)
	}
}

func TestActionWithoutCheckNarratesOnly(t *testing.T) {
	f := newFixture(t, 7)
	adventure, _ := startAdventure(t, f, "user-alice")

	result, err := f.svc.Action(context.Background(), "user-alice", adventure.ID, ActionInput{
		ActionText: "I study the carvings above the gate.",
	})
	if err != nil {
		t.Fatalf("Action: %v", err)
	}
	if result.Check.Performed || result.EncounterAdvanced {
		t.Fatalf("result = %+v, want no check and no advance", result)
	}
	last := f.gm.prompts[len(f.gm.prompts)-1]
	if !strings.Contains(last, "does not require a skill check") {
		t.Fatalf("narration prompt = %q", last)
	}
}

func TestActionValidation(t *testing.T) {
	f := newFixture(t, 7)
	ctx := context.Background()
	adventure, _ := startAdventure(t, f, "user-alice")

	_, err := f.svc.Action(ctx, "user-alice", adventure.ID, ActionInput{ActionText: "   "})
	if errorCode(t, err) != apperrors.CodeValidation {
		t.Fatalf("blank action code = %v", apperrors.CodeOf(err))
	}

	_, err = f.svc.Action(ctx, "user-alice", adventure.ID, ActionInput{
		ActionText:  "I flex my luck.",
		StatToCheck: "luck",
	})
	if errorCode(t, err) != apperrors.CodeAdventureStatInvalid {
		t.Fatalf("unknown stat code = %v", apperrors.CodeOf(err))
	}

	_, err = f.svc.Action(ctx, "user-alice", "missing-adventure", ActionInput{ActionText: "hello?"})
	if errorCode(t, err) != apperrors.CodeAdventureNotFound {
		t.Fatalf("missing adventure code = %v", apperrors.CodeOf(err))
	}

	_, err = f.svc.Action(ctx, "user-bob", adventure.ID, ActionInput{ActionText: "I butt in."})
	if errorCode(t, err) != apperrors.CodeAdventureNotOwned {
		t.Fatalf("stranger code = %v", apperrors.CodeOf(err))
	}
}

func TestActionSurfacesNarrationFailure(t *testing.T) {
	f := newFixture(t, 7)
	adventure, _ := startAdventure(t, f, "user-alice")
	f.gm.narrateErr = errors.New("provider status 503")

	_, err := f.svc.Action(context.Background(), "user-alice", adventure.ID, ActionInput{
		ActionText: "I knock on the gate.",
	})
	if errorCode(t, err) != apperrors.CodeAdventureGMFailure {
		t.Fatalf("code = %v, want ADVENTURE_GM_FAILURE", apperrors.CodeOf(err))
	}
}

func TestCompleteAppliesRewardAndXP(t *testing.T) {
	const seed = 42
	f := newFixture(t, seed)
	ctx := context.Background()
	adventure, character := startAdventure(t, f, "user-alice")

	result, err := f.svc.Complete(ctx, "user-alice", adventure.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	expected := quest.DrawReward(seed)
	if result.Reward.Name != expected.Name {
		t.Fatalf("reward = %q, want %q", result.Reward.Name, expected.Name)
	}
	if result.Reward.ExperiencePoints != quest.CompletionXP {
		t.Fatalf("reward xp = %d", result.Reward.ExperiencePoints)
	}
	if result.Conclusion != adventure.Definition.Conclusion {
		t.Fatalf("conclusion = %q", result.Conclusion)
	}

	updated := result.Character
	if updated.ExperiencePoints != character.ExperiencePoints+quest.CompletionXP {
		t.Fatalf("xp = %d, want %d", updated.ExperiencePoints, character.ExperiencePoints+quest.CompletionXP)
	}
	if updated.Version != character.Version+1 {
		t.Fatalf("version = %d, want %d", updated.Version, character.Version+1)
	}
	switch expected.Type {
	case quest.RewardStatUpgrade:
		before, _ := character.Stats.Get(expected.TargetStat)
		after, _ := updated.Stats.Get(expected.TargetStat)
		if after != before+1 {
			t.Fatalf("%s = %d, want %d", expected.TargetStat, after, before+1)
		}
	case quest.RewardNewSkill:
		if !strings.Contains(updated.Skills, expected.Value) {
			t.Fatalf("skills = %q missing %q", updated.Skills, expected.Value)
		}
	case quest.RewardEquipment:
		if !strings.Contains(updated.Inventory, expected.Value) {
			t.Fatalf("inventory = %q missing %q", updated.Inventory, expected.Value)
		}
	}

	if _, err := f.sessions.Get(ctx, adventure.ID); !errors.Is(err, state.ErrNotFound) {
		t.Fatalf("session still live after completion: %v", err)
	}
	if _, err := f.svc.Complete(ctx, "user-alice", adventure.ID); errorCode(t, err) != apperrors.CodeAdventureNotFound {
		t.Fatalf("double completion code = %v", apperrors.CodeOf(err))
	}
}

func TestCompleteFallsBackWhenStatRewardCannotApply(t *testing.T) {
	// Find a seed that draws a stat upgrade, then cap that stat so the
	// upgrade cannot land.
	var seed int64
	var drawn quest.Reward
	for s := int64(0); s < 256; s++ {
		if r := quest.DrawReward(s); r.Type == quest.RewardStatUpgrade {
			seed, drawn = s, r
			break
		}
	}
	if drawn.Type != quest.RewardStatUpgrade {
		t.Fatal("no stat upgrade drawn in 256 seeds")
	}

	f := newFixture(t, seed)
	ctx := context.Background()

	stats := sheet.Stats{Strength: 8, Dexterity: 8, Intelligence: 8, Charisma: 8}
	stats.Set(drawn.TargetStat, sheet.MaxStat)
	character := f.createCharacter(t, "user-alice", stats)
	adventure, err := f.svc.Generate(ctx, "user-alice", character.ID, quest.Preferences{})
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	result, err := f.svc.Complete(ctx, "user-alice", adventure.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	fallback := quest.FallbackReward()
	if result.Reward.Name != fallback.Name {
		t.Fatalf("reward = %q, want %q", result.Reward.Name, fallback.Name)
	}
	if !strings.Contains(result.Character.Inventory, fallback.Value) {
		t.Fatalf("inventory = %q missing the trophy", result.Character.Inventory)
	}
	if result.Character.ExperiencePoints != quest.CompletionXP {
		t.Fatalf("xp = %d, want %d", result.Character.ExperiencePoints, quest.CompletionXP)
	}
}
