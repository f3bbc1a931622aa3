package app

import (
	"context"
	"testing"

	apperrors "github.com/questforge/questforge/internal/platform/errors"
)

func TestSeedSkillsPopulatesCatalog(t *testing.T) {
	t.Parallel()
	service, _, _ := newTestService(t)
	ctx := context.Background()

	created, err := service.SeedSkills(ctx)
	if err != nil {
		t.Fatalf("SeedSkills: %v", err)
	}
	if created != len(defaultSkillCatalog) {
		t.Fatalf("created = %d, want %d", created, len(defaultSkillCatalog))
	}

	skills, err := service.ListSkills(ctx)
	if err != nil {
		t.Fatalf("ListSkills: %v", err)
	}
	if len(skills) != len(defaultSkillCatalog) {
		t.Fatalf("catalog size = %d, want %d", len(skills), len(defaultSkillCatalog))
	}

	again, err := service.SeedSkills(ctx)
	if err != nil {
		t.Fatalf("SeedSkills again: %v", err)
	}
	if again != 0 {
		t.Fatalf("second seed created %d skills, want 0", again)
	}
}

func TestSeededSkillsAreAcquirable(t *testing.T) {
	t.Parallel()
	service, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := service.SeedSkills(ctx); err != nil {
		t.Fatalf("SeedSkills: %v", err)
	}

	stats := balancedStats()
	stats.Strength = 12
	character, err := service.Create(ctx, "owner-1", CreateInput{
		Name:  "Sword Student",
		Stats: stats,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if _, err := service.AcquireSkill(ctx, character.ID, "sword-fighting", "owner-1"); apperrors.CodeOf(err) != apperrors.CodeCharacterSkillUnmet {
		t.Fatalf("acquisition without XP err = %v, want skill unmet", err)
	}

	xp := 100
	if _, err := service.Update(ctx, character.ID, "owner-1", UpdateInput{
		ExperiencePoints:  &xp,
		ChangeDescription: "training montage",
	}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	acquired, err := service.AcquireSkill(ctx, character.ID, "sword-fighting", "owner-1")
	if err != nil {
		t.Fatalf("AcquireSkill: %v", err)
	}
	if acquired.SkillID != "sword-fighting" || acquired.SkillLevel != 1 {
		t.Fatalf("acquired = %+v, want sword-fighting at level 1", acquired)
	}

	if _, err := service.AcquireSkill(ctx, character.ID, "dual-wielding", "owner-1"); apperrors.CodeOf(err) != apperrors.CodeCharacterSkillUnmet {
		t.Fatalf("dual-wielding err = %v, want skill unmet", err)
	}
}
