package sheet

import (
	"encoding/json"
	"testing"
	"time"

	apperrors "github.com/questforge/questforge/internal/platform/errors"
)

func TestValidateNameBounds(t *testing.T) {
	if _, err := ValidateName("  Torvin  "); err != nil {
		t.Fatalf("valid name rejected: %v", err)
	}
	name, _ := ValidateName("  Torvin  ")
	if name != "Torvin" {
		t.Fatalf("name = %q, want trimmed", name)
	}

	for _, bad := range []string{"", "x", "  a  ", string(make([]byte, 51))} {
		if _, err := ValidateName(bad); apperrors.CodeOf(err) != apperrors.CodeCharacterNameInvalid {
			t.Fatalf("ValidateName(%q) code = %v", bad, apperrors.CodeOf(err))
		}
	}
}

func TestPointCostOf(t *testing.T) {
	cases := []struct {
		value int
		want  int
	}{
		{8, 0},
		{9, 1},
		{13, 5},
		{14, 7},
		{16, 11},
		{17, 14},
		{18, 17},
	}
	for _, tc := range cases {
		if got := PointCostOf(tc.value); got != tc.want {
			t.Fatalf("PointCostOf(%d) = %d, want %d", tc.value, got, tc.want)
		}
	}
}

func TestValidateCreationStats(t *testing.T) {
	// 10,10,10,10 costs 8 points.
	ok := Stats{Strength: 10, Dexterity: 10, Intelligence: 10, Charisma: 10}
	if err := ValidateCreationStats(ok); err != nil {
		t.Fatalf("valid stats rejected: %v", err)
	}

	// 13,13,13,13 costs exactly 20.
	boundary := Stats{Strength: 13, Dexterity: 13, Intelligence: 13, Charisma: 13}
	if err := ValidateCreationStats(boundary); err != nil {
		t.Fatalf("boundary stats rejected: %v", err)
	}

	// 14,13,13,13 costs 22.
	over := Stats{Strength: 14, Dexterity: 13, Intelligence: 13, Charisma: 13}
	if err := ValidateCreationStats(over); apperrors.CodeOf(err) != apperrors.CodeCharacterBudgetExceeded {
		t.Fatalf("over-budget code = %v", apperrors.CodeOf(err))
	}

	outOfRange := Stats{Strength: 7, Dexterity: 10, Intelligence: 10, Charisma: 10}
	if err := ValidateCreationStats(outOfRange); apperrors.CodeOf(err) != apperrors.CodeCharacterStatOutOfRange {
		t.Fatalf("out-of-range code = %v", apperrors.CodeOf(err))
	}

	tooHigh := Stats{Strength: 19, Dexterity: 8, Intelligence: 8, Charisma: 8}
	if err := ValidateCreationStats(tooHigh); apperrors.CodeOf(err) != apperrors.CodeCharacterStatOutOfRange {
		t.Fatalf("too-high code = %v", apperrors.CodeOf(err))
	}
}

func TestStatsGetSet(t *testing.T) {
	var stats Stats
	for _, name := range StatNames {
		if !stats.Set(name, 12) {
			t.Fatalf("Set(%q) failed", name)
		}
		value, ok := stats.Get(name)
		if !ok || value != 12 {
			t.Fatalf("Get(%q) = %d, %v", name, value, ok)
		}
	}
	if stats.Set("luck", 10) {
		t.Fatal("unknown stat accepted")
	}
	if _, ok := stats.Get("luck"); ok {
		t.Fatal("unknown stat returned")
	}
}

func TestValidateProgression(t *testing.T) {
	current := Character{CharacterLevel: 1, ExperiencePoints: 0}

	if err := ValidateProgression(current, 2, 1000); err != nil {
		t.Fatalf("earned level rejected: %v", err)
	}
	if err := ValidateProgression(current, 2, 999); apperrors.CodeOf(err) != apperrors.CodeCharacterProgression {
		t.Fatalf("unearned level code = %v", apperrors.CodeOf(err))
	}
	if err := ValidateProgression(current, 3, 5000); apperrors.CodeOf(err) != apperrors.CodeCharacterProgression {
		t.Fatalf("level jump code = %v", apperrors.CodeOf(err))
	}

	leveled := Character{CharacterLevel: 3, ExperiencePoints: 2500}
	if err := ValidateProgression(leveled, 2, 2500); apperrors.CodeOf(err) != apperrors.CodeCharacterProgression {
		t.Fatalf("level decrease code = %v", apperrors.CodeOf(err))
	}
	if err := ValidateProgression(leveled, 3, 2000); apperrors.CodeOf(err) != apperrors.CodeCharacterProgression {
		t.Fatalf("xp decrease code = %v", apperrors.CodeOf(err))
	}
	if err := ValidateProgression(leveled, 3, 2600); err != nil {
		t.Fatalf("xp gain rejected: %v", err)
	}
}

func TestStatUpgradesAllowed(t *testing.T) {
	cases := map[int]int{1: 0, 4: 0, 5: 1, 9: 1, 10: 2}
	for level, want := range cases {
		if got := StatUpgradesAllowed(level); got != want {
			t.Fatalf("StatUpgradesAllowed(%d) = %d, want %d", level, got, want)
		}
	}
}

func TestExportRoundTrip(t *testing.T) {
	character := Character{
		Name:              "Torvin",
		Stats:             Stats{Strength: 12, Dexterity: 10, Intelligence: 14, Charisma: 9},
		PersonalityTraits: "stoic, curious",
		Skills:            "tracking",
		Inventory:         "rope, torch",
		ExperiencePoints:  2100,
		CharacterLevel:    3,
	}
	export := NewExport(character, time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC))
	if export.FormatVersion != "1.0.0" {
		t.Fatalf("format version = %q", export.FormatVersion)
	}

	payload, err := json.Marshal(export)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	parsed, err := ParseExport(payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if parsed.Name != character.Name ||
		parsed.Stats != character.Stats ||
		parsed.PersonalityTraits != character.PersonalityTraits ||
		parsed.Skills != character.Skills ||
		parsed.Inventory != character.Inventory ||
		parsed.ExperiencePoints != character.ExperiencePoints ||
		parsed.CharacterLevel != character.CharacterLevel {
		t.Fatalf("round trip mismatch: %+v", parsed)
	}
}

func TestParseExportRejectsBadPayloads(t *testing.T) {
	cases := map[string]string{
		"not json":      `{`,
		"wrong version": `{"format_version":"2.0.0","name":"Torvin","stats":{"strength":10,"dexterity":10,"intelligence":10,"charisma":10}}`,
		"bad name":      `{"format_version":"1.0.0","name":"x","stats":{"strength":10,"dexterity":10,"intelligence":10,"charisma":10}}`,
		"stats range":   `{"format_version":"1.0.0","name":"Torvin","stats":{"strength":30,"dexterity":10,"intelligence":10,"charisma":10}}`,
		"negative xp":   `{"format_version":"1.0.0","name":"Torvin","stats":{"strength":10,"dexterity":10,"intelligence":10,"charisma":10},"experience_points":-5}`,
	}
	for label, payload := range cases {
		if _, err := ParseExport([]byte(payload)); apperrors.CodeOf(err) != apperrors.CodeCharacterImportInvalid {
			t.Fatalf("%s: code = %v, want import invalid", label, apperrors.CodeOf(err))
		}
	}
}

func TestCheckSkillRequirements(t *testing.T) {
	character := Character{
		Stats:            Stats{Strength: 14, Dexterity: 10, Intelligence: 9, Charisma: 8},
		ExperiencePoints: 500,
	}
	skill := Skill{
		Name:             "Cleave",
		Category:         SkillCombat,
		StatRequirements: map[string]int{"strength": 13},
		XPCost:           300,
	}
	if err := CheckSkillRequirements(character, skill); err != nil {
		t.Fatalf("qualified skill rejected: %v", err)
	}

	skill.StatRequirements["strength"] = 16
	if err := CheckSkillRequirements(character, skill); apperrors.CodeOf(err) != apperrors.CodeCharacterSkillUnmet {
		t.Fatalf("stat gate code = %v", apperrors.CodeOf(err))
	}

	skill.StatRequirements["strength"] = 13
	skill.XPCost = 900
	if err := CheckSkillRequirements(character, skill); apperrors.CodeOf(err) != apperrors.CodeCharacterSkillUnmet {
		t.Fatalf("xp gate code = %v", apperrors.CodeOf(err))
	}
}

func TestParseEnums(t *testing.T) {
	if _, err := ParseEquipmentType(" Weapon "); err != nil {
		t.Fatalf("weapon rejected: %v", err)
	}
	if _, err := ParseEquipmentType("hat"); err == nil {
		t.Fatal("unknown equipment type accepted")
	}
	if _, err := ParseSkillCategory("MAGIC"); err != nil {
		t.Fatalf("magic rejected: %v", err)
	}
	if _, err := ParseSkillCategory("dance"); err == nil {
		t.Fatal("unknown skill category accepted")
	}
}
