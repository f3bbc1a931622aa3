// Package storage defines persistence contracts for character service
// state.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested character record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
)

// CharacterRecord stores one player character row.
type CharacterRecord struct {
	ID                string
	OwnerID           string
	Name              string
	Strength          int
	Dexterity         int
	Intelligence      int
	Charisma          int
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

// VersionRecord stores one immutable snapshot of a character.
type VersionRecord struct {
	ID                string
	CharacterID       string
	VersionNumber     int
	Snapshot          []byte
	ChangeDescription string
	CreatedBy         string
	CreatedAt         time.Time
}

// EquipmentRecord stores one item row.
type EquipmentRecord struct {
	ID            string
	CharacterID   string
	Name          string
	Description   string
	EquipmentType string
	StatModifiers []byte
	IsEquipped    bool
	CreatedAt     time.Time
}

// SkillRecord stores one catalog skill.
type SkillRecord struct {
	ID               string
	Name             string
	Description      string
	Category         string
	StatRequirements []byte
	XPCost           int
	Prerequisites    []byte
	CreatedAt        time.Time
}

// CharacterSkillRecord links an acquired skill to a character.
type CharacterSkillRecord struct {
	CharacterID string
	SkillID     string
	SkillLevel  int
	AcquiredAt  time.Time
}

// SearchFilter narrows and orders character listings.
type SearchFilter struct {
	OwnerID      string
	NameContains string
	MinLevel     int
	MaxLevel     int
	TemplateOnly bool
	PublicOnly   bool
	// OrderBy is one of name, level, created_at. Ties always break by
	// id ascending.
	OrderBy string
	Limit   int
	Offset  int
}

// CharacterStore persists character rows.
type CharacterStore interface {
	CreateCharacter(ctx context.Context, record CharacterRecord) error
	GetCharacter(ctx context.Context, id string) (CharacterRecord, error)
	UpdateCharacter(ctx context.Context, record CharacterRecord) error
	DeleteCharacter(ctx context.Context, id string) error
	SearchCharacters(ctx context.Context, filter SearchFilter) ([]CharacterRecord, error)
}

// VersionStore persists append-only character snapshots.
type VersionStore interface {
	AppendVersion(ctx context.Context, record VersionRecord) error
	ListVersions(ctx context.Context, characterID string) ([]VersionRecord, error)
	GetVersion(ctx context.Context, characterID string, versionNumber int) (VersionRecord, error)
}

// EquipmentStore persists equipment rows.
type EquipmentStore interface {
	CreateEquipment(ctx context.Context, record EquipmentRecord) error
	GetEquipment(ctx context.Context, id string) (EquipmentRecord, error)
	ListEquipment(ctx context.Context, characterID string) ([]EquipmentRecord, error)
	UpdateEquipment(ctx context.Context, record EquipmentRecord) error
	DeleteEquipment(ctx context.Context, id string) error
}

// SkillStore persists the skill catalog and acquisitions.
type SkillStore interface {
	CreateSkill(ctx context.Context, record SkillRecord) error
	GetSkill(ctx context.Context, id string) (SkillRecord, error)
	ListSkills(ctx context.Context) ([]SkillRecord, error)
	AcquireSkill(ctx context.Context, record CharacterSkillRecord) error
	ListCharacterSkills(ctx context.Context, characterID string) ([]CharacterSkillRecord, error)
}

// Store bundles every character persistence contract.
type Store interface {
	CharacterStore
	VersionStore
	EquipmentStore
	SkillStore
}
