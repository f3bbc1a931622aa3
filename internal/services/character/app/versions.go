package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/questforge/questforge/internal/platform/errors"
	"github.com/questforge/questforge/internal/services/character/sheet"
	"github.com/questforge/questforge/internal/services/character/storage"
)

// Version is one point-in-time snapshot of a character.
type Version struct {
	ID                string
	CharacterID       string
	VersionNumber     int
	State             VersionState
	ChangeDescription string
	CreatedBy         string
	CreatedAt         time.Time
}

// VersionState is the captured character state inside a snapshot.
type VersionState struct {
	Name              string      `json:"name"`
	Stats             sheet.Stats `json:"stats"`
	PersonalityTraits string      `json:"personality_traits"`
	Skills            string      `json:"skills"`
	Inventory         string      `json:"inventory"`
	Version           int         `json:"version"`
	IsTemplate        bool        `json:"is_template"`
	IsPublic          bool        `json:"is_public"`
	ExperiencePoints  int         `json:"experience_points"`
	CharacterLevel    int         `json:"character_level"`
}

func versionFromRecord(record storage.VersionRecord) (Version, error) {
	var state VersionState
	if err := json.Unmarshal(record.Snapshot, &state); err != nil {
		return Version{}, apperrors.Wrap(apperrors.CodeInternal, "decode character snapshot", err)
	}
	return Version{
		ID:                record.ID,
		CharacterID:       record.CharacterID,
		VersionNumber:     record.VersionNumber,
		State:             state,
		ChangeDescription: record.ChangeDescription,
		CreatedBy:         record.CreatedBy,
		CreatedAt:         record.CreatedAt,
	}, nil
}

// ListVersions returns an owned character's snapshot history, newest
// first.
func (s *Service) ListVersions(ctx context.Context, characterID, callerID string) ([]Version, error) {
	if _, err := s.loadOwned(ctx, characterID, callerID); err != nil {
		return nil, err
	}
	records, err := s.store.ListVersions(ctx, characterID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "list character versions", err)
	}
	versions := make([]Version, 0, len(records))
	for _, record := range records {
		version, err := versionFromRecord(record)
		if err != nil {
			return nil, err
		}
		versions = append(versions, version)
	}
	return versions, nil
}

// Snapshot records the character's current state as a manual snapshot
// without changing the character.
func (s *Service) Snapshot(ctx context.Context, characterID, callerID, description string) (Version, error) {
	character, err := s.loadOwned(ctx, characterID, callerID)
	if err != nil {
		return Version{}, err
	}
	if description == "" {
		description = "manual snapshot"
	}
	if err := s.appendSnapshot(ctx, character, description, callerID); err != nil {
		return Version{}, err
	}
	record, err := s.store.GetVersion(ctx, characterID, character.Version)
	if err != nil {
		return Version{}, apperrors.Wrap(apperrors.CodeInternal, "read character snapshot", err)
	}
	return versionFromRecord(record)
}

// Restore rolls a character back to a prior snapshot. The pre-restore
// state is snapshotted first so the rollback itself is reversible.
func (s *Service) Restore(ctx context.Context, characterID, callerID string, versionNumber int) (sheet.Character, error) {
	character, err := s.loadOwned(ctx, characterID, callerID)
	if err != nil {
		return sheet.Character{}, err
	}
	record, err := s.store.GetVersion(ctx, characterID, versionNumber)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return sheet.Character{}, apperrors.WithMetadata(
				apperrors.CodeCharacterVersionMissing,
				"character has no snapshot at that version",
				map[string]string{"version": fmt.Sprintf("%d", versionNumber)},
			)
		}
		return sheet.Character{}, apperrors.Wrap(apperrors.CodeInternal, "read character snapshot", err)
	}
	target, err := versionFromRecord(record)
	if err != nil {
		return sheet.Character{}, err
	}

	restored := character
	restored.Name = target.State.Name
	restored.Stats = target.State.Stats
	restored.PersonalityTraits = target.State.PersonalityTraits
	restored.Skills = target.State.Skills
	restored.Inventory = target.State.Inventory
	restored.ExperiencePoints = target.State.ExperiencePoints
	restored.CharacterLevel = target.State.CharacterLevel

	description := fmt.Sprintf("restored to version %d", versionNumber)
	updated, err := s.persistUpdate(ctx, character, restored, callerID, description)
	if err != nil {
		return sheet.Character{}, err
	}
	s.logger.Info("character restored",
		zap.String("character_id", characterID),
		zap.Int("restored_version", versionNumber),
		zap.Int("new_version", updated.Version))
	return updated, nil
}
