package app

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	apperrors "github.com/questforge/questforge/internal/platform/errors"
	"github.com/questforge/questforge/internal/services/character/sheet"
	"github.com/questforge/questforge/internal/services/character/storage"
)

func equipmentFromRecord(record storage.EquipmentRecord) (sheet.Equipment, error) {
	var modifiers map[string]int
	if len(record.StatModifiers) > 0 {
		if err := json.Unmarshal(record.StatModifiers, &modifiers); err != nil {
			return sheet.Equipment{}, apperrors.Wrap(apperrors.CodeInternal, "decode equipment modifiers", err)
		}
	}
	return sheet.Equipment{
		ID:            record.ID,
		CharacterID:   record.CharacterID,
		Name:          record.Name,
		Description:   record.Description,
		EquipmentType: sheet.EquipmentType(record.EquipmentType),
		StatModifiers: modifiers,
		IsEquipped:    record.IsEquipped,
		CreatedAt:     record.CreatedAt,
	}, nil
}

func recordFromEquipment(item sheet.Equipment) (storage.EquipmentRecord, error) {
	var modifiers []byte
	if len(item.StatModifiers) > 0 {
		payload, err := json.Marshal(item.StatModifiers)
		if err != nil {
			return storage.EquipmentRecord{}, apperrors.Wrap(apperrors.CodeInternal, "encode equipment modifiers", err)
		}
		modifiers = payload
	}
	return storage.EquipmentRecord{
		ID:            item.ID,
		CharacterID:   item.CharacterID,
		Name:          item.Name,
		Description:   item.Description,
		EquipmentType: string(item.EquipmentType),
		StatModifiers: modifiers,
		IsEquipped:    item.IsEquipped,
		CreatedAt:     item.CreatedAt,
	}, nil
}

// EquipmentInput describes a new item for a character.
type EquipmentInput struct {
	Name          string
	Description   string
	EquipmentType string
	StatModifiers map[string]int
}

// AddEquipment attaches an item to an owned character.
func (s *Service) AddEquipment(ctx context.Context, characterID, callerID string, input EquipmentInput) (sheet.Equipment, error) {
	if _, err := s.loadOwned(ctx, characterID, callerID); err != nil {
		return sheet.Equipment{}, err
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return sheet.Equipment{}, apperrors.WithMetadata(
			apperrors.CodeValidation,
			"equipment name is required",
			map[string]string{"field": "name"},
		)
	}
	equipmentType, err := sheet.ParseEquipmentType(input.EquipmentType)
	if err != nil {
		return sheet.Equipment{}, err
	}

	item := sheet.Equipment{
		ID:            s.newID(),
		CharacterID:   characterID,
		Name:          name,
		Description:   strings.TrimSpace(input.Description),
		EquipmentType: equipmentType,
		StatModifiers: input.StatModifiers,
		CreatedAt:     s.now().UTC(),
	}
	record, err := recordFromEquipment(item)
	if err != nil {
		return sheet.Equipment{}, err
	}
	if err := s.store.CreateEquipment(ctx, record); err != nil {
		return sheet.Equipment{}, apperrors.Wrap(apperrors.CodeInternal, "create equipment", err)
	}
	return item, nil
}

// ListCharacterEquipment returns a visible character's items.
func (s *Service) ListCharacterEquipment(ctx context.Context, characterID, callerID string) ([]sheet.Equipment, error) {
	if _, err := s.Get(ctx, characterID, callerID); err != nil {
		return nil, err
	}
	records, err := s.store.ListEquipment(ctx, characterID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.CodeInternal, "list equipment", err)
	}
	items := make([]sheet.Equipment, 0, len(records))
	for _, record := range records {
		item, err := equipmentFromRecord(record)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, nil
}

// loadOwnedEquipment fetches an item and verifies the caller owns the
// character it belongs to.
func (s *Service) loadOwnedEquipment(ctx context.Context, equipmentID, callerID string) (sheet.Equipment, error) {
	record, err := s.store.GetEquipment(ctx, equipmentID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return sheet.Equipment{}, apperrors.New(apperrors.CodeNotFound, "equipment not found")
		}
		return sheet.Equipment{}, apperrors.Wrap(apperrors.CodeInternal, "load equipment", err)
	}
	item, err := equipmentFromRecord(record)
	if err != nil {
		return sheet.Equipment{}, err
	}
	character, err := s.load(ctx, item.CharacterID)
	if err != nil {
		return sheet.Equipment{}, err
	}
	if character.OwnerID != callerID {
		return sheet.Equipment{}, apperrors.New(apperrors.CodeCharacterEquipmentOwner, "equipment belongs to another user's character")
	}
	return item, nil
}

// SetEquipped flips an item's equipped flag.
func (s *Service) SetEquipped(ctx context.Context, equipmentID, callerID string, equipped bool) (sheet.Equipment, error) {
	item, err := s.loadOwnedEquipment(ctx, equipmentID, callerID)
	if err != nil {
		return sheet.Equipment{}, err
	}
	if item.IsEquipped == equipped {
		return item, nil
	}
	item.IsEquipped = equipped
	record, err := recordFromEquipment(item)
	if err != nil {
		return sheet.Equipment{}, err
	}
	if err := s.store.UpdateEquipment(ctx, record); err != nil {
		return sheet.Equipment{}, apperrors.Wrap(apperrors.CodeInternal, "update equipment", err)
	}
	return item, nil
}

// RemoveEquipment deletes an item from an owned character.
func (s *Service) RemoveEquipment(ctx context.Context, equipmentID, callerID string) error {
	item, err := s.loadOwnedEquipment(ctx, equipmentID, callerID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteEquipment(ctx, item.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeNotFound, "equipment not found")
		}
		return apperrors.Wrap(apperrors.CodeInternal, "delete equipment", err)
	}
	return nil
}
