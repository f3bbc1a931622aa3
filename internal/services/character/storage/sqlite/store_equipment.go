package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/questforge/questforge/internal/services/character/storage"
)

// CreateEquipment inserts one item row.
func (s *Store) CreateEquipment(ctx context.Context, record storage.EquipmentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("equipment id is required")
	}
	if strings.TrimSpace(record.CharacterID) == "" {
		return fmt.Errorf("character id is required")
	}
	createdAt := record.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var modifiers any
	if len(record.StatModifiers) > 0 {
		modifiers = string(record.StatModifiers)
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO equipment (
		   id, character_id, name, description, equipment_type, stat_modifiers, is_equipped, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.CharacterID,
		record.Name,
		record.Description,
		record.EquipmentType,
		modifiers,
		record.IsEquipped,
		toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create equipment: %w", err)
	}
	return nil
}

func scanEquipment(scan func(...any) error) (storage.EquipmentRecord, error) {
	var record storage.EquipmentRecord
	var modifiers sql.NullString
	var createdAt int64
	err := scan(
		&record.ID,
		&record.CharacterID,
		&record.Name,
		&record.Description,
		&record.EquipmentType,
		&modifiers,
		&record.IsEquipped,
		&createdAt,
	)
	if err != nil {
		return storage.EquipmentRecord{}, err
	}
	if modifiers.Valid {
		record.StatModifiers = []byte(modifiers.String)
	}
	record.CreatedAt = fromMillis(createdAt)
	return record, nil
}

// GetEquipment returns one item by ID.
func (s *Store) GetEquipment(ctx context.Context, id string) (storage.EquipmentRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.EquipmentRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.EquipmentRecord{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.EquipmentRecord{}, fmt.Errorf("equipment id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, character_id, name, description, equipment_type, stat_modifiers, is_equipped, created_at
		   FROM equipment WHERE id = ?`,
		id,
	)
	record, err := scanEquipment(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.EquipmentRecord{}, storage.ErrNotFound
		}
		return storage.EquipmentRecord{}, fmt.Errorf("get equipment: %w", err)
	}
	return record, nil
}

// ListEquipment returns a character's items in creation order.
func (s *Store) ListEquipment(ctx context.Context, characterID string) ([]storage.EquipmentRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return nil, fmt.Errorf("character id is required")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, character_id, name, description, equipment_type, stat_modifiers, is_equipped, created_at
		   FROM equipment
		  WHERE character_id = ?
		  ORDER BY created_at ASC, id ASC`,
		characterID,
	)
	if err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	defer rows.Close()

	var records []storage.EquipmentRecord
	for rows.Next() {
		record, err := scanEquipment(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list equipment: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list equipment: %w", err)
	}
	return records, nil
}

// UpdateEquipment rewrites one item row.
func (s *Store) UpdateEquipment(ctx context.Context, record storage.EquipmentRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("equipment id is required")
	}

	var modifiers any
	if len(record.StatModifiers) > 0 {
		modifiers = string(record.StatModifiers)
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE equipment
		    SET name = ?, description = ?, equipment_type = ?, stat_modifiers = ?, is_equipped = ?
		  WHERE id = ?`,
		record.Name,
		record.Description,
		record.EquipmentType,
		modifiers,
		record.IsEquipped,
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("update equipment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update equipment: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteEquipment removes one item row.
func (s *Store) DeleteEquipment(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("equipment id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM equipment WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete equipment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete equipment: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
