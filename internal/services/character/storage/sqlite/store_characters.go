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

const characterColumns = `id, owner_id, name,
	        strength, dexterity, intelligence, charisma,
	        personality_traits, skills, inventory,
	        version, is_template, is_public,
	        experience_points, character_level,
	        created_at, updated_at`

func scanCharacter(scan func(...any) error) (storage.CharacterRecord, error) {
	var record storage.CharacterRecord
	var createdAt int64
	var updatedAt int64
	err := scan(
		&record.ID,
		&record.OwnerID,
		&record.Name,
		&record.Strength,
		&record.Dexterity,
		&record.Intelligence,
		&record.Charisma,
		&record.PersonalityTraits,
		&record.Skills,
		&record.Inventory,
		&record.Version,
		&record.IsTemplate,
		&record.IsPublic,
		&record.ExperiencePoints,
		&record.CharacterLevel,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return storage.CharacterRecord{}, err
	}
	record.CreatedAt = fromMillis(createdAt)
	record.UpdatedAt = fromMillis(updatedAt)
	return record, nil
}

// CreateCharacter inserts one character row.
func (s *Store) CreateCharacter(ctx context.Context, record storage.CharacterRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("character id is required")
	}
	if strings.TrimSpace(record.OwnerID) == "" {
		return fmt.Errorf("owner id is required")
	}
	createdAt := record.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := record.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO player_characters (
		   id, owner_id, name,
		   strength, dexterity, intelligence, charisma,
		   personality_traits, skills, inventory,
		   version, is_template, is_public,
		   experience_points, character_level,
		   created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.OwnerID,
		record.Name,
		record.Strength,
		record.Dexterity,
		record.Intelligence,
		record.Charisma,
		record.PersonalityTraits,
		record.Skills,
		record.Inventory,
		record.Version,
		record.IsTemplate,
		record.IsPublic,
		record.ExperiencePoints,
		record.CharacterLevel,
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create character: %w", err)
	}
	return nil
}

// GetCharacter returns one character by ID.
func (s *Store) GetCharacter(ctx context.Context, id string) (storage.CharacterRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.CharacterRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.CharacterRecord{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.CharacterRecord{}, fmt.Errorf("character id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+characterColumns+` FROM player_characters WHERE id = ?`,
		id,
	)
	record, err := scanCharacter(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.CharacterRecord{}, storage.ErrNotFound
		}
		return storage.CharacterRecord{}, fmt.Errorf("get character: %w", err)
	}
	return record, nil
}

// UpdateCharacter rewrites one character row.
func (s *Store) UpdateCharacter(ctx context.Context, record storage.CharacterRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("character id is required")
	}
	updatedAt := record.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE player_characters
		    SET name = ?, strength = ?, dexterity = ?, intelligence = ?, charisma = ?,
		        personality_traits = ?, skills = ?, inventory = ?,
		        version = ?, is_template = ?, is_public = ?,
		        experience_points = ?, character_level = ?, updated_at = ?
		  WHERE id = ?`,
		record.Name,
		record.Strength,
		record.Dexterity,
		record.Intelligence,
		record.Charisma,
		record.PersonalityTraits,
		record.Skills,
		record.Inventory,
		record.Version,
		record.IsTemplate,
		record.IsPublic,
		record.ExperiencePoints,
		record.CharacterLevel,
		toMillis(updatedAt),
		record.ID,
	)
	if err != nil {
		return fmt.Errorf("update character: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update character: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteCharacter removes one character row and, via foreign keys, its
// versions, equipment and skill links.
func (s *Store) DeleteCharacter(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("character id is required")
	}

	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM player_characters WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete character: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete character: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// SearchCharacters lists characters matching the filter, ordered by the
// requested key with id ascending as the tie break.
func (s *Store) SearchCharacters(ctx context.Context, filter storage.SearchFilter) ([]storage.CharacterRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	var clauses []string
	var args []any
	if owner := strings.TrimSpace(filter.OwnerID); owner != "" {
		clauses = append(clauses, "owner_id = ?")
		args = append(args, owner)
	}
	if name := strings.TrimSpace(filter.NameContains); name != "" {
		clauses = append(clauses, "name LIKE ? ESCAPE '\\'")
		escaped := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(name)
		args = append(args, "%"+escaped+"%")
	}
	if filter.MinLevel > 0 {
		clauses = append(clauses, "character_level >= ?")
		args = append(args, filter.MinLevel)
	}
	if filter.MaxLevel > 0 {
		clauses = append(clauses, "character_level <= ?")
		args = append(args, filter.MaxLevel)
	}
	if filter.TemplateOnly {
		clauses = append(clauses, "is_template = 1")
	}
	if filter.PublicOnly {
		clauses = append(clauses, "is_public = 1")
	}

	query := `SELECT ` + characterColumns + ` FROM player_characters`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	switch filter.OrderBy {
	case "level":
		query += " ORDER BY character_level ASC, id ASC"
	case "created_at":
		query += " ORDER BY created_at ASC, id ASC"
	default:
		query += " ORDER BY name ASC, id ASC"
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	query += " LIMIT ? OFFSET ?"
	args = append(args, limit, filter.Offset)

	rows, err := s.sqlDB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search characters: %w", err)
	}
	defer rows.Close()

	var records []storage.CharacterRecord
	for rows.Next() {
		record, err := scanCharacter(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("search characters: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("search characters: %w", err)
	}
	return records, nil
}
