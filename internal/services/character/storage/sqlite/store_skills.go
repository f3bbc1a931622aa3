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

// CreateSkill inserts one catalog skill.
func (s *Store) CreateSkill(ctx context.Context, record storage.SkillRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("skill id is required")
	}
	if strings.TrimSpace(record.Name) == "" {
		return fmt.Errorf("skill name is required")
	}
	createdAt := record.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var requirements any
	if len(record.StatRequirements) > 0 {
		requirements = string(record.StatRequirements)
	}
	var prerequisites any
	if len(record.Prerequisites) > 0 {
		prerequisites = string(record.Prerequisites)
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO skills (
		   id, name, description, category, stat_requirements, xp_cost, prerequisites, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.Name,
		record.Description,
		record.Category,
		requirements,
		record.XPCost,
		prerequisites,
		toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create skill: %w", err)
	}
	return nil
}

func scanSkill(scan func(...any) error) (storage.SkillRecord, error) {
	var record storage.SkillRecord
	var requirements sql.NullString
	var prerequisites sql.NullString
	var createdAt int64
	err := scan(
		&record.ID,
		&record.Name,
		&record.Description,
		&record.Category,
		&requirements,
		&record.XPCost,
		&prerequisites,
		&createdAt,
	)
	if err != nil {
		return storage.SkillRecord{}, err
	}
	if requirements.Valid {
		record.StatRequirements = []byte(requirements.String)
	}
	if prerequisites.Valid {
		record.Prerequisites = []byte(prerequisites.String)
	}
	record.CreatedAt = fromMillis(createdAt)
	return record, nil
}

// GetSkill returns one catalog skill by ID.
func (s *Store) GetSkill(ctx context.Context, id string) (storage.SkillRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SkillRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.SkillRecord{}, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.SkillRecord{}, fmt.Errorf("skill id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, name, description, category, stat_requirements, xp_cost, prerequisites, created_at
		   FROM skills WHERE id = ?`,
		id,
	)
	record, err := scanSkill(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.SkillRecord{}, storage.ErrNotFound
		}
		return storage.SkillRecord{}, fmt.Errorf("get skill: %w", err)
	}
	return record, nil
}

// ListSkills returns the full skill catalog ordered by name.
func (s *Store) ListSkills(ctx context.Context) ([]storage.SkillRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(
		ctx,
		`SELECT id, name, description, category, stat_requirements, xp_cost, prerequisites, created_at
		   FROM skills
		  ORDER BY name ASC, id ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	defer rows.Close()

	var records []storage.SkillRecord
	for rows.Next() {
		record, err := scanSkill(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("list skills: %w", err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	return records, nil
}

// AcquireSkill links a skill to a character. Duplicate acquisitions
// return ErrAlreadyExists.
func (s *Store) AcquireSkill(ctx context.Context, record storage.CharacterSkillRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.CharacterID) == "" {
		return fmt.Errorf("character id is required")
	}
	if strings.TrimSpace(record.SkillID) == "" {
		return fmt.Errorf("skill id is required")
	}
	acquiredAt := record.AcquiredAt.UTC()
	if acquiredAt.IsZero() {
		acquiredAt = time.Now().UTC()
	}
	level := record.SkillLevel
	if level <= 0 {
		level = 1
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO character_skills (character_id, skill_id, skill_level, acquired_at)
		 VALUES (?, ?, ?, ?)`,
		record.CharacterID,
		record.SkillID,
		level,
		toMillis(acquiredAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("acquire skill: %w", err)
	}
	return nil
}

// ListCharacterSkills returns a character's acquired skills.
func (s *Store) ListCharacterSkills(ctx context.Context, characterID string) ([]storage.CharacterSkillRecord, error) {
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
		`SELECT character_id, skill_id, skill_level, acquired_at
		   FROM character_skills
		  WHERE character_id = ?
		  ORDER BY acquired_at ASC, skill_id ASC`,
		characterID,
	)
	if err != nil {
		return nil, fmt.Errorf("list character skills: %w", err)
	}
	defer rows.Close()

	var records []storage.CharacterSkillRecord
	for rows.Next() {
		var record storage.CharacterSkillRecord
		var acquiredAt int64
		if err := rows.Scan(&record.CharacterID, &record.SkillID, &record.SkillLevel, &acquiredAt); err != nil {
			return nil, fmt.Errorf("list character skills: %w", err)
		}
		record.AcquiredAt = fromMillis(acquiredAt)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list character skills: %w", err)
	}
	return records, nil
}
