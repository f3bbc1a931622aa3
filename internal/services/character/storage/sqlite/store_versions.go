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

// AppendVersion inserts one immutable snapshot row. The unique
// (character_id, version_number) index rejects duplicate appends.
func (s *Store) AppendVersion(ctx context.Context, record storage.VersionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(record.ID) == "" {
		return fmt.Errorf("version id is required")
	}
	if strings.TrimSpace(record.CharacterID) == "" {
		return fmt.Errorf("character id is required")
	}
	if record.VersionNumber <= 0 {
		return fmt.Errorf("version number must be greater than zero")
	}
	createdAt := record.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO character_versions (
		   id, character_id, version_number, snapshot, change_description, created_by, created_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.CharacterID,
		record.VersionNumber,
		string(record.Snapshot),
		record.ChangeDescription,
		record.CreatedBy,
		toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("append character version: %w", err)
	}
	return nil
}

// ListVersions returns every snapshot for a character, newest first.
func (s *Store) ListVersions(ctx context.Context, characterID string) ([]storage.VersionRecord, error) {
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
		`SELECT id, character_id, version_number, snapshot, change_description, created_by, created_at
		   FROM character_versions
		  WHERE character_id = ?
		  ORDER BY version_number DESC`,
		characterID,
	)
	if err != nil {
		return nil, fmt.Errorf("list character versions: %w", err)
	}
	defer rows.Close()

	var records []storage.VersionRecord
	for rows.Next() {
		var record storage.VersionRecord
		var snapshot string
		var createdAt int64
		if err := rows.Scan(
			&record.ID,
			&record.CharacterID,
			&record.VersionNumber,
			&snapshot,
			&record.ChangeDescription,
			&record.CreatedBy,
			&createdAt,
		); err != nil {
			return nil, fmt.Errorf("list character versions: %w", err)
		}
		record.Snapshot = []byte(snapshot)
		record.CreatedAt = fromMillis(createdAt)
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list character versions: %w", err)
	}
	return records, nil
}

// GetVersion returns one snapshot by character and version number.
func (s *Store) GetVersion(ctx context.Context, characterID string, versionNumber int) (storage.VersionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.VersionRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.VersionRecord{}, fmt.Errorf("storage is not configured")
	}
	characterID = strings.TrimSpace(characterID)
	if characterID == "" {
		return storage.VersionRecord{}, fmt.Errorf("character id is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, character_id, version_number, snapshot, change_description, created_by, created_at
		   FROM character_versions
		  WHERE character_id = ? AND version_number = ?`,
		characterID,
		versionNumber,
	)

	var record storage.VersionRecord
	var snapshot string
	var createdAt int64
	err := row.Scan(
		&record.ID,
		&record.CharacterID,
		&record.VersionNumber,
		&snapshot,
		&record.ChangeDescription,
		&record.CreatedBy,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.VersionRecord{}, storage.ErrNotFound
		}
		return storage.VersionRecord{}, fmt.Errorf("get character version: %w", err)
	}
	record.Snapshot = []byte(snapshot)
	record.CreatedAt = fromMillis(createdAt)
	return record, nil
}
