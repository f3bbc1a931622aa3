package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/questforge/questforge/internal/services/auth/storage"
)

// CreateResetToken inserts one password reset token record.
func (s *Store) CreateResetToken(ctx context.Context, token storage.ResetTokenRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(token.ID) == "" {
		return fmt.Errorf("reset token id is required")
	}
	if strings.TrimSpace(token.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(token.Token) == "" {
		return fmt.Errorf("reset token value is required")
	}
	createdAt := token.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO reset_tokens (id, user_id, token, expires_at, used, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		token.ID,
		token.UserID,
		token.Token,
		toMillis(token.ExpiresAt),
		token.Used,
		toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create reset token: %w", err)
	}
	return nil
}

// GetResetToken returns one reset token record by its unique value.
func (s *Store) GetResetToken(ctx context.Context, token string) (storage.ResetTokenRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.ResetTokenRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.ResetTokenRecord{}, fmt.Errorf("storage is not configured")
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return storage.ResetTokenRecord{}, fmt.Errorf("reset token value is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, user_id, token, expires_at, used, created_at
		   FROM reset_tokens
		  WHERE token = ?`,
		token,
	)

	var record storage.ResetTokenRecord
	var expiresAt int64
	var createdAt int64
	err := row.Scan(
		&record.ID,
		&record.UserID,
		&record.Token,
		&expiresAt,
		&record.Used,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.ResetTokenRecord{}, storage.ErrNotFound
		}
		return storage.ResetTokenRecord{}, fmt.Errorf("get reset token: %w", err)
	}

	record.ExpiresAt = fromMillis(expiresAt)
	record.CreatedAt = fromMillis(createdAt)
	return record, nil
}

// MarkResetTokenUsed consumes one reset token.
func (s *Store) MarkResetTokenUsed(ctx context.Context, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return fmt.Errorf("reset token id is required")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE reset_tokens SET used = 1 WHERE id = ? AND used = 0`,
		id,
	)
	if err != nil {
		return fmt.Errorf("mark reset token used: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark reset token used: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// DeleteExpiredResetTokens removes used or expired reset tokens.
func (s *Store) DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM reset_tokens WHERE expires_at <= ? OR used = 1`,
		toMillis(now),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired reset tokens: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired reset tokens: %w", err)
	}
	return affected, nil
}
