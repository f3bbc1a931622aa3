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

// CreateSession inserts one refresh session record.
func (s *Store) CreateSession(ctx context.Context, session storage.SessionRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(session.ID) == "" {
		return fmt.Errorf("session id is required")
	}
	if strings.TrimSpace(session.UserID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(session.RefreshToken) == "" {
		return fmt.Errorf("refresh token is required")
	}
	createdAt := session.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO sessions (id, user_id, refresh_token, expires_at, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.RefreshToken,
		toMillis(session.ExpiresAt),
		session.IsActive,
		toMillis(createdAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSessionByRefreshToken returns one session by its unique refresh token.
func (s *Store) GetSessionByRefreshToken(ctx context.Context, refreshToken string) (storage.SessionRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.SessionRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.SessionRecord{}, fmt.Errorf("storage is not configured")
	}
	refreshToken = strings.TrimSpace(refreshToken)
	if refreshToken == "" {
		return storage.SessionRecord{}, fmt.Errorf("refresh token is required")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT id, user_id, refresh_token, expires_at, is_active, created_at
		   FROM sessions
		  WHERE refresh_token = ?`,
		refreshToken,
	)

	var session storage.SessionRecord
	var expiresAt int64
	var createdAt int64
	err := row.Scan(
		&session.ID,
		&session.UserID,
		&session.RefreshToken,
		&expiresAt,
		&session.IsActive,
		&createdAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.SessionRecord{}, storage.ErrNotFound
		}
		return storage.SessionRecord{}, fmt.Errorf("get session: %w", err)
	}

	session.ExpiresAt = fromMillis(expiresAt)
	session.CreatedAt = fromMillis(createdAt)
	return session, nil
}

// DeactivateSessionIfActive flips one session inactive. The guarded
// predicate makes concurrent rotations of the same token race safely;
// only one caller observes true.
func (s *Store) DeactivateSessionIfActive(ctx context.Context, id string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	if s == nil || s.sqlDB == nil {
		return false, fmt.Errorf("storage is not configured")
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return false, fmt.Errorf("session id is required")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE sessions SET is_active = 0 WHERE id = ? AND is_active = 1`,
		id,
	)
	if err != nil {
		return false, fmt.Errorf("deactivate session: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("deactivate session: %w", err)
	}
	return affected == 1, nil
}

// DeactivateUserSessions flips every session for one user inactive.
func (s *Store) DeactivateUserSessions(ctx context.Context, userID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return fmt.Errorf("user id is required")
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE sessions SET is_active = 0 WHERE user_id = ? AND is_active = 1`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("deactivate user sessions: %w", err)
	}
	return nil
}

// DeleteExpiredSessions removes sessions whose expiry is at or before now.
func (s *Store) DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	if s == nil || s.sqlDB == nil {
		return 0, fmt.Errorf("storage is not configured")
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`DELETE FROM sessions WHERE expires_at <= ?`,
		toMillis(now),
	)
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("delete expired sessions: %w", err)
	}
	return affected, nil
}
