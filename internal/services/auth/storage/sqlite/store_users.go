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

const userColumns = `id, username, email, hashed_password, email_verified,
	        is_active, failed_login_attempts, locked_until, last_login,
	        created_at, updated_at`

// CreateUser inserts one account record.
func (s *Store) CreateUser(ctx context.Context, user storage.UserRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(user.ID) == "" {
		return fmt.Errorf("user id is required")
	}
	if strings.TrimSpace(user.Username) == "" {
		return fmt.Errorf("username is required")
	}
	if strings.TrimSpace(user.Email) == "" {
		return fmt.Errorf("email is required")
	}
	createdAt := user.CreatedAt.UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	updatedAt := user.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = createdAt
	}

	_, err := s.sqlDB.ExecContext(
		ctx,
		`INSERT INTO users (
		   id, username, email, hashed_password, email_verified,
		   is_active, failed_login_attempts, locked_until, last_login,
		   created_at, updated_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Username,
		user.Email,
		user.HashedPassword,
		user.EmailVerified,
		user.IsActive,
		user.FailedLoginAttempts,
		toMillisPtr(user.LockedUntil),
		toMillisPtr(user.LastLogin),
		toMillis(createdAt),
		toMillis(updatedAt),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("create user: %w", err)
	}
	return nil
}

func (s *Store) getUserWhere(ctx context.Context, clause string, arg any) (storage.UserRecord, error) {
	if err := ctx.Err(); err != nil {
		return storage.UserRecord{}, err
	}
	if s == nil || s.sqlDB == nil {
		return storage.UserRecord{}, fmt.Errorf("storage is not configured")
	}

	row := s.sqlDB.QueryRowContext(
		ctx,
		`SELECT `+userColumns+` FROM users WHERE `+clause,
		arg,
	)

	var user storage.UserRecord
	var lockedUntil sql.NullInt64
	var lastLogin sql.NullInt64
	var createdAt int64
	var updatedAt int64
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.Email,
		&user.HashedPassword,
		&user.EmailVerified,
		&user.IsActive,
		&user.FailedLoginAttempts,
		&lockedUntil,
		&lastLogin,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return storage.UserRecord{}, storage.ErrNotFound
		}
		return storage.UserRecord{}, fmt.Errorf("get user: %w", err)
	}

	user.LockedUntil = fromMillisPtr(lockedUntil)
	user.LastLogin = fromMillisPtr(lastLogin)
	user.CreatedAt = fromMillis(createdAt)
	user.UpdatedAt = fromMillis(updatedAt)
	return user, nil
}

// GetUser returns one account by ID.
func (s *Store) GetUser(ctx context.Context, id string) (storage.UserRecord, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return storage.UserRecord{}, fmt.Errorf("user id is required")
	}
	return s.getUserWhere(ctx, "id = ?", id)
}

// GetUserByUsername returns one account by its unique username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (storage.UserRecord, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return storage.UserRecord{}, fmt.Errorf("username is required")
	}
	return s.getUserWhere(ctx, "username = ?", username)
}

// GetUserByEmail returns one account by its unique email.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (storage.UserRecord, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return storage.UserRecord{}, fmt.Errorf("email is required")
	}
	return s.getUserWhere(ctx, "email = ?", email)
}

// UpdateUser rewrites one account record.
func (s *Store) UpdateUser(ctx context.Context, user storage.UserRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}
	if strings.TrimSpace(user.ID) == "" {
		return fmt.Errorf("user id is required")
	}
	updatedAt := user.UpdatedAt.UTC()
	if updatedAt.IsZero() {
		updatedAt = time.Now().UTC()
	}

	result, err := s.sqlDB.ExecContext(
		ctx,
		`UPDATE users
		    SET username = ?, email = ?, hashed_password = ?, email_verified = ?,
		        is_active = ?, failed_login_attempts = ?, locked_until = ?,
		        last_login = ?, updated_at = ?
		  WHERE id = ?`,
		user.Username,
		user.Email,
		user.HashedPassword,
		user.EmailVerified,
		user.IsActive,
		user.FailedLoginAttempts,
		toMillisPtr(user.LockedUntil),
		toMillisPtr(user.LastLogin),
		toMillis(updatedAt),
		user.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrAlreadyExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if affected == 0 {
		return storage.ErrNotFound
	}
	return nil
}
