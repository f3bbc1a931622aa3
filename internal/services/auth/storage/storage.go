// Package storage defines persistence contracts for auth service state.
package storage

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound indicates a requested auth record is missing.
	ErrNotFound = errors.New("record not found")
	// ErrAlreadyExists indicates a uniqueness-constrained record already exists.
	ErrAlreadyExists = errors.New("record already exists")
)

// UserRecord stores one account.
type UserRecord struct {
	ID                  string
	Username            string
	Email               string
	HashedPassword      string
	EmailVerified       bool
	IsActive            bool
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLogin           *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

// SessionRecord stores one refresh session. RefreshToken is opaque and
// unique; IsActive flips to false exactly once on rotation or logout.
type SessionRecord struct {
	ID           string
	UserID       string
	RefreshToken string
	ExpiresAt    time.Time
	IsActive     bool
	CreatedAt    time.Time
}

// ResetTokenRecord stores one single-use password reset token.
type ResetTokenRecord struct {
	ID        string
	UserID    string
	Token     string
	ExpiresAt time.Time
	Used      bool
	CreatedAt time.Time
}

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, user UserRecord) error
	GetUser(ctx context.Context, id string) (UserRecord, error)
	GetUserByUsername(ctx context.Context, username string) (UserRecord, error)
	GetUserByEmail(ctx context.Context, email string) (UserRecord, error)
	UpdateUser(ctx context.Context, user UserRecord) error
}

// SessionStore persists refresh sessions.
type SessionStore interface {
	CreateSession(ctx context.Context, session SessionRecord) error
	GetSessionByRefreshToken(ctx context.Context, refreshToken string) (SessionRecord, error)
	// DeactivateSessionIfActive flips one session inactive and reports
	// whether this call performed the flip. A false result with a nil
	// error means the session was already inactive.
	DeactivateSessionIfActive(ctx context.Context, id string) (bool, error)
	DeactivateUserSessions(ctx context.Context, userID string) error
	DeleteExpiredSessions(ctx context.Context, now time.Time) (int64, error)
}

// ResetTokenStore persists password reset tokens.
type ResetTokenStore interface {
	CreateResetToken(ctx context.Context, token ResetTokenRecord) error
	GetResetToken(ctx context.Context, token string) (ResetTokenRecord, error)
	MarkResetTokenUsed(ctx context.Context, id string) error
	DeleteExpiredResetTokens(ctx context.Context, now time.Time) (int64, error)
}

// Store bundles every auth persistence contract.
type Store interface {
	UserStore
	SessionStore
	ResetTokenStore
}
