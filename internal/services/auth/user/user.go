// Package user models QuestForge account identities.
package user

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

var (
	// ErrEmptyUsername indicates a username is required.
	ErrEmptyUsername = errors.New("username is required")
	// ErrInvalidUsername indicates the username violates format rules.
	ErrInvalidUsername = errors.New("username must be 3-30 characters of letters, digits, underscores or hyphens")
	// ErrInvalidEmail indicates the email address is malformed.
	ErrInvalidEmail = errors.New("email address is invalid")
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,30}$`)
	emailPattern    = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
)

// User is the account domain model.
type User struct {
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

// Locked reports whether the account is locked at the given instant.
func (u User) Locked(now time.Time) bool {
	return u.LockedUntil != nil && u.LockedUntil.After(now)
}

// Identity captures user-provided registration identity fields.
type Identity struct {
	Username string
	Email    string
}

// NormalizeIdentity validates and canonicalizes registration identity input.
// Usernames keep their case; emails are lowercased.
func NormalizeIdentity(input Identity) (Identity, error) {
	input.Username = strings.TrimSpace(input.Username)
	if input.Username == "" {
		return Identity{}, ErrEmptyUsername
	}
	if !usernamePattern.MatchString(input.Username) {
		return Identity{}, ErrInvalidUsername
	}

	input.Email = strings.ToLower(strings.TrimSpace(input.Email))
	if !emailPattern.MatchString(input.Email) {
		return Identity{}, ErrInvalidEmail
	}

	return input, nil
}

// EmailLocalPart returns the part of the address before the @.
func EmailLocalPart(email string) string {
	local, _, ok := strings.Cut(email, "@")
	if !ok {
		return email
	}
	return local
}
