package app

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/questforge/questforge/internal/platform/errors"
	"github.com/questforge/questforge/internal/services/auth/storage"
	"github.com/questforge/questforge/internal/services/auth/user"
)

// Profile returns the account for an authenticated user.
func (s *Service) Profile(ctx context.Context, userID string) (user.User, error) {
	record, err := s.store.GetUser(ctx, strings.TrimSpace(userID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return user.User{}, apperrors.New(apperrors.CodeNotFound, "user not found")
		}
		return user.User{}, apperrors.Wrap(apperrors.CodeInternal, "load user", err)
	}
	return userFromRecord(record), nil
}

// ProfileUpdate captures the mutable profile fields. Nil fields stay
// unchanged.
type ProfileUpdate struct {
	Username *string
	Email    *string
}

// UpdateProfile patches the account profile. Changing the email clears
// the verified flag.
func (s *Service) UpdateProfile(ctx context.Context, userID string, update ProfileUpdate) (user.User, error) {
	record, err := s.store.GetUser(ctx, strings.TrimSpace(userID))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return user.User{}, apperrors.New(apperrors.CodeNotFound, "user not found")
		}
		return user.User{}, apperrors.Wrap(apperrors.CodeInternal, "load user", err)
	}

	changed := false
	if update.Username != nil {
		identity, err := user.NormalizeIdentity(user.Identity{Username: *update.Username, Email: record.Email})
		if err != nil {
			return user.User{}, apperrors.Wrap(apperrors.CodeValidation, err.Error(), err)
		}
		if identity.Username != record.Username {
			if _, err := s.store.GetUserByUsername(ctx, identity.Username); err == nil {
				return user.User{}, apperrors.New(apperrors.CodeAuthUsernameTaken, "username is already taken")
			} else if !errors.Is(err, storage.ErrNotFound) {
				return user.User{}, apperrors.Wrap(apperrors.CodeInternal, "check username", err)
			}
			record.Username = identity.Username
			changed = true
		}
	}
	if update.Email != nil {
		identity, err := user.NormalizeIdentity(user.Identity{Username: record.Username, Email: *update.Email})
		if err != nil {
			return user.User{}, apperrors.Wrap(apperrors.CodeValidation, err.Error(), err)
		}
		if identity.Email != record.Email {
			if _, err := s.store.GetUserByEmail(ctx, identity.Email); err == nil {
				return user.User{}, apperrors.New(apperrors.CodeAuthEmailTaken, "email is already registered")
			} else if !errors.Is(err, storage.ErrNotFound) {
				return user.User{}, apperrors.Wrap(apperrors.CodeInternal, "check email", err)
			}
			record.Email = identity.Email
			record.EmailVerified = false
			changed = true
		}
	}

	if !changed {
		return userFromRecord(record), nil
	}

	record.UpdatedAt = s.now().UTC()
	if err := s.store.UpdateUser(ctx, record); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return user.User{}, apperrors.New(apperrors.CodeAlreadyExists, "username or email already in use")
		}
		return user.User{}, apperrors.Wrap(apperrors.CodeInternal, "update user", err)
	}
	return userFromRecord(record), nil
}
