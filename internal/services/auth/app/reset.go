package app

import (
	"context"
	"errors"
	"strings"

	"go.uber.org/zap"

	apperrors "github.com/questforge/questforge/internal/platform/errors"
	"github.com/questforge/questforge/internal/services/auth/password"
	"github.com/questforge/questforge/internal/services/auth/storage"
	"github.com/questforge/questforge/internal/services/auth/token"
)

// ForgotPassword issues a single-use reset token for the address.
// Unknown addresses return empty output with no error so responses
// never reveal which emails are registered.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	record, err := s.store.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return "", nil
		}
		return "", apperrors.Wrap(apperrors.CodeInternal, "load user by email", err)
	}
	if !record.IsActive {
		return "", nil
	}

	value, err := token.NewRefreshToken()
	if err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, "mint reset token", err)
	}

	now := s.now().UTC()
	reset := storage.ResetTokenRecord{
		ID:        s.newID(),
		UserID:    record.ID,
		Token:     value,
		ExpiresAt: now.Add(resetTokenTTL),
		CreatedAt: now,
	}
	if err := s.store.CreateResetToken(ctx, reset); err != nil {
		return "", apperrors.Wrap(apperrors.CodeInternal, "create reset token", err)
	}

	s.logger.Info("password reset requested", zap.String("user_id", record.ID))
	return value, nil
}

// ResetPassword consumes a reset token, sets the new password and
// invalidates every active session for the account.
func (s *Service) ResetPassword(ctx context.Context, tokenValue, candidate string) error {
	record, err := s.store.GetResetToken(ctx, strings.TrimSpace(tokenValue))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeAuthResetTokenInvalid, "reset token is invalid or expired")
		}
		return apperrors.Wrap(apperrors.CodeInternal, "load reset token", err)
	}

	now := s.now().UTC()
	if record.Used || !record.ExpiresAt.After(now) {
		return apperrors.New(apperrors.CodeAuthResetTokenInvalid, "reset token is invalid or expired")
	}

	owner, err := s.store.GetUser(ctx, record.UserID)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "load reset token owner", err)
	}

	result := s.policy.Validate(candidate, owner.Username, owner.Email)
	if !result.Valid {
		return apperrors.WithMetadata(
			apperrors.CodeAuthPasswordPolicy,
			strings.Join(result.Errors, "; "),
			map[string]string{"strength": result.Level()},
		)
	}

	hashed, err := password.Hash(candidate)
	if err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "hash password", err)
	}

	if err := s.store.MarkResetTokenUsed(ctx, record.ID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeAuthResetTokenInvalid, "reset token is invalid or expired")
		}
		return apperrors.Wrap(apperrors.CodeInternal, "consume reset token", err)
	}

	owner.HashedPassword = hashed
	owner.FailedLoginAttempts = 0
	owner.LockedUntil = nil
	owner.UpdatedAt = now
	if err := s.store.UpdateUser(ctx, owner); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "update password", err)
	}

	if err := s.store.DeactivateUserSessions(ctx, owner.ID); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "invalidate sessions", err)
	}

	s.logger.Info("password reset completed", zap.String("user_id", owner.ID))
	return nil
}
