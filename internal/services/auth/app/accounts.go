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
	"github.com/questforge/questforge/internal/services/auth/user"
)

// dummyHash is a valid bcrypt digest compared against when the
// username does not exist, keeping login timing uniform.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// RegisterInput captures the registration payload.
type RegisterInput struct {
	Username string
	Email    string
	Password string
}

// Register creates a new account with a hashed password.
func (s *Service) Register(ctx context.Context, input RegisterInput) (user.User, error) {
	identity, err := user.NormalizeIdentity(user.Identity{Username: input.Username, Email: input.Email})
	if err != nil {
		return user.User{}, apperrors.Wrap(apperrors.CodeValidation, err.Error(), err)
	}

	result := s.policy.Validate(input.Password, identity.Username, identity.Email)
	if !result.Valid {
		return user.User{}, apperrors.WithMetadata(
			apperrors.CodeAuthPasswordPolicy,
			strings.Join(result.Errors, "; "),
			map[string]string{"strength": result.Level()},
		)
	}

	// Pre-checks give specific conflict codes; the unique indexes stay
	// authoritative under concurrent registration.
	if _, err := s.store.GetUserByUsername(ctx, identity.Username); err == nil {
		return user.User{}, apperrors.New(apperrors.CodeAuthUsernameTaken, "username is already taken")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return user.User{}, apperrors.Wrap(apperrors.CodeInternal, "check username", err)
	}
	if _, err := s.store.GetUserByEmail(ctx, identity.Email); err == nil {
		return user.User{}, apperrors.New(apperrors.CodeAuthEmailTaken, "email is already registered")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return user.User{}, apperrors.Wrap(apperrors.CodeInternal, "check email", err)
	}

	hashed, err := password.Hash(input.Password)
	if err != nil {
		return user.User{}, apperrors.Wrap(apperrors.CodeInternal, "hash password", err)
	}

	now := s.now().UTC()
	record := storage.UserRecord{
		ID:             s.newID(),
		Username:       identity.Username,
		Email:          identity.Email,
		HashedPassword: hashed,
		IsActive:       true,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.store.CreateUser(ctx, record); err != nil {
		if errors.Is(err, storage.ErrAlreadyExists) {
			return user.User{}, apperrors.New(apperrors.CodeAuthUsernameTaken, "username is already taken")
		}
		return user.User{}, apperrors.Wrap(apperrors.CodeInternal, "create user", err)
	}

	s.logger.Info("user registered", zap.String("user_id", record.ID))
	return userFromRecord(record), nil
}

// Login authenticates credentials and issues a session. Five failed
// attempts lock the account for fifteen minutes; a locked account
// rejects even the correct password until the window passes.
func (s *Service) Login(ctx context.Context, username, candidate string) (user.User, Session, error) {
	username = strings.TrimSpace(username)
	record, err := s.store.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			// Burn a hash comparison so missing users cost the same as
			// wrong passwords.
			password.Verify(dummyHash, candidate)
			return user.User{}, Session{}, apperrors.New(apperrors.CodeAuthInvalidCredentials, "invalid username or password")
		}
		return user.User{}, Session{}, apperrors.Wrap(apperrors.CodeInternal, "load user", err)
	}

	now := s.now().UTC()
	account := userFromRecord(record)
	if account.Locked(now) {
		return user.User{}, Session{}, apperrors.New(apperrors.CodeAuthAccountLocked, "account is temporarily locked")
	}
	if !account.IsActive {
		return user.User{}, Session{}, apperrors.New(apperrors.CodeAuthAccountInactive, "account is inactive")
	}

	if !password.Verify(record.HashedPassword, candidate) {
		record.FailedLoginAttempts++
		record.LockedUntil = nil
		if record.FailedLoginAttempts >= maxFailedLogins {
			lockedUntil := now.Add(lockoutDuration)
			record.LockedUntil = &lockedUntil
			s.logger.Warn("account locked after repeated failures", zap.String("user_id", record.ID))
		}
		record.UpdatedAt = now
		if err := s.store.UpdateUser(ctx, record); err != nil {
			s.logger.Error("persist failed login counter", zap.String("user_id", record.ID), zap.Error(err))
		}
		return user.User{}, Session{}, apperrors.New(apperrors.CodeAuthInvalidCredentials, "invalid username or password")
	}

	record.FailedLoginAttempts = 0
	record.LockedUntil = nil
	record.LastLogin = &now
	record.UpdatedAt = now
	if err := s.store.UpdateUser(ctx, record); err != nil {
		return user.User{}, Session{}, apperrors.Wrap(apperrors.CodeInternal, "record login", err)
	}

	session, err := s.issueSession(ctx, record)
	if err != nil {
		return user.User{}, Session{}, err
	}
	return userFromRecord(record), session, nil
}

// Refresh rotates a refresh token. The old token is invalidated before
// the new session is minted; a replayed token gets rejected.
func (s *Service) Refresh(ctx context.Context, refreshToken string) (Session, error) {
	record, err := s.store.GetSessionByRefreshToken(ctx, strings.TrimSpace(refreshToken))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return Session{}, apperrors.New(apperrors.CodeAuthRefreshInvalid, "refresh token is invalid")
		}
		return Session{}, apperrors.Wrap(apperrors.CodeInternal, "load session", err)
	}

	now := s.now().UTC()
	if !record.IsActive || !record.ExpiresAt.After(now) {
		return Session{}, apperrors.New(apperrors.CodeAuthRefreshInvalid, "refresh token is invalid")
	}

	flipped, err := s.store.DeactivateSessionIfActive(ctx, record.ID)
	if err != nil {
		return Session{}, apperrors.Wrap(apperrors.CodeInternal, "rotate session", err)
	}
	if !flipped {
		// Another caller rotated this token first.
		return Session{}, apperrors.New(apperrors.CodeAuthRefreshInvalid, "refresh token is invalid")
	}

	owner, err := s.store.GetUser(ctx, record.UserID)
	if err != nil {
		return Session{}, apperrors.Wrap(apperrors.CodeInternal, "load session owner", err)
	}
	if !owner.IsActive {
		return Session{}, apperrors.New(apperrors.CodeAuthAccountInactive, "account is inactive")
	}
	if userFromRecord(owner).Locked(now) {
		return Session{}, apperrors.New(apperrors.CodeAuthAccountLocked, "account is temporarily locked")
	}

	return s.issueSession(ctx, owner)
}

// Logout invalidates one refresh session.
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	record, err := s.store.GetSessionByRefreshToken(ctx, strings.TrimSpace(refreshToken))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperrors.New(apperrors.CodeMalformedRequest, "refresh token is unknown")
		}
		return apperrors.Wrap(apperrors.CodeInternal, "load session", err)
	}
	if _, err := s.store.DeactivateSessionIfActive(ctx, record.ID); err != nil {
		return apperrors.Wrap(apperrors.CodeInternal, "deactivate session", err)
	}
	return nil
}

// VerifyAccess validates an access token and returns its claims.
func (s *Service) VerifyAccess(value string) (token.Claims, error) {
	claims, err := s.tokens.VerifyAccess(value)
	if err != nil {
		if errors.Is(err, token.ErrExpiredToken) {
			return token.Claims{}, apperrors.New(apperrors.CodeAuthAccessTokenExpired, "access token is expired")
		}
		return token.Claims{}, apperrors.New(apperrors.CodeAuthAccessTokenInvalid, "access token is invalid")
	}
	return claims, nil
}

func (s *Service) issueSession(ctx context.Context, record storage.UserRecord) (Session, error) {
	access, accessExpiresAt, err := s.tokens.MintAccess(record.ID, record.Username)
	if err != nil {
		return Session{}, apperrors.Wrap(apperrors.CodeInternal, "mint access token", err)
	}
	refresh, err := token.NewRefreshToken()
	if err != nil {
		return Session{}, apperrors.Wrap(apperrors.CodeInternal, "mint refresh token", err)
	}

	now := s.now().UTC()
	refreshExpiresAt := now.Add(refreshTTL)
	session := storage.SessionRecord{
		ID:           s.newID(),
		UserID:       record.ID,
		RefreshToken: refresh,
		ExpiresAt:    refreshExpiresAt,
		IsActive:     true,
		CreatedAt:    now,
	}
	if err := s.store.CreateSession(ctx, session); err != nil {
		return Session{}, apperrors.Wrap(apperrors.CodeInternal, "create session", err)
	}

	return Session{
		AccessToken:      access,
		AccessExpiresAt:  accessExpiresAt,
		RefreshToken:     refresh,
		RefreshExpiresAt: refreshExpiresAt,
	}, nil
}

// CleanupExpired removes expired sessions and stale reset tokens.
func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	now := s.now().UTC()
	sessions, err := s.store.DeleteExpiredSessions(ctx, now)
	if err != nil {
		return 0, apperrors.Wrap(apperrors.CodeInternal, "delete expired sessions", err)
	}
	resets, err := s.store.DeleteExpiredResetTokens(ctx, now)
	if err != nil {
		return sessions, apperrors.Wrap(apperrors.CodeInternal, "delete expired reset tokens", err)
	}
	total := sessions + resets
	if total > 0 {
		s.logger.Info("cleaned expired auth records",
			zap.Int64("sessions", sessions),
			zap.Int64("reset_tokens", resets))
	}
	return total, nil
}

func userFromRecord(record storage.UserRecord) user.User {
	return user.User{
		ID:                  record.ID,
		Username:            record.Username,
		Email:               record.Email,
		HashedPassword:      record.HashedPassword,
		EmailVerified:       record.EmailVerified,
		IsActive:            record.IsActive,
		FailedLoginAttempts: record.FailedLoginAttempts,
		LockedUntil:         record.LockedUntil,
		LastLogin:           record.LastLogin,
		CreatedAt:           record.CreatedAt,
		UpdatedAt:           record.UpdatedAt,
	}
}
