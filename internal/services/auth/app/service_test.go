package app

import (
	"context"
	"fmt"
	"testing"
	"time"

	"go.uber.org/zap"

	apperrors "github.com/questforge/questforge/internal/platform/errors"
	"github.com/questforge/questforge/internal/services/auth/password"
	"github.com/questforge/questforge/internal/services/auth/storage"
	"github.com/questforge/questforge/internal/services/auth/token"
)

type memStore struct {
	users    map[string]storage.UserRecord
	sessions map[string]storage.SessionRecord
	resets   map[string]storage.ResetTokenRecord
}

func newMemStore() *memStore {
	return &memStore{
		users:    map[string]storage.UserRecord{},
		sessions: map[string]storage.SessionRecord{},
		resets:   map[string]storage.ResetTokenRecord{},
	}
}

func (m *memStore) CreateUser(_ context.Context, user storage.UserRecord) error {
	for _, existing := range m.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return storage.ErrAlreadyExists
		}
	}
	m.users[user.ID] = user
	return nil
}

func (m *memStore) GetUser(_ context.Context, id string) (storage.UserRecord, error) {
	user, ok := m.users[id]
	if !ok {
		return storage.UserRecord{}, storage.ErrNotFound
	}
	return user, nil
}

func (m *memStore) GetUserByUsername(_ context.Context, username string) (storage.UserRecord, error) {
	for _, user := range m.users {
		if user.Username == username {
			return user, nil
		}
	}
	return storage.UserRecord{}, storage.ErrNotFound
}

func (m *memStore) GetUserByEmail(_ context.Context, email string) (storage.UserRecord, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return storage.UserRecord{}, storage.ErrNotFound
}

func (m *memStore) UpdateUser(_ context.Context, user storage.UserRecord) error {
	if _, ok := m.users[user.ID]; !ok {
		return storage.ErrNotFound
	}
	m.users[user.ID] = user
	return nil
}

func (m *memStore) CreateSession(_ context.Context, session storage.SessionRecord) error {
	for _, existing := range m.sessions {
		if existing.RefreshToken == session.RefreshToken {
			return storage.ErrAlreadyExists
		}
	}
	m.sessions[session.ID] = session
	return nil
}

func (m *memStore) GetSessionByRefreshToken(_ context.Context, refreshToken string) (storage.SessionRecord, error) {
	for _, session := range m.sessions {
		if session.RefreshToken == refreshToken {
			return session, nil
		}
	}
	return storage.SessionRecord{}, storage.ErrNotFound
}

func (m *memStore) DeactivateSessionIfActive(_ context.Context, id string) (bool, error) {
	session, ok := m.sessions[id]
	if !ok || !session.IsActive {
		return false, nil
	}
	session.IsActive = false
	m.sessions[id] = session
	return true, nil
}

func (m *memStore) DeactivateUserSessions(_ context.Context, userID string) error {
	for id, session := range m.sessions {
		if session.UserID == userID {
			session.IsActive = false
			m.sessions[id] = session
		}
	}
	return nil
}

func (m *memStore) DeleteExpiredSessions(_ context.Context, now time.Time) (int64, error) {
	var deleted int64
	for id, session := range m.sessions {
		if !session.ExpiresAt.After(now) {
			delete(m.sessions, id)
			deleted++
		}
	}
	return deleted, nil
}

func (m *memStore) CreateResetToken(_ context.Context, record storage.ResetTokenRecord) error {
	m.resets[record.ID] = record
	return nil
}

func (m *memStore) GetResetToken(_ context.Context, value string) (storage.ResetTokenRecord, error) {
	for _, record := range m.resets {
		if record.Token == value {
			return record, nil
		}
	}
	return storage.ResetTokenRecord{}, storage.ErrNotFound
}

func (m *memStore) MarkResetTokenUsed(_ context.Context, id string) error {
	record, ok := m.resets[id]
	if !ok || record.Used {
		return storage.ErrNotFound
	}
	record.Used = true
	m.resets[id] = record
	return nil
}

func (m *memStore) DeleteExpiredResetTokens(_ context.Context, now time.Time) (int64, error) {
	var deleted int64
	for id, record := range m.resets {
		if record.Used || !record.ExpiresAt.After(now) {
			delete(m.resets, id)
			deleted++
		}
	}
	return deleted, nil
}

type testClock struct {
	at time.Time
}

func (c *testClock) now() time.Time { return c.at }

func (c *testClock) advance(d time.Duration) { c.at = c.at.Add(d) }

func newTestService(t *testing.T) (*Service, *memStore, *testClock) {
	t.Helper()
	store := newMemStore()
	clock := &testClock{at: time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)}
	tokens, err := token.NewService(token.Config{
		Secret:    []byte("0123456789abcdef0123456789abcdef"),
		Issuer:    "questforge",
		Audience:  "questforge-api",
		AccessTTL: 30 * time.Minute,
		Now:       clock.now,
	})
	if err != nil {
		t.Fatalf("token service: %v", err)
	}
	counter := 0
	svc, err := NewService(store, tokens, password.DefaultPolicy(), zap.NewNop(),
		WithClock(clock.now),
		WithIDGenerator(func() string {
			counter++
			return fmt.Sprintf("id-%d", counter)
		}),
	)
	if err != nil {
		t.Fatalf("auth service: %v", err)
	}
	return svc, store, clock
}

func register(t *testing.T, svc *Service) string {
	t.Helper()
	account, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "Str0ngP@ss1",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	return account.ID
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc)

	account, session, err := svc.Login(context.Background(), "alice", "Str0ngP@ss1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if account.Username != "alice" {
		t.Fatalf("username = %q, want alice", account.Username)
	}
	if session.AccessToken == "" || session.RefreshToken == "" {
		t.Fatal("expected both tokens")
	}
	if account.LastLogin == nil {
		t.Fatal("expected last login recorded")
	}

	claims, err := svc.VerifyAccess(session.AccessToken)
	if err != nil {
		t.Fatalf("verify access: %v", err)
	}
	if claims.UserID != account.ID {
		t.Fatalf("claims user = %q, want %q", claims.UserID, account.ID)
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc)

	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "other@example.com", Password: "Str0ngP@ss1",
	})
	if apperrors.CodeOf(err) != apperrors.CodeAuthUsernameTaken {
		t.Fatalf("code = %v, want username taken", apperrors.CodeOf(err))
	}

	_, err = svc.Register(context.Background(), RegisterInput{
		Username: "bob", Email: "alice@example.com", Password: "Str0ngP@ss1",
	})
	if apperrors.CodeOf(err) != apperrors.CodeAuthEmailTaken {
		t.Fatalf("code = %v, want email taken", apperrors.CodeOf(err))
	}
}

func TestRegisterRejectsWeakPassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, err := svc.Register(context.Background(), RegisterInput{
		Username: "alice", Email: "alice@example.com", Password: "short",
	})
	if apperrors.CodeOf(err) != apperrors.CodeAuthPasswordPolicy {
		t.Fatalf("code = %v, want password policy", apperrors.CodeOf(err))
	}
}

func TestLoginLockoutAfterFiveFailures(t *testing.T) {
	svc, _, clock := newTestService(t)
	register(t, svc)

	for i := 0; i < 5; i++ {
		_, _, err := svc.Login(context.Background(), "alice", "WrongP@ss1x")
		if apperrors.CodeOf(err) != apperrors.CodeAuthInvalidCredentials {
			t.Fatalf("attempt %d code = %v, want invalid credentials", i+1, apperrors.CodeOf(err))
		}
	}

	// Correct password while locked is still rejected.
	_, _, err := svc.Login(context.Background(), "alice", "Str0ngP@ss1")
	if apperrors.CodeOf(err) != apperrors.CodeAuthAccountLocked {
		t.Fatalf("code = %v, want account locked", apperrors.CodeOf(err))
	}

	clock.advance(16 * time.Minute)
	account, _, err := svc.Login(context.Background(), "alice", "Str0ngP@ss1")
	if err != nil {
		t.Fatalf("login after lockout window: %v", err)
	}
	if account.FailedLoginAttempts != 0 {
		t.Fatalf("failed attempts = %d, want 0", account.FailedLoginAttempts)
	}
}

func TestLoginUnknownUserLooksLikeBadPassword(t *testing.T) {
	svc, _, _ := newTestService(t)
	_, _, err := svc.Login(context.Background(), "nobody", "whatever")
	if apperrors.CodeOf(err) != apperrors.CodeAuthInvalidCredentials {
		t.Fatalf("code = %v, want invalid credentials", apperrors.CodeOf(err))
	}
}

func TestRefreshRotationRejectsReplay(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc)
	_, session, err := svc.Login(context.Background(), "alice", "Str0ngP@ss1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	rotated, err := svc.Refresh(context.Background(), session.RefreshToken)
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if rotated.RefreshToken == session.RefreshToken {
		t.Fatal("expected a new refresh token")
	}

	_, err = svc.Refresh(context.Background(), session.RefreshToken)
	if apperrors.CodeOf(err) != apperrors.CodeAuthRefreshInvalid {
		t.Fatalf("replay code = %v, want refresh invalid", apperrors.CodeOf(err))
	}

	if _, err := svc.Refresh(context.Background(), rotated.RefreshToken); err != nil {
		t.Fatalf("rotated token should still refresh: %v", err)
	}
}

func TestRefreshRejectsExpiredSession(t *testing.T) {
	svc, _, clock := newTestService(t)
	register(t, svc)
	_, session, err := svc.Login(context.Background(), "alice", "Str0ngP@ss1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	clock.advance(8 * 24 * time.Hour)
	_, err = svc.Refresh(context.Background(), session.RefreshToken)
	if apperrors.CodeOf(err) != apperrors.CodeAuthRefreshInvalid {
		t.Fatalf("code = %v, want refresh invalid", apperrors.CodeOf(err))
	}
}

func TestLogoutUnknownTokenRejected(t *testing.T) {
	svc, _, _ := newTestService(t)
	err := svc.Logout(context.Background(), "never-issued")
	if apperrors.CodeOf(err) != apperrors.CodeMalformedRequest {
		t.Fatalf("code = %v, want malformed request", apperrors.CodeOf(err))
	}
}

func TestLogoutKnownTokenKillsRefresh(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc)
	_, session, err := svc.Login(context.Background(), "alice", "Str0ngP@ss1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if err := svc.Logout(context.Background(), session.RefreshToken); err != nil {
		t.Fatalf("logout: %v", err)
	}
	_, err = svc.Refresh(context.Background(), session.RefreshToken)
	if apperrors.CodeOf(err) != apperrors.CodeAuthRefreshInvalid {
		t.Fatalf("code = %v, want refresh invalid", apperrors.CodeOf(err))
	}
}

func TestForgotPasswordUnknownEmailSilent(t *testing.T) {
	svc, _, _ := newTestService(t)
	value, err := svc.ForgotPassword(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	if value != "" {
		t.Fatalf("token = %q, want empty for unknown email", value)
	}
}

func TestResetPasswordInvalidatesSessions(t *testing.T) {
	svc, _, _ := newTestService(t)
	register(t, svc)
	_, session, err := svc.Login(context.Background(), "alice", "Str0ngP@ss1")
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	value, err := svc.ForgotPassword(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("forgot password: %v", err)
	}
	if value == "" {
		t.Fatal("expected reset token")
	}

	if err := svc.ResetPassword(context.Background(), value, "N3wP@ssword9"); err != nil {
		t.Fatalf("reset password: %v", err)
	}

	// Old sessions are dead.
	_, err = svc.Refresh(context.Background(), session.RefreshToken)
	if apperrors.CodeOf(err) != apperrors.CodeAuthRefreshInvalid {
		t.Fatalf("code = %v, want refresh invalid", apperrors.CodeOf(err))
	}

	// Token is single use.
	err = svc.ResetPassword(context.Background(), value, "An0therP@ss7")
	if apperrors.CodeOf(err) != apperrors.CodeAuthResetTokenInvalid {
		t.Fatalf("code = %v, want reset token invalid", apperrors.CodeOf(err))
	}

	// Old password no longer works, the new one does.
	if _, _, err := svc.Login(context.Background(), "alice", "Str0ngP@ss1"); err == nil {
		t.Fatal("old password still accepted")
	}
	if _, _, err := svc.Login(context.Background(), "alice", "N3wP@ssword9"); err != nil {
		t.Fatalf("login with new password: %v", err)
	}
}

func TestResetPasswordExpiredToken(t *testing.T) {
	svc, _, clock := newTestService(t)
	register(t, svc)
	value, err := svc.ForgotPassword(context.Background(), "alice@example.com")
	if err != nil {
		t.Fatalf("forgot password: %v", err)
	}

	clock.advance(2 * time.Hour)
	err = svc.ResetPassword(context.Background(), value, "N3wP@ssword9")
	if apperrors.CodeOf(err) != apperrors.CodeAuthResetTokenInvalid {
		t.Fatalf("code = %v, want reset token invalid", apperrors.CodeOf(err))
	}
}

func TestUpdateProfileEmail(t *testing.T) {
	svc, _, _ := newTestService(t)
	userID := register(t, svc)

	email := "Alice.New@Example.com"
	updated, err := svc.UpdateProfile(context.Background(), userID, ProfileUpdate{Email: &email})
	if err != nil {
		t.Fatalf("update profile: %v", err)
	}
	if updated.Email != "alice.new@example.com" {
		t.Fatalf("email = %q, want lowercased", updated.Email)
	}
	if updated.EmailVerified {
		t.Fatal("expected verified flag cleared")
	}

	got, err := svc.Profile(context.Background(), userID)
	if err != nil {
		t.Fatalf("profile: %v", err)
	}
	if got.Email != "alice.new@example.com" {
		t.Fatalf("persisted email = %q", got.Email)
	}
}

func TestCleanupExpired(t *testing.T) {
	svc, _, clock := newTestService(t)
	register(t, svc)
	if _, _, err := svc.Login(context.Background(), "alice", "Str0ngP@ss1"); err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := svc.ForgotPassword(context.Background(), "alice@example.com"); err != nil {
		t.Fatalf("forgot password: %v", err)
	}

	clock.advance(8 * 24 * time.Hour)
	removed, err := svc.CleanupExpired(context.Background())
	if err != nil {
		t.Fatalf("cleanup: %v", err)
	}
	if removed != 2 {
		t.Fatalf("removed = %d, want 2", removed)
	}
}
