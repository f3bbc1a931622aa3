package token

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func testConfig(now time.Time) Config {
	return Config{
		Secret:    []byte("0123456789abcdef0123456789abcdef"),
		Issuer:    "questforge",
		Audience:  "questforge-api",
		AccessTTL: 30 * time.Minute,
		Now:       func() time.Time { return now },
	}
}

func TestNewServiceRejectsShortSecret(t *testing.T) {
	_, err := NewService(Config{Secret: []byte("short"), Issuer: "questforge", Audience: "api"})
	if err == nil {
		t.Fatal("expected error for short secret")
	}
}

func TestMintAndVerifyAccess(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewService(testConfig(now))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	signed, expiresAt, err := svc.MintAccess("user-1", "alice")
	if err != nil {
		t.Fatalf("MintAccess: %v", err)
	}
	if want := now.Add(30 * time.Minute); !expiresAt.Equal(want) {
		t.Fatalf("expiresAt = %v, want %v", expiresAt, want)
	}

	claims, err := svc.VerifyAccess(signed)
	if err != nil {
		t.Fatalf("VerifyAccess: %v", err)
	}
	if claims.UserID != "user-1" {
		t.Fatalf("UserID = %q, want user-1", claims.UserID)
	}
	if claims.Username != "alice" {
		t.Fatalf("Username = %q, want alice", claims.Username)
	}
}

func TestVerifyAccessExpired(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	cfg := testConfig(now)
	svc, err := NewService(cfg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}

	signed, _, err := svc.MintAccess("user-1", "alice")
	if err != nil {
		t.Fatalf("MintAccess: %v", err)
	}

	later := testConfig(now.Add(31 * time.Minute))
	future, err := NewService(later)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if _, err := future.VerifyAccess(signed); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("err = %v, want ErrExpiredToken", err)
	}
}

func TestVerifyAccessWrongSecret(t *testing.T) {
	now := time.Date(2025, time.March, 1, 12, 0, 0, 0, time.UTC)
	svc, err := NewService(testConfig(now))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	signed, _, err := svc.MintAccess("user-1", "alice")
	if err != nil {
		t.Fatalf("MintAccess: %v", err)
	}

	other := testConfig(now)
	other.Secret = []byte("ffffffffffffffffffffffffffffffff")
	otherSvc, err := NewService(other)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	if _, err := otherSvc.VerifyAccess(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyAccessGarbage(t *testing.T) {
	svc, err := NewService(testConfig(time.Now()))
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	for _, value := range []string{"", "   ", "not-a-jwt", "a.b.c"} {
		if _, err := svc.VerifyAccess(value); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("VerifyAccess(%q) = %v, want ErrInvalidToken", value, err)
		}
	}
}

func TestNewRefreshTokenUnique(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		value, err := NewRefreshToken()
		if err != nil {
			t.Fatalf("NewRefreshToken: %v", err)
		}
		if len(strings.Split(value, "-")) != 5 {
			t.Fatalf("unexpected refresh token shape %q", value)
		}
		if seen[value] {
			t.Fatalf("duplicate refresh token %q", value)
		}
		seen[value] = true
	}
}
