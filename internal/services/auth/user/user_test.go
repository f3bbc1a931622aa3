package user

import (
	"errors"
	"testing"
	"time"
)

func TestNormalizeIdentity(t *testing.T) {
	identity, err := NormalizeIdentity(Identity{Username: " alice ", Email: " Alice@X.COM "})
	if err != nil {
		t.Fatalf("normalize: %v", err)
	}
	if identity.Username != "alice" {
		t.Fatalf("expected trimmed username, got %q", identity.Username)
	}
	if identity.Email != "alice@x.com" {
		t.Fatalf("expected lowercased email, got %q", identity.Email)
	}
}

func TestNormalizeIdentityRejectsBadInput(t *testing.T) {
	cases := []struct {
		name  string
		input Identity
		want  error
	}{
		{"empty username", Identity{Email: "a@b.co"}, ErrEmptyUsername},
		{"short username", Identity{Username: "ab", Email: "a@b.co"}, ErrInvalidUsername},
		{"spaced username", Identity{Username: "a b c", Email: "a@b.co"}, ErrInvalidUsername},
		{"missing at", Identity{Username: "alice", Email: "alice.example.com"}, ErrInvalidEmail},
		{"missing domain dot", Identity{Username: "alice", Email: "alice@example"}, ErrInvalidEmail},
	}
	for _, tc := range cases {
		if _, err := NormalizeIdentity(tc.input); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
}

func TestLocked(t *testing.T) {
	now := time.Now()
	future := now.Add(time.Minute)
	past := now.Add(-time.Minute)

	if (User{}).Locked(now) {
		t.Fatal("user without lock should not be locked")
	}
	if !(User{LockedUntil: &future}).Locked(now) {
		t.Fatal("user locked into the future should be locked")
	}
	if (User{LockedUntil: &past}).Locked(now) {
		t.Fatal("expired lock should not report locked")
	}
}

func TestEmailLocalPart(t *testing.T) {
	if got := EmailLocalPart("alice@x.com"); got != "alice" {
		t.Fatalf("expected alice, got %q", got)
	}
	if got := EmailLocalPart("no-at-sign"); got != "no-at-sign" {
		t.Fatalf("expected passthrough, got %q", got)
	}
}
