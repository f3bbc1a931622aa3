// Package token mints and verifies QuestForge credentials.
//
// Access tokens are short-lived HS256 JWTs carrying the user ID as
// subject. Refresh tokens are opaque UUIDs whose state lives in the
// session store; nothing about them is self-validating.
package token

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	// ErrInvalidToken indicates the access token failed verification.
	ErrInvalidToken = errors.New("access token is invalid")
	// ErrExpiredToken indicates the access token is past its expiry.
	ErrExpiredToken = errors.New("access token is expired")
)

// Config defines how access tokens are minted and verified.
type Config struct {
	Secret    []byte
	Issuer    string
	Audience  string
	AccessTTL time.Duration
	Now       func() time.Time
}

// Claims captures the validated access token claims.
type Claims struct {
	UserID    string
	Username  string
	ExpiresAt time.Time
	IssuedAt  time.Time
}

type accessClaims struct {
	jwt.RegisteredClaims
	Username string `json:"username,omitempty"`
}

// Service mints and verifies tokens for one signing configuration.
type Service struct {
	cfg Config
}

// NewService validates the configuration and returns a token service.
func NewService(cfg Config) (*Service, error) {
	if len(cfg.Secret) < 32 {
		return nil, fmt.Errorf("token secret must be at least 32 bytes")
	}
	if strings.TrimSpace(cfg.Issuer) == "" {
		return nil, fmt.Errorf("token issuer is required")
	}
	if strings.TrimSpace(cfg.Audience) == "" {
		return nil, fmt.Errorf("token audience is required")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 30 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{cfg: cfg}, nil
}

// MintAccess issues a signed access token for the user.
func (s *Service) MintAccess(userID, username string) (string, time.Time, error) {
	if strings.TrimSpace(userID) == "" {
		return "", time.Time{}, fmt.Errorf("user id is required")
	}

	now := s.cfg.Now().UTC()
	expiresAt := now.Add(s.cfg.AccessTTL)
	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.cfg.Issuer,
			Audience:  jwt.ClaimStrings{s.cfg.Audience},
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
		Username: username,
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.cfg.Secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// VerifyAccess parses and validates an access token.
func (s *Service) VerifyAccess(value string) (Claims, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return Claims{}, ErrInvalidToken
	}

	var parsed accessClaims
	_, err := jwt.ParseWithClaims(value, &parsed, func(t *jwt.Token) (any, error) {
		return s.cfg.Secret, nil
	},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(s.cfg.Issuer),
		jwt.WithAudience(s.cfg.Audience),
		jwt.WithTimeFunc(func() time.Time { return s.cfg.Now() }),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return Claims{}, ErrExpiredToken
		}
		return Claims{}, ErrInvalidToken
	}

	if parsed.Subject == "" {
		return Claims{}, ErrInvalidToken
	}

	claims := Claims{
		UserID:   parsed.Subject,
		Username: parsed.Username,
	}
	if parsed.ExpiresAt != nil {
		claims.ExpiresAt = parsed.ExpiresAt.Time
	}
	if parsed.IssuedAt != nil {
		claims.IssuedAt = parsed.IssuedAt.Time
	}
	return claims, nil
}

// NewRefreshToken generates an opaque refresh token.
func NewRefreshToken() (string, error) {
	value, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generate refresh token: %w", err)
	}
	return value.String(), nil
}
