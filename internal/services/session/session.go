// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package session issues and verifies stateless bearer tokens.
package session

import (
	"errors"
	"time"

	"codeberg.org/oliverandrich/hdnotes/internal/config"
	"github.com/golang-jwt/jwt/v5"
)

// DefaultLifetime is used when the configuration leaves the lifetime unset.
const DefaultLifetime = 7 * 24 * time.Hour

var (
	ErrMissingSecret = errors.New("session token secret is required")
	// ErrInvalidToken covers every verification failure.
	ErrInvalidToken = errors.New("invalid token")
)

// Claims are the signed token payload.
type Claims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
}

// Manager signs and verifies HS256 tokens.
type Manager struct {
	secret   []byte
	lifetime time.Duration
	now      func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces the time source used for issuing and verifying.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a token manager from cfg.
func NewManager(cfg *config.TokenConfig, opts ...Option) (*Manager, error) {
	if cfg.Secret == "" {
		return nil, ErrMissingSecret
	}
	m := &Manager{
		secret:   []byte(cfg.Secret),
		lifetime: cfg.Lifetime,
		now:      time.Now,
	}
	if m.lifetime <= 0 {
		m.lifetime = DefaultLifetime
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Lifetime returns how long issued tokens stay valid.
func (m *Manager) Lifetime() time.Duration {
	return m.lifetime
}

// Issue signs a token for userID and returns it with its expiry.
func (m *Manager) Issue(userID string) (string, time.Time, error) {
	now := m.now()
	expires := now.Add(m.lifetime)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		UserID: userID,
	})

	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expires, nil
}

// Verify returns the user id carried by token. Bad signatures, malformed
// input and expired tokens all yield ErrInvalidToken.
func (m *Manager) Verify(token string) (string, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return m.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil || !parsed.Valid || claims.UserID == "" {
		return "", ErrInvalidToken
	}
	if claims.Subject != "" && claims.Subject != claims.UserID {
		return "", ErrInvalidToken
	}
	return claims.UserID, nil
}
