// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package otp issues and checks the one-time codes that prove control of an
// email address.
package otp

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"math/big"
	"time"

	"codeberg.org/oliverandrich/hdnotes/internal/models"
)

const (
	// TTL is how long an issued code stays valid.
	TTL = 10 * time.Minute

	minCode = 100000
	maxCode = 999999
)

var (
	ErrNoChallenge = errors.New("no OTP pending")
	ErrExpired     = errors.New("OTP has expired")
	ErrMismatch    = errors.New("OTP does not match")
)

// Store persists the challenge on the user record.
type Store interface {
	SetUserOTP(ctx context.Context, userID, code string, expiresAt time.Time) error
	MarkEmailVerified(ctx context.Context, userID string) error
}

// Engine issues and verifies codes.
type Engine struct {
	store Store
	now   func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock replaces the time source.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// NewEngine creates an Engine backed by store.
func NewEngine(store Store, opts ...Option) *Engine {
	e := &Engine{store: store, now: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Generate returns a uniformly random six digit code.
func Generate() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(maxCode-minCode+1))
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return fmt.Sprintf("%d", n.Int64()+minCode), nil
}

// Issue stores a fresh code for the user and returns it for delivery.
// Any pending code is replaced.
func (e *Engine) Issue(ctx context.Context, userID string) (string, error) {
	code, err := Generate()
	if err != nil {
		return "", err
	}
	if err := e.store.SetUserOTP(ctx, userID, code, e.now().Add(TTL).UTC()); err != nil {
		return "", fmt.Errorf("store otp: %w", err)
	}
	return code, nil
}

// Verify checks candidate against the pending challenge of acct, which must
// be loaded with models.SecretOTP. On success the challenge is consumed and
// the email is marked verified, both in the store and on acct.
func (e *Engine) Verify(ctx context.Context, acct *models.Account, candidate string) error {
	if !acct.HasChallenge() {
		return ErrNoChallenge
	}
	if e.now().After(*acct.OTPExpiresAt) {
		return ErrExpired
	}
	if subtle.ConstantTimeCompare([]byte(*acct.OTPCode), []byte(candidate)) != 1 {
		return ErrMismatch
	}

	if err := e.store.MarkEmailVerified(ctx, acct.ID); err != nil {
		return fmt.Errorf("consume otp: %w", err)
	}
	acct.IsEmailVerified = true
	acct.OTPCode = nil
	acct.OTPExpiresAt = nil
	return nil
}
