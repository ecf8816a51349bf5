// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package google verifies Google Sign-In ID tokens.
package google

import (
	"context"
	"errors"
	"log/slog"

	"google.golang.org/api/idtoken"
)

var (
	ErrMissingClientID = errors.New("google client id is required")
	// ErrInvalidAssertion is returned for any token that does not verify.
	ErrInvalidAssertion = errors.New("invalid google token")
)

// Identity is the verified subset of an ID token.
type Identity struct {
	Subject string
	Email   string
	Name    string
}

// ValidateFunc checks signature and audience of an ID token.
type ValidateFunc func(ctx context.Context, token, audience string) (*idtoken.Payload, error)

// Verifier checks ID tokens against Google's published keys.
type Verifier struct {
	clientID string
	validate ValidateFunc
}

// Option configures a Verifier.
type Option func(*Verifier)

// WithValidateFunc replaces the token validator.
func WithValidateFunc(fn ValidateFunc) Option {
	return func(v *Verifier) { v.validate = fn }
}

// NewVerifier creates a verifier that accepts tokens issued for clientID.
func NewVerifier(clientID string, opts ...Option) (*Verifier, error) {
	if clientID == "" {
		return nil, ErrMissingClientID
	}
	v := &Verifier{clientID: clientID, validate: idtoken.Validate}
	for _, opt := range opts {
		opt(v)
	}
	return v, nil
}

// Verify validates raw and extracts the identity it asserts.
func (v *Verifier) Verify(ctx context.Context, raw string) (*Identity, error) {
	if raw == "" {
		return nil, ErrInvalidAssertion
	}

	payload, err := v.validate(ctx, raw, v.clientID)
	if err != nil {
		slog.Debug("google_token_rejected", "error", err)
		return nil, ErrInvalidAssertion
	}

	id := &Identity{
		Subject: payload.Subject,
		Email:   claimString(payload.Claims, "email"),
		Name:    claimString(payload.Claims, "name"),
	}
	if id.Subject == "" || id.Email == "" {
		return nil, ErrInvalidAssertion
	}
	if verified, ok := payload.Claims["email_verified"].(bool); ok && !verified {
		return nil, ErrInvalidAssertion
	}
	if id.Name == "" {
		id.Name = id.Email
	}
	return id, nil
}

func claimString(claims map[string]any, key string) string {
	s, _ := claims[key].(string)
	return s
}
