// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package models

import (
	"strings"
	"time"
)

// User is the public projection of a user record. It never carries the
// password hash, OTP state or federated subject id.
type User struct { //nolint:govet // fieldalignment not critical for models
	ID              string     `db:"id" json:"id"`
	Name            string     `db:"name" json:"name"`
	Email           string     `db:"email" json:"email"`
	DateOfBirth     *time.Time `db:"date_of_birth" json:"dateOfBirth,omitempty"`
	IsEmailVerified bool       `db:"is_email_verified" json:"isEmailVerified"`
	CreatedAt       time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time  `db:"updated_at" json:"updatedAt"`
}

// SecretField selects secret columns to load alongside an account.
type SecretField uint8

const (
	SecretPassword SecretField = 1 << iota
	SecretOTP

	NoSecrets SecretField = 0
)

// Has reports whether f includes s.
func (f SecretField) Has(s SecretField) bool {
	return f&s == s
}

// Account is a user record together with its secrets. Secrets that were not
// requested when loading stay nil.
type Account struct {
	User

	PasswordHash *string    `db:"password_hash"`
	GoogleID     *string    `db:"google_id"`
	OTPCode      *string    `db:"otp_code"`
	OTPExpiresAt *time.Time `db:"otp_expires_at"`
}

// Public returns the projection that is safe to hand to clients.
func (a *Account) Public() User {
	return a.User
}

// HasPassword reports whether the account can sign in with a password.
func (a *Account) HasPassword() bool {
	return a.PasswordHash != nil && *a.PasswordHash != ""
}

// HasChallenge reports whether an OTP challenge is pending.
func (a *Account) HasChallenge() bool {
	return a.OTPCode != nil && a.OTPExpiresAt != nil
}

// NormalizeEmail lower-cases and trims an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
