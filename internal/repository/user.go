// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"codeberg.org/oliverandrich/hdnotes/internal/models"
	"github.com/google/uuid"
)

const publicUserColumns = `id, name, email, date_of_birth, is_email_verified, created_at, updated_at`

// accountColumns builds the projection for an account load. Secrets are only
// selected when explicitly requested.
func accountColumns(secrets models.SecretField) string {
	cols := []string{publicUserColumns, "google_id"}
	if secrets.Has(models.SecretPassword) {
		cols = append(cols, "password_hash")
	}
	if secrets.Has(models.SecretOTP) {
		cols = append(cols, "otp_code", "otp_expires_at")
	}
	return strings.Join(cols, ", ")
}

// CreateUser inserts a new user. The email is normalized before storage and
// a missing ID is generated.
func (r *Repository) CreateUser(ctx context.Context, acct *models.Account) error {
	if acct.ID == "" {
		acct.ID = uuid.NewString()
	}
	acct.Email = models.NormalizeEmail(acct.Email)
	now := r.now()
	acct.CreatedAt = now
	acct.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, email, date_of_birth, password_hash, google_id,
			is_email_verified, otp_code, otp_expires_at, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		acct.ID, acct.Name, acct.Email, acct.DateOfBirth, acct.PasswordHash, acct.GoogleID,
		acct.IsEmailVerified, acct.OTPCode, acct.OTPExpiresAt, acct.CreatedAt, acct.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, "users.email") {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUserByID retrieves the public projection of a user.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	err := r.db.GetContext(ctx, &user, `SELECT `+publicUserColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, wrapError(err)
	}
	return &user, nil
}

// GetAccountByEmail retrieves a user by email, loading only the requested secrets.
func (r *Repository) GetAccountByEmail(ctx context.Context, email string, secrets models.SecretField) (*models.Account, error) {
	var acct models.Account
	err := r.db.GetContext(ctx, &acct,
		`SELECT `+accountColumns(secrets)+` FROM users WHERE email = ?`,
		models.NormalizeEmail(email))
	if err != nil {
		return nil, wrapError(err)
	}
	return &acct, nil
}

// EmailExists reports whether the email is already registered.
func (r *Repository) EmailExists(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`, models.NormalizeEmail(email))
	return exists, err
}

// SetUserOTP stores a pending OTP challenge, replacing any previous one.
func (r *Repository) SetUserOTP(ctx context.Context, userID, code string, expiresAt time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET otp_code = ?, otp_expires_at = ?, updated_at = ? WHERE id = ?`,
		code, expiresAt.UTC(), r.now(), userID)
	if err != nil {
		return fmt.Errorf("set otp: %w", err)
	}
	return requireAffected(res)
}

// MarkEmailVerified clears the OTP challenge and flags the email as verified.
func (r *Repository) MarkEmailVerified(ctx context.Context, userID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET is_email_verified = 1, otp_code = NULL, otp_expires_at = NULL, updated_at = ?
		 WHERE id = ?`,
		r.now(), userID)
	if err != nil {
		return fmt.Errorf("mark email verified: %w", err)
	}
	return requireAffected(res)
}

// LinkGoogleID associates a Google subject id with an existing user.
func (r *Repository) LinkGoogleID(ctx context.Context, userID, googleID string) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE users SET google_id = ?, updated_at = ? WHERE id = ?`,
		googleID, r.now(), userID)
	if err != nil {
		return fmt.Errorf("link google id: %w", err)
	}
	return requireAffected(res)
}
