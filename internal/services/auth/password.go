// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"codeberg.org/oliverandrich/hdnotes/internal/models"
	"golang.org/x/crypto/bcrypt"
)

// maxPasswordBytes is the bcrypt input limit.
const maxPasswordBytes = 72

// PasswordValidator validates passwords against various criteria
type PasswordValidator struct {
	MinLength        int
	MaxBytes         int
	RequireUppercase bool
	RequireLowercase bool
	RequireDigit     bool
}

// DefaultPasswordValidator returns the validator used for signup.
func DefaultPasswordValidator() *PasswordValidator {
	return &PasswordValidator{
		MinLength: 6,
		MaxBytes:  maxPasswordBytes,
	}
}

// ValidationError represents a single password validation error
type ValidationError struct {
	Code    string
	Message string
}

func (e ValidationError) Error() string {
	return e.Message
}

// ValidationResult holds all validation errors
type ValidationResult struct {
	Valid  bool
	Errors []ValidationError
}

// Validate checks a password against all configured validators
func (v *PasswordValidator) Validate(password string) ValidationResult {
	var errs []ValidationError

	if utf8.RuneCountInString(password) < v.MinLength {
		errs = append(errs, ValidationError{
			Code:    "min_length",
			Message: fmt.Sprintf("Password must be at least %d characters long", v.MinLength),
		})
	}

	if v.MaxBytes > 0 && len(password) > v.MaxBytes {
		errs = append(errs, ValidationError{
			Code:    "max_length",
			Message: fmt.Sprintf("Password must be at most %d bytes long", v.MaxBytes),
		})
	}

	var hasUpper, hasLower, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}

	if v.RequireUppercase && !hasUpper {
		errs = append(errs, ValidationError{
			Code:    "no_uppercase",
			Message: "Password must contain at least one uppercase letter",
		})
	}

	if v.RequireLowercase && !hasLower {
		errs = append(errs, ValidationError{
			Code:    "no_lowercase",
			Message: "Password must contain at least one lowercase letter",
		})
	}

	if v.RequireDigit && !hasDigit {
		errs = append(errs, ValidationError{
			Code:    "no_digit",
			Message: "Password must contain at least one digit",
		})
	}

	return ValidationResult{
		Valid:  len(errs) == 0,
		Errors: errs,
	}
}

// HashPassword returns a salted bcrypt hash of password.
func HashPassword(password string, cost int) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// VerifyPassword compares candidate with the stored hash of acct. Accounts
// without a password never match.
func VerifyPassword(acct *models.Account, candidate string) bool {
	if !acct.HasPassword() {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(*acct.PasswordHash), []byte(candidate)) == nil
}
