// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"codeberg.org/oliverandrich/hdnotes/internal/models"
	"codeberg.org/oliverandrich/hdnotes/internal/repository"
	"codeberg.org/oliverandrich/hdnotes/internal/services/google"
	"codeberg.org/oliverandrich/hdnotes/internal/services/otp"
	"codeberg.org/oliverandrich/hdnotes/internal/services/session"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrDuplicateEmail     = repository.ErrDuplicateEmail
	ErrUserNotFound       = errors.New("user not found")
	ErrNoChallenge        = otp.ErrNoChallenge
	ErrExpired            = otp.ErrExpired
	ErrMismatch           = otp.ErrMismatch
	ErrAlreadyVerified    = errors.New("email already verified")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrEmailNotVerified   = errors.New("email not verified")
	ErrInvalidAssertion   = google.ErrInvalidAssertion
	ErrInvalidToken       = session.ErrInvalidToken
)

// dummyHash is used for constant-time login to prevent timing attacks
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password-for-timing"), bcrypt.DefaultCost)

// Store is the persistence the orchestrator needs.
type Store interface {
	otp.Store
	CreateUser(ctx context.Context, acct *models.Account) error
	GetUserByID(ctx context.Context, id string) (*models.User, error)
	GetAccountByEmail(ctx context.Context, email string, secrets models.SecretField) (*models.Account, error)
	LinkGoogleID(ctx context.Context, userID, googleID string) error
}

// Mailer delivers outbound notifications.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

// IdentityVerifier checks federated identity assertions.
type IdentityVerifier interface {
	Verify(ctx context.Context, raw string) (*google.Identity, error)
}

// Session is the result of a successful authentication.
type Session struct {
	Token     string
	ExpiresAt time.Time
	User      models.User
}

// SignupParams holds the parameters for user registration
type SignupParams struct {
	Name        string
	Email       string
	Password    string
	DateOfBirth time.Time
}

type Service struct {
	store             Store
	otp               *otp.Engine
	tokens            *session.Manager
	identities        IdentityVerifier
	mailer            Mailer
	passwordValidator *PasswordValidator
	hashCost          int
	now               func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithClock replaces the time source used for OTP issuance and checks.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithHashCost sets the bcrypt cost for new password hashes.
func WithHashCost(cost int) Option {
	return func(s *Service) { s.hashCost = cost }
}

func NewService(store Store, tokens *session.Manager, identities IdentityVerifier, mailer Mailer, opts ...Option) *Service {
	s := &Service{
		store:             store,
		tokens:            tokens,
		identities:        identities,
		mailer:            mailer,
		passwordValidator: DefaultPasswordValidator(),
		hashCost:          bcrypt.DefaultCost,
		now:               time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.otp = otp.NewEngine(store, otp.WithClock(s.now))
	return s
}

// PasswordValidator returns the password validator for use in handlers
func (s *Service) PasswordValidator() *PasswordValidator {
	return s.passwordValidator
}

// Signup creates an unverified user and mails an OTP. No session is issued
// until the email is verified.
func (s *Service) Signup(ctx context.Context, params SignupParams) (*models.User, error) {
	hash, err := HashPassword(params.Password, s.hashCost)
	if err != nil {
		return nil, err
	}

	dob := params.DateOfBirth.UTC()
	acct := &models.Account{
		User: models.User{
			Name:        params.Name,
			Email:       params.Email,
			DateOfBirth: &dob,
		},
		PasswordHash: &hash,
	}

	if err := s.store.CreateUser(ctx, acct); err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			slog.Warn("signup_failed", "email", models.NormalizeEmail(params.Email), "reason", "duplicate_email")
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	if err := s.issueAndSendOTP(ctx, acct); err != nil {
		return nil, err
	}

	slog.Info("signup_success", "user_id", acct.ID, "email", acct.Email)

	user := acct.Public()
	return &user, nil
}

// VerifyOTP consumes the pending code and returns the user's first session.
func (s *Service) VerifyOTP(ctx context.Context, email, code string) (*Session, error) {
	acct, err := s.store.GetAccountByEmail(ctx, email, models.SecretOTP)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := s.otp.Verify(ctx, acct, code); err != nil {
		if errors.Is(err, ErrNoChallenge) || errors.Is(err, ErrExpired) || errors.Is(err, ErrMismatch) {
			slog.Warn("otp_verify_failed", "user_id", acct.ID, "reason", err.Error())
			return nil, err
		}
		return nil, fmt.Errorf("failed to verify otp: %w", err)
	}

	slog.Info("otp_verified", "user_id", acct.ID)
	return s.newSession(acct.Public())
}

// ResendOTP replaces the pending code of an unverified user and mails it.
func (s *Service) ResendOTP(ctx context.Context, email string) error {
	acct, err := s.store.GetAccountByEmail(ctx, email, models.NoSecrets)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to get user: %w", err)
	}

	if acct.IsEmailVerified {
		return ErrAlreadyVerified
	}

	return s.issueAndSendOTP(ctx, acct)
}

// Login authenticates with email and password.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	acct, err := s.store.GetAccountByEmail(ctx, email, models.SecretPassword)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Constant-time: always perform bcrypt comparison to prevent timing attacks
			_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
			slog.Warn("login_failed", "email", models.NormalizeEmail(email), "reason", "user_not_found")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	if !acct.IsEmailVerified {
		slog.Warn("login_failed", "user_id", acct.ID, "reason", "email_not_verified")
		return nil, ErrEmailNotVerified
	}

	if !VerifyPassword(acct, password) {
		slog.Warn("login_failed", "user_id", acct.ID, "reason", "invalid_password")
		return nil, ErrInvalidCredentials
	}

	slog.Info("login_success", "user_id", acct.ID)
	return s.newSession(acct.Public())
}

// GoogleLogin signs in with a Google ID token. An existing account with the
// same email gets the Google id linked. Otherwise a verified account without
// password is created.
func (s *Service) GoogleLogin(ctx context.Context, rawToken string) (*Session, error) {
	id, err := s.identities.Verify(ctx, rawToken)
	if err != nil {
		slog.Warn("google_login_failed", "reason", "invalid_assertion")
		return nil, ErrInvalidAssertion
	}

	acct, err := s.resolveGoogleAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	slog.Info("google_login_success", "user_id", acct.ID)
	return s.newSession(acct.Public())
}

func (s *Service) resolveGoogleAccount(ctx context.Context, id *google.Identity) (*models.Account, error) {
	acct, err := s.store.GetAccountByEmail(ctx, id.Email, models.NoSecrets)
	switch {
	case err == nil:
		return acct, s.linkGoogleID(ctx, acct, id.Subject)
	case !errors.Is(err, repository.ErrNotFound):
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	acct = &models.Account{
		User: models.User{
			Name:            id.Name,
			Email:           id.Email,
			IsEmailVerified: true,
		},
		GoogleID: &id.Subject,
	}
	if err := s.store.CreateUser(ctx, acct); err != nil {
		if !errors.Is(err, ErrDuplicateEmail) {
			return nil, fmt.Errorf("failed to create user: %w", err)
		}
		// Lost a race with a concurrent signup for the same email.
		acct, err = s.store.GetAccountByEmail(ctx, id.Email, models.NoSecrets)
		if err != nil {
			return nil, fmt.Errorf("failed to get user: %w", err)
		}
		return acct, s.linkGoogleID(ctx, acct, id.Subject)
	}

	slog.Info("google_user_created", "user_id", acct.ID, "email", acct.Email)
	return acct, nil
}

func (s *Service) linkGoogleID(ctx context.Context, acct *models.Account, subject string) error {
	if acct.GoogleID != nil {
		if *acct.GoogleID != subject {
			slog.Warn("google_id_mismatch", "user_id", acct.ID)
		}
		return nil
	}
	if err := s.store.LinkGoogleID(ctx, acct.ID, subject); err != nil {
		return fmt.Errorf("failed to link google id: %w", err)
	}
	acct.GoogleID = &subject
	slog.Info("google_id_linked", "user_id", acct.ID)
	return nil
}

// Authenticate resolves a bearer token to its user. Unknown users are
// reported as ErrInvalidToken.
func (s *Service) Authenticate(ctx context.Context, token string) (*models.User, error) {
	userID, err := s.tokens.Verify(token)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.store.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

func (s *Service) issueAndSendOTP(ctx context.Context, acct *models.Account) error {
	code, err := s.otp.Issue(ctx, acct.ID)
	if err != nil {
		return fmt.Errorf("failed to issue otp: %w", err)
	}

	msg := otpMessage(ctx, acct.Name, code)
	if err := s.mailer.Send(ctx, acct.Email, msg.Subject, msg.Body); err != nil {
		return fmt.Errorf("failed to send otp: %w", err)
	}

	slog.Info("otp_issued", "user_id", acct.ID)
	return nil
}

func (s *Service) newSession(user models.User) (*Session, error) {
	token, expires, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &Session{Token: token, ExpiresAt: expires, User: user}, nil
}
