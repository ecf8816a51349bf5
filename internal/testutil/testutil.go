// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

// Package testutil provides test helpers and fixtures.
package testutil

import (
	"context"
	"io"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"codeberg.org/oliverandrich/hdnotes/internal/database"
	"codeberg.org/oliverandrich/hdnotes/internal/models"
	"codeberg.org/oliverandrich/hdnotes/internal/repository"
	"codeberg.org/oliverandrich/hdnotes/internal/services/google"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"
	"github.com/vinovest/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// NewTestDB creates an in-memory SQLite database for tests.
// Returns both the database connection and the repository for convenience.
func NewTestDB(t *testing.T) (*sqlx.DB, *repository.Repository) {
	t.Helper()
	db, err := database.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = db.Close()
	})
	repo := repository.New(db)
	return db, repo
}

// UserOption customizes a fixture account before it is stored.
type UserOption func(*models.Account)

// WithPassword sets a bcrypt hash of password.
func WithPassword(password string) UserOption {
	return func(a *models.Account) {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
		if err != nil {
			panic(err)
		}
		h := string(hash)
		a.PasswordHash = &h
	}
}

// WithGoogleID links a federated subject id.
func WithGoogleID(id string) UserOption {
	return func(a *models.Account) { a.GoogleID = &id }
}

// Verified marks the email as verified.
func Verified() UserOption {
	return func(a *models.Account) { a.IsEmailVerified = true }
}

// NewTestUser creates an unverified test user in the database. Users with
// neither a password nor a Google id get the password "secret123".
func NewTestUser(t *testing.T, repo *repository.Repository, email string, opts ...UserOption) *models.Account {
	t.Helper()
	dob := time.Date(1990, time.May, 17, 0, 0, 0, 0, time.UTC)
	acct := &models.Account{
		User: models.User{
			Name:        "Test User",
			Email:       email,
			DateOfBirth: &dob,
		},
	}
	for _, opt := range opts {
		opt(acct)
	}
	if acct.PasswordHash == nil && acct.GoogleID == nil {
		WithPassword("secret123")(acct)
	}
	require.NoError(t, repo.CreateUser(context.Background(), acct))
	return acct
}

// NewTestNote creates a note owned by userID.
func NewTestNote(t *testing.T, repo *repository.Repository, userID, title string) *models.Note {
	t.Helper()
	note := &models.Note{UserID: userID, Title: title, Content: "content of " + title}
	require.NoError(t, repo.CreateNote(context.Background(), note))
	return note
}

// Clock is a manually advanced time source.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock returns a clock frozen at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start}
}

// Now returns the current fake time.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// Mail is a message captured by Mailer.
type Mail struct {
	To      string
	Subject string
	Body    string
}

// Mailer records outgoing mail instead of sending it.
type Mailer struct {
	mu   sync.Mutex
	sent []Mail
	Err  error
}

// Send records the message, or returns Err when set.
func (m *Mailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.sent = append(m.sent, Mail{To: to, Subject: subject, Body: body})
	return nil
}

// Sent returns a copy of all recorded messages.
func (m *Mailer) Sent() []Mail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Mail(nil), m.sent...)
}

// Last returns the most recent message.
func (m *Mailer) Last() (Mail, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return Mail{}, false
	}
	return m.sent[len(m.sent)-1], true
}

// GoogleVerifier accepts only the raw tokens registered in Identities.
type GoogleVerifier struct {
	Identities map[string]*google.Identity
}

// Verify returns the identity registered for raw.
func (v *GoogleVerifier) Verify(_ context.Context, raw string) (*google.Identity, error) {
	if id, ok := v.Identities[raw]; ok {
		return id, nil
	}
	return nil, google.ErrInvalidAssertion
}

// NewEchoContext creates an Echo context for handler tests.
func NewEchoContext(e *echo.Echo, method, path string, body io.Reader) (echo.Context, *httptest.ResponseRecorder) {
	req := httptest.NewRequest(method, path, body)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	return c, rec
}

// NewEchoContextWithHeaders creates an Echo context with custom headers.
func NewEchoContextWithHeaders(e *echo.Echo, method, path string, body io.Reader, headers map[string]string) (echo.Context, *httptest.ResponseRecorder) {
	c, rec := NewEchoContext(e, method, path, body)
	for k, v := range headers {
		c.Request().Header.Set(k, v)
	}
	return c, rec
}
