// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"codeberg.org/oliverandrich/hdnotes/internal/auth"
	"codeberg.org/oliverandrich/hdnotes/internal/i18n"
	"codeberg.org/oliverandrich/hdnotes/internal/middleware"
	"codeberg.org/oliverandrich/hdnotes/internal/models"
	"codeberg.org/oliverandrich/hdnotes/internal/services/session"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubAuthenticator struct {
	users map[string]*models.User
	err   error
}

func (s *stubAuthenticator) Authenticate(_ context.Context, token string) (*models.User, error) {
	if s.err != nil {
		return nil, s.err
	}
	if u, ok := s.users[token]; ok {
		return u, nil
	}
	return nil, session.ErrInvalidToken
}

func serve(t *testing.T, mw echo.MiddlewareFunc, header string) (*httptest.ResponseRecorder, *models.User, error) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var seen *models.User
	err := mw(func(c echo.Context) error {
		seen = auth.GetUser(c.Request().Context())
		return c.NoContent(http.StatusNoContent)
	})(c)
	return rec, seen, err
}

func TestRequireToken(t *testing.T) {
	user := &models.User{ID: "user-1"}
	mw := middleware.RequireToken(&stubAuthenticator{users: map[string]*models.User{"good": user}})

	for _, header := range []string{"Bearer good", "bearer good", "Bearer   good "} {
		rec, seen, err := serve(t, mw, header)
		require.NoError(t, err)
		assert.Equal(t, http.StatusNoContent, rec.Code, header)
		assert.Same(t, user, seen)
	}
}

func TestRequireToken_Unauthenticated(t *testing.T) {
	mw := middleware.RequireToken(&stubAuthenticator{users: map[string]*models.User{"good": {ID: "user-1"}}})

	for _, header := range []string{"", "good", "Basic good", "Bearer", "Bearer ", "Bearer bad"} {
		rec, seen, err := serve(t, mw, header)
		require.NoError(t, err)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, header)
		assert.JSONEq(t, `{"message":"Unauthenticated"}`, rec.Body.String())
		assert.Nil(t, seen)
	}
}

func TestRequireToken_StoreFailure(t *testing.T) {
	boom := errors.New("database is locked")
	mw := middleware.RequireToken(&stubAuthenticator{err: boom})

	_, seen, err := serve(t, mw, "Bearer good")
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, seen)
}

func TestLocale(t *testing.T) {
	tests := []struct {
		header string
		locale string
	}{
		{"de-DE,de;q=0.9", "de"},
		{"en-US", "en"},
		{"fr", "en"},
		{"", "en"},
	}

	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Accept-Language", tt.header)
			c := e.NewContext(req, httptest.NewRecorder())

			var got string
			err := middleware.Locale()(func(c echo.Context) error {
				got = i18n.GetLocale(c.Request().Context())
				return nil
			})(c)

			require.NoError(t, err)
			assert.Equal(t, tt.locale, got)
		})
	}
}
