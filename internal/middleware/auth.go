// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"codeberg.org/oliverandrich/hdnotes/internal/auth"
	"codeberg.org/oliverandrich/hdnotes/internal/models"
	"codeberg.org/oliverandrich/hdnotes/internal/services/session"
	"github.com/labstack/echo/v4"
)

// Authenticator resolves a bearer token to its user.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*models.User, error)
}

// RequireToken rejects requests without a valid bearer token and stores the
// authenticated user in the request context. All token failures produce the
// same response.
func RequireToken(authenticator Authenticator) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			token, ok := bearerToken(c.Request())
			if !ok {
				return unauthenticated(c)
			}

			user, err := authenticator.Authenticate(c.Request().Context(), token)
			if err != nil {
				if errors.Is(err, session.ErrInvalidToken) {
					return unauthenticated(c)
				}
				return err
			}

			c.SetRequest(c.Request().WithContext(auth.SetUser(c.Request().Context(), user)))
			return next(c)
		}
	}
}

func bearerToken(r *http.Request) (string, bool) {
	scheme, token, ok := strings.Cut(r.Header.Get(echo.HeaderAuthorization), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthenticated(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, map[string]string{"message": "Unauthenticated"})
}
