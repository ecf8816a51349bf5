// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"net/http"

	"codeberg.org/oliverandrich/hdnotes/internal/auth"
	"codeberg.org/oliverandrich/hdnotes/internal/repository"
	"github.com/labstack/echo/v4"
)

// Handlers contains the handlers for authenticated resources.
type Handlers struct {
	repo *repository.Repository
}

// New creates a new Handlers instance.
func New(repo *repository.Repository) *Handlers {
	return &Handlers{repo: repo}
}

// Health returns the health status.
func (h *Handlers) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Profile returns the authenticated user.
func (h *Handlers) Profile(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return message(c, http.StatusUnauthorized, "Unauthenticated")
	}
	return c.JSON(http.StatusOK, map[string]any{"user": user})
}
