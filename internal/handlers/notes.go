// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package handlers

import (
	"errors"
	"net/http"

	"codeberg.org/oliverandrich/hdnotes/internal/auth"
	"codeberg.org/oliverandrich/hdnotes/internal/models"
	"codeberg.org/oliverandrich/hdnotes/internal/repository"
	"github.com/labstack/echo/v4"
)

// NoteRequest is the request body for creating and updating notes.
type NoteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

func (r NoteRequest) validate() (string, string, fieldErrors) {
	var errs fieldErrors
	title := errs.length("title", "Title", r.Title, 1, 200)
	content := errs.length("content", "Content", r.Content, 1, 10000)
	return title, content, errs
}

func noteNotFound(c echo.Context) error {
	return message(c, http.StatusNotFound, "Note not found")
}

// ListNotes returns the caller's notes, newest first.
func (h *Handlers) ListNotes(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return message(c, http.StatusUnauthorized, "Unauthenticated")
	}

	notes, err := h.repo.ListNotesByUser(c.Request().Context(), user.ID)
	if err != nil {
		return internalError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"notes": notes})
}

// CreateNote stores a new note for the caller.
func (h *Handlers) CreateNote(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return message(c, http.StatusUnauthorized, "Unauthenticated")
	}

	var req NoteRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	title, content, errs := req.validate()
	if len(errs) > 0 {
		return errs.respond(c)
	}

	note := &models.Note{UserID: user.ID, Title: title, Content: content}
	if err := h.repo.CreateNote(c.Request().Context(), note); err != nil {
		return internalError(c, err)
	}

	return c.JSON(http.StatusCreated, map[string]any{
		"message": "Note created successfully",
		"note":    note,
	})
}

// UpdateNote replaces title and content of one of the caller's notes.
func (h *Handlers) UpdateNote(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return message(c, http.StatusUnauthorized, "Unauthenticated")
	}

	var req NoteRequest
	if err := c.Bind(&req); err != nil {
		return invalidBody(c)
	}
	title, content, errs := req.validate()
	if len(errs) > 0 {
		return errs.respond(c)
	}

	note, err := h.repo.UpdateNote(c.Request().Context(), c.Param("id"), user.ID, title, content)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return noteNotFound(c)
		}
		return internalError(c, err)
	}

	return c.JSON(http.StatusOK, map[string]any{
		"message": "Note updated successfully",
		"note":    note,
	})
}

// DeleteNote removes one of the caller's notes.
func (h *Handlers) DeleteNote(c echo.Context) error {
	user := auth.GetUser(c.Request().Context())
	if user == nil {
		return message(c, http.StatusUnauthorized, "Unauthenticated")
	}

	if err := h.repo.DeleteNote(c.Request().Context(), c.Param("id"), user.ID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return noteNotFound(c)
		}
		return internalError(c, err)
	}

	return message(c, http.StatusOK, "Note deleted successfully")
}
