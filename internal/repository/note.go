// Copyright 2025 Oliver Andrich
// Licensed under the EUPL-1.2

package repository

import (
	"context"
	"fmt"

	"codeberg.org/oliverandrich/hdnotes/internal/models"
	"github.com/google/uuid"
)

// CreateNote inserts a note for its owner.
func (r *Repository) CreateNote(ctx context.Context, note *models.Note) error {
	if note.ID == "" {
		note.ID = uuid.NewString()
	}
	now := r.now()
	note.CreatedAt = now
	note.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO notes (id, user_id, title, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		note.ID, note.UserID, note.Title, note.Content, note.CreatedAt, note.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert note: %w", err)
	}
	return nil
}

// ListNotesByUser returns the user's notes, newest first.
func (r *Repository) ListNotesByUser(ctx context.Context, userID string) ([]models.Note, error) {
	notes := []models.Note{}
	err := r.db.SelectContext(ctx, &notes,
		`SELECT * FROM notes WHERE user_id = ? ORDER BY created_at DESC, rowid DESC`, userID)
	if err != nil {
		return nil, err
	}
	return notes, nil
}

// GetNote retrieves a note owned by the given user.
func (r *Repository) GetNote(ctx context.Context, id, userID string) (*models.Note, error) {
	var note models.Note
	err := r.db.GetContext(ctx, &note, `SELECT * FROM notes WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return nil, wrapError(err)
	}
	return &note, nil
}

// UpdateNote replaces title and content of a note owned by the given user.
func (r *Repository) UpdateNote(ctx context.Context, id, userID, title, content string) (*models.Note, error) {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notes SET title = ?, content = ?, updated_at = ? WHERE id = ? AND user_id = ?`,
		title, content, r.now(), id, userID)
	if err != nil {
		return nil, fmt.Errorf("update note: %w", err)
	}
	if err := requireAffected(res); err != nil {
		return nil, err
	}
	return r.GetNote(ctx, id, userID)
}

// DeleteNote deletes a note owned by the given user.
func (r *Repository) DeleteNote(ctx context.Context, id, userID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM notes WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("delete note: %w", err)
	}
	return requireAffected(res)
}
