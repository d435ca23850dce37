package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"studyhub/internal/security"
	"studyhub/pkg/domain"
)

// CreateNote adds a note for the user.
func (a *App) CreateNote(userID, content string, pinned bool) (domain.Note, error) {
	content = security.SanitizeText(strings.TrimSpace(content))
	if !security.ValidContent(content) {
		return domain.Note{}, ErrInvalidContent
	}
	now := time.Now().UTC()
	note := domain.Note{
		ID:        uuid.NewString(),
		UserID:    userID,
		Content:   content,
		Pinned:    pinned,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := a.store.SaveNote(note); err != nil {
		return domain.Note{}, fmt.Errorf("save note: %w", err)
	}
	return note, nil
}

// ListNotes returns the user's notes, pinned first.
func (a *App) ListNotes(userID string) ([]domain.Note, error) {
	return a.store.ListNotesByOwner(userID)
}

// UpdateNote edits one of the user's notes. The autosave path calls this
// repeatedly, so it is a plain upsert over the existing row.
func (a *App) UpdateNote(userID, noteID string, content *string, pinned *bool) (domain.Note, error) {
	if !security.ValidUUID(noteID) {
		return domain.Note{}, ErrNotFound
	}
	note, ok, err := a.store.GetNote(userID, noteID)
	if err != nil {
		return domain.Note{}, fmt.Errorf("get note: %w", err)
	}
	if !ok {
		return domain.Note{}, ErrNotFound
	}
	if content != nil {
		clean := security.SanitizeText(strings.TrimSpace(*content))
		if !security.ValidContent(clean) {
			return domain.Note{}, ErrInvalidContent
		}
		note.Content = clean
	}
	if pinned != nil {
		note.Pinned = *pinned
	}
	note.UpdatedAt = time.Now().UTC()
	if err := a.store.SaveNote(note); err != nil {
		return domain.Note{}, fmt.Errorf("save note: %w", err)
	}
	return note, nil
}

// DeleteNote removes one of the user's notes.
func (a *App) DeleteNote(userID, noteID string) error {
	if !security.ValidUUID(noteID) {
		return ErrNotFound
	}
	_, ok, err := a.store.GetNote(userID, noteID)
	if err != nil {
		return fmt.Errorf("get note: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	return a.store.DeleteNote(userID, noteID)
}
