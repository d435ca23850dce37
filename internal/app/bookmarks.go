package app

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"studyhub/internal/security"
	"studyhub/pkg/domain"
)

// AddBookmark saves a resource to the user's bookmarks. Bookmarking the
// same resource twice is a no-op.
func (a *App) AddBookmark(userID, resourceID string) (domain.Bookmark, error) {
	if !security.ValidUUID(resourceID) {
		return domain.Bookmark{}, ErrNotFound
	}
	bookmark := domain.Bookmark{
		ID:         uuid.NewString(),
		UserID:     userID,
		ResourceID: resourceID,
		CreatedAt:  time.Now().UTC(),
	}
	if err := a.store.SaveBookmark(bookmark); err != nil {
		return domain.Bookmark{}, fmt.Errorf("save bookmark: %w", err)
	}
	return bookmark, nil
}

// ListBookmarks returns the user's bookmarks, newest first.
func (a *App) ListBookmarks(userID string) ([]domain.Bookmark, error) {
	return a.store.ListBookmarksByOwner(userID)
}

// RemoveBookmark deletes one of the user's bookmarks.
func (a *App) RemoveBookmark(userID, bookmarkID string) error {
	if !security.ValidUUID(bookmarkID) {
		return ErrNotFound
	}
	return a.store.DeleteBookmark(userID, bookmarkID)
}
