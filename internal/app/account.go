package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// DeleteAccount removes the user and every record they own. The per-table
// deletions run concurrently; any failure aborts the whole operation
// before the user row itself is touched.
func (a *App) DeleteAccount(ctx context.Context, userID string) error {
	resources, err := a.store.ListResourcesByOwner(userID)
	if err != nil {
		return fmt.Errorf("list resources: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.store.DeleteTasksByOwner(userID) })
	g.Go(func() error { return a.store.DeleteNotesByOwner(userID) })
	g.Go(func() error { return a.store.DeleteTimetableByOwner(userID) })
	g.Go(func() error { return a.store.DeleteStudyLogsByOwner(userID) })
	g.Go(func() error { return a.store.DeleteBookmarksByOwner(userID) })
	g.Go(func() error { return a.store.DeleteMessagesByOwner(userID) })
	g.Go(func() error { return a.store.DeleteConversationsByOwner(userID) })
	g.Go(func() error {
		for _, res := range resources {
			if res.StoragePath == "" {
				continue
			}
			if err := a.objects.Delete(gctx, res.StoragePath); err != nil {
				// Orphaned objects are tolerable; orphaned rows are not.
				slog.Warn("delete stored object failed", "key", res.StoragePath, "error", err)
			}
		}
		return a.store.DeleteResourcesByOwner(userID)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("delete account data: %w", err)
	}

	if err := a.store.DeleteUser(userID); err != nil {
		return fmt.Errorf("delete user: %w", err)
	}
	return nil
}
