package app

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/xid"

	"studyhub/internal/security"
	"studyhub/pkg/domain"
)

const storagePrefix = "study-materials"

// UploadInput carries a resource upload.
type UploadInput struct {
	FileName string
	MimeType string
	Size     int64
	Title    string
	Tags     []string
	Data     []byte
}

// UploadResource validates, stores and records an uploaded study material.
func (a *App) UploadResource(ctx context.Context, userID string, in UploadInput) (domain.Resource, error) {
	if !security.ValidFilename(in.FileName) {
		return domain.Resource{}, ErrInvalidFilename
	}
	fileName := security.SanitizeFilename(in.FileName)
	if !security.ValidFileType(in.MimeType) {
		return domain.Resource{}, ErrInvalidFileType
	}
	if !security.ValidFileSize(in.Size) || int64(len(in.Data)) != in.Size {
		return domain.Resource{}, ErrInvalidFileSize
	}
	if sig, bad := security.SniffMaliciousSignature(in.Data); bad {
		slog.Warn("upload rejected by signature check", "signature", sig, "file", fileName)
		return domain.Resource{}, ErrMaliciousContent
	}

	title := security.SanitizeText(strings.TrimSpace(in.Title))
	if title == "" {
		title = fileName
	}
	if !security.ValidTitle(title) {
		return domain.Resource{}, ErrInvalidTitle
	}
	tags, err := cleanTags(in.Tags)
	if err != nil {
		return domain.Resource{}, err
	}

	key := fmt.Sprintf("%s/%s/%s%s", storagePrefix, userID, xid.New().String(), strings.ToLower(filepath.Ext(fileName)))
	if err := a.objects.Put(ctx, key, bytes.NewReader(in.Data), in.Size, in.MimeType); err != nil {
		return domain.Resource{}, fmt.Errorf("store object: %w", err)
	}

	resource := domain.Resource{
		ID:          uuid.NewString(),
		UploaderID:  userID,
		Title:       title,
		Tags:        tags,
		URL:         a.objects.PublicURL(key),
		FileName:    fileName,
		FileSize:    in.Size,
		FileType:    in.MimeType,
		StoragePath: key,
		UploadedAt:  time.Now().UTC(),
	}
	if err := a.store.SaveResource(resource); err != nil {
		// Roll back the object so storage does not accumulate orphans.
		if delErr := a.objects.Delete(ctx, key); delErr != nil {
			slog.Warn("rollback object delete failed", "key", key, "error", delErr)
		}
		return domain.Resource{}, fmt.Errorf("save resource: %w", err)
	}
	return resource, nil
}

// ListResources returns the user's uploads, newest first.
func (a *App) ListResources(userID string) ([]domain.Resource, error) {
	return a.store.ListResourcesByOwner(userID)
}

// ResourceDownloadURL returns a short-lived signed URL for the file.
func (a *App) ResourceDownloadURL(ctx context.Context, userID, resourceID string) (string, error) {
	if !security.ValidUUID(resourceID) {
		return "", ErrNotFound
	}
	resource, ok, err := a.store.GetResource(userID, resourceID)
	if err != nil {
		return "", fmt.Errorf("get resource: %w", err)
	}
	if !ok {
		return "", ErrNotFound
	}
	return a.objects.PresignGet(ctx, resource.StoragePath, 15*time.Minute)
}

// DeleteResource removes an upload, its stored object, and any bookmarks
// pointing at it.
func (a *App) DeleteResource(ctx context.Context, userID, resourceID string) error {
	if !security.ValidUUID(resourceID) {
		return ErrNotFound
	}
	resource, ok, err := a.store.GetResource(userID, resourceID)
	if err != nil {
		return fmt.Errorf("get resource: %w", err)
	}
	if !ok {
		return ErrNotFound
	}
	if resource.StoragePath != "" {
		if err := a.objects.Delete(ctx, resource.StoragePath); err != nil {
			slog.Warn("delete stored object failed", "key", resource.StoragePath, "error", err)
		}
	}
	if err := a.store.DeleteBookmarksByResource(resourceID); err != nil {
		return fmt.Errorf("delete bookmarks: %w", err)
	}
	return a.store.DeleteResource(userID, resourceID)
}

func cleanTags(tags []string) ([]string, error) {
	if len(tags) > security.MaxTags {
		return nil, ErrTooManyTags
	}
	out := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = security.SanitizeText(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if len(tag) > security.MaxTagLen {
			return nil, ErrTooManyTags
		}
		out = append(out, tag)
	}
	return out, nil
}
