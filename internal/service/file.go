package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"tush00nka/filestash/internal/apperr"
	"tush00nka/filestash/internal/model"
	"tush00nka/filestash/internal/query"
	"tush00nka/filestash/internal/repository"
)

type FileOptions struct {
	Bucket         string
	PublicEndpoint string
	ProjectID      string
	Capacity       int64
	ViewURLExpiry  time.Duration
}

type fileService struct {
	backend Backend
	cache   repository.UsageCache
	opts    FileOptions
}

func NewFileService(backend Backend, cache repository.UsageCache, opts FileOptions) FileService {
	if opts.Capacity <= 0 {
		opts.Capacity = DefaultCapacity
	}
	if opts.ViewURLExpiry <= 0 {
		opts.ViewURLExpiry = 15 * time.Minute
	}
	opts.PublicEndpoint = strings.TrimRight(opts.PublicEndpoint, "/")
	return &fileService{backend: backend, cache: cache, opts: opts}
}

func (s *fileService) viewURL(blobID string) string {
	return fmt.Sprintf("%s/storage/buckets/%s/files/%s/view?project=%s",
		s.opts.PublicEndpoint,
		url.PathEscape(s.opts.Bucket),
		url.PathEscape(blobID),
		url.QueryEscape(s.opts.ProjectID),
	)
}

// Upload stores the blob first and then its metadata record. A blob whose
// record cannot be created is deleted before the error is returned.
func (s *fileService) Upload(ctx context.Context, owner *model.User, upload Upload) (*model.File, error) {
	name := strings.TrimSpace(upload.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: file name is required", apperr.ErrValidation)
	}
	if upload.Body == nil || upload.Size <= 0 {
		return nil, fmt.Errorf("%w: file is empty", apperr.ErrValidation)
	}

	admin := s.backend.Admin()
	fileType, ext := model.ClassifyFile(name)

	blob, err := admin.Storage.StoreBlob(ctx, s.opts.Bucket, name, upload.ContentType, upload.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to store blob: %w", err)
	}

	file := &model.File{
		OwnerID:    owner.ID,
		AccountID:  owner.AccountID,
		Name:       name,
		Type:       fileType,
		Extension:  ext,
		URL:        s.viewURL(blob.ID),
		Size:       blob.Size,
		BlobID:     blob.ID,
		SharedWith: []string{},
	}

	if err := admin.Files.Create(ctx, file); err != nil {
		if delErr := admin.Storage.DeleteBlob(context.WithoutCancel(ctx), s.opts.Bucket, blob.ID); delErr != nil {
			slog.ErrorContext(ctx, "failed to remove orphaned blob", "blob_id", blob.ID, "error", delErr)
		}
		return nil, fmt.Errorf("failed to create file record: %w", err)
	}

	s.invalidateUsage(ctx, owner.ID)
	slog.InfoContext(ctx, "file uploaded", "file_id", file.ID, "owner_id", owner.ID, "type", file.Type, "size", file.Size)
	return file, nil
}

// visible loads a file the requester owns or has been given access to.
// Files the requester cannot see are reported as missing.
func (s *fileService) visible(ctx context.Context, requester *model.User, fileID string) (*model.File, error) {
	file, err := s.backend.Admin().Files.FindByID(ctx, fileID)
	if err != nil {
		return nil, err
	}
	if !isOwner(file, requester) && !file.SharedWithEmail(requester.Email) {
		return nil, fmt.Errorf("%w: file %s", apperr.ErrNotFound, fileID)
	}
	return file, nil
}

func isOwner(file *model.File, user *model.User) bool {
	if file.Owner != nil {
		return file.Owner.Email == user.Email
	}
	return file.OwnerID == user.ID
}

func (s *fileService) Get(ctx context.Context, requester *model.User, fileID string) (*model.File, error) {
	return s.visible(ctx, requester, fileID)
}

func (s *fileService) List(ctx context.Context, user *model.User, filter ListFilter) (*model.FileList, error) {
	for _, t := range filter.Types {
		if !t.Valid() {
			return nil, fmt.Errorf("%w: unknown file type %q", apperr.ErrValidation, t)
		}
	}

	preds := query.Build(query.Filter{
		OwnerID: user.ID,
		Email:   user.Email,
		Types:   filter.Types,
		Search:  filter.Search,
		Sort:    filter.Sort,
		Limit:   filter.Limit,
	})
	return s.backend.Admin().Files.List(ctx, preds)
}

// Rename changes the display name only. Type and extension keep the values
// derived at upload time.
func (s *fileService) Rename(ctx context.Context, requester *model.User, fileID, name string) (*model.File, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: name is required", apperr.ErrValidation)
	}

	file, err := s.visible(ctx, requester, fileID)
	if err != nil {
		return nil, err
	}

	updated, err := s.backend.Admin().Files.Update(ctx, fileID, repository.FilePatch{Name: &name})
	if err != nil {
		return nil, fmt.Errorf("failed to rename file: %w", err)
	}

	s.invalidateUsage(ctx, file.OwnerID)
	return updated, nil
}

// Share replaces the set of users the file is shared with.
func (s *fileService) Share(ctx context.Context, requester *model.User, fileID string, emails []string) (*model.File, error) {
	file, err := s.visible(ctx, requester, fileID)
	if err != nil {
		return nil, err
	}
	if !isOwner(file, requester) {
		return nil, fmt.Errorf("%w: only the owner can share a file", apperr.ErrUnauthorized)
	}

	updated, err := s.backend.Admin().Files.Update(ctx, fileID, repository.FilePatch{SharedWith: normalizeEmails(emails)})
	if err != nil {
		return nil, fmt.Errorf("failed to share file: %w", err)
	}

	s.invalidateUsage(ctx, file.OwnerID)
	return updated, nil
}

func normalizeEmails(emails []string) []string {
	seen := make(map[string]struct{}, len(emails))
	out := make([]string, 0, len(emails))
	for _, e := range emails {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" {
			continue
		}
		if _, ok := seen[e]; ok {
			continue
		}
		seen[e] = struct{}{}
		out = append(out, e)
	}
	return out
}

func (s *fileService) DeleteOrUnshare(ctx context.Context, requester *model.User, fileID, blobID string) error {
	file, err := s.visible(ctx, requester, fileID)
	if err != nil {
		return err
	}
	if blobID != "" && blobID != file.BlobID {
		return fmt.Errorf("%w: blob %s does not belong to file %s", apperr.ErrValidation, blobID, fileID)
	}

	admin := s.backend.Admin()

	if !isOwner(file, requester) {
		remaining := make([]string, 0, len(file.SharedWith))
		for _, e := range file.SharedWith {
			if e != requester.Email {
				remaining = append(remaining, e)
			}
		}
		if _, err := admin.Files.Update(ctx, fileID, repository.FilePatch{SharedWith: remaining}); err != nil {
			return fmt.Errorf("failed to unshare file: %w", err)
		}
		s.invalidateUsage(ctx, file.OwnerID)
		slog.InfoContext(ctx, "file unshared", "file_id", fileID, "email", requester.Email)
		return nil
	}

	if err := admin.Files.Delete(ctx, fileID); err != nil {
		return fmt.Errorf("failed to delete file record: %w", err)
	}
	s.invalidateUsage(ctx, file.OwnerID)

	// The record is gone, so the deletion stands even if the blob survives.
	if err := admin.Storage.DeleteBlob(context.WithoutCancel(ctx), s.opts.Bucket, file.BlobID); err != nil {
		slog.ErrorContext(ctx, "failed to delete blob of deleted file", "file_id", fileID, "blob_id", file.BlobID, "error", err)
	}

	slog.InfoContext(ctx, "file deleted", "file_id", fileID, "owner_id", file.OwnerID)
	return nil
}

// Usage reports the space taken by files the user owns. Shared files count
// towards their owner only.
func (s *fileService) Usage(ctx context.Context, user *model.User) (*model.SpaceUsage, error) {
	cached, err := s.cache.Get(ctx, user.ID)
	if err == nil {
		return cached, nil
	}
	if !errors.Is(err, apperr.ErrNotFound) {
		slog.WarnContext(ctx, "usage cache unavailable", "user_id", user.ID, "error", err)
	}

	list, err := s.backend.Admin().Files.List(ctx, []query.Predicate{query.OwnedBy{OwnerID: user.ID}})
	if err != nil {
		return nil, fmt.Errorf("failed to list owned files: %w", err)
	}

	usage := AggregateUsage(list.Documents, s.opts.Capacity)
	if err := s.cache.Set(ctx, user.ID, usage); err != nil {
		slog.WarnContext(ctx, "failed to cache usage", "user_id", user.ID, "error", err)
	}
	return usage, nil
}

func (s *fileService) ViewURL(ctx context.Context, bucket, blobID string) (string, error) {
	if bucket != s.opts.Bucket {
		return "", fmt.Errorf("%w: bucket %s", apperr.ErrNotFound, bucket)
	}
	return s.backend.Admin().Storage.PresignView(ctx, bucket, blobID, s.opts.ViewURLExpiry)
}

func (s *fileService) invalidateUsage(ctx context.Context, ownerID string) {
	if err := s.cache.Invalidate(ctx, ownerID); err != nil {
		slog.WarnContext(ctx, "failed to invalidate usage", "user_id", ownerID, "error", err)
	}
}
