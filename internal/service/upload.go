package service

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
	"equiprent-backend/internal/storage"

	"github.com/segmentio/ksuid"
)

type uploadService struct {
	uploadRepo   repository.UploadRepository
	store        storage.StorageInterface
	maxBytes     int64
	allowedTypes []string
	urlExpiry    time.Duration
}

func NewUploadService(uploadRepo repository.UploadRepository, store storage.StorageInterface, maxBytes int64, allowedTypes []string, urlExpiry time.Duration) UploadService {
	return &uploadService{
		uploadRepo:   uploadRepo,
		store:        store,
		maxBytes:     maxBytes,
		allowedTypes: allowedTypes,
		urlExpiry:    urlExpiry,
	}
}

func (s *uploadService) Upload(ctx context.Context, actor *domain.User, in UploadInput) (*domain.Upload, error) {
	logger.EnterMethod("uploadService.Upload", "actorID", actorID(actor), "purpose", in.Purpose, "size", in.Size)

	if actor == nil {
		return nil, domain.Unauthorized("authentication required")
	}
	if !in.Purpose.Valid() {
		return nil, domain.BadRequest("unknown upload purpose %q", in.Purpose)
	}
	if in.Body == nil || in.Size <= 0 {
		return nil, domain.BadRequest("file is empty")
	}
	if s.maxBytes > 0 && in.Size > s.maxBytes {
		return nil, domain.BadRequest("file exceeds the maximum size of %d bytes", s.maxBytes)
	}
	contentType := strings.ToLower(strings.TrimSpace(in.ContentType))
	if len(s.allowedTypes) > 0 && !contains(s.allowedTypes, contentType) {
		return nil, domain.BadRequest("file type %q is not allowed", in.ContentType)
	}

	key := objectKey(in.Purpose, in.FileName)
	if err := s.store.SaveFile(ctx, key, contentType, in.Body, in.Size); err != nil {
		logger.ExitMethodWithError("uploadService.Upload", err)
		return nil, err
	}
	url, err := s.store.GeneratePresignedDownloadURL(ctx, key, s.urlExpiry)
	if err != nil {
		_ = s.store.DeleteFile(ctx, key)
		return nil, err
	}

	up := &domain.Upload{
		UserID:      actor.ID,
		Purpose:     in.Purpose,
		StorageKey:  key,
		FileName:    filepath.Base(in.FileName),
		ContentType: contentType,
		Size:        in.Size,
		URL:         url,
	}
	if err := s.uploadRepo.Create(ctx, up); err != nil {
		if delErr := s.store.DeleteFile(ctx, key); delErr != nil {
			logger.Warn("Failed to remove orphaned upload", "key", key, "error", delErr)
		}
		logger.ExitMethodWithError("uploadService.Upload", err)
		return nil, err
	}

	logger.ExitMethod("uploadService.Upload", "uploadID", up.ID, "key", key)
	return up, nil
}

// Get refreshes the URL, which expires for object storage.
func (s *uploadService) Get(ctx context.Context, actor *domain.User, id int32) (*domain.Upload, error) {
	if actor == nil {
		return nil, domain.Unauthorized("authentication required")
	}
	up, err := s.uploadRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if up.UserID != actor.ID && !actor.IsStaff() {
		return nil, domain.NotFound("upload not found")
	}
	if url, err := s.store.GeneratePresignedDownloadURL(ctx, up.StorageKey, s.urlExpiry); err == nil {
		up.URL = url
	}
	return up, nil
}

func (s *uploadService) Delete(ctx context.Context, actor *domain.User, id int32) error {
	if actor == nil {
		return domain.Unauthorized("authentication required")
	}
	up, err := s.uploadRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if up.UserID != actor.ID {
		if err := domain.Authorize(actor, domain.RoleAdmin); err != nil {
			return domain.NotFound("upload not found")
		}
	}
	if err := s.uploadRepo.Delete(ctx, id); err != nil {
		return err
	}
	if err := s.store.DeleteFile(ctx, up.StorageKey); err != nil {
		logger.Warn("Failed to delete stored file", "key", up.StorageKey, "error", err)
	}
	return nil
}

// objectKey is "<purpose>/<ksuid><ext>", e.g. "payment_receipt/2Cw1...Qk.png".
func objectKey(purpose domain.UploadPurpose, fileName string) string {
	ext := strings.ToLower(filepath.Ext(fileName))
	if len(ext) > 8 || strings.ContainsAny(ext, `/\ `) {
		ext = ""
	}
	return strings.ToLower(string(purpose)) + "/" + ksuid.New().String() + ext
}
