package service

import (
	"context"
	"fmt"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

type notificationService struct {
	noteRepo repository.NotificationRepository
	userRepo repository.UserRepository
	unread   repository.UnreadCounter
	realtime Realtime
}

// NewNotificationService persists notifications and pushes them in realtime.
// unread and realtime may be nil.
func NewNotificationService(noteRepo repository.NotificationRepository, userRepo repository.UserRepository, unread repository.UnreadCounter, realtime Realtime) NotificationService {
	if realtime == nil {
		realtime = nopRealtime{}
	}
	return &notificationService{
		noteRepo: noteRepo,
		userRepo: userRepo,
		unread:   unread,
		realtime: realtime,
	}
}

func (in NotificationInput) build(userID int32) *domain.Notification {
	level := in.Level
	if !level.Valid() {
		level = domain.NotificationLevelInfo
	}
	typ := in.Type
	if typ == "" {
		typ = domain.NotificationTypeSystem
	}
	return &domain.Notification{
		UserID:  userID,
		Type:    typ,
		Level:   level,
		Title:   in.Title,
		Message: in.Message,
		Data:    in.Data,
	}
}

func (s *notificationService) Notify(ctx context.Context, userID int32, in NotificationInput) (*domain.Notification, error) {
	note := in.build(userID)
	if err := s.noteRepo.Create(ctx, note); err != nil {
		logger.WarnContext(ctx, "Failed to store notification", "userID", userID, "title", in.Title, "error", err)
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}
	s.invalidate(ctx, userID)
	s.realtime.PushToUser(userID, EventNewNotification, note)
	s.pushUnread(ctx, userID)
	return note, nil
}

func (s *notificationService) NotifyUsers(ctx context.Context, userIDs []int32, in NotificationInput) error {
	if len(userIDs) == 0 {
		return nil
	}
	notes := make([]*domain.Notification, len(userIDs))
	for i, id := range userIDs {
		notes[i] = in.build(id)
	}
	if err := s.noteRepo.CreateMany(ctx, notes); err != nil {
		logger.WarnContext(ctx, "Failed to store notifications", "recipients", len(userIDs), "title", in.Title, "error", err)
		return fmt.Errorf("failed to create notifications: %w", err)
	}
	s.invalidate(ctx, userIDs...)
	for _, note := range notes {
		s.realtime.PushToUser(note.UserID, EventNewNotification, note)
		s.pushUnread(ctx, note.UserID)
	}
	return nil
}

func (s *notificationService) NotifyRoles(ctx context.Context, roles []domain.Role, in NotificationInput) error {
	ids, err := s.userRepo.ListIDsByRoles(ctx, roles)
	if err != nil {
		return fmt.Errorf("failed to resolve recipients: %w", err)
	}
	return s.NotifyUsers(ctx, ids, in)
}

func (s *notificationService) Broadcast(ctx context.Context, audience domain.BroadcastAudience, in NotificationInput) (int, error) {
	if !audience.Valid() {
		return 0, domain.BadRequest("unknown audience %q", audience)
	}
	ids, err := s.userRepo.ListIDsByAudience(ctx, audience)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve audience: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}
	notes := make([]*domain.Notification, len(ids))
	for i, id := range ids {
		notes[i] = in.build(id)
	}
	if err := s.noteRepo.CreateMany(ctx, notes); err != nil {
		return 0, fmt.Errorf("failed to create notifications: %w", err)
	}
	s.invalidate(ctx, ids...)

	payload := map[string]any{
		"title":     in.Title,
		"message":   in.Message,
		"level":     notes[0].Level,
		"audience":  audience,
		"timestamp": time.Now().UTC(),
	}
	if audience == domain.AudienceAll {
		s.realtime.Broadcast(EventBroadcastNotification, payload)
	} else {
		s.realtime.PushToUsers(ids, EventBroadcastNotification, payload)
	}
	logger.InfoContext(ctx, "Broadcast notification sent", "audience", audience, "recipients", len(ids))
	return len(ids), nil
}

func (s *notificationService) List(ctx context.Context, userID int32, unreadOnly bool, page, pageSize int32) ([]domain.Notification, int32, error) {
	page, pageSize = NormalizePage(page, pageSize)
	return s.noteRepo.List(ctx, userID, unreadOnly, page, pageSize)
}

func (s *notificationService) UnreadCount(ctx context.Context, userID int32) (int64, error) {
	if s.unread != nil {
		if n, ok, err := s.unread.Get(ctx, userID); err == nil && ok {
			return n, nil
		} else if err != nil {
			logger.WarnContext(ctx, "Unread cache read failed", "userID", userID, "error", err)
		}
	}
	n, err := s.noteRepo.CountUnread(ctx, userID)
	if err != nil {
		return 0, err
	}
	if s.unread != nil {
		if err := s.unread.Set(ctx, userID, n); err != nil {
			logger.WarnContext(ctx, "Unread cache write failed", "userID", userID, "error", err)
		}
	}
	return n, nil
}

func (s *notificationService) MarkAsRead(ctx context.Context, userID, notificationID int32) error {
	if err := s.noteRepo.MarkAsRead(ctx, notificationID, userID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	s.pushUnread(ctx, userID)
	return nil
}

func (s *notificationService) MarkAllAsRead(ctx context.Context, userID int32) (int64, error) {
	n, err := s.noteRepo.MarkAllAsRead(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.invalidate(ctx, userID)
	s.pushUnread(ctx, userID)
	return n, nil
}

func (s *notificationService) Delete(ctx context.Context, userID, notificationID int32) error {
	if err := s.noteRepo.Delete(ctx, notificationID, userID); err != nil {
		return err
	}
	s.invalidate(ctx, userID)
	s.pushUnread(ctx, userID)
	return nil
}

func (s *notificationService) PurgeRead(ctx context.Context, before time.Time) (int64, error) {
	return s.noteRepo.DeleteReadBefore(ctx, before)
}

func (s *notificationService) invalidate(ctx context.Context, userIDs ...int32) {
	if s.unread == nil || len(userIDs) == 0 {
		return
	}
	if err := s.unread.Invalidate(ctx, userIDs...); err != nil {
		logger.WarnContext(ctx, "Unread cache invalidation failed", "users", len(userIDs), "error", err)
	}
}

func (s *notificationService) pushUnread(ctx context.Context, userID int32) {
	n, err := s.UnreadCount(ctx, userID)
	if err != nil {
		return
	}
	s.realtime.PushToUser(userID, EventUnreadCount, map[string]int64{"count": n})
}
