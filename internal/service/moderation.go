package service

import (
	"context"
	"strings"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

type moderationService struct {
	equipmentRepo repository.EquipmentRepository
	userRepo      repository.UserRepository
	statsRepo     repository.StatsRepository
	notifications NotificationService
	emailSvc      EmailService
}

func NewModerationService(equipmentRepo repository.EquipmentRepository, userRepo repository.UserRepository, statsRepo repository.StatsRepository, notifications NotificationService, emailSvc EmailService) ModerationService {
	return &moderationService{
		equipmentRepo: equipmentRepo,
		userRepo:      userRepo,
		statsRepo:     statsRepo,
		notifications: notifications,
		emailSvc:      emailSvc,
	}
}

func (s *moderationService) ListPending(ctx context.Context, actor *domain.User, page, pageSize int32) ([]domain.Equipment, int32, error) {
	if err := domain.Authorize(actor, domain.RoleModerator); err != nil {
		return nil, 0, err
	}
	page, pageSize = NormalizePage(page, pageSize)
	return s.equipmentRepo.ListByModerationStatus(ctx, domain.ModerationPending, page, pageSize)
}

func (s *moderationService) Approve(ctx context.Context, actor *domain.User, equipmentID int32) (*domain.Equipment, error) {
	return s.decide(ctx, actor, equipmentID, true, "")
}

func (s *moderationService) Reject(ctx context.Context, actor *domain.User, equipmentID int32, reason string) (*domain.Equipment, error) {
	return s.decide(ctx, actor, equipmentID, false, reason)
}

func (s *moderationService) decide(ctx context.Context, actor *domain.User, equipmentID int32, approve bool, reason string) (*domain.Equipment, error) {
	logger.EnterMethod("moderationService.decide", "actorID", actorID(actor), "equipmentID", equipmentID, "approve", approve)

	if err := domain.Authorize(actor, domain.RoleModerator); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	if !approve && reason == "" {
		return nil, domain.BadRequest("a rejection reason is required")
	}

	eq, err := s.equipmentRepo.GetByID(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	if eq.IsDeleted() {
		return nil, domain.NotFound("equipment not found")
	}
	if eq.ModerationStatus != domain.ModerationPending {
		return nil, domain.BadRequest("equipment is not pending moderation")
	}

	now := time.Now().UTC()
	eq.ModeratedBy = &actor.ID
	eq.ModeratedAt = &now
	if approve {
		eq.ModerationStatus = domain.ModerationApproved
		eq.IsAvailable = true
		eq.RejectionReason = ""
	} else {
		eq.ModerationStatus = domain.ModerationRejected
		eq.IsAvailable = false
		eq.RejectionReason = reason
	}
	if err := s.equipmentRepo.Moderate(ctx, eq); err != nil {
		logger.ExitMethodWithError("moderationService.decide", err)
		return nil, err
	}

	note := NotificationInput{
		Type:    domain.NotificationTypeEquipment,
		Level:   domain.NotificationLevelSuccess,
		Title:   "Listing approved",
		Message: `"` + eq.Title + `" is now published.`,
		Data:    map[string]any{"equipmentId": eq.ID, "status": eq.ModerationStatus},
	}
	if !approve {
		note.Level = domain.NotificationLevelError
		note.Title = "Listing rejected"
		note.Message = `"` + eq.Title + `" was rejected: ` + reason
		note.Data["reason"] = reason
	}
	_, _ = s.notifications.Notify(ctx, eq.OwnerID, note)
	if owner, err := s.userRepo.GetByID(ctx, eq.OwnerID); err == nil {
		_ = s.emailSvc.SendListingDecision(ctx, owner.Email, owner.FullName, eq.Title, approve, reason)
	}

	logger.ExitMethod("moderationService.decide", "equipmentID", eq.ID, "status", eq.ModerationStatus)
	return eq, nil
}

func (s *moderationService) Stats(ctx context.Context, actor *domain.User) (*domain.ModerationStats, error) {
	if err := domain.Authorize(actor, domain.RoleModerator); err != nil {
		return nil, err
	}
	return s.statsRepo.ModerationStats(ctx)
}
