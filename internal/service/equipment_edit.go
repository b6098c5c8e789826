package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

type equipmentEditService struct {
	editRepo      repository.EquipmentEditRepository
	equipmentRepo repository.EquipmentRepository
	categoryRepo  repository.CategoryRepository
	userRepo      repository.UserRepository
	notifications NotificationService
	emailSvc      EmailService
}

func NewEquipmentEditService(editRepo repository.EquipmentEditRepository, equipmentRepo repository.EquipmentRepository, categoryRepo repository.CategoryRepository, userRepo repository.UserRepository, notifications NotificationService, emailSvc EmailService) EquipmentEditService {
	return &equipmentEditService{
		editRepo:      editRepo,
		equipmentRepo: equipmentRepo,
		categoryRepo:  categoryRepo,
		userRepo:      userRepo,
		notifications: notifications,
		emailSvc:      emailSvc,
	}
}

func (s *equipmentEditService) Submit(ctx context.Context, actor *domain.User, equipmentID int32, diff *domain.EquipmentEdit) (*domain.EquipmentEdit, error) {
	logger.EnterMethod("equipmentEditService.Submit", "actorID", actorID(actor), "equipmentID", equipmentID)

	if err := domain.Authorize(actor); err != nil {
		return nil, err
	}
	if diff == nil || diff.IsEmpty() {
		return nil, domain.BadRequest("an edit must change at least one field")
	}
	if err := validateEditFields(diff); err != nil {
		return nil, err
	}

	eq, err := s.equipmentRepo.GetByID(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	if eq.IsDeleted() {
		return nil, domain.NotFound("equipment not found")
	}
	if eq.OwnerID != actor.ID {
		return nil, domain.Forbidden("you do not own this equipment")
	}
	if !eq.IsApproved() {
		return nil, domain.BadRequest("only approved listings accept edit requests")
	}
	if diff.CategoryID != nil && *diff.CategoryID != eq.CategoryID {
		cat, err := s.categoryRepo.GetByID(ctx, *diff.CategoryID)
		if err != nil || !cat.IsActive {
			return nil, domain.BadRequest("category %d is not available", *diff.CategoryID)
		}
	}

	pending, err := s.editRepo.HasPending(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, domain.BadRequest("an edit for this equipment is already awaiting review")
	}

	diff.ID = 0
	diff.EquipmentID = equipmentID
	diff.SubmittedBy = actor.ID
	if err := s.editRepo.Create(ctx, diff); err != nil {
		// The partial unique index catches concurrent submissions.
		if errors.Is(err, domain.ErrConflict) {
			return nil, domain.BadRequest("an edit for this equipment is already awaiting review")
		}
		logger.ExitMethodWithError("equipmentEditService.Submit", err)
		return nil, err
	}

	_ = s.notifications.NotifyRoles(ctx, ModerationStaff, NotificationInput{
		Type:    domain.NotificationTypeModeration,
		Level:   domain.NotificationLevelInfo,
		Title:   "Listing edit awaiting review",
		Message: `Changes to "` + eq.Title + `" are waiting for moderation.`,
		Data:    map[string]any{"equipmentId": equipmentID, "editId": diff.ID},
	})

	logger.ExitMethod("equipmentEditService.Submit", "editID", diff.ID)
	return diff, nil
}

func (s *equipmentEditService) Get(ctx context.Context, actor *domain.User, id int32) (*domain.EquipmentEdit, error) {
	if err := domain.Authorize(actor); err != nil {
		return nil, err
	}
	ed, err := s.editRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if ed.SubmittedBy != actor.ID && !actor.IsStaff() {
		return nil, domain.NotFound("equipment edit not found")
	}
	return ed, nil
}

func (s *equipmentEditService) ListMine(ctx context.Context, actor *domain.User, page, pageSize int32) ([]domain.EquipmentEdit, int32, error) {
	if actor == nil {
		return nil, 0, domain.Unauthorized("authentication required")
	}
	page, pageSize = NormalizePage(page, pageSize)
	return s.editRepo.ListBySubmitter(ctx, actor.ID, page, pageSize)
}

func (s *equipmentEditService) ListPending(ctx context.Context, actor *domain.User, page, pageSize int32) ([]domain.EquipmentEdit, int32, error) {
	if err := domain.Authorize(actor, domain.RoleModerator); err != nil {
		return nil, 0, err
	}
	page, pageSize = NormalizePage(page, pageSize)
	return s.editRepo.ListByStatus(ctx, domain.ModerationPending, page, pageSize)
}

func (s *equipmentEditService) loadPending(ctx context.Context, actor *domain.User, id int32) (*domain.EquipmentEdit, *domain.Equipment, error) {
	if err := domain.Authorize(actor, domain.RoleModerator); err != nil {
		return nil, nil, err
	}
	ed, err := s.editRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if ed.Status != domain.ModerationPending {
		return nil, nil, domain.BadRequest("equipment edit is no longer pending")
	}
	eq, err := s.equipmentRepo.GetByID(ctx, ed.EquipmentID)
	if err != nil {
		return nil, nil, err
	}
	return ed, eq, nil
}

// Approve merges the set fields of the edit into the listing in one transaction.
func (s *equipmentEditService) Approve(ctx context.Context, actor *domain.User, id int32) (*domain.EquipmentEdit, *domain.Equipment, error) {
	logger.EnterMethod("equipmentEditService.Approve", "actorID", actorID(actor), "editID", id)

	ed, eq, err := s.loadPending(ctx, actor, id)
	if err != nil {
		return nil, nil, err
	}
	if eq.IsDeleted() {
		return nil, nil, domain.BadRequest("equipment has been deleted")
	}

	now := time.Now().UTC()
	ed.Status = domain.ModerationApproved
	ed.ModeratedBy = &actor.ID
	ed.ModeratedAt = &now

	merged, err := s.editRepo.Approve(ctx, ed)
	if err != nil {
		logger.ExitMethodWithError("equipmentEditService.Approve", err)
		return nil, nil, err
	}
	eq = merged

	s.notifyOwner(ctx, ed, eq, true, "")
	logger.ExitMethod("equipmentEditService.Approve", "editID", id, "equipmentID", eq.ID)
	return ed, eq, nil
}

func (s *equipmentEditService) Reject(ctx context.Context, actor *domain.User, id int32, reason string) (*domain.EquipmentEdit, error) {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		if err := domain.Authorize(actor, domain.RoleModerator); err != nil {
			return nil, err
		}
		return nil, domain.BadRequest("a rejection reason is required")
	}
	ed, eq, err := s.loadPending(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	ed.Status = domain.ModerationRejected
	ed.ModeratedBy = &actor.ID
	ed.ModeratedAt = &now
	ed.RejectionReason = reason
	if err := s.editRepo.Reject(ctx, ed); err != nil {
		return nil, err
	}

	s.notifyOwner(ctx, ed, eq, false, reason)
	return ed, nil
}

func (s *equipmentEditService) notifyOwner(ctx context.Context, ed *domain.EquipmentEdit, eq *domain.Equipment, approved bool, reason string) {
	note := NotificationInput{
		Type:    domain.NotificationTypeEquipment,
		Level:   domain.NotificationLevelSuccess,
		Title:   "Listing changes approved",
		Message: `Your changes to "` + eq.Title + `" are now published.`,
		Data:    map[string]any{"equipmentId": eq.ID, "editId": ed.ID, "status": ed.Status},
	}
	if !approved {
		note.Level = domain.NotificationLevelError
		note.Title = "Listing changes rejected"
		note.Message = `Your changes to "` + eq.Title + `" were rejected: ` + reason
		note.Data["reason"] = reason
	}
	_, _ = s.notifications.Notify(ctx, ed.SubmittedBy, note)
	if owner, err := s.userRepo.GetByID(ctx, ed.SubmittedBy); err == nil {
		_ = s.emailSvc.SendEditDecision(ctx, owner.Email, owner.FullName, eq.Title, approved, reason)
	}
}
