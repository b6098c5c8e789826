package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

type adminService struct {
	userRepo      repository.UserRepository
	rentals       RentalService
	notifications NotificationService
	emailSvc      EmailService
}

func NewAdminService(userRepo repository.UserRepository, rentals RentalService, notifications NotificationService, emailSvc EmailService) AdminService {
	return &adminService{
		userRepo:      userRepo,
		rentals:       rentals,
		notifications: notifications,
		emailSvc:      emailSvc,
	}
}

func (s *adminService) ListUsers(ctx context.Context, actor *domain.User, filter domain.UserFilter, page, pageSize int32) ([]domain.User, int32, error) {
	if err := domain.Authorize(actor, domain.RoleModeratorManager); err != nil {
		return nil, 0, err
	}
	page, pageSize = NormalizePage(page, pageSize)
	return s.userRepo.List(ctx, filter, page, pageSize)
}

func (s *adminService) GetUser(ctx context.Context, actor *domain.User, userID int32) (*domain.User, error) {
	if err := domain.Authorize(actor, domain.RoleModerator); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(ctx, userID)
}

func (s *adminService) ListPendingLandlords(ctx context.Context, actor *domain.User, page, pageSize int32) ([]domain.User, int32, error) {
	if err := domain.AuthorizeAllowList(actor, domain.LandlordValidators...); err != nil {
		return nil, 0, err
	}
	page, pageSize = NormalizePage(page, pageSize)
	return s.userRepo.List(ctx, domain.UserFilter{AccountStatus: domain.AccountStatusPending}, page, pageSize)
}

func (s *adminService) ValidateLandlord(ctx context.Context, actor *domain.User, landlordID int32, status domain.AccountStatus, reason string) (*domain.User, error) {
	logger.EnterMethod("adminService.ValidateLandlord", "actorID", actorID(actor), "landlordID", landlordID, "status", status)

	if err := domain.AuthorizeAllowList(actor, domain.LandlordValidators...); err != nil {
		return nil, err
	}
	reason = strings.TrimSpace(reason)
	switch status {
	case domain.AccountStatusApproved:
	case domain.AccountStatusRejected:
		if reason == "" {
			return nil, domain.BadRequest("a rejection reason is required")
		}
	default:
		return nil, domain.BadRequest("status must be APPROVED or REJECTED")
	}

	landlord, err := s.userRepo.GetByID(ctx, landlordID)
	if err != nil {
		return nil, err
	}
	if landlord.DeletedAt != nil {
		return nil, domain.NotFound("user not found")
	}
	if !landlord.IsLandlord() && !landlord.IsCompany {
		return nil, domain.BadRequest("user is not a landlord")
	}
	if landlord.AccountStatus != domain.AccountStatusPending {
		return nil, domain.Forbidden("landlord has already been validated")
	}

	now := time.Now().UTC()
	landlord.AccountStatus = status
	if status == domain.AccountStatusApproved {
		landlord.ApprovedBy = &actor.ID
		landlord.ApprovedAt = &now
	} else {
		landlord.RejectedBy = &actor.ID
		landlord.RejectedAt = &now
		landlord.RejectionReason = reason
	}
	if err := s.userRepo.DecideAccountStatus(ctx, landlord); err != nil {
		logger.ExitMethodWithError("adminService.ValidateLandlord", err)
		return nil, err
	}

	approved := status == domain.AccountStatusApproved
	note := NotificationInput{
		Type:    domain.NotificationTypeAccount,
		Level:   domain.NotificationLevelSuccess,
		Title:   "Account approved",
		Message: "Your landlord account has been approved. You can now publish equipment.",
		Data:    map[string]any{"status": status},
	}
	if !approved {
		note.Level = domain.NotificationLevelError
		note.Title = "Account rejected"
		note.Message = "Your landlord account was rejected: " + reason
		note.Data["reason"] = reason
	}
	_, _ = s.notifications.Notify(ctx, landlord.ID, note)
	_ = s.emailSvc.SendAccountDecision(ctx, landlord.Email, landlord.FullName, approved, reason)

	logger.ExitMethod("adminService.ValidateLandlord", "landlordID", landlordID, "status", status)
	return landlord, nil
}

func (s *adminService) ValidateBIDocument(ctx context.Context, actor *domain.User, userID int32, valid bool) (*domain.User, error) {
	if err := domain.Authorize(actor, domain.RoleModeratorManager); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.BIDocument == "" {
		return nil, domain.BadRequest("user has not uploaded an identity document")
	}
	user.BIValidated = valid
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update identity document status: %w", err)
	}

	note := NotificationInput{
		Type:    domain.NotificationTypeAccount,
		Level:   domain.NotificationLevelSuccess,
		Title:   "Identity document validated",
		Message: "Your identity document has been validated.",
	}
	if !valid {
		note.Level = domain.NotificationLevelWarning
		note.Title = "Identity document not accepted"
		note.Message = "Your identity document could not be validated. Please upload a new one."
	}
	_, _ = s.notifications.Notify(ctx, user.ID, note)
	return user, nil
}

func (s *adminService) ChangeUserRole(ctx context.Context, actor *domain.User, userID int32, role domain.Role) (*domain.User, error) {
	if err := domain.Authorize(actor, domain.RoleModeratorManager); err != nil {
		return nil, err
	}
	if !role.Valid() {
		return nil, domain.BadRequest("unknown role %q", role)
	}
	if actor.ID == userID {
		return nil, domain.Forbidden("cannot change your own role")
	}
	target, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if target.DeletedAt != nil {
		return nil, domain.NotFound("user not found")
	}
	if actor.Role != domain.RoleAdmin {
		if role.Level() >= actor.Role.Level() || target.Role.Level() >= actor.Role.Level() {
			return nil, domain.Forbidden("only administrators may grant or revoke this role")
		}
	}
	if target.Role == role {
		return target, nil
	}

	previous := target.Role
	target.Role = role
	if err := s.userRepo.Update(ctx, target); err != nil {
		return nil, fmt.Errorf("failed to change role: %w", err)
	}
	logger.InfoContext(ctx, "User role changed", "actorID", actor.ID, "userID", userID, "from", previous, "to", role)

	_, _ = s.notifications.Notify(ctx, target.ID, NotificationInput{
		Type:    domain.NotificationTypeAccount,
		Level:   domain.NotificationLevelInfo,
		Title:   "Role updated",
		Message: "Your role is now " + string(role) + ".",
		Data:    map[string]any{"role": role},
	})
	return target, nil
}

func (s *adminService) DeleteUser(ctx context.Context, actor *domain.User, userID int32) error {
	if err := domain.Authorize(actor, domain.RoleAdmin); err != nil {
		return err
	}
	if actor.ID == userID {
		return domain.BadRequest("cannot delete your own account here")
	}
	return s.userRepo.SoftDelete(ctx, userID)
}

func (s *adminService) RestoreUser(ctx context.Context, actor *domain.User, userID int32) error {
	if err := domain.Authorize(actor, domain.RoleAdmin); err != nil {
		return err
	}
	return s.userRepo.Restore(ctx, userID)
}

// ValidatePaymentReceipt is the administrative entry point of receipt
// validation; it shares the rental service implementation.
func (s *adminService) ValidatePaymentReceipt(ctx context.Context, actor *domain.User, rentalID int32, approve bool, reason string) (*domain.Rental, error) {
	return s.rentals.ValidatePaymentReceipt(ctx, actor, rentalID, approve, reason)
}

func (s *adminService) BroadcastNotification(ctx context.Context, actor *domain.User, in BroadcastInput) (int, error) {
	if err := domain.Authorize(actor, domain.RoleAdmin); err != nil {
		return 0, err
	}
	if isBlank(in.Title) || isBlank(in.Message) {
		return 0, domain.BadRequest("title and message are required")
	}
	if in.Audience == "" {
		in.Audience = domain.AudienceAll
	}
	if in.Level == "" {
		in.Level = domain.NotificationLevelInfo
	}
	if !in.Level.Valid() {
		return 0, domain.BadRequest("unknown level %q", in.Level)
	}
	return s.notifications.Broadcast(ctx, in.Audience, NotificationInput{
		Type:    domain.NotificationTypeSystem,
		Level:   in.Level,
		Title:   strings.TrimSpace(in.Title),
		Message: strings.TrimSpace(in.Message),
		Data:    map[string]any{"audience": in.Audience, "sentBy": actor.ID},
	})
}

func actorID(actor *domain.User) int32 {
	if actor == nil {
		return 0
	}
	return actor.ID
}
