package service

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
	"equiprent-backend/internal/utils"
)

type rentalService struct {
	rentalRepo     repository.RentalRepository
	equipmentRepo  repository.EquipmentRepository
	userRepo       repository.UserRepository
	uploadRepo     repository.UploadRepository
	settings       SystemConfigService
	notifications  NotificationService
	emailSvc       EmailService
	references     ReferenceGenerator
	defaultMaxDays int
	now            func() time.Time
}

// NewRentalService builds the booking workflow. defaultMaxDays caps the
// rental length unless the rental.max_days setting overrides it; 0 disables the cap.
func NewRentalService(
	rentalRepo repository.RentalRepository,
	equipmentRepo repository.EquipmentRepository,
	userRepo repository.UserRepository,
	uploadRepo repository.UploadRepository,
	settings SystemConfigService,
	notifications NotificationService,
	emailSvc EmailService,
	references ReferenceGenerator,
	defaultMaxDays int,
) RentalService {
	return &rentalService{
		rentalRepo:     rentalRepo,
		equipmentRepo:  equipmentRepo,
		userRepo:       userRepo,
		uploadRepo:     uploadRepo,
		settings:       settings,
		notifications:  notifications,
		emailSvc:       emailSvc,
		references:     references,
		defaultMaxDays: defaultMaxDays,
		now:            time.Now,
	}
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func (s *rentalService) Create(ctx context.Context, actor *domain.User, in CreateRentalInput) (*domain.Rental, error) {
	logger.EnterMethod("rentalService.Create", "actorID", actorID(actor), "equipmentID", in.EquipmentID)

	if err := domain.Authorize(actor); err != nil {
		return nil, err
	}
	if !actor.IsTenant() {
		return nil, domain.Forbidden("only tenants can rent equipment")
	}
	if in.PaymentMethod == "" {
		in.PaymentMethod = domain.PaymentMethodReceipt
	}
	if !in.PaymentMethod.Valid() {
		return nil, domain.BadRequest("unknown payment method %q", in.PaymentMethod)
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return nil, domain.BadRequest("start and end dates are required")
	}
	if startOfDay(in.StartDate).Before(startOfDay(s.now())) {
		return nil, domain.BadRequest("start date cannot be in the past")
	}
	if !in.EndDate.After(in.StartDate) {
		return nil, domain.BadRequest("end date must be after start date")
	}

	eq, err := s.equipmentRepo.GetByID(ctx, in.EquipmentID)
	if err != nil {
		return nil, err
	}
	if eq.IsDeleted() || !eq.IsApproved() {
		return nil, domain.NotFound("equipment not found")
	}
	if eq.OwnerID == actor.ID {
		return nil, domain.BadRequest("cannot rent your own equipment")
	}
	if !eq.IsAvailable {
		return nil, domain.BadRequest("equipment is not available for rental")
	}

	cost, err := utils.CalculateRentalCost(eq.DailyRate, eq.PricePeriod, in.StartDate, in.EndDate)
	if err != nil {
		return nil, domain.BadRequest("%s", err.Error())
	}
	if maxDays := s.settings.GetInt(ctx, domain.ConfigKeyMaxRentalDays, s.defaultMaxDays); maxDays > 0 && cost.Days > maxDays {
		return nil, domain.BadRequest("rentals cannot exceed %d days", maxDays)
	}
	total := cost.Total
	if in.TotalAmount != nil {
		if !in.TotalAmount.IsPositive() {
			return nil, domain.BadRequest("total amount must be greater than zero")
		}
		total = *in.TotalAmount
	}

	rental := &domain.Rental{
		Reference:     s.references.Next(),
		EquipmentID:   eq.ID,
		RenterID:      actor.ID,
		OwnerID:       eq.OwnerID,
		StartDate:     in.StartDate.UTC(),
		EndDate:       in.EndDate.UTC(),
		DailyRate:     eq.DailyRate,
		PricePeriod:   eq.PricePeriod,
		TotalAmount:   total,
		Status:        domain.RentalStatusPending,
		PaymentMethod: in.PaymentMethod,
		PaymentStatus: domain.PaymentStatusPending,
		Notes:         strings.TrimSpace(in.Notes),
	}
	if err := s.rentalRepo.Create(ctx, rental); err != nil {
		logger.ExitMethodWithError("rentalService.Create", err)
		return nil, err
	}

	_, _ = s.notifications.Notify(ctx, rental.OwnerID, NotificationInput{
		Type:    domain.NotificationTypeRental,
		Level:   domain.NotificationLevelInfo,
		Title:   "New rental request",
		Message: actor.FullName + ` wants to rent "` + eq.Title + `".`,
		Data:    map[string]any{"rentalId": rental.ID, "reference": rental.Reference},
	})
	if owner, err := s.userRepo.GetByID(ctx, rental.OwnerID); err == nil {
		_ = s.emailSvc.SendRentalRequest(ctx, owner.Email, owner.FullName, actor.FullName, eq.Title, rental.Reference, rental.TotalAmount)
	}

	logger.ExitMethod("rentalService.Create", "rentalID", rental.ID, "reference", rental.Reference)
	return rental, nil
}

func (s *rentalService) Get(ctx context.Context, actor *domain.User, id int32) (*domain.Rental, error) {
	if actor == nil {
		return nil, domain.Unauthorized("authentication required")
	}
	rental, err := s.rentalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !rental.IsParticipant(actor.ID) && !actor.IsStaff() {
		return nil, domain.NotFound("rental not found")
	}
	return rental, nil
}

func (s *rentalService) ListMine(ctx context.Context, actor *domain.User, asOwner bool, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error) {
	if actor == nil {
		return nil, 0, domain.Unauthorized("authentication required")
	}
	if status != "" && !status.Valid() {
		return nil, 0, domain.BadRequest("unknown rental status %q", status)
	}
	filter := domain.RentalFilter{Status: status}
	if asOwner {
		filter.OwnerID = actor.ID
	} else {
		filter.RenterID = actor.ID
	}
	page, pageSize = NormalizePage(page, pageSize)
	return s.rentalRepo.List(ctx, filter, page, pageSize)
}

func (s *rentalService) ListAll(ctx context.Context, actor *domain.User, filter domain.RentalFilter, page, pageSize int32) ([]domain.Rental, int32, error) {
	if err := domain.Authorize(actor, domain.RoleModerator); err != nil {
		return nil, 0, err
	}
	page, pageSize = NormalizePage(page, pageSize)
	return s.rentalRepo.List(ctx, filter, page, pageSize)
}

func (s *rentalService) ListPendingReceipts(ctx context.Context, actor *domain.User, page, pageSize int32) ([]domain.Rental, int32, error) {
	if err := domain.Authorize(actor, domain.RoleModerator); err != nil {
		return nil, 0, err
	}
	page, pageSize = NormalizePage(page, pageSize)
	return s.rentalRepo.List(ctx, domain.RentalFilter{ReceiptStatus: domain.ModerationPending}, page, pageSize)
}

// rentalMove describes one lifecycle transition.
type rentalMove struct {
	to       domain.RentalStatus
	from     []domain.RentalStatus
	release  bool
	byOwner  bool
	byRenter bool
}

var (
	moveApprove  = rentalMove{to: domain.RentalStatusApproved, from: []domain.RentalStatus{domain.RentalStatusPending}, byOwner: true}
	moveReject   = rentalMove{to: domain.RentalStatusRejected, from: []domain.RentalStatus{domain.RentalStatusPending}, release: true, byOwner: true}
	moveCancel   = rentalMove{to: domain.RentalStatusCancelled, from: domain.OpenRentalStatuses, release: true, byOwner: true, byRenter: true}
	moveActivate = rentalMove{to: domain.RentalStatusActive, from: []domain.RentalStatus{domain.RentalStatusApproved, domain.RentalStatusPaid}, byOwner: true}
	moveComplete = rentalMove{to: domain.RentalStatusCompleted, from: []domain.RentalStatus{domain.RentalStatusActive, domain.RentalStatusPaid}, release: true, byOwner: true}
)

func (s *rentalService) move(ctx context.Context, actor *domain.User, id int32, mv rentalMove, reason string) (*domain.Rental, error) {
	if err := domain.Authorize(actor); err != nil {
		return nil, err
	}
	rental, err := s.rentalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	allowed := (mv.byOwner && rental.OwnerID == actor.ID) || (mv.byRenter && rental.RenterID == actor.ID)
	if !allowed {
		if !rental.IsParticipant(actor.ID) {
			return nil, domain.NotFound("rental not found")
		}
		return nil, domain.Forbidden("you cannot %s this rental", verb(mv.to))
	}
	if !slices.Contains(mv.from, rental.Status) {
		return nil, domain.BadRequest("rental is %s and cannot be %s", strings.ToLower(string(rental.Status)), strings.ToLower(string(mv.to)))
	}

	previous := rental.Status
	rental.Status = mv.to
	switch mv.to {
	case domain.RentalStatusCancelled, domain.RentalStatusRejected:
		rental.CancellationReason = strings.TrimSpace(reason)
		rental.CancelledBy = &actor.ID
	case domain.RentalStatusCompleted:
		if rental.PaymentMethod == domain.PaymentMethodCash {
			rental.PaymentStatus = domain.PaymentStatusPaid
		}
	}
	if err := s.rentalRepo.Transition(ctx, rental, mv.from, mv.release); err != nil {
		return nil, err
	}
	logger.InfoContext(ctx, "Rental status changed", "rentalID", rental.ID, "from", previous, "to", rental.Status, "actorID", actor.ID)

	s.notifyParticipants(ctx, rental, actor.ID, rental.CancellationReason)
	return rental, nil
}

func verb(to domain.RentalStatus) string {
	switch to {
	case domain.RentalStatusApproved:
		return "approve"
	case domain.RentalStatusRejected:
		return "reject"
	case domain.RentalStatusCancelled:
		return "cancel"
	case domain.RentalStatusActive:
		return "activate"
	default:
		return "complete"
	}
}

func (s *rentalService) Approve(ctx context.Context, actor *domain.User, id int32) (*domain.Rental, error) {
	return s.move(ctx, actor, id, moveApprove, "")
}

func (s *rentalService) Reject(ctx context.Context, actor *domain.User, id int32, reason string) (*domain.Rental, error) {
	return s.move(ctx, actor, id, moveReject, reason)
}

func (s *rentalService) Cancel(ctx context.Context, actor *domain.User, id int32, reason string) (*domain.Rental, error) {
	return s.move(ctx, actor, id, moveCancel, reason)
}

func (s *rentalService) Activate(ctx context.Context, actor *domain.User, id int32) (*domain.Rental, error) {
	return s.move(ctx, actor, id, moveActivate, "")
}

func (s *rentalService) Complete(ctx context.Context, actor *domain.User, id int32) (*domain.Rental, error) {
	return s.move(ctx, actor, id, moveComplete, "")
}

func (s *rentalService) UploadPaymentReceipt(ctx context.Context, actor *domain.User, id int32, uploadID int32) (*domain.Rental, error) {
	if err := domain.Authorize(actor); err != nil {
		return nil, err
	}
	rental, err := s.rentalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rental.RenterID != actor.ID {
		return nil, domain.Forbidden("only the renter can upload a payment receipt")
	}
	if rental.PaymentMethod != domain.PaymentMethodReceipt {
		return nil, domain.BadRequest("rental is not paid by receipt")
	}
	if rental.Status != domain.RentalStatusPending && rental.Status != domain.RentalStatusApproved {
		return nil, domain.BadRequest("rental is no longer awaiting payment")
	}
	if rental.ReceiptStatus() == domain.ModerationApproved {
		return nil, domain.BadRequest("payment receipt has already been approved")
	}

	upload, err := s.uploadRepo.GetByID(ctx, uploadID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.BadRequest("receipt upload %d does not exist", uploadID)
		}
		return nil, err
	}
	if upload.UserID != actor.ID || upload.Purpose != domain.UploadPurposePaymentReceipt {
		return nil, domain.BadRequest("upload %d is not a payment receipt of yours", uploadID)
	}

	rental.PaymentReceiptURL = upload.URL
	if err := s.rentalRepo.AttachReceipt(ctx, rental); err != nil {
		return nil, err
	}

	_ = s.notifications.NotifyRoles(ctx, ModerationStaff, NotificationInput{
		Type:    domain.NotificationTypePayment,
		Level:   domain.NotificationLevelInfo,
		Title:   "Payment receipt awaiting validation",
		Message: "A payment receipt was uploaded for rental " + rental.Reference + ".",
		Data:    map[string]any{"rentalId": rental.ID, "reference": rental.Reference},
	})
	return rental, nil
}

// ValidatePaymentReceipt records a moderator decision on a pending receipt.
// Approval marks the rental PAID.
func (s *rentalService) ValidatePaymentReceipt(ctx context.Context, actor *domain.User, id int32, approve bool, reason string) (*domain.Rental, error) {
	logger.EnterMethod("rentalService.ValidatePaymentReceipt", "actorID", actorID(actor), "rentalID", id, "approve", approve)

	if err := domain.Authorize(actor, domain.RoleModerator); err != nil {
		return nil, err
	}
	rental, err := s.rentalRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rental.PaymentMethod != domain.PaymentMethodReceipt {
		return nil, domain.BadRequest("rental is not paid by receipt")
	}
	if rental.ReceiptStatus() != domain.ModerationPending {
		return nil, domain.BadRequest("payment receipt is not pending validation")
	}
	if rental.Status != domain.RentalStatusPending && rental.Status != domain.RentalStatusApproved {
		return nil, domain.BadRequest("rental is no longer awaiting payment")
	}

	now := time.Now().UTC()
	decision := domain.ModerationApproved
	rental.ReceiptValidatedBy = &actor.ID
	rental.ReceiptValidatedAt = &now
	if approve {
		rental.PaymentStatus = domain.PaymentStatusPaid
		rental.Status = domain.RentalStatusPaid
		rental.ReceiptRejectionReason = ""
	} else {
		decision = domain.ModerationRejected
		rental.ReceiptRejectionReason = strings.TrimSpace(reason)
	}
	rental.PaymentReceiptStatus = &decision
	if err := s.rentalRepo.DecideReceipt(ctx, rental); err != nil {
		logger.ExitMethodWithError("rentalService.ValidatePaymentReceipt", err)
		return nil, err
	}

	note := NotificationInput{
		Type:    domain.NotificationTypePayment,
		Level:   domain.NotificationLevelSuccess,
		Title:   "Payment confirmed",
		Message: "The payment for rental " + rental.Reference + " was confirmed.",
		Data:    map[string]any{"rentalId": rental.ID, "receiptStatus": decision},
	}
	if !approve {
		note.Level = domain.NotificationLevelError
		note.Title = "Payment receipt rejected"
		note.Message = "The payment receipt for rental " + rental.Reference + " was rejected."
		if rental.ReceiptRejectionReason != "" {
			note.Message += " Reason: " + rental.ReceiptRejectionReason
			note.Data["reason"] = rental.ReceiptRejectionReason
		}
	}
	_ = s.notifications.NotifyUsers(ctx, []int32{rental.RenterID, rental.OwnerID}, note)
	if renter, err := s.userRepo.GetByID(ctx, rental.RenterID); err == nil {
		_ = s.emailSvc.SendReceiptDecision(ctx, renter.Email, renter.FullName, rental.Reference, approve, rental.ReceiptRejectionReason)
	}

	logger.ExitMethod("rentalService.ValidatePaymentReceipt", "rentalID", rental.ID, "receiptStatus", decision)
	return rental, nil
}

// ExpireStale cancels pending requests whose start date has passed.
func (s *rentalService) ExpireStale(ctx context.Context, now time.Time) (int, error) {
	stale, err := s.rentalRepo.ListStalePending(ctx, now)
	if err != nil {
		return 0, err
	}
	done := 0
	for i := range stale {
		rental := &stale[i]
		rental.Status = domain.RentalStatusCancelled
		rental.CancellationReason = "expired: the request was not approved before the start date"
		rental.CancelledBy = nil
		if err := s.rentalRepo.Transition(ctx, rental, []domain.RentalStatus{domain.RentalStatusPending}, true); err != nil {
			logger.WarnContext(ctx, "Failed to expire rental", "rentalID", rental.ID, "error", err)
			continue
		}
		s.notifyParticipants(ctx, rental, 0, rental.CancellationReason)
		done++
	}
	return done, nil
}

// CompleteFinished closes active rentals whose end date has passed.
func (s *rentalService) CompleteFinished(ctx context.Context, now time.Time) (int, error) {
	finished, err := s.rentalRepo.ListFinishedActive(ctx, now)
	if err != nil {
		return 0, err
	}
	done := 0
	for i := range finished {
		rental := &finished[i]
		rental.Status = domain.RentalStatusCompleted
		if rental.PaymentMethod == domain.PaymentMethodCash {
			rental.PaymentStatus = domain.PaymentStatusPaid
		}
		if err := s.rentalRepo.Transition(ctx, rental, []domain.RentalStatus{domain.RentalStatusActive}, true); err != nil {
			logger.WarnContext(ctx, "Failed to complete rental", "rentalID", rental.ID, "error", err)
			continue
		}
		s.notifyParticipants(ctx, rental, 0, "")
		done++
	}
	return done, nil
}

// notifyParticipants tells both parties, except the one who acted, about the
// rental's new status.
func (s *rentalService) notifyParticipants(ctx context.Context, rental *domain.Rental, actorID int32, note string) {
	level := domain.NotificationLevelInfo
	switch rental.Status {
	case domain.RentalStatusApproved, domain.RentalStatusCompleted:
		level = domain.NotificationLevelSuccess
	case domain.RentalStatusRejected, domain.RentalStatusCancelled:
		level = domain.NotificationLevelWarning
	}

	title := "Rental equipment"
	if eq, err := s.equipmentRepo.GetByID(ctx, rental.EquipmentID); err == nil {
		title = eq.Title
	}
	msg := "Rental " + rental.Reference + " is now " + strings.ToLower(string(rental.Status)) + "."
	if note != "" {
		msg += " " + note
	}

	for _, userID := range []int32{rental.RenterID, rental.OwnerID} {
		if userID == actorID {
			continue
		}
		_, _ = s.notifications.Notify(ctx, userID, NotificationInput{
			Type:    domain.NotificationTypeRental,
			Level:   level,
			Title:   "Rental " + strings.ToLower(string(rental.Status)),
			Message: msg,
			Data:    map[string]any{"rentalId": rental.ID, "reference": rental.Reference, "status": rental.Status},
		})
		if user, err := s.userRepo.GetByID(ctx, userID); err == nil {
			_ = s.emailSvc.SendRentalStatus(ctx, user.Email, user.FullName, title, rental.Reference, rental.Status, note)
		}
	}
}
