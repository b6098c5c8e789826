package service

import (
	"context"
	"strings"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
	"equiprent-backend/internal/utils"
)

type favoriteService struct {
	favoriteRepo  repository.FavoriteRepository
	equipmentRepo repository.EquipmentRepository
}

func NewFavoriteService(favoriteRepo repository.FavoriteRepository, equipmentRepo repository.EquipmentRepository) FavoriteService {
	return &favoriteService{favoriteRepo: favoriteRepo, equipmentRepo: equipmentRepo}
}

// Add is idempotent: adding a listing twice returns the existing favorite.
func (s *favoriteService) Add(ctx context.Context, actor *domain.User, equipmentID int32) (*domain.Favorite, error) {
	if actor == nil {
		return nil, domain.Unauthorized("authentication required")
	}
	eq, err := s.equipmentRepo.GetByID(ctx, equipmentID)
	if err != nil {
		return nil, err
	}
	if eq.IsDeleted() {
		return nil, domain.NotFound("equipment not found")
	}
	return s.favoriteRepo.Add(ctx, actor.ID, equipmentID)
}

func (s *favoriteService) Remove(ctx context.Context, actor *domain.User, equipmentID int32) error {
	if actor == nil {
		return domain.Unauthorized("authentication required")
	}
	return s.favoriteRepo.Remove(ctx, actor.ID, equipmentID)
}

func (s *favoriteService) IsFavorite(ctx context.Context, actor *domain.User, equipmentID int32) (bool, error) {
	if actor == nil {
		return false, domain.Unauthorized("authentication required")
	}
	return s.favoriteRepo.Exists(ctx, actor.ID, equipmentID)
}

func (s *favoriteService) List(ctx context.Context, actor *domain.User, page, pageSize int32) ([]domain.Equipment, int32, error) {
	if actor == nil {
		return nil, 0, domain.Unauthorized("authentication required")
	}
	page, pageSize = NormalizePage(page, pageSize)
	return s.favoriteRepo.ListByUser(ctx, actor.ID, page, pageSize)
}

type cartService struct {
	cartRepo      repository.CartRepository
	equipmentRepo repository.EquipmentRepository
	rentals       RentalService
}

func NewCartService(cartRepo repository.CartRepository, equipmentRepo repository.EquipmentRepository, rentals RentalService) CartService {
	return &cartService{cartRepo: cartRepo, equipmentRepo: equipmentRepo, rentals: rentals}
}

func (s *cartService) checkItem(ctx context.Context, actor *domain.User, in CartItemInput) (*domain.Equipment, error) {
	if err := domain.Authorize(actor); err != nil {
		return nil, err
	}
	if !actor.IsTenant() {
		return nil, domain.Forbidden("only tenants can rent equipment")
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
	return eq, nil
}

// AddItem stores one entry per listing; adding a listing again refreshes its dates.
func (s *cartService) AddItem(ctx context.Context, actor *domain.User, in CartItemInput) (*domain.CartItem, error) {
	eq, err := s.checkItem(ctx, actor, in)
	if err != nil {
		return nil, err
	}
	item, err := s.cartRepo.Upsert(ctx, &domain.CartItem{
		UserID:      actor.ID,
		EquipmentID: in.EquipmentID,
		StartDate:   in.StartDate.UTC(),
		EndDate:     in.EndDate.UTC(),
		Notes:       strings.TrimSpace(in.Notes),
	})
	if err != nil {
		return nil, err
	}
	estimate(item, eq)
	return item, nil
}

func (s *cartService) UpdateItem(ctx context.Context, actor *domain.User, itemID int32, in CartItemInput) (*domain.CartItem, error) {
	if actor == nil {
		return nil, domain.Unauthorized("authentication required")
	}
	item, err := s.cartRepo.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}
	if item.UserID != actor.ID {
		return nil, domain.NotFound("cart item not found")
	}
	in.EquipmentID = item.EquipmentID
	eq, err := s.checkItem(ctx, actor, in)
	if err != nil {
		return nil, err
	}
	item.StartDate = in.StartDate.UTC()
	item.EndDate = in.EndDate.UTC()
	item.Notes = strings.TrimSpace(in.Notes)
	if err := s.cartRepo.Update(ctx, item); err != nil {
		return nil, err
	}
	estimate(item, eq)
	return item, nil
}

func (s *cartService) RemoveItem(ctx context.Context, actor *domain.User, itemID int32) error {
	if actor == nil {
		return domain.Unauthorized("authentication required")
	}
	return s.cartRepo.Delete(ctx, itemID, actor.ID)
}

func (s *cartService) List(ctx context.Context, actor *domain.User) ([]domain.CartItem, error) {
	if actor == nil {
		return nil, domain.Unauthorized("authentication required")
	}
	items, err := s.cartRepo.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		eq, err := s.equipmentRepo.GetByID(ctx, items[i].EquipmentID)
		if err != nil {
			continue
		}
		estimate(&items[i], eq)
	}
	return items, nil
}

func (s *cartService) Clear(ctx context.Context, actor *domain.User) error {
	if actor == nil {
		return domain.Unauthorized("authentication required")
	}
	return s.cartRepo.Clear(ctx, actor.ID)
}

// Checkout books every cart item. Items that fail stay in the cart and are
// reported with their error.
func (s *cartService) Checkout(ctx context.Context, actor *domain.User, method domain.PaymentMethod) (*CheckoutResult, error) {
	if err := domain.Authorize(actor); err != nil {
		return nil, err
	}
	items, err := s.cartRepo.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, domain.BadRequest("cart is empty")
	}

	result := &CheckoutResult{Rentals: []*domain.Rental{}, Failures: []CheckoutFailure{}}
	for _, item := range items {
		rental, err := s.rentals.Create(ctx, actor, CreateRentalInput{
			EquipmentID:   item.EquipmentID,
			StartDate:     item.StartDate,
			EndDate:       item.EndDate,
			PaymentMethod: method,
			Notes:         item.Notes,
		})
		if err != nil {
			msg := domain.ErrorMessage(err)
			if msg == "" {
				logger.ErrorContext(ctx, "Checkout item failed", "cartItemID", item.ID, "error", err)
				msg = "could not book this item"
			}
			result.Failures = append(result.Failures, CheckoutFailure{CartItemID: item.ID, EquipmentID: item.EquipmentID, Error: msg})
			continue
		}
		result.Rentals = append(result.Rentals, rental)
		if err := s.cartRepo.Delete(ctx, item.ID, actor.ID); err != nil {
			logger.WarnContext(ctx, "Failed to remove checked out cart item", "cartItemID", item.ID, "error", err)
		}
	}
	return result, nil
}

func estimate(item *domain.CartItem, eq *domain.Equipment) {
	cost, err := utils.CalculateRentalCost(eq.DailyRate, eq.PricePeriod, item.StartDate, item.EndDate)
	if err != nil {
		return
	}
	item.Estimate = &cost.Total
}

type reviewService struct {
	reviewRepo repository.ReviewRepository
	rentalRepo repository.RentalRepository
}

func NewReviewService(reviewRepo repository.ReviewRepository, rentalRepo repository.RentalRepository) ReviewService {
	return &reviewService{reviewRepo: reviewRepo, rentalRepo: rentalRepo}
}

func (s *reviewService) Create(ctx context.Context, actor *domain.User, rentalID int32, rating int16, comment string) (*domain.Review, error) {
	if err := domain.Authorize(actor); err != nil {
		return nil, err
	}
	if rating < 1 || rating > 5 {
		return nil, domain.BadRequest("rating must be between 1 and 5")
	}
	rental, err := s.rentalRepo.GetByID(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if rental.RenterID != actor.ID {
		return nil, domain.Forbidden("only the renter can review this rental")
	}
	if rental.Status != domain.RentalStatusCompleted {
		return nil, domain.BadRequest("only completed rentals can be reviewed")
	}
	exists, err := s.reviewRepo.ExistsForRental(ctx, rentalID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.Conflict("this rental has already been reviewed")
	}

	review := &domain.Review{
		RentalID:    rentalID,
		EquipmentID: rental.EquipmentID,
		AuthorID:    actor.ID,
		Rating:      rating,
		Comment:     strings.TrimSpace(comment),
	}
	if err := s.reviewRepo.Create(ctx, review); err != nil {
		return nil, err
	}
	return review, nil
}

func (s *reviewService) ListByEquipment(ctx context.Context, equipmentID int32, page, pageSize int32) ([]domain.Review, int32, float64, error) {
	page, pageSize = NormalizePage(page, pageSize)
	reviews, total, err := s.reviewRepo.ListByEquipment(ctx, equipmentID, page, pageSize)
	if err != nil {
		return nil, 0, 0, err
	}
	avg, err := s.reviewRepo.AverageRating(ctx, equipmentID)
	if err != nil {
		return nil, 0, 0, err
	}
	return reviews, total, avg, nil
}

func (s *reviewService) Delete(ctx context.Context, actor *domain.User, id int32) error {
	if actor == nil {
		return domain.Unauthorized("authentication required")
	}
	review, err := s.reviewRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if review.AuthorID != actor.ID {
		if err := domain.Authorize(actor, domain.RoleModerator); err != nil {
			return err
		}
	}
	return s.reviewRepo.Delete(ctx, id)
}

type reportService struct {
	reportRepo    repository.ReportRepository
	notifications NotificationService
}

func NewReportService(reportRepo repository.ReportRepository, notifications NotificationService) ReportService {
	return &reportService{reportRepo: reportRepo, notifications: notifications}
}

func (s *reportService) Create(ctx context.Context, actor *domain.User, r *domain.Report) (*domain.Report, error) {
	if actor == nil {
		return nil, domain.Unauthorized("authentication required")
	}
	if !r.TargetType.Valid() {
		return nil, domain.BadRequest("unknown report target %q", r.TargetType)
	}
	if r.TargetID <= 0 {
		return nil, domain.BadRequest("target id is required")
	}
	r.Reason = strings.TrimSpace(r.Reason)
	if r.Reason == "" {
		return nil, domain.BadRequest("a reason is required")
	}
	r.ID = 0
	r.ReporterID = actor.ID
	r.Status = domain.ReportStatusOpen
	r.ResolvedBy = nil
	r.ResolvedAt = nil
	r.ResolutionNote = ""
	if err := s.reportRepo.Create(ctx, r); err != nil {
		return nil, err
	}

	_ = s.notifications.NotifyRoles(ctx, ModerationStaff, NotificationInput{
		Type:    domain.NotificationTypeModeration,
		Level:   domain.NotificationLevelWarning,
		Title:   "New report",
		Message: "A " + strings.ToLower(string(r.TargetType)) + " was reported: " + r.Reason,
		Data:    map[string]any{"reportId": r.ID, "targetType": r.TargetType, "targetId": r.TargetID},
	})
	return r, nil
}

func (s *reportService) List(ctx context.Context, actor *domain.User, status domain.ReportStatus, page, pageSize int32) ([]domain.Report, int32, error) {
	if err := domain.Authorize(actor, domain.RoleModerator); err != nil {
		return nil, 0, err
	}
	if status == "" {
		status = domain.ReportStatusOpen
	}
	page, pageSize = NormalizePage(page, pageSize)
	return s.reportRepo.ListByStatus(ctx, status, page, pageSize)
}

func (s *reportService) Resolve(ctx context.Context, actor *domain.User, id int32, status domain.ReportStatus, note string) (*domain.Report, error) {
	if err := domain.Authorize(actor, domain.RoleModerator); err != nil {
		return nil, err
	}
	if status != domain.ReportStatusResolved && status != domain.ReportStatusDismissed {
		return nil, domain.BadRequest("status must be RESOLVED or DISMISSED")
	}
	report, err := s.reportRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if report.Status != domain.ReportStatusOpen {
		return nil, domain.BadRequest("report is already closed")
	}

	now := time.Now().UTC()
	report.Status = status
	report.ResolvedBy = &actor.ID
	report.ResolvedAt = &now
	report.ResolutionNote = strings.TrimSpace(note)
	if err := s.reportRepo.Resolve(ctx, report); err != nil {
		return nil, err
	}

	_, _ = s.notifications.Notify(ctx, report.ReporterID, NotificationInput{
		Type:    domain.NotificationTypeModeration,
		Level:   domain.NotificationLevelInfo,
		Title:   "Report " + strings.ToLower(string(status)),
		Message: "Your report has been reviewed by our moderators.",
		Data:    map[string]any{"reportId": report.ID, "status": status},
	})
	return report, nil
}
