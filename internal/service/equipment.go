package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
	"equiprent-backend/internal/utils"
)

const maxSearchRadiusKm = 500

type equipmentService struct {
	equipmentRepo repository.EquipmentRepository
	categoryRepo  repository.CategoryRepository
	rentalRepo    repository.RentalRepository
	notifications NotificationService
}

func NewEquipmentService(equipmentRepo repository.EquipmentRepository, categoryRepo repository.CategoryRepository, rentalRepo repository.RentalRepository, notifications NotificationService) EquipmentService {
	return &equipmentService{
		equipmentRepo: equipmentRepo,
		categoryRepo:  categoryRepo,
		rentalRepo:    rentalRepo,
		notifications: notifications,
	}
}

func (s *equipmentService) checkCategory(ctx context.Context, id int32) error {
	cat, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.BadRequest("category %d does not exist", id)
		}
		return err
	}
	if !cat.IsActive {
		return domain.BadRequest("category %s is not active", cat.Name)
	}
	return nil
}

func validateEquipmentInput(in *EquipmentInput) error {
	in.Title = strings.TrimSpace(in.Title)
	if in.Title == "" {
		return domain.BadRequest("title is required")
	}
	if !in.DailyRate.IsPositive() {
		return domain.BadRequest("rate must be greater than zero")
	}
	if in.PricePeriod == "" {
		in.PricePeriod = domain.PricePeriodDaily
	}
	if !in.PricePeriod.Valid() {
		return domain.BadRequest("unknown price period %q", in.PricePeriod)
	}
	if (in.Latitude == nil) != (in.Longitude == nil) {
		return domain.BadRequest("latitude and longitude must be given together")
	}
	return nil
}

// Create publishes a new listing for review. Only approved landlords may list.
func (s *equipmentService) Create(ctx context.Context, actor *domain.User, in EquipmentInput) (*domain.Equipment, error) {
	logger.EnterMethod("equipmentService.Create", "actorID", actorID(actor), "title", in.Title)

	if err := domain.Authorize(actor); err != nil {
		return nil, err
	}
	if !actor.IsLandlord() {
		return nil, domain.Forbidden("only landlords can list equipment")
	}
	if err := validateEquipmentInput(&in); err != nil {
		return nil, err
	}
	if err := s.checkCategory(ctx, in.CategoryID); err != nil {
		return nil, err
	}

	eq := &domain.Equipment{
		OwnerID:          actor.ID,
		CategoryID:       in.CategoryID,
		Title:            in.Title,
		Description:      strings.TrimSpace(in.Description),
		DailyRate:        in.DailyRate,
		PricePeriod:      in.PricePeriod,
		Condition:        strings.TrimSpace(in.Condition),
		Images:           domain.StringList(in.Images),
		Province:         strings.TrimSpace(in.Province),
		City:             strings.TrimSpace(in.City),
		Address:          strings.TrimSpace(in.Address),
		Latitude:         in.Latitude,
		Longitude:        in.Longitude,
		IsAvailable:      false,
		ModerationStatus: domain.ModerationPending,
	}
	if err := s.equipmentRepo.Create(ctx, eq); err != nil {
		logger.ExitMethodWithError("equipmentService.Create", err)
		return nil, err
	}

	_ = s.notifications.NotifyRoles(ctx, ModerationStaff, NotificationInput{
		Type:    domain.NotificationTypeModeration,
		Level:   domain.NotificationLevelInfo,
		Title:   "New listing awaiting review",
		Message: `"` + eq.Title + `" is waiting for moderation.`,
		Data:    map[string]any{"equipmentId": eq.ID},
	})

	logger.ExitMethod("equipmentService.Create", "equipmentID", eq.ID)
	return eq, nil
}

func canSeeUnpublished(viewer *domain.User, eq *domain.Equipment) bool {
	if viewer == nil {
		return false
	}
	return viewer.ID == eq.OwnerID || viewer.IsStaff()
}

func (s *equipmentService) Get(ctx context.Context, viewer *domain.User, id int32) (*domain.Equipment, error) {
	eq, err := s.equipmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if (!eq.IsApproved() || eq.IsDeleted()) && !canSeeUnpublished(viewer, eq) {
		return nil, domain.NotFound("equipment not found")
	}
	if eq.IsApproved() && !eq.IsDeleted() && (viewer == nil || viewer.ID != eq.OwnerID) {
		if err := s.equipmentRepo.IncrementViews(ctx, id); err != nil {
			logger.WarnContext(ctx, "Failed to count equipment view", "equipmentID", id, "error", err)
		} else {
			eq.Views++
		}
	}
	return eq, nil
}

// Search lists approved listings. With a centre point, results are limited to
// the radius, carry their distance and are ordered nearest first.
func (s *equipmentService) Search(ctx context.Context, filter domain.EquipmentFilter, page, pageSize int32) ([]domain.Equipment, int32, error) {
	page, pageSize = NormalizePage(page, pageSize)
	if filter.MinRate != nil && filter.MaxRate != nil && filter.MinRate.GreaterThan(*filter.MaxRate) {
		return nil, 0, domain.BadRequest("minimum rate is greater than maximum rate")
	}
	if filter.PricePeriod != "" && !filter.PricePeriod.Valid() {
		return nil, 0, domain.BadRequest("unknown price period %q", filter.PricePeriod)
	}
	if filter.Near == nil {
		return s.equipmentRepo.Search(ctx, filter, page, pageSize)
	}

	if filter.RadiusKm <= 0 || filter.RadiusKm > maxSearchRadiusKm {
		return nil, 0, domain.BadRequest("radius must be between 0 and %d km", maxSearchRadiusKm)
	}
	minLat, maxLat, minLon, maxLon := utils.BoundingBox(filter.Near.Latitude, filter.Near.Longitude, filter.RadiusKm)
	filter.Box = &domain.BoundingBox{MinLat: minLat, MaxLat: maxLat, MinLon: minLon, MaxLon: maxLon}

	candidates, _, err := s.equipmentRepo.Search(ctx, filter, 1, 0)
	if err != nil {
		return nil, 0, err
	}
	nearby := make([]domain.Equipment, 0, len(candidates))
	for _, eq := range candidates {
		if eq.Latitude == nil || eq.Longitude == nil {
			continue
		}
		d := utils.HaversineKm(filter.Near.Latitude, filter.Near.Longitude, *eq.Latitude, *eq.Longitude)
		if d > filter.RadiusKm {
			continue
		}
		eq.DistanceKm = &d
		nearby = append(nearby, eq)
	}
	sort.SliceStable(nearby, func(i, j int) bool { return *nearby[i].DistanceKm < *nearby[j].DistanceKm })

	total := int32(len(nearby))
	start := (page - 1) * pageSize
	if start >= total {
		return []domain.Equipment{}, total, nil
	}
	end := min(start+pageSize, total)
	return nearby[start:end], total, nil
}

func (s *equipmentService) ListMine(ctx context.Context, actor *domain.User, page, pageSize int32) ([]domain.Equipment, int32, error) {
	if actor == nil {
		return nil, 0, domain.Unauthorized("authentication required")
	}
	page, pageSize = NormalizePage(page, pageSize)
	return s.equipmentRepo.ListByOwner(ctx, actor.ID, page, pageSize)
}

func (s *equipmentService) loadOwned(ctx context.Context, actor *domain.User, id int32) (*domain.Equipment, error) {
	if err := domain.Authorize(actor); err != nil {
		return nil, err
	}
	eq, err := s.equipmentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if eq.IsDeleted() {
		return nil, domain.NotFound("equipment not found")
	}
	if eq.OwnerID != actor.ID {
		return nil, domain.Forbidden("you do not own this equipment")
	}
	return eq, nil
}

func (s *equipmentService) Update(ctx context.Context, actor *domain.User, id int32, patch *domain.EquipmentEdit) (*domain.Equipment, error) {
	eq, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if eq.ModerationStatus != domain.ModerationPending {
		return nil, domain.BadRequest("only listings awaiting moderation can be edited directly; submit an edit instead")
	}
	if patch == nil || patch.IsEmpty() {
		return nil, domain.BadRequest("no changes submitted")
	}
	if err := validateEditFields(patch); err != nil {
		return nil, err
	}
	if patch.CategoryID != nil && *patch.CategoryID != eq.CategoryID {
		if err := s.checkCategory(ctx, *patch.CategoryID); err != nil {
			return nil, err
		}
	}
	patch.ApplyTo(eq)
	if err := s.equipmentRepo.Update(ctx, eq); err != nil {
		return nil, err
	}
	return eq, nil
}

func (s *equipmentService) SetAvailability(ctx context.Context, actor *domain.User, id int32, available bool) (*domain.Equipment, error) {
	eq, err := s.loadOwned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if !eq.IsApproved() {
		return nil, domain.BadRequest("equipment has not been approved")
	}
	if available {
		open, err := s.rentalRepo.HasOpenForEquipment(ctx, id)
		if err != nil {
			return nil, err
		}
		if open {
			return nil, domain.BadRequest("equipment has an open rental")
		}
	}
	if err := s.equipmentRepo.SetAvailability(ctx, id, available); err != nil {
		return nil, err
	}
	eq.IsAvailable = available
	return eq, nil
}

func (s *equipmentService) Delete(ctx context.Context, actor *domain.User, id int32) error {
	if err := domain.Authorize(actor); err != nil {
		return err
	}
	eq, err := s.equipmentRepo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if eq.IsDeleted() {
		return domain.NotFound("equipment not found")
	}
	if eq.OwnerID != actor.ID && !actor.Role.Satisfies(domain.RoleAdmin) {
		return domain.Forbidden("you do not own this equipment")
	}
	open, err := s.rentalRepo.HasOpenForEquipment(ctx, id)
	if err != nil {
		return err
	}
	if open {
		return domain.BadRequest("equipment has an open rental")
	}
	return s.equipmentRepo.SoftDelete(ctx, id)
}

func validateEditFields(ed *domain.EquipmentEdit) error {
	if ed.DailyRate != nil && !ed.DailyRate.IsPositive() {
		return domain.BadRequest("rate must be greater than zero")
	}
	if ed.PricePeriod != nil && *ed.PricePeriod != "" && !ed.PricePeriod.Valid() {
		return domain.BadRequest("unknown price period %q", *ed.PricePeriod)
	}
	return nil
}
