package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/logger"
	"equiprent-backend/internal/repository"
)

var slugPattern = regexp.MustCompile(`^[a-z0-9]+(?:-[a-z0-9]+)*$`)

var nonSlugChars = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns a display name into a URL slug, e.g. "Power Tools" -> "power-tools".
func Slugify(name string) string {
	return strings.Trim(nonSlugChars.ReplaceAllString(strings.ToLower(name), "-"), "-")
}

type categoryService struct {
	categoryRepo  repository.CategoryRepository
	equipmentRepo repository.EquipmentRepository
}

func NewCategoryService(categoryRepo repository.CategoryRepository, equipmentRepo repository.EquipmentRepository) CategoryService {
	return &categoryService{categoryRepo: categoryRepo, equipmentRepo: equipmentRepo}
}

func (s *categoryService) List(ctx context.Context, viewer *domain.User) ([]domain.Category, error) {
	activeOnly := viewer == nil || !viewer.Role.Satisfies(domain.RoleAdmin)
	return s.categoryRepo.List(ctx, activeOnly)
}

func (s *categoryService) Get(ctx context.Context, id int32) (*domain.Category, error) {
	return s.categoryRepo.GetByID(ctx, id)
}

func (s *categoryService) validate(c *domain.Category) error {
	c.Name = strings.TrimSpace(c.Name)
	if c.Name == "" {
		return domain.BadRequest("category name is required")
	}
	c.Slug = strings.TrimSpace(c.Slug)
	if c.Slug == "" {
		c.Slug = Slugify(c.Name)
	}
	if !slugPattern.MatchString(c.Slug) {
		return domain.BadRequest("invalid slug %q", c.Slug)
	}
	return nil
}

func (s *categoryService) Create(ctx context.Context, actor *domain.User, c *domain.Category) (*domain.Category, error) {
	if err := domain.Authorize(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if err := s.validate(c); err != nil {
		return nil, err
	}
	c.ID = 0
	if err := s.categoryRepo.Create(ctx, c); err != nil {
		return nil, err
	}
	logger.Info("Category created", "categoryID", c.ID, "slug", c.Slug, "actorID", actor.ID)
	return c, nil
}

func (s *categoryService) Update(ctx context.Context, actor *domain.User, id int32, c *domain.Category) (*domain.Category, error) {
	if err := domain.Authorize(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	existing, err := s.categoryRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.validate(c); err != nil {
		return nil, err
	}
	c.ID = existing.ID
	c.CreatedAt = existing.CreatedAt
	if err := s.categoryRepo.Update(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *categoryService) Delete(ctx context.Context, actor *domain.User, id int32) error {
	if err := domain.Authorize(actor, domain.RoleAdmin); err != nil {
		return err
	}
	n, err := s.equipmentRepo.CountByCategory(ctx, id)
	if err != nil {
		return err
	}
	if n > 0 {
		return domain.BadRequest("category is used by %d listings; deactivate it instead", n)
	}
	return s.categoryRepo.Delete(ctx, id)
}

type contentService struct {
	contentRepo repository.ContentRepository
}

func NewContentService(contentRepo repository.ContentRepository) ContentService {
	return &contentService{contentRepo: contentRepo}
}

func canEditContent(u *domain.User) bool {
	return u != nil && u.Role.Satisfies(domain.RoleAdmin)
}

// Get hides drafts from everyone but admins.
func (s *contentService) Get(ctx context.Context, viewer *domain.User, slug string) (*domain.Content, error) {
	c, err := s.contentRepo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !c.IsPublished && !canEditContent(viewer) {
		return nil, domain.NotFound("content not found")
	}
	return c, nil
}

func (s *contentService) List(ctx context.Context, viewer *domain.User) ([]domain.Content, error) {
	return s.contentRepo.List(ctx, canEditContent(viewer))
}

func (s *contentService) Upsert(ctx context.Context, actor *domain.User, c *domain.Content) (*domain.Content, error) {
	if err := domain.Authorize(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	c.Slug = strings.TrimSpace(c.Slug)
	if !slugPattern.MatchString(c.Slug) {
		return nil, domain.BadRequest("invalid slug %q", c.Slug)
	}
	if isBlank(c.Title) {
		return nil, domain.BadRequest("title is required")
	}
	c.UpdatedBy = &actor.ID
	if err := s.contentRepo.Upsert(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

func (s *contentService) Delete(ctx context.Context, actor *domain.User, slug string) error {
	if err := domain.Authorize(actor, domain.RoleAdmin); err != nil {
		return err
	}
	return s.contentRepo.Delete(ctx, slug)
}

type addressService struct {
	addressRepo repository.AddressRepository
}

func NewAddressService(addressRepo repository.AddressRepository) AddressService {
	return &addressService{addressRepo: addressRepo}
}

func validateAddress(a *domain.Address) error {
	if isBlank(a.Street) || isBlank(a.City) {
		return domain.BadRequest("street and city are required")
	}
	if (a.Latitude == nil) != (a.Longitude == nil) {
		return domain.BadRequest("latitude and longitude must be provided together")
	}
	return nil
}

func (s *addressService) List(ctx context.Context, actor *domain.User) ([]domain.Address, error) {
	if actor == nil {
		return nil, domain.Unauthorized("authentication required")
	}
	return s.addressRepo.ListByUser(ctx, actor.ID)
}

// Create makes the address the default when asked to, or when it is the
// caller's first one.
func (s *addressService) Create(ctx context.Context, actor *domain.User, a *domain.Address) (*domain.Address, error) {
	if actor == nil {
		return nil, domain.Unauthorized("authentication required")
	}
	if err := validateAddress(a); err != nil {
		return nil, err
	}
	a.ID = 0
	a.UserID = actor.ID
	if err := s.addressRepo.Create(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

func (s *addressService) Update(ctx context.Context, actor *domain.User, id int32, a *domain.Address) (*domain.Address, error) {
	if actor == nil {
		return nil, domain.Unauthorized("authentication required")
	}
	current, err := s.owned(ctx, actor, id)
	if err != nil {
		return nil, err
	}
	if err := validateAddress(a); err != nil {
		return nil, err
	}
	a.ID = id
	a.UserID = actor.ID
	a.CreatedAt = current.CreatedAt
	if err := s.addressRepo.Update(ctx, a); err != nil {
		return nil, err
	}
	return a, nil
}

// Delete promotes the oldest remaining address when the default goes away.
func (s *addressService) Delete(ctx context.Context, actor *domain.User, id int32) error {
	if actor == nil {
		return domain.Unauthorized("authentication required")
	}
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return s.addressRepo.Delete(ctx, id, actor.ID)
}

func (s *addressService) SetDefault(ctx context.Context, actor *domain.User, id int32) error {
	if actor == nil {
		return domain.Unauthorized("authentication required")
	}
	if _, err := s.owned(ctx, actor, id); err != nil {
		return err
	}
	return s.addressRepo.SetDefault(ctx, actor.ID, id)
}

func (s *addressService) owned(ctx context.Context, actor *domain.User, id int32) (*domain.Address, error) {
	a, err := s.addressRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if a.UserID != actor.ID {
		return nil, domain.NotFound("address not found")
	}
	return a, nil
}

type bankInfoService struct {
	bankRepo repository.BankInfoRepository
}

func NewBankInfoService(bankRepo repository.BankInfoRepository) BankInfoService {
	return &bankInfoService{bankRepo: bankRepo}
}

func (s *bankInfoService) ListActive(ctx context.Context) ([]domain.BankInfo, error) {
	return s.bankRepo.List(ctx, true)
}

func (s *bankInfoService) ListAll(ctx context.Context, actor *domain.User) ([]domain.BankInfo, error) {
	if err := domain.Authorize(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.bankRepo.List(ctx, false)
}

func validateBankInfo(b *domain.BankInfo) error {
	if isBlank(b.BankName) || isBlank(b.AccountHolder) {
		return domain.BadRequest("bank name and account holder are required")
	}
	if isBlank(b.AccountNumber) && isBlank(b.IBAN) {
		return domain.BadRequest("an account number or IBAN is required")
	}
	b.IBAN = strings.ToUpper(strings.ReplaceAll(b.IBAN, " ", ""))
	return nil
}

func (s *bankInfoService) Create(ctx context.Context, actor *domain.User, b *domain.BankInfo) (*domain.BankInfo, error) {
	if err := domain.Authorize(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	if err := validateBankInfo(b); err != nil {
		return nil, err
	}
	b.ID = 0
	if err := s.bankRepo.Create(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *bankInfoService) Update(ctx context.Context, actor *domain.User, id int32, b *domain.BankInfo) (*domain.BankInfo, error) {
	if err := domain.Authorize(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	existing, err := s.bankRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validateBankInfo(b); err != nil {
		return nil, err
	}
	b.ID = id
	b.CreatedAt = existing.CreatedAt
	if err := s.bankRepo.Update(ctx, b); err != nil {
		return nil, err
	}
	return b, nil
}

func (s *bankInfoService) Delete(ctx context.Context, actor *domain.User, id int32) error {
	if err := domain.Authorize(actor, domain.RoleAdmin); err != nil {
		return err
	}
	return s.bankRepo.Delete(ctx, id)
}

type systemConfigService struct {
	configRepo repository.SystemConfigRepository
}

func NewSystemConfigService(configRepo repository.SystemConfigRepository) SystemConfigService {
	return &systemConfigService{configRepo: configRepo}
}

func (s *systemConfigService) List(ctx context.Context, actor *domain.User) ([]domain.SystemConfig, error) {
	if err := domain.Authorize(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.configRepo.List(ctx)
}

func (s *systemConfigService) Get(ctx context.Context, actor *domain.User, key string) (*domain.SystemConfig, error) {
	if err := domain.Authorize(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	return s.configRepo.Get(ctx, key)
}

func (s *systemConfigService) Set(ctx context.Context, actor *domain.User, key, value, description string) (*domain.SystemConfig, error) {
	if err := domain.Authorize(actor, domain.RoleAdmin); err != nil {
		return nil, err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return nil, domain.BadRequest("key is required")
	}
	if key == domain.ConfigKeyMaxRentalDays {
		if n, err := strconv.Atoi(strings.TrimSpace(value)); err != nil || n <= 0 {
			return nil, domain.BadRequest("%s must be a positive integer", key)
		}
	}
	cfg := &domain.SystemConfig{
		Key:         key,
		Value:       strings.TrimSpace(value),
		Description: strings.TrimSpace(description),
		UpdatedBy:   &actor.ID,
	}
	if err := s.configRepo.Set(ctx, cfg); err != nil {
		return nil, err
	}
	logger.Info("System setting changed", "key", key, "value", cfg.Value, "actorID", actor.ID)
	return cfg, nil
}

func (s *systemConfigService) GetInt(ctx context.Context, key string, fallback int) int {
	cfg, err := s.configRepo.Get(ctx, key)
	if err != nil {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(cfg.Value))
	if err != nil {
		logger.Warn("Ignoring malformed integer setting", "key", key, "value", cfg.Value)
		return fallback
	}
	return n
}

type statsService struct {
	statsRepo repository.StatsRepository
}

func NewStatsService(statsRepo repository.StatsRepository) StatsService {
	return &statsService{statsRepo: statsRepo}
}

func (s *statsService) Admin(ctx context.Context, actor *domain.User) (*domain.AdminStats, error) {
	if err := domain.Authorize(actor, domain.RoleModeratorManager); err != nil {
		return nil, err
	}
	return s.statsRepo.AdminStats(ctx)
}

func (s *statsService) Landlord(ctx context.Context, actor *domain.User) (*domain.LandlordStats, error) {
	if err := domain.Authorize(actor); err != nil {
		return nil, err
	}
	if !actor.IsLandlord() {
		return nil, domain.Forbidden("only landlords have a dashboard")
	}
	return s.statsRepo.LandlordStats(ctx, actor.ID)
}
