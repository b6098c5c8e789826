package repository

import (
	"context"
	"time"

	"equiprent-backend/internal/domain"
)

// List methods take a 1-based page and a page size and return the page plus the
// total row count. A page size <= 0 returns every matching row.

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id int32) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	// DecideAccountStatus moves a PENDING account to user.AccountStatus with its
	// approval/rejection stamps. It fails with a Forbidden error when the account
	// is no longer pending.
	DecideAccountStatus(ctx context.Context, user *domain.User) error
	List(ctx context.Context, filter domain.UserFilter, page, pageSize int32) ([]domain.User, int32, error)
	ListIDsByRoles(ctx context.Context, roles []domain.Role) ([]int32, error)
	ListIDsByAudience(ctx context.Context, audience domain.BroadcastAudience) ([]int32, error)
	SoftDelete(ctx context.Context, id int32) error
	Restore(ctx context.Context, id int32) error
}

type EquipmentRepository interface {
	Create(ctx context.Context, eq *domain.Equipment) error
	GetByID(ctx context.Context, id int32) (*domain.Equipment, error)
	Update(ctx context.Context, eq *domain.Equipment) error
	// Moderate records a decision on a PENDING listing; BadRequest when it is
	// no longer pending.
	Moderate(ctx context.Context, eq *domain.Equipment) error
	SetAvailability(ctx context.Context, id int32, available bool) error
	SoftDelete(ctx context.Context, id int32) error
	IncrementViews(ctx context.Context, id int32) error
	Search(ctx context.Context, filter domain.EquipmentFilter, page, pageSize int32) ([]domain.Equipment, int32, error)
	ListByOwner(ctx context.Context, ownerID int32, page, pageSize int32) ([]domain.Equipment, int32, error)
	ListByModerationStatus(ctx context.Context, status domain.ModerationStatus, page, pageSize int32) ([]domain.Equipment, int32, error)
	CountByCategory(ctx context.Context, categoryID int32) (int32, error)
}

type EquipmentEditRepository interface {
	// Create fails with a Conflict error when a pending edit already exists.
	Create(ctx context.Context, edit *domain.EquipmentEdit) error
	GetByID(ctx context.Context, id int32) (*domain.EquipmentEdit, error)
	HasPending(ctx context.Context, equipmentID int32) (bool, error)
	ListByStatus(ctx context.Context, status domain.ModerationStatus, page, pageSize int32) ([]domain.EquipmentEdit, int32, error)
	ListBySubmitter(ctx context.Context, userID int32, page, pageSize int32) ([]domain.EquipmentEdit, int32, error)
	// Approve marks the edit approved and writes merged in one transaction.
	// Approve decides the edit and returns the equipment with the edit merged in.
	Approve(ctx context.Context, edit *domain.EquipmentEdit) (*domain.Equipment, error)
	Reject(ctx context.Context, edit *domain.EquipmentEdit) error
}

type RentalRepository interface {
	// Create reserves the equipment and inserts the rental atomically.
	Create(ctx context.Context, rental *domain.Rental) error
	GetByID(ctx context.Context, id int32) (*domain.Rental, error)
	// Transition moves the rental to rental.Status when its current status is one
	// of from, optionally making the equipment available again.
	Transition(ctx context.Context, rental *domain.Rental, from []domain.RentalStatus, releaseEquipment bool) error
	AttachReceipt(ctx context.Context, rental *domain.Rental) error
	// DecideReceipt stores a moderator decision on a PENDING receipt.
	DecideReceipt(ctx context.Context, rental *domain.Rental) error
	List(ctx context.Context, filter domain.RentalFilter, page, pageSize int32) ([]domain.Rental, int32, error)
	HasOpenForEquipment(ctx context.Context, equipmentID int32) (bool, error)
	ListStalePending(ctx context.Context, startedBefore time.Time) ([]domain.Rental, error)
	ListFinishedActive(ctx context.Context, endedBefore time.Time) ([]domain.Rental, error)
}

type CategoryRepository interface {
	Create(ctx context.Context, c *domain.Category) error
	GetByID(ctx context.Context, id int32) (*domain.Category, error)
	List(ctx context.Context, activeOnly bool) ([]domain.Category, error)
	Update(ctx context.Context, c *domain.Category) error
	Delete(ctx context.Context, id int32) error
}

// AddressRepository keeps exactly one default address per user that has any.
type AddressRepository interface {
	Create(ctx context.Context, a *domain.Address) error
	GetByID(ctx context.Context, id int32) (*domain.Address, error)
	ListByUser(ctx context.Context, userID int32) ([]domain.Address, error)
	Update(ctx context.Context, a *domain.Address) error
	Delete(ctx context.Context, id, userID int32) error
	// SetDefault flags one address as default and clears the others.
	SetDefault(ctx context.Context, userID, addressID int32) error
}

type ChatRepository interface {
	// GetOrCreate returns the chat for the ordered participant pair and listing.
	GetOrCreate(ctx context.Context, chat *domain.Chat) (*domain.Chat, error)
	GetByID(ctx context.Context, id int32) (*domain.Chat, error)
	ListByUser(ctx context.Context, userID int32, page, pageSize int32) ([]domain.ChatSummary, int32, error)
	CreateMessage(ctx context.Context, msg *domain.Message) error
	ListMessages(ctx context.Context, chatID int32, page, pageSize int32) ([]domain.Message, int32, error)
	MarkRead(ctx context.Context, chatID, readerID int32) (int64, error)
}

type NotificationRepository interface {
	Create(ctx context.Context, note *domain.Notification) error
	CreateMany(ctx context.Context, notes []*domain.Notification) error
	List(ctx context.Context, userID int32, unreadOnly bool, page, pageSize int32) ([]domain.Notification, int32, error)
	CountUnread(ctx context.Context, userID int32) (int64, error)
	MarkAsRead(ctx context.Context, id, userID int32) error
	MarkAllAsRead(ctx context.Context, userID int32) (int64, error)
	Delete(ctx context.Context, id, userID int32) error
	DeleteReadBefore(ctx context.Context, before time.Time) (int64, error)
}

type FavoriteRepository interface {
	// Add is idempotent and returns the stored row.
	Add(ctx context.Context, userID, equipmentID int32) (*domain.Favorite, error)
	Remove(ctx context.Context, userID, equipmentID int32) error
	Exists(ctx context.Context, userID, equipmentID int32) (bool, error)
	ListByUser(ctx context.Context, userID int32, page, pageSize int32) ([]domain.Equipment, int32, error)
}

type CartRepository interface {
	// Upsert inserts the item or refreshes the dates of the existing one.
	Upsert(ctx context.Context, item *domain.CartItem) (*domain.CartItem, error)
	GetByID(ctx context.Context, id int32) (*domain.CartItem, error)
	ListByUser(ctx context.Context, userID int32) ([]domain.CartItem, error)
	Update(ctx context.Context, item *domain.CartItem) error
	Delete(ctx context.Context, id, userID int32) error
	Clear(ctx context.Context, userID int32) error
}

type ReviewRepository interface {
	Create(ctx context.Context, r *domain.Review) error
	GetByID(ctx context.Context, id int32) (*domain.Review, error)
	ExistsForRental(ctx context.Context, rentalID int32) (bool, error)
	ListByEquipment(ctx context.Context, equipmentID int32, page, pageSize int32) ([]domain.Review, int32, error)
	AverageRating(ctx context.Context, equipmentID int32) (float64, error)
	Delete(ctx context.Context, id int32) error
}

type ReportRepository interface {
	Create(ctx context.Context, r *domain.Report) error
	GetByID(ctx context.Context, id int32) (*domain.Report, error)
	ListByStatus(ctx context.Context, status domain.ReportStatus, page, pageSize int32) ([]domain.Report, int32, error)
	// Resolve closes an OPEN report; BadRequest when already closed.
	Resolve(ctx context.Context, r *domain.Report) error
}

type UploadRepository interface {
	Create(ctx context.Context, u *domain.Upload) error
	GetByID(ctx context.Context, id int32) (*domain.Upload, error)
	Delete(ctx context.Context, id int32) error
}

type SystemConfigRepository interface {
	Get(ctx context.Context, key string) (*domain.SystemConfig, error)
	List(ctx context.Context) ([]domain.SystemConfig, error)
	Set(ctx context.Context, cfg *domain.SystemConfig) error
}

type BankInfoRepository interface {
	Create(ctx context.Context, b *domain.BankInfo) error
	GetByID(ctx context.Context, id int32) (*domain.BankInfo, error)
	List(ctx context.Context, activeOnly bool) ([]domain.BankInfo, error)
	Update(ctx context.Context, b *domain.BankInfo) error
	Delete(ctx context.Context, id int32) error
}

type ContentRepository interface {
	GetBySlug(ctx context.Context, slug string) (*domain.Content, error)
	List(ctx context.Context, includeDrafts bool) ([]domain.Content, error)
	Upsert(ctx context.Context, c *domain.Content) error
	Delete(ctx context.Context, slug string) error
}

type StatsRepository interface {
	AdminStats(ctx context.Context) (*domain.AdminStats, error)
	LandlordStats(ctx context.Context, ownerID int32) (*domain.LandlordStats, error)
	ModerationStats(ctx context.Context) (*domain.ModerationStats, error)
}

// UnreadCounter caches per-user unread notification counts.
type UnreadCounter interface {
	Get(ctx context.Context, userID int32) (int64, bool, error)
	Set(ctx context.Context, userID int32, count int64) error
	Invalidate(ctx context.Context, userIDs ...int32) error
}

