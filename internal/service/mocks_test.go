package service_test

import (
	"context"
	"sync"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// MockUserRepo
type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockUserRepo) GetByID(ctx context.Context, id int32) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}
func (m *MockUserRepo) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockUserRepo) DecideAccountStatus(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
func (m *MockUserRepo) List(ctx context.Context, filter domain.UserFilter, page, pageSize int32) ([]domain.User, int32, error) {
	args := m.Called(ctx, filter, page, pageSize)
	return args.Get(0).([]domain.User), args.Get(1).(int32), args.Error(2)
}
func (m *MockUserRepo) ListIDsByRoles(ctx context.Context, roles []domain.Role) ([]int32, error) {
	args := m.Called(ctx, roles)
	return args.Get(0).([]int32), args.Error(1)
}
func (m *MockUserRepo) ListIDsByAudience(ctx context.Context, audience domain.BroadcastAudience) ([]int32, error) {
	args := m.Called(ctx, audience)
	return args.Get(0).([]int32), args.Error(1)
}
func (m *MockUserRepo) SoftDelete(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockUserRepo) Restore(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockEquipmentRepo
type MockEquipmentRepo struct {
	mock.Mock
}

func (m *MockEquipmentRepo) Create(ctx context.Context, eq *domain.Equipment) error {
	args := m.Called(ctx, eq)
	return args.Error(0)
}
func (m *MockEquipmentRepo) GetByID(ctx context.Context, id int32) (*domain.Equipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Equipment), args.Error(1)
}
func (m *MockEquipmentRepo) Update(ctx context.Context, eq *domain.Equipment) error {
	args := m.Called(ctx, eq)
	return args.Error(0)
}
func (m *MockEquipmentRepo) Moderate(ctx context.Context, eq *domain.Equipment) error {
	args := m.Called(ctx, eq)
	return args.Error(0)
}
func (m *MockEquipmentRepo) SetAvailability(ctx context.Context, id int32, available bool) error {
	args := m.Called(ctx, id, available)
	return args.Error(0)
}
func (m *MockEquipmentRepo) SoftDelete(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockEquipmentRepo) IncrementViews(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}
func (m *MockEquipmentRepo) Search(ctx context.Context, filter domain.EquipmentFilter, page, pageSize int32) ([]domain.Equipment, int32, error) {
	args := m.Called(ctx, filter, page, pageSize)
	return args.Get(0).([]domain.Equipment), args.Get(1).(int32), args.Error(2)
}
func (m *MockEquipmentRepo) ListByOwner(ctx context.Context, ownerID int32, page, pageSize int32) ([]domain.Equipment, int32, error) {
	args := m.Called(ctx, ownerID, page, pageSize)
	return args.Get(0).([]domain.Equipment), args.Get(1).(int32), args.Error(2)
}
func (m *MockEquipmentRepo) ListByModerationStatus(ctx context.Context, status domain.ModerationStatus, page, pageSize int32) ([]domain.Equipment, int32, error) {
	args := m.Called(ctx, status, page, pageSize)
	return args.Get(0).([]domain.Equipment), args.Get(1).(int32), args.Error(2)
}
func (m *MockEquipmentRepo) CountByCategory(ctx context.Context, categoryID int32) (int32, error) {
	args := m.Called(ctx, categoryID)
	return args.Get(0).(int32), args.Error(1)
}

// MockEquipmentEditRepo
type MockEquipmentEditRepo struct {
	mock.Mock
}

func (m *MockEquipmentEditRepo) Create(ctx context.Context, edit *domain.EquipmentEdit) error {
	args := m.Called(ctx, edit)
	return args.Error(0)
}
func (m *MockEquipmentEditRepo) GetByID(ctx context.Context, id int32) (*domain.EquipmentEdit, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EquipmentEdit), args.Error(1)
}
func (m *MockEquipmentEditRepo) HasPending(ctx context.Context, equipmentID int32) (bool, error) {
	args := m.Called(ctx, equipmentID)
	return args.Bool(0), args.Error(1)
}
func (m *MockEquipmentEditRepo) ListByStatus(ctx context.Context, status domain.ModerationStatus, page, pageSize int32) ([]domain.EquipmentEdit, int32, error) {
	args := m.Called(ctx, status, page, pageSize)
	return args.Get(0).([]domain.EquipmentEdit), args.Get(1).(int32), args.Error(2)
}
func (m *MockEquipmentEditRepo) ListBySubmitter(ctx context.Context, userID int32, page, pageSize int32) ([]domain.EquipmentEdit, int32, error) {
	args := m.Called(ctx, userID, page, pageSize)
	return args.Get(0).([]domain.EquipmentEdit), args.Get(1).(int32), args.Error(2)
}
func (m *MockEquipmentEditRepo) Approve(ctx context.Context, edit *domain.EquipmentEdit) (*domain.Equipment, error) {
	args := m.Called(ctx, edit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Equipment), args.Error(1)
}
func (m *MockEquipmentEditRepo) Reject(ctx context.Context, edit *domain.EquipmentEdit) error {
	args := m.Called(ctx, edit)
	return args.Error(0)
}

// MockRentalRepo
type MockRentalRepo struct {
	mock.Mock
}

func (m *MockRentalRepo) Create(ctx context.Context, rental *domain.Rental) error {
	args := m.Called(ctx, rental)
	return args.Error(0)
}
func (m *MockRentalRepo) GetByID(ctx context.Context, id int32) (*domain.Rental, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) Transition(ctx context.Context, rental *domain.Rental, from []domain.RentalStatus, releaseEquipment bool) error {
	args := m.Called(ctx, rental, from, releaseEquipment)
	return args.Error(0)
}
func (m *MockRentalRepo) AttachReceipt(ctx context.Context, rental *domain.Rental) error {
	args := m.Called(ctx, rental)
	return args.Error(0)
}
func (m *MockRentalRepo) DecideReceipt(ctx context.Context, rental *domain.Rental) error {
	args := m.Called(ctx, rental)
	return args.Error(0)
}
func (m *MockRentalRepo) List(ctx context.Context, filter domain.RentalFilter, page, pageSize int32) ([]domain.Rental, int32, error) {
	args := m.Called(ctx, filter, page, pageSize)
	return args.Get(0).([]domain.Rental), args.Get(1).(int32), args.Error(2)
}
func (m *MockRentalRepo) HasOpenForEquipment(ctx context.Context, equipmentID int32) (bool, error) {
	args := m.Called(ctx, equipmentID)
	return args.Bool(0), args.Error(1)
}
func (m *MockRentalRepo) ListStalePending(ctx context.Context, startedBefore time.Time) ([]domain.Rental, error) {
	args := m.Called(ctx, startedBefore)
	return args.Get(0).([]domain.Rental), args.Error(1)
}
func (m *MockRentalRepo) ListFinishedActive(ctx context.Context, endedBefore time.Time) ([]domain.Rental, error) {
	args := m.Called(ctx, endedBefore)
	return args.Get(0).([]domain.Rental), args.Error(1)
}

// MockCategoryRepo
type MockCategoryRepo struct {
	mock.Mock
}

func (m *MockCategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}
func (m *MockCategoryRepo) GetByID(ctx context.Context, id int32) (*domain.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Category), args.Error(1)
}
func (m *MockCategoryRepo) List(ctx context.Context, activeOnly bool) ([]domain.Category, error) {
	args := m.Called(ctx, activeOnly)
	return args.Get(0).([]domain.Category), args.Error(1)
}
func (m *MockCategoryRepo) Update(ctx context.Context, c *domain.Category) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}
func (m *MockCategoryRepo) Delete(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockNotificationRepo
type MockNotificationRepo struct {
	mock.Mock
}

func (m *MockNotificationRepo) Create(ctx context.Context, note *domain.Notification) error {
	args := m.Called(ctx, note)
	return args.Error(0)
}
func (m *MockNotificationRepo) CreateMany(ctx context.Context, notes []*domain.Notification) error {
	args := m.Called(ctx, notes)
	return args.Error(0)
}
func (m *MockNotificationRepo) List(ctx context.Context, userID int32, unreadOnly bool, page, pageSize int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, userID, unreadOnly, page, pageSize)
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}
func (m *MockNotificationRepo) CountUnread(ctx context.Context, userID int32) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockNotificationRepo) MarkAsRead(ctx context.Context, id, userID int32) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}
func (m *MockNotificationRepo) MarkAllAsRead(ctx context.Context, userID int32) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockNotificationRepo) Delete(ctx context.Context, id, userID int32) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}
func (m *MockNotificationRepo) DeleteReadBefore(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

// MockCartRepo
type MockCartRepo struct {
	mock.Mock
}

func (m *MockCartRepo) Upsert(ctx context.Context, item *domain.CartItem) (*domain.CartItem, error) {
	args := m.Called(ctx, item)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CartItem), args.Error(1)
}
func (m *MockCartRepo) GetByID(ctx context.Context, id int32) (*domain.CartItem, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CartItem), args.Error(1)
}
func (m *MockCartRepo) ListByUser(ctx context.Context, userID int32) ([]domain.CartItem, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.CartItem), args.Error(1)
}
func (m *MockCartRepo) Update(ctx context.Context, item *domain.CartItem) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}
func (m *MockCartRepo) Delete(ctx context.Context, id, userID int32) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}
func (m *MockCartRepo) Clear(ctx context.Context, userID int32) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockUploadRepo
type MockUploadRepo struct {
	mock.Mock
}

func (m *MockUploadRepo) Create(ctx context.Context, u *domain.Upload) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}
func (m *MockUploadRepo) GetByID(ctx context.Context, id int32) (*domain.Upload, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Upload), args.Error(1)
}
func (m *MockUploadRepo) Delete(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockReviewRepo
type MockReviewRepo struct {
	mock.Mock
}

func (m *MockReviewRepo) Create(ctx context.Context, r *domain.Review) error {
	args := m.Called(ctx, r)
	return args.Error(0)
}
func (m *MockReviewRepo) GetByID(ctx context.Context, id int32) (*domain.Review, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Review), args.Error(1)
}
func (m *MockReviewRepo) ExistsForRental(ctx context.Context, rentalID int32) (bool, error) {
	args := m.Called(ctx, rentalID)
	return args.Bool(0), args.Error(1)
}
func (m *MockReviewRepo) ListByEquipment(ctx context.Context, equipmentID int32, page, pageSize int32) ([]domain.Review, int32, error) {
	args := m.Called(ctx, equipmentID, page, pageSize)
	return args.Get(0).([]domain.Review), args.Get(1).(int32), args.Error(2)
}
func (m *MockReviewRepo) AverageRating(ctx context.Context, equipmentID int32) (float64, error) {
	args := m.Called(ctx, equipmentID)
	return args.Get(0).(float64), args.Error(1)
}
func (m *MockReviewRepo) Delete(ctx context.Context, id int32) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

// MockAddressRepo
type MockAddressRepo struct {
	mock.Mock
}

func (m *MockAddressRepo) Create(ctx context.Context, a *domain.Address) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}
func (m *MockAddressRepo) GetByID(ctx context.Context, id int32) (*domain.Address, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Address), args.Error(1)
}
func (m *MockAddressRepo) ListByUser(ctx context.Context, userID int32) ([]domain.Address, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]domain.Address), args.Error(1)
}
func (m *MockAddressRepo) Update(ctx context.Context, a *domain.Address) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}
func (m *MockAddressRepo) Delete(ctx context.Context, id, userID int32) error {
	args := m.Called(ctx, id, userID)
	return args.Error(0)
}
func (m *MockAddressRepo) SetDefault(ctx context.Context, userID, addressID int32) error {
	args := m.Called(ctx, userID, addressID)
	return args.Error(0)
}

// MockSystemConfigRepo
type MockSystemConfigRepo struct {
	mock.Mock
}

func (m *MockSystemConfigRepo) Get(ctx context.Context, key string) (*domain.SystemConfig, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SystemConfig), args.Error(1)
}
func (m *MockSystemConfigRepo) List(ctx context.Context) ([]domain.SystemConfig, error) {
	args := m.Called(ctx)
	return args.Get(0).([]domain.SystemConfig), args.Error(1)
}
func (m *MockSystemConfigRepo) Set(ctx context.Context, cfg *domain.SystemConfig) error {
	args := m.Called(ctx, cfg)
	return args.Error(0)
}

// MockNotificationService accepts every call unless told otherwise.
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) Notify(ctx context.Context, userID int32, in service.NotificationInput) (*domain.Notification, error) {
	args := m.Called(ctx, userID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}
func (m *MockNotificationService) NotifyUsers(ctx context.Context, userIDs []int32, in service.NotificationInput) error {
	args := m.Called(ctx, userIDs, in)
	return args.Error(0)
}
func (m *MockNotificationService) NotifyRoles(ctx context.Context, roles []domain.Role, in service.NotificationInput) error {
	args := m.Called(ctx, roles, in)
	return args.Error(0)
}
func (m *MockNotificationService) Broadcast(ctx context.Context, audience domain.BroadcastAudience, in service.NotificationInput) (int, error) {
	args := m.Called(ctx, audience, in)
	return args.Int(0), args.Error(1)
}
func (m *MockNotificationService) List(ctx context.Context, userID int32, unreadOnly bool, page, pageSize int32) ([]domain.Notification, int32, error) {
	args := m.Called(ctx, userID, unreadOnly, page, pageSize)
	return args.Get(0).([]domain.Notification), args.Get(1).(int32), args.Error(2)
}
func (m *MockNotificationService) UnreadCount(ctx context.Context, userID int32) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockNotificationService) MarkAsRead(ctx context.Context, userID, notificationID int32) error {
	args := m.Called(ctx, userID, notificationID)
	return args.Error(0)
}
func (m *MockNotificationService) MarkAllAsRead(ctx context.Context, userID int32) (int64, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(int64), args.Error(1)
}
func (m *MockNotificationService) Delete(ctx context.Context, userID, notificationID int32) error {
	args := m.Called(ctx, userID, notificationID)
	return args.Error(0)
}
func (m *MockNotificationService) PurgeRead(ctx context.Context, before time.Time) (int64, error) {
	args := m.Called(ctx, before)
	return args.Get(0).(int64), args.Error(1)
}

func newPermissiveNotifications() *MockNotificationService {
	m := new(MockNotificationService)
	m.On("Notify", mock.Anything, mock.Anything, mock.Anything).Return(&domain.Notification{}, nil)
	m.On("NotifyUsers", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	m.On("NotifyRoles", mock.Anything, mock.Anything, mock.Anything).Return(nil)
	return m
}

// MockEmailService
type MockEmailService struct {
	mock.Mock
}

func (m *MockEmailService) SendWelcome(ctx context.Context, to, name string, pendingValidation bool) error {
	args := m.Called(ctx, to, name, pendingValidation)
	return args.Error(0)
}
func (m *MockEmailService) SendAccountDecision(ctx context.Context, to, name string, approved bool, reason string) error {
	args := m.Called(ctx, to, name, approved, reason)
	return args.Error(0)
}
func (m *MockEmailService) SendListingDecision(ctx context.Context, to, name, title string, approved bool, reason string) error {
	args := m.Called(ctx, to, name, title, approved, reason)
	return args.Error(0)
}
func (m *MockEmailService) SendEditDecision(ctx context.Context, to, name, title string, approved bool, reason string) error {
	args := m.Called(ctx, to, name, title, approved, reason)
	return args.Error(0)
}
func (m *MockEmailService) SendRentalRequest(ctx context.Context, to, ownerName, renterName, title, reference string, total decimal.Decimal) error {
	args := m.Called(ctx, to, ownerName, renterName, title, reference, total)
	return args.Error(0)
}
func (m *MockEmailService) SendRentalStatus(ctx context.Context, to, name, title, reference string, status domain.RentalStatus, note string) error {
	args := m.Called(ctx, to, name, title, reference, status, note)
	return args.Error(0)
}
func (m *MockEmailService) SendReceiptDecision(ctx context.Context, to, name, reference string, approved bool, reason string) error {
	args := m.Called(ctx, to, name, reference, approved, reason)
	return args.Error(0)
}

func newPermissiveEmail() *MockEmailService {
	m := new(MockEmailService)
	for _, method := range []struct {
		name  string
		nargs int
	}{
		{"SendWelcome", 4},
		{"SendAccountDecision", 5},
		{"SendListingDecision", 6},
		{"SendEditDecision", 6},
		{"SendRentalRequest", 7},
		{"SendRentalStatus", 7},
		{"SendReceiptDecision", 6},
	} {
		args := make([]any, method.nargs)
		for i := range args {
			args[i] = mock.Anything
		}
		m.On(method.name, args...).Return(nil)
	}
	return m
}

// staticSettings serves system settings from a map.
type staticSettings map[string]int

func (s staticSettings) List(context.Context, *domain.User) ([]domain.SystemConfig, error) {
	return nil, nil
}
func (s staticSettings) Get(context.Context, *domain.User, string) (*domain.SystemConfig, error) {
	return nil, domain.NotFound("setting not found")
}
func (s staticSettings) Set(context.Context, *domain.User, string, string, string) (*domain.SystemConfig, error) {
	return nil, nil
}
func (s staticSettings) GetInt(_ context.Context, key string, fallback int) int {
	if v, ok := s[key]; ok {
		return v
	}
	return fallback
}

type fixedReferences struct{}

func (fixedReferences) Next() string { return "RNT-TEST" }

type pushed struct {
	Target string
	UserID int32
	Event  string
	Data   any
}

// recordingRealtime captures pushes for assertions.
type recordingRealtime struct {
	mu     sync.Mutex
	pushes []pushed
}

func (r *recordingRealtime) add(p pushed) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pushes = append(r.pushes, p)
}

func (r *recordingRealtime) PushToUser(userID int32, event string, data any) {
	r.add(pushed{Target: "user", UserID: userID, Event: event, Data: data})
}
func (r *recordingRealtime) PushToUsers(userIDs []int32, event string, data any) {
	for _, id := range userIDs {
		r.add(pushed{Target: "users", UserID: id, Event: event, Data: data})
	}
}
func (r *recordingRealtime) PushToRoom(room string, event string, data any) {
	r.add(pushed{Target: room, Event: event, Data: data})
}
func (r *recordingRealtime) Broadcast(event string, data any) {
	r.add(pushed{Target: "all", Event: event, Data: data})
}

func (r *recordingRealtime) events() []pushed {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]pushed(nil), r.pushes...)
}

func approvedUser(id int32, userType domain.UserType, role domain.Role) *domain.User {
	return &domain.User{
		ID:            id,
		Email:         "user" + string(rune('a'+id%26)) + "@example.com",
		FullName:      "User",
		UserType:      userType,
		Role:          role,
		AccountStatus: domain.AccountStatusApproved,
	}
}
