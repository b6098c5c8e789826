package service

import (
	"context"
	"io"
	"time"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/security"

	"github.com/shopspring/decimal"
)

// Realtime pushes events to connected websocket clients. Delivery is best
// effort: offline users simply miss the push.
type Realtime interface {
	PushToUser(userID int32, event string, data any)
	PushToUsers(userIDs []int32, event string, data any)
	PushToRoom(room string, event string, data any)
	Broadcast(event string, data any)
}

// Realtime event names shared with the websocket gateways.
const (
	EventConnected             = "connected"
	EventNewNotification       = "new_notification"
	EventBroadcastNotification = "broadcast_notification"
	EventUnreadCount           = "unread_count"
	EventNewMessage            = "newMessage"
	EventError                 = "error"
)

// ChatRoom is the realtime room of a chat.
func ChatRoom(chatID int32) string {
	return "chat:" + itoa(chatID)
}

type RegisterInput struct {
	Email        string          `json:"email"`
	Password     string          `json:"password"`
	FullName     string          `json:"full_name"`
	Phone        string          `json:"phone"`
	UserType     domain.UserType `json:"user_type"`
	IsCompany    bool            `json:"is_company"`
	CompanyName  string          `json:"company_name"`
	CompanyTaxID string          `json:"company_tax_id"`
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*domain.User, *TokenPair, error)
	Login(ctx context.Context, email, password string) (*domain.User, *TokenPair, error)
	// Authenticate validates a token of the wanted type and reloads its user.
	Authenticate(ctx context.Context, token string, want security.TokenType) (*domain.User, error)
	IssueTokens(user *domain.User) (*TokenPair, error)
}

type ProfileInput struct {
	FullName     *string `json:"full_name"`
	Phone        *string `json:"phone"`
	CompanyName  *string `json:"company_name"`
	CompanyTaxID *string `json:"company_tax_id"`
}

type UserService interface {
	GetProfile(ctx context.Context, userID int32) (*domain.User, error)
	UpdateProfile(ctx context.Context, userID int32, in ProfileInput) (*domain.User, error)
	ChangePassword(ctx context.Context, userID int32, oldPassword, newPassword string) error
	SetProfilePicture(ctx context.Context, userID int32, dataURI string) (*domain.User, error)
	UploadBIDocument(ctx context.Context, userID int32, dataURI string) (*domain.User, error)
	UploadCompanyDocuments(ctx context.Context, userID int32, dataURI string) (*domain.User, error)
	DeleteAccount(ctx context.Context, userID int32) error
}

type BroadcastInput struct {
	Title    string                   `json:"title"`
	Message  string                   `json:"message"`
	Level    domain.NotificationLevel `json:"level"`
	Audience domain.BroadcastAudience `json:"audience"`
}

type AdminService interface {
	ListUsers(ctx context.Context, actor *domain.User, filter domain.UserFilter, page, pageSize int32) ([]domain.User, int32, error)
	GetUser(ctx context.Context, actor *domain.User, userID int32) (*domain.User, error)
	ListPendingLandlords(ctx context.Context, actor *domain.User, page, pageSize int32) ([]domain.User, int32, error)
	ValidateLandlord(ctx context.Context, actor *domain.User, landlordID int32, status domain.AccountStatus, reason string) (*domain.User, error)
	ValidateBIDocument(ctx context.Context, actor *domain.User, userID int32, valid bool) (*domain.User, error)
	ChangeUserRole(ctx context.Context, actor *domain.User, userID int32, role domain.Role) (*domain.User, error)
	DeleteUser(ctx context.Context, actor *domain.User, userID int32) error
	RestoreUser(ctx context.Context, actor *domain.User, userID int32) error
	ValidatePaymentReceipt(ctx context.Context, actor *domain.User, rentalID int32, approve bool, reason string) (*domain.Rental, error)
	BroadcastNotification(ctx context.Context, actor *domain.User, in BroadcastInput) (int, error)
}

type EquipmentInput struct {
	CategoryID  int32              `json:"category_id"`
	Title       string             `json:"title"`
	Description string             `json:"description"`
	DailyRate   decimal.Decimal    `json:"daily_rate"`
	PricePeriod domain.PricePeriod `json:"price_period"`
	Condition   string             `json:"condition"`
	Images      []string           `json:"images"`
	Province    string             `json:"province"`
	City        string             `json:"city"`
	Address     string             `json:"address"`
	Latitude    *float64           `json:"latitude"`
	Longitude   *float64           `json:"longitude"`
}

type EquipmentService interface {
	Create(ctx context.Context, actor *domain.User, in EquipmentInput) (*domain.Equipment, error)
	// Get returns a listing; viewer may be nil for anonymous browsing.
	Get(ctx context.Context, viewer *domain.User, id int32) (*domain.Equipment, error)
	Search(ctx context.Context, filter domain.EquipmentFilter, page, pageSize int32) ([]domain.Equipment, int32, error)
	ListMine(ctx context.Context, actor *domain.User, page, pageSize int32) ([]domain.Equipment, int32, error)
	// Update changes a listing still awaiting moderation. Approved listings go
	// through EquipmentEditService.
	Update(ctx context.Context, actor *domain.User, id int32, patch *domain.EquipmentEdit) (*domain.Equipment, error)
	SetAvailability(ctx context.Context, actor *domain.User, id int32, available bool) (*domain.Equipment, error)
	Delete(ctx context.Context, actor *domain.User, id int32) error
}

type ModerationService interface {
	ListPending(ctx context.Context, actor *domain.User, page, pageSize int32) ([]domain.Equipment, int32, error)
	Approve(ctx context.Context, actor *domain.User, equipmentID int32) (*domain.Equipment, error)
	Reject(ctx context.Context, actor *domain.User, equipmentID int32, reason string) (*domain.Equipment, error)
	Stats(ctx context.Context, actor *domain.User) (*domain.ModerationStats, error)
}

type EquipmentEditService interface {
	Submit(ctx context.Context, actor *domain.User, equipmentID int32, diff *domain.EquipmentEdit) (*domain.EquipmentEdit, error)
	Get(ctx context.Context, actor *domain.User, id int32) (*domain.EquipmentEdit, error)
	ListMine(ctx context.Context, actor *domain.User, page, pageSize int32) ([]domain.EquipmentEdit, int32, error)
	ListPending(ctx context.Context, actor *domain.User, page, pageSize int32) ([]domain.EquipmentEdit, int32, error)
	Approve(ctx context.Context, actor *domain.User, id int32) (*domain.EquipmentEdit, *domain.Equipment, error)
	Reject(ctx context.Context, actor *domain.User, id int32, reason string) (*domain.EquipmentEdit, error)
}

type CreateRentalInput struct {
	EquipmentID   int32                `json:"equipment_id"`
	StartDate     time.Time            `json:"start_date"`
	EndDate       time.Time            `json:"end_date"`
	PaymentMethod domain.PaymentMethod `json:"payment_method"`
	TotalAmount   *decimal.Decimal     `json:"total_amount"`
	Notes         string               `json:"notes"`
}

type RentalService interface {
	Create(ctx context.Context, actor *domain.User, in CreateRentalInput) (*domain.Rental, error)
	Get(ctx context.Context, actor *domain.User, id int32) (*domain.Rental, error)
	// ListMine lists the actor's bookings, or its incoming requests when asOwner.
	ListMine(ctx context.Context, actor *domain.User, asOwner bool, status domain.RentalStatus, page, pageSize int32) ([]domain.Rental, int32, error)
	ListAll(ctx context.Context, actor *domain.User, filter domain.RentalFilter, page, pageSize int32) ([]domain.Rental, int32, error)
	ListPendingReceipts(ctx context.Context, actor *domain.User, page, pageSize int32) ([]domain.Rental, int32, error)

	Approve(ctx context.Context, actor *domain.User, id int32) (*domain.Rental, error)
	Reject(ctx context.Context, actor *domain.User, id int32, reason string) (*domain.Rental, error)
	Cancel(ctx context.Context, actor *domain.User, id int32, reason string) (*domain.Rental, error)
	Activate(ctx context.Context, actor *domain.User, id int32) (*domain.Rental, error)
	Complete(ctx context.Context, actor *domain.User, id int32) (*domain.Rental, error)

	UploadPaymentReceipt(ctx context.Context, actor *domain.User, id int32, uploadID int32) (*domain.Rental, error)
	ValidatePaymentReceipt(ctx context.Context, actor *domain.User, id int32, approve bool, reason string) (*domain.Rental, error)

	ExpireStale(ctx context.Context, now time.Time) (int, error)
	CompleteFinished(ctx context.Context, now time.Time) (int, error)
}

type NotificationInput struct {
	Type    domain.NotificationType
	Level   domain.NotificationLevel
	Title   string
	Message string
	Data    map[string]any
}

type NotificationService interface {
	Notify(ctx context.Context, userID int32, in NotificationInput) (*domain.Notification, error)
	NotifyUsers(ctx context.Context, userIDs []int32, in NotificationInput) error
	// NotifyRoles notifies every approved user holding exactly one of roles.
	NotifyRoles(ctx context.Context, roles []domain.Role, in NotificationInput) error
	Broadcast(ctx context.Context, audience domain.BroadcastAudience, in NotificationInput) (int, error)

	List(ctx context.Context, userID int32, unreadOnly bool, page, pageSize int32) ([]domain.Notification, int32, error)
	UnreadCount(ctx context.Context, userID int32) (int64, error)
	MarkAsRead(ctx context.Context, userID, notificationID int32) error
	MarkAllAsRead(ctx context.Context, userID int32) (int64, error)
	Delete(ctx context.Context, userID, notificationID int32) error
	PurgeRead(ctx context.Context, before time.Time) (int64, error)
}

type ChatService interface {
	Open(ctx context.Context, actor *domain.User, otherUserID int32, equipmentID *int32) (*domain.Chat, error)
	// Join checks the actor may follow the chat's realtime room.
	Join(ctx context.Context, actor *domain.User, chatID int32) (*domain.Chat, error)
	ListChats(ctx context.Context, actor *domain.User, page, pageSize int32) ([]domain.ChatSummary, int32, error)
	ListMessages(ctx context.Context, actor *domain.User, chatID int32, page, pageSize int32) ([]domain.Message, int32, error)
	SendMessage(ctx context.Context, actor *domain.User, chatID int32, content string) (*domain.Message, error)
	MarkRead(ctx context.Context, actor *domain.User, chatID int32) (int64, error)
}

type FavoriteService interface {
	Add(ctx context.Context, actor *domain.User, equipmentID int32) (*domain.Favorite, error)
	Remove(ctx context.Context, actor *domain.User, equipmentID int32) error
	IsFavorite(ctx context.Context, actor *domain.User, equipmentID int32) (bool, error)
	List(ctx context.Context, actor *domain.User, page, pageSize int32) ([]domain.Equipment, int32, error)
}

type CartItemInput struct {
	EquipmentID int32     `json:"equipment_id"`
	StartDate   time.Time `json:"start_date"`
	EndDate     time.Time `json:"end_date"`
	Notes       string    `json:"notes"`
}

type CheckoutFailure struct {
	CartItemID  int32  `json:"cart_item_id"`
	EquipmentID int32  `json:"equipment_id"`
	Error       string `json:"error"`
}

type CheckoutResult struct {
	Rentals  []*domain.Rental  `json:"rentals"`
	Failures []CheckoutFailure `json:"failures"`
}

type CartService interface {
	AddItem(ctx context.Context, actor *domain.User, in CartItemInput) (*domain.CartItem, error)
	UpdateItem(ctx context.Context, actor *domain.User, itemID int32, in CartItemInput) (*domain.CartItem, error)
	RemoveItem(ctx context.Context, actor *domain.User, itemID int32) error
	List(ctx context.Context, actor *domain.User) ([]domain.CartItem, error)
	Clear(ctx context.Context, actor *domain.User) error
	Checkout(ctx context.Context, actor *domain.User, method domain.PaymentMethod) (*CheckoutResult, error)
}

type CategoryService interface {
	// List shows inactive categories to admins only.
	List(ctx context.Context, viewer *domain.User) ([]domain.Category, error)
	Get(ctx context.Context, id int32) (*domain.Category, error)
	Create(ctx context.Context, actor *domain.User, c *domain.Category) (*domain.Category, error)
	Update(ctx context.Context, actor *domain.User, id int32, c *domain.Category) (*domain.Category, error)
	Delete(ctx context.Context, actor *domain.User, id int32) error
}

type ContentService interface {
	Get(ctx context.Context, viewer *domain.User, slug string) (*domain.Content, error)
	List(ctx context.Context, viewer *domain.User) ([]domain.Content, error)
	Upsert(ctx context.Context, actor *domain.User, c *domain.Content) (*domain.Content, error)
	Delete(ctx context.Context, actor *domain.User, slug string) error
}

type AddressService interface {
	List(ctx context.Context, actor *domain.User) ([]domain.Address, error)
	Create(ctx context.Context, actor *domain.User, a *domain.Address) (*domain.Address, error)
	Update(ctx context.Context, actor *domain.User, id int32, a *domain.Address) (*domain.Address, error)
	Delete(ctx context.Context, actor *domain.User, id int32) error
	SetDefault(ctx context.Context, actor *domain.User, id int32) error
}

type BankInfoService interface {
	ListActive(ctx context.Context) ([]domain.BankInfo, error)
	ListAll(ctx context.Context, actor *domain.User) ([]domain.BankInfo, error)
	Create(ctx context.Context, actor *domain.User, b *domain.BankInfo) (*domain.BankInfo, error)
	Update(ctx context.Context, actor *domain.User, id int32, b *domain.BankInfo) (*domain.BankInfo, error)
	Delete(ctx context.Context, actor *domain.User, id int32) error
}

type UploadInput struct {
	Purpose     domain.UploadPurpose
	FileName    string
	ContentType string
	Size        int64
	Body        io.Reader
}

type UploadService interface {
	Upload(ctx context.Context, actor *domain.User, in UploadInput) (*domain.Upload, error)
	Get(ctx context.Context, actor *domain.User, id int32) (*domain.Upload, error)
	Delete(ctx context.Context, actor *domain.User, id int32) error
}

type ReviewService interface {
	Create(ctx context.Context, actor *domain.User, rentalID int32, rating int16, comment string) (*domain.Review, error)
	ListByEquipment(ctx context.Context, equipmentID int32, page, pageSize int32) ([]domain.Review, int32, float64, error)
	Delete(ctx context.Context, actor *domain.User, id int32) error
}

type ReportService interface {
	Create(ctx context.Context, actor *domain.User, r *domain.Report) (*domain.Report, error)
	List(ctx context.Context, actor *domain.User, status domain.ReportStatus, page, pageSize int32) ([]domain.Report, int32, error)
	Resolve(ctx context.Context, actor *domain.User, id int32, status domain.ReportStatus, note string) (*domain.Report, error)
}

type SystemConfigService interface {
	List(ctx context.Context, actor *domain.User) ([]domain.SystemConfig, error)
	Get(ctx context.Context, actor *domain.User, key string) (*domain.SystemConfig, error)
	Set(ctx context.Context, actor *domain.User, key, value, description string) (*domain.SystemConfig, error)
	// GetInt reads an integer setting, returning fallback when unset or malformed.
	GetInt(ctx context.Context, key string, fallback int) int
}

type StatsService interface {
	Admin(ctx context.Context, actor *domain.User) (*domain.AdminStats, error)
	Landlord(ctx context.Context, actor *domain.User) (*domain.LandlordStats, error)
}

type EmailService interface {
	SendWelcome(ctx context.Context, to, name string, pendingValidation bool) error
	SendAccountDecision(ctx context.Context, to, name string, approved bool, reason string) error
	SendListingDecision(ctx context.Context, to, name, title string, approved bool, reason string) error
	SendEditDecision(ctx context.Context, to, name, title string, approved bool, reason string) error
	SendRentalRequest(ctx context.Context, to, ownerName, renterName, title, reference string, total decimal.Decimal) error
	SendRentalStatus(ctx context.Context, to, name, title, reference string, status domain.RentalStatus, note string) error
	SendReceiptDecision(ctx context.Context, to, name, reference string, approved bool, reason string) error
}
