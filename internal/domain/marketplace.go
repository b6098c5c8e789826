package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Favorite struct {
	ID          int32     `json:"id" db:"id"`
	UserID      int32     `json:"user_id" db:"user_id"`
	EquipmentID int32     `json:"equipment_id" db:"equipment_id"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type CartItem struct {
	ID          int32     `json:"id" db:"id"`
	UserID      int32     `json:"user_id" db:"user_id"`
	EquipmentID int32     `json:"equipment_id" db:"equipment_id"`
	StartDate   time.Time `json:"start_date" db:"start_date"`
	EndDate     time.Time `json:"end_date" db:"end_date"`
	Notes       string    `json:"notes,omitempty" db:"notes"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`

	Estimate *decimal.Decimal `json:"estimate,omitempty" db:"-"`
}

type Review struct {
	ID          int32     `json:"id" db:"id"`
	RentalID    int32     `json:"rental_id" db:"rental_id"`
	EquipmentID int32     `json:"equipment_id" db:"equipment_id"`
	AuthorID    int32     `json:"author_id" db:"author_id"`
	Rating      int16     `json:"rating" db:"rating"`
	Comment     string    `json:"comment" db:"comment"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

type ReportTarget string

const (
	ReportTargetEquipment ReportTarget = "EQUIPMENT"
	ReportTargetUser      ReportTarget = "USER"
	ReportTargetReview    ReportTarget = "REVIEW"
	ReportTargetMessage   ReportTarget = "MESSAGE"
)

func (t ReportTarget) Valid() bool {
	switch t {
	case ReportTargetEquipment, ReportTargetUser, ReportTargetReview, ReportTargetMessage:
		return true
	}
	return false
}

type ReportStatus string

const (
	ReportStatusOpen      ReportStatus = "OPEN"
	ReportStatusResolved  ReportStatus = "RESOLVED"
	ReportStatusDismissed ReportStatus = "DISMISSED"
)

type Report struct {
	ID             int32        `json:"id" db:"id"`
	ReporterID     int32        `json:"reporter_id" db:"reporter_id"`
	TargetType     ReportTarget `json:"target_type" db:"target_type"`
	TargetID       int32        `json:"target_id" db:"target_id"`
	Reason         string       `json:"reason" db:"reason"`
	Details        string       `json:"details,omitempty" db:"details"`
	Status         ReportStatus `json:"status" db:"status"`
	ResolvedBy     *int32       `json:"resolved_by,omitempty" db:"resolved_by"`
	ResolvedAt     *time.Time   `json:"resolved_at,omitempty" db:"resolved_at"`
	ResolutionNote string       `json:"resolution_note,omitempty" db:"resolution_note"`
	CreatedAt      time.Time    `json:"created_at" db:"created_at"`
}

type UploadPurpose string

const (
	UploadPurposeEquipmentImage UploadPurpose = "EQUIPMENT_IMAGE"
	UploadPurposePaymentReceipt UploadPurpose = "PAYMENT_RECEIPT"
	UploadPurposeDocument       UploadPurpose = "DOCUMENT"
)

func (p UploadPurpose) Valid() bool {
	switch p {
	case UploadPurposeEquipmentImage, UploadPurposePaymentReceipt, UploadPurposeDocument:
		return true
	}
	return false
}

type Upload struct {
	ID          int32         `json:"id" db:"id"`
	UserID      int32         `json:"user_id" db:"user_id"`
	Purpose     UploadPurpose `json:"purpose" db:"purpose"`
	StorageKey  string        `json:"-" db:"storage_key"`
	FileName    string        `json:"file_name" db:"file_name"`
	ContentType string        `json:"content_type" db:"content_type"`
	Size        int64         `json:"size" db:"size"`
	URL         string        `json:"url" db:"url"`
	CreatedAt   time.Time     `json:"created_at" db:"created_at"`
}

type SystemConfig struct {
	Key         string    `json:"key" db:"key"`
	Value       string    `json:"value" db:"value"`
	Description string    `json:"description,omitempty" db:"description"`
	UpdatedBy   *int32    `json:"updated_by,omitempty" db:"updated_by"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// Well-known system configuration keys.
const (
	ConfigKeyMaxRentalDays = "rental.max_days"
)

type BankInfo struct {
	ID            int32     `json:"id" db:"id"`
	BankName      string    `json:"bank_name" db:"bank_name"`
	AccountHolder string    `json:"account_holder" db:"account_holder"`
	AccountNumber string    `json:"account_number" db:"account_number"`
	IBAN          string    `json:"iban" db:"iban"`
	Instructions  string    `json:"instructions,omitempty" db:"instructions"`
	IsActive      bool      `json:"is_active" db:"is_active"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

type Content struct {
	ID          int32     `json:"id" db:"id"`
	Slug        string    `json:"slug" db:"slug"`
	Title       string    `json:"title" db:"title"`
	Body        string    `json:"body" db:"body"`
	IsPublished bool      `json:"is_published" db:"is_published"`
	UpdatedBy   *int32    `json:"updated_by,omitempty" db:"updated_by"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

type Address struct {
	ID         int32     `json:"id" db:"id"`
	UserID     int32     `json:"user_id" db:"user_id"`
	Label      string    `json:"label" db:"label"`
	Street     string    `json:"street" db:"street"`
	City       string    `json:"city" db:"city"`
	Province   string    `json:"province" db:"province"`
	PostalCode string    `json:"postal_code" db:"postal_code"`
	Latitude   *float64  `json:"latitude,omitempty" db:"latitude"`
	Longitude  *float64  `json:"longitude,omitempty" db:"longitude"`
	IsDefault  bool      `json:"is_default" db:"is_default"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}
