package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type RentalStatus string

const (
	RentalStatusPending   RentalStatus = "PENDING"
	RentalStatusApproved  RentalStatus = "APPROVED"
	RentalStatusPaid      RentalStatus = "PAID"
	RentalStatusActive    RentalStatus = "ACTIVE"
	RentalStatusCompleted RentalStatus = "COMPLETED"
	RentalStatusCancelled RentalStatus = "CANCELLED"
	RentalStatusRejected  RentalStatus = "REJECTED"
)

// IsTerminal reports whether no further transition is defined.
func (s RentalStatus) IsTerminal() bool {
	switch s {
	case RentalStatusCompleted, RentalStatusCancelled, RentalStatusRejected:
		return true
	}
	return false
}

func (s RentalStatus) Valid() bool {
	switch s {
	case RentalStatusPending, RentalStatusApproved, RentalStatusPaid, RentalStatusActive,
		RentalStatusCompleted, RentalStatusCancelled, RentalStatusRejected:
		return true
	}
	return false
}

// OpenRentalStatuses hold the equipment.
var OpenRentalStatuses = []RentalStatus{
	RentalStatusPending, RentalStatusApproved, RentalStatusPaid, RentalStatusActive,
}

type PaymentMethod string

const (
	PaymentMethodReceipt PaymentMethod = "RECEIPT"
	PaymentMethodCash    PaymentMethod = "CASH"
)

func (m PaymentMethod) Valid() bool {
	return m == PaymentMethodReceipt || m == PaymentMethodCash
}

type PaymentStatus string

const (
	PaymentStatusPending PaymentStatus = "PENDING"
	PaymentStatusPaid    PaymentStatus = "PAID"
)

type Rental struct {
	ID          int32  `json:"id" db:"id"`
	Reference   string `json:"reference" db:"reference"`
	EquipmentID int32  `json:"equipment_id" db:"equipment_id"`
	RenterID    int32  `json:"renter_id" db:"renter_id"`
	OwnerID     int32  `json:"owner_id" db:"owner_id"`

	StartDate time.Time `json:"start_date" db:"start_date"`
	EndDate   time.Time `json:"end_date" db:"end_date"`

	// Snapshot of the listing price at booking time.
	DailyRate   decimal.Decimal `json:"daily_rate" db:"daily_rate"`
	PricePeriod PricePeriod     `json:"price_period" db:"price_period"`
	TotalAmount decimal.Decimal `json:"total_amount" db:"total_amount"`

	Status        RentalStatus  `json:"status" db:"status"`
	PaymentMethod PaymentMethod `json:"payment_method" db:"payment_method"`
	PaymentStatus PaymentStatus `json:"payment_status" db:"payment_status"`

	PaymentReceiptURL      string            `json:"payment_receipt_url,omitempty" db:"payment_receipt_url"`
	PaymentReceiptStatus   *ModerationStatus `json:"payment_receipt_status,omitempty" db:"payment_receipt_status"`
	ReceiptRejectionReason string            `json:"receipt_rejection_reason,omitempty" db:"receipt_rejection_reason"`
	ReceiptValidatedBy     *int32            `json:"receipt_validated_by,omitempty" db:"receipt_validated_by"`
	ReceiptValidatedAt     *time.Time        `json:"receipt_validated_at,omitempty" db:"receipt_validated_at"`

	Notes              string `json:"notes,omitempty" db:"notes"`
	CancellationReason string `json:"cancellation_reason,omitempty" db:"cancellation_reason"`
	CancelledBy        *int32 `json:"cancelled_by,omitempty" db:"cancelled_by"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

func (r *Rental) IsParticipant(userID int32) bool {
	return r.RenterID == userID || r.OwnerID == userID
}

func (r *Rental) ReceiptStatus() ModerationStatus {
	if r.PaymentReceiptStatus == nil {
		return ""
	}
	return *r.PaymentReceiptStatus
}

type RentalFilter struct {
	RenterID      int32
	OwnerID       int32
	EquipmentID   int32
	Status        RentalStatus
	ReceiptStatus ModerationStatus
}
