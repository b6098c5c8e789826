package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type PricePeriod string

const (
	PricePeriodHourly  PricePeriod = "HOURLY"
	PricePeriodDaily   PricePeriod = "DAILY"
	PricePeriodWeekly  PricePeriod = "WEEKLY"
	PricePeriodMonthly PricePeriod = "MONTHLY"
)

func (p PricePeriod) Valid() bool {
	switch p {
	case PricePeriodHourly, PricePeriodDaily, PricePeriodWeekly, PricePeriodMonthly:
		return true
	}
	return false
}

// ModerationStatus is shared by every item that goes through staff review.
type ModerationStatus string

const (
	ModerationPending  ModerationStatus = "PENDING"
	ModerationApproved ModerationStatus = "APPROVED"
	ModerationRejected ModerationStatus = "REJECTED"
)

type Equipment struct {
	ID          int32           `json:"id" db:"id"`
	OwnerID     int32           `json:"owner_id" db:"owner_id"`
	CategoryID  int32           `json:"category_id" db:"category_id"`
	Title       string          `json:"title" db:"title"`
	Description string          `json:"description" db:"description"`
	DailyRate   decimal.Decimal `json:"daily_rate" db:"daily_rate"`
	PricePeriod PricePeriod     `json:"price_period" db:"price_period"`
	Condition   string          `json:"condition" db:"condition"`
	Images      StringList      `json:"images" db:"images"`
	Province    string          `json:"province" db:"province"`
	City        string          `json:"city" db:"city"`
	Address     string          `json:"address" db:"address"`
	Latitude    *float64        `json:"latitude,omitempty" db:"latitude"`
	Longitude   *float64        `json:"longitude,omitempty" db:"longitude"`
	IsAvailable bool            `json:"is_available" db:"is_available"`
	Views       int32           `json:"views" db:"views"`

	ModerationStatus ModerationStatus `json:"moderation_status" db:"moderation_status"`
	ModeratedBy      *int32           `json:"moderated_by,omitempty" db:"moderated_by"`
	ModeratedAt      *time.Time       `json:"moderated_at,omitempty" db:"moderated_at"`
	RejectionReason  string           `json:"rejection_reason,omitempty" db:"rejection_reason"`

	CreatedAt time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
	DeletedAt *time.Time `json:"-" db:"deleted_at"`

	// Set only by proximity searches.
	DistanceKm *float64 `json:"distance_km,omitempty" db:"-"`
}

func (e *Equipment) IsApproved() bool {
	return e.ModerationStatus == ModerationApproved
}

func (e *Equipment) IsDeleted() bool {
	return e.DeletedAt != nil
}

type GeoPoint struct {
	Latitude  float64
	Longitude float64
}

type BoundingBox struct {
	MinLat, MaxLat float64
	MinLon, MaxLon float64
}

type EquipmentFilter struct {
	CategoryID    int32
	Query         string
	MinRate       *decimal.Decimal
	MaxRate       *decimal.Decimal
	PricePeriod   PricePeriod
	Province      string
	City          string
	AvailableOnly bool
	Near          *GeoPoint
	RadiusKm      float64
	// Filled by the service from Near/RadiusKm before the repository call.
	Box *BoundingBox
}

// EquipmentEdit is a proposed change against an approved listing. Nil pointer
// fields and empty strings mean "leave as is".
type EquipmentEdit struct {
	ID          int32            `json:"id" db:"id"`
	EquipmentID int32            `json:"equipment_id" db:"equipment_id"`
	SubmittedBy int32            `json:"submitted_by" db:"submitted_by"`
	Title       *string          `json:"title,omitempty" db:"title"`
	Description *string          `json:"description,omitempty" db:"description"`
	CategoryID  *int32           `json:"category_id,omitempty" db:"category_id"`
	DailyRate   *decimal.Decimal `json:"daily_rate,omitempty" db:"daily_rate"`
	PricePeriod *PricePeriod     `json:"price_period,omitempty" db:"price_period"`
	Condition   *string          `json:"condition,omitempty" db:"condition"`
	Images      StringList       `json:"images,omitempty" db:"images"`
	Province    *string          `json:"province,omitempty" db:"province"`
	City        *string          `json:"city,omitempty" db:"city"`
	Address     *string          `json:"address,omitempty" db:"address"`
	Latitude    *float64         `json:"latitude,omitempty" db:"latitude"`
	Longitude   *float64         `json:"longitude,omitempty" db:"longitude"`

	Status          ModerationStatus `json:"status" db:"status"`
	ModeratedBy     *int32           `json:"moderated_by,omitempty" db:"moderated_by"`
	ModeratedAt     *time.Time       `json:"moderated_at,omitempty" db:"moderated_at"`
	RejectionReason string           `json:"rejection_reason,omitempty" db:"rejection_reason"`
	CreatedAt       time.Time        `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at" db:"updated_at"`
}

func nonEmpty(s *string) bool {
	return s != nil && *s != ""
}

// IsEmpty reports whether the edit changes nothing.
func (ed *EquipmentEdit) IsEmpty() bool {
	return !nonEmpty(ed.Title) && !nonEmpty(ed.Description) && ed.CategoryID == nil &&
		ed.DailyRate == nil && ed.PricePeriod == nil && !nonEmpty(ed.Condition) &&
		len(ed.Images) == 0 && !nonEmpty(ed.Province) && !nonEmpty(ed.City) &&
		!nonEmpty(ed.Address) && ed.Latitude == nil && ed.Longitude == nil
}

// ApplyTo merges the set fields of the edit into eq. Unset fields are left untouched.
func (ed *EquipmentEdit) ApplyTo(eq *Equipment) {
	if nonEmpty(ed.Title) {
		eq.Title = *ed.Title
	}
	if nonEmpty(ed.Description) {
		eq.Description = *ed.Description
	}
	if ed.CategoryID != nil {
		eq.CategoryID = *ed.CategoryID
	}
	if ed.DailyRate != nil {
		eq.DailyRate = *ed.DailyRate
	}
	if ed.PricePeriod != nil && *ed.PricePeriod != "" {
		eq.PricePeriod = *ed.PricePeriod
	}
	if nonEmpty(ed.Condition) {
		eq.Condition = *ed.Condition
	}
	if len(ed.Images) > 0 {
		eq.Images = ed.Images
	}
	if nonEmpty(ed.Province) {
		eq.Province = *ed.Province
	}
	if nonEmpty(ed.City) {
		eq.City = *ed.City
	}
	if nonEmpty(ed.Address) {
		eq.Address = *ed.Address
	}
	if ed.Latitude != nil {
		eq.Latitude = ed.Latitude
	}
	if ed.Longitude != nil {
		eq.Longitude = ed.Longitude
	}
}

type Category struct {
	ID          int32     `json:"id" db:"id"`
	Name        string    `json:"name" db:"name"`
	Slug        string    `json:"slug" db:"slug"`
	Description string    `json:"description" db:"description"`
	Icon        string    `json:"icon" db:"icon"`
	IsActive    bool      `json:"is_active" db:"is_active"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}
