package domain

import (
	"database/sql"
	"time"
)

type NotificationType string

const (
	NotificationTypeAccount    NotificationType = "ACCOUNT"
	NotificationTypeEquipment  NotificationType = "EQUIPMENT"
	NotificationTypeRental     NotificationType = "RENTAL"
	NotificationTypePayment    NotificationType = "PAYMENT"
	NotificationTypeChat       NotificationType = "CHAT"
	NotificationTypeModeration NotificationType = "MODERATION"
	NotificationTypeSystem     NotificationType = "SYSTEM"
)

type NotificationLevel string

const (
	NotificationLevelInfo    NotificationLevel = "info"
	NotificationLevelSuccess NotificationLevel = "success"
	NotificationLevelWarning NotificationLevel = "warning"
	NotificationLevelError   NotificationLevel = "error"
)

func (l NotificationLevel) Valid() bool {
	switch l {
	case NotificationLevelInfo, NotificationLevelSuccess, NotificationLevelWarning, NotificationLevelError:
		return true
	}
	return false
}

type Notification struct {
	ID      int32             `json:"id" db:"id"`
	UserID  int32             `json:"user_id" db:"user_id"`
	Type    NotificationType  `json:"type" db:"type"`
	Level   NotificationLevel `json:"level" db:"level"`
	Title   string            `json:"title" db:"title"`
	Message string            `json:"message" db:"message"`
	IsRead  bool              `json:"is_read" db:"is_read"`
	ReadAt  *time.Time        `json:"read_at,omitempty" db:"read_at"`

	// RawData is the JSON string stored in the data column; Data is its decoded form.
	RawData sql.NullString `json:"-" db:"data"`
	Data    map[string]any `json:"data,omitempty" db:"-"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
