package domain

import "github.com/shopspring/decimal"

// CountBy is a grouped count row.
type CountBy struct {
	Key   string `json:"key" db:"key"`
	Count int64  `json:"count" db:"count"`
}

type AdminStats struct {
	UsersByType       []CountBy       `json:"users_by_type"`
	UsersByStatus     []CountBy       `json:"users_by_status"`
	EquipmentByStatus []CountBy       `json:"equipment_by_status"`
	RentalsByStatus   []CountBy       `json:"rentals_by_status"`
	Revenue           decimal.Decimal `json:"revenue"`
}

type LandlordStats struct {
	EquipmentByStatus []CountBy       `json:"equipment_by_status"`
	RentalsByStatus   []CountBy       `json:"rentals_by_status"`
	Earnings          decimal.Decimal `json:"earnings"`
}

type ModerationStats struct {
	EquipmentByStatus []CountBy `json:"equipment_by_status"`
	EditsByStatus     []CountBy `json:"edits_by_status"`
	PendingReceipts   int64     `json:"pending_receipts"`
	PendingLandlords  int64     `json:"pending_landlords"`
	OpenReports       int64     `json:"open_reports"`
}

// RevenueStatuses are the rental states that count towards revenue.
var RevenueStatuses = []RentalStatus{RentalStatusPaid, RentalStatusActive, RentalStatusCompleted}
