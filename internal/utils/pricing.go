package utils

import (
	"errors"
	"math"
	"time"

	"equiprent-backend/internal/domain"

	"github.com/shopspring/decimal"
)

// HourlyBillableHoursPerDay is how many hours of an hourly-priced listing are
// billed for each rental day.
const HourlyBillableHoursPerDay = 8

var ErrInvalidRange = errors.New("end date must be after start date")

// RentalCostBreakdown provides detailed cost breakdown
type RentalCostBreakdown struct {
	Days   int                `json:"days"`
	Units  int                `json:"units"`
	Period domain.PricePeriod `json:"period"`
	Rate   decimal.Decimal    `json:"rate"`
	Total  decimal.Decimal    `json:"total"`
}

// RentalDays counts started 24h blocks between start and end, minimum one.
func RentalDays(start, end time.Time) (int, error) {
	if !end.After(start) {
		return 0, ErrInvalidRange
	}
	days := int(math.Ceil(end.Sub(start).Hours() / 24))
	if days < 1 {
		days = 1
	}
	return days, nil
}

// BillableUnits converts a day count into units of the price period.
func BillableUnits(days int, period domain.PricePeriod) int {
	switch period {
	case domain.PricePeriodHourly:
		return days * HourlyBillableHoursPerDay
	case domain.PricePeriodWeekly:
		return ceilDiv(days, 7)
	case domain.PricePeriodMonthly:
		return ceilDiv(days, 30)
	default:
		return days
	}
}

// CalculateRentalCost prices a rental where rate is charged per unit of period.
func CalculateRentalCost(rate decimal.Decimal, period domain.PricePeriod, start, end time.Time) (RentalCostBreakdown, error) {
	days, err := RentalDays(start, end)
	if err != nil {
		return RentalCostBreakdown{}, err
	}
	units := BillableUnits(days, period)
	return RentalCostBreakdown{
		Days:   days,
		Units:  units,
		Period: period,
		Rate:   rate,
		Total:  rate.Mul(decimal.NewFromInt(int64(units))),
	}, nil
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
