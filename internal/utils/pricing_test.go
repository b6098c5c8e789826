package utils

import (
	"testing"
	"time"

	"equiprent-backend/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(d int) time.Time {
	return time.Date(2026, time.March, d, 9, 0, 0, 0, time.UTC)
}

func TestCalculateRentalCost(t *testing.T) {
	rate := decimal.NewFromInt(100)

	tests := []struct {
		name   string
		period domain.PricePeriod
		start  time.Time
		end    time.Time
		units  int
		total  int64
	}{
		{"daily five days", domain.PricePeriodDaily, day(1), day(6), 5, 500},
		{"weekly ten days rounds up to two weeks", domain.PricePeriodWeekly, day(1), day(11), 2, 200},
		{"weekly exactly one week", domain.PricePeriodWeekly, day(1), day(8), 1, 100},
		{"monthly partial month", domain.PricePeriodMonthly, day(1), day(11), 1, 100},
		{"hourly bills eight hours per day", domain.PricePeriodHourly, day(1), day(3), 16, 1600},
		{"partial day counts as a day", domain.PricePeriodDaily, day(1), day(1).Add(3 * time.Hour), 1, 100},
		{"started second day", domain.PricePeriodDaily, day(1), day(2).Add(time.Minute), 2, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := CalculateRentalCost(rate, tt.period, tt.start, tt.end)
			require.NoError(t, err)
			assert.Equal(t, tt.units, b.Units)
			assert.True(t, b.Total.Equal(decimal.NewFromInt(tt.total)), "total %s", b.Total)
		})
	}
}

func TestCalculateRentalCost_InvalidRange(t *testing.T) {
	_, err := CalculateRentalCost(decimal.NewFromInt(10), domain.PricePeriodDaily, day(5), day(5))
	assert.ErrorIs(t, err, ErrInvalidRange)

	_, err = CalculateRentalCost(decimal.NewFromInt(10), domain.PricePeriodDaily, day(5), day(4))
	assert.ErrorIs(t, err, ErrInvalidRange)
}

func TestCalculateRentalCost_FractionalRate(t *testing.T) {
	b, err := CalculateRentalCost(decimal.RequireFromString("12.50"), domain.PricePeriodDaily, day(1), day(4))
	require.NoError(t, err)
	assert.Equal(t, "37.5", b.Total.String())
}
