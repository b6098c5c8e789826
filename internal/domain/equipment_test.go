package domain_test

import (
	"errors"
	"fmt"
	"testing"

	"equiprent-backend/internal/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func TestInitialAccountStatus(t *testing.T) {
	assert.Equal(t, domain.AccountStatusPending, domain.InitialAccountStatus(domain.UserTypeLandlord, false))
	assert.Equal(t, domain.AccountStatusPending, domain.InitialAccountStatus(domain.UserTypeTenant, true))
	assert.Equal(t, domain.AccountStatusPending, domain.InitialAccountStatus(domain.UserTypeLandlord, true))
	assert.Equal(t, domain.AccountStatusApproved, domain.InitialAccountStatus(domain.UserTypeTenant, false))
}

func TestEquipmentEdit_ApplyTo(t *testing.T) {
	lat := 1.5
	base := func() *domain.Equipment {
		return &domain.Equipment{
			Title:       "Concrete mixer",
			Description: "150L",
			CategoryID:  3,
			DailyRate:   decimal.NewFromInt(100),
			PricePeriod: domain.PricePeriodDaily,
			City:        "Luanda",
			Images:      domain.StringList{"a.jpg"},
		}
	}

	t.Run("OnlySetFieldsMerged", func(t *testing.T) {
		eq := base()
		rate := decimal.NewFromInt(120)
		edit := &domain.EquipmentEdit{
			Title:       strPtr("Concrete mixer XL"),
			Description: strPtr(""),
			DailyRate:   &rate,
			Latitude:    &lat,
		}
		edit.ApplyTo(eq)

		assert.Equal(t, "Concrete mixer XL", eq.Title)
		assert.Equal(t, "150L", eq.Description)
		assert.True(t, eq.DailyRate.Equal(decimal.NewFromInt(120)))
		assert.Equal(t, int32(3), eq.CategoryID)
		assert.Equal(t, domain.PricePeriodDaily, eq.PricePeriod)
		assert.Equal(t, "Luanda", eq.City)
		assert.Equal(t, domain.StringList{"a.jpg"}, eq.Images)
		assert.Equal(t, &lat, eq.Latitude)
	})

	t.Run("EmptyEditLeavesEquipmentUnchanged", func(t *testing.T) {
		eq := base()
		edit := &domain.EquipmentEdit{City: strPtr("")}
		assert.True(t, edit.IsEmpty())
		edit.ApplyTo(eq)
		assert.Equal(t, base(), eq)
	})
}

func TestErrorKinds(t *testing.T) {
	err := fmt.Errorf("wrapped: %w", domain.NotFound("equipment %d not found", 7))
	assert.True(t, errors.Is(err, domain.ErrNotFound))
	assert.False(t, errors.Is(err, domain.ErrForbidden))
	assert.Equal(t, "equipment 7 not found", domain.ErrorMessage(err))
	assert.Equal(t, "", domain.ErrorMessage(errors.New("boom")))
}

func TestRentalStatus_IsTerminal(t *testing.T) {
	assert.True(t, domain.RentalStatusCompleted.IsTerminal())
	assert.True(t, domain.RentalStatusCancelled.IsTerminal())
	assert.True(t, domain.RentalStatusRejected.IsTerminal())
	assert.False(t, domain.RentalStatusPaid.IsTerminal())
}
