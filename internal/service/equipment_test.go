package service_test

import (
	"context"
	"testing"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/service"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func ptr[T any](v T) *T { return &v }

func TestEquipmentService_Create(t *testing.T) {
	ctx := context.Background()
	input := service.EquipmentInput{
		CategoryID: 1,
		Title:      "  Concrete mixer ",
		DailyRate:  decimal.NewFromInt(100),
	}

	t.Run("Approved landlord creates a pending listing", func(t *testing.T) {
		equipmentRepo := new(MockEquipmentRepo)
		categoryRepo := new(MockCategoryRepo)
		notes := newPermissiveNotifications()
		svc := service.NewEquipmentService(equipmentRepo, categoryRepo, new(MockRentalRepo), notes)

		categoryRepo.On("GetByID", ctx, int32(1)).Return(&domain.Category{ID: 1, Name: "Construction", IsActive: true}, nil)
		equipmentRepo.On("Create", ctx, mock.AnythingOfType("*domain.Equipment")).Run(func(args mock.Arguments) {
			args.Get(1).(*domain.Equipment).ID = 99
		}).Return(nil)

		eq, err := svc.Create(ctx, approvedUser(10, domain.UserTypeLandlord, domain.RoleUser), input)
		require.NoError(t, err)
		assert.Equal(t, "Concrete mixer", eq.Title)
		assert.Equal(t, domain.ModerationPending, eq.ModerationStatus)
		assert.False(t, eq.IsAvailable)
		assert.Equal(t, domain.PricePeriodDaily, eq.PricePeriod)
		assert.Equal(t, int32(10), eq.OwnerID)
		notes.AssertCalled(t, "NotifyRoles", ctx, service.ModerationStaff, mock.Anything)
	})

	t.Run("Pending landlord is refused", func(t *testing.T) {
		equipmentRepo := new(MockEquipmentRepo)
		svc := service.NewEquipmentService(equipmentRepo, new(MockCategoryRepo), new(MockRentalRepo), newPermissiveNotifications())

		pending := approvedUser(10, domain.UserTypeLandlord, domain.RoleUser)
		pending.AccountStatus = domain.AccountStatusPending

		_, err := svc.Create(ctx, pending, input)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		equipmentRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Tenant is refused", func(t *testing.T) {
		svc := service.NewEquipmentService(new(MockEquipmentRepo), new(MockCategoryRepo), new(MockRentalRepo), newPermissiveNotifications())
		_, err := svc.Create(ctx, approvedUser(11, domain.UserTypeTenant, domain.RoleUser), input)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("Inactive category", func(t *testing.T) {
		categoryRepo := new(MockCategoryRepo)
		svc := service.NewEquipmentService(new(MockEquipmentRepo), categoryRepo, new(MockRentalRepo), newPermissiveNotifications())
		categoryRepo.On("GetByID", ctx, int32(1)).Return(&domain.Category{ID: 1, IsActive: false}, nil)

		_, err := svc.Create(ctx, approvedUser(10, domain.UserTypeLandlord, domain.RoleUser), input)
		assert.ErrorIs(t, err, domain.ErrBadRequest)
	})

	t.Run("Invalid input", func(t *testing.T) {
		svc := service.NewEquipmentService(new(MockEquipmentRepo), new(MockCategoryRepo), new(MockRentalRepo), newPermissiveNotifications())
		landlord := approvedUser(10, domain.UserTypeLandlord, domain.RoleUser)

		bad := input
		bad.DailyRate = decimal.Zero
		_, err := svc.Create(ctx, landlord, bad)
		assert.ErrorIs(t, err, domain.ErrBadRequest)

		bad = input
		bad.Latitude = ptr(40.0)
		_, err = svc.Create(ctx, landlord, bad)
		assert.ErrorIs(t, err, domain.ErrBadRequest)
	})
}

func TestEquipmentService_GetHidesUnpublished(t *testing.T) {
	ctx := context.Background()
	equipmentRepo := new(MockEquipmentRepo)
	svc := service.NewEquipmentService(equipmentRepo, new(MockCategoryRepo), new(MockRentalRepo), newPermissiveNotifications())

	equipmentRepo.On("GetByID", ctx, int32(5)).Return(&domain.Equipment{ID: 5, OwnerID: 10, ModerationStatus: domain.ModerationPending}, nil)

	_, err := svc.Get(ctx, nil, 5)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	eq, err := svc.Get(ctx, approvedUser(10, domain.UserTypeLandlord, domain.RoleUser), 5)
	require.NoError(t, err)
	assert.Equal(t, int32(5), eq.ID)

	_, err = svc.Get(ctx, approvedUser(30, domain.UserTypeTenant, domain.RoleModerator), 5)
	assert.NoError(t, err)
	equipmentRepo.AssertNotCalled(t, "IncrementViews", mock.Anything, mock.Anything)
}

func TestEquipmentService_SearchNearby(t *testing.T) {
	ctx := context.Background()
	equipmentRepo := new(MockEquipmentRepo)
	svc := service.NewEquipmentService(equipmentRepo, new(MockCategoryRepo), new(MockRentalRepo), newPermissiveNotifications())

	// Lisbon centre; Sintra is ~25 km away, Porto ~275 km.
	candidates := []domain.Equipment{
		{ID: 1, Title: "Sintra", Latitude: ptr(38.8029), Longitude: ptr(-9.3817)},
		{ID: 2, Title: "Lisbon", Latitude: ptr(38.7223), Longitude: ptr(-9.1393)},
		{ID: 3, Title: "Porto", Latitude: ptr(41.1579), Longitude: ptr(-8.6291)},
		{ID: 4, Title: "No location"},
	}
	equipmentRepo.On("Search", ctx, mock.MatchedBy(func(f domain.EquipmentFilter) bool { return f.Box != nil }), int32(1), int32(0)).
		Return(candidates, int32(len(candidates)), nil)

	results, total, err := svc.Search(ctx, domain.EquipmentFilter{
		Near:     &domain.GeoPoint{Latitude: 38.7223, Longitude: -9.1393},
		RadiusKm: 50,
	}, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, int32(2), total)
	require.Len(t, results, 2)
	assert.Equal(t, int32(2), results[0].ID)
	assert.Equal(t, int32(1), results[1].ID)
	require.NotNil(t, results[1].DistanceKm)
	assert.InDelta(t, 22.9, *results[1].DistanceKm, 3)

	_, _, err = svc.Search(ctx, domain.EquipmentFilter{Near: &domain.GeoPoint{}, RadiusKm: 0}, 1, 10)
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestEquipmentService_SetAvailability(t *testing.T) {
	ctx := context.Background()
	equipmentRepo := new(MockEquipmentRepo)
	rentalRepo := new(MockRentalRepo)
	svc := service.NewEquipmentService(equipmentRepo, new(MockCategoryRepo), rentalRepo, newPermissiveNotifications())
	owner := approvedUser(10, domain.UserTypeLandlord, domain.RoleUser)

	equipmentRepo.On("GetByID", ctx, int32(5)).Return(&domain.Equipment{ID: 5, OwnerID: 10, ModerationStatus: domain.ModerationApproved}, nil)
	rentalRepo.On("HasOpenForEquipment", ctx, int32(5)).Return(true, nil)
	equipmentRepo.On("SetAvailability", ctx, int32(5), false).Return(nil)

	_, err := svc.SetAvailability(ctx, owner, 5, true)
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	eq, err := svc.SetAvailability(ctx, owner, 5, false)
	require.NoError(t, err)
	assert.False(t, eq.IsAvailable)

	_, err = svc.SetAvailability(ctx, approvedUser(11, domain.UserTypeLandlord, domain.RoleUser), 5, false)
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestModerationService_Decide(t *testing.T) {
	ctx := context.Background()
	moderator := approvedUser(3, domain.UserTypeTenant, domain.RoleModerator)

	newService := func() (service.ModerationService, *MockEquipmentRepo, *MockEmailService) {
		equipmentRepo := new(MockEquipmentRepo)
		userRepo := new(MockUserRepo)
		userRepo.On("GetByID", mock.Anything, int32(10)).Return(&domain.User{ID: 10, Email: "owner@example.com", FullName: "Owner"}, nil)
		emails := newPermissiveEmail()
		return service.NewModerationService(equipmentRepo, userRepo, nil, newPermissiveNotifications(), emails), equipmentRepo, emails
	}

	t.Run("Approve makes the listing available", func(t *testing.T) {
		svc, equipmentRepo, emails := newService()
		equipmentRepo.On("GetByID", ctx, int32(5)).Return(&domain.Equipment{ID: 5, OwnerID: 10, Title: "Drill", ModerationStatus: domain.ModerationPending}, nil)
		equipmentRepo.On("Moderate", ctx, mock.AnythingOfType("*domain.Equipment")).Return(nil)

		eq, err := svc.Approve(ctx, moderator, 5)
		require.NoError(t, err)
		assert.Equal(t, domain.ModerationApproved, eq.ModerationStatus)
		assert.True(t, eq.IsAvailable)
		require.NotNil(t, eq.ModeratedBy)
		assert.Equal(t, moderator.ID, *eq.ModeratedBy)
		emails.AssertCalled(t, "SendListingDecision", ctx, "owner@example.com", "Owner", "Drill", true, "")
	})

	t.Run("Reject requires a reason", func(t *testing.T) {
		svc, equipmentRepo, _ := newService()

		_, err := svc.Reject(ctx, moderator, 5, "")
		assert.ErrorIs(t, err, domain.ErrBadRequest)
		equipmentRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)

		equipmentRepo.On("GetByID", ctx, int32(5)).Return(&domain.Equipment{ID: 5, OwnerID: 10, ModerationStatus: domain.ModerationPending}, nil)
		equipmentRepo.On("Moderate", ctx, mock.AnythingOfType("*domain.Equipment")).Return(nil)

		eq, err := svc.Reject(ctx, moderator, 5, "blurry photos")
		require.NoError(t, err)
		assert.Equal(t, domain.ModerationRejected, eq.ModerationStatus)
		assert.False(t, eq.IsAvailable)
		assert.Equal(t, "blurry photos", eq.RejectionReason)
	})

	t.Run("Already decided", func(t *testing.T) {
		svc, equipmentRepo, _ := newService()
		equipmentRepo.On("GetByID", ctx, int32(5)).Return(&domain.Equipment{ID: 5, OwnerID: 10, ModerationStatus: domain.ModerationApproved}, nil)

		_, err := svc.Approve(ctx, moderator, 5)
		assert.ErrorIs(t, err, domain.ErrBadRequest)
	})

	t.Run("Regular users cannot moderate", func(t *testing.T) {
		svc, _, _ := newService()
		_, err := svc.Approve(ctx, approvedUser(11, domain.UserTypeTenant, domain.RoleUser), 5)
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})
}

func TestEquipmentEditService(t *testing.T) {
	ctx := context.Background()
	owner := approvedUser(10, domain.UserTypeLandlord, domain.RoleUser)
	moderator := approvedUser(3, domain.UserTypeTenant, domain.RoleModerator)

	listing := func() *domain.Equipment {
		return &domain.Equipment{
			ID: 5, OwnerID: 10, CategoryID: 1, Title: "Drill", Description: "Cordless",
			DailyRate: decimal.NewFromInt(20), PricePeriod: domain.PricePeriodDaily,
			ModerationStatus: domain.ModerationApproved, IsAvailable: true,
		}
	}

	newService := func() (service.EquipmentEditService, *MockEquipmentEditRepo, *MockEquipmentRepo) {
		editRepo := new(MockEquipmentEditRepo)
		equipmentRepo := new(MockEquipmentRepo)
		userRepo := new(MockUserRepo)
		userRepo.On("GetByID", mock.Anything, int32(10)).Return(&domain.User{ID: 10, Email: "owner@example.com"}, nil)
		svc := service.NewEquipmentEditService(editRepo, equipmentRepo, new(MockCategoryRepo), userRepo, newPermissiveNotifications(), newPermissiveEmail())
		return svc, editRepo, equipmentRepo
	}

	t.Run("Submit then approve merges only the changed fields", func(t *testing.T) {
		svc, editRepo, equipmentRepo := newService()
		eq := listing()
		equipmentRepo.On("GetByID", ctx, int32(5)).Return(eq, nil)
		editRepo.On("HasPending", ctx, int32(5)).Return(false, nil)
		editRepo.On("Create", ctx, mock.AnythingOfType("*domain.EquipmentEdit")).Run(func(args mock.Arguments) {
			ed := args.Get(1).(*domain.EquipmentEdit)
			ed.ID = 77
			ed.Status = domain.ModerationPending
		}).Return(nil)

		newRate := decimal.NewFromInt(25)
		ed, err := svc.Submit(ctx, owner, 5, &domain.EquipmentEdit{Title: ptr("Hammer drill"), DailyRate: &newRate})
		require.NoError(t, err)
		assert.Equal(t, int32(77), ed.ID)
		assert.Equal(t, int32(10), ed.SubmittedBy)
		// The live listing is untouched until approval.
		assert.Equal(t, "Drill", eq.Title)

		editRepo.On("GetByID", ctx, int32(77)).Return(ed, nil)
		current := listing()
		ed.ApplyTo(current)
		editRepo.On("Approve", ctx, ed).Return(current, nil)

		approved, merged, err := svc.Approve(ctx, moderator, 77)
		require.NoError(t, err)
		assert.Equal(t, domain.ModerationApproved, approved.Status)
		assert.Equal(t, "Hammer drill", merged.Title)
		assert.True(t, merged.DailyRate.Equal(newRate))
		assert.Equal(t, "Cordless", merged.Description)
		assert.Equal(t, int32(1), merged.CategoryID)
	})

	t.Run("Only one pending edit per listing", func(t *testing.T) {
		svc, editRepo, equipmentRepo := newService()
		equipmentRepo.On("GetByID", ctx, int32(5)).Return(listing(), nil)
		editRepo.On("HasPending", ctx, int32(5)).Return(true, nil)

		_, err := svc.Submit(ctx, owner, 5, &domain.EquipmentEdit{Title: ptr("New")})
		assert.ErrorIs(t, err, domain.ErrBadRequest)
		editRepo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("Concurrent submission loses on the unique index", func(t *testing.T) {
		svc, editRepo, equipmentRepo := newService()
		equipmentRepo.On("GetByID", ctx, int32(5)).Return(listing(), nil)
		editRepo.On("HasPending", ctx, int32(5)).Return(false, nil)
		editRepo.On("Create", ctx, mock.Anything).Return(domain.Conflict("pending edit exists"))

		_, err := svc.Submit(ctx, owner, 5, &domain.EquipmentEdit{Title: ptr("New")})
		assert.ErrorIs(t, err, domain.ErrBadRequest)
	})

	t.Run("Empty edit and foreign listing", func(t *testing.T) {
		svc, _, equipmentRepo := newService()
		_, err := svc.Submit(ctx, owner, 5, &domain.EquipmentEdit{})
		assert.ErrorIs(t, err, domain.ErrBadRequest)

		equipmentRepo.On("GetByID", ctx, int32(5)).Return(listing(), nil)
		_, err = svc.Submit(ctx, approvedUser(11, domain.UserTypeLandlord, domain.RoleUser), 5, &domain.EquipmentEdit{Title: ptr("Mine now")})
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("Reject requires a reason", func(t *testing.T) {
		svc, _, _ := newService()
		_, err := svc.Reject(ctx, moderator, 77, " ")
		assert.ErrorIs(t, err, domain.ErrBadRequest)
	})
}
