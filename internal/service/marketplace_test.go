package service_test

import (
	"context"
	"io"
	"strings"
	"testing"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/service"
	"equiprent-backend/internal/storage"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestCartService_Checkout(t *testing.T) {
	ctx := context.Background()
	tenant := approvedUser(20, domain.UserTypeTenant, domain.RoleUser)
	start := tomorrow()

	f := newRentalFixture(staticSettings{})
	unavailable := rentable(domain.PricePeriodDaily)
	unavailable.ID = 6
	unavailable.IsAvailable = false
	f.equipmentRepo.On("GetByID", ctx, int32(5)).Return(rentable(domain.PricePeriodDaily), nil)
	f.equipmentRepo.On("GetByID", ctx, int32(6)).Return(unavailable, nil)
	f.rentalRepo.On("Create", ctx, mock.AnythingOfType("*domain.Rental")).Return(nil)

	cartRepo := new(MockCartRepo)
	cartRepo.On("ListByUser", ctx, int32(20)).Return([]domain.CartItem{
		{ID: 1, UserID: 20, EquipmentID: 5, StartDate: start, EndDate: start.AddDate(0, 0, 2)},
		{ID: 2, UserID: 20, EquipmentID: 6, StartDate: start, EndDate: start.AddDate(0, 0, 2)},
	}, nil)
	cartRepo.On("Delete", ctx, int32(1), int32(20)).Return(nil)

	svc := service.NewCartService(cartRepo, f.equipmentRepo, f.svc)
	res, err := svc.Checkout(ctx, tenant, domain.PaymentMethodCash)
	require.NoError(t, err)

	require.Len(t, res.Rentals, 1)
	assert.Equal(t, int32(5), res.Rentals[0].EquipmentID)
	assert.Equal(t, domain.PaymentMethodCash, res.Rentals[0].PaymentMethod)
	assert.True(t, res.Rentals[0].TotalAmount.Equal(decimal.NewFromInt(200)))

	require.Len(t, res.Failures, 1)
	assert.Equal(t, int32(2), res.Failures[0].CartItemID)
	assert.Contains(t, res.Failures[0].Error, "not available")

	// The failed item stays in the cart.
	cartRepo.AssertNumberOfCalls(t, "Delete", 1)
}

func TestCartService_EmptyCartAndEstimate(t *testing.T) {
	ctx := context.Background()
	tenant := approvedUser(20, domain.UserTypeTenant, domain.RoleUser)
	start := tomorrow()

	cartRepo := new(MockCartRepo)
	equipmentRepo := new(MockEquipmentRepo)
	svc := service.NewCartService(cartRepo, equipmentRepo, nil)

	cartRepo.On("ListByUser", ctx, int32(21)).Return([]domain.CartItem{}, nil)
	_, err := svc.Checkout(ctx, approvedUser(21, domain.UserTypeTenant, domain.RoleUser), domain.PaymentMethodReceipt)
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	equipmentRepo.On("GetByID", ctx, int32(5)).Return(rentable(domain.PricePeriodWeekly), nil)
	cartRepo.On("Upsert", ctx, mock.AnythingOfType("*domain.CartItem")).
		Return(&domain.CartItem{ID: 9, UserID: 20, EquipmentID: 5, StartDate: start, EndDate: start.AddDate(0, 0, 8)}, nil)

	item, err := svc.AddItem(ctx, tenant, service.CartItemInput{EquipmentID: 5, StartDate: start, EndDate: start.AddDate(0, 0, 8)})
	require.NoError(t, err)
	require.NotNil(t, item.Estimate)
	assert.True(t, item.Estimate.Equal(decimal.NewFromInt(200)), item.Estimate.String())

	_, err = svc.AddItem(ctx, approvedUser(10, domain.UserTypeLandlord, domain.RoleUser), service.CartItemInput{EquipmentID: 5, StartDate: start, EndDate: start.AddDate(0, 0, 1)})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestReviewService_Create(t *testing.T) {
	ctx := context.Background()
	renter := approvedUser(20, domain.UserTypeTenant, domain.RoleUser)

	reviewRepo := new(MockReviewRepo)
	rentalRepo := new(MockRentalRepo)
	svc := service.NewReviewService(reviewRepo, rentalRepo)

	rentalRepo.On("GetByID", ctx, int32(1)).Return(&domain.Rental{ID: 1, EquipmentID: 5, RenterID: 20, OwnerID: 10, Status: domain.RentalStatusCompleted}, nil)
	rentalRepo.On("GetByID", ctx, int32(2)).Return(&domain.Rental{ID: 2, EquipmentID: 5, RenterID: 20, OwnerID: 10, Status: domain.RentalStatusActive}, nil)
	reviewRepo.On("ExistsForRental", ctx, int32(1)).Return(false, nil).Once()
	reviewRepo.On("Create", ctx, mock.AnythingOfType("*domain.Review")).Return(nil)

	review, err := svc.Create(ctx, renter, 1, 5, " great machine ")
	require.NoError(t, err)
	assert.Equal(t, int32(5), review.EquipmentID)
	assert.Equal(t, "great machine", review.Comment)

	reviewRepo.On("ExistsForRental", ctx, int32(1)).Return(true, nil)
	_, err = svc.Create(ctx, renter, 1, 4, "again")
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = svc.Create(ctx, renter, 2, 4, "too early")
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	_, err = svc.Create(ctx, renter, 1, 6, "out of range")
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	_, err = svc.Create(ctx, approvedUser(10, domain.UserTypeLandlord, domain.RoleUser), 1, 5, "own review")
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCategoryService_DeleteInUse(t *testing.T) {
	ctx := context.Background()
	admin := approvedUser(1, domain.UserTypeTenant, domain.RoleAdmin)
	categoryRepo := new(MockCategoryRepo)
	equipmentRepo := new(MockEquipmentRepo)
	svc := service.NewCategoryService(categoryRepo, equipmentRepo)

	equipmentRepo.On("CountByCategory", ctx, int32(1)).Return(int32(3), nil)
	equipmentRepo.On("CountByCategory", ctx, int32(2)).Return(int32(0), nil)
	categoryRepo.On("Delete", ctx, int32(2)).Return(nil)

	assert.ErrorIs(t, svc.Delete(ctx, admin, 1), domain.ErrBadRequest)
	assert.NoError(t, svc.Delete(ctx, admin, 2))
	assert.ErrorIs(t, svc.Delete(ctx, approvedUser(3, domain.UserTypeTenant, domain.RoleModeratorManager), 2), domain.ErrForbidden)

	categoryRepo.On("List", ctx, true).Return([]domain.Category{{ID: 2}}, nil)
	categoryRepo.On("List", ctx, false).Return([]domain.Category{{ID: 1}, {ID: 2}}, nil)

	public, err := svc.List(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, public, 1)
	all, err := svc.List(ctx, admin)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCategoryService_CreateDerivesSlug(t *testing.T) {
	ctx := context.Background()
	categoryRepo := new(MockCategoryRepo)
	svc := service.NewCategoryService(categoryRepo, new(MockEquipmentRepo))
	categoryRepo.On("Create", ctx, mock.AnythingOfType("*domain.Category")).Return(nil)

	c, err := svc.Create(ctx, approvedUser(1, domain.UserTypeTenant, domain.RoleAdmin), &domain.Category{Name: " Power Tools & Drills "})
	require.NoError(t, err)
	assert.Equal(t, "power-tools-drills", c.Slug)
}

func TestUploadService(t *testing.T) {
	ctx := context.Background()
	store, err := storage.NewMockStorageService("http://localhost:8080", t.TempDir())
	require.NoError(t, err)
	uploadRepo := new(MockUploadRepo)
	svc := service.NewUploadService(uploadRepo, store, 1024, []string{"image/png", "application/pdf"}, 0)
	user := approvedUser(20, domain.UserTypeTenant, domain.RoleUser)

	var saved *domain.Upload
	uploadRepo.On("Create", ctx, mock.AnythingOfType("*domain.Upload")).Run(func(args mock.Arguments) {
		saved = args.Get(1).(*domain.Upload)
		saved.ID = 50
	}).Return(nil)

	up, err := svc.Upload(ctx, user, service.UploadInput{
		Purpose:     domain.UploadPurposePaymentReceipt,
		FileName:    "../Receipt.PNG",
		ContentType: "image/png",
		Size:        4,
		Body:        strings.NewReader("data"),
	})
	require.NoError(t, err)
	assert.Equal(t, int32(50), up.ID)
	assert.Equal(t, "Receipt.PNG", up.FileName)
	assert.True(t, strings.HasPrefix(up.StorageKey, "payment_receipt/"))
	assert.True(t, strings.HasSuffix(up.StorageKey, ".png"))
	assert.Equal(t, "http://localhost:8080/api/v1/files/"+up.StorageKey, up.URL)

	rc, err := store.ReadFile(ctx, up.StorageKey)
	require.NoError(t, err)
	body, _ := io.ReadAll(rc)
	rc.Close()
	assert.Equal(t, "data", string(body))

	_, err = svc.Upload(ctx, user, service.UploadInput{Purpose: domain.UploadPurposeDocument, ContentType: "text/html", Size: 4, Body: strings.NewReader("<p/>")})
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	_, err = svc.Upload(ctx, user, service.UploadInput{Purpose: domain.UploadPurposeDocument, ContentType: "image/png", Size: 2048, Body: strings.NewReader("big")})
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	_, err = svc.Upload(ctx, user, service.UploadInput{Purpose: "AVATAR", ContentType: "image/png", Size: 4, Body: strings.NewReader("data")})
	assert.ErrorIs(t, err, domain.ErrBadRequest)

	uploadRepo.On("GetByID", ctx, int32(50)).Return(saved, nil)
	uploadRepo.On("Delete", ctx, int32(50)).Return(nil)

	assert.ErrorIs(t, svc.Delete(ctx, approvedUser(21, domain.UserTypeTenant, domain.RoleUser), 50), domain.ErrNotFound)
	require.NoError(t, svc.Delete(ctx, user, 50))
	exists, _, err := store.FileExists(ctx, up.StorageKey)
	require.NoError(t, err)
	assert.False(t, exists)
}
