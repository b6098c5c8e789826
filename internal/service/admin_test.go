package service_test

import (
	"context"
	"testing"

	"equiprent-backend/internal/domain"
	"equiprent-backend/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestAdminService_ValidateLandlord(t *testing.T) {
	ctx := context.Background()
	admin := approvedUser(1, domain.UserTypeTenant, domain.RoleAdmin)
	manager := approvedUser(2, domain.UserTypeTenant, domain.RoleModeratorManager)
	moderator := approvedUser(3, domain.UserTypeTenant, domain.RoleModerator)

	newLandlord := func() *domain.User {
		return &domain.User{ID: 10, Email: "owner@example.com", FullName: "Owner", UserType: domain.UserTypeLandlord, Role: domain.RoleUser, AccountStatus: domain.AccountStatusPending}
	}

	t.Run("Approve exactly once", func(t *testing.T) {
		userRepo := new(MockUserRepo)
		notes := newPermissiveNotifications()
		emails := newPermissiveEmail()
		svc := service.NewAdminService(userRepo, nil, notes, emails)

		landlord := newLandlord()
		userRepo.On("GetByID", ctx, int32(10)).Return(landlord, nil)
		userRepo.On("DecideAccountStatus", ctx, landlord).Return(nil).Once()

		res, err := svc.ValidateLandlord(ctx, manager, 10, domain.AccountStatusApproved, "")
		require.NoError(t, err)
		assert.Equal(t, domain.AccountStatusApproved, res.AccountStatus)
		require.NotNil(t, res.ApprovedBy)
		assert.Equal(t, manager.ID, *res.ApprovedBy)
		assert.NotNil(t, res.ApprovedAt)
		notes.AssertNumberOfCalls(t, "Notify", 1)
		emails.AssertCalled(t, "SendAccountDecision", ctx, "owner@example.com", "Owner", true, "")

		_, err = svc.ValidateLandlord(ctx, admin, 10, domain.AccountStatusRejected, "too late")
		assert.ErrorIs(t, err, domain.ErrForbidden)
		userRepo.AssertNumberOfCalls(t, "DecideAccountStatus", 1)
	})

	t.Run("Reject requires a reason", func(t *testing.T) {
		userRepo := new(MockUserRepo)
		svc := service.NewAdminService(userRepo, nil, newPermissiveNotifications(), newPermissiveEmail())

		_, err := svc.ValidateLandlord(ctx, admin, 10, domain.AccountStatusRejected, "  ")
		assert.ErrorIs(t, err, domain.ErrBadRequest)

		landlord := newLandlord()
		userRepo.On("GetByID", ctx, int32(10)).Return(landlord, nil)
		userRepo.On("DecideAccountStatus", ctx, landlord).Return(nil)

		res, err := svc.ValidateLandlord(ctx, admin, 10, domain.AccountStatusRejected, "missing documents")
		require.NoError(t, err)
		assert.Equal(t, domain.AccountStatusRejected, res.AccountStatus)
		assert.Equal(t, "missing documents", res.RejectionReason)
		require.NotNil(t, res.RejectedBy)
		assert.Equal(t, admin.ID, *res.RejectedBy)
	})

	t.Run("Plain moderators cannot validate", func(t *testing.T) {
		svc := service.NewAdminService(new(MockUserRepo), nil, newPermissiveNotifications(), newPermissiveEmail())
		_, err := svc.ValidateLandlord(ctx, moderator, 10, domain.AccountStatusApproved, "")
		assert.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("Tenants are not landlords", func(t *testing.T) {
		userRepo := new(MockUserRepo)
		svc := service.NewAdminService(userRepo, nil, newPermissiveNotifications(), newPermissiveEmail())
		userRepo.On("GetByID", ctx, int32(11)).Return(&domain.User{ID: 11, UserType: domain.UserTypeTenant, AccountStatus: domain.AccountStatusPending}, nil)

		_, err := svc.ValidateLandlord(ctx, admin, 11, domain.AccountStatusApproved, "")
		assert.ErrorIs(t, err, domain.ErrBadRequest)
	})
}

func TestAdminService_ChangeUserRole(t *testing.T) {
	ctx := context.Background()
	manager := approvedUser(2, domain.UserTypeTenant, domain.RoleModeratorManager)
	admin := approvedUser(1, domain.UserTypeTenant, domain.RoleAdmin)

	userRepo := new(MockUserRepo)
	svc := service.NewAdminService(userRepo, nil, newPermissiveNotifications(), newPermissiveEmail())

	target := approvedUser(20, domain.UserTypeTenant, domain.RoleUser)
	userRepo.On("GetByID", ctx, int32(20)).Return(target, nil)
	userRepo.On("Update", ctx, target).Return(nil)

	_, err := svc.ChangeUserRole(ctx, manager, 20, domain.RoleModeratorManager)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	res, err := svc.ChangeUserRole(ctx, manager, 20, domain.RoleModerator)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleModerator, res.Role)

	res, err = svc.ChangeUserRole(ctx, admin, 20, domain.RoleModeratorManager)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleModeratorManager, res.Role)

	_, err = svc.ChangeUserRole(ctx, admin, admin.ID, domain.RoleUser)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = svc.ChangeUserRole(ctx, admin, 20, domain.Role("ROOT"))
	assert.ErrorIs(t, err, domain.ErrBadRequest)
}

func TestAdminService_BroadcastNotification(t *testing.T) {
	ctx := context.Background()
	notes := new(MockNotificationService)
	svc := service.NewAdminService(new(MockUserRepo), nil, notes, newPermissiveEmail())

	notes.On("Broadcast", ctx, domain.AudienceAll, mock.MatchedBy(func(in service.NotificationInput) bool {
		return in.Title == "Maintenance" && in.Level == domain.NotificationLevelInfo
	})).Return(42, nil)

	n, err := svc.BroadcastNotification(ctx, approvedUser(1, domain.UserTypeTenant, domain.RoleAdmin), service.BroadcastInput{
		Title:   "Maintenance",
		Message: "Tonight at 22:00",
	})
	require.NoError(t, err)
	assert.Equal(t, 42, n)

	_, err = svc.BroadcastNotification(ctx, approvedUser(2, domain.UserTypeTenant, domain.RoleModeratorManager), service.BroadcastInput{Title: "x", Message: "y"})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestAdminService_ValidateBIDocument(t *testing.T) {
	ctx := context.Background()
	manager := approvedUser(2, domain.UserTypeTenant, domain.RoleModeratorManager)
	moderator := approvedUser(3, domain.UserTypeTenant, domain.RoleModerator)

	tests := []struct {
		name      string
		valid     bool
		wantLevel domain.NotificationLevel
	}{
		{"Accepted", true, domain.NotificationLevelSuccess},
		{"Not accepted", false, domain.NotificationLevelWarning},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			userRepo := new(MockUserRepo)
			notes := new(MockNotificationService)
			svc := service.NewAdminService(userRepo, nil, notes, newPermissiveEmail())

			user := &domain.User{ID: 10, BIDocument: "data:image/png;base64,aGVsbG8=", BIValidated: !tt.valid}
			userRepo.On("GetByID", ctx, int32(10)).Return(user, nil)
			userRepo.On("Update", ctx, user).Return(nil).Once()
			notes.On("Notify", ctx, int32(10), mock.MatchedBy(func(in service.NotificationInput) bool {
				return in.Level == tt.wantLevel
			})).Return(&domain.Notification{}, nil).Once()

			res, err := svc.ValidateBIDocument(ctx, manager, 10, tt.valid)
			require.NoError(t, err)
			assert.Equal(t, tt.valid, res.BIValidated)
			userRepo.AssertExpectations(t)
			notes.AssertExpectations(t)
		})
	}

	t.Run("No document uploaded", func(t *testing.T) {
		userRepo := new(MockUserRepo)
		svc := service.NewAdminService(userRepo, nil, newPermissiveNotifications(), newPermissiveEmail())
		userRepo.On("GetByID", ctx, int32(11)).Return(&domain.User{ID: 11}, nil)

		_, err := svc.ValidateBIDocument(ctx, manager, 11, true)
		assert.ErrorIs(t, err, domain.ErrBadRequest)
		userRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("Moderators cannot validate", func(t *testing.T) {
		userRepo := new(MockUserRepo)
		svc := service.NewAdminService(userRepo, nil, newPermissiveNotifications(), newPermissiveEmail())

		_, err := svc.ValidateBIDocument(ctx, moderator, 10, true)
		assert.ErrorIs(t, err, domain.ErrForbidden)
		userRepo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
	})
}

func TestAdminService_DeleteAndRestoreUser(t *testing.T) {
	ctx := context.Background()
	admin := approvedUser(1, domain.UserTypeTenant, domain.RoleAdmin)
	manager := approvedUser(2, domain.UserTypeTenant, domain.RoleModeratorManager)

	userRepo := new(MockUserRepo)
	svc := service.NewAdminService(userRepo, nil, newPermissiveNotifications(), newPermissiveEmail())
	userRepo.On("SoftDelete", ctx, int32(10)).Return(nil).Once()
	userRepo.On("Restore", ctx, int32(10)).Return(nil).Once()
	userRepo.On("Restore", ctx, int32(12)).Return(domain.NotFound("user not found")).Once()

	require.NoError(t, svc.DeleteUser(ctx, admin, 10))
	require.NoError(t, svc.RestoreUser(ctx, admin, 10))
	assert.ErrorIs(t, svc.RestoreUser(ctx, admin, 12), domain.ErrNotFound)

	assert.ErrorIs(t, svc.RestoreUser(ctx, manager, 10), domain.ErrForbidden)
	assert.ErrorIs(t, svc.DeleteUser(ctx, manager, 10), domain.ErrForbidden)
	assert.ErrorIs(t, svc.DeleteUser(ctx, admin, admin.ID), domain.ErrBadRequest)
	userRepo.AssertExpectations(t)
}
