package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shreyescodes/erp-portal/internal/app/models"
	"github.com/shreyescodes/erp-portal/internal/app/models/dto"
	"github.com/shreyescodes/erp-portal/internal/app/repositories"
	"github.com/shreyescodes/erp-portal/internal/pkg/apperrors"
)

func newUserFixture() (*MockUserStore, *MockTokenStore, UserService) {
	users := new(MockUserStore)
	tokens := new(MockTokenStore)
	return users, tokens, NewUserService(users, tokens, nopLogger())
}

func TestUserService_AdminOnly(t *testing.T) {
	users, _, svc := newUserFixture()
	ctx := context.Background()

	_, err := svc.ListUsers(ctx, owner, &dto.UserFilterRequest{}, 1, 10)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = svc.GetUserByID(ctx, owner, 9)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	_, err = svc.ToggleActive(ctx, owner, 9)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	err = svc.DeleteUser(ctx, owner, 9)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)

	users.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestUserService_SelfProtection(t *testing.T) {
	users, _, svc := newUserFixture()
	ctx := context.Background()

	_, err := svc.ChangeRole(ctx, admin, admin.ID, models.RoleUser)
	assert.ErrorIs(t, err, apperrors.ErrSelfModification)

	_, err = svc.ToggleActive(ctx, admin, admin.ID)
	assert.ErrorIs(t, err, apperrors.ErrSelfModification)

	err = svc.DeleteUser(ctx, admin, admin.ID)
	assert.ErrorIs(t, err, apperrors.ErrSelfModification)

	users.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	users.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
}

func TestListUsers_PassesFilter(t *testing.T) {
	users, _, svc := newUserFixture()
	active := true
	users.On("List", mock.Anything, mock.MatchedBy(func(f repositories.UserFilter) bool {
		return f.Role != nil && *f.Role == models.RoleAdmin && f.IsActive != nil && *f.IsActive && f.Page == 2
	})).Return(models.Page[models.User]{Total: 1, Items: []models.User{{ID: 3}}}, nil)

	page, err := svc.ListUsers(context.Background(), admin, &dto.UserFilterRequest{Role: "admin", IsActive: &active}, 2, 10)

	require.NoError(t, err)
	assert.Equal(t, int64(1), page.Total)
}

func TestChangeRole(t *testing.T) {
	users, _, svc := newUserFixture()
	target := &models.User{ID: 9, Role: models.RoleUser, IsActive: true}
	users.On("GetByID", mock.Anything, int64(9)).Return(target, nil)
	users.On("Update", mock.Anything, target).Return(nil)

	got, err := svc.ChangeRole(context.Background(), admin, 9, models.RoleAdmin)

	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, got.Role)

	_, err = svc.ChangeRole(context.Background(), admin, 9, models.RoleType("owner"))
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestToggleActive_DeactivationRevokesTokens(t *testing.T) {
	users, tokens, svc := newUserFixture()
	target := &models.User{ID: 9, Role: models.RoleUser, IsActive: true}
	users.On("GetByID", mock.Anything, int64(9)).Return(target, nil)
	users.On("Update", mock.Anything, target).Return(nil)
	tokens.On("RevokeAllUserTokens", mock.Anything, int64(9)).Return(nil)

	got, err := svc.ToggleActive(context.Background(), admin, 9)

	require.NoError(t, err)
	assert.False(t, got.IsActive)
	tokens.AssertExpectations(t)
}

func TestToggleActive_ActivationKeepsTokens(t *testing.T) {
	users, tokens, svc := newUserFixture()
	target := &models.User{ID: 9, Role: models.RoleUser, IsActive: false}
	users.On("GetByID", mock.Anything, int64(9)).Return(target, nil)
	users.On("Update", mock.Anything, target).Return(nil)

	got, err := svc.ToggleActive(context.Background(), admin, 9)

	require.NoError(t, err)
	assert.True(t, got.IsActive)
	tokens.AssertNotCalled(t, "RevokeAllUserTokens", mock.Anything, mock.Anything)
}
