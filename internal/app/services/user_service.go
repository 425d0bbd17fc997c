package services

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/shreyescodes/erp-portal/internal/app/auth"
	"github.com/shreyescodes/erp-portal/internal/app/models"
	"github.com/shreyescodes/erp-portal/internal/app/models/dto"
	"github.com/shreyescodes/erp-portal/internal/app/repositories"
	"github.com/shreyescodes/erp-portal/internal/pkg/apperrors"
)

// UserService defines the interface for admin user management
type UserService interface {
	ListUsers(ctx context.Context, requester auth.Requester, filter *dto.UserFilterRequest, page, size int) (models.Page[models.User], error)
	GetUserByID(ctx context.Context, requester auth.Requester, id int64) (*models.User, error)
	ChangeRole(ctx context.Context, requester auth.Requester, id int64, role models.RoleType) (*models.User, error)
	ToggleActive(ctx context.Context, requester auth.Requester, id int64) (*models.User, error)
	DeleteUser(ctx context.Context, requester auth.Requester, id int64) error
}

// userServiceImpl implements UserService
type userServiceImpl struct {
	userRepo  UserStore
	tokenRepo TokenStore
	logger    zerolog.Logger
}

// NewUserService creates a new UserService
func NewUserService(userRepo UserStore, tokenRepo TokenStore, logger zerolog.Logger) UserService {
	return &userServiceImpl{
		userRepo:  userRepo,
		tokenRepo: tokenRepo,
		logger:    logger,
	}
}

// ListUsers returns a filtered page of users
func (s *userServiceImpl) ListUsers(ctx context.Context, requester auth.Requester, filter *dto.UserFilterRequest, page, size int) (models.Page[models.User], error) {
	if err := auth.RequireAdmin(requester); err != nil {
		return models.Page[models.User]{}, err
	}

	f := repositories.UserFilter{
		IsActive:  filter.IsActive,
		Branch:    filter.Branch,
		Search:    filter.Search,
		SortBy:    filter.SortBy,
		SortOrder: filter.SortOrder,
		Page:      page,
		Size:      size,
	}
	if filter.Role != "" {
		role := models.RoleType(filter.Role)
		f.Role = &role
	}

	users, err := s.userRepo.List(ctx, f)
	if err != nil {
		return users, fmt.Errorf("error listing users: %w", err)
	}
	return users, nil
}

// GetUserByID retrieves a user by ID
func (s *userServiceImpl) GetUserByID(ctx context.Context, requester auth.Requester, id int64) (*models.User, error) {
	if err := auth.RequireAdmin(requester); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error finding user: %w", err)
	}
	return user, nil
}

// ChangeRole promotes or demotes a user. Admins cannot change their own role.
func (s *userServiceImpl) ChangeRole(ctx context.Context, requester auth.Requester, id int64, role models.RoleType) (*models.User, error) {
	if err := auth.RequireAdmin(requester); err != nil {
		return nil, err
	}
	if !role.IsValid() {
		return nil, apperrors.NewValidationError("Invalid role", map[string]string{"role": "must be one of user, admin"})
	}
	if err := auth.EnsureNotSelf(requester, id); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	user.Role = role
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("error updating user role: %w", err)
	}

	s.logger.Info().
		Int64("adminId", requester.ID).
		Int64("userId", id).
		Str("role", string(role)).
		Msg("User role changed")
	return user, nil
}

// ToggleActive flips the active flag. Deactivation revokes the user's refresh tokens.
func (s *userServiceImpl) ToggleActive(ctx context.Context, requester auth.Requester, id int64) (*models.User, error) {
	if err := auth.RequireAdmin(requester); err != nil {
		return nil, err
	}
	if err := auth.EnsureNotSelf(requester, id); err != nil {
		return nil, err
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	user.IsActive = !user.IsActive
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("error updating user status: %w", err)
	}

	if !user.IsActive {
		if err := s.tokenRepo.RevokeAllUserTokens(ctx, user.ID); err != nil {
			s.logger.Warn().Err(err).Int64("userId", user.ID).Msg("Failed to revoke tokens of deactivated user")
		}
	}

	s.logger.Info().
		Int64("adminId", requester.ID).
		Int64("userId", id).
		Bool("isActive", user.IsActive).
		Msg("User active status toggled")
	return user, nil
}

// DeleteUser removes a user together with everything they own
func (s *userServiceImpl) DeleteUser(ctx context.Context, requester auth.Requester, id int64) error {
	if err := auth.RequireAdmin(requester); err != nil {
		return err
	}
	if err := auth.EnsureNotSelf(requester, id); err != nil {
		return err
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}

	s.logger.Info().Int64("adminId", requester.ID).Int64("userId", id).Msg("User deleted")
	return nil
}
