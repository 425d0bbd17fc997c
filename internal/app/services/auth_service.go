package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shreyescodes/erp-portal/internal/app/models"
	"github.com/shreyescodes/erp-portal/internal/app/models/dto"
	"github.com/shreyescodes/erp-portal/internal/pkg/apperrors"
	pkgAuth "github.com/shreyescodes/erp-portal/internal/pkg/auth"
	"github.com/shreyescodes/erp-portal/internal/pkg/validation"
)

// AuthService defines the interface for authentication and profile operations
type AuthService interface {
	Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error)
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error)
	RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, userID int64) error
	GetProfile(ctx context.Context, userID int64) (*models.User, error)
	UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*models.User, error)
	ChangePassword(ctx context.Context, userID int64, req *dto.ChangePasswordRequest) error
}

// authServiceImpl implements AuthService
type authServiceImpl struct {
	userRepo   UserStore
	tokenRepo  TokenStore
	jwtService *pkgAuth.JWTService
	logger     zerolog.Logger
	now        func() time.Time
}

// NewAuthService creates a new AuthService
func NewAuthService(
	userRepo UserStore,
	tokenRepo TokenStore,
	jwtService *pkgAuth.JWTService,
	logger zerolog.Logger,
) AuthService {
	return &authServiceImpl{
		userRepo:   userRepo,
		tokenRepo:  tokenRepo,
		jwtService: jwtService,
		logger:     logger,
		now:        time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// normalizeUSN trims and upper-cases a USN, mapping blank values to nil.
func normalizeUSN(usn *string) *string {
	if usn == nil {
		return nil
	}
	v := strings.ToUpper(strings.TrimSpace(*usn))
	if v == "" {
		return nil
	}
	return &v
}

func trimmedOrNil(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}

func passwordPolicyError(field string) error {
	return apperrors.NewValidationError("Password does not meet requirements", map[string]string{
		field: fmt.Sprintf("must be at least %d characters and contain a lowercase letter, an uppercase letter and a digit", validation.PasswordMinLength),
	})
}

// Register creates a user account with the user role and signs it in
func (s *authServiceImpl) Register(ctx context.Context, req *dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := normalizeEmail(req.Email)
	name := strings.TrimSpace(req.Name)

	if !validation.IsValidName(name) {
		return nil, apperrors.NewValidationError("Invalid name", map[string]string{
			"name": "must be 2 to 50 letters or spaces",
		})
	}
	if !validation.IsStrongPassword(req.Password) {
		return nil, passwordPolicyError("password")
	}

	exists, err := s.userRepo.EmailExists(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("error checking if email exists: %w", err)
	}
	if exists {
		return nil, apperrors.NewCustomError(apperrors.ErrEmailAlreadyExists, "User already exists with this email")
	}

	usn := normalizeUSN(req.USN)
	if usn != nil {
		taken, err := s.userRepo.USNExists(ctx, *usn, 0)
		if err != nil {
			return nil, fmt.Errorf("error checking if USN exists: %w", err)
		}
		if taken {
			return nil, apperrors.NewCustomError(apperrors.ErrUSNAlreadyExists, "USN already exists")
		}
	}

	hashedPassword, err := pkgAuth.HashPassword(req.Password)
	if err != nil {
		return nil, fmt.Errorf("error hashing password: %w", err)
	}

	user := &models.User{
		Name:     name,
		Email:    email,
		Password: hashedPassword,
		Role:     models.RoleUser,
		Branch:   trimmedOrNil(req.Branch),
		USN:      usn,
		IsActive: true,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("user creation error: %w", err)
	}

	s.logger.Info().Int64("userId", user.ID).Msg("User registered")

	token, err := s.generateTokenResponse(ctx, user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{Token: *token, User: user}, nil
}

// Login authenticates a user by email and password
func (s *authServiceImpl) Login(ctx context.Context, req *dto.LoginRequest) (*dto.AuthResponse, error) {
	user, err := s.userRepo.GetByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.NewCustomError(apperrors.ErrInvalidCredentials, "Invalid credentials")
		}
		return nil, fmt.Errorf("error finding user: %w", err)
	}

	if !pkgAuth.CheckPassword(user.Password, req.Password) {
		return nil, apperrors.NewCustomError(apperrors.ErrInvalidCredentials, "Invalid credentials")
	}

	if !user.IsActive {
		return nil, apperrors.NewCustomError(apperrors.ErrAccountDisabled, "Account is deactivated")
	}

	now := s.now().UTC()
	if err := s.userRepo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn().Err(err).Int64("userId", user.ID).Msg("Failed to update last login time")
	} else {
		user.LastLogin = &now
	}

	token, err := s.generateTokenResponse(ctx, user)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{Token: *token, User: user}, nil
}

// RefreshToken exchanges a stored refresh token for a new pair, revoking the old one
func (s *authServiceImpl) RefreshToken(ctx context.Context, refreshToken string) (*dto.TokenResponse, error) {
	if strings.TrimSpace(refreshToken) == "" {
		return nil, apperrors.NewCustomError(apperrors.ErrTokenInvalid, "Refresh token is required")
	}

	stored, err := s.tokenRepo.GetToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrTokenNotFound) {
			return nil, apperrors.NewCustomError(apperrors.ErrTokenInvalid, "Invalid refresh token")
		}
		return nil, fmt.Errorf("token validation error: %w", err)
	}

	if stored.IsRevoked {
		return nil, apperrors.NewCustomError(apperrors.ErrTokenRevoked, "Refresh token has been revoked")
	}
	if !stored.IsUsable(s.now()) {
		_ = s.tokenRepo.RevokeToken(ctx, refreshToken)
		return nil, apperrors.NewCustomError(apperrors.ErrTokenExpired, "Refresh token has expired")
	}

	user, err := s.userRepo.GetByID(ctx, stored.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, apperrors.NewCustomError(apperrors.ErrTokenInvalid, "Invalid refresh token")
		}
		return nil, fmt.Errorf("failed to load token owner: %w", err)
	}
	if !user.IsActive {
		return nil, apperrors.NewCustomError(apperrors.ErrAccountDisabled, "Account is deactivated")
	}

	// Revoke before issuing so a token can never be exchanged twice
	if err := s.tokenRepo.RevokeToken(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to revoke old token: %w", err)
	}

	return s.generateTokenResponse(ctx, user)
}

// Logout revokes every refresh token of the user
func (s *authServiceImpl) Logout(ctx context.Context, userID int64) error {
	if err := s.tokenRepo.RevokeAllUserTokens(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	s.logger.Info().Int64("userId", userID).Msg("User logged out")
	return nil
}

// GetProfile retrieves the caller's account
func (s *authServiceImpl) GetProfile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user information: %w", err)
	}
	return user, nil
}

// UpdateProfile applies the editable profile fields
func (s *authServiceImpl) UpdateProfile(ctx context.Context, userID int64, req *dto.UpdateProfileRequest) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get user information: %w", err)
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if !validation.IsValidName(name) {
			return nil, apperrors.NewValidationError("Invalid name", map[string]string{
				"name": "must be 2 to 50 letters or spaces",
			})
		}
		user.Name = name
	}
	if req.Branch != nil {
		user.Branch = trimmedOrNil(req.Branch)
	}
	if req.USN != nil {
		usn := normalizeUSN(req.USN)
		if usn != nil && (user.USN == nil || *user.USN != *usn) {
			taken, err := s.userRepo.USNExists(ctx, *usn, user.ID)
			if err != nil {
				return nil, fmt.Errorf("error checking if USN exists: %w", err)
			}
			if taken {
				return nil, apperrors.NewCustomError(apperrors.ErrUSNAlreadyExists, "USN already exists")
			}
		}
		user.USN = usn
	}
	if req.ProfilePicture != nil {
		user.ProfilePicture = trimmedOrNil(req.ProfilePicture)
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to update profile: %w", err)
	}
	return user, nil
}

// ChangePassword replaces the password after verifying the current one
func (s *authServiceImpl) ChangePassword(ctx context.Context, userID int64, req *dto.ChangePasswordRequest) error {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to get user information: %w", err)
	}

	if !pkgAuth.CheckPassword(user.Password, req.CurrentPassword) {
		// The caller is already authenticated, so this is a bad request rather than a 401
		return apperrors.NewValidationError("Current password is incorrect", map[string]string{
			"currentPassword": "is incorrect",
		})
	}
	if !validation.IsStrongPassword(req.NewPassword) {
		return passwordPolicyError("newPassword")
	}

	hashedPassword, err := pkgAuth.HashPassword(req.NewPassword)
	if err != nil {
		return fmt.Errorf("error hashing password: %w", err)
	}
	if err := s.userRepo.UpdatePassword(ctx, userID, hashedPassword); err != nil {
		return fmt.Errorf("failed to change password: %w", err)
	}

	s.logger.Info().Int64("userId", userID).Msg("Password changed")
	return nil
}

// generateTokenResponse issues a token pair and stores the refresh token
func (s *authServiceImpl) generateTokenResponse(ctx context.Context, user *models.User) (*dto.TokenResponse, error) {
	pair, err := s.jwtService.GenerateTokenPair(user)
	if err != nil {
		return nil, fmt.Errorf("token generation error: %w", err)
	}

	if err := s.tokenRepo.CreateToken(ctx, pair.RefreshToken, user.ID, pair.RefreshExpiresAt); err != nil {
		return nil, fmt.Errorf("token saving error: %w", err)
	}

	return &dto.TokenResponse{
		AccessToken:           pair.AccessToken,
		TokenType:             "Bearer",
		ExpiresIn:             int64(pair.ExpiresIn),
		RefreshToken:          pair.RefreshToken,
		RefreshTokenExpiresIn: int64(pair.RefreshExpiresIn),
	}, nil
}
