package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shreyescodes/erp-portal/internal/app/models/dto"
	"github.com/shreyescodes/erp-portal/internal/app/services"
	"github.com/shreyescodes/erp-portal/internal/middleware"
)

// AuthController handles authentication related operations
type AuthController struct {
	authService services.AuthService
	logger      zerolog.Logger
}

// NewAuthController creates a new AuthController
func NewAuthController(authService services.AuthService, logger zerolog.Logger) *AuthController {
	return &AuthController{
		authService: authService,
		logger:      logger,
	}
}

// Register handles user registration
// @Summary Register a new user
// @Description Creates a user account with the user role and returns a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "User registration information"
// @Success 201 {object} dto.APIResponse{data=dto.AuthResponse} "User registered"
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Validation error"
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail} "Email or USN already exists"
// @Failure 500 {object} dto.APIResponse{error=dto.ErrorDetail} "Internal server error"
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		c.logger.Warn().Err(err).Msg("Invalid registration request payload")
		middleware.HandleValidationError(ctx, err)
		return
	}

	resp, err := c.authService.Register(ctx.Request.Context(), &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userId", resp.User.ID).Msg("User registered")
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp, "User registered successfully"))
}

// Login handles user login
// @Summary User login
// @Description Authenticates a user and returns a token pair
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "Login credentials"
// @Success 200 {object} dto.APIResponse{data=dto.AuthResponse} "Login successful"
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Validation error"
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail} "Invalid credentials or account deactivated"
// @Failure 500 {object} dto.APIResponse{error=dto.ErrorDetail} "Internal server error"
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	resp, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		c.logger.Warn().Err(err).Str("email", req.Email).Msg("Login failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, "Login successful"))
}

// RefreshToken handles refresh token request
// @Summary Refresh access token
// @Description Exchanges a valid refresh token for a new token pair. The old refresh token is revoked.
// @Tags auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh token"
// @Success 200 {object} dto.APIResponse{data=dto.TokenResponse} "Token refreshed"
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Validation error"
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail} "Invalid, expired or revoked refresh token"
// @Failure 500 {object} dto.APIResponse{error=dto.ErrorDetail} "Internal server error"
// @Router /auth/refresh [post]
func (c *AuthController) RefreshToken(ctx *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	tokens, err := c.authService.RefreshToken(ctx.Request.Context(), req.RefreshToken)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Refresh token failed")
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(tokens, "Token refreshed successfully"))
}

// Logout revokes the caller's refresh tokens
// @Summary Logout
// @Description Revokes every refresh token of the current user
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse "Logged out"
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail} "Unauthorized"
// @Failure 500 {object} dto.APIResponse{error=dto.ErrorDetail} "Internal server error"
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	requester := middleware.Requester(ctx)
	if err := c.authService.Logout(ctx.Request.Context(), requester.ID); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userId", requester.ID).Msg("User logged out")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Logged out successfully"))
}

// GetProfile returns the current user
// @Summary Get profile
// @Description Returns the authenticated user's profile
// @Tags auth
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.User}
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail} "Unauthorized"
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail} "User not found"
// @Router /auth/profile [get]
func (c *AuthController) GetProfile(ctx *gin.Context) {
	user, err := c.authService.GetProfile(ctx.Request.Context(), middleware.Requester(ctx).ID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user, ""))
}

// UpdateProfile changes the current user's profile fields
// @Summary Update profile
// @Description Updates name, branch, USN or profile picture of the authenticated user
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.UpdateProfileRequest true "Profile fields"
// @Success 200 {object} dto.APIResponse{data=models.User}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Validation error"
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail} "Unauthorized"
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail} "USN already exists"
// @Router /auth/profile [put]
func (c *AuthController) UpdateProfile(ctx *gin.Context) {
	var req dto.UpdateProfileRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	user, err := c.authService.UpdateProfile(ctx.Request.Context(), middleware.Requester(ctx).ID, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user, "Profile updated successfully"))
}

// ChangePassword replaces the current user's password
// @Summary Change password
// @Description Verifies the current password and stores the new one
// @Tags auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ChangePasswordRequest true "Current and new password"
// @Success 200 {object} dto.APIResponse "Password changed"
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Wrong current password or weak new password"
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail} "Unauthorized"
// @Router /auth/change-password [put]
func (c *AuthController) ChangePassword(ctx *gin.Context) {
	var req dto.ChangePasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	requester := middleware.Requester(ctx)
	if err := c.authService.ChangePassword(ctx.Request.Context(), requester.ID, &req); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userId", requester.ID).Msg("Password changed")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Password changed successfully"))
}
