package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shreyescodes/erp-portal/internal/app/models/dto"
	"github.com/shreyescodes/erp-portal/internal/app/services"
	"github.com/shreyescodes/erp-portal/internal/middleware"
	"github.com/shreyescodes/erp-portal/internal/pkg/helpers"
)

// UserController handles admin user management
type UserController struct {
	userService services.UserService
	logger      zerolog.Logger
}

// NewUserController creates a new UserController
func NewUserController(userService services.UserService, logger zerolog.Logger) *UserController {
	return &UserController{
		userService: userService,
		logger:      logger,
	}
}

// ListUsers godoc
// @Summary List users
// @Description Returns a filtered page of users (admin only)
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param role query string false "Filter by role" Enums(user, admin)
// @Param isActive query bool false "Filter by active flag"
// @Param branch query string false "Filter by branch"
// @Param search query string false "Match name, email or USN"
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Page size (default: 10, max: 100)"
// @Success 200 {object} dto.APIResponse{data=[]models.User,pagination=dto.PaginationInfo}
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	var filter dto.UserFilterRequest
	if err := ctx.ShouldBindQuery(&filter); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	result, err := c.userService.ListUsers(ctx.Request.Context(), middleware.Requester(ctx), &filter, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewPaginatedResponse(result.Items, helpers.NewPaginationInfo(result.Total, page, size)))
}

// GetUser godoc
// @Summary Get a user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=models.User}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /users/{id} [get]
func (c *UserController) GetUser(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	user, err := c.userService.GetUserByID(ctx.Request.Context(), middleware.Requester(ctx), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user, ""))
}

// ChangeRole godoc
// @Summary Change a user's role
// @Description Admins cannot change their own role
// @Tags users
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Param request body dto.ChangeRoleRequest true "New role"
// @Success 200 {object} dto.APIResponse{data=models.User}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /users/{id}/role [patch]
func (c *UserController) ChangeRole(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.ChangeRoleRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	user, err := c.userService.ChangeRole(ctx.Request.Context(), middleware.Requester(ctx), id, req.Role)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userId", id).Str("role", string(req.Role)).Msg("User role changed")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user, "User role updated successfully"))
}

// ToggleActive godoc
// @Summary Activate or deactivate a user
// @Description Deactivation revokes the user's refresh tokens. Admins cannot deactivate themselves.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse{data=models.User}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /users/{id}/toggle-active [patch]
func (c *UserController) ToggleActive(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	user, err := c.userService.ToggleActive(ctx.Request.Context(), middleware.Requester(ctx), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	message := "User activated successfully"
	if !user.IsActive {
		message = "User deactivated successfully"
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(user, message))
}

// DeleteUser godoc
// @Summary Delete a user
// @Description Removes the user and everything they own. Admins cannot delete themselves.
// @Tags users
// @Produce json
// @Security BearerAuth
// @Param id path int true "User ID"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /users/{id} [delete]
func (c *UserController) DeleteUser(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.userService.DeleteUser(ctx.Request.Context(), middleware.Requester(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("userId", id).Msg("User deleted")
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "User deleted successfully"))
}
