package controllers

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/rs/zerolog"
	"github.com/shreyescodes/erp-portal/internal/app/models/dto"
	"github.com/shreyescodes/erp-portal/internal/app/services"
	"github.com/shreyescodes/erp-portal/internal/middleware"
	"github.com/shreyescodes/erp-portal/internal/pkg/filestorage"
	"github.com/shreyescodes/erp-portal/internal/pkg/helpers"
)

// OpportunityController handles opportunity listings and applications
type OpportunityController struct {
	opportunityService services.OpportunityService
	logger             zerolog.Logger
}

// NewOpportunityController creates a new OpportunityController
func NewOpportunityController(opportunityService services.OpportunityService, logger zerolog.Logger) *OpportunityController {
	return &OpportunityController{
		opportunityService: opportunityService,
		logger:             logger,
	}
}

// bindListing binds a listing body from JSON or from a multipart form and
// opens the optional photo sent as "image".
func bindListing(ctx *gin.Context, req interface{}) (*filestorage.Upload, bool) {
	if strings.HasPrefix(ctx.ContentType(), binding.MIMEMultipartPOSTForm) {
		if err := ctx.ShouldBindWith(req, binding.FormMultipart); err != nil {
			bindFailed(ctx, err)
			return nil, false
		}
		photo, err := formUpload(ctx, "image")
		if err != nil {
			uploadFailed(ctx, err, "Failed to read uploaded image")
			return nil, false
		}
		return photo, true
	}

	if err := ctx.ShouldBindJSON(req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return nil, false
	}
	return nil, true
}

// CreateOpportunity godoc
// @Summary Create an opportunity
// @Description Creates a listing from JSON or a multipart form with an optional image. The deadline must lie in the future and the start date after the deadline.
// @Tags opportunities
// @Accept json,multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateOpportunityRequest true "Listing"
// @Param image formData file false "Listing image"
// @Success 201 {object} dto.APIResponse{data=dto.OpportunityResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 415 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /opportunities [post]
func (c *OpportunityController) CreateOpportunity(ctx *gin.Context) {
	var req dto.CreateOpportunityRequest
	photo, ok := bindListing(ctx, &req)
	if !ok {
		return
	}
	if photo != nil {
		defer photo.Close()
	}

	opp, err := c.opportunityService.CreateOpportunity(ctx.Request.Context(), middleware.Requester(ctx), &req, photo)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewOpportunityResponse(opp, time.Now()), "Opportunity created successfully"))
}

// ListOpportunities godoc
// @Summary List opportunities
// @Description Lists every listing. Pass activeOnly=true to keep only active listings whose deadline is ahead.
// @Tags opportunities
// @Produce json
// @Param type query string false "Type"
// @Param category query string false "Category"
// @Param location query string false "Location"
// @Param search query string false "Match title, description, company or skills"
// @Param activeOnly query bool false "Only open listings"
// @Param sortBy query string false "Sort field" Enums(createdAt, applicationDeadline, views, title)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Page size (default: 10, max: 100)"
// @Success 200 {object} dto.APIResponse{data=[]dto.OpportunityResponse,pagination=dto.PaginationInfo}
// @Router /opportunities [get]
func (c *OpportunityController) ListOpportunities(ctx *gin.Context) {
	var req dto.OpportunityListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	result, err := c.opportunityService.ListOpportunities(ctx.Request.Context(), &req, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewPaginatedResponse(
		dto.NewOpportunityResponses(result.Items, time.Now()),
		helpers.NewPaginationInfo(result.Total, page, size)))
}

// GetOpportunity godoc
// @Summary Get an opportunity
// @Description Returns a listing and counts a view
// @Tags opportunities
// @Produce json
// @Param id path int true "Opportunity ID"
// @Success 200 {object} dto.APIResponse{data=dto.OpportunityResponse}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /opportunities/{id} [get]
func (c *OpportunityController) GetOpportunity(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	opp, err := c.opportunityService.GetOpportunityByID(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewOpportunityResponse(opp, time.Now()), ""))
}

// UpdateOpportunity godoc
// @Summary Update an opportunity
// @Description Owners and admins may edit. Saving a listing whose deadline passed deactivates it.
// @Tags opportunities
// @Accept json,multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Opportunity ID"
// @Param request body dto.UpdateOpportunityRequest true "Fields to change"
// @Param image formData file false "Replacement image"
// @Success 200 {object} dto.APIResponse{data=dto.OpportunityResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /opportunities/{id} [put]
func (c *OpportunityController) UpdateOpportunity(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateOpportunityRequest
	photo, ok := bindListing(ctx, &req)
	if !ok {
		return
	}
	if photo != nil {
		defer photo.Close()
	}

	opp, err := c.opportunityService.UpdateOpportunity(ctx.Request.Context(), middleware.Requester(ctx), id, &req, photo)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewOpportunityResponse(opp, time.Now()), "Opportunity updated successfully"))
}

// DeleteOpportunity godoc
// @Summary Delete an opportunity
// @Tags opportunities
// @Produce json
// @Security BearerAuth
// @Param id path int true "Opportunity ID"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /opportunities/{id} [delete]
func (c *OpportunityController) DeleteOpportunity(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.opportunityService.DeleteOpportunity(ctx.Request.Context(), middleware.Requester(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Opportunity deleted successfully"))
}

// Apply godoc
// @Summary Apply to an opportunity
// @Description A user may apply once while the listing is active and before its deadline
// @Tags opportunities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Opportunity ID"
// @Param request body dto.ApplyRequest false "Application"
// @Success 201 {object} dto.APIResponse{data=models.Application}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Inactive or deadline passed"
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail} "Already applied"
// @Router /opportunities/{id}/apply [post]
func (c *OpportunityController) Apply(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.ApplyRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.HandleValidationError(ctx, err)
		return
	}

	application, err := c.opportunityService.Apply(ctx.Request.Context(), middleware.Requester(ctx), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(application, "Application submitted successfully"))
}

// ListApplications godoc
// @Summary List applications
// @Description Lists the applications of a listing (owner or admin)
// @Tags opportunities
// @Produce json
// @Security BearerAuth
// @Param id path int true "Opportunity ID"
// @Success 200 {object} dto.APIResponse{data=[]models.Application}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /opportunities/{id}/applications [get]
func (c *OpportunityController) ListApplications(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	applications, err := c.opportunityService.ListApplications(ctx.Request.Context(), middleware.Requester(ctx), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(applications, ""))
}

// UpdateApplicationStatus godoc
// @Summary Review an application
// @Tags opportunities
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Opportunity ID"
// @Param applicantId path int true "Applicant user ID"
// @Param request body dto.UpdateApplicationStatusRequest true "New status"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /opportunities/{id}/applications/{applicantId}/status [put]
func (c *OpportunityController) UpdateApplicationStatus(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	applicantID, ok := parseIDParam(ctx, "applicantId")
	if !ok {
		return
	}
	var req dto.UpdateApplicationStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	err := c.opportunityService.UpdateApplicationStatus(ctx.Request.Context(), middleware.Requester(ctx), id, applicantID, req.Status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Application status updated"))
}

// ToggleStatus godoc
// @Summary Activate or deactivate an opportunity
// @Description Listings whose deadline passed cannot be activated
// @Tags opportunities
// @Produce json
// @Security BearerAuth
// @Param id path int true "Opportunity ID"
// @Success 200 {object} dto.APIResponse{data=dto.OpportunityResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Deadline passed"
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /opportunities/{id}/toggle-status [patch]
func (c *OpportunityController) ToggleStatus(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	opp, err := c.opportunityService.ToggleActive(ctx.Request.Context(), middleware.Requester(ctx), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	message := "Opportunity activated"
	if !opp.IsActive {
		message = "Opportunity deactivated"
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewOpportunityResponse(opp, time.Now()), message))
}

// GetStats godoc
// @Summary Opportunity statistics
// @Tags opportunities
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.OpportunityStats}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /opportunities/stats/overview [get]
func (c *OpportunityController) GetStats(ctx *gin.Context) {
	stats, err := c.opportunityService.GetStats(ctx.Request.Context(), middleware.Requester(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(stats, ""))
}
