package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shreyescodes/erp-portal/internal/app/models/dto"
	"github.com/shreyescodes/erp-portal/internal/app/services"
	"github.com/shreyescodes/erp-portal/internal/middleware"
	"github.com/shreyescodes/erp-portal/internal/pkg/helpers"
)

// ComplaintController handles complaints and their triage
type ComplaintController struct {
	complaintService services.ComplaintService
	logger           zerolog.Logger
}

// NewComplaintController creates a new ComplaintController
func NewComplaintController(complaintService services.ComplaintService, logger zerolog.Logger) *ComplaintController {
	return &ComplaintController{
		complaintService: complaintService,
		logger:           logger,
	}
}

// CreateComplaint godoc
// @Summary File a complaint
// @Description Urgent complaints always get the urgent priority
// @Tags complaints
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateComplaintRequest true "Complaint"
// @Success 201 {object} dto.APIResponse{data=dto.ComplaintResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /complaints [post]
func (c *ComplaintController) CreateComplaint(ctx *gin.Context) {
	var req dto.CreateComplaintRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	requester := middleware.Requester(ctx)
	complaint, err := c.complaintService.CreateComplaint(ctx.Request.Context(), requester, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(
		dto.NewComplaintResponse(complaint, time.Now(), requester.ID), "Complaint submitted successfully"))
}

// ListComplaints godoc
// @Summary List complaints
// @Description Users see their own complaints, admins see all
// @Tags complaints
// @Produce json
// @Security BearerAuth
// @Param status query string false "Status" Enums(open, assigned, in-progress, resolved, closed)
// @Param category query string false "Category"
// @Param priority query string false "Priority"
// @Param search query string false "Match subject or message"
// @Param sortBy query string false "Sort field" Enums(createdAt, priority, status)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Page size (default: 10, max: 100)"
// @Success 200 {object} dto.APIResponse{data=[]dto.ComplaintResponse,pagination=dto.PaginationInfo}
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /complaints [get]
func (c *ComplaintController) ListComplaints(ctx *gin.Context) {
	var req dto.ComplaintListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	requester := middleware.Requester(ctx)
	result, err := c.complaintService.ListComplaints(ctx.Request.Context(), requester, &req, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewPaginatedResponse(
		dto.NewComplaintResponses(result.Items, time.Now(), requester.ID),
		helpers.NewPaginationInfo(result.Total, page, size)))
}

// GetComplaint godoc
// @Summary Get a complaint
// @Tags complaints
// @Produce json
// @Security BearerAuth
// @Param id path int true "Complaint ID"
// @Success 200 {object} dto.APIResponse{data=dto.ComplaintResponse}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /complaints/{id} [get]
func (c *ComplaintController) GetComplaint(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	requester := middleware.Requester(ctx)
	complaint, err := c.complaintService.GetComplaintByID(ctx.Request.Context(), requester, id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewComplaintResponse(complaint, time.Now(), requester.ID), ""))
}

// UpdateComplaint godoc
// @Summary Update a complaint
// @Description Submitters may edit while the complaint is open. Triage fields are applied for admins only.
// @Tags complaints
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Complaint ID"
// @Param request body dto.UpdateComplaintRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.ComplaintResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Complaint no longer open"
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /complaints/{id} [put]
func (c *ComplaintController) UpdateComplaint(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateComplaintRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	requester := middleware.Requester(ctx)
	complaint, err := c.complaintService.UpdateComplaint(ctx.Request.Context(), requester, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(
		dto.NewComplaintResponse(complaint, time.Now(), requester.ID), "Complaint updated successfully"))
}

// DeleteComplaint godoc
// @Summary Delete a complaint
// @Tags complaints
// @Produce json
// @Security BearerAuth
// @Param id path int true "Complaint ID"
// @Success 200 {object} dto.APIResponse
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Complaint no longer open"
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /complaints/{id} [delete]
func (c *ComplaintController) DeleteComplaint(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.complaintService.DeleteComplaint(ctx.Request.Context(), middleware.Requester(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Complaint deleted successfully"))
}

// AssignComplaint godoc
// @Summary Assign a complaint
// @Description Assigns the complaint to an admin and notifies the submitter
// @Tags complaints
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Complaint ID"
// @Param request body dto.AssignComplaintRequest true "Assignee"
// @Success 200 {object} dto.APIResponse{data=dto.ComplaintResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /complaints/{id}/assign [post]
func (c *ComplaintController) AssignComplaint(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.AssignComplaintRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	requester := middleware.Requester(ctx)
	complaint, err := c.complaintService.AssignComplaint(ctx.Request.Context(), requester, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(
		dto.NewComplaintResponse(complaint, time.Now(), requester.ID), "Complaint assigned successfully"))
}

// UpdateStatus godoc
// @Summary Change complaint status
// @Description Closed complaints cannot change status. Resolving stamps the resolver.
// @Tags complaints
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Complaint ID"
// @Param request body dto.UpdateComplaintStatusRequest true "New status"
// @Success 200 {object} dto.APIResponse{data=dto.ComplaintResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /complaints/{id}/status [put]
func (c *ComplaintController) UpdateStatus(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateComplaintStatusRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	requester := middleware.Requester(ctx)
	complaint, err := c.complaintService.UpdateStatus(ctx.Request.Context(), requester, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(
		dto.NewComplaintResponse(complaint, time.Now(), requester.ID), "Complaint status updated"))
}

// AddAttachment godoc
// @Summary Attach a file to a complaint
// @Tags complaints
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param id path int true "Complaint ID"
// @Param file formData file true "Attachment"
// @Success 201 {object} dto.APIResponse{data=models.Attachment}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Attachment limit reached"
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 415 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /complaints/{id}/attachments [post]
func (c *ComplaintController) AddAttachment(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	upload, err := formUpload(ctx, "file")
	if err != nil {
		uploadFailed(ctx, err, "Failed to read uploaded file")
		return
	}
	if upload == nil {
		badRequest(ctx, "No file uploaded")
		return
	}
	defer upload.Close()

	attachment, err := c.complaintService.AddAttachment(ctx.Request.Context(), middleware.Requester(ctx), id, upload)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(attachment, "Attachment added successfully"))
}

// SubmitFeedback godoc
// @Summary Rate a finished complaint
// @Description Only the submitter may rate, once the complaint is resolved or closed
// @Tags complaints
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Complaint ID"
// @Param request body dto.ComplaintFeedbackRequest true "Rating"
// @Success 200 {object} dto.APIResponse{data=dto.ComplaintResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /complaints/{id}/feedback [post]
func (c *ComplaintController) SubmitFeedback(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.ComplaintFeedbackRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	requester := middleware.Requester(ctx)
	complaint, err := c.complaintService.SubmitFeedback(ctx.Request.Context(), requester, id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(
		dto.NewComplaintResponse(complaint, time.Now(), requester.ID), "Feedback submitted"))
}

// GetStats godoc
// @Summary Complaint statistics
// @Description Admins get counts over all complaints, users over their own
// @Tags complaints
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.ComplaintStats}
// @Router /complaints/stats [get]
func (c *ComplaintController) GetStats(ctx *gin.Context) {
	stats, err := c.complaintService.GetStats(ctx.Request.Context(), middleware.Requester(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(stats, ""))
}
