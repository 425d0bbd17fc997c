package controllers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shreyescodes/erp-portal/internal/app/models/dto"
	"github.com/shreyescodes/erp-portal/internal/app/services"
	"github.com/shreyescodes/erp-portal/internal/middleware"
	"github.com/shreyescodes/erp-portal/internal/pkg/helpers"
)

// ContentController handles the content library and its moderation
type ContentController struct {
	contentService services.ContentService
	logger         zerolog.Logger
}

// NewContentController creates a new ContentController
func NewContentController(contentService services.ContentService, logger zerolog.Logger) *ContentController {
	return &ContentController{
		contentService: contentService,
		logger:         logger,
	}
}

// UploadContent godoc
// @Summary Upload content
// @Description Uploads a file with its metadata. Uploads by admins are approved immediately, others wait for review.
// @Tags content
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image, video or document"
// @Param title formData string true "Title"
// @Param description formData string true "Description"
// @Param category formData string true "Category" Enums(academic, cultural, sports, technical, general, announcement)
// @Param tags formData string false "Comma separated tags"
// @Success 201 {object} dto.APIResponse{data=dto.ContentResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 415 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 502 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /content [post]
func (c *ContentController) UploadContent(ctx *gin.Context) {
	var req dto.UploadContentRequest
	if err := ctx.ShouldBind(&req); err != nil {
		bindFailed(ctx, err)
		return
	}

	upload, err := formUpload(ctx, "file")
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to read uploaded file")
		uploadFailed(ctx, err, "Failed to read uploaded file")
		return
	}
	if upload == nil {
		badRequest(ctx, "No file uploaded")
		return
	}
	defer upload.Close()

	content, err := c.contentService.UploadContent(ctx.Request.Context(), middleware.Requester(ctx), upload, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	message := "Content uploaded successfully and is pending approval"
	if content.IsApproved() {
		message = "Content uploaded and approved"
	}
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(dto.NewContentResponse(content, time.Now()), message))
}

// ListContent godoc
// @Summary List content
// @Description Lists content. Anonymous callers and users see approved content, users may also list their own uploads, admins see everything.
// @Tags content
// @Produce json
// @Param status query string false "Status" Enums(pending, approved, rejected)
// @Param category query string false "Category"
// @Param search query string false "Match title, description or tags"
// @Param uploadedBy query int false "Uploader ID"
// @Param sortBy query string false "Sort field" Enums(createdAt, title, views, downloads)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Page size (default: 10, max: 100)"
// @Success 200 {object} dto.APIResponse{data=[]dto.ContentResponse,pagination=dto.PaginationInfo}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /content [get]
func (c *ContentController) ListContent(ctx *gin.Context) {
	var req dto.ContentListRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}
	page, size := helpers.ParsePaginationParams(ctx)

	result, err := c.contentService.ListContent(ctx.Request.Context(), middleware.Requester(ctx), &req, page, size)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewPaginatedResponse(
		dto.NewContentResponses(result.Items, time.Now()),
		helpers.NewPaginationInfo(result.Total, page, size)))
}

// GetContent godoc
// @Summary Get content
// @Description Returns a content item. Reading approved content counts a view.
// @Tags content
// @Produce json
// @Param id path int true "Content ID"
// @Success 200 {object} dto.APIResponse{data=dto.ContentResponse}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /content/{id} [get]
func (c *ContentController) GetContent(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	content, err := c.contentService.GetContentByID(ctx.Request.Context(), middleware.Requester(ctx), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewContentResponse(content, time.Now()), ""))
}

// DownloadContent godoc
// @Summary Record a download
// @Description Counts a download and returns the file URL
// @Tags content
// @Produce json
// @Param id path int true "Content ID"
// @Success 200 {object} dto.APIResponse{data=dto.DownloadResponse}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /content/{id}/download [post]
func (c *ContentController) DownloadContent(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	resp, err := c.contentService.RecordDownload(ctx.Request.Context(), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp, ""))
}

// UpdateContent godoc
// @Summary Update content
// @Description Owners and admins may edit. An edit by the owner sends the item back to review.
// @Tags content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Content ID"
// @Param request body dto.UpdateContentRequest true "Fields to change"
// @Success 200 {object} dto.APIResponse{data=dto.ContentResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /content/{id} [put]
func (c *ContentController) UpdateContent(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.UpdateContentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}

	content, err := c.contentService.UpdateContent(ctx.Request.Context(), middleware.Requester(ctx), id, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewContentResponse(content, time.Now()), "Content updated successfully"))
}

// DeleteContent godoc
// @Summary Delete content
// @Tags content
// @Produce json
// @Security BearerAuth
// @Param id path int true "Content ID"
// @Success 200 {object} dto.APIResponse
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /content/{id} [delete]
func (c *ContentController) DeleteContent(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	if err := c.contentService.DeleteContent(ctx.Request.Context(), middleware.Requester(ctx), id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(nil, "Content deleted successfully"))
}

// ApproveContent godoc
// @Summary Approve content
// @Tags content
// @Produce json
// @Security BearerAuth
// @Param id path int true "Content ID"
// @Success 200 {object} dto.APIResponse{data=dto.ContentResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Already approved"
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /content/{id}/approve [put]
func (c *ContentController) ApproveContent(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	content, err := c.contentService.ApproveContent(ctx.Request.Context(), middleware.Requester(ctx), id)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewContentResponse(content, time.Now()), "Content approved successfully"))
}

// RejectContent godoc
// @Summary Reject content
// @Tags content
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Content ID"
// @Param request body dto.RejectContentRequest true "Rejection reason"
// @Success 200 {object} dto.APIResponse{data=dto.ContentResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail} "Missing reason or already rejected"
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 404 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /content/{id}/reject [put]
func (c *ContentController) RejectContent(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	var req dto.RejectContentRequest
	if err := ctx.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		middleware.HandleValidationError(ctx, err)
		return
	}

	content, err := c.contentService.RejectContent(ctx.Request.Context(), middleware.Requester(ctx), id, req.Reason)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewContentResponse(content, time.Now()), "Content rejected"))
}

// GetStats godoc
// @Summary Content statistics
// @Tags content
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=models.ContentStats}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /content/stats/overview [get]
func (c *ContentController) GetStats(ctx *gin.Context) {
	stats, err := c.contentService.GetStats(ctx.Request.Context(), middleware.Requester(ctx))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(stats, ""))
}
