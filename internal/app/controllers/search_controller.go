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

const searchPageSize = 20

// SearchController handles federated search
type SearchController struct {
	searchService services.SearchService
	logger        zerolog.Logger
}

// NewSearchController creates a new SearchController
func NewSearchController(searchService services.SearchService, logger zerolog.Logger) *SearchController {
	return &SearchController{
		searchService: searchService,
		logger:        logger,
	}
}

// GlobalSearch godoc
// @Summary Search everything
// @Description Searches content, opportunities and, for admins, users
// @Tags search
// @Produce json
// @Security BearerAuth
// @Param query query string false "Search text"
// @Param type query string false "Restrict to one type" Enums(all, content, opportunities, users)
// @Param category query string false "Category"
// @Param status query string false "Content status (admins only)"
// @Param fileType query string false "Content file type"
// @Param location query string false "Opportunity location"
// @Param opportunityType query string false "Opportunity type"
// @Param role query string false "User role"
// @Param branch query string false "User branch"
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Page size (default: 20)"
// @Success 200 {object} dto.APIResponse{data=dto.GlobalSearchResult}
// @Failure 401 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /search/global [get]
func (c *SearchController) GlobalSearch(ctx *gin.Context) {
	var req dto.GlobalSearchRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}
	page, limit := helpers.ParsePaginationParamsWithDefault(ctx, searchPageSize)

	result, err := c.searchService.GlobalSearch(ctx.Request.Context(), middleware.Requester(ctx), &req, page, limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result, ""))
}

// SearchContent godoc
// @Summary Advanced content search
// @Description Searches content with facets. Only admins may pick a status other than approved.
// @Tags search
// @Produce json
// @Param query query string false "Search text"
// @Param category query string false "Category"
// @Param fileType query string false "File type"
// @Param status query string false "Status (admins only)"
// @Param uploadedBy query int false "Uploader ID"
// @Param tags query string false "Comma separated tags, any of"
// @Param dateFrom query string false "Created at or after (RFC 3339)"
// @Param dateTo query string false "Created at or before (RFC 3339)"
// @Param minSize query int false "Minimum file size in bytes"
// @Param maxSize query int false "Maximum file size in bytes"
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Page size (default: 20)"
// @Success 200 {object} dto.APIResponse{data=dto.ContentSearchResult}
// @Router /search/content [get]
func (c *SearchController) SearchContent(ctx *gin.Context) {
	var req dto.ContentSearchRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}
	page, limit := helpers.ParsePaginationParamsWithDefault(ctx, searchPageSize)

	result, err := c.searchService.SearchContent(ctx.Request.Context(), middleware.Requester(ctx), &req, page, limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result, ""))
}

// SearchOpportunities godoc
// @Summary Advanced opportunity search
// @Tags search
// @Produce json
// @Param query query string false "Search text"
// @Param category query string false "Category"
// @Param type query string false "Type"
// @Param location query string false "Location"
// @Param company query string false "Company"
// @Param minSalary query number false "Minimum salary"
// @Param maxSalary query number false "Maximum salary"
// @Param skills query string false "Comma separated skills, any of"
// @Param isActive query bool false "Active flag"
// @Param isFeatured query bool false "Featured flag"
// @Param page query int false "Page number (default: 1)"
// @Param limit query int false "Page size (default: 20)"
// @Success 200 {object} dto.APIResponse{data=dto.OpportunitySearchResult}
// @Router /search/opportunities [get]
func (c *SearchController) SearchOpportunities(ctx *gin.Context) {
	var req dto.OpportunitySearchRequest
	if err := ctx.ShouldBindQuery(&req); err != nil {
		middleware.HandleValidationError(ctx, err)
		return
	}
	page, limit := helpers.ParsePaginationParamsWithDefault(ctx, searchPageSize)

	result, err := c.searchService.SearchOpportunities(ctx.Request.Context(), &req, page, limit)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(result, ""))
}

// Suggestions godoc
// @Summary Autocomplete
// @Description Returns up to 10 suggestions for queries of at least two characters
// @Tags search
// @Produce json
// @Param query query string true "Prefix"
// @Param type query string false "Restrict to one type" Enums(all, content, opportunities, users)
// @Success 200 {object} dto.APIResponse{data=dto.SuggestionsResponse}
// @Router /search/suggestions [get]
func (c *SearchController) Suggestions(ctx *gin.Context) {
	suggestions, err := c.searchService.Suggestions(ctx.Request.Context(), middleware.Requester(ctx),
		ctx.Query("query"), ctx.DefaultQuery("type", "all"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.SuggestionsResponse{Suggestions: suggestions}, ""))
}

// Analytics godoc
// @Summary Search analytics
// @Description Activity per category since the start of the period
// @Tags search
// @Produce json
// @Security BearerAuth
// @Param period query string false "Period" Enums(day, week, month, year)
// @Success 200 {object} dto.APIResponse{data=dto.AnalyticsResponse}
// @Failure 400 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /search/analytics [get]
func (c *SearchController) Analytics(ctx *gin.Context) {
	analytics, err := c.searchService.Analytics(ctx.Request.Context(), ctx.DefaultQuery("period", "week"))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(analytics, ""))
}
