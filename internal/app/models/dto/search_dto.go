package dto

import (
	"time"

	"github.com/shreyescodes/erp-portal/internal/app/models"
)

// GlobalSearchRequest represents the federated search parameters
type GlobalSearchRequest struct {
	Query           string `form:"query"`
	Type            string `form:"type" binding:"omitempty,oneof=all content opportunities users"`
	Category        string `form:"category"`
	Status          string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	FileType        string `form:"fileType"`
	Location        string `form:"location"`
	OpportunityType string `form:"opportunityType"`
	Role            string `form:"role" binding:"omitempty,oneof=user admin"`
	Branch          string `form:"branch"`
	SortBy          string `form:"sortBy"`
	SortOrder       string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

// GlobalSearchResult holds one page per searched type
type GlobalSearchResult struct {
	Content       []*ContentResponse     `json:"content"`
	Opportunities []*OpportunityResponse `json:"opportunities"`
	Users         []models.User          `json:"users"`
	TotalResults  int64                  `json:"totalResults"`
	Pagination    SearchPagination       `json:"pagination"`
}

// SearchPagination describes the page of a search response
type SearchPagination struct {
	Page       int `json:"page" example:"1"`
	Limit      int `json:"limit" example:"20"`
	TotalPages int `json:"totalPages" example:"3"`
}

// ContentSearchRequest represents the advanced content search parameters
type ContentSearchRequest struct {
	Query      string     `form:"query"`
	Category   string     `form:"category"`
	FileType   string     `form:"fileType"`
	Status     string     `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	UploadedBy *int64     `form:"uploadedBy"`
	Tags       string     `form:"tags"` // comma separated, any of
	DateFrom   *time.Time `form:"dateFrom"`
	DateTo     *time.Time `form:"dateTo"`
	MinSize    *int64     `form:"minSize" binding:"omitempty,gte=0"`
	MaxSize    *int64     `form:"maxSize" binding:"omitempty,gte=0"`
	SortBy     string     `form:"sortBy"`
	SortOrder  string     `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

// ContentSearchResult is a content search page with its facet values
type ContentSearchResult struct {
	Content    []*ContentResponse    `json:"content"`
	Total      int64                 `json:"total"`
	Pagination SearchPagination      `json:"pagination"`
	Filters    *models.ContentFacets `json:"filters"`
}

// OpportunitySearchRequest represents the advanced opportunity search parameters
type OpportunitySearchRequest struct {
	Query      string     `form:"query"`
	Category   string     `form:"category"`
	Type       string     `form:"type"`
	Location   string     `form:"location"`
	Company    string     `form:"company"`
	MinSalary  *float64   `form:"minSalary" binding:"omitempty,gte=0"`
	MaxSalary  *float64   `form:"maxSalary" binding:"omitempty,gte=0"`
	Duration   string     `form:"duration"`
	Skills     string     `form:"skills"` // comma separated, any of
	IsActive   *bool      `form:"isActive"`
	IsFeatured *bool      `form:"isFeatured"`
	DateFrom   *time.Time `form:"dateFrom"`
	DateTo     *time.Time `form:"dateTo"`
	SortBy     string     `form:"sortBy"`
	SortOrder  string     `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

// OpportunitySearchResult is an opportunity search page with its facet values
type OpportunitySearchResult struct {
	Opportunities []*OpportunityResponse    `json:"opportunities"`
	Total         int64                     `json:"total"`
	Pagination    SearchPagination          `json:"pagination"`
	Filters       *models.OpportunityFacets `json:"filters"`
}

// Suggestion is one autocomplete entry
type Suggestion struct {
	Type  string `json:"type" example:"content"`
	Label string `json:"label" example:"Data Structures notes"`
}

// SuggestionsResponse wraps the autocomplete list
type SuggestionsResponse struct {
	Suggestions []Suggestion `json:"suggestions"`
}

// AnalyticsResponse is the activity summary for a period
type AnalyticsResponse struct {
	Period           string                    `json:"period" example:"week"`
	Since            time.Time                 `json:"since"`
	ContentStats     []models.CategoryActivity `json:"contentStats"`
	OpportunityStats []models.CategoryActivity `json:"opportunityStats"`
	UserStats        []models.CountBucket      `json:"userStats"`
}
