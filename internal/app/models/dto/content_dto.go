package dto

import (
	"time"

	"github.com/shreyescodes/erp-portal/internal/app/models"
)

// UploadContentRequest holds the form fields sent alongside an uploaded file
type UploadContentRequest struct {
	Title       string `form:"title" binding:"required,max=200" example:"Data Structures notes"`
	Description string `form:"description" binding:"required,max=1000" example:"Unit 1 to 3"`
	Category    string `form:"category" binding:"required,oneof=academic cultural sports technical general announcement" example:"academic"`
	Tags        string `form:"tags" example:"dsa,notes"` // comma separated
}

// ContentListRequest represents content listing parameters
type ContentListRequest struct {
	Status     string `form:"status" binding:"omitempty,oneof=pending approved rejected"`
	Category   string `form:"category"`
	Search     string `form:"search"`
	UploadedBy *int64 `form:"uploadedBy"`
	SortBy     string `form:"sortBy"`
	SortOrder  string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

// UpdateContentRequest is the allow-list of editable content fields. IsFeatured and ExpiryDate are admin only.
type UpdateContentRequest struct {
	Title       *string                 `json:"title,omitempty" binding:"omitempty,min=1,max=200"`
	Description *string                 `json:"description,omitempty" binding:"omitempty,min=1,max=1000"`
	Category    *models.ContentCategory `json:"category,omitempty" binding:"omitempty,oneof=academic cultural sports technical general announcement"`
	Tags        *[]string               `json:"tags,omitempty" binding:"omitempty,dive,max=50"`
	IsFeatured  *bool                   `json:"isFeatured,omitempty"`
	ExpiryDate  *time.Time              `json:"expiryDate,omitempty"`
}

// RejectContentRequest carries the reason for a rejection
type RejectContentRequest struct {
	Reason string `json:"reason" binding:"max=500" example:"Low resolution scan"`
}

// ContentResponse is a content item with its derived attributes
type ContentResponse struct {
	models.Content
	Age       string `json:"age" example:"3 days ago"`
	IsExpired bool   `json:"isExpired"`
}

// NewContentResponse projects c at time now.
func NewContentResponse(c *models.Content, now time.Time) *ContentResponse {
	return &ContentResponse{
		Content:   *c,
		Age:       c.Age(now),
		IsExpired: c.IsExpired(now),
	}
}

// NewContentResponses projects a page of content.
func NewContentResponses(items []models.Content, now time.Time) []*ContentResponse {
	out := make([]*ContentResponse, 0, len(items))
	for i := range items {
		out = append(out, NewContentResponse(&items[i], now))
	}
	return out
}

// DownloadResponse is returned when a download is recorded
type DownloadResponse struct {
	FileURL   string `json:"fileUrl" example:"/uploads/document/3f2a.pdf"`
	Downloads int64  `json:"downloads" example:"12"`
}
