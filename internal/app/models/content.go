package models

import (
	"strings"
	"time"
)

// ContentStatus is the moderation state of a content item.
type ContentStatus string

const (
	ContentStatusPending  ContentStatus = "pending"
	ContentStatusApproved ContentStatus = "approved"
	ContentStatusRejected ContentStatus = "rejected"
)

// IsValid reports whether s is a known status.
func (s ContentStatus) IsValid() bool {
	switch s {
	case ContentStatusPending, ContentStatusApproved, ContentStatusRejected:
		return true
	}
	return false
}

// ContentCategory groups content for browsing.
type ContentCategory string

const (
	ContentCategoryAcademic     ContentCategory = "academic"
	ContentCategoryCultural     ContentCategory = "cultural"
	ContentCategorySports       ContentCategory = "sports"
	ContentCategoryTechnical    ContentCategory = "technical"
	ContentCategoryGeneral      ContentCategory = "general"
	ContentCategoryAnnouncement ContentCategory = "announcement"
)

// FileType is the coarse media category of an uploaded file.
type FileType string

const (
	FileTypeImage    FileType = "image"
	FileTypeVideo    FileType = "video"
	FileTypeDocument FileType = "document"
	FileTypeAudio    FileType = "audio"
)

// FileTypeOf maps a MIME type onto its media category.
func FileTypeOf(mimeType string) FileType {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return FileTypeImage
	case strings.HasPrefix(mimeType, "video/"):
		return FileTypeVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return FileTypeAudio
	default:
		return FileTypeDocument
	}
}

// Content represents an uploaded artifact in the 'contents' table.
type Content struct {
	ID              int64           `json:"id" db:"id" example:"1"`
	Title           string          `json:"title" db:"title" example:"Data Structures notes"`
	Description     string          `json:"description" db:"description" example:"Unit 1 to 3"`
	FileURL         string          `json:"fileUrl" db:"file_url" example:"/uploads/document/3f2a.pdf"`
	FileType        FileType        `json:"fileType" db:"file_type" example:"document"`
	MimeType        string          `json:"mimeType" db:"mime_type" example:"application/pdf"`
	FileSize        int64           `json:"fileSize" db:"file_size" example:"1048576"`
	StorageID       string          `json:"-" db:"storage_id"`
	Category        ContentCategory `json:"category" db:"category" example:"academic"`
	Tags            []string        `json:"tags" db:"tags"`
	Status          ContentStatus   `json:"status" db:"status" example:"pending"`
	UploadedBy      int64           `json:"uploadedBy" db:"uploaded_by" example:"7"`
	ApprovedBy      *int64          `json:"approvedBy,omitempty" db:"approved_by"`
	ApprovedAt      *time.Time      `json:"approvedAt,omitempty" db:"approved_at"`
	RejectionReason *string         `json:"rejectionReason,omitempty" db:"rejection_reason"`
	Views           int64           `json:"views" db:"views" example:"0"`
	Downloads       int64           `json:"downloads" db:"downloads" example:"0"`
	IsFeatured      bool            `json:"isFeatured" db:"is_featured" example:"false"`
	ExpiryDate      *time.Time      `json:"expiryDate,omitempty" db:"expiry_date"`
	CreatedAt       time.Time       `json:"createdAt" db:"created_at"`
	UpdatedAt       time.Time       `json:"updatedAt" db:"updated_at"`

	Uploader *UserSummary `json:"uploader,omitempty"`
}

// IsApproved reports whether the content passed moderation.
func (c *Content) IsApproved() bool {
	return c.Status == ContentStatusApproved
}

// IsExpired reports whether the content has an expiry date before now.
func (c *Content) IsExpired(now time.Time) bool {
	return c.ExpiryDate != nil && now.After(*c.ExpiryDate)
}

// Age renders how long ago the content was uploaded.
func (c *Content) Age(now time.Time) string {
	return ageLabel(c.CreatedAt, now)
}

// MarkApproved records an approval by adminID, clearing any rejection.
func (c *Content) MarkApproved(adminID int64, now time.Time) {
	c.Status = ContentStatusApproved
	c.ApprovedBy = &adminID
	c.ApprovedAt = &now
	c.RejectionReason = nil
}

// MarkRejected records a rejection, clearing any approval.
func (c *Content) MarkRejected(reason string) {
	c.Status = ContentStatusRejected
	c.RejectionReason = &reason
	c.ApprovedBy = nil
	c.ApprovedAt = nil
}

// ResetReview puts the content back into the moderation queue.
func (c *Content) ResetReview() {
	c.Status = ContentStatusPending
	c.ApprovedBy = nil
	c.ApprovedAt = nil
	c.RejectionReason = nil
}

// ContentStats is the dashboard aggregate over all content.
type ContentStats struct {
	TotalContent      int64         `json:"totalContent"`
	PendingContent    int64         `json:"pendingContent"`
	ApprovedContent   int64         `json:"approvedContent"`
	RejectedContent   int64         `json:"rejectedContent"`
	TotalViews        int64         `json:"totalViews"`
	TotalDownloads    int64         `json:"totalDownloads"`
	CategoryBreakdown []CountBucket `json:"categoryBreakdown"`
}
