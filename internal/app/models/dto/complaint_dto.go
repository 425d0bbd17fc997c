package dto

import (
	"time"

	"github.com/shreyescodes/erp-portal/internal/app/models"
)

// CreateComplaintRequest holds a new complaint
type CreateComplaintRequest struct {
	Subject                 string     `json:"subject" binding:"required,min=10,max=200" example:"Projector in room 204 is broken"`
	Message                 string     `json:"message" binding:"required,min=20,max=2000"`
	Category                string     `json:"category" binding:"required,oneof=academic technical facility administrative general other" example:"facility"`
	Priority                string     `json:"priority,omitempty" binding:"omitempty,oneof=low medium high urgent" example:"medium"`
	IsAnonymous             bool       `json:"isAnonymous"`
	IsUrgent                bool       `json:"isUrgent"`
	Tags                    []string   `json:"tags" binding:"omitempty,dive,min=1,max=20"`
	EstimatedResolutionTime *int       `json:"estimatedResolutionTime,omitempty" binding:"omitempty,min=1" example:"7"`
	FollowUpRequired        bool       `json:"followUpRequired"`
	FollowUpDate            *time.Time `json:"followUpDate,omitempty"`
}

// UpdateComplaintRequest is the allow-list of editable complaint fields.
// Status, AssignedTo, Resolution and EstimatedResolutionTime are honored for admins only.
type UpdateComplaintRequest struct {
	Subject          *string    `json:"subject,omitempty" binding:"omitempty,min=10,max=200"`
	Message          *string    `json:"message,omitempty" binding:"omitempty,min=20,max=2000"`
	Category         *string    `json:"category,omitempty" binding:"omitempty,oneof=academic technical facility administrative general other"`
	Priority         *string    `json:"priority,omitempty" binding:"omitempty,oneof=low medium high urgent"`
	Tags             *[]string  `json:"tags,omitempty" binding:"omitempty,dive,min=1,max=20"`
	IsAnonymous      *bool      `json:"isAnonymous,omitempty"`
	IsUrgent         *bool      `json:"isUrgent,omitempty"`
	FollowUpRequired *bool      `json:"followUpRequired,omitempty"`
	FollowUpDate     *time.Time `json:"followUpDate,omitempty"`

	Status                  *string `json:"status,omitempty" binding:"omitempty,oneof=open assigned in-progress resolved closed"`
	AssignedTo              *int64  `json:"assignedTo,omitempty" binding:"omitempty,min=1"`
	Resolution              *string `json:"resolution,omitempty" binding:"omitempty,max=1000"`
	EstimatedResolutionTime *int    `json:"estimatedResolutionTime,omitempty" binding:"omitempty,min=1"`
}

// ComplaintListRequest represents complaint listing parameters
type ComplaintListRequest struct {
	Status    string `form:"status" binding:"omitempty,oneof=open assigned in-progress resolved closed"`
	Category  string `form:"category"`
	Priority  string `form:"priority"`
	Search    string `form:"search"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

// AssignComplaintRequest assigns a complaint to an admin
type AssignComplaintRequest struct {
	AssignedTo              int64 `json:"assignedTo" binding:"required,min=1" example:"2"`
	EstimatedResolutionTime *int  `json:"estimatedResolutionTime,omitempty" binding:"omitempty,min=1" example:"3"`
}

// UpdateComplaintStatusRequest moves a complaint through triage
type UpdateComplaintStatusRequest struct {
	Status           string     `json:"status" binding:"required,oneof=open assigned in-progress resolved closed" example:"resolved"`
	Resolution       *string    `json:"resolution,omitempty" binding:"omitempty,max=1000"`
	FollowUpRequired *bool      `json:"followUpRequired,omitempty"`
	FollowUpDate     *time.Time `json:"followUpDate,omitempty"`
}

// ComplaintFeedbackRequest carries the submitter's rating of a finished complaint
type ComplaintFeedbackRequest struct {
	SatisfactionRating int    `json:"satisfactionRating" binding:"required,min=1,max=5" example:"4"`
	Feedback           string `json:"feedback" binding:"max=500"`
}

// ComplaintResponse is a complaint with its derived attributes
type ComplaintResponse struct {
	models.Complaint
	Age                 string  `json:"age" example:"2 days ago"`
	TimeSinceAssignment *string `json:"timeSinceAssignment,omitempty"`
	IsOverdue           bool    `json:"isOverdue"`
	DaysUntilFollowUp   *string `json:"daysUntilFollowUp,omitempty"`
}

// NewComplaintResponse projects c at time now for the viewer. Anonymous
// complaints only reveal their submitter to the submitter.
func NewComplaintResponse(c *models.Complaint, now time.Time, viewerID int64) *ComplaintResponse {
	resp := &ComplaintResponse{
		Complaint:           *c,
		Age:                 c.Age(now),
		TimeSinceAssignment: c.TimeSinceAssignment(now),
		IsOverdue:           c.IsOverdue(now),
		DaysUntilFollowUp:   c.DaysUntilFollowUp(now),
	}
	if c.IsAnonymous && c.SubmittedBy != viewerID {
		resp.SubmittedBy = 0
		resp.Submitter = nil
	}
	return resp
}

// NewComplaintResponses projects a page of complaints.
func NewComplaintResponses(items []models.Complaint, now time.Time, viewerID int64) []*ComplaintResponse {
	out := make([]*ComplaintResponse, 0, len(items))
	for i := range items {
		out = append(out, NewComplaintResponse(&items[i], now, viewerID))
	}
	return out
}
