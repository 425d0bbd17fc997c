package dto

import (
	"time"

	"github.com/shreyescodes/erp-portal/internal/app/models"
)

// CreateOpportunityRequest holds the fields of a new listing. It binds from
// JSON or from the multipart form that carries the optional photo.
type CreateOpportunityRequest struct {
	Title               string     `json:"title" form:"title" binding:"required,max=200" example:"Backend intern"`
	Description         string     `json:"description" form:"description" binding:"required,max=2000"`
	Company             string     `json:"company" form:"company" binding:"required,max=100" example:"Acme"`
	Location            string     `json:"location" form:"location" binding:"required,max=100" example:"Bengaluru"`
	Type                string     `json:"type" form:"type" binding:"required,oneof=internship full-time part-time freelance volunteer" example:"internship"`
	Category            string     `json:"category" form:"category" binding:"required,oneof=technical non-technical research design marketing other" example:"technical"`
	Requirements        []string   `json:"requirements" form:"requirements" binding:"omitempty,dive,max=200"`
	Skills              []string   `json:"skills" form:"skills" binding:"omitempty,dive,max=100"`
	SalaryMin           *float64   `json:"salaryMin,omitempty" form:"salaryMin" binding:"omitempty,gte=0" example:"10000"`
	SalaryMax           *float64   `json:"salaryMax,omitempty" form:"salaryMax" binding:"omitempty,gte=0" example:"20000"`
	Currency            string     `json:"currency,omitempty" form:"currency" binding:"omitempty,oneof=USD EUR INR GBP" example:"INR"`
	Period              string     `json:"period,omitempty" form:"period" binding:"omitempty,oneof=hourly daily weekly monthly yearly" example:"monthly"`
	Duration            string     `json:"duration,omitempty" form:"duration" binding:"max=100" example:"6 months"`
	ApplicationDeadline *time.Time `json:"applicationDeadline" form:"applicationDeadline" binding:"required"`
	StartDate           *time.Time `json:"startDate" form:"startDate" binding:"required"`
	Tags                []string   `json:"tags" form:"tags" binding:"omitempty,dive,max=50"`
	IsFeatured          bool       `json:"isFeatured" form:"isFeatured"`
}

// UpdateOpportunityRequest is the allow-list of editable listing fields.
// Views and applications are server owned and have no field here.
type UpdateOpportunityRequest struct {
	Title               *string    `json:"title,omitempty" form:"title" binding:"omitempty,min=1,max=200"`
	Description         *string    `json:"description,omitempty" form:"description" binding:"omitempty,min=1,max=2000"`
	Company             *string    `json:"company,omitempty" form:"company" binding:"omitempty,min=1,max=100"`
	Location            *string    `json:"location,omitempty" form:"location" binding:"omitempty,min=1,max=100"`
	Type                *string    `json:"type,omitempty" form:"type" binding:"omitempty,oneof=internship full-time part-time freelance volunteer"`
	Category            *string    `json:"category,omitempty" form:"category" binding:"omitempty,oneof=technical non-technical research design marketing other"`
	Requirements        []string   `json:"requirements,omitempty" form:"requirements" binding:"omitempty,dive,max=200"`
	Skills              []string   `json:"skills,omitempty" form:"skills" binding:"omitempty,dive,max=100"`
	SalaryMin           *float64   `json:"salaryMin,omitempty" form:"salaryMin" binding:"omitempty,gte=0"`
	SalaryMax           *float64   `json:"salaryMax,omitempty" form:"salaryMax" binding:"omitempty,gte=0"`
	Currency            *string    `json:"currency,omitempty" form:"currency" binding:"omitempty,oneof=USD EUR INR GBP"`
	Period              *string    `json:"period,omitempty" form:"period" binding:"omitempty,oneof=hourly daily weekly monthly yearly"`
	Duration            *string    `json:"duration,omitempty" form:"duration" binding:"omitempty,max=100"`
	ApplicationDeadline *time.Time `json:"applicationDeadline,omitempty" form:"applicationDeadline"`
	StartDate           *time.Time `json:"startDate,omitempty" form:"startDate"`
	Tags                []string   `json:"tags,omitempty" form:"tags" binding:"omitempty,dive,max=50"`
	IsFeatured          *bool      `json:"isFeatured,omitempty" form:"isFeatured"`
}

// OpportunityListRequest represents opportunity listing parameters
type OpportunityListRequest struct {
	Type       string `form:"type"`
	Category   string `form:"category"`
	Location   string `form:"location"`
	Search     string `form:"search"`
	ActiveOnly *bool  `form:"activeOnly"`
	SortBy     string `form:"sortBy"`
	SortOrder  string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

// ApplyRequest carries an application
type ApplyRequest struct {
	CoverLetter string `json:"coverLetter" binding:"max=1000"`
	ResumeURL   string `json:"resumeUrl" binding:"omitempty,url" example:"https://drive.example.com/cv.pdf"`
}

// UpdateApplicationStatusRequest moves an application through review
type UpdateApplicationStatusRequest struct {
	Status models.ApplicationStatus `json:"status" binding:"required,oneof=pending reviewed shortlisted rejected accepted" example:"shortlisted"`
}

// OpportunityResponse is a listing with its derived attributes
type OpportunityResponse struct {
	models.Opportunity
	DeadlineStatus string `json:"deadlineStatus" example:"5 days left"`
	IsExpired      bool   `json:"isExpired"`
	IsUrgent       bool   `json:"isUrgent"`
}

// NewOpportunityResponse projects o at time now.
func NewOpportunityResponse(o *models.Opportunity, now time.Time) *OpportunityResponse {
	return &OpportunityResponse{
		Opportunity:    *o,
		DeadlineStatus: o.DeadlineLabel(now),
		IsExpired:      o.IsExpired(now),
		IsUrgent:       o.IsUrgent(now),
	}
}

// NewOpportunityResponses projects a page of listings.
func NewOpportunityResponses(items []models.Opportunity, now time.Time) []*OpportunityResponse {
	out := make([]*OpportunityResponse, 0, len(items))
	for i := range items {
		out = append(out, NewOpportunityResponse(&items[i], now))
	}
	return out
}
