package models

import "time"

// OpportunityType is the kind of engagement offered.
type OpportunityType string

const (
	OpportunityTypeInternship OpportunityType = "internship"
	OpportunityTypeFullTime   OpportunityType = "full-time"
	OpportunityTypePartTime   OpportunityType = "part-time"
	OpportunityTypeFreelance  OpportunityType = "freelance"
	OpportunityTypeVolunteer  OpportunityType = "volunteer"
)

// OpportunityCategory is the field of an opportunity.
type OpportunityCategory string

const (
	OpportunityCategoryTechnical    OpportunityCategory = "technical"
	OpportunityCategoryNonTechnical OpportunityCategory = "non-technical"
	OpportunityCategoryResearch     OpportunityCategory = "research"
	OpportunityCategoryDesign       OpportunityCategory = "design"
	OpportunityCategoryMarketing    OpportunityCategory = "marketing"
	OpportunityCategoryOther        OpportunityCategory = "other"
)

// ApplicationStatus tracks an application through review.
type ApplicationStatus string

const (
	ApplicationStatusPending     ApplicationStatus = "pending"
	ApplicationStatusReviewed    ApplicationStatus = "reviewed"
	ApplicationStatusShortlisted ApplicationStatus = "shortlisted"
	ApplicationStatusRejected    ApplicationStatus = "rejected"
	ApplicationStatusAccepted    ApplicationStatus = "accepted"
)

// Salary is the optional compensation range of an opportunity.
type Salary struct {
	Min      *float64 `json:"min,omitempty" example:"10000"`
	Max      *float64 `json:"max,omitempty" example:"20000"`
	Currency string   `json:"currency" example:"INR"`
	Period   string   `json:"period" example:"monthly"`
}

// Opportunity is a posted listing in the 'opportunities' table.
type Opportunity struct {
	ID                  int64               `json:"id" db:"id" example:"1"`
	Title               string              `json:"title" db:"title" example:"Backend intern"`
	Description         string              `json:"description" db:"description"`
	Company             string              `json:"company" db:"company" example:"Acme"`
	Location            string              `json:"location" db:"location" example:"Bengaluru"`
	Type                OpportunityType     `json:"type" db:"type" example:"internship"`
	Category            OpportunityCategory `json:"category" db:"category" example:"technical"`
	Requirements        []string            `json:"requirements" db:"requirements"`
	Skills              []string            `json:"skills" db:"skills"`
	Salary              Salary              `json:"salary"`
	Duration            string              `json:"duration,omitempty" db:"duration" example:"6 months"`
	ApplicationDeadline time.Time           `json:"applicationDeadline" db:"application_deadline"`
	StartDate           time.Time           `json:"startDate" db:"start_date"`
	PhotoURL            *string             `json:"photoUrl,omitempty" db:"photo_url"`
	PhotoStorageID      *string             `json:"-" db:"photo_storage_id"`
	IsActive            bool                `json:"isActive" db:"is_active" example:"true"`
	IsFeatured          bool                `json:"isFeatured" db:"is_featured" example:"false"`
	CreatedBy           int64               `json:"createdBy" db:"created_by" example:"7"`
	Views               int64               `json:"views" db:"views" example:"0"`
	Tags                []string            `json:"tags" db:"tags"`
	ApplicationCount    int                 `json:"applicationCount" example:"0"`
	CreatedAt           time.Time           `json:"createdAt" db:"created_at"`
	UpdatedAt           time.Time           `json:"updatedAt" db:"updated_at"`

	Creator *UserSummary `json:"creator,omitempty"`
}

// Application is a row of 'opportunity_applications'.
type Application struct {
	ID            int64             `json:"id" db:"id"`
	OpportunityID int64             `json:"opportunityId" db:"opportunity_id"`
	ApplicantID   int64             `json:"applicantId" db:"applicant_id"`
	CoverLetter   string            `json:"coverLetter" db:"cover_letter"`
	ResumeURL     string            `json:"resumeUrl" db:"resume_url"`
	Status        ApplicationStatus `json:"status" db:"status" example:"pending"`
	AppliedAt     time.Time         `json:"appliedAt" db:"applied_at"`

	Applicant *UserSummary `json:"applicant,omitempty"`
}

// IsExpired reports whether the application deadline has passed.
func (o *Opportunity) IsExpired(now time.Time) bool {
	return now.After(o.ApplicationDeadline)
}

// IsUrgent reports whether the deadline falls within the next seven days.
func (o *Opportunity) IsUrgent(now time.Time) bool {
	days := ceilDays(now, o.ApplicationDeadline)
	return days >= 0 && days <= 7
}

// DeadlineLabel renders the days left to apply.
func (o *Opportunity) DeadlineLabel(now time.Time) string {
	return countdownLabel(o.ApplicationDeadline, now, "Expired")
}

// EnforceDeadline clears IsActive once the deadline has passed. It runs before every save.
func (o *Opportunity) EnforceDeadline(now time.Time) {
	if !o.ApplicationDeadline.After(now) {
		o.IsActive = false
	}
}

// OpportunityStats is the dashboard aggregate over all opportunities.
type OpportunityStats struct {
	TotalOpportunities  int64         `json:"totalOpportunities"`
	ActiveOpportunities int64         `json:"activeOpportunities"`
	TotalApplications   int64         `json:"totalApplications"`
	TotalViews          int64         `json:"totalViews"`
	TypeBreakdown       []CountBucket `json:"typeBreakdown"`
	CategoryBreakdown   []CountBucket `json:"categoryBreakdown"`
}
