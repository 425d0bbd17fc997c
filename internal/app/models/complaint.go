package models

import "time"

// ComplaintStatus is the triage state of a complaint. Closed is terminal.
type ComplaintStatus string

const (
	ComplaintStatusOpen       ComplaintStatus = "open"
	ComplaintStatusAssigned   ComplaintStatus = "assigned"
	ComplaintStatusInProgress ComplaintStatus = "in-progress"
	ComplaintStatusResolved   ComplaintStatus = "resolved"
	ComplaintStatusClosed     ComplaintStatus = "closed"
)

// IsValid reports whether s is a known status.
func (s ComplaintStatus) IsValid() bool {
	switch s {
	case ComplaintStatusOpen, ComplaintStatusAssigned, ComplaintStatusInProgress,
		ComplaintStatusResolved, ComplaintStatusClosed:
		return true
	}
	return false
}

// ComplaintCategory classifies a complaint.
type ComplaintCategory string

const (
	ComplaintCategoryAcademic       ComplaintCategory = "academic"
	ComplaintCategoryTechnical      ComplaintCategory = "technical"
	ComplaintCategoryFacility       ComplaintCategory = "facility"
	ComplaintCategoryAdministrative ComplaintCategory = "administrative"
	ComplaintCategoryGeneral        ComplaintCategory = "general"
	ComplaintCategoryOther          ComplaintCategory = "other"
)

// Priority orders complaints for triage.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// DefaultEstimatedResolutionDays applies when the submitter gives no estimate.
const DefaultEstimatedResolutionDays = 7

// MaxComplaintAttachments caps the attachment list of one complaint.
const MaxComplaintAttachments = 5

// Attachment is a file linked to a complaint.
type Attachment struct {
	ID          int64     `json:"id" db:"id"`
	ComplaintID int64     `json:"complaintId" db:"complaint_id"`
	Filename    string    `json:"filename" db:"filename" example:"broken-projector.jpg"`
	URL         string    `json:"url" db:"url"`
	StorageID   string    `json:"-" db:"storage_id"`
	UploadedAt  time.Time `json:"uploadedAt" db:"uploaded_at"`
}

// Complaint is a user-filed issue in the 'complaints' table.
type Complaint struct {
	ID                      int64             `json:"id" db:"id" example:"1"`
	Subject                 string            `json:"subject" db:"subject" example:"Projector in room 204 is broken"`
	Message                 string            `json:"message" db:"message"`
	Category                ComplaintCategory `json:"category" db:"category" example:"facility"`
	Priority                Priority          `json:"priority" db:"priority" example:"medium"`
	Status                  ComplaintStatus   `json:"status" db:"status" example:"open"`
	SubmittedBy             int64             `json:"submittedBy" db:"submitted_by" example:"7"`
	AssignedTo              *int64            `json:"assignedTo,omitempty" db:"assigned_to"`
	AssignedAt              *time.Time        `json:"assignedAt,omitempty" db:"assigned_at"`
	ResolvedAt              *time.Time        `json:"resolvedAt,omitempty" db:"resolved_at"`
	ResolvedBy              *int64            `json:"resolvedBy,omitempty" db:"resolved_by"`
	Resolution              *string           `json:"resolution,omitempty" db:"resolution"`
	ClosedAt                *time.Time        `json:"closedAt,omitempty" db:"closed_at"`
	Tags                    []string          `json:"tags" db:"tags"`
	IsAnonymous             bool              `json:"isAnonymous" db:"is_anonymous"`
	IsUrgent                bool              `json:"isUrgent" db:"is_urgent"`
	EstimatedResolutionTime int               `json:"estimatedResolutionTime" db:"estimated_resolution_time" example:"7"`
	FollowUpRequired        bool              `json:"followUpRequired" db:"follow_up_required"`
	FollowUpDate            *time.Time        `json:"followUpDate,omitempty" db:"follow_up_date"`
	SatisfactionRating      *int              `json:"satisfactionRating,omitempty" db:"satisfaction_rating"`
	Feedback                *string           `json:"feedback,omitempty" db:"feedback"`
	CreatedAt               time.Time         `json:"createdAt" db:"created_at"`
	UpdatedAt               time.Time         `json:"updatedAt" db:"updated_at"`

	Submitter   *UserSummary `json:"submitter,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

// ApplyUrgency keeps IsUrgent and the urgent priority in step.
func (c *Complaint) ApplyUrgency() {
	if c.IsUrgent {
		c.Priority = PriorityUrgent
	} else if c.Priority == PriorityUrgent {
		c.IsUrgent = true
	}
}

// IsFinished reports whether the complaint is resolved or closed.
func (c *Complaint) IsFinished() bool {
	return c.Status == ComplaintStatusResolved || c.Status == ComplaintStatusClosed
}

// TransitionTo moves the complaint into status, stamping resolvedAt and closedAt
// on the first entry into those states only.
func (c *Complaint) TransitionTo(status ComplaintStatus, now time.Time) {
	c.Status = status
	switch status {
	case ComplaintStatusResolved:
		if c.ResolvedAt == nil {
			c.ResolvedAt = &now
		}
	case ComplaintStatusClosed:
		if c.ClosedAt == nil {
			c.ClosedAt = &now
		}
	}
}

// Age renders how long ago the complaint was filed.
func (c *Complaint) Age(now time.Time) string {
	return ageLabel(c.CreatedAt, now)
}

// TimeSinceAssignment renders how long ago the complaint was assigned, nil if it never was.
func (c *Complaint) TimeSinceAssignment(now time.Time) *string {
	if c.AssignedAt == nil {
		return nil
	}
	label := ageLabel(*c.AssignedAt, now)
	return &label
}

// IsOverdue reports whether an unfinished complaint has outlived its estimate.
func (c *Complaint) IsOverdue(now time.Time) bool {
	if c.IsFinished() {
		return false
	}
	return elapsedDays(c.CreatedAt, now) > c.EstimatedResolutionTime
}

// DaysUntilFollowUp renders the follow-up countdown, nil without a follow-up date.
func (c *Complaint) DaysUntilFollowUp(now time.Time) *string {
	if c.FollowUpDate == nil {
		return nil
	}
	label := countdownLabel(*c.FollowUpDate, now, "Overdue")
	return &label
}

// ComplaintStats counts complaints by state, category and priority.
type ComplaintStats struct {
	Total      int64         `json:"total"`
	Open       int64         `json:"open"`
	Assigned   int64         `json:"assigned"`
	InProgress int64         `json:"inProgress"`
	Resolved   int64         `json:"resolved"`
	Closed     int64         `json:"closed"`
	Urgent     int64         `json:"urgent"`
	ByCategory []CountBucket `json:"byCategory"`
	ByPriority []CountBucket `json:"byPriority"`
}
