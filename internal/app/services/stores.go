package services

import (
	"context"
	"time"

	"github.com/shreyescodes/erp-portal/internal/app/models"
	"github.com/shreyescodes/erp-portal/internal/app/repositories"
)

// The store interfaces below are the repository methods each service needs.
// The repositories package satisfies them with its pgx implementations.

// UserStore persists users.
type UserStore interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	EmailExists(ctx context.Context, email string) (bool, error)
	USNExists(ctx context.Context, usn string, excludeID int64) (bool, error)
	Update(ctx context.Context, user *models.User) error
	UpdatePassword(ctx context.Context, userID int64, hash string) error
	UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f repositories.UserFilter) (models.Page[models.User], error)
	SuggestNames(ctx context.Context, query string, limit int) ([]string, error)
	ActiveByRole(ctx context.Context, since time.Time) ([]models.CountBucket, error)
}

// TokenStore persists refresh tokens.
type TokenStore interface {
	CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error
	GetToken(ctx context.Context, token string) (*models.RefreshToken, error)
	RevokeToken(ctx context.Context, token string) error
	RevokeAllUserTokens(ctx context.Context, userID int64) error
}

// ContentStore persists content.
type ContentStore interface {
	Create(ctx context.Context, c *models.Content) error
	GetByID(ctx context.Context, id int64) (*models.Content, error)
	IncrementViews(ctx context.Context, id int64) (int64, error)
	IncrementDownloads(ctx context.Context, id int64) (string, int64, error)
	Update(ctx context.Context, c *models.Content) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f repositories.ContentFilter) (models.Page[models.Content], error)
	Stats(ctx context.Context) (*models.ContentStats, error)
	Facets(ctx context.Context) (*models.ContentFacets, error)
	SuggestTitles(ctx context.Context, query string, limit int) ([]string, error)
	ActivityByCategory(ctx context.Context, since time.Time) ([]models.CategoryActivity, error)
}

// OpportunityStore persists opportunities and their applications.
type OpportunityStore interface {
	Create(ctx context.Context, o *models.Opportunity) error
	GetByID(ctx context.Context, id int64) (*models.Opportunity, error)
	IncrementViews(ctx context.Context, id int64) (int64, error)
	Update(ctx context.Context, o *models.Opportunity) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f repositories.OpportunityFilter) (models.Page[models.Opportunity], error)
	HasApplied(ctx context.Context, opportunityID, applicantID int64) (bool, error)
	CreateApplication(ctx context.Context, a *models.Application) error
	ListApplications(ctx context.Context, opportunityID int64) ([]models.Application, error)
	UpdateApplicationStatus(ctx context.Context, opportunityID, applicantID int64, status models.ApplicationStatus) error
	Stats(ctx context.Context, now time.Time) (*models.OpportunityStats, error)
	Facets(ctx context.Context) (*models.OpportunityFacets, error)
	SuggestTitles(ctx context.Context, query string, limit int) ([]string, error)
	ActivityByCategory(ctx context.Context, since time.Time) ([]models.CategoryActivity, error)
}

// ComplaintStore persists complaints and their attachments.
type ComplaintStore interface {
	Create(ctx context.Context, c *models.Complaint) error
	GetByID(ctx context.Context, id int64) (*models.Complaint, error)
	Update(ctx context.Context, c *models.Complaint) error
	Delete(ctx context.Context, id int64) error
	List(ctx context.Context, f repositories.ComplaintFilter) (models.Page[models.Complaint], error)
	ListAttachments(ctx context.Context, complaintID int64) ([]models.Attachment, error)
	AddAttachment(ctx context.Context, a *models.Attachment, limit int) error
	Stats(ctx context.Context, submittedBy *int64) (*models.ComplaintStats, error)
}

var (
	_ UserStore        = (*repositories.UserRepository)(nil)
	_ TokenStore       = (*repositories.TokenRepository)(nil)
	_ ContentStore     = (*repositories.ContentRepository)(nil)
	_ OpportunityStore = (*repositories.OpportunityRepository)(nil)
	_ ComplaintStore   = (*repositories.ComplaintRepository)(nil)
)
