package services

import (
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/mock"

	"github.com/shreyescodes/erp-portal/internal/app/auth"
	"github.com/shreyescodes/erp-portal/internal/app/models"
	"github.com/shreyescodes/erp-portal/internal/app/repositories"
	"github.com/shreyescodes/erp-portal/internal/pkg/filestorage"
	"github.com/shreyescodes/erp-portal/internal/pkg/websocket"
)

var (
	testNow  = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	admin    = auth.Requester{ID: 1, Role: models.RoleAdmin}
	owner    = auth.Requester{ID: 7, Role: models.RoleUser}
	stranger = auth.Requester{ID: 9, Role: models.RoleUser}
)

const testUploadLimit = 10 * 1024 * 1024

func fixedNow() time.Time { return testNow }

func nopLogger() zerolog.Logger { return zerolog.Nop() }

func testUpload(filename, mimeType, body string) *filestorage.Upload {
	return &filestorage.Upload{
		File:     io.NopCloser(strings.NewReader(body)),
		Filename: filename,
		Size:     int64(len(body)),
		MimeType: mimeType,
	}
}

// MockUserStore mocks UserStore
type MockUserStore struct {
	mock.Mock
}

func (m *MockUserStore) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStore) GetByID(ctx context.Context, id int64) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserStore) EmailExists(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserStore) USNExists(ctx context.Context, usn string, excludeID int64) (bool, error) {
	args := m.Called(ctx, usn, excludeID)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserStore) Update(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserStore) UpdatePassword(ctx context.Context, userID int64, hash string) error {
	args := m.Called(ctx, userID, hash)
	return args.Error(0)
}

func (m *MockUserStore) UpdateLastLogin(ctx context.Context, userID int64, at time.Time) error {
	args := m.Called(ctx, userID, at)
	return args.Error(0)
}

func (m *MockUserStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserStore) List(ctx context.Context, f repositories.UserFilter) (models.Page[models.User], error) {
	args := m.Called(ctx, f)
	return args.Get(0).(models.Page[models.User]), args.Error(1)
}

func (m *MockUserStore) SuggestNames(ctx context.Context, query string, limit int) ([]string, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockUserStore) ActiveByRole(ctx context.Context, since time.Time) ([]models.CountBucket, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CountBucket), args.Error(1)
}

// MockTokenStore mocks TokenStore
type MockTokenStore struct {
	mock.Mock
}

func (m *MockTokenStore) CreateToken(ctx context.Context, token string, userID int64, expiryDate time.Time) error {
	args := m.Called(ctx, token, userID, expiryDate)
	return args.Error(0)
}

func (m *MockTokenStore) GetToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.RefreshToken), args.Error(1)
}

func (m *MockTokenStore) RevokeToken(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

func (m *MockTokenStore) RevokeAllUserTokens(ctx context.Context, userID int64) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

// MockContentStore mocks ContentStore
type MockContentStore struct {
	mock.Mock
}

func (m *MockContentStore) Create(ctx context.Context, c *models.Content) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockContentStore) GetByID(ctx context.Context, id int64) (*models.Content, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Content), args.Error(1)
}

func (m *MockContentStore) IncrementViews(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockContentStore) IncrementDownloads(ctx context.Context, id int64) (string, int64, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Get(1).(int64), args.Error(2)
}

func (m *MockContentStore) Update(ctx context.Context, c *models.Content) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockContentStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockContentStore) List(ctx context.Context, f repositories.ContentFilter) (models.Page[models.Content], error) {
	args := m.Called(ctx, f)
	return args.Get(0).(models.Page[models.Content]), args.Error(1)
}

func (m *MockContentStore) Stats(ctx context.Context) (*models.ContentStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ContentStats), args.Error(1)
}

func (m *MockContentStore) Facets(ctx context.Context) (*models.ContentFacets, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ContentFacets), args.Error(1)
}

func (m *MockContentStore) SuggestTitles(ctx context.Context, query string, limit int) ([]string, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockContentStore) ActivityByCategory(ctx context.Context, since time.Time) ([]models.CategoryActivity, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CategoryActivity), args.Error(1)
}

// MockOpportunityStore mocks OpportunityStore
type MockOpportunityStore struct {
	mock.Mock
}

func (m *MockOpportunityStore) Create(ctx context.Context, o *models.Opportunity) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOpportunityStore) GetByID(ctx context.Context, id int64) (*models.Opportunity, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Opportunity), args.Error(1)
}

func (m *MockOpportunityStore) IncrementViews(ctx context.Context, id int64) (int64, error) {
	args := m.Called(ctx, id)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockOpportunityStore) Update(ctx context.Context, o *models.Opportunity) error {
	args := m.Called(ctx, o)
	return args.Error(0)
}

func (m *MockOpportunityStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOpportunityStore) List(ctx context.Context, f repositories.OpportunityFilter) (models.Page[models.Opportunity], error) {
	args := m.Called(ctx, f)
	return args.Get(0).(models.Page[models.Opportunity]), args.Error(1)
}

func (m *MockOpportunityStore) HasApplied(ctx context.Context, opportunityID, applicantID int64) (bool, error) {
	args := m.Called(ctx, opportunityID, applicantID)
	return args.Bool(0), args.Error(1)
}

func (m *MockOpportunityStore) CreateApplication(ctx context.Context, a *models.Application) error {
	args := m.Called(ctx, a)
	return args.Error(0)
}

func (m *MockOpportunityStore) ListApplications(ctx context.Context, opportunityID int64) ([]models.Application, error) {
	args := m.Called(ctx, opportunityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Application), args.Error(1)
}

func (m *MockOpportunityStore) UpdateApplicationStatus(ctx context.Context, opportunityID, applicantID int64, status models.ApplicationStatus) error {
	args := m.Called(ctx, opportunityID, applicantID, status)
	return args.Error(0)
}

func (m *MockOpportunityStore) Stats(ctx context.Context, now time.Time) (*models.OpportunityStats, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OpportunityStats), args.Error(1)
}

func (m *MockOpportunityStore) Facets(ctx context.Context) (*models.OpportunityFacets, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.OpportunityFacets), args.Error(1)
}

func (m *MockOpportunityStore) SuggestTitles(ctx context.Context, query string, limit int) ([]string, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockOpportunityStore) ActivityByCategory(ctx context.Context, since time.Time) ([]models.CategoryActivity, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CategoryActivity), args.Error(1)
}

// MockComplaintStore mocks ComplaintStore
type MockComplaintStore struct {
	mock.Mock
}

func (m *MockComplaintStore) Create(ctx context.Context, c *models.Complaint) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockComplaintStore) GetByID(ctx context.Context, id int64) (*models.Complaint, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Complaint), args.Error(1)
}

func (m *MockComplaintStore) Update(ctx context.Context, c *models.Complaint) error {
	args := m.Called(ctx, c)
	return args.Error(0)
}

func (m *MockComplaintStore) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockComplaintStore) List(ctx context.Context, f repositories.ComplaintFilter) (models.Page[models.Complaint], error) {
	args := m.Called(ctx, f)
	return args.Get(0).(models.Page[models.Complaint]), args.Error(1)
}

func (m *MockComplaintStore) ListAttachments(ctx context.Context, complaintID int64) ([]models.Attachment, error) {
	args := m.Called(ctx, complaintID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Attachment), args.Error(1)
}

func (m *MockComplaintStore) AddAttachment(ctx context.Context, a *models.Attachment, limit int) error {
	args := m.Called(ctx, a, limit)
	return args.Error(0)
}

func (m *MockComplaintStore) Stats(ctx context.Context, submittedBy *int64) (*models.ComplaintStats, error) {
	args := m.Called(ctx, submittedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ComplaintStats), args.Error(1)
}

// MockMediaStore mocks filestorage.MediaStore
type MockMediaStore struct {
	mock.Mock
}

func (m *MockMediaStore) Store(ctx context.Context, r io.Reader, size int64, mimeType string, profile filestorage.Profile, filename string) (*filestorage.StoredFile, error) {
	args := m.Called(ctx, r, size, mimeType, profile, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*filestorage.StoredFile), args.Error(1)
}

func (m *MockMediaStore) Delete(ctx context.Context, storageID string) error {
	args := m.Called(ctx, storageID)
	return args.Error(0)
}

// MockMailer mocks email.EmailService
type MockMailer struct {
	mock.Mock
}

func (m *MockMailer) SendContentApproved(toEmail, toName, title string) error {
	args := m.Called(toEmail, toName, title)
	return args.Error(0)
}

func (m *MockMailer) SendContentRejected(toEmail, toName, title, reason string) error {
	args := m.Called(toEmail, toName, title, reason)
	return args.Error(0)
}

func (m *MockMailer) SendComplaintAssigned(toEmail, toName, subject string) error {
	args := m.Called(toEmail, toName, subject)
	return args.Error(0)
}

func (m *MockMailer) SendComplaintStatusChanged(toEmail, toName, subject, status string) error {
	args := m.Called(toEmail, toName, subject, status)
	return args.Error(0)
}

// recordingPublisher keeps every published event
type recordingPublisher struct {
	mu     sync.Mutex
	events []websocket.Event
}

func (p *recordingPublisher) Publish(event websocket.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *recordingPublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Type)
	}
	return out
}
