package controllers

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/shreyescodes/erp-portal/internal/app/auth"
	"github.com/shreyescodes/erp-portal/internal/app/models"
	"github.com/shreyescodes/erp-portal/internal/app/models/dto"
	"github.com/shreyescodes/erp-portal/internal/pkg/filestorage"
)

// MockContentService mocks services.ContentService
type MockContentService struct {
	mock.Mock
}

func (m *MockContentService) UploadContent(ctx context.Context, requester auth.Requester, file *filestorage.Upload, req *dto.UploadContentRequest) (*models.Content, error) {
	args := m.Called(ctx, requester, file, req)
	c, _ := args.Get(0).(*models.Content)
	return c, args.Error(1)
}

func (m *MockContentService) ListContent(ctx context.Context, requester auth.Requester, req *dto.ContentListRequest, page, size int) (models.Page[models.Content], error) {
	args := m.Called(ctx, requester, req, page, size)
	return args.Get(0).(models.Page[models.Content]), args.Error(1)
}

func (m *MockContentService) GetContentByID(ctx context.Context, requester auth.Requester, id int64) (*models.Content, error) {
	args := m.Called(ctx, requester, id)
	c, _ := args.Get(0).(*models.Content)
	return c, args.Error(1)
}

func (m *MockContentService) RecordDownload(ctx context.Context, id int64) (*dto.DownloadResponse, error) {
	args := m.Called(ctx, id)
	r, _ := args.Get(0).(*dto.DownloadResponse)
	return r, args.Error(1)
}

func (m *MockContentService) ApproveContent(ctx context.Context, requester auth.Requester, id int64) (*models.Content, error) {
	args := m.Called(ctx, requester, id)
	c, _ := args.Get(0).(*models.Content)
	return c, args.Error(1)
}

func (m *MockContentService) RejectContent(ctx context.Context, requester auth.Requester, id int64, reason string) (*models.Content, error) {
	args := m.Called(ctx, requester, id, reason)
	c, _ := args.Get(0).(*models.Content)
	return c, args.Error(1)
}

func (m *MockContentService) UpdateContent(ctx context.Context, requester auth.Requester, id int64, req *dto.UpdateContentRequest) (*models.Content, error) {
	args := m.Called(ctx, requester, id, req)
	c, _ := args.Get(0).(*models.Content)
	return c, args.Error(1)
}

func (m *MockContentService) DeleteContent(ctx context.Context, requester auth.Requester, id int64) error {
	args := m.Called(ctx, requester, id)
	return args.Error(0)
}

func (m *MockContentService) GetStats(ctx context.Context, requester auth.Requester) (*models.ContentStats, error) {
	args := m.Called(ctx, requester)
	s, _ := args.Get(0).(*models.ContentStats)
	return s, args.Error(1)
}

// MockComplaintService mocks services.ComplaintService
type MockComplaintService struct {
	mock.Mock
}

func (m *MockComplaintService) CreateComplaint(ctx context.Context, requester auth.Requester, req *dto.CreateComplaintRequest) (*models.Complaint, error) {
	args := m.Called(ctx, requester, req)
	c, _ := args.Get(0).(*models.Complaint)
	return c, args.Error(1)
}

func (m *MockComplaintService) ListComplaints(ctx context.Context, requester auth.Requester, req *dto.ComplaintListRequest, page, size int) (models.Page[models.Complaint], error) {
	args := m.Called(ctx, requester, req, page, size)
	return args.Get(0).(models.Page[models.Complaint]), args.Error(1)
}

func (m *MockComplaintService) GetComplaintByID(ctx context.Context, requester auth.Requester, id int64) (*models.Complaint, error) {
	args := m.Called(ctx, requester, id)
	c, _ := args.Get(0).(*models.Complaint)
	return c, args.Error(1)
}

func (m *MockComplaintService) UpdateComplaint(ctx context.Context, requester auth.Requester, id int64, req *dto.UpdateComplaintRequest) (*models.Complaint, error) {
	args := m.Called(ctx, requester, id, req)
	c, _ := args.Get(0).(*models.Complaint)
	return c, args.Error(1)
}

func (m *MockComplaintService) DeleteComplaint(ctx context.Context, requester auth.Requester, id int64) error {
	args := m.Called(ctx, requester, id)
	return args.Error(0)
}

func (m *MockComplaintService) AssignComplaint(ctx context.Context, requester auth.Requester, id int64, req *dto.AssignComplaintRequest) (*models.Complaint, error) {
	args := m.Called(ctx, requester, id, req)
	c, _ := args.Get(0).(*models.Complaint)
	return c, args.Error(1)
}

func (m *MockComplaintService) UpdateStatus(ctx context.Context, requester auth.Requester, id int64, req *dto.UpdateComplaintStatusRequest) (*models.Complaint, error) {
	args := m.Called(ctx, requester, id, req)
	c, _ := args.Get(0).(*models.Complaint)
	return c, args.Error(1)
}

func (m *MockComplaintService) AddAttachment(ctx context.Context, requester auth.Requester, id int64, file *filestorage.Upload) (*models.Attachment, error) {
	args := m.Called(ctx, requester, id, file)
	a, _ := args.Get(0).(*models.Attachment)
	return a, args.Error(1)
}

func (m *MockComplaintService) SubmitFeedback(ctx context.Context, requester auth.Requester, id int64, req *dto.ComplaintFeedbackRequest) (*models.Complaint, error) {
	args := m.Called(ctx, requester, id, req)
	c, _ := args.Get(0).(*models.Complaint)
	return c, args.Error(1)
}

func (m *MockComplaintService) GetStats(ctx context.Context, requester auth.Requester) (*models.ComplaintStats, error) {
	args := m.Called(ctx, requester)
	s, _ := args.Get(0).(*models.ComplaintStats)
	return s, args.Error(1)
}

// MockSearchService mocks services.SearchService
type MockSearchService struct {
	mock.Mock
}

func (m *MockSearchService) GlobalSearch(ctx context.Context, requester auth.Requester, req *dto.GlobalSearchRequest, page, limit int) (*dto.GlobalSearchResult, error) {
	args := m.Called(ctx, requester, req, page, limit)
	r, _ := args.Get(0).(*dto.GlobalSearchResult)
	return r, args.Error(1)
}

func (m *MockSearchService) SearchContent(ctx context.Context, requester auth.Requester, req *dto.ContentSearchRequest, page, limit int) (*dto.ContentSearchResult, error) {
	args := m.Called(ctx, requester, req, page, limit)
	r, _ := args.Get(0).(*dto.ContentSearchResult)
	return r, args.Error(1)
}

func (m *MockSearchService) SearchOpportunities(ctx context.Context, req *dto.OpportunitySearchRequest, page, limit int) (*dto.OpportunitySearchResult, error) {
	args := m.Called(ctx, req, page, limit)
	r, _ := args.Get(0).(*dto.OpportunitySearchResult)
	return r, args.Error(1)
}

func (m *MockSearchService) Suggestions(ctx context.Context, requester auth.Requester, query, searchType string) ([]dto.Suggestion, error) {
	args := m.Called(ctx, requester, query, searchType)
	s, _ := args.Get(0).([]dto.Suggestion)
	return s, args.Error(1)
}

func (m *MockSearchService) Analytics(ctx context.Context, period string) (*dto.AnalyticsResponse, error) {
	args := m.Called(ctx, period)
	r, _ := args.Get(0).(*dto.AnalyticsResponse)
	return r, args.Error(1)
}
