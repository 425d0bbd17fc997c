package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shreyescodes/erp-portal/internal/app/auth"
	"github.com/shreyescodes/erp-portal/internal/app/models"
	"github.com/shreyescodes/erp-portal/internal/app/models/dto"
	"github.com/shreyescodes/erp-portal/internal/app/repositories"
	"github.com/shreyescodes/erp-portal/internal/pkg/apperrors"
	"github.com/shreyescodes/erp-portal/internal/pkg/filestorage"
	"github.com/shreyescodes/erp-portal/internal/pkg/helpers"
	"github.com/shreyescodes/erp-portal/internal/pkg/websocket"
)

const (
	defaultSalaryCurrency = "USD"
	defaultSalaryPeriod   = "monthly"
)

// OpportunityService defines the interface for opportunity operations
type OpportunityService interface {
	CreateOpportunity(ctx context.Context, requester auth.Requester, req *dto.CreateOpportunityRequest, photo *filestorage.Upload) (*models.Opportunity, error)
	ListOpportunities(ctx context.Context, req *dto.OpportunityListRequest, page, size int) (models.Page[models.Opportunity], error)
	GetOpportunityByID(ctx context.Context, id int64) (*models.Opportunity, error)
	Apply(ctx context.Context, requester auth.Requester, id int64, req *dto.ApplyRequest) (*models.Application, error)
	ListApplications(ctx context.Context, requester auth.Requester, id int64) ([]models.Application, error)
	UpdateApplicationStatus(ctx context.Context, requester auth.Requester, id, applicantID int64, status models.ApplicationStatus) error
	UpdateOpportunity(ctx context.Context, requester auth.Requester, id int64, req *dto.UpdateOpportunityRequest, photo *filestorage.Upload) (*models.Opportunity, error)
	DeleteOpportunity(ctx context.Context, requester auth.Requester, id int64) error
	ToggleActive(ctx context.Context, requester auth.Requester, id int64) (*models.Opportunity, error)
	GetStats(ctx context.Context, requester auth.Requester) (*models.OpportunityStats, error)
}

// opportunityServiceImpl implements OpportunityService
type opportunityServiceImpl struct {
	opportunityRepo OpportunityStore
	mediaStore      filestorage.MediaStore
	maxUploadBytes  int64
	events          websocket.Publisher
	logger          zerolog.Logger
	now             func() time.Time
}

// NewOpportunityService creates a new OpportunityService
func NewOpportunityService(
	opportunityRepo OpportunityStore,
	mediaStore filestorage.MediaStore,
	maxUploadBytes int64,
	events websocket.Publisher,
	logger zerolog.Logger,
) OpportunityService {
	return &opportunityServiceImpl{
		opportunityRepo: opportunityRepo,
		mediaStore:      mediaStore,
		maxUploadBytes:  maxUploadBytes,
		events:          events,
		logger:          logger,
		now:             time.Now,
	}
}

// validateSchedule checks that the deadline is ahead of now and the start date after the deadline.
func validateSchedule(deadline, start, now time.Time, fields map[string]string) {
	if !deadline.After(now) {
		fields["applicationDeadline"] = "must be in the future"
	}
	if !start.After(deadline) {
		fields["startDate"] = "must be after the application deadline"
	}
}

// validateSalary checks that the salary range is non-negative and ordered.
func validateSalary(lo, hi *float64, fields map[string]string) {
	if lo != nil && *lo < 0 {
		fields["salaryMin"] = "must not be negative"
	}
	if hi != nil && *hi < 0 {
		fields["salaryMax"] = "must not be negative"
	}
	if lo != nil && hi != nil && *hi < *lo {
		fields["salaryMax"] = "must be greater than or equal to the minimum salary"
	}
}

// CreateOpportunity validates and stores a new listing with an optional photo
func (s *opportunityServiceImpl) CreateOpportunity(ctx context.Context, requester auth.Requester, req *dto.CreateOpportunityRequest, photo *filestorage.Upload) (*models.Opportunity, error) {
	if req.IsFeatured && !requester.IsAdmin() {
		return nil, apperrors.NewForbiddenError("Only administrators can feature opportunities")
	}

	now := s.now().UTC()
	fields := map[string]string{}

	required := map[string]string{
		"title":       req.Title,
		"description": req.Description,
		"company":     req.Company,
		"location":    req.Location,
		"type":        req.Type,
		"category":    req.Category,
	}
	for field, value := range required {
		if strings.TrimSpace(value) == "" {
			fields[field] = "is required"
		}
	}
	if req.ApplicationDeadline == nil {
		fields["applicationDeadline"] = "is required"
	}
	if req.StartDate == nil {
		fields["startDate"] = "is required"
	}
	if req.ApplicationDeadline != nil && req.StartDate != nil {
		validateSchedule(*req.ApplicationDeadline, *req.StartDate, now, fields)
	}
	validateSalary(req.SalaryMin, req.SalaryMax, fields)
	if len(fields) > 0 {
		return nil, apperrors.NewValidationError("Invalid opportunity", fields)
	}

	opp := &models.Opportunity{
		Title:        strings.TrimSpace(req.Title),
		Description:  strings.TrimSpace(req.Description),
		Company:      strings.TrimSpace(req.Company),
		Location:     strings.TrimSpace(req.Location),
		Type:         models.OpportunityType(req.Type),
		Category:     models.OpportunityCategory(req.Category),
		Requirements: helpers.NormalizeTags(req.Requirements),
		Skills:       helpers.NormalizeTags(req.Skills),
		Salary: models.Salary{
			Min:      req.SalaryMin,
			Max:      req.SalaryMax,
			Currency: defaultSalaryCurrency,
			Period:   defaultSalaryPeriod,
		},
		Duration:            strings.TrimSpace(req.Duration),
		ApplicationDeadline: *req.ApplicationDeadline,
		StartDate:           *req.StartDate,
		IsActive:            true,
		IsFeatured:          req.IsFeatured,
		CreatedBy:           requester.ID,
		Tags:                helpers.NormalizeTags(req.Tags),
	}
	if req.Currency != "" {
		opp.Salary.Currency = req.Currency
	}
	if req.Period != "" {
		opp.Salary.Period = req.Period
	}

	if photo != nil {
		stored, err := s.storePhoto(ctx, photo)
		if err != nil {
			return nil, err
		}
		opp.PhotoURL = &stored.URL
		opp.PhotoStorageID = &stored.StorageID
	}

	opp.EnforceDeadline(now)
	if err := s.opportunityRepo.Create(ctx, opp); err != nil {
		s.deletePhoto(ctx, opp.PhotoStorageID)
		return nil, fmt.Errorf("error creating opportunity: %w", err)
	}

	s.logger.Info().Int64("opportunityId", opp.ID).Int64("createdBy", requester.ID).Msg("Opportunity created")
	publishEvent(s.events, websocket.Event{
		Type:      websocket.EventOpportunityCreated,
		EntityID:  opp.ID,
		Title:     opp.Title,
		ActorID:   requester.ID,
		Timestamp: now,
	})
	return opp, nil
}

// ListOpportunities returns a page of listings. activeOnly=true narrows it to
// active listings whose deadline is still ahead.
func (s *opportunityServiceImpl) ListOpportunities(ctx context.Context, req *dto.OpportunityListRequest, page, size int) (models.Page[models.Opportunity], error) {
	f := repositories.OpportunityFilter{
		Type:      req.Type,
		Category:  req.Category,
		Location:  req.Location,
		Search:    req.Search,
		Scope:     repositories.SearchScopeList,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
		Page:      page,
		Size:      size,
	}
	if req.ActiveOnly != nil && *req.ActiveOnly {
		now := s.now().UTC()
		f.OpenAt = &now
	}

	result, err := s.opportunityRepo.List(ctx, f)
	if err != nil {
		return result, fmt.Errorf("error listing opportunities: %w", err)
	}
	return result, nil
}

// GetOpportunityByID returns a listing and counts the view
func (s *opportunityServiceImpl) GetOpportunityByID(ctx context.Context, id int64) (*models.Opportunity, error) {
	opp, err := s.opportunityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting opportunity: %w", err)
	}

	views, err := s.opportunityRepo.IncrementViews(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error counting view: %w", err)
	}
	opp.Views = views
	return opp, nil
}

// Apply records the requester's application to an open listing
func (s *opportunityServiceImpl) Apply(ctx context.Context, requester auth.Requester, id int64, req *dto.ApplyRequest) (*models.Application, error) {
	opp, err := s.opportunityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting opportunity: %w", err)
	}

	now := s.now().UTC()
	if !opp.IsActive {
		return nil, apperrors.NewCustomError(apperrors.ErrOpportunityInactive, "This opportunity is no longer active")
	}
	if opp.IsExpired(now) {
		return nil, apperrors.NewCustomError(apperrors.ErrDeadlinePassed, "Application deadline has passed")
	}

	applied, err := s.opportunityRepo.HasApplied(ctx, id, requester.ID)
	if err != nil {
		return nil, fmt.Errorf("error checking existing application: %w", err)
	}
	if applied {
		return nil, apperrors.NewCustomError(apperrors.ErrDuplicateApplication, "You have already applied for this opportunity")
	}

	application := &models.Application{
		OpportunityID: id,
		ApplicantID:   requester.ID,
		CoverLetter:   strings.TrimSpace(req.CoverLetter),
		ResumeURL:     strings.TrimSpace(req.ResumeURL),
		Status:        models.ApplicationStatusPending,
		AppliedAt:     now,
	}
	if err := s.opportunityRepo.CreateApplication(ctx, application); err != nil {
		if errors.Is(err, apperrors.ErrDuplicateApplication) {
			return nil, apperrors.NewCustomError(apperrors.ErrDuplicateApplication, "You have already applied for this opportunity")
		}
		return nil, fmt.Errorf("error creating application: %w", err)
	}

	s.logger.Info().Int64("opportunityId", id).Int64("applicantId", requester.ID).Msg("Application submitted")
	return application, nil
}

// ListApplications returns the applications of a listing to its owner or an admin
func (s *opportunityServiceImpl) ListApplications(ctx context.Context, requester auth.Requester, id int64) ([]models.Application, error) {
	opp, err := s.opportunityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting opportunity: %w", err)
	}
	if err := auth.CanModify(requester, opp.CreatedBy, "You can only view applications of your own opportunities"); err != nil {
		return nil, err
	}

	apps, err := s.opportunityRepo.ListApplications(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error listing applications: %w", err)
	}
	return apps, nil
}

// UpdateApplicationStatus moves one application through review
func (s *opportunityServiceImpl) UpdateApplicationStatus(ctx context.Context, requester auth.Requester, id, applicantID int64, status models.ApplicationStatus) error {
	opp, err := s.opportunityRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("error getting opportunity: %w", err)
	}
	if err := auth.CanModify(requester, opp.CreatedBy, "You can only review applications of your own opportunities"); err != nil {
		return err
	}

	if err := s.opportunityRepo.UpdateApplicationStatus(ctx, id, applicantID, status); err != nil {
		return fmt.Errorf("error updating application status: %w", err)
	}
	return nil
}

// UpdateOpportunity applies the editable fields and re-checks the schedule
func (s *opportunityServiceImpl) UpdateOpportunity(ctx context.Context, requester auth.Requester, id int64, req *dto.UpdateOpportunityRequest, photo *filestorage.Upload) (*models.Opportunity, error) {
	opp, err := s.opportunityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting opportunity: %w", err)
	}
	if err := auth.CanModify(requester, opp.CreatedBy, "You can only edit your own opportunities"); err != nil {
		return nil, err
	}
	if req.IsFeatured != nil && !requester.IsAdmin() {
		return nil, apperrors.NewForbiddenError("Only administrators can feature opportunities")
	}

	now := s.now().UTC()
	fields := map[string]string{}

	setText := func(field string, src *string, dst *string) {
		if src == nil {
			return
		}
		v := strings.TrimSpace(*src)
		if v == "" {
			fields[field] = "cannot be empty"
			return
		}
		*dst = v
	}
	setText("title", req.Title, &opp.Title)
	setText("description", req.Description, &opp.Description)
	setText("company", req.Company, &opp.Company)
	setText("location", req.Location, &opp.Location)

	if req.Type != nil {
		opp.Type = models.OpportunityType(*req.Type)
	}
	if req.Category != nil {
		opp.Category = models.OpportunityCategory(*req.Category)
	}
	if req.Requirements != nil {
		opp.Requirements = helpers.NormalizeTags(req.Requirements)
	}
	if req.Skills != nil {
		opp.Skills = helpers.NormalizeTags(req.Skills)
	}
	if req.Tags != nil {
		opp.Tags = helpers.NormalizeTags(req.Tags)
	}
	if req.SalaryMin != nil {
		opp.Salary.Min = req.SalaryMin
	}
	if req.SalaryMax != nil {
		opp.Salary.Max = req.SalaryMax
	}
	if req.Currency != nil {
		opp.Salary.Currency = *req.Currency
	}
	if req.Period != nil {
		opp.Salary.Period = *req.Period
	}
	if req.Duration != nil {
		opp.Duration = strings.TrimSpace(*req.Duration)
	}
	if req.IsFeatured != nil {
		opp.IsFeatured = *req.IsFeatured
	}

	if req.ApplicationDeadline != nil || req.StartDate != nil {
		if req.ApplicationDeadline != nil {
			opp.ApplicationDeadline = *req.ApplicationDeadline
		}
		if req.StartDate != nil {
			opp.StartDate = *req.StartDate
		}
		validateSchedule(opp.ApplicationDeadline, opp.StartDate, now, fields)
	}
	validateSalary(opp.Salary.Min, opp.Salary.Max, fields)
	if len(fields) > 0 {
		return nil, apperrors.NewValidationError("Invalid opportunity", fields)
	}

	// The previous photo is removed only once the row points at the new one
	previous := opp.PhotoStorageID
	if photo != nil {
		stored, err := s.storePhoto(ctx, photo)
		if err != nil {
			return nil, err
		}
		opp.PhotoURL = &stored.URL
		opp.PhotoStorageID = &stored.StorageID
	}

	opp.EnforceDeadline(now)
	if err := s.opportunityRepo.Update(ctx, opp); err != nil {
		if photo != nil {
			s.deletePhoto(ctx, opp.PhotoStorageID)
		}
		return nil, fmt.Errorf("error updating opportunity: %w", err)
	}
	if photo != nil {
		s.deletePhoto(ctx, previous)
	}
	return opp, nil
}

// DeleteOpportunity removes a listing, its applications and, best effort, its photo
func (s *opportunityServiceImpl) DeleteOpportunity(ctx context.Context, requester auth.Requester, id int64) error {
	opp, err := s.opportunityRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("error getting opportunity: %w", err)
	}
	if err := auth.CanModify(requester, opp.CreatedBy, "You can only delete your own opportunities"); err != nil {
		return err
	}

	s.deletePhoto(ctx, opp.PhotoStorageID)

	if err := s.opportunityRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting opportunity: %w", err)
	}

	s.logger.Info().Int64("opportunityId", id).Int64("deletedBy", requester.ID).Msg("Opportunity deleted")
	return nil
}

// ToggleActive flips the active flag. A listing past its deadline cannot be re-activated.
func (s *opportunityServiceImpl) ToggleActive(ctx context.Context, requester auth.Requester, id int64) (*models.Opportunity, error) {
	opp, err := s.opportunityRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting opportunity: %w", err)
	}
	if err := auth.CanModify(requester, opp.CreatedBy, "You can only change the status of your own opportunities"); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	if !opp.IsActive && opp.IsExpired(now) {
		return nil, apperrors.NewCustomError(apperrors.ErrOpportunityExpired,
			"Cannot activate an opportunity whose application deadline has passed")
	}

	opp.IsActive = !opp.IsActive
	opp.EnforceDeadline(now)
	if err := s.opportunityRepo.Update(ctx, opp); err != nil {
		return nil, fmt.Errorf("error updating opportunity status: %w", err)
	}
	return opp, nil
}

// GetStats returns the opportunity dashboard numbers
func (s *opportunityServiceImpl) GetStats(ctx context.Context, requester auth.Requester) (*models.OpportunityStats, error) {
	if err := auth.RequireAdmin(requester); err != nil {
		return nil, err
	}
	stats, err := s.opportunityRepo.Stats(ctx, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("error getting opportunity stats: %w", err)
	}
	return stats, nil
}

func (s *opportunityServiceImpl) checkPhoto(photo *filestorage.Upload) error {
	if !filestorage.IsAllowedImage(photo.MimeType) {
		return apperrors.NewCustomError(apperrors.ErrUnsupportedMediaType, "Only image files are allowed")
	}
	return photo.CheckSize(s.maxUploadBytes)
}

func (s *opportunityServiceImpl) storePhoto(ctx context.Context, photo *filestorage.Upload) (*filestorage.StoredFile, error) {
	if err := s.checkPhoto(photo); err != nil {
		return nil, err
	}
	stored, err := s.mediaStore.Store(ctx, photo.File, photo.Size, photo.MimeType, filestorage.ProfileImage, photo.Filename)
	if err != nil {
		s.logger.Error().Err(err).Str("filename", photo.Filename).Msg("Failed to store opportunity photo")
		return nil, apperrors.NewUpstreamError("Failed to upload image", err)
	}
	return stored, nil
}

func (s *opportunityServiceImpl) deletePhoto(ctx context.Context, storageID *string) {
	if storageID == nil || *storageID == "" {
		return
	}
	if err := s.mediaStore.Delete(ctx, *storageID); err != nil {
		s.logger.Warn().Err(err).Str("storageId", *storageID).Msg("Failed to delete opportunity photo")
	}
}
