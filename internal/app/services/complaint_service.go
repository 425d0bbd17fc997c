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
	"github.com/shreyescodes/erp-portal/internal/pkg/email"
	"github.com/shreyescodes/erp-portal/internal/pkg/filestorage"
	"github.com/shreyescodes/erp-portal/internal/pkg/helpers"
	"github.com/shreyescodes/erp-portal/internal/pkg/websocket"
)

// ComplaintService defines the interface for complaint operations
type ComplaintService interface {
	CreateComplaint(ctx context.Context, requester auth.Requester, req *dto.CreateComplaintRequest) (*models.Complaint, error)
	ListComplaints(ctx context.Context, requester auth.Requester, req *dto.ComplaintListRequest, page, size int) (models.Page[models.Complaint], error)
	GetComplaintByID(ctx context.Context, requester auth.Requester, id int64) (*models.Complaint, error)
	UpdateComplaint(ctx context.Context, requester auth.Requester, id int64, req *dto.UpdateComplaintRequest) (*models.Complaint, error)
	DeleteComplaint(ctx context.Context, requester auth.Requester, id int64) error
	AssignComplaint(ctx context.Context, requester auth.Requester, id int64, req *dto.AssignComplaintRequest) (*models.Complaint, error)
	UpdateStatus(ctx context.Context, requester auth.Requester, id int64, req *dto.UpdateComplaintStatusRequest) (*models.Complaint, error)
	AddAttachment(ctx context.Context, requester auth.Requester, id int64, file *filestorage.Upload) (*models.Attachment, error)
	SubmitFeedback(ctx context.Context, requester auth.Requester, id int64, req *dto.ComplaintFeedbackRequest) (*models.Complaint, error)
	GetStats(ctx context.Context, requester auth.Requester) (*models.ComplaintStats, error)
}

// complaintServiceImpl implements ComplaintService
type complaintServiceImpl struct {
	complaintRepo  ComplaintStore
	userRepo       UserStore
	mediaStore     filestorage.MediaStore
	maxUploadBytes int64
	mailer         email.EmailService
	events         websocket.Publisher
	logger         zerolog.Logger
	now            func() time.Time
}

// NewComplaintService creates a new ComplaintService
func NewComplaintService(
	complaintRepo ComplaintStore,
	userRepo UserStore,
	mediaStore filestorage.MediaStore,
	maxUploadBytes int64,
	mailer email.EmailService,
	events websocket.Publisher,
	logger zerolog.Logger,
) ComplaintService {
	return &complaintServiceImpl{
		complaintRepo:  complaintRepo,
		userRepo:       userRepo,
		mediaStore:     mediaStore,
		maxUploadBytes: maxUploadBytes,
		mailer:         mailer,
		events:         events,
		logger:         logger,
		now:            time.Now,
	}
}

// CreateComplaint files a new complaint for the requester
func (s *complaintServiceImpl) CreateComplaint(ctx context.Context, requester auth.Requester, req *dto.CreateComplaintRequest) (*models.Complaint, error) {
	subject := strings.TrimSpace(req.Subject)
	message := strings.TrimSpace(req.Message)

	fields := map[string]string{}
	if subject == "" {
		fields["subject"] = "is required"
	}
	if message == "" {
		fields["message"] = "is required"
	}
	if req.Category == "" {
		fields["category"] = "is required"
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidationError("Subject, message, and category are required", fields)
	}

	complaint := &models.Complaint{
		Subject:                 subject,
		Message:                 message,
		Category:                models.ComplaintCategory(req.Category),
		Priority:                models.PriorityMedium,
		Status:                  models.ComplaintStatusOpen,
		SubmittedBy:             requester.ID,
		Tags:                    helpers.NormalizeTags(req.Tags),
		IsAnonymous:             req.IsAnonymous,
		IsUrgent:                req.IsUrgent,
		EstimatedResolutionTime: models.DefaultEstimatedResolutionDays,
		FollowUpRequired:        req.FollowUpRequired,
		FollowUpDate:            req.FollowUpDate,
	}
	if req.Priority != "" {
		complaint.Priority = models.Priority(req.Priority)
	}
	if req.EstimatedResolutionTime != nil {
		complaint.EstimatedResolutionTime = *req.EstimatedResolutionTime
	}
	complaint.ApplyUrgency()

	if err := s.complaintRepo.Create(ctx, complaint); err != nil {
		return nil, fmt.Errorf("error creating complaint: %w", err)
	}

	s.logger.Info().Int64("complaintId", complaint.ID).Str("priority", string(complaint.Priority)).Msg("Complaint created")

	actor := requester.ID
	if complaint.IsAnonymous {
		actor = 0
	}
	s.publish(websocket.EventComplaintCreated, complaint, actor)
	return complaint, nil
}

// ListComplaints returns a page of complaints. Non-admins only see their own.
func (s *complaintServiceImpl) ListComplaints(ctx context.Context, requester auth.Requester, req *dto.ComplaintListRequest, page, size int) (models.Page[models.Complaint], error) {
	f := repositories.ComplaintFilter{
		Status:    req.Status,
		Category:  req.Category,
		Priority:  req.Priority,
		Search:    req.Search,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
		Page:      page,
		Size:      size,
	}
	if !requester.IsAdmin() {
		submitter := requester.ID
		f.SubmittedBy = &submitter
	}

	result, err := s.complaintRepo.List(ctx, f)
	if err != nil {
		return result, fmt.Errorf("error listing complaints: %w", err)
	}
	return result, nil
}

// GetComplaintByID returns a complaint with its attachments to its submitter or an admin
func (s *complaintServiceImpl) GetComplaintByID(ctx context.Context, requester auth.Requester, id int64) (*models.Complaint, error) {
	complaint, err := s.complaintRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting complaint: %w", err)
	}
	if err := auth.CanViewComplaint(requester, complaint); err != nil {
		return nil, err
	}
	return complaint, nil
}

// UpdateComplaint applies an edit. Submitters may only edit open complaints and
// their edits keep the complaint open. Admins may also triage through this call.
func (s *complaintServiceImpl) UpdateComplaint(ctx context.Context, requester auth.Requester, id int64, req *dto.UpdateComplaintRequest) (*models.Complaint, error) {
	complaint, err := s.complaintRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting complaint: %w", err)
	}
	if err := auth.CanModifyComplaint(requester, complaint); err != nil {
		return nil, err
	}

	fields := map[string]string{}
	if req.Subject != nil {
		if v := strings.TrimSpace(*req.Subject); v != "" {
			complaint.Subject = v
		} else {
			fields["subject"] = "cannot be empty"
		}
	}
	if req.Message != nil {
		if v := strings.TrimSpace(*req.Message); v != "" {
			complaint.Message = v
		} else {
			fields["message"] = "cannot be empty"
		}
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidationError("Invalid complaint", fields)
	}
	if req.Category != nil {
		complaint.Category = models.ComplaintCategory(*req.Category)
	}
	if req.Priority != nil {
		complaint.Priority = models.Priority(*req.Priority)
		if complaint.Priority != models.PriorityUrgent && req.IsUrgent == nil {
			complaint.IsUrgent = false
		}
	}
	if req.Tags != nil {
		complaint.Tags = helpers.NormalizeTags(*req.Tags)
	}
	if req.IsAnonymous != nil {
		complaint.IsAnonymous = *req.IsAnonymous
	}
	if req.IsUrgent != nil {
		complaint.IsUrgent = *req.IsUrgent
	}
	if req.FollowUpRequired != nil {
		complaint.FollowUpRequired = *req.FollowUpRequired
	}
	if req.FollowUpDate != nil {
		complaint.FollowUpDate = req.FollowUpDate
	}
	complaint.ApplyUrgency()

	now := s.now().UTC()
	statusChanged := false
	if requester.IsAdmin() {
		if req.AssignedTo != nil && (complaint.AssignedTo == nil || *complaint.AssignedTo != *req.AssignedTo) {
			if err := s.ensureAssignable(ctx, *req.AssignedTo); err != nil {
				return nil, err
			}
			complaint.AssignedTo = req.AssignedTo
			complaint.AssignedAt = &now
		}
		if req.EstimatedResolutionTime != nil {
			complaint.EstimatedResolutionTime = *req.EstimatedResolutionTime
		}
		if req.Resolution != nil {
			resolution := strings.TrimSpace(*req.Resolution)
			complaint.Resolution = &resolution
		}
		if req.Status != nil {
			previous := complaint.Status
			if err := applyComplaintStatus(complaint, models.ComplaintStatus(*req.Status), requester.ID, now); err != nil {
				return nil, err
			}
			statusChanged = previous != complaint.Status
		}
	} else {
		// Submitter edits send the complaint back to the open queue
		complaint.Status = models.ComplaintStatusOpen
	}

	if err := s.complaintRepo.Update(ctx, complaint); err != nil {
		return nil, fmt.Errorf("error updating complaint: %w", err)
	}

	if statusChanged {
		s.notifyStatusChange(complaint)
		s.publish(websocket.EventComplaintStatus, complaint, requester.ID)
	}
	return complaint, nil
}

// DeleteComplaint removes a complaint and, best effort, its stored attachments
func (s *complaintServiceImpl) DeleteComplaint(ctx context.Context, requester auth.Requester, id int64) error {
	complaint, err := s.complaintRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("error getting complaint: %w", err)
	}
	if err := auth.CanModifyComplaint(requester, complaint); err != nil {
		return err
	}

	for _, a := range complaint.Attachments {
		if a.StorageID == "" {
			continue
		}
		if err := s.mediaStore.Delete(ctx, a.StorageID); err != nil {
			s.logger.Warn().Err(err).
				Int64("complaintId", id).
				Str("storageId", a.StorageID).
				Msg("Failed to delete complaint attachment")
		}
	}

	if err := s.complaintRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting complaint: %w", err)
	}

	s.logger.Info().Int64("complaintId", id).Int64("deletedBy", requester.ID).Msg("Complaint deleted")
	return nil
}

// AssignComplaint hands a complaint to an admin
func (s *complaintServiceImpl) AssignComplaint(ctx context.Context, requester auth.Requester, id int64, req *dto.AssignComplaintRequest) (*models.Complaint, error) {
	if err := auth.RequireAdmin(requester); err != nil {
		return nil, err
	}

	complaint, err := s.complaintRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting complaint: %w", err)
	}
	if complaint.Status == models.ComplaintStatusClosed {
		return nil, apperrors.NewInvalidStateError("Cannot assign a closed complaint")
	}
	if err := s.ensureAssignable(ctx, req.AssignedTo); err != nil {
		return nil, err
	}

	now := s.now().UTC()
	assignee := req.AssignedTo
	complaint.AssignedTo = &assignee
	complaint.AssignedAt = &now
	complaint.TransitionTo(models.ComplaintStatusAssigned, now)
	if req.EstimatedResolutionTime != nil {
		complaint.EstimatedResolutionTime = *req.EstimatedResolutionTime
	}

	if err := s.complaintRepo.Update(ctx, complaint); err != nil {
		return nil, fmt.Errorf("error assigning complaint: %w", err)
	}

	s.logger.Info().Int64("complaintId", id).Int64("assignedTo", assignee).Msg("Complaint assigned")

	if to, name, ok := submitterContact(complaint); ok {
		if err := s.mailer.SendComplaintAssigned(to, name, complaint.Subject); err != nil {
			s.logger.Warn().Err(err).Int64("complaintId", id).Msg("Failed to send assignment email")
		}
	}
	s.publish(websocket.EventComplaintAssigned, complaint, requester.ID)
	return complaint, nil
}

// UpdateStatus moves a complaint through triage
func (s *complaintServiceImpl) UpdateStatus(ctx context.Context, requester auth.Requester, id int64, req *dto.UpdateComplaintStatusRequest) (*models.Complaint, error) {
	if err := auth.RequireAdmin(requester); err != nil {
		return nil, err
	}

	status := models.ComplaintStatus(req.Status)
	if !status.IsValid() {
		return nil, apperrors.NewValidationError("Invalid status", map[string]string{
			"status": "must be one of open, assigned, in-progress, resolved, closed",
		})
	}

	complaint, err := s.complaintRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting complaint: %w", err)
	}

	now := s.now().UTC()
	if err := applyComplaintStatus(complaint, status, requester.ID, now); err != nil {
		return nil, err
	}
	if req.Resolution != nil {
		resolution := strings.TrimSpace(*req.Resolution)
		complaint.Resolution = &resolution
	}
	if req.FollowUpRequired != nil {
		complaint.FollowUpRequired = *req.FollowUpRequired
	}
	if req.FollowUpDate != nil {
		complaint.FollowUpDate = req.FollowUpDate
	}

	if err := s.complaintRepo.Update(ctx, complaint); err != nil {
		return nil, fmt.Errorf("error updating complaint status: %w", err)
	}

	s.logger.Info().Int64("complaintId", id).Str("status", string(status)).Msg("Complaint status updated")

	s.notifyStatusChange(complaint)
	s.publish(websocket.EventComplaintStatus, complaint, requester.ID)
	return complaint, nil
}

// AddAttachment stores a file and links it to the complaint
func (s *complaintServiceImpl) AddAttachment(ctx context.Context, requester auth.Requester, id int64, file *filestorage.Upload) (*models.Attachment, error) {
	if file == nil {
		return nil, apperrors.NewValidationError("No file uploaded", map[string]string{"file": "is required"})
	}

	complaint, err := s.complaintRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting complaint: %w", err)
	}
	if err := auth.CanModifyComplaint(requester, complaint); err != nil {
		return nil, err
	}
	if len(complaint.Attachments) >= models.MaxComplaintAttachments {
		return nil, apperrors.NewInvalidStateError(
			fmt.Sprintf("A complaint can have at most %d attachments", models.MaxComplaintAttachments))
	}
	if !filestorage.IsAllowedMedia(file.MimeType) {
		return nil, apperrors.NewCustomError(apperrors.ErrUnsupportedMediaType,
			fmt.Sprintf("File type %s is not allowed", file.MimeType))
	}
	if err := file.CheckSize(s.maxUploadBytes); err != nil {
		return nil, err
	}

	stored, err := s.mediaStore.Store(ctx, file.File, file.Size, file.MimeType, filestorage.ProfileFor(file.MimeType), file.Filename)
	if err != nil {
		s.logger.Error().Err(err).Int64("complaintId", id).Msg("Failed to store complaint attachment")
		return nil, apperrors.NewUpstreamError("Failed to upload file", err)
	}

	attachment := &models.Attachment{
		ComplaintID: id,
		Filename:    file.Filename,
		URL:         stored.URL,
		StorageID:   stored.StorageID,
		UploadedAt:  s.now().UTC(),
	}
	if err := s.complaintRepo.AddAttachment(ctx, attachment, models.MaxComplaintAttachments); err != nil {
		if delErr := s.mediaStore.Delete(ctx, stored.StorageID); delErr != nil {
			s.logger.Warn().Err(delErr).Str("storageId", stored.StorageID).Msg("Failed to remove orphaned attachment")
		}
		if errors.Is(err, apperrors.ErrInvalidState) || errors.Is(err, apperrors.ErrResourceNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("error adding attachment: %w", err)
	}
	return attachment, nil
}

// SubmitFeedback records the submitter's rating of a resolved or closed complaint
func (s *complaintServiceImpl) SubmitFeedback(ctx context.Context, requester auth.Requester, id int64, req *dto.ComplaintFeedbackRequest) (*models.Complaint, error) {
	if req.SatisfactionRating < 1 || req.SatisfactionRating > 5 {
		return nil, apperrors.NewValidationError("Invalid rating", map[string]string{
			"satisfactionRating": "must be between 1 and 5",
		})
	}

	complaint, err := s.complaintRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting complaint: %w", err)
	}
	if !requester.Owns(complaint.SubmittedBy) {
		return nil, apperrors.NewForbiddenError("Only the submitter can give feedback on a complaint")
	}
	if !complaint.IsFinished() {
		return nil, apperrors.NewInvalidStateError("Feedback can only be given once the complaint is resolved or closed")
	}

	rating := req.SatisfactionRating
	complaint.SatisfactionRating = &rating
	if feedback := strings.TrimSpace(req.Feedback); feedback != "" {
		complaint.Feedback = &feedback
	}

	if err := s.complaintRepo.Update(ctx, complaint); err != nil {
		return nil, fmt.Errorf("error saving feedback: %w", err)
	}
	return complaint, nil
}

// GetStats returns complaint counts, scoped to the requester unless they are an admin
func (s *complaintServiceImpl) GetStats(ctx context.Context, requester auth.Requester) (*models.ComplaintStats, error) {
	var submittedBy *int64
	if !requester.IsAdmin() {
		id := requester.ID
		submittedBy = &id
	}

	stats, err := s.complaintRepo.Stats(ctx, submittedBy)
	if err != nil {
		return nil, fmt.Errorf("error getting complaint stats: %w", err)
	}
	return stats, nil
}

// applyComplaintStatus moves c into status. Closed is terminal.
func applyComplaintStatus(c *models.Complaint, status models.ComplaintStatus, adminID int64, now time.Time) error {
	if c.Status == models.ComplaintStatusClosed && status != models.ComplaintStatusClosed {
		return apperrors.NewInvalidStateError("Closed complaints cannot change status")
	}
	if status == models.ComplaintStatusResolved && c.Status != models.ComplaintStatusResolved {
		c.ResolvedBy = &adminID
	}
	c.TransitionTo(status, now)
	return nil
}

// ensureAssignable checks that userID names an admin.
func (s *complaintServiceImpl) ensureAssignable(ctx context.Context, userID int64) error {
	assignee, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrResourceNotFound) {
			return apperrors.NewValidationError("Assignee not found", map[string]string{"assignedTo": "must be an existing user"})
		}
		return fmt.Errorf("error loading assignee: %w", err)
	}
	if !assignee.IsAdmin() {
		return apperrors.NewValidationError("Complaints can only be assigned to administrators", map[string]string{
			"assignedTo": "must be an administrator",
		})
	}
	return nil
}

func submitterContact(c *models.Complaint) (string, string, bool) {
	if c.Submitter == nil || c.Submitter.Email == "" {
		return "", "", false
	}
	return c.Submitter.Email, c.Submitter.Name, true
}

func (s *complaintServiceImpl) notifyStatusChange(c *models.Complaint) {
	to, name, ok := submitterContact(c)
	if !ok {
		return
	}
	if err := s.mailer.SendComplaintStatusChanged(to, name, c.Subject, string(c.Status)); err != nil {
		s.logger.Warn().Err(err).Int64("complaintId", c.ID).Msg("Failed to send status email")
	}
}

func (s *complaintServiceImpl) publish(eventType string, c *models.Complaint, actorID int64) {
	publishEvent(s.events, websocket.Event{
		Type:      eventType,
		EntityID:  c.ID,
		Title:     c.Subject,
		ActorID:   actorID,
		Timestamp: s.now().UTC(),
	})
}
