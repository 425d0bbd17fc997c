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

// ContentService defines the interface for content operations
type ContentService interface {
	UploadContent(ctx context.Context, requester auth.Requester, file *filestorage.Upload, req *dto.UploadContentRequest) (*models.Content, error)
	ListContent(ctx context.Context, requester auth.Requester, req *dto.ContentListRequest, page, size int) (models.Page[models.Content], error)
	GetContentByID(ctx context.Context, requester auth.Requester, id int64) (*models.Content, error)
	RecordDownload(ctx context.Context, id int64) (*dto.DownloadResponse, error)
	ApproveContent(ctx context.Context, requester auth.Requester, id int64) (*models.Content, error)
	RejectContent(ctx context.Context, requester auth.Requester, id int64, reason string) (*models.Content, error)
	UpdateContent(ctx context.Context, requester auth.Requester, id int64, req *dto.UpdateContentRequest) (*models.Content, error)
	DeleteContent(ctx context.Context, requester auth.Requester, id int64) error
	GetStats(ctx context.Context, requester auth.Requester) (*models.ContentStats, error)
}

// contentServiceImpl implements ContentService
type contentServiceImpl struct {
	contentRepo    ContentStore
	userRepo       UserStore
	mediaStore     filestorage.MediaStore
	maxUploadBytes int64
	mailer         email.EmailService
	events         websocket.Publisher
	logger         zerolog.Logger
	now            func() time.Time
}

// NewContentService creates a new ContentService
func NewContentService(
	contentRepo ContentStore,
	userRepo UserStore,
	mediaStore filestorage.MediaStore,
	maxUploadBytes int64,
	mailer email.EmailService,
	events websocket.Publisher,
	logger zerolog.Logger,
) ContentService {
	return &contentServiceImpl{
		contentRepo:    contentRepo,
		userRepo:       userRepo,
		mediaStore:     mediaStore,
		maxUploadBytes: maxUploadBytes,
		mailer:         mailer,
		events:         events,
		logger:         logger,
		now:            time.Now,
	}
}

// UploadContent stores the file and records it. Admin uploads are approved
// immediately, everything else waits for moderation.
func (s *contentServiceImpl) UploadContent(ctx context.Context, requester auth.Requester, file *filestorage.Upload, req *dto.UploadContentRequest) (*models.Content, error) {
	if file == nil {
		return nil, apperrors.NewValidationError("No file uploaded", map[string]string{"file": "is required"})
	}

	fields := map[string]string{}
	title := strings.TrimSpace(req.Title)
	description := strings.TrimSpace(req.Description)
	if title == "" {
		fields["title"] = "is required"
	}
	if description == "" {
		fields["description"] = "is required"
	}
	if req.Category == "" {
		fields["category"] = "is required"
	}
	if len(fields) > 0 {
		return nil, apperrors.NewValidationError("Title, description, and category are required", fields)
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
		s.logger.Error().Err(err).Str("filename", file.Filename).Msg("Failed to store uploaded content")
		return nil, apperrors.NewUpstreamError("Failed to upload file", err)
	}

	content := &models.Content{
		Title:       title,
		Description: description,
		FileURL:     stored.URL,
		FileType:    models.FileTypeOf(file.MimeType),
		MimeType:    file.MimeType,
		FileSize:    file.Size,
		StorageID:   stored.StorageID,
		Category:    models.ContentCategory(req.Category),
		Tags:        helpers.SplitCSV(req.Tags),
		Status:      models.ContentStatusPending,
		UploadedBy:  requester.ID,
	}
	if requester.IsAdmin() {
		content.MarkApproved(requester.ID, s.now().UTC())
	}

	if err := s.contentRepo.Create(ctx, content); err != nil {
		if delErr := s.mediaStore.Delete(ctx, stored.StorageID); delErr != nil {
			s.logger.Warn().Err(delErr).Str("storageId", stored.StorageID).Msg("Failed to remove orphaned upload")
		}
		return nil, fmt.Errorf("error saving content: %w", err)
	}

	s.logger.Info().
		Int64("contentId", content.ID).
		Int64("uploadedBy", requester.ID).
		Str("status", string(content.Status)).
		Msg("Content uploaded")

	if !content.IsApproved() {
		s.publish(websocket.EventContentPending, content, requester.ID)
	}
	return content, nil
}

// ListContent returns a page of content. Callers other than admins only see
// approved content unless they list their own uploads.
func (s *contentServiceImpl) ListContent(ctx context.Context, requester auth.Requester, req *dto.ContentListRequest, page, size int) (models.Page[models.Content], error) {
	f := repositories.ContentFilter{
		Category:   req.Category,
		UploadedBy: req.UploadedBy,
		Search:     req.Search,
		Scope:      repositories.SearchScopeList,
		SortBy:     req.SortBy,
		SortOrder:  req.SortOrder,
		Page:       page,
		Size:       size,
	}

	ownListing := req.UploadedBy != nil && requester.Owns(*req.UploadedBy)
	switch {
	case requester.IsAdmin() || ownListing:
		if req.Status != "" {
			status := models.ContentStatus(req.Status)
			f.Status = &status
		}
	default:
		approved := models.ContentStatusApproved
		f.Status = &approved
	}

	result, err := s.contentRepo.List(ctx, f)
	if err != nil {
		return result, fmt.Errorf("error listing content: %w", err)
	}
	return result, nil
}

// GetContentByID returns a content item and counts the view. Unapproved items
// are only visible to their owner and admins, and those reads are not counted.
func (s *contentServiceImpl) GetContentByID(ctx context.Context, requester auth.Requester, id int64) (*models.Content, error) {
	content, err := s.contentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting content: %w", err)
	}

	if !content.IsApproved() {
		if !requester.IsAdmin() && !requester.Owns(content.UploadedBy) {
			return nil, apperrors.NewResourceNotFoundError("Content not found")
		}
		return content, nil
	}

	views, err := s.contentRepo.IncrementViews(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error counting view: %w", err)
	}
	content.Views = views
	return content, nil
}

// RecordDownload counts a download of approved content
func (s *contentServiceImpl) RecordDownload(ctx context.Context, id int64) (*dto.DownloadResponse, error) {
	fileURL, downloads, err := s.contentRepo.IncrementDownloads(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error recording download: %w", err)
	}
	return &dto.DownloadResponse{FileURL: fileURL, Downloads: downloads}, nil
}

// ApproveContent publishes pending or rejected content
func (s *contentServiceImpl) ApproveContent(ctx context.Context, requester auth.Requester, id int64) (*models.Content, error) {
	if err := auth.RequireAdmin(requester); err != nil {
		return nil, err
	}

	content, err := s.contentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting content: %w", err)
	}
	if content.Status == models.ContentStatusApproved {
		return nil, apperrors.NewCustomError(apperrors.ErrAlreadyApproved, "Content is already approved")
	}

	content.MarkApproved(requester.ID, s.now().UTC())
	if err := s.contentRepo.Update(ctx, content); err != nil {
		return nil, fmt.Errorf("error approving content: %w", err)
	}

	s.logger.Info().Int64("contentId", id).Int64("adminId", requester.ID).Msg("Content approved")

	if to, name, ok := s.uploaderContact(ctx, content); ok {
		if err := s.mailer.SendContentApproved(to, name, content.Title); err != nil {
			s.logger.Warn().Err(err).Int64("contentId", id).Msg("Failed to send approval email")
		}
	}
	s.publish(websocket.EventContentApproved, content, requester.ID)
	return content, nil
}

// RejectContent takes content out of circulation with a reason
func (s *contentServiceImpl) RejectContent(ctx context.Context, requester auth.Requester, id int64, reason string) (*models.Content, error) {
	if err := auth.RequireAdmin(requester); err != nil {
		return nil, err
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		return nil, apperrors.NewValidationError("Rejection reason is required", map[string]string{"reason": "is required"})
	}

	content, err := s.contentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting content: %w", err)
	}
	if content.Status == models.ContentStatusRejected {
		return nil, apperrors.NewCustomError(apperrors.ErrAlreadyRejected, "Content is already rejected")
	}

	content.MarkRejected(reason)
	if err := s.contentRepo.Update(ctx, content); err != nil {
		return nil, fmt.Errorf("error rejecting content: %w", err)
	}

	s.logger.Info().Int64("contentId", id).Int64("adminId", requester.ID).Msg("Content rejected")

	if to, name, ok := s.uploaderContact(ctx, content); ok {
		if err := s.mailer.SendContentRejected(to, name, content.Title, reason); err != nil {
			s.logger.Warn().Err(err).Int64("contentId", id).Msg("Failed to send rejection email")
		}
	}
	s.publish(websocket.EventContentRejected, content, requester.ID)
	return content, nil
}

// UpdateContent applies the editable fields. An edit by anyone but an admin
// sends the content back to moderation.
func (s *contentServiceImpl) UpdateContent(ctx context.Context, requester auth.Requester, id int64, req *dto.UpdateContentRequest) (*models.Content, error) {
	content, err := s.contentRepo.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting content: %w", err)
	}

	if err := auth.CanModify(requester, content.UploadedBy, "You can only edit your own content"); err != nil {
		return nil, err
	}
	if !requester.IsAdmin() && (req.IsFeatured != nil || req.ExpiryDate != nil) {
		return nil, apperrors.NewForbiddenError("Only administrators can feature content or set its expiry date")
	}

	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, apperrors.NewValidationError("Title cannot be empty", map[string]string{"title": "is required"})
		}
		content.Title = title
	}
	if req.Description != nil {
		content.Description = strings.TrimSpace(*req.Description)
	}
	if req.Category != nil {
		content.Category = *req.Category
	}
	if req.Tags != nil {
		content.Tags = helpers.NormalizeTags(*req.Tags)
	}
	if req.IsFeatured != nil {
		content.IsFeatured = *req.IsFeatured
	}
	if req.ExpiryDate != nil {
		content.ExpiryDate = req.ExpiryDate
	}

	wasPending := content.Status == models.ContentStatusPending
	if !requester.IsAdmin() {
		content.ResetReview()
	}

	if err := s.contentRepo.Update(ctx, content); err != nil {
		return nil, fmt.Errorf("error updating content: %w", err)
	}

	if !wasPending && content.Status == models.ContentStatusPending {
		s.publish(websocket.EventContentPending, content, requester.ID)
	}
	return content, nil
}

// DeleteContent removes the content row and, best effort, its stored file
func (s *contentServiceImpl) DeleteContent(ctx context.Context, requester auth.Requester, id int64) error {
	content, err := s.contentRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("error getting content: %w", err)
	}

	if err := auth.CanModify(requester, content.UploadedBy, "You can only delete your own content"); err != nil {
		return err
	}

	if content.StorageID != "" {
		if err := s.mediaStore.Delete(ctx, content.StorageID); err != nil {
			s.logger.Warn().Err(err).
				Int64("contentId", id).
				Str("storageId", content.StorageID).
				Msg("Failed to delete stored file, removing record anyway")
		}
	}

	if err := s.contentRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("error deleting content: %w", err)
	}

	s.logger.Info().Int64("contentId", id).Int64("deletedBy", requester.ID).Msg("Content deleted")
	return nil
}

// GetStats returns the content dashboard numbers
func (s *contentServiceImpl) GetStats(ctx context.Context, requester auth.Requester) (*models.ContentStats, error) {
	if err := auth.RequireAdmin(requester); err != nil {
		return nil, err
	}
	stats, err := s.contentRepo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting content stats: %w", err)
	}
	return stats, nil
}

// uploaderContact resolves where moderation emails for content go.
func (s *contentServiceImpl) uploaderContact(ctx context.Context, content *models.Content) (string, string, bool) {
	if content.Uploader != nil && content.Uploader.Email != "" {
		return content.Uploader.Email, content.Uploader.Name, true
	}
	user, err := s.userRepo.GetByID(ctx, content.UploadedBy)
	if err != nil {
		if !errors.Is(err, apperrors.ErrResourceNotFound) {
			s.logger.Warn().Err(err).Int64("userId", content.UploadedBy).Msg("Failed to load uploader for notification")
		}
		return "", "", false
	}
	return user.Email, user.Name, true
}

func (s *contentServiceImpl) publish(eventType string, content *models.Content, actorID int64) {
	publishEvent(s.events, websocket.Event{
		Type:      eventType,
		EntityID:  content.ID,
		Title:     content.Title,
		ActorID:   actorID,
		Timestamp: s.now().UTC(),
	})
}
