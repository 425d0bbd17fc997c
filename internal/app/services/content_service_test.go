package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shreyescodes/erp-portal/internal/app/auth"
	"github.com/shreyescodes/erp-portal/internal/app/models"
	"github.com/shreyescodes/erp-portal/internal/app/models/dto"
	"github.com/shreyescodes/erp-portal/internal/app/repositories"
	"github.com/shreyescodes/erp-portal/internal/pkg/apperrors"
	"github.com/shreyescodes/erp-portal/internal/pkg/filestorage"
	"github.com/shreyescodes/erp-portal/internal/pkg/websocket"
)

type contentFixture struct {
	repo   *MockContentStore
	users  *MockUserStore
	media  *MockMediaStore
	mailer *MockMailer
	events *recordingPublisher
	svc    *contentServiceImpl
}

func newContentFixture() *contentFixture {
	f := &contentFixture{
		repo:   new(MockContentStore),
		users:  new(MockUserStore),
		media:  new(MockMediaStore),
		mailer: new(MockMailer),
		events: &recordingPublisher{},
	}
	f.svc = NewContentService(f.repo, f.users, f.media, testUploadLimit, f.mailer, f.events, nopLogger()).(*contentServiceImpl)
	f.svc.now = fixedNow
	return f
}

func pendingContent() *models.Content {
	return &models.Content{
		ID:         5,
		Title:      "DSA notes",
		Status:     models.ContentStatusPending,
		UploadedBy: owner.ID,
		StorageID:  "document/abc.pdf",
		Uploader:   &models.UserSummary{ID: owner.ID, Name: "Asha", Email: "asha@institute.edu"},
	}
}

func TestUploadContent_UserUploadIsPending(t *testing.T) {
	f := newContentFixture()
	upload := testUpload("notes.pdf", "application/pdf", "%PDF-1.4")

	f.media.On("Store", mock.Anything, upload.File, upload.Size, "application/pdf", filestorage.ProfileDocument, "notes.pdf").
		Return(&filestorage.StoredFile{URL: "/uploads/document/x.pdf", StorageID: "document/x.pdf"}, nil)
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*models.Content")).
		Run(func(args mock.Arguments) { args.Get(1).(*models.Content).ID = 11 }).
		Return(nil)

	content, err := f.svc.UploadContent(context.Background(), owner, upload, &dto.UploadContentRequest{
		Title: " DSA notes ", Description: "Units 1-3", Category: "academic", Tags: "dsa, notes,,",
	})

	require.NoError(t, err)
	assert.Equal(t, models.ContentStatusPending, content.Status)
	assert.Nil(t, content.ApprovedBy)
	assert.Equal(t, "DSA notes", content.Title)
	assert.Equal(t, []string{"dsa", "notes"}, content.Tags)
	assert.Equal(t, models.FileTypeDocument, content.FileType)
	assert.Equal(t, []string{websocket.EventContentPending}, f.events.types())
}

func TestUploadContent_AdminUploadIsApproved(t *testing.T) {
	f := newContentFixture()
	upload := testUpload("poster.png", "image/png", "png")

	f.media.On("Store", mock.Anything, mock.Anything, mock.Anything, "image/png", filestorage.ProfileImage, "poster.png").
		Return(&filestorage.StoredFile{URL: "u", StorageID: "image/p.png"}, nil)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	content, err := f.svc.UploadContent(context.Background(), admin, upload, &dto.UploadContentRequest{
		Title: "Fest", Description: "Poster", Category: "cultural",
	})

	require.NoError(t, err)
	assert.Equal(t, models.ContentStatusApproved, content.Status)
	require.NotNil(t, content.ApprovedBy)
	assert.Equal(t, admin.ID, *content.ApprovedBy)
	assert.Equal(t, testNow, *content.ApprovedAt)
	assert.Empty(t, f.events.types())
}

func TestUploadContent_RejectsDisallowedType(t *testing.T) {
	f := newContentFixture()

	_, err := f.svc.UploadContent(context.Background(), owner, testUpload("run.exe", "application/x-msdownload", "MZ"),
		&dto.UploadContentRequest{Title: "t", Description: "d", Category: "general"})

	assert.ErrorIs(t, err, apperrors.ErrUnsupportedMediaType)
	f.media.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUploadContent_OversizedFileRejected(t *testing.T) {
	f := newContentFixture()
	file := testUpload("lecture.mp4", "video/mp4", "mp4")
	file.Size = 50 << 30

	_, err := f.svc.UploadContent(context.Background(), owner, file,
		&dto.UploadContentRequest{Title: "t", Description: "d", Category: "general"})

	assert.ErrorIs(t, err, apperrors.ErrFileTooLarge)
	f.media.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUploadContent_MissingFieldsIsValidationError(t *testing.T) {
	f := newContentFixture()

	_, err := f.svc.UploadContent(context.Background(), owner, testUpload("a.pdf", "application/pdf", "x"),
		&dto.UploadContentRequest{Title: "  ", Category: "general"})

	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	details := apperrors.DetailsOf(err)
	assert.Contains(t, details, "title")
	assert.Contains(t, details, "description")
}

func TestUploadContent_StoreFailureIsUpstream(t *testing.T) {
	f := newContentFixture()
	f.media.On("Store", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, errors.New("bucket unavailable"))

	_, err := f.svc.UploadContent(context.Background(), owner, testUpload("a.pdf", "application/pdf", "x"),
		&dto.UploadContentRequest{Title: "t", Description: "d", Category: "general"})

	assert.ErrorIs(t, err, apperrors.ErrUpstreamFailure)
	f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUploadContent_InsertFailureRemovesStoredFile(t *testing.T) {
	f := newContentFixture()
	f.media.On("Store", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(&filestorage.StoredFile{URL: "u", StorageID: "document/orphan.pdf"}, nil)
	f.media.On("Delete", mock.Anything, "document/orphan.pdf").Return(nil)
	f.repo.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))

	_, err := f.svc.UploadContent(context.Background(), owner, testUpload("a.pdf", "application/pdf", "x"),
		&dto.UploadContentRequest{Title: "t", Description: "d", Category: "general"})

	require.Error(t, err)
	f.media.AssertCalled(t, "Delete", mock.Anything, "document/orphan.pdf")
}

func TestListContent_StatusScoping(t *testing.T) {
	approved := models.ContentStatusApproved
	pending := models.ContentStatusPending
	self := owner.ID
	other := stranger.ID

	tests := []struct {
		name      string
		requester auth.Requester
		req       dto.ContentListRequest
		want      *models.ContentStatus
	}{
		{"anonymous sees approved", auth.Requester{}, dto.ContentListRequest{Status: "pending"}, &approved},
		{"user sees approved", owner, dto.ContentListRequest{Status: "pending"}, &approved},
		{"user listing someone else sees approved", owner, dto.ContentListRequest{Status: "pending", UploadedBy: &other}, &approved},
		{"user listing own uploads may filter", owner, dto.ContentListRequest{Status: "pending", UploadedBy: &self}, &pending},
		{"user listing own uploads without status sees all", owner, dto.ContentListRequest{UploadedBy: &self}, nil},
		{"admin may filter any status", admin, dto.ContentListRequest{Status: "pending"}, &pending},
		{"admin without status sees all", admin, dto.ContentListRequest{}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newContentFixture()
			f.repo.On("List", mock.Anything, mock.MatchedBy(func(cf repositories.ContentFilter) bool {
				if tt.want == nil {
					return cf.Status == nil
				}
				return cf.Status != nil && *cf.Status == *tt.want
			})).Return(models.Page[models.Content]{}, nil)

			_, err := f.svc.ListContent(context.Background(), tt.requester, &tt.req, 1, 10)

			require.NoError(t, err)
			f.repo.AssertExpectations(t)
		})
	}
}

func TestGetContentByID_ApprovedCountsView(t *testing.T) {
	f := newContentFixture()
	c := pendingContent()
	c.Status = models.ContentStatusApproved
	f.repo.On("GetByID", mock.Anything, int64(5)).Return(c, nil)
	f.repo.On("IncrementViews", mock.Anything, int64(5)).Return(int64(42), nil)

	got, err := f.svc.GetContentByID(context.Background(), auth.Requester{}, 5)

	require.NoError(t, err)
	assert.Equal(t, int64(42), got.Views)
}

func TestGetContentByID_PendingHiddenFromOthers(t *testing.T) {
	f := newContentFixture()
	f.repo.On("GetByID", mock.Anything, int64(5)).Return(pendingContent(), nil)

	_, err := f.svc.GetContentByID(context.Background(), stranger, 5)

	assert.ErrorIs(t, err, apperrors.ErrResourceNotFound)
	f.repo.AssertNotCalled(t, "IncrementViews", mock.Anything, mock.Anything)
}

func TestGetContentByID_PendingVisibleToOwnerWithoutView(t *testing.T) {
	f := newContentFixture()
	f.repo.On("GetByID", mock.Anything, int64(5)).Return(pendingContent(), nil)

	got, err := f.svc.GetContentByID(context.Background(), owner, 5)

	require.NoError(t, err)
	assert.Equal(t, int64(5), got.ID)
	f.repo.AssertNotCalled(t, "IncrementViews", mock.Anything, mock.Anything)
}

func TestApproveContent_FlowNotifiesUploader(t *testing.T) {
	f := newContentFixture()
	c := pendingContent()
	reason := "blurry"
	c.RejectionReason = &reason
	f.repo.On("GetByID", mock.Anything, int64(5)).Return(c, nil)
	f.repo.On("Update", mock.Anything, c).Return(nil)
	f.mailer.On("SendContentApproved", "asha@institute.edu", "Asha", "DSA notes").Return(nil)

	got, err := f.svc.ApproveContent(context.Background(), admin, 5)

	require.NoError(t, err)
	assert.Equal(t, models.ContentStatusApproved, got.Status)
	assert.Equal(t, admin.ID, *got.ApprovedBy)
	assert.Equal(t, testNow, *got.ApprovedAt)
	assert.Nil(t, got.RejectionReason)
	f.mailer.AssertExpectations(t)
	assert.Equal(t, []string{websocket.EventContentApproved}, f.events.types())
}

func TestApproveContent_AlreadyApproved(t *testing.T) {
	f := newContentFixture()
	c := pendingContent()
	c.MarkApproved(admin.ID, testNow)
	f.repo.On("GetByID", mock.Anything, int64(5)).Return(c, nil)

	_, err := f.svc.ApproveContent(context.Background(), admin, 5)

	assert.ErrorIs(t, err, apperrors.ErrAlreadyApproved)
	f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestApproveContent_RequiresAdmin(t *testing.T) {
	f := newContentFixture()

	_, err := f.svc.ApproveContent(context.Background(), owner, 5)

	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	f.repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestRejectContent(t *testing.T) {
	t.Run("requires reason", func(t *testing.T) {
		f := newContentFixture()
		_, err := f.svc.RejectContent(context.Background(), admin, 5, "   ")
		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	})

	t.Run("already rejected", func(t *testing.T) {
		f := newContentFixture()
		c := pendingContent()
		c.MarkRejected("old")
		f.repo.On("GetByID", mock.Anything, int64(5)).Return(c, nil)

		_, err := f.svc.RejectContent(context.Background(), admin, 5, "again")

		assert.ErrorIs(t, err, apperrors.ErrAlreadyRejected)
		assert.Equal(t, "old", *c.RejectionReason)
	})

	t.Run("clears approval", func(t *testing.T) {
		f := newContentFixture()
		c := pendingContent()
		c.MarkApproved(admin.ID, testNow)
		f.repo.On("GetByID", mock.Anything, int64(5)).Return(c, nil)
		f.repo.On("Update", mock.Anything, c).Return(nil)
		f.mailer.On("SendContentRejected", "asha@institute.edu", "Asha", "DSA notes", "off topic").Return(nil)

		got, err := f.svc.RejectContent(context.Background(), admin, 5, " off topic ")

		require.NoError(t, err)
		assert.Equal(t, models.ContentStatusRejected, got.Status)
		assert.Nil(t, got.ApprovedBy)
		assert.Nil(t, got.ApprovedAt)
		assert.Equal(t, "off topic", *got.RejectionReason)
	})
}

func TestUpdateContent_NonOwnerForbiddenWithoutMutation(t *testing.T) {
	f := newContentFixture()
	c := pendingContent()
	f.repo.On("GetByID", mock.Anything, int64(5)).Return(c, nil)
	title := "hijacked"

	_, err := f.svc.UpdateContent(context.Background(), stranger, 5, &dto.UpdateContentRequest{Title: &title})

	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	assert.Equal(t, "DSA notes", c.Title)
	f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateContent_OwnerEditReturnsToModeration(t *testing.T) {
	f := newContentFixture()
	c := pendingContent()
	c.MarkApproved(admin.ID, testNow)
	f.repo.On("GetByID", mock.Anything, int64(5)).Return(c, nil)
	f.repo.On("Update", mock.Anything, c).Return(nil)
	title := "DSA notes v2"

	got, err := f.svc.UpdateContent(context.Background(), owner, 5, &dto.UpdateContentRequest{Title: &title})

	require.NoError(t, err)
	assert.Equal(t, "DSA notes v2", got.Title)
	assert.Equal(t, models.ContentStatusPending, got.Status)
	assert.Nil(t, got.ApprovedBy)
	assert.Equal(t, []string{websocket.EventContentPending}, f.events.types())
}

func TestUpdateContent_FeatureIsAdminOnly(t *testing.T) {
	f := newContentFixture()
	f.repo.On("GetByID", mock.Anything, int64(5)).Return(pendingContent(), nil)
	featured := true

	_, err := f.svc.UpdateContent(context.Background(), owner, 5, &dto.UpdateContentRequest{IsFeatured: &featured})

	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestUpdateContent_AdminEditKeepsStatus(t *testing.T) {
	f := newContentFixture()
	c := pendingContent()
	c.MarkApproved(admin.ID, testNow)
	f.repo.On("GetByID", mock.Anything, int64(5)).Return(c, nil)
	f.repo.On("Update", mock.Anything, c).Return(nil)
	featured := true

	got, err := f.svc.UpdateContent(context.Background(), admin, 5, &dto.UpdateContentRequest{IsFeatured: &featured})

	require.NoError(t, err)
	assert.True(t, got.IsFeatured)
	assert.Equal(t, models.ContentStatusApproved, got.Status)
}

func TestDeleteContent(t *testing.T) {
	t.Run("non owner forbidden", func(t *testing.T) {
		f := newContentFixture()
		f.repo.On("GetByID", mock.Anything, int64(5)).Return(pendingContent(), nil)

		err := f.svc.DeleteContent(context.Background(), stranger, 5)

		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
		f.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		f.media.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("storage failure does not block", func(t *testing.T) {
		f := newContentFixture()
		f.repo.On("GetByID", mock.Anything, int64(5)).Return(pendingContent(), nil)
		f.media.On("Delete", mock.Anything, "document/abc.pdf").Return(errors.New("gone"))
		f.repo.On("Delete", mock.Anything, int64(5)).Return(nil)

		err := f.svc.DeleteContent(context.Background(), owner, 5)

		require.NoError(t, err)
		f.repo.AssertExpectations(t)
	})
}

func TestRecordDownload(t *testing.T) {
	f := newContentFixture()
	f.repo.On("IncrementDownloads", mock.Anything, int64(5)).Return("/uploads/document/abc.pdf", int64(3), nil)

	got, err := f.svc.RecordDownload(context.Background(), 5)

	require.NoError(t, err)
	assert.Equal(t, &dto.DownloadResponse{FileURL: "/uploads/document/abc.pdf", Downloads: 3}, got)
}
