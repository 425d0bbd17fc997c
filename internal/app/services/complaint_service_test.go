package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/shreyescodes/erp-portal/internal/app/models"
	"github.com/shreyescodes/erp-portal/internal/app/models/dto"
	"github.com/shreyescodes/erp-portal/internal/app/repositories"
	"github.com/shreyescodes/erp-portal/internal/pkg/apperrors"
	"github.com/shreyescodes/erp-portal/internal/pkg/filestorage"
	"github.com/shreyescodes/erp-portal/internal/pkg/websocket"
)

type complaintFixture struct {
	repo   *MockComplaintStore
	users  *MockUserStore
	media  *MockMediaStore
	mailer *MockMailer
	events *recordingPublisher
	svc    *complaintServiceImpl
}

func newComplaintFixture() *complaintFixture {
	f := &complaintFixture{
		repo:   new(MockComplaintStore),
		users:  new(MockUserStore),
		media:  new(MockMediaStore),
		mailer: new(MockMailer),
		events: &recordingPublisher{},
	}
	f.svc = NewComplaintService(f.repo, f.users, f.media, testUploadLimit, f.mailer, f.events, nopLogger()).(*complaintServiceImpl)
	f.svc.now = fixedNow
	return f
}

func openComplaint() *models.Complaint {
	return &models.Complaint{
		ID:                      4,
		Subject:                 "Projector in room 204 is broken",
		Message:                 "It has not worked since Monday morning",
		Category:                models.ComplaintCategoryFacility,
		Priority:                models.PriorityMedium,
		Status:                  models.ComplaintStatusOpen,
		SubmittedBy:             owner.ID,
		EstimatedResolutionTime: 7,
		Submitter:               &models.UserSummary{ID: owner.ID, Name: "Asha", Email: "asha@institute.edu"},
	}
}

func TestCreateComplaint_Defaults(t *testing.T) {
	f := newComplaintFixture()
	f.repo.On("Create", mock.Anything, mock.AnythingOfType("*models.Complaint")).Return(nil)

	c, err := f.svc.CreateComplaint(context.Background(), owner, &dto.CreateComplaintRequest{
		Subject:  "Projector in room 204 is broken",
		Message:  "It has not worked since Monday morning",
		Category: "facility",
	})

	require.NoError(t, err)
	assert.Equal(t, models.PriorityMedium, c.Priority)
	assert.Equal(t, models.ComplaintStatusOpen, c.Status)
	assert.Equal(t, models.DefaultEstimatedResolutionDays, c.EstimatedResolutionTime)
	assert.Equal(t, owner.ID, c.SubmittedBy)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, owner.ID, f.events.events[0].ActorID)
}

func TestCreateComplaint_UrgentForcesPriority(t *testing.T) {
	f := newComplaintFixture()
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	c, err := f.svc.CreateComplaint(context.Background(), owner, &dto.CreateComplaintRequest{
		Subject:  "Water leak in the lab",
		Message:  "Water is dripping onto the computers",
		Category: "facility",
		Priority: "low",
		IsUrgent: true,
	})

	require.NoError(t, err)
	assert.Equal(t, models.PriorityUrgent, c.Priority)
	assert.True(t, c.IsUrgent)
}

func TestCreateComplaint_AnonymousHidesActor(t *testing.T) {
	f := newComplaintFixture()
	f.repo.On("Create", mock.Anything, mock.Anything).Return(nil)

	_, err := f.svc.CreateComplaint(context.Background(), owner, &dto.CreateComplaintRequest{
		Subject:     "Harassment in the hostel",
		Message:     "Please look into this discreetly",
		Category:    "other",
		IsAnonymous: true,
	})

	require.NoError(t, err)
	require.Len(t, f.events.events, 1)
	assert.Equal(t, websocket.EventComplaintCreated, f.events.events[0].Type)
	assert.Zero(t, f.events.events[0].ActorID)
}

func TestListComplaints_NonAdminSeesOwn(t *testing.T) {
	f := newComplaintFixture()
	f.repo.On("List", mock.Anything, mock.MatchedBy(func(cf repositories.ComplaintFilter) bool {
		return cf.SubmittedBy != nil && *cf.SubmittedBy == owner.ID
	})).Return(models.Page[models.Complaint]{}, nil)

	_, err := f.svc.ListComplaints(context.Background(), owner, &dto.ComplaintListRequest{}, 1, 10)

	require.NoError(t, err)
	f.repo.AssertExpectations(t)
}

func TestGetComplaintByID_StrangerForbidden(t *testing.T) {
	f := newComplaintFixture()
	f.repo.On("GetByID", mock.Anything, int64(4)).Return(openComplaint(), nil)

	_, err := f.svc.GetComplaintByID(context.Background(), stranger, 4)

	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestUpdateComplaint_SubmitterLockedOnceTriaged(t *testing.T) {
	f := newComplaintFixture()
	c := openComplaint()
	c.Status = models.ComplaintStatusInProgress
	f.repo.On("GetByID", mock.Anything, int64(4)).Return(c, nil)
	subject := "Changed my mind about this"

	_, err := f.svc.UpdateComplaint(context.Background(), owner, 4, &dto.UpdateComplaintRequest{Subject: &subject})

	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.Equal(t, "Projector in room 204 is broken", c.Subject)
	f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateComplaint_StrangerForbidden(t *testing.T) {
	f := newComplaintFixture()
	c := openComplaint()
	f.repo.On("GetByID", mock.Anything, int64(4)).Return(c, nil)
	subject := "Not my complaint"

	_, err := f.svc.UpdateComplaint(context.Background(), stranger, 4, &dto.UpdateComplaintRequest{Subject: &subject})

	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	assert.Equal(t, "Projector in room 204 is broken", c.Subject)
	f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateComplaint_ResolvedLocksSubmitterNotAdmin(t *testing.T) {
	resolved := func() *models.Complaint {
		c := openComplaint()
		c.Status = models.ComplaintStatusResolved
		return c
	}
	subject := "Projector still flickers"

	f := newComplaintFixture()
	c := resolved()
	f.repo.On("GetByID", mock.Anything, int64(4)).Return(c, nil)

	_, err := f.svc.UpdateComplaint(context.Background(), owner, 4, &dto.UpdateComplaintRequest{Subject: &subject})

	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.Equal(t, "Projector in room 204 is broken", c.Subject)
	f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)

	f = newComplaintFixture()
	c = resolved()
	f.repo.On("GetByID", mock.Anything, int64(4)).Return(c, nil)
	f.repo.On("Update", mock.Anything, c).Return(nil)

	got, err := f.svc.UpdateComplaint(context.Background(), admin, 4, &dto.UpdateComplaintRequest{Subject: &subject})

	require.NoError(t, err)
	assert.Equal(t, subject, got.Subject)
	assert.Equal(t, models.ComplaintStatusResolved, got.Status)
	f.repo.AssertExpectations(t)
}

func TestDeleteComplaint(t *testing.T) {
	withAttachments := func(c *models.Complaint) *models.Complaint {
		c.Attachments = []models.Attachment{
			{ID: 1, ComplaintID: c.ID, StorageID: "image/a.jpg"},
			{ID: 2, ComplaintID: c.ID, StorageID: "document/b.pdf"},
		}
		return c
	}

	t.Run("submitter deletes open complaint", func(t *testing.T) {
		f := newComplaintFixture()
		f.repo.On("GetByID", mock.Anything, int64(4)).Return(withAttachments(openComplaint()), nil)
		f.media.On("Delete", mock.Anything, "image/a.jpg").Return(nil)
		f.media.On("Delete", mock.Anything, "document/b.pdf").Return(nil)
		f.repo.On("Delete", mock.Anything, int64(4)).Return(nil)

		err := f.svc.DeleteComplaint(context.Background(), owner, 4)

		require.NoError(t, err)
		f.media.AssertExpectations(t)
		f.repo.AssertExpectations(t)
	})

	t.Run("attachment cleanup is best effort", func(t *testing.T) {
		f := newComplaintFixture()
		f.repo.On("GetByID", mock.Anything, int64(4)).Return(withAttachments(openComplaint()), nil)
		f.media.On("Delete", mock.Anything, "image/a.jpg").Return(assert.AnError)
		f.media.On("Delete", mock.Anything, "document/b.pdf").Return(nil)
		f.repo.On("Delete", mock.Anything, int64(4)).Return(nil)

		err := f.svc.DeleteComplaint(context.Background(), owner, 4)

		require.NoError(t, err)
		f.media.AssertCalled(t, "Delete", mock.Anything, "document/b.pdf")
		f.repo.AssertCalled(t, "Delete", mock.Anything, int64(4))
	})

	t.Run("submitter cannot delete once triaged", func(t *testing.T) {
		f := newComplaintFixture()
		c := withAttachments(openComplaint())
		c.Status = models.ComplaintStatusInProgress
		f.repo.On("GetByID", mock.Anything, int64(4)).Return(c, nil)

		err := f.svc.DeleteComplaint(context.Background(), owner, 4)

		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
		f.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		f.media.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("stranger forbidden", func(t *testing.T) {
		f := newComplaintFixture()
		f.repo.On("GetByID", mock.Anything, int64(4)).Return(withAttachments(openComplaint()), nil)

		err := f.svc.DeleteComplaint(context.Background(), stranger, 4)

		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
		f.repo.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
		f.media.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})
}

func TestUpdateComplaint_SubmitterCannotTriage(t *testing.T) {
	f := newComplaintFixture()
	c := openComplaint()
	f.repo.On("GetByID", mock.Anything, int64(4)).Return(c, nil)
	f.repo.On("Update", mock.Anything, c).Return(nil)
	status := "resolved"
	resolution := "fixed it myself"

	got, err := f.svc.UpdateComplaint(context.Background(), owner, 4, &dto.UpdateComplaintRequest{
		Status:     &status,
		Resolution: &resolution,
	})

	require.NoError(t, err)
	assert.Equal(t, models.ComplaintStatusOpen, got.Status)
	assert.Nil(t, got.Resolution)
	assert.Nil(t, got.ResolvedAt)
}

func TestUpdateComplaint_AdminStatusChangeNotifies(t *testing.T) {
	f := newComplaintFixture()
	c := openComplaint()
	f.repo.On("GetByID", mock.Anything, int64(4)).Return(c, nil)
	f.repo.On("Update", mock.Anything, c).Return(nil)
	f.mailer.On("SendComplaintStatusChanged", "asha@institute.edu", "Asha", c.Subject, "in-progress").Return(nil)
	status := "in-progress"

	got, err := f.svc.UpdateComplaint(context.Background(), admin, 4, &dto.UpdateComplaintRequest{Status: &status})

	require.NoError(t, err)
	assert.Equal(t, models.ComplaintStatusInProgress, got.Status)
	f.mailer.AssertExpectations(t)
	assert.Equal(t, []string{websocket.EventComplaintStatus}, f.events.types())
}

func TestAssignComplaint(t *testing.T) {
	t.Run("assigns to admin", func(t *testing.T) {
		f := newComplaintFixture()
		c := openComplaint()
		f.repo.On("GetByID", mock.Anything, int64(4)).Return(c, nil)
		f.users.On("GetByID", mock.Anything, int64(2)).Return(&models.User{ID: 2, Role: models.RoleAdmin}, nil)
		f.repo.On("Update", mock.Anything, c).Return(nil)
		f.mailer.On("SendComplaintAssigned", "asha@institute.edu", "Asha", c.Subject).Return(nil)

		got, err := f.svc.AssignComplaint(context.Background(), admin, 4, &dto.AssignComplaintRequest{AssignedTo: 2})

		require.NoError(t, err)
		assert.Equal(t, models.ComplaintStatusAssigned, got.Status)
		assert.Equal(t, int64(2), *got.AssignedTo)
		assert.Equal(t, testNow, *got.AssignedAt)
		assert.Equal(t, []string{websocket.EventComplaintAssigned}, f.events.types())
	})

	t.Run("assignee must be admin", func(t *testing.T) {
		f := newComplaintFixture()
		f.repo.On("GetByID", mock.Anything, int64(4)).Return(openComplaint(), nil)
		f.users.On("GetByID", mock.Anything, stranger.ID).Return(&models.User{ID: stranger.ID, Role: models.RoleUser}, nil)

		_, err := f.svc.AssignComplaint(context.Background(), admin, 4, &dto.AssignComplaintRequest{AssignedTo: stranger.ID})

		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
		f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
	})

	t.Run("closed complaint", func(t *testing.T) {
		f := newComplaintFixture()
		c := openComplaint()
		c.Status = models.ComplaintStatusClosed
		f.repo.On("GetByID", mock.Anything, int64(4)).Return(c, nil)

		_, err := f.svc.AssignComplaint(context.Background(), admin, 4, &dto.AssignComplaintRequest{AssignedTo: 2})

		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	})

	t.Run("requires admin", func(t *testing.T) {
		f := newComplaintFixture()

		_, err := f.svc.AssignComplaint(context.Background(), owner, 4, &dto.AssignComplaintRequest{AssignedTo: 2})

		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	})
}

func TestUpdateStatus_ResolveStampsOnce(t *testing.T) {
	f := newComplaintFixture()
	c := openComplaint()
	f.repo.On("GetByID", mock.Anything, int64(4)).Return(c, nil)
	f.repo.On("Update", mock.Anything, c).Return(nil)
	f.mailer.On("SendComplaintStatusChanged", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(nil)
	resolution := "Replaced the bulb"

	got, err := f.svc.UpdateStatus(context.Background(), admin, 4, &dto.UpdateComplaintStatusRequest{
		Status:     "resolved",
		Resolution: &resolution,
	})

	require.NoError(t, err)
	require.NotNil(t, got.ResolvedAt)
	assert.Equal(t, testNow, *got.ResolvedAt)
	assert.Equal(t, admin.ID, *got.ResolvedBy)
	assert.Equal(t, "Replaced the bulb", *got.Resolution)
}

func TestUpdateStatus_ClosedIsTerminal(t *testing.T) {
	f := newComplaintFixture()
	c := openComplaint()
	c.TransitionTo(models.ComplaintStatusClosed, testNow)
	f.repo.On("GetByID", mock.Anything, int64(4)).Return(c, nil)

	_, err := f.svc.UpdateStatus(context.Background(), admin, 4, &dto.UpdateComplaintStatusRequest{Status: "open"})

	assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	assert.Equal(t, models.ComplaintStatusClosed, c.Status)
	f.repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdateStatus_RejectsUnknownStatus(t *testing.T) {
	f := newComplaintFixture()

	_, err := f.svc.UpdateStatus(context.Background(), admin, 4, &dto.UpdateComplaintStatusRequest{Status: "archived"})

	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	f.repo.AssertNotCalled(t, "GetByID", mock.Anything, mock.Anything)
}

func TestAddAttachment(t *testing.T) {
	t.Run("stores and links", func(t *testing.T) {
		f := newComplaintFixture()
		f.repo.On("GetByID", mock.Anything, int64(4)).Return(openComplaint(), nil)
		f.media.On("Store", mock.Anything, mock.Anything, mock.Anything, "image/jpeg", filestorage.ProfileImage, "proof.jpg").
			Return(&filestorage.StoredFile{URL: "/uploads/image/proof.jpg", StorageID: "image/proof.jpg"}, nil)
		f.repo.On("AddAttachment", mock.Anything, mock.AnythingOfType("*models.Attachment"), models.MaxComplaintAttachments).Return(nil)

		a, err := f.svc.AddAttachment(context.Background(), owner, 4, testUpload("proof.jpg", "image/jpeg", "jpg"))

		require.NoError(t, err)
		assert.Equal(t, int64(4), a.ComplaintID)
		assert.Equal(t, "/uploads/image/proof.jpg", a.URL)
	})

	t.Run("limit reached", func(t *testing.T) {
		f := newComplaintFixture()
		c := openComplaint()
		c.Attachments = make([]models.Attachment, models.MaxComplaintAttachments)
		f.repo.On("GetByID", mock.Anything, int64(4)).Return(c, nil)

		_, err := f.svc.AddAttachment(context.Background(), owner, 4, testUpload("proof.jpg", "image/jpeg", "jpg"))

		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
		f.media.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("oversized file", func(t *testing.T) {
		f := newComplaintFixture()
		f.repo.On("GetByID", mock.Anything, int64(4)).Return(openComplaint(), nil)
		file := testUpload("scan.pdf", "application/pdf", "%PDF")
		file.Size = testUploadLimit + 1

		_, err := f.svc.AddAttachment(context.Background(), owner, 4, file)

		assert.ErrorIs(t, err, apperrors.ErrFileTooLarge)
		f.media.AssertNotCalled(t, "Store", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("race on limit removes stored file", func(t *testing.T) {
		f := newComplaintFixture()
		f.repo.On("GetByID", mock.Anything, int64(4)).Return(openComplaint(), nil)
		f.media.On("Store", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
			Return(&filestorage.StoredFile{URL: "u", StorageID: "document/late.pdf"}, nil)
		f.media.On("Delete", mock.Anything, "document/late.pdf").Return(nil)
		f.repo.On("AddAttachment", mock.Anything, mock.Anything, models.MaxComplaintAttachments).
			Return(apperrors.NewInvalidStateError("limit"))

		_, err := f.svc.AddAttachment(context.Background(), owner, 4, testUpload("late.pdf", "application/pdf", "%PDF"))

		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
		f.media.AssertCalled(t, "Delete", mock.Anything, "document/late.pdf")
	})
}

func TestSubmitFeedback(t *testing.T) {
	t.Run("only after resolution", func(t *testing.T) {
		f := newComplaintFixture()
		f.repo.On("GetByID", mock.Anything, int64(4)).Return(openComplaint(), nil)

		_, err := f.svc.SubmitFeedback(context.Background(), owner, 4, &dto.ComplaintFeedbackRequest{SatisfactionRating: 4})

		assert.ErrorIs(t, err, apperrors.ErrInvalidState)
	})

	t.Run("only by submitter", func(t *testing.T) {
		f := newComplaintFixture()
		c := openComplaint()
		c.TransitionTo(models.ComplaintStatusResolved, testNow)
		f.repo.On("GetByID", mock.Anything, int64(4)).Return(c, nil)

		_, err := f.svc.SubmitFeedback(context.Background(), admin, 4, &dto.ComplaintFeedbackRequest{SatisfactionRating: 4})

		assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
	})

	t.Run("rating range", func(t *testing.T) {
		f := newComplaintFixture()

		_, err := f.svc.SubmitFeedback(context.Background(), owner, 4, &dto.ComplaintFeedbackRequest{SatisfactionRating: 6})

		assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
	})

	t.Run("records rating", func(t *testing.T) {
		f := newComplaintFixture()
		c := openComplaint()
		c.TransitionTo(models.ComplaintStatusResolved, testNow)
		f.repo.On("GetByID", mock.Anything, int64(4)).Return(c, nil)
		f.repo.On("Update", mock.Anything, c).Return(nil)

		got, err := f.svc.SubmitFeedback(context.Background(), owner, 4, &dto.ComplaintFeedbackRequest{SatisfactionRating: 5, Feedback: " quick fix "})

		require.NoError(t, err)
		assert.Equal(t, 5, *got.SatisfactionRating)
		assert.Equal(t, "quick fix", *got.Feedback)
	})
}

func TestComplaintStats_ScopedForUsers(t *testing.T) {
	f := newComplaintFixture()
	f.repo.On("Stats", mock.Anything, mock.MatchedBy(func(id *int64) bool { return id != nil && *id == owner.ID })).
		Return(&models.ComplaintStats{Total: 2}, nil)
	f.repo.On("Stats", mock.Anything, (*int64)(nil)).Return(&models.ComplaintStats{Total: 40}, nil)

	mine, err := f.svc.GetStats(context.Background(), owner)
	require.NoError(t, err)
	assert.Equal(t, int64(2), mine.Total)

	all, err := f.svc.GetStats(context.Background(), admin)
	require.NoError(t, err)
	assert.Equal(t, int64(40), all.Total)
}
