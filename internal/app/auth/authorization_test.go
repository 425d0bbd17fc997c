package auth

import (
	"errors"
	"testing"

	"github.com/shreyescodes/erp-portal/internal/app/models"
	"github.com/shreyescodes/erp-portal/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
)

var (
	admin = Requester{ID: 1, Role: models.RoleAdmin}
	owner = Requester{ID: 2, Role: models.RoleUser}
	other = Requester{ID: 3, Role: models.RoleUser}
)

func TestCanModify(t *testing.T) {
	assert.NoError(t, CanModify(admin, owner.ID, "no"))
	assert.NoError(t, CanModify(owner, owner.ID, "no"))

	err := CanModify(other, owner.ID, "You can only edit your own content")
	assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))
	assert.Equal(t, "You can only edit your own content", err.Error())
}

func TestCanModify_AnonymousNeverOwns(t *testing.T) {
	err := CanModify(Requester{}, 0, "no")
	assert.True(t, errors.Is(err, apperrors.ErrPermissionDenied))
}

func TestCanModifyComplaint(t *testing.T) {
	tests := []struct {
		name      string
		requester Requester
		status    models.ComplaintStatus
		wantErr   error
	}{
		{name: "owner while open", requester: owner, status: models.ComplaintStatusOpen},
		{name: "owner after resolution", requester: owner, status: models.ComplaintStatusResolved, wantErr: apperrors.ErrInvalidState},
		{name: "admin after resolution", requester: admin, status: models.ComplaintStatusResolved},
		{name: "stranger while open", requester: other, status: models.ComplaintStatusOpen, wantErr: apperrors.ErrPermissionDenied},
		{name: "stranger after resolution", requester: other, status: models.ComplaintStatusClosed, wantErr: apperrors.ErrPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &models.Complaint{SubmittedBy: owner.ID, Status: tt.status}
			err := CanModifyComplaint(tt.requester, c)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}
}

func TestRequireAdmin(t *testing.T) {
	assert.NoError(t, RequireAdmin(admin))
	assert.True(t, errors.Is(RequireAdmin(owner), apperrors.ErrPermissionDenied))
}

func TestEnsureNotSelf(t *testing.T) {
	assert.NoError(t, EnsureNotSelf(admin, owner.ID))
	assert.True(t, errors.Is(EnsureNotSelf(admin, admin.ID), apperrors.ErrSelfModification))
}
