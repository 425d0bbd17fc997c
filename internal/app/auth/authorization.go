package auth

import (
	"github.com/shreyescodes/erp-portal/internal/app/models"
	"github.com/shreyescodes/erp-portal/internal/pkg/apperrors"
)

// Requester is the authenticated caller of an operation.
type Requester struct {
	ID   int64
	Role models.RoleType
}

// IsAdmin reports whether the requester holds the admin role.
func (r Requester) IsAdmin() bool {
	return r.Role == models.RoleAdmin
}

// Owns reports whether ownerID is the requester.
func (r Requester) Owns(ownerID int64) bool {
	return r.ID != 0 && r.ID == ownerID
}

// RequireAdmin fails with a forbidden error unless the requester is an admin.
func RequireAdmin(r Requester) error {
	if !r.IsAdmin() {
		return apperrors.NewForbiddenError("Access denied. Admin only.")
	}
	return nil
}

// CanModify allows admins and the owner of a resource.
func CanModify(r Requester, ownerID int64, message string) error {
	if r.IsAdmin() || r.Owns(ownerID) {
		return nil
	}
	return apperrors.NewForbiddenError(message)
}

// CanViewComplaint allows admins and the submitter.
func CanViewComplaint(r Requester, c *models.Complaint) error {
	return CanModify(r, c.SubmittedBy, "Access denied")
}

// CanModifyComplaint allows admins at any time and the submitter while the
// complaint is still open. A submitter blocked by the status gets a state
// error, not a forbidden one.
func CanModifyComplaint(r Requester, c *models.Complaint) error {
	if err := CanViewComplaint(r, c); err != nil {
		return err
	}
	if !r.IsAdmin() && c.Status != models.ComplaintStatusOpen {
		return apperrors.NewInvalidStateError("Cannot modify a complaint that is no longer open")
	}
	return nil
}

// EnsureNotSelf rejects admin account actions aimed at the requester's own account.
func EnsureNotSelf(r Requester, targetUserID int64) error {
	if r.ID == targetUserID {
		return apperrors.NewCustomError(apperrors.ErrSelfModification, "You cannot perform this action on your own account")
	}
	return nil
}
