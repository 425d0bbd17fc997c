package apperrors

import (
	"errors"
	"fmt"
)

// Common errors
var (
	// Resource errors
	ErrResourceNotFound = errors.New("resource not found")
	ErrConflict         = errors.New("conflict")

	// Authentication errors
	ErrUnauthenticated    = errors.New("authentication required")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTokenExpired       = errors.New("token expired")
	ErrTokenInvalid       = errors.New("invalid token")
	ErrTokenNotFound      = errors.New("token not found")
	ErrTokenRevoked       = errors.New("token revoked")
	ErrAccountDisabled    = errors.New("account is deactivated")

	// Authorization errors
	ErrPermissionDenied = errors.New("permission denied")

	// Validation errors
	ErrValidationFailed     = errors.New("validation failed")
	ErrBadRequest           = errors.New("bad request")
	ErrUnsupportedMediaType = errors.New("unsupported media type")
	ErrFileTooLarge         = errors.New("file too large")

	// Upstream errors
	ErrUpstreamFailure = errors.New("upstream service failure")
)

// User errors
var (
	ErrEmailAlreadyExists = errors.New("user with this email already exists")
	ErrUSNAlreadyExists   = errors.New("USN already exists")
	ErrSelfModification   = errors.New("administrators cannot modify their own account this way")
)

// State errors. Every one of these is a client error caused by the resource's
// current state rather than the caller's identity.
var (
	ErrInvalidState         = errors.New("action not allowed in the current state")
	ErrAlreadyApproved      = errors.New("content is already approved")
	ErrAlreadyRejected      = errors.New("content is already rejected")
	ErrOpportunityInactive  = errors.New("this opportunity is no longer active")
	ErrDeadlinePassed       = errors.New("application deadline has passed")
	ErrOpportunityExpired   = errors.New("cannot activate an opportunity whose deadline has passed")
	ErrDuplicateApplication = errors.New("you have already applied for this opportunity")
)

// NewResourceNotFoundError creates a new custom error for resource not found with a message
func NewResourceNotFoundError(message string) error {
	return &CustomError{
		Err:     ErrResourceNotFound,
		Message: message,
	}
}

// NewConflictError creates a new custom error for conflict situations with a message
func NewConflictError(message string) error {
	return &CustomError{
		Err:     ErrConflict,
		Message: message,
	}
}

// NewForbiddenError creates a new custom error for permission denied with a message
func NewForbiddenError(message string) error {
	return &CustomError{
		Err:     ErrPermissionDenied,
		Message: message,
	}
}

// NewBadRequestError creates a new custom error for bad request with a message
func NewBadRequestError(message string) error {
	return &CustomError{
		Err:     ErrBadRequest,
		Message: message,
	}
}

// NewInvalidStateError creates a state error with a message
func NewInvalidStateError(message string) error {
	return &CustomError{
		Err:     ErrInvalidState,
		Message: message,
	}
}

// NewValidationError creates a validation error carrying field level messages
func NewValidationError(message string, fields map[string]string) error {
	details := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		details[k] = v
	}
	return &CustomError{
		Err:     ErrValidationFailed,
		Message: message,
		Details: details,
	}
}

// NewFileTooLargeError reports an upload above limit bytes
func NewFileTooLargeError(limit int64) error {
	return &CustomError{
		Err:     ErrFileTooLarge,
		Message: fmt.Sprintf("File exceeds the maximum upload size of %d MB", limit/(1024*1024)),
		Details: map[string]interface{}{"maxBytes": limit},
	}
}

// NewUpstreamError wraps a failure of an external collaborator
func NewUpstreamError(message string, cause error) error {
	return &CustomError{
		Err:     errors.Join(ErrUpstreamFailure, cause),
		Message: message,
	}
}

// Is returns whether target matches any of the errors in errList
func Is(err, target error, errList ...error) bool {
	if errors.Is(err, target) {
		return true
	}

	for _, e := range errList {
		if errors.Is(err, e) {
			return true
		}
	}

	return false
}

// CustomError represents application-specific errors with additional context
type CustomError struct {
	Err     error
	Message string
	Code    string
	Details map[string]interface{}
}

// Error implements error interface
func (e *CustomError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return "unknown error"
}

// Unwrap implements errors.Unwrap interface
func (e *CustomError) Unwrap() error {
	return e.Err
}

// NewCustomError creates a CustomError with underlying error
func NewCustomError(err error, message string) *CustomError {
	return &CustomError{
		Err:     err,
		Message: message,
	}
}

// WithDetails adds context details to the error
func (e *CustomError) WithDetails(details map[string]interface{}) *CustomError {
	e.Details = details
	return e
}

// WithCode adds an error code
func (e *CustomError) WithCode(code string) *CustomError {
	e.Code = code
	return e
}

// MessageOf returns the user facing message of err: the CustomError message
// when one is in the chain, otherwise the error text.
func MessageOf(err error) string {
	var ce *CustomError
	if errors.As(err, &ce) && ce.Message != "" {
		return ce.Message
	}
	return err.Error()
}

// DetailsOf returns the details attached to the first CustomError in the chain.
func DetailsOf(err error) map[string]interface{} {
	var ce *CustomError
	if errors.As(err, &ce) {
		return ce.Details
	}
	return nil
}
