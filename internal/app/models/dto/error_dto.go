package dto

// ErrorCode represents standardized error codes
type ErrorCode string

// Standard error codes for the application
const (
	// Authentication errors
	ErrorCodeInvalidCredentials ErrorCode = "AUTH_001"
	ErrorCodeAccountDisabled    ErrorCode = "AUTH_002"
	ErrorCodeUnauthenticated    ErrorCode = "AUTH_003"
	ErrorCodeForbidden          ErrorCode = "AUTH_004"
	ErrorCodeInvalidToken       ErrorCode = "AUTH_005"
	ErrorCodeExpiredToken       ErrorCode = "AUTH_006"
	ErrorCodeTokenNotFound      ErrorCode = "AUTH_007"

	// Resource errors
	ErrorCodeResourceNotFound      ErrorCode = "RES_001"
	ErrorCodeResourceAlreadyExists ErrorCode = "RES_002"

	// Validation errors
	ErrorCodeValidationFailed     ErrorCode = "VAL_001"
	ErrorCodeBadRequest           ErrorCode = "VAL_002"
	ErrorCodeUnsupportedMediaType ErrorCode = "VAL_003"
	ErrorCodeFileTooLarge         ErrorCode = "VAL_004"

	// State errors
	ErrorCodeInvalidState     ErrorCode = "STATE_001"
	ErrorCodeAlreadyApproved  ErrorCode = "STATE_002"
	ErrorCodeAlreadyRejected  ErrorCode = "STATE_003"
	ErrorCodeInactive         ErrorCode = "STATE_004"
	ErrorCodeDeadlinePassed   ErrorCode = "STATE_005"
	ErrorCodeExpired          ErrorCode = "STATE_006"
	ErrorCodeSelfModification ErrorCode = "STATE_007"

	// Server errors
	ErrorCodeInternalServer       ErrorCode = "SRV_001"
	ErrorCodeExternalServiceError ErrorCode = "SRV_002"
	ErrorCodeRateLimited          ErrorCode = "SRV_003"
)

// ErrorSeverity tells clients how prominently to surface an error
type ErrorSeverity string

// Severity levels
const (
	ErrorSeverityWarning ErrorSeverity = "WARNING"
	ErrorSeverityError   ErrorSeverity = "ERROR"
)

// ErrorDetail is the machine readable part of a failed response
type ErrorDetail struct {
	Code     ErrorCode     `json:"code" example:"RES_001"`
	Message  string        `json:"message" example:"Content not found"`
	Field    string        `json:"field,omitempty" example:"email"`
	Severity ErrorSeverity `json:"severity" example:"ERROR"`
	Details  interface{}   `json:"details,omitempty"`
}

// NewErrorDetail creates an error detail. Client mistakes (4xx) are warnings.
func NewErrorDetail(code ErrorCode, message string) *ErrorDetail {
	return &ErrorDetail{
		Code:     code,
		Message:  message,
		Severity: severityFor(code),
	}
}

// WithDetails attaches extra context, such as per field messages
func (e *ErrorDetail) WithDetails(details interface{}) *ErrorDetail {
	e.Details = details
	return e
}

func severityFor(code ErrorCode) ErrorSeverity {
	switch code {
	case ErrorCodeInternalServer, ErrorCodeExternalServiceError:
		return ErrorSeverityError
	default:
		return ErrorSeverityWarning
	}
}
