package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/shreyescodes/erp-portal/internal/app/models/dto"
	"github.com/shreyescodes/erp-portal/internal/pkg/apperrors"
	"github.com/shreyescodes/erp-portal/internal/pkg/logger"
)

// errorMapping ties a sentinel error to its HTTP status and error code
type errorMapping struct {
	err    error
	status int
	code   dto.ErrorCode
}

// errorMappings is checked in order, so more specific sentinels come first.
var errorMappings = []errorMapping{
	{apperrors.ErrValidationFailed, http.StatusBadRequest, dto.ErrorCodeValidationFailed},
	{apperrors.ErrBadRequest, http.StatusBadRequest, dto.ErrorCodeBadRequest},
	{apperrors.ErrUnsupportedMediaType, http.StatusUnsupportedMediaType, dto.ErrorCodeUnsupportedMediaType},
	{apperrors.ErrFileTooLarge, http.StatusRequestEntityTooLarge, dto.ErrorCodeFileTooLarge},

	{apperrors.ErrAlreadyApproved, http.StatusBadRequest, dto.ErrorCodeAlreadyApproved},
	{apperrors.ErrAlreadyRejected, http.StatusBadRequest, dto.ErrorCodeAlreadyRejected},
	{apperrors.ErrOpportunityInactive, http.StatusBadRequest, dto.ErrorCodeInactive},
	{apperrors.ErrDeadlinePassed, http.StatusBadRequest, dto.ErrorCodeDeadlinePassed},
	{apperrors.ErrOpportunityExpired, http.StatusBadRequest, dto.ErrorCodeExpired},
	{apperrors.ErrSelfModification, http.StatusBadRequest, dto.ErrorCodeSelfModification},
	{apperrors.ErrInvalidState, http.StatusBadRequest, dto.ErrorCodeInvalidState},

	{apperrors.ErrInvalidCredentials, http.StatusUnauthorized, dto.ErrorCodeInvalidCredentials},
	{apperrors.ErrAccountDisabled, http.StatusUnauthorized, dto.ErrorCodeAccountDisabled},
	{apperrors.ErrTokenExpired, http.StatusUnauthorized, dto.ErrorCodeExpiredToken},
	{apperrors.ErrTokenRevoked, http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
	{apperrors.ErrTokenInvalid, http.StatusUnauthorized, dto.ErrorCodeInvalidToken},
	{apperrors.ErrTokenNotFound, http.StatusUnauthorized, dto.ErrorCodeTokenNotFound},
	{apperrors.ErrUnauthenticated, http.StatusUnauthorized, dto.ErrorCodeUnauthenticated},

	{apperrors.ErrPermissionDenied, http.StatusForbidden, dto.ErrorCodeForbidden},
	{apperrors.ErrResourceNotFound, http.StatusNotFound, dto.ErrorCodeResourceNotFound},

	{apperrors.ErrConflict, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrEmailAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrUSNAlreadyExists, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},
	{apperrors.ErrDuplicateApplication, http.StatusConflict, dto.ErrorCodeResourceAlreadyExists},

	{apperrors.ErrUpstreamFailure, http.StatusBadGateway, dto.ErrorCodeExternalServiceError},
}

// StatusFor returns the HTTP status and error code for err
func StatusFor(err error) (int, dto.ErrorCode) {
	for _, m := range errorMappings {
		if errors.Is(err, m.err) {
			return m.status, m.code
		}
	}
	return http.StatusInternalServerError, dto.ErrorCodeInternalServer
}

// HandleAPIError writes the error envelope for err. Field details of
// validation errors become the errors list. Server errors are logged and their
// message is only exposed in debug mode.
func HandleAPIError(c *gin.Context, err error) {
	status, code := StatusFor(err)
	message := apperrors.MessageOf(err)

	if status >= http.StatusInternalServerError {
		logger.Error().Err(err).
			Str("method", c.Request.Method).
			Str("path", c.Request.URL.Path).
			Int("status", status).
			Msg("Request failed")
		if status == http.StatusInternalServerError && !gin.IsDebugging() {
			message = "Internal server error"
		}
	}

	resp := dto.NewErrorAPIResponse(dto.NewErrorDetail(code, message))
	if code == dto.ErrorCodeValidationFailed {
		resp.Errors = fieldErrors(apperrors.DetailsOf(err))
	}
	c.AbortWithStatusJSON(status, resp)
}
