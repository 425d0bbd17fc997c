// Package controllers handles HTTP request handling
package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shreyescodes/erp-portal/internal/app/models/dto"
	"github.com/shreyescodes/erp-portal/internal/middleware"
	"github.com/shreyescodes/erp-portal/internal/pkg/apperrors"
	"github.com/shreyescodes/erp-portal/internal/pkg/filestorage"
)

// parseIDParam parses a positive ID parameter from the request path
func parseIDParam(ctx *gin.Context, paramName string) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param(paramName), 10, 64)
	if err != nil || id <= 0 {
		ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorAPIResponse(
			dto.NewErrorDetail(dto.ErrorCodeBadRequest, "Invalid "+paramName)))
		return 0, false
	}
	return id, true
}

// formUpload opens the multipart file under field. A missing file yields nil
// without an error so callers decide whether it is required.
func formUpload(ctx *gin.Context, field string) (*filestorage.Upload, error) {
	fh, err := ctx.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return nil, nil
		}
		if tooLarge := bodyTooLarge(err); tooLarge != nil {
			return nil, tooLarge
		}
		return nil, err
	}
	return filestorage.OpenUpload(fh)
}

// bodyTooLarge translates a body cut off by middleware.BodyLimit
func bodyTooLarge(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return apperrors.NewFileTooLargeError(maxErr.Limit)
	}
	return nil
}

// bindFailed answers a binding error. Oversized bodies keep their 413.
func bindFailed(ctx *gin.Context, err error) {
	if tooLarge := bodyTooLarge(err); tooLarge != nil {
		middleware.HandleAPIError(ctx, tooLarge)
		return
	}
	middleware.HandleValidationError(ctx, err)
}

// uploadFailed answers a formUpload error. Oversized bodies keep their 413.
func uploadFailed(ctx *gin.Context, err error, message string) {
	if errors.Is(err, apperrors.ErrFileTooLarge) {
		middleware.HandleAPIError(ctx, err)
		return
	}
	badRequest(ctx, message)
}

func badRequest(ctx *gin.Context, message string) {
	ctx.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorAPIResponse(
		dto.NewErrorDetail(dto.ErrorCodeBadRequest, message)))
}
