package middleware

import (
	"fmt"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/shreyescodes/erp-portal/internal/app/models/dto"
	"github.com/shreyescodes/erp-portal/internal/pkg/validation"
)

// fieldErrors turns field -> message details into a list ordered by field name
func fieldErrors(details map[string]interface{}) []dto.FieldError {
	if len(details) == 0 {
		return nil
	}
	out := make([]dto.FieldError, 0, len(details))
	for field, msg := range details {
		out = append(out, dto.FieldError{Field: field, Message: fmt.Sprint(msg)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Field < out[j].Field })
	return out
}

// HandleValidationError answers a failed bind. Validator errors are reported
// per field, anything else (malformed JSON, bad form values) as a bad request.
func HandleValidationError(c *gin.Context, err error) {
	fields := validation.FieldMessages(err)
	if fields == nil {
		detail := dto.NewErrorDetail(dto.ErrorCodeBadRequest, "Invalid request format")
		if gin.IsDebugging() {
			detail = detail.WithDetails(err.Error())
		}
		c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorAPIResponse(detail))
		return
	}

	details := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		details[k] = v
	}
	resp := dto.NewErrorAPIResponse(dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Validation failed"))
	resp.Errors = fieldErrors(details)
	c.AbortWithStatusJSON(http.StatusBadRequest, resp)
}
