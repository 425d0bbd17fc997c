package dto

// APIResponse is the envelope returned by every endpoint.
type APIResponse struct {
	Success    bool            `json:"success" example:"true"`
	Message    string          `json:"message,omitempty" example:"Operation completed successfully"`
	Data       interface{}     `json:"data,omitempty"`
	Errors     []FieldError    `json:"errors,omitempty"`
	Error      *ErrorDetail    `json:"error,omitempty"`
	Pagination *PaginationInfo `json:"pagination,omitempty"`
}

// FieldError is a single field level validation message.
type FieldError struct {
	Field   string `json:"field" example:"title"`
	Message string `json:"message" example:"title is required"`
}

// PaginationInfo describes the page returned by a list endpoint.
type PaginationInfo struct {
	CurrentPage  int   `json:"currentPage" example:"1"`
	TotalPages   int   `json:"totalPages" example:"5"`
	TotalItems   int64 `json:"totalItems" example:"42"`
	ItemsPerPage int   `json:"itemsPerPage" example:"10"`
}

// NewSuccessResponse wraps data in a successful envelope.
func NewSuccessResponse(data interface{}, message string) APIResponse {
	return APIResponse{
		Success: true,
		Message: message,
		Data:    data,
	}
}

// NewPaginatedResponse wraps a page of items in a successful envelope.
func NewPaginatedResponse(items interface{}, pagination PaginationInfo) APIResponse {
	return APIResponse{
		Success:    true,
		Data:       items,
		Pagination: &pagination,
	}
}

// NewErrorAPIResponse builds a failed envelope from an error detail.
func NewErrorAPIResponse(detail *ErrorDetail) APIResponse {
	return APIResponse{
		Success: false,
		Message: detail.Message,
		Error:   detail,
	}
}
