package helpers

import (
	"math"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/shreyescodes/erp-portal/internal/app/models/dto"
)

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
	DefaultPage     = 1 // Default page is 1-based
)

// CalculateOffsetLimit calculates the offset and limit for SQL queries based on 1-based page index.
func CalculateOffsetLimit(page, size int) (offset uint64, limit int) {
	if size <= 0 || size > MaxPageSize {
		limit = DefaultPageSize
	} else {
		limit = size
	}

	if page < 1 {
		page = DefaultPage
	}

	offset = uint64((page - 1) * limit)
	return offset, limit
}

// NewPaginationInfo creates a standard PaginationInfo DTO.
// page should be the 1-based page number.
func NewPaginationInfo(totalItems int64, page, size int) dto.PaginationInfo {
	if size <= 0 {
		size = DefaultPageSize
	}
	if page < 1 {
		page = DefaultPage
	}

	return dto.PaginationInfo{
		CurrentPage:  page,
		TotalPages:   TotalPages(totalItems, size),
		TotalItems:   totalItems,
		ItemsPerPage: size,
	}
}

// TotalPages returns ceil(totalItems/size), zero for an empty result.
func TotalPages(totalItems int64, size int) int {
	if totalItems <= 0 || size <= 0 {
		return 0
	}
	return int(math.Ceil(float64(totalItems) / float64(size)))
}

// ParsePaginationParams extracts and validates pagination parameters from the request.
// The page size is read from "limit" and falls back to "size".
func ParsePaginationParams(c *gin.Context) (page, size int) {
	return parsePagination(c, DefaultPageSize)
}

// ParsePaginationParamsWithDefault is ParsePaginationParams with a custom default size.
func ParsePaginationParamsWithDefault(c *gin.Context, defaultSize int) (page, size int) {
	return parsePagination(c, defaultSize)
}

func parsePagination(c *gin.Context, defaultSize int) (page, size int) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil || page < 1 {
		page = DefaultPage
	}

	sizeStr := c.Query("limit")
	if sizeStr == "" {
		sizeStr = c.Query("size")
	}
	size, err = strconv.Atoi(sizeStr)
	if err != nil || size <= 0 || size > MaxPageSize {
		size = defaultSize
	}

	return page, size
}
