package dto

import "github.com/shreyescodes/erp-portal/internal/app/models"

// UserFilterRequest represents admin user listing parameters
type UserFilterRequest struct {
	Role      string `form:"role" binding:"omitempty,oneof=user admin"`
	IsActive  *bool  `form:"isActive"`
	Branch    string `form:"branch"`
	Search    string `form:"search"`
	SortBy    string `form:"sortBy"`
	SortOrder string `form:"sortOrder" binding:"omitempty,oneof=asc desc"`
}

// ChangeRoleRequest represents an admin role change
type ChangeRoleRequest struct {
	Role models.RoleType `json:"role" binding:"required,oneof=user admin" example:"admin"`
}
