package dto

import "github.com/shreyescodes/erp-portal/internal/app/models"

// RegisterRequest represents a self registration. The role is always user.
type RegisterRequest struct {
	Name     string  `json:"name" binding:"required,personname" example:"Asha Rao"`
	Email    string  `json:"email" binding:"required,email,max=100" example:"asha@institute.edu"`
	Password string  `json:"password" binding:"required,strongpassword" example:"Secret123"`
	Branch   *string `json:"branch,omitempty" binding:"omitempty,min=2,max=50" example:"CSE"`
	USN      *string `json:"usn,omitempty" binding:"omitempty,usn" example:"1AB22CS001"`
}

// LoginRequest represents login credentials
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" example:"asha@institute.edu"`
	Password string `json:"password" binding:"required" example:"Secret123"`
}

// RefreshTokenRequest represents refresh token request
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// TokenResponse represents JWT token information
type TokenResponse struct {
	AccessToken           string `json:"accessToken"`
	TokenType             string `json:"tokenType" example:"Bearer"`
	ExpiresIn             int64  `json:"expiresIn" example:"3600"`
	RefreshToken          string `json:"refreshToken,omitempty"`
	RefreshTokenExpiresIn int64  `json:"refreshTokenExpiresIn,omitempty" example:"604800"`
}

// AuthResponse represents successful authentication response
type AuthResponse struct {
	Token TokenResponse `json:"token"`
	User  *models.User  `json:"user"`
}

// UpdateProfileRequest carries the profile fields a user may change. Nil fields are left as they are.
type UpdateProfileRequest struct {
	Name           *string `json:"name,omitempty" binding:"omitempty,personname" example:"Asha Rao"`
	Branch         *string `json:"branch,omitempty" binding:"omitempty,min=2,max=50" example:"ECE"`
	USN            *string `json:"usn,omitempty" binding:"omitempty,usn" example:"1AB22EC010"`
	ProfilePicture *string `json:"profilePicture,omitempty" binding:"omitempty,url" example:"https://cdn.example.com/a.png"`
}

// ChangePasswordRequest represents a password change request
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required,strongpassword"`
}
