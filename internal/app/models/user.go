package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID             int64      `json:"id" db:"id" example:"1"`                                                    // Unique identifier for the user
	Name           string     `json:"name" db:"name" example:"Asha Rao"`                                         // Display name
	Email          string     `json:"email" db:"email" example:"asha@institute.edu"`                             // Unique, stored lowercase
	Password       string     `json:"-" db:"password"`                                                           // Hashed password (excluded from JSON)
	Role           RoleType   `json:"role" db:"role" example:"user"`                                             // user or admin
	Branch         *string    `json:"branch,omitempty" db:"branch" example:"CSE"`                                // Optional branch
	USN            *string    `json:"usn,omitempty" db:"usn" example:"1AB22CS001"`                               // Optional university seat number, unique when present
	ProfilePicture *string    `json:"profilePicture,omitempty" db:"profile_picture" example:"https://cdn/x.png"` // Optional avatar URL
	IsActive       bool       `json:"isActive" db:"is_active" example:"true"`                                    // Deactivated users cannot log in
	LastLogin      *time.Time `json:"lastLogin,omitempty" db:"last_login" example:"2024-04-20T18:00:00Z"`        // Timestamp of the last login (nullable)
	CreatedAt      time.Time  `json:"createdAt" db:"created_at" example:"2024-01-01T10:00:00Z"`
	UpdatedAt      time.Time  `json:"updatedAt" db:"updated_at" example:"2024-01-02T15:30:00Z"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Summary returns the public projection of the user.
func (u *User) Summary() *UserSummary {
	return &UserSummary{
		ID:     u.ID,
		Name:   u.Name,
		Email:  u.Email,
		Branch: u.Branch,
		USN:    u.USN,
	}
}
