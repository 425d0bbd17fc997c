package models

import (
	"fmt"
	"math"
	"time"
)

// RoleType defines the user role type
type RoleType string

const (
	RoleUser  RoleType = "user"
	RoleAdmin RoleType = "admin"
)

// IsValid reports whether r is a known role.
func (r RoleType) IsValid() bool {
	return r == RoleUser || r == RoleAdmin
}

// UserSummary is the public projection of a user joined onto other records.
type UserSummary struct {
	ID     int64   `json:"id" example:"7"`
	Name   string  `json:"name" example:"Asha Rao"`
	Email  string  `json:"email,omitempty" example:"asha@institute.edu"`
	Branch *string `json:"branch,omitempty" example:"CSE"`
	USN    *string `json:"usn,omitempty" example:"1AB22CS001"`
}

// Page is one page of a list query plus the total row count.
type Page[T any] struct {
	Items []T
	Total int64
}

// CountBucket is a group-by row used in statistics.
type CountBucket struct {
	Key   string `json:"key" example:"academic"`
	Count int64  `json:"count" example:"12"`
}

const day = 24 * time.Hour

// ceilDays returns the number of days between from and to rounded up.
func ceilDays(from, to time.Time) int {
	return int(math.Ceil(float64(to.Sub(from)) / float64(day)))
}

// elapsedDays is the absolute distance between a and b in days, rounded up.
func elapsedDays(a, b time.Time) int {
	diff := b.Sub(a)
	if diff < 0 {
		diff = -diff
	}
	return int(math.Ceil(float64(diff) / float64(day)))
}

// ageLabel renders the distance between created and now as "N days ago" and friends.
func ageLabel(created, now time.Time) string {
	days := elapsedDays(created, now)

	switch {
	case days == 1:
		return "1 day ago"
	case days < 7:
		return fmt.Sprintf("%d days ago", days)
	case days < 30:
		return fmt.Sprintf("%d weeks ago", days/7)
	case days < 365:
		return fmt.Sprintf("%d months ago", days/30)
	default:
		return fmt.Sprintf("%d years ago", days/365)
	}
}

// countdownLabel renders the days left until t, using expired for past dates.
func countdownLabel(t, now time.Time, expired string) string {
	days := ceilDays(now, t)
	switch {
	case days < 0:
		return expired
	case days == 0:
		return "Today"
	case days == 1:
		return "1 day left"
	default:
		return fmt.Sprintf("%d days left", days)
	}
}
