package models

import "time"

// RefreshToken is a stored refresh token. Logout revokes every token of the user.
type RefreshToken struct {
	Token      string    `db:"token"`
	UserID     int64     `db:"user_id"`
	ExpiryDate time.Time `db:"expiry_date"`
	IsRevoked  bool      `db:"is_revoked"`
	CreatedAt  time.Time `db:"created_at"`
}

// IsUsable reports whether the token may still be exchanged at now.
func (t *RefreshToken) IsUsable(now time.Time) bool {
	return !t.IsRevoked && t.ExpiryDate.After(now)
}
