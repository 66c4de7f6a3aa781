package models

import "time"

// RefreshToken is the server-side record behind a signed refresh token.
type RefreshToken struct {
	ID        string
	UserID    string
	Token     string
	Device    DeviceInfo
	IPAddress string
	ExpiresAt time.Time
	Revoked   bool
	RevokedAt *time.Time
	CreatedAt time.Time
}

// IsValid reports whether the record can still back a session at now.
func (t *RefreshToken) IsValid(now time.Time) bool {
	return !t.Revoked && t.ExpiresAt.After(now)
}
