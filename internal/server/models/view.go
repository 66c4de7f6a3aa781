package models

import "time"

// PublicUser is the projection of a User that may leave the service. It never
// carries the password hash, one-time codes, the reset token or the TOTP secret.
type PublicUser struct {
	ID               string     `json:"id"`
	Name             string     `json:"name"`
	Email            string     `json:"email"`
	Role             Role       `json:"role"`
	IsEmailVerified  bool       `json:"isEmailVerified"`
	ProfilePicture   string     `json:"profilePicture,omitempty"`
	TwoFactorEnabled bool       `json:"twoFactorEnabled"`
	LastLogin        *time.Time `json:"lastLogin,omitempty"`
	LastLoginDevice  string     `json:"lastLoginDevice,omitempty"`
	IsSuspended      bool       `json:"isSuspended"`
	SuspendedAt      *time.Time `json:"suspendedAt,omitempty"`
	SuspensionReason string     `json:"suspensionReason,omitempty"`
	CreatedAt        time.Time  `json:"createdAt"`
}

func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:               u.ID,
		Name:             u.Name,
		Email:            u.Email,
		Role:             u.Role,
		IsEmailVerified:  u.IsEmailVerified,
		ProfilePicture:   u.ProfilePicture,
		TwoFactorEnabled: u.TwoFactorEnabled,
		LastLogin:        cloneTime(u.LastLogin),
		LastLoginDevice:  u.LastLoginDevice,
		IsSuspended:      u.IsSuspended,
		SuspendedAt:      cloneTime(u.SuspendedAt),
		SuspensionReason: u.SuspensionReason,
		CreatedAt:        u.CreatedAt,
	}
}
