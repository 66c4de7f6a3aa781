// Package models defines the records owned by the credential store and the
// pure state transitions applied to them by the workflows.
package models

import "time"

type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

// User is the identity record. Optional timestamps are nil when unset;
// paired fields (OTP and its expiry, the three reset fields) are always set
// and cleared together.
type User struct {
	ID              string
	Name            string
	Email           string
	PasswordHash    string
	Role            Role
	IsEmailVerified bool
	ProfilePicture  string

	EmailVerificationOTP     string
	EmailVerificationExpires *time.Time

	PasswordResetOTP     string
	PasswordResetToken   string
	PasswordResetExpires *time.Time

	TwoFactorSecret  string
	TwoFactorEnabled bool

	LastLogin       *time.Time
	LastLoginDevice string

	LoginAttempts int
	LockUntil     *time.Time

	IsSuspended      bool
	SuspendedAt      *time.Time
	SuspendedBy      string
	SuspensionReason string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsLocked reports whether the lock is still running at now.
func (u *User) IsLocked(now time.Time) bool {
	return u.LockUntil != nil && u.LockUntil.After(now)
}

// Clone returns a deep copy, so stores and callers never share pointers.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.EmailVerificationExpires = cloneTime(u.EmailVerificationExpires)
	c.PasswordResetExpires = cloneTime(u.PasswordResetExpires)
	c.LastLogin = cloneTime(u.LastLogin)
	c.LockUntil = cloneTime(u.LockUntil)
	c.SuspendedAt = cloneTime(u.SuspendedAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

// TimePtr is a small helper for optional timestamps.
func TimePtr(t time.Time) *time.Time {
	return &t
}
