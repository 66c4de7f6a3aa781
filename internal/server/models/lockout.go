package models

import "time"

// LockoutPolicy locks an account for Duration once MaxAttempts consecutive
// password failures are reached.
type LockoutPolicy struct {
	MaxAttempts int
	Duration    time.Duration
}

// RegisterFailedAttempt returns the user after one more failed password
// check at now. A lock that has already run out restarts the count at one
// and is cleared; otherwise the count grows and the lock is set when the
// threshold is reached.
func (p LockoutPolicy) RegisterFailedAttempt(u User, now time.Time) User {
	if u.LockUntil != nil && !u.LockUntil.After(now) {
		u.LoginAttempts = 1
		u.LockUntil = nil
		return u
	}

	u.LoginAttempts++
	if u.LoginAttempts >= p.MaxAttempts && !u.IsLocked(now) {
		u.LockUntil = TimePtr(now.Add(p.Duration))
	}
	return u
}

// ResetAttempts clears the counter and the lock after a full login.
func ResetAttempts(u User) User {
	u.LoginAttempts = 0
	u.LockUntil = nil
	return u
}
