// Package common defines sentinel errors, constants and small helpers shared
// by the server, the admin CLI and the tests. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound     = errors.New("not found")
	ErrDuplicateEmail = errors.New("user with this email already exists")
	ErrDuplicateToken = errors.New("refresh token already exists")

	// Generic flow control.
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrInvalidRole    = errors.New("invalid role")
	ErrRateLimited    = errors.New("too many requests, please try again later")

	// Login.
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrAccountLocked      = errors.New("account is temporarily locked due to too many failed login attempts")
	ErrAccountSuspended   = errors.New("account has been suspended")
	ErrEmailNotVerified   = errors.New("please verify your email before logging in")

	// One-time codes. ErrInvalidOrExpiredCode is what callers see; the
	// narrower errors wrap it so logs can tell the cases apart.
	ErrInvalidOrExpiredCode = errors.New("invalid or expired code")
	ErrCodeMissing          = wrap("no code issued", ErrInvalidOrExpiredCode)
	ErrCodeExpired          = wrap("code expired", ErrInvalidOrExpiredCode)
	ErrCodeMismatch         = wrap("code mismatch", ErrInvalidOrExpiredCode)
	ErrEmailAlreadyVerified = errors.New("email is already verified")

	// Two-factor.
	ErrTwoFactorNotEnabled     = errors.New("two-factor authentication is not enabled")
	ErrTwoFactorAlreadyEnabled = errors.New("two-factor authentication is already enabled")
	ErrTwoFactorNotSetUp       = errors.New("two-factor authentication has not been set up")
	ErrInvalidTwoFactorCode    = errors.New("invalid two-factor code")

	// Tokens.
	ErrInvalidToken                 = errors.New("invalid token")
	ErrTokenExpired                 = errors.New("token expired")
	ErrInvalidOrExpiredRefreshToken = errors.New("invalid or expired refresh token")

	// Collaborators.
	ErrUpstreamDelivery     = errors.New("failed to deliver email")
	ErrMissingProviderEmail = errors.New("identity provider did not return an email address")
	ErrUnknownProvider      = errors.New("unknown identity provider")
)

type wrappedError struct {
	msg    string
	parent error
}

func wrap(msg string, parent error) error {
	return &wrappedError{msg: msg, parent: parent}
}

func (e *wrappedError) Error() string { return e.msg }

func (e *wrappedError) Unwrap() error { return e.parent }
