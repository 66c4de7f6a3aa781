package common

// AccessTokenHeaderName is the gRPC metadata key that may carry a raw access
// token. AuthorizationHeaderName carries "Bearer <token>" instead.
const (
	AccessTokenHeaderName   = "access_token"
	AuthorizationHeaderName = "authorization"
	BearerPrefix            = "Bearer "
)

// PasswordResetRequestedMessage is returned by a reset request whether or not
// the email belongs to an account.
const PasswordResetRequestedMessage = "If an account exists with this email, a password reset code has been sent."
