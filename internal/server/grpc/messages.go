package grpc

import "github.com/dmitrijs2005/gophauth/internal/server/models"

// Request and response messages of AuthService. They travel as JSON, see
// jsonCodec.

type Empty struct{}

type MessageResponse struct {
	Message string `json:"message"`
}

type DeviceInfo struct {
	Browser  string `json:"browser,omitempty"`
	OS       string `json:"os,omitempty"`
	Platform string `json:"platform,omitempty"`
	Source   string `json:"source,omitempty"`
}

func (d DeviceInfo) model() models.DeviceInfo {
	return models.DeviceInfo{Browser: d.Browser, OS: d.OS, Platform: d.Platform, Source: d.Source}
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID  string `json:"userId"`
	Message string `json:"message"`
}

type VerifyEmailRequest struct {
	UserID string `json:"userId"`
	OTP    string `json:"otp"`
}

type ResendVerificationRequest struct {
	UserID string `json:"userId"`
}

type LoginRequest struct {
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Device   DeviceInfo `json:"device"`
}

// LoginResponse carries either the session or, when RequiresTwoFactor is
// set, the temp token for ValidateTwoFactor.
type LoginResponse struct {
	RequiresTwoFactor bool               `json:"requiresTwoFactor"`
	TempToken         string             `json:"tempToken,omitempty"`
	UserID            string             `json:"userId"`
	AccessToken       string             `json:"accessToken,omitempty"`
	RefreshToken      string             `json:"refreshToken,omitempty"`
	User              *models.PublicUser `json:"user,omitempty"`
}

type ValidateTwoFactorRequest struct {
	TempToken string     `json:"tempToken"`
	Code      string     `json:"code"`
	Device    DeviceInfo `json:"device"`
}

type SessionResponse struct {
	AccessToken  string             `json:"accessToken"`
	RefreshToken string             `json:"refreshToken"`
	User         *models.PublicUser `json:"user"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RefreshTokenResponse struct {
	AccessToken string `json:"accessToken"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type RequestPasswordResetRequest struct {
	Email string `json:"email"`
}

type VerifyResetOTPRequest struct {
	Email string `json:"email"`
	OTP   string `json:"otp"`
}

type VerifyResetOTPResponse struct {
	ResetToken string `json:"resetToken"`
	Message    string `json:"message"`
}

type ResetPasswordRequest struct {
	ResetToken  string `json:"resetToken"`
	NewPassword string `json:"newPassword"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type ProfileResponse struct {
	User *models.PublicUser `json:"user"`
}

type UpdateProfileRequest struct {
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

type SetupTwoFactorResponse struct {
	Secret     string `json:"secret"`
	OTPAuthURL string `json:"otpauthUrl"`
	QRCode     string `json:"qrCode"`
}

type TwoFactorCodeRequest struct {
	Code string `json:"code"`
}

type DisableTwoFactorRequest struct {
	Password string `json:"password"`
}

type OAuthProvidersResponse struct {
	Providers []string `json:"providers"`
}

type OAuthURLRequest struct {
	Provider string `json:"provider"`
	State    string `json:"state"`
}

type OAuthURLResponse struct {
	URL string `json:"url"`
}

type OAuthCallbackRequest struct {
	Provider string     `json:"provider"`
	Code     string     `json:"code"`
	Device   DeviceInfo `json:"device"`
}

type ListUsersRequest struct {
	Page      int    `json:"page,omitempty"`
	Limit     int    `json:"limit,omitempty"`
	Search    string `json:"search,omitempty"`
	Role      string `json:"role,omitempty"`
	Verified  *bool  `json:"isEmailVerified,omitempty"`
	Suspended *bool  `json:"isSuspended,omitempty"`
	SortBy    string `json:"sortBy,omitempty"`
	SortOrder string `json:"sortOrder,omitempty"`
}

type ListUsersResponse struct {
	Users       []*models.PublicUser `json:"users"`
	TotalPages  int                  `json:"totalPages"`
	CurrentPage int                  `json:"currentPage"`
	TotalUsers  int                  `json:"totalUsers"`
}

type UserIDRequest struct {
	UserID string `json:"userId"`
}

type UserDetailsResponse struct {
	User           *models.PublicUser `json:"user"`
	ActiveSessions int                `json:"activeSessions"`
}

type SuspendUserRequest struct {
	UserID string `json:"userId"`
	Reason string `json:"reason,omitempty"`
}

type UpdateUserRoleRequest struct {
	UserID string `json:"userId"`
	Role   string `json:"role"`
}

type StatsResponse struct {
	TotalUsers         int `json:"totalUsers"`
	VerifiedUsers      int `json:"verifiedUsers"`
	UnverifiedUsers    int `json:"unverifiedUsers"`
	SuspendedUsers     int `json:"suspendedUsers"`
	AdminUsers         int `json:"adminUsers"`
	RegularUsers       int `json:"regularUsers"`
	ActiveTokens       int `json:"activeTokens"`
	NewUsersLast30Days int `json:"newUsersLast30Days"`
}
