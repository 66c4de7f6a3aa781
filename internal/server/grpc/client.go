package grpc

import (
	"context"

	"google.golang.org/grpc"
)

// AuthClient calls AuthService over a connection. Every call asks for the
// JSON codec.
type AuthClient struct {
	cc grpc.ClientConnInterface
}

func NewAuthClient(cc grpc.ClientConnInterface) *AuthClient {
	return &AuthClient{cc: cc}
}

func invoke[Resp any](ctx context.Context, cc grpc.ClientConnInterface, method string, in any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := cc.Invoke(ctx, FullMethod(method), in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *AuthClient) Register(ctx context.Context, in *RegisterRequest, opts ...grpc.CallOption) (*RegisterResponse, error) {
	return invoke[RegisterResponse](ctx, c.cc, MethodRegister, in, opts)
}

func (c *AuthClient) VerifyEmail(ctx context.Context, in *VerifyEmailRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, MethodVerifyEmail, in, opts)
}

func (c *AuthClient) ResendVerificationOTP(ctx context.Context, in *ResendVerificationRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, MethodResendVerification, in, opts)
}

func (c *AuthClient) Login(ctx context.Context, in *LoginRequest, opts ...grpc.CallOption) (*LoginResponse, error) {
	return invoke[LoginResponse](ctx, c.cc, MethodLogin, in, opts)
}

func (c *AuthClient) ValidateTwoFactor(ctx context.Context, in *ValidateTwoFactorRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, MethodValidateTwoFactor, in, opts)
}

func (c *AuthClient) RefreshToken(ctx context.Context, in *RefreshTokenRequest, opts ...grpc.CallOption) (*RefreshTokenResponse, error) {
	return invoke[RefreshTokenResponse](ctx, c.cc, MethodRefreshToken, in, opts)
}

func (c *AuthClient) Logout(ctx context.Context, in *LogoutRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, MethodLogout, in, opts)
}

func (c *AuthClient) LogoutAll(ctx context.Context, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, MethodLogoutAll, &Empty{}, opts)
}

func (c *AuthClient) RequestPasswordReset(ctx context.Context, in *RequestPasswordResetRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, MethodRequestPasswordReset, in, opts)
}

func (c *AuthClient) VerifyResetOTP(ctx context.Context, in *VerifyResetOTPRequest, opts ...grpc.CallOption) (*VerifyResetOTPResponse, error) {
	return invoke[VerifyResetOTPResponse](ctx, c.cc, MethodVerifyResetOTP, in, opts)
}

func (c *AuthClient) ResetPassword(ctx context.Context, in *ResetPasswordRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, MethodResetPassword, in, opts)
}

func (c *AuthClient) ChangePassword(ctx context.Context, in *ChangePasswordRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, MethodChangePassword, in, opts)
}

func (c *AuthClient) GetProfile(ctx context.Context, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileResponse](ctx, c.cc, MethodGetProfile, &Empty{}, opts)
}

func (c *AuthClient) UpdateProfile(ctx context.Context, in *UpdateProfileRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileResponse](ctx, c.cc, MethodUpdateProfile, in, opts)
}

func (c *AuthClient) SetupTwoFactor(ctx context.Context, opts ...grpc.CallOption) (*SetupTwoFactorResponse, error) {
	return invoke[SetupTwoFactorResponse](ctx, c.cc, MethodSetupTwoFactor, &Empty{}, opts)
}

func (c *AuthClient) VerifyTwoFactor(ctx context.Context, in *TwoFactorCodeRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, MethodVerifyTwoFactor, in, opts)
}

func (c *AuthClient) DisableTwoFactor(ctx context.Context, in *DisableTwoFactorRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, MethodDisableTwoFactor, in, opts)
}

func (c *AuthClient) OAuthProviders(ctx context.Context, opts ...grpc.CallOption) (*OAuthProvidersResponse, error) {
	return invoke[OAuthProvidersResponse](ctx, c.cc, MethodOAuthProviders, &Empty{}, opts)
}

func (c *AuthClient) OAuthURL(ctx context.Context, in *OAuthURLRequest, opts ...grpc.CallOption) (*OAuthURLResponse, error) {
	return invoke[OAuthURLResponse](ctx, c.cc, MethodOAuthURL, in, opts)
}

func (c *AuthClient) OAuthCallback(ctx context.Context, in *OAuthCallbackRequest, opts ...grpc.CallOption) (*SessionResponse, error) {
	return invoke[SessionResponse](ctx, c.cc, MethodOAuthCallback, in, opts)
}

func (c *AuthClient) ListUsers(ctx context.Context, in *ListUsersRequest, opts ...grpc.CallOption) (*ListUsersResponse, error) {
	return invoke[ListUsersResponse](ctx, c.cc, MethodListUsers, in, opts)
}

func (c *AuthClient) GetUser(ctx context.Context, in *UserIDRequest, opts ...grpc.CallOption) (*UserDetailsResponse, error) {
	return invoke[UserDetailsResponse](ctx, c.cc, MethodGetUser, in, opts)
}

func (c *AuthClient) SuspendUser(ctx context.Context, in *SuspendUserRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, MethodSuspendUser, in, opts)
}

func (c *AuthClient) UnsuspendUser(ctx context.Context, in *UserIDRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, MethodUnsuspendUser, in, opts)
}

func (c *AuthClient) DeleteUser(ctx context.Context, in *UserIDRequest, opts ...grpc.CallOption) (*MessageResponse, error) {
	return invoke[MessageResponse](ctx, c.cc, MethodDeleteUser, in, opts)
}

func (c *AuthClient) UpdateUserRole(ctx context.Context, in *UpdateUserRoleRequest, opts ...grpc.CallOption) (*ProfileResponse, error) {
	return invoke[ProfileResponse](ctx, c.cc, MethodUpdateUserRole, in, opts)
}

func (c *AuthClient) GetStats(ctx context.Context, opts ...grpc.CallOption) (*StatsResponse, error) {
	return invoke[StatsResponse](ctx, c.cc, MethodGetStats, &Empty{}, opts)
}
