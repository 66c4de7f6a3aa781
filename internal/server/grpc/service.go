package grpc

import (
	"context"

	"google.golang.org/grpc"
)

const ServiceName = "gophauth.v1.AuthService"

// Method names of AuthService.
const (
	MethodRegister             = "Register"
	MethodVerifyEmail          = "VerifyEmail"
	MethodResendVerification   = "ResendVerificationOTP"
	MethodLogin                = "Login"
	MethodValidateTwoFactor    = "ValidateTwoFactor"
	MethodRefreshToken         = "RefreshToken"
	MethodLogout               = "Logout"
	MethodLogoutAll            = "LogoutAll"
	MethodRequestPasswordReset = "RequestPasswordReset"
	MethodVerifyResetOTP       = "VerifyResetOTP"
	MethodResetPassword        = "ResetPassword"
	MethodChangePassword       = "ChangePassword"
	MethodGetProfile           = "GetProfile"
	MethodUpdateProfile        = "UpdateProfile"
	MethodSetupTwoFactor       = "SetupTwoFactor"
	MethodVerifyTwoFactor      = "VerifyTwoFactor"
	MethodDisableTwoFactor     = "DisableTwoFactor"
	MethodOAuthProviders       = "OAuthProviders"
	MethodOAuthURL             = "OAuthURL"
	MethodOAuthCallback        = "OAuthCallback"
	MethodListUsers            = "ListUsers"
	MethodGetUser              = "GetUser"
	MethodSuspendUser          = "SuspendUser"
	MethodUnsuspendUser        = "UnsuspendUser"
	MethodDeleteUser           = "DeleteUser"
	MethodUpdateUserRole       = "UpdateUserRole"
	MethodGetStats             = "GetStats"
)

// FullMethod returns the gRPC path of a method, e.g.
// "/gophauth.v1.AuthService/Login".
func FullMethod(name string) string {
	return "/" + ServiceName + "/" + name
}

// AuthServiceServer is implemented by GRPCServer.
type AuthServiceServer interface {
	Register(context.Context, *RegisterRequest) (*RegisterResponse, error)
	VerifyEmail(context.Context, *VerifyEmailRequest) (*MessageResponse, error)
	ResendVerificationOTP(context.Context, *ResendVerificationRequest) (*MessageResponse, error)
	Login(context.Context, *LoginRequest) (*LoginResponse, error)
	ValidateTwoFactor(context.Context, *ValidateTwoFactorRequest) (*SessionResponse, error)
	RefreshToken(context.Context, *RefreshTokenRequest) (*RefreshTokenResponse, error)
	Logout(context.Context, *LogoutRequest) (*MessageResponse, error)
	LogoutAll(context.Context, *Empty) (*MessageResponse, error)
	RequestPasswordReset(context.Context, *RequestPasswordResetRequest) (*MessageResponse, error)
	VerifyResetOTP(context.Context, *VerifyResetOTPRequest) (*VerifyResetOTPResponse, error)
	ResetPassword(context.Context, *ResetPasswordRequest) (*MessageResponse, error)
	ChangePassword(context.Context, *ChangePasswordRequest) (*MessageResponse, error)
	GetProfile(context.Context, *Empty) (*ProfileResponse, error)
	UpdateProfile(context.Context, *UpdateProfileRequest) (*ProfileResponse, error)
	SetupTwoFactor(context.Context, *Empty) (*SetupTwoFactorResponse, error)
	VerifyTwoFactor(context.Context, *TwoFactorCodeRequest) (*MessageResponse, error)
	DisableTwoFactor(context.Context, *DisableTwoFactorRequest) (*MessageResponse, error)
	OAuthProviders(context.Context, *Empty) (*OAuthProvidersResponse, error)
	OAuthURL(context.Context, *OAuthURLRequest) (*OAuthURLResponse, error)
	OAuthCallback(context.Context, *OAuthCallbackRequest) (*SessionResponse, error)
	ListUsers(context.Context, *ListUsersRequest) (*ListUsersResponse, error)
	GetUser(context.Context, *UserIDRequest) (*UserDetailsResponse, error)
	SuspendUser(context.Context, *SuspendUserRequest) (*MessageResponse, error)
	UnsuspendUser(context.Context, *UserIDRequest) (*MessageResponse, error)
	DeleteUser(context.Context, *UserIDRequest) (*MessageResponse, error)
	UpdateUserRole(context.Context, *UpdateUserRoleRequest) (*ProfileResponse, error)
	GetStats(context.Context, *Empty) (*StatsResponse, error)
}

// unary builds the method descriptor for one RPC: it decodes Req, runs the
// interceptor chain and dispatches to call.
func unary[Req, Resp any](name string, call func(AuthServiceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			s := srv.(AuthServiceServer)
			if interceptor == nil {
				return call(s, ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: FullMethod(name)}
			return interceptor(ctx, in, info, func(ctx context.Context, req any) (any, error) {
				return call(s, ctx, req.(*Req))
			})
		},
	}
}

// AuthServiceDesc describes AuthService without generated protobuf code;
// messages are carried by the JSON codec.
var AuthServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*AuthServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary(MethodRegister, AuthServiceServer.Register),
		unary(MethodVerifyEmail, AuthServiceServer.VerifyEmail),
		unary(MethodResendVerification, AuthServiceServer.ResendVerificationOTP),
		unary(MethodLogin, AuthServiceServer.Login),
		unary(MethodValidateTwoFactor, AuthServiceServer.ValidateTwoFactor),
		unary(MethodRefreshToken, AuthServiceServer.RefreshToken),
		unary(MethodLogout, AuthServiceServer.Logout),
		unary(MethodLogoutAll, AuthServiceServer.LogoutAll),
		unary(MethodRequestPasswordReset, AuthServiceServer.RequestPasswordReset),
		unary(MethodVerifyResetOTP, AuthServiceServer.VerifyResetOTP),
		unary(MethodResetPassword, AuthServiceServer.ResetPassword),
		unary(MethodChangePassword, AuthServiceServer.ChangePassword),
		unary(MethodGetProfile, AuthServiceServer.GetProfile),
		unary(MethodUpdateProfile, AuthServiceServer.UpdateProfile),
		unary(MethodSetupTwoFactor, AuthServiceServer.SetupTwoFactor),
		unary(MethodVerifyTwoFactor, AuthServiceServer.VerifyTwoFactor),
		unary(MethodDisableTwoFactor, AuthServiceServer.DisableTwoFactor),
		unary(MethodOAuthProviders, AuthServiceServer.OAuthProviders),
		unary(MethodOAuthURL, AuthServiceServer.OAuthURL),
		unary(MethodOAuthCallback, AuthServiceServer.OAuthCallback),
		unary(MethodListUsers, AuthServiceServer.ListUsers),
		unary(MethodGetUser, AuthServiceServer.GetUser),
		unary(MethodSuspendUser, AuthServiceServer.SuspendUser),
		unary(MethodUnsuspendUser, AuthServiceServer.UnsuspendUser),
		unary(MethodDeleteUser, AuthServiceServer.DeleteUser),
		unary(MethodUpdateUserRole, AuthServiceServer.UpdateUserRole),
		unary(MethodGetStats, AuthServiceServer.GetStats),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "gophauth/v1/auth.json",
}
