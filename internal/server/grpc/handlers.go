package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// userIDTrailer carries the new account's id when Register fails to deliver
// the verification email.
const userIDTrailer = "user-id"

func message(msg string) *MessageResponse {
	return &MessageResponse{Message: msg}
}

func (s *GRPCServer) client(ctx context.Context, d DeviceInfo) services.ClientInfo {
	return services.ClientInfo{Device: d.model(), IP: clientIP(ctx, s.trustedProxies)}
}

func sessionResponse(sess *services.Session) *SessionResponse {
	return &SessionResponse{AccessToken: sess.AccessToken, RefreshToken: sess.RefreshToken, User: sess.User}
}

func (s *GRPCServer) Register(ctx context.Context, req *RegisterRequest) (*RegisterResponse, error) {
	if err := firstError(
		validateName(req.Name),
		validateEmail(req.Email),
		validatePassword(req.Password),
	); err != nil {
		return nil, err
	}

	userID, err := s.svc.Accounts.Register(ctx, req.Name, req.Email, req.Password)
	if err != nil {
		if userID != "" && errors.Is(err, common.ErrUpstreamDelivery) {
			s.logger.Warn(ctx, "verification email not delivered", "userId", userID, "error", err)
			if terr := grpc.SetTrailer(ctx, metadata.Pairs(userIDTrailer, userID)); terr != nil {
				s.logger.Warn(ctx, "failed to set trailer", "error", terr)
			}
			return nil, status.Error(codes.Unavailable, "account created but the verification email could not be sent, request a new code")
		}
		return nil, toStatus(ctx, s.logger, err)
	}

	return &RegisterResponse{
		UserID:  userID,
		Message: "Registration successful. Please check your email for the verification code.",
	}, nil
}

func (s *GRPCServer) VerifyEmail(ctx context.Context, req *VerifyEmailRequest) (*MessageResponse, error) {
	if err := firstError(required(req.UserID, "userId"), validateCode(req.OTP, "OTP")); err != nil {
		return nil, err
	}
	if err := s.svc.Accounts.VerifyEmail(ctx, req.UserID, req.OTP); err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return message("Email verified successfully. You can now log in."), nil
}

func (s *GRPCServer) ResendVerificationOTP(ctx context.Context, req *ResendVerificationRequest) (*MessageResponse, error) {
	if err := required(req.UserID, "userId"); err != nil {
		return nil, err
	}
	if err := s.svc.Accounts.ResendVerificationOTP(ctx, req.UserID); err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return message("Verification code sent."), nil
}

func (s *GRPCServer) Login(ctx context.Context, req *LoginRequest) (*LoginResponse, error) {
	if err := firstError(validateEmail(req.Email), required(req.Password, "password")); err != nil {
		return nil, err
	}

	res, err := s.svc.Sessions.Login(ctx, req.Email, req.Password, s.client(ctx, req.Device))
	s.recordLogin(res, err)
	if err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}

	if res.RequiresTwoFactor {
		return &LoginResponse{RequiresTwoFactor: true, TempToken: res.TempToken, UserID: res.UserID}, nil
	}
	return &LoginResponse{
		UserID:       res.UserID,
		AccessToken:  res.Session.AccessToken,
		RefreshToken: res.Session.RefreshToken,
		User:         res.Session.User,
	}, nil
}

func (s *GRPCServer) recordLogin(res *services.LoginResult, err error) {
	if s.metrics == nil {
		return
	}
	var outcome string
	switch {
	case err == nil && res.RequiresTwoFactor:
		outcome = metrics.LoginTwoFactorRequired
	case err == nil:
		outcome = metrics.LoginSuccess
	case errors.Is(err, common.ErrAccountLocked):
		outcome = metrics.LoginLocked
	case errors.Is(err, common.ErrAccountSuspended):
		outcome = metrics.LoginSuspended
	case errors.Is(err, common.ErrEmailNotVerified):
		outcome = metrics.LoginUnverified
	default:
		outcome = metrics.LoginFailed
	}
	s.metrics.LoginOutcomes.WithLabelValues(outcome).Inc()
}

func (s *GRPCServer) ValidateTwoFactor(ctx context.Context, req *ValidateTwoFactorRequest) (*SessionResponse, error) {
	if err := firstError(required(req.TempToken, "tempToken"), validateCode(req.Code, "code")); err != nil {
		return nil, err
	}
	sess, err := s.svc.Sessions.ValidateTwoFactorToken(ctx, req.TempToken, req.Code, s.client(ctx, req.Device))
	if err != nil {
		if errors.Is(err, common.ErrTokenExpired) || errors.Is(err, common.ErrInvalidToken) {
			return nil, status.Error(codes.Unauthenticated, "invalid or expired temp token")
		}
		return nil, toStatus(ctx, s.logger, err)
	}
	return sessionResponse(sess), nil
}

func (s *GRPCServer) RefreshToken(ctx context.Context, req *RefreshTokenRequest) (*RefreshTokenResponse, error) {
	if err := required(req.RefreshToken, "refreshToken"); err != nil {
		return nil, err
	}
	accessToken, err := s.svc.Sessions.RefreshAccessToken(ctx, req.RefreshToken)
	if err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return &RefreshTokenResponse{AccessToken: accessToken}, nil
}

// Logout works without an access token so that a client whose access token
// has expired can still revoke its refresh token.
func (s *GRPCServer) Logout(ctx context.Context, req *LogoutRequest) (*MessageResponse, error) {
	var userID string
	if user, err := userFromContext(ctx); err == nil {
		userID = user.ID
	}
	if err := s.svc.Sessions.Logout(ctx, userID, req.RefreshToken); err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return message("Logged out successfully."), nil
}

func (s *GRPCServer) LogoutAll(ctx context.Context, _ *Empty) (*MessageResponse, error) {
	user, err := userFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.svc.Sessions.LogoutAll(ctx, user.ID); err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return message("Logged out from all devices."), nil
}

func (s *GRPCServer) RequestPasswordReset(ctx context.Context, req *RequestPasswordResetRequest) (*MessageResponse, error) {
	if err := validateEmail(req.Email); err != nil {
		return nil, err
	}
	msg, err := s.svc.Accounts.RequestPasswordReset(ctx, req.Email)
	if err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return message(msg), nil
}

func (s *GRPCServer) VerifyResetOTP(ctx context.Context, req *VerifyResetOTPRequest) (*VerifyResetOTPResponse, error) {
	if err := firstError(validateEmail(req.Email), validateCode(req.OTP, "OTP")); err != nil {
		return nil, err
	}
	token, err := s.svc.Accounts.VerifyResetOTP(ctx, req.Email, req.OTP)
	if err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return &VerifyResetOTPResponse{ResetToken: token, Message: "Code verified. You can now reset your password."}, nil
}

func (s *GRPCServer) ResetPassword(ctx context.Context, req *ResetPasswordRequest) (*MessageResponse, error) {
	if err := firstError(required(req.ResetToken, "resetToken"), validatePassword(req.NewPassword)); err != nil {
		return nil, err
	}
	if err := s.svc.Accounts.ResetPassword(ctx, req.ResetToken, req.NewPassword); err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return message("Password reset successfully. Please log in with your new password."), nil
}

func (s *GRPCServer) ChangePassword(ctx context.Context, req *ChangePasswordRequest) (*MessageResponse, error) {
	user, err := userFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := firstError(required(req.CurrentPassword, "currentPassword"), validatePassword(req.NewPassword)); err != nil {
		return nil, err
	}
	if err := s.svc.Accounts.ChangePassword(ctx, user.ID, req.CurrentPassword, req.NewPassword); err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return message("Password changed successfully. Please log in again."), nil
}

func (s *GRPCServer) GetProfile(ctx context.Context, _ *Empty) (*ProfileResponse, error) {
	user, err := userFromContext(ctx)
	if err != nil {
		return nil, err
	}
	u, err := s.svc.Accounts.GetProfile(ctx, user.ID)
	if err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return &ProfileResponse{User: u.Public()}, nil
}

func (s *GRPCServer) UpdateProfile(ctx context.Context, req *UpdateProfileRequest) (*ProfileResponse, error) {
	user, err := userFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if req.Name != "" {
		if err := validateName(req.Name); err != nil {
			return nil, err
		}
	}
	if req.Email != "" {
		if err := validateEmail(req.Email); err != nil {
			return nil, err
		}
	}

	u, err := s.svc.Accounts.UpdateProfile(ctx, user.ID, services.ProfileUpdate{Name: req.Name, Email: req.Email})
	if err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return &ProfileResponse{User: u.Public()}, nil
}

func (s *GRPCServer) SetupTwoFactor(ctx context.Context, _ *Empty) (*SetupTwoFactorResponse, error) {
	user, err := userFromContext(ctx)
	if err != nil {
		return nil, err
	}
	key, err := s.svc.TwoFactor.Setup(ctx, user.ID)
	if err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return &SetupTwoFactorResponse{Secret: key.Secret, OTPAuthURL: key.URI, QRCode: key.QRCode}, nil
}

func (s *GRPCServer) VerifyTwoFactor(ctx context.Context, req *TwoFactorCodeRequest) (*MessageResponse, error) {
	user, err := userFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := validateCode(req.Code, "code"); err != nil {
		return nil, err
	}
	if err := s.svc.TwoFactor.Verify(ctx, user.ID, req.Code); err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return message("Two-factor authentication enabled."), nil
}

func (s *GRPCServer) DisableTwoFactor(ctx context.Context, req *DisableTwoFactorRequest) (*MessageResponse, error) {
	user, err := userFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := required(req.Password, "password"); err != nil {
		return nil, err
	}
	if err := s.svc.TwoFactor.Disable(ctx, user.ID, req.Password); err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return message("Two-factor authentication disabled."), nil
}

func (s *GRPCServer) OAuthProviders(ctx context.Context, _ *Empty) (*OAuthProvidersResponse, error) {
	if s.svc.OAuth == nil {
		return &OAuthProvidersResponse{Providers: []string{}}, nil
	}
	return &OAuthProvidersResponse{Providers: s.svc.OAuth.Names()}, nil
}

func (s *GRPCServer) OAuthURL(ctx context.Context, req *OAuthURLRequest) (*OAuthURLResponse, error) {
	if err := required(req.Provider, "provider"); err != nil {
		return nil, err
	}
	if s.svc.OAuth == nil {
		return nil, toStatus(ctx, s.logger, common.ErrUnknownProvider)
	}
	p, err := s.svc.OAuth.Get(req.Provider)
	if err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return &OAuthURLResponse{URL: p.AuthCodeURL(req.State)}, nil
}

func (s *GRPCServer) OAuthCallback(ctx context.Context, req *OAuthCallbackRequest) (*SessionResponse, error) {
	if err := firstError(required(req.Provider, "provider"), required(req.Code, "code")); err != nil {
		return nil, err
	}
	if s.svc.OAuth == nil {
		return nil, toStatus(ctx, s.logger, common.ErrUnknownProvider)
	}
	p, err := s.svc.OAuth.Get(req.Provider)
	if err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}

	profile, err := p.Exchange(ctx, req.Code)
	if err != nil {
		if errors.Is(err, common.ErrMissingProviderEmail) {
			return nil, toStatus(ctx, s.logger, err)
		}
		s.logger.Warn(ctx, "oauth exchange failed", "provider", req.Provider, "error", err)
		return nil, status.Error(codes.Unauthenticated, "OAuth authentication failed")
	}

	sess, err := s.svc.Sessions.OAuthLogin(ctx, profile, s.client(ctx, req.Device))
	if err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return sessionResponse(sess), nil
}
