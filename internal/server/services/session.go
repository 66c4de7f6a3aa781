package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/oauth"
)

// LoginResult is either a full Session or, for accounts with two-factor
// enabled, a temp token that must be traded in via ValidateTwoFactor.
type LoginResult struct {
	RequiresTwoFactor bool
	TempToken         string
	UserID            string
	Session           *Session
}

// SessionService runs the login state machine and manages refresh-token
// backed sessions.
type SessionService struct {
	d   *Deps
	log logging.Logger
}

func NewSessionService(d *Deps) *SessionService {
	return &SessionService{d: d, log: d.Log.With("module", "session")}
}

// Login checks, in order: the account exists, it is not locked, it is not
// suspended, the password matches, the email is verified. A wrong password
// counts towards the lockout. Accounts with two-factor enabled get a temp
// token instead of a session.
func (s *SessionService) Login(ctx context.Context, email, password string, client ClientInfo) (*LoginResult, error) {
	email = common.NormalizeEmail(email)
	now := s.d.Now()

	user, err := s.d.Repos.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Info(ctx, "login for unknown email", "email", email, "ip", client.IP)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	if user.IsLocked(now) {
		s.log.Warn(ctx, "login attempt on locked account", "email", email, "lockUntil", *user.LockUntil)
		return nil, common.ErrAccountLocked
	}
	if user.IsSuspended {
		s.log.Warn(ctx, "login attempt on suspended account", "email", email, "ip", client.IP)
		return nil, common.ErrAccountSuspended
	}

	if !s.d.Passwords.Verify(password, user.PasswordHash) {
		failed := s.d.Lockout.RegisterFailedAttempt(*user, now)
		if err := s.d.saveUser(ctx, &failed); err != nil {
			return nil, err
		}
		if failed.IsLocked(now) {
			s.log.Warn(ctx, "account locked", "email", email, "attempts", failed.LoginAttempts)
		} else {
			s.log.Info(ctx, "wrong password", "email", email, "attempts", failed.LoginAttempts)
		}
		return nil, common.ErrInvalidCredentials
	}

	if !user.IsEmailVerified {
		return nil, common.ErrEmailNotVerified
	}

	if user.TwoFactorEnabled {
		temp, err := s.d.Tokens.IssueTempToken(user.ID)
		if err != nil {
			return nil, fmt.Errorf("error issuing temp token: %w", err)
		}
		return &LoginResult{RequiresTwoFactor: true, TempToken: temp, UserID: user.ID}, nil
	}

	sess, err := s.startSession(ctx, user, client)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "user logged in", "userId", user.ID, "device", client.Device.Describe())
	return &LoginResult{UserID: user.ID, Session: sess}, nil
}

// ValidateTwoFactorToken resolves the temp token from Login and completes the
// two-factor step.
func (s *SessionService) ValidateTwoFactorToken(ctx context.Context, tempToken, code string, client ClientInfo) (*Session, error) {
	claims, err := s.d.Tokens.ParseTempToken(tempToken)
	if err != nil {
		return nil, err
	}
	return s.ValidateTwoFactor(ctx, claims.UserID, code, client)
}

// ValidateTwoFactor completes a login that stopped at the two-factor gate.
func (s *SessionService) ValidateTwoFactor(ctx context.Context, userID, code string, client ClientInfo) (*Session, error) {
	user, err := s.d.Repos.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.TwoFactorEnabled || user.TwoFactorSecret == "" {
		return nil, common.ErrTwoFactorNotEnabled
	}
	if !s.d.TOTP.Verify(user.TwoFactorSecret, code, s.d.Now()) {
		s.log.Info(ctx, "invalid two-factor code", "userId", userID)
		return nil, common.ErrInvalidTwoFactorCode
	}
	if user.IsSuspended {
		s.log.Warn(ctx, "two-factor login on suspended account", "userId", userID)
		return nil, common.ErrAccountSuspended
	}

	sess, err := s.startSession(ctx, user, client)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "user logged in with two-factor", "userId", user.ID)
	return sess, nil
}

// RefreshAccessToken mints a new access token for a live refresh token. The
// refresh token itself is not rotated. Every failure looks the same to the
// caller.
func (s *SessionService) RefreshAccessToken(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.d.Tokens.ParseRefreshToken(refreshToken)
	if err != nil {
		s.log.Debug(ctx, "refresh token rejected", "error", err)
		return "", common.ErrInvalidOrExpiredRefreshToken
	}

	rec, err := s.d.Repos.RefreshTokens().Find(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrInvalidOrExpiredRefreshToken
		}
		return "", fmt.Errorf("error searching refresh token: %w", err)
	}
	if !rec.IsValid(s.d.Now()) || rec.UserID != claims.UserID {
		return "", common.ErrInvalidOrExpiredRefreshToken
	}

	user, err := s.d.Repos.Users().GetByID(ctx, rec.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrInvalidOrExpiredRefreshToken
		}
		return "", fmt.Errorf("error loading user: %w", err)
	}

	access, err := s.d.Tokens.IssueAccessToken(identity(user))
	if err != nil {
		return "", fmt.Errorf("error issuing access token: %w", err)
	}
	return access, nil
}

// Logout revokes one refresh token. Unknown or already revoked tokens are
// not an error.
func (s *SessionService) Logout(ctx context.Context, userID, refreshToken string) error {
	if refreshToken == "" {
		if userID != "" {
			s.log.Warn(ctx, "logout without refresh token", "userId", userID)
		}
		return nil
	}
	if err := s.d.Repos.RefreshTokens().Revoke(ctx, refreshToken, userID, s.d.Now()); err != nil {
		return fmt.Errorf("error revoking refresh token: %w", err)
	}
	s.log.Info(ctx, "user logged out", "userId", userID)
	return nil
}

// LogoutAll revokes every session of the user.
func (s *SessionService) LogoutAll(ctx context.Context, userID string) error {
	n, err := s.d.revokeSessions(ctx, userID)
	if err != nil {
		return err
	}
	s.log.Info(ctx, "user logged out from all devices", "userId", userID, "revoked", n)
	return nil
}

// OAuthLogin signs in the owner of a provider-verified email, creating the
// account on first use. Password and lockout checks do not apply.
func (s *SessionService) OAuthLogin(ctx context.Context, profile *oauth.Profile, client ClientInfo) (*Session, error) {
	email := common.NormalizeEmail(profile.Email)
	if email == "" {
		return nil, common.ErrMissingProviderEmail
	}

	user, err := s.d.Repos.Users().GetByEmail(ctx, email)
	switch {
	case err == nil:
		if user.IsSuspended {
			s.log.Warn(ctx, "oauth login on suspended account", "email", email, "provider", profile.Provider)
			return nil, common.ErrAccountSuspended
		}
		user.IsEmailVerified = true
		user.EmailVerificationOTP = ""
		user.EmailVerificationExpires = nil
		if user.ProfilePicture == "" {
			user.ProfilePicture = profile.AvatarURL
		}
	case errors.Is(err, common.ErrorNotFound):
		user, err = s.createOAuthUser(ctx, email, profile)
		if err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	sess, err := s.startSession(ctx, user, client)
	if err != nil {
		return nil, err
	}
	s.log.Info(ctx, "user logged in via oauth", "userId", user.ID, "provider", profile.Provider)
	return sess, nil
}

func (s *SessionService) createOAuthUser(ctx context.Context, email string, profile *oauth.Profile) (*models.User, error) {
	// Nobody knows this password; the account is reachable through the
	// provider or a password reset.
	random, err := common.MakeRandHexString(32)
	if err != nil {
		return nil, fmt.Errorf("error generating password: %w", err)
	}
	hash, err := s.d.Passwords.Hash(random)
	if err != nil {
		return nil, err
	}

	name := profile.Name
	if name == "" {
		name, _, _ = strings.Cut(email, "@")
	}

	now := s.d.Now()
	user, err := s.d.Repos.Users().Create(ctx, &models.User{
		Name:            name,
		Email:           email,
		PasswordHash:    hash,
		Role:            models.RoleUser,
		IsEmailVerified: true,
		ProfilePicture:  profile.AvatarURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	})
	if err != nil {
		return nil, fmt.Errorf("error creating user: %w", err)
	}
	s.log.Info(ctx, "user created via oauth", "userId", user.ID, "provider", profile.Provider)
	return user, nil
}

// Authenticate resolves an access token to a current, non-suspended user.
func (s *SessionService) Authenticate(ctx context.Context, accessToken string) (*models.User, error) {
	claims, err := s.d.Tokens.ParseAccessToken(accessToken)
	if err != nil {
		return nil, err
	}
	user, err := s.d.Repos.Users().GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrorUnauthorized
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}
	if user.IsSuspended {
		s.log.Warn(ctx, "request from suspended account", "userId", user.ID)
		return nil, common.ErrAccountSuspended
	}
	return user, nil
}

// startSession finishes a successful login: it clears the failure counter,
// records the device, issues both tokens and persists the refresh record.
func (s *SessionService) startSession(ctx context.Context, user *models.User, client ClientInfo) (*Session, error) {
	now := s.d.Now()

	u := models.ResetAttempts(*user)
	u.LastLogin = models.TimePtr(now)
	u.LastLoginDevice = client.Device.Describe()
	if err := s.d.saveUser(ctx, &u); err != nil {
		return nil, err
	}

	access, err := s.d.Tokens.IssueAccessToken(identity(&u))
	if err != nil {
		return nil, fmt.Errorf("error issuing access token: %w", err)
	}
	refresh, expires, err := s.d.Tokens.IssueRefreshToken(u.ID)
	if err != nil {
		return nil, fmt.Errorf("error issuing refresh token: %w", err)
	}

	if err := s.d.Repos.RefreshTokens().Create(ctx, &models.RefreshToken{
		UserID:    u.ID,
		Token:     refresh,
		Device:    client.Device,
		IPAddress: client.IP,
		ExpiresAt: expires,
		CreatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("error saving refresh token: %w", err)
	}

	return &Session{AccessToken: access, RefreshToken: refresh, User: u.Public()}, nil
}
