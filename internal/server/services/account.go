package services

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// AccountService covers the account lifecycle outside of login: sign-up,
// email verification, password reset and change, and the caller's profile.
type AccountService struct {
	d   *Deps
	log logging.Logger
}

func NewAccountService(d *Deps) *AccountService {
	return &AccountService{d: d, log: d.Log.With("module", "account")}
}

// Register creates an unverified account and emails it a verification code.
// When the email cannot be delivered the account still exists: the user ID
// is returned together with an error wrapping common.ErrUpstreamDelivery.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (string, error) {
	email = common.NormalizeEmail(email)

	if _, err := s.d.Repos.Users().GetByEmail(ctx, email); err == nil {
		return "", common.ErrDuplicateEmail
	} else if !errors.Is(err, common.ErrorNotFound) {
		return "", fmt.Errorf("error loading user: %w", err)
	}

	hash, err := s.d.Passwords.Hash(password)
	if err != nil {
		return "", err
	}
	otp, err := cryptox.GenerateOTP()
	if err != nil {
		return "", fmt.Errorf("error generating otp: %w", err)
	}

	now := s.d.Now()
	user, err := s.d.Repos.Users().Create(ctx, &models.User{
		Name:                     name,
		Email:                    email,
		PasswordHash:             hash,
		Role:                     models.RoleUser,
		EmailVerificationOTP:     otp,
		EmailVerificationExpires: models.TimePtr(now.Add(s.d.OTPTTL)),
		CreatedAt:                now,
		UpdatedAt:                now,
	})
	if err != nil {
		return "", err
	}
	s.log.Info(ctx, "user registered", "userId", user.ID)

	if err := s.sendVerification(ctx, user, otp); err != nil {
		return user.ID, err
	}
	return user.ID, nil
}

// VerifyEmail accepts the code while now is before its expiry.
func (s *AccountService) VerifyEmail(ctx context.Context, userID, otp string) error {
	user, err := s.d.Repos.Users().GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsEmailVerified {
		return common.ErrEmailAlreadyVerified
	}
	if err := checkCode(user.EmailVerificationOTP, user.EmailVerificationExpires, otp, s.d.Now()); err != nil {
		s.log.Info(ctx, "email verification rejected", "userId", userID, "reason", err)
		return err
	}

	user.IsEmailVerified = true
	user.EmailVerificationOTP = ""
	user.EmailVerificationExpires = nil
	if err := s.d.saveUser(ctx, user); err != nil {
		return err
	}
	s.log.Info(ctx, "email verified", "userId", userID)
	return nil
}

// ResendVerificationOTP replaces the pending code with a fresh one. The new
// code is kept even if sending it fails.
func (s *AccountService) ResendVerificationOTP(ctx context.Context, userID string) error {
	user, err := s.d.Repos.Users().GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.IsEmailVerified {
		return common.ErrEmailAlreadyVerified
	}

	otp, err := cryptox.GenerateOTP()
	if err != nil {
		return fmt.Errorf("error generating otp: %w", err)
	}
	user.EmailVerificationOTP = otp
	user.EmailVerificationExpires = models.TimePtr(s.d.Now().Add(s.d.OTPTTL))
	if err := s.d.saveUser(ctx, user); err != nil {
		return err
	}
	return s.sendVerification(ctx, user, otp)
}

// RequestPasswordReset stores a reset code and token and emails the code.
// The returned message is the same whether or not the account exists, and
// delivery failures are only logged so they cannot reveal it either.
func (s *AccountService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	email = common.NormalizeEmail(email)

	user, err := s.d.Repos.Users().GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.log.Info(ctx, "password reset for unknown email", "email", email)
			return common.PasswordResetRequestedMessage, nil
		}
		return "", fmt.Errorf("error loading user: %w", err)
	}

	otp, err := cryptox.GenerateOTP()
	if err != nil {
		return "", fmt.Errorf("error generating otp: %w", err)
	}
	token, err := cryptox.GenerateOpaqueToken()
	if err != nil {
		return "", fmt.Errorf("error generating reset token: %w", err)
	}

	user.PasswordResetOTP = otp
	user.PasswordResetToken = token
	user.PasswordResetExpires = models.TimePtr(s.d.Now().Add(s.d.OTPTTL))
	if err := s.d.saveUser(ctx, user); err != nil {
		return "", err
	}

	msg, err := s.d.Emails.PasswordReset(user.Email, user.Name, otp, s.d.OTPTTL)
	if err != nil {
		return "", fmt.Errorf("error rendering email: %w", err)
	}
	if err := s.d.Mailer.Send(ctx, msg); err != nil {
		s.log.Error(ctx, "password reset email not delivered", "userId", user.ID, "error", err)
	}
	return common.PasswordResetRequestedMessage, nil
}

// VerifyResetOTP trades a valid reset code for the opaque reset token.
func (s *AccountService) VerifyResetOTP(ctx context.Context, email, otp string) (string, error) {
	user, err := s.d.Repos.Users().GetByEmail(ctx, common.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return "", common.ErrInvalidOrExpiredCode
		}
		return "", fmt.Errorf("error loading user: %w", err)
	}
	if err := checkCode(user.PasswordResetOTP, user.PasswordResetExpires, otp, s.d.Now()); err != nil {
		s.log.Info(ctx, "reset code rejected", "userId", user.ID, "reason", err)
		return "", err
	}
	return user.PasswordResetToken, nil
}

// ResetPassword sets a new password for the holder of a live reset token,
// consumes the token and ends every session of the account.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	user, err := s.d.Repos.Users().GetByResetToken(ctx, token)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return common.ErrCodeMismatch
		}
		return fmt.Errorf("error loading user: %w", err)
	}
	if user.PasswordResetExpires == nil || !s.d.Now().Before(*user.PasswordResetExpires) {
		return common.ErrCodeExpired
	}

	hash, err := s.d.Passwords.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.PasswordResetOTP = ""
	user.PasswordResetToken = ""
	user.PasswordResetExpires = nil
	if err := s.d.saveUser(ctx, user); err != nil {
		return err
	}

	n, err := s.d.revokeSessions(ctx, user.ID)
	if err != nil {
		return err
	}
	s.log.Info(ctx, "password reset", "userId", user.ID, "revoked", n)
	return nil
}

// ChangePassword replaces the password after checking the current one and
// ends every session of the account.
func (s *AccountService) ChangePassword(ctx context.Context, userID, currentPassword, newPassword string) error {
	user, err := s.d.Repos.Users().GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !s.d.Passwords.Verify(currentPassword, user.PasswordHash) {
		return common.ErrInvalidCredentials
	}

	hash, err := s.d.Passwords.Hash(newPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	if err := s.d.saveUser(ctx, user); err != nil {
		return err
	}

	n, err := s.d.revokeSessions(ctx, user.ID)
	if err != nil {
		return err
	}
	s.log.Info(ctx, "password changed", "userId", user.ID, "revoked", n)
	return nil
}

func (s *AccountService) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.d.Repos.Users().GetByID(ctx, userID)
}

// ProfileUpdate carries the fields a user may change. Empty values are left
// unchanged.
type ProfileUpdate struct {
	Name  string
	Email string
}

// UpdateProfile applies the changes. A new email must be unused and marks the
// account unverified.
func (s *AccountService) UpdateProfile(ctx context.Context, userID string, upd ProfileUpdate) (*models.User, error) {
	user, err := s.d.Repos.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if upd.Name != "" {
		user.Name = upd.Name
	}

	if email := common.NormalizeEmail(upd.Email); email != "" && email != user.Email {
		if _, err := s.d.Repos.Users().GetByEmail(ctx, email); err == nil {
			return nil, common.ErrDuplicateEmail
		} else if !errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("error loading user: %w", err)
		}
		user.Email = email
		user.IsEmailVerified = false
	}

	if err := s.d.saveUser(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

func (s *AccountService) sendVerification(ctx context.Context, user *models.User, otp string) error {
	msg, err := s.d.Emails.Verification(user.Email, user.Name, otp, s.d.OTPTTL)
	if err != nil {
		return fmt.Errorf("error rendering email: %w", err)
	}
	if err := s.d.Mailer.Send(ctx, msg); err != nil {
		s.log.Error(ctx, "verification email not delivered", "userId", user.ID, "error", err)
		return err
	}
	return nil
}

// checkCode validates a stored one-time code. The code is accepted while at
// is strictly before expires.
func checkCode(stored string, expires *time.Time, given string, at time.Time) error {
	if stored == "" || expires == nil {
		return common.ErrCodeMissing
	}
	if !at.Before(*expires) {
		return common.ErrCodeExpired
	}
	if subtle.ConstantTimeCompare([]byte(given), []byte(stored)) != 1 {
		return common.ErrCodeMismatch
	}
	return nil
}
