package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/logging"
)

// TwoFactorService enrolls and removes TOTP authenticators. A secret is
// stored by Setup but only takes effect once Verify confirms it.
type TwoFactorService struct {
	d   *Deps
	log logging.Logger
}

func NewTwoFactorService(d *Deps) *TwoFactorService {
	return &TwoFactorService{d: d, log: d.Log.With("module", "twofactor")}
}

// Setup provisions a new secret for the user. Calling it again before
// Verify replaces the pending secret.
func (s *TwoFactorService) Setup(ctx context.Context, userID string) (*cryptox.TOTPKey, error) {
	user, err := s.d.Repos.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TwoFactorEnabled {
		return nil, common.ErrTwoFactorAlreadyEnabled
	}

	key, err := s.d.TOTP.Provision(user.Email)
	if err != nil {
		return nil, fmt.Errorf("error provisioning totp: %w", err)
	}
	user.TwoFactorSecret = key.Secret
	if err := s.d.saveUser(ctx, user); err != nil {
		return nil, err
	}
	return key, nil
}

// Verify confirms the pending secret with a current code and turns
// two-factor on.
func (s *TwoFactorService) Verify(ctx context.Context, userID, code string) error {
	user, err := s.d.Repos.Users().GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.TwoFactorSecret == "" {
		return common.ErrTwoFactorNotSetUp
	}
	if !s.d.TOTP.Verify(user.TwoFactorSecret, code, s.d.Now()) {
		return common.ErrInvalidTwoFactorCode
	}

	user.TwoFactorEnabled = true
	if err := s.d.saveUser(ctx, user); err != nil {
		return err
	}
	s.log.Info(ctx, "two-factor enabled", "userId", userID)
	return nil
}

// Disable turns two-factor off after a password check and drops the secret.
func (s *TwoFactorService) Disable(ctx context.Context, userID, password string) error {
	user, err := s.d.Repos.Users().GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.TwoFactorEnabled {
		return common.ErrTwoFactorNotEnabled
	}
	if !s.d.Passwords.Verify(password, user.PasswordHash) {
		return common.ErrInvalidCredentials
	}

	user.TwoFactorEnabled = false
	user.TwoFactorSecret = ""
	if err := s.d.saveUser(ctx, user); err != nil {
		return err
	}
	s.log.Info(ctx, "two-factor disabled", "userId", userID)
	return nil
}
