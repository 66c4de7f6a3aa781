// Package services contains the credential and session workflows. Each
// service owns one area (sessions, account lifecycle, two-factor, admin) and
// shares its collaborators through Deps.
package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/mailer"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
)

// Deps are the collaborators shared by all services.
type Deps struct {
	Repos     repomanager.RepositoryManager
	Tokens    *auth.TokenIssuer
	Passwords *cryptox.PasswordHasher
	TOTP      *cryptox.TOTP
	Mailer    mailer.Dispatcher
	Emails    *mailer.Composer
	Lockout   models.LockoutPolicy
	OTPTTL    time.Duration
	Log       logging.Logger
	Now       func() time.Time
}

// NewDeps builds the shared collaborators from the server config.
func NewDeps(cfg *config.Config, repos repomanager.RepositoryManager, dispatcher mailer.Dispatcher, log logging.Logger) *Deps {
	return &Deps{
		Repos: repos,
		Tokens: auth.NewTokenIssuer(auth.Settings{
			AccessSecret:  cfg.AccessTokenSecret,
			RefreshSecret: cfg.RefreshTokenSecret,
			AccessTTL:     cfg.AccessTokenTTL,
			RefreshTTL:    cfg.RefreshTokenTTL,
			TempTTL:       cfg.TempTokenTTL,
		}),
		Passwords: cryptox.NewPasswordHasher(cfg.BcryptCost),
		TOTP:      cryptox.NewTOTP(cfg.AppName),
		Mailer:    dispatcher,
		Emails:    mailer.NewComposer(cfg.AppName),
		Lockout:   models.LockoutPolicy{MaxAttempts: cfg.MaxLoginAttempts, Duration: cfg.LockDuration},
		OTPTTL:    cfg.OTPTTL,
		Log:       log,
		Now:       time.Now,
	}
}

// ClientInfo describes where a session request came from.
type ClientInfo struct {
	Device models.DeviceInfo
	IP     string
}

// Session is what a completed login hands back to the client.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         *models.PublicUser
}

// saveUser stamps UpdatedAt and writes the whole record back.
func (d *Deps) saveUser(ctx context.Context, u *models.User) error {
	u.UpdatedAt = d.Now()
	if err := d.Repos.Users().Update(ctx, u); err != nil {
		return fmt.Errorf("error updating user: %w", err)
	}
	return nil
}

// revokeSessions revokes every live refresh token of the user and returns
// how many there were.
func (d *Deps) revokeSessions(ctx context.Context, userID string) (int64, error) {
	n, err := d.Repos.RefreshTokens().RevokeAllForUser(ctx, userID, d.Now())
	if err != nil {
		return 0, fmt.Errorf("error revoking refresh tokens: %w", err)
	}
	return n, nil
}

func identity(u *models.User) auth.Identity {
	return auth.Identity{UserID: u.ID, Email: u.Email, Role: string(u.Role)}
}
