package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/cryptox"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/auth"
	"github.com/dmitrijs2005/gophauth/internal/server/mailer"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/stretchr/testify/require"
)

// --- helpers ---

const testPassword = "Sup3r$ecret"

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fixture struct {
	clock *testClock
	repos *repomanager.MemoryRepositoryManager
	mail  *mailer.Recorder
	deps  *Deps

	sessions  *SessionService
	accounts  *AccountService
	twoFactor *TwoFactorService
	admin     *AdminService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clk := &testClock{now: time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)}
	repos := repomanager.NewMemoryRepositoryManager()
	rec := &mailer.Recorder{}

	deps := &Deps{
		Repos: repos,
		Tokens: auth.NewTokenIssuer(auth.Settings{
			AccessSecret:  "access-secret",
			RefreshSecret: "refresh-secret",
			AccessTTL:     15 * time.Minute,
			RefreshTTL:    7 * 24 * time.Hour,
			TempTTL:       5 * time.Minute,
		}).WithClock(clk.Now),
		Passwords: cryptox.NewPasswordHasher(4),
		TOTP:      cryptox.NewTOTP("GophAuth"),
		Mailer:    rec,
		Emails:    mailer.NewComposer("GophAuth"),
		Lockout:   models.LockoutPolicy{MaxAttempts: 5, Duration: 15 * time.Minute},
		OTPTTL:    10 * time.Minute,
		Log:       logging.Nop{},
		Now:       clk.Now,
	}

	return &fixture{
		clock:     clk,
		repos:     repos,
		mail:      rec,
		deps:      deps,
		sessions:  NewSessionService(deps),
		accounts:  NewAccountService(deps),
		twoFactor: NewTwoFactorService(deps),
		admin:     NewAdminService(deps),
	}
}

// addUser stores a verified user with testPassword. opts may adjust the
// record before it is saved.
func (f *fixture) addUser(t *testing.T, email string, opts ...func(*models.User)) *models.User {
	t.Helper()

	hash, err := f.deps.Passwords.Hash(testPassword)
	require.NoError(t, err)

	u := &models.User{
		Name:            "Test User",
		Email:           email,
		PasswordHash:    hash,
		Role:            models.RoleUser,
		IsEmailVerified: true,
		CreatedAt:       f.clock.Now(),
		UpdatedAt:       f.clock.Now(),
	}
	for _, o := range opts {
		o(u)
	}

	created, err := f.repos.Users().Create(context.Background(), u)
	require.NoError(t, err)
	return created
}

func (f *fixture) user(t *testing.T, id string) *models.User {
	t.Helper()
	u, err := f.repos.Users().GetByID(context.Background(), id)
	require.NoError(t, err)
	return u
}

func (f *fixture) login(t *testing.T, email, password string) *Session {
	t.Helper()
	return f.loginFrom(t, email, password, testClient)
}

func (f *fixture) loginFrom(t *testing.T, email, password string, client ClientInfo) *Session {
	t.Helper()
	res, err := f.sessions.Login(context.Background(), email, password, client)
	require.NoError(t, err)
	require.False(t, res.RequiresTwoFactor)
	require.NotNil(t, res.Session)
	return res.Session
}

var testClient = ClientInfo{
	Device: models.DeviceInfo{Browser: "Firefox", OS: "Linux", Platform: "desktop", Source: "web"},
	IP:     "203.0.113.7",
}

var phoneClient = ClientInfo{
	Device: models.DeviceInfo{Browser: "Safari", OS: "iOS", Platform: "mobile", Source: "app"},
	IP:     "198.51.100.23",
}

func notVerified(u *models.User) { u.IsEmailVerified = false }

func asSuspended(u *models.User) { u.IsSuspended = true }

func asAdmin(u *models.User) { u.Role = models.RoleAdmin }
