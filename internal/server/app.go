// Package server wires the gophauth server together: storage, mail, rate
// limiting, OAuth providers and the workflows, served over gRPC with an
// operational HTTP endpoint and a periodic refresh token purge.
package server

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/httpops"
	"github.com/dmitrijs2005/gophauth/internal/server/mailer"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/oauth"
	"github.com/dmitrijs2005/gophauth/internal/server/ratelimit"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/gophauth/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	repos    repomanager.RepositoryManager
	limiter  ratelimit.Limiter
	closers  []io.Closer
	metrics  *metrics.Metrics
	services gs.Services
}

// OpenRepositories connects the configured store and runs its migrations.
func OpenRepositories(ctx context.Context, c *config.Config) (repomanager.RepositoryManager, error) {
	var (
		rm  repomanager.RepositoryManager
		err error
	)

	switch c.StoreDriver {
	case config.StorePostgres:
		rm, err = repomanager.NewPostgresRepositoryManager(ctx, c.DatabaseDSN)
	case config.StoreMongo:
		rm, err = repomanager.NewMongoRepositoryManager(ctx, c.MongoURI, c.MongoDatabase)
	case config.StoreMemory:
		rm = repomanager.NewMemoryRepositoryManager()
	default:
		return nil, fmt.Errorf("unknown store driver %q", c.StoreDriver)
	}
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	if err := rm.RunMigrations(ctx); err != nil {
		_ = rm.Close(ctx)
		return nil, fmt.Errorf("migrations: %w", err)
	}
	return rm, nil
}

// NewDispatcher builds the SMTP mail dispatcher from the config.
func NewDispatcher(c *config.Config, l logging.Logger) (*mailer.SMTPDispatcher, error) {
	return mailer.NewSMTPDispatcher(mailer.SMTPConfig{
		Host:      c.SMTP.Host,
		Port:      c.SMTP.Port,
		Username:  c.SMTP.Username,
		Password:  c.SMTP.Password,
		From:      c.SMTP.From,
		TLSPolicy: c.SMTP.TLSPolicy,
		Timeout:   c.SMTP.Timeout,
	}, l)
}

func oauthRegistry(c *config.Config) *oauth.Registry {
	var ps []oauth.Provider
	if c.Google.Enabled() {
		ps = append(ps, oauth.NewGoogle(oauth.Credentials(c.Google)))
	}
	if c.GitHub.Enabled() {
		ps = append(ps, oauth.NewGitHub(oauth.Credentials(c.GitHub)))
	}
	return oauth.NewRegistry(ps...)
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, c.LogLevel)

	rm, err := OpenRepositories(ctx, c)
	if err != nil {
		return nil, err
	}

	dispatcher, err := NewDispatcher(c, logger)
	if err != nil {
		_ = rm.Close(ctx)
		return nil, fmt.Errorf("mailer init error: %w", err)
	}

	app := &App{config: c, logger: logger, repos: rm, metrics: metrics.New()}

	if c.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: c.RedisAddr})
		app.limiter = ratelimit.NewRedisLimiter(rdb)
		app.closers = append(app.closers, rdb)
	} else {
		app.limiter = ratelimit.NewLocalLimiter()
	}

	deps := services.NewDeps(c, rm, dispatcher, logger)
	app.services = gs.Services{
		Sessions:  services.NewSessionService(deps),
		Accounts:  services.NewAccountService(deps),
		TwoFactor: services.NewTwoFactorService(deps),
		Admin:     services.NewAdminService(deps),
		OAuth:     oauthRegistry(c),
	}

	return app, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewGRPCServer(app.config.EndpointAddrGRPC, app.logger, app.services, app.limiter, app.config.RateLimits, app.metrics).
		WithTrustedProxies(app.config.TrustedProxies)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := httpops.NewServer(app.config.EndpointAddrHTTP, app.logger, app.repos, app.metrics.Registry)

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// purgeTokens deletes expired refresh token records every interval.
func (app *App) purgeTokens(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := app.services.Admin.PurgeExpiredTokens(ctx)
			if err != nil {
				app.logger.Error(ctx, "refresh token purge failed", "error", err)
				continue
			}
			app.metrics.TokensPurged.Add(float64(n))
		}
	}
}

func (app *App) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	for _, c := range app.closers {
		if err := c.Close(); err != nil {
			app.logger.Error(ctx, "close failed", "error", err)
		}
	}
	if err := app.repos.Close(ctx); err != nil {
		app.logger.Error(ctx, "store close failed", "error", err)
	}
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "store", app.config.StoreDriver, "oauth", app.services.OAuth.Names())

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(3)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()
	go func() {
		defer wg.Done()
		app.purgeTokens(ctx, app.config.TokenPurgeInterval)
	}()

	wg.Wait()

	app.close()
	app.logger.Info(ctx, "App stopped")
}
