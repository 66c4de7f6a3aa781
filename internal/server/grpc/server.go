// Package grpc exposes the credential and session workflows as the
// gophauth.v1.AuthService gRPC service. Messages are plain Go structs
// carried by a JSON codec.
package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/config"
	"github.com/dmitrijs2005/gophauth/internal/server/metrics"
	"github.com/dmitrijs2005/gophauth/internal/server/oauth"
	"github.com/dmitrijs2005/gophauth/internal/server/ratelimit"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
	"google.golang.org/grpc"
)

// Services are the workflows served over gRPC.
type Services struct {
	Sessions  *services.SessionService
	Accounts  *services.AccountService
	TwoFactor *services.TwoFactorService
	Admin     *services.AdminService
	OAuth     *oauth.Registry
}

type GRPCServer struct {
	address string
	svc     Services
	limiter ratelimit.Limiter
	rules   map[string]ratelimit.Rule
	metrics *metrics.Metrics
	logger  logging.Logger

	trustedProxies int
}

// NewGRPCServer builds the server. limiter and m may be nil to disable rate
// limiting and metrics.
func NewGRPCServer(address string, l logging.Logger, svc Services, limiter ratelimit.Limiter, limits config.RateLimits, m *metrics.Metrics) *GRPCServer {
	return &GRPCServer{
		address: address,
		svc:     svc,
		limiter: limiter,
		rules:   rateRules(limits),
		metrics: m,
		logger:  l.With("module", "grpc_server"),
	}
}

// WithTrustedProxies sets how many proxies in front of the server append to
// x-forwarded-for. Zero, the default, ignores the header.
func (s *GRPCServer) WithTrustedProxies(hops int) *GRPCServer {
	s.trustedProxies = hops
	return s
}

func rateRules(l config.RateLimits) map[string]ratelimit.Rule {
	rule := func(name string, r config.RateRule) ratelimit.Rule {
		return ratelimit.Rule{Name: name, Limit: r.Limit, Window: r.Window, SkipSuccessful: r.SkipSuccessful}
	}
	return map[string]ratelimit.Rule{
		ratelimit.RuleAuth:          rule(ratelimit.RuleAuth, l.Auth),
		ratelimit.RulePasswordReset: rule(ratelimit.RulePasswordReset, l.PasswordReset),
		ratelimit.RuleVerification:  rule(ratelimit.RuleVerification, l.Verification),
		ratelimit.RuleGeneral:       rule(ratelimit.RuleGeneral, l.General),
	}
}

// newServer creates the grpc.Server with the interceptor chain and the
// service registered.
func (s *GRPCServer) newServer() *grpc.Server {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(
		s.metricsInterceptor,
		s.rateLimitInterceptor,
		s.accessTokenInterceptor,
	))
	srv.RegisterService(&AuthServiceDesc, s)
	return srv
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {

	// announces address
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}

	return s.Serve(ctx, listen)
}

// Serve accepts connections on lis until ctx is cancelled, then stops
// gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := s.newServer()

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}

	return nil
}
