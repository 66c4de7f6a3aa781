package grpc

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/ratelimit"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
)

type ctxKey string

const userKey ctxKey = "user"

// forwardedForHeader is read only when trusted proxies are configured.
const forwardedForHeader = "x-forwarded-for"

type access int

const (
	accessPublic access = iota
	// accessOptional authenticates the caller when a valid token is sent
	// and serves the request anonymously otherwise.
	accessOptional
	accessUser
	accessAdmin
)

// methodAccess lists the methods that need an access token. Anything not
// listed is public.
var methodAccess = map[string]access{
	FullMethod(MethodLogout):           accessOptional,
	FullMethod(MethodLogoutAll):        accessUser,
	FullMethod(MethodChangePassword):   accessUser,
	FullMethod(MethodGetProfile):       accessUser,
	FullMethod(MethodUpdateProfile):    accessUser,
	FullMethod(MethodSetupTwoFactor):   accessUser,
	FullMethod(MethodVerifyTwoFactor):  accessUser,
	FullMethod(MethodDisableTwoFactor): accessUser,
	FullMethod(MethodListUsers):        accessAdmin,
	FullMethod(MethodGetUser):          accessAdmin,
	FullMethod(MethodSuspendUser):      accessAdmin,
	FullMethod(MethodUnsuspendUser):    accessAdmin,
	FullMethod(MethodDeleteUser):       accessAdmin,
	FullMethod(MethodUpdateUserRole):   accessAdmin,
	FullMethod(MethodGetStats):         accessAdmin,
}

// methodRule assigns rate limit rules; unlisted methods use the general rule.
var methodRule = map[string]string{
	FullMethod(MethodRegister):             ratelimit.RuleAuth,
	FullMethod(MethodLogin):                ratelimit.RuleAuth,
	FullMethod(MethodValidateTwoFactor):    ratelimit.RuleAuth,
	FullMethod(MethodOAuthCallback):        ratelimit.RuleAuth,
	FullMethod(MethodVerifyEmail):          ratelimit.RuleVerification,
	FullMethod(MethodResendVerification):   ratelimit.RuleVerification,
	FullMethod(MethodRequestPasswordReset): ratelimit.RulePasswordReset,
	FullMethod(MethodVerifyResetOTP):       ratelimit.RulePasswordReset,
	FullMethod(MethodResetPassword):        ratelimit.RulePasswordReset,
}

func (s *GRPCServer) metricsInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if s.metrics == nil {
		return handler(ctx, req)
	}

	start := time.Now()
	resp, err := handler(ctx, req)
	s.metrics.RPCDuration.WithLabelValues(info.FullMethod).Observe(time.Since(start).Seconds())
	s.metrics.RPCRequests.WithLabelValues(info.FullMethod, status.Code(err).String()).Inc()
	return resp, err
}

// rateLimitInterceptor counts the request against its rule for the client
// IP. When the limiter backend fails the request is let through.
func (s *GRPCServer) rateLimitInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	if s.limiter == nil {
		return handler(ctx, req)
	}

	name, ok := methodRule[info.FullMethod]
	if !ok {
		name = ratelimit.RuleGeneral
	}
	rule := s.rules[name]
	if rule.Limit <= 0 {
		return handler(ctx, req)
	}

	ip := clientIP(ctx, s.trustedProxies)

	// Rules skipping successful requests only check the budget up front and
	// count the request once it has failed.
	check := s.limiter.Allow
	if rule.SkipSuccessful {
		check = s.limiter.Peek
	}
	if err := check(ctx, rule, ip); err != nil {
		if errors.Is(err, common.ErrRateLimited) {
			s.logger.Warn(ctx, "rate limit exceeded", "rule", rule.Name, "ip", ip, "method", info.FullMethod)
			if s.metrics != nil {
				s.metrics.RateLimited.WithLabelValues(rule.Name).Inc()
			}
			return nil, status.Error(codes.ResourceExhausted, common.ErrRateLimited.Error())
		}
		s.logger.Error(ctx, "rate limiter unavailable", "rule", rule.Name, "error", err)
	}

	resp, err := handler(ctx, req)
	if err != nil && rule.SkipSuccessful {
		if rerr := s.limiter.Record(ctx, rule, ip); rerr != nil {
			s.logger.Error(ctx, "rate limiter unavailable", "rule", rule.Name, "error", rerr)
		}
	}
	return resp, err
}

// accessTokenInterceptor authenticates methods that need a user and puts the
// user into the context. Admin methods also require the admin role.
func (s *GRPCServer) accessTokenInterceptor(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
	need := methodAccess[info.FullMethod]
	switch need {
	case accessPublic:
		return handler(ctx, req)
	case accessOptional:
		if accessToken := tokenFromMetadata(ctx); accessToken != "" {
			if user, err := s.svc.Sessions.Authenticate(ctx, accessToken); err == nil {
				ctx = context.WithValue(ctx, userKey, user)
			}
		}
		return handler(ctx, req)
	}

	accessToken := tokenFromMetadata(ctx)
	if accessToken == "" {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}

	user, err := s.svc.Sessions.Authenticate(ctx, accessToken)
	if err != nil {
		switch {
		case errors.Is(err, common.ErrTokenExpired):
			return nil, status.Error(codes.Unauthenticated, "token expired")
		case errors.Is(err, common.ErrInvalidToken), errors.Is(err, common.ErrorUnauthorized):
			return nil, status.Error(codes.Unauthenticated, "invalid token")
		}
		return nil, toStatus(ctx, s.logger, err)
	}

	if need == accessAdmin && user.Role != models.RoleAdmin {
		s.logger.Warn(ctx, "admin method denied", "userId", user.ID, "method", info.FullMethod)
		return nil, status.Error(codes.PermissionDenied, "admin access required")
	}

	ctx = context.WithValue(ctx, userKey, user)
	return handler(ctx, req)
}

// tokenFromMetadata reads "authorization: Bearer <jwt>" or, failing that,
// the raw access_token key.
func tokenFromMetadata(ctx context.Context) string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return ""
	}
	for _, v := range md.Get(common.AuthorizationHeaderName) {
		if len(v) > len(common.BearerPrefix) && strings.EqualFold(v[:len(common.BearerPrefix)], common.BearerPrefix) {
			return strings.TrimSpace(v[len(common.BearerPrefix):])
		}
	}
	if values := md.Get(common.AccessTokenHeaderName); len(values) > 0 {
		return values[0]
	}
	return ""
}

func userFromContext(ctx context.Context) (*models.User, error) {
	u, ok := ctx.Value(userKey).(*models.User)
	if !ok || u == nil {
		return nil, status.Error(codes.Unauthenticated, "missing token")
	}
	return u, nil
}

// clientIP returns the address the caller is identified by. With no trusted
// proxies it is the peer address. With hops proxies in front, each appending
// to x-forwarded-for, it is the hops-th entry from the right; entries to the
// left of it come from the client and are ignored.
func clientIP(ctx context.Context, hops int) string {
	if hops > 0 {
		if entries := forwardedFor(ctx); len(entries) > 0 {
			if len(entries) < hops {
				return entries[0]
			}
			return entries[len(entries)-hops]
		}
	}

	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return "unknown"
	}
	addr := p.Addr.String()
	if host, _, err := net.SplitHostPort(addr); err == nil {
		return host
	}
	return addr
}

// forwardedFor flattens every x-forwarded-for value into one list.
func forwardedFor(ctx context.Context) []string {
	md, ok := metadata.FromIncomingContext(ctx)
	if !ok {
		return nil
	}
	var entries []string
	for _, v := range md.Get(forwardedForHeader) {
		for _, e := range strings.Split(v, ",") {
			if e = strings.TrimSpace(e); e != "" {
				entries = append(entries, e)
			}
		}
	}
	return entries
}
