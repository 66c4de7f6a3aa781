package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// errorCodes maps workflow errors to status codes. The first match wins and
// its sentinel text becomes the status message, so wrapped detail such as
// ErrCodeExpired never reaches the client.
var errorCodes = []struct {
	err  error
	code codes.Code
}{
	{common.ErrDuplicateEmail, codes.AlreadyExists},

	{common.ErrInvalidCredentials, codes.Unauthenticated},
	{common.ErrInvalidOrExpiredRefreshToken, codes.Unauthenticated},
	{common.ErrTokenExpired, codes.Unauthenticated},
	{common.ErrInvalidToken, codes.Unauthenticated},
	{common.ErrorUnauthorized, codes.Unauthenticated},

	{common.ErrAccountLocked, codes.PermissionDenied},
	{common.ErrAccountSuspended, codes.PermissionDenied},
	{common.ErrForbidden, codes.PermissionDenied},

	{common.ErrEmailNotVerified, codes.FailedPrecondition},
	{common.ErrEmailAlreadyVerified, codes.FailedPrecondition},
	{common.ErrTwoFactorNotEnabled, codes.FailedPrecondition},
	{common.ErrTwoFactorAlreadyEnabled, codes.FailedPrecondition},
	{common.ErrTwoFactorNotSetUp, codes.FailedPrecondition},

	{common.ErrInvalidOrExpiredCode, codes.InvalidArgument},
	{common.ErrInvalidTwoFactorCode, codes.InvalidArgument},
	{common.ErrInvalidRole, codes.InvalidArgument},
	{common.ErrMissingProviderEmail, codes.InvalidArgument},

	{common.ErrorNotFound, codes.NotFound},
	{common.ErrUnknownProvider, codes.NotFound},

	{common.ErrRateLimited, codes.ResourceExhausted},
	{common.ErrUpstreamDelivery, codes.Unavailable},
}

// toStatus converts a service error into a gRPC status error. Unknown
// errors are logged and reported as Internal without detail.
func toStatus(ctx context.Context, log logging.Logger, err error) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	for _, m := range errorCodes {
		if errors.Is(err, m.err) {
			return status.Error(m.code, m.err.Error())
		}
	}
	log.Error(ctx, "request failed", "error", err)
	return status.Error(codes.Internal, common.ErrorInternal.Error())
}
