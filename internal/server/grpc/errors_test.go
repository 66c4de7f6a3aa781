package grpc

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/stretchr/testify/assert"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestToStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode codes.Code
		wantMsg  string
	}{
		{"duplicate email", common.ErrDuplicateEmail, codes.AlreadyExists, common.ErrDuplicateEmail.Error()},
		{"bad credentials", common.ErrInvalidCredentials, codes.Unauthenticated, common.ErrInvalidCredentials.Error()},
		{"locked", common.ErrAccountLocked, codes.PermissionDenied, common.ErrAccountLocked.Error()},
		{"unverified", common.ErrEmailNotVerified, codes.FailedPrecondition, common.ErrEmailNotVerified.Error()},
		{"expired code hides detail", common.ErrCodeExpired, codes.InvalidArgument, common.ErrInvalidOrExpiredCode.Error()},
		{"wrapped not found", fmt.Errorf("error loading user: %w", common.ErrorNotFound), codes.NotFound, common.ErrorNotFound.Error()},
		{"unknown provider", fmt.Errorf("%w: %q", common.ErrUnknownProvider, "myspace"), codes.NotFound, common.ErrUnknownProvider.Error()},
		{"delivery", common.ErrUpstreamDelivery, codes.Unavailable, common.ErrUpstreamDelivery.Error()},
		{"unexpected", errors.New("pq: connection reset"), codes.Internal, common.ErrorInternal.Error()},
		{"status passes through", status.Error(codes.InvalidArgument, "email is required"), codes.InvalidArgument, "email is required"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := toStatus(context.Background(), logging.Nop{}, tt.err)
			st := status.Convert(err)
			assert.Equal(t, tt.wantCode, st.Code())
			assert.Equal(t, tt.wantMsg, st.Message())
		})
	}
}

func TestToStatus_Nil(t *testing.T) {
	assert.NoError(t, toStatus(context.Background(), logging.Nop{}, nil))
}
