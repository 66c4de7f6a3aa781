package grpc

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/services"
)

func (s *GRPCServer) ListUsers(ctx context.Context, req *ListUsersRequest) (*ListUsersResponse, error) {
	if req.Page < 0 || req.Limit < 0 {
		return nil, invalid("page and limit must be positive")
	}
	if req.SortOrder != "" && req.SortOrder != "asc" && req.SortOrder != "desc" {
		return nil, invalid("sortOrder must be asc or desc")
	}

	page, err := s.svc.Admin.ListUsers(ctx, services.UserQuery{
		Page:      req.Page,
		Limit:     req.Limit,
		Search:    strings.TrimSpace(req.Search),
		Role:      models.Role(req.Role),
		Verified:  req.Verified,
		Suspended: req.Suspended,
		SortBy:    req.SortBy,
		SortOrder: req.SortOrder,
	})
	if err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}

	return &ListUsersResponse{
		Users:       page.Users,
		TotalPages:  page.TotalPages,
		CurrentPage: page.CurrentPage,
		TotalUsers:  page.TotalUsers,
	}, nil
}

func (s *GRPCServer) GetUser(ctx context.Context, req *UserIDRequest) (*UserDetailsResponse, error) {
	if err := required(req.UserID, "userId"); err != nil {
		return nil, err
	}
	d, err := s.svc.Admin.GetUser(ctx, req.UserID)
	if err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return &UserDetailsResponse{User: d.User, ActiveSessions: d.ActiveSessions}, nil
}

func (s *GRPCServer) SuspendUser(ctx context.Context, req *SuspendUserRequest) (*MessageResponse, error) {
	actor, err := userFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := required(req.UserID, "userId"); err != nil {
		return nil, err
	}
	if err := s.svc.Admin.SuspendUser(ctx, req.UserID, req.Reason, actor.ID); err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return message("User suspended successfully."), nil
}

func (s *GRPCServer) UnsuspendUser(ctx context.Context, req *UserIDRequest) (*MessageResponse, error) {
	actor, err := userFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := required(req.UserID, "userId"); err != nil {
		return nil, err
	}
	if err := s.svc.Admin.UnsuspendUser(ctx, req.UserID, actor.ID); err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return message("User unsuspended successfully."), nil
}

func (s *GRPCServer) DeleteUser(ctx context.Context, req *UserIDRequest) (*MessageResponse, error) {
	actor, err := userFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := required(req.UserID, "userId"); err != nil {
		return nil, err
	}
	if err := s.svc.Admin.DeleteUser(ctx, req.UserID, actor.ID); err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return message("User deleted successfully."), nil
}

func (s *GRPCServer) UpdateUserRole(ctx context.Context, req *UpdateUserRoleRequest) (*ProfileResponse, error) {
	actor, err := userFromContext(ctx)
	if err != nil {
		return nil, err
	}
	if err := required(req.UserID, "userId"); err != nil {
		return nil, err
	}
	role := models.Role(req.Role)
	if !role.Valid() {
		return nil, invalid("role must be user or admin")
	}

	u, err := s.svc.Admin.UpdateUserRole(ctx, req.UserID, role, actor.ID)
	if err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return &ProfileResponse{User: u.Public()}, nil
}

func (s *GRPCServer) GetStats(ctx context.Context, _ *Empty) (*StatsResponse, error) {
	st, err := s.svc.Admin.Stats(ctx)
	if err != nil {
		return nil, toStatus(ctx, s.logger, err)
	}
	return &StatsResponse{
		TotalUsers:         st.TotalUsers,
		VerifiedUsers:      st.VerifiedUsers,
		UnverifiedUsers:    st.UnverifiedUsers,
		SuspendedUsers:     st.SuspendedUsers,
		AdminUsers:         st.AdminUsers,
		RegularUsers:       st.RegularUsers,
		ActiveTokens:       st.ActiveSessions,
		NewUsersLast30Days: st.NewUsersLast30Days,
	}, nil
}
