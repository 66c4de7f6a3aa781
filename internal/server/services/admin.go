package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/dmitrijs2005/gophauth/internal/logging"
	"github.com/dmitrijs2005/gophauth/internal/server/models"
	"github.com/dmitrijs2005/gophauth/internal/server/repositories/users"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100

	DefaultSuspensionReason = "Violated terms of service"

	newUsersWindow = 30 * 24 * time.Hour
)

// UserQuery is a page request for ListUsers. Zero values select the
// defaults: first page, ten users, newest first.
type UserQuery struct {
	Page      int
	Limit     int
	Search    string
	Role      models.Role
	Verified  *bool
	Suspended *bool
	SortBy    string
	// SortOrder is "asc" or "desc".
	SortOrder string
}

type UserPage struct {
	Users       []*models.PublicUser
	TotalUsers  int
	TotalPages  int
	CurrentPage int
}

type UserDetails struct {
	User           *models.PublicUser
	ActiveSessions int
}

type Stats struct {
	TotalUsers         int
	VerifiedUsers      int
	UnverifiedUsers    int
	SuspendedUsers     int
	AdminUsers         int
	RegularUsers       int
	ActiveSessions     int
	NewUsersLast30Days int
}

// AdminService holds the operator actions. Callers are expected to have
// checked that the actor is an admin.
type AdminService struct {
	d   *Deps
	log logging.Logger
}

func NewAdminService(d *Deps) *AdminService {
	return &AdminService{d: d, log: d.Log.With("module", "admin")}
}

func (s *AdminService) ListUsers(ctx context.Context, q UserQuery) (*UserPage, error) {
	if q.Role != "" && !q.Role.Valid() {
		return nil, common.ErrInvalidRole
	}

	page := max(q.Page, 1)
	limit := q.Limit
	if limit < 1 {
		limit = defaultPageSize
	}
	limit = min(limit, maxPageSize)

	sortBy := users.SortByCreatedAt
	switch q.SortBy {
	case users.SortByName, users.SortByEmail, users.SortByLastLogin:
		sortBy = q.SortBy
	}

	list, total, err := s.d.Repos.Users().List(ctx, users.ListFilter{
		Search:    q.Search,
		Role:      q.Role,
		Verified:  q.Verified,
		Suspended: q.Suspended,
		SortBy:    sortBy,
		SortAsc:   q.SortOrder == "asc",
		Offset:    (page - 1) * limit,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("error listing users: %w", err)
	}

	out := make([]*models.PublicUser, 0, len(list))
	for _, u := range list {
		out = append(out, u.Public())
	}
	return &UserPage{
		Users:       out,
		TotalUsers:  total,
		TotalPages:  (total + limit - 1) / limit,
		CurrentPage: page,
	}, nil
}

func (s *AdminService) GetUser(ctx context.Context, userID string) (*UserDetails, error) {
	user, err := s.d.Repos.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	active, err := s.d.Repos.RefreshTokens().CountActive(ctx, userID, s.d.Now())
	if err != nil {
		return nil, fmt.Errorf("error counting sessions: %w", err)
	}
	return &UserDetails{User: user.Public(), ActiveSessions: active}, nil
}

// SuspendUser blocks the account and ends its sessions. Admins cannot be
// suspended.
func (s *AdminService) SuspendUser(ctx context.Context, userID, reason, actorID string) error {
	user, err := s.d.Repos.Users().GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == models.RoleAdmin {
		return common.ErrForbidden
	}
	if reason == "" {
		reason = DefaultSuspensionReason
	}

	user.IsSuspended = true
	user.SuspendedAt = models.TimePtr(s.d.Now())
	user.SuspendedBy = actorID
	user.SuspensionReason = reason
	if err := s.d.saveUser(ctx, user); err != nil {
		return err
	}
	if _, err := s.d.revokeSessions(ctx, userID); err != nil {
		return err
	}
	s.log.Warn(ctx, "user suspended", "userId", userID, "by", actorID, "reason", reason)
	return nil
}

func (s *AdminService) UnsuspendUser(ctx context.Context, userID, actorID string) error {
	user, err := s.d.Repos.Users().GetByID(ctx, userID)
	if err != nil {
		return err
	}

	user.IsSuspended = false
	user.SuspendedAt = nil
	user.SuspendedBy = ""
	user.SuspensionReason = ""
	if err := s.d.saveUser(ctx, user); err != nil {
		return err
	}
	s.log.Info(ctx, "user unsuspended", "userId", userID, "by", actorID)
	return nil
}

// DeleteUser removes a non-admin account and all of its sessions.
func (s *AdminService) DeleteUser(ctx context.Context, userID, actorID string) error {
	user, err := s.d.Repos.Users().GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user.Role == models.RoleAdmin {
		return common.ErrForbidden
	}
	if err := s.d.Repos.DeleteUser(ctx, userID); err != nil {
		return fmt.Errorf("error deleting user: %w", err)
	}
	s.log.Warn(ctx, "user deleted", "userId", userID, "email", user.Email, "by", actorID)
	return nil
}

func (s *AdminService) UpdateUserRole(ctx context.Context, userID string, role models.Role, actorID string) (*models.User, error) {
	if !role.Valid() {
		return nil, common.ErrInvalidRole
	}
	user, err := s.d.Repos.Users().GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	user.Role = role
	if err := s.d.saveUser(ctx, user); err != nil {
		return nil, err
	}
	s.log.Warn(ctx, "user role changed", "userId", userID, "role", role, "by", actorID)
	return user, nil
}

func (s *AdminService) Stats(ctx context.Context) (*Stats, error) {
	repo := s.d.Repos.Users()
	now := s.d.Now()

	count := func(f users.CountFilter) (int, error) {
		n, err := repo.Count(ctx, f)
		if err != nil {
			return 0, fmt.Errorf("error counting users: %w", err)
		}
		return n, nil
	}

	var st Stats
	var err error
	if st.TotalUsers, err = count(users.CountFilter{}); err != nil {
		return nil, err
	}
	if st.VerifiedUsers, err = count(users.CountFilter{Verified: users.BoolPtr(true)}); err != nil {
		return nil, err
	}
	if st.SuspendedUsers, err = count(users.CountFilter{Suspended: users.BoolPtr(true)}); err != nil {
		return nil, err
	}
	if st.AdminUsers, err = count(users.CountFilter{Role: models.RoleAdmin}); err != nil {
		return nil, err
	}
	since := now.Add(-newUsersWindow)
	if st.NewUsersLast30Days, err = count(users.CountFilter{CreatedSince: &since}); err != nil {
		return nil, err
	}
	st.UnverifiedUsers = st.TotalUsers - st.VerifiedUsers
	st.RegularUsers = st.TotalUsers - st.AdminUsers

	if st.ActiveSessions, err = s.d.Repos.RefreshTokens().CountActive(ctx, "", now); err != nil {
		return nil, fmt.Errorf("error counting sessions: %w", err)
	}
	return &st, nil
}

// MakeAdmin promotes the account with the given email. It reports false when
// the account already was an admin.
func (s *AdminService) MakeAdmin(ctx context.Context, email string) (bool, error) {
	user, err := s.d.Repos.Users().GetByEmail(ctx, common.NormalizeEmail(email))
	if err != nil {
		return false, err
	}
	if user.Role == models.RoleAdmin {
		return false, nil
	}

	user.Role = models.RoleAdmin
	if err := s.d.saveUser(ctx, user); err != nil {
		return false, err
	}
	s.log.Warn(ctx, "user promoted to admin", "userId", user.ID, "email", user.Email)
	return true, nil
}

// SetPassword overwrites the password of the account with the given email
// and ends its sessions.
func (s *AdminService) SetPassword(ctx context.Context, email, password string) error {
	user, err := s.d.Repos.Users().GetByEmail(ctx, common.NormalizeEmail(email))
	if err != nil {
		return err
	}
	hash, err := s.d.Passwords.Hash(password)
	if err != nil {
		return err
	}

	user.PasswordHash = hash
	user.LoginAttempts = 0
	user.LockUntil = nil
	if err := s.d.saveUser(ctx, user); err != nil {
		return err
	}
	if _, err := s.d.revokeSessions(ctx, user.ID); err != nil {
		return err
	}
	s.log.Warn(ctx, "password set by operator", "userId", user.ID)
	return nil
}

// PurgeExpiredTokens deletes refresh records past their expiry.
func (s *AdminService) PurgeExpiredTokens(ctx context.Context) (int64, error) {
	n, err := s.d.Repos.RefreshTokens().PurgeExpired(ctx, s.d.Now())
	if err != nil {
		return 0, fmt.Errorf("error purging refresh tokens: %w", err)
	}
	if n > 0 {
		s.log.Info(ctx, "expired refresh tokens purged", "count", n)
	}
	return n, nil
}
