// Package users declares the user store contract and its Postgres, MongoDB
// and in-memory implementations.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

// Sort keys accepted by List.
const (
	SortByCreatedAt = "createdAt"
	SortByName      = "name"
	SortByEmail     = "email"
	SortByLastLogin = "lastLogin"
)

// ListFilter selects a page of users. Nil pointers and empty strings do not
// filter. Search is a case-insensitive substring match on name or email.
type ListFilter struct {
	Search    string
	Role      models.Role
	Verified  *bool
	Suspended *bool
	SortBy    string
	SortAsc   bool
	Offset    int
	Limit     int
}

// CountFilter narrows Count. Zero values do not filter.
type CountFilter struct {
	Role         models.Role
	Verified     *bool
	Suspended    *bool
	CreatedSince *time.Time
}

// Repository persists users. Lookups return common.ErrorNotFound when nothing
// matches; writes that collide on email return common.ErrDuplicateEmail.
// Emails are expected to be normalized by the caller.
type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByResetToken(ctx context.Context, token string) (*models.User, error)

	// Update overwrites the stored record with the same ID.
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id string) error

	// List returns the requested page and the number of users matching the
	// filter before paging.
	List(ctx context.Context, f ListFilter) ([]*models.User, int, error)
	Count(ctx context.Context, f CountFilter) (int, error)
}

// BoolPtr is a helper for filters.
func BoolPtr(b bool) *bool { return &b }
