// Package refreshtokens stores the server-side records behind issued refresh
// tokens. A signed refresh token is only honoured while its record exists,
// is not revoked and has not expired.
package refreshtokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/server/models"
)

type Repository interface {
	// Create stores a new record. A token string that already exists yields
	// common.ErrDuplicateToken.
	Create(ctx context.Context, token *models.RefreshToken) error

	// Find returns common.ErrorNotFound for unknown tokens.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Revoke marks the matching, not yet revoked record as revoked at at.
	// A non-empty userID restricts the match to that user's records.
	// Unknown or already revoked tokens are not an error.
	Revoke(ctx context.Context, token, userID string, at time.Time) error

	// RevokeAllForUser revokes every live record of the user and reports how
	// many were changed.
	RevokeAllForUser(ctx context.Context, userID string, at time.Time) (int64, error)

	DeleteAllForUser(ctx context.Context, userID string) error

	// CountActive counts unrevoked, unexpired records at now. An empty userID
	// counts across all users.
	CountActive(ctx context.Context, userID string, now time.Time) (int, error)

	// PurgeExpired deletes records whose expiry is not after now.
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}
