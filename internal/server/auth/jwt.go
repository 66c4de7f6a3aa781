// Package auth issues and verifies the signed tokens handed to clients:
// short-lived access tokens, long-lived refresh tokens and the temporary
// token that bridges a password check to a pending two-factor check.
package auth

import (
	"errors"
	"time"

	"github.com/dmitrijs2005/gophauth/internal/common"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const refreshTokenType = "refresh"

// Identity is the subject of an access token.
type Identity struct {
	UserID string
	Email  string
	Role   string
}

// AccessClaims are carried by access tokens and by temp tokens. Temp tokens
// only set UserID and RequiresTwoFactor.
type AccessClaims struct {
	jwt.RegisteredClaims
	UserID            string `json:"userId"`
	Email             string `json:"email,omitempty"`
	Role              string `json:"role,omitempty"`
	RequiresTwoFactor bool   `json:"requiresTwoFactor,omitempty"`
}

type RefreshClaims struct {
	jwt.RegisteredClaims
	UserID string `json:"userId"`
	Type   string `json:"type"`
}

type Settings struct {
	AccessSecret  string
	RefreshSecret string
	AccessTTL     time.Duration
	RefreshTTL    time.Duration
	TempTTL       time.Duration
}

// TokenIssuer signs tokens with HS256. Access and temp tokens share the
// access secret; refresh tokens use their own.
type TokenIssuer struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
	tempTTL       time.Duration
	now           func() time.Time
}

func NewTokenIssuer(s Settings) *TokenIssuer {
	return &TokenIssuer{
		accessSecret:  []byte(s.AccessSecret),
		refreshSecret: []byte(s.RefreshSecret),
		accessTTL:     s.AccessTTL,
		refreshTTL:    s.RefreshTTL,
		tempTTL:       s.TempTTL,
		now:           time.Now,
	}
}

// WithClock returns a copy of the issuer reading time from now.
func (i *TokenIssuer) WithClock(now func() time.Time) *TokenIssuer {
	c := *i
	c.now = now
	return &c
}

func (i *TokenIssuer) registered(ttl time.Duration) (jwt.RegisteredClaims, time.Time) {
	issued := i.now()
	expires := issued.Add(ttl)
	return jwt.RegisteredClaims{
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(issued),
		ExpiresAt: jwt.NewNumericDate(expires),
	}, expires
}

func (i *TokenIssuer) IssueAccessToken(id Identity) (string, error) {
	rc, _ := i.registered(i.accessTTL)
	claims := AccessClaims{RegisteredClaims: rc, UserID: id.UserID, Email: id.Email, Role: id.Role}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.accessSecret)
}

// IssueRefreshToken also returns the expiry so the caller can persist the
// matching server-side record.
func (i *TokenIssuer) IssueRefreshToken(userID string) (string, time.Time, error) {
	rc, expires := i.registered(i.refreshTTL)
	claims := RefreshClaims{RegisteredClaims: rc, UserID: userID, Type: refreshTokenType}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.refreshSecret)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

func (i *TokenIssuer) IssueTempToken(userID string) (string, error) {
	rc, _ := i.registered(i.tempTTL)
	claims := AccessClaims{RegisteredClaims: rc, UserID: userID, RequiresTwoFactor: true}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(i.accessSecret)
}

// ParseAccessToken rejects temp tokens.
func (i *TokenIssuer) ParseAccessToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := i.parse(token, claims, i.accessSecret); err != nil {
		return nil, err
	}
	if claims.RequiresTwoFactor || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

func (i *TokenIssuer) ParseTempToken(token string) (*AccessClaims, error) {
	claims := &AccessClaims{}
	if err := i.parse(token, claims, i.accessSecret); err != nil {
		return nil, err
	}
	if !claims.RequiresTwoFactor || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

func (i *TokenIssuer) ParseRefreshToken(token string) (*RefreshClaims, error) {
	claims := &RefreshClaims{}
	if err := i.parse(token, claims, i.refreshSecret); err != nil {
		return nil, err
	}
	if claims.Type != refreshTokenType || claims.UserID == "" {
		return nil, common.ErrInvalidToken
	}
	return claims, nil
}

func (i *TokenIssuer) parse(token string, claims jwt.Claims, secret []byte) error {
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return common.ErrTokenExpired
		}
		return common.ErrInvalidToken
	}
	if !parsed.Valid {
		return common.ErrInvalidToken
	}
	return nil
}
