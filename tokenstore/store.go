package tokenstore

import (
	"context"

	apperrors "github.com/jrsteele09/go-storefront-session/internal/errors"
)

// Keys under which the two tokens are persisted. Nothing else about the session is persisted.
const (
	AccessTokenKey  = "accessToken"
	RefreshTokenKey = "refreshToken"
)

// ErrNotFound is returned by Get when no tokens are stored.
var ErrNotFound = apperrors.ErrTokenNotFound

// TokenPair is the token response of the login and refresh endpoints.
type TokenPair struct {
	AccessToken            string `json:"accessToken"`
	RefreshToken           string `json:"refreshToken"`
	AccessExpiresInSeconds int    `json:"accessExpiresInSeconds,omitempty"` // not persisted, zero after a reload
}

// IsZero reports whether the pair holds no tokens at all.
func (p TokenPair) IsZero() bool {
	return p.AccessToken == "" && p.RefreshToken == ""
}

// Store persists the current TokenPair. Implementations do not interpret the token contents.
type Store interface {
	Get(ctx context.Context) (*TokenPair, error)
	Set(ctx context.Context, pair TokenPair) error
	Clear(ctx context.Context) error
}

// persisted is the on-disk / in-cache layout.
type persisted struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
}

func (p persisted) pair() *TokenPair {
	return &TokenPair{AccessToken: p.AccessToken, RefreshToken: p.RefreshToken}
}
