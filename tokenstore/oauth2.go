package tokenstore

import (
	"context"
	"time"

	"golang.org/x/oauth2"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// OAuth2 converts the pair to an oauth2.Token of type Bearer. Expiry is only set when the
// lifetime is known (it is not persisted, so pairs read back from a store have none).
func (p TokenPair) OAuth2() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    "Bearer",
	}
	if p.AccessExpiresInSeconds > 0 {
		tok.Expiry = NowTimeFunc().Add(time.Duration(p.AccessExpiresInSeconds) * time.Second)
	}
	return tok
}

type storeTokenSource struct {
	ctx   context.Context
	store Store
}

// TokenSource exposes the stored access token as an oauth2.TokenSource. It never refreshes:
// refreshing is driven by 401 responses, not by expiry.
func TokenSource(ctx context.Context, store Store) oauth2.TokenSource {
	return storeTokenSource{ctx: ctx, store: store}
}

func (s storeTokenSource) Token() (*oauth2.Token, error) {
	pair, err := s.store.Get(s.ctx)
	if err != nil {
		return nil, err
	}
	if pair.AccessToken == "" {
		return nil, ErrNotFound
	}
	return pair.OAuth2(), nil
}
