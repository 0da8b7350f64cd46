package devserver

import (
	"crypto/rand"
	"encoding/hex"
	"sync"
	"time"

	apperrors "github.com/jrsteele09/go-storefront-session/internal/errors"
	"github.com/pkg/errors"
)

const refreshTokenLength = 32

// storedRefreshToken is the server-side record of an opaque refresh token
type storedRefreshToken struct {
	Token  string
	UserID int64
	Iat    time.Time
}

// refreshTokens issues single-use refresh tokens. A user may hold several, one per session.
type refreshTokens struct {
	expiry time.Duration
	tokens map[string]*storedRefreshToken
	lock   sync.Mutex
}

func newRefreshTokens(expiry time.Duration) *refreshTokens {
	return &refreshTokens{
		expiry: expiry,
		tokens: make(map[string]*storedRefreshToken),
	}
}

// Create generates a new refresh token for userID and stores it
func (m *refreshTokens) Create(userID int64) (string, error) {
	tokenBytes := make([]byte, refreshTokenLength)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", errors.Wrap(err, "failed to generate random bytes")
	}
	token := hex.EncodeToString(tokenBytes)

	m.lock.Lock()
	defer m.lock.Unlock()
	m.tokens[token] = &storedRefreshToken{Token: token, UserID: userID, Iat: NowTimeFunc()}
	return token, nil
}

// Consume removes token and returns its record. Expired or unknown tokens are rejected.
func (m *refreshTokens) Consume(token string) (*storedRefreshToken, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	rt, ok := m.tokens[token]
	if !ok {
		return nil, apperrors.ErrInvalidToken
	}
	delete(m.tokens, token)
	if m.isExpired(rt) {
		return nil, errors.Wrap(apperrors.ErrInvalidToken, "refresh token expired")
	}
	return rt, nil
}

// Owner returns the user a live token belongs to.
func (m *refreshTokens) Owner(token string) (int64, bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	rt, ok := m.tokens[token]
	if !ok || m.isExpired(rt) {
		return 0, false
	}
	return rt.UserID, true
}

func (m *refreshTokens) Revoke(token string) bool {
	m.lock.Lock()
	defer m.lock.Unlock()
	_, ok := m.tokens[token]
	delete(m.tokens, token)
	return ok
}

// RevokeAll removes every refresh token of userID and returns how many there were.
func (m *refreshTokens) RevokeAll(userID int64) int {
	m.lock.Lock()
	defer m.lock.Unlock()
	n := 0
	for token, rt := range m.tokens {
		if rt.UserID == userID {
			delete(m.tokens, token)
			n++
		}
	}
	return n
}

func (m *refreshTokens) isExpired(rt *storedRefreshToken) bool {
	return NowTimeFunc().Sub(rt.Iat) > m.expiry
}
