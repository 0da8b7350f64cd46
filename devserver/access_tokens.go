package devserver

import (
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/jrsteele09/go-storefront-session/claims"
	apperrors "github.com/jrsteele09/go-storefront-session/internal/errors"
	"github.com/pkg/errors"
)

// accessTokenCreator issues and verifies the JWT access tokens
type accessTokenCreator struct {
	signer Signer
	expiry time.Duration
}

func newAccessTokenCreator(signer Signer, expiry time.Duration) *accessTokenCreator {
	return &accessTokenCreator{signer: signer, expiry: expiry}
}

// Create signs an access token for user. The role is the first (and only) entry of roles.
func (c *accessTokenCreator) Create(user *User) (string, error) {
	now := NowTimeFunc()
	tokenClaims := jwt.MapClaims{
		"sub":   strconv.FormatInt(user.ID, 10),
		"email": user.Email,
		"roles": []string{string(user.Role)},
		"iat":   now.Unix(),
		"exp":   now.Add(c.expiry).Unix(),
		"jti":   uuid.New().String(),
	}
	signed, err := c.signer.Sign(tokenClaims)
	if err != nil {
		return "", errors.Wrap(err, "[accessTokenCreator Create]")
	}
	return signed, nil
}

// ExpiresInSeconds is the lifetime reported to clients alongside each access token.
func (c *accessTokenCreator) ExpiresInSeconds() int {
	return int(c.expiry / time.Second)
}

// Verify checks the signature and expiry of raw and returns the user it was issued to.
func (c *accessTokenCreator) Verify(raw string) (claims.SessionUser, error) {
	token, err := jwt.Parse(raw, c.signer.GetVerificationKey,
		jwt.WithValidMethods([]string{c.signer.GetSigningMethod().Alg()}),
		jwt.WithTimeFunc(NowTimeFunc),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return claims.SessionUser{}, errors.Wrap(apperrors.ErrInvalidToken, err.Error())
	}

	mc, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return claims.SessionUser{}, apperrors.ErrInvalidToken
	}
	sub, err := mc.GetSubject()
	if err != nil {
		return claims.SessionUser{}, errors.Wrap(apperrors.ErrInvalidToken, "missing sub")
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return claims.SessionUser{}, errors.Wrap(apperrors.ErrInvalidToken, "non-numeric sub")
	}

	role, ok := firstRole(mc)
	if !ok {
		return claims.SessionUser{}, errors.Wrap(apperrors.ErrInvalidToken, "missing roles")
	}
	email, _ := mc["email"].(string)
	return claims.SessionUser{ID: id, Email: email, Role: role}, nil
}

// firstRole returns the first entry of the roles claim, which decodes as []any.
func firstRole(mc jwt.MapClaims) (claims.Role, bool) {
	roles, _ := mc["roles"].([]any)
	if len(roles) == 0 {
		return "", false
	}
	role, ok := roles[0].(string)
	return claims.Role(role), ok && role != ""
}
