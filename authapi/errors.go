package authapi

import (
	apperrors "github.com/jrsteele09/go-storefront-session/internal/errors"
	"github.com/jrsteele09/go-storefront-session/internal/httpjson"
)

var (
	// ErrInvalidCredentials is returned when a login endpoint rejects the email/password.
	ErrInvalidCredentials = apperrors.ErrInvalidCredentials
	// ErrRefreshRejected is returned when the refresh endpoint rejects the refresh token.
	ErrRefreshRejected = apperrors.ErrRefreshRejected
	// ErrLogoutFailed is returned when the logout endpoint does not answer 2xx.
	ErrLogoutFailed = apperrors.ErrLogoutFailed
)

// StatusError is returned for unexpected non-2xx responses.
type StatusError = httpjson.StatusError
