package refresh

import (
	apperrors "github.com/jrsteele09/go-storefront-session/internal/errors"
)

var (
	// ErrRefreshFailed is returned to every request waiting on a refresh that did not produce a
	// token. The session has been torn down by the time callers see it.
	ErrRefreshFailed = apperrors.ErrRefreshFailed
	// ErrNoRefreshToken is returned when nothing is stored to refresh with. The session is left
	// as it is: it was already ended or never started.
	ErrNoRefreshToken = apperrors.ErrNoRefreshToken
)
