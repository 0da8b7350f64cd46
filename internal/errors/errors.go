package errors

import (
	"errors"
)

// Common error types for the session client
var (
	// Authentication errors
	ErrInvalidCredentials = errors.New("invalid credentials")

	// Token errors
	ErrTokenNotFound   = errors.New("token not found")
	ErrInvalidToken    = errors.New("invalid token")
	ErrNoRefreshToken  = errors.New("no refresh token")
	ErrRefreshRejected = errors.New("refresh token rejected")
	ErrRefreshFailed   = errors.New("token refresh failed")

	// Session errors
	ErrLogoutFailed = errors.New("logout endpoint failed")
	ErrSuperseded   = errors.New("request cancelled by session change")

	// General errors
	ErrNotFound = errors.New("not found")
)

type markedError struct {
	msg      string
	sentinel error
	cause    error
}

func (e *markedError) Error() string {
	return e.msg + " " + e.sentinel.Error() + ": " + e.cause.Error()
}

func (e *markedError) Unwrap() []error {
	return []error{e.sentinel, e.cause}
}

// Mark wraps cause with msg so that errors.Is matches both sentinel and cause.
// It returns nil when cause is nil.
func Mark(cause, sentinel error, msg string) error {
	if cause == nil {
		return nil
	}
	return &markedError{msg: msg, sentinel: sentinel, cause: cause}
}
