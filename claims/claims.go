package claims

import (
	"encoding/json"
	"fmt"
	"strings"

	jwtlib "github.com/golang-jwt/jwt/v5"
	apperrors "github.com/jrsteele09/go-storefront-session/internal/errors"
)

// ErrInvalidToken matches every DecodeError.
var ErrInvalidToken = apperrors.ErrInvalidToken

// Claims are the access token claims the client reads. The signature is never checked here;
// the backend is the only party that validates tokens.
type Claims struct {
	Subject json.Number `json:"sub"` // numeric user id, sent as a string or a number
	Email   string      `json:"email"`
	Roles   []string    `json:"roles"`
	jwtlib.RegisteredClaims
}

// DecodeError describes why a token could not be turned into claims or a user.
type DecodeError struct {
	Reason string
	Err    error
}

func (e *DecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("decode token: %s: %v", e.Reason, e.Err)
	}
	return "decode token: " + e.Reason
}

func (e *DecodeError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInvalidToken, e.Err}
	}
	return []error{ErrInvalidToken}
}

// Result is either decoded Claims or a DecodeError, never both.
type Result struct {
	Claims *Claims
	Err    *DecodeError
}

func (r Result) Ok() bool {
	return r.Err == nil && r.Claims != nil
}

// Decode parses a JWT without verifying it. It does not panic on malformed input; problems
// are reported through Result.Err.
func Decode(rawToken string) Result {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return Result{Err: &DecodeError{Reason: "empty token"}}
	}

	var c Claims
	if _, _, err := jwtlib.NewParser().ParseUnverified(rawToken, &c); err != nil {
		return Result{Err: &DecodeError{Reason: "malformed token", Err: err}}
	}
	return Result{Claims: &c}
}

// User derives the session user from the decoded claims. The role is the first entry of roles.
func (r Result) User() (SessionUser, error) {
	if !r.Ok() {
		if r.Err == nil {
			return SessionUser{}, &DecodeError{Reason: "no claims"}
		}
		return SessionUser{}, r.Err
	}

	id, err := r.Claims.Subject.Int64()
	if err != nil {
		return SessionUser{}, &DecodeError{Reason: "sub is not a numeric id", Err: err}
	}
	if len(r.Claims.Roles) == 0 {
		return SessionUser{}, &DecodeError{Reason: "roles claim is empty"}
	}
	role := Role(r.Claims.Roles[0])
	if !role.Valid() {
		return SessionUser{}, &DecodeError{Reason: fmt.Sprintf("unknown role %q", role)}
	}

	return SessionUser{
		ID:    id,
		Email: r.Claims.Email,
		Role:  role,
	}, nil
}

// DecodeUser is Decode followed by User.
func DecodeUser(rawToken string) (SessionUser, error) {
	return Decode(rawToken).User()
}
