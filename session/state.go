package session

import (
	"github.com/jrsteele09/go-storefront-session/authapi"
	"github.com/jrsteele09/go-storefront-session/claims"
)

// State of the session controller
type State int

const (
	LoggedOut State = iota
	LoggingIn
	LoggedIn
	LoggingOut
)

func (s State) String() string {
	switch s {
	case LoggingIn:
		return "logging_in"
	case LoggedIn:
		return "logged_in"
	case LoggingOut:
		return "logging_out"
	default:
		return "logged_out"
	}
}

// Kind selects the customer or admin login endpoint.
type Kind = authapi.Kind

const (
	KindCustomer = authapi.KindCustomer
	KindAdmin    = authapi.KindAdmin
)

// ErrInvalidCredentials is returned by Login when the endpoint rejects the email/password.
var ErrInvalidCredentials = authapi.ErrInvalidCredentials

// Snapshot is a consistent view of the session, taken under the controller's lock.
type Snapshot struct {
	State   State
	User    *claims.SessionUser
	Loading bool
}

func (s Snapshot) Authenticated() bool {
	return s.User != nil
}

func (s Snapshot) LoggingOut() bool {
	return s.State == LoggingOut
}
