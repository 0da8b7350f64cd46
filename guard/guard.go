// Package guard decides what a protected screen shows for the current session.
package guard

import (
	"slices"

	"github.com/jrsteele09/go-storefront-session/claims"
	"github.com/jrsteele09/go-storefront-session/routes"
	"github.com/jrsteele09/go-storefront-session/session"
)

type Outcome int

const (
	// Allow renders the protected screen.
	Allow Outcome = iota
	// Loading shows a placeholder while the session is restored or torn down.
	Loading
	// RedirectLogin sends an anonymous visitor to the customer login screen.
	RedirectLogin
	// RedirectHome sends a signed-in user whose role is not allowed to their own dashboard.
	RedirectHome
)

func (o Outcome) String() string {
	switch o {
	case Loading:
		return "loading"
	case RedirectLogin:
		return "redirect_login"
	case RedirectHome:
		return "redirect_home"
	default:
		return "allow"
	}
}

// Decision is the outcome plus the route to replace the current one with, if any.
type Decision struct {
	Outcome Outcome
	Path    string
}

// Decide evaluates a protected screen open to allowedRoles.
func Decide(s session.Snapshot, allowedRoles ...claims.Role) Decision {
	if s.Loading || s.LoggingOut() {
		return Decision{Outcome: Loading}
	}
	if !s.Authenticated() {
		return Decision{Outcome: RedirectLogin, Path: routes.RouteLoginCustomer}
	}
	if !slices.Contains(allowedRoles, s.User.Role) {
		return Decision{Outcome: RedirectHome, Path: Home(s.User.Role)}
	}
	return Decision{Outcome: Allow}
}

// Home returns the dashboard of role.
func Home(role claims.Role) string {
	if role.IsAdmin() {
		return routes.RouteAdminDashboard
	}
	return routes.RouteDashboard
}
