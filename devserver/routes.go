package devserver

import (
	"net/http"
	"slices"

	"github.com/jrsteele09/go-storefront-session/authapi"
	"github.com/jrsteele09/go-storefront-session/claims"
	"github.com/jrsteele09/go-storefront-session/customers"
)

// Middleware decorates a handler. The first middleware passed to api runs outermost.
type Middleware func(http.HandlerFunc) http.HandlerFunc

func (s *Server) initRoutes() {
	// AUTH
	s.RegisterRouteFunc("POST "+authapi.PathLoginCustomer, s.api(s.LoginHandler(isCustomer)))
	s.RegisterRouteFunc("POST "+authapi.PathLoginAdmin, s.api(s.LoginHandler(claims.Role.IsAdmin)))
	s.RegisterRouteFunc("POST "+authapi.PathRefresh, s.api(s.RefreshHandler()))
	s.RegisterRouteFunc("POST "+authapi.PathLogout, s.api(s.LogoutHandler()))
	s.RegisterRouteFunc("POST "+authapi.PathRegisterCustomer, s.api(s.RegisterHandler()))

	// CUSTOMER PROFILE
	s.RegisterRouteFunc("GET "+customers.PathMe, s.api(s.GetMeHandler(), s.RequireAuth()))
	s.RegisterRouteFunc("PUT "+customers.PathMe, s.api(s.UpdateMeHandler(), s.RequireAuth()))
	s.RegisterRouteFunc("POST "+customers.PathMePassword, s.api(s.ChangePasswordHandler(), s.RequireAuth()))
}

// api wraps an endpoint in panic recovery and request logging, then the route specific mw.
func (s *Server) api(h http.HandlerFunc, mw ...Middleware) http.HandlerFunc {
	stack := append([]Middleware{s.RecoverMiddleware, s.LoggingMiddleware}, mw...)
	for _, m := range slices.Backward(stack) {
		h = m(h)
	}
	return h
}

func isCustomer(r claims.Role) bool {
	return r == claims.RoleCustomer
}
