// Package devserver is an in-memory storefront backend implementing the auth and profile
// endpoints the session client talks to. It backs cmd/devserver and end-to-end tests.
package devserver

import (
	"net/http"
	"strings"
	"time"

	"github.com/jrsteele09/go-storefront-session/claims"
	"github.com/jrsteele09/go-storefront-session/internal/config"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// SeedUser is an account created when the server starts.
type SeedUser struct {
	Email    string
	Password string
	Name     string
	Role     claims.Role
}

type Server struct {
	env    string
	mux    *http.ServeMux
	routes []string
	log    zerolog.Logger

	users         *userRepo
	accessTokens  *accessTokenCreator
	refreshTokens *refreshTokens
	seeds         []SeedUser
}

type Option func(*Server)

// WithEnv sets the environment name; routes and requests are only logged in DEV.
func WithEnv(env string) Option {
	return func(s *Server) {
		s.env = strings.ToUpper(env)
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// WithUsers seeds accounts, e.g. the restaurant and super admins that cannot self-register.
func WithUsers(users ...SeedUser) Option {
	return func(s *Server) {
		s.seeds = append(s.seeds, users...)
	}
}

func New(cfg config.DevServerConfig, options ...Option) (*Server, error) {
	signer := NewHMACSigner(cfg.GetDevServerSecret())
	s := &Server{
		env:           "DEV",
		mux:           http.NewServeMux(),
		log:           log.Logger,
		users:         newUserRepo(),
		accessTokens:  newAccessTokenCreator(signer, cfg.GetAccessTokenExpiry()),
		refreshTokens: newRefreshTokens(cfg.GetRefreshTokenExpiry()),
	}
	for _, opt := range options {
		opt(s)
	}

	for _, seed := range s.seeds {
		if _, err := s.createUser(seed.Email, seed.Password, seed.Name, nil, seed.Role); err != nil {
			return nil, errors.Wrapf(err, "[Server New] seed user %s", seed.Email)
		}
	}

	s.initRoutes()
	s.logRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return
	}
	for _, route := range s.routes {
		method, path, found := strings.Cut(route, " ")
		if !found {
			method, path = "", route
		}
		s.log.Debug().Str("method", method).Str("path", path).Msg("route")
	}
}
