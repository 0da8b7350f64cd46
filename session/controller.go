package session

import (
	"context"
	"errors"
	"sync"

	"github.com/jrsteele09/go-storefront-session/authapi"
	"github.com/jrsteele09/go-storefront-session/claims"
	"github.com/jrsteele09/go-storefront-session/internal/metrics"
	"github.com/jrsteele09/go-storefront-session/routes"
	"github.com/jrsteele09/go-storefront-session/scope"
	"github.com/jrsteele09/go-storefront-session/tokenstore"
	pkgerrors "github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// AuthAPI is the part of authapi.Client the controller uses.
type AuthAPI interface {
	Login(ctx context.Context, kind authapi.Kind, creds authapi.Credentials) (tokenstore.TokenPair, error)
	Logout(ctx context.Context, accessToken, refreshToken string, allSessions bool) error
	Register(ctx context.Context, req authapi.RegisterRequest) (authapi.CustomerRegistered, error)
}

// TeardownNotifier reports sessions ended outside the controller, e.g. by a failed refresh.
type TeardownNotifier interface {
	OnTeardown(fn func())
}

var _ AuthAPI = (*authapi.Client)(nil)

// Controller owns the signed-in user and drives login and logout.
type Controller struct {
	auth      AuthAPI
	store     tokenstore.Store
	scope     *scope.Scope
	navigator routes.Navigator
	metrics   *metrics.Recorder
	log       zerolog.Logger

	mu      sync.Mutex
	state   State
	user    *claims.SessionUser
	loading bool
	logins  uint64 // bumped on every successful login
}

type Option func(*Controller)

func WithNavigator(n routes.Navigator) Option {
	return func(c *Controller) {
		c.navigator = n
	}
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(c *Controller) {
		c.metrics = m
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Controller) {
		c.log = l
	}
}

// WithTeardownNotifier resets the controller to LoggedOut whenever n ends the session.
func WithTeardownNotifier(n TeardownNotifier) Option {
	return func(c *Controller) {
		n.OnTeardown(c.expired)
	}
}

// New returns a controller in the loading state. Call Init to restore a persisted session.
func New(auth AuthAPI, store tokenstore.Store, sc *scope.Scope, options ...Option) *Controller {
	c := &Controller{
		auth:      auth,
		store:     store,
		scope:     sc,
		navigator: routes.Immediate,
		log:       log.Logger,
		loading:   true,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Init restores the user from a persisted access token. Expiry is not checked here: an expired
// token is refreshed on the first 401. A token that cannot be decoded is cleared.
func (c *Controller) Init(ctx context.Context) error {
	defer func() {
		c.mu.Lock()
		c.loading = false
		c.mu.Unlock()
	}()

	pair, err := c.store.Get(ctx)
	if errors.Is(err, tokenstore.ErrNotFound) {
		return nil
	}
	if err != nil {
		return pkgerrors.Wrap(err, "[Init] read token store")
	}

	user, err := claims.DecodeUser(pair.AccessToken)
	if err != nil {
		c.log.Warn().Err(err).Msg("persisted access token is unusable, clearing session")
		if err := c.store.Clear(ctx); err != nil {
			return pkgerrors.Wrap(err, "[Init] clear token store")
		}
		return nil
	}

	c.mu.Lock()
	c.user = &user
	c.state = LoggedIn
	c.mu.Unlock()
	c.log.Debug().Int64("user_id", user.ID).Str("role", string(user.Role)).Msg("session restored")
	return nil
}

// Login signs in through the customer or admin endpoint and stores the returned tokens.
func (c *Controller) Login(ctx context.Context, kind Kind, email, password string) (claims.SessionUser, error) {
	c.mu.Lock()
	prev := c.state
	c.state = LoggingIn
	c.mu.Unlock()

	pair, err := c.auth.Login(ctx, kind, authapi.Credentials{Email: email, Password: password})
	if err != nil {
		c.restore(prev)
		return claims.SessionUser{}, err
	}

	if err := c.store.Set(ctx, pair); err != nil {
		c.restore(prev)
		return claims.SessionUser{}, pkgerrors.Wrap(err, "[Login] store tokens")
	}

	user, err := claims.DecodeUser(pair.AccessToken)
	if err != nil {
		if clearErr := c.store.Clear(ctx); clearErr != nil {
			c.log.Err(clearErr).Msg("failed to clear token store")
		}
		c.mu.Lock()
		c.user = nil
		c.state = LoggedOut
		c.mu.Unlock()
		return claims.SessionUser{}, pkgerrors.Wrap(err, "[Login] decode access token")
	}

	c.mu.Lock()
	c.user = &user
	c.state = LoggedIn
	c.logins++
	c.mu.Unlock()

	c.log.Info().Int64("user_id", user.ID).Str("role", string(user.Role)).Str("kind", string(kind)).Msg("logged in")
	return user, nil
}

// Register creates a customer account. The caller still has to Login.
func (c *Controller) Register(ctx context.Context, req authapi.RegisterRequest) (authapi.CustomerRegistered, error) {
	return c.auth.Register(ctx, req)
}

// Logout ends the session in two phases. The first runs before Logout returns: in-flight
// requests are cancelled, the user is sent to the login screen of their role and the refresh
// token is revoked. The second runs once that navigation has completed and clears the tokens
// and user. A failing logout endpoint is logged and otherwise ignored.
func (c *Controller) Logout(ctx context.Context, allSessions bool) error {
	c.mu.Lock()
	busy := c.state == LoggingOut
	signedIn := c.user != nil || c.state != LoggedOut
	c.mu.Unlock()
	if busy {
		return nil
	}

	// Without a user there is nothing in flight to cancel, so the store decides whether there
	// is anything to log out at all.
	var pair *tokenstore.TokenPair
	if !signedIn {
		pair = c.readTokens(ctx)
		if pair.IsZero() {
			return nil
		}
	}

	c.mu.Lock()
	if c.state == LoggingOut {
		c.mu.Unlock()
		return nil
	}
	user := c.user
	logins := c.logins
	c.state = LoggingOut
	c.mu.Unlock()

	gen := c.scope.Advance()
	c.metrics.Logout(allSessions)
	if pair == nil {
		pair = c.readTokens(ctx)
	}

	target := routes.RouteLoginCustomer
	if role(user, pair.AccessToken).IsAdmin() {
		target = routes.RouteLoginAdmin
	}
	c.log.Info().Uint64("generation", uint64(gen)).Bool("all_sessions", allSessions).Str("redirect", target).Msg("logging out")

	var once sync.Once
	c.navigator.Navigate(target, func() {
		once.Do(func() { c.completeLogout(context.WithoutCancel(ctx), logins) })
	})

	if pair.RefreshToken != "" || pair.AccessToken != "" {
		if err := c.auth.Logout(ctx, pair.AccessToken, pair.RefreshToken, allSessions); err != nil {
			c.log.Warn().Err(err).Msg("logout endpoint failed, continuing local logout")
		}
	}
	return nil
}

// readTokens returns the stored pair, or an empty one when nothing can be read.
func (c *Controller) readTokens(ctx context.Context) *tokenstore.TokenPair {
	pair, err := c.store.Get(ctx)
	if err != nil && !errors.Is(err, tokenstore.ErrNotFound) {
		c.log.Err(err).Msg("failed to read tokens for logout")
	}
	if pair == nil {
		return &tokenstore.TokenPair{}
	}
	return pair
}

// completeLogout is the second logout phase. A login that completed in between keeps its tokens.
func (c *Controller) completeLogout(ctx context.Context, logins uint64) {
	c.mu.Lock()
	superseded := c.logins != logins
	if !superseded {
		c.user = nil
		c.state = LoggedOut
	}
	c.mu.Unlock()
	if superseded {
		return
	}

	if err := c.store.Clear(ctx); err != nil {
		c.log.Err(err).Msg("failed to clear token store")
	}
	c.log.Debug().Msg("logged out")
}

// expired handles a session ended by a failed refresh. Tokens are already cleared by then.
func (c *Controller) expired() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.user = nil
	if c.state != LoggingOut {
		c.state = LoggedOut
	}
}

func (c *Controller) restore(prev State) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user != nil && prev == LoggedIn {
		c.state = LoggedIn
		return
	}
	c.state = LoggedOut
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// User returns the signed-in user, or nil.
func (c *Controller) User() *claims.SessionUser {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.user == nil {
		return nil
	}
	u := *c.user
	return &u
}

func (c *Controller) IsAuthenticated() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user != nil
}

func (c *Controller) IsLoading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

func (c *Controller) IsLoggingOut() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state == LoggingOut
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	s := Snapshot{State: c.state, Loading: c.loading}
	if c.user != nil {
		u := *c.user
		s.User = &u
	}
	return s
}

// role returns the role of user, falling back to the access token when no user is loaded.
func role(user *claims.SessionUser, accessToken string) claims.Role {
	if user != nil {
		return user.Role
	}
	if u, err := claims.DecodeUser(accessToken); err == nil {
		return u.Role
	}
	return claims.RoleCustomer
}
