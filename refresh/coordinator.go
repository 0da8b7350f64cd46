package refresh

import (
	"context"
	"errors"
	"sync"

	apperrors "github.com/jrsteele09/go-storefront-session/internal/errors"
	"github.com/jrsteele09/go-storefront-session/internal/metrics"
	"github.com/jrsteele09/go-storefront-session/routes"
	"github.com/jrsteele09/go-storefront-session/scope"
	"github.com/jrsteele09/go-storefront-session/tokenstore"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// State of the coordinator
type State int

const (
	Idle State = iota
	Refreshing
)

func (s State) String() string {
	if s == Refreshing {
		return "refreshing"
	}
	return "idle"
}

// Exchanger trades a refresh token for a new token pair.
type Exchanger interface {
	Refresh(ctx context.Context, refreshToken string) (tokenstore.TokenPair, error)
}

type result struct {
	token string
	err   error
}

// Coordinator makes sure only one refresh exchange runs at a time. Requests that get a 401 while
// an exchange is running wait for it and all receive the token it produced.
type Coordinator struct {
	store     tokenstore.Store
	exchanger Exchanger
	scope     *scope.Scope
	navigator routes.Navigator
	metrics   *metrics.Recorder
	log       zerolog.Logger

	mu       sync.Mutex
	state    State
	queue    []chan result // FIFO, the request that started the refresh is first
	teardown []func()
}

type Option func(*Coordinator)

// WithNavigator sets where the user is sent when the session cannot be refreshed.
func WithNavigator(n routes.Navigator) Option {
	return func(c *Coordinator) {
		c.navigator = n
	}
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Coordinator) {
		c.log = l
	}
}

// NewCoordinator returns an idle coordinator. Refreshed tokens are only stored while sc is still
// on the generation the refresh started in.
func NewCoordinator(store tokenstore.Store, exchanger Exchanger, sc *scope.Scope, options ...Option) *Coordinator {
	c := &Coordinator{
		store:     store,
		exchanger: exchanger,
		scope:     sc,
		navigator: routes.Immediate,
		log:       log.Logger,
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// OnTeardown registers fn to run when a failed refresh ends the session.
func (c *Coordinator) OnTeardown(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.teardown = append(c.teardown, fn)
}

func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Pending returns how many requests are waiting on the running refresh.
func (c *Coordinator) Pending() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Recover is called after a request sent with staleAccessToken was answered 401. It returns the
// access token the request should be replayed with, starting a refresh if none is running.
func (c *Coordinator) Recover(ctx context.Context, staleAccessToken string) (string, error) {
	ch := make(chan result, 1)

	c.mu.Lock()
	c.queue = append(c.queue, ch)
	depth := len(c.queue)
	start := c.state == Idle
	c.state = Refreshing
	c.mu.Unlock()

	c.metrics.QueueDepth(depth)
	if start {
		gen := c.scope.Current()
		c.log.Info().Uint64("generation", uint64(gen)).Msg("access token rejected, refreshing")
		// The exchange must outlive the request that triggered it: other requests are waiting
		// on it. Logout still cancels it through the dispatcher's scope binding.
		go c.run(context.WithoutCancel(ctx), gen, staleAccessToken)
	} else {
		c.log.Debug().Int("queued", depth).Msg("request queued behind refresh")
	}

	select {
	case r := <-ch:
		return r.token, r.err
	case <-ctx.Done():
		return "", context.Cause(ctx)
	}
}

func (c *Coordinator) run(ctx context.Context, gen scope.Generation, staleAccessToken string) {
	token, err := c.exchange(ctx, gen, staleAccessToken)
	switch {
	case err == nil:
	case errors.Is(err, ErrNoRefreshToken):
		// Nothing to refresh with: the session is already gone, so the caller keeps its 401.
		c.metrics.Refresh(metrics.RefreshNoToken)
		c.log.Debug().Msg("no refresh token stored")
	case cancelled(err) || c.scope.Current() != gen:
		c.metrics.Refresh(metrics.RefreshCancelled)
		c.log.Debug().Err(err).Msg("refresh cancelled")
		if !errors.Is(err, scope.ErrSuperseded) {
			err = apperrors.Mark(err, scope.ErrSuperseded, "[Refresh]")
		}
	default:
		c.metrics.Refresh(metrics.RefreshFailure)
		c.log.Warn().Err(err).Msg("refresh failed, ending session")
		err = apperrors.Mark(err, ErrRefreshFailed, "[Refresh]")
		c.endSession(ctx)
	}
	c.finish(result{token: token, err: err})
}

func (c *Coordinator) exchange(ctx context.Context, gen scope.Generation, staleAccessToken string) (string, error) {
	pair, err := c.store.Get(ctx)
	if errors.Is(err, tokenstore.ErrNotFound) {
		return "", ErrNoRefreshToken
	}
	if err != nil {
		return "", err
	}

	// A refresh finished after the failing request was sent; its token is still good to use.
	if pair.AccessToken != "" && pair.AccessToken != staleAccessToken {
		c.metrics.Refresh(metrics.RefreshReused)
		return pair.AccessToken, nil
	}
	if pair.RefreshToken == "" {
		return "", ErrNoRefreshToken
	}

	fresh, err := c.exchanger.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		return "", err
	}
	// Logout clears the store after advancing the scope; a pair that arrives later is dropped.
	if err := c.scope.Commit(gen, func() error { return c.store.Set(ctx, fresh) }); err != nil {
		return "", err
	}
	c.metrics.Refresh(metrics.RefreshSuccess)
	c.log.Info().Msg("access token refreshed")
	return fresh.AccessToken, nil
}

// endSession clears the credentials, notifies listeners and sends the user to the login screen.
func (c *Coordinator) endSession(ctx context.Context) {
	if err := c.store.Clear(ctx); err != nil {
		c.log.Err(err).Msg("failed to clear token store")
	}

	c.mu.Lock()
	listeners := append([]func(){}, c.teardown...)
	c.mu.Unlock()
	for _, fn := range listeners {
		fn()
	}

	c.navigator.Navigate(routes.RouteLoginCustomer, nil)
}

func (c *Coordinator) finish(r result) {
	c.mu.Lock()
	queue := c.queue
	c.queue = nil
	c.state = Idle
	c.mu.Unlock()

	c.metrics.QueueDepth(0)
	for _, ch := range queue {
		ch <- r
	}
}

func cancelled(err error) bool {
	return errors.Is(err, scope.ErrSuperseded) || errors.Is(err, context.Canceled)
}
