// Package client assembles the session stack from configuration.
package client

import (
	"context"
	"net/http"

	"github.com/jrsteele09/go-storefront-session/authapi"
	"github.com/jrsteele09/go-storefront-session/customers"
	"github.com/jrsteele09/go-storefront-session/dispatch"
	"github.com/jrsteele09/go-storefront-session/internal/config"
	"github.com/jrsteele09/go-storefront-session/internal/metrics"
	"github.com/jrsteele09/go-storefront-session/refresh"
	"github.com/jrsteele09/go-storefront-session/routes"
	"github.com/jrsteele09/go-storefront-session/scope"
	"github.com/jrsteele09/go-storefront-session/session"
	"github.com/jrsteele09/go-storefront-session/tokenstore"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Client is a wired session stack. HTTP sends through the dispatcher, so any API call made with
// it is authenticated, refreshed and cancelled on logout like the built-in services.
type Client struct {
	Session   *session.Controller
	Customers *customers.Service
	Auth      *authapi.Client
	HTTP      *http.Client

	store       tokenstore.Store
	scope       *scope.Scope
	dispatcher  *dispatch.Dispatcher
	coordinator *refresh.Coordinator
	redis       *redis.Client
}

type options struct {
	navigator  routes.Navigator
	store      tokenstore.Store
	transport  http.RoundTripper
	registerer prometheus.Registerer
	logger     *zerolog.Logger
}

type Option func(*options)

func WithNavigator(n routes.Navigator) Option {
	return func(o *options) {
		o.navigator = n
	}
}

// WithStore overrides the store selected by TOKEN_STORE.
func WithStore(s tokenstore.Store) Option {
	return func(o *options) {
		o.store = s
	}
}

func WithBaseTransport(rt http.RoundTripper) Option {
	return func(o *options) {
		o.transport = rt
	}
}

// WithRegisterer registers the session metrics with reg. Without it no metrics are recorded.
func WithRegisterer(reg prometheus.Registerer) Option {
	return func(o *options) {
		o.registerer = reg
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(o *options) {
		o.logger = &l
	}
}

func New(cfg config.Config, opts ...Option) (*Client, error) {
	o := options{
		navigator: routes.Immediate,
		transport: http.DefaultTransport,
	}
	for _, opt := range opts {
		opt(&o)
	}
	logger := log.Logger
	if o.logger != nil {
		logger = *o.logger
	}

	var recorder *metrics.Recorder
	if o.registerer != nil {
		var err error
		if recorder, err = metrics.NewRecorder(o.registerer); err != nil {
			return nil, errors.Wrap(err, "[client New] register metrics")
		}
	}

	c := &Client{scope: scope.New(), store: o.store}
	if c.store == nil {
		c.store, c.redis = newStore(cfg)
	}

	c.dispatcher = dispatch.New(c.store, c.scope,
		dispatch.WithBaseTransport(o.transport),
		dispatch.WithRateLimit(cfg.GetRateLimitRPS(), cfg.GetRateLimitBurst()),
		dispatch.WithMetrics(recorder),
		dispatch.WithLogger(logger.With().Str("component", "dispatch").Logger()),
	)
	c.HTTP = c.dispatcher.Client()

	baseURL := cfg.GetAPIBaseURL()
	c.Auth = authapi.New(baseURL, c.HTTP)
	c.Customers = customers.New(baseURL, c.HTTP)

	c.coordinator = refresh.NewCoordinator(c.store, c.Auth, c.scope,
		refresh.WithNavigator(o.navigator),
		refresh.WithMetrics(recorder),
		refresh.WithLogger(logger.With().Str("component", "refresh").Logger()),
	)
	c.dispatcher.UseRefresher(c.coordinator)

	c.Session = session.New(c.Auth, c.store, c.scope,
		session.WithNavigator(o.navigator),
		session.WithMetrics(recorder),
		session.WithLogger(logger.With().Str("component", "session").Logger()),
		session.WithTeardownNotifier(c.coordinator),
	)
	return c, nil
}

// Init restores a persisted session.
func (c *Client) Init(ctx context.Context) error {
	return c.Session.Init(ctx)
}

// Store returns the token store in use.
func (c *Client) Store() tokenstore.Store {
	return c.store
}

// Close releases the Redis connection when the Redis store is in use.
func (c *Client) Close() error {
	if c.redis != nil {
		return c.redis.Close()
	}
	return nil
}

func newStore(cfg config.StoreConfig) (tokenstore.Store, *redis.Client) {
	switch cfg.GetTokenStore() {
	case config.StoreRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.GetRedisAddr(),
			Password: cfg.GetRedisPassword(),
			DB:       cfg.GetRedisDB(),
		})
		return tokenstore.NewRedisStore(rdb, cfg.GetRedisKeyPrefix()), rdb
	case config.StoreMemory:
		return tokenstore.NewMemoryStore(), nil
	default:
		return tokenstore.NewFileStore(cfg.GetTokenFile()), nil
	}
}
