package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jrsteele09/go-storefront-session/authapi"
	"github.com/jrsteele09/go-storefront-session/claims"
	"github.com/jrsteele09/go-storefront-session/client"
	"github.com/jrsteele09/go-storefront-session/devserver"
	"github.com/jrsteele09/go-storefront-session/internal/config"
	"github.com/jrsteele09/go-storefront-session/internal/httpjson"
	"github.com/jrsteele09/go-storefront-session/refresh"
	"github.com/jrsteele09/go-storefront-session/routes"
	"github.com/jrsteele09/go-storefront-session/session"
	"github.com/jrsteele09/go-storefront-session/tokenstore"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	config.Config
	baseURL   string
	store     config.StoreKind
	tokenFile string
}

func (c testConfig) GetAPIBaseURL() string              { return c.baseURL }
func (c testConfig) GetTokenStore() config.StoreKind    { return c.store }
func (c testConfig) GetTokenFile() string               { return c.tokenFile }
func (testConfig) GetDevServerSecret() string           { return "e2e-secret" }
func (testConfig) GetAccessTokenExpiry() time.Duration  { return time.Minute }
func (testConfig) GetRefreshTokenExpiry() time.Duration { return time.Hour }

type recordingNavigator struct {
	lock  sync.Mutex
	paths []string
}

func (n *recordingNavigator) Navigate(path string, done func()) {
	n.lock.Lock()
	n.paths = append(n.paths, path)
	n.lock.Unlock()
	if done != nil {
		done()
	}
}

func (n *recordingNavigator) Paths() []string {
	n.lock.Lock()
	defer n.lock.Unlock()
	return append([]string(nil), n.paths...)
}

var _ routes.Navigator = (*recordingNavigator)(nil)

type harness struct {
	cfg       testConfig
	transport http.RoundTripper
	client    *client.Client
	navigator *recordingNavigator
	registry  *prometheus.Registry
	advance   func(time.Duration)
}

func newHarness(t *testing.T, store config.StoreKind) *harness {
	t.Helper()

	var nanos atomic.Int64
	nanos.Store(time.Now().UnixNano())
	prev := devserver.NowTimeFunc
	devserver.NowTimeFunc = func() time.Time { return time.Unix(0, nanos.Load()) }
	t.Cleanup(func() { devserver.NowTimeFunc = prev })

	cfg := testConfig{Config: config.New(), store: store, tokenFile: filepath.Join(t.TempDir(), "session.json")}
	backend, err := devserver.New(cfg, devserver.WithEnv("TEST"), devserver.WithUsers(
		devserver.SeedUser{Email: "a@b.com", Password: "secret", Name: "Ada", Role: claims.RoleCustomer},
		devserver.SeedUser{Email: "root@b.com", Password: "secret", Name: "Root", Role: claims.RoleSuperAdmin},
	))
	require.NoError(t, err)
	srv := httptest.NewServer(backend)
	t.Cleanup(srv.Close)
	cfg.baseURL = srv.URL

	h := &harness{
		cfg:       cfg,
		transport: srv.Client().Transport,
		navigator: &recordingNavigator{},
		registry:  prometheus.NewRegistry(),
		advance:   func(d time.Duration) { nanos.Add(int64(d)) },
	}
	h.client, err = client.New(cfg,
		client.WithNavigator(h.navigator),
		client.WithBaseTransport(srv.Client().Transport),
		client.WithRegisterer(h.registry),
	)
	require.NoError(t, err)
	t.Cleanup(func() { h.client.Close() })
	require.NoError(t, h.client.Init(context.Background()))
	return h
}

func TestSessionLifecycle(t *testing.T) {
	h := newHarness(t, config.StoreMemory)
	ctx := context.Background()
	c := h.client

	user, err := c.Session.Login(ctx, session.KindCustomer, "a@b.com", "secret")
	require.NoError(t, err)
	require.Equal(t, claims.RoleCustomer, user.Role)

	me, err := c.Customers.GetMe(ctx)
	require.NoError(t, err)
	require.Equal(t, "Ada", me.Name)

	// The access token expires; the next call refreshes and replays transparently.
	h.advance(2 * time.Minute)
	me, err = c.Customers.GetMe(ctx)
	require.NoError(t, err)
	require.Equal(t, user.ID, me.ID)

	expected := `
# HELP storefront_session_refresh_total Token refresh attempts by outcome.
# TYPE storefront_session_refresh_total counter
storefront_session_refresh_total{outcome="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(h.registry, strings.NewReader(expected), "storefront_session_refresh_total"))

	require.True(t, c.Session.Snapshot().Authenticated())

	stored, err := storedTokens(ctx, c)
	require.NoError(t, err)

	require.NoError(t, c.Session.Logout(ctx, false))
	require.Equal(t, []string{routes.RouteLoginCustomer}, h.navigator.Paths())
	require.Equal(t, session.LoggedOut, c.Session.State())

	_, err = c.Auth.Refresh(ctx, stored.RefreshToken)
	require.ErrorIs(t, err, authapi.ErrRefreshRejected)
}

func TestExpiredRefreshTokenEndsSession(t *testing.T) {
	h := newHarness(t, config.StoreMemory)
	ctx := context.Background()
	c := h.client

	_, err := c.Session.Login(ctx, session.KindCustomer, "a@b.com", "secret")
	require.NoError(t, err)

	h.advance(2 * time.Hour)
	_, err = c.Customers.GetMe(ctx)
	require.ErrorIs(t, err, refresh.ErrRefreshFailed)

	require.Equal(t, []string{routes.RouteLoginCustomer}, h.navigator.Paths())
	require.False(t, c.Session.IsAuthenticated())
	_, err = storedTokens(ctx, c)
	require.ErrorIs(t, err, tokenstore.ErrNotFound)

	// Later calls just get their 401; the session already ended once.
	_, err = c.Customers.GetMe(ctx)
	require.Equal(t, http.StatusUnauthorized, httpjson.StatusCode(err))
	require.NotErrorIs(t, err, refresh.ErrRefreshFailed)
	require.Equal(t, []string{routes.RouteLoginCustomer}, h.navigator.Paths())
}

func TestAdminLogoutRedirectsToAdminLogin(t *testing.T) {
	h := newHarness(t, config.StoreMemory)
	ctx := context.Background()

	user, err := h.client.Session.Login(ctx, session.KindAdmin, "root@b.com", "secret")
	require.NoError(t, err)
	require.True(t, user.Role.IsAdmin())

	require.NoError(t, h.client.Session.Logout(ctx, true))
	require.Equal(t, []string{routes.RouteLoginAdmin}, h.navigator.Paths())
}

func TestFileStoreSurvivesRestart(t *testing.T) {
	h := newHarness(t, config.StoreFile)
	ctx := context.Background()

	user, err := h.client.Session.Login(ctx, session.KindCustomer, "a@b.com", "secret")
	require.NoError(t, err)

	restarted, err := client.New(h.cfg, client.WithBaseTransport(h.transport))
	require.NoError(t, err)
	require.True(t, restarted.Session.IsLoading())
	require.NoError(t, restarted.Init(ctx))
	require.Equal(t, &user, restarted.Session.User())

	me, err := restarted.Customers.GetMe(ctx)
	require.NoError(t, err)
	require.Equal(t, "a@b.com", me.Email)
}

func storedTokens(ctx context.Context, c *client.Client) (*tokenstore.TokenPair, error) {
	return c.Store().Get(ctx)
}
