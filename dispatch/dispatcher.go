package dispatch

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-storefront-session/authapi"
	apperrors "github.com/jrsteele09/go-storefront-session/internal/errors"
	"github.com/jrsteele09/go-storefront-session/internal/metrics"
	"github.com/jrsteele09/go-storefront-session/scope"
	"github.com/jrsteele09/go-storefront-session/tokenstore"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"
)

// HeaderRequestID carries the id used to correlate client and server logs.
const HeaderRequestID = "X-Request-ID"

const maxUnauthorizedBody = 64 << 10

// Refresher turns a 401 into a fresh access token (see refresh.Coordinator).
type Refresher interface {
	Recover(ctx context.Context, staleAccessToken string) (string, error)
}

// Dispatcher is the http.RoundTripper every API call goes through. It binds requests to the
// cancellation scope, attaches the bearer token and replays requests once after a refresh.
type Dispatcher struct {
	base    http.RoundTripper
	store   tokenstore.Store
	scope   *scope.Scope
	limiter *rate.Limiter
	metrics *metrics.Recorder
	log     zerolog.Logger

	mu        sync.RWMutex
	refresher Refresher
}

var _ http.RoundTripper = (*Dispatcher)(nil)

type Option func(*Dispatcher)

func WithBaseTransport(rt http.RoundTripper) Option {
	return func(d *Dispatcher) {
		d.base = rt
	}
}

// WithRateLimit limits outgoing requests to rps per second. rps <= 0 disables the limit.
func WithRateLimit(rps float64, burst int) Option {
	return func(d *Dispatcher) {
		if rps <= 0 {
			d.limiter = nil
			return
		}
		if burst < 1 {
			burst = 1
		}
		d.limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
}

func WithMetrics(m *metrics.Recorder) Option {
	return func(d *Dispatcher) {
		d.metrics = m
	}
}

func WithLogger(l zerolog.Logger) Option {
	return func(d *Dispatcher) {
		d.log = l
	}
}

func New(store tokenstore.Store, sc *scope.Scope, options ...Option) *Dispatcher {
	d := &Dispatcher{
		base:  http.DefaultTransport,
		store: store,
		scope: sc,
		log:   log.Logger,
	}
	for _, opt := range options {
		opt(d)
	}
	return d
}

// UseRefresher sets the refresher after construction. The refresher usually calls the refresh
// endpoint through this same dispatcher, so it can only be built once the dispatcher exists.
func (d *Dispatcher) UseRefresher(r Refresher) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.refresher = r
}

// Client returns an http.Client that sends through the dispatcher.
func (d *Dispatcher) Client() *http.Client {
	return &http.Client{Transport: d}
}

func (d *Dispatcher) RoundTrip(req *http.Request) (*http.Response, error) {
	ctx, gen, release := d.scope.Bind(req.Context())

	resp, err := d.roundTrip(ctx, req)
	if err != nil {
		release()
		if scope.Superseded(ctx) {
			d.metrics.Request(metrics.RequestCancelled)
			d.log.Debug().Uint64("generation", uint64(gen)).Str("path", req.URL.Path).Msg("request cancelled by logout")
			if !errors.Is(err, scope.ErrSuperseded) {
				err = apperrors.Mark(err, scope.ErrSuperseded, "[Dispatcher]")
			}
			return nil, err
		}
		d.metrics.Request(metrics.RequestError)
		return nil, err
	}

	resp.Body = &releaseOnClose{ReadCloser: resp.Body, release: release}
	return resp, nil
}

func (d *Dispatcher) roundTrip(ctx context.Context, req *http.Request) (*http.Response, error) {
	getBody, err := replayableBody(req)
	if err != nil {
		return nil, err
	}

	requestID := req.Header.Get(HeaderRequestID)
	if requestID == "" {
		requestID = uuid.NewString()
	}
	path := req.URL.Path
	public := authapi.IsPublic(path)

	out, err := outgoing(ctx, req, getBody, requestID)
	if err != nil {
		return nil, err
	}

	var accessToken string
	switch {
	case public:
		out.Header.Del("Authorization")
	case out.Header.Get("Authorization") != "":
		accessToken = bearer(out.Header.Get("Authorization"))
	default:
		tok, err := tokenstore.TokenSource(ctx, d.store).Token()
		if err != nil && !errors.Is(err, tokenstore.ErrNotFound) {
			return nil, errors.Wrap(err, "[Dispatcher] read token store")
		}
		if tok != nil {
			tok.SetAuthHeader(out)
			accessToken = tok.AccessToken
		}
	}

	resp, err := d.send(ctx, out)
	if err != nil {
		return nil, err
	}

	refresher := d.currentRefresher()
	if resp.StatusCode != http.StatusUnauthorized || public || authapi.IsLogout(path) || refresher == nil {
		d.record(resp.StatusCode)
		d.log.Debug().Str("request_id", requestID).Str("method", req.Method).Str("path", path).Int("status", resp.StatusCode).Msg("dispatched")
		return resp, nil
	}

	// 401: keep the (small) body for the caller, free the connection, get a fresh token and
	// replay once.
	unauthorized, err := io.ReadAll(io.LimitReader(resp.Body, maxUnauthorizedBody))
	resp.Body.Close()
	if err != nil {
		return nil, errors.Wrap(err, "[Dispatcher] read 401 body")
	}

	freshToken, err := refresher.Recover(ctx, accessToken)
	if errors.Is(err, apperrors.ErrNoRefreshToken) {
		// Nothing to refresh with: the caller gets the 401 it was answered with.
		resp.Body = io.NopCloser(bytes.NewReader(unauthorized))
		d.record(resp.StatusCode)
		d.log.Debug().Str("request_id", requestID).Str("path", path).Msg("401 without refresh token")
		return resp, nil
	}
	if err != nil {
		return nil, err
	}

	// The replay goes straight to the base transport, so a second 401 is final.
	retry, err := outgoing(ctx, req, getBody, requestID)
	if err != nil {
		return nil, err
	}
	retry.Header.Set("Authorization", "Bearer "+freshToken)

	resp, err = d.send(ctx, retry)
	if err != nil {
		return nil, err
	}
	d.metrics.Request(metrics.RequestReplayed)
	d.log.Debug().Str("request_id", requestID).Str("path", path).Int("status", resp.StatusCode).Msg("replayed after refresh")
	return resp, nil
}

func (d *Dispatcher) send(ctx context.Context, req *http.Request) (*http.Response, error) {
	if d.limiter != nil {
		if err := d.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}
	return d.base.RoundTrip(req)
}

func (d *Dispatcher) currentRefresher() Refresher {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.refresher
}

func (d *Dispatcher) record(status int) {
	switch {
	case status == http.StatusUnauthorized:
		d.metrics.Request(metrics.RequestUnauthorized)
	case status >= 500:
		d.metrics.Request(metrics.RequestError)
	default:
		d.metrics.Request(metrics.RequestOK)
	}
}

// outgoing clones req onto ctx with a fresh copy of the body.
func outgoing(ctx context.Context, req *http.Request, getBody func() (io.ReadCloser, error), requestID string) (*http.Request, error) {
	out := req.Clone(ctx)
	out.Header.Set(HeaderRequestID, requestID)
	out.Body = nil
	out.GetBody = getBody
	if getBody != nil {
		body, err := getBody()
		if err != nil {
			return nil, errors.Wrap(err, "[dispatch] copy request body")
		}
		out.Body = body
	}
	return out, nil
}

func bearer(header string) string {
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return header[7:]
	}
	return ""
}
