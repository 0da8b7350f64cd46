package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront_session"

// Refresh outcomes
const (
	RefreshSuccess   = "success"
	RefreshFailure   = "failure"
	RefreshCancelled = "cancelled"
	RefreshReused    = "reused" // a completed refresh already produced a newer token
	RefreshNoToken   = "no_token"
)

// Request outcomes
const (
	RequestOK           = "ok"
	RequestUnauthorized = "unauthorized"
	RequestReplayed     = "replayed"
	RequestCancelled    = "cancelled"
	RequestError        = "error"
)

// Recorder holds the client metrics. A nil *Recorder is valid and records nothing.
type Recorder struct {
	requests   *prometheus.CounterVec
	refreshes  *prometheus.CounterVec
	queueDepth prometheus.Gauge
	logouts    *prometheus.CounterVec
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Dispatched API requests by outcome.",
		}, []string{"outcome"}),
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "refresh_total",
			Help:      "Token refresh attempts by outcome.",
		}, []string{"outcome"}),
		queueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "refresh_queue_depth",
			Help:      "Requests waiting for an in-flight token refresh.",
		}),
		logouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "logouts_total",
			Help:      "Logouts by scope (single or all sessions).",
		}, []string{"scope"}),
	}

	if reg == nil {
		return r, nil
	}
	for _, c := range []prometheus.Collector{r.requests, r.refreshes, r.queueDepth, r.logouts} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) Request(outcome string) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(outcome).Inc()
}

func (r *Recorder) Refresh(outcome string) {
	if r == nil {
		return
	}
	r.refreshes.WithLabelValues(outcome).Inc()
}

func (r *Recorder) QueueDepth(n int) {
	if r == nil {
		return
	}
	r.queueDepth.Set(float64(n))
}

func (r *Recorder) Logout(allSessions bool) {
	if r == nil {
		return
	}
	scope := "single"
	if allSessions {
		scope = "all"
	}
	r.logouts.WithLabelValues(scope).Inc()
}
