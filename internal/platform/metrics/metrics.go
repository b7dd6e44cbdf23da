// Package metrics holds the prometheus collectors for the reputation engine.
// Every method is nil safe so callers can run without metrics
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics provides observability for the server side store and ledger
type Metrics struct {
	// Identify outcomes by result type: spam, user, private, crowd, unknown
	Identify *prometheus.CounterVec

	// Vote ledger mutations by outcome: cast, duplicate, retract, retract_noop
	Votes *prometheus.CounterVec

	// Block relation mutations by op: block, block_report, unblock, not_blocked
	Blocks *prometheus.CounterVec

	// Name sightings applied by the async contact sync
	NameSightings prometheus.Counter

	// Name sync queue drops when the queue is full
	NameSyncDropped prometheus.Counter

	// SQL latency by outcome: ok, error, slow
	QueryLatency *prometheus.HistogramVec
}

// New registers all server collectors on reg. Nil reg means the default registerer
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		Identify: f.NewCounterVec(prometheus.CounterOpts{
			Name: "callerid_identify_total",
			Help: "Identify lookups by resolved type",
		}, []string{"type"}),

		Votes: f.NewCounterVec(prometheus.CounterOpts{
			Name: "callerid_votes_total",
			Help: "Vote ledger mutations by outcome",
		}, []string{"outcome"}),

		Blocks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "callerid_blocks_total",
			Help: "Block relation mutations by op",
		}, []string{"op"}),

		NameSightings: f.NewCounter(prometheus.CounterOpts{
			Name: "callerid_name_sightings_total",
			Help: "Contact name sightings folded into reputation records",
		}),

		NameSyncDropped: f.NewCounter(prometheus.CounterOpts{
			Name: "callerid_namesync_dropped_total",
			Help: "Contact name entries dropped because the sync queue was full",
		}),

		QueryLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "callerid_pg_query_duration_seconds",
			Help:    "Postgres statement duration",
			Buckets: []float64{0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"outcome"}),
	}
}

// IncIdentify records an identify outcome
func (m *Metrics) IncIdentify(typ string) {
	if m != nil {
		m.Identify.WithLabelValues(typ).Inc()
	}
}

// IncVote records a ledger mutation outcome
func (m *Metrics) IncVote(outcome string) {
	if m != nil {
		m.Votes.WithLabelValues(outcome).Inc()
	}
}

// IncBlock records a block relation mutation
func (m *Metrics) IncBlock(op string) {
	if m != nil {
		m.Blocks.WithLabelValues(op).Inc()
	}
}

// AddSightings records n applied name sightings
func (m *Metrics) AddSightings(n int) {
	if m != nil && n > 0 {
		m.NameSightings.Add(float64(n))
	}
}

// AddDropped records n dropped name sync entries
func (m *Metrics) AddDropped(n int) {
	if m != nil && n > 0 {
		m.NameSyncDropped.Add(float64(n))
	}
}

// ObserveQuery records a SQL statement duration
func (m *Metrics) ObserveQuery(d time.Duration, err error, slow bool) {
	if m == nil {
		return
	}
	outcome := "ok"
	switch {
	case err != nil:
		outcome = "error"
	case slow:
		outcome = "slow"
	}
	m.QueryLatency.WithLabelValues(outcome).Observe(d.Seconds())
}

// Client provides observability for the device side resolution pipeline
type Client struct {
	// Resolutions by source: device, cache, remote, unknown
	Resolutions *prometheus.CounterVec

	// Remote identify latency by outcome: ok, timeout, error, open
	RemoteLatency *prometheus.HistogramVec
}

// NewClient registers the client collectors on reg. Nil reg means the default registerer
func NewClient(reg prometheus.Registerer) *Client {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Client{
		Resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "callerid_client_resolutions_total",
			Help: "Pipeline resolutions by answering tier",
		}, []string{"source"}),

		RemoteLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "callerid_client_remote_duration_seconds",
			Help:    "Remote identify call duration",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
		}, []string{"outcome"}),
	}
}

// IncResolution records which tier answered a lookup
func (c *Client) IncResolution(source string) {
	if c != nil {
		c.Resolutions.WithLabelValues(source).Inc()
	}
}

// ObserveRemote records a remote identify duration
func (c *Client) ObserveRemote(outcome string, d time.Duration) {
	if c != nil {
		c.RemoteLatency.WithLabelValues(outcome).Observe(d.Seconds())
	}
}

// Handler exposes the default gatherer in the prometheus text format
func Handler() http.Handler { return promhttp.Handler() }
