// Package metrics exposes prometheus collectors for upstream calls, the
// snapshot cache, range reconstruction and the HTTP surface.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Cache lookup results
const (
	CacheHit  = "hit"
	CacheMiss = "miss"
)

// Range day outcomes
const (
	DayResolved = "resolved"
	DayMissing  = "missing"
	DayFailed   = "failed"
)

// Metrics holds every collector the service records into
type Metrics struct {
	UpstreamRequestsTotal   *prometheus.CounterVec
	UpstreamRequestDuration *prometheus.HistogramVec
	CacheLookupsTotal       *prometheus.CounterVec
	RangeDaysTotal          *prometheus.CounterVec
	HTTPRequestsTotal       *prometheus.CounterVec
	HTTPRequestDuration     *prometheus.HistogramVec
}

// New registers the collectors on reg. A nil reg gets a private registry,
// which keeps tests from colliding on the global one.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		UpstreamRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratesnap_upstream_requests_total",
				Help: "Upstream provider calls by endpoint and outcome",
			},
			[]string{"endpoint", "outcome"},
		),
		UpstreamRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ratesnap_upstream_request_duration_seconds",
				Help:    "Upstream provider call latency",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"endpoint"},
		),
		CacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratesnap_cache_lookups_total",
				Help: "Snapshot cache lookups by result",
			},
			[]string{"result"},
		),
		RangeDaysTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratesnap_range_days_total",
				Help: "Days visited by range reconstruction by outcome",
			},
			[]string{"outcome"},
		),
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ratesnap_http_requests_total",
				Help: "HTTP requests by route and status code",
			},
			[]string{"route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ratesnap_http_request_duration_seconds",
				Help:    "HTTP request latency by route",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// Nop returns collectors registered nowhere, for callers that do not export metrics
func Nop() *Metrics {
	return New(nil)
}
