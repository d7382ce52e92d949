// Package metrics collects and exposes the server's prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what handlers and middlewares report into.
type Recorder interface {
	RecordRequest(route, method string, status int, d time.Duration)
	RecordUpstream(target, outcome string, d time.Duration)
	RecordRateLimited(scope string)
	RecordAuth(event, outcome string)
}

// Collector is the prometheus Recorder.
type Collector struct {
	requests     *prometheus.CounterVec
	latency      *prometheus.HistogramVec
	upstream     *prometheus.CounterVec
	upstreamTime *prometheus.HistogramVec
	rateLimited  *prometheus.CounterVec
	auth         *prometheus.CounterVec
}

// NewCollector creates the metrics and registers them on reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rebelchat_http_requests_total",
			Help: "HTTP requests by route, method and status code.",
		}, []string{"route", "method", "status_code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rebelchat_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route"}),
		upstream: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rebelchat_upstream_calls_total",
			Help: "Calls to Lambda, Lex and Cognito by outcome.",
		}, []string{"target", "outcome"}),
		upstreamTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "rebelchat_upstream_latency_seconds",
			Help:    "Upstream call latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"target"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rebelchat_rate_limited_total",
			Help: "Requests rejected with 429.",
		}, []string{"scope"}),
		auth: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "rebelchat_auth_events_total",
			Help: "Auth events (signup, signin, ...) by outcome.",
		}, []string{"event", "outcome"}),
	}

	reg.MustRegister(
		c.requests,
		c.latency,
		c.upstream,
		c.upstreamTime,
		c.rateLimited,
		c.auth,
	)
	return c
}

func (c *Collector) RecordRequest(route, method string, status int, d time.Duration) {
	c.requests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	c.latency.WithLabelValues(route).Observe(d.Seconds())
}

func (c *Collector) RecordUpstream(target, outcome string, d time.Duration) {
	c.upstream.WithLabelValues(target, outcome).Inc()
	c.upstreamTime.WithLabelValues(target).Observe(d.Seconds())
}

func (c *Collector) RecordRateLimited(scope string) {
	c.rateLimited.WithLabelValues(scope).Inc()
}

func (c *Collector) RecordAuth(event, outcome string) {
	c.auth.WithLabelValues(event, outcome).Inc()
}

// Nop discards everything.
type Nop struct{}

func (Nop) RecordRequest(string, string, int, time.Duration) {}
func (Nop) RecordUpstream(string, string, time.Duration)     {}
func (Nop) RecordRateLimited(string)                         {}
func (Nop) RecordAuth(string, string)                        {}

// Outcome maps an error to the "ok"/"error" label.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// Handler serves the prometheus exposition format for gatherer.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
