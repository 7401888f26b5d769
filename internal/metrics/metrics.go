// Package metrics collects Prometheus metrics for the session client and the invite service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the session core and invite service report into
type Recorder interface {
	RecordRefresh(outcome string)
	RecordSubscriberFault()
	RecordProfileFetch(statusCode int, duration time.Duration)
	RecordInviteDelivered(mode string)
	RecordInviteFailed(reason string)
}

// Collector is the Prometheus implementation of Recorder
type Collector struct {
	refreshes        *prometheus.CounterVec
	subscriberFaults prometheus.Counter
	fetchStatus      *prometheus.CounterVec
	fetchLatency     prometheus.Histogram
	invitesSent      *prometheus.CounterVec
	inviteFailures   *prometheus.CounterVec
}

// NewCollector creates a Collector and registers it with reg
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		refreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fridge_profile_refresh_total",
			Help: "Profile cache refreshes by outcome",
		}, []string{"outcome"}),
		subscriberFaults: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "fridge_subscriber_faults_total",
			Help: "Profile subscribers that panicked during notification",
		}),
		fetchStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fridge_profile_fetch_status_total",
			Help: "Profile fetch responses by HTTP status (0 for transport errors)",
		}, []string{"status_code"}),
		fetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "fridge_profile_fetch_latency_seconds",
			Help:    "Profile fetch latency",
			Buckets: prometheus.DefBuckets,
		}),
		invitesSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fridge_invites_delivered_total",
			Help: "Invite e-mails handed to the mailer",
		}, []string{"mode"}),
		inviteFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "fridge_invite_failures_total",
			Help: "Invite deliveries that failed",
		}, []string{"reason"}),
	}

	reg.MustRegister(
		c.refreshes,
		c.subscriberFaults,
		c.fetchStatus,
		c.fetchLatency,
		c.invitesSent,
		c.inviteFailures,
	)

	return c
}

// RecordRefresh counts a cache refresh outcome (ok, stale, empty, superseded)
func (c *Collector) RecordRefresh(outcome string) {
	c.refreshes.WithLabelValues(outcome).Inc()
}

// RecordSubscriberFault counts a panicking subscriber
func (c *Collector) RecordSubscriberFault() {
	c.subscriberFaults.Inc()
}

// RecordProfileFetch records the status and latency of one profile fetch
func (c *Collector) RecordProfileFetch(statusCode int, duration time.Duration) {
	c.fetchStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
	c.fetchLatency.Observe(duration.Seconds())
}

// RecordInviteDelivered counts an invite e-mail sent through the given mailer mode
func (c *Collector) RecordInviteDelivered(mode string) {
	c.invitesSent.WithLabelValues(mode).Inc()
}

// RecordInviteFailed counts a failed invite
func (c *Collector) RecordInviteFailed(reason string) {
	c.inviteFailures.WithLabelValues(reason).Inc()
}

// Nop discards everything
type Nop struct{}

func (Nop) RecordRefresh(string) {}
func (Nop) RecordSubscriberFault() {}
func (Nop) RecordProfileFetch(int, time.Duration) {}
func (Nop) RecordInviteDelivered(string) {}
func (Nop) RecordInviteFailed(string) {}

// Handler returns the HTTP handler Prometheus scrapes
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
