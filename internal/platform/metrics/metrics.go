// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package metrics collects Prometheus counters for the session, profile and
administrator flows and exposes them on /metrics.

Components depend on the [Recorder] interface; tests and the operator CLI use
[Nop] so nothing is registered globally.
*/
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is the metrics surface used by the domain packages.
type Recorder interface {
	RecordHTTPRequest(method, route string, statusCode int, duration time.Duration)
	RecordVerificationRejected()
	RecordProfileResolved(source string)
	RecordProfileRemoteSaveFailed()
	RecordAdminOperation(operation, result string)
	RecordConfirmation(outcome string)
	SetActiveWorkspaces(count int)
}

// Collector is the Prometheus implementation of [Recorder].
type Collector struct {
	httpRequests          *prometheus.CounterVec
	httpLatency           *prometheus.HistogramVec
	verificationRejected  prometheus.Counter
	profileResolved       *prometheus.CounterVec
	profileRemoteSaveFail prometheus.Counter
	adminOperations       *prometheus.CounterVec
	confirmations         *prometheus.CounterVec
	activeWorkspaces      prometheus.Gauge
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_http_requests_total",
			Help: "HTTP requests by method, route and status code.",
		}, []string{"method", "route", "status_code"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "gatekeeper_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		verificationRejected: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_verification_rejections_total",
			Help: "Sessions rejected because the email address was not verified.",
		}),
		profileResolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_profile_resolutions_total",
			Help: "Profile reads by the source that answered (remote, cache, default).",
		}, []string{"source"}),
		profileRemoteSaveFail: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gatekeeper_profile_remote_save_failures_total",
			Help: "Profile saves that only reached the local cache.",
		}),
		adminOperations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_admin_operations_total",
			Help: "Administrator directory operations by operation and result.",
		}, []string{"operation", "result"}),
		confirmations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gatekeeper_confirmations_total",
			Help: "Confirmation prompts by outcome (confirmed, cancelled, superseded).",
		}, []string{"outcome"}),
		activeWorkspaces: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "gatekeeper_active_workspaces",
			Help: "Browser workspaces currently held in memory.",
		}),
	}

	reg.MustRegister(
		c.httpRequests,
		c.httpLatency,
		c.verificationRejected,
		c.profileResolved,
		c.profileRemoteSaveFail,
		c.adminOperations,
		c.confirmations,
		c.activeWorkspaces,
	)

	return c
}

// RecordHTTPRequest counts a finished request and observes its latency.
func (c *Collector) RecordHTTPRequest(method, route string, statusCode int, duration time.Duration) {
	c.httpRequests.WithLabelValues(method, route, strconv.Itoa(statusCode)).Inc()
	c.httpLatency.WithLabelValues(method, route).Observe(duration.Seconds())
}

// RecordVerificationRejected counts a session rejected by the verification gate.
func (c *Collector) RecordVerificationRejected() {
	c.verificationRejected.Inc()
}

// RecordProfileResolved counts which strategy answered a profile read.
func (c *Collector) RecordProfileResolved(source string) {
	c.profileResolved.WithLabelValues(source).Inc()
}

// RecordProfileRemoteSaveFailed counts a degraded profile save.
func (c *Collector) RecordProfileRemoteSaveFailed() {
	c.profileRemoteSaveFail.Inc()
}

// RecordAdminOperation counts a directory operation.
func (c *Collector) RecordAdminOperation(operation, result string) {
	c.adminOperations.WithLabelValues(operation, result).Inc()
}

// RecordConfirmation counts how a confirmation prompt ended.
func (c *Collector) RecordConfirmation(outcome string) {
	c.confirmations.WithLabelValues(outcome).Inc()
}

// SetActiveWorkspaces publishes the workspace registry size.
func (c *Collector) SetActiveWorkspaces(count int) {
	c.activeWorkspaces.Set(float64(count))
}

// Handler returns the HTTP handler Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Nop discards every measurement.
type Nop struct{}

func (Nop) RecordHTTPRequest(string, string, int, time.Duration) {}
func (Nop) RecordVerificationRejected()                          {}
func (Nop) RecordProfileResolved(string)                         {}
func (Nop) RecordProfileRemoteSaveFailed()                       {}
func (Nop) RecordAdminOperation(string, string)                  {}
func (Nop) RecordConfirmation(string)                            {}
func (Nop) SetActiveWorkspaces(int)                              {}

// OrNop returns recorder, or [Nop] when recorder is nil.
func OrNop(recorder Recorder) Recorder {
	if recorder == nil {
		return Nop{}
	}
	return recorder
}
