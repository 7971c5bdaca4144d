// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package metrics provides Prometheus instrumentation for keybox validation,
// the revocation fetch and the HTTP API.
//
// Collectors are registered on a caller supplied registry so that tests and
// multiple servers in one process never share counters. A nil *Metrics is
// valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	// Namespace is the Prometheus namespace for all metrics.
	Namespace = "keybox_checker"

	LabelOutcome    = "outcome"
	LabelSource     = "source"
	LabelReason     = "reason"
	LabelMethod     = "method"
	LabelStatusCode = "status_code"

	// Validation outcomes
	OutcomePassed  = "passed"
	OutcomeFailed  = "failed"
	OutcomeRevoked = "revoked"
	OutcomeError   = "error"

	// Revocation sources
	SourceRemote   = "remote"
	SourceSnapshot = "snapshot"

	// Rejection reasons
	ReasonMediaType   = "media-type"
	ReasonTooLarge    = "too-large"
	ReasonMalformed   = "malformed"
	ReasonUnparsable  = "unparsable-certificate"
	ReasonRateLimited = "rate-limited"
)

// Metrics groups every collector used by the service.
type Metrics struct {
	Validations        *prometheus.CounterVec
	ValidationDuration prometheus.Histogram
	RevocationFetches  *prometheus.CounterVec
	Rejections         *prometheus.CounterVec
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
}

// New creates the collectors and registers them on reg.
//
// Usage:
//
//	reg := prometheus.NewRegistry()
//	m := metrics.New(reg)
//	router.Use(m.HTTPMiddleware)
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)

	return &Metrics{
		Validations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "validations_total",
			Help:      "Keybox validations by outcome",
		}, []string{LabelOutcome}),
		ValidationDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "validation_duration_seconds",
			Help:      "Duration of a keybox validation including the revocation fetch",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}),
		RevocationFetches: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "revocation_lists_total",
			Help:      "Revocation lists used, by source",
		}, []string{LabelSource}),
		Rejections: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "rejections_total",
			Help:      "Documents rejected before validation, by reason",
		}, []string{LabelReason}),
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method and status code",
		}, []string{LabelMethod, LabelStatusCode}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{LabelMethod}),
	}
}

// RecordValidation counts one validation and its duration.
func (m *Metrics) RecordValidation(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Validations.WithLabelValues(outcome).Inc()
	m.ValidationDuration.Observe(d.Seconds())
}

// RecordRevocationSource counts which source a revocation list came from.
func (m *Metrics) RecordRevocationSource(fallback bool) {
	if m == nil {
		return
	}
	source := SourceRemote
	if fallback {
		source = SourceSnapshot
	}
	m.RevocationFetches.WithLabelValues(source).Inc()
}

// RecordRejection counts a document refused by the admission gate or parser.
func (m *Metrics) RecordRejection(reason string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(reason).Inc()
}

// RecordHTTPRequest counts one HTTP request.
func (m *Metrics) RecordHTTPRequest(method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
	m.HTTPDuration.WithLabelValues(method).Observe(d.Seconds())
}

// HTTPMiddleware records request counts and durations.
//
// Usage:
//
//	router := chi.NewRouter()
//	router.Use(m.HTTPMiddleware)
func (m *Metrics) HTTPMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m == nil {
			next.ServeHTTP(w, r)
			return
		}

		start := time.Now()
		wrapper := &ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}
		next.ServeHTTP(wrapper, r)
		m.RecordHTTPRequest(r.Method, wrapper.StatusCode, time.Since(start))
	})
}

// ResponseWriter wraps http.ResponseWriter and captures the status code.
type ResponseWriter struct {
	http.ResponseWriter
	StatusCode int
	written    bool
}

// WriteHeader captures the status code and delegates to the underlying ResponseWriter.
func (rw *ResponseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.StatusCode = statusCode
		rw.written = true
	}
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Write ensures WriteHeader is called if not already done.
func (rw *ResponseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}
