// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package metrics_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/H0llyW00dzZ/keybox-checker/src/internal/metrics"
)

func TestMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	m.RecordValidation(metrics.OutcomePassed, 10*time.Millisecond)
	m.RecordValidation(metrics.OutcomePassed, 20*time.Millisecond)
	m.RecordValidation(metrics.OutcomeRevoked, time.Millisecond)
	m.RecordRevocationSource(false)
	m.RecordRevocationSource(true)
	m.RecordRevocationSource(true)
	m.RecordRejection("too_large")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.Validations.WithLabelValues(metrics.OutcomePassed)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Validations.WithLabelValues(metrics.OutcomeRevoked)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RevocationFetches.WithLabelValues(metrics.SourceRemote)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.RevocationFetches.WithLabelValues(metrics.SourceSnapshot)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Rejections.WithLabelValues("too_large")))

	count, err := testutil.GatherAndCount(reg, "keybox_checker_validation_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestMetrics_SeparateRegistries(t *testing.T) {
	a := metrics.New(prometheus.NewRegistry())
	b := metrics.New(prometheus.NewRegistry())

	a.RecordRejection("bad_mime")
	assert.Equal(t, 0.0, testutil.ToFloat64(b.Rejections.WithLabelValues("bad_mime")))
}

func TestMetrics_Nil(t *testing.T) {
	var m *metrics.Metrics

	m.RecordValidation(metrics.OutcomeError, time.Second)
	m.RecordRevocationSource(true)
	m.RecordRejection("x")
	m.RecordHTTPRequest(http.MethodGet, 200, time.Second)

	rec := httptest.NewRecorder()
	m.HTTPMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, rec.Code)
}

func TestHTTPMiddleware(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())

	tests := []struct {
		name    string
		handler http.HandlerFunc
		want    string
	}{
		{
			name:    "Implicit 200",
			handler: func(w http.ResponseWriter, r *http.Request) { w.Write([]byte("ok")) },
			want:    "200",
		},
		{
			name:    "Explicit 415",
			handler: func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusUnsupportedMediaType) },
			want:    "415",
		},
		{
			name: "First status wins",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusRequestEntityTooLarge)
				w.WriteHeader(http.StatusOK)
			},
			want: "413",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			m.HTTPMiddleware(tt.handler).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/keybox", nil))

			assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequests.WithLabelValues(http.MethodPost, tt.want)))
		})
	}
}
