// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package httpapi_test

import (
	"bytes"
	"context"
	"crypto"
	"encoding/json"
	"io"
	"mime/multipart"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/H0llyW00dzZ/keybox-checker/src/httpapi"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/keybox"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/metrics"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/validator"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/anchors"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/revocation"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/x509test"
	"github.com/H0llyW00dzZ/keybox-checker/src/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	handler http.Handler
	metrics *metrics.Metrics
	doc     []byte
	logs    *bytes.Buffer
}

func newFixture(t *testing.T, mutate func(*httpapi.Config)) *fixture {
	t.Helper()

	nodes := x509test.Build(t, x509test.ECDSA, x509test.ECDSA)
	store, err := anchors.FromKeys(map[anchors.Name]crypto.PublicKey{anchors.Google: nodes[1].Cert.PublicKey})
	require.NoError(t, err)

	engine, err := validator.New(validator.Config{
		Anchors:  store,
		Snapshot: &revocation.List{Entries: map[string]revocation.Entry{}, Source: "json/status.json"},
	})
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	var logs bytes.Buffer

	cfg := httpapi.Config{
		Version:  "test",
		Metrics:  m,
		Gatherer: reg,
		Logger:   logger.NewStructuredLogger(&logs, false),
	}
	if mutate != nil {
		mutate(&cfg)
	}

	srv, err := httpapi.NewServer(engine, cfg)
	require.NoError(t, err)

	return &fixture{handler: srv.Handler(), metrics: m, doc: x509test.ValidKeybox(t, nodes), logs: &logs}
}

func (f *fixture) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()

	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func multipartBody(t *testing.T, field, filename, contentType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(map[string][]string)
	header["Content-Disposition"] = []string{`form-data; name="` + field + `"; filename="` + filename + `"`}
	if contentType != "" {
		header["Content-Type"] = []string{contentType}
	}
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	return &body, mw.FormDataContentType()
}

func TestNewServer(t *testing.T) {
	_, err := httpapi.NewServer(nil, httpapi.Config{})
	assert.Error(t, err)
}

func TestValidateHandler(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name        string
		request     func(t *testing.T) *http.Request
		status      int
		contentType string
		check       func(t *testing.T, body []byte)
	}{
		{
			name: "Raw XML",
			request: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/v1/keybox", bytes.NewReader(f.doc))
				req.Header.Set("Content-Type", "application/xml")
				return req
			},
			status:      http.StatusOK,
			contentType: "application/json",
			check: func(t *testing.T, body []byte) {
				var resp httpapi.KeyboxResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.True(t, resp.Passed)
				assert.NotEmpty(t, resp.RequestID)
				require.NotNil(t, resp.Report)
				assert.True(t, resp.Report.ChainValid)
				assert.Equal(t, anchors.Google, resp.Report.Root)
			},
		},
		{
			name: "Multipart",
			request: func(t *testing.T) *http.Request {
				body, ct := multipartBody(t, "file", "keybox.xml", "text/xml", f.doc)
				req := httptest.NewRequest(http.MethodPost, "/api/v1/keybox?format=text", body)
				req.Header.Set("Content-Type", ct)
				return req
			},
			status:      http.StatusOK,
			contentType: "text/plain",
			check: func(t *testing.T, body []byte) {
				assert.Contains(t, string(body), "Valid keychain")
				assert.Contains(t, string(body), "Check Time (UTC)")
			},
		},
		{
			name: "Multipart without part type",
			request: func(t *testing.T) *http.Request {
				body, ct := multipartBody(t, "file", "keybox.xml", "", f.doc)
				req := httptest.NewRequest(http.MethodPost, "/api/v1/keybox?format=table", body)
				req.Header.Set("Content-Type", ct)
				return req
			},
			status:      http.StatusOK,
			contentType: "text/markdown",
		},
		{
			name: "Multipart missing file",
			request: func(t *testing.T) *http.Request {
				body, ct := multipartBody(t, "other", "keybox.xml", "text/xml", f.doc)
				req := httptest.NewRequest(http.MethodPost, "/api/v1/keybox", body)
				req.Header.Set("Content-Type", ct)
				return req
			},
			status: http.StatusBadRequest,
		},
		{
			name: "Wrong media type",
			request: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/v1/keybox", bytes.NewReader(f.doc))
				req.Header.Set("Content-Type", "application/json")
				return req
			},
			status: http.StatusUnsupportedMediaType,
		},
		{
			name: "Too large",
			request: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/v1/keybox", strings.NewReader(strings.Repeat("x", keybox.DefaultMaxBytes+1)))
				req.Header.Set("Content-Type", "text/xml")
				return req
			},
			status: http.StatusRequestEntityTooLarge,
		},
		{
			name: "Too large without length",
			request: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/v1/keybox", io.NopCloser(strings.NewReader(strings.Repeat("x", keybox.DefaultMaxBytes+1))))
				req.ContentLength = -1
				req.Header.Set("Content-Type", "text/xml")
				return req
			},
			status: http.StatusRequestEntityTooLarge,
		},
		{
			name: "Malformed",
			request: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/v1/keybox", strings.NewReader("<AndroidAttestation/>"))
				req.Header.Set("Content-Type", "text/xml")
				return req
			},
			status: http.StatusUnprocessableEntity,
			check: func(t *testing.T, body []byte) {
				var resp httpapi.ErrorResponse
				require.NoError(t, json.Unmarshal(body, &resp))
				assert.Contains(t, resp.Message, "NumberOfCertificates")
			},
		},
		{
			name: "Bad format",
			request: func(t *testing.T) *http.Request {
				req := httptest.NewRequest(http.MethodPost, "/api/v1/keybox?format=yaml", bytes.NewReader(f.doc))
				req.Header.Set("Content-Type", "text/xml")
				return req
			},
			status: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, tt.request(t))

			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
			assert.NotEmpty(t, rec.Header().Get(httpapi.CorrelationIDHeader))
			if tt.contentType != "" {
				assert.True(t, strings.HasPrefix(rec.Header().Get("Content-Type"), tt.contentType))
			}
			if tt.check != nil {
				tt.check(t, rec.Body.Bytes())
			}
		})
	}

	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Rejections.WithLabelValues(metrics.ReasonMediaType)), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(f.metrics.Rejections.WithLabelValues(metrics.ReasonTooLarge)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(f.metrics.Rejections.WithLabelValues(metrics.ReasonMalformed)), 0)
}

func TestCorrelationID(t *testing.T) {
	f := newFixture(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(httpapi.RequestIDHeader, "req-123")
	rec := f.do(t, req)

	assert.Equal(t, "req-123", rec.Header().Get(httpapi.CorrelationIDHeader))
	assert.Contains(t, f.logs.String(), `"requestId":"req-123"`)
	assert.Contains(t, f.logs.String(), `"pkg":"httpapi"`)
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, func(c *httpapi.Config) {
		c.RequestsPerSecond = 0.001
		c.Burst = 1
	})

	post := func() int {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/keybox", bytes.NewReader(f.doc))
		req.Header.Set("Content-Type", "text/xml")
		return f.do(t, req).Code
	}

	assert.Equal(t, http.StatusOK, post())
	assert.Equal(t, http.StatusTooManyRequests, post())

	// Other routes are not throttled.
	rec := f.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthAndHelp(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name     string
		path     string
		status   int
		contains string
	}{
		{name: "Health", path: "/health", status: http.StatusOK, contains: `"status":"ok"`},
		{name: "Ready", path: "/health/ready", status: http.StatusOK, contains: `"anchors":1`},
		{name: "Help", path: "/api/v1/help", status: http.StatusOK, contains: "20480 bytes"},
		{name: "Metrics", path: "/metrics", status: http.StatusOK, contains: "keybox_checker_http_requests_total"},
		{name: "Not found", path: "/nope", status: http.StatusNotFound},
	}

	// Prime the HTTP counters so /metrics has something to show.
	f.do(t, httptest.NewRequest(http.MethodGet, "/health", nil))

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(t, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.status, rec.Code)
			if tt.contains != "" {
				assert.Contains(t, rec.Body.String(), tt.contains)
			}
		})
	}
}

func TestServe(t *testing.T) {
	nodes := x509test.Build(t, x509test.ECDSA, x509test.ECDSA)
	store, err := anchors.FromKeys(map[anchors.Name]crypto.PublicKey{anchors.Google: nodes[1].Cert.PublicKey})
	require.NoError(t, err)
	engine, err := validator.New(validator.Config{Anchors: store, Snapshot: &revocation.List{Entries: map[string]revocation.Entry{}}})
	require.NoError(t, err)

	srv, err := httpapi.NewServer(engine, httpapi.Config{})
	require.NoError(t, err)

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
