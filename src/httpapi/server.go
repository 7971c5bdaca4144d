// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/H0llyW00dzZ/keybox-checker/src/internal/keybox"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/metrics"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/validator"
	"github.com/H0llyW00dzZ/keybox-checker/src/logger"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/time/rate"
)

// shutdownTimeout bounds graceful shutdown once the serving context ends.
const shutdownTimeout = 10 * time.Second

// Config holds the HTTP API configuration.
type Config struct {
	// Addr is the listen address (default: ":8080")
	Addr string

	// Version is reported by /health
	Version string

	// Limits is the upload admission policy (default: keybox.DefaultLimits)
	Limits keybox.Limits

	// Keybox tunes document parsing
	Keybox keybox.Options

	// RequestsPerSecond and Burst throttle keybox uploads; zero disables throttling
	RequestsPerSecond float64
	Burst             int

	// ReadTimeout is the maximum duration for reading the entire request
	ReadTimeout time.Duration

	// WriteTimeout is the maximum duration before timing out writes
	WriteTimeout time.Duration

	// Logger receives one line per request (optional, discards if not provided)
	Logger *logger.StructuredLogger

	// Metrics and Gatherer back /metrics (optional)
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer
}

// Server is the keybox validation HTTP API.
type Server struct {
	server  *http.Server
	engine  *validator.Engine
	cfg     Config
	limiter *rate.Limiter
	log     *logger.StructuredLogger
}

// NewServer creates the HTTP API around engine.
func NewServer(engine *validator.Engine, cfg Config) (*Server, error) {
	if engine == nil {
		return nil, errors.New("httpapi: engine is required")
	}

	if cfg.Addr == "" {
		cfg.Addr = ":8080"
	}
	if cfg.Limits.MaxBytes <= 0 {
		cfg.Limits = keybox.DefaultLimits()
	}
	if cfg.ReadTimeout == 0 {
		cfg.ReadTimeout = 15 * time.Second
	}
	if cfg.WriteTimeout == 0 {
		cfg.WriteTimeout = 30 * time.Second
	}

	log := cfg.Logger
	if log == nil {
		log = logger.NewStructuredLogger(nil, true)
	}

	s := &Server{
		engine: engine,
		cfg:    cfg,
		log:    log.WithField("pkg", "httpapi"),
	}
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst <= 0 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           s.setupRouter(),
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       60 * time.Second,
	}

	return s, nil
}

// Handler returns the router, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.server.Handler }

// setupRouter configures the chi router with all routes and middleware.
func (s *Server) setupRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(s.RecoveryMiddleware())
	r.Use(CorrelationMiddleware)
	r.Use(s.LoggingMiddleware())
	r.Use(s.cfg.Metrics.HTTPMiddleware)

	r.Get("/health", s.HealthHandler)
	r.Head("/health", s.HealthHandler)
	r.Get("/health/ready", s.ReadinessHandler)

	if s.cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/help", s.HelpHandler)

		r.With(s.RateLimitMiddleware()).Post("/keybox", s.ValidateHandler)
	})

	return r
}

// Run serves until ctx is done and then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.cfg.Addr, err)
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.server.BaseContext = func(net.Listener) context.Context { return ctx }

	errCh := make(chan error, 1)
	go func() {
		s.log.WithField("addr", ln.Addr().String()).Println("Starting HTTP server")
		errCh <- s.server.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("failed to serve HTTP: %w", err)
	case <-ctx.Done():
	}

	s.log.Println("Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shutdown server: %w", err)
	}
	return nil
}
