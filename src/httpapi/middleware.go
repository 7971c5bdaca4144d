// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/H0llyW00dzZ/keybox-checker/src/internal/metrics"
	"github.com/google/uuid"
)

const (
	// CorrelationIDHeader is echoed on every response.
	CorrelationIDHeader = "X-Correlation-ID"
	// RequestIDHeader is accepted as an alternative incoming ID.
	RequestIDHeader = "X-Request-ID"
)

type correlationKey struct{}

// CorrelationID returns the request ID stored by [CorrelationMiddleware].
func CorrelationID(ctx context.Context) string {
	id, _ := ctx.Value(correlationKey{}).(string)
	return id
}

// CorrelationMiddleware extracts or generates a correlation ID for request tracing.
// It checks for correlation IDs in the following order:
//  1. X-Correlation-ID header
//  2. X-Request-ID header
//  3. Generates a new UUID if neither is present
func CorrelationMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(CorrelationIDHeader)
		if id == "" {
			id = r.Header.Get(RequestIDHeader)
		}
		if id == "" {
			id = uuid.NewString()
		}

		w.Header().Set(CorrelationIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), correlationKey{}, id)))
	})
}

// LoggingMiddleware logs one structured line per request.
func (s *Server) LoggingMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := &metrics.ResponseWriter{ResponseWriter: w, StatusCode: http.StatusOK}

			next.ServeHTTP(wrapped, r)

			s.log.WithFields(map[string]any{
				"method":    r.Method,
				"path":      r.URL.Path,
				"status":    wrapped.StatusCode,
				"duration":  time.Since(start).String(),
				"requestId": CorrelationID(r.Context()),
			}).Println("Request completed")
		})
	}
}

// RecoveryMiddleware recovers from panics and returns a 500 error.
func (s *Server) RecoveryMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					s.log.Errorf("Panic recovered on %s %s: %v", r.Method, r.URL.Path, err)
					writeErrorWithMessage(w, ErrInternalError, "An unexpected error occurred", http.StatusInternalServerError)
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// RateLimitMiddleware throttles keybox uploads across all clients.
func (s *Server) RateLimitMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if s.limiter != nil && !s.limiter.Allow() {
				s.cfg.Metrics.RecordRejection(metrics.ReasonRateLimited)
				w.Header().Set("Retry-After", "1")
				writeError(w, ErrRateLimited, http.StatusTooManyRequests)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
