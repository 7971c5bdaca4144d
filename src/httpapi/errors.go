// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/H0llyW00dzZ/keybox-checker/src/internal/keybox"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/metrics"
	x509chain "github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/chain"
)

// Common errors
var (
	ErrInvalidRequest = errors.New("invalid request")
	ErrMissingFile    = errors.New("missing file part")
	ErrRateLimited    = errors.New("too many requests")
	ErrInternalError  = errors.New("internal server error")
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message,omitempty"`
	Code      int    `json:"code"`
	RequestID string `json:"requestId,omitempty"`
}

func writeError(w http.ResponseWriter, err error, statusCode int) {
	writeErrorWithMessage(w, err, "", statusCode)
}

func writeErrorWithMessage(w http.ResponseWriter, err error, message string, statusCode int) {
	writeJSON(w, ErrorResponse{
		Error:     err.Error(),
		Message:   message,
		Code:      statusCode,
		RequestID: w.Header().Get(CorrelationIDHeader),
	}, statusCode)
}

// mapError maps an intake or validation error to a status code and a
// rejection reason for metrics; reason is empty for server-side failures.
func mapError(err error) (status int, reason string) {
	switch {
	case errors.Is(err, keybox.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, metrics.ReasonMediaType
	case errors.Is(err, keybox.ErrDocumentTooLarge):
		return http.StatusRequestEntityTooLarge, metrics.ReasonTooLarge
	case errors.Is(err, keybox.ErrMalformedDocument):
		return http.StatusUnprocessableEntity, metrics.ReasonMalformed
	case errors.Is(err, x509chain.ErrUnparsableCertificate):
		return http.StatusUnprocessableEntity, metrics.ReasonUnparsable
	case errors.Is(err, ErrInvalidRequest), errors.Is(err, ErrMissingFile):
		return http.StatusBadRequest, ""
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ""
	case errors.Is(err, context.Canceled):
		return http.StatusServiceUnavailable, ""
	default:
		return http.StatusInternalServerError, ""
	}
}

func writeJSON(w http.ResponseWriter, data any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	_ = json.NewEncoder(w).Encode(data)
}
