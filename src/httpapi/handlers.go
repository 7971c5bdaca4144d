// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package httpapi

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strings"

	"github.com/H0llyW00dzZ/keybox-checker/src/internal/keybox"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/validator"
)

// multipartOverhead is the allowance for boundaries and part headers on top
// of the document limit.
const multipartOverhead = 8 << 10

// HelpText answers GET /api/v1/help.
const HelpText = `Keybox Checker

Send an Android attestation keybox XML document to check it.

  POST /api/v1/keybox            raw body, Content-Type application/xml or text/xml
  POST /api/v1/keybox            multipart/form-data with a "file" part

Query parameters:
  format=json|text|table         response format (default: json)

Documents larger than %d bytes are rejected.

The report covers the certificate chain, the root of trust, the private key
and Google's attestation revocation list.
`

// KeyboxResponse is the JSON body of a successful validation.
type KeyboxResponse struct {
	Passed    bool              `json:"passed"`
	RequestID string            `json:"requestId"`
	Report    *validator.Report `json:"report"`
}

// HealthResponse is the body of /health and /health/ready.
type HealthResponse struct {
	Status          string `json:"status"`
	Version         string `json:"version,omitempty"`
	Anchors         int    `json:"anchors,omitempty"`
	SnapshotEntries int    `json:"snapshotEntries,omitempty"`
}

// HealthHandler reports that the process is up.
func (s *Server) HealthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, HealthResponse{Status: "ok", Version: s.cfg.Version}, http.StatusOK)
}

// ReadinessHandler reports whether trust anchors and the revocation snapshot are loaded.
func (s *Server) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	anchors := s.engine.Anchors().Len()
	if anchors == 0 || s.engine.Snapshot() == nil {
		writeJSON(w, HealthResponse{Status: "not ready"}, http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, HealthResponse{
		Status:          "ready",
		Version:         s.cfg.Version,
		Anchors:         anchors,
		SnapshotEntries: s.engine.Snapshot().Len(),
	}, http.StatusOK)
}

// HelpHandler returns usage instructions as plain text.
func (s *Server) HelpHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	fmt.Fprintf(w, HelpText, s.cfg.Limits.MaxBytes)
}

// ValidateHandler validates an uploaded keybox document.
func (s *Server) ValidateHandler(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	switch format {
	case "", "json", "text", "table":
	default:
		writeErrorWithMessage(w, ErrInvalidRequest, "format must be json, text or table", http.StatusBadRequest)
		return
	}

	data, err := s.readDocument(w, r)
	if err != nil {
		s.fail(w, err)
		return
	}

	report, err := s.engine.ValidateDocument(r.Context(), data, s.cfg.Keybox)
	if err != nil {
		s.fail(w, err)
		return
	}

	switch format {
	case "text":
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		io.WriteString(w, report.Text())
	case "table":
		w.Header().Set("Content-Type", "text/markdown; charset=utf-8")
		io.WriteString(w, report.Table())
	default:
		writeJSON(w, KeyboxResponse{
			Passed:    report.Passed(),
			RequestID: CorrelationID(r.Context()),
			Report:    report,
		}, http.StatusOK)
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status, reason := mapError(err)
	if reason != "" {
		s.cfg.Metrics.RecordRejection(reason)
	}
	if status >= http.StatusInternalServerError {
		s.log.Errorf("keybox validation failed: %v", err)
	}
	writeErrorWithMessage(w, errors.New(http.StatusText(status)), err.Error(), status)
}

// readDocument returns the uploaded document from a raw body or from the
// "file" part of a multipart form, applying the admission limits.
func (s *Server) readDocument(w http.ResponseWriter, r *http.Request) ([]byte, error) {
	contentType := r.Header.Get("Content-Type")
	mediaType, _, _ := mime.ParseMediaType(contentType)

	if !strings.EqualFold(mediaType, "multipart/form-data") {
		if r.ContentLength > s.cfg.Limits.MaxBytes {
			return nil, fmt.Errorf("%w: %d bytes exceeds %d", keybox.ErrDocumentTooLarge, r.ContentLength, s.cfg.Limits.MaxBytes)
		}
		return keybox.Read(r.Body, contentType, s.cfg.Limits)
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.Limits.MaxBytes+multipartOverhead)
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, ErrMissingFile
		}
		if err != nil {
			var maxErr *http.MaxBytesError
			if errors.As(err, &maxErr) {
				return nil, fmt.Errorf("%w: exceeds %d bytes", keybox.ErrDocumentTooLarge, s.cfg.Limits.MaxBytes)
			}
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		if part.FormName() != "file" {
			part.Close()
			continue
		}

		ct := part.Header.Get("Content-Type")
		if ct == "" || ct == "application/octet-stream" {
			ct = keybox.DetectContentType(part.FileName(), nil)
		}
		defer part.Close()
		return keybox.Read(part, ct, s.cfg.Limits)
	}
}
