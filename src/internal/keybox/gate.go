// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package keybox

import (
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"slices"
	"strings"

	"github.com/H0llyW00dzZ/keybox-checker/src/internal/helper/gc"
)

// DefaultMaxBytes is the largest document the front-ends accept.
const DefaultMaxBytes = 20 * 1024

var (
	// ErrUnsupportedMediaType indicates an upload that is not declared as XML.
	ErrUnsupportedMediaType = errors.New("keybox: unsupported media type")

	// ErrDocumentTooLarge indicates an upload above the size limit.
	ErrDocumentTooLarge = errors.New("keybox: document too large")
)

// Limits is the admission policy applied before a document reaches the parser.
type Limits struct {
	MaxBytes         int64    `json:"maxBytes" yaml:"maxBytes"`
	AllowedMIMETypes []string `json:"allowedMIMETypes" yaml:"allowedMIMETypes"`
}

// DefaultLimits returns the 20 KiB, XML only policy.
func DefaultLimits() Limits {
	return Limits{
		MaxBytes:         DefaultMaxBytes,
		AllowedMIMETypes: []string{"application/xml", "text/xml"},
	}
}

// Admit checks a declared content type and size against l.
// Parameters such as "; charset=utf-8" are ignored. A negative size means the
// size is not known yet and only the type is checked.
func Admit(contentType string, size int64, l Limits) error {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return fmt.Errorf("%w: %q", ErrUnsupportedMediaType, contentType)
	}

	if len(l.AllowedMIMETypes) > 0 && !slices.ContainsFunc(l.AllowedMIMETypes, func(t string) bool {
		return strings.EqualFold(t, mediaType)
	}) {
		return fmt.Errorf("%w: %s", ErrUnsupportedMediaType, mediaType)
	}

	if l.MaxBytes > 0 && size > l.MaxBytes {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrDocumentTooLarge, size, l.MaxBytes)
	}

	return nil
}

// Read admits contentType and reads at most l.MaxBytes from r.
// A body longer than the limit returns [ErrDocumentTooLarge] without reading
// the rest of it.
func Read(r io.Reader, contentType string, l Limits) ([]byte, error) {
	if err := Admit(contentType, -1, l); err != nil {
		return nil, err
	}

	data, err := gc.ReadLimited(r, l.MaxBytes)
	if errors.Is(err, gc.ErrTooLarge) {
		return nil, fmt.Errorf("%w: exceeds %d bytes", ErrDocumentTooLarge, l.MaxBytes)
	}
	if err != nil {
		return nil, err
	}
	return data, nil
}

// DetectContentType guesses the media type of a local file or an upload
// without one: first from the file name extension, then by sniffing data.
func DetectContentType(name string, data []byte) string {
	if ct := mime.TypeByExtension(filepath.Ext(name)); ct != "" {
		return ct
	}
	return http.DetectContentType(data)
}
