// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package revocation

import (
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	x509certs "github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/certs"
)

// ErrDecode indicates a revocation document that is not the expected JSON shape.
var ErrDecode = errors.New("revocation: cannot decode status list")

// Entry is one revoked or suspended serial number.
type Entry struct {
	Status  string `json:"status,omitempty"`
	Reason  string `json:"reason,omitempty"`
	Expires string `json:"expires,omitempty"`
	Comment string `json:"comment,omitempty"`
}

// List is a decoded attestation status list together with its provenance.
type List struct {
	Entries map[string]Entry `json:"entries"`
	// Fallback is true when the list came from the local snapshot.
	Fallback bool `json:"fallback"`
	// Source is the URL or path the list was read from.
	Source string `json:"source"`
	// FetchedAt is the fetch time for remote lists and the file modification
	// time for snapshots.
	FetchedAt time.Time `json:"fetchedAt"`
}

// NormalizeSerial lowercases s and strips an optional 0x prefix and leading
// zeros so that it can be used as a List key.
func NormalizeSerial(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.TrimPrefix(s, "0x")
	s = strings.ReplaceAll(s, ":", "")
	if t := strings.TrimLeft(s, "0"); t != "" {
		return t
	}
	if s != "" {
		return "0"
	}
	return s
}

// Decode parses the JSON body of the status endpoint or a snapshot file.
//
// The document is first checked against the status list schema; any
// violation returns [ErrDecode]. A list without a single entry returns
// [ErrEmptyList]. Keys are normalised with [NormalizeSerial].
func Decode(data []byte) (*List, error) {
	if err := checkSchema(data); err != nil {
		return nil, err
	}

	var raw struct {
		Entries map[string]Entry `json:"entries"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDecode, err)
	}
	if len(raw.Entries) == 0 {
		return nil, ErrEmptyList
	}

	l := &List{Entries: make(map[string]Entry, len(raw.Entries))}
	for k, v := range raw.Entries {
		l.Entries[NormalizeSerial(k)] = v
	}
	return l, nil
}

// MarshalSnapshot encodes l in the shape [LoadSnapshot] reads back.
func (l *List) MarshalSnapshot() ([]byte, error) {
	data, err := json.MarshalIndent(struct {
		Entries map[string]Entry `json:"entries"`
	}{Entries: l.Entries}, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// Lookup returns the entry for serialHex, if any.
func (l *List) Lookup(serialHex string) (Entry, bool) {
	if l == nil {
		return Entry{}, false
	}
	e, ok := l.Entries[NormalizeSerial(serialHex)]
	return e, ok
}

// Len returns the number of entries.
func (l *List) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Entries)
}

// Age returns how old the list was at now.
func (l *List) Age(now time.Time) time.Duration {
	if l == nil || l.FetchedAt.IsZero() {
		return 0
	}
	return now.Sub(l.FetchedAt)
}

// Hit records the first chain certificate found on a list.
type Hit struct {
	Index  int    `json:"index"`
	Serial string `json:"serial"`
	Entry  Entry  `json:"entry"`
}

// LookupChain checks every certificate of certs, leaf first, and returns the
// first one present on l. A revoked root revokes the whole chain just as a
// revoked leaf does.
func LookupChain(l *List, certs []*x509.Certificate) (*Hit, bool) {
	for i, cert := range certs {
		serial := x509certs.SerialHex(cert)
		if e, ok := l.Lookup(serial); ok {
			return &Hit{Index: i, Serial: serial, Entry: e}, true
		}
	}
	return nil, false
}

// Statuses maps every listed serial of certs to its status, for renderers.
func Statuses(l *List, certs []*x509.Certificate) map[string]string {
	out := make(map[string]string)
	for _, cert := range certs {
		serial := x509certs.SerialHex(cert)
		if e, ok := l.Lookup(serial); ok {
			status := e.Status
			if status == "" {
				status = "REVOKED"
			}
			out[serial] = status
		}
	}
	return out
}
