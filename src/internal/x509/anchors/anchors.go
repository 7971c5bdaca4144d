// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package anchors

import (
	"bytes"
	"crypto"
	"errors"
	"fmt"
	"io/fs"

	x509certs "github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/certs"
)

// Name identifies a trust anchor.
type Name string

const (
	Google  Name = "Google"
	AOSPEC  Name = "AOSP-EC"
	AOSPRSA Name = "AOSP-RSA"
	Knox    Name = "Samsung-Knox"
	// Unknown is returned by Match when no anchor fits.
	Unknown Name = "Unknown"
)

// Priority is the fixed order in which anchors are tried.
var Priority = []Name{Google, AOSPEC, AOSPRSA, Knox}

// Kind tells hardware-backed roots from software attestation roots.
type Kind string

const (
	Hardware Kind = "hardware"
	Software Kind = "software"
)

// KindOf returns the kind of a known anchor; Unknown and unrecognised names
// return the empty Kind.
func KindOf(n Name) Kind {
	switch n {
	case Google, Knox:
		return Hardware
	case AOSPEC, AOSPRSA:
		return Software
	default:
		return ""
	}
}

// Description returns a human readable label for n.
func Description(n Name) string {
	switch n {
	case Google:
		return "Google hardware attestation root"
	case AOSPEC:
		return "AOSP software attestation root (EC)"
	case AOSPRSA:
		return "AOSP software attestation root (RSA)"
	case Knox:
		return "Samsung Knox attestation root"
	default:
		return "unknown root"
	}
}

var (
	// ErrAnchorUnreadable indicates a configured anchor file that cannot be read.
	ErrAnchorUnreadable = errors.New("anchors: anchor file unreadable")

	// ErrAnchorInvalid indicates a configured anchor file without a usable public key.
	ErrAnchorInvalid = errors.New("anchors: anchor file invalid")

	// ErrNoAnchors indicates a store without a single configured anchor.
	ErrNoAnchors = errors.New("anchors: no trust anchors configured")
)

// Paths names the anchor files inside a resource filesystem. An empty path
// leaves that anchor unconfigured.
type Paths struct {
	Google  string `json:"google" yaml:"google"`
	AOSPEC  string `json:"aospEC" yaml:"aospEC"`
	AOSPRSA string `json:"aospRSA" yaml:"aospRSA"`
	Knox    string `json:"knox" yaml:"knox"`
}

// DefaultPaths returns the conventional file names under the resource directory.
func DefaultPaths() Paths {
	return Paths{
		Google:  "pem/google.pem",
		AOSPEC:  "pem/aosp_ec.pem",
		AOSPRSA: "pem/aosp_rsa.pem",
		Knox:    "pem/knox.pem",
	}
}

func (p Paths) get(n Name) string {
	switch n {
	case Google:
		return p.Google
	case AOSPEC:
		return p.AOSPEC
	case AOSPRSA:
		return p.AOSPRSA
	case Knox:
		return p.Knox
	default:
		return ""
	}
}

// Anchor is a named root public key in canonical SubjectPublicKeyInfo form.
type Anchor struct {
	Name Name   `json:"name"`
	Kind Kind   `json:"kind"`
	SPKI []byte `json:"-"`
	// Source is the file the anchor was loaded from, if any.
	Source string `json:"source,omitempty"`
}

// Store is the read-only set of configured trust anchors, kept in priority order.
//
// A Store is never modified after construction and is safe for concurrent use.
type Store struct {
	anchors []Anchor
}

// Load reads every configured anchor from fsys.
//
// Each file may contain a PUBLIC KEY block, a CERTIFICATE block (its subject
// key is used) or anything else [x509certs.Certificate.DecodePublicKey]
// accepts. Any configured file that is missing or unparsable fails the whole
// load; the caller is expected to refuse to start.
func Load(fsys fs.FS, paths Paths) (*Store, error) {
	decoder := x509certs.New()
	s := &Store{}

	for _, name := range Priority {
		path := paths.get(name)
		if path == "" {
			continue
		}

		data, err := fs.ReadFile(fsys, path)
		if err != nil {
			return nil, fmt.Errorf("%w: %s (%s): %w", ErrAnchorUnreadable, name, path, err)
		}

		pub, err := decoder.DecodePublicKey(data)
		if err != nil {
			return nil, fmt.Errorf("%w: %s (%s): %w", ErrAnchorInvalid, name, path, err)
		}

		spki, err := x509certs.MarshalPublicKey(pub)
		if err != nil {
			return nil, fmt.Errorf("%w: %s (%s): %w", ErrAnchorInvalid, name, path, err)
		}

		s.anchors = append(s.anchors, Anchor{Name: name, Kind: KindOf(name), SPKI: spki, Source: path})
	}

	if len(s.anchors) == 0 {
		return nil, ErrNoAnchors
	}
	return s, nil
}

// FromKeys builds a Store from in-memory keys. Names outside [Priority] are rejected.
func FromKeys(keys map[Name]crypto.PublicKey) (*Store, error) {
	s := &Store{}
	for name := range keys {
		if KindOf(name) == "" {
			return nil, fmt.Errorf("%w: unknown anchor name %q", ErrAnchorInvalid, name)
		}
	}

	for _, name := range Priority {
		pub, ok := keys[name]
		if !ok {
			continue
		}
		spki, err := x509certs.MarshalPublicKey(pub)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrAnchorInvalid, name, err)
		}
		s.anchors = append(s.anchors, Anchor{Name: name, Kind: KindOf(name), SPKI: spki})
	}

	if len(s.anchors) == 0 {
		return nil, ErrNoAnchors
	}
	return s, nil
}

// Match returns the first anchor, in priority order, whose key is byte-for-byte
// equal to pub. It returns Unknown and false when nothing matches or pub
// cannot be encoded.
func (s *Store) Match(pub crypto.PublicKey) (Name, bool) {
	spki, err := x509certs.MarshalPublicKey(pub)
	if err != nil {
		return Unknown, false
	}

	for _, a := range s.anchors {
		if bytes.Equal(a.SPKI, spki) {
			return a.Name, true
		}
	}
	return Unknown, false
}

// Anchors returns a copy of the configured anchors in priority order.
func (s *Store) Anchors() []Anchor {
	out := make([]Anchor, len(s.anchors))
	copy(out, s.anchors)
	return out
}

// Len returns the number of configured anchors.
func (s *Store) Len() int { return len(s.anchors) }
