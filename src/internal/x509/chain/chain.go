// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/x509"
	"errors"
	"fmt"
	"strings"
	"sync"

	x509certs "github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/certs"
)

// NoFailure is the FailureIndex of a chain whose every link verified.
const NoFailure = -1

var (
	// ErrUnparsableCertificate indicates a certificate that could not be decoded at all.
	// It is an input error, not a validation result.
	ErrUnparsableCertificate = errors.New("x509chain: unparsable certificate")

	// ErrEmptyChain indicates that no certificates were supplied.
	ErrEmptyChain = errors.New("x509chain: empty chain")
)

// ParseError reports which certificate of a chain failed to parse.
type ParseError struct {
	Index int
	Err   error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("x509chain: certificate %d: %v", e.Index, e.Err)
}

// Unwrap allows errors.Is to match both ErrUnparsableCertificate and the cause.
func (e *ParseError) Unwrap() []error { return []error{ErrUnparsableCertificate, e.Err} }

// Cause tags why a chain link failed.
type Cause int

const (
	// CauseNone means the chain is valid.
	CauseNone Cause = iota
	// CauseNameMismatch means certificate[i].issuer != certificate[i+1].subject.
	CauseNameMismatch
	// CauseUnsupportedAlgorithm means the signature algorithm is outside the closed set.
	CauseUnsupportedAlgorithm
	// CauseKeyMismatch means the parent key type does not fit the signature scheme.
	CauseKeyMismatch
	// CauseBadSignature means the signature did not verify.
	CauseBadSignature
)

var causeNames = [...]string{
	CauseNone:                 "none",
	CauseNameMismatch:         "issuer-subject-mismatch",
	CauseUnsupportedAlgorithm: "unsupported-signature-algorithm",
	CauseKeyMismatch:          "issuer-key-type-mismatch",
	CauseBadSignature:         "bad-signature",
}

func (c Cause) String() string {
	if c < 0 || int(c) >= len(causeNames) {
		return fmt.Sprintf("cause(%d)", int(c))
	}
	return causeNames[c]
}

// MarshalText renders the cause by name in JSON output.
func (c Cause) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

// Result is the outcome of a chain walk.
type Result struct {
	Valid        bool  `json:"valid"`
	FailureIndex int   `json:"failureIndex"`
	Cause        Cause `json:"cause"`
	// Detail is a human readable description of the failure, empty when valid.
	Detail string `json:"detail,omitempty"`
}

func valid() Result { return Result{Valid: true, FailureIndex: NoFailure, Cause: CauseNone} }

func failAt(i int, cause Cause, detail string) Result {
	return Result{FailureIndex: i, Cause: cause, Detail: detail}
}

// Chain holds an ordered certificate chain: index 0 is the leaf and the last
// entry is the root.
//
// A Chain is not modified by validation and may be shared between goroutines.
type Chain struct {
	mu    sync.RWMutex
	Certs []*x509.Certificate
	*x509certs.Certificate
}

// New creates a Chain over certs in leaf-first order.
func New(certs []*x509.Certificate) *Chain {
	return &Chain{
		Certs:       certs,
		Certificate: x509certs.New(),
	}
}

// Parse decodes every PEM string into a certificate.
//
// Parameters:
//   - pems: PEM encoded certificates, leaf first
//
// Returns:
//   - *Chain: the parsed chain
//   - error: [ErrEmptyChain], or a [*ParseError] naming the first certificate that failed
func Parse(pems []string) (*Chain, error) {
	if len(pems) == 0 {
		return nil, ErrEmptyChain
	}

	decoder := x509certs.New()
	certs := make([]*x509.Certificate, len(pems))
	for i, p := range pems {
		cert, err := decoder.Decode([]byte(strings.TrimSpace(p)))
		if err != nil {
			return nil, &ParseError{Index: i, Err: err}
		}
		certs[i] = cert
	}

	return New(certs), nil
}

// Leaf returns the first certificate, or nil for an empty chain.
func (ch *Chain) Leaf() *x509.Certificate {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	if len(ch.Certs) == 0 {
		return nil
	}
	return ch.Certs[0]
}

// Root returns the last certificate, or nil for an empty chain.
func (ch *Chain) Root() *x509.Certificate {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	if len(ch.Certs) == 0 {
		return nil
	}
	return ch.Certs[len(ch.Certs)-1]
}

// PEM returns the chain as concatenated PEM blocks, leaf first.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) PEM() []byte {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return ch.EncodeChainPEM(ch.Certs)
}

// Len returns the number of certificates in the chain.
func (ch *Chain) Len() int {
	ch.mu.RLock()
	defer ch.mu.RUnlock()
	return len(ch.Certs)
}

// FilterIntermediates filters out the root and leaf certificates, returning only intermediates.
//
// Returns:
//   - []*x509.Certificate: Slice of intermediate certificates, or nil if none
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) FilterIntermediates() []*x509.Certificate {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	if len(ch.Certs) <= 2 {
		return nil
	}
	return ch.Certs[1 : len(ch.Certs)-1]
}

// Validate walks every link (i, i+1) of the chain.
//
// For each link the issuer of certificate i must equal the subject of
// certificate i+1 as an ordered RDN sequence, the signature algorithm of
// certificate i must belong to the supported set, and its signature over the
// TBS bytes must verify with the public key of certificate i+1. The walk stops
// at the first failing link. A chain of one certificate has no links and is
// valid.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) Validate() Result {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	for i := 0; i+1 < len(ch.Certs); i++ {
		if r := checkLink(i, ch.Certs[i], ch.Certs[i+1]); !r.Valid {
			return r
		}
	}
	return valid()
}

func checkLink(i int, child, parent *x509.Certificate) Result {
	if !namesEqual(child.RawIssuer, parent.RawSubject) {
		return failAt(i, CauseNameMismatch, fmt.Sprintf("issuer of certificate %d does not match subject of certificate %d", i, i+1))
	}

	scheme := SchemeOf(child.SignatureAlgorithm)
	if scheme == SchemeUnsupported {
		return failAt(i, CauseUnsupportedAlgorithm, fmt.Sprintf("signature algorithm %s is not supported", child.SignatureAlgorithm))
	}

	if err := scheme.Verify(parent.PublicKey, child.RawTBSCertificate, child.Signature); err != nil {
		cause := CauseBadSignature
		if errors.Is(err, ErrKeyTypeMismatch) {
			cause = CauseKeyMismatch
		}
		return failAt(i, cause, err.Error())
	}

	return Result{Valid: true}
}
