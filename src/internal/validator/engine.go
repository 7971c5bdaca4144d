// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package validator

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/H0llyW00dzZ/keybox-checker/src/internal/keybox"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/metrics"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/anchors"
	x509chain "github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/chain"
	x509certs "github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/revocation"
	"github.com/H0llyW00dzZ/keybox-checker/src/logger"
)

// DefaultRevocationTimeout bounds the live revocation fetch.
const DefaultRevocationTimeout = 10 * time.Second

// OversizedChainLength is the certificate count from which a warning is raised.
const OversizedChainLength = 4

var (
	// ErrNoTrustStore indicates an engine configured without anchors.
	ErrNoTrustStore = errors.New("validator: trust store is required")

	// ErrNoSnapshot indicates an engine configured without a local revocation snapshot.
	ErrNoSnapshot = errors.New("validator: revocation snapshot is required")

	// ErrNilBundle indicates Validate was called without a bundle.
	ErrNilBundle = errors.New("validator: nil bundle")
)

// Config wires the engine to its read-only collaborators.
type Config struct {
	Anchors *anchors.Store
	// Source is the live revocation list. Nil means offline: the snapshot is
	// always used.
	Source   revocation.Source
	Snapshot *revocation.List

	// RevocationTimeout bounds Source.Fetch; zero means DefaultRevocationTimeout.
	RevocationTimeout time.Duration
	// MaxSnapshotAge flags a used snapshot older than this; zero disables the check.
	MaxSnapshotAge time.Duration

	// Now is the clock used for validity checks and CheckedAt; nil means time.Now.
	Now func() time.Time

	Metrics *metrics.Metrics
	Logger  logger.Logger
}

// Engine validates keybox bundles. It holds no per-request state and is safe
// for concurrent use.
type Engine struct {
	cfg Config
}

// New returns an Engine for cfg.
//
// Returns:
//   - *Engine: ready to use engine
//   - error: [ErrNoTrustStore] or [ErrNoSnapshot] when a required collaborator is missing
func New(cfg Config) (*Engine, error) {
	if cfg.Anchors == nil || cfg.Anchors.Len() == 0 {
		return nil, ErrNoTrustStore
	}
	if cfg.Snapshot == nil {
		return nil, ErrNoSnapshot
	}
	if cfg.RevocationTimeout <= 0 {
		cfg.RevocationTimeout = DefaultRevocationTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		l := logger.NewCLILogger()
		l.SetOutput(io.Discard)
		cfg.Logger = l
	}
	return &Engine{cfg: cfg}, nil
}

// Anchors returns the trust store the engine matches roots against.
func (e *Engine) Anchors() *anchors.Store { return e.cfg.Anchors }

// Snapshot returns the local revocation snapshot.
func (e *Engine) Snapshot() *revocation.List { return e.cfg.Snapshot }

// RevocationList returns the live list, or the snapshot when the live source
// is unavailable, fails or times out.
//
// The fetch runs under its own timeout. Cancellation of ctx itself is not a
// source failure and is returned as ctx.Err().
func (e *Engine) RevocationList(ctx context.Context) (*revocation.List, error) {
	if e.cfg.Source == nil {
		e.cfg.Metrics.RecordRevocationSource(true)
		return e.snapshot(), nil
	}

	fetchCtx, cancel := context.WithTimeout(ctx, e.cfg.RevocationTimeout)
	defer cancel()

	list, err := e.cfg.Source.Fetch(fetchCtx)
	if err == nil {
		e.cfg.Metrics.RecordRevocationSource(false)
		return list, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}

	e.cfg.Logger.Printf("revocation source unavailable, using local snapshot: %v", err)
	e.cfg.Metrics.RecordRevocationSource(true)
	return e.snapshot(), nil
}

func (e *Engine) snapshot() *revocation.List {
	l := *e.cfg.Snapshot
	l.Fallback = true
	return &l
}

// ValidateDocument parses data as a keybox document and validates it.
func (e *Engine) ValidateDocument(ctx context.Context, data []byte, opts keybox.Options) (*Report, error) {
	bundle, err := keybox.Parse(data, opts)
	if err != nil {
		e.cfg.Metrics.RecordValidation(metrics.OutcomeError, 0)
		return nil, err
	}
	return e.Validate(ctx, bundle)
}

// Validate runs every check on bundle and assembles a report.
//
// Only structural problems abort: an unparsable certificate returns an error
// wrapping [x509chain.ErrUnparsableCertificate], and cancellation of ctx during
// the revocation fetch returns ctx.Err(). Everything else, including a broken
// chain, becomes a finding.
//
// Thread Safety: Safe for concurrent use.
func (e *Engine) Validate(ctx context.Context, bundle *keybox.Bundle) (*Report, error) {
	if bundle == nil {
		return nil, ErrNilBundle
	}

	start := time.Now()
	now := e.cfg.Now()

	ch, err := x509chain.Parse(bundle.CertificatesPEM)
	if err != nil {
		e.cfg.Metrics.RecordValidation(metrics.OutcomeError, time.Since(start))
		return nil, err
	}

	list, err := e.RevocationList(ctx)
	if err != nil {
		e.cfg.Metrics.RecordValidation(metrics.OutcomeError, time.Since(start))
		return nil, err
	}

	leaf, root := ch.Leaf(), ch.Root()

	r := &Report{
		CheckedAt:        now.UTC(),
		DeviceID:         bundle.DeviceID,
		Algorithm:        bundle.Algorithm,
		CertificateCount: ch.Len(),
		LeafSerial:       x509certs.SerialHex(leaf),
		LeafSubject:      x509chain.FormatName(leaf.RawSubject),
		NotBefore:        leaf.NotBefore.UTC(),
		NotAfter:         leaf.NotAfter.UTC(),
		Validity:         ClassifyValidity(leaf.NotBefore, leaf.NotAfter, now),
		RevocationSource: list.Source,

		UsedFallbackRevocationSource: list.Fallback,
	}

	r.addKeyboxInfo()
	r.addIdentity()
	r.addValidity()

	r.KeyMatch = CheckPrivateKey(bundle.PrivateKeyPEM, leaf.PublicKey)
	if bundle.HasPrivateKey() && r.KeyMatch == KeyNotProvided {
		r.KeyMatch = KeyInvalid
	}
	r.addKeyMatch()

	r.Chain = ch.Validate()
	r.ChainValid = r.Chain.Valid
	r.addChain()

	name, ok := e.cfg.Anchors.Match(root.PublicKey)
	r.Root = name
	r.RootRecognized = ok
	r.RootKind = anchors.KindOf(name)
	r.addRoot()

	if r.CertificateCount >= OversizedChainLength {
		r.add(KindChainLength, SeverityWarning, fmt.Sprintf("More than %d certificates in the keychain", OversizedChainLength-1),
			map[string]string{
				"count":         strconv.Itoa(r.CertificateCount),
				"intermediates": strconv.Itoa(len(ch.FilterIntermediates())),
			})
	}

	r.addRevocationSource(list)
	if list.Fallback && e.cfg.MaxSnapshotAge > 0 {
		if age := list.Age(now); age > e.cfg.MaxSnapshotAge {
			r.add(KindStaleSnapshot, SeverityWarning, "Local revoked keybox list is out of date", map[string]string{
				"age":    age.Truncate(time.Second).String(),
				"maxAge": e.cfg.MaxSnapshotAge.String(),
			})
		}
	}

	if hit, found := revocation.LookupChain(list, ch.Certs); found {
		r.Revocation = hit
		r.Revoked = true
	}
	r.addRevocation()

	r.Certificates = ch.Describe(revocation.Statuses(list, ch.Certs))

	e.cfg.Metrics.RecordValidation(r.outcome(), time.Since(start))
	return r, nil
}

func (r *Report) outcome() string {
	switch {
	case r.Revoked:
		return metrics.OutcomeRevoked
	case r.Passed():
		return metrics.OutcomePassed
	default:
		return metrics.OutcomeFailed
	}
}

func (r *Report) add(kind Kind, sev Severity, msg string, details map[string]string) {
	r.Findings = append(r.Findings, Finding{Kind: kind, Severity: sev, Message: msg, Details: details})
}

func (r *Report) addKeyboxInfo() {
	r.add(KindKeyboxInfo, SeverityInfo, "Device ID: "+r.DeviceID, nil)
	r.add(KindKeyboxInfo, SeverityInfo, "Algorithm: "+r.Algorithm, nil)
}

func (r *Report) addIdentity() {
	r.add(KindIdentity, SeverityInfo, "Serial number: "+r.LeafSerial, map[string]string{"serial": r.LeafSerial})
	r.add(KindIdentity, SeverityInfo, "Subject: "+r.LeafSubject, map[string]string{"subject": r.LeafSubject})
}

func (r *Report) addValidity() {
	details := map[string]string{
		"notBefore": r.NotBefore.Format(time.RFC3339),
		"notAfter":  r.NotAfter.Format(time.RFC3339),
	}
	switch r.Validity {
	case Valid:
		r.add(KindValidity, SeverityPass, "Certificate within validity period", details)
	case Expired:
		r.add(KindValidity, SeverityFail, "Expired certificate", details)
	default:
		r.add(KindValidity, SeverityFail, "Certificate not yet valid", details)
	}
}

func (r *Report) addKeyMatch() {
	switch r.KeyMatch {
	case KeyMatched:
		r.add(KindPrivateKey, SeverityPass, "Matching private key and certificate public key", nil)
	case KeyMismatched:
		r.add(KindPrivateKey, SeverityFail, "Mismatched private key and certificate public key", nil)
	case KeyInvalid:
		r.add(KindPrivateKey, SeverityFail, "Invalid private key", nil)
	default:
		r.add(KindPrivateKey, SeverityInfo, "No private key in keybox", nil)
	}
}

func (r *Report) addChain() {
	if r.Chain.Valid {
		r.add(KindChain, SeverityPass, "Valid keychain", nil)
		return
	}
	r.add(KindChain, SeverityFail, "Invalid keychain", map[string]string{
		"failureIndex": strconv.Itoa(r.Chain.FailureIndex),
		"cause":        r.Chain.Cause.String(),
		"detail":       r.Chain.Detail,
	})
}

func (r *Report) addRoot() {
	details := map[string]string{"anchor": string(r.Root)}
	switch r.Root {
	case anchors.Google:
		r.add(KindRootAnchor, SeverityPass, "Google hardware attestation root certificate", details)
	case anchors.AOSPEC:
		r.add(KindRootAnchor, SeverityWarning, "AOSP software attestation root certificate (EC)", details)
	case anchors.AOSPRSA:
		r.add(KindRootAnchor, SeverityWarning, "AOSP software attestation root certificate (RSA)", details)
	case anchors.Knox:
		r.add(KindRootAnchor, SeverityPass, "Samsung Knox attestation root certificate", details)
	default:
		r.add(KindRootAnchor, SeverityFail, "Unknown root certificate", details)
	}
}

func (r *Report) addRevocationSource(list *revocation.List) {
	details := map[string]string{"source": list.Source}
	if !list.FetchedAt.IsZero() {
		details["fetchedAt"] = list.FetchedAt.UTC().Format(time.RFC3339)
	}
	if list.Fallback {
		r.add(KindRevocationSource, SeverityWarning, "Using local revoked keybox list", details)
		return
	}
	r.add(KindRevocationSource, SeverityInfo, "Using Google's live revoked keybox list", details)
}

func (r *Report) addRevocation() {
	if r.Revocation == nil {
		r.add(KindRevocation, SeverityPass, "Serial number not found in Google's revoked keybox list", nil)
		return
	}

	hit := r.Revocation
	msg := "Serial number found in Google's revoked keybox list"
	if hit.Entry.Reason != "" {
		msg += " (reason: " + hit.Entry.Reason + ")"
	}
	r.add(KindRevocation, SeverityFail, msg, map[string]string{
		"index":  strconv.Itoa(hit.Index),
		"serial": hit.Serial,
		"status": hit.Entry.Status,
		"reason": hit.Entry.Reason,
	})
}
