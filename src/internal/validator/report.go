// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package validator

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/H0llyW00dzZ/keybox-checker/src/internal/helper/gc"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/anchors"
	x509chain "github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/revocation"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// Validity classifies the leaf validity window against the check time.
type Validity string

const (
	Valid       Validity = "valid"
	Expired     Validity = "expired"
	NotYetValid Validity = "not-yet-valid"
)

// ClassifyValidity returns Valid when notBefore <= now <= notAfter, Expired
// when now is after notAfter and NotYetValid otherwise.
func ClassifyValidity(notBefore, notAfter, now time.Time) Validity {
	switch {
	case !now.Before(notBefore) && !now.After(notAfter):
		return Valid
	case now.After(notAfter):
		return Expired
	default:
		return NotYetValid
	}
}

// Kind names a finding.
type Kind string

const (
	KindKeyboxInfo       Kind = "keybox-info"
	KindIdentity         Kind = "identity"
	KindValidity         Kind = "validity"
	KindPrivateKey       Kind = "private-key"
	KindChain            Kind = "chain"
	KindRootAnchor       Kind = "root-anchor"
	KindChainLength      Kind = "chain-length"
	KindRevocationSource Kind = "revocation-source"
	KindRevocation       Kind = "revocation"
	KindStaleSnapshot    Kind = "stale-revocation-snapshot"
)

// Severity grades a finding.
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeverityPass    Severity = "pass"
	SeverityWarning Severity = "warning"
	SeverityFail    Severity = "fail"
)

// Icon returns the marker used in text output.
func (s Severity) Icon() string {
	switch s {
	case SeverityPass:
		return "✅"
	case SeverityWarning:
		return "🟡"
	case SeverityFail:
		return "❌"
	default:
		return "ℹ️"
	}
}

// Finding is one line of the diagnostic.
type Finding struct {
	Kind     Kind              `json:"kind"`
	Severity Severity          `json:"severity"`
	Message  string            `json:"message"`
	Details  map[string]string `json:"details,omitempty"`
}

// Report is the full result of validating one keybox. It is not modified
// after Validate returns.
type Report struct {
	CheckedAt        time.Time `json:"checkedAt"`
	DeviceID         string    `json:"deviceId"`
	Algorithm        string    `json:"algorithm"`
	CertificateCount int       `json:"certificateCount"`

	LeafSerial  string    `json:"leafSerial"`
	LeafSubject string    `json:"leafSubject"`
	NotBefore   time.Time `json:"notBefore"`
	NotAfter    time.Time `json:"notAfter"`
	Validity    Validity  `json:"validity"`

	KeyMatch KeyMatch         `json:"keyMatch"`
	Chain    x509chain.Result `json:"chain"`
	Root     anchors.Name     `json:"root"`
	RootKind anchors.Kind     `json:"rootKind,omitempty"`

	Revocation       *revocation.Hit `json:"revocation,omitempty"`
	RevocationSource string          `json:"revocationSource"`

	ChainValid                   bool `json:"chainValid"`
	RootRecognized               bool `json:"rootRecognized"`
	Revoked                      bool `json:"revoked"`
	UsedFallbackRevocationSource bool `json:"usedFallbackRevocationSource"`

	Certificates []x509chain.CertificateInfo `json:"certificates"`
	Findings     []Finding                   `json:"findings"`
}

// Passed reports whether the keybox is trustworthy: a valid chain to a known
// root, a leaf inside its validity window, nothing revoked and no bad private
// key. A missing private key does not fail the report.
func (r *Report) Passed() bool {
	return r.ChainValid &&
		r.RootRecognized &&
		!r.Revoked &&
		r.Validity == Valid &&
		r.KeyMatch != KeyInvalid &&
		r.KeyMatch != KeyMismatched
}

// Finding returns the first finding of kind k.
func (r *Report) Finding(k Kind) (Finding, bool) {
	for _, f := range r.Findings {
		if f.Kind == k {
			return f, true
		}
	}
	return Finding{}, false
}

// Text renders the report as chat-style lines, one finding per line.
func (r *Report) Text() string {
	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	for i, f := range r.Findings {
		if i > 0 && r.Findings[i-1].Kind == KindKeyboxInfo && f.Kind != KindKeyboxInfo {
			buf.WriteString("----------------------------------------\n")
		}
		fmt.Fprintf(buf, "%s %s\n", f.Severity.Icon(), f.Message)
	}
	fmt.Fprintf(buf, "⏱ Check Time (UTC): %s\n", r.CheckedAt.UTC().Format(time.DateTime))

	return buf.String()
}

// Table renders the findings as a markdown table.
func (r *Report) Table() string {
	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	table := tablewriter.NewTable(buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)
	table.Header([]string{"Check", "Result", "Details"})

	rows := make([][]string, 0, len(r.Findings)+1)
	for _, f := range r.Findings {
		rows = append(rows, []string{string(f.Kind), string(f.Severity), f.Message})
	}
	rows = append(rows, []string{"checked-at", string(SeverityInfo), r.CheckedAt.UTC().Format(time.RFC3339)})

	table.Bulk(rows)
	table.Render()
	return buf.String()
}

// JSON renders the report as indented JSON.
func (r *Report) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
