// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto/ecdsa"
	"crypto/rsa"
	"crypto/x509"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/H0llyW00dzZ/keybox-checker/src/internal/helper/gc"
	x509certs "github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/certs"
	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"
)

// StatusGood is the status shown for certificates absent from the revocation list.
const StatusGood = "good"

// CertificateInfo summarises one certificate of a chain for reports and tools.
type CertificateInfo struct {
	Index              int       `json:"index"`
	Role               string    `json:"role"`
	Subject            string    `json:"subject"`
	Issuer             string    `json:"issuer"`
	SerialNumber       string    `json:"serialNumber"`
	SignatureAlgorithm string    `json:"signatureAlgorithm"`
	SignatureScheme    string    `json:"signatureScheme"`
	PublicKeyAlgorithm string    `json:"publicKeyAlgorithm"`
	KeySize            int       `json:"keySize"`
	NotBefore          time.Time `json:"notBefore"`
	NotAfter           time.Time `json:"notAfter"`
	IsCA               bool      `json:"isCA"`
	RevocationStatus   string    `json:"revocationStatus,omitempty"`
}

// Describe returns a CertificateInfo for every certificate in the chain.
//
// Parameters:
//   - revocationStatus: Optional map of lowercase hex serial numbers to revocation status
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) Describe(revocationStatus map[string]string) []CertificateInfo {
	ch.mu.RLock()
	defer ch.mu.RUnlock()

	out := make([]CertificateInfo, len(ch.Certs))
	for i, cert := range ch.Certs {
		algo, size := keyInfo(cert)
		serial := x509certs.SerialHex(cert)

		out[i] = CertificateInfo{
			Index:              i,
			Role:               role(i, len(ch.Certs)),
			Subject:            FormatName(cert.RawSubject),
			Issuer:             FormatName(cert.RawIssuer),
			SerialNumber:       serial,
			SignatureAlgorithm: cert.SignatureAlgorithm.String(),
			SignatureScheme:    SchemeOf(cert.SignatureAlgorithm).String(),
			PublicKeyAlgorithm: algo,
			KeySize:            size,
			NotBefore:          cert.NotBefore.UTC(),
			NotAfter:           cert.NotAfter.UTC(),
			IsCA:               cert.IsCA,
			RevocationStatus:   lookupStatus(revocationStatus, serial),
		}
	}
	return out
}

// RenderASCIITree renders the certificate chain as an ASCII tree diagram.
//
// Certificates present in revocationStatus with a status other than "good"
// are marked with a cross.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) RenderASCIITree(revocationStatus map[string]string) string {
	infos := ch.Describe(revocationStatus)
	if len(infos) == 0 {
		return "No certificates in chain"
	}

	var result strings.Builder
	for i, info := range infos {
		connector := "├── "
		if i == len(infos)-1 {
			connector = "└── "
		}

		statusIcon := "✓"
		if info.RevocationStatus != "" && !strings.EqualFold(info.RevocationStatus, StatusGood) {
			statusIcon = "✗"
		}

		fmt.Fprintf(&result, "%s%s[%s] %s (%s) serial=%s\n",
			strings.Repeat("    ", i), connector, statusIcon, commonName(info.Subject), info.Role, info.SerialNumber)
	}

	return result.String()
}

// RenderTable renders the certificate chain as a formatted markdown table.
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) RenderTable(revocationStatus map[string]string) string {
	infos := ch.Describe(revocationStatus)
	if len(infos) == 0 {
		return "No certificates to display"
	}

	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()

	table := tablewriter.NewTable(buf,
		tablewriter.WithRenderer(renderer.NewMarkdown(tw.Rendition{Streaming: true})),
	)
	table.Header([]string{"#", "Role", "Subject", "Serial", "Scheme", "Valid Until", "Key", "Status"})

	rows := make([][]string, 0, len(infos))
	for _, info := range infos {
		status := info.RevocationStatus
		if status == "" {
			status = "unknown"
		}
		rows = append(rows, []string{
			strconv.Itoa(info.Index),
			info.Role,
			commonName(info.Subject),
			info.SerialNumber,
			info.SignatureScheme,
			info.NotAfter.Format("2006-01-02"),
			fmt.Sprintf("%d-bit %s", info.KeySize, info.PublicKeyAlgorithm),
			status,
		})
	}

	table.Bulk(rows)
	table.Render()
	return buf.String()
}

// ToVisualizationJSON converts the certificate chain to structured JSON for external tools.
//
// Returns:
//   - []byte: JSON with the certificates and their signed_by relationships
//   - error: Error if JSON marshaling fails
//
// Thread Safety: Safe for concurrent use.
func (ch *Chain) ToVisualizationJSON(revocationStatus map[string]string) ([]byte, error) {
	type RelationshipData struct {
		FromIndex int    `json:"fromIndex"`
		ToIndex   int    `json:"toIndex"`
		Type      string `json:"type"`
	}

	type VisualizationData struct {
		ChainLength   int                `json:"chainLength"`
		Certificates  []CertificateInfo  `json:"certificates"`
		Relationships []RelationshipData `json:"relationships"`
		Validation    Result             `json:"validation"`
	}

	infos := ch.Describe(revocationStatus)
	data := VisualizationData{
		ChainLength:   len(infos),
		Certificates:  infos,
		Relationships: []RelationshipData{},
		Validation:    ch.Validate(),
	}

	for i := 0; i+1 < len(infos); i++ {
		data.Relationships = append(data.Relationships, RelationshipData{
			FromIndex: i,
			ToIndex:   i + 1,
			Type:      "signed_by",
		})
	}

	return json.MarshalIndent(data, "", "  ")
}

func role(index, total int) string {
	switch {
	case total == 1:
		return "Self-Signed"
	case index == 0:
		return "Leaf"
	case index == total-1:
		return "Root"
	default:
		return "Intermediate"
	}
}

func keyInfo(cert *x509.Certificate) (string, int) {
	switch pub := cert.PublicKey.(type) {
	case *rsa.PublicKey:
		return "RSA", pub.Size() * 8
	case *ecdsa.PublicKey:
		return "ECDSA", pub.Curve.Params().BitSize
	default:
		return cert.PublicKeyAlgorithm.String(), 0
	}
}

func lookupStatus(statuses map[string]string, serial string) string {
	if statuses == nil {
		return ""
	}
	if s, ok := statuses[serial]; ok {
		return s
	}
	return StatusGood
}

// commonName picks the CN out of a FormatName string, falling back to the whole name.
func commonName(name string) string {
	for part := range strings.SplitSeq(name, ", ") {
		if cn, ok := strings.CutPrefix(part, "CN="); ok {
			return cn
		}
	}
	return name
}
