// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package keybox

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// Unknown is used for the device ID and algorithm when the document omits them.
const Unknown = "Unknown"

// ErrMalformedDocument indicates a keybox document that cannot be used at all.
var ErrMalformedDocument = errors.New("keybox: malformed document")

// Bundle holds the raw materials extracted from a keybox document.
// Nothing in it has been parsed as a certificate or key yet.
type Bundle struct {
	DeviceID         string   `json:"deviceId"`
	Algorithm        string   `json:"algorithm"`
	CertificateCount int      `json:"certificateCount"`
	CertificatesPEM  []string `json:"-"`
	PrivateKeyPEM    string   `json:"-"`
	// PrivateKeyPresent is true when the document has a PrivateKey element,
	// even an empty one.
	PrivateKeyPresent bool `json:"privateKeyPresent"`
}

// HasPrivateKey reports whether a PrivateKey element was found.
func (b *Bundle) HasPrivateKey() bool { return b.PrivateKeyPresent }

// Options tunes Parse.
type Options struct {
	// RequirePrivateKey turns a missing PrivateKey element into ErrMalformedDocument.
	RequirePrivateKey bool
}

func malformed(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedDocument, fmt.Sprintf(format, args...))
}

// Parse extracts a Bundle from a keybox XML document.
//
// NumberOfCertificates must be present, a positive integer, and at least that
// many Certificate elements with format="pem" must exist anywhere in the
// document; the first n of them are used, leaf first. DeviceID is read from
// the first Keybox element below the root and the algorithm from the first
// Key element, both defaulting to [Unknown].
//
// Parameters:
//   - data: raw document bytes
//   - opts: parsing options
//
// Returns:
//   - *Bundle: extracted materials
//   - error: an error wrapping [ErrMalformedDocument]
func Parse(data []byte, opts Options) (*Bundle, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, malformed("invalid XML: %v", err)
	}

	root := doc.Root()
	if root == nil {
		return nil, malformed("no root element")
	}

	b := &Bundle{
		DeviceID:  Unknown,
		Algorithm: Unknown,
	}

	// Identity comes from the first Keybox and its own first Key.
	if kb := root.SelectElement("Keybox"); kb != nil {
		b.DeviceID = nonEmpty(kb.SelectAttrValue("DeviceID", Unknown))
		if key := kb.SelectElement("Key"); key != nil {
			b.Algorithm = nonEmpty(key.SelectAttrValue("algorithm", Unknown))
		}
	}

	countEl := doc.FindElement(".//NumberOfCertificates")
	if countEl == nil {
		return nil, malformed("NumberOfCertificates is missing")
	}
	count, err := strconv.Atoi(strings.TrimSpace(countEl.Text()))
	if err != nil {
		return nil, malformed("NumberOfCertificates %q is not an integer", strings.TrimSpace(countEl.Text()))
	}
	if count < 1 {
		return nil, malformed("NumberOfCertificates must be at least 1, got %d", count)
	}

	certEls := doc.FindElements(".//Certificate[@format='pem']")
	if len(certEls) < count {
		return nil, malformed("declared %d certificates but found %d", count, len(certEls))
	}

	b.CertificateCount = count
	b.CertificatesPEM = make([]string, count)
	for i := range count {
		b.CertificatesPEM[i] = strings.TrimSpace(certEls[i].Text())
	}

	if pk := doc.FindElement(".//PrivateKey"); pk != nil {
		b.PrivateKeyPresent = true
		b.PrivateKeyPEM = strings.TrimSpace(pk.Text())
	} else if opts.RequirePrivateKey {
		return nil, malformed("PrivateKey is missing")
	}

	return b, nil
}

func nonEmpty(s string) string {
	if s = strings.TrimSpace(s); s == "" {
		return Unknown
	}
	return s
}
