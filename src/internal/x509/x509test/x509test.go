// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509test builds throwaway attestation-style certificate chains and
// keybox documents for tests. Nothing in here is meant for production use.
package x509test

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/pem"
	"fmt"
	"math/big"
	"strings"
	"testing"
	"time"

	x509certs "github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/certs"
)

// KeyType selects the key algorithm of a generated certificate.
type KeyType int

const (
	// ECDSA generates a P-256 key.
	ECDSA KeyType = iota
	// RSA generates a 2048-bit key.
	RSA
)

// Node is a generated certificate together with its private key.
type Node struct {
	Cert *x509.Certificate
	Key  crypto.Signer
}

// PEM returns the certificate as a PEM block.
func (n Node) PEM() string {
	return string(x509certs.New().EncodePEM(n.Cert))
}

// Option customises a certificate template before signing.
type Option func(*x509.Certificate)

// WithValidity sets the validity window.
func WithValidity(notBefore, notAfter time.Time) Option {
	return func(c *x509.Certificate) {
		c.NotBefore = notBefore
		c.NotAfter = notAfter
	}
}

// WithSerial sets the serial number.
func WithSerial(serial *big.Int) Option {
	return func(c *x509.Certificate) { c.SerialNumber = serial }
}

// WithSignatureAlgorithm forces the signature algorithm used by the issuer.
func WithSignatureAlgorithm(alg x509.SignatureAlgorithm) Option {
	return func(c *x509.Certificate) { c.SignatureAlgorithm = alg }
}

// NewKey generates a fresh private key.
func NewKey(t testing.TB, kt KeyType) crypto.Signer {
	t.Helper()

	var (
		key crypto.Signer
		err error
	)
	switch kt {
	case RSA:
		key, err = rsa.GenerateKey(rand.Reader, 2048)
	default:
		key, err = ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	}
	if err != nil {
		t.Fatalf("generate key: %v", err)
	}
	return key
}

func template(t testing.TB, cn string, ca bool, opts []Option) *x509.Certificate {
	t.Helper()

	serial, err := rand.Int(rand.Reader, new(big.Int).Lsh(big.NewInt(1), 63))
	if err != nil {
		t.Fatalf("serial: %v", err)
	}

	now := time.Now()
	tmpl := &x509.Certificate{
		SerialNumber: serial,
		Subject: pkix.Name{
			CommonName:   cn,
			Organization: []string{"Keybox Test"},
			SerialNumber: fmt.Sprintf("%x", serial),
		},
		NotBefore:             now.Add(-time.Hour),
		NotAfter:              now.Add(365 * 24 * time.Hour),
		KeyUsage:              x509.KeyUsageDigitalSignature,
		BasicConstraintsValid: true,
	}
	if ca {
		tmpl.IsCA = true
		tmpl.KeyUsage |= x509.KeyUsageCertSign
	}
	for _, opt := range opts {
		opt(tmpl)
	}
	return tmpl
}

func sign(t testing.TB, tmpl, parent *x509.Certificate, pub crypto.PublicKey, signer crypto.Signer) *x509.Certificate {
	t.Helper()

	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, pub, signer)
	if err != nil {
		t.Fatalf("create certificate %q: %v", tmpl.Subject.CommonName, err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatalf("parse certificate %q: %v", tmpl.Subject.CommonName, err)
	}
	return cert
}

// SelfSigned creates a root certificate for key.
func SelfSigned(t testing.TB, key crypto.Signer, cn string, opts ...Option) Node {
	t.Helper()

	tmpl := template(t, cn, true, opts)
	return Node{Cert: sign(t, tmpl, tmpl, key.Public(), key), Key: key}
}

// Issue creates a certificate for key signed by parent.
func Issue(t testing.TB, parent Node, key crypto.Signer, cn string, ca bool, opts ...Option) Node {
	t.Helper()

	tmpl := template(t, cn, ca, opts)
	return Node{Cert: sign(t, tmpl, parent.Cert, key.Public(), parent.Key), Key: key}
}

// IssueAs creates a certificate signed by signer while claiming issuer as its
// issuer name. It is used to build chains whose names do not line up.
func IssueAs(t testing.TB, issuer pkix.Name, signer crypto.Signer, key crypto.Signer, cn string, opts ...Option) Node {
	t.Helper()

	parent := &x509.Certificate{Subject: issuer, PublicKey: signer.Public()}
	tmpl := template(t, cn, false, opts)
	return Node{Cert: sign(t, tmpl, parent, key.Public(), signer), Key: key}
}

// Build returns a leaf-first chain whose key types follow types; the last
// entry is a self-signed root. Build panics through t when types is empty.
func Build(t testing.TB, types ...KeyType) []Node {
	t.Helper()

	if len(types) == 0 {
		t.Fatalf("x509test.Build: no key types")
	}

	n := len(types)
	nodes := make([]Node, n)
	nodes[n-1] = SelfSigned(t, NewKey(t, types[n-1]), "Test Attestation Root")
	for i := n - 2; i >= 0; i-- {
		cn := fmt.Sprintf("Test Intermediate %d", i)
		if i == 0 {
			cn = "Android Keystore Key"
		}
		nodes[i] = Issue(t, nodes[i+1], NewKey(t, types[i]), cn, i != 0)
	}
	return nodes
}

// PEMs returns the certificates of nodes as PEM strings, in order.
func PEMs(nodes []Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.PEM()
	}
	return out
}

// KeyPEM encodes key the way keyboxes usually carry it: SEC 1 for EC keys,
// PKCS#1 for RSA keys.
func KeyPEM(t testing.TB, key crypto.Signer) string {
	t.Helper()

	switch k := key.(type) {
	case *ecdsa.PrivateKey:
		der, err := x509.MarshalECPrivateKey(k)
		if err != nil {
			t.Fatalf("marshal EC key: %v", err)
		}
		return string(pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: der}))
	case *rsa.PrivateKey:
		return string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(k)}))
	default:
		t.Fatalf("unsupported key %T", key)
		return ""
	}
}

// PKCS8KeyPEM encodes key as PKCS#8, encrypted when password is non-empty.
func PKCS8KeyPEM(t testing.TB, key crypto.Signer, password string) string {
	t.Helper()

	data, err := x509certs.New().EncodePrivateKeyPEM(key, []byte(password))
	if err != nil {
		t.Fatalf("encode PKCS#8 key: %v", err)
	}
	return string(data)
}

// Keybox describes a document built by [KeyboxXML].
type Keybox struct {
	DeviceID   string
	Algorithm  string
	Declared   int // NumberOfCertificates; 0 means len(Certs)
	Certs      []string
	PrivateKey string
	NoKey      bool // omit the PrivateKey element entirely
}

// KeyboxXML renders kb in the layout used by Android attestation keyboxes.
func KeyboxXML(kb Keybox) []byte {
	declared := kb.Declared
	if declared == 0 {
		declared = len(kb.Certs)
	}

	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?>` + "\n")
	b.WriteString("<AndroidAttestation>\n<NumberOfKeyboxes>1</NumberOfKeyboxes>\n")
	if kb.DeviceID != "" {
		fmt.Fprintf(&b, "<Keybox DeviceID=%q>\n", kb.DeviceID)
	} else {
		b.WriteString("<Keybox>\n")
	}
	if kb.Algorithm != "" {
		fmt.Fprintf(&b, "<Key algorithm=%q>\n", kb.Algorithm)
	} else {
		b.WriteString("<Key>\n")
	}
	if !kb.NoKey {
		fmt.Fprintf(&b, "<PrivateKey format=\"pem\">\n%s</PrivateKey>\n", kb.PrivateKey)
	}
	fmt.Fprintf(&b, "<CertificateChain>\n<NumberOfCertificates>%d</NumberOfCertificates>\n", declared)
	for _, c := range kb.Certs {
		fmt.Fprintf(&b, "<Certificate format=\"pem\">\n%s</Certificate>\n", c)
	}
	b.WriteString("</CertificateChain>\n</Key>\n</Keybox>\n</AndroidAttestation>\n")
	return []byte(b.String())
}

// ValidKeybox builds a complete, internally consistent keybox from nodes,
// embedding the leaf's private key.
func ValidKeybox(t testing.TB, nodes []Node) []byte {
	t.Helper()

	return KeyboxXML(Keybox{
		DeviceID:   "test-device",
		Algorithm:  "ecdsa",
		Certs:      PEMs(nodes),
		PrivateKey: KeyPEM(t, nodes[0].Key),
	})
}
