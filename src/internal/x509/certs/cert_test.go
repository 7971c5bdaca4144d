// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs_test

import (
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	x509certs "github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/certs"
)

// Android Keystore Software Attestation Root (EC), valid until January 6, 2036.
const testCertPEM = `
-----BEGIN CERTIFICATE-----
MIICizCCAjKgAwIBAgIJAKIFntEOQ1tXMAoGCCqGSM49BAMCMIGYMQswCQYDVQQG
EwJVUzETMBEGA1UECAwKQ2FsaWZvcm5pYTEWMBQGA1UEBwwNTW91bnRhaW4gVmll
dzEVMBMGA1UECgwMR29vZ2xlLCBJbmMuMRAwDgYDVQQLDAdBbmRyb2lkMTMwMQYD
VQQDDCpBbmRyb2lkIEtleXN0b3JlIFNvZnR3YXJlIEF0dGVzdGF0aW9uIFJvb3Qw
HhcNMTYwMTExMDA0MzUwWhcNMzYwMTA2MDA0MzUwWjCBmDELMAkGA1UEBhMCVVMx
EzARBgNVBAgMCkNhbGlmb3JuaWExFjAUBgNVBAcMDU1vdW50YWluIFZpZXcxFTAT
BgNVBAoMDEdvb2dsZSwgSW5jLjEQMA4GA1UECwwHQW5kcm9pZDEzMDEGA1UEAwwq
QW5kcm9pZCBLZXlzdG9yZSBTb2Z0d2FyZSBBdHRlc3RhdGlvbiBSb290MFkwEwYH
KoZIzj0CAQYIKoZIzj0DAQcDQgAE7l1ex+HA220Dpn7mthvsTWpdamguD/9/SQ59
dx9EIm29sa/6FsvHrcV30lacqrewLVQBXT5DKyqO107sSHVBpKNjMGEwHQYDVR0O
BBYEFMit6XdMRcOjzw0WEOR5QzohWjDPMB8GA1UdIwQYMBaAFMit6XdMRcOjzw0W
EOR5QzohWjDPMA8GA1UdEwEB/wQFMAMBAf8wDgYDVR0PAQH/BAQDAgKEMAoGCCqG
SM49BAMCA0cAMEQCIDUho++LNEYenNVg8x1YiSBq3KNlQfYNns6KGYxmSGB7AiBN
C/NR2TB8fVvaNTQdqEcbY6WFZTytTySn502vQX3xvw==
-----END CERTIFICATE-----
`

func parseTestCert(t *testing.T) *x509.Certificate {
	t.Helper()

	block, _ := pem.Decode([]byte(testCertPEM))
	require.NotNil(t, block, "failed to parse certificate PEM for test setup")

	cert, err := x509.ParseCertificate(block.Bytes)
	require.NoError(t, err, "failed to parse test certificate")
	return cert
}

func TestCertificateOperations(t *testing.T) {
	tests := []struct {
		name     string
		testFunc func(t *testing.T, decoder *x509certs.Certificate, testCert *x509.Certificate)
	}{
		{
			name: "Encode Certificate to PEM",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate, cert *x509.Certificate) {
				decodedCert, err := decoder.Decode(decoder.EncodePEM(cert))
				require.NoError(t, err, "Decode() error")

				assert.True(t, cert.Equal(decodedCert), "original and decoded certificates are not equal")
			},
		},
		{
			name: "Encode Chain to PEM",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate, cert *x509.Certificate) {
				encoded := decoder.EncodeChainPEM([]*x509.Certificate{cert, cert})

				var blocks int
				for rest := encoded; ; blocks++ {
					var block *pem.Block
					block, rest = pem.Decode(rest)
					if block == nil {
						break
					}
					assert.Equal(t, "CERTIFICATE", block.Type)
					assert.Equal(t, cert.Raw, block.Bytes)
				}
				assert.Equal(t, 2, blocks)

				assert.Empty(t, decoder.EncodeChainPEM(nil))
			},
		},
		{
			name: "Decode Certificate",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate, _ *x509.Certificate) {
				cert, err := decoder.Decode([]byte(testCertPEM))
				require.NoError(t, err, "Decode() error")

				assert.Equal(t, "Android Keystore Software Attestation Root", cert.Subject.CommonName)
			},
		},
		{
			name: "Decode DER",
			testFunc: func(t *testing.T, decoder *x509certs.Certificate, cert *x509.Certificate) {
				decodedCert, err := decoder.Decode(cert.Raw)
				require.NoError(t, err, "Decode() error")

				assert.True(t, cert.Equal(decodedCert), "original and decoded certificates are not equal")
			},
		},
		{
			name: "Serial Hex",
			testFunc: func(t *testing.T, _ *x509certs.Certificate, cert *x509.Certificate) {
				assert.Equal(t, "a2059ed10e435b57", x509certs.SerialHex(cert))
				assert.Empty(t, x509certs.SerialHex(nil))
			},
		},
	}

	decoder := x509certs.New()
	testCert := parseTestCert(t)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.testFunc(t, decoder, testCert)
		})
	}
}

const (
	invalidPEM = `
-----BEGIN INVALID-----
MIIEmTCCBD+gAwIBAgIRANFjRCmF+Y2bUYHbhxwkEpowCgYIKoZIzj0EAwIwgY8x
-----END INVALID-----
`

	invalidCERT = `
-----BEGIN CERTIFICATE-----
MIIBIjANBgkqhkiG9w0BAQEFAAOCAQ8AMIIBCgKCAQEAz6e5VV5F8rF2sFJ0Q4vA
-----END CERTIFICATE-----
`
)

func TestDecodeCertificate_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected error
	}{
		{
			name:     "Invalid PEM Block",
			input:    invalidPEM,
			expected: x509certs.ErrInvalidBlockType,
		},
		{
			name:     "Invalid Certificate",
			input:    invalidCERT,
			expected: x509certs.ErrParseCertificate,
		},
		{
			name:     "Not A Certificate",
			input:    "not a certificate",
			expected: x509certs.ErrParseCertificate,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decoder := x509certs.New()
			_, err := decoder.Decode([]byte(tt.input))
			assert.ErrorIs(t, err, tt.expected, "expected specific error")
		})
	}
}

func TestCertificate_IsPEM(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected bool
	}{
		{
			name:     "Valid PEM",
			input:    []byte(testCertPEM),
			expected: true,
		},
		{
			name:     "Invalid PEM",
			input:    []byte("not a pem block"),
			expected: false,
		},
		{
			name:     "Empty Input",
			input:    []byte(""),
			expected: false,
		},
		{
			name:     "PEM-like but invalid base64",
			input:    []byte("-----BEGIN CERTIFICATE-----\ninvalid-base64\n-----END CERTIFICATE-----"),
			expected: false,
		},
		{
			name:     "DER format (binary)",
			input:    []byte{0x30, 0x82, 0x01, 0x23},
			expected: false,
		},
	}

	decoder := x509certs.New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, decoder.IsPEM(tt.input), "IsPEM() result incorrect")
		})
	}
}
