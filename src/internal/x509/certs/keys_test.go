// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs_test

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	x509certs "github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/certs"
)

func publicOf(t *testing.T, s crypto.Signer) []byte {
	t.Helper()
	der, err := x509certs.MarshalPublicKey(s.Public())
	require.NoError(t, err)
	return der
}

func TestCertificate_DecodePrivateKey(t *testing.T) {
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	_, edKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	decoder := x509certs.New()

	ecDER, err := x509.MarshalECPrivateKey(ecKey)
	require.NoError(t, err)
	ecSEC1 := pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: ecDER})
	rsaPKCS1 := pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(rsaKey)})

	ecPKCS8, err := decoder.EncodePrivateKeyPEM(ecKey, nil)
	require.NoError(t, err)
	edPKCS8, err := decoder.EncodePrivateKeyPEM(edKey, nil)
	require.NoError(t, err)
	ecEncrypted, err := decoder.EncodePrivateKeyPEM(ecKey, []byte("hunter2"))
	require.NoError(t, err)

	legacy := pem.EncodeToMemory(&pem.Block{
		Type:    "RSA PRIVATE KEY",
		Headers: map[string]string{"Proc-Type": "4,ENCRYPTED", "DEK-Info": "AES-128-CBC,00"},
		Bytes:   []byte{0x00},
	})

	tests := []struct {
		name     string
		input    []byte
		password []byte
		want     crypto.Signer
		wantErr  error
	}{
		{name: "SEC1 EC", input: ecSEC1, want: ecKey},
		{name: "PKCS1 RSA", input: rsaPKCS1, want: rsaKey},
		{name: "PKCS8 EC", input: ecPKCS8, want: ecKey},
		{name: "PKCS8 Ed25519", input: edPKCS8, want: edKey},
		{name: "DER SEC1", input: ecDER, want: ecKey},
		{name: "DER PKCS1", input: x509.MarshalPKCS1PrivateKey(rsaKey), want: rsaKey},
		{name: "Encrypted PKCS8 with password", input: ecEncrypted, password: []byte("hunter2"), want: ecKey},
		{name: "Encrypted PKCS8 without password", input: ecEncrypted, wantErr: x509certs.ErrEncryptedPrivateKey},
		{name: "Encrypted PKCS8 wrong password", input: ecEncrypted, password: []byte("nope"), wantErr: x509certs.ErrEncryptedPrivateKey},
		{name: "Legacy encrypted PEM", input: legacy, wantErr: x509certs.ErrEncryptedPrivateKey},
		{name: "Garbage", input: []byte("definitely not a key"), wantErr: x509certs.ErrParsePrivateKey},
		{name: "Truncated SEC1", input: pem.EncodeToMemory(&pem.Block{Type: "EC PRIVATE KEY", Bytes: ecDER[:10]}), wantErr: x509certs.ErrParsePrivateKey},
		{name: "Certificate block", input: []byte(testCertPEM), wantErr: x509certs.ErrParsePrivateKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decoder.DecodePrivateKey(tt.input, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, got)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, publicOf(t, tt.want), publicOf(t, got), "decoded key does not match")
		})
	}
}

func TestCertificate_DecodePublicKey(t *testing.T) {
	decoder := x509certs.New()
	cert := parseTestCert(t)

	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)

	certSPKI, err := x509certs.MarshalPublicKey(cert.PublicKey)
	require.NoError(t, err)
	rsaSPKI, err := x509certs.MarshalPublicKey(&rsaKey.PublicKey)
	require.NoError(t, err)

	tests := []struct {
		name    string
		input   []byte
		want    []byte
		wantErr bool
	}{
		{name: "PUBLIC KEY", input: pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: certSPKI}), want: certSPKI},
		{name: "RSA PUBLIC KEY", input: pem.EncodeToMemory(&pem.Block{Type: "RSA PUBLIC KEY", Bytes: x509.MarshalPKCS1PublicKey(&rsaKey.PublicKey)}), want: rsaSPKI},
		{name: "CERTIFICATE", input: []byte(testCertPEM), want: certSPKI},
		{name: "DER SPKI", input: certSPKI, want: certSPKI},
		{name: "DER certificate", input: cert.Raw, want: certSPKI},
		{name: "Garbage", input: []byte("nope"), wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pub, err := decoder.DecodePublicKey(tt.input)
			if tt.wantErr {
				assert.ErrorIs(t, err, x509certs.ErrParsePublicKey)
				return
			}

			require.NoError(t, err)
			der, err := x509certs.MarshalPublicKey(pub)
			require.NoError(t, err)
			assert.Equal(t, tt.want, der)
		})
	}
}

func TestMarshalPublicKey_Unsupported(t *testing.T) {
	_, err := x509certs.MarshalPublicKey("not a key")
	assert.ErrorIs(t, err, x509certs.ErrUnsupportedKeyType)
}
