// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"strings"

	"github.com/youmark/pkcs8"
)

var (
	// ErrParsePrivateKey indicates that no supported private key could be decoded.
	ErrParsePrivateKey = errors.New("x509certs: failed to parse private key")

	// ErrEncryptedPrivateKey indicates an encrypted private key without a usable password.
	ErrEncryptedPrivateKey = errors.New("x509certs: private key is encrypted")

	// ErrParsePublicKey indicates that no supported public key could be decoded.
	ErrParsePublicKey = errors.New("x509certs: failed to parse public key")

	// ErrUnsupportedKeyType indicates a key algorithm other than RSA, ECDSA or Ed25519.
	ErrUnsupportedKeyType = errors.New("x509certs: unsupported key type")
)

// PEM block types understood by DecodePrivateKey and DecodePublicKey.
const (
	blockRSAPrivateKey       = "RSA PRIVATE KEY"
	blockECPrivateKey        = "EC PRIVATE KEY"
	blockPrivateKey          = "PRIVATE KEY"
	blockEncryptedPrivateKey = "ENCRYPTED PRIVATE KEY"
	blockPublicKey           = "PUBLIC KEY"
	blockRSAPublicKey        = "RSA PUBLIC KEY"
)

// DecodePrivateKey decodes a private key from PEM or DER data.
//
// Supported encodings are PKCS#1 ("RSA PRIVATE KEY"), SEC 1 ("EC PRIVATE KEY"),
// PKCS#8 ("PRIVATE KEY") and encrypted PKCS#8 ("ENCRYPTED PRIVATE KEY"). The
// password is only used for encrypted PKCS#8 and may be nil otherwise.
//
// Legacy OpenSSL encryption (a Proc-Type header) is reported as
// [ErrEncryptedPrivateKey] since it cannot be decrypted safely.
func (c *Certificate) DecodePrivateKey(data, password []byte) (crypto.Signer, error) {
	block, _ := pem.Decode(data)
	if block == nil {
		return parseDERPrivateKey(data)
	}

	if strings.Contains(block.Headers["Proc-Type"], "ENCRYPTED") {
		return nil, ErrEncryptedPrivateKey
	}

	switch block.Type {
	case blockRSAPrivateKey:
		key, err := x509.ParsePKCS1PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParsePrivateKey, err)
		}
		return key, nil
	case blockECPrivateKey:
		key, err := x509.ParseECPrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParsePrivateKey, err)
		}
		return key, nil
	case blockPrivateKey:
		key, err := pkcs8.ParsePKCS8PrivateKey(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrParsePrivateKey, err)
		}
		return asSigner(key)
	case blockEncryptedPrivateKey:
		if len(password) == 0 {
			return nil, ErrEncryptedPrivateKey
		}
		key, err := pkcs8.ParsePKCS8PrivateKey(block.Bytes, password)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrEncryptedPrivateKey, err)
		}
		return asSigner(key)
	default:
		return nil, fmt.Errorf("%w: unexpected block %q", ErrParsePrivateKey, block.Type)
	}
}

func parseDERPrivateKey(der []byte) (crypto.Signer, error) {
	if key, err := pkcs8.ParsePKCS8PrivateKey(der); err == nil {
		return asSigner(key)
	}
	if key, err := x509.ParsePKCS1PrivateKey(der); err == nil {
		return key, nil
	}
	if key, err := x509.ParseECPrivateKey(der); err == nil {
		return key, nil
	}
	return nil, ErrParsePrivateKey
}

func asSigner(key any) (crypto.Signer, error) {
	switch k := key.(type) {
	case *rsa.PrivateKey:
		return k, nil
	case *ecdsa.PrivateKey:
		return k, nil
	case ed25519.PrivateKey:
		return k, nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedKeyType, key)
	}
}

// EncodePrivateKeyPEM encodes key as PKCS#8. When password is non-empty the
// result is an "ENCRYPTED PRIVATE KEY" block using the library defaults.
func (c *Certificate) EncodePrivateKeyPEM(key crypto.Signer, password []byte) ([]byte, error) {
	der, err := pkcs8.MarshalPrivateKey(key, password, nil)
	if err != nil {
		return nil, fmt.Errorf("x509certs: marshal private key: %w", err)
	}

	blockType := blockPrivateKey
	if len(password) > 0 {
		blockType = blockEncryptedPrivateKey
	}

	return pem.EncodeToMemory(&pem.Block{Type: blockType, Bytes: der}), nil
}

// DecodePublicKey decodes a public key from data.
//
// Accepted inputs are "PUBLIC KEY" (PKIX), "RSA PUBLIC KEY" (PKCS#1) and
// anything [Certificate.Decode] understands, in which case the certificate's
// subject public key is returned.
func (c *Certificate) DecodePublicKey(data []byte) (crypto.PublicKey, error) {
	if block, _ := pem.Decode(data); block != nil {
		switch block.Type {
		case blockPublicKey:
			pub, err := x509.ParsePKIXPublicKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrParsePublicKey, err)
			}
			return pub, nil
		case blockRSAPublicKey:
			pub, err := x509.ParsePKCS1PublicKey(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("%w: %w", ErrParsePublicKey, err)
			}
			return pub, nil
		}
	} else if pub, err := x509.ParsePKIXPublicKey(data); err == nil {
		return pub, nil
	}

	cert, err := c.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrParsePublicKey, err)
	}
	return cert.PublicKey, nil
}

// MarshalPublicKey returns the DER encoded SubjectPublicKeyInfo of pub.
func MarshalPublicKey(pub crypto.PublicKey) ([]byte, error) {
	der, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedKeyType, err)
	}
	return der, nil
}
