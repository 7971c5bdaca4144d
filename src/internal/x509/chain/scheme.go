// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/rsa"
	_ "crypto/sha1" // attestation roots still sign with SHA-1
	_ "crypto/sha256"
	_ "crypto/sha512"
	"crypto/x509"
	"errors"
	"fmt"
)

var (
	// ErrKeyTypeMismatch indicates that the issuer key cannot verify the scheme at all.
	ErrKeyTypeMismatch = errors.New("x509chain: issuer key type does not match signature scheme")

	// ErrBadSignature indicates that the signature did not verify.
	ErrBadSignature = errors.New("x509chain: signature verification failed")
)

// SignatureScheme is the closed set of signature schemes accepted on a chain link.
type SignatureScheme int

const (
	// SchemeUnsupported covers every algorithm outside the set below. Links
	// using it always fail.
	SchemeUnsupported SignatureScheme = iota
	SchemeRSAPKCS1SHA1
	SchemeRSAPKCS1SHA256
	SchemeRSAPKCS1SHA384
	SchemeRSAPKCS1SHA512
	SchemeECDSASHA1
	SchemeECDSASHA256
	SchemeECDSASHA384
	SchemeECDSASHA512
)

var schemeNames = [...]string{
	SchemeUnsupported:    "Unsupported",
	SchemeRSAPKCS1SHA1:   "RSA-PKCS1v15-SHA1",
	SchemeRSAPKCS1SHA256: "RSA-PKCS1v15-SHA256",
	SchemeRSAPKCS1SHA384: "RSA-PKCS1v15-SHA384",
	SchemeRSAPKCS1SHA512: "RSA-PKCS1v15-SHA512",
	SchemeECDSASHA1:      "ECDSA-SHA1",
	SchemeECDSASHA256:    "ECDSA-SHA256",
	SchemeECDSASHA384:    "ECDSA-SHA384",
	SchemeECDSASHA512:    "ECDSA-SHA512",
}

func (s SignatureScheme) String() string {
	if s < 0 || int(s) >= len(schemeNames) {
		return schemeNames[SchemeUnsupported]
	}
	return schemeNames[s]
}

// SchemeOf maps a certificate signature algorithm onto a SignatureScheme.
// Anything not listed, including RSA-PSS, Ed25519 and MD5, is SchemeUnsupported.
func SchemeOf(alg x509.SignatureAlgorithm) SignatureScheme {
	switch alg {
	case x509.SHA1WithRSA:
		return SchemeRSAPKCS1SHA1
	case x509.SHA256WithRSA:
		return SchemeRSAPKCS1SHA256
	case x509.SHA384WithRSA:
		return SchemeRSAPKCS1SHA384
	case x509.SHA512WithRSA:
		return SchemeRSAPKCS1SHA512
	case x509.ECDSAWithSHA1:
		return SchemeECDSASHA1
	case x509.ECDSAWithSHA256:
		return SchemeECDSASHA256
	case x509.ECDSAWithSHA384:
		return SchemeECDSASHA384
	case x509.ECDSAWithSHA512:
		return SchemeECDSASHA512
	default:
		return SchemeUnsupported
	}
}

// Hash returns the digest used by the scheme, or 0 when unsupported.
func (s SignatureScheme) Hash() crypto.Hash {
	switch s {
	case SchemeRSAPKCS1SHA1, SchemeECDSASHA1:
		return crypto.SHA1
	case SchemeRSAPKCS1SHA256, SchemeECDSASHA256:
		return crypto.SHA256
	case SchemeRSAPKCS1SHA384, SchemeECDSASHA384:
		return crypto.SHA384
	case SchemeRSAPKCS1SHA512, SchemeECDSASHA512:
		return crypto.SHA512
	default:
		return 0
	}
}

func (s SignatureScheme) isRSA() bool {
	return s >= SchemeRSAPKCS1SHA1 && s <= SchemeRSAPKCS1SHA512
}

// Verify checks sig over signed with pub.
//
// The digest is computed here rather than through [x509.Certificate.CheckSignatureFrom]
// because the standard verifier refuses SHA-1, which older attestation
// intermediates still use.
//
// Returns:
//   - error: nil on success, [ErrKeyTypeMismatch] if pub cannot be used with
//     the scheme, [ErrBadSignature] otherwise
func (s SignatureScheme) Verify(pub crypto.PublicKey, signed, sig []byte) error {
	h := s.Hash()
	if h == 0 {
		return fmt.Errorf("x509chain: %s scheme cannot verify", s)
	}

	hasher := h.New()
	hasher.Write(signed)
	digest := hasher.Sum(nil)

	if s.isRSA() {
		key, ok := pub.(*rsa.PublicKey)
		if !ok {
			return fmt.Errorf("%w: %s with %T", ErrKeyTypeMismatch, s, pub)
		}
		if err := rsa.VerifyPKCS1v15(key, h, digest, sig); err != nil {
			return fmt.Errorf("%w: %w", ErrBadSignature, err)
		}
		return nil
	}

	key, ok := pub.(*ecdsa.PublicKey)
	if !ok {
		return fmt.Errorf("%w: %s with %T", ErrKeyTypeMismatch, s, pub)
	}
	if !ecdsa.VerifyASN1(key, digest, sig) {
		return fmt.Errorf("%w: %s", ErrBadSignature, s)
	}
	return nil
}
