// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package validator

import (
	"bytes"
	"crypto"
	"fmt"
	"strings"

	x509certs "github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/certs"
)

// KeyMatch is the outcome of comparing the keybox private key with the leaf.
type KeyMatch int

const (
	// KeyNotProvided means the document carries no private key.
	KeyNotProvided KeyMatch = iota
	// KeyInvalid means the private key is present but cannot be parsed.
	KeyInvalid
	// KeyMismatched means the key parses but belongs to a different public key.
	KeyMismatched
	// KeyMatched means the key's public half equals the leaf's public key.
	KeyMatched
)

var keyMatchNames = [...]string{
	KeyNotProvided: "not-provided",
	KeyInvalid:     "invalid",
	KeyMismatched:  "mismatched",
	KeyMatched:     "matched",
}

func (k KeyMatch) String() string {
	if k < 0 || int(k) >= len(keyMatchNames) {
		return fmt.Sprintf("keymatch(%d)", int(k))
	}
	return keyMatchNames[k]
}

// MarshalText renders the result by name in JSON output.
func (k KeyMatch) MarshalText() ([]byte, error) { return []byte(k.String()), nil }

// CheckPrivateKey compares the public half of privateKeyPEM with leaf.
//
// An empty string is [KeyNotProvided]. Anything that fails to decode,
// including encrypted keys, is [KeyInvalid]. Keys are compared through their
// canonical SubjectPublicKeyInfo encoding.
func CheckPrivateKey(privateKeyPEM string, leaf crypto.PublicKey) KeyMatch {
	privateKeyPEM = strings.TrimSpace(privateKeyPEM)
	if privateKeyPEM == "" {
		return KeyNotProvided
	}

	signer, err := x509certs.New().DecodePrivateKey([]byte(privateKeyPEM), nil)
	if err != nil {
		return KeyInvalid
	}

	got, err := x509certs.MarshalPublicKey(signer.Public())
	if err != nil {
		return KeyInvalid
	}
	want, err := x509certs.MarshalPublicKey(leaf)
	if err != nil {
		return KeyMismatched
	}

	if !bytes.Equal(got, want) {
		return KeyMismatched
	}
	return KeyMatched
}
