// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package x509chain validates fixed, ordered [X.509] certificate chains as they
// appear in Android attestation keyboxes.
//
// Unlike RFC 5280 path building there is no pool to search: certificate i must
// be issued by certificate i+1. Each link is checked for issuer/subject name
// equality and for a signature from the closed [SignatureScheme] set, verified
// with the parent's key. SHA-1 is accepted on purpose since older attestation
// intermediates use it. The walk stops at the first failure and reports its
// index together with a [Cause].
//
// The package also renders chains as ASCII trees, markdown tables and JSON.
//
// [X.509]: https://grokipedia.com/page/X.509
package x509chain
