// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package anchors holds the known attestation trust roots and matches chain
// roots against them by public key.
//
// A [Store] is loaded once at startup and then shared read-only by every
// validation. Matching compares canonical SubjectPublicKeyInfo encodings, so a
// re-issued root certificate with the same key still matches.
package anchors
