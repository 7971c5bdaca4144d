// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package revocation fetches and queries Google's Android attestation status
// list, a JSON document of revoked or suspended certificate serial numbers:
//
//	{"entries": {"c35747a084470c3135aeefe2b8d40cd6": {"status": "REVOKED", "reason": "KEY_COMPROMISE"}}}
//
// Keys are lowercase hex serial numbers. [Oracle] downloads the live list;
// [LoadSnapshot] reads the bundled copy that is used when the live list cannot
// be reached.
package revocation
