// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package httpapi exposes the keybox validation engine over HTTP with a
// [chi] router.
//
// Routes:
//
//	POST /api/v1/keybox   validate a keybox (raw XML body or multipart "file")
//	GET  /api/v1/help     usage text
//	GET  /health          liveness
//	GET  /health/ready    trust anchors and revocation snapshot loaded
//	GET  /metrics         Prometheus metrics, when a gatherer is configured
//
// Uploads pass the same admission gate as the command line: XML media types
// only and at most 20 KiB by default. Oversized bodies get 413, other media
// types 415 and documents that cannot be parsed 422.
//
// [chi]: https://github.com/go-chi/chi
package httpapi
