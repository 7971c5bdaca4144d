// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package cli provides the command-line interface for the keybox checker.
// It implements a Cobra-based CLI that validates a keybox file and prints the
// report as text, JSON, a markdown table or an ASCII tree of the chain. The
// serve subcommand runs the HTTP API and snapshot downloads the live
// revocation list as a fallback snapshot. Local files pass the same size and
// media type gate as uploads.
package cli
