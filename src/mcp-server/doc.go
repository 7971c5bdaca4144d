// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package mcpserver provides the [MCP] server for Android keybox validation.
// It exposes the validation engine as tools (validate_keybox, check_revocation,
// inspect_chain) and serves the configuration template, trust anchor summary
// and keybox format documentation as resources. The server is assembled with
// a builder and served over stdio.
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
package mcpserver
