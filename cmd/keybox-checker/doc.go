// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// keybox-checker validates Android hardware attestation keyboxes and serves
// the same checks over HTTP.
//
// # Installation
//
// Install with Go 1.25.5 or later:
//
//	go install github.com/H0llyW00dzZ/keybox-checker/cmd/keybox-checker@latest
//
// # Usage
//
//	keybox-checker -f KEYBOX_XML [FLAGS]
//	keybox-checker serve [--addr :8080]
//	keybox-checker snapshot [-o FILE]
//
// # Flags
//
//	-f, --file                Keybox XML file [required]
//	    --format              Output format: text, table, json or tree (default: text)
//	    --require-private-key Reject keyboxes without a PrivateKey element
//	    --offline             Use the local revocation snapshot only
//	    --strict              Exit with status 2 when the keybox does not pass
//	-c, --config              Configuration file (.yaml, .yml or .json)
//
// # Examples
//
// Check a keybox:
//
//	keybox-checker -f keybox.xml
//
// Produce JSON output for scripts and fail the pipeline on a bad keybox:
//
//	keybox-checker -f keybox.xml --format json --strict > report.json
//
// Serve the HTTP API with Prometheus metrics on /metrics:
//
//	keybox-checker serve -c config.yaml
//	curl -F file=@keybox.xml http://localhost:8080/api/v1/keybox
//
// Refresh the fallback revocation snapshot in a resource directory:
//
//	keybox-checker snapshot -o /etc/keybox-checker/json/status.json
package main
