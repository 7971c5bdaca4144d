// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package res embeds the bundled trust anchors, the revocation snapshot and
// the example configuration so the binaries work without a resource directory.
package res

import "embed"

// FS holds pem/, json/ and config.example.yaml.
//
//go:embed pem json config.example.yaml
var FS embed.FS
