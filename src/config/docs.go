// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package config loads the keybox checker configuration from JSON or YAML and
// turns it into a ready [validator.Engine].
//
// [validator.Engine]: https://pkg.go.dev/github.com/H0llyW00dzZ/keybox-checker/src/internal/validator#Engine
package config
