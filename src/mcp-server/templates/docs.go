// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package templates provides embedded filesystem access for MCP server template files.
// It holds the keybox format documentation served as a resource and the
// instructions template rendered when the server starts.
//
// Access goes through the [EmbedFS] interface, with [MagicEmbed] as the
// default implementation.
//
// Example usage:
//
//	content, err := templates.MagicEmbed.ReadFile("keybox-format.md")
//	if err != nil {
//		return fmt.Errorf("failed to read keybox format: %w", err)
//	}
package templates
