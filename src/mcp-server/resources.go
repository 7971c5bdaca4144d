// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// createResources creates the static and dynamic resources served to clients.
//
// Resources include the configuration template, version information, the
// configured trust anchors and revocation snapshot, and documentation of the
// keybox document format.
func createResources(deps *ServerDependencies) []server.ServerResource {
	h := &resourceHandlers{deps: deps}

	return []server.ServerResource{
		{
			Resource: mcp.NewResource(
				"config://template",
				"Configuration Template",
				mcp.WithResourceDescription("Example YAML configuration with every setting and its default"),
				mcp.WithMIMEType("application/yaml"),
			),
			Handler: h.handleConfigResource,
		},
		{
			Resource: mcp.NewResource(
				"info://version",
				"Version Information",
				mcp.WithResourceDescription("Server version and capabilities"),
				mcp.WithMIMEType("application/json"),
			),
			Handler: h.handleVersionResource,
		},
		{
			Resource: mcp.NewResource(
				"info://trust-anchors",
				"Trust Anchors",
				mcp.WithResourceDescription("Configured attestation roots in priority order and the local revocation snapshot"),
				mcp.WithMIMEType("application/json"),
			),
			Handler: h.handleTrustAnchorsResource,
		},
		{
			Resource: mcp.NewResource(
				"docs://keybox-format",
				"Keybox Format",
				mcp.WithResourceDescription("Documentation of the keybox XML document and the checks applied to it"),
				mcp.WithMIMEType("text/markdown"),
			),
			Handler: h.handleKeyboxFormatResource,
		},
	}
}
