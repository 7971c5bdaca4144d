// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/H0llyW00dzZ/keybox-checker/src/config"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/x509/anchors"
	"github.com/H0llyW00dzZ/keybox-checker/src/mcp-server/templates"
	"github.com/mark3labs/mcp-go/mcp"
)

// resourceHandlers binds resource handlers to the server dependencies.
type resourceHandlers struct{ deps *ServerDependencies }

func (h *resourceHandlers) embed() templates.EmbedFS {
	if h.deps.Embed != nil {
		return h.deps.Embed
	}
	return templates.MagicEmbed
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s: %w", uri, err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// handleConfigResource serves the example configuration file.
//
// Parameters:
//   - ctx: Context for cancellation and timeout handling
//   - request: MCP resource read request for the config template
//
// Returns:
//   - A slice containing the YAML template
//   - An error if the embedded template cannot be read
func (h *resourceHandlers) handleConfigResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	data, err := config.Template()
	if err != nil {
		return nil, fmt.Errorf("failed to read config template: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "config://template",
			MIMEType: "application/yaml",
			Text:     string(data),
		},
	}, nil
}

// handleVersionResource serves server metadata: version, tools, resources and
// output formats.
func (h *resourceHandlers) handleVersionResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	tools := make([]map[string]string, 0, len(h.deps.Tools))
	for _, t := range h.deps.Tools {
		tools = append(tools, map[string]string{
			"name":        t.Tool.Name,
			"description": t.Tool.Description,
		})
	}

	resources := make([]map[string]string, 0, len(h.deps.Resources))
	for _, r := range h.deps.Resources {
		resources = append(resources, map[string]string{
			"uri":  r.Resource.URI,
			"name": r.Resource.Name,
		})
	}

	return jsonResource("info://version", map[string]any{
		"name":    ServerName,
		"version": h.deps.Version,
		"type":    "MCP Server",
		"capabilities": map[string]any{
			"tools":     tools,
			"resources": resources,
		},
		"supportedFormats": []string{"text", "json", "table", "tree"},
	})
}

// trustAnchorsInfo is the info://trust-anchors document.
type trustAnchorsInfo struct {
	Anchors  []anchors.Anchor `json:"anchors"`
	Missing  []anchors.Name   `json:"unconfigured"`
	Snapshot struct {
		Source    string `json:"source"`
		Entries   int    `json:"entries"`
		FetchedAt string `json:"fetchedAt,omitempty"`
	} `json:"revocationSnapshot"`
}

// handleTrustAnchorsResource lists the configured roots in matching order,
// the roots that are not configured, and the local revocation snapshot.
func (h *resourceHandlers) handleTrustAnchorsResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	var info trustAnchorsInfo

	info.Anchors = h.deps.Engine.Anchors().Anchors()
	configured := make(map[anchors.Name]bool, len(info.Anchors))
	for _, a := range info.Anchors {
		configured[a.Name] = true
	}
	for _, name := range anchors.Priority {
		if !configured[name] {
			info.Missing = append(info.Missing, name)
		}
	}

	snap := h.deps.Engine.Snapshot()
	info.Snapshot.Source = snap.Source
	info.Snapshot.Entries = snap.Len()
	if !snap.FetchedAt.IsZero() {
		info.Snapshot.FetchedAt = snap.FetchedAt.Format(time.RFC3339)
	}

	return jsonResource("info://trust-anchors", info)
}

// handleKeyboxFormatResource serves the embedded keybox format documentation.
func (h *resourceHandlers) handleKeyboxFormatResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	content, err := h.embed().ReadFile("keybox-format.md")
	if err != nil {
		return nil, fmt.Errorf("failed to read keybox format documentation: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "docs://keybox-format",
			MIMEType: "text/markdown",
			Text:     string(content),
		},
	}, nil
}
