// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/H0llyW00dzZ/keybox-checker/src/mcp-server/templates"
)

// toolInfo describes one tool for the instructions template.
type toolInfo struct {
	Name        string
	Description string
}

// instructionData is the data passed to the instructions template.
type instructionData struct {
	Tools     []toolInfo
	ToolRoles map[string]string
	Resources []string
}

// loadInstructions renders the instructions template with the registered
// tools and resources.
//
// Parameters:
//   - embed: Filesystem holding keybox_instructions.md
//   - deps: Dependencies whose tools and resources are described
//
// Returns:
//   - string: The rendered instruction text sent to clients on initialization
//   - error: If the embedded file cannot be read or template parsing fails
func loadInstructions(embed templates.EmbedFS, deps *ServerDependencies) (string, error) {
	templateBytes, err := embed.ReadFile("keybox_instructions.md")
	if err != nil {
		return "", fmt.Errorf("failed to load MCP server instructions template: %w", err)
	}

	data := instructionData{ToolRoles: make(map[string]string)}
	for _, tool := range deps.Tools {
		data.Tools = append(data.Tools, toolInfo{
			Name:        tool.Tool.Name,
			Description: tool.Tool.Description,
		})
		if tool.Role != "" {
			data.ToolRoles[tool.Role] = tool.Tool.Name
		}
	}
	for _, r := range deps.Resources {
		data.Resources = append(data.Resources, r.Resource.URI)
	}

	tmpl, err := template.New("instructions").Parse(string(templateBytes))
	if err != nil {
		return "", fmt.Errorf("failed to parse instructions template: %w", err)
	}

	var buf strings.Builder
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute instructions template: %w", err)
	}

	return buf.String(), nil
}
