// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createTools creates and returns all MCP tool definitions with their handlers
// bound to deps.
//
// The function defines the following tools:
//   - validate_keybox: Runs every check on a keybox and returns the report
//   - check_revocation: Looks a serial number up on the attestation status list
//   - inspect_chain: Renders the certificate chain of a keybox
func createTools(deps *ServerDependencies) []ToolDefinition {
	h := &toolHandlers{deps: deps}

	return []ToolDefinition{
		{
			Tool: mcp.NewTool("validate_keybox",
				mcp.WithDescription("Validate an Android attestation keybox: certificate chain, root of trust, validity, private key and revocation status"),
				mcp.WithString("keybox",
					mcp.Required(),
					mcp.Description("Keybox file path, base64-encoded keybox XML or the XML document itself"),
				),
				mcp.WithString("format",
					mcp.Description("Output format: 'text', 'json', or 'table' (default: text)"),
					mcp.DefaultString("text"),
				),
				mcp.WithBoolean("require_private_key",
					mcp.Description("Reject keyboxes without a PrivateKey element (default: false)"),
					mcp.DefaultBool(false),
				),
			),
			Handler: h.handleValidateKeybox,
			Role:    "validator",
		},
		{
			Tool: mcp.NewTool("check_revocation",
				mcp.WithDescription("Look up a certificate serial number on Google's attestation status list, falling back to the local snapshot"),
				mcp.WithString("serial",
					mcp.Required(),
					mcp.Description("Certificate serial number in hexadecimal, with or without a 0x prefix"),
				),
			),
			Handler: h.handleCheckRevocation,
			Role:    "revocationChecker",
		},
		{
			Tool: mcp.NewTool("inspect_chain",
				mcp.WithDescription("Render the certificate chain of a keybox with roles, keys and revocation status"),
				mcp.WithString("keybox",
					mcp.Required(),
					mcp.Description("Keybox file path, base64-encoded keybox XML or the XML document itself"),
				),
				mcp.WithString("format",
					mcp.Description("Output format: 'table', 'tree', 'json', or 'pem' for the bare chain bundle (default: table)"),
					mcp.DefaultString("table"),
				),
			),
			Handler: h.handleInspectChain,
			Role:    "chainInspector",
		},
	}
}
