// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"errors"

	"github.com/H0llyW00dzZ/keybox-checker/src/config"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/validator"
	"github.com/H0llyW00dzZ/keybox-checker/src/mcp-server/templates"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// ServerName is the implementation name announced during initialization.
const ServerName = "Android Keybox Checker"

// ErrNoEngine is returned by Build when no validation engine was supplied.
var ErrNoEngine = errors.New("mcpserver: validation engine is required")

// ToolHandler defines the function signature for tool handlers.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// ResourceHandler defines the function signature for resource handlers.
type ResourceHandler = func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error)

// ToolDefinition holds a tool definition and its handler.
//
// Fields:
//   - Tool: The MCP tool definition containing name, description, and input schema
//   - Handler: The function that implements the tool's logic
//   - Role: Short name the instructions template uses to refer to the tool
type ToolDefinition struct {
	Tool    mcp.Tool
	Handler ToolHandler
	Role    string
}

// ServerDependencies holds all dependencies needed to create the MCP server.
//
// Fields:
//   - Engine: Shared validation engine used by every tool
//   - Config: Configuration the engine was built from, served as a resource
//   - Embed: Embedded filesystem for documentation and the instructions template
//   - Version: Server version string
//   - Tools: Tool definitions
//   - Resources: Static and dynamic resources provided by the server
//   - Instructions: Rendered instructions sent to clients on initialization
//
// This struct is used internally by ServerBuilder and should not be instantiated directly.
type ServerDependencies struct {
	Engine       *validator.Engine
	Config       *config.Config
	Embed        templates.EmbedFS
	Version      string
	Tools        []ToolDefinition
	Resources    []server.ServerResource
	Instructions string
}

// ServerBuilder helps construct the [MCP] server with proper dependencies using a fluent interface.
//
// Example:
//
//	s, err := NewServerBuilder().
//	    WithEngine(engine).
//	    WithConfig(cfg).
//	    WithVersion("1.0.0").
//	    WithDefaultTools().
//	    WithDefaultResources().
//	    Build()
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
type ServerBuilder struct{ deps ServerDependencies }

// NewServerBuilder creates a new server builder with default empty dependencies.
func NewServerBuilder() *ServerBuilder { return &ServerBuilder{} }

// WithEngine sets the validation engine shared by all tools.
func (b *ServerBuilder) WithEngine(engine *validator.Engine) *ServerBuilder {
	b.deps.Engine = engine
	return b
}

// WithConfig sets the configuration exposed through the config resource.
func (b *ServerBuilder) WithConfig(cfg *config.Config) *ServerBuilder {
	b.deps.Config = cfg
	return b
}

// WithEmbed sets the embedded filesystem for documentation resources.
func (b *ServerBuilder) WithEmbed(embed templates.EmbedFS) *ServerBuilder {
	b.deps.Embed = embed
	return b
}

// WithVersion sets the server version.
func (b *ServerBuilder) WithVersion(version string) *ServerBuilder {
	b.deps.Version = version
	return b
}

// WithTools adds tools to the server.
func (b *ServerBuilder) WithTools(tools ...ToolDefinition) *ServerBuilder {
	b.deps.Tools = append(b.deps.Tools, tools...)
	return b
}

// WithResources adds resources to the server.
func (b *ServerBuilder) WithResources(resources ...server.ServerResource) *ServerBuilder {
	b.deps.Resources = append(b.deps.Resources, resources...)
	return b
}

// WithInstructions sets the instructions returned in the initialize response.
func (b *ServerBuilder) WithInstructions(instructions string) *ServerBuilder {
	b.deps.Instructions = instructions
	return b
}

// WithDefaultTools adds the keybox tools bound to the configured engine.
// WithEngine must be called first.
func (b *ServerBuilder) WithDefaultTools() *ServerBuilder {
	b.deps.Tools = append(b.deps.Tools, createTools(&b.deps)...)
	return b
}

// WithDefaultResources adds the built-in resources bound to the configured
// engine, config and embedded filesystem.
func (b *ServerBuilder) WithDefaultResources() *ServerBuilder {
	b.deps.Resources = append(b.deps.Resources, createResources(&b.deps)...)
	return b
}

// Build creates the [MCP] server with all configured dependencies.
//
// Returns:
//   - A pointer to the configured MCPServer instance
//   - [ErrNoEngine] when no engine was supplied
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
func (b *ServerBuilder) Build() (*server.MCPServer, error) {
	if b.deps.Engine == nil {
		return nil, ErrNoEngine
	}

	opts := []server.ServerOption{
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(true, true),
	}
	if b.deps.Instructions != "" {
		opts = append(opts, server.WithInstructions(b.deps.Instructions))
	}

	s := server.NewMCPServer(ServerName, b.deps.Version, opts...)

	for _, tool := range b.deps.Tools {
		s.AddTool(tool.Tool, tool.Handler)
	}

	for _, resource := range b.deps.Resources {
		s.AddResource(resource.Resource, resource.Handler)
	}

	return s, nil
}
