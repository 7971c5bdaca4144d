// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/H0llyW00dzZ/keybox-checker/src/config"
	"github.com/H0llyW00dzZ/keybox-checker/src/internal/validator"
	"github.com/H0llyW00dzZ/keybox-checker/src/logger"
	"github.com/H0llyW00dzZ/keybox-checker/src/mcp-server/templates"
	"github.com/H0llyW00dzZ/keybox-checker/src/version"
	"github.com/mark3labs/mcp-go/server"
)

var appVersion = version.Version // default version

// GetVersion returns the version the server was started with, or the
// package default before [Run] is called.
func GetVersion() string {
	return appVersion
}

// NewServer builds the MCP server around engine with every tool and resource
// registered and the instructions rendered.
//
// Parameters:
//   - version: Server version string
//   - cfg: Configuration the engine was built from; nil serves defaults
//   - engine: Validation engine shared by all tools
//
// Returns:
//   - *server.MCPServer: Ready to be served over any transport
//   - error: If the instructions cannot be rendered or no engine was given
func NewServer(version string, cfg *config.Config, engine *validator.Engine) (*server.MCPServer, error) {
	b := NewServerBuilder().
		WithEngine(engine).
		WithConfig(cfg).
		WithEmbed(templates.MagicEmbed).
		WithVersion(version)
	if engine == nil {
		return b.Build()
	}

	b = b.WithDefaultTools().WithDefaultResources()

	instructions, err := loadInstructions(templates.MagicEmbed, &b.deps)
	if err != nil {
		return nil, fmt.Errorf("failed to load instructions: %w", err)
	}

	return b.WithInstructions(instructions).Build()
}

// Run starts the MCP server over stdio.
//
// Parameters:
//   - version: Version string to set for the server
//   - configPath: Configuration file; empty falls back to the
//     KEYBOX_CHECKER_CONFIG_FILE environment variable and then to defaults
//
// Returns:
//   - error: Startup or transport error, or a wrapped context.Canceled after
//     SIGINT or SIGTERM
//
// Logs go to stderr as JSON since stdout carries the protocol. They are
// silent unless the configured level is debug.
func Run(version, configPath string) error {
	appVersion = version

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	log := logger.NewStructuredLogger(os.Stderr, cfg.Log.Level != "debug")
	if err := log.SetLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if err := log.SetFormat(cfg.Log.Format); err != nil {
		return fmt.Errorf("config error: %w", err)
	}

	engine, err := cfg.NewEngine(version, nil, log.WithField("pkg", "mcpserver"))
	if err != nil {
		return fmt.Errorf("failed to load resources: %w", err)
	}

	s, err := NewServer(version, cfg, engine)
	if err != nil {
		return fmt.Errorf("failed to build server: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return serve(ctx, s, os.Stdin, os.Stdout)
}

// serve runs s over stdio until the transport ends or ctx is canceled.
func serve(ctx context.Context, s *server.MCPServer, in io.Reader, out io.Writer) error {
	stdioServer := server.NewStdioServer(s)

	errChan := make(chan error, 1)
	go func() {
		errChan <- stdioServer.Listen(ctx, in, out)
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		return fmt.Errorf("server shutdown: %w", ctx.Err())
	}
}
