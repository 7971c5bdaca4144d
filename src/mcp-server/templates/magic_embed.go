// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package templates

import (
	"embed"
	"io/fs"
)

//go:embed *.md
var embeddedFS embed.FS

// EmbedFS is the read-only view of the embedded templates used by the MCP
// server. Tests substitute their own implementation to serve broken or
// missing templates.
type EmbedFS interface {
	fs.ReadFileFS
	fs.ReadDirFS
}

// embedFS wraps [embed.FS] to implement EmbedFS.
type embedFS struct{ fs embed.FS }

func (e *embedFS) ReadFile(name string) ([]byte, error)       { return e.fs.ReadFile(name) }
func (e *embedFS) ReadDir(name string) ([]fs.DirEntry, error) { return e.fs.ReadDir(name) }
func (e *embedFS) Open(name string) (fs.File, error)          { return e.fs.Open(name) }

// MagicEmbed is the embedded filesystem used for accessing template files:
// keybox-format.md and keybox_instructions.md.
//
// Example usage for reading the MCP server instructions template:
//
//	templateBytes, err := templates.MagicEmbed.ReadFile("keybox_instructions.md")
//	if err != nil {
//		return "", fmt.Errorf("failed to load instructions template: %w", err)
//	}
var MagicEmbed EmbedFS = &embedFS{fs: embeddedFS}
