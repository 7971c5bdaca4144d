// Copyright (c) 2025 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// mcp-server exposes keybox validation to [MCP] clients over stdio.
//
// # Usage
//
//	mcp-server [CONFIG_FILE]
//
// Without an argument the configuration is read from the file named by
// KEYBOX_CHECKER_CONFIG_FILE, or the built-in defaults are used.
//
// Example client entry:
//
//	{
//	  "mcpServers": {
//	    "keybox-checker": {
//	      "command": "mcp-server",
//	      "args": ["/etc/keybox-checker/config.yaml"]
//	    }
//	  }
//	}
//
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
package main
