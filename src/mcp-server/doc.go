// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package mcpserver exposes the [X509] trust store over the Model Context
// Protocol ([MCP]). A [Service] owns the configured system stores, the chain
// engine and the policy registry; [ServerBuilder] turns it into an mcp-go
// server with tools for chain building, policy verification and store
// management, plus resources and prompts describing them.
//
// Store changes made through the tools are committed to persistent stores
// as they happen and flush the engine's end certificate cache.
//
// [X509]: https://grokipedia.com/page/X.509
// [MCP]: https://modelcontextprotocol.io/docs/getting-started/intro
package mcpserver
