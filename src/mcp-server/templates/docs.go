// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package templates embeds the markdown files served by the MCP server: the
// server instruction template and the store source documentation.
//
// Example usage:
//
//	content, err := templates.MagicEmbed.ReadFile("store-sources.md")
//	if err != nil {
//		return fmt.Errorf("failed to read store sources: %w", err)
//	}
package templates
