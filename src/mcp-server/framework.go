// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/H0llyW00dzZ/x509-trust-store/src/mcp-server/templates"
)

// serverName is reported to MCP clients during initialization.
const serverName = "X.509 Trust Store"

// ToolHandler is the mcp-go tool handler signature.
type ToolHandler = func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error)

// ToolDefinition pairs a tool with its handler. Role names the tool inside
// the instruction template.
type ToolDefinition struct {
	Tool    mcp.Tool
	Handler ToolHandler
	Role    string
}

// ServerDependencies holds everything needed to assemble the MCP server.
type ServerDependencies struct {
	Version      string
	Service      *Service
	Embed        templates.EmbedFS
	Tools        []ToolDefinition
	Resources    []server.ServerResource
	Prompts      []server.ServerPrompt
	Instructions string
}

// ServerBuilder assembles an MCP server step by step.
//
// Example:
//
//	s, err := NewServerBuilder().
//		WithVersion(version).
//		WithService(svc).
//		WithDefaultTools().
//		Build()
type ServerBuilder struct{ deps ServerDependencies }

// NewServerBuilder returns an empty builder.
func NewServerBuilder() *ServerBuilder {
	return &ServerBuilder{deps: ServerDependencies{Embed: templates.MagicEmbed}}
}

// WithVersion sets the version reported to clients.
func (b *ServerBuilder) WithVersion(version string) *ServerBuilder {
	b.deps.Version = version
	return b
}

// WithService sets the trust store the tools operate on.
func (b *ServerBuilder) WithService(svc *Service) *ServerBuilder {
	b.deps.Service = svc
	return b
}

// WithEmbed replaces the template filesystem.
func (b *ServerBuilder) WithEmbed(fs templates.EmbedFS) *ServerBuilder {
	b.deps.Embed = fs
	return b
}

// WithTools adds tools.
func (b *ServerBuilder) WithTools(tools ...ToolDefinition) *ServerBuilder {
	b.deps.Tools = append(b.deps.Tools, tools...)
	return b
}

// WithResources adds resources.
func (b *ServerBuilder) WithResources(resources ...server.ServerResource) *ServerBuilder {
	b.deps.Resources = append(b.deps.Resources, resources...)
	return b
}

// WithPrompts adds prompts.
func (b *ServerBuilder) WithPrompts(prompts ...server.ServerPrompt) *ServerBuilder {
	b.deps.Prompts = append(b.deps.Prompts, prompts...)
	return b
}

// WithInstructions sets the server instructions sent on initialize.
func (b *ServerBuilder) WithInstructions(instructions string) *ServerBuilder {
	b.deps.Instructions = instructions
	return b
}

// WithDefaultTools adds the built-in tools, resources and prompts. It needs
// the service to be set first.
func (b *ServerBuilder) WithDefaultTools() *ServerBuilder {
	if b.deps.Service == nil {
		return b
	}
	b.deps.Tools = append(b.deps.Tools, createTools(b.deps.Service)...)
	b.deps.Resources = append(b.deps.Resources, createResources(b.deps.Service, b.deps.Embed, b.deps.Version)...)
	b.deps.Prompts = append(b.deps.Prompts, createPrompts()...)
	return b
}

// ErrNoService is returned by Build when no service was set.
var ErrNoService = errors.New("mcpserver: no trust store service configured")

// Build creates the MCP server. Instructions are rendered from the template
// filesystem when none were set.
func (b *ServerBuilder) Build() (*server.MCPServer, error) {
	if b.deps.Service == nil {
		return nil, ErrNoService
	}
	instructions := b.deps.Instructions
	if instructions == "" {
		var err error
		if instructions, err = loadInstructions(b.deps.Embed, b.deps.Tools); err != nil {
			return nil, err
		}
	}

	s := server.NewMCPServer(
		serverName,
		b.deps.Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithInstructions(instructions),
		server.WithRecovery(),
	)
	for _, tool := range b.deps.Tools {
		s.AddTool(tool.Tool, tool.Handler)
	}
	for _, resource := range b.deps.Resources {
		s.AddResource(resource.Resource, resource.Handler)
	}
	for _, prompt := range b.deps.Prompts {
		s.AddPrompt(prompt.Prompt, prompt.Handler)
	}
	return s, nil
}
