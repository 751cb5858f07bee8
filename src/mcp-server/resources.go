// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/config"
	x509store "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/store"
	"github.com/H0llyW00dzZ/x509-trust-store/src/mcp-server/templates"
)

// createResources returns the static and dynamic resources:
//   - config://template: an example configuration file
//   - info://version: server name and version
//   - docs://store-sources: how store sources are configured
//   - status://stores: per store certificate counts
func createResources(svc *Service, fs templates.EmbedFS, version string) []server.ServerResource {
	return []server.ServerResource{
		{
			Resource: mcp.NewResource("config://template", "Configuration Template",
				mcp.WithResourceDescription("Example trust store configuration with every default filled in"),
				mcp.WithMIMEType("application/json"),
			),
			Handler: handleConfigResource,
		},
		{
			Resource: mcp.NewResource("info://version", "Version Information",
				mcp.WithResourceDescription("Server name and version"),
				mcp.WithMIMEType("application/json"),
			),
			Handler: func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
				return jsonResource(request.Params.URI, map[string]any{
					"name":     serverName,
					"version":  version,
					"type":     "MCP Server",
					"policies": svc.registry.IDs(),
				})
			},
		},
		{
			Resource: mcp.NewResource("docs://store-sources", "Store Sources",
				mcp.WithResourceDescription("Documentation of the store source kinds and duplicate dispositions"),
				mcp.WithMIMEType("text/markdown"),
			),
			Handler: func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
				content, err := fs.ReadFile("store-sources.md")
				if err != nil {
					return nil, fmt.Errorf("failed to read store sources template: %w", err)
				}
				return []mcp.ResourceContents{
					mcp.TextResourceContents{
						URI:      request.Params.URI,
						MIMEType: "text/markdown",
						Text:     string(content),
					},
				}, nil
			},
		},
		{
			Resource: mcp.NewResource("status://stores", "Store Status",
				mcp.WithResourceDescription("Certificate counts of the system stores"),
				mcp.WithMIMEType("application/json"),
			),
			Handler: svc.handleStoreStatusResource,
		},
	}
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

func handleConfigResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return jsonResource(request.Params.URI, config.Default())
}

// storeStatus is one entry of status://stores.
type storeStatus struct {
	Kind     string `json:"kind"`
	Path     string `json:"path,omitempty"`
	ReadOnly bool   `json:"readOnly,omitempty"`
	Count    int    `json:"count"`
}

func (s *Service) handleStoreStatusResource(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	status := make(map[string]storeStatus, 4)
	for _, name := range []string{"root", "ca", "my", "trust"} {
		st, src, err := s.store(name)
		if err != nil {
			return nil, err
		}
		n, err := x509store.Count(st)
		if err != nil {
			return nil, fmt.Errorf("count store %s: %w", name, err)
		}
		status[name] = storeStatus{Kind: src.Kind, Path: src.Path, ReadOnly: src.ReadOnly, Count: n}
	}
	return jsonResource(request.Params.URI, map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"stores":    status,
		"cache":     s.engine.CacheMetrics(),
	})
}
