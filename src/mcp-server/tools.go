// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// createTools returns the tool definitions bound to svc.
//
// The tools are:
//   - build_chain: builds and scores the chain of a certificate
//   - verify_chain_policy: builds a chain and checks it under a policy
//   - list_store: lists the certificates of a system store
//   - add_certificate: adds certificates to a system store
//   - delete_certificate: removes a certificate by thumbprint
//   - get_resource_usage: reports memory and chain cache statistics
func createTools(svc *Service) []ToolDefinition {
	certificateArg := mcp.WithString("certificate",
		mcp.Required(),
		mcp.Description("Certificate file path, PEM text or base64-encoded DER. Certificates after the first are untrusted intermediates"),
	)
	storeArg := mcp.WithString("store",
		mcp.Description("System store: 'root', 'ca', 'my' or 'trust' (default: ca)"),
		mcp.Enum("root", "ca", "my", "trust"),
		mcp.DefaultString("ca"),
	)

	return []ToolDefinition{
		{
			Tool: mcp.NewTool("build_chain",
				mcp.WithDescription("Build the best certificate chain against the trust store and report its trust status"),
				certificateArg,
				mcp.WithString("format",
					mcp.Description("Output format: 'json', 'tree' or 'table' (default: json)"),
					mcp.Enum("json", "tree", "table"),
					mcp.DefaultString("json"),
				),
				mcp.WithString("at",
					mcp.Description("Validation time in RFC 3339 (default: now)"),
				),
				mcp.WithBoolean("lower_quality",
					mcp.Description("Also return the lower quality chains explored (default: false)"),
					mcp.DefaultBool(false),
				),
				mcp.WithBoolean("retrieve_issuers",
					mcp.Description("Download missing issuers from authority information access URLs (default: false)"),
					mcp.DefaultBool(false),
				),
			),
			Handler: svc.handleBuildChain,
			Role:    "chainBuilder",
		},
		{
			Tool: mcp.NewTool("verify_chain_policy",
				mcp.WithDescription("Build a certificate chain and verify it under a chain policy"),
				certificateArg,
				mcp.WithString("policy",
					mcp.Description("Policy: 'base', 'authenticode', 'ssl', 'basic-constraints' or a numeric id (default: base)"),
					mcp.DefaultString("base"),
				),
				mcp.WithString("server_name",
					mcp.Description("Host name the ssl policy matches against the leaf"),
				),
				mcp.WithBoolean("client",
					mcp.Description("Check client instead of server authentication usage (default: false)"),
					mcp.DefaultBool(false),
				),
				mcp.WithBoolean("allow_unknown_ca",
					mcp.Description("Accept chains that end in an untrusted root (default: false)"),
					mcp.DefaultBool(false),
				),
				mcp.WithBoolean("ignore_time",
					mcp.Description("Accept expired certificates (default: false)"),
					mcp.DefaultBool(false),
				),
			),
			Handler: svc.handleVerifyChainPolicy,
			Role:    "policyVerifier",
		},
		{
			Tool: mcp.NewTool("list_store",
				mcp.WithDescription("List the certificates held by a system store"),
				storeArg,
			),
			Handler: svc.handleListStore,
			Role:    "storeLister",
		},
		{
			Tool: mcp.NewTool("add_certificate",
				mcp.WithDescription("Add certificates to a persistent system store"),
				certificateArg,
				storeArg,
				mcp.WithString("disposition",
					mcp.Description("Duplicate handling: 'always', 'new', 'replace', 'replace-inherit' or 'use-existing' (default: use-existing)"),
					mcp.DefaultString("use-existing"),
				),
			),
			Handler: svc.handleAddCertificate,
			Role:    "storeWriter",
		},
		{
			Tool: mcp.NewTool("delete_certificate",
				mcp.WithDescription("Delete a certificate from a persistent system store by SHA-1 thumbprint"),
				mcp.WithString("sha1",
					mcp.Required(),
					mcp.Description("Hex SHA-1 thumbprint, colons allowed"),
				),
				storeArg,
			),
			Handler: svc.handleDeleteCertificate,
			Role:    "storeRemover",
		},
		{
			Tool: mcp.NewTool("get_resource_usage",
				mcp.WithDescription("Get resource usage statistics including memory, GC and chain cache information"),
				mcp.WithBoolean("detailed",
					mcp.Description("Include detailed memory breakdown (default: false)"),
					mcp.DefaultBool(false),
				),
				mcp.WithString("format",
					mcp.Description("Output format: 'json' or 'markdown' (default: 'json')"),
					mcp.DefaultString("json"),
				),
			),
			Handler: svc.handleGetResourceUsage,
			Role:    "resourceMonitor",
		},
	}
}
