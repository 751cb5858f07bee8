// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// createPrompts returns the guided workflows.
func createPrompts() []server.ServerPrompt {
	return []server.ServerPrompt{
		{
			Prompt: mcp.NewPrompt("chain-troubleshooting",
				mcp.WithPromptDescription("Diagnose why a certificate chain is partial, untrusted or rejected"),
				mcp.WithArgument("certificate_path",
					mcp.ArgumentDescription("Path to certificate file or base64-encoded certificate data"),
					mcp.RequiredArgument(),
				),
				mcp.WithArgument("server_name",
					mcp.ArgumentDescription("Host name the certificate is served for"),
				),
			),
			Handler: handleChainTroubleshootingPrompt,
		},
		{
			Prompt: mcp.NewPrompt("store-audit",
				mcp.WithPromptDescription("Review the contents of a system store for expired or unexpected certificates"),
				mcp.WithArgument("store",
					mcp.ArgumentDescription("System store to audit: root, ca, my or trust (default: root)"),
				),
			),
			Handler: handleStoreAuditPrompt,
		},
	}
}

func handleChainTroubleshootingPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	certPath := request.Params.Arguments["certificate_path"]
	if certPath == "" {
		return nil, fmt.Errorf("certificate_path argument is required")
	}
	policyStep := "3. Verify the chain with verify_chain_policy using the base policy to get the rejection code and the element that caused it."
	if name := request.Params.Arguments["server_name"]; name != "" {
		policyStep = fmt.Sprintf("3. Verify the chain with verify_chain_policy using policy ssl and server_name %q to check name and key usage as well.", name)
	}

	messages := []mcp.PromptMessage{
		mcp.NewPromptMessage(mcp.RoleAssistant, mcp.NewTextContent(fmt.Sprintf(
			"I'll diagnose the certificate chain for: %s\n\nWe'll work from the chain the engine builds toward the policy verdict.", certPath))),
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(
			"1. Build the chain with build_chain in tree format. A partial-chain tail means an issuer is missing from the stores.")),
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(
			"2. If the chain is partial, build it again with retrieve_issuers enabled, or add the missing intermediate to the ca store with add_certificate.")),
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(policyStep)),
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(
			"4. An untrusted-root verdict means the root is not in the root store. Confirm with list_store before adding it.")),
	}
	return mcp.NewGetPromptResult("Certificate chain troubleshooting", messages), nil
}

func handleStoreAuditPrompt(ctx context.Context, request mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	store := request.Params.Arguments["store"]
	if store == "" {
		store = "root"
	}
	messages := []mcp.PromptMessage{
		mcp.NewPromptMessage(mcp.RoleAssistant, mcp.NewTextContent(fmt.Sprintf(
			"I'll audit the %s store.", store))),
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(fmt.Sprintf(
			"1. List the %s store with list_store and note every certificate whose notAfter is in the past or within 30 days.", store))),
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(
			"2. Flag entries that are not CA certificates; only CA certificates belong in the root and ca stores.")),
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(
			"3. Propose delete_certificate calls by sha1 for the entries that should go, and wait for confirmation before running them.")),
	}
	return mcp.NewGetPromptResult(fmt.Sprintf("Audit of the %s store", store), messages), nil
}
