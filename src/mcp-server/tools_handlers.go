// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package mcpserver

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	x509chain "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/chain"
	x509ctx "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/context"
	x509policy "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/policy"
	x509store "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/store"
)

// structuredResult returns v as both text and structured content.
func structuredResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to encode result: %v", err)), nil
	}
	return &mcp.CallToolResult{
		Content:           []mcp.Content{mcp.NewTextContent(string(data))},
		StructuredContent: v,
	}, nil
}

// buildFromRequest decodes the certificate argument and builds its chain.
// A non-nil result carries a tool error for the client.
func (s *Service) buildFromRequest(ctx context.Context, request mcp.CallToolRequest, flags x509chain.Flags) (*x509chain.ChainContext, *mcp.CallToolResult) {
	input, err := request.RequireString("certificate")
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("certificate parameter required: %v", err))
	}
	data, err := readCertificateInput(input)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("failed to read certificate: %v", err))
	}

	var at time.Time
	if v := request.GetString("at", ""); v != "" {
		if at, err = time.Parse(time.RFC3339, v); err != nil {
			return nil, mcp.NewToolResultError(fmt.Sprintf("invalid at value: %v", err))
		}
	}

	cc, err := s.engine.BuildEncoded(ctx, data, at, flags)
	if err != nil {
		return nil, mcp.NewToolResultError(fmt.Sprintf("failed to build chain: %v", err))
	}
	return cc, nil
}

func (s *Service) handleBuildChain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var flags x509chain.Flags
	if request.GetBool("lower_quality", false) {
		flags |= x509chain.ReturnLowerQuality
	}
	if request.GetBool("retrieve_issuers", false) {
		flags |= x509chain.RetrieveIssuers
	}
	cc, errResult := s.buildFromRequest(ctx, request, flags)
	if errResult != nil {
		return errResult, nil
	}
	defer cc.Free()

	switch request.GetString("format", "json") {
	case "tree":
		var sb strings.Builder
		fmt.Fprintf(&sb, "Chain quality: %s\n\n", cc.Quality())
		for _, chain := range cc.Chains {
			sb.WriteString(chain.RenderASCIITree())
		}
		return mcp.NewToolResultText(sb.String()), nil
	case "table":
		var sb strings.Builder
		fmt.Fprintf(&sb, "Chain quality: %s\n\n", cc.Quality())
		for _, chain := range cc.Chains {
			sb.WriteString(chain.RenderTable())
		}
		return mcp.NewToolResultText(sb.String()), nil
	}
	return structuredResult(cc.View())
}

// verdictResult is the structured form of a policy verdict.
type verdictResult struct {
	Policy       string                `json:"policy"`
	Status       string                `json:"status"`
	Code         uint32                `json:"code"`
	Accepted     bool                  `json:"accepted"`
	ChainIndex   int                   `json:"chainIndex"`
	ElementIndex int                   `json:"elementIndex"`
	Chain        x509chain.ContextView `json:"chain"`
}

func (s *Service) handleVerifyChainPolicy(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cc, errResult := s.buildFromRequest(ctx, request, 0)
	if errResult != nil {
		return errResult, nil
	}
	defer cc.Free()

	params := &x509policy.Params{
		ServerName: request.GetString("server_name", ""),
		Client:     request.GetBool("client", false),
	}
	if request.GetBool("allow_unknown_ca", false) {
		params.Flags |= x509policy.AllowUnknownCA
	}
	if request.GetBool("ignore_time", false) {
		params.Flags |= x509policy.IgnoreNotTimeValid
	}

	id := x509policy.ParseID(request.GetString("policy", "base"))
	v, err := s.registry.Verify(id, cc, params)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("policy check failed: %v", err)), nil
	}
	return structuredResult(verdictResult{
		Policy:       string(id),
		Status:       v.Status.String(),
		Code:         uint32(v.Status),
		Accepted:     v.Status == x509policy.OK,
		ChainIndex:   v.ChainIndex,
		ElementIndex: v.ElementIndex,
		Chain:        cc.View(),
	})
}

// storeEntry is the list form of a stored certificate.
type storeEntry struct {
	SHA1         string    `json:"sha1"`
	Subject      string    `json:"subject"`
	Issuer       string    `json:"issuer"`
	NotAfter     time.Time `json:"notAfter"`
	IsCA         bool      `json:"isCA"`
	FriendlyName string    `json:"friendlyName,omitempty"`
}

func entryOf(c x509ctx.Context) storeEntry {
	cert := c.Cert()
	e := storeEntry{
		Subject:  cert.Subject.String(),
		Issuer:   cert.Issuer.String(),
		NotAfter: cert.NotAfter.UTC(),
		IsCA:     cert.IsCA,
	}
	if h, err := x509ctx.Hash(c); err == nil {
		e.SHA1 = hex.EncodeToString(h)
	}
	if name, err := x509ctx.GetProperty(c, x509ctx.PropFriendlyName); err == nil {
		e.FriendlyName = string(name)
	}
	return e
}

// storeListing is the structured result of list_store.
type storeListing struct {
	Store        string       `json:"store"`
	Kind         string       `json:"kind"`
	Count        int          `json:"count"`
	Certificates []storeEntry `json:"certificates"`
}

func (s *Service) handleListStore(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := request.GetString("store", "ca")
	st, src, err := s.store(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	listing := storeListing{Store: name, Kind: src.Kind, Certificates: []storeEntry{}}
	err = x509store.Walk(st, func(c x509ctx.Context) bool {
		listing.Certificates = append(listing.Certificates, entryOf(c))
		return ctx.Err() == nil
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to list store: %v", err)), nil
	}
	listing.Count = len(listing.Certificates)
	return structuredResult(listing)
}

// commit flushes a persistent store so changes survive a crash.
func (s *Service) commit(ctx context.Context, st x509store.Store) error {
	return st.Control(x509store.ControlCommit, ctx)
}

func (s *Service) handleAddCertificate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := request.RequireString("certificate")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("certificate parameter required: %v", err)), nil
	}
	disp, err := x509store.ParseDisposition(request.GetString("disposition", x509store.UseExisting.String()))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name := request.GetString("store", "ca")
	st, _, err := s.store(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	data, err := readCertificateInput(input)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to read certificate: %v", err)), nil
	}
	certs, err := s.codec.DecodeMultiple(data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to decode certificate: %v", err)), nil
	}

	added := make([]storeEntry, 0, len(certs))
	for _, cert := range certs {
		c, err := x509store.AddCertificate(st, cert, disp)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to add %s: %v", cert.Subject, err)), nil
		}
		added = append(added, entryOf(c))
		c.Release()
	}
	if err := s.commit(ctx, st); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to commit store: %v", err)), nil
	}
	// Chains cached before the change may now be stale.
	s.engine.FlushCache()
	s.log.Printf("added %d certificate(s) to store %s", len(added), name)

	return structuredResult(storeListing{Store: name, Count: len(added), Certificates: added})
}

func (s *Service) handleDeleteCertificate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	thumb, err := request.RequireString("sha1")
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("sha1 parameter required: %v", err)), nil
	}
	hash, err := hex.DecodeString(strings.ReplaceAll(thumb, ":", ""))
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("invalid sha1 thumbprint: %v", err)), nil
	}
	name := request.GetString("store", "ca")
	st, _, err := s.store(name)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	c, err := x509store.FindByHash(st, hash)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("certificate %s not found in store %s", thumb, name)), nil
	}
	entry := entryOf(c)
	err = st.Delete(c)
	c.Release()
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to delete certificate: %v", err)), nil
	}
	if err := s.commit(ctx, st); err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to commit store: %v", err)), nil
	}
	s.engine.FlushCache()
	s.log.Printf("deleted %s from store %s", entry.SHA1, name)

	return structuredResult(storeListing{Store: name, Count: 1, Certificates: []storeEntry{entry}})
}

func (s *Service) handleGetResourceUsage(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	data := CollectResourceUsage(request.GetBool("detailed", false), s.engine)
	if request.GetString("format", "json") == "markdown" {
		return mcp.NewToolResultText(FormatResourceUsageAsMarkdown(data)), nil
	}
	return structuredResult(data)
}
