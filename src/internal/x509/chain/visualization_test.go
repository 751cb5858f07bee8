// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	x509chain "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/testpki"
)

func TestRendering(t *testing.T) {
	root := testpki.Root(t, "Render Root")
	inter := testpki.Intermediate(t, "Render Intermediate", root)
	leaf := testpki.Leaf(t, "render.example", inter)

	e := newEngine(t, x509chain.EngineConfig{
		Root: storeWith(t, "root", root),
		CA:   storeWith(t, "ca", inter),
	})
	cc := build(t, e, leafOf(t, leaf), 0)
	chain := cc.Primary()

	t.Run("ascii tree", func(t *testing.T) {
		lines := strings.Split(strings.TrimSpace(chain.RenderASCIITree()), "\n")
		require.Len(t, lines, 3)
		assert.Equal(t, "├── [✓] render.example (End-Entity Certificate)", lines[0])
		assert.Equal(t, "├── [✓] Render Intermediate (Intermediate CA Certificate)", lines[1])
		assert.Equal(t, "└── [✓] Render Root (Root CA Certificate)", lines[2])
	})

	t.Run("table", func(t *testing.T) {
		table := chain.RenderTable()
		for _, want := range []string{"ROLE", "VALID UNTIL", "render.example", "Render Intermediate", "256-bit ECDSA", "trusted-root"} {
			assert.Contains(t, table, want)
		}
	})

	t.Run("json", func(t *testing.T) {
		raw, err := cc.ToJSON()
		require.NoError(t, err)

		var view x509chain.ContextView
		require.NoError(t, json.Unmarshal(raw, &view))
		assert.Equal(t, x509chain.QualityHighest, view.Quality)
		require.Len(t, view.Chains, 1)
		els := view.Chains[0].Elements
		require.Len(t, els, 3)
		assert.Equal(t, "CN=render.example", els[0].Subject)
		assert.Equal(t, []string{"1.3.6.1.5.5.7.3.1"}, els[0].ExtendedKeyUsage)
		assert.Len(t, els[0].SHA1, 40)
		assert.Equal(t, "ECDSA", els[2].PublicKeyAlgorithm)
		assert.Equal(t, []string{"self-signed", "trusted-root"}, els[2].Info)
		assert.Contains(t, view.Info, "trusted-root")
	})
}

func TestRendering_Problems(t *testing.T) {
	leaf := testpki.Leaf(t, "orphan.example", testpki.Root(t, "Missing"))
	e := newEngine(t, x509chain.EngineConfig{})
	cc := build(t, e, leafOf(t, leaf), 0)

	tree := cc.Primary().RenderASCIITree()
	assert.Equal(t, "└── [✗] orphan.example (End-Entity Certificate) partial-chain\n", tree)

	empty := &x509chain.SimpleChain{}
	assert.Equal(t, "No certificates in chain", empty.RenderASCIITree())
	assert.Equal(t, "No certificates to display", empty.RenderTable())
}
