// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package config

import (
	"context"
	"crypto/x509"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	x509certs "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/certs"
	x509chain "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/chain"
	x509store "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/store"
	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/testpki"
	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/trusterr"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	tests := []struct {
		name  string
		file  string
		body  string
		check func(t *testing.T, c *Config)
	}{
		{
			name: "json",
			file: "config.json",
			body: `{"engine":{"maxAlternates":-1,"urlRetrievalTimeoutSeconds":3},"output":{"format":"json"},
				"stores":{"root":{"kind":"sqlite","path":"roots.db"}}}`,
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, -1, c.Engine.MaxAlternates)
				assert.Equal(t, 3*time.Second, c.URLRetrievalTimeout())
				assert.Equal(t, FormatJSON, c.Output.Format)
				assert.Equal(t, Source{Kind: KindSQLite, Path: "roots.db"}, c.Stores.Root)
				assert.Equal(t, KindMemory, c.Stores.CA.Kind)
			},
		},
		{
			name: "yaml",
			file: "config.yml",
			body: "engine:\n  cycleDetectionModulus: 4\nstores:\n  ca:\n    kind: dir\n    path: /var/lib/ca\n    readOnly: true\nlogging:\n  verbose: true\n",
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, 4, c.Engine.CycleDetectionModulus)
				assert.Equal(t, Source{Kind: KindDir, Path: "/var/lib/ca", ReadOnly: true}, c.Stores.CA)
				assert.True(t, c.Logging.Verbose)
				assert.Equal(t, FormatTree, c.Output.Format)
			},
		},
		{
			name: "defaults fill gaps",
			file: "empty.json",
			body: `{"output":{"format":"xml"}}`,
			check: func(t *testing.T, c *Config) {
				assert.Equal(t, x509chain.DefaultCycleDetectionModulus, c.Engine.CycleDetectionModulus)
				assert.Equal(t, x509chain.DefaultMaxAlternates, c.Engine.MaxAlternates)
				assert.Equal(t, x509chain.DefaultMaxCachedChains, c.Engine.MaximumCachedCertificates)
				assert.Equal(t, x509chain.DefaultURLRetrievalTimeout, c.URLRetrievalTimeout())
				assert.Equal(t, FormatTree, c.Output.Format)
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Load(writeFile(t, tt.file, tt.body))
			require.NoError(t, err)
			tt.check(t, c)
		})
	}
}

func TestLoad_Env(t *testing.T) {
	path := writeFile(t, "env.yaml", "output:\n  format: table\n")
	t.Setenv(EnvConfigFile, path)
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, FormatTable, c.Output.Format)

	t.Setenv(EnvConfigFile, "")
	c, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), c)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		path func(t *testing.T) string
		want string
	}{
		{name: "missing file", path: func(t *testing.T) string { return filepath.Join(t.TempDir(), "nope.json") }, want: "failed to read config file"},
		{name: "bad json", path: func(t *testing.T) string { return writeFile(t, "c.json", "{") }, want: "failed to parse JSON config file"},
		{name: "bad yaml", path: func(t *testing.T) string { return writeFile(t, "c.yaml", "engine: [") }, want: "failed to parse YAML config file"},
		{name: "unknown kind", path: func(t *testing.T) string {
			return writeFile(t, "c.json", `{"stores":{"trust":{"kind":"registry"}}}`)
		}, want: "stores.trust"},
		{name: "missing path", path: func(t *testing.T) string {
			return writeFile(t, "c.json", `{"stores":{"additional":[{"kind":"file"}]}}`)
		}, want: "stores.additional[0]: file store needs a path"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(tt.path(t))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestOpenStores(t *testing.T) {
	root := testpki.Root(t, "Config Root")
	inter := testpki.Intermediate(t, "Config Intermediate", root)
	dir := t.TempDir()
	bundle := filepath.Join(dir, "ca.pem")
	pem := x509certs.New().EncodeMultiplePEM([]*x509.Certificate{inter.Cert, inter.Cert})
	require.NoError(t, os.WriteFile(bundle, pem, 0o600))

	c := Default()
	c.Stores.Root = Source{Kind: KindSQLite, Path: filepath.Join(dir, "roots.db")}
	c.Stores.CA = Source{Kind: KindFile, Path: bundle, ReadOnly: true}
	c.Stores.Trust = Source{Kind: KindDir, Path: filepath.Join(dir, "trust")}
	require.NoError(t, c.Validate())

	ctx := context.Background()
	stores, err := c.OpenStores(ctx, nil)
	require.NoError(t, err)

	got, err := x509store.AddCertificate(stores.Root, root.Cert, x509store.AddNew)
	require.NoError(t, err)
	got.Release()

	n, err := x509store.Count(stores.CA)
	require.NoError(t, err)
	assert.Equal(t, 1, n, "duplicate bundle entries collapse")
	_, err = x509store.AddCertificate(stores.CA, root.Cert, x509store.AlwaysAdd)
	assert.ErrorIs(t, err, trusterr.ErrAccessDenied)

	e, err := x509chain.NewEngine(c.EngineConfig(stores))
	require.NoError(t, err)
	leaf, err := x509store.AddCertificate(stores.My, testpki.Leaf(t, "config.example", inter).Cert, x509store.AlwaysAdd)
	require.NoError(t, err)
	cc, err := e.BuildChain(ctx, leaf, time.Time{}, nil, 0)
	require.NoError(t, err)
	assert.Zero(t, cc.Status.Errors)
	assert.Equal(t, x509chain.QualityHighest, cc.Quality())
	cc.Free()
	leaf.Release()
	require.NoError(t, e.Close())
	require.NoError(t, stores.Close())

	// The sqlite root store was committed on close.
	reopened, err := c.Stores.Root.Open(ctx, "root", nil)
	require.NoError(t, err)
	defer reopened.Close()
	n, err = x509store.Count(reopened)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestOpenStores_Failure(t *testing.T) {
	c := Default()
	c.Stores.Additional = []Source{{Kind: KindFile, Path: filepath.Join(t.TempDir(), "missing.pem")}}
	_, err := c.OpenStores(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "additional store 0")
}
