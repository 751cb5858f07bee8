// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509policy_test

import (
	"context"
	"crypto/sha256"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	x509chain "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/chain"
	x509ctx "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/context"
	x509policy "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/policy"
	x509store "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/store"
	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/testpki"
	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/trusterr"
)

// synthetic builds a chain context with the given per element errors. The
// chain and context status are folded from the elements.
func synthetic(t *testing.T, chains ...[]x509chain.TrustError) *x509chain.ChainContext {
	t.Helper()
	root := testpki.Root(t, "Synthetic")
	cc := &x509chain.ChainContext{}
	for _, errs := range chains {
		chain := &x509chain.SimpleChain{}
		for _, e := range errs {
			d, err := x509ctx.FromCertificate(root.Cert)
			require.NoError(t, err)
			t.Cleanup(func() { d.Release() })
			chain.Elements = append(chain.Elements, &x509chain.Element{
				Context: d,
				Status:  x509chain.TrustStatus{Errors: e},
			})
			chain.Status.Errors |= e
		}
		cc.Chains = append(cc.Chains, chain)
		cc.Status.Errors |= chain.Status.Errors
	}
	return cc
}

func TestBase_PriorityOrder(t *testing.T) {
	const (
		sig       = x509chain.NotSignatureValid
		untrusted = x509chain.IsUntrustedRoot
		cyclic    = x509chain.IsCyclic
		partial   = x509chain.IsPartialChain
		expired   = x509chain.NotTimeValid
	)

	tests := []struct {
		name   string
		chains [][]x509chain.TrustError
		params *x509policy.Params
		want   x509policy.Verdict
	}{
		{
			name:   "clean",
			chains: [][]x509chain.TrustError{{0, 0, 0}},
			want:   x509policy.Verdict{Status: x509policy.OK, ChainIndex: -1, ElementIndex: -1},
		},
		{
			name:   "signature beats untrusted root",
			chains: [][]x509chain.TrustError{{0, 0, untrusted}, {0, sig}},
			want:   x509policy.Verdict{Status: x509policy.ErrSignature, ChainIndex: 1, ElementIndex: 1},
		},
		{
			name:   "untrusted root beats cyclic",
			chains: [][]x509chain.TrustError{{0, cyclic}, {0, 0, untrusted}},
			want:   x509policy.Verdict{Status: x509policy.ErrUntrustedRoot, ChainIndex: 1, ElementIndex: 2},
		},
		{
			name:   "cyclic has no element",
			chains: [][]x509chain.TrustError{{0, 0}, {0, cyclic}},
			want:   x509policy.Verdict{Status: x509policy.ErrCyclic, ChainIndex: 1, ElementIndex: -1},
		},
		{
			name:   "partial chain",
			chains: [][]x509chain.TrustError{{0, partial}},
			want:   x509policy.Verdict{Status: x509policy.ErrChaining, ChainIndex: 0, ElementIndex: 1},
		},
		{
			name:   "time validity is not checked",
			chains: [][]x509chain.TrustError{{expired, 0}},
			want:   x509policy.Verdict{Status: x509policy.OK, ChainIndex: -1, ElementIndex: -1},
		},
		{
			name:   "unknown CA allowed",
			chains: [][]x509chain.TrustError{{0, untrusted}},
			params: &x509policy.Params{Flags: x509policy.AllowUnknownCA},
			want:   x509policy.Verdict{Status: x509policy.OK, ChainIndex: -1, ElementIndex: -1},
		},
		{
			name:   "unknown CA does not hide a bad signature",
			chains: [][]x509chain.TrustError{{sig, untrusted}},
			params: &x509policy.Params{Flags: x509policy.AllowUnknownCA},
			want:   x509policy.Verdict{Status: x509policy.ErrSignature, ChainIndex: 0, ElementIndex: 0},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := x509policy.Verify(x509policy.Base, synthetic(t, tt.chains...), tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v)
		})
	}
}

func TestBasicConstraintsPolicy(t *testing.T) {
	bad := x509chain.InvalidBasicConstraints

	v, err := x509policy.Verify(x509policy.BasicConstraints, synthetic(t, []x509chain.TrustError{bad, bad, 0}), nil)
	require.NoError(t, err)
	assert.Equal(t, x509policy.Verdict{Status: x509policy.ErrBasicConstraints, ChainIndex: 0, ElementIndex: 0}, v)

	v, err = x509policy.Verify(x509policy.BasicConstraints, synthetic(t, []x509chain.TrustError{x509chain.IsUntrustedRoot}), nil)
	require.NoError(t, err)
	assert.Equal(t, x509policy.OK, v.Status, "other errors are ignored")

	v, err = x509policy.Verify(x509policy.BasicConstraints, synthetic(t, []x509chain.TrustError{bad}),
		&x509policy.Params{Flags: x509policy.IgnoreInvalidBasicConstraints})
	require.NoError(t, err)
	assert.Equal(t, x509policy.OK, v.Status)
}

// pki is a small hierarchy with a built engine.
type pki struct {
	root, other *testpki.Cert
	engine      *x509chain.Engine
}

func newPKI(t *testing.T) *pki {
	t.Helper()
	p := &pki{root: testpki.Root(t, "Policy Root"), other: testpki.Root(t, "Other Root")}
	roots := x509store.NewMemory()
	t.Cleanup(func() { roots.Close() })
	got, err := x509store.AddCertificate(roots, p.root.Cert, x509store.AlwaysAdd)
	require.NoError(t, err)
	got.Release()

	cas := x509store.NewMemory()
	t.Cleanup(func() { cas.Close() })
	got, err = x509store.AddCertificate(cas, p.other.Cert, x509store.AlwaysAdd)
	require.NoError(t, err)
	got.Release()

	p.engine, err = x509chain.NewEngine(x509chain.EngineConfig{Root: roots, CA: cas})
	require.NoError(t, err)
	t.Cleanup(func() { p.engine.Close() })
	return p
}

func (p *pki) build(t *testing.T, leaf *testpki.Cert, at time.Time) *x509chain.ChainContext {
	t.Helper()
	d, err := x509ctx.FromCertificate(leaf.Cert)
	require.NoError(t, err)
	t.Cleanup(func() { d.Release() })
	cc, err := p.engine.BuildChain(context.Background(), d, at, nil, 0)
	require.NoError(t, err)
	t.Cleanup(func() { cc.Free() })
	return cc
}

func TestAuthenticode_TestRoots(t *testing.T) {
	p := newPKI(t)
	cc := p.build(t, testpki.Leaf(t, "signed.example", p.other), time.Time{})
	digest := sha256.Sum256(p.other.Cert.RawSubjectPublicKeyInfo)

	tests := []struct {
		name     string
		registry *x509policy.Registry
		params   *x509policy.Params
		want     x509policy.Status
	}{
		{name: "unlisted root", registry: x509policy.NewRegistry(), want: x509policy.ErrUntrustedRoot},
		{name: "listed test root", registry: x509policy.NewRegistry(x509policy.WithTestRootKeys(digest)), want: x509policy.ErrUntrustedTestRoot},
		{
			name:     "test roots trusted",
			registry: x509policy.NewRegistry(x509policy.WithTestRootKeys(digest)),
			params:   &x509policy.Params{Flags: x509policy.TrustTestRoot},
			want:     x509policy.OK,
		},
		{
			name:     "flag without listing",
			registry: x509policy.NewRegistry(),
			params:   &x509policy.Params{Flags: x509policy.TrustTestRoot},
			want:     x509policy.ErrUntrustedRoot,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := tt.registry.Verify(x509policy.Authenticode, cc, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Status)
			if tt.want != x509policy.OK {
				assert.Equal(t, 1, v.ElementIndex)
			}
		})
	}

	base, err := x509policy.NewRegistry(x509policy.WithTestRootKeys(digest)).Verify(x509policy.Base, cc, nil)
	require.NoError(t, err)
	assert.Equal(t, x509policy.ErrUntrustedRoot, base.Status, "base policy ignores the allow-list")
}

func TestAuthenticode_BuiltinTestRoot(t *testing.T) {
	roots := x509policy.BuiltinTestRoots()
	require.NotEmpty(t, roots)
	testRoot := roots[0]
	assert.True(t, testRoot.IsCA)

	p := newPKI(t)
	d, err := x509ctx.FromCertificate(testRoot)
	require.NoError(t, err)
	defer d.Release()
	cc, err := p.engine.BuildChain(context.Background(), d, testRoot.NotBefore.Add(time.Hour), nil, 0)
	require.NoError(t, err)
	defer cc.Free()

	tests := []struct {
		name   string
		id     x509policy.ID
		params *x509policy.Params
		want   x509policy.Status
	}{
		{name: "base", id: x509policy.Base, want: x509policy.ErrUntrustedRoot},
		{name: "authenticode", id: x509policy.Authenticode, want: x509policy.ErrUntrustedTestRoot},
		{
			name:   "authenticode trusting test roots",
			id:     x509policy.Authenticode,
			params: &x509policy.Params{Flags: x509policy.TrustTestRoot},
			want:   x509policy.OK,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := x509policy.NewRegistry().Verify(tt.id, cc, tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Status)
		})
	}

	t.Run("process-wide registry", func(t *testing.T) {
		v, err := x509policy.Verify(x509policy.Authenticode, cc, nil)
		require.NoError(t, err)
		assert.Equal(t, x509policy.ErrUntrustedTestRoot, v.Status)
		assert.Equal(t, 0, v.ElementIndex)
	})

	assert.Equal(t, sha256.Sum256(testRoot.RawSubjectPublicKeyInfo), x509policy.TestRootKey(testRoot))
}

func TestSSL(t *testing.T) {
	p := newPKI(t)
	server := testpki.Leaf(t, "www.policy.example", p.root)
	client := testpki.Issue(t, testpki.Options{CommonName: "client", Issuer: p.root, DNSNames: []string{"client"}})

	tests := []struct {
		name   string
		leaf   *testpki.Cert
		at     time.Time
		params *x509policy.Params
		want   x509policy.Status
	}{
		{name: "matching name", leaf: server, params: &x509policy.Params{ServerName: "www.policy.example"}, want: x509policy.OK},
		{name: "no name", leaf: server, want: x509policy.OK},
		{name: "wrong name", leaf: server, params: &x509policy.Params{ServerName: "evil.example"}, want: x509policy.ErrNameMismatch},
		{
			name:   "wrong name ignored",
			leaf:   server,
			params: &x509policy.Params{ServerName: "evil.example", Flags: x509policy.IgnoreInvalidName},
			want:   x509policy.OK,
		},
		{name: "expired", leaf: server, at: time.Now().Add(30 * 24 * time.Hour), want: x509policy.ErrExpired},
		{
			name:   "expired ignored",
			leaf:   server,
			at:     time.Now().Add(30 * 24 * time.Hour),
			params: &x509policy.Params{Flags: x509policy.IgnoreNotTimeValid},
			want:   x509policy.OK,
		},
		// testpki leaves carry only serverAuth.
		{name: "client usage", leaf: client, params: &x509policy.Params{Client: true}, want: x509policy.ErrWrongUsage},
		{
			name:   "client usage ignored",
			leaf:   client,
			params: &x509policy.Params{Client: true, Flags: x509policy.IgnoreWrongUsage},
			want:   x509policy.OK,
		},
		{name: "untrusted first", leaf: testpki.Leaf(t, "x.example", p.other), params: &x509policy.Params{ServerName: "y.example"}, want: x509policy.ErrUntrustedRoot},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := x509policy.Verify(x509policy.SSL, p.build(t, tt.leaf, tt.at), tt.params)
			require.NoError(t, err)
			assert.Equal(t, tt.want, v.Status, v.Status.String())
		})
	}
}

func TestRegistry(t *testing.T) {
	r := x509policy.NewRegistry()
	assert.Equal(t, []x509policy.ID{"1", "2", "4", "5"}, r.IDs())

	cc := synthetic(t, []x509chain.TrustError{0})

	_, err := r.Verify("1.3.6.1.4.1.311.10.3.1", cc, nil)
	assert.ErrorIs(t, err, trusterr.ErrNotImplemented)

	_, err = r.Verify(x509policy.Base, nil, nil)
	assert.ErrorIs(t, err, trusterr.ErrInvalidParameter)
	_, err = r.Verify(x509policy.Base, &x509chain.ChainContext{}, nil)
	assert.ErrorIs(t, err, trusterr.ErrInvalidParameter)

	custom := x509policy.PolicyFunc(func(cc *x509chain.ChainContext, _ *x509policy.Params) x509policy.Verdict {
		return x509policy.Verdict{Status: x509policy.ErrWrongUsage, ChainIndex: len(cc.Chains) - 1, ElementIndex: 0}
	})
	require.NoError(t, r.Register("custom", custom))
	assert.ErrorIs(t, r.Register("custom", custom), trusterr.ErrExists)
	assert.ErrorIs(t, r.Register(x509policy.Base, custom), trusterr.ErrExists)
	assert.ErrorIs(t, r.Register("", custom), trusterr.ErrInvalidParameter)
	assert.ErrorIs(t, r.Register("nil", nil), trusterr.ErrInvalidParameter)

	v, err := r.Verify("custom", cc, nil)
	require.NoError(t, err)
	assert.Equal(t, x509policy.ErrWrongUsage, v.Status)

	_, err = x509policy.Default().Lookup("custom")
	assert.ErrorIs(t, err, trusterr.ErrNotImplemented, "registries are independent")
}

func TestRegistry_Concurrent(t *testing.T) {
	r := x509policy.NewRegistry()
	cc := synthetic(t, []x509chain.TrustError{0, x509chain.IsUntrustedRoot})

	var wg sync.WaitGroup
	for i := range 16 {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			if i%4 == 0 {
				assert.NoError(t, r.Register(x509policy.ID(rune('a'+i)), x509policy.PolicyFunc(func(*x509chain.ChainContext, *x509policy.Params) x509policy.Verdict {
					return x509policy.Verdict{}
				})))
				return
			}
			v, err := r.Verify(x509policy.Base, cc, nil)
			if assert.NoError(t, err) {
				assert.Equal(t, x509policy.ErrUntrustedRoot, v.Status)
			}
		}(i)
	}
	wg.Wait()
	assert.Len(t, r.IDs(), 8)
}

func TestVerdictErr(t *testing.T) {
	assert.NoError(t, x509policy.Verdict{Status: x509policy.OK, ChainIndex: -1, ElementIndex: -1}.Err())

	err := x509policy.Verdict{Status: x509policy.ErrUntrustedRoot, ChainIndex: 0, ElementIndex: 2}.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, x509policy.ErrRejected)
	assert.Equal(t, "x509policy: chain rejected: untrusted-root (0x800b0109) at chain 0 element 2", err.Error())

	var ve *x509policy.VerdictError
	require.True(t, errors.As(err, &ve))
	assert.Equal(t, 2, ve.ElementIndex)

	err = x509policy.Verdict{Status: x509policy.ErrCyclic, ChainIndex: 1, ElementIndex: -1}.Err()
	assert.Equal(t, "x509policy: chain rejected: chaining (0x800b010a) at chain 1", err.Error())
	assert.Equal(t, "0x00000042", x509policy.Status(0x42).String())
}

func TestParseID(t *testing.T) {
	tests := []struct {
		in   string
		want x509policy.ID
	}{
		{"base", x509policy.Base},
		{"SSL", x509policy.SSL},
		{"authenticode", x509policy.Authenticode},
		{"basic-constraints", x509policy.BasicConstraints},
		{"4", x509policy.SSL},
		{"custom", x509policy.ID("custom")},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, x509policy.ParseID(tt.in), tt.in)
	}
}
