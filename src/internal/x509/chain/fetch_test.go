// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain_test

import (
	"context"
	"crypto/x509"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	x509chain "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/chain"
	x509certs "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/testpki"
	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/trusterr"
)

// issuerServer serves body at every path and counts requests.
func issuerServer(t *testing.T, status int, body []byte) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		assert.Contains(t, r.Header.Get("User-Agent"), "X.509-Trust-Store/")
		w.WriteHeader(status)
		w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv, &hits
}

func TestIssuerFetcher_Fetch(t *testing.T) {
	root := testpki.Root(t, "Fetch Root")
	inter := testpki.Intermediate(t, "Fetch Intermediate", root)
	codec := x509certs.New()

	tests := []struct {
		name    string
		status  int
		body    []byte
		want    int
		wantErr bool
	}{
		{name: "der", status: http.StatusOK, body: inter.Cert.Raw, want: 1},
		{name: "pem bundle", status: http.StatusOK, body: codec.EncodeMultiplePEM([]*x509.Certificate{inter.Cert, root.Cert}), want: 2},
		{name: "not found", status: http.StatusNotFound, wantErr: true},
		{name: "garbage", status: http.StatusOK, body: []byte{0x01, 0x02, 0x03}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, _ := issuerServer(t, tt.status, tt.body)
			leaf := testpki.Issue(t, testpki.Options{
				CommonName: "fetch.example",
				Issuer:     inter,
				IssuerURLs: []string{"ldap://ignored.example/ca", srv.URL + "/ca.crt"},
			})

			certs, err := x509chain.NewIssuerFetcher(time.Second).Fetch(context.Background(), leaf.Cert)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Len(t, certs, tt.want)
			assert.True(t, certs[0].Equal(inter.Cert))
		})
	}

	t.Run("no urls", func(t *testing.T) {
		_, err := x509chain.NewIssuerFetcher(time.Second).Fetch(context.Background(), inter.Cert)
		assert.ErrorIs(t, err, trusterr.ErrNotFound)
	})
}

func TestIssuerFetcher_UserAgent(t *testing.T) {
	f := x509chain.NewIssuerFetcher(time.Second)
	f.Version = "1.2.3"
	assert.Equal(t, "X.509-Trust-Store/1.2.3 (+https://github.com/H0llyW00dzZ/x509-trust-store)", f.GetUserAgent())
	f.UserAgent = "custom"
	assert.Equal(t, "custom", f.GetUserAgent())

	c := f.Client()
	assert.Equal(t, time.Second, c.Timeout)
	f.Timeout = 2 * time.Second
	assert.Same(t, c, f.Client())
	assert.Equal(t, 2*time.Second, c.Timeout)
}

func TestBuildChain_RetrieveIssuers(t *testing.T) {
	root := testpki.Root(t, "AIA Root")
	inter := testpki.Intermediate(t, "AIA Intermediate", root)
	srv, hits := issuerServer(t, http.StatusOK, inter.Cert.Raw)
	leaf := leafOf(t, testpki.Issue(t, testpki.Options{
		CommonName: "aia.example",
		Issuer:     inter,
		IssuerURLs: []string{srv.URL + "/inter.crt"},
	}))

	reg := prometheus.NewRegistry()
	e := newEngine(t, x509chain.EngineConfig{Root: storeWith(t, "root", root)}, x509chain.WithRegistry(reg))

	t.Run("without flag", func(t *testing.T) {
		cc := build(t, e, leaf, 0)
		assert.NotZero(t, cc.Status.Errors&x509chain.IsPartialChain)
		assert.Zero(t, hits.Load())
	})

	t.Run("with flag", func(t *testing.T) {
		cc := build(t, e, leaf, x509chain.RetrieveIssuers)
		assert.Zero(t, cc.Status.Errors)
		assert.Equal(t, []string{"aia.example", "AIA Intermediate", "AIA Root"}, names(cc.Primary()))
		assert.Equal(t, int32(1), hits.Load())
		assert.Equal(t, 1, e.Fetched().Len())
		assert.Equal(t, 1.0, testutil.ToFloat64(e.Metrics().IssuerFetches.WithLabelValues("ok")))
	})

	t.Run("fetched issuer is reused", func(t *testing.T) {
		cc := build(t, e, leaf, 0)
		assert.Zero(t, cc.Status.Errors)
		assert.Equal(t, int32(1), hits.Load())
	})
}

func TestBuildChain_RetrieveIssuersFailure(t *testing.T) {
	root := testpki.Root(t, "Down Root")
	inter := testpki.Intermediate(t, "Down Intermediate", root)
	srv, hits := issuerServer(t, http.StatusInternalServerError, nil)
	leaf := leafOf(t, testpki.Issue(t, testpki.Options{
		CommonName: "down.example",
		Issuer:     inter,
		IssuerURLs: []string{srv.URL + "/inter.crt"},
	}))

	e := newEngine(t, x509chain.EngineConfig{Root: storeWith(t, "root", root)})
	cc := build(t, e, leaf, x509chain.RetrieveIssuers)
	assert.NotZero(t, cc.Status.Errors&x509chain.IsPartialChain)
	assert.Equal(t, int32(1), hits.Load())
	assert.Zero(t, e.Fetched().Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(e.Metrics().IssuerFetches.WithLabelValues("error")))
}
