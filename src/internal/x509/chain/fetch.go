// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/helper/gc"
	x509certs "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/trusterr"
	"github.com/H0llyW00dzZ/x509-trust-store/src/version"
)

// maxIssuerResponse bounds one issuer download.
const maxIssuerResponse = 1 << 20

// IssuerFetcher downloads issuer certificates named by the authority
// information access extension.
//
// Responses may be a DER or PEM certificate or a PKCS#7 bundle.
type IssuerFetcher struct {
	Timeout   time.Duration // per request timeout
	Version   string        // application version for User-Agent
	UserAgent string        // overrides the constructed User-Agent when set

	mu     sync.Mutex
	client *http.Client
	codec  *x509certs.Certificate
}

// NewIssuerFetcher creates a fetcher with the given request timeout.
func NewIssuerFetcher(timeout time.Duration) *IssuerFetcher {
	return &IssuerFetcher{
		Timeout: timeout,
		Version: version.Version,
		codec:   x509certs.New(),
	}
}

// GetUserAgent returns the User-Agent string, constructing it if not set.
func (f *IssuerFetcher) GetUserAgent() string {
	if f.UserAgent != "" {
		return f.UserAgent
	}
	return fmt.Sprintf("X.509-Trust-Store/%s (+https://github.com/H0llyW00dzZ/x509-trust-store)", f.Version)
}

// Client returns an HTTP client using the current timeout.
//
// Thread Safety: Safe for concurrent use.
func (f *IssuerFetcher) Client() *http.Client {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.client == nil {
		f.client = &http.Client{Timeout: f.Timeout}
		return f.client
	}
	if f.client.Timeout != f.Timeout {
		f.client.Timeout = f.Timeout
	}
	return f.client
}

// Fetch downloads the issuer certificates of cert. The URLs are tried in
// order and the first one that yields certificates wins. A certificate
// without http or https issuer URLs fails with [trusterr.ErrNotFound].
func (f *IssuerFetcher) Fetch(ctx context.Context, cert *x509.Certificate) ([]*x509.Certificate, error) {
	var errs []error
	tried := 0
	for _, raw := range cert.IssuingCertificateURL {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
			continue
		}
		tried++
		certs, err := f.fetchURL(ctx, u.String())
		if err == nil {
			return certs, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", raw, err))
		if ctx.Err() != nil {
			break
		}
	}
	if tried == 0 {
		return nil, fmt.Errorf("%w: no issuer URL", trusterr.ErrNotFound)
	}
	return nil, errors.Join(errs...)
}

func (f *IssuerFetcher) fetchURL(ctx context.Context, rawURL string) ([]*x509.Certificate, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.GetUserAgent())

	resp, err := f.Client().Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s", resp.Status)
	}

	buf := gc.Default.Get()
	defer func() {
		buf.Reset()
		gc.Default.Put(buf)
	}()
	if _, err := buf.ReadFrom(io.LimitReader(resp.Body, maxIssuerResponse)); err != nil {
		return nil, err
	}

	codec := f.codec
	if codec == nil {
		codec = x509certs.New()
	}
	return codec.DecodeMultiple(append([]byte(nil), buf.Bytes()...))
}
