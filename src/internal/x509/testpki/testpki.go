// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

// Package testpki issues throwaway certificates for tests.
package testpki

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/asn1"
	"math/big"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

var serial atomic.Int64

// Cert is an issued certificate together with its private key.
type Cert struct {
	Cert *x509.Certificate
	Key  crypto.Signer
}

// Options describes the certificate to issue.
type Options struct {
	CommonName string
	// Issuer signs the certificate. Nil issues a self-signed one.
	Issuer *Cert
	// IssuerName and IssuerKey sign with a bare name and key instead of an
	// issued certificate. Used to build cross-signed loops.
	IssuerName string
	IssuerKey  crypto.Signer
	// Key reuses an existing key pair instead of generating one.
	Key crypto.Signer

	IsCA bool
	// MaxPathLen sets pathLenConstraint; -1 omits it. Zero means zero.
	MaxPathLen int
	// NoConstraints omits the basicConstraints extension.
	NoConstraints bool
	// LegacyConstraints adds the 2.5.29.10 extension with the given DER value.
	LegacyConstraints []byte

	NotBefore time.Time
	NotAfter  time.Time

	// IssuerURLs fills the authority information access issuer URLs.
	IssuerURLs []string
	DNSNames   []string
}

// NewKey returns a fresh P-256 key.
func NewKey(t testing.TB) crypto.Signer {
	t.Helper()
	k, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	return k
}

// Issue creates a certificate according to opts.
func Issue(t testing.TB, opts Options) *Cert {
	t.Helper()

	key := opts.Key
	if key == nil {
		key = NewKey(t)
	}

	notBefore, notAfter := opts.NotBefore, opts.NotAfter
	if notBefore.IsZero() {
		notBefore = time.Now().Add(-time.Hour)
	}
	if notAfter.IsZero() {
		notAfter = time.Now().Add(24 * time.Hour)
	}

	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(serial.Add(1)),
		Subject:      pkix.Name{CommonName: opts.CommonName},
		NotBefore:    notBefore,
		NotAfter:     notAfter,
		KeyUsage:     x509.KeyUsageDigitalSignature,
		ExtKeyUsage:  []x509.ExtKeyUsage{x509.ExtKeyUsageServerAuth},

		IssuingCertificateURL: opts.IssuerURLs,
		DNSNames:              opts.DNSNames,
	}
	if !opts.NoConstraints {
		tmpl.BasicConstraintsValid = true
		tmpl.IsCA = opts.IsCA
		if opts.IsCA {
			tmpl.KeyUsage |= x509.KeyUsageCertSign
			switch {
			case opts.MaxPathLen < 0:
				tmpl.MaxPathLen = -1
			case opts.MaxPathLen == 0:
				tmpl.MaxPathLen = 0
				tmpl.MaxPathLenZero = true
			default:
				tmpl.MaxPathLen = opts.MaxPathLen
			}
		}
	}
	if opts.LegacyConstraints != nil {
		tmpl.ExtraExtensions = append(tmpl.ExtraExtensions, pkix.Extension{
			Id:    asn1.ObjectIdentifier{2, 5, 29, 10},
			Value: opts.LegacyConstraints,
		})
	}

	parent, signer := tmpl, key
	switch {
	case opts.Issuer != nil:
		parent, signer = opts.Issuer.Cert, opts.Issuer.Key
	case opts.IssuerKey != nil:
		parent = &x509.Certificate{
			Subject:   pkix.Name{CommonName: opts.IssuerName},
			PublicKey: opts.IssuerKey.Public(),
		}
		signer = opts.IssuerKey
	}

	der, err := x509.CreateCertificate(rand.Reader, tmpl, parent, key.Public(), signer)
	require.NoError(t, err)
	cert, err := x509.ParseCertificate(der)
	require.NoError(t, err)
	return &Cert{Cert: cert, Key: key}
}

// Root issues a self-signed CA.
func Root(t testing.TB, cn string) *Cert {
	t.Helper()
	return Issue(t, Options{CommonName: cn, IsCA: true, MaxPathLen: -1})
}

// Intermediate issues a CA signed by issuer.
func Intermediate(t testing.TB, cn string, issuer *Cert) *Cert {
	t.Helper()
	return Issue(t, Options{CommonName: cn, Issuer: issuer, IsCA: true, MaxPathLen: -1})
}

// Leaf issues an end-entity certificate signed by issuer.
func Leaf(t testing.TB, cn string, issuer *Cert) *Cert {
	t.Helper()
	return Issue(t, Options{CommonName: cn, Issuer: issuer, DNSNames: []string{cn}})
}
