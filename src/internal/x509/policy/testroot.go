// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509policy

import (
	"crypto/sha256"
	"crypto/x509"
	_ "embed"

	x509certs "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/certs"
)

// testRootPEM is the published test root used to sign development builds.
// Its key is public knowledge, so a chain ending in it is never trusted
// unless the caller opts in with [TrustTestRoot].
//
//go:embed testroot.pem
var testRootPEM []byte

// builtinTestRoots holds the SHA-256 digests of the SubjectPublicKeyInfo of
// every built-in test root.
var builtinTestRoots = mustTestRootKeys(testRootPEM)

func mustTestRootKeys(data []byte) [][sha256.Size]byte {
	certs, err := x509certs.New().DecodeMultiple(data)
	if err != nil {
		panic("x509policy: built-in test roots: " + err.Error())
	}
	out := make([][sha256.Size]byte, len(certs))
	for i, c := range certs {
		out[i] = TestRootKey(c)
	}
	return out
}

// TestRootKey returns the allow-list digest of cert's public key, the value
// [WithTestRootKeys] expects.
func TestRootKey(cert *x509.Certificate) [sha256.Size]byte {
	return sha256.Sum256(cert.RawSubjectPublicKeyInfo)
}

// BuiltinTestRoots returns the certificates of the built-in test roots.
func BuiltinTestRoots() []*x509.Certificate {
	certs, _ := x509certs.New().DecodeMultiple(testRootPEM)
	return certs
}
