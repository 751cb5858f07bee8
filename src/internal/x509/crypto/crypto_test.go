// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509crypto_test

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	x509crypto "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/crypto"
)

func TestStd_Hash(t *testing.T) {
	data := []byte("encoded certificate bytes")

	got, err := x509crypto.Default.Hash(crypto.SHA1, data)
	require.NoError(t, err)
	want := sha1.Sum(data)
	assert.Equal(t, want[:], got)

	_, err = x509crypto.Default.Hash(crypto.Hash(0), data)
	assert.ErrorIs(t, err, x509crypto.ErrUnsupportedHash)
}

func TestStd_SignVerify(t *testing.T) {
	ecKey, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)
	rsaKey, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	_, edKey, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	tests := []struct {
		name string
		key  crypto.Signer
		alg  x509.SignatureAlgorithm
	}{
		{name: "ECDSA SHA256", key: ecKey, alg: x509.ECDSAWithSHA256},
		{name: "RSA SHA256", key: rsaKey, alg: x509.SHA256WithRSA},
		{name: "RSA PSS SHA256", key: rsaKey, alg: x509.SHA256WithRSAPSS},
		{name: "Ed25519", key: edKey, alg: x509.PureEd25519},
	}

	data := []byte("to be signed")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := x509crypto.Default.Sign(tt.key, tt.alg, data)
			require.NoError(t, err)

			require.NoError(t, x509crypto.Default.VerifySignature(tt.key.Public(), tt.alg, data, sig))

			err = x509crypto.Default.VerifySignature(tt.key.Public(), tt.alg, []byte("tampered"), sig)
			assert.ErrorIs(t, err, x509crypto.ErrBadSignature)
		})
	}
}

func TestStd_SignUnsupported(t *testing.T) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	require.NoError(t, err)

	_, err = x509crypto.Default.Sign(key, x509.MD5WithRSA, []byte("x"))
	assert.ErrorIs(t, err, x509crypto.ErrUnsupportedSignature)
}

func TestVerifyIssued_NilInputs(t *testing.T) {
	assert.ErrorIs(t, x509crypto.VerifyIssued(x509crypto.Default, nil, nil), x509crypto.ErrBadSignature)
}
