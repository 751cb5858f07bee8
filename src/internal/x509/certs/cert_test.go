// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs_test

import (
	"bytes"
	"crypto/x509"
	"encoding/asn1"
	"encoding/pem"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	x509certs "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/certs"
	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/testpki"
)

const (
	invalidPEM = `
-----BEGIN INVALID-----
MIIBIjANBgkqhkiG9w0BAQEFAAOCAQ8AMIIBCgKCAQEAz6e5VV5F8rF2sFJ0Q4vA
-----END INVALID-----
`

	invalidCERT = `
-----BEGIN CERTIFICATE-----
MIIBIjANBgkqhkiG9w0BAQEFAAOCAQ8AMIIBCgKCAQEAz6e5VV5F8rF2sFJ0Q4vA
-----END CERTIFICATE-----
`
)

func issuePair(t *testing.T) (root, leaf *x509.Certificate) {
	t.Helper()
	r := testpki.Root(t, "Codec Root")
	l := testpki.Leaf(t, "codec.example", r)
	return r.Cert, l.Cert
}

func TestCertificate_RoundTrip(t *testing.T) {
	decoder := x509certs.New()
	root, leaf := issuePair(t)

	tests := []struct {
		name   string
		encode func() []byte
	}{
		{name: "PEM", encode: func() []byte { return decoder.EncodePEM(leaf) }},
		{name: "DER", encode: func() []byte { return decoder.EncodeDER(leaf) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := decoder.Decode(tt.encode())
			require.NoError(t, err)
			assert.True(t, got.Equal(leaf))
		})
	}

	t.Run("multiple PEM", func(t *testing.T) {
		data := decoder.EncodeMultiplePEM([]*x509.Certificate{leaf, root})
		certs, err := decoder.DecodeMultiple(data)
		require.NoError(t, err)
		require.Len(t, certs, 2)
		assert.True(t, certs[0].Equal(leaf))
		assert.True(t, certs[1].Equal(root))
	})

	t.Run("concatenated DER", func(t *testing.T) {
		data := decoder.EncodeMultipleDER([]*x509.Certificate{leaf, root})
		certs, err := decoder.DecodeMultiple(data)
		require.NoError(t, err)
		require.Len(t, certs, 2)
		assert.True(t, certs[1].Equal(root))
	})
}

func TestCertificate_DecodeErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected error
	}{
		{name: "Empty", input: nil, expected: x509certs.ErrEmptyInput},
		{name: "Invalid PEM Block", input: []byte(invalidPEM), expected: x509certs.ErrInvalidBlockType},
		{name: "Invalid Certificate", input: []byte(invalidCERT), expected: x509certs.ErrParseCertificate},
		{name: "Invalid DER Data", input: []byte("not a certificate"), expected: x509certs.ErrParseCertificate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := x509certs.New().Decode(tt.input)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestCertificate_DecodeMultipleErrors(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected error
	}{
		{name: "Empty", input: []byte{}, expected: x509certs.ErrEmptyInput},
		{name: "Invalid PEM Type", input: []byte(invalidPEM), expected: x509certs.ErrInvalidBlockType},
		{name: "Invalid Certificate Data", input: []byte(invalidCERT), expected: x509certs.ErrParseCertificate},
		{name: "Garbage", input: []byte{0xde, 0xad}, expected: x509certs.ErrParseCertificate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := x509certs.New().DecodeMultiple(tt.input)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

// dataPKCS7 builds a PKCS#7 message of content type data, which carries no
// certificates.
func dataPKCS7(t *testing.T) []byte {
	t.Helper()
	octets, err := asn1.Marshal([]byte("payload"))
	require.NoError(t, err)
	der, err := asn1.Marshal(struct {
		ContentType asn1.ObjectIdentifier
		Content     asn1.RawValue
	}{
		ContentType: asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 1},
		Content:     asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 0, IsCompound: true, Bytes: octets},
	})
	require.NoError(t, err)
	return der
}

func TestCertificate_DecodePKCS7Errors(t *testing.T) {
	tests := []struct {
		name     string
		input    []byte
		expected error
	}{
		{name: "Data content type", input: dataPKCS7(t), expected: x509certs.ErrParsePKCS7},
		{name: "SignedData without certificates", input: degeneratePKCS7(t), expected: x509certs.ErrNoCertificatesInPKCS},
		{name: "Truncated", input: []byte{0x30, 0x03, 0x06}, expected: x509certs.ErrParsePKCS7},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			block := pem.EncodeToMemory(&pem.Block{Type: "PKCS7", Bytes: tt.input})
			_, err := x509certs.New().DecodeMultiple(block)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestCertificate_ParseDER(t *testing.T) {
	codec := x509certs.New()
	root, leaf := issuePair(t)

	got, err := codec.ParseDER(root.Raw)
	require.NoError(t, err)
	assert.True(t, got.Equal(root))

	tests := []struct {
		name     string
		input    []byte
		expected error
	}{
		{name: "Empty", input: nil, expected: x509certs.ErrEmptyInput},
		{name: "PEM", input: codec.EncodePEM(root), expected: x509certs.ErrParseCertificate},
		{name: "Concatenated", input: append(append([]byte{}, root.Raw...), leaf.Raw...), expected: x509certs.ErrParseCertificate},
		{name: "PKCS7", input: degeneratePKCS7(t, root), expected: x509certs.ErrParseCertificate},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := codec.ParseDER(tt.input)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestCertificate_IsPEM(t *testing.T) {
	decoder := x509certs.New()
	_, leaf := issuePair(t)

	assert.True(t, decoder.IsPEM(decoder.EncodePEM(leaf)))
	assert.False(t, decoder.IsPEM(leaf.Raw))
	assert.False(t, decoder.IsPEM(nil))

	block, _ := pem.Decode(decoder.EncodePEM(leaf))
	require.NotNil(t, block)
	assert.Equal(t, "CERTIFICATE", block.Type)
}

// degeneratePKCS7 builds a certs-only SignedData bundle, the layout of a
// .p7b file.
func degeneratePKCS7(t *testing.T, certs ...*x509.Certificate) []byte {
	t.Helper()
	var raw bytes.Buffer
	for _, c := range certs {
		raw.Write(c.Raw)
	}
	emptySet := asn1.RawValue{Class: asn1.ClassUniversal, Tag: asn1.TagSet, IsCompound: true}
	sd, err := asn1.Marshal(struct {
		Version          int
		DigestAlgorithms asn1.RawValue
		ContentInfo      struct{ ContentType asn1.ObjectIdentifier }
		Certificates     asn1.RawValue
		Crls             asn1.RawValue
		SignerInfos      asn1.RawValue
	}{
		Version:          1,
		DigestAlgorithms: emptySet,
		ContentInfo:      struct{ ContentType asn1.ObjectIdentifier }{asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 1}},
		Certificates:     asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 0, IsCompound: true, Bytes: raw.Bytes()},
		Crls:             asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 1, IsCompound: true},
		SignerInfos:      emptySet,
	})
	require.NoError(t, err)
	der, err := asn1.Marshal(struct {
		ContentType asn1.ObjectIdentifier
		Content     asn1.RawValue
	}{
		ContentType: asn1.ObjectIdentifier{1, 2, 840, 113549, 1, 7, 2},
		Content:     asn1.RawValue{Class: asn1.ClassContextSpecific, Tag: 0, IsCompound: true, Bytes: sd},
	})
	require.NoError(t, err)
	return der
}

func TestCertificate_DecodeBundle(t *testing.T) {
	decoder := x509certs.New()
	root, leaf := issuePair(t)
	p7 := degeneratePKCS7(t, leaf, root)
	key := pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: []byte{0x30, 0x00}})

	tests := []struct {
		name   string
		input  []byte
		format x509certs.Format
		count  int
	}{
		{name: "PEM with key block", input: append(append([]byte{}, key...), decoder.EncodePEM(leaf)...), format: x509certs.FormatPEM, count: 1},
		{name: "DER", input: decoder.EncodeDER(root), format: x509certs.FormatDER, count: 1},
		{name: "PKCS7", input: p7, format: x509certs.FormatPKCS7, count: 2},
		{name: "PEM wrapped PKCS7", input: pem.EncodeToMemory(&pem.Block{Type: "PKCS7", Bytes: p7}), format: x509certs.FormatPEM, count: 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			certs, format, err := decoder.DecodeBundle(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.format, format)
			assert.Len(t, certs, tt.count)
		})
	}

	t.Run("Decode takes the first of a bundle", func(t *testing.T) {
		got, err := decoder.Decode(p7)
		require.NoError(t, err)
		assert.True(t, got.Equal(leaf))
	})

	t.Run("only a key block", func(t *testing.T) {
		_, _, err := decoder.DecodeBundle(key)
		assert.ErrorIs(t, err, x509certs.ErrInvalidBlockType)
	})
}

func TestCertificate_Encode(t *testing.T) {
	decoder := x509certs.New()
	root, leaf := issuePair(t)

	der, err := decoder.Encode([]*x509.Certificate{leaf, root}, x509certs.FormatDER)
	require.NoError(t, err)
	assert.Equal(t, append(append([]byte{}, leaf.Raw...), root.Raw...), der)

	_, err = decoder.Encode([]*x509.Certificate{leaf}, x509certs.FormatPKCS7)
	assert.ErrorContains(t, err, "cannot encode pkcs7")
	assert.Equal(t, "pem", x509certs.FormatPEM.String())
}
