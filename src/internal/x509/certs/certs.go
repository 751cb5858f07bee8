// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	"github.com/cloudflare/cfssl/crypto/pkcs7"
)

var (
	// ErrInvalidBlockType indicates PEM input without any certificate block.
	ErrInvalidBlockType = errors.New("x509certs: invalid block type")

	// ErrParseCertificate indicates a failure to parse the certificate from the provided data.
	ErrParseCertificate = errors.New("x509certs: failed to parse certificate")

	// ErrParsePKCS7 indicates PKCS#7 data that is not a signed-data bundle.
	ErrParsePKCS7 = errors.New("x509certs: failed to parse PKCS7 data")

	// ErrNoCertificatesInPKCS indicates that no certificates were found in the PKCS7 data.
	ErrNoCertificatesInPKCS = errors.New("x509certs: no certificates found in PKCS7 data")

	// ErrEmptyInput indicates that no bytes were supplied for decoding.
	ErrEmptyInput = errors.New("x509certs: empty input")
)

// Format is the outer encoding of a certificate bundle.
type Format int

const (
	FormatPEM Format = iota
	FormatDER
	FormatPKCS7
)

func (f Format) String() string {
	switch f {
	case FormatPEM:
		return "pem"
	case FormatDER:
		return "der"
	case FormatPKCS7:
		return "pkcs7"
	}
	return fmt.Sprintf("format(%d)", int(f))
}

const (
	blockCertificate = "CERTIFICATE"
	blockPKCS7       = "PKCS7"
)

// Certificate decodes and encodes [X.509] certificates in PEM, DER and
// PKCS#7 form. It holds no state and is safe for concurrent use.
//
// [X.509]: https://en.wikipedia.org/wiki/X.509
type Certificate struct{}

// New returns a codec.
func New() *Certificate { return &Certificate{} }

// IsPEM reports whether data starts with a PEM block.
func (c *Certificate) IsPEM(data []byte) bool {
	block, _ := pem.Decode(data)
	return block != nil
}

// Decode returns the first certificate in data.
func (c *Certificate) Decode(data []byte) (*x509.Certificate, error) {
	certs, _, err := c.DecodeBundle(data)
	if err != nil {
		return nil, err
	}
	return certs[0], nil
}

// ParseDER parses exactly one DER certificate. Trailing bytes after it are
// an error, so the stored encoding always matches the parsed certificate.
func (c *Certificate) ParseDER(der []byte) (*x509.Certificate, error) {
	if len(der) == 0 {
		return nil, ErrEmptyInput
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseCertificate, err)
	}
	return cert, nil
}

// DecodeMultiple returns every certificate in data, in order.
func (c *Certificate) DecodeMultiple(data []byte) ([]*x509.Certificate, error) {
	certs, _, err := c.DecodeBundle(data)
	return certs, err
}

// DecodeBundle decodes data and reports the format it was found in.
//
// PEM input may mix CERTIFICATE and PKCS7 blocks; other block types such as
// private keys are skipped. Binary input is tried as concatenated DER first
// and then as a PKCS#7 bundle. A nil error means at least one certificate.
func (c *Certificate) DecodeBundle(data []byte) ([]*x509.Certificate, Format, error) {
	if len(data) == 0 {
		return nil, 0, ErrEmptyInput
	}
	if c.IsPEM(data) {
		certs, err := decodePEM(data)
		return certs, FormatPEM, err
	}
	if certs, err := x509.ParseCertificates(data); err == nil && len(certs) > 0 {
		return certs, FormatDER, nil
	}
	certs, err := decodePKCS7(data)
	if errors.Is(err, ErrParsePKCS7) {
		// Neither DER nor PKCS#7: report it as a bad certificate.
		err = ErrParseCertificate
	}
	return certs, FormatPKCS7, err
}

func decodePEM(data []byte) ([]*x509.Certificate, error) {
	var certs []*x509.Certificate
	for {
		var block *pem.Block
		block, data = pem.Decode(data)
		if block == nil {
			break
		}
		switch block.Type {
		case blockCertificate:
			cert, err := x509.ParseCertificate(block.Bytes)
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrParseCertificate, err)
			}
			certs = append(certs, cert)
		case blockPKCS7:
			bundle, err := decodePKCS7(block.Bytes)
			if err != nil {
				return nil, err
			}
			certs = append(certs, bundle...)
		}
	}
	if len(certs) == 0 {
		return nil, ErrInvalidBlockType
	}
	return certs, nil
}

func decodePKCS7(data []byte) ([]*x509.Certificate, error) {
	p, err := pkcs7.ParsePKCS7(data)
	if err != nil || p.ContentInfo != "SignedData" {
		return nil, ErrParsePKCS7
	}
	if len(p.Content.SignedData.Certificates) == 0 {
		return nil, ErrNoCertificatesInPKCS
	}
	return p.Content.SignedData.Certificates, nil
}

// Encode writes certs as PEM or concatenated DER. PKCS#7 output is not
// supported.
func (c *Certificate) Encode(certs []*x509.Certificate, f Format) ([]byte, error) {
	var buf bytes.Buffer
	for _, cert := range certs {
		switch f {
		case FormatPEM:
			if err := pem.Encode(&buf, &pem.Block{Type: blockCertificate, Bytes: cert.Raw}); err != nil {
				return nil, err
			}
		case FormatDER:
			buf.Write(cert.Raw)
		default:
			return nil, fmt.Errorf("x509certs: cannot encode %s", f)
		}
	}
	return buf.Bytes(), nil
}

// EncodePEM encodes a certificate to PEM format.
func (c *Certificate) EncodePEM(cert *x509.Certificate) []byte {
	return pem.EncodeToMemory(&pem.Block{Type: blockCertificate, Bytes: cert.Raw})
}

// EncodeDER returns the DER encoding of cert.
func (c *Certificate) EncodeDER(cert *x509.Certificate) []byte { return cert.Raw }

// EncodeMultiplePEM encodes certs as consecutive PEM blocks.
func (c *Certificate) EncodeMultiplePEM(certs []*x509.Certificate) []byte {
	data, _ := c.Encode(certs, FormatPEM)
	return data
}

// EncodeMultipleDER concatenates the DER encodings of certs.
func (c *Certificate) EncodeMultipleDER(certs []*x509.Certificate) []byte {
	data, _ := c.Encode(certs, FormatDER)
	return data
}
