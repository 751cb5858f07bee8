// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509certs

import (
	"crypto/x509"
	"encoding/asn1"
	"errors"

	"golang.org/x/crypto/cryptobyte"
	cbasn1 "golang.org/x/crypto/cryptobyte/asn1"
)

var (
	// OIDBasicConstraints2 is the RFC 5280 basicConstraints extension.
	OIDBasicConstraints2 = asn1.ObjectIdentifier{2, 5, 29, 19}

	// OIDBasicConstraints is the legacy (X.509 v3 draft) basicConstraints extension.
	OIDBasicConstraints = asn1.ObjectIdentifier{2, 5, 29, 10}

	// OIDEnhancedKeyUsage is the extendedKeyUsage extension.
	OIDEnhancedKeyUsage = asn1.ObjectIdentifier{2, 5, 29, 37}
)

// ErrBadConstraints indicates a malformed basic-constraints extension.
var ErrBadConstraints = errors.New("x509certs: malformed basic constraints extension")

// ErrBadKeyUsage indicates a malformed enhanced-key-usage extension.
var ErrBadKeyUsage = errors.New("x509certs: malformed enhanced key usage extension")

// legacyCASubjectFlag is the first bit of the legacy subjectType BIT STRING.
const legacyCASubjectFlag = 0

// BasicConstraints is the decoded form of either basic-constraints extension.
type BasicConstraints struct {
	IsCA bool
	// PathLen is the remaining path length, or -1 when unconstrained.
	PathLen int
	// Legacy is true when the value came from the 2.5.29.10 extension.
	Legacy bool
}

// HasPathLen reports whether a path length constraint is present.
func (b BasicConstraints) HasPathLen() bool { return b.PathLen >= 0 }

// findExtension returns the raw value of the extension with the given OID.
func findExtension(cert *x509.Certificate, oid asn1.ObjectIdentifier) ([]byte, bool) {
	for _, ext := range cert.Extensions {
		if ext.Id.Equal(oid) {
			return ext.Value, true
		}
	}
	return nil, false
}

// DecodeBasicConstraints decodes the basic constraints of cert.
//
// The RFC 5280 extension is preferred over the legacy one. The boolean result
// is false when neither extension is present; a decode error is returned
// together with present=true so callers can record the failure.
func (c *Certificate) DecodeBasicConstraints(cert *x509.Certificate) (BasicConstraints, bool, error) {
	if raw, ok := findExtension(cert, OIDBasicConstraints2); ok {
		bc, err := parseBasicConstraints2(raw)
		return bc, true, err
	}
	if raw, ok := findExtension(cert, OIDBasicConstraints); ok {
		bc, err := parseLegacyBasicConstraints(raw)
		return bc, true, err
	}
	return BasicConstraints{PathLen: -1}, false, nil
}

// parseBasicConstraints2 decodes
//
//	BasicConstraints ::= SEQUENCE {
//	     cA                      BOOLEAN DEFAULT FALSE,
//	     pathLenConstraint       INTEGER (0..MAX) OPTIONAL }
func parseBasicConstraints2(der []byte) (BasicConstraints, error) {
	bc := BasicConstraints{PathLen: -1}

	input := cryptobyte.String(der)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) || !input.Empty() {
		return bc, ErrBadConstraints
	}
	if seq.PeekASN1Tag(cbasn1.BOOLEAN) {
		if !seq.ReadASN1Boolean(&bc.IsCA) {
			return bc, ErrBadConstraints
		}
	}
	if seq.PeekASN1Tag(cbasn1.INTEGER) {
		var n int
		if !seq.ReadASN1Integer(&n) || n < 0 {
			return bc, ErrBadConstraints
		}
		bc.PathLen = n
	}
	if !seq.Empty() {
		return bc, ErrBadConstraints
	}
	return bc, nil
}

// parseLegacyBasicConstraints decodes
//
//	BasicConstraintsSyntax ::= SEQUENCE {
//	     subjectType             BIT STRING,
//	     pathLenConstraint       INTEGER OPTIONAL,
//	     subtreesConstraint      SEQUENCE OF GeneralSubtree OPTIONAL }
func parseLegacyBasicConstraints(der []byte) (BasicConstraints, error) {
	bc := BasicConstraints{PathLen: -1, Legacy: true}

	input := cryptobyte.String(der)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) || !input.Empty() {
		return bc, ErrBadConstraints
	}
	var subjectType asn1.BitString
	if !seq.ReadASN1BitString(&subjectType) {
		return bc, ErrBadConstraints
	}
	bc.IsCA = subjectType.BitLength > legacyCASubjectFlag && subjectType.At(legacyCASubjectFlag) == 1
	if seq.PeekASN1Tag(cbasn1.INTEGER) {
		var n int
		if !seq.ReadASN1Integer(&n) || n < 0 {
			return bc, ErrBadConstraints
		}
		bc.PathLen = n
	}
	if !seq.SkipOptionalASN1(cbasn1.SEQUENCE) || !seq.Empty() {
		return bc, ErrBadConstraints
	}
	return bc, nil
}

// DecodeEnhancedKeyUsage returns the usage OIDs listed in the extendedKeyUsage
// extension of cert, or nil when the extension is absent.
func (c *Certificate) DecodeEnhancedKeyUsage(cert *x509.Certificate) ([]asn1.ObjectIdentifier, error) {
	raw, ok := findExtension(cert, OIDEnhancedKeyUsage)
	if !ok {
		return nil, nil
	}

	input := cryptobyte.String(raw)
	var seq cryptobyte.String
	if !input.ReadASN1(&seq, cbasn1.SEQUENCE) || !input.Empty() {
		return nil, ErrBadKeyUsage
	}

	var usages []asn1.ObjectIdentifier
	for !seq.Empty() {
		var oid asn1.ObjectIdentifier
		if !seq.ReadASN1ObjectIdentifier(&oid) {
			return nil, ErrBadKeyUsage
		}
		usages = append(usages, oid)
	}
	return usages, nil
}
