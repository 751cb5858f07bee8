// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"fmt"
	"math/bits"
	"strings"
)

// TrustError is the set of error bits of a trust status.
type TrustError uint32

const (
	// NotTimeValid means the reference time is outside the validity period.
	NotTimeValid TrustError = 0x00000001
	// IsRevoked is reserved; revocation is not checked.
	IsRevoked TrustError = 0x00000004
	// NotSignatureValid is set on a certificate whose signature does not
	// verify under its issuer's key.
	NotSignatureValid TrustError = 0x00000008
	// IsUntrustedRoot is set on a self-signed terminal element that is not
	// in the engine's root store.
	IsUntrustedRoot TrustError = 0x00000020
	// IsCyclic is set on the element after which a certificate repeated.
	IsCyclic TrustError = 0x00000080
	// InvalidExtension marks a malformed extended key usage extension.
	InvalidExtension TrustError = 0x00000100
	// InvalidBasicConstraints marks a constraint failure, including any
	// element below a path length violation.
	InvalidBasicConstraints TrustError = 0x00000400
	// IsPartialChain is set on a terminal element that is not self-signed
	// and has no issuer in the world store.
	IsPartialChain TrustError = 0x00010000
)

// TrustInfo is the set of informational bits of a trust status.
type TrustInfo uint32

const (
	// HasExactMatchIssuer is reserved for issuer and serial matches.
	HasExactMatchIssuer TrustInfo = 0x00000001
	// HasKeyMatchIssuer means the issuer was matched by key identifier.
	HasKeyMatchIssuer TrustInfo = 0x00000002
	// HasNameMatchIssuer means the issuer was matched by subject name.
	HasNameMatchIssuer TrustInfo = 0x00000004
	// IsSelfSigned marks a self-signed terminal element.
	IsSelfSigned TrustInfo = 0x00000008
	// IsTrustedRoot marks a terminal element found in the root store.
	IsTrustedRoot TrustInfo = 0x00000400

	// elementOnlyInfo never propagates from an element to its chain.
	elementOnlyInfo TrustInfo = 0x0000000F
)

var errorNames = []struct {
	bit  TrustError
	name string
}{
	{NotTimeValid, "not-time-valid"},
	{IsRevoked, "revoked"},
	{NotSignatureValid, "bad-signature"},
	{IsUntrustedRoot, "untrusted-root"},
	{IsCyclic, "cyclic"},
	{InvalidExtension, "invalid-extension"},
	{InvalidBasicConstraints, "invalid-basic-constraints"},
	{IsPartialChain, "partial-chain"},
}

var infoNames = []struct {
	bit  TrustInfo
	name string
}{
	{HasExactMatchIssuer, "exact-match-issuer"},
	{HasKeyMatchIssuer, "key-match-issuer"},
	{HasNameMatchIssuer, "name-match-issuer"},
	{IsSelfSigned, "self-signed"},
	{IsTrustedRoot, "trusted-root"},
}

// Names returns the names of the set bits in ascending bit order.
func (e TrustError) Names() []string {
	var out []string
	rest := e
	for _, n := range errorNames {
		if e&n.bit != 0 {
			out = append(out, n.name)
			rest &^= n.bit
		}
	}
	for rest != 0 {
		bit := TrustError(1) << bits.TrailingZeros32(uint32(rest))
		out = append(out, fmt.Sprintf("0x%x", uint32(bit)))
		rest &^= bit
	}
	return out
}

func (e TrustError) String() string {
	if e == 0 {
		return "ok"
	}
	return strings.Join(e.Names(), "|")
}

// Names returns the names of the set bits in ascending bit order.
func (i TrustInfo) Names() []string {
	var out []string
	for _, n := range infoNames {
		if i&n.bit != 0 {
			out = append(out, n.name)
		}
	}
	return out
}

func (i TrustInfo) String() string {
	if i == 0 {
		return "none"
	}
	return strings.Join(i.Names(), "|")
}

// TrustStatus is the standing of one element, chain or chain context.
type TrustStatus struct {
	Errors TrustError
	Info   TrustInfo
}

// combine folds an element or sub-chain status into s. Error bits are ORed;
// element-only info bits are masked out.
func (s *TrustStatus) combine(other TrustStatus) {
	s.Errors |= other.Errors
	s.Info |= other.Info &^ elementOnlyInfo
}

// Quality scores a chain; a larger value is a better chain.
type Quality uint8

const (
	QualityTrustedRoot Quality = 1 << iota
	QualityCompleteChain
	QualityTimeValid
	QualitySignatureValid

	QualityHighest = QualityTrustedRoot | QualityCompleteChain | QualityTimeValid | QualitySignatureValid
)

// QualityOf derives the quality bits from a chain's error bits. A chain that
// never reached a self-signed root, either partial or cyclic, is neither
// complete nor trusted.
func QualityOf(errs TrustError) Quality {
	q := QualityHighest
	if errs&(IsUntrustedRoot|IsPartialChain|IsCyclic) != 0 {
		q &^= QualityTrustedRoot
	}
	if errs&(IsPartialChain|IsCyclic) != 0 {
		q &^= QualityCompleteChain
	}
	if errs&NotTimeValid != 0 {
		q &^= QualityTimeValid
	}
	if errs&NotSignatureValid != 0 {
		q &^= QualitySignatureValid
	}
	return q
}

var qualityNames = []struct {
	bit  Quality
	name string
}{
	{QualitySignatureValid, "signature-valid"},
	{QualityTimeValid, "time-valid"},
	{QualityCompleteChain, "complete-chain"},
	{QualityTrustedRoot, "trusted-root"},
}

func (q Quality) String() string {
	switch q {
	case QualityHighest:
		return "highest"
	case 0:
		return "none"
	}
	var out []string
	for _, n := range qualityNames {
		if q&n.bit != 0 {
			out = append(out, n.name)
		}
	}
	return strings.Join(out, "|")
}
