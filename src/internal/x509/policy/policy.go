// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509policy

import (
	"errors"
	"fmt"
	"strings"

	x509chain "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/chain"
)

// ID names a policy.
type ID string

const (
	// Base rejects bad signatures, untrusted roots and broken chains.
	Base ID = "1"
	// Authenticode is Base with untrusted test roots reported separately.
	Authenticode ID = "2"
	// SSL is Base plus time validity, server name and key usage checks.
	SSL ID = "4"
	// BasicConstraints rejects chains that violate basic constraints.
	BasicConstraints ID = "5"
)

var idAliases = map[string]ID{
	"base":              Base,
	"authenticode":      Authenticode,
	"ssl":               SSL,
	"basic-constraints": BasicConstraints,
}

// ParseID maps a policy name such as "ssl" to its id. Anything else is
// returned unchanged so registered numeric ids pass through.
func ParseID(s string) ID {
	if id, ok := idAliases[strings.ToLower(s)]; ok {
		return id
	}
	return ID(s)
}

// Status is the result code of a verdict.
type Status uint32

const (
	OK                   Status = 0x00000000
	ErrSignature         Status = 0x80096004
	ErrBasicConstraints  Status = 0x80096019
	ErrExpired           Status = 0x800B0101
	ErrUntrustedRoot     Status = 0x800B0109
	ErrChaining          Status = 0x800B010A
	ErrUntrustedTestRoot Status = 0x800B010D
	ErrNameMismatch      Status = 0x800B010F
	ErrWrongUsage        Status = 0x800B0110

	// ErrCyclic is reported for a chain that loops back on itself.
	ErrCyclic = ErrChaining
)

var statusNames = map[Status]string{
	OK:                   "ok",
	ErrSignature:         "bad-signature",
	ErrBasicConstraints:  "basic-constraints",
	ErrExpired:           "expired",
	ErrUntrustedRoot:     "untrusted-root",
	ErrChaining:          "chaining",
	ErrUntrustedTestRoot: "untrusted-test-root",
	ErrNameMismatch:      "name-mismatch",
	ErrWrongUsage:        "wrong-usage",
}

func (s Status) String() string {
	if name, ok := statusNames[s]; ok {
		return fmt.Sprintf("%s (0x%08x)", name, uint32(s))
	}
	return fmt.Sprintf("0x%08x", uint32(s))
}

// Flags relax the checks of a policy.
type Flags uint32

const (
	// IgnoreNotTimeValid accepts expired or not yet valid certificates.
	IgnoreNotTimeValid Flags = 0x00000001
	// IgnoreInvalidBasicConstraints accepts constraint violations.
	IgnoreInvalidBasicConstraints Flags = 0x00000008
	// AllowUnknownCA accepts chains ending in an untrusted root.
	AllowUnknownCA Flags = 0x00000010
	// IgnoreWrongUsage accepts a leaf without the required key usage.
	IgnoreWrongUsage Flags = 0x00000020
	// IgnoreInvalidName accepts a leaf that does not match the server name.
	IgnoreInvalidName Flags = 0x00000040
	// TrustTestRoot accepts roots on the test root allow-list.
	TrustTestRoot Flags = 0x00004000
)

// Params carries per call policy input. A nil *Params is valid.
type Params struct {
	Flags Flags
	// ServerName is matched against the leaf by the SSL policy. Empty skips
	// the check.
	ServerName string
	// Client makes the SSL policy check client authentication usage.
	Client bool
}

// Verdict is the outcome of a policy check.
type Verdict struct {
	Status       Status
	ChainIndex   int
	ElementIndex int
}

// okVerdict is the verdict of a chain without problems.
var okVerdict = Verdict{Status: OK, ChainIndex: -1, ElementIndex: -1}

// ErrRejected is matched by every error returned from [Verdict.Err].
var ErrRejected = errors.New("x509policy: chain rejected")

// VerdictError is the error form of a failed verdict.
type VerdictError struct {
	Verdict
}

func (e *VerdictError) Error() string {
	if e.ElementIndex < 0 {
		return fmt.Sprintf("%v: %s at chain %d", ErrRejected, e.Status, e.ChainIndex)
	}
	return fmt.Sprintf("%v: %s at chain %d element %d", ErrRejected, e.Status, e.ChainIndex, e.ElementIndex)
}

// Is makes errors.Is(err, ErrRejected) hold.
func (e *VerdictError) Is(target error) bool { return target == ErrRejected }

// Err returns nil for an OK verdict and a *VerdictError otherwise.
func (v Verdict) Err() error {
	if v.Status == OK {
		return nil
	}
	return &VerdictError{Verdict: v}
}

// Policy checks a chain context.
type Policy interface {
	Check(cc *x509chain.ChainContext, params *Params) Verdict
}

// PolicyFunc adapts a function to [Policy].
type PolicyFunc func(cc *x509chain.ChainContext, params *Params) Verdict

// Check calls f.
func (f PolicyFunc) Check(cc *x509chain.ChainContext, params *Params) Verdict {
	return f(cc, params)
}

// locate returns a verdict for the first element, in chain order, that
// carries bit.
func locate(cc *x509chain.ChainContext, bit x509chain.TrustError, status Status) Verdict {
	for i, chain := range cc.Chains {
		for j, el := range chain.Elements {
			if el.Status.Errors&bit != 0 {
				return Verdict{Status: status, ChainIndex: i, ElementIndex: j}
			}
		}
	}
	for i, chain := range cc.Chains {
		if chain.Status.Errors&bit != 0 {
			return Verdict{Status: status, ChainIndex: i, ElementIndex: -1}
		}
	}
	return Verdict{Status: status, ChainIndex: 0, ElementIndex: -1}
}

func flagsOf(params *Params) Flags {
	if params == nil {
		return 0
	}
	return params.Flags
}
