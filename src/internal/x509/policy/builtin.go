// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509policy

import (
	"crypto/sha256"
	"crypto/x509"

	x509chain "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/chain"
)

// checkBase inspects the chain errors in fixed priority order. Only the
// first problem found is reported.
func checkBase(cc *x509chain.ChainContext, params *Params) Verdict {
	errs := cc.Status.Errors
	flags := flagsOf(params)
	switch {
	case errs&x509chain.NotSignatureValid != 0:
		return locate(cc, x509chain.NotSignatureValid, ErrSignature)
	case errs&x509chain.IsUntrustedRoot != 0 && flags&AllowUnknownCA == 0:
		return locate(cc, x509chain.IsUntrustedRoot, ErrUntrustedRoot)
	case errs&x509chain.IsCyclic != 0:
		v := locate(cc, x509chain.IsCyclic, ErrCyclic)
		v.ElementIndex = -1
		return v
	case errs&x509chain.IsPartialChain != 0 && flags&AllowUnknownCA == 0:
		return locate(cc, x509chain.IsPartialChain, ErrChaining)
	}
	return okVerdict
}

// authenticodePolicy is Base with a second look at untrusted roots.
type authenticodePolicy struct {
	testRoots map[[sha256.Size]byte]struct{}
}

func (p *authenticodePolicy) Check(cc *x509chain.ChainContext, params *Params) Verdict {
	v := checkBase(cc, params)
	if v.Status != ErrUntrustedRoot || v.ElementIndex < 0 {
		return v
	}
	el := cc.Chains[v.ChainIndex].Elements[v.ElementIndex]
	if !p.isTestRoot(el.Context.Cert()) {
		return v
	}
	if flagsOf(params)&TrustTestRoot != 0 {
		return okVerdict
	}
	v.Status = ErrUntrustedTestRoot
	return v
}

func (p *authenticodePolicy) isTestRoot(cert *x509.Certificate) bool {
	_, ok := p.testRoots[TestRootKey(cert)]
	return ok
}

// checkBasicConstraints reports the first constraint violation.
func checkBasicConstraints(cc *x509chain.ChainContext, params *Params) Verdict {
	if cc.Status.Errors&x509chain.InvalidBasicConstraints == 0 || flagsOf(params)&IgnoreInvalidBasicConstraints != 0 {
		return okVerdict
	}
	return locate(cc, x509chain.InvalidBasicConstraints, ErrBasicConstraints)
}

// checkSSL runs Base and then checks the leaf for the TLS role.
func checkSSL(cc *x509chain.ChainContext, params *Params) Verdict {
	if v := checkBase(cc, params); v.Status != OK {
		return v
	}
	var p Params
	if params != nil {
		p = *params
	}
	if cc.Status.Errors&x509chain.NotTimeValid != 0 && p.Flags&IgnoreNotTimeValid == 0 {
		return locate(cc, x509chain.NotTimeValid, ErrExpired)
	}

	chain := cc.Primary()
	if chain == nil || len(chain.Elements) == 0 {
		return okVerdict
	}
	leaf := chain.Elements[0].Context.Cert()

	usage := x509.ExtKeyUsageServerAuth
	if p.Client {
		usage = x509.ExtKeyUsageClientAuth
	}
	if !hasUsage(leaf, usage) && p.Flags&IgnoreWrongUsage == 0 {
		return Verdict{Status: ErrWrongUsage, ChainIndex: 0, ElementIndex: 0}
	}
	if !p.Client && p.ServerName != "" && p.Flags&IgnoreInvalidName == 0 {
		if err := leaf.VerifyHostname(p.ServerName); err != nil {
			return Verdict{Status: ErrNameMismatch, ChainIndex: 0, ElementIndex: 0}
		}
	}
	return okVerdict
}

// hasUsage reports whether cert may be used for usage. A certificate
// without extended key usage may be used for anything.
func hasUsage(cert *x509.Certificate, usage x509.ExtKeyUsage) bool {
	if len(cert.ExtKeyUsage) == 0 && len(cert.UnknownExtKeyUsage) == 0 {
		return true
	}
	for _, u := range cert.ExtKeyUsage {
		if u == usage || u == x509.ExtKeyUsageAny {
			return true
		}
	}
	return false
}
