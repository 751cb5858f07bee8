// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"bytes"
	"context"
	"crypto/x509"
	"errors"
	"fmt"
	"time"

	x509ctx "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/context"
	x509crypto "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/crypto"
	x509store "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/store"
	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/trusterr"
)

// BuildChain builds the best chain for leaf at the given reference time.
//
// A zero at means now. Issuers are searched in the engine's world store
// followed by extra, which may be nil. Trust problems are reported as status
// bits on the result; an error means the build itself failed. The ctx is
// checked between issuer lookups.
//
// The result carries one reference owned by the caller; release it with
// [ChainContext.Free].
func (e *Engine) BuildChain(ctx context.Context, leaf x509ctx.Context, at time.Time, extra x509store.Store, flags Flags) (*ChainContext, error) {
	if leaf == nil || leaf.Cert() == nil {
		return nil, trusterr.ErrInvalidParameter
	}
	if e.closed.Load() {
		return nil, fmt.Errorf("%w: engine closed", trusterr.ErrInvalidParameter)
	}
	if at.IsZero() {
		at = time.Now()
	}
	start := time.Now()

	var key string
	cacheable := flags&CacheEndCert != 0 && extra == nil
	if cacheable {
		h, err := x509ctx.Hash(leaf)
		if err != nil {
			return nil, err
		}
		key = cacheKey(h, flags)
		if cc, ok := e.cache.get(key, at); ok {
			e.log.Debugf("chain: cache hit for %s", leaf.Cert().Subject)
			return cc, nil
		}
	}

	world, err := e.worldFor(extra)
	if err != nil {
		return nil, err
	}
	defer world.Close()

	b := &builder{engine: e, world: world, at: at, flags: flags}
	cc, err := b.build(ctx, leaf, flags)
	e.metrics.ObserveBuild(cc, err, time.Since(start))
	if err != nil {
		return nil, err
	}
	if cacheable {
		e.cache.put(key, cc)
	}
	return cc, nil
}

// worldFor returns a new reference on the store searched for issuers.
func (e *Engine) worldFor(extra x509store.Store) (x509store.Store, error) {
	if extra == nil {
		return e.world.Dup(), nil
	}
	w := x509store.NewCollection(x509store.WithName("build"), x509store.WithLogger(e.log))
	if err := w.AddStore(e.world, 0, 0); err != nil {
		w.Close()
		return nil, err
	}
	if err := w.AddStore(extra, 0, 0); err != nil {
		w.Close()
		return nil, err
	}
	return w, nil
}

// builder carries the state of one BuildChain call.
type builder struct {
	engine *Engine
	world  x509store.Store
	at     time.Time
	flags  Flags

	// retrieved holds the certificates whose issuers were downloaded.
	retrieved map[*x509.Certificate]bool
}

func (b *builder) build(ctx context.Context, leaf x509ctx.Context, flags Flags) (*ChainContext, error) {
	chain := &SimpleChain{}
	chain.append(leaf.AddRef())
	if err := b.extend(ctx, chain); err != nil {
		chain.release()
		return nil, err
	}
	b.validate(chain)
	first := newChainContext(b.world, chain)

	explored := []*ChainContext{first}
	latest := first
	for b.engine.maxAlternates > 0 && len(explored)-1 < b.engine.maxAlternates {
		alt, err := b.alternate(ctx, latest)
		if err != nil {
			for _, cc := range explored {
				cc.Free()
			}
			return nil, err
		}
		if alt == nil {
			break
		}
		explored = append(explored, alt)
		latest = alt
	}
	b.engine.metrics.IncrementAlternates(len(explored) - 1)

	best := 0
	for i, cc := range explored[1:] {
		if cc.Quality() > explored[best].Quality() {
			best = i + 1
		}
	}
	primary := explored[best]
	primary.validFrom, primary.validUntil = stableWindow(b.at, explored...)
	for i, cc := range explored {
		if i == best {
			continue
		}
		if flags&ReturnLowerQuality != 0 {
			primary.LowerQuality = append(primary.LowerQuality, cc)
		} else {
			cc.Free()
		}
	}
	b.engine.log.Debugf("chain: %s: %d elements, %d alternates, errors %s",
		leaf.Cert().Subject, len(primary.Primary().Elements), len(explored)-1, primary.Status.Errors)
	return primary, nil
}

// extend appends issuers to chain until it reaches a self-signed
// certificate, a cycle or a certificate without an issuer.
func (b *builder) extend(ctx context.Context, chain *SimpleChain) error {
	for {
		tail := chain.tail()
		if tail.Status.Errors&IsCyclic != 0 || isSelfSigned(tail.Context.Cert()) {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		issuer, info, err := b.findIssuer(tail.Context, nil, nil)
		if errors.Is(err, trusterr.ErrNotFound) && b.retrieve(ctx, tail.Context) {
			issuer, info, err = b.findIssuer(tail.Context, nil, nil)
		}
		if errors.Is(err, trusterr.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		tail.Status.Info |= info
		chain.append(issuer)
		b.checkCycle(chain)
	}
}

// retrieve downloads the issuers of subject into the engine's fetched store
// once per build. It reports whether anything was added.
func (b *builder) retrieve(ctx context.Context, subject x509ctx.Context) bool {
	cert := subject.Cert()
	if b.flags&RetrieveIssuers == 0 || len(cert.IssuingCertificateURL) == 0 || b.retrieved[cert] {
		return false
	}
	if b.retrieved == nil {
		b.retrieved = make(map[*x509.Certificate]bool)
	}
	b.retrieved[cert] = true

	fetchCtx, cancel := context.WithTimeout(ctx, b.engine.urlTimeout)
	defer cancel()
	certs, err := b.engine.fetcher.Fetch(fetchCtx, cert)
	b.engine.metrics.IncrementFetch(err == nil)
	if err != nil {
		b.engine.log.Printf("chain: issuer retrieval for %s: %v", cert.Subject, err)
		return false
	}

	added := false
	for _, c := range certs {
		got, err := x509store.AddCertificate(b.engine.fetched, c, x509store.UseExisting)
		if err != nil {
			b.engine.log.Printf("chain: keep fetched %s: %v", c.Subject, err)
			continue
		}
		got.Release()
		added = true
	}
	b.engine.log.Debugf("chain: retrieved %d issuer certificates for %s", len(certs), cert.Subject)
	return added
}

// isSelfSigned compares the raw subject and issuer names.
func isSelfSigned(cert *x509.Certificate) bool {
	return bytes.Equal(cert.RawSubject, cert.RawIssuer)
}

// findIssuer returns the first world context after prev that could have
// issued subject, skipping any context equal to skip. A candidate must carry
// the subject's issuer name; when both key identifiers are present they must
// match too. prev is consumed.
func (b *builder) findIssuer(subject, prev, skip x509ctx.Context) (x509ctx.Context, TrustInfo, error) {
	cert := subject.Cert()
	var info TrustInfo
	match := func(c x509ctx.Context) bool {
		cand := c.Cert()
		if !bytes.Equal(cand.RawSubject, cert.RawIssuer) {
			return false
		}
		if skip != nil && x509ctx.Equal(c, skip) {
			return false
		}
		if len(cert.AuthorityKeyId) > 0 && len(cand.SubjectKeyId) > 0 {
			if !bytes.Equal(cert.AuthorityKeyId, cand.SubjectKeyId) {
				return false
			}
			info = HasKeyMatchIssuer
			return true
		}
		info = HasNameMatchIssuer
		return true
	}
	issuer, err := x509store.Find(b.world, prev, match)
	if err != nil {
		return nil, 0, err
	}
	return issuer, info, nil
}

// checkCycle looks for a repeated certificate when the chain length is a
// multiple of the engine's modulus. On the first repeat the chain is cut
// before the second occurrence and the new tail is marked cyclic.
func (b *builder) checkCycle(chain *SimpleChain) bool {
	n := len(chain.Elements)
	if m := b.engine.cycleModulus; m > 1 && n%m != 0 {
		return false
	}
	for j := 1; j < n; j++ {
		for i := 0; i < j; i++ {
			if !x509ctx.Equal(chain.Elements[i].Context, chain.Elements[j].Context) {
				continue
			}
			chain.truncate(j)
			chain.tail().Status.Errors |= IsCyclic
			return true
		}
	}
	return false
}

// validate computes every element status from the root toward the leaf and
// folds them into the chain status.
func (b *builder) validate(chain *SimpleChain) {
	els := chain.Elements
	n := len(els)
	for _, el := range els {
		el.Status.Errors &= IsCyclic
		el.Status.Info &= HasExactMatchIssuer | HasKeyMatchIssuer | HasNameMatchIssuer
	}

	pathLen := -1
	violated := false
	for i := n - 1; i >= 0; i-- {
		el := els[i]
		cert := el.Context.Cert()
		if b.at.Before(cert.NotBefore) || b.at.After(cert.NotAfter) {
			el.Status.Errors |= NotTimeValid
		}
		if _, err := b.engine.codec.DecodeEnhancedKeyUsage(cert); err != nil {
			el.Status.Errors |= InvalidExtension
		}

		if i == 0 {
			if violated {
				el.Status.Errors |= InvalidBasicConstraints
			} else if _, _, err := b.engine.codec.DecodeBasicConstraints(cert); err != nil {
				el.Status.Errors |= InvalidBasicConstraints
			}
			continue
		}

		if err := x509crypto.VerifyIssued(b.engine.provider, els[i-1].Context.Cert(), cert); err != nil {
			els[i-1].Status.Errors |= NotSignatureValid
		}

		switch {
		case violated:
			el.Status.Errors |= InvalidBasicConstraints
		case !b.checkCAConstraints(cert, &pathLen, i-1, &violated):
			el.Status.Errors |= InvalidBasicConstraints
		case pathLen > 0:
			pathLen--
		}
	}

	terminal := els[n-1]
	cert := terminal.Context.Cert()
	switch {
	case terminal.Status.Errors&IsCyclic != 0:
	case isSelfSigned(cert):
		terminal.Status.Info |= IsSelfSigned
		b.checkRoot(terminal)
	default:
		terminal.Status.Errors |= IsPartialChain
	}

	chain.Status = TrustStatus{}
	for _, el := range els {
		chain.Status.combine(el.Status)
	}
}

// checkCAConstraints checks cert as the issuer of remainingCAs further CA
// certificates. pathLen is the tightest path length seen so far, -1 when
// none. A path length violation sets violated.
func (b *builder) checkCAConstraints(cert *x509.Certificate, pathLen *int, remainingCAs int, violated *bool) bool {
	bc, present, err := b.engine.codec.DecodeBasicConstraints(cert)
	valid := err == nil
	if valid {
		switch {
		case present && !bc.IsCA:
			valid = false
		case bc.HasPathLen() && (*pathLen < 0 || bc.PathLen < *pathLen):
			*pathLen = bc.PathLen
		}
	}
	if *pathLen >= 0 && remainingCAs > *pathLen {
		valid = false
		*violated = true
	}
	return valid
}

// checkRoot verifies the self-signature of a terminal element and looks it
// up in the root store.
func (b *builder) checkRoot(el *Element) {
	cert := el.Context.Cert()
	if err := x509crypto.VerifyIssued(b.engine.provider, cert, cert); err != nil {
		el.Status.Errors |= NotSignatureValid
	}
	trusted, err := x509store.Contains(b.engine.root, el.Context)
	if err != nil {
		b.engine.log.Printf("chain: root lookup for %s: %v", cert.Subject, err)
	}
	if trusted {
		el.Status.Info |= IsTrustedRoot
	} else {
		el.Status.Errors |= IsUntrustedRoot
	}
}

// alternate searches from is for another issuer of any non-terminal element,
// scanning from the root toward the leaf. It returns nil when none remains.
func (b *builder) alternate(ctx context.Context, from *ChainContext) (*ChainContext, error) {
	src := from.Primary()
	for j := len(src.Elements) - 2; j >= 0; j-- {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		subject := src.Elements[j].Context
		used := src.Elements[j+1].Context
		issuer, info, err := b.findIssuer(subject, used.AddRef(), used)
		switch {
		case errors.Is(err, x509store.ErrStaleContext):
			b.engine.log.Debugf("chain: issuer of %s left the world store", subject.Cert().Subject)
			continue
		case errors.Is(err, trusterr.ErrNotFound):
			continue
		case err != nil:
			return nil, err
		}

		chain := src.prefix(j + 1)
		chain.tail().Status.Info = info
		chain.append(issuer)
		if !b.checkCycle(chain) {
			if err := b.extend(ctx, chain); err != nil {
				chain.release()
				return nil, err
			}
		}
		b.validate(chain)
		return newChainContext(b.world, chain), nil
	}
	return nil, nil
}
