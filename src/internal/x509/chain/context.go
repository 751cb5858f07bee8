// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"sync/atomic"
	"time"

	x509ctx "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/context"
	x509store "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/store"
)

// Element is one certificate of a simple chain.
type Element struct {
	// Context holds a reference owned by the chain.
	Context x509ctx.Context
	Status  TrustStatus
}

// SimpleChain is a leaf-to-root path. Elements[0] is always the leaf.
type SimpleChain struct {
	Elements []*Element
	Status   TrustStatus
}

func (s *SimpleChain) tail() *Element { return s.Elements[len(s.Elements)-1] }

func (s *SimpleChain) append(c x509ctx.Context) {
	s.Elements = append(s.Elements, &Element{Context: c})
}

// truncate releases every element from n on.
func (s *SimpleChain) truncate(n int) {
	for _, el := range s.Elements[n:] {
		el.Context.Release()
	}
	clear(s.Elements[n:])
	s.Elements = s.Elements[:n]
}

// prefix copies the first n elements with fresh references. Issuer match
// info is kept; every other status bit is recomputed on validation.
func (s *SimpleChain) prefix(n int) *SimpleChain {
	out := &SimpleChain{Elements: make([]*Element, n)}
	for i, el := range s.Elements[:n] {
		out.Elements[i] = &Element{
			Context: el.Context.AddRef(),
			Status:  TrustStatus{Info: el.Status.Info & (HasExactMatchIssuer | HasKeyMatchIssuer | HasNameMatchIssuer)},
		}
	}
	return out
}

func (s *SimpleChain) release() {
	s.truncate(0)
}

// ChainContext is the result of a chain build.
//
// It is reference counted: BuildChain returns one reference, Dup adds one
// and Free drops one. The last Free releases every element, every lower
// quality alternate and the world store the chain was built against.
type ChainContext struct {
	Chains []*SimpleChain
	Status TrustStatus
	// LowerQuality holds the other chains explored during the build, in
	// exploration order. It is empty unless ReturnLowerQuality was set.
	LowerQuality []*ChainContext

	world x509store.Store
	refs  atomic.Int32

	// The build result holds for any reference time in [validFrom,
	// validUntil], including the alternates explored and discarded.
	validFrom  time.Time
	validUntil time.Time
}

func newChainContext(world x509store.Store, chain *SimpleChain) *ChainContext {
	cc := &ChainContext{Chains: []*SimpleChain{chain}, world: world.Dup()}
	cc.refs.Store(1)
	cc.Status = chain.Status
	return cc
}

// Primary returns the first simple chain.
func (cc *ChainContext) Primary() *SimpleChain { return cc.Chains[0] }

// Quality returns the score of the chain context.
func (cc *ChainContext) Quality() Quality { return QualityOf(cc.Status.Errors) }

// Dup takes another reference on cc.
func (cc *ChainContext) Dup() *ChainContext {
	cc.refs.Add(1)
	return cc
}

// Free drops one reference and reports whether it was the last one.
func (cc *ChainContext) Free() bool {
	n := cc.refs.Add(-1)
	if n < 0 {
		panic("x509chain: chain context freed too many times")
	}
	if n > 0 {
		return false
	}
	for _, c := range cc.Chains {
		c.release()
	}
	for _, alt := range cc.LowerQuality {
		alt.Free()
	}
	cc.LowerQuality = nil
	cc.world.Close()
	return true
}
