// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509policy

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"sync"

	x509chain "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/chain"
	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/trusterr"
	"github.com/H0llyW00dzZ/x509-trust-store/src/logger"
)

// Registry maps policy ids to policies. It is safe for concurrent use.
type Registry struct {
	mu       sync.RWMutex
	policies map[ID]Policy
	log      logger.Logger
}

type registryOptions struct {
	testRoots [][sha256.Size]byte
	log       logger.Logger
}

// Option configures a registry.
type Option func(*registryOptions)

// WithTestRootKeys adds SHA-256 digests of SubjectPublicKeyInfo values to the
// Authenticode test root allow-list. The built-in test roots are always on
// the list.
func WithTestRootKeys(digests ...[sha256.Size]byte) Option {
	return func(o *registryOptions) { o.testRoots = append(o.testRoots, digests...) }
}

// WithLogger sets the logger used to trace verdicts.
func WithLogger(l logger.Logger) Option {
	return func(o *registryOptions) {
		if l != nil {
			o.log = l
		}
	}
}

// NewRegistry returns a registry holding the built-in policies.
func NewRegistry(opts ...Option) *Registry {
	o := registryOptions{log: logger.Nop(), testRoots: append([][sha256.Size]byte(nil), builtinTestRoots...)}
	for _, opt := range opts {
		opt(&o)
	}

	auth := &authenticodePolicy{testRoots: make(map[[sha256.Size]byte]struct{}, len(o.testRoots))}
	for _, d := range o.testRoots {
		auth.testRoots[d] = struct{}{}
	}
	return &Registry{
		log: o.log,
		policies: map[ID]Policy{
			Base:             PolicyFunc(checkBase),
			Authenticode:     auth,
			SSL:              PolicyFunc(checkSSL),
			BasicConstraints: PolicyFunc(checkBasicConstraints),
		},
	}
}

// Register adds p under id. An id that is already registered fails with
// [trusterr.ErrExists].
func (r *Registry) Register(id ID, p Policy) error {
	if id == "" || p == nil {
		return trusterr.ErrInvalidParameter
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.policies[id]; ok {
		return fmt.Errorf("%w: policy %q", trusterr.ErrExists, id)
	}
	r.policies[id] = p
	return nil
}

// Lookup returns the policy registered under id.
func (r *Registry) Lookup(id ID) (Policy, error) {
	r.mu.RLock()
	p, ok := r.policies[id]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: policy %q", trusterr.ErrNotImplemented, id)
	}
	return p, nil
}

// IDs returns the registered ids in sorted order.
func (r *Registry) IDs() []ID {
	r.mu.RLock()
	ids := make([]ID, 0, len(r.policies))
	for id := range r.policies {
		ids = append(ids, id)
	}
	r.mu.RUnlock()
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Verify checks cc under the policy registered as id. params may be nil.
//
// The error reports a bad call or an unknown policy; a rejected chain is a
// verdict with a non-OK status.
func (r *Registry) Verify(id ID, cc *x509chain.ChainContext, params *Params) (Verdict, error) {
	if cc == nil || len(cc.Chains) == 0 {
		return Verdict{}, trusterr.ErrInvalidParameter
	}
	p, err := r.Lookup(id)
	if err != nil {
		return Verdict{}, err
	}
	v := p.Check(cc, params)
	r.log.Debugf("policy %s: %s", id, v.Status)
	return v, nil
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Register adds p to the process-wide registry.
func Register(id ID, p Policy) error { return defaultRegistry.Register(id, p) }

// Verify checks cc with the process-wide registry.
func Verify(id ID, cc *x509chain.ChainContext, params *Params) (Verdict, error) {
	return defaultRegistry.Verify(id, cc, params)
}
