// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package x509chain

import (
	"errors"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	x509certs "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/certs"
	x509crypto "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/crypto"
	x509store "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/store"
	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/trusterr"
	"github.com/H0llyW00dzZ/x509-trust-store/src/logger"
)

const (
	// DefaultCycleDetectionModulus runs the cycle check after every append.
	DefaultCycleDetectionModulus = 1
	// DefaultMaxAlternates bounds the alternate search of one build.
	DefaultMaxAlternates = 100
	// DefaultURLRetrievalTimeout bounds one issuer download.
	DefaultURLRetrievalTimeout = 15 * time.Second
)

// Flags modify a single build.
type Flags uint32

const (
	// CacheEndCert caches the result keyed by the end certificate. Builds
	// with an extra store are never cached.
	CacheEndCert Flags = 0x00000001
	// ReturnLowerQuality keeps the explored alternates on the result.
	ReturnLowerQuality Flags = 0x00000080
	// RetrieveIssuers downloads a missing issuer from the authority
	// information access URLs of the certificate that needs it. Downloaded
	// certificates are kept in the engine's fetched store.
	RetrieveIssuers Flags = 0x00000100
)

// EngineConfig describes the stores and limits of an engine.
//
// Nil stores are replaced by empty memory stores. The engine takes its own
// reference on every store; the caller keeps theirs.
type EngineConfig struct {
	// Root holds the trusted self-signed roots.
	Root x509store.Store
	// CA, My and Trust are searched for issuers after Root.
	CA    x509store.Store
	My    x509store.Store
	Trust x509store.Store
	// Additional stores are searched last, in order.
	Additional []x509store.Store

	// CycleDetectionModulus runs the cycle check only when the chain length
	// is a multiple of it. Zero means DefaultCycleDetectionModulus.
	CycleDetectionModulus int
	// MaxAlternates bounds the alternate search. Zero means
	// DefaultMaxAlternates; negative disables the search.
	MaxAlternates int
	// MaximumCachedCertificates bounds the end certificate cache. Zero means
	// DefaultMaxCachedChains; negative disables the cache.
	MaximumCachedCertificates int
	// URLRetrievalTimeout bounds one issuer download. Zero means
	// DefaultURLRetrievalTimeout.
	URLRetrievalTimeout time.Duration
}

type engineOptions struct {
	log      logger.Logger
	provider x509crypto.Provider
	codec    *x509certs.Certificate
	registry prometheus.Registerer
	fetcher  *IssuerFetcher
}

// Option configures an engine.
type Option func(*engineOptions)

// WithLogger sets the logger for build tracing.
func WithLogger(l logger.Logger) Option {
	return func(o *engineOptions) {
		if l != nil {
			o.log = l
		}
	}
}

// WithCryptoProvider sets the provider used to verify signatures.
func WithCryptoProvider(p x509crypto.Provider) Option {
	return func(o *engineOptions) {
		if p != nil {
			o.provider = p
		}
	}
}

// WithCodec sets the codec used to decode extensions.
func WithCodec(c *x509certs.Certificate) Option {
	return func(o *engineOptions) {
		if c != nil {
			o.codec = c
		}
	}
}

// WithIssuerFetcher replaces the fetcher used by [RetrieveIssuers] builds.
func WithIssuerFetcher(f *IssuerFetcher) Option {
	return func(o *engineOptions) {
		if f != nil {
			o.fetcher = f
		}
	}
}

// WithRegistry registers the engine metrics with reg.
func WithRegistry(reg prometheus.Registerer) Option {
	return func(o *engineOptions) { o.registry = reg }
}

// Engine builds and scores certificate chains.
//
// An Engine is safe for concurrent use; builds only read from its stores.
type Engine struct {
	root    x509store.Store
	world   *x509store.Collection
	fetched *x509store.Memory

	cycleModulus  int
	maxAlternates int
	urlTimeout    time.Duration

	provider x509crypto.Provider
	codec    *x509certs.Certificate
	log      logger.Logger
	metrics  *Metrics
	cache    *chainCache
	fetcher  *IssuerFetcher

	closed atomic.Bool
}

// NewEngine creates an engine over the configured stores.
func NewEngine(cfg EngineConfig, opts ...Option) (*Engine, error) {
	if cfg.CycleDetectionModulus < 0 {
		return nil, trusterr.ErrInvalidParameter
	}
	o := engineOptions{
		log:      logger.Nop(),
		provider: x509crypto.Default,
		codec:    x509certs.New(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	e := &Engine{
		cycleModulus:  cfg.CycleDetectionModulus,
		maxAlternates: cfg.MaxAlternates,
		urlTimeout:    cfg.URLRetrievalTimeout,
		provider:      o.provider,
		codec:         o.codec,
		log:           o.log,
		metrics:       NewMetrics(o.registry),
	}
	if e.cycleModulus == 0 {
		e.cycleModulus = DefaultCycleDetectionModulus
	}
	if e.maxAlternates == 0 {
		e.maxAlternates = DefaultMaxAlternates
	}
	if e.urlTimeout == 0 {
		e.urlTimeout = DefaultURLRetrievalTimeout
	}
	maxCached := cfg.MaximumCachedCertificates
	if maxCached == 0 {
		maxCached = DefaultMaxCachedChains
	}
	e.cache = newChainCache(maxCached, e.metrics)
	e.fetcher = o.fetcher
	if e.fetcher == nil {
		e.fetcher = NewIssuerFetcher(e.urlTimeout)
	}

	e.world = x509store.NewCollection(x509store.WithName("world"), x509store.WithLogger(o.log))
	sources := []struct {
		name  string
		store x509store.Store
	}{
		{"root", cfg.Root},
		{"ca", cfg.CA},
		{"my", cfg.My},
		{"trust", cfg.Trust},
	}
	for _, src := range sources {
		s := src.store
		if s == nil {
			s = x509store.NewMemory(x509store.WithName(src.name), x509store.WithLogger(o.log))
		} else {
			s = s.Dup()
		}
		if src.name == "root" {
			e.root = s.Dup()
		}
		err := e.world.AddStore(s, 0, 0)
		s.Close()
		if err != nil {
			e.Close()
			return nil, err
		}
	}
	for _, s := range cfg.Additional {
		if err := e.world.AddStore(s, 0, 0); err != nil {
			e.Close()
			return nil, err
		}
	}
	e.fetched = x509store.NewMemory(x509store.WithName("fetched"), x509store.WithLogger(o.log))
	if err := e.world.AddStore(e.fetched, 0, 0); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// Root returns the engine's root store. The reference stays with the engine.
func (e *Engine) Root() x509store.Store { return e.root }

// World returns the collection searched for issuers. The reference stays
// with the engine.
func (e *Engine) World() *x509store.Collection { return e.world }

// CycleDetectionModulus returns the effective cycle check period.
func (e *Engine) CycleDetectionModulus() int { return e.cycleModulus }

// URLRetrievalTimeout returns the configured retrieval timeout.
func (e *Engine) URLRetrievalTimeout() time.Duration { return e.urlTimeout }

// Fetched returns the store holding downloaded issuers. The reference stays
// with the engine.
func (e *Engine) Fetched() *x509store.Memory { return e.fetched }

// Metrics returns the engine metrics.
func (e *Engine) Metrics() *Metrics { return e.metrics }

// CacheMetrics returns a snapshot of the end certificate cache counters.
func (e *Engine) CacheMetrics() CacheMetrics { return e.cache.snapshot() }

// CacheStats returns the end certificate cache counters formatted for display.
func (e *Engine) CacheStats() string { return e.cache.stats() }

// FlushCache drops every cached chain. Call it after changing the engine
// stores when builds use CacheEndCert.
func (e *Engine) FlushCache() { e.cache.flush() }

// Close releases the engine stores and cached chains. Chain contexts built
// by the engine stay valid until freed.
func (e *Engine) Close() error {
	if e.closed.Swap(true) {
		return nil
	}
	e.cache.flush()
	var errs []error
	if e.world != nil {
		errs = append(errs, e.world.Close())
	}
	if e.root != nil {
		errs = append(errs, e.root.Close())
	}
	if e.fetched != nil {
		errs = append(errs, e.fetched.Close())
	}
	return errors.Join(errs...)
}

var defaultEngine atomic.Pointer[Engine]

// Default returns the process-wide engine, creating one over empty stores
// on first use. Callers that want specific stores install them first with
// SetDefault.
func Default() (*Engine, error) {
	if e := defaultEngine.Load(); e != nil {
		return e, nil
	}
	e, err := NewEngine(EngineConfig{})
	if err != nil {
		return nil, err
	}
	if !defaultEngine.CompareAndSwap(nil, e) {
		e.Close()
	}
	return defaultEngine.Load(), nil
}

// SetDefault installs e as the process-wide engine. It fails with
// [trusterr.ErrExists] when one is already installed.
func SetDefault(e *Engine) error {
	if e == nil {
		return trusterr.ErrInvalidParameter
	}
	if !defaultEngine.CompareAndSwap(nil, e) {
		return trusterr.ErrExists
	}
	return nil
}

// CloseDefault removes and closes the process-wide engine, if any.
func CloseDefault() error {
	if e := defaultEngine.Swap(nil); e != nil {
		return e.Close()
	}
	return nil
}
