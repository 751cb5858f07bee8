// Copyright (c) 2026 H0llyW00dzZ All rights reserved.
//
// By accessing or using this software, you agree to be bound by the terms
// of the License Agreement, which you can find at LICENSE files.

package config

import (
	"context"
	"errors"
	"fmt"
	"os"

	x509certs "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/certs"
	x509chain "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/chain"
	x509store "github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/store"
	"github.com/H0llyW00dzZ/x509-trust-store/src/internal/x509/store/persist"
	"github.com/H0llyW00dzZ/x509-trust-store/src/logger"
)

// Source kinds.
const (
	KindMemory = "memory"
	KindDir    = "dir"
	KindSQLite = "sqlite"
	KindFile   = "file"
)

// ErrUnknownKind reports an unsupported source kind.
var ErrUnknownKind = errors.New("config: unknown store kind")

func (s Source) validate() error {
	switch s.Kind {
	case "", KindMemory:
		return nil
	case KindDir, KindSQLite, KindFile:
		if s.Path == "" {
			return fmt.Errorf("%s store needs a path", s.Kind)
		}
		return nil
	}
	return fmt.Errorf("%w: %q", ErrUnknownKind, s.Kind)
}

// Open opens the store s describes under the given name.
func (s Source) Open(ctx context.Context, name string, log logger.Logger) (x509store.Store, error) {
	if err := s.validate(); err != nil {
		return nil, err
	}
	if log == nil {
		log = logger.Nop()
	}
	opts := []x509store.Option{x509store.WithName(name), x509store.WithLogger(log)}
	if s.ReadOnly {
		opts = append(opts, x509store.WithReadOnly())
	}

	switch s.Kind {
	case KindDir:
		backend, err := persist.NewDir(s.Path)
		if err != nil {
			return nil, err
		}
		return openProvider(ctx, backend, opts)
	case KindSQLite:
		backend, err := persist.OpenSQLite(s.Path)
		if err != nil {
			return nil, err
		}
		return openProvider(ctx, backend, opts)
	case KindFile:
		return openFile(s.Path, opts)
	}
	return x509store.NewMemory(opts...), nil
}

func openProvider(ctx context.Context, backend persist.Backend, opts []x509store.Option) (x509store.Store, error) {
	p, err := x509store.OpenProvider(ctx, backend, opts...)
	if err != nil {
		backend.Close()
		return nil, err
	}
	return p, nil
}

// openFile loads a certificate bundle into a memory store.
func openFile(path string, opts []x509store.Option) (x509store.Store, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	certs, err := x509certs.New().DecodeMultiple(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m, err := x509store.NewMemoryFrom(certs, opts...)
	if err != nil {
		return nil, err
	}
	return m, nil
}

// Stores holds the opened system stores.
type Stores struct {
	Root, CA, My, Trust x509store.Store
	Additional          []x509store.Store
}

// Close closes every store, committing provider stores.
func (s *Stores) Close() error {
	var errs []error
	for _, st := range append([]x509store.Store{s.Root, s.CA, s.My, s.Trust}, s.Additional...) {
		if st != nil {
			errs = append(errs, st.Close())
		}
	}
	return errors.Join(errs...)
}

// OpenStores opens the configured system stores.
func (c *Config) OpenStores(ctx context.Context, log logger.Logger) (*Stores, error) {
	out := &Stores{}
	fail := func(err error) (*Stores, error) {
		out.Close()
		return nil, err
	}
	var err error
	if out.Root, err = c.Stores.Root.Open(ctx, "root", log); err != nil {
		return fail(fmt.Errorf("root store: %w", err))
	}
	if out.CA, err = c.Stores.CA.Open(ctx, "ca", log); err != nil {
		return fail(fmt.Errorf("ca store: %w", err))
	}
	if out.My, err = c.Stores.My.Open(ctx, "my", log); err != nil {
		return fail(fmt.Errorf("my store: %w", err))
	}
	if out.Trust, err = c.Stores.Trust.Open(ctx, "trust", log); err != nil {
		return fail(fmt.Errorf("trust store: %w", err))
	}
	for i, src := range c.Stores.Additional {
		s, err := src.Open(ctx, fmt.Sprintf("additional-%d", i), log)
		if err != nil {
			return fail(fmt.Errorf("additional store %d: %w", i, err))
		}
		out.Additional = append(out.Additional, s)
	}
	return out, nil
}

// EngineConfig returns the engine configuration over stores.
func (c *Config) EngineConfig(stores *Stores) x509chain.EngineConfig {
	return x509chain.EngineConfig{
		Root:                      stores.Root,
		CA:                        stores.CA,
		My:                        stores.My,
		Trust:                     stores.Trust,
		Additional:                stores.Additional,
		CycleDetectionModulus:     c.Engine.CycleDetectionModulus,
		MaxAlternates:             c.Engine.MaxAlternates,
		MaximumCachedCertificates: c.Engine.MaximumCachedCertificates,
		URLRetrievalTimeout:       c.URLRetrievalTimeout(),
	}
}
